package finance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/pocket-ledger/internal/domain/categorization"
	"github.com/FACorreiaa/pocket-ledger/internal/domain/transactions"
	"github.com/FACorreiaa/pocket-ledger/internal/domain/transactions/repository"
	"github.com/FACorreiaa/pocket-ledger/pkg/metrics"
	"github.com/FACorreiaa/pocket-ledger/pkg/money"
)

// ErrAlreadyCaptured is returned when the same notification was submitted before.
var ErrAlreadyCaptured = errors.New("transaction already recorded")

// ConfigSource provides a user's category configuration.
type ConfigSource interface {
	GetConfig(ctx context.Context, userID uuid.UUID) (*categorization.Config, error)
}

// CategoryResolver picks a category for parsed fields.
type CategoryResolver interface {
	Resolve(ctx context.Context, fields categorization.Fields, cfg *categorization.Config) (categorization.Resolution, error)
}

// Receipt is returned for a captured notification.
type Receipt struct {
	Transaction *transactions.Transaction
	// Strategy that produced the category, empty when the fallback was used.
	Strategy string
	Summary  string
}

// CaptureService records bank notifications as transactions.
type CaptureService struct {
	parser   *MessageParser
	configs  ConfigSource
	resolver CategoryResolver
	repo     repository.Repository
	logger   *slog.Logger
	currency string
}

// NewCaptureService creates a capture service
func NewCaptureService(parser *MessageParser, configs ConfigSource, resolver CategoryResolver, repo repository.Repository, logger *slog.Logger) *CaptureService {
	return &CaptureService{
		parser:   parser,
		configs:  configs,
		resolver: resolver,
		repo:     repo,
		logger:   logger,
		currency: money.DefaultCurrency,
	}
}

// WithCurrency sets the currency used in receipt summaries.
func (s *CaptureService) WithCurrency(code string) *CaptureService {
	s.currency = code
	return s
}

// Submit parses a structured notification, categorizes it and stores it.
func (s *CaptureService) Submit(ctx context.Context, userID uuid.UUID, in StructuredInput) (*Receipt, error) {
	fields, err := s.parser.ParseStructured(in)
	if err != nil {
		metrics.Captured.WithLabelValues("parse_error").Inc()
		return nil, err
	}
	return s.capture(ctx, userID, fields)
}

// SubmitText is Submit for a notification pasted as free text.
func (s *CaptureService) SubmitText(ctx context.Context, userID uuid.UUID, raw string, received time.Time) (*Receipt, error) {
	fields, err := s.parser.ParseText(raw, received)
	if err != nil {
		metrics.Captured.WithLabelValues("parse_error").Inc()
		return nil, err
	}
	return s.capture(ctx, userID, fields)
}

func (s *CaptureService) capture(ctx context.Context, userID uuid.UUID, fields *ParsedFields) (*Receipt, error) {
	cfg, err := s.configs.GetConfig(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load category config: %w", err)
	}

	notes := append([]string(nil), fields.Warnings...)
	category, strategy := categorization.FallbackCategory, ""
	res, err := s.resolver.Resolve(ctx, categorization.Fields{Remarks: fields.Remarks, Description: fields.Description}, cfg)
	if err != nil {
		var unresolved *categorization.UnresolvedError
		if !errors.As(err, &unresolved) {
			return nil, err
		}
		s.logger.Warn("category unresolved, using fallback",
			"user_id", userID, "fallback", category, "error", unresolved.Cause)
		notes = append(notes, "Category unresolved: "+unresolved.Cause.Error())
	} else {
		category, strategy = res.Category, res.Strategy
	}

	raw := fields.RawMessage
	tx := &transactions.Transaction{
		ID:          transactions.NewID(raw, fields.Timestamp),
		UserID:      userID,
		Timestamp:   fields.Timestamp,
		Bank:        fields.Bank,
		Type:        fields.Type,
		Amount:      fields.Amount,
		Description: fields.Description,
		Account:     fields.Account,
		Category:    category,
		RawMessage:  &raw,
		Status:      strings.Join(notes, "; "),
	}

	if err := s.repo.Create(ctx, tx); err != nil {
		if errors.Is(err, repository.ErrDuplicateID) {
			metrics.Captured.WithLabelValues("duplicate").Inc()
			return nil, fmt.Errorf("%w: %s", ErrAlreadyCaptured, tx.ID)
		}
		metrics.Captured.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to save transaction: %w", err)
	}

	metrics.Captured.WithLabelValues("captured").Inc()
	s.logger.Info("transaction captured",
		"user_id", userID, "id", tx.ID, "category", tx.Category, "strategy", strategy)

	return &Receipt{
		Transaction: tx,
		Strategy:    strategy,
		Summary:     fmt.Sprintf("Added %s at %s.", money.FormatSigned(tx.Amount, s.currency), tx.Description),
	}, nil
}
