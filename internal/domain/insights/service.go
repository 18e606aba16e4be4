// Package insights summarizes a user's month and checks spending against budgets.
package insights

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/pocket-ledger/internal/domain/categorization"
	"github.com/FACorreiaa/pocket-ledger/internal/domain/transactions"
	"github.com/FACorreiaa/pocket-ledger/internal/domain/transactions/filter"
	"github.com/FACorreiaa/pocket-ledger/internal/domain/transactions/repository"
	"github.com/FACorreiaa/pocket-ledger/pkg/money"
)

// DefaultBigTicketThreshold is the expense magnitude at which a purchase is listed as big-ticket.
var DefaultBigTicketThreshold = decimal.NewFromInt(100)

// TransactionQuerier lists a user's transactions.
type TransactionQuerier interface {
	Query(ctx context.Context, userID uuid.UUID, spec filter.Spec, page repository.Page) ([]*transactions.Transaction, error)
}

// ConfigSource provides budgets and the disbursement category.
type ConfigSource interface {
	GetConfig(ctx context.Context, userID uuid.UUID) (*categorization.Config, error)
}

// Service handles insights business logic
type Service struct {
	txs       TransactionQuerier
	configs   ConfigSource
	logger    *slog.Logger
	loc       *time.Location
	bigTicket decimal.Decimal
	currency  string
}

// NewService creates a new insights service
func NewService(txs TransactionQuerier, configs ConfigSource, logger *slog.Logger) *Service {
	return &Service{
		txs:       txs,
		configs:   configs,
		logger:    logger,
		loc:       time.Local,
		bigTicket: DefaultBigTicketThreshold,
		currency:  money.DefaultCurrency,
	}
}

// WithLocation sets the zone that month boundaries are computed in.
func (s *Service) WithLocation(loc *time.Location) *Service {
	if loc != nil {
		s.loc = loc
	}
	return s
}

// WithBigTicketThreshold changes the big-ticket cut-off. Non-positive values are ignored.
func (s *Service) WithBigTicketThreshold(threshold decimal.Decimal) *Service {
	if threshold.IsPositive() {
		s.bigTicket = threshold
	}
	return s
}

// WithCurrency sets the currency used in alert messages.
func (s *Service) WithCurrency(code string) *Service {
	s.currency = code
	return s
}

// monthTransactions loads every transaction in the calendar month, with the user's config.
func (s *Service) monthTransactions(ctx context.Context, userID uuid.UUID, year int, month time.Month) ([]*transactions.Transaction, *categorization.Config, error) {
	if month < time.January || month > time.December {
		return nil, nil, fmt.Errorf("invalid month %d", month)
	}
	cfg, err := s.configs.GetConfig(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load category config: %w", err)
	}

	spec := filter.Spec{DateRange: filter.MonthRange(time.Date(year, month, 1, 0, 0, 0, 0, s.loc))}
	txs, err := s.txs.Query(ctx, userID, spec, repository.Page{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load transactions for %d-%02d: %w", year, month, err)
	}
	return txs, cfg, nil
}
