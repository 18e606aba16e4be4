package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/pocket-ledger/internal/domain/transactions"
	"github.com/FACorreiaa/pocket-ledger/internal/domain/transactions/filter"
	"github.com/FACorreiaa/pocket-ledger/internal/domain/transactions/repository"
)

// CategoryLookup reports whether a category is configured for a user.
type CategoryLookup interface {
	HasCategory(ctx context.Context, userID uuid.UUID, name string) (bool, error)
}

// ManualEntry is a transaction typed in by the user.
type ManualEntry struct {
	Timestamp   time.Time
	Bank        string
	Type        string
	Amount      decimal.Decimal
	Description string
	Account     string
	Category    string
}

// Patch is a partial edit; nil fields are left unchanged.
type Patch struct {
	Timestamp   *time.Time
	Bank        *string
	Type        *string
	Amount      *decimal.Decimal
	Description *string
	Account     *string
	Category    *string
	Status      *string
}

// Service handles listing and editing of stored transactions.
type Service struct {
	repo       repository.Repository
	categories CategoryLookup
	logger     *slog.Logger
	now        func() time.Time
}

// NewService creates a transaction service
func NewService(repo repository.Repository, categories CategoryLookup, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		categories: categories,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock overrides the clock used for the default listing window.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// List returns transactions matching spec. An empty spec lists the current calendar month.
func (s *Service) List(ctx context.Context, userID uuid.UUID, spec filter.Spec, page repository.Page) ([]*transactions.Transaction, error) {
	if spec.IsEmpty() {
		spec.DateRange = filter.MonthRange(s.now())
	}
	txs, err := s.repo.Query(ctx, userID, spec, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txs, nil
}

// AddManual stores a manually entered transaction.
func (s *Service) AddManual(ctx context.Context, userID uuid.UUID, entry ManualEntry) (*transactions.Transaction, error) {
	if entry.Timestamp.IsZero() {
		return nil, &transactions.ValidationError{Field: "timestamp", Message: "is required"}
	}
	category, err := s.checkCategory(ctx, userID, entry.Category)
	if err != nil {
		return nil, err
	}

	tx := &transactions.Transaction{
		ID:          transactions.RegenerateID(),
		UserID:      userID,
		Timestamp:   entry.Timestamp,
		Bank:        strings.TrimSpace(entry.Bank),
		Type:        strings.TrimSpace(entry.Type),
		Amount:      entry.Amount,
		Description: strings.TrimSpace(entry.Description),
		Account:     strings.TrimSpace(entry.Account),
		Category:    category,
		Status:      transactions.StatusManualEntry,
	}
	if err := s.repo.Create(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to add transaction: %w", err)
	}

	s.logger.Info("manual transaction added", "user_id", userID, "id", tx.ID, "amount", tx.Amount.String())
	return tx, nil
}

// Update applies a partial edit to an existing transaction.
func (s *Service) Update(ctx context.Context, userID uuid.UUID, id string, patch Patch) (*transactions.Transaction, error) {
	tx, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if patch.Category != nil {
		category, err := s.checkCategory(ctx, userID, *patch.Category)
		if err != nil {
			return nil, err
		}
		tx.Category = category
	}
	if patch.Timestamp != nil {
		if patch.Timestamp.IsZero() {
			return nil, &transactions.ValidationError{Field: "timestamp", Message: "is required"}
		}
		tx.Timestamp = *patch.Timestamp
	}
	if patch.Bank != nil {
		tx.Bank = *patch.Bank
	}
	if patch.Type != nil {
		tx.Type = *patch.Type
	}
	if patch.Amount != nil {
		tx.Amount = *patch.Amount
	}
	if patch.Description != nil {
		tx.Description = *patch.Description
	}
	if patch.Account != nil {
		tx.Account = *patch.Account
	}
	if patch.Status != nil {
		tx.Status = *patch.Status
	}

	if err := s.repo.Update(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// Delete removes one transaction.
func (s *Service) Delete(ctx context.Context, userID uuid.UUID, id string) error {
	return s.repo.Delete(ctx, userID, id)
}

// Clear removes every transaction of the user and returns how many were removed.
func (s *Service) Clear(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := s.repo.DeleteAll(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.logger.Warn("transactions cleared", "user_id", userID, "count", n)
	return n, nil
}

func (s *Service) checkCategory(ctx context.Context, userID uuid.UUID, name string) (string, error) {
	category := transactions.NormalizeCategory(name)
	if category == "" {
		return "", &transactions.ValidationError{Field: "category", Message: "is required"}
	}
	ok, err := s.categories.HasCategory(ctx, userID, category)
	if err != nil {
		return "", fmt.Errorf("failed to check category: %w", err)
	}
	if !ok {
		return "", &transactions.ValidationError{Field: "category", Message: fmt.Sprintf("'%s' not found", category)}
	}
	return category, nil
}
