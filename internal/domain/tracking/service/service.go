// Package service evaluates goals and limits against the transaction store.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/pocket-ledger/internal/domain/categorization"
	"github.com/FACorreiaa/pocket-ledger/internal/domain/tracking/repository"
	"github.com/FACorreiaa/pocket-ledger/internal/domain/transactions"
	"github.com/FACorreiaa/pocket-ledger/internal/domain/transactions/filter"
)

var hundred = decimal.NewFromInt(100)

// ConfigurationError reports an invalid tracking item definition.
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid tracking item: %s %s", e.Field, e.Message)
}

// TransactionSummer totals the amounts of a user's transactions matching a filter.
type TransactionSummer interface {
	Sum(ctx context.Context, userID uuid.UUID, spec filter.Spec) (decimal.Decimal, error)
}

// ConfigSource provides the user's disbursement category.
type ConfigSource interface {
	GetConfig(ctx context.Context, userID uuid.UUID) (*categorization.Config, error)
}

// Status is the live progress of one item.
type Status struct {
	Item              *repository.Item
	WindowStart       time.Time
	WindowEnd         time.Time
	RawTotal          decimal.Decimal
	DisbursementTotal decimal.Decimal
	CurrentAmount     decimal.Decimal
	// Percent is |CurrentAmount| / TargetAmount * 100 and is not capped.
	Percent decimal.Decimal
}

// Magnitude is the absolute current amount shown against the target.
func (s *Status) Magnitude() decimal.Decimal {
	return s.CurrentAmount.Abs()
}

// DisplayPercent is Percent clamped to 100.
func (s *Status) DisplayPercent() decimal.Decimal {
	return decimal.Min(s.Percent, hundred)
}

// Exceeded reports a limit that has gone past its target.
func (s *Status) Exceeded() bool {
	return s.Item.Type == repository.ItemTypeLimit && s.Percent.GreaterThan(hundred)
}

// Reached reports a goal that has met its target.
func (s *Status) Reached() bool {
	return s.Item.Type == repository.ItemTypeGoal && s.Percent.GreaterThanOrEqual(hundred)
}

// Service manages tracking items and computes their progress.
type Service struct {
	repo    repository.Repository
	txs     TransactionSummer
	configs ConfigSource
	logger  *slog.Logger
	now     func() time.Time
	loc     *time.Location
}

// NewService creates a tracking service
func NewService(repo repository.Repository, txs TransactionSummer, configs ConfigSource, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		txs:     txs,
		configs: configs,
		logger:  logger,
		now:     time.Now,
		loc:     time.Local,
	}
}

// WithClock overrides the clock used when no evaluation time is given.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithLocation sets the zone whose midnights bound the windows.
func (s *Service) WithLocation(loc *time.Location) *Service {
	if loc != nil {
		s.loc = loc
	}
	return s
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time {
	return s.now()
}

// Validate normalizes the item in place and rejects invalid definitions.
func Validate(item *repository.Item) error {
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" {
		return &ConfigurationError{Field: "name", Message: "is required"}
	}

	item.Type = repository.ItemType(strings.ToLower(strings.TrimSpace(string(item.Type))))
	switch item.Type {
	case repository.ItemTypeGoal, repository.ItemTypeLimit:
	default:
		return &ConfigurationError{Field: "type", Message: fmt.Sprintf("must be goal or limit, got %q", item.Type)}
	}

	item.Period = repository.Period(strings.ToLower(strings.TrimSpace(string(item.Period))))
	switch item.Period {
	case repository.PeriodDaily, repository.PeriodWeekly, repository.PeriodMonthly, repository.PeriodAnnually:
	default:
		return &ConfigurationError{Field: "period", Message: fmt.Sprintf("must be daily, weekly, monthly or annually, got %q", item.Period)}
	}

	if !item.TargetAmount.IsPositive() {
		return &ConfigurationError{Field: "target_amount", Message: "must be greater than zero"}
	}

	var categories []string
	for _, c := range item.Filters.Categories {
		c = transactions.NormalizeCategory(c)
		if c != "" && !slices.Contains(categories, c) {
			categories = append(categories, c)
		}
	}
	item.Filters.Categories = categories

	for i, acc := range item.Filters.Accounts {
		if acc.IsEmpty() {
			return &ConfigurationError{Field: fmt.Sprintf("filters.accounts[%d]", i), Message: "must set bank, account or type"}
		}
		item.Filters.Accounts[i] = repository.AccountFilter{
			Bank:    strings.TrimSpace(acc.Bank),
			Account: strings.TrimSpace(acc.Account),
			Type:    strings.TrimSpace(acc.Type),
		}
	}
	return nil
}

// Create validates and stores a new item for the user.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, item *repository.Item) (*repository.Item, error) {
	if err := Validate(item); err != nil {
		return nil, err
	}
	item.ID = uuid.New()
	item.UserID = userID
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create tracking item: %w", err)
	}

	s.logger.Info("tracking item created", "user_id", userID, "id", item.ID, "type", item.Type, "period", item.Period)
	return item, nil
}

// Update replaces the definition of an existing item.
func (s *Service) Update(ctx context.Context, userID, id uuid.UUID, item *repository.Item) (*repository.Item, error) {
	if err := Validate(item); err != nil {
		return nil, err
	}
	item.ID = id
	item.UserID = userID
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Delete removes an item.
func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.Delete(ctx, userID, id)
}

// Get returns one item.
func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*repository.Item, error) {
	return s.repo.Get(ctx, userID, id)
}

// List returns the user's items.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]*repository.Item, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracking items: %w", err)
	}
	return items, nil
}

// ListUserIDs returns every user with at least one item.
func (s *Service) ListUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	return s.repo.ListUserIDs(ctx)
}

// ResolveWindow returns the running window [start, now) for a period.
// Boundaries are midnights in now's location; weeks start on Monday.
func ResolveWindow(period repository.Period, now time.Time) (time.Time, time.Time, error) {
	y, m, d := now.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, now.Location())

	var start time.Time
	switch period {
	case repository.PeriodDaily:
		start = midnight
	case repository.PeriodWeekly:
		start = midnight.AddDate(0, 0, -((int(now.Weekday()) + 6) % 7))
	case repository.PeriodMonthly:
		start = time.Date(y, m, 1, 0, 0, 0, 0, now.Location())
	case repository.PeriodAnnually:
		start = time.Date(y, time.January, 1, 0, 0, 0, 0, now.Location())
	default:
		return time.Time{}, time.Time{}, &ConfigurationError{Field: "period", Message: fmt.Sprintf("unknown period %q", period)}
	}
	return start, now, nil
}

// Evaluate computes an item's progress for the window ending at now.
func (s *Service) Evaluate(ctx context.Context, item *repository.Item, now time.Time) (*Status, error) {
	start, end, err := ResolveWindow(item.Period, now.In(s.loc))
	if err != nil {
		return nil, err
	}
	window := &filter.DateRange{Start: &start, End: &end, EndExclusive: true}

	spec := filter.Spec{DateRange: window, Scopes: itemScopes(item)}
	raw, err := s.txs.Sum(ctx, item.UserID, spec)
	if err != nil {
		return nil, fmt.Errorf("failed to total tracking item %s: %w", item.ID, err)
	}

	status := &Status{
		Item:              item,
		WindowStart:       start,
		WindowEnd:         end,
		RawTotal:          raw,
		DisbursementTotal: decimal.Zero,
		CurrentAmount:     raw,
	}

	if item.NetDisbursements {
		category, err := s.disbursementCategory(ctx, item.UserID)
		if err != nil {
			return nil, err
		}
		// Netting is scoped to the item's accounts only. Its category filters are
		// not applied, as a disbursement never carries the spending category.
		disbursed, err := s.txs.Sum(ctx, item.UserID, filter.Spec{
			DateRange:  window,
			Categories: []string{category},
			Amount:     &filter.AmountClause{Value: decimal.Zero, Operator: filter.OperatorGreaterThan, Mode: filter.AmountModeSigned},
			Scopes:     accountScopes(item),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to total disbursements for %s: %w", item.ID, err)
		}
		status.DisbursementTotal = disbursed
		status.CurrentAmount = raw.Sub(disbursed)
	}

	status.Percent = status.CurrentAmount.Abs().Div(item.TargetAmount).Mul(hundred)
	return status, nil
}

// EvaluateAll evaluates every item the user has, in creation order.
func (s *Service) EvaluateAll(ctx context.Context, userID uuid.UUID, now time.Time) ([]*Status, error) {
	items, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	statuses := make([]*Status, 0, len(items))
	for _, item := range items {
		status, err := s.Evaluate(ctx, item, now)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func (s *Service) disbursementCategory(ctx context.Context, userID uuid.UUID) (string, error) {
	if s.configs == nil {
		return categorization.DefaultDisbursementCategory, nil
	}
	cfg, err := s.configs.GetConfig(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to load category config: %w", err)
	}
	if cfg.Disbursement == "" {
		return categorization.DefaultDisbursementCategory, nil
	}
	return cfg.Disbursement, nil
}

// itemScopes turns the item's filters into OR-combined scopes. No filters means every transaction.
func itemScopes(item *repository.Item) []filter.Scope {
	scopes := make([]filter.Scope, 0, len(item.Filters.Categories)+len(item.Filters.Accounts))
	for _, c := range item.Filters.Categories {
		scopes = append(scopes, filter.Scope{Category: c})
	}
	return append(scopes, accountScopes(item)...)
}

func accountScopes(item *repository.Item) []filter.Scope {
	var scopes []filter.Scope
	for _, acc := range item.Filters.Accounts {
		scopes = append(scopes, filter.Scope{Bank: acc.Bank, Account: acc.Account, Type: acc.Type})
	}
	return scopes
}
