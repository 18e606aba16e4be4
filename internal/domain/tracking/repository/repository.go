// Package repository provides storage for tracking items (goals and limits).
package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// ItemType distinguishes goals from limits
type ItemType string

const (
	ItemTypeGoal  ItemType = "goal"
	ItemTypeLimit ItemType = "limit"
)

// Period is the length of the running window an item is measured over
type Period string

const (
	PeriodDaily    Period = "daily"
	PeriodWeekly   Period = "weekly"
	PeriodMonthly  Period = "monthly"
	PeriodAnnually Period = "annually"
)

// AccountFilter selects transactions by any combination of its non-empty fields.
type AccountFilter struct {
	Bank    string `json:"bank,omitempty"`
	Account string `json:"account,omitempty"`
	Type    string `json:"type,omitempty"`
}

// IsEmpty reports whether no field is set.
func (a AccountFilter) IsEmpty() bool {
	return isBlank(a.Bank) && isBlank(a.Account) && isBlank(a.Type)
}

// Filters scope an item. Categories and account tuples are OR-combined.
type Filters struct {
	Categories []string        `json:"categories,omitempty"`
	Accounts   []AccountFilter `json:"accounts,omitempty"`
}

// Item is a goal or limit. Progress is never stored; it is recomputed from transactions.
type Item struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	Name             string
	Type             ItemType
	TargetAmount     decimal.Decimal
	Period           Period
	NetDisbursements bool
	Filters          Filters
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Repository defines persistence for tracking items.
// Lookups of missing items return sql.ErrNoRows.
type Repository interface {
	Create(ctx context.Context, item *Item) error
	Get(ctx context.Context, userID, id uuid.UUID) (*Item, error)
	Update(ctx context.Context, item *Item) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Item, error)
	// ListUserIDs returns every user that has at least one item.
	ListUserIDs(ctx context.Context) ([]uuid.UUID, error)
}

// Querier is the subset of pgxpool.Pool used by PostgresRepository.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
