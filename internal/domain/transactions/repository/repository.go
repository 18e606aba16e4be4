package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/pocket-ledger/internal/domain/transactions"
	"github.com/FACorreiaa/pocket-ledger/internal/domain/transactions/filter"
)

// ErrDuplicateID is returned by Create when the user already owns a transaction with that id.
var ErrDuplicateID = errors.New("transaction id already exists")

// Page bounds a query result. A zero Limit means no limit.
type Page struct {
	Limit  int
	Offset int
}

// Repository stores transactions per user.
type Repository interface {
	Create(ctx context.Context, tx *transactions.Transaction) error
	Get(ctx context.Context, userID uuid.UUID, id string) (*transactions.Transaction, error)
	Exists(ctx context.Context, userID uuid.UUID, id string) (bool, error)
	Update(ctx context.Context, tx *transactions.Transaction) error
	Delete(ctx context.Context, userID uuid.UUID, id string) error
	DeleteAll(ctx context.Context, userID uuid.UUID) (int64, error)

	// Query returns the user's transactions matching spec, newest first.
	Query(ctx context.Context, userID uuid.UUID, spec filter.Spec, page Page) ([]*transactions.Transaction, error)
	// Sum totals the signed amounts of the user's transactions matching spec.
	Sum(ctx context.Context, userID uuid.UUID, spec filter.Spec) (decimal.Decimal, error)
}

// Querier is the subset of pgxpool.Pool used by the Postgres repositories.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
