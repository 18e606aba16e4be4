package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/pocket-ledger/internal/domain/transactions"
	"github.com/FACorreiaa/pocket-ledger/internal/domain/transactions/filter"
)

const uniqueViolation = "23505"

const selectColumns = `id, user_id, timestamp, bank, type, amount::text, description, account, category, raw_message, status`

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	db Querier
}

// NewPostgresRepository creates a new PostgreSQL transaction repository
func NewPostgresRepository(db Querier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new transaction
func (r *PostgresRepository) Create(ctx context.Context, tx *transactions.Transaction) error {
	query := `
		INSERT INTO transactions (id, user_id, timestamp, bank, type, amount, description, account, category, raw_message, status)
		VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, $8, $9, $10, $11)`

	_, err := r.db.Exec(ctx, query,
		tx.ID,
		tx.UserID,
		tx.Timestamp,
		tx.Bank,
		tx.Type,
		tx.Amount.String(),
		tx.Description,
		tx.Account,
		tx.Category,
		tx.RawMessage,
		tx.Status,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateID
		}
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// Get retrieves a transaction by id
func (r *PostgresRepository) Get(ctx context.Context, userID uuid.UUID, id string) (*transactions.Transaction, error) {
	query := `SELECT ` + selectColumns + ` FROM transactions WHERE user_id = $1 AND id = $2`

	tx, err := scanTransaction(r.db.QueryRow(ctx, query, userID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sql.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return tx, nil
}

// Exists reports whether the user owns a transaction with the id
func (r *PostgresRepository) Exists(ctx context.Context, userID uuid.UUID, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM transactions WHERE user_id = $1 AND id = $2)`,
		userID, id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check transaction: %w", err)
	}
	return exists, nil
}

// Update rewrites every mutable column of an existing transaction
func (r *PostgresRepository) Update(ctx context.Context, tx *transactions.Transaction) error {
	query := `
		UPDATE transactions
		SET timestamp = $3, bank = $4, type = $5, amount = $6::numeric, description = $7,
			account = $8, category = $9, raw_message = $10, status = $11, updated_at = NOW()
		WHERE user_id = $1 AND id = $2`

	result, err := r.db.Exec(ctx, query,
		tx.UserID,
		tx.ID,
		tx.Timestamp,
		tx.Bank,
		tx.Type,
		tx.Amount.String(),
		tx.Description,
		tx.Account,
		tx.Category,
		tx.RawMessage,
		tx.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	if result.RowsAffected() == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a transaction
func (r *PostgresRepository) Delete(ctx context.Context, userID uuid.UUID, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM transactions WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	if result.RowsAffected() == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteAll removes every transaction of the user
func (r *PostgresRepository) DeleteAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM transactions WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear transactions: %w", err)
	}
	return result.RowsAffected(), nil
}

// Query lists transactions matching the filter, newest first
func (r *PostgresRepository) Query(ctx context.Context, userID uuid.UUID, spec filter.Spec, page Page) ([]*transactions.Transaction, error) {
	where, args, err := spec.SQL(2)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + selectColumns + ` FROM transactions WHERE user_id = $1`
	if where != "" {
		query += ` AND ` + where
	}
	query += ` ORDER BY timestamp DESC, id`

	args = append([]any{userID}, args...)
	if page.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, len(args)+1)
		args = append(args, page.Limit)
	}
	if page.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, len(args)+1)
		args = append(args, page.Offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var result []*transactions.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		result = append(result, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return result, nil
}

// Sum totals signed amounts matching the filter
func (r *PostgresRepository) Sum(ctx context.Context, userID uuid.UUID, spec filter.Spec) (decimal.Decimal, error) {
	where, args, err := spec.SQL(2)
	if err != nil {
		return decimal.Zero, err
	}

	query := `SELECT COALESCE(SUM(amount), 0)::text FROM transactions WHERE user_id = $1`
	if where != "" {
		query += ` AND ` + where
	}

	var total string
	if err := r.db.QueryRow(ctx, query, append([]any{userID}, args...)...).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum transactions: %w", err)
	}
	sum, err := decimal.NewFromString(total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse sum %q: %w", total, err)
	}
	return sum, nil
}

func scanTransaction(row pgx.Row) (*transactions.Transaction, error) {
	var (
		tx     transactions.Transaction
		amount string
	)
	err := row.Scan(
		&tx.ID,
		&tx.UserID,
		&tx.Timestamp,
		&tx.Bank,
		&tx.Type,
		&amount,
		&tx.Description,
		&tx.Account,
		&tx.Category,
		&tx.RawMessage,
		&tx.Status,
	)
	if err != nil {
		return nil, err
	}
	tx.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid stored amount %q: %w", amount, err)
	}
	return &tx, nil
}
