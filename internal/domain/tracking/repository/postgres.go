package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const itemColumns = `id, user_id, name, type, target_amount::text, period, net_disbursements, filters, created_at, updated_at`

// PostgresRepository implements Repository using PostgreSQL. Filters are stored as JSONB.
type PostgresRepository struct {
	db Querier
}

// NewPostgresRepository creates a new tracking item repository
func NewPostgresRepository(db Querier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new item
func (r *PostgresRepository) Create(ctx context.Context, item *Item) error {
	query := `
		INSERT INTO tracking_items (id, user_id, name, type, target_amount, period, net_disbursements, filters)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8)
		RETURNING created_at, updated_at`

	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	filters, err := json.Marshal(item.Filters)
	if err != nil {
		return fmt.Errorf("failed to encode tracking filters: %w", err)
	}

	err = r.db.QueryRow(ctx, query,
		item.ID,
		item.UserID,
		item.Name,
		string(item.Type),
		item.TargetAmount.String(),
		string(item.Period),
		item.NetDisbursements,
		filters,
	).Scan(&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create tracking item: %w", err)
	}
	return nil
}

// Get retrieves one of the user's items
func (r *PostgresRepository) Get(ctx context.Context, userID, id uuid.UUID) (*Item, error) {
	query := `SELECT ` + itemColumns + ` FROM tracking_items WHERE user_id = $1 AND id = $2`

	item, err := scanItem(r.db.QueryRow(ctx, query, userID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sql.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tracking item: %w", err)
	}
	return item, nil
}

// Update replaces an item's definition
func (r *PostgresRepository) Update(ctx context.Context, item *Item) error {
	query := `
		UPDATE tracking_items
		SET name = $3, type = $4, target_amount = $5::numeric, period = $6,
		    net_disbursements = $7, filters = $8, updated_at = NOW()
		WHERE user_id = $1 AND id = $2
		RETURNING updated_at`

	filters, err := json.Marshal(item.Filters)
	if err != nil {
		return fmt.Errorf("failed to encode tracking filters: %w", err)
	}

	err = r.db.QueryRow(ctx, query,
		item.UserID,
		item.ID,
		item.Name,
		string(item.Type),
		item.TargetAmount.String(),
		string(item.Period),
		item.NetDisbursements,
		filters,
	).Scan(&item.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return sql.ErrNoRows
	}
	if err != nil {
		return fmt.Errorf("failed to update tracking item: %w", err)
	}
	return nil
}

// Delete removes an item
func (r *PostgresRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM tracking_items WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete tracking item: %w", err)
	}
	if result.RowsAffected() == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListByUser returns the user's items, oldest first
func (r *PostgresRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Item, error) {
	query := `SELECT ` + itemColumns + ` FROM tracking_items WHERE user_id = $1 ORDER BY created_at, id`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracking items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tracking item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ListUserIDs returns the distinct owners of tracking items
func (r *PostgresRepository) ListUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT user_id FROM tracking_items ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracking users: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan tracking user: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanItem(row pgx.Row) (*Item, error) {
	var (
		item    Item
		typ     string
		period  string
		target  string
		filters []byte
	)
	err := row.Scan(
		&item.ID,
		&item.UserID,
		&item.Name,
		&typ,
		&target,
		&period,
		&item.NetDisbursements,
		&filters,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.Type = ItemType(typ)
	item.Period = Period(period)
	if item.TargetAmount, err = decimal.NewFromString(target); err != nil {
		return nil, fmt.Errorf("invalid target amount %q: %w", target, err)
	}
	if len(filters) > 0 {
		if err := json.Unmarshal(filters, &item.Filters); err != nil {
			return nil, fmt.Errorf("failed to decode tracking filters: %w", err)
		}
	}
	return &item, nil
}
