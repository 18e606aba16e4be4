package categorization

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Repository persists one Config per user.
type Repository interface {
	// Load returns sql.ErrNoRows when the user has no stored configuration.
	Load(ctx context.Context, userID uuid.UUID) (*Config, error)
	Save(ctx context.Context, userID uuid.UUID, cfg *Config) error
	// ListUserIDs returns every user with a stored configuration.
	ListUserIDs(ctx context.Context) ([]uuid.UUID, error)
}

// Querier is the subset of pgxpool.Pool used by PostgresRepository.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores configurations as JSONB.
type PostgresRepository struct {
	db Querier
}

// NewPostgresRepository creates a new categorization repository
func NewPostgresRepository(db Querier) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Load fetches the user's configuration
func (r *PostgresRepository) Load(ctx context.Context, userID uuid.UUID) (*Config, error) {
	var raw []byte
	err := r.db.QueryRow(ctx, `SELECT config FROM category_configs WHERE user_id = $1`, userID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sql.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load category config: %w", err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode category config: %w", err)
	}
	cfg.Normalize()
	return cfg, nil
}

// Save upserts the user's configuration
func (r *PostgresRepository) Save(ctx context.Context, userID uuid.UUID, cfg *Config) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode category config: %w", err)
	}

	query := `
		INSERT INTO category_configs (user_id, config, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE SET config = EXCLUDED.config, updated_at = NOW()`

	if _, err := r.db.Exec(ctx, query, userID, raw); err != nil {
		return fmt.Errorf("failed to save category config: %w", err)
	}
	return nil
}

// ListUserIDs returns the owners of stored configurations
func (r *PostgresRepository) ListUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `SELECT user_id FROM category_configs ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list category config users: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan category config user: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// MemoryRepository keeps configurations in process.
type MemoryRepository struct {
	mu      sync.RWMutex
	configs map[uuid.UUID]*Config
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{configs: make(map[uuid.UUID]*Config)}
}

func (r *MemoryRepository) Load(ctx context.Context, userID uuid.UUID) (*Config, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cfg, ok := r.configs[userID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return cfg.Clone(), nil
}

func (r *MemoryRepository) Save(ctx context.Context, userID uuid.UUID, cfg *Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.configs[userID] = cfg.Clone()
	return nil
}

func (r *MemoryRepository) ListUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]uuid.UUID, 0, len(r.configs))
	for id := range r.configs {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b uuid.UUID) int { return slices.Compare(a[:], b[:]) })
	return ids, nil
}
