package categorization

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRepository struct {
	*MemoryRepository
	loads int
	saves int
	err   error
}

func (r *countingRepository) Load(ctx context.Context, userID uuid.UUID) (*Config, error) {
	r.loads++
	if r.err != nil {
		return nil, r.err
	}
	return r.MemoryRepository.Load(ctx, userID)
}

func (r *countingRepository) Save(ctx context.Context, userID uuid.UUID, cfg *Config) error {
	r.saves++
	return r.MemoryRepository.Save(ctx, userID, cfg)
}

func TestService_DefaultsAndCache(t *testing.T) {
	ctx := context.Background()
	repo := &countingRepository{MemoryRepository: NewMemoryRepository()}
	svc := NewService(repo, discardLogger())
	userID := uuid.New()

	cfg, err := svc.GetConfig(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, DefaultCategories, cfg.Names())

	_, err = svc.GetConfig(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.loads, "second read is served from cache")

	cfg.Categories = nil
	again, err := svc.GetConfig(ctx, userID)
	require.NoError(t, err)
	assert.NotEmpty(t, again.Categories, "callers get private copies")
}

func TestService_MutationsInvalidateCache(t *testing.T) {
	ctx := context.Background()
	repo := &countingRepository{MemoryRepository: NewMemoryRepository()}
	svc := NewService(repo, discardLogger())
	userID := uuid.New()

	require.NoError(t, svc.AddCategories(ctx, userID, []string{"pets", "garden"}))
	ok, err := svc.HasCategory(ctx, userID, "Pets")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, svc.AddKeywords(ctx, userID, "pets", []string{"vet", "petco"}))
	require.NoError(t, svc.DeleteKeywords(ctx, userID, "pets", []string{"petco"}))
	require.NoError(t, svc.SetBudget(ctx, userID, "pets", decimal.NewFromInt(80)))
	require.NoError(t, svc.DeleteCategories(ctx, userID, []string{"garden"}))

	cfg, err := svc.GetConfig(ctx, userID)
	require.NoError(t, err)
	owner, ok := cfg.KeywordOwner("vet")
	assert.True(t, ok)
	assert.Equal(t, "pets", owner)
	assert.False(t, cfg.Has("garden"))
	assert.True(t, cfg.Budgets["pets"].Equal(decimal.NewFromInt(80)))
	assert.Equal(t, 5, repo.saves)
}

func TestService_RejectedBatchIsNotStored(t *testing.T) {
	ctx := context.Background()
	repo := &countingRepository{MemoryRepository: NewMemoryRepository()}
	svc := NewService(repo, discardLogger())
	userID := uuid.New()

	err := svc.AddCategories(ctx, userID, []string{"pets", "food"})
	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Zero(t, repo.saves)

	ok, err := svc.HasCategory(ctx, userID, "pets")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestService_LoadError(t *testing.T) {
	repo := &countingRepository{MemoryRepository: NewMemoryRepository(), err: errors.New("connection refused")}
	svc := NewService(repo, discardLogger())

	_, err := svc.GetConfig(context.Background(), uuid.New())
	assert.Error(t, err)
}

func TestPostgresRepository_SaveAndLoad(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	userID := uuid.New()
	cfg := DefaultConfig()
	require.NoError(t, cfg.SetBudget(MonthlyBudgetKey, decimal.NewFromInt(1500)))
	raw, err := json.Marshal(cfg)
	require.NoError(t, err)

	mock.ExpectExec(`INSERT INTO category_configs`).
		WithArgs(userID, raw).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(`SELECT config FROM category_configs`).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"config"}).AddRow(raw))

	repo := NewPostgresRepository(mock)
	require.NoError(t, repo.Save(context.Background(), userID, cfg))

	loaded, err := repo.Load(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, cfg.Names(), loaded.Names())
	assert.True(t, loaded.Budgets[MonthlyBudgetKey].Equal(decimal.NewFromInt(1500)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_LoadMissing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	userID := uuid.New()
	mock.ExpectQuery(`SELECT config FROM category_configs`).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"config"}))

	svc := NewService(NewPostgresRepository(mock), discardLogger())
	cfg, err := svc.GetConfig(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, DefaultCategories, cfg.Names())
	assert.NoError(t, mock.ExpectationsWereMet())
}
