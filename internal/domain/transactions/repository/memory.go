package repository

import (
	"context"
	"database/sql"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/pocket-ledger/internal/domain/transactions"
	"github.com/FACorreiaa/pocket-ledger/internal/domain/transactions/filter"
)

// MemoryRepository is an in-process Repository evaluated through filter predicates.
// The service tests run against it; the CLI always uses PostgresRepository.
type MemoryRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]map[string]transactions.Transaction
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: make(map[uuid.UUID]map[string]transactions.Transaction)}
}

func (r *MemoryRepository) Create(ctx context.Context, tx *transactions.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	byID, ok := r.users[tx.UserID]
	if !ok {
		byID = make(map[string]transactions.Transaction)
		r.users[tx.UserID] = byID
	}
	if _, exists := byID[tx.ID]; exists {
		return ErrDuplicateID
	}
	byID[tx.ID] = *tx
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, userID uuid.UUID, id string) (*transactions.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tx, ok := r.users[userID][id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &tx, nil
}

func (r *MemoryRepository) Exists(ctx context.Context, userID uuid.UUID, id string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.users[userID][id]
	return ok, nil
}

func (r *MemoryRepository) Update(ctx context.Context, tx *transactions.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[tx.UserID][tx.ID]; !ok {
		return sql.ErrNoRows
	}
	r.users[tx.UserID][tx.ID] = *tx
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, userID uuid.UUID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[userID][id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.users[userID], id)
	return nil
}

func (r *MemoryRepository) DeleteAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := int64(len(r.users[userID]))
	delete(r.users, userID)
	return n, nil
}

func (r *MemoryRepository) Query(ctx context.Context, userID uuid.UUID, spec filter.Spec, page Page) ([]*transactions.Transaction, error) {
	matched, err := r.match(userID, spec)
	if err != nil {
		return nil, err
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].Timestamp.Equal(matched[j].Timestamp) {
			return matched[i].Timestamp.After(matched[j].Timestamp)
		}
		return matched[i].ID < matched[j].ID
	})

	if page.Offset > 0 {
		if page.Offset >= len(matched) {
			return nil, nil
		}
		matched = matched[page.Offset:]
	}
	if page.Limit > 0 && page.Limit < len(matched) {
		matched = matched[:page.Limit]
	}
	return matched, nil
}

func (r *MemoryRepository) Sum(ctx context.Context, userID uuid.UUID, spec filter.Spec) (decimal.Decimal, error) {
	matched, err := r.match(userID, spec)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, tx := range matched {
		total = total.Add(tx.Amount)
	}
	return total, nil
}

func (r *MemoryRepository) match(userID uuid.UUID, spec filter.Spec) ([]*transactions.Transaction, error) {
	pred, err := spec.Predicate()
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*transactions.Transaction
	for _, tx := range r.users[userID] {
		tx := tx
		if pred(&tx) {
			matched = append(matched, &tx)
		}
	}
	return matched, nil
}
