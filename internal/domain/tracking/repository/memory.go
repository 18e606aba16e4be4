package repository

import (
	"context"
	"database/sql"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository keeps items in process memory.
type MemoryRepository struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*Item
	now   func() time.Time
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[uuid.UUID]*Item), now: time.Now}
}

func (r *MemoryRepository) Create(ctx context.Context, item *Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	now := r.now()
	item.CreatedAt, item.UpdatedAt = now, now
	r.items[item.ID] = clone(item)
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, userID, id uuid.UUID) (*Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok || item.UserID != userID {
		return nil, sql.ErrNoRows
	}
	return clone(item), nil
}

func (r *MemoryRepository) Update(ctx context.Context, item *Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.items[item.ID]
	if !ok || existing.UserID != item.UserID {
		return sql.ErrNoRows
	}
	item.CreatedAt = existing.CreatedAt
	item.UpdatedAt = r.now()
	r.items[item.ID] = clone(item)
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok || item.UserID != userID {
		return sql.ErrNoRows
	}
	delete(r.items, id)
	return nil
}

func (r *MemoryRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Item
	for _, item := range r.items {
		if item.UserID == userID {
			out = append(out, clone(item))
		}
	}
	slices.SortFunc(out, func(a, b *Item) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return slices.Compare(a.ID[:], b.ID[:])
	})
	return out, nil
}

func (r *MemoryRepository) ListUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, item := range r.items {
		if !seen[item.UserID] {
			seen[item.UserID] = true
			ids = append(ids, item.UserID)
		}
	}
	slices.SortFunc(ids, func(a, b uuid.UUID) int { return slices.Compare(a[:], b[:]) })
	return ids, nil
}

func clone(item *Item) *Item {
	c := *item
	c.Filters.Categories = slices.Clone(item.Filters.Categories)
	c.Filters.Accounts = slices.Clone(item.Filters.Accounts)
	return &c
}
