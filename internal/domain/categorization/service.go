package categorization

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service manages per-user category configuration.
type Service struct {
	repo   Repository
	logger *slog.Logger

	// configs loaded from the repository, invalidated on every write
	cache   map[uuid.UUID]*Config
	cacheMu sync.RWMutex
}

// NewService creates a new categorization service
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
		cache:  make(map[uuid.UUID]*Config),
	}
}

// GetConfig returns a private copy of the user's configuration.
// Users without a stored configuration get DefaultConfig.
func (s *Service) GetConfig(ctx context.Context, userID uuid.UUID) (*Config, error) {
	s.cacheMu.RLock()
	if cfg, ok := s.cache[userID]; ok {
		s.cacheMu.RUnlock()
		return cfg.Clone(), nil
	}
	s.cacheMu.RUnlock()

	cfg, err := s.repo.Load(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		cfg = DefaultConfig()
	} else if err != nil {
		return nil, err
	}

	s.cacheMu.Lock()
	s.cache[userID] = cfg
	s.cacheMu.Unlock()

	return cfg.Clone(), nil
}

// ListUserIDs returns every user who has changed their configuration.
func (s *Service) ListUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	return s.repo.ListUserIDs(ctx)
}

// SaveConfig normalizes and stores cfg.
func (s *Service) SaveConfig(ctx context.Context, userID uuid.UUID, cfg *Config) error {
	cfg.Normalize()
	if err := s.repo.Save(ctx, userID, cfg); err != nil {
		return err
	}
	s.invalidate(userID)
	return nil
}

// HasCategory reports whether the category is configured for the user.
func (s *Service) HasCategory(ctx context.Context, userID uuid.UUID, name string) (bool, error) {
	cfg, err := s.GetConfig(ctx, userID)
	if err != nil {
		return false, err
	}
	return cfg.Has(name), nil
}

// CreateCategory adds one category with itself as keyword.
func (s *Service) CreateCategory(ctx context.Context, userID uuid.UUID, name string) error {
	return s.mutate(ctx, userID, func(cfg *Config) error {
		return cfg.AddCategory(name)
	})
}

// AddCategories adds several categories. Nothing is stored if any of them is rejected.
func (s *Service) AddCategories(ctx context.Context, userID uuid.UUID, names []string) error {
	return s.mutate(ctx, userID, func(cfg *Config) error {
		for _, name := range names {
			if err := cfg.AddCategory(name); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteCategories removes non-default categories.
func (s *Service) DeleteCategories(ctx context.Context, userID uuid.UUID, names []string) error {
	return s.mutate(ctx, userID, func(cfg *Config) error {
		for _, name := range names {
			if err := cfg.RemoveCategory(name); err != nil {
				return err
			}
		}
		return nil
	})
}

// AddKeywords adds keywords to a category.
func (s *Service) AddKeywords(ctx context.Context, userID uuid.UUID, category string, keywords []string) error {
	return s.mutate(ctx, userID, func(cfg *Config) error {
		for _, kw := range keywords {
			if err := cfg.AddKeyword(category, kw); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteKeywords removes keywords from a category.
func (s *Service) DeleteKeywords(ctx context.Context, userID uuid.UUID, category string, keywords []string) error {
	return s.mutate(ctx, userID, func(cfg *Config) error {
		for _, kw := range keywords {
			if err := cfg.RemoveKeyword(category, kw); err != nil {
				return err
			}
		}
		return nil
	})
}

// SetBudget sets or clears a budget threshold.
func (s *Service) SetBudget(ctx context.Context, userID uuid.UUID, key string, amount decimal.Decimal) error {
	return s.mutate(ctx, userID, func(cfg *Config) error {
		return cfg.SetBudget(key, amount)
	})
}

func (s *Service) mutate(ctx context.Context, userID uuid.UUID, fn func(*Config) error) error {
	cfg, err := s.GetConfig(ctx, userID)
	if err != nil {
		return err
	}
	if err := fn(cfg); err != nil {
		return err
	}
	if err := s.repo.Save(ctx, userID, cfg); err != nil {
		return fmt.Errorf("failed to save category config: %w", err)
	}
	s.invalidate(userID)
	s.logger.Info("category config updated", "user_id", userID)
	return nil
}

func (s *Service) invalidate(userID uuid.UUID) {
	s.cacheMu.Lock()
	delete(s.cache, userID)
	s.cacheMu.Unlock()
}
