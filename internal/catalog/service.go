package catalog

import (
	"context"
	"fmt"
)

// Reader is the storage surface the service needs.
type Reader interface {
	FindByCode(ctx context.Context, code string) (Product, bool, error)
	List(ctx context.Context) ([]Product, error)
}

// Service answers product lookups, consulting the cache first.
type Service struct {
	repo  Reader
	cache *Cache
}

// NewService constructs the catalog service. cache may be nil.
func NewService(repo Reader, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// FindByCode looks up a product by code. The code is passed through untouched.
func (s *Service) FindByCode(ctx context.Context, code string) (Product, bool, error) {
	return s.cache.Lookup(ctx, code, func(ctx context.Context) (Product, bool, error) {
		return s.repo.FindByCode(ctx, code)
	})
}

// List returns the whole catalog.
func (s *Service) List(ctx context.Context) ([]Product, error) {
	return s.repo.List(ctx)
}

// Warm loads every product into the cache and returns how many were stored.
func (s *Service) Warm(ctx context.Context) (int, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.cache.Store(ctx, products); err != nil {
		return 0, fmt.Errorf("catalog: warm cache: %w", err)
	}
	return len(products), nil
}
