package store

import (
	"context"
	"sort"
	"sync"
	"time"

	perrors "github.com/avazquez/product-service/internal/errors"
	"github.com/google/uuid"
)

// InMemoryStore is a ProductStore backed by a map. It mirrors the version
// semantics of PgStore and is used by unit tests and local development.
type InMemoryStore struct {
	mu       sync.RWMutex
	products map[uuid.UUID]Product
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		products: make(map[uuid.UUID]Product),
	}
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, perrors.ErrProductNotFound
	}
	return &p, nil
}

func (s *InMemoryStore) FindByIDs(_ context.Context, ids []uuid.UUID) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			products = append(products, p)
		}
	}
	return products, nil
}

func (s *InMemoryStore) FindAll(_ context.Context, offset, limit int32) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]Product, 0, len(s.products))
	for _, p := range s.products {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })

	if int(offset) >= len(all) {
		return []Product{}, nil
	}
	end := len(all)
	if limit > 0 {
		if window := int(offset) + int(limit); window < end {
			end = window
		}
	}
	return all[offset:end], nil
}

func (s *InMemoryStore) Create(_ context.Context, name, description string, price float64, stock int32) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	p := Product{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		Price:       price,
		Stock:       stock,
		Available:   true,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.products[p.ID] = p
	return &p, nil
}

func (s *InMemoryStore) Update(_ context.Context, params UpdateParams) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[params.ID]
	if !ok {
		return nil, perrors.ErrProductNotFound
	}
	if p.Version != params.Version {
		return nil, perrors.ErrVersionConflict
	}
	p.Name = params.Name
	p.Description = params.Description
	p.Price = params.Price
	p.Stock = params.Stock
	p.Available = params.Available
	p.Version++
	p.UpdatedAt = time.Now()
	s.products[p.ID] = p
	return &p, nil
}

func (s *InMemoryStore) UpdateStock(_ context.Context, id uuid.UUID, stock int32, version int32) (*Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, perrors.ErrProductNotFound
	}
	if p.Version != version {
		return nil, perrors.ErrVersionConflict
	}
	p.Stock = stock
	p.Version++
	p.UpdatedAt = time.Now()
	s.products[id] = p
	return &p, nil
}
