package store

import (
	"context"
	"sort"
	"sync"

	"github.com/quickcart/quickcart/internal/entity"
)

// MemoryProductStore is an in-memory ProductStore. The mutex only guards the
// map itself; it is never held across a read-modify-write cycle, so callers
// that need atomic stock updates must go through Swap.
type MemoryProductStore struct {
	mu       sync.RWMutex
	products map[int64]entity.Product
}

func NewMemoryProductStore() *MemoryProductStore {
	return &MemoryProductStore{products: make(map[int64]entity.Product)}
}

func (s *MemoryProductStore) Get(ctx context.Context, id int64) (entity.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return entity.Product{}, ErrNotFound
	}
	return p, nil
}

func (s *MemoryProductStore) List(ctx context.Context) ([]entity.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]entity.Product, 0, len(s.products))
	for _, p := range s.products {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

func (s *MemoryProductStore) Put(ctx context.Context, p entity.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.products[p.ID]; ok {
		p.Version = cur.Version + 1
	} else {
		p.Version = 1
	}
	s.products[p.ID] = p
	return nil
}

func (s *MemoryProductStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return ErrNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *MemoryProductStore) Swap(ctx context.Context, p entity.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.products[p.ID]
	if !ok {
		return ErrNotFound
	}
	if cur.Version != p.Version {
		return ErrVersionConflict
	}
	p.Version = cur.Version + 1
	s.products[p.ID] = p
	return nil
}

// MemoryOrderStore is an in-memory OrderStore.
type MemoryOrderStore struct {
	mu     sync.RWMutex
	orders map[string]entity.Order
}

func NewMemoryOrderStore() *MemoryOrderStore {
	return &MemoryOrderStore{orders: make(map[string]entity.Order)}
}

func (s *MemoryOrderStore) Get(ctx context.Context, id string) (entity.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return entity.Order{}, ErrNotFound
	}
	return o, nil
}

func (s *MemoryOrderStore) Put(ctx context.Context, o entity.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders[o.ID] = o
	return nil
}

func (s *MemoryOrderStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.orders[id]; !ok {
		return ErrNotFound
	}
	delete(s.orders, id)
	return nil
}

func (s *MemoryOrderStore) ListRecent(ctx context.Context, limit int) ([]entity.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders := make([]entity.Order, 0, len(s.orders))
	for _, o := range s.orders {
		orders = append(orders, o)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	if limit > 0 && len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}
