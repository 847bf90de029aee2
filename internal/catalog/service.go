// Package catalog owns Product records and the stock reservation engine.
// Stock is the only shared mutable state in the system and every mutation
// goes through ReserveStock or ReleaseStock, which serialize per product via
// the store's conditional update. Contention on different products never
// blocks.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/quickcart/quickcart/internal/entity"
	"github.com/quickcart/quickcart/internal/metrics"
	"github.com/quickcart/quickcart/internal/store"
)

var (
	// ErrInsufficientStock means the product does not have enough stock to
	// cover the requested quantity. Expected business outcome, not an
	// infrastructure failure.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInvalidArgument means the request is malformed: non-positive
	// quantity, negative price, and so on. Caller error, never retried.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Service is the catalog service. Its zero dependency besides the product
// store keeps the atomicity contract in one place.
type Service struct {
	products store.ProductStore
	metrics  *metrics.CatalogMetrics
}

// NewService creates the catalog service. metrics may be nil.
func NewService(products store.ProductStore, m *metrics.CatalogMetrics) *Service {
	return &Service{products: products, metrics: m}
}

// GetProduct returns a read-only snapshot of the product.
func (s *Service) GetProduct(ctx context.Context, id int64) (entity.Product, error) {
	return s.products.Get(ctx, id)
}

// ListProducts returns all products.
func (s *Service) ListProducts(ctx context.Context) ([]entity.Product, error) {
	return s.products.List(ctx)
}

// ListProductsByCategory returns the products in the given category.
func (s *Service) ListProductsByCategory(ctx context.Context, category string) ([]entity.Product, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, err
	}
	filtered := make([]entity.Product, 0, len(products))
	for _, p := range products {
		if p.Category == category {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

// AddProduct validates and stores a new or updated product.
func (s *Service) AddProduct(ctx context.Context, p entity.Product) error {
	if p.ID <= 0 {
		return fmt.Errorf("%w: product id must be positive", ErrInvalidArgument)
	}
	if p.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidArgument)
	}
	if p.Stock < 0 {
		return fmt.Errorf("%w: stock must not be negative", ErrInvalidArgument)
	}
	return s.products.Put(ctx, p)
}

// ReserveStock atomically checks and decrements the product's stock. Exactly
// one of two concurrent reservations that together exceed the available
// stock can succeed; the counter never goes negative. Returns
// ErrInsufficientStock without mutation when stock < qty.
func (s *Service) ReserveStock(ctx context.Context, id int64, qty int) error {
	if qty <= 0 {
		s.metrics.ReservationOutcome("invalid")
		return fmt.Errorf("%w: quantity must be a positive integer", ErrInvalidArgument)
	}

	for {
		p, err := s.products.Get(ctx, id)
		if err != nil {
			return err
		}
		if p.Stock < qty {
			s.metrics.ReservationOutcome("insufficient")
			return fmt.Errorf("%w: product %d has %d, requested %d", ErrInsufficientStock, id, p.Stock, qty)
		}

		p.Stock -= qty
		err = s.products.Swap(ctx, p)
		if err == nil {
			s.metrics.ReservationOutcome("reserved")
			slog.Debug("Stock reserved", "product_id", id, "quantity", qty, "remaining", p.Stock)
			return nil
		}
		if !errors.Is(err, store.ErrVersionConflict) {
			return err
		}
		// Lost the race against a concurrent writer; re-read and retry.
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// ReleaseStock atomically increments the product's stock, undoing a prior
// reservation. Version conflicts are retried until the increment commits or
// the product is confirmed missing, so callers see a failure only when the
// store itself fails or the product is gone.
func (s *Service) ReleaseStock(ctx context.Context, id int64, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("%w: quantity must be a positive integer", ErrInvalidArgument)
	}

	for {
		p, err := s.products.Get(ctx, id)
		if err != nil {
			return err
		}

		p.Stock += qty
		err = s.products.Swap(ctx, p)
		if err == nil {
			s.metrics.ReleaseCommitted()
			slog.Info("Stock released", "product_id", id, "quantity", qty, "stock", p.Stock)
			return nil
		}
		if !errors.Is(err, store.ErrVersionConflict) {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}
