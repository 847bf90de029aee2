// Package store provides key-addressed persistence for products and orders.
// Stores carry no business logic; the product store's conditional update is
// the single primitive the catalog's stock engine builds on.
package store

import (
	"context"
	"errors"

	"github.com/quickcart/quickcart/internal/entity"
)

var (
	// ErrNotFound is returned when no record exists under the given key.
	ErrNotFound = errors.New("record not found")

	// ErrVersionConflict is returned by Swap when the stored record changed
	// since the caller read it.
	ErrVersionConflict = errors.New("version conflict")
)

// ProductStore persists Product records keyed by id.
type ProductStore interface {
	Get(ctx context.Context, id int64) (entity.Product, error)
	List(ctx context.Context) ([]entity.Product, error)
	// Put writes the product unconditionally, assigning a fresh version.
	Put(ctx context.Context, p entity.Product) error
	Delete(ctx context.Context, id int64) error
	// Swap writes p only if the stored version still equals p.Version,
	// bumping the version on success. It fails with ErrVersionConflict when a
	// concurrent writer got there first, and ErrNotFound when the record is
	// gone.
	Swap(ctx context.Context, p entity.Product) error
}

// OrderStore persists Order records keyed by id.
type OrderStore interface {
	Get(ctx context.Context, id string) (entity.Order, error)
	Put(ctx context.Context, o entity.Order) error
	Delete(ctx context.Context, id string) error
	ListRecent(ctx context.Context, limit int) ([]entity.Order, error)
}
