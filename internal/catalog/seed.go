package catalog

import (
	"context"
	"log/slog"

	"github.com/quickcart/quickcart/internal/entity"
	"github.com/quickcart/quickcart/internal/store"
)

// Seed inserts a starter catalog when the store is empty.
func Seed(ctx context.Context, products store.ProductStore) error {
	existing, err := products.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	seed := []entity.Product{
		{ID: 1, Name: "Wireless Noise-Cancelling Headphones", Description: "Premium over-ear headphones with active noise cancellation and 30-hour battery life.", Category: "Electronics", Price: 349.99, Stock: 50},
		{ID: 2, Name: "Mechanical Keyboard RGB", Description: "Cherry MX switches with per-key RGB lighting and aluminum frame.", Category: "Electronics", Price: 179.99, Stock: 120},
		{ID: 3, Name: "Ultrawide Curved Monitor 34\"", Description: "UWQHD 3440x1440 144Hz IPS panel with USB-C connectivity.", Category: "Electronics", Price: 699.99, Stock: 30},
		{ID: 4, Name: "Ergonomic Office Chair", Description: "Adjustable lumbar support, breathable mesh, and 4D armrests.", Category: "Furniture", Price: 549.99, Stock: 25},
		{ID: 5, Name: "Smart LED Desk Lamp", Description: "Adjustable color temperature, brightness levels, and USB charging port.", Category: "Home", Price: 89.99, Stock: 200},
		{ID: 6, Name: "Premium Laptop Backpack", Description: "Water-resistant 17\" laptop compartment with anti-theft design.", Category: "Accessories", Price: 129.99, Stock: 80},
	}

	for _, p := range seed {
		if err := products.Put(ctx, p); err != nil {
			return err
		}
	}

	slog.Info("Seeded products", "count", len(seed))
	return nil
}
