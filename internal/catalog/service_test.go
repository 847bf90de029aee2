package catalog

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickcart/quickcart/internal/entity"
	"github.com/quickcart/quickcart/internal/store"
)

func newTestService(t *testing.T, products ...entity.Product) (*Service, *store.MemoryProductStore) {
	t.Helper()
	s := store.NewMemoryProductStore()
	for _, p := range products {
		require.NoError(t, s.Put(context.Background(), p))
	}
	return NewService(s, nil), s
}

func TestReserveStock(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		id      int64
		qty     int
		wantErr error
		want    int // stock after the call
	}{
		{name: "reserves available stock", id: 1, qty: 3, want: 2},
		{name: "reserves everything", id: 1, qty: 5, want: 0},
		{name: "insufficient stock", id: 1, qty: 6, wantErr: ErrInsufficientStock, want: 5},
		{name: "zero quantity", id: 1, qty: 0, wantErr: ErrInvalidArgument, want: 5},
		{name: "negative quantity", id: 1, qty: -2, wantErr: ErrInvalidArgument, want: 5},
		{name: "unknown product", id: 99, qty: 1, wantErr: store.ErrNotFound, want: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, products := newTestService(t, entity.Product{ID: 1, Name: "Desk Lamp", Price: 10.0, Stock: 5})

			err := svc.ReserveStock(ctx, tt.id, tt.qty)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			p, err := products.Get(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Stock)
		})
	}
}

func TestReleaseStock(t *testing.T) {
	ctx := context.Background()
	svc, products := newTestService(t, entity.Product{ID: 1, Stock: 2})

	require.NoError(t, svc.ReleaseStock(ctx, 1, 3))

	p, err := products.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, p.Stock)

	require.ErrorIs(t, svc.ReleaseStock(ctx, 99, 1), store.ErrNotFound)
	require.ErrorIs(t, svc.ReleaseStock(ctx, 1, 0), ErrInvalidArgument)
}

func TestReserveStock_NoOversell(t *testing.T) {
	// N concurrent unit reservations against stock S: exactly S succeed and
	// the counter never goes negative.
	const stock = 5
	const callers = 20

	ctx := context.Background()
	svc, products := newTestService(t, entity.Product{ID: 1, Stock: stock})

	var succeeded, rejected atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			switch err := svc.ReserveStock(ctx, 1, 1); {
			case err == nil:
				succeeded.Add(1)
			default:
				rejected.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(stock), succeeded.Load())
	assert.Equal(t, int32(callers-stock), rejected.Load())

	p, err := products.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Stock)
}

func TestReserveStock_ConcurrentOverlappingQuantities(t *testing.T) {
	// Two reservations that together exceed stock: exactly one wins.
	ctx := context.Background()
	svc, products := newTestService(t, entity.Product{ID: 1, Stock: 5})

	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() { errs <- svc.ReserveStock(ctx, 1, 3) }()
	}

	var ok, insufficient int
	for i := 0; i < 2; i++ {
		switch err := <-errs; {
		case err == nil:
			ok++
		default:
			require.ErrorIs(t, err, ErrInsufficientStock)
			insufficient++
		}
	}

	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, insufficient)

	p, err := products.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Stock)
}

func TestAddProduct_Validation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	require.ErrorIs(t, svc.AddProduct(ctx, entity.Product{ID: 0, Name: "x"}), ErrInvalidArgument)
	require.ErrorIs(t, svc.AddProduct(ctx, entity.Product{ID: 1, Price: -1}), ErrInvalidArgument)
	require.ErrorIs(t, svc.AddProduct(ctx, entity.Product{ID: 1, Stock: -1}), ErrInvalidArgument)
	require.NoError(t, svc.AddProduct(ctx, entity.Product{ID: 1, Name: "Backpack", Price: 129.99, Stock: 80}))
}

func TestListProductsByCategory(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t,
		entity.Product{ID: 1, Name: "Monitor", Category: "Electronics"},
		entity.Product{ID: 2, Name: "Chair", Category: "Furniture"},
		entity.Product{ID: 3, Name: "Keyboard", Category: "Electronics"},
	)

	electronics, err := svc.ListProductsByCategory(ctx, "Electronics")
	require.NoError(t, err)
	require.Len(t, electronics, 2)
	assert.Equal(t, "Monitor", electronics[0].Name)
	assert.Equal(t, "Keyboard", electronics[1].Name)

	none, err := svc.ListProductsByCategory(ctx, "Toys")
	require.NoError(t, err)
	assert.Empty(t, none)
}
