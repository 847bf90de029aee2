package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickcart/quickcart/internal/entity"
	"github.com/quickcart/quickcart/internal/store"
)

// startServer wires a real service behind the HTTP handler so client tests
// exercise the full round trip.
func startServer(t *testing.T, products ...entity.Product) (*httptest.Server, *store.MemoryProductStore) {
	t.Helper()

	s := store.NewMemoryProductStore()
	for _, p := range products {
		require.NoError(t, s.Put(context.Background(), p))
	}

	mux := http.NewServeMux()
	NewHandler(NewService(s, nil)).RegisterRoutes(mux)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, s
}

func TestClientRoundTrip(t *testing.T) {
	ctx := context.Background()
	server, products := startServer(t, entity.Product{ID: 1, Name: "Desk Lamp", Price: 10.0, Stock: 5})
	client := NewClient(server.URL, time.Second)

	p, err := client.GetProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Desk Lamp", p.Name)
	assert.Equal(t, 5, p.Stock)

	_, err = client.GetProduct(ctx, 99)
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, client.ReserveStock(ctx, 1, 3))
	require.ErrorIs(t, client.ReserveStock(ctx, 1, 3), ErrInsufficientStock)
	require.ErrorIs(t, client.ReserveStock(ctx, 1, 0), ErrInvalidArgument)
	require.ErrorIs(t, client.ReserveStock(ctx, 99, 1), store.ErrNotFound)

	require.NoError(t, client.ReleaseStock(ctx, 1, 3))

	got, err := products.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Stock)
}

func TestClientRetriesTransientFailures(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(entity.Product{ID: 1, Name: "Monitor", Stock: 30})
	}))
	t.Cleanup(server.Close)

	client := NewClient(server.URL, time.Second)
	p, err := client.GetProduct(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Monitor", p.Name)
	assert.Equal(t, 3, calls)
}

func TestHandlerProductEndpoints(t *testing.T) {
	server, _ := startServer(t,
		entity.Product{ID: 1, Name: "Monitor", Category: "Electronics", Price: 699.99, Stock: 30},
		entity.Product{ID: 2, Name: "Chair", Category: "Furniture", Price: 549.99, Stock: 25},
	)

	resp, err := http.Get(server.URL + "/api/products?category=Furniture")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var listed []entity.Product
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "Chair", listed[0].Name)

	resp, err = http.Get(server.URL + "/api/products/1/stock")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stock map[string]int
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stock))
	assert.Equal(t, 30, stock["stock"])

	resp, err = http.Post(server.URL+"/api/products", "application/json",
		strings.NewReader(`{"id":3,"name":"Backpack","category":"Accessories","price":129.99,"stock":80}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = http.Post(server.URL+"/api/products", "application/json",
		strings.NewReader(`{"id":4,"price":-1}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(server.URL + "/api/products/not-a-number")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
