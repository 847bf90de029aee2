package order

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickcart/quickcart/internal/catalog"
	"github.com/quickcart/quickcart/internal/entity"
	"github.com/quickcart/quickcart/internal/store"
)

func startServer(t *testing.T) *httptest.Server {
	t.Helper()

	products := store.NewMemoryProductStore()
	require.NoError(t, products.Put(context.Background(),
		entity.Product{ID: 1, Name: "Desk Lamp", Price: 10.0, Stock: 5}))

	svc := NewService(catalog.NewService(products, nil), store.NewMemoryOrderStore(), nil, nil)

	mux := http.NewServeMux()
	NewHandler(svc).RegisterRoutes(mux)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func placeOrder(t *testing.T, server *httptest.Server, body string) (*http.Response, Result) {
	t.Helper()

	resp, err := http.Post(server.URL+"/api/orders", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var result Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return resp, result
}

func TestPlaceOrderEndpoint(t *testing.T) {
	server := startServer(t)

	resp, result := placeOrder(t, server, `{"product_id":1,"quantity":3}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, entity.StatusConfirmed, result.Status)
	assert.Equal(t, 30.0, result.TotalAmount)
	require.NotEmpty(t, result.OrderID)

	// The confirmed order is readable back.
	getResp, err := http.Get(server.URL + "/api/orders/" + result.OrderID)
	require.NoError(t, err)
	defer getResp.Body.Close()
	require.Equal(t, http.StatusOK, getResp.StatusCode)

	var persisted entity.Order
	require.NoError(t, json.NewDecoder(getResp.Body).Decode(&persisted))
	assert.Equal(t, entity.StatusConfirmed, persisted.Status)
	assert.Equal(t, 10.0, persisted.UnitPrice)

	// Remaining stock is 2, so the same order again is rejected with 409.
	resp, result = placeOrder(t, server, `{"product_id":1,"quantity":3}`)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, entity.StatusRejected, result.Status)
	assert.NotEmpty(t, result.RejectReason)
}

func TestPlaceOrderEndpointErrors(t *testing.T) {
	server := startServer(t)

	resp, _ := placeOrder(t, server, `{"product_id":1,"quantity":0}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = placeOrder(t, server, `{"product_id":99,"quantity":1}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	badResp, err := http.Post(server.URL+"/api/orders", "application/json", strings.NewReader("not json"))
	require.NoError(t, err)
	defer badResp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, badResp.StatusCode)

	missing, err := http.Get(server.URL + "/api/orders/nope")
	require.NoError(t, err)
	defer missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}
