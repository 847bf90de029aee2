package catalog

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/quickcart/quickcart/internal/entity"
	"github.com/quickcart/quickcart/internal/store"
)

// Handler exposes the catalog service over HTTP.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products", h.handleListProducts)
	mux.HandleFunc("GET /api/products/{id}", h.handleGetProduct)
	mux.HandleFunc("GET /api/products/{id}/stock", h.handleGetStock)
	mux.HandleFunc("POST /api/products", h.handleAddProduct)
	mux.HandleFunc("POST /api/products/{id}/reserve", h.handleReserve)
	mux.HandleFunc("POST /api/products/{id}/release", h.handleRelease)
}

func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	var (
		products []entity.Product
		err      error
	)
	if category := r.URL.Query().Get("category"); category != "" {
		products, err = h.svc.ListProductsByCategory(r.Context(), category)
	} else {
		products, err = h.svc.ListProducts(r.Context())
	}
	if err != nil {
		slog.Error("Failed to list products", "err", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	product, err := h.svc.GetProduct(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *Handler) handleGetStock(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	product, err := h.svc.GetProduct(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"stock": product.Stock})
}

func (h *Handler) handleAddProduct(w http.ResponseWriter, r *http.Request) {
	var product entity.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if err := h.svc.AddProduct(r.Context(), product); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": product.ID})
}

// StockRequest is the body of reserve and release calls.
type StockRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) handleReserve(w http.ResponseWriter, r *http.Request) {
	id, req, err := stockArgs(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.svc.ReserveStock(r.Context(), id, req.Quantity); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reserved"})
}

func (h *Handler) handleRelease(w http.ResponseWriter, r *http.Request) {
	id, req, err := stockArgs(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.svc.ReleaseStock(r.Context(), id, req.Quantity); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "released"})
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, ErrInvalidArgument
	}
	return id, nil
}

func stockArgs(r *http.Request) (int64, StockRequest, error) {
	id, err := pathID(r)
	if err != nil {
		return 0, StockRequest{}, err
	}
	var req StockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return 0, StockRequest{}, ErrInvalidArgument
	}
	return id, req, nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidArgument):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "product not found"})
	case errors.Is(err, ErrInsufficientStock):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		slog.Error("Catalog request failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}
