// Package order drives the order placement protocol against the catalog
// service. There is no shared transaction between the two services, so
// placement runs as a two-step protocol: reserve stock first, persist the
// order second, and release the reservation when persistence fails.
package order

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/quickcart/quickcart/internal/catalog"
	"github.com/quickcart/quickcart/internal/entity"
	"github.com/quickcart/quickcart/internal/messaging"
	"github.com/quickcart/quickcart/internal/metrics"
	"github.com/quickcart/quickcart/internal/store"
)

var (
	// ErrInvalidQuantity means the requested quantity is not a positive
	// integer. Rejected before any remote call.
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")

	// ErrProductNotFound means the referenced product does not exist.
	ErrProductNotFound = errors.New("product not found")

	// ErrOrchestrationFailed means the order could not be persisted after a
	// successful reservation; the reservation was released.
	ErrOrchestrationFailed = errors.New("order persistence failed, reservation released")

	// ErrCompensationFailed means the compensating release could not be
	// confirmed after bounded retries. Stock remains debited with no matching
	// order; out-of-band reconciliation is required.
	ErrCompensationFailed = errors.New("compensating stock release unconfirmed")
)

const (
	topicOrderConfirmed   = "orders.confirmed"
	topicOrderCompensated = "orders.compensated"
)

// Catalog is the slice of the catalog service the orchestrator drives.
// Satisfied by catalog.Service in-process and by catalog.Client over HTTP.
type Catalog interface {
	GetProduct(ctx context.Context, id int64) (entity.Product, error)
	ReserveStock(ctx context.Context, id int64, qty int) error
	ReleaseStock(ctx context.Context, id int64, qty int) error
}

// Result is the terminal outcome of a PlaceOrder call.
type Result struct {
	OrderID      string             `json:"order_id,omitempty"`
	Status       entity.OrderStatus `json:"status"`
	TotalAmount  float64            `json:"total_amount,omitempty"`
	RejectReason string             `json:"reject_reason,omitempty"`
}

// Service is the order orchestrator.
type Service struct {
	catalog   Catalog
	orders    store.OrderStore
	publisher messaging.Publisher
	metrics   *metrics.OrderMetrics

	persistRetries uint64
	releaseRetries uint64
}

// NewService creates the orchestrator. publisher and metrics may be nil.
func NewService(cat Catalog, orders store.OrderStore, pub messaging.Publisher, m *metrics.OrderMetrics) *Service {
	if pub == nil {
		pub = messaging.NopPublisher{}
	}
	return &Service{
		catalog:        cat,
		orders:         orders,
		publisher:      pub,
		metrics:        m,
		persistRetries: 3,
		releaseRetries: 5,
	}
}

// PlaceOrder runs the placement state machine:
//
//	validate → fetch product → reserve stock → persist CONFIRMED
//
// A reservation failure due to insufficient stock is a business outcome, not
// an error: it returns a REJECTED Result and leaves no trace. Any failure
// after a successful reservation releases the reservation before reporting,
// so the caller is never told success while stock was debited without an
// order, nor generic failure while stock silently stays debited.
func (s *Service) PlaceOrder(ctx context.Context, productID int64, qty int) (Result, error) {
	start := time.Now()
	defer func() {
		s.metrics.ObservePlaceOrderMS(float64(time.Since(start).Milliseconds()))
	}()

	if qty <= 0 {
		s.metrics.OrderOutcome("invalid")
		return Result{}, ErrInvalidQuantity
	}

	// The price snapshot is taken here and never re-read: the reservation
	// below is the commit point for "this order will happen", and the total
	// must reflect what the customer was quoted when stock was debited.
	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.metrics.OrderOutcome("product_not_found")
			return Result{}, fmt.Errorf("%w: id %d", ErrProductNotFound, productID)
		}
		s.metrics.OrderOutcome("error")
		return Result{}, fmt.Errorf("failed to fetch product %d: %w", productID, err)
	}

	order := entity.Order{
		ID:          uuid.NewString(),
		ProductID:   product.ID,
		ProductName: product.Name,
		UnitPrice:   product.Price,
		Quantity:    qty,
		TotalAmount: product.Price * float64(qty),
		Status:      entity.StatusPending,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.catalog.ReserveStock(ctx, productID, qty); err != nil {
		switch {
		case errors.Is(err, catalog.ErrInsufficientStock):
			slog.Info("Order rejected", "product_id", productID, "quantity", qty, "reason", err)
			s.metrics.OrderOutcome("rejected")
			return Result{Status: entity.StatusRejected, RejectReason: err.Error()}, nil
		case errors.Is(err, store.ErrNotFound):
			s.metrics.OrderOutcome("product_not_found")
			return Result{}, fmt.Errorf("%w: id %d", ErrProductNotFound, productID)
		case errors.Is(err, catalog.ErrInvalidArgument):
			s.metrics.OrderOutcome("invalid")
			return Result{}, fmt.Errorf("reservation rejected: %w", err)
		default:
			s.metrics.OrderOutcome("error")
			return Result{}, fmt.Errorf("failed to reserve stock for product %d: %w", productID, err)
		}
	}

	// Stock is debited from here on. Every exit below must either persist
	// the order or release the reservation.
	order.Status = entity.StatusConfirmed
	if err := s.persist(ctx, order); err != nil {
		return s.compensate(ctx, order, err)
	}

	slog.Info("Order confirmed", "order_id", order.ID, "product_id", productID,
		"quantity", qty, "total_amount", order.TotalAmount)
	s.metrics.OrderOutcome("confirmed")

	if err := s.publisher.PublishEvent(ctx, topicOrderConfirmed, order.ID, entity.OrderConfirmed{
		OrderID:     order.ID,
		ProductID:   order.ProductID,
		Quantity:    order.Quantity,
		TotalAmount: order.TotalAmount,
		ConfirmedAt: time.Now().UTC(),
	}); err != nil {
		slog.Error("Failed to publish OrderConfirmed", "order_id", order.ID, "err", err)
	}

	return Result{OrderID: order.ID, Status: entity.StatusConfirmed, TotalAmount: order.TotalAmount}, nil
}

// persist writes the order, retrying transient store failures a bounded
// number of times.
func (s *Service) persist(ctx context.Context, o entity.Order) error {
	op := func() error {
		return s.orders.Put(ctx, o)
	}
	return backoff.Retry(op, backoff.WithContext(newBackOff(s.persistRetries), ctx))
}

// compensate releases the reservation after a persistence failure. The
// release is attempted with bounded retries; when it cannot be confirmed the
// inconsistency is escalated, never swallowed.
func (s *Service) compensate(ctx context.Context, o entity.Order, persistErr error) (Result, error) {
	slog.Error("Order persistence failed, releasing reservation",
		"order_id", o.ID, "product_id", o.ProductID, "quantity", o.Quantity, "err", persistErr)

	// The request context may already be dead (a timeout is one way
	// persistence fails), but the protocol must still reach a terminal state
	// or the stock stays debited forever.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	release := func() error {
		err := s.catalog.ReleaseStock(ctx, o.ProductID, o.Quantity)
		if errors.Is(err, store.ErrNotFound) {
			// Product confirmed missing: there is no stock row left to
			// restore, so retrying cannot help.
			return backoff.Permanent(err)
		}
		return err
	}
	releaseErr := backoff.Retry(release, backoff.WithContext(newBackOff(s.releaseRetries), ctx))

	if releaseErr != nil && !errors.Is(releaseErr, store.ErrNotFound) {
		slog.Error("COMPENSATION FAILED: stock debited with no order, reconciliation required",
			"order_id", o.ID, "product_id", o.ProductID, "quantity", o.Quantity, "err", releaseErr)
		s.metrics.CompensationOutcome("failed")
		s.metrics.OrderOutcome("compensation_failed")

		// Best-effort marker for the reconciliation job. The store just
		// failed, so this likely fails too; the log line above is the
		// durable trace either way.
		o.Status = entity.StatusFailedCompensated
		if err := s.orders.Put(ctx, o); err != nil {
			slog.Error("Failed to record FAILED_COMPENSATED order", "order_id", o.ID, "err", err)
		}

		return Result{}, fmt.Errorf("%w (order %s, product %d, qty %d): %v",
			ErrCompensationFailed, o.ID, o.ProductID, o.Quantity, releaseErr)
	}

	s.metrics.CompensationOutcome("released")
	s.metrics.OrderOutcome("orchestration_failed")

	if err := s.publisher.PublishEvent(ctx, topicOrderCompensated, o.ID, entity.OrderCompensated{
		OrderID:       o.ID,
		ProductID:     o.ProductID,
		Quantity:      o.Quantity,
		Reason:        persistErr.Error(),
		CompensatedAt: time.Now().UTC(),
	}); err != nil {
		slog.Error("Failed to publish OrderCompensated", "order_id", o.ID, "err", err)
	}

	return Result{}, fmt.Errorf("%w: %v", ErrOrchestrationFailed, persistErr)
}

// GetOrder returns a persisted order.
func (s *Service) GetOrder(ctx context.Context, id string) (entity.Order, error) {
	return s.orders.Get(ctx, id)
}

// ListRecentOrders returns the latest orders.
func (s *Service) ListRecentOrders(ctx context.Context, limit int) ([]entity.Order, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.orders.ListRecent(ctx, limit)
}

func newBackOff(maxRetries uint64) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond
	return backoff.WithMaxRetries(b, maxRetries)
}
