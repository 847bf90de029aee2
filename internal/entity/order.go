package entity

import "time"

// OrderStatus is a terminal order state, except for StatusPending which only
// exists in memory while the orchestrator is driving the protocol. A pending
// order is never written to the order store.
type OrderStatus string

const (
	StatusPending           OrderStatus = "PENDING"
	StatusConfirmed         OrderStatus = "CONFIRMED"
	StatusRejected          OrderStatus = "REJECTED"
	StatusFailedCompensated OrderStatus = "FAILED_COMPENSATED"
)

// Order is a customer order for a single product. UnitPrice and ProductName
// are snapshots taken when the product was fetched, immediately before the
// stock reservation; they are immutable once set, so TotalAmount always
// reflects the price the customer was quoted.
type Order struct {
	ID          string      `json:"id"`
	ProductID   int64       `json:"product_id"`
	ProductName string      `json:"product_name"`
	UnitPrice   float64     `json:"unit_price"`
	Quantity    int         `json:"quantity"`
	TotalAmount float64     `json:"total_amount"`
	Status      OrderStatus `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
}
