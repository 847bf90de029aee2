package entity

import "time"

// --- Events ---

// OrderConfirmed is emitted after an order reached CONFIRMED and was durably
// recorded.
type OrderConfirmed struct {
	OrderID     string    `json:"order_id"`
	ProductID   int64     `json:"product_id"`
	Quantity    int       `json:"quantity"`
	TotalAmount float64   `json:"total_amount"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}

func (e OrderConfirmed) EventType() string { return "OrderConfirmed" }

// OrderCompensated is emitted when a reservation had to be rolled back
// because the order could not be persisted.
type OrderCompensated struct {
	OrderID       string    `json:"order_id"`
	ProductID     int64     `json:"product_id"`
	Quantity      int       `json:"quantity"`
	Reason        string    `json:"reason"`
	CompensatedAt time.Time `json:"compensated_at"`
}

func (e OrderCompensated) EventType() string { return "OrderCompensated" }
