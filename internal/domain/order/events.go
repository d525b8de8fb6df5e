package order

import "time"

const (
	EventOrderPlaced    = "OrderPlaced"
	EventOrderPaid      = "OrderPaid"
	EventOrderCancelled = "OrderCancelled"
)

type OrderPlaced struct {
	OrderID  string    `json:"order_id"`
	UserID   string    `json:"user_id"`
	Total    int       `json:"total"`
	Items    []Item    `json:"items"`
	PlacedAt time.Time `json:"placed_at"`
}

type OrderPaid struct {
	OrderID string    `json:"order_id"`
	UserID  string    `json:"user_id"`
	PaidAt  time.Time `json:"paid_at"`
}

type OrderCancelled struct {
	OrderID     string    `json:"order_id"`
	UserID      string    `json:"user_id"`
	Reason      string    `json:"reason,omitempty"`
	CancelledAt time.Time `json:"cancelled_at"`
}
