package order

import (
	"errors"
	"fmt"
	"time"
)

type Status string

const (
	StatusAwaitingPayment Status = "awaiting_payment"
	StatusPaid            Status = "paid"
	StatusCompleted       Status = "completed"
	StatusCancelled       Status = "cancelled"
)

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrEmptyOrder       = errors.New("order must have at least one item")
	ErrMissingAddress   = errors.New("delivery address is required")
	ErrInvalidStatus    = errors.New("invalid order status transition")
	ErrOrderAlreadyPaid = errors.New("order is already paid")
	ErrOrderCancelled   = errors.New("order is already cancelled")
	ErrOrderCompleted   = errors.New("order is already completed")
)

// validTransitions defines allowed state transitions
var validTransitions = map[Status][]Status{
	StatusAwaitingPayment: {StatusPaid, StatusCancelled},
	StatusPaid:            {StatusCompleted, StatusCancelled},
	StatusCompleted:       {}, // terminal state
	StatusCancelled:       {}, // terminal state
}

// Item is a priced snapshot of one cart line at the moment the order was
// placed.
type Item struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int    `json:"unit_price"`
}

// Address is the delivery address captured during checkout.
type Address struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
}

// Complete reports whether all required address fields are present.
func (a Address) Complete() bool {
	return a.Name != "" && a.Street != "" && a.City != ""
}

type Order struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Items         []Item    `json:"items"`
	Total         int       `json:"total"`
	Address       Address   `json:"address"`
	PaymentMethod string    `json:"payment_method"`
	Status        Status    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CanTransitionTo checks if the order can move to the target status.
func (o *Order) CanTransitionTo(target Status) bool {
	allowed, exists := validTransitions[o.Status]
	if !exists {
		return false
	}
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}

// transitionError returns the specific error for an invalid transition.
func (o *Order) transitionError(target Status) error {
	switch {
	case o.Status == StatusCancelled:
		return ErrOrderCancelled
	case o.Status == StatusCompleted:
		return ErrOrderCompleted
	case target == StatusPaid && o.Status != StatusAwaitingPayment:
		return ErrOrderAlreadyPaid
	default:
		return fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidStatus, o.Status, target)
	}
}

// Transition moves the order to the target status, or fails without
// changing anything.
func (o *Order) Transition(target Status) error {
	if !o.CanTransitionTo(target) {
		return o.transitionError(target)
	}
	o.Status = target
	o.UpdatedAt = time.Now()
	return nil
}
