// Package checkout drives the linear order-submission flow: delivery
// address, payment method, confirmation, submission. Step data is retained
// in memory so backward moves are lossless, and submission is guarded
// against re-entry while a request is in flight.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/example/cafe-storefront/internal/domain/cart"
	"github.com/example/cafe-storefront/internal/domain/catalog"
	"github.com/example/cafe-storefront/internal/domain/order"
)

type Step string

const (
	StepAddress      Step = "address"
	StepPayment      Step = "payment"
	StepConfirmation Step = "confirmation"
	StepSubmitted    Step = "submitted"
)

var (
	ErrNotAuthenticated   = errors.New("authentication required for checkout")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrNoSession          = errors.New("no active checkout session")
	ErrWrongStep          = errors.New("operation not valid at current step")
	ErrIncompleteAddress  = errors.New("delivery address is incomplete")
	ErrNoPaymentMethod    = errors.New("payment method is required")
	ErrSubmissionInFlight = errors.New("a submission is already in progress")
	ErrAlreadySubmitted   = errors.New("order has already been submitted")
	ErrCatalogUnavailable = errors.New("catalog unavailable")
)

// ValidationError reports line items that failed stock reconciliation at
// submission time. The user decides whether to go back and adjust.
type ValidationError struct {
	Verdicts []cart.Verdict
}

func (e *ValidationError) Error() string {
	n := 0
	for _, v := range e.Verdicts {
		if !v.Valid {
			n++
		}
	}
	return fmt.Sprintf("%d cart item(s) failed stock validation", n)
}

// Session is one user's in-progress checkout. Entered data survives
// backward step changes.
type Session struct {
	UserID        string        `json:"user_id"`
	Step          Step          `json:"step"`
	Address       order.Address `json:"address"`
	PaymentMethod string        `json:"payment_method"`
	OrderID       string        `json:"order_id,omitempty"`

	submitting bool
}

// OrderPlacer creates the order from the reconciled cart.
type OrderPlacer interface {
	Place(ctx context.Context, userID string, items []order.Item, addr order.Address, paymentMethod string) (*order.Order, error)
}

// PaymentSession is the provider-side handle for a started payment.
type PaymentSession struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

// PaymentInitiator starts the payment provider's redirect flow.
type PaymentInitiator interface {
	Initiate(ctx context.Context, o *order.Order) (*PaymentSession, error)
}

// Result reports the outcome of a submission. PaymentError is set when the
// order was created but payment initiation failed; the order stands in
// awaiting_payment and is resolved by the provider's webhook.
type Result struct {
	Order        *order.Order `json:"order"`
	RedirectURL  string       `json:"redirect_url,omitempty"`
	PaymentError string       `json:"payment_error,omitempty"`
}

// Orchestrator owns all active checkout sessions, one per user.
type Orchestrator struct {
	mu       sync.Mutex
	sessions map[string]*Session

	carts    *cart.Service
	catalog  catalog.SnapshotProvider
	orders   OrderPlacer
	payments PaymentInitiator
}

func NewOrchestrator(carts *cart.Service, cat catalog.SnapshotProvider, orders OrderPlacer, payments PaymentInitiator) *Orchestrator {
	return &Orchestrator{
		sessions: make(map[string]*Session),
		carts:    carts,
		catalog:  cat,
		orders:   orders,
		payments: payments,
	}
}

// Begin opens a checkout session, or resumes the user's existing one. Entry
// is refused without an authenticated identity or with an empty cart.
func (o *Orchestrator) Begin(ctx context.Context, userID string) (Session, error) {
	if userID == "" {
		return Session{}, ErrNotAuthenticated
	}
	if o.carts.Get(ctx, userID).IsEmpty() {
		return Session{}, ErrEmptyCart
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if s, ok := o.sessions[userID]; ok && s.Step != StepSubmitted {
		return *s, nil
	}
	s := &Session{UserID: userID, Step: StepAddress}
	o.sessions[userID] = s
	return *s, nil
}

// Current returns the user's session, if any.
func (o *Orchestrator) Current(userID string) (Session, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	s, ok := o.sessions[userID]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// SetAddress records the delivery address and advances to the payment step.
func (o *Orchestrator) SetAddress(userID string, addr order.Address) (Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	s, err := o.activeSession(userID)
	if err != nil {
		return Session{}, err
	}
	if s.Step != StepAddress {
		return *s, ErrWrongStep
	}
	if !addr.Complete() {
		return *s, ErrIncompleteAddress
	}

	s.Address = addr
	s.Step = StepPayment
	return *s, nil
}

// SetPaymentMethod records the payment method and advances to confirmation.
func (o *Orchestrator) SetPaymentMethod(userID, method string) (Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	s, err := o.activeSession(userID)
	if err != nil {
		return Session{}, err
	}
	if s.Step != StepPayment {
		return *s, ErrWrongStep
	}
	if method == "" {
		return *s, ErrNoPaymentMethod
	}

	s.PaymentMethod = method
	s.Step = StepConfirmation
	return *s, nil
}

// Back moves one step backward. Entered data is retained.
func (o *Orchestrator) Back(userID string) (Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	s, err := o.activeSession(userID)
	if err != nil {
		return Session{}, err
	}
	if s.submitting {
		return *s, ErrSubmissionInFlight
	}

	switch s.Step {
	case StepPayment:
		s.Step = StepAddress
	case StepConfirmation:
		s.Step = StepPayment
	}
	return *s, nil
}

// Abandon discards the user's session, leaving the cart untouched.
func (o *Orchestrator) Abandon(userID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.sessions, userID)
}

func (o *Orchestrator) activeSession(userID string) (*Session, error) {
	s, ok := o.sessions[userID]
	if !ok {
		return nil, ErrNoSession
	}
	if s.Step == StepSubmitted {
		return s, ErrAlreadySubmitted
	}
	return s, nil
}

// Submit runs the terminal transition from confirmation: reconcile the cart
// against a fresh catalog snapshot, create the order, clear the cart, then
// initiate payment. A second Submit while one is in flight is rejected.
// Order-creation failure leaves the session at confirmation for resubmission;
// payment-initiation failure is reported in the Result and does not undo the
// order.
func (o *Orchestrator) Submit(ctx context.Context, userID string) (*Result, error) {
	o.mu.Lock()
	s, err := o.activeSession(userID)
	if err != nil {
		o.mu.Unlock()
		return nil, err
	}
	if s.Step != StepConfirmation {
		o.mu.Unlock()
		return nil, ErrWrongStep
	}
	if s.submitting {
		o.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	s.submitting = true
	addr := s.Address
	method := s.PaymentMethod
	o.mu.Unlock()

	result, err := o.submit(ctx, userID, addr, method)

	o.mu.Lock()
	s.submitting = false
	if err == nil {
		s.Step = StepSubmitted
		s.OrderID = result.Order.ID
	}
	o.mu.Unlock()

	return result, err
}

func (o *Orchestrator) submit(ctx context.Context, userID string, addr order.Address, method string) (*Result, error) {
	c := o.carts.Get(ctx, userID)
	if c.IsEmpty() {
		return nil, ErrEmptyCart
	}

	ids := make([]string, 0, len(c.Items))
	for i := range c.Items {
		ids = append(ids, c.Items[i].ProductID)
	}
	snap, err := o.catalog.Snapshot(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}

	verdicts := cart.ValidateAgainstCatalog(c, snap)
	for _, v := range verdicts {
		if !v.Valid {
			return nil, &ValidationError{Verdicts: verdicts}
		}
	}

	items := make([]order.Item, 0, len(c.Items))
	for _, li := range c.Items {
		items = append(items, order.Item{
			ProductID: li.ProductID,
			Name:      li.Name,
			Quantity:  li.Quantity,
			UnitPrice: li.UnitPrice,
		})
	}

	placed, err := o.orders.Place(ctx, userID, items, addr, method)
	if err != nil {
		return nil, fmt.Errorf("order submission failed: %w", err)
	}

	// The order is confirmed; the cart is done regardless of what payment
	// initiation does next.
	o.carts.Clear(ctx, userID)

	result := &Result{Order: placed}
	session, err := o.payments.Initiate(ctx, placed)
	if err != nil {
		logrus.WithError(err).WithField("order_id", placed.ID).Warn("payment initiation failed, order awaits webhook")
		result.PaymentError = err.Error()
		return result, nil
	}
	result.RedirectURL = session.RedirectURL
	return result, nil
}
