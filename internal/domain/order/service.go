package order

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Publisher emits order events to the message broker. A nil Publisher
// disables publication.
type Publisher interface {
	Publish(ctx context.Context, key, eventType string, event any) error
}

// StockReserver reserves and releases catalog stock for order lines.
type StockReserver interface {
	DecrementStock(ctx context.Context, productID string, quantity int) error
	RestoreStock(ctx context.Context, productID string, quantity int) error
}

// Service creates orders and drives their status transitions.
type Service struct {
	repo      Repository
	stock     StockReserver
	publisher Publisher
}

func NewService(repo Repository, stock StockReserver, publisher Publisher) *Service {
	return &Service{repo: repo, stock: stock, publisher: publisher}
}

func (s *Service) publish(ctx context.Context, orderID, eventType string, event any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, orderID, eventType, event); err != nil {
		logrus.WithError(err).WithField("order_id", orderID).Warn("failed to publish order event")
	}
}

// Place reserves stock for every line, persists the order in
// awaiting_payment, and emits an OrderPlaced event. A reservation failure
// on any line releases the lines already reserved and no order is created.
func (s *Service) Place(ctx context.Context, userID string, items []Item, addr Address, paymentMethod string) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}
	if !addr.Complete() {
		return nil, ErrMissingAddress
	}

	total := 0
	for _, item := range items {
		total += item.UnitPrice * item.Quantity
	}

	var reserved []Item
	for _, item := range items {
		if err := s.stock.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			s.releaseReserved(ctx, reserved)
			return nil, fmt.Errorf("failed to reserve stock: %w", err)
		}
		reserved = append(reserved, item)
	}

	now := time.Now()
	o := &Order{
		ID:            uuid.New().String(),
		UserID:        userID,
		Items:         items,
		Total:         total,
		Address:       addr,
		PaymentMethod: paymentMethod,
		Status:        StatusAwaitingPayment,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Insert(ctx, o); err != nil {
		s.releaseReserved(ctx, reserved)
		return nil, fmt.Errorf("failed to persist order: %w", err)
	}

	s.publish(ctx, o.ID, EventOrderPlaced, OrderPlaced{
		OrderID:  o.ID,
		UserID:   o.UserID,
		Total:    o.Total,
		Items:    o.Items,
		PlacedAt: now,
	})
	return o, nil
}

func (s *Service) releaseReserved(ctx context.Context, reserved []Item) {
	for _, item := range reserved {
		if err := s.stock.RestoreStock(ctx, item.ProductID, item.Quantity); err != nil {
			logrus.WithError(err).WithField("product_id", item.ProductID).Error("failed to release reserved stock")
		}
	}
}

// Get returns an order by ID.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	return s.repo.Get(ctx, id)
}

// ListByUser returns a user's orders, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]*Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

// ListAll returns every order (back office).
func (s *Service) ListAll(ctx context.Context) ([]*Order, error) {
	return s.repo.ListAll(ctx)
}

// MarkPaid transitions the order to paid, typically from the payment
// provider's webhook.
func (s *Service) MarkPaid(ctx context.Context, orderID string) error {
	o, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if err := o.Transition(StatusPaid); err != nil {
		return err
	}
	if err := s.repo.UpdateStatus(ctx, orderID, StatusPaid); err != nil {
		return err
	}

	s.publish(ctx, orderID, EventOrderPaid, OrderPaid{OrderID: orderID, UserID: o.UserID, PaidAt: time.Now()})
	return nil
}

// Cancel transitions the order to cancelled and releases its stock.
func (s *Service) Cancel(ctx context.Context, orderID, reason string) error {
	o, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if err := o.Transition(StatusCancelled); err != nil {
		return err
	}
	if err := s.repo.UpdateStatus(ctx, orderID, StatusCancelled); err != nil {
		return err
	}
	s.releaseReserved(ctx, o.Items)

	s.publish(ctx, orderID, EventOrderCancelled, OrderCancelled{
		OrderID:     orderID,
		UserID:      o.UserID,
		Reason:      reason,
		CancelledAt: time.Now(),
	})
	return nil
}

// Complete marks a paid order as fulfilled (back office).
func (s *Service) Complete(ctx context.Context, orderID string) error {
	o, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if err := o.Transition(StatusCompleted); err != nil {
		return err
	}
	return s.repo.UpdateStatus(ctx, orderID, StatusCompleted)
}
