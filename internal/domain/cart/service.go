package cart

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/example/cafe-storefront/internal/domain/catalog"
)

// Service is the single point of cart mutation. Each operation loads the
// user's cart, applies the change in memory, and writes the whole cart back.
// A failed write loses at most that one mutation and is logged rather than
// propagated; the in-memory result is still returned to the caller.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Get returns the user's current cart. Store failures degrade to an empty
// cart so browsing never breaks on a flaky cart backend.
func (s *Service) Get(ctx context.Context, userID string) *Cart {
	c, err := s.store.Load(ctx, userID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("cart load failed, starting empty")
		return New(userID)
	}
	return c
}

func (s *Service) persist(ctx context.Context, c *Cart) {
	if err := s.store.Save(ctx, c); err != nil {
		logrus.WithError(err).WithField("user_id", c.UserID).Warn("cart save failed")
	}
}

// AddItem adds a product to the user's cart and persists the result.
func (s *Service) AddItem(ctx context.Context, userID string, p catalog.Product, quantity int) (*Cart, error) {
	c := s.Get(ctx, userID)
	if err := c.AddItem(p, quantity); err != nil {
		return c, err
	}
	s.persist(ctx, c)
	return c, nil
}

// UpdateQuantity changes a line item's quantity (zero or below removes it)
// and persists the result.
func (s *Service) UpdateQuantity(ctx context.Context, userID, productID string, quantity int) (*Cart, error) {
	c := s.Get(ctx, userID)
	if err := c.UpdateQuantity(productID, quantity); err != nil {
		return c, err
	}
	s.persist(ctx, c)
	return c, nil
}

// RemoveItem deletes a line item and persists the result.
func (s *Service) RemoveItem(ctx context.Context, userID, productID string) *Cart {
	c := s.Get(ctx, userID)
	c.RemoveItem(productID)
	s.persist(ctx, c)
	return c
}

// Clear empties the user's cart and deletes the persisted record.
func (s *Service) Clear(ctx context.Context, userID string) {
	if err := s.store.Clear(ctx, userID); err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("cart clear failed")
	}
}

// Reconcile fetches a fresh catalog snapshot for the cart's products,
// clamps or removes stale line items, and persists the pruned cart. A
// snapshot fetch failure aborts without touching the cart.
func (s *Service) Reconcile(ctx context.Context, userID string, provider catalog.SnapshotProvider) (*Cart, []Verdict, error) {
	c := s.Get(ctx, userID)
	if c.IsEmpty() {
		return c, nil, nil
	}

	ids := make([]string, 0, len(c.Items))
	for i := range c.Items {
		ids = append(ids, c.Items[i].ProductID)
	}

	snap, err := provider.Snapshot(ctx, ids)
	if err != nil {
		return c, nil, err
	}

	verdicts := ReconcileAndPrune(c, snap)
	s.persist(ctx, c)
	return c, verdicts, nil
}
