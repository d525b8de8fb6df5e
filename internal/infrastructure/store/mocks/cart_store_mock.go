package mocks

import (
	"context"
	"sync"

	"github.com/example/cafe-storefront/internal/domain/cart"
)

// MockCartStore is an in-memory cart.Store for testing. It records calls
// and supports injected failures.
type MockCartStore struct {
	mu    sync.RWMutex
	carts map[string]cart.Cart

	// For tracking calls and injecting errors in tests
	SaveCalls  []cart.Cart
	ClearCalls []string
	LoadErr    error
	SaveErr    error
	ClearErr   error
}

// NewMockCartStore creates a new MockCartStore.
func NewMockCartStore() *MockCartStore {
	return &MockCartStore{
		carts: make(map[string]cart.Cart),
	}
}

func (m *MockCartStore) Load(ctx context.Context, userID string) (*cart.Cart, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.LoadErr != nil {
		return nil, m.LoadErr
	}

	stored, ok := m.carts[userID]
	if !ok {
		return cart.New(userID), nil
	}
	// Copy so callers cannot mutate stored state in place.
	c := stored
	c.Items = append([]cart.LineItem(nil), stored.Items...)
	return &c, nil
}

func (m *MockCartStore) Save(ctx context.Context, c *cart.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *c
	stored.Items = append([]cart.LineItem(nil), c.Items...)
	m.SaveCalls = append(m.SaveCalls, stored)

	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.carts[c.UserID] = stored
	return nil
}

func (m *MockCartStore) Clear(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ClearCalls = append(m.ClearCalls, userID)

	if m.ClearErr != nil {
		return m.ClearErr
	}
	delete(m.carts, userID)
	return nil
}

// Seed stores a cart directly, bypassing call recording.
func (m *MockCartStore) Seed(c *cart.Cart) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *c
	stored.Items = append([]cart.LineItem(nil), c.Items...)
	m.carts[c.UserID] = stored
}
