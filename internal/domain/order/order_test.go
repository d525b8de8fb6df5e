package order

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================
// Status Machine Tests
// ============================================

func TestOrder_Transitions(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		wantErr error
	}{
		{"awaiting to paid", StatusAwaitingPayment, StatusPaid, nil},
		{"awaiting to cancelled", StatusAwaitingPayment, StatusCancelled, nil},
		{"paid to completed", StatusPaid, StatusCompleted, nil},
		{"paid to cancelled", StatusPaid, StatusCancelled, nil},
		{"paid to paid", StatusPaid, StatusPaid, ErrOrderAlreadyPaid},
		{"cancelled to paid", StatusCancelled, StatusPaid, ErrOrderCancelled},
		{"cancelled to completed", StatusCancelled, StatusCompleted, ErrOrderCancelled},
		{"completed to cancelled", StatusCompleted, StatusCancelled, ErrOrderCompleted},
		{"awaiting to completed", StatusAwaitingPayment, StatusCompleted, ErrInvalidStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &Order{ID: "order-1", Status: tt.from}
			err := o.Transition(tt.to)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, tt.from, o.Status, "failed transition must not change status")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, o.Status)
		})
	}
}

func TestAddress_Complete(t *testing.T) {
	assert.True(t, Address{Name: "A", Street: "S", City: "C"}.Complete())
	assert.False(t, Address{Street: "S", City: "C"}.Complete())
	assert.False(t, Address{Name: "A", City: "C"}.Complete())
	assert.False(t, Address{Name: "A", Street: "S"}.Complete())
}

// ============================================
// Service Tests
// ============================================

type fakeRepo struct {
	mu     sync.Mutex
	orders map[string]*Order

	insertErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{orders: make(map[string]*Order)}
}

func (r *fakeRepo) Insert(ctx context.Context, o *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertErr != nil {
		return r.insertErr
	}
	stored := *o
	r.orders[o.ID] = &stored
	return nil
}

func (r *fakeRepo) Get(ctx context.Context, id string) (*Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	copied := *o
	return &copied, nil
}

func (r *fakeRepo) ListByUser(ctx context.Context, userID string) ([]*Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Order
	for _, o := range r.orders {
		if o.UserID == userID {
			copied := *o
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListAll(ctx context.Context) ([]*Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Order
	for _, o := range r.orders {
		copied := *o
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeRepo) UpdateStatus(ctx context.Context, id string, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	o.Status = status
	return nil
}

type fakeStock struct {
	stock      map[string]int
	failOn     string
	decrements []string
	restores   []string
}

func (f *fakeStock) DecrementStock(ctx context.Context, productID string, quantity int) error {
	if productID == f.failOn {
		return errors.New("insufficient stock")
	}
	f.stock[productID] -= quantity
	f.decrements = append(f.decrements, productID)
	return nil
}

func (f *fakeStock) RestoreStock(ctx context.Context, productID string, quantity int) error {
	f.stock[productID] += quantity
	f.restores = append(f.restores, productID)
	return nil
}

type fakePublisher struct {
	events []any
	types  []string
}

func (f *fakePublisher) Publish(ctx context.Context, key, eventType string, event any) error {
	f.events = append(f.events, event)
	f.types = append(f.types, eventType)
	return nil
}

func testAddress() Address {
	return Address{Name: "Taro", Street: "1-2-3 Ginza", City: "Tokyo"}
}

func TestService_Place_Success(t *testing.T) {
	repo := newFakeRepo()
	stock := &fakeStock{stock: map[string]int{"A": 10, "B": 5}}
	pub := &fakePublisher{}
	svc := NewService(repo, stock, pub)

	items := []Item{
		{ProductID: "A", Name: "Latte", Quantity: 2, UnitPrice: 450},
		{ProductID: "B", Name: "Scone", Quantity: 1, UnitPrice: 300},
	}

	o, err := svc.Place(context.Background(), "user-123", items, testAddress(), "midtrans")

	require.NoError(t, err)
	assert.NotEmpty(t, o.ID)
	assert.Equal(t, StatusAwaitingPayment, o.Status)
	assert.Equal(t, 1200, o.Total)
	assert.Equal(t, 8, stock.stock["A"])
	assert.Equal(t, 4, stock.stock["B"])

	require.Len(t, pub.events, 1)
	placed, ok := pub.events[0].(OrderPlaced)
	require.True(t, ok)
	assert.Equal(t, o.ID, placed.OrderID)
	assert.Equal(t, 1200, placed.Total)
	assert.Equal(t, []string{EventOrderPlaced}, pub.types)
}

func TestService_Place_EmptyItemsRejected(t *testing.T) {
	svc := NewService(newFakeRepo(), &fakeStock{stock: map[string]int{}}, nil)

	_, err := svc.Place(context.Background(), "user-123", nil, testAddress(), "midtrans")

	assert.ErrorIs(t, err, ErrEmptyOrder)
}

func TestService_Place_IncompleteAddressRejected(t *testing.T) {
	svc := NewService(newFakeRepo(), &fakeStock{stock: map[string]int{}}, nil)

	items := []Item{{ProductID: "A", Quantity: 1, UnitPrice: 100}}
	_, err := svc.Place(context.Background(), "user-123", items, Address{Name: "Taro"}, "midtrans")

	assert.ErrorIs(t, err, ErrMissingAddress)
}

func TestService_Place_StockFailureReleasesReservedLines(t *testing.T) {
	repo := newFakeRepo()
	stock := &fakeStock{stock: map[string]int{"A": 10}, failOn: "B"}
	svc := NewService(repo, stock, nil)

	items := []Item{
		{ProductID: "A", Quantity: 2, UnitPrice: 450},
		{ProductID: "B", Quantity: 1, UnitPrice: 300},
	}

	_, err := svc.Place(context.Background(), "user-123", items, testAddress(), "midtrans")

	require.Error(t, err)
	assert.Equal(t, 10, stock.stock["A"], "reserved stock must be released on failure")
	assert.Empty(t, repo.orders)
}

func TestService_Place_InsertFailureReleasesStock(t *testing.T) {
	repo := newFakeRepo()
	repo.insertErr = errors.New("db down")
	stock := &fakeStock{stock: map[string]int{"A": 10}}
	svc := NewService(repo, stock, nil)

	items := []Item{{ProductID: "A", Quantity: 2, UnitPrice: 450}}
	_, err := svc.Place(context.Background(), "user-123", items, testAddress(), "midtrans")

	require.Error(t, err)
	assert.Equal(t, 10, stock.stock["A"])
}

func TestService_MarkPaid(t *testing.T) {
	repo := newFakeRepo()
	stock := &fakeStock{stock: map[string]int{"A": 10}}
	pub := &fakePublisher{}
	svc := NewService(repo, stock, pub)

	items := []Item{{ProductID: "A", Quantity: 1, UnitPrice: 450}}
	o, err := svc.Place(context.Background(), "user-123", items, testAddress(), "midtrans")
	require.NoError(t, err)

	require.NoError(t, svc.MarkPaid(context.Background(), o.ID))

	stored, err := svc.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, stored.Status)
	assert.Equal(t, []string{EventOrderPlaced, EventOrderPaid}, pub.types)

	// Webhook redelivery must not double-apply.
	assert.ErrorIs(t, svc.MarkPaid(context.Background(), o.ID), ErrOrderAlreadyPaid)
}

func TestService_Cancel_ReleasesStock(t *testing.T) {
	repo := newFakeRepo()
	stock := &fakeStock{stock: map[string]int{"A": 10}}
	svc := NewService(repo, stock, nil)

	items := []Item{{ProductID: "A", Quantity: 3, UnitPrice: 450}}
	o, err := svc.Place(context.Background(), "user-123", items, testAddress(), "midtrans")
	require.NoError(t, err)
	assert.Equal(t, 7, stock.stock["A"])

	require.NoError(t, svc.Cancel(context.Background(), o.ID, "payment expired"))

	stored, err := svc.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, stored.Status)
	assert.Equal(t, 10, stock.stock["A"])
}

func TestService_MarkPaid_UnknownOrder(t *testing.T) {
	svc := NewService(newFakeRepo(), &fakeStock{stock: map[string]int{}}, nil)

	assert.ErrorIs(t, svc.MarkPaid(context.Background(), "missing"), ErrOrderNotFound)
}
