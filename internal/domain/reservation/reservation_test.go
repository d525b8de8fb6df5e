package reservation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	reservations map[string]*Reservation
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{reservations: make(map[string]*Reservation)}
}

func (r *fakeRepo) Insert(ctx context.Context, res *Reservation) error {
	stored := *res
	r.reservations[res.ID] = &stored
	return nil
}

func (r *fakeRepo) Get(ctx context.Context, id string) (*Reservation, error) {
	res, ok := r.reservations[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *res
	return &copied, nil
}

func (r *fakeRepo) ListByUser(ctx context.Context, userID string) ([]*Reservation, error) {
	var out []*Reservation
	for _, res := range r.reservations {
		if res.UserID == userID {
			copied := *res
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListAll(ctx context.Context) ([]*Reservation, error) {
	var out []*Reservation
	for _, res := range r.reservations {
		copied := *res
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeRepo) UpdateStatus(ctx context.Context, id string, status Status) error {
	res, ok := r.reservations[id]
	if !ok {
		return ErrNotFound
	}
	res.Status = status
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

func newTestService(repo *fakeRepo) *Service {
	svc := NewService(repo, nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestService_Book_Success(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	date := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)
	r, err := svc.Book(context.Background(), "user-123", "Tanaka", date, 4, "window seat")

	require.NoError(t, err)
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, StatusBooked, r.Status)
	assert.Equal(t, 4, r.PartySize)
	assert.Len(t, repo.reservations, 1)
}

func TestService_Book_PublishesTypedEvent(t *testing.T) {
	repo := newFakeRepo()
	pub := &fakePublisher{}
	svc := NewService(repo, pub)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	date := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)
	r, err := svc.Book(context.Background(), "user-123", "Tanaka", date, 4, "")
	require.NoError(t, err)

	require.Len(t, pub.events, 1)
	booked, ok := pub.events[0].(ReservationBooked)
	require.True(t, ok)
	assert.Equal(t, r.ID, booked.ReservationID)
	assert.Equal(t, []string{EventReservationBooked}, pub.types)
}

func TestService_Book_Validation(t *testing.T) {
	svc := newTestService(newFakeRepo())
	future := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)
	past := time.Date(2026, 2, 1, 19, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		guest     string
		date      time.Time
		partySize int
		wantErr   error
	}{
		{"missing name", "", future, 2, ErrMissingName},
		{"zero party", "Tanaka", future, 0, ErrInvalidPartySize},
		{"negative party", "Tanaka", future, -1, ErrInvalidPartySize},
		{"past date", "Tanaka", past, 2, ErrPastDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Book(context.Background(), "user-123", tt.guest, tt.date, tt.partySize, "")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestService_Cancel(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	date := time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)
	r, err := svc.Book(context.Background(), "user-123", "Tanaka", date, 2, "")
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(context.Background(), r.ID))

	stored, err := svc.Get(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, stored.Status)

	assert.ErrorIs(t, svc.Cancel(context.Background(), r.ID), ErrAlreadyCancelled)
}

func TestService_Cancel_Unknown(t *testing.T) {
	svc := newTestService(newFakeRepo())

	assert.ErrorIs(t, svc.Cancel(context.Background(), "missing"), ErrNotFound)
}
