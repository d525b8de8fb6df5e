package reservation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type Status string

const (
	StatusBooked    Status = "booked"
	StatusCancelled Status = "cancelled"
)

var (
	ErrNotFound         = errors.New("reservation not found")
	ErrInvalidPartySize = errors.New("party size must be positive")
	ErrMissingName      = errors.New("reservation name is required")
	ErrPastDate         = errors.New("reservation date must be in the future")
	ErrAlreadyCancelled = errors.New("reservation is already cancelled")
)

// Reservation is a table or event booking at the café.
type Reservation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Date      time.Time `json:"date"`
	PartySize int       `json:"party_size"`
	Note      string    `json:"note,omitempty"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository persists reservations.
type Repository interface {
	Insert(ctx context.Context, r *Reservation) error
	Get(ctx context.Context, id string) (*Reservation, error)
	ListByUser(ctx context.Context, userID string) ([]*Reservation, error)
	ListAll(ctx context.Context) ([]*Reservation, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
}

// Publisher emits reservation events. A nil Publisher disables publication.
type Publisher interface {
	Publish(ctx context.Context, key, eventType string, event any) error
}

const EventReservationBooked = "ReservationBooked"

type ReservationBooked struct {
	ReservationID string    `json:"reservation_id"`
	UserID        string    `json:"user_id"`
	Date          time.Time `json:"date"`
	PartySize     int       `json:"party_size"`
	BookedAt      time.Time `json:"booked_at"`
}

type Service struct {
	repo      Repository
	publisher Publisher
	now       func() time.Time
}

func NewService(repo Repository, publisher Publisher) *Service {
	return &Service{repo: repo, publisher: publisher, now: time.Now}
}

// Book validates and stores a new reservation.
func (s *Service) Book(ctx context.Context, userID, name string, date time.Time, partySize int, note string) (*Reservation, error) {
	if name == "" {
		return nil, ErrMissingName
	}
	if partySize <= 0 {
		return nil, ErrInvalidPartySize
	}
	if !date.After(s.now()) {
		return nil, ErrPastDate
	}

	r := &Reservation{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      name,
		Date:      date,
		PartySize: partySize,
		Note:      note,
		Status:    StatusBooked,
		CreatedAt: s.now(),
	}
	if err := s.repo.Insert(ctx, r); err != nil {
		return nil, err
	}

	if s.publisher != nil {
		err := s.publisher.Publish(ctx, r.ID, EventReservationBooked, ReservationBooked{
			ReservationID: r.ID,
			UserID:        userID,
			Date:          date,
			PartySize:     partySize,
			BookedAt:      r.CreatedAt,
		})
		if err != nil {
			logrus.WithError(err).WithField("reservation_id", r.ID).Warn("failed to publish reservation event")
		}
	}
	return r, nil
}

// Get returns a reservation by ID.
func (s *Service) Get(ctx context.Context, id string) (*Reservation, error) {
	return s.repo.Get(ctx, id)
}

// ListByUser returns a user's reservations.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]*Reservation, error) {
	return s.repo.ListByUser(ctx, userID)
}

// ListAll returns every reservation (back office).
func (s *Service) ListAll(ctx context.Context) ([]*Reservation, error) {
	return s.repo.ListAll(ctx)
}

// Cancel marks a reservation cancelled. Cancelling twice is an error so
// the caller can tell the user nothing changed.
func (s *Service) Cancel(ctx context.Context, id string) error {
	r, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if r.Status == StatusCancelled {
		return ErrAlreadyCancelled
	}
	return s.repo.UpdateStatus(ctx, id, StatusCancelled)
}
