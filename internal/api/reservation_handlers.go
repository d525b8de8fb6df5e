package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/example/cafe-storefront/internal/domain/reservation"
)

// ReservationHandlers handles table reservation HTTP requests.
type ReservationHandlers struct {
	reservations *reservation.Service
}

func NewReservationHandlers(reservations *reservation.Service) *ReservationHandlers {
	return &ReservationHandlers{reservations: reservations}
}

// BookReservationRequest represents the booking request body
type BookReservationRequest struct {
	Name      string    `json:"name"`
	Date      time.Time `json:"date"`
	PartySize int       `json:"party_size"`
	Note      string    `json:"note,omitempty"`
}

func (h *ReservationHandlers) BookReservation(w http.ResponseWriter, r *http.Request) {
	var req BookReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	booked, err := h.reservations.Book(r.Context(), getUserID(r), req.Name, req.Date, req.PartySize, req.Note)
	if err != nil {
		respondReservationError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, booked)
}

func (h *ReservationHandlers) GetReservations(w http.ResponseWriter, r *http.Request) {
	reservations, err := h.reservations.ListByUser(r.Context(), getUserID(r))
	if err != nil {
		respondJSONError(w, "failed to list reservations", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, reservations)
}

func (h *ReservationHandlers) GetReservation(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/reservations/")

	res, err := h.reservations.Get(r.Context(), id)
	if err != nil {
		respondReservationError(w, err)
		return
	}
	if res.UserID != getUserID(r) && !isAdmin(r) {
		respondJSONError(w, "forbidden", http.StatusForbidden)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (h *ReservationHandlers) CancelReservation(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/reservations/")

	res, err := h.reservations.Get(r.Context(), id)
	if err != nil {
		respondReservationError(w, err)
		return
	}
	if res.UserID != getUserID(r) && !isAdmin(r) {
		respondJSONError(w, "forbidden", http.StatusForbidden)
		return
	}

	if err := h.reservations.Cancel(r.Context(), id); err != nil {
		respondReservationError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "reservation cancelled"})
}

// Admin Handlers

func (h *ReservationHandlers) GetAllReservations(w http.ResponseWriter, r *http.Request) {
	reservations, err := h.reservations.ListAll(r.Context())
	if err != nil {
		respondJSONError(w, "failed to list reservations", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, reservations)
}

func respondReservationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, reservation.ErrNotFound):
		respondJSONError(w, "reservation not found", http.StatusNotFound)
	case errors.Is(err, reservation.ErrAlreadyCancelled):
		respondJSONError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, reservation.ErrInvalidPartySize),
		errors.Is(err, reservation.ErrMissingName),
		errors.Is(err, reservation.ErrPastDate):
		respondJSONError(w, err.Error(), http.StatusBadRequest)
	default:
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
	}
}
