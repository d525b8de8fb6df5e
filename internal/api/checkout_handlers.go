package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/example/cafe-storefront/internal/checkout"
	"github.com/example/cafe-storefront/internal/client"
	"github.com/example/cafe-storefront/internal/domain/order"
)

// CheckoutHandlers drives the checkout wizard and order endpoints over HTTP.
type CheckoutHandlers struct {
	checkout *checkout.Orchestrator
	orders   *order.Service
	payments *client.MidtransGateway
}

func NewCheckoutHandlers(orchestrator *checkout.Orchestrator, orders *order.Service, payments *client.MidtransGateway) *CheckoutHandlers {
	return &CheckoutHandlers{
		checkout: orchestrator,
		orders:   orders,
		payments: payments,
	}
}

// Checkout Handlers

func (h *CheckoutHandlers) BeginCheckout(w http.ResponseWriter, r *http.Request) {
	session, err := h.checkout.Begin(r.Context(), getUserID(r))
	if err != nil {
		respondCheckoutError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

func (h *CheckoutHandlers) GetCheckout(w http.ResponseWriter, r *http.Request) {
	session, ok := h.checkout.Current(getUserID(r))
	if !ok {
		respondJSONError(w, "no active checkout session", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

func (h *CheckoutHandlers) SetAddress(w http.ResponseWriter, r *http.Request) {
	var addr order.Address
	if err := json.NewDecoder(r.Body).Decode(&addr); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	session, err := h.checkout.SetAddress(getUserID(r), addr)
	if err != nil {
		respondCheckoutError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

func (h *CheckoutHandlers) SetPaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Method string `json:"method"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	session, err := h.checkout.SetPaymentMethod(getUserID(r), req.Method)
	if err != nil {
		respondCheckoutError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

func (h *CheckoutHandlers) StepBack(w http.ResponseWriter, r *http.Request) {
	session, err := h.checkout.Back(getUserID(r))
	if err != nil {
		respondCheckoutError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

func (h *CheckoutHandlers) SubmitCheckout(w http.ResponseWriter, r *http.Request) {
	result, err := h.checkout.Submit(r.Context(), getUserID(r))
	if err != nil {
		respondCheckoutError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

func (h *CheckoutHandlers) AbandonCheckout(w http.ResponseWriter, r *http.Request) {
	h.checkout.Abandon(getUserID(r))
	w.WriteHeader(http.StatusNoContent)
}

func respondCheckoutError(w http.ResponseWriter, err error) {
	var validationErr *checkout.ValidationError
	if errors.As(err, &validationErr) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error":    err.Error(),
			"verdicts": validationErr.Verdicts,
		})
		return
	}

	switch {
	case errors.Is(err, checkout.ErrNotAuthenticated):
		respondJSONError(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, checkout.ErrNoSession):
		respondJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrWrongStep),
		errors.Is(err, checkout.ErrIncompleteAddress),
		errors.Is(err, checkout.ErrNoPaymentMethod):
		respondJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, checkout.ErrSubmissionInFlight), errors.Is(err, checkout.ErrAlreadySubmitted):
		respondJSONError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, checkout.ErrCatalogUnavailable):
		respondJSONError(w, err.Error(), http.StatusServiceUnavailable)
	default:
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
	}
}

// Order Handlers

func (h *CheckoutHandlers) GetOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListByUser(r.Context(), getUserID(r))
	if err != nil {
		respondJSONError(w, "failed to list orders", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

func (h *CheckoutHandlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/orders/")

	o, err := h.orders.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			respondJSONError(w, "order not found", http.StatusNotFound)
			return
		}
		respondJSONError(w, "failed to load order", http.StatusInternalServerError)
		return
	}

	// Users can only access their own orders; admins can access all.
	if o.UserID != getUserID(r) && !isAdmin(r) {
		respondJSONError(w, "forbidden", http.StatusForbidden)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

func (h *CheckoutHandlers) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(extractPathParam(r.URL.Path, "/orders/"), "/cancel")

	o, err := h.orders.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			respondJSONError(w, "order not found", http.StatusNotFound)
			return
		}
		respondJSONError(w, "failed to load order", http.StatusInternalServerError)
		return
	}
	if o.UserID != getUserID(r) && !isAdmin(r) {
		respondJSONError(w, "forbidden", http.StatusForbidden)
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	if err := h.orders.Cancel(r.Context(), id, req.Reason); err != nil {
		respondOrderError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "order cancelled"})
}

// Admin Handlers

func (h *CheckoutHandlers) GetAllOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListAll(r.Context())
	if err != nil {
		respondJSONError(w, "failed to list orders", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

func (h *CheckoutHandlers) CompleteOrder(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(extractPathParam(r.URL.Path, "/admin/orders/"), "/complete")

	if err := h.orders.Complete(r.Context(), id); err != nil {
		respondOrderError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "order completed"})
}

func respondOrderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, order.ErrOrderNotFound):
		respondJSONError(w, "order not found", http.StatusNotFound)
	case errors.Is(err, order.ErrOrderCancelled),
		errors.Is(err, order.ErrOrderCompleted),
		errors.Is(err, order.ErrOrderAlreadyPaid),
		errors.Is(err, order.ErrInvalidStatus):
		respondJSONError(w, err.Error(), http.StatusConflict)
	default:
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
	}
}

// Payment Webhook

// midtransNotification is the subset of Midtrans' HTTP notification payload
// the storefront acts on.
type midtransNotification struct {
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
}

// PaymentNotification processes Midtrans payment status callbacks. The
// signature is verified before any state changes; redeliveries of an already
// processed status are acknowledged without effect.
func (h *CheckoutHandlers) PaymentNotification(w http.ResponseWriter, r *http.Request) {
	var n midtransNotification
	if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
		respondJSONError(w, "invalid notification body", http.StatusBadRequest)
		return
	}

	if !h.payments.VerifyNotification(n.OrderID, n.StatusCode, n.GrossAmount, n.SignatureKey) {
		logrus.WithField("order_id", n.OrderID).Warn("payment notification signature mismatch")
		respondJSONError(w, "invalid signature", http.StatusForbidden)
		return
	}

	log := logrus.WithFields(logrus.Fields{
		"order_id": n.OrderID,
		"status":   n.TransactionStatus,
	})

	var err error
	switch n.TransactionStatus {
	case "capture":
		if n.FraudStatus == "accept" {
			err = h.orders.MarkPaid(r.Context(), n.OrderID)
		}
	case "settlement":
		err = h.orders.MarkPaid(r.Context(), n.OrderID)
	case "cancel", "deny", "expire":
		err = h.orders.Cancel(r.Context(), n.OrderID, "payment "+n.TransactionStatus)
	case "pending":
		// Order is already awaiting_payment; nothing to do.
	}

	if err != nil {
		if errors.Is(err, order.ErrOrderAlreadyPaid) || errors.Is(err, order.ErrOrderCancelled) {
			// Redelivered notification; the transition already happened.
			respondJSON(w, http.StatusOK, map[string]string{"message": "ok"})
			return
		}
		log.WithError(err).Error("failed to apply payment notification")
		respondJSONError(w, "failed to process notification", http.StatusInternalServerError)
		return
	}

	log.Info("payment notification processed")
	respondJSON(w, http.StatusOK, map[string]string{"message": "ok"})
}
