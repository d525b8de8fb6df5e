package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/example/cafe-storefront/internal/api/middleware"
	"github.com/example/cafe-storefront/internal/auth"
	"github.com/example/cafe-storefront/internal/domain/cart"
	"github.com/example/cafe-storefront/internal/domain/catalog"
)

// Handlers handles product catalog and shopping cart HTTP requests.
type Handlers struct {
	catalog *catalog.PostgresStore
	carts   *cart.Service
}

func NewHandlers(catalogStore *catalog.PostgresStore, carts *cart.Service) *Handlers {
	return &Handlers{
		catalog: catalogStore,
		carts:   carts,
	}
}

// Product Handlers

func (h *Handlers) GetProducts(w http.ResponseWriter, r *http.Request) {
	// Batched lookup for cart reconciliation clients. Missing IDs are
	// simply absent from the result.
	if raw := r.URL.Query().Get("ids"); raw != "" {
		snap, err := h.catalog.Snapshot(r.Context(), strings.Split(raw, ","))
		if err != nil {
			respondJSONError(w, "failed to load products", http.StatusInternalServerError)
			return
		}
		products := make([]catalog.Product, 0, len(snap))
		for _, p := range snap {
			products = append(products, p)
		}
		respondJSON(w, http.StatusOK, products)
		return
	}

	// Customers see active products only; admins see everything.
	onlyActive := !isAdmin(r)
	products, err := h.catalog.List(r.Context(), onlyActive)
	if err != nil {
		respondJSONError(w, "failed to list products", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/products/")
	product, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			respondJSONError(w, "product not found", http.StatusNotFound)
			return
		}
		respondJSONError(w, "failed to load product", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (h *Handlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var p catalog.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if p.Name == "" || p.Price < 0 || p.Stock < 0 {
		respondJSONError(w, "name is required and price/stock must be non-negative", http.StatusBadRequest)
		return
	}

	created, err := h.catalog.Create(r.Context(), p)
	if err != nil {
		respondJSONError(w, "failed to create product", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

func (h *Handlers) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/admin/products/")

	var p catalog.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	p.ID = id

	if err := h.catalog.Update(r.Context(), p); err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			respondJSONError(w, "product not found", http.StatusNotFound)
			return
		}
		respondJSONError(w, "failed to update product", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "product updated"})
}

func (h *Handlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/admin/products/")

	if err := h.catalog.Delete(r.Context(), id); err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			respondJSONError(w, "product not found", http.StatusNotFound)
			return
		}
		respondJSONError(w, "failed to delete product", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "product deleted"})
}

// Cart Handlers

func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r)
	respondJSON(w, http.StatusOK, h.carts.Get(r.Context(), userID))
}

func (h *Handlers) AddToCart(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r)

	var req struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	product, err := h.catalog.Get(r.Context(), req.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			respondJSONError(w, "product not found", http.StatusNotFound)
			return
		}
		respondJSONError(w, "failed to load product", http.StatusInternalServerError)
		return
	}
	if !product.IsActive {
		respondJSONError(w, "product not available", http.StatusConflict)
		return
	}

	updated, err := h.carts.AddItem(r.Context(), userID, product, req.Quantity)
	if err != nil {
		respondCartError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (h *Handlers) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r)
	productID := extractPathParam(r.URL.Path, "/cart/items/")

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	updated, err := h.carts.UpdateQuantity(r.Context(), userID, productID, req.Quantity)
	if err != nil {
		respondCartError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (h *Handlers) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r)
	productID := extractPathParam(r.URL.Path, "/cart/items/")
	respondJSON(w, http.StatusOK, h.carts.RemoveItem(r.Context(), userID, productID))
}

func (h *Handlers) ClearCart(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r)
	h.carts.Clear(r.Context(), userID)
	w.WriteHeader(http.StatusNoContent)
}

// ReconcileCart revalidates the cart against current catalog state, clamping
// or removing stale line items, and reports what changed.
func (h *Handlers) ReconcileCart(w http.ResponseWriter, r *http.Request) {
	userID := getUserID(r)

	updated, verdicts, err := h.carts.Reconcile(r.Context(), userID, h.catalog)
	if err != nil {
		respondJSONError(w, "catalog unavailable", http.StatusServiceUnavailable)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"cart":     updated,
		"verdicts": verdicts,
	})
}

// respondCartError maps domain cart errors onto HTTP statuses. Stock
// rejections carry the max addable quantity so the UI can offer it.
func respondCartError(w http.ResponseWriter, err error) {
	var stockErr *cart.StockError
	if errors.As(err, &stockErr) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error":       err.Error(),
			"product_id":  stockErr.ProductID,
			"requested":   stockErr.Requested,
			"available":   stockErr.Available,
			"max_addable": stockErr.MaxAddable,
		})
		return
	}

	switch {
	case errors.Is(err, cart.ErrItemNotFound):
		respondJSONError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, cart.ErrInvalidProduct), errors.Is(err, cart.ErrInvalidQuantity):
		respondJSONError(w, err.Error(), http.StatusBadRequest)
	default:
		respondJSONError(w, err.Error(), http.StatusInternalServerError)
	}
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondJSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func extractPathParam(path, prefix string) string {
	return strings.TrimPrefix(path, prefix)
}

// getUserID extracts the authenticated user ID from the JWT context.
func getUserID(r *http.Request) string {
	return middleware.UserID(r.Context())
}

// isAdmin checks if the current user has the admin role.
func isAdmin(r *http.Request) bool {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return false
	}
	return claims.Role == auth.RoleAdmin
}
