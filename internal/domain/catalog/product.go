package catalog

import (
	"context"
	"errors"
	"time"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Product is the catalog's view of a sellable item. Prices are integer
// minor units (cents).
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       int       `json:"price"`
	Stock       int       `json:"stock"`
	IsActive    bool      `json:"is_active"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Snapshot is a point-in-time view of the catalog keyed by product ID,
// taken immediately before cart reconciliation.
type Snapshot map[string]Product

// SnapshotProvider fetches authoritative product data for a set of IDs.
// Implemented by the local postgres store and the remote catalog client.
type SnapshotProvider interface {
	Snapshot(ctx context.Context, ids []string) (Snapshot, error)
}
