package cart

import "context"

// Store persists whole carts keyed by user. Every Save writes the entire
// current cart, never a delta. Load of missing or unparseable data yields
// an empty cart, not an error; only transport failures are returned.
type Store interface {
	Load(ctx context.Context, userID string) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
	Clear(ctx context.Context, userID string) error
}
