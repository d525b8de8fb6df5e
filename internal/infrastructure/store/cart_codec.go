package store

import (
	"encoding/json"

	"github.com/sirupsen/logrus"

	"github.com/example/cafe-storefront/internal/domain/cart"
)

// encodeCart serializes the whole cart for storage.
func encodeCart(c *cart.Cart) ([]byte, error) {
	return json.Marshal(c)
}

// decodeCart deserializes a stored cart. Corrupt or unparseable data is
// discarded and treated as an empty cart, never surfaced as an error.
func decodeCart(userID string, data []byte) *cart.Cart {
	if len(data) == 0 {
		return cart.New(userID)
	}

	var c cart.Cart
	if err := json.Unmarshal(data, &c); err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("discarding corrupt stored cart")
		return cart.New(userID)
	}
	c.UserID = userID
	return &c
}
