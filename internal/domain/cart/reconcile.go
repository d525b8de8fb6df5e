package cart

import "github.com/example/cafe-storefront/internal/domain/catalog"

// Reconciliation reasons surfaced to the user.
const (
	ReasonNotAvailable      = "product not available"
	ReasonNotActive         = "product not active"
	ReasonInsufficientStock = "insufficient stock"
)

// Verdict pairs a line item with the outcome of validating it against a
// catalog snapshot. Available carries the actual stock when the reason is
// insufficient stock, so the caller can offer to clamp.
type Verdict struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Valid     bool   `json:"valid"`
	Reason    string `json:"reason,omitempty"`
	Available int    `json:"available,omitempty"`
}

// ValidateAgainstCatalog checks every line item against the snapshot and
// returns one verdict per item. Quantities are never changed; the only
// mutation is refreshing AvailableStock on items found valid.
func ValidateAgainstCatalog(c *Cart, snap catalog.Snapshot) []Verdict {
	verdicts := make([]Verdict, 0, len(c.Items))
	for i := range c.Items {
		item := &c.Items[i]
		v := Verdict{ProductID: item.ProductID, Quantity: item.Quantity}

		entry, ok := snap[item.ProductID]
		switch {
		case !ok:
			v.Reason = ReasonNotAvailable
		case !entry.IsActive:
			v.Reason = ReasonNotActive
		case entry.Stock < item.Quantity:
			v.Reason = ReasonInsufficientStock
			v.Available = entry.Stock
		default:
			v.Valid = true
			item.AvailableStock = entry.Stock
		}
		verdicts = append(verdicts, v)
	}
	return verdicts
}

// ReconcileAndPrune applies validation verdicts to the cart: line items
// whose product is gone or inactive are removed, over-quantity items are
// clamped down to the snapshot's stock. Quantities are never increased.
// Used when returning to the cart page; checkout uses ValidateAgainstCatalog
// and leaves the decision to the user.
func ReconcileAndPrune(c *Cart, snap catalog.Snapshot) []Verdict {
	verdicts := ValidateAgainstCatalog(c, snap)
	for _, v := range verdicts {
		if v.Valid {
			continue
		}
		switch v.Reason {
		case ReasonNotAvailable, ReasonNotActive:
			c.RemoveItem(v.ProductID)
		case ReasonInsufficientStock:
			if v.Available <= 0 {
				c.RemoveItem(v.ProductID)
				continue
			}
			i := c.index(v.ProductID)
			if i >= 0 && c.Items[i].Quantity > v.Available {
				c.Items[i].Quantity = v.Available
				c.Items[i].AvailableStock = v.Available
			}
		}
	}
	return verdicts
}
