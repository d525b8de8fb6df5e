package cart

import (
	"errors"
	"fmt"

	"github.com/example/cafe-storefront/internal/domain/catalog"
)

var (
	ErrInvalidProduct  = errors.New("product_id is required")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrItemNotFound    = errors.New("item not in cart")
)

// StockError reports a mutation rejected because it would exceed the known
// stock ceiling. MaxAddable is the largest quantity the caller could still
// add (relevant when merging into an existing line item).
type StockError struct {
	ProductID  string
	Requested  int
	Available  int
	MaxAddable int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}

// LineItem is one product's entry in the cart. Name and UnitPrice are a
// snapshot taken when the item was added; AvailableStock is the last stock
// ceiling seen during add or reconciliation.
type LineItem struct {
	ProductID      string `json:"product_id"`
	Name           string `json:"name"`
	UnitPrice      int    `json:"unit_price"`
	Quantity       int    `json:"quantity"`
	AvailableStock int    `json:"available_stock"`
}

// NewLineItem validates the line-item invariants at construction. An item
// with no product ID or a non-positive quantity cannot exist, even
// transiently.
func NewLineItem(productID, name string, unitPrice, quantity, availableStock int) (LineItem, error) {
	if productID == "" {
		return LineItem{}, ErrInvalidProduct
	}
	if quantity <= 0 {
		return LineItem{}, ErrInvalidQuantity
	}
	return LineItem{
		ProductID:      productID,
		Name:           name,
		UnitPrice:      unitPrice,
		Quantity:       quantity,
		AvailableStock: availableStock,
	}, nil
}

// Subtotal returns the line's contribution to the cart total.
func (li LineItem) Subtotal() int {
	return li.UnitPrice * li.Quantity
}

// Cart holds one user's line items, unique by product ID. Insertion order
// is preserved for display stability.
type Cart struct {
	UserID string     `json:"user_id"`
	Items  []LineItem `json:"items"`
}

func New(userID string) *Cart {
	return &Cart{UserID: userID}
}

func (c *Cart) index(productID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// AddItem adds quantity units of the product, merging into an existing line
// item if present. The merged quantity is re-validated against the product's
// stock; on shortfall nothing is applied and the returned StockError carries
// the maximum still addable.
func (c *Cart) AddItem(p catalog.Product, quantity int) error {
	if p.ID == "" {
		return ErrInvalidProduct
	}
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	i := c.index(p.ID)
	if i < 0 {
		if quantity > p.Stock {
			return &StockError{ProductID: p.ID, Requested: quantity, Available: p.Stock, MaxAddable: p.Stock}
		}
		item, err := NewLineItem(p.ID, p.Name, p.Price, quantity, p.Stock)
		if err != nil {
			return err
		}
		c.Items = append(c.Items, item)
		return nil
	}

	merged := c.Items[i].Quantity + quantity
	if merged > p.Stock {
		return &StockError{
			ProductID:  p.ID,
			Requested:  merged,
			Available:  p.Stock,
			MaxAddable: p.Stock - c.Items[i].Quantity,
		}
	}
	c.Items[i].Quantity = merged
	c.Items[i].Name = p.Name
	c.Items[i].UnitPrice = p.Price
	c.Items[i].AvailableStock = p.Stock
	return nil
}

// RemoveItem deletes the line item if present. Removing an absent product
// is a no-op, not an error.
func (c *Cart) RemoveItem(productID string) {
	i := c.index(productID)
	if i < 0 {
		return
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
}

// UpdateQuantity sets the line item's quantity. A quantity of zero or below
// removes the item. A quantity above the last-known stock ceiling is
// rejected with a StockError and the item is left unchanged.
func (c *Cart) UpdateQuantity(productID string, quantity int) error {
	if productID == "" {
		return ErrInvalidProduct
	}
	if quantity <= 0 {
		c.RemoveItem(productID)
		return nil
	}

	i := c.index(productID)
	if i < 0 {
		return ErrItemNotFound
	}
	if quantity > c.Items[i].AvailableStock {
		return &StockError{
			ProductID:  productID,
			Requested:  quantity,
			Available:  c.Items[i].AvailableStock,
			MaxAddable: c.Items[i].AvailableStock,
		}
	}
	c.Items[i].Quantity = quantity
	return nil
}

// Clear empties the cart unconditionally.
func (c *Cart) Clear() {
	c.Items = nil
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// TotalItems returns the sum of all line-item quantities.
func (c *Cart) TotalItems() int {
	total := 0
	for i := range c.Items {
		total += c.Items[i].Quantity
	}
	return total
}

// TotalPrice returns the cart total in minor units, recomputed from the
// current line items.
func (c *Cart) TotalPrice() int {
	total := 0
	for i := range c.Items {
		total += c.Items[i].Subtotal()
	}
	return total
}

// Contains reports whether the product has a line item in the cart.
func (c *Cart) Contains(productID string) bool {
	return c.index(productID) >= 0
}

// Quantity returns the line item's quantity, or zero when absent.
func (c *Cart) Quantity(productID string) int {
	i := c.index(productID)
	if i < 0 {
		return 0
	}
	return c.Items[i].Quantity
}
