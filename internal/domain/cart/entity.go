// internal/domain/cart/entity.go
package cart

import (
	"strings"
	"time"
)

// LineItem represents one cart line. Identity is the (ProductID, Name) pair:
// the composed name folds the chosen variant and size into it, so the same
// base product configured differently yields distinct line items.
type LineItem struct {
	ProductID uint      `json:"product_id"`
	Name      string    `json:"name"`
	Price     int64     `json:"price"` // Resolved unit price in cents
	Quantity  int       `json:"quantity"`
	Image     string    `json:"image"`
	Category  string    `json:"category"`
	AddedAt   time.Time `json:"added_at"`
}

// SessionCart represents a visitor's cart, stored in Redis per session
type SessionCart struct {
	SessionID string     `json:"session_id"`
	Email     string     `json:"email,omitempty"`
	Items     []LineItem `json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CartTotals represents derived totals. They are recomputed from the item
// list on every read, never cached alongside it.
type CartTotals struct {
	ItemCount int   `json:"item_count"`
	Subtotal  int64 `json:"subtotal"`
	Tax       int64 `json:"tax"`
	Shipping  int64 `json:"shipping"`
	Discount  int64 `json:"discount"`
	Total     int64 `json:"total"`
}

// ComposeName builds the composed line-item name from the base product name
// and the chosen variant color and size label, omitting empty parts.
func ComposeName(productName, variantColor, sizeLabel string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{productName, variantColor, sizeLabel} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " - ")
}

// IsEmpty reports whether the cart has no line items
func (c *SessionCart) IsEmpty() bool {
	return len(c.Items) == 0
}

// ItemCount returns the total quantity across all line items
func (c *SessionCart) ItemCount() int {
	count := 0
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// TotalValue returns the cart value in cents, recomputed from the items
func (c *SessionCart) TotalValue() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.Price * int64(item.Quantity)
	}
	return total
}

// FindItem returns the index of the line item with the exact (id, name)
// identity, or -1 when absent
func (c *SessionCart) FindItem(productID uint, name string) int {
	for i, item := range c.Items {
		if item.ProductID == productID && item.Name == name {
			return i
		}
	}
	return -1
}

// FindByProductID returns the index of the first line item with the given
// product id regardless of composed name, or -1 when absent. Bundle adds
// merge on product id alone.
func (c *SessionCart) FindByProductID(productID uint) int {
	for i, item := range c.Items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

// Totals computes the derived totals for the cart. Tax, shipping and
// discount are all zero in this storefront.
func (c *SessionCart) Totals() CartTotals {
	subtotal := c.TotalValue()
	return CartTotals{
		ItemCount: c.ItemCount(),
		Subtotal:  subtotal,
		Total:     subtotal,
	}
}
