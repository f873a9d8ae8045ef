package cart

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrItemNotFound is returned when a mutation references an item id
	// that is not in the cart.
	ErrItemNotFound = errors.New("cart: item not found")
)

// AddOutcome tells the caller what happened on Add. Adding an item from a
// different vendor never mutates the cart silently; the caller must confirm
// the replacement explicitly.
type AddOutcome int

const (
	Added AddOutcome = iota
	NeedsConfirmationToReplace
)

// Vendor identifies the bar a cart is scoped to.
type Vendor struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

// MenuItem is the catalog entry a customer adds to the cart.
type MenuItem struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// LineItem is one menu item plus its quantity within the cart.
type LineItem struct {
	ItemID    string          `json:"item_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// Cart holds the single active cart, scoped to at most one vendor.
// The zero value is an empty, unscoped cart.
type Cart struct {
	vendor *Vendor
	items  []LineItem
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// Vendor returns the vendor the cart is scoped to, or nil when empty.
func (c *Cart) Vendor() *Vendor {
	if c.vendor == nil {
		return nil
	}
	v := *c.vendor
	return &v
}

// Items returns the line items in insertion order.
func (c *Cart) Items() []LineItem {
	items := make([]LineItem, len(c.items))
	copy(items, c.items)
	return items
}

// IsEmpty reports whether the cart has no line items.
func (c *Cart) IsEmpty() bool {
	return len(c.items) == 0
}

// Add upserts a menu item into the cart. If the cart is empty or already
// scoped to the given vendor, the item is merged (quantity +1 when present,
// appended with quantity 1 otherwise) and Added is returned. If the cart
// is scoped to a different vendor, nothing changes and the caller gets
// NeedsConfirmationToReplace.
func (c *Cart) Add(vendor Vendor, item MenuItem) AddOutcome {
	if c.vendor != nil && c.vendor.ID != vendor.ID && !c.IsEmpty() {
		return NeedsConfirmationToReplace
	}

	if c.IsEmpty() {
		v := vendor
		c.vendor = &v
	}

	for i := range c.items {
		if c.items[i].ItemID == item.ID {
			c.items[i].Quantity++
			return Added
		}
	}

	c.items = append(c.items, LineItem{
		ItemID:    item.ID,
		Name:      item.Name,
		UnitPrice: item.Price,
		Quantity:  1,
	})
	return Added
}

// ReplaceWith clears the cart and adds the item under the new vendor scope.
// It is the explicit follow-up to NeedsConfirmationToReplace.
func (c *Cart) ReplaceWith(vendor Vendor, item MenuItem) {
	c.Clear()
	c.Add(vendor, item)
}

// UpdateQuantity applies a delta to a line's quantity. The line is removed
// when the resulting quantity drops to zero or below; the quantity never
// goes negative. Referencing an absent item returns ErrItemNotFound.
func (c *Cart) UpdateQuantity(itemID string, delta int) error {
	for i := range c.items {
		if c.items[i].ItemID != itemID {
			continue
		}

		c.items[i].Quantity += delta
		if c.items[i].Quantity <= 0 {
			c.removeAt(i)
		}
		return nil
	}
	return ErrItemNotFound
}

// Remove removes a line unconditionally. Removing an absent item is a no-op.
func (c *Cart) Remove(itemID string) {
	for i := range c.items {
		if c.items[i].ItemID == itemID {
			c.removeAt(i)
			return
		}
	}
}

// Clear empties the cart and detaches the vendor scope.
func (c *Cart) Clear() {
	c.vendor = nil
	c.items = nil
}

// ItemCount returns the sum of quantities, recomputed fresh.
func (c *Cart) ItemCount() int {
	count := 0
	for _, item := range c.items {
		count += item.Quantity
	}
	return count
}

// Subtotal returns the sum of unit price times quantity, recomputed fresh.
func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.items {
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

func (c *Cart) removeAt(i int) {
	c.items = append(c.items[:i], c.items[i+1:]...)
	if len(c.items) == 0 {
		c.vendor = nil
	}
}
