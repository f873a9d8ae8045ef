package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	barA = Vendor{ID: "vendor-a", Name: "Kigali Heights Bar", Currency: "RWF"}
	barB = Vendor{ID: "vendor-b", Name: "Nyamirambo Lounge", Currency: "RWF"}

	beer  = MenuItem{ID: "item-beer", Name: "Mutzig 65cl", Price: decimal.NewFromInt(1500)}
	wings = MenuItem{ID: "item-wings", Name: "Chicken Wings", Price: decimal.NewFromInt(4500)}
	soda  = MenuItem{ID: "item-soda", Name: "Fanta Citron", Price: decimal.NewFromInt(800)}
)

func TestCartAddMergesSameItem(t *testing.T) {
	c := New()

	assert.Equal(t, Added, c.Add(barA, beer))
	assert.Equal(t, Added, c.Add(barA, beer))
	assert.Equal(t, Added, c.Add(barA, wings))

	items := c.Items()
	require.Len(t, items, 2)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, 1, items[1].Quantity)
	assert.Equal(t, 3, c.ItemCount())
}

func TestCartAddFromDifferentVendorRequiresConfirmation(t *testing.T) {
	c := New()
	c.Add(barA, beer)

	outcome := c.Add(barB, soda)

	assert.Equal(t, NeedsConfirmationToReplace, outcome)
	// Nothing changed until the replacement is confirmed.
	require.Len(t, c.Items(), 1)
	assert.Equal(t, "vendor-a", c.Vendor().ID)

	c.ReplaceWith(barB, soda)

	require.Len(t, c.Items(), 1)
	assert.Equal(t, "item-soda", c.Items()[0].ItemID)
	assert.Equal(t, "vendor-b", c.Vendor().ID)
}

func TestCartUpdateQuantity(t *testing.T) {
	c := New()
	c.Add(barA, beer)
	c.Add(barA, beer)

	require.NoError(t, c.UpdateQuantity(beer.ID, 3))
	assert.Equal(t, 5, c.ItemCount())

	require.NoError(t, c.UpdateQuantity(beer.ID, -4))
	assert.Equal(t, 1, c.ItemCount())
}

func TestCartQuantityFloorRemovesLine(t *testing.T) {
	c := New()
	c.Add(barA, beer)
	c.Add(barA, wings)

	// Dropping to zero removes the line rather than keeping a zero quantity.
	require.NoError(t, c.UpdateQuantity(beer.ID, -1))
	require.Len(t, c.Items(), 1)

	// Overshooting below zero behaves the same.
	require.NoError(t, c.UpdateQuantity(wings.ID, -10))
	assert.True(t, c.IsEmpty())
	assert.Nil(t, c.Vendor())
}

func TestCartUpdateQuantityUnknownItem(t *testing.T) {
	c := New()
	c.Add(barA, beer)

	assert.ErrorIs(t, c.UpdateQuantity("no-such-item", 1), ErrItemNotFound)
}

func TestCartRemove(t *testing.T) {
	c := New()
	c.Add(barA, beer)
	c.Add(barA, wings)

	c.Remove(beer.ID)
	require.Len(t, c.Items(), 1)

	// Removing an absent item is a no-op.
	c.Remove("no-such-item")
	require.Len(t, c.Items(), 1)

	c.Remove(wings.ID)
	assert.True(t, c.IsEmpty())
	assert.Nil(t, c.Vendor())
}

func TestCartSubtotal(t *testing.T) {
	c := New()
	c.Add(barA, beer)
	c.Add(barA, beer)
	c.Add(barA, wings)

	// 2 * 1500 + 1 * 4500
	assert.True(t, c.Subtotal().Equal(decimal.NewFromInt(7500)),
		"subtotal was %s", c.Subtotal())

	require.NoError(t, c.UpdateQuantity(wings.ID, -1))
	assert.True(t, c.Subtotal().Equal(decimal.NewFromInt(3000)))
}

func TestCartClear(t *testing.T) {
	c := New()
	c.Add(barA, beer)

	c.Clear()

	assert.True(t, c.IsEmpty())
	assert.Nil(t, c.Vendor())
	assert.True(t, c.Subtotal().IsZero())

	// After clearing, any vendor is acceptable again.
	assert.Equal(t, Added, c.Add(barB, soda))
}
