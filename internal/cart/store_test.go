package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundtrip(t *testing.T) {
	fs, err := NewFileStore(t.TempDir(), "session-1")
	require.NoError(t, err)

	// No snapshot yet.
	_, ok, err := fs.Load()
	require.NoError(t, err)
	assert.False(t, ok)

	snapshot := Snapshot{
		Vendor: &Vendor{ID: "vendor-a", Name: "Kigali Heights Bar", Currency: "RWF"},
		Items: []LineItem{
			{ItemID: "item-beer", Name: "Mutzig 65cl", UnitPrice: decimal.NewFromInt(1500), Quantity: 2},
		},
	}
	require.NoError(t, fs.Save(snapshot))

	loaded, ok, err := fs.Load()
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, loaded.Vendor)
	assert.Equal(t, "vendor-a", loaded.Vendor.ID)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, 2, loaded.Items[0].Quantity)
	assert.True(t, loaded.Items[0].UnitPrice.Equal(decimal.NewFromInt(1500)))
}

func TestStoreRehydratesPersistedCart(t *testing.T) {
	dir := t.TempDir()

	fs, err := NewFileStore(dir, "session-2")
	require.NoError(t, err)

	first, err := NewStore(fs)
	require.NoError(t, err)

	_, err = first.Add(barA, beer)
	require.NoError(t, err)
	require.NoError(t, first.UpdateQuantity(beer.ID, 2))

	// A fresh store over the same file sees the same cart.
	second, err := NewStore(fs)
	require.NoError(t, err)

	assert.Equal(t, 3, second.ItemCount())
	require.NotNil(t, second.Cart().Vendor)
	assert.Equal(t, "vendor-a", second.Cart().Vendor.ID)
}

func TestStoreClearPersists(t *testing.T) {
	fs, err := NewFileStore(t.TempDir(), "session-3")
	require.NoError(t, err)

	store, err := NewStore(fs)
	require.NoError(t, err)

	_, err = store.Add(barA, beer)
	require.NoError(t, err)
	require.NoError(t, store.Clear())

	reopened, err := NewStore(fs)
	require.NoError(t, err)
	assert.True(t, reopened.IsEmpty())
}

func TestStoreWithoutPersister(t *testing.T) {
	store, err := NewStore(nil)
	require.NoError(t, err)

	outcome, err := store.Add(barA, wings)
	require.NoError(t, err)
	assert.Equal(t, Added, outcome)
	assert.Equal(t, 1, store.ItemCount())
}
