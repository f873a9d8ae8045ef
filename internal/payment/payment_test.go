package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icupa-ordering/internal/catalog"
)

func TestWalletLink(t *testing.T) {
	link := "https://pay.example/vendor-a"
	vendor := &catalog.Vendor{ID: "vendor-a", Name: "Kigali Heights Bar", WalletLink: &link}

	got, err := WalletLink(vendor)

	require.NoError(t, err)
	assert.Equal(t, link, got)
}

func TestWalletLinkMissing(t *testing.T) {
	empty := ""

	_, err := WalletLink(&catalog.Vendor{ID: "vendor-a"})
	assert.ErrorIs(t, err, ErrNoWalletLink)

	_, err = WalletLink(&catalog.Vendor{ID: "vendor-a", WalletLink: &empty})
	assert.ErrorIs(t, err, ErrNoWalletLink)
}
