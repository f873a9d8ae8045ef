package catalog

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrVendorNotFound is returned when a vendor id does not exist.
var ErrVendorNotFound = errors.New("catalog: vendor not found")

// Vendor is a restaurant/bar tenant on the platform.
type Vendor struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Country    string  `json:"country"`
	Currency   string  `json:"currency"`
	WalletLink *string `json:"wallet_link,omitempty"`
}

// MenuItem is one catalog entry for a vendor.
type MenuItem struct {
	ID        string          `json:"id"`
	VendorID  string          `json:"vendor_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Currency  string          `json:"currency"`
	Available bool            `json:"available"`
}

// Catalog is the read boundary over the menu catalog. Prices read here are
// authoritative at add-to-cart time; orders snapshot them at submission.
type Catalog interface {
	Vendor(ctx context.Context, vendorID string) (*Vendor, error)
	MenuItems(ctx context.Context, vendorID string) ([]MenuItem, error)
}
