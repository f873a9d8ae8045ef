package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"icupa-ordering/internal/catalog"
)

// ErrNoWalletLink is returned when a wallet checkout is requested for a
// vendor that has no wallet link configured.
var ErrNoWalletLink = errors.New("payment: vendor has no wallet link configured")

// LineItem is one order line passed to the hosted card checkout.
type LineItem struct {
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// CardSessionRequest describes the hosted card-payment session to create.
type CardSessionRequest struct {
	OrderReference string
	Currency       string
	CustomerEmail  string
	Items          []LineItem
}

// CardSessions creates hosted card-checkout sessions. The returned URL is
// where the customer's browser must be redirected.
type CardSessions interface {
	Create(ctx context.Context, req CardSessionRequest) (string, error)
}

// WalletLink resolves a vendor's pre-configured wallet payment link.
// The caller treats the redirect as fire-and-forget; settlement is
// confirmed by the vendor marking the order paid.
func WalletLink(vendor *catalog.Vendor) (string, error) {
	if vendor.WalletLink == nil || *vendor.WalletLink == "" {
		return "", ErrNoWalletLink
	}
	return *vendor.WalletLink, nil
}
