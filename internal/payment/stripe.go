package payment

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/checkout/session"

	"icupa-ordering/internal/config"
	"icupa-ordering/internal/logger"
)

// StripeCardSessions creates Stripe hosted checkout sessions.
type StripeCardSessions struct {
	successURL string
	cancelURL  string
	logger     *logger.Logger
}

// NewStripeCardSessions configures the Stripe client from config. The
// secret key is process-global in stripe-go.
func NewStripeCardSessions(cfg config.PaymentConfig, log *logger.Logger) (*StripeCardSessions, error) {
	if cfg.StripeKey == "" {
		return nil, fmt.Errorf("stripe secret key is not configured")
	}
	stripe.Key = cfg.StripeKey

	return &StripeCardSessions{
		successURL: cfg.SuccessURL,
		cancelURL:  cfg.CancelURL,
		logger:     log,
	}, nil
}

// Create builds a checkout session for the order and returns the hosted
// payment page URL. Unit prices are converted to minor units.
func (s *StripeCardSessions) Create(ctx context.Context, req CardSessionRequest) (string, error) {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Items))
	for _, item := range req.Items {
		unitAmount := item.UnitPrice.Mul(decimal.NewFromInt(100)).IntPart()
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(int64(item.Quantity)),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(req.Currency),
				UnitAmount: stripe.Int64(unitAmount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
			},
		})
	}

	params := &stripe.CheckoutSessionParams{
		SubmitType: stripe.String("pay"),
		LineItems:  lineItems,
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(s.successURL),
		CancelURL:  stripe.String(s.cancelURL),
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: map[string]string{
				"order_reference": req.OrderReference,
			},
		},
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	params.Context = ctx

	checkoutSession, err := session.New(params)
	if err != nil {
		s.logger.Error("card_session_failed", "Failed to create Stripe checkout session", "", err, map[string]interface{}{
			"order_reference": req.OrderReference,
		})
		return "", fmt.Errorf("failed to create card session: %w", err)
	}

	return checkoutSession.URL, nil
}
