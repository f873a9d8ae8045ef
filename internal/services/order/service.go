package order

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"icupa-ordering/internal/cart"
	"icupa-ordering/internal/catalog"
	"icupa-ordering/internal/checkout"
	"icupa-ordering/internal/logger"
	"icupa-ordering/internal/models"
	"icupa-ordering/internal/payment"
)

// PaymentSetupError reports that the order was created but its payment
// path could not be set up. The order is preserved in pending payment
// state; the reference gives the user a retry handle.
type PaymentSetupError struct {
	Reference string
	Err       error
}

func (e *PaymentSetupError) Error() string {
	return fmt.Sprintf("order %s created but payment setup failed: %v", e.Reference, e.Err)
}

func (e *PaymentSetupError) Unwrap() error {
	return e.Err
}

// repository is the persistence surface Submit needs.
type repository interface {
	Ping(ctx context.Context) error
	NextSequence(ctx context.Context, date time.Time) (int, error)
	CreateOrderWithItems(ctx context.Context, o *models.Order) error
}

// publisher hands submitted orders to the kitchen workflow.
type publisher interface {
	PublishOrder(ctx context.Context, orderMsg interface{}, vendorID string) error
}

// Service materializes carts into persisted orders and kicks off payment.
type Service struct {
	repo      repository
	publisher publisher
	catalog   catalog.Catalog
	cards     payment.CardSessions
	logger    *logger.Logger
}

// NewService creates the order submission service.
func NewService(repo repository, pub publisher, cat catalog.Catalog, cards payment.CardSessions, log *logger.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: pub,
		catalog:   cat,
		cards:     cards,
		logger:    log,
	}
}

// HealthCheck checks the health of dependencies.
func (s *Service) HealthCheck(ctx context.Context) bool {
	if err := s.repo.Ping(ctx); err != nil {
		s.logger.Error("health_check_failed", "Database ping failed", "", err, nil)
		return false
	}
	return true
}

// Submit implements checkout.OrderSubmitter. Header, line items, and the
// initial status-log row are written in one transaction; the snapshot's
// unit prices are captured as-is so later catalog changes never alter the
// order. Payment-path failures after the write return the result holding
// the order reference together with a PaymentSetupError, so callers know
// the order exists and must not resubmit the cart.
func (s *Service) Submit(ctx context.Context, snapshot cart.Snapshot, customer models.CustomerInfo, method models.PaymentMethod) (*checkout.SubmitResult, error) {
	requestID := logger.GenerateRequestID()

	if len(snapshot.Items) == 0 || snapshot.Vendor == nil {
		return nil, fmt.Errorf("cannot submit an empty cart")
	}
	if !method.Valid() {
		return nil, fmt.Errorf("unknown payment method %q", method)
	}

	vendor, err := s.catalog.Vendor(ctx, snapshot.Vendor.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve vendor: %w", err)
	}

	order, err := s.buildOrder(ctx, snapshot, customer, method, vendor)
	if err != nil {
		return nil, err
	}

	if err := s.repo.CreateOrderWithItems(ctx, order); err != nil {
		s.logger.Error("order_creation_failed", "Failed to persist order", requestID, err, map[string]interface{}{
			"vendor_id": vendor.ID,
		})
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.logger.Info("order_created", "Order persisted", requestID, map[string]interface{}{
		"reference":      order.Reference,
		"vendor_id":      vendor.ID,
		"total_amount":   order.TotalAmount.StringFixed(2),
		"currency":       order.Currency,
		"payment_method": string(method),
	})

	// The order is durable at this point; a broker hiccup must not fail
	// the submission. The kitchen can be re-driven from the orders table.
	if err := s.publisher.PublishOrder(ctx, models.NewOrderMessage(order), vendor.ID); err != nil {
		s.logger.Error("order_publish_failed", "Failed to publish order to kitchen", requestID, err, map[string]interface{}{
			"reference": order.Reference,
		})
	}

	result := &checkout.SubmitResult{Reference: order.Reference}

	switch method {
	case models.PaymentCash:
		// Settled in person; nothing further to set up.
	case models.PaymentWallet:
		link, err := payment.WalletLink(vendor)
		if err != nil {
			return result, &PaymentSetupError{Reference: order.Reference, Err: err}
		}
		result.RedirectURL = link
	case models.PaymentCard:
		url, err := s.createCardSession(ctx, order, customer)
		if err != nil {
			return result, &PaymentSetupError{Reference: order.Reference, Err: err}
		}
		result.RedirectURL = url
	}

	return result, nil
}

// buildOrder assembles the order header and snapshotted line items.
func (s *Service) buildOrder(ctx context.Context, snapshot cart.Snapshot, customer models.CustomerInfo, method models.PaymentMethod, vendor *catalog.Vendor) (*models.Order, error) {
	now := time.Now().UTC()
	seq, err := s.repo.NextSequence(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate order reference: %w", err)
	}

	items := make([]models.OrderItem, 0, len(snapshot.Items))
	total := decimal.Zero
	for _, line := range snapshot.Items {
		if line.Quantity < 1 {
			return nil, fmt.Errorf("line %q has invalid quantity %d", line.Name, line.Quantity)
		}
		items = append(items, models.OrderItem{
			MenuItemID: line.ItemID,
			Name:       line.Name,
			UnitPrice:  line.UnitPrice,
			Quantity:   line.Quantity,
		})
		total = total.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	return &models.Order{
		Reference:     models.GenerateOrderReference(now, seq),
		VendorID:      vendor.ID,
		Customer:      customer,
		Items:         items,
		TotalAmount:   total,
		Currency:      vendor.Currency,
		Status:        models.StatusPending,
		PaymentStatus: models.PaymentPending,
		PaymentMethod: method,
	}, nil
}

func (s *Service) createCardSession(ctx context.Context, order *models.Order, customer models.CustomerInfo) (string, error) {
	if s.cards == nil {
		return "", fmt.Errorf("card payments are not configured")
	}

	items := make([]payment.LineItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, payment.LineItem{
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		})
	}

	return s.cards.Create(ctx, payment.CardSessionRequest{
		OrderReference: order.Reference,
		Currency:       order.Currency,
		CustomerEmail:  customer.Email,
		Items:          items,
	})
}
