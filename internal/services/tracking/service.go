package tracking

import (
	"context"
	"time"

	"icupa-ordering/internal/catalog"
	"icupa-ordering/internal/logger"
	"icupa-ordering/internal/models"
)

// orderStore is the read surface the tracker needs. The tracker never
// writes status; that belongs to the kitchen workflow.
type orderStore interface {
	Ping(ctx context.Context) error
	GetByReference(ctx context.Context, reference string) (*models.Order, error)
	GetStatusHistory(ctx context.Context, reference string) ([]models.OrderStatusHistory, error)
}

// TimelineEntry is one step of the rendered progress timeline.
type TimelineEntry struct {
	Status  models.OrderStatus `json:"status"`
	Reached bool               `json:"reached"`
	Current bool               `json:"current"`
}

// StatusResponse is the tracker's live view of one order.
type StatusResponse struct {
	Reference     string               `json:"reference"`
	CurrentStatus models.OrderStatus   `json:"current_status"`
	PaymentStatus models.PaymentStatus `json:"payment_status"`
	Cancelled     bool                 `json:"cancelled"`
	UpdatedAt     time.Time            `json:"updated_at"`
	Timeline      []TimelineEntry      `json:"timeline"`
}

// SummaryResponse is the static order summary shown above the timeline.
type SummaryResponse struct {
	Reference     string               `json:"reference"`
	VendorName    string               `json:"vendor_name"`
	Items         []models.OrderItem   `json:"items"`
	TotalAmount   string               `json:"total_amount"`
	Currency      string               `json:"currency"`
	Customer      models.CustomerInfo  `json:"customer"`
	PaymentMethod models.PaymentMethod `json:"payment_method"`
	CreatedAt     time.Time            `json:"created_at"`
}

// Service provides read-only order tracking.
type Service struct {
	orders  orderStore
	catalog catalog.Catalog
	logger  *logger.Logger
}

// NewService creates a new tracking service.
func NewService(orders orderStore, cat catalog.Catalog, log *logger.Logger) *Service {
	return &Service{
		orders:  orders,
		catalog: cat,
		logger:  log,
	}
}

// BuildTimeline derives the progress timeline from the fixed status
// sequence. A cancelled order keeps only the steps it actually reached.
func BuildTimeline(status models.OrderStatus, history []models.OrderStatusHistory) []TimelineEntry {
	reached := make(map[models.OrderStatus]bool, len(history)+1)
	reached[models.StatusPending] = true
	for _, entry := range history {
		reached[entry.Status] = true
	}

	timeline := make([]TimelineEntry, 0, len(models.StatusTimeline))
	for _, step := range models.StatusTimeline {
		timeline = append(timeline, TimelineEntry{
			Status:  step,
			Reached: reached[step],
			Current: step == status,
		})
	}
	return timeline
}

// GetOrderStatus retrieves the current status and timeline of an order.
func (s *Service) GetOrderStatus(ctx context.Context, reference, requestID string) (*StatusResponse, error) {
	order, err := s.orders.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	history, err := s.orders.GetStatusHistory(ctx, reference)
	if err != nil {
		return nil, err
	}

	return &StatusResponse{
		Reference:     order.Reference,
		CurrentStatus: order.Status,
		PaymentStatus: order.PaymentStatus,
		Cancelled:     order.Status == models.StatusCancelled,
		UpdatedAt:     order.UpdatedAt,
		Timeline:      BuildTimeline(order.Status, history),
	}, nil
}

// GetOrderSummary retrieves the static summary of an order: snapshotted
// items with their captured prices, totals, and customer contact.
func (s *Service) GetOrderSummary(ctx context.Context, reference, requestID string) (*SummaryResponse, error) {
	order, err := s.orders.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	vendorName := ""
	vendor, err := s.catalog.Vendor(ctx, order.VendorID)
	if err != nil {
		// Vendor lookup failing must not hide the order itself.
		s.logger.Error("vendor_lookup_failed", "Failed to resolve vendor for summary", requestID, err, map[string]interface{}{
			"reference": reference,
			"vendor_id": order.VendorID,
		})
	} else {
		vendorName = vendor.Name
	}

	return &SummaryResponse{
		Reference:     order.Reference,
		VendorName:    vendorName,
		Items:         order.Items,
		TotalAmount:   order.TotalAmount.StringFixed(2),
		Currency:      order.Currency,
		Customer:      order.Customer,
		PaymentMethod: order.PaymentMethod,
		CreatedAt:     order.CreatedAt,
	}, nil
}

// GetOrderHistory retrieves the complete status history of an order.
func (s *Service) GetOrderHistory(ctx context.Context, reference, requestID string) ([]models.OrderStatusHistory, error) {
	return s.orders.GetStatusHistory(ctx, reference)
}

// HealthCheck checks the health of dependencies.
func (s *Service) HealthCheck(ctx context.Context) bool {
	if err := s.orders.Ping(ctx); err != nil {
		s.logger.Error("health_check_failed", "Database ping failed", "", err, nil)
		return false
	}
	return true
}
