package tracking

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icupa-ordering/internal/catalog"
	"icupa-ordering/internal/logger"
	"icupa-ordering/internal/models"
	"icupa-ordering/internal/services/order"
)

type fakeOrderStore struct {
	order   *models.Order
	history []models.OrderStatusHistory
}

func (f *fakeOrderStore) Ping(ctx context.Context) error { return nil }

func (f *fakeOrderStore) GetByReference(ctx context.Context, reference string) (*models.Order, error) {
	if f.order == nil || f.order.Reference != reference {
		return nil, order.ErrOrderNotFound
	}
	return f.order, nil
}

func (f *fakeOrderStore) GetStatusHistory(ctx context.Context, reference string) ([]models.OrderStatusHistory, error) {
	if f.order == nil || f.order.Reference != reference {
		return nil, order.ErrOrderNotFound
	}
	return f.history, nil
}

type fakeCatalog struct {
	vendor *catalog.Vendor
}

func (f *fakeCatalog) Vendor(ctx context.Context, vendorID string) (*catalog.Vendor, error) {
	if f.vendor == nil {
		return nil, catalog.ErrVendorNotFound
	}
	return f.vendor, nil
}

func (f *fakeCatalog) MenuItems(ctx context.Context, vendorID string) ([]catalog.MenuItem, error) {
	return nil, nil
}

func historyThrough(statuses ...models.OrderStatus) []models.OrderStatusHistory {
	history := make([]models.OrderStatusHistory, 0, len(statuses))
	for _, s := range statuses {
		history = append(history, models.OrderStatusHistory{Status: s, ChangedBy: "worker-1", ChangedAt: time.Now()})
	}
	return history
}

func TestBuildTimeline(t *testing.T) {
	tests := []struct {
		name        string
		status      models.OrderStatus
		history     []models.OrderStatusHistory
		wantReached []bool
		wantCurrent models.OrderStatus
	}{
		{
			name:        "freshly submitted",
			status:      models.StatusPending,
			history:     historyThrough(models.StatusPending),
			wantReached: []bool{true, false, false, false, false},
			wantCurrent: models.StatusPending,
		},
		{
			name:        "mid preparation",
			status:      models.StatusPreparing,
			history:     historyThrough(models.StatusPending, models.StatusConfirmed, models.StatusPreparing),
			wantReached: []bool{true, true, true, false, false},
			wantCurrent: models.StatusPreparing,
		},
		{
			name:        "completed",
			status:      models.StatusCompleted,
			history:     historyThrough(models.StatusPending, models.StatusConfirmed, models.StatusPreparing, models.StatusReady, models.StatusCompleted),
			wantReached: []bool{true, true, true, true, true},
			wantCurrent: models.StatusCompleted,
		},
		{
			name:        "cancelled after confirmation keeps reached steps",
			status:      models.StatusCancelled,
			history:     historyThrough(models.StatusPending, models.StatusConfirmed, models.StatusCancelled),
			wantReached: []bool{true, true, false, false, false},
		},
		{
			name:        "empty history still shows pending",
			status:      models.StatusPending,
			history:     nil,
			wantReached: []bool{true, false, false, false, false},
			wantCurrent: models.StatusPending,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			timeline := BuildTimeline(tt.status, tt.history)

			require.Len(t, timeline, len(models.StatusTimeline))
			for i, entry := range timeline {
				assert.Equal(t, models.StatusTimeline[i], entry.Status)
				assert.Equal(t, tt.wantReached[i], entry.Reached, "step %s", entry.Status)
				assert.Equal(t, entry.Status == tt.wantCurrent, entry.Current, "step %s", entry.Status)
			}
		})
	}
}

func testOrder() *models.Order {
	return &models.Order{
		Reference:     "ICU_20250307_001",
		VendorID:      "vendor-a",
		Customer:      models.CustomerInfo{Name: "Alice", Phone: "+250780000001"},
		Items:         []models.OrderItem{{MenuItemID: "item-beer", Name: "Mutzig 65cl", UnitPrice: decimal.NewFromInt(1500), Quantity: 2}},
		TotalAmount:   decimal.NewFromInt(3000),
		Currency:      "RWF",
		Status:        models.StatusPreparing,
		PaymentStatus: models.PaymentPending,
		PaymentMethod: models.PaymentCash,
		CreatedAt:     time.Now(),
	}
}

func TestGetOrderStatus(t *testing.T) {
	store := &fakeOrderStore{
		order:   testOrder(),
		history: historyThrough(models.StatusPending, models.StatusConfirmed, models.StatusPreparing),
	}
	service := NewService(store, &fakeCatalog{}, logger.New("tracking-test"))

	status, err := service.GetOrderStatus(context.Background(), "ICU_20250307_001", "req-1")

	require.NoError(t, err)
	assert.Equal(t, models.StatusPreparing, status.CurrentStatus)
	assert.False(t, status.Cancelled)
	require.Len(t, status.Timeline, 5)
	assert.True(t, status.Timeline[2].Current)
}

func TestGetOrderStatusNotFound(t *testing.T) {
	service := NewService(&fakeOrderStore{}, &fakeCatalog{}, logger.New("tracking-test"))

	_, err := service.GetOrderStatus(context.Background(), "ICU_20250307_999", "req-1")

	assert.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestGetOrderSummary(t *testing.T) {
	store := &fakeOrderStore{order: testOrder()}
	cat := &fakeCatalog{vendor: &catalog.Vendor{ID: "vendor-a", Name: "Kigali Heights Bar", Currency: "RWF"}}
	service := NewService(store, cat, logger.New("tracking-test"))

	summary, err := service.GetOrderSummary(context.Background(), "ICU_20250307_001", "req-1")

	require.NoError(t, err)
	assert.Equal(t, "Kigali Heights Bar", summary.VendorName)
	assert.Equal(t, "3000.00", summary.TotalAmount)
	assert.Equal(t, models.PaymentCash, summary.PaymentMethod)
	require.Len(t, summary.Items, 1)
}

func TestGetOrderSummarySurvivesVendorLookupFailure(t *testing.T) {
	store := &fakeOrderStore{order: testOrder()}
	service := NewService(store, &fakeCatalog{}, logger.New("tracking-test"))

	summary, err := service.GetOrderSummary(context.Background(), "ICU_20250307_001", "req-1")

	require.NoError(t, err)
	assert.Empty(t, summary.VendorName)
	assert.Equal(t, "ICU_20250307_001", summary.Reference)
}
