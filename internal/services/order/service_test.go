package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icupa-ordering/internal/cart"
	"icupa-ordering/internal/catalog"
	"icupa-ordering/internal/logger"
	"icupa-ordering/internal/models"
	"icupa-ordering/internal/payment"
)

type fakeRepository struct {
	sequence  int
	createErr error
	created   *models.Order
}

func (f *fakeRepository) Ping(ctx context.Context) error { return nil }

func (f *fakeRepository) NextSequence(ctx context.Context, date time.Time) (int, error) {
	f.sequence++
	return f.sequence, nil
}

func (f *fakeRepository) CreateOrderWithItems(ctx context.Context, o *models.Order) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = o
	return nil
}

type fakePublisher struct {
	published int
	err       error
}

func (f *fakePublisher) PublishOrder(ctx context.Context, orderMsg interface{}, vendorID string) error {
	f.published++
	return f.err
}

type fakeCatalog struct {
	vendor *catalog.Vendor
	items  []catalog.MenuItem
}

func (f *fakeCatalog) Vendor(ctx context.Context, vendorID string) (*catalog.Vendor, error) {
	if f.vendor == nil || f.vendor.ID != vendorID {
		return nil, catalog.ErrVendorNotFound
	}
	return f.vendor, nil
}

func (f *fakeCatalog) MenuItems(ctx context.Context, vendorID string) ([]catalog.MenuItem, error) {
	return f.items, nil
}

type fakeCards struct {
	url string
	err error
	req payment.CardSessionRequest
}

func (f *fakeCards) Create(ctx context.Context, req payment.CardSessionRequest) (string, error) {
	f.req = req
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

func testSnapshot() cart.Snapshot {
	return cart.Snapshot{
		Vendor: &cart.Vendor{ID: "vendor-a", Name: "Kigali Heights Bar", Currency: "RWF"},
		Items: []cart.LineItem{
			{ItemID: "item-beer", Name: "Mutzig 65cl", UnitPrice: decimal.NewFromInt(1500), Quantity: 2},
			{ItemID: "item-wings", Name: "Chicken Wings", UnitPrice: decimal.NewFromInt(4500), Quantity: 1},
		},
	}
}

func testVendor() *catalog.Vendor {
	link := "https://pay.example/vendor-a"
	return &catalog.Vendor{ID: "vendor-a", Name: "Kigali Heights Bar", Country: "RW", Currency: "RWF", WalletLink: &link}
}

func newTestService(repo *fakeRepository, pub *fakePublisher, cat *fakeCatalog, cards payment.CardSessions) *Service {
	return NewService(repo, pub, cat, cards, logger.New("order-service-test"))
}

func TestSubmitCashOrder(t *testing.T) {
	repo := &fakeRepository{}
	pub := &fakePublisher{}
	service := newTestService(repo, pub, &fakeCatalog{vendor: testVendor()}, nil)

	result, err := service.Submit(context.Background(), testSnapshot(),
		models.CustomerInfo{Name: "Alice", Phone: "+250780000001"}, models.PaymentCash)

	require.NoError(t, err)
	assert.Empty(t, result.RedirectURL)
	assert.Contains(t, result.Reference, "ICU_")

	require.NotNil(t, repo.created)
	assert.Equal(t, models.StatusPending, repo.created.Status)
	assert.Equal(t, models.PaymentPending, repo.created.PaymentStatus)
	assert.Equal(t, "RWF", repo.created.Currency)
	// 2 * 1500 + 1 * 4500
	assert.True(t, repo.created.TotalAmount.Equal(decimal.NewFromInt(7500)),
		"total was %s", repo.created.TotalAmount)
	require.Len(t, repo.created.Items, 2)
	assert.Equal(t, 1, pub.published)
}

func TestSubmitWalletOrderReturnsRedirect(t *testing.T) {
	repo := &fakeRepository{}
	service := newTestService(repo, &fakePublisher{}, &fakeCatalog{vendor: testVendor()}, nil)

	result, err := service.Submit(context.Background(), testSnapshot(),
		models.CustomerInfo{Name: "Alice", Phone: "+250780000001"}, models.PaymentWallet)

	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/vendor-a", result.RedirectURL)
}

func TestSubmitWalletWithoutLinkReportsReference(t *testing.T) {
	vendor := testVendor()
	vendor.WalletLink = nil
	repo := &fakeRepository{}
	service := newTestService(repo, &fakePublisher{}, &fakeCatalog{vendor: vendor}, nil)

	result, err := service.Submit(context.Background(), testSnapshot(),
		models.CustomerInfo{Name: "Alice", Phone: "+250780000001"}, models.PaymentWallet)

	// The order is created; the failure carries its reference for retry,
	// and the result comes back too so callers know not to resubmit.
	var setupErr *PaymentSetupError
	require.ErrorAs(t, err, &setupErr)
	assert.Equal(t, repo.created.Reference, setupErr.Reference)
	assert.ErrorIs(t, err, payment.ErrNoWalletLink)
	require.NotNil(t, result)
	assert.Equal(t, repo.created.Reference, result.Reference)
	assert.Empty(t, result.RedirectURL)
}

func TestSubmitCardOrder(t *testing.T) {
	repo := &fakeRepository{}
	cards := &fakeCards{url: "https://checkout.stripe.example/session_123"}
	service := newTestService(repo, &fakePublisher{}, &fakeCatalog{vendor: testVendor()}, cards)

	result, err := service.Submit(context.Background(), testSnapshot(),
		models.CustomerInfo{Name: "Alice", Phone: "+250780000001", Email: "alice@example.com"}, models.PaymentCard)

	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.example/session_123", result.RedirectURL)
	assert.Equal(t, repo.created.Reference, cards.req.OrderReference)
	assert.Equal(t, "RWF", cards.req.Currency)
	assert.Equal(t, "alice@example.com", cards.req.CustomerEmail)
	require.Len(t, cards.req.Items, 2)
}

func TestSubmitCardWithoutConfiguredCards(t *testing.T) {
	repo := &fakeRepository{}
	service := newTestService(repo, &fakePublisher{}, &fakeCatalog{vendor: testVendor()}, nil)

	result, err := service.Submit(context.Background(), testSnapshot(),
		models.CustomerInfo{Name: "Alice", Phone: "+250780000001"}, models.PaymentCard)

	var setupErr *PaymentSetupError
	require.ErrorAs(t, err, &setupErr)
	assert.Equal(t, repo.created.Reference, setupErr.Reference)
	require.NotNil(t, result)
	assert.Equal(t, repo.created.Reference, result.Reference)
}

func TestSubmitRejectsEmptySnapshot(t *testing.T) {
	service := newTestService(&fakeRepository{}, &fakePublisher{}, &fakeCatalog{vendor: testVendor()}, nil)

	_, err := service.Submit(context.Background(), cart.Snapshot{},
		models.CustomerInfo{Name: "Alice", Phone: "+250780000001"}, models.PaymentCash)

	assert.Error(t, err)
}

func TestSubmitRejectsUnknownVendor(t *testing.T) {
	service := newTestService(&fakeRepository{}, &fakePublisher{}, &fakeCatalog{}, nil)

	_, err := service.Submit(context.Background(), testSnapshot(),
		models.CustomerInfo{Name: "Alice", Phone: "+250780000001"}, models.PaymentCash)

	assert.ErrorIs(t, err, catalog.ErrVendorNotFound)
}

func TestSubmitSurvivesPublishFailure(t *testing.T) {
	repo := &fakeRepository{}
	pub := &fakePublisher{err: errors.New("broker unavailable")}
	service := newTestService(repo, pub, &fakeCatalog{vendor: testVendor()}, nil)

	result, err := service.Submit(context.Background(), testSnapshot(),
		models.CustomerInfo{Name: "Alice", Phone: "+250780000001"}, models.PaymentCash)

	// The order is durable; losing the kitchen notification is not fatal.
	require.NoError(t, err)
	assert.NotEmpty(t, result.Reference)
}

func TestSubmitPersistenceFailure(t *testing.T) {
	repo := &fakeRepository{createErr: errors.New("connection refused")}
	pub := &fakePublisher{}
	service := newTestService(repo, pub, &fakeCatalog{vendor: testVendor()}, nil)

	_, err := service.Submit(context.Background(), testSnapshot(),
		models.CustomerInfo{Name: "Alice", Phone: "+250780000001"}, models.PaymentCash)

	require.Error(t, err)
	assert.Equal(t, 0, pub.published)
}
