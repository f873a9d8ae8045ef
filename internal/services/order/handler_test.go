package order

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icupa-ordering/internal/catalog"
	"icupa-ordering/internal/logger"
)

func newTestHandler(t *testing.T, repo *fakeRepository) *Handler {
	t.Helper()

	cat := &fakeCatalog{
		vendor: testVendor(),
		items: []catalog.MenuItem{
			{ID: "item-beer", VendorID: "vendor-a", Name: "Mutzig 65cl", Price: decimal.NewFromInt(1500), Currency: "RWF", Available: true},
		},
	}
	log := logger.New("order-service-test")
	service := NewService(repo, &fakePublisher{}, cat, nil, log)
	return NewHandler(service, cat, log)
}

func postCheckout(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.SetupRoutes().ServeHTTP(rec, req)
	return rec
}

func TestCheckoutRejectsWithoutTermsAcceptance(t *testing.T) {
	repo := &fakeRepository{}
	h := newTestHandler(t, repo)

	rec := postCheckout(t, h, `{
		"vendor_id": "vendor-a",
		"items": [{"menu_item_id": "item-beer", "quantity": 2}],
		"customer": {"name": "Alice", "phone": "+250780000001"},
		"payment_method": "cash"
	}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "terms", body["field"])

	// No order was created.
	assert.Nil(t, repo.created)
}

func TestCheckoutWithTermsAccepted(t *testing.T) {
	repo := &fakeRepository{}
	h := newTestHandler(t, repo)

	rec := postCheckout(t, h, `{
		"vendor_id": "vendor-a",
		"items": [{"menu_item_id": "item-beer", "quantity": 2}],
		"customer": {"name": "Alice", "phone": "+250780000001"},
		"payment_method": "cash",
		"terms_accepted": true
	}`)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp CheckoutResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Reference, "ICU_")
	assert.Equal(t, "3000.00", resp.TotalAmount)
	require.NotNil(t, repo.created)
	assert.Equal(t, resp.Reference, repo.created.Reference)
}
