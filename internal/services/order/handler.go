package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"icupa-ordering/internal/cart"
	"icupa-ordering/internal/catalog"
	"icupa-ordering/internal/checkout"
	"icupa-ordering/internal/logger"
	"icupa-ordering/internal/models"
)

// CheckoutItem is one requested line, resolved against the catalog.
type CheckoutItem struct {
	MenuItemID string `json:"menu_item_id" validate:"required"`
	Quantity   int    `json:"quantity" validate:"required,min=1,max=50"`
}

// CheckoutRequest is the order submission payload. TermsAccepted mirrors
// the confirmation checkbox; the wizard guard rejects submissions without it.
type CheckoutRequest struct {
	VendorID      string               `json:"vendor_id" validate:"required"`
	Items         []CheckoutItem       `json:"items" validate:"required,min=1,max=50,dive"`
	Customer      models.CustomerInfo  `json:"customer"`
	PaymentMethod models.PaymentMethod `json:"payment_method" validate:"required"`
	TermsAccepted bool                 `json:"terms_accepted"`
}

// CheckoutResponse is returned after a successful submission.
type CheckoutResponse struct {
	Reference     string `json:"reference"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	TotalAmount   string `json:"total_amount"`
	Currency      string `json:"currency"`
	RedirectURL   string `json:"redirect_url,omitempty"`
}

// Handler handles HTTP requests for the order service
type Handler struct {
	service  *Service
	catalog  catalog.Catalog
	validate *validator.Validate
	logger   *logger.Logger
}

// NewHandler creates a new order handler
func NewHandler(service *Service, cat catalog.Catalog, log *logger.Logger) *Handler {
	return &Handler{
		service:  service,
		catalog:  cat,
		validate: validator.New(),
		logger:   log,
	}
}

// Checkout handles POST /checkout requests: it resolves the requested
// items against the vendor's catalog, runs the checkout wizard to its
// terminal submit, and returns the order reference plus any payment
// redirect.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	if r.Header.Get("Content-Type") != "application/json" {
		h.writeErrorResponse(w, http.StatusBadRequest, "Content-Type must be application/json", requestID)
		return
	}

	var req CheckoutRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&req); err != nil {
		h.logger.Error("validation_failed", "Failed to parse request body", requestID, err, nil)
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON format", requestID)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		h.logger.Error("validation_failed", "Request validation failed", requestID, err, map[string]interface{}{
			"vendor_id": req.VendorID,
		})
		h.writeErrorResponse(w, http.StatusBadRequest, err.Error(), requestID)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	snapshot, err := h.resolveCart(ctx, &req)
	if err != nil {
		h.writeCheckoutError(w, err, requestID)
		return
	}

	result, err := h.runCheckout(ctx, snapshot, &req)
	if err != nil {
		h.writeCheckoutError(w, err, requestID)
		return
	}

	total := decimal.Zero
	for _, line := range snapshot.Items {
		total = total.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	h.writeJSON(w, http.StatusCreated, CheckoutResponse{
		Reference:     result.Reference,
		Status:        string(models.StatusPending),
		PaymentStatus: string(models.PaymentPending),
		TotalAmount:   total.StringFixed(2),
		Currency:      snapshot.Vendor.Currency,
		RedirectURL:   result.RedirectURL,
	})
}

// resolveCart builds the cart snapshot from the catalog so unit prices are
// authoritative at submission time.
func (h *Handler) resolveCart(ctx context.Context, req *CheckoutRequest) (cart.Snapshot, error) {
	vendor, err := h.catalog.Vendor(ctx, req.VendorID)
	if err != nil {
		return cart.Snapshot{}, err
	}

	menuItems, err := h.catalog.MenuItems(ctx, req.VendorID)
	if err != nil {
		return cart.Snapshot{}, err
	}

	byID := make(map[string]catalog.MenuItem, len(menuItems))
	for _, item := range menuItems {
		byID[item.ID] = item
	}

	lines := make([]cart.LineItem, 0, len(req.Items))
	for _, requested := range req.Items {
		item, ok := byID[requested.MenuItemID]
		if !ok {
			return cart.Snapshot{}, checkout.ValidationError{
				Field:   "items",
				Message: fmt.Sprintf("menu item %s does not belong to this vendor", requested.MenuItemID),
			}
		}
		if !item.Available {
			return cart.Snapshot{}, checkout.ValidationError{
				Field:   "items",
				Message: fmt.Sprintf("%s is currently unavailable", item.Name),
			}
		}
		lines = append(lines, cart.LineItem{
			ItemID:    item.ID,
			Name:      item.Name,
			UnitPrice: item.Price,
			Quantity:  requested.Quantity,
		})
	}

	return cart.Snapshot{
		Vendor: &cart.Vendor{ID: vendor.ID, Name: vendor.Name, Currency: vendor.Currency},
		Items:  lines,
	}, nil
}

// runCheckout drives the wizard through its steps with the request data,
// so the same gating applies here as in an interactive client.
func (h *Handler) runCheckout(ctx context.Context, snapshot cart.Snapshot, req *CheckoutRequest) (*checkout.SubmitResult, error) {
	store, err := cart.NewStore(nil)
	if err != nil {
		return nil, err
	}
	for _, line := range snapshot.Items {
		item := cart.MenuItem{ID: line.ItemID, Name: line.Name, Price: line.UnitPrice}
		if _, err := store.Add(*snapshot.Vendor, item); err != nil {
			return nil, err
		}
		if line.Quantity > 1 {
			if err := store.UpdateQuantity(line.ItemID, line.Quantity-1); err != nil {
				return nil, err
			}
		}
	}

	wizard := checkout.New(store, h.service)
	if err := wizard.SetCustomerInfo(req.Customer); err != nil {
		return nil, err
	}
	if err := wizard.Next(); err != nil {
		return nil, err
	}
	if err := wizard.SelectPaymentMethod(req.PaymentMethod); err != nil {
		return nil, err
	}
	wizard.AcceptTerms(req.TermsAccepted)
	if err := wizard.Next(); err != nil {
		return nil, err
	}
	return wizard.Submit(ctx)
}

// GetMenu handles GET /vendors/{id}/menu requests.
func (h *Handler) GetMenu(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()
	vendorID := r.PathValue("id")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	vendor, err := h.catalog.Vendor(ctx, vendorID)
	if err != nil {
		if errors.Is(err, catalog.ErrVendorNotFound) {
			h.writeErrorResponse(w, http.StatusNotFound, "Vendor not found", requestID)
		} else {
			h.logger.Error("db_query_failed", "Failed to fetch vendor", requestID, err, map[string]interface{}{
				"vendor_id": vendorID,
			})
			h.writeErrorResponse(w, http.StatusInternalServerError, "Internal server error", requestID)
		}
		return
	}

	items, err := h.catalog.MenuItems(ctx, vendorID)
	if err != nil {
		h.logger.Error("db_query_failed", "Failed to fetch menu items", requestID, err, map[string]interface{}{
			"vendor_id": vendorID,
		})
		h.writeErrorResponse(w, http.StatusInternalServerError, "Internal server error", requestID)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"vendor": vendor,
		"items":  items,
	})
}

// HealthCheck handles GET /health requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	healthy := h.service.HealthCheck(ctx)

	response := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "order-service",
		"healthy":   healthy,
	}

	w.Header().Set("Content-Type", "application/json")

	if healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
		response["status"] = "unhealthy"
	}

	json.NewEncoder(w).Encode(response)
}

// writeCheckoutError maps checkout failures to the three user-visible
// categories: fix your input, try again, or we have a problem plus a
// reference.
func (h *Handler) writeCheckoutError(w http.ResponseWriter, err error, requestID string) {
	var fieldErr checkout.ValidationError
	if errors.As(err, &fieldErr) {
		h.writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":      fieldErr.Message,
			"field":      fieldErr.Field,
			"request_id": requestID,
		})
		return
	}

	if errors.Is(err, catalog.ErrVendorNotFound) {
		h.writeErrorResponse(w, http.StatusNotFound, "Vendor not found", requestID)
		return
	}

	var paymentErr *PaymentSetupError
	if errors.As(err, &paymentErr) {
		h.logger.Error("payment_setup_failed", "Order created but payment setup failed", requestID, paymentErr.Err, map[string]interface{}{
			"reference": paymentErr.Reference,
		})
		h.writeJSON(w, http.StatusBadGateway, map[string]interface{}{
			"error":      "payment setup failed, your order is saved - retry payment or contact support",
			"reference":  paymentErr.Reference,
			"request_id": requestID,
		})
		return
	}

	h.logger.Error("order_creation_failed", "Failed to create order", requestID, err, nil)
	h.writeErrorResponse(w, http.StatusInternalServerError, "Internal server error", requestID)
}

// writeErrorResponse writes an error response in JSON format
func (h *Handler) writeErrorResponse(w http.ResponseWriter, statusCode int, message, requestID string) {
	h.writeJSON(w, statusCode, map[string]interface{}{
		"error":      message,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"request_id": requestID,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("response_encoding_failed", "Failed to encode response", "", err, nil)
	}
}

// SetupRoutes sets up the HTTP routes
func (h *Handler) SetupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /checkout", h.withLogging(h.Checkout))
	mux.HandleFunc("GET /vendors/{id}/menu", h.withLogging(h.GetMenu))
	mux.HandleFunc("GET /health", h.withLogging(h.HealthCheck))

	return mux
}

// withLogging adds request logging middleware
func (h *Handler) withLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := logger.GenerateRequestID()

		h.logger.Debug("request_started",
			fmt.Sprintf("%s %s", r.Method, r.URL.Path),
			requestID,
			map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"remote_addr": r.RemoteAddr,
				"user_agent":  r.Header.Get("User-Agent"),
			})

		rw := &responseWriter{ResponseWriter: w, statusCode: 200}

		next(rw, r)

		duration := time.Since(start)
		h.logger.Debug("request_completed",
			fmt.Sprintf("%s %s - %d", r.Method, r.URL.Path, rw.statusCode),
			requestID,
			map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status_code": rw.statusCode,
				"duration_ms": duration.Milliseconds(),
			})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
