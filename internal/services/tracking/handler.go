package tracking

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"icupa-ordering/internal/logger"
	"icupa-ordering/internal/services/order"
)

// Handler handles HTTP requests for the tracking service
type Handler struct {
	service *Service
	logger  *logger.Logger
}

// NewHandler creates a new tracking handler
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  log,
	}
}

// GetOrderStatus handles GET /orders/{reference}/status requests
func (h *Handler) GetOrderStatus(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	reference := h.orderReference(r)
	if reference == "" {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid order reference", requestID)
		return
	}

	status, err := h.service.GetOrderStatus(r.Context(), reference, requestID)
	if err != nil {
		h.writeLookupError(w, err, reference, requestID)
		return
	}

	h.writeJSON(w, http.StatusOK, status)
}

// GetOrderSummary handles GET /orders/{reference} requests
func (h *Handler) GetOrderSummary(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	reference := h.orderReference(r)
	if reference == "" {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid order reference", requestID)
		return
	}

	summary, err := h.service.GetOrderSummary(r.Context(), reference, requestID)
	if err != nil {
		h.writeLookupError(w, err, reference, requestID)
		return
	}

	h.writeJSON(w, http.StatusOK, summary)
}

// GetOrderHistory handles GET /orders/{reference}/history requests
func (h *Handler) GetOrderHistory(w http.ResponseWriter, r *http.Request) {
	requestID := logger.GenerateRequestID()

	reference := h.orderReference(r)
	if reference == "" {
		h.writeErrorResponse(w, http.StatusBadRequest, "Invalid order reference", requestID)
		return
	}

	history, err := h.service.GetOrderHistory(r.Context(), reference, requestID)
	if err != nil {
		h.writeLookupError(w, err, reference, requestID)
		return
	}

	h.writeJSON(w, http.StatusOK, history)
}

// HealthCheck handles GET /health requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	healthy := h.service.HealthCheck(r.Context())

	response := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "tracking-service",
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

// orderReference extracts and sanity-checks the reference path segment.
func (h *Handler) orderReference(r *http.Request) string {
	reference := r.PathValue("reference")
	if len(reference) < 15 || !strings.HasPrefix(reference, "ICU_") {
		return ""
	}
	return reference
}

func (h *Handler) writeLookupError(w http.ResponseWriter, err error, reference, requestID string) {
	if errors.Is(err, order.ErrOrderNotFound) {
		h.writeErrorResponse(w, http.StatusNotFound, "Order not found", requestID)
		return
	}

	h.logger.Error("db_query_failed", "Failed to look up order", requestID, err, map[string]interface{}{
		"reference": reference,
	})
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

	mux.HandleFunc("GET /orders/{reference}", h.withLogging(h.GetOrderSummary))
	mux.HandleFunc("GET /orders/{reference}/status", h.withLogging(h.GetOrderStatus))
	mux.HandleFunc("GET /orders/{reference}/history", h.withLogging(h.GetOrderHistory))
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
