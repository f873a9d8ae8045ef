package kitchen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"icupa-ordering/internal/database"
	"icupa-ordering/internal/logger"
	"icupa-ordering/internal/messaging"
	"icupa-ordering/internal/models"
	"icupa-ordering/internal/services/order"
)

// Worker is the vendor-side kitchen workflow: it consumes submitted
// orders and advances their status through the lifecycle, publishing a
// status update for every transition. It is the only writer of order
// status; trackers just read.
type Worker struct {
	name              string
	vendorID          string
	heartbeatInterval time.Duration

	db        *database.DB
	orders    *order.Repository
	consumer  *messaging.Consumer
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewWorker creates a kitchen worker. An empty vendorID means the worker
// serves every vendor.
func NewWorker(name, vendorID string, heartbeatInterval time.Duration,
	db *database.DB, orders *order.Repository, consumer *messaging.Consumer,
	publisher *messaging.Publisher, log *logger.Logger) *Worker {

	return &Worker{
		name:              name,
		vendorID:          vendorID,
		heartbeatInterval: heartbeatInterval,
		db:                db,
		orders:            orders,
		consumer:          consumer,
		publisher:         publisher,
		logger:            log,
	}
}

// Start registers the worker and consumes until the context is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	requestID := logger.GenerateRequestID()

	if err := w.register(ctx, requestID); err != nil {
		return fmt.Errorf("failed to register worker: %w", err)
	}

	go w.heartbeatLoop(ctx)

	w.logger.Info("worker_started", fmt.Sprintf("Kitchen worker %s started", w.name), requestID, map[string]interface{}{
		"worker_name":        w.name,
		"vendor_id":          w.vendorID,
		"heartbeat_interval": w.heartbeatInterval.Seconds(),
	})

	err := w.consumer.StartConsuming(ctx, w.handleMessage)

	w.markOffline(requestID)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// register records the worker as online, refusing duplicate names.
func (w *Worker) register(ctx context.Context, requestID string) error {
	var count int
	if err := w.db.QueryRow(ctx, database.CheckWorkerOnlineSQL, w.name).Scan(&count); err != nil {
		return fmt.Errorf("failed to check worker status: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("worker %s is already online", w.name)
	}

	var vendorID *string
	if w.vendorID != "" {
		vendorID = &w.vendorID
	}

	var workerID int
	if err := w.db.QueryRow(ctx, database.InsertWorkerSQL, w.name, vendorID).Scan(&workerID); err != nil {
		return fmt.Errorf("failed to register worker: %w", err)
	}

	w.logger.Info("worker_registered", fmt.Sprintf("Worker %s registered", w.name), requestID, map[string]interface{}{
		"worker_id": workerID,
	})
	return nil
}

// heartbeatLoop refreshes last_seen until the context is cancelled.
func (w *Worker) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(w.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.db.Exec(ctx, database.UpdateWorkerHeartbeatSQL, 0, w.name); err != nil {
				w.logger.Error("heartbeat_failed", "Failed to update heartbeat", "", err, nil)
			}
		}
	}
}

func (w *Worker) markOffline(requestID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := w.db.Exec(ctx, database.UpdateWorkerStatusSQL, models.WorkerOffline, w.name); err != nil {
		w.logger.Error("worker_status_update_failed", "Failed to mark worker offline", requestID, err, nil)
	}
}

// handleMessage processes one submitted order.
func (w *Worker) handleMessage(ctx context.Context, body []byte) error {
	requestID := logger.GenerateRequestID()

	var orderMsg models.OrderMessage
	if err := json.Unmarshal(body, &orderMsg); err != nil {
		w.logger.Error("message_parsing_failed", "Failed to parse order message", requestID, err, nil)
		return fmt.Errorf("failed to parse message: %w", err)
	}

	if w.vendorID != "" && orderMsg.VendorID != w.vendorID {
		// Wrong vendor's queue binding; requeue for a worker that serves it.
		return fmt.Errorf("worker %s does not serve vendor %s", w.name, orderMsg.VendorID)
	}

	w.logger.Debug("order_processing_started", fmt.Sprintf("Processing order %s", orderMsg.Reference), requestID, map[string]interface{}{
		"reference":    orderMsg.Reference,
		"vendor_id":    orderMsg.VendorID,
		"total_amount": orderMsg.TotalAmount.StringFixed(2),
	})

	return w.processOrder(ctx, &orderMsg, requestID)
}

// processOrder walks the order through confirmed, preparing, ready and
// completed, publishing a status update per transition.
func (w *Worker) processOrder(ctx context.Context, orderMsg *models.OrderMessage, requestID string) error {
	steps := []models.OrderStatus{
		models.StatusConfirmed,
		models.StatusPreparing,
		models.StatusReady,
		models.StatusCompleted,
	}

	for _, next := range steps {
		if next == models.StatusPreparing {
			prepTime := PrepTime(orderMsg.Items)
			w.logger.Debug("preparation_started", fmt.Sprintf("Preparing order %s for %v", orderMsg.Reference, prepTime), requestID, map[string]interface{}{
				"reference":         orderMsg.Reference,
				"prep_time_seconds": prepTime.Seconds(),
			})
		}

		previous, err := w.orders.UpdateStatus(ctx, orderMsg.Reference, next, w.name, fmt.Sprintf("status changed to %s by %s", next, w.name))
		if err != nil {
			if errors.Is(err, order.ErrInvalidTransition) {
				// Already advanced past this step, most likely a redelivery.
				w.logger.Debug("transition_skipped", "Order already past this status", requestID, map[string]interface{}{
					"reference": orderMsg.Reference,
					"status":    string(next),
				})
				continue
			}
			return fmt.Errorf("failed to advance order %s to %s: %w", orderMsg.Reference, next, err)
		}

		paymentStatus := models.PaymentPending
		if next == models.StatusCompleted && orderMsg.PaymentMethod == models.PaymentCash {
			// Cash is settled in person when the order is handed over.
			if err := w.orders.UpdatePaymentStatus(ctx, orderMsg.Reference, models.PaymentConfirmed); err != nil {
				w.logger.Error("payment_settlement_failed", "Failed to settle cash payment", requestID, err, map[string]interface{}{
					"reference": orderMsg.Reference,
				})
			} else {
				paymentStatus = models.PaymentConfirmed
			}
		}

		update := models.NewStatusUpdateMessage(orderMsg.Reference, previous, next, paymentStatus, w.name)
		if err := w.publisher.PublishStatusUpdate(ctx, update); err != nil {
			// The transition is durable; a lost notification is not fatal.
			w.logger.Error("notification_publish_failed", "Failed to publish status update", requestID, err, map[string]interface{}{
				"reference": orderMsg.Reference,
				"status":    string(next),
			})
		}

		if next == models.StatusPreparing {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(PrepTime(orderMsg.Items)):
			}
		}
	}

	if err := w.db.Exec(ctx, database.UpdateWorkerHeartbeatSQL, 1, w.name); err != nil {
		w.logger.Error("heartbeat_failed", "Failed to bump processed count", requestID, err, nil)
	}

	w.logger.Debug("order_completed", fmt.Sprintf("Finished order %s", orderMsg.Reference), requestID, map[string]interface{}{
		"reference":    orderMsg.Reference,
		"processed_by": w.name,
	})

	return nil
}

// PrepTime estimates preparation time from the number of items.
func PrepTime(items []models.OrderItem) time.Duration {
	count := 0
	for _, item := range items {
		count += item.Quantity
	}

	prep := 5*time.Second + time.Duration(count)*2*time.Second
	if prep > 30*time.Second {
		prep = 30 * time.Second
	}
	return prep
}
