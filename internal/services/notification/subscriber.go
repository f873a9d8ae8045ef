package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"icupa-ordering/internal/logger"
	"icupa-ordering/internal/messaging"
	"icupa-ordering/internal/models"
)

// Subscriber consumes status updates from the fanout and emits one-shot
// human-readable notices. A notice fires only when the received status
// differs from the last one rendered for that order.
type Subscriber struct {
	consumer *messaging.Consumer
	logger   *logger.Logger

	mu       sync.Mutex
	lastSeen map[string]models.OrderStatus
}

// NewSubscriber creates a new notification subscriber
func NewSubscriber(consumer *messaging.Consumer, log *logger.Logger) *Subscriber {
	return &Subscriber{
		consumer: consumer,
		logger:   log,
		lastSeen: make(map[string]models.OrderStatus),
	}
}

// Start consumes until the context is cancelled.
func (s *Subscriber) Start(ctx context.Context) error {
	requestID := logger.GenerateRequestID()
	s.logger.Info("service_started", "Notification subscriber started", requestID, nil)

	return s.consumer.StartConsuming(ctx, s.HandleStatusUpdate)
}

// HandleStatusUpdate processes one status update delivery.
func (s *Subscriber) HandleStatusUpdate(ctx context.Context, body []byte) error {
	requestID := logger.GenerateRequestID()

	var update models.StatusUpdateMessage
	if err := json.Unmarshal(body, &update); err != nil {
		s.logger.Error("message_parsing_failed", "Failed to parse status update", requestID, err, nil)
		return fmt.Errorf("failed to parse status update: %w", err)
	}

	if !s.shouldNotify(update.Reference, update.NewStatus) {
		s.logger.Debug("notification_suppressed", "Status already rendered for this order", requestID, map[string]interface{}{
			"reference": update.Reference,
			"status":    string(update.NewStatus),
		})
		return nil
	}

	notice := FormatNotice(&update)
	fmt.Println(notice)

	s.logger.Info("notification_displayed", "Notice displayed to user", requestID, map[string]interface{}{
		"reference":  update.Reference,
		"old_status": string(update.OldStatus),
		"new_status": string(update.NewStatus),
		"changed_by": update.ChangedBy,
	})

	return nil
}

// shouldNotify records the status and reports whether it changed since
// the last rendered value for that order.
func (s *Subscriber) shouldNotify(reference string, status models.OrderStatus) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if last, ok := s.lastSeen[reference]; ok && last == status {
		return false
	}
	s.lastSeen[reference] = status

	// Terminal orders need no further tracking.
	if status.IsTerminal() {
		delete(s.lastSeen, reference)
	}
	return true
}

// FormatNotice renders a status update as a human-readable one-liner.
func FormatNotice(update *models.StatusUpdateMessage) string {
	timestamp := update.UpdatedAt.Format("2006-01-02 15:04:05")

	switch update.NewStatus {
	case models.StatusConfirmed:
		return fmt.Sprintf("[%s] Order %s has been confirmed by the bar.", timestamp, update.Reference)
	case models.StatusPreparing:
		return fmt.Sprintf("[%s] Order %s is now being prepared.", timestamp, update.Reference)
	case models.StatusReady:
		return fmt.Sprintf("[%s] Order %s is ready for pickup!", timestamp, update.Reference)
	case models.StatusCompleted:
		if update.PaymentStatus == models.PaymentConfirmed {
			return fmt.Sprintf("[%s] Order %s is completed and paid. Thank you!", timestamp, update.Reference)
		}
		return fmt.Sprintf("[%s] Order %s is completed. Thank you!", timestamp, update.Reference)
	case models.StatusCancelled:
		return fmt.Sprintf("[%s] Order %s has been cancelled.", timestamp, update.Reference)
	default:
		return fmt.Sprintf("[%s] Order %s status changed from '%s' to '%s'.",
			timestamp, update.Reference, update.OldStatus, update.NewStatus)
	}
}

// Close stops the underlying consumer.
func (s *Subscriber) Close() error {
	if s.consumer != nil {
		return s.consumer.Close()
	}
	return nil
}
