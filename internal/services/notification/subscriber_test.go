package notification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"icupa-ordering/internal/logger"
	"icupa-ordering/internal/models"
)

func newTestSubscriber() *Subscriber {
	return NewSubscriber(nil, logger.New("notification-test"))
}

func TestShouldNotifyOncePerStatus(t *testing.T) {
	s := newTestSubscriber()

	assert.True(t, s.shouldNotify("ICU_20250307_001", models.StatusConfirmed))
	// A redelivered duplicate of the same status is suppressed.
	assert.False(t, s.shouldNotify("ICU_20250307_001", models.StatusConfirmed))
	assert.True(t, s.shouldNotify("ICU_20250307_001", models.StatusPreparing))
}

func TestShouldNotifyTracksOrdersIndependently(t *testing.T) {
	s := newTestSubscriber()

	assert.True(t, s.shouldNotify("ICU_20250307_001", models.StatusConfirmed))
	assert.True(t, s.shouldNotify("ICU_20250307_002", models.StatusConfirmed))
	assert.False(t, s.shouldNotify("ICU_20250307_001", models.StatusConfirmed))
}

func TestShouldNotifyForgetsTerminalOrders(t *testing.T) {
	s := newTestSubscriber()

	assert.True(t, s.shouldNotify("ICU_20250307_001", models.StatusReady))
	assert.True(t, s.shouldNotify("ICU_20250307_001", models.StatusCompleted))

	// The terminal status dropped the tracking entry, so the map does not
	// grow without bound as orders finish.
	s.mu.Lock()
	_, tracked := s.lastSeen["ICU_20250307_001"]
	s.mu.Unlock()
	assert.False(t, tracked)
}

func TestFormatNotice(t *testing.T) {
	at := time.Date(2025, time.March, 7, 18, 30, 0, 0, time.UTC)

	tests := []struct {
		name   string
		update models.StatusUpdateMessage
		want   string
	}{
		{
			name: "confirmed",
			update: models.StatusUpdateMessage{
				Reference: "ICU_20250307_001",
				OldStatus: models.StatusPending,
				NewStatus: models.StatusConfirmed,
				UpdatedAt: at,
			},
			want: "[2025-03-07 18:30:00] Order ICU_20250307_001 has been confirmed by the bar.",
		},
		{
			name: "ready",
			update: models.StatusUpdateMessage{
				Reference: "ICU_20250307_001",
				OldStatus: models.StatusPreparing,
				NewStatus: models.StatusReady,
				UpdatedAt: at,
			},
			want: "[2025-03-07 18:30:00] Order ICU_20250307_001 is ready for pickup!",
		},
		{
			name: "completed and paid",
			update: models.StatusUpdateMessage{
				Reference:     "ICU_20250307_001",
				OldStatus:     models.StatusReady,
				NewStatus:     models.StatusCompleted,
				PaymentStatus: models.PaymentConfirmed,
				UpdatedAt:     at,
			},
			want: "[2025-03-07 18:30:00] Order ICU_20250307_001 is completed and paid. Thank you!",
		},
		{
			name: "completed with payment outstanding",
			update: models.StatusUpdateMessage{
				Reference:     "ICU_20250307_001",
				OldStatus:     models.StatusReady,
				NewStatus:     models.StatusCompleted,
				PaymentStatus: models.PaymentPending,
				UpdatedAt:     at,
			},
			want: "[2025-03-07 18:30:00] Order ICU_20250307_001 is completed. Thank you!",
		},
		{
			name: "cancelled",
			update: models.StatusUpdateMessage{
				Reference: "ICU_20250307_001",
				OldStatus: models.StatusPending,
				NewStatus: models.StatusCancelled,
				UpdatedAt: at,
			},
			want: "[2025-03-07 18:30:00] Order ICU_20250307_001 has been cancelled.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatNotice(&tt.update))
		})
	}
}
