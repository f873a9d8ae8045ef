package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderMessage is the message handed to kitchen workers when an order is
// submitted.
type OrderMessage struct {
	Reference     string          `json:"reference"`
	VendorID      string          `json:"vendor_id"`
	CustomerName  string          `json:"customer_name"`
	TableNumber   *int            `json:"table_number,omitempty"`
	Items         []OrderItem     `json:"items"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Currency      string          `json:"currency"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
}

// StatusUpdateMessage is the delta delivered on the status fanout whenever
// an order's status or payment status changes.
type StatusUpdateMessage struct {
	Reference     string        `json:"reference"`
	OldStatus     OrderStatus   `json:"old_status"`
	NewStatus     OrderStatus   `json:"new_status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	ChangedBy     string        `json:"changed_by"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// NewOrderMessage builds the kitchen message for a freshly submitted order.
func NewOrderMessage(o *Order) *OrderMessage {
	return &OrderMessage{
		Reference:     o.Reference,
		VendorID:      o.VendorID,
		CustomerName:  o.Customer.Name,
		TableNumber:   o.Customer.TableNumber,
		Items:         o.Items,
		TotalAmount:   o.TotalAmount,
		Currency:      o.Currency,
		PaymentMethod: o.PaymentMethod,
	}
}

// NewStatusUpdateMessage builds a status delta for the fanout.
func NewStatusUpdateMessage(reference string, oldStatus, newStatus OrderStatus, paymentStatus PaymentStatus, changedBy string) *StatusUpdateMessage {
	return &StatusUpdateMessage{
		Reference:     reference,
		OldStatus:     oldStatus,
		NewStatus:     newStatus,
		PaymentStatus: paymentStatus,
		ChangedBy:     changedBy,
		UpdatedAt:     time.Now().UTC(),
	}
}
