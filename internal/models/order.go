package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus represents the kitchen-side lifecycle of an order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
)

// statusRank orders the forward progression. Cancelled is handled
// separately because it is a branch, not a step.
var statusRank = map[OrderStatus]int{
	StatusPending:   0,
	StatusConfirmed: 1,
	StatusPreparing: 2,
	StatusReady:     3,
	StatusCompleted: 4,
}

// StatusTimeline is the fixed sequence a tracker renders.
var StatusTimeline = []OrderStatus{
	StatusPending, StatusConfirmed, StatusPreparing, StatusReady, StatusCompleted,
}

// IsTerminal reports whether no further transitions are accepted.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	if s == StatusCancelled {
		return true
	}
	_, ok := statusRank[s]
	return ok
}

// CanTransition reports whether an order may move from one status to the
// next. Status only moves forward one step at a time through the defined
// sequence; cancellation is reachable from pending or confirmed only.
func CanTransition(from, to OrderStatus) bool {
	if from.IsTerminal() {
		return false
	}
	if to == StatusCancelled {
		return from == StatusPending || from == StatusConfirmed
	}

	fromRank, ok := statusRank[from]
	if !ok {
		return false
	}
	toRank, ok := statusRank[to]
	if !ok {
		return false
	}

	return toRank == fromRank+1
}

// PaymentStatus represents the settlement state of an order's payment.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentConfirmed PaymentStatus = "confirmed"
	PaymentFailed    PaymentStatus = "failed"
)

// PaymentMethod is the customer's chosen payment path.
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentWallet PaymentMethod = "wallet"
	PaymentCard   PaymentMethod = "card"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentWallet, PaymentCard:
		return true
	}
	return false
}

// OrderItem is one snapshotted line of a submitted order. The unit price
// is captured at submission time; later catalog changes never touch it.
type OrderItem struct {
	MenuItemID string          `json:"menu_item_id"`
	Name       string          `json:"name"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Quantity   int             `json:"quantity"`
}

// CustomerInfo is the contact block captured at checkout.
type CustomerInfo struct {
	Name                string `json:"name" validate:"required,max=100"`
	Phone               string `json:"phone" validate:"required,max=30"`
	Email               string `json:"email,omitempty" validate:"omitempty,email"`
	TableNumber         *int   `json:"table_number,omitempty" validate:"omitempty,min=1,max=200"`
	SpecialInstructions string `json:"special_instructions,omitempty" validate:"max=500"`
}

// HasContact reports whether at least one contact method is present.
func (c CustomerInfo) HasContact() bool {
	return c.Phone != "" || c.Email != "" || c.TableNumber != nil
}

// Order is the persisted record of a submitted cart.
type Order struct {
	ID            int             `json:"id,omitempty"`
	Reference     string          `json:"reference"`
	VendorID      string          `json:"vendor_id"`
	Customer      CustomerInfo    `json:"customer"`
	Items         []OrderItem     `json:"items"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Currency      string          `json:"currency"`
	Status        OrderStatus     `json:"status"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	CreatedAt     time.Time       `json:"created_at,omitempty"`
	UpdatedAt     time.Time       `json:"updated_at,omitempty"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
}

// OrderStatusHistory is one entry in an order's status log.
type OrderStatusHistory struct {
	Status    OrderStatus `json:"status"`
	ChangedBy string      `json:"changed_by"`
	ChangedAt time.Time   `json:"timestamp"`
	Notes     *string     `json:"notes,omitempty"`
}

// GenerateOrderReference builds a reference in the ICU_YYYYMMDD_NNN format.
func GenerateOrderReference(date time.Time, sequence int) string {
	return fmt.Sprintf("ICU_%s_%03d", date.Format("20060102"), sequence)
}
