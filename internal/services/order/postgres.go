package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"icupa-ordering/internal/database"
	"icupa-ordering/internal/models"
)

var (
	// ErrOrderNotFound is returned when an order reference does not exist.
	ErrOrderNotFound = errors.New("order: not found")

	// ErrInvalidTransition rejects a status change that violates the
	// forward-only lifecycle.
	ErrInvalidTransition = errors.New("order: invalid status transition")
)

// Repository persists orders in PostgreSQL.
type Repository struct {
	db *database.DB
}

// NewRepository creates an order repository over the shared pool.
func NewRepository(db *database.DB) *Repository {
	return &Repository{db: db}
}

// Ping tests database connectivity for health checks.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// NextSequence returns the next daily order sequence for reference
// generation. The LIKE pattern pins the sequence to one day.
func (r *Repository) NextSequence(ctx context.Context, date time.Time) (int, error) {
	pattern := fmt.Sprintf("ICU_%s_%%", date.Format("20060102"))

	var seq int
	err := r.db.QueryRow(ctx, database.GetNextOrderSequenceSQL, pattern).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("failed to get next order sequence: %w", err)
	}
	return seq, nil
}

// CreateOrderWithItems persists the order header, its line items, and the
// initial status-log row in a single transaction. Either everything is
// visible afterwards or nothing was created; a header without items is
// never a valid state.
func (r *Repository) CreateOrderWithItems(ctx context.Context, o *models.Order) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var email *string
	if o.Customer.Email != "" {
		email = &o.Customer.Email
	}
	var instructions *string
	if o.Customer.SpecialInstructions != "" {
		instructions = &o.Customer.SpecialInstructions
	}

	err = tx.QueryRow(ctx, database.InsertOrderSQL,
		o.Reference,
		o.VendorID,
		o.Customer.Name,
		o.Customer.Phone,
		email,
		o.Customer.TableNumber,
		instructions,
		o.TotalAmount,
		o.Currency,
		o.Status,
		o.PaymentStatus,
		o.PaymentMethod,
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert order header: %w", err)
	}

	for _, item := range o.Items {
		_, err := tx.Exec(ctx, database.InsertOrderItemSQL,
			o.ID, item.MenuItemID, item.Name, item.UnitPrice, item.Quantity)
		if err != nil {
			return fmt.Errorf("failed to insert order item %s: %w", item.Name, err)
		}
	}

	_, err = tx.Exec(ctx, database.InsertOrderStatusLogSQL,
		o.ID, models.StatusPending, "order-service", "order submitted")
	if err != nil {
		return fmt.Errorf("failed to insert initial status log: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit order: %w", err)
	}
	return nil
}

// GetByReference loads an order with its snapshotted line items.
func (r *Repository) GetByReference(ctx context.Context, reference string) (*models.Order, error) {
	var o models.Order
	var email, instructions *string

	err := r.db.QueryRow(ctx, database.GetOrderByReferenceSQL, reference).Scan(
		&o.ID,
		&o.Reference,
		&o.VendorID,
		&o.Customer.Name,
		&o.Customer.Phone,
		&email,
		&o.Customer.TableNumber,
		&instructions,
		&o.TotalAmount,
		&o.Currency,
		&o.Status,
		&o.PaymentStatus,
		&o.PaymentMethod,
		&o.CreatedAt,
		&o.UpdatedAt,
		&o.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	if email != nil {
		o.Customer.Email = *email
	}
	if instructions != nil {
		o.Customer.SpecialInstructions = *instructions
	}

	rows, err := r.db.Query(ctx, database.GetOrderItemsSQL, o.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.MenuItemID, &item.Name, &item.UnitPrice, &item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		o.Items = append(o.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read order items: %w", err)
	}

	return &o, nil
}

// GetStatusHistory loads the complete status log of an order, oldest
// entry first.
func (r *Repository) GetStatusHistory(ctx context.Context, reference string) ([]models.OrderStatusHistory, error) {
	var exists bool
	err := r.db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM orders WHERE reference = $1)", reference).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check order existence: %w", err)
	}
	if !exists {
		return nil, ErrOrderNotFound
	}

	rows, err := r.db.Query(ctx, database.GetOrderStatusHistorySQL, reference)
	if err != nil {
		return nil, fmt.Errorf("failed to query order history: %w", err)
	}
	defer rows.Close()

	var history []models.OrderStatusHistory
	for rows.Next() {
		var entry models.OrderStatusHistory
		if err := rows.Scan(&entry.Status, &entry.ChangedBy, &entry.ChangedAt, &entry.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		history = append(history, entry)
	}

	return history, rows.Err()
}

// UpdateStatus advances an order's status, enforcing the forward-only
// lifecycle inside the transaction. The current row is locked so two
// workers cannot race past the monotonicity check.
func (r *Repository) UpdateStatus(ctx context.Context, reference string, to models.OrderStatus, changedBy, notes string) (models.OrderStatus, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var orderID int
	var current models.OrderStatus
	err = tx.QueryRow(ctx,
		"SELECT id, status FROM orders WHERE reference = $1 FOR UPDATE", reference).
		Scan(&orderID, &current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrOrderNotFound
		}
		return "", fmt.Errorf("failed to lock order row: %w", err)
	}

	if !models.CanTransition(current, to) {
		return current, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, to)
	}

	if to == models.StatusCompleted {
		_, err = tx.Exec(ctx, database.UpdateOrderCompletedSQL, to, reference)
	} else {
		_, err = tx.Exec(ctx, database.UpdateOrderStatusSQL, to, reference)
	}
	if err != nil {
		return current, fmt.Errorf("failed to update order status: %w", err)
	}

	_, err = tx.Exec(ctx, database.InsertOrderStatusLogSQL, orderID, to, changedBy, notes)
	if err != nil {
		return current, fmt.Errorf("failed to insert status log: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return current, fmt.Errorf("failed to commit status update: %w", err)
	}
	return current, nil
}

// UpdatePaymentStatus records a payment settlement change.
func (r *Repository) UpdatePaymentStatus(ctx context.Context, reference string, status models.PaymentStatus) error {
	if err := r.db.Exec(ctx, database.UpdatePaymentStatusSQL, status, reference); err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}
	return nil
}
