package database

// Order queries
const (
	InsertOrderSQL = `
		INSERT INTO orders (reference, vendor_id, customer_name, customer_phone, customer_email,
			table_number, special_instructions, total_amount, currency, status, payment_status, payment_method)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at`

	InsertOrderItemSQL = `
		INSERT INTO order_items (order_id, menu_item_id, name, unit_price, quantity)
		VALUES ($1, $2, $3, $4, $5)`

	InsertOrderStatusLogSQL = `
		INSERT INTO order_status_log (order_id, status, changed_by, notes)
		VALUES ($1, $2, $3, $4)`

	UpdateOrderStatusSQL = `
		UPDATE orders SET status = $1, updated_at = NOW()
		WHERE reference = $2`

	UpdateOrderCompletedSQL = `
		UPDATE orders SET status = $1, completed_at = NOW(), updated_at = NOW()
		WHERE reference = $2`

	UpdatePaymentStatusSQL = `
		UPDATE orders SET payment_status = $1, updated_at = NOW()
		WHERE reference = $2`

	GetOrderByReferenceSQL = `
		SELECT id, reference, vendor_id, customer_name, customer_phone, customer_email,
			   table_number, special_instructions, total_amount, currency, status,
			   payment_status, payment_method, created_at, updated_at, completed_at
		FROM orders WHERE reference = $1`

	GetOrderItemsSQL = `
		SELECT menu_item_id, name, unit_price, quantity
		FROM order_items
		WHERE order_id = $1
		ORDER BY id ASC`

	GetOrderStatusHistorySQL = `
		SELECT status, changed_by, changed_at, notes
		FROM order_status_log
		WHERE order_id = (SELECT id FROM orders WHERE reference = $1)
		ORDER BY changed_at ASC`

	GetNextOrderSequenceSQL = `
		SELECT COALESCE(MAX(CAST(SUBSTRING(reference FROM 'ICU_[0-9]{8}_([0-9]{3})') AS INTEGER)), 0) + 1
		FROM orders
		WHERE reference LIKE $1`
)

// Catalog queries
const (
	GetVendorSQL = `
		SELECT id, name, country, currency, wallet_link
		FROM vendors WHERE id = $1`

	GetMenuItemsSQL = `
		SELECT id, vendor_id, name, price, currency, available
		FROM menu_items
		WHERE vendor_id = $1
		ORDER BY name ASC`
)

// Worker queries
const (
	InsertWorkerSQL = `
		INSERT INTO staff_workers (name, vendor_id, status)
		VALUES ($1, $2, 'online')
		ON CONFLICT (name) DO UPDATE SET
			status = 'online',
			last_seen = NOW()
		RETURNING id`

	UpdateWorkerStatusSQL = `
		UPDATE staff_workers SET status = $1, last_seen = NOW()
		WHERE name = $2`

	UpdateWorkerHeartbeatSQL = `
		UPDATE staff_workers SET last_seen = NOW(), orders_processed = orders_processed + $1
		WHERE name = $2`

	CheckWorkerOnlineSQL = `
		SELECT COUNT(*) FROM staff_workers WHERE name = $1 AND status = 'online'`
)
