package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"icupa-ordering/internal/database"
)

// PostgresCatalog reads vendors and menu items from PostgreSQL.
type PostgresCatalog struct {
	db *database.DB
}

// NewPostgresCatalog creates a catalog over the shared database pool.
func NewPostgresCatalog(db *database.DB) *PostgresCatalog {
	return &PostgresCatalog{db: db}
}

// Vendor fetches one vendor by id.
func (c *PostgresCatalog) Vendor(ctx context.Context, vendorID string) (*Vendor, error) {
	var v Vendor
	err := c.db.QueryRow(ctx, database.GetVendorSQL, vendorID).Scan(
		&v.ID,
		&v.Name,
		&v.Country,
		&v.Currency,
		&v.WalletLink,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVendorNotFound
		}
		return nil, fmt.Errorf("failed to query vendor: %w", err)
	}
	return &v, nil
}

// MenuItems fetches a vendor's menu ordered by name.
func (c *PostgresCatalog) MenuItems(ctx context.Context, vendorID string) ([]MenuItem, error) {
	rows, err := c.db.Query(ctx, database.GetMenuItemsSQL, vendorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query menu items: %w", err)
	}
	defer rows.Close()

	var items []MenuItem
	for rows.Next() {
		var item MenuItem
		err := rows.Scan(
			&item.ID,
			&item.VendorID,
			&item.Name,
			&item.Price,
			&item.Currency,
			&item.Available,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan menu item: %w", err)
		}
		items = append(items, item)
	}

	return items, rows.Err()
}
