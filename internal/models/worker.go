package models

import "time"

// WorkerStatus represents the availability of a kitchen worker.
type WorkerStatus string

const (
	WorkerOnline  WorkerStatus = "online"
	WorkerOffline WorkerStatus = "offline"
)

// Worker is a registered kitchen worker, optionally tied to one vendor.
type Worker struct {
	ID              int          `json:"id,omitempty"`
	Name            string       `json:"name"`
	VendorID        *string      `json:"vendor_id,omitempty"`
	Status          WorkerStatus `json:"status"`
	LastSeen        time.Time    `json:"last_seen"`
	OrdersProcessed int          `json:"orders_processed"`
}
