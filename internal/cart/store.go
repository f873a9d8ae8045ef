package cart

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Persister is the durable local storage boundary. A snapshot is written
// after every mutation so a reload does not lose cart contents.
type Persister interface {
	Save(snapshot Snapshot) error
	Load() (Snapshot, bool, error)
}

// Snapshot is the serializable form of a cart.
type Snapshot struct {
	Vendor *Vendor    `json:"vendor,omitempty"`
	Items  []LineItem `json:"items,omitempty"`
}

// Store owns the single active cart and persists it across reloads.
// Mutations apply in call order; the store is meant for one session, so it
// carries no locking of its own.
type Store struct {
	cart      *Cart
	persister Persister
}

// NewStore opens a store, rehydrating any previously persisted cart.
func NewStore(p Persister) (*Store, error) {
	s := &Store{cart: New(), persister: p}

	if p == nil {
		return s, nil
	}

	snapshot, ok, err := p.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load cart snapshot: %w", err)
	}
	if ok {
		s.cart.vendor = snapshot.Vendor
		s.cart.items = snapshot.Items
	}

	return s, nil
}

// Cart returns a read-only view of the current cart state.
func (s *Store) Cart() Snapshot {
	return Snapshot{Vendor: s.cart.Vendor(), Items: s.cart.Items()}
}

// Add upserts an item and persists on success. The outcome is passed
// through unchanged; a NeedsConfirmationToReplace does not persist because
// nothing changed.
func (s *Store) Add(vendor Vendor, item MenuItem) (AddOutcome, error) {
	outcome := s.cart.Add(vendor, item)
	if outcome != Added {
		return outcome, nil
	}
	return outcome, s.persist()
}

// ReplaceWith clears the cart, adds under the new vendor, and persists.
func (s *Store) ReplaceWith(vendor Vendor, item MenuItem) error {
	s.cart.ReplaceWith(vendor, item)
	return s.persist()
}

// UpdateQuantity applies a quantity delta and persists.
func (s *Store) UpdateQuantity(itemID string, delta int) error {
	if err := s.cart.UpdateQuantity(itemID, delta); err != nil {
		return err
	}
	return s.persist()
}

// Remove removes a line and persists.
func (s *Store) Remove(itemID string) error {
	s.cart.Remove(itemID)
	return s.persist()
}

// Clear empties the cart and persists.
func (s *Store) Clear() error {
	s.cart.Clear()
	return s.persist()
}

// ItemCount returns the sum of quantities.
func (s *Store) ItemCount() int {
	return s.cart.ItemCount()
}

// Subtotal returns the current cart total.
func (s *Store) Subtotal() decimal.Decimal {
	return s.cart.Subtotal()
}

// IsEmpty reports whether the cart has no line items.
func (s *Store) IsEmpty() bool {
	return s.cart.IsEmpty()
}

func (s *Store) persist() error {
	if s.persister == nil {
		return nil
	}
	if err := s.persister.Save(Snapshot{Vendor: s.cart.Vendor(), Items: s.cart.Items()}); err != nil {
		return fmt.Errorf("failed to persist cart: %w", err)
	}
	return nil
}
