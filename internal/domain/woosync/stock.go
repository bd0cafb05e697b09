package woosync

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockDirection is the outcome of comparing a local and a remote stock level
type StockDirection int

const (
	// StockNoop leaves both sides untouched
	StockNoop StockDirection = iota
	// StockPull writes the remote quantity into the local record
	StockPull
	// StockPush sends the local quantity to the remote store
	StockPush
)

// String returns the string representation of StockDirection
func (d StockDirection) String() string {
	switch d {
	case StockPull:
		return "PULL"
	case StockPush:
		return "PUSH"
	default:
		return "NOOP"
	}
}

// StockRecord is the local quantity of a product at a location
type StockRecord struct {
	// ID is the local identity
	ID uuid.UUID
	// SiteURL, ProductID and Location form the natural key
	SiteURL   string
	ProductID uuid.UUID
	Location  string
	// Quantity is the on-hand quantity
	Quantity decimal.Decimal
	// StockUpdatedAt is the last reconciled modification time, nil if never stamped
	StockUpdatedAt *time.Time
	UpdatedAt      time.Time
}

// NewStockRecord creates an empty, unstamped stock record
func NewStockRecord(siteURL string, productID uuid.UUID, location string) *StockRecord {
	return &StockRecord{
		ID:        uuid.New(),
		SiteURL:   siteURL,
		ProductID: productID,
		Location:  location,
		Quantity:  decimal.Zero,
	}
}

// Compare decides the reconciliation direction against a remote quantity and
// modification time.
//   - never stamped, or remote same-or-newer with a different quantity: pull
//   - local strictly newer with a different quantity: push
//   - otherwise: no-op
func (s *StockRecord) Compare(remoteQty decimal.Decimal, remoteModified time.Time) StockDirection {
	if s.StockUpdatedAt == nil {
		return StockPull
	}
	if s.Quantity.Equal(remoteQty) {
		return StockNoop
	}
	if !remoteModified.Before(*s.StockUpdatedAt) {
		return StockPull
	}
	return StockPush
}

// Adjust records a local on-hand edit. The stamp is the edit time, so the next
// reconciliation pushes the quantity unless the remote was modified later.
func (s *StockRecord) Adjust(qty decimal.Decimal, now time.Time) error {
	if qty.IsNegative() || !qty.Equal(qty.Truncate(0)) {
		return fmt.Errorf("%w: %s", ErrInvalidQuantity, qty)
	}
	s.Quantity = qty
	s.Stamp(now, now)
	return nil
}

// Stamp records the reconciled modification time
func (s *StockRecord) Stamp(t time.Time, now time.Time) {
	stamp := t
	s.StockUpdatedAt = &stamp
	s.UpdatedAt = now
}
