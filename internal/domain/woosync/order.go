package woosync

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderState is the local sales order state
type OrderState string

const (
	OrderStateDraft  OrderState = "DRAFT"
	OrderStateSale   OrderState = "SALE"
	OrderStateDone   OrderState = "DONE"
	OrderStateCancel OrderState = "CANCEL"
)

// IsValid returns true if the state is known
func (s OrderState) IsValid() bool {
	switch s {
	case OrderStateDraft, OrderStateSale, OrderStateDone, OrderStateCancel:
		return true
	default:
		return false
	}
}

// String returns the string representation of OrderState
func (s OrderState) String() string {
	return string(s)
}

// OrderStateFromRemote maps a remote order status onto a local state
func OrderStateFromRemote(status string) OrderState {
	switch status {
	case "pending":
		return OrderStateDraft
	case "processing", "on-hold":
		return OrderStateSale
	case "completed":
		return OrderStateDone
	case "cancelled", "refunded", "failed", "trash":
		return OrderStateCancel
	default:
		return OrderStateDraft
	}
}

// SaleOrder is a local sales order linked to a remote order
type SaleOrder struct {
	// ID is the local identity
	ID uuid.UUID
	// SiteURL and RemoteID form the natural key
	SiteURL  string
	RemoteID int64

	Name             string
	Number           string
	ClientOrderRef   string
	Origin           string
	State            OrderState
	RemoteStatus     string
	DateOrder        *time.Time
	CustomerID       uuid.UUID
	CurrencyID       *uuid.UUID
	Note             string
	ResponsibleUser  string
	PricesIncludeTax bool

	Total         decimal.Decimal
	TotalTax      decimal.Decimal
	DiscountTotal decimal.Decimal
	ShippingTotal decimal.Decimal

	PaymentMethod      string
	PaymentMethodTitle string
	TransactionID      string
	// TransactionFee is the payment gateway fee found in the order metadata
	TransactionFee decimal.NullDecimal
	Lang           string

	DatePaid         *time.Time
	DateCompleted    *time.Time
	RemoteCreatedAt  *time.Time
	RemoteModifiedAt *time.Time
	SyncedAt         *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewSaleOrder creates an order linked to a remote order
func NewSaleOrder(siteURL string, remoteID int64) *SaleOrder {
	return &SaleOrder{
		ID:       uuid.New(),
		SiteURL:  siteURL,
		RemoteID: remoteID,
		State:    OrderStateDraft,
	}
}

// MarkSynced stamps the local write and sync times
func (o *SaleOrder) MarkSynced(now time.Time) {
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	o.UpdatedAt = now
	synced := now
	o.SyncedAt = &synced
}

// OrderLine is a local order line keyed by (site, order, remote line ID)
type OrderLine struct {
	// ID is the local identity
	ID uuid.UUID
	// OrderID is the owning order
	OrderID uuid.UUID
	// SiteURL and RemoteLineID complete the natural key
	SiteURL      string
	RemoteLineID int64

	// Name keeps the remote line name even when the product is the placeholder
	Name              string
	ProductID         uuid.UUID
	VariantID         *uuid.UUID
	RemoteProductID   int64
	RemoteVariationID int64
	SKU               string
	Quantity          decimal.Decimal
	PriceUnit         decimal.Decimal
	Subtotal          decimal.Decimal
	SubtotalTax       decimal.Decimal
	Total             decimal.Decimal
	TotalTax          decimal.Decimal
	TaxRate           decimal.Decimal
	TaxIDs            []uuid.UUID
	UnitID            *uuid.UUID

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewOrderLine creates a line of order orderID linked to a remote line item
func NewOrderLine(siteURL string, orderID uuid.UUID, remoteLineID int64) *OrderLine {
	return &OrderLine{
		ID:           uuid.New(),
		OrderID:      orderID,
		SiteURL:      siteURL,
		RemoteLineID: remoteLineID,
	}
}
