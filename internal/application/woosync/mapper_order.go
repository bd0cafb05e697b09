package woosync

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erp/woosync/internal/domain/woosync"
)

// Transaction fee metadata keys written by the payment gateways, in lookup order
var transactionFeeKeys = []string{"PayPal Transaction Fee", "_stripe_fee"}

// OrderFields is the local shape of a remote order before customer and currency resolution
type OrderFields struct {
	Name               string
	Number             string
	ClientOrderRef     string
	Origin             string
	State              woosync.OrderState
	RemoteStatus       string
	DateOrder          *time.Time
	CurrencyCode       string
	Note               string
	PricesIncludeTax   bool
	Total              decimal.Decimal
	TotalTax           decimal.Decimal
	DiscountTotal      decimal.Decimal
	ShippingTotal      decimal.Decimal
	PaymentMethod      string
	PaymentMethodTitle string
	TransactionID      string
	TransactionFee     decimal.NullDecimal
	Lang               string

	DatePaid         *time.Time
	DateCompleted    *time.Time
	RemoteCreatedAt  *time.Time
	RemoteModifiedAt *time.Time
}

// MapOrder maps a remote order header. Lines are mapped separately.
func MapOrder(ro *woosync.RemoteOrder) (*OrderFields, error) {
	f := &OrderFields{
		Name:               orderName(ro),
		Number:             ro.Number,
		ClientOrderRef:     ro.Number,
		Origin:             ro.CreatedVia,
		State:              woosync.OrderStateFromRemote(ro.Status),
		RemoteStatus:       ro.Status,
		CurrencyCode:       ro.Currency,
		Note:               ro.CustomerNote,
		PricesIncludeTax:   ro.PricesIncludeTax,
		Total:              woosync.ParseDecimal(ro.Total),
		TotalTax:           woosync.ParseDecimal(ro.TotalTax),
		DiscountTotal:      woosync.ParseDecimal(ro.DiscountTotal),
		ShippingTotal:      woosync.ParseDecimal(ro.ShippingTotal),
		PaymentMethod:      ro.PaymentMethod,
		PaymentMethodTitle: ro.PaymentMethodTitle,
		TransactionID:      ro.TransactionID,
		TransactionFee:     transactionFee(ro.MetaData),
		Lang:               ro.Lang,
	}
	var err error
	if f.RemoteCreatedAt, err = orderDate(ro.ID, "date_created_gmt", ro.DateCreatedGMT); err != nil {
		return nil, err
	}
	if f.RemoteModifiedAt, err = orderDate(ro.ID, "date_modified_gmt", ro.DateModifiedGMT); err != nil {
		return nil, err
	}
	if f.DatePaid, err = orderDate(ro.ID, "date_paid_gmt", ro.DatePaidGMT); err != nil {
		return nil, err
	}
	if f.DateCompleted, err = orderDate(ro.ID, "date_completed_gmt", ro.DateCompletedGMT); err != nil {
		return nil, err
	}
	f.DateOrder = f.RemoteCreatedAt
	return f, nil
}

// Apply copies the mapped fields onto o
func (f *OrderFields) Apply(o *woosync.SaleOrder) {
	o.Name = f.Name
	o.Number = f.Number
	o.ClientOrderRef = f.ClientOrderRef
	o.Origin = f.Origin
	o.State = f.State
	o.RemoteStatus = f.RemoteStatus
	o.DateOrder = f.DateOrder
	o.Note = f.Note
	o.PricesIncludeTax = f.PricesIncludeTax
	o.Total = f.Total
	o.TotalTax = f.TotalTax
	o.DiscountTotal = f.DiscountTotal
	o.ShippingTotal = f.ShippingTotal
	o.PaymentMethod = f.PaymentMethod
	o.PaymentMethodTitle = f.PaymentMethodTitle
	o.TransactionID = f.TransactionID
	o.TransactionFee = f.TransactionFee
	o.Lang = f.Lang
	o.DatePaid = f.DatePaid
	o.DateCompleted = f.DateCompleted
	o.RemoteCreatedAt = f.RemoteCreatedAt
	o.RemoteModifiedAt = f.RemoteModifiedAt
}

func orderDate(id int64, field, value string) (*time.Time, error) {
	t, err := woosync.ParseRemoteDate(value)
	if err != nil {
		return nil, fmt.Errorf("order %d %s: %w", id, field, err)
	}
	return t, nil
}

// orderName returns "#{number} {first} {last}" from the billing address
func orderName(ro *woosync.RemoteOrder) string {
	return strings.TrimSpace(fmt.Sprintf("#%s %s %s", ro.Number, ro.Billing.FirstName, ro.Billing.LastName))
}

func transactionFee(meta []woosync.RemoteMeta) decimal.NullDecimal {
	for _, key := range transactionFeeKeys {
		if v, ok := woosync.MetaValue(meta, key); ok {
			if fee, err := decimal.NewFromString(strings.TrimSpace(v)); err == nil {
				return decimal.NewNullDecimal(fee)
			}
		}
	}
	return decimal.NullDecimal{}
}

// LineFields is the local shape of a remote line item before product and tax resolution
type LineFields struct {
	Name              string
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
}

// MapOrderLine maps a remote line item. The unit price is tax-exclusive: when the
// order's prices include tax, the per-unit share of the subtotal tax is removed.
func MapOrderLine(li *woosync.RemoteLineItem, sc *SyncContext, pricesIncludeTax bool) *LineFields {
	subtotal := woosync.ParseDecimal(li.Subtotal)
	subtotalTax := woosync.ParseDecimal(li.SubtotalTax)

	f := &LineFields{
		Name:              li.Name,
		RemoteProductID:   li.ProductID,
		RemoteVariationID: li.VariationID,
		SKU:               li.SKU,
		Quantity:          li.Quantity,
		Subtotal:          subtotal,
		SubtotalTax:       subtotalTax,
		Total:             woosync.ParseDecimal(li.Total),
		TotalTax:          woosync.ParseDecimal(li.TotalTax),
		TaxRate:           sc.TaxRate(li.TaxClass),
	}

	switch {
	case li.Quantity.IsZero():
		f.PriceUnit = li.Price
	case pricesIncludeTax:
		f.PriceUnit = subtotal.Sub(subtotalTax).DivRound(li.Quantity, 6)
	default:
		f.PriceUnit = subtotal.DivRound(li.Quantity, 6)
	}
	return f
}

// Apply copies the mapped fields onto l
func (f *LineFields) Apply(l *woosync.OrderLine) {
	l.Name = f.Name
	l.RemoteProductID = f.RemoteProductID
	l.RemoteVariationID = f.RemoteVariationID
	l.SKU = f.SKU
	l.Quantity = f.Quantity
	l.PriceUnit = f.PriceUnit
	l.Subtotal = f.Subtotal
	l.SubtotalTax = f.SubtotalTax
	l.Total = f.Total
	l.TotalTax = f.TotalTax
	l.TaxRate = f.TaxRate
}
