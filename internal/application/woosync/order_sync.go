package woosync

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/erp/woosync/internal/domain/woosync"
)

const endpointOrders = "orders"

// syncOrders imports sales orders with their line items
func (r *run) syncOrders(ctx context.Context, res *woosync.StepResult) error {
	orders, err := woosync.ListAllAs[woosync.RemoteOrder](ctx, r.client, endpointOrders, r.sc.Params("", nil), woosync.ListOptions{})
	if err != nil {
		return r.listingFailed(ctx, res, 0, endpointOrders, err)
	}

	for i := range orders {
		ro := &orders[i]
		if err := r.record(ctx, res, ro.ID, func(tx woosync.Store) (bool, error) {
			return r.importOrder(ctx, tx, res, ro)
		}); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) importOrder(ctx context.Context, tx woosync.Store, res *woosync.StepResult, ro *woosync.RemoteOrder) (bool, error) {
	order, err := tx.Orders().FindByRemoteID(ctx, r.site(), ro.ID)
	if isNotFound(err) {
		order = nil
	} else if err != nil {
		return false, err
	}

	fields, err := MapOrder(ro)
	if err != nil {
		return false, err
	}
	if order == nil {
		order = woosync.NewSaleOrder(r.site(), ro.ID)
	} else if !woosync.RemoteIsNewer(fields.RemoteModifiedAt, order.UpdatedAt) {
		return false, nil
	}

	customer, err := r.orderCustomer(ctx, tx, ro)
	if err != nil {
		return false, err
	}
	currencyID, err := r.refs.Currency(ctx, tx, fields.CurrencyCode)
	if err != nil {
		return false, err
	}
	if currencyID == nil {
		currencyID = r.sc.CurrencyID
	}

	fields.Apply(order)
	order.CustomerID = customer.ID
	order.CurrencyID = currencyID
	order.ResponsibleUser = r.cfg.ResponsibleUser
	order.MarkSynced(r.now())
	if err := tx.Orders().Save(ctx, order); err != nil {
		return false, fmt.Errorf("save order %d: %w", ro.ID, err)
	}

	for i := range ro.LineItems {
		li := &ro.LineItems[i]
		err := tx.Transaction(ctx, func(ltx woosync.Store) error {
			return r.importLine(ctx, ltx, order, li)
		})
		if err == nil {
			continue
		}
		r.refs.Rollback()
		if woosync.IsFatal(err) || ctx.Err() != nil {
			return false, err
		}
		res.Fail(li.ID, fmt.Errorf("order %d line %d: %w", ro.ID, li.ID, err))
		r.log.Error("Failed to sync order line",
			zap.Int64("remote_id", ro.ID),
			zap.Int64("line_id", li.ID),
			zap.Error(err),
		)
	}
	return true, nil
}

// orderCustomer resolves the customer by remote account, then by guest billing email,
// then falls back to the placeholder
func (r *run) orderCustomer(ctx context.Context, tx woosync.Store, ro *woosync.RemoteOrder) (*woosync.Customer, error) {
	if ro.CustomerID != 0 {
		c, err := tx.Customers().FindByRemoteID(ctx, r.site(), ro.CustomerID)
		if err == nil {
			return c, nil
		}
		if !isNotFound(err) {
			return nil, err
		}
	}
	if r.cfg.OrdersCustomersMap {
		return r.guestCustomer(ctx, tx, ro)
	}
	return PlaceholderCustomer(ctx, tx)
}

// guestCustomer matches an active customer by billing email or creates one from the billing address
func (r *run) guestCustomer(ctx context.Context, tx woosync.Store, ro *woosync.RemoteOrder) (*woosync.Customer, error) {
	fields := MapGuestCustomer(ro)
	if fields.Email == "" {
		return PlaceholderCustomer(ctx, tx)
	}

	c, err := tx.Customers().FindByEmail(ctx, r.site(), fields.Email)
	if err == nil {
		return c, nil
	}
	if !isNotFound(err) {
		return nil, err
	}

	c = woosync.NewCustomer(r.site(), 0)
	fields.Apply(c)
	c.ResponsibleUser = r.cfg.ResponsibleUser
	c.MarkSynced(r.now())
	if err := tx.Customers().Save(ctx, c); err != nil {
		return nil, fmt.Errorf("create guest customer %q: %w", fields.Email, err)
	}
	return c, nil
}

func (r *run) importLine(ctx context.Context, tx woosync.Store, order *woosync.SaleOrder, li *woosync.RemoteLineItem) error {
	line, err := tx.Orders().FindLine(ctx, order.ID, li.ID)
	if isNotFound(err) {
		line = woosync.NewOrderLine(r.site(), order.ID, li.ID)
	} else if err != nil {
		return err
	}

	fields := MapOrderLine(li, r.sc, order.PricesIncludeTax)
	fields.Apply(line)

	productID, variantID, err := r.lineProduct(ctx, tx, li)
	if err != nil {
		return err
	}
	line.ProductID = productID
	line.VariantID = variantID

	taxID, err := r.refs.Tax(ctx, tx, fields.TaxRate, order.PricesIncludeTax)
	if err != nil {
		return err
	}
	line.TaxIDs = idList(taxID)
	line.UnitID = r.sc.WeightUnitID

	now := r.now()
	if line.CreatedAt.IsZero() {
		line.CreatedAt = now
	}
	line.UpdatedAt = now
	return tx.Orders().SaveLine(ctx, line)
}

// lineProduct resolves the local product of a line. Unknown products, and every product
// when line product mapping is off, resolve to the placeholder.
func (r *run) lineProduct(ctx context.Context, tx woosync.Store, li *woosync.RemoteLineItem) (uuid.UUID, *uuid.UUID, error) {
	if r.cfg.LineItemProductsMap && li.ProductID != 0 {
		p, err := tx.Products().FindByRemoteID(ctx, r.site(), li.ProductID)
		switch {
		case err == nil:
			var variantID *uuid.UUID
			if li.VariationID != 0 {
				v, err := tx.Products().FindVariantByRemoteID(ctx, r.site(), li.VariationID)
				if err != nil && !isNotFound(err) {
					return uuid.Nil, nil, err
				}
				if v != nil && err == nil {
					id := v.ID
					variantID = &id
				}
			}
			return p.ID, variantID, nil
		case !isNotFound(err):
			return uuid.Nil, nil, err
		}
	}

	placeholder, err := PlaceholderProduct(ctx, tx)
	if err != nil {
		return uuid.Nil, nil, err
	}
	return placeholder.ID, nil, nil
}
