package woosync

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/erp/woosync/internal/domain/woosync"
)

var stockFilter = map[string]string{
	"status":       woosync.RemoteStatusPublish,
	"manage_stock": "true",
}

// remoteStock is the stock view of a remote product or variation
type remoteStock struct {
	quantity decimal.Decimal
	modified string
	endpoint string
}

// stockSource caches the remote stock listings of one reconciliation pass
type stockSource struct {
	r          *run
	products   map[int64]*woosync.RemoteProduct
	variations map[int64]map[int64]*woosync.RemoteVariation
	failed     map[int64]error
}

// reconcileStock makes local stock records and remote stock quantities agree,
// in the direction of the newer side
func (r *run) reconcileStock(ctx context.Context, res *woosync.StepResult) error {
	items, err := r.deps.Store.Products().FindStockItems(ctx, r.site())
	if err != nil {
		return r.listingFailed(ctx, res, 0, "stock items", err)
	}
	if len(items) == 0 {
		return nil
	}

	products, err := woosync.ListAllAs[woosync.RemoteProduct](ctx, r.client, endpointProducts, stockFilter, woosync.ListOptions{})
	if err != nil {
		return r.listingFailed(ctx, res, 0, endpointProducts, err)
	}
	src := &stockSource{
		r:          r,
		products:   make(map[int64]*woosync.RemoteProduct, len(products)),
		variations: make(map[int64]map[int64]*woosync.RemoteVariation),
		failed:     make(map[int64]error),
	}
	for i := range products {
		src.products[products[i].ID] = &products[i]
	}

	for _, item := range items {
		if err := r.record(ctx, res, item.RemoteID, func(tx woosync.Store) (bool, error) {
			return r.reconcileItem(ctx, tx, src, item)
		}); err != nil {
			return err
		}
	}
	return nil
}

// stockOf returns the remote stock of item, or nil when the remote record is missing
// or carries no quantity
func (s *stockSource) stockOf(ctx context.Context, item woosync.StockItem) (*remoteStock, error) {
	if !item.IsVariant() {
		rp, found := s.products[item.RemoteID]
		if !found || !rp.StockQuantity.Valid {
			return nil, nil
		}
		return &remoteStock{
			quantity: rp.StockQuantity.Decimal,
			modified: rp.DateModifiedGMT,
			endpoint: fmt.Sprintf("%s/%d", endpointProducts, rp.ID),
		}, nil
	}

	variations, err := s.parentVariations(ctx, item.RemoteParentID)
	if err != nil {
		return nil, err
	}
	rv, found := variations[item.RemoteID]
	if !found || !rv.StockQuantity.Valid {
		return nil, nil
	}
	return &remoteStock{
		quantity: rv.StockQuantity.Decimal,
		modified: rv.DateModifiedGMT,
		endpoint: fmt.Sprintf("%s/%d", variationsEndpoint(item.RemoteParentID), rv.ID),
	}, nil
}

// parentVariations lists the variations of a parent once per pass
func (s *stockSource) parentVariations(ctx context.Context, parentID int64) (map[int64]*woosync.RemoteVariation, error) {
	if err, ok := s.failed[parentID]; ok {
		return nil, err
	}
	if v, ok := s.variations[parentID]; ok {
		return v, nil
	}
	list, err := woosync.ListAllAs[woosync.RemoteVariation](ctx, s.r.client, variationsEndpoint(parentID), stockFilter, woosync.ListOptions{})
	if err != nil {
		err = fmt.Errorf("list %s: %w", variationsEndpoint(parentID), err)
		s.failed[parentID] = err
		return nil, err
	}
	byID := make(map[int64]*woosync.RemoteVariation, len(list))
	for i := range list {
		byID[list[i].ID] = &list[i]
	}
	s.variations[parentID] = byID
	return byID, nil
}

func (r *run) reconcileItem(ctx context.Context, tx woosync.Store, src *stockSource, item woosync.StockItem) (bool, error) {
	remote, err := src.stockOf(ctx, item)
	if err != nil {
		return false, err
	}
	if remote == nil {
		return false, nil
	}
	modified, err := woosync.ParseRemoteDate(remote.modified)
	if err != nil {
		return false, fmt.Errorf("stock of %d: %w", item.RemoteID, err)
	}
	if modified == nil {
		return false, nil
	}
	remoteQty := remote.quantity

	rec, err := tx.Stock().Find(ctx, r.site(), item.ProductID, r.cfg.StockLocation)
	if errors.Is(err, woosync.ErrRecordNotFound) {
		rec = woosync.NewStockRecord(r.site(), item.ProductID, r.cfg.StockLocation)
	} else if err != nil {
		return false, err
	}

	switch rec.Compare(remoteQty, *modified) {
	case woosync.StockPull:
		rec.Quantity = remoteQty
		rec.Stamp(*modified, r.now())

	case woosync.StockPush:
		qty := rec.Quantity.Round(0)
		if !qty.Equal(rec.Quantity) {
			r.log.Warn("Rounding fractional stock quantity for the remote store",
				zap.Int64("remote_id", item.RemoteID),
				zap.String("quantity", rec.Quantity.String()),
				zap.String("pushed", qty.String()),
			)
		}
		raw, err := r.client.Put(ctx, remote.endpoint, woosync.RemoteStockPayload{StockQuantity: qty.IntPart()})
		if err != nil {
			return false, fmt.Errorf("push stock of %d: %w", item.RemoteID, err)
		}
		pushed, err := woosync.Decode[woosync.RemoteProduct](raw)
		if err != nil {
			return false, err
		}
		stamp, err := woosync.ParseRemoteDate(pushed.DateModifiedGMT)
		if err != nil {
			return false, fmt.Errorf("stock of %d: %w", item.RemoteID, err)
		}
		r.log.Debug("Pushed stock quantity",
			zap.Int64("remote_id", item.RemoteID),
			zap.String("quantity", qty.String()),
		)
		if stamp == nil {
			// the remote clock is the only valid stamp; keep the previous one
			r.log.Warn("Remote stock update returned no modification date",
				zap.Int64("remote_id", item.RemoteID),
			)
			return true, nil
		}
		rec.Stamp(*stamp, r.now())

	default:
		return false, nil
	}

	if err := tx.Stock().Save(ctx, rec); err != nil {
		return false, fmt.Errorf("save stock of %d: %w", item.RemoteID, err)
	}
	return true, nil
}
