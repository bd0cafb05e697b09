package woosync

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/erp/woosync/internal/domain/woosync"
)

func variationsEndpoint(productID int64) string {
	return fmt.Sprintf("products/%d/variations", productID)
}

// syncVariations imports the variations of every published variable product
func (r *run) syncVariations(ctx context.Context, res *woosync.StepResult) error {
	params := r.sc.Params(r.cfg.ImportLanguage, map[string]string{
		"type":   woosync.RemoteTypeVariable,
		"status": woosync.RemoteStatusPublish,
	})
	parents, err := woosync.ListAllAs[woosync.RemoteProduct](ctx, r.client, endpointProducts, params, woosync.ListOptions{})
	if err != nil {
		return r.listingFailed(ctx, res, 0, endpointProducts, err)
	}

	for i := range parents {
		if err := r.syncParentVariations(ctx, res, &parents[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) syncParentVariations(ctx context.Context, res *woosync.StepResult, rp *woosync.RemoteProduct) error {
	parent, err := r.deps.Store.Products().FindByRemoteID(ctx, r.site(), rp.ID)
	if isNotFound(err) || (err == nil && !parent.Active) {
		r.log.Warn("Skipping variations of unknown parent product", zap.Int64("remote_id", rp.ID))
		res.Skip()
		return nil
	}
	if err != nil {
		return r.listingFailed(ctx, res, rp.ID, endpointProducts, err)
	}

	endpoint := variationsEndpoint(rp.ID)
	params := r.sc.Params("", map[string]string{"status": woosync.RemoteStatusPublish})
	variations, err := woosync.ListAllAs[woosync.RemoteVariation](ctx, r.client, endpoint, params, woosync.ListOptions{})
	if err != nil {
		return r.listingFailed(ctx, res, rp.ID, endpoint, err)
	}

	parentID, parentSKU := parent.ID, parent.SKU
	wrote := false
	for i := range variations {
		rv := &variations[i]
		before := res.Succeeded
		if err := r.record(ctx, res, rv.ID, func(tx woosync.Store) (bool, error) {
			return r.importVariation(ctx, tx, parentID, parentSKU, rv)
		}); err != nil {
			return err
		}
		wrote = wrote || res.Succeeded > before
	}

	if wrote {
		r.finishParent(ctx, res, rp.ID, parentID, parentSKU)
	}
	return nil
}

// importVariation extends the parent's attribute lines with the variation's values,
// re-derives the variants and writes the variant matching the variation
func (r *run) importVariation(ctx context.Context, tx woosync.Store, parentID uuid.UUID, parentSKU string, rv *woosync.RemoteVariation) (bool, error) {
	parent, err := tx.Products().FindByID(ctx, parentID)
	if err != nil {
		return false, fmt.Errorf("%w: %v", woosync.ErrParentProductNotFound, err)
	}

	fields, err := MapVariation(rv, r.sc)
	if err != nil {
		return false, err
	}

	changed := false
	valueIDs := make([]uuid.UUID, 0, len(fields.Attributes))
	for _, a := range fields.Attributes {
		attrID, err := r.refs.Attribute(ctx, tx, a.Name)
		if err != nil {
			return false, err
		}
		if attrID == nil {
			continue
		}
		valueID, err := r.refs.AttributeValue(ctx, tx, *attrID, a.Option)
		if err != nil {
			return false, err
		}
		if valueID == nil {
			continue
		}
		if parent.AddAttributeValue(*attrID, *valueID) {
			changed = true
		}
		valueIDs = append(valueIDs, *valueID)
	}
	if len(parent.CreateVariants()) > 0 {
		changed = true
	}

	variant := parent.FindVariantByAttributes(valueIDs)
	if variant == nil {
		r.log.Debug("No variant matches variation attributes",
			zap.Int64("remote_id", rv.ID),
			zap.Int64("parent_remote_id", parent.RemoteID),
		)
		return r.saveParent(ctx, tx, parent, parentSKU, changed)
	}

	if variant.RemoteID == rv.ID && !changed && !woosync.RemoteIsNewer(fields.RemoteModifiedAt, variant.UpdatedAt) {
		return false, nil
	}

	fields.Apply(variant)
	variant.RemoteID = rv.ID
	variant.RemoteParentID = parent.RemoteID
	variant.SiteURL = r.site()
	variant.CurrencyID = r.sc.CurrencyID
	variant.WeightUnitID = r.sc.WeightUnitID

	taxID, err := r.refs.Tax(ctx, tx, fields.TaxRate, r.sc.PricesIncludeTax)
	if err != nil {
		return false, err
	}
	variant.TaxIDs = idList(taxID)

	if img := r.fetchImage(ctx, fields.Image); img != nil {
		variant.ImageKey = img.Key
	}
	variant.MarkSynced(r.now())

	return r.saveParent(ctx, tx, parent, parentSKU, true)
}

// saveParent restores the parent SKU, which variant derivation must not change, and saves
// the template with its variants when anything changed
func (r *run) saveParent(ctx context.Context, tx woosync.Store, parent *woosync.Product, parentSKU string, changed bool) (bool, error) {
	if !changed {
		return false, nil
	}
	parent.SKU = parentSKU
	parent.MarkSynced(r.now())
	if err := tx.Products().Save(ctx, parent); err != nil {
		return false, fmt.Errorf("save product %d: %w", parent.RemoteID, err)
	}
	return true, nil
}

// finishParent copies the variant taxes onto the template once its variations are written
func (r *run) finishParent(ctx context.Context, res *woosync.StepResult, remoteID int64, parentID uuid.UUID, parentSKU string) {
	err := r.deps.Store.Transaction(ctx, func(tx woosync.Store) error {
		parent, err := tx.Products().FindByID(ctx, parentID)
		if err != nil {
			return err
		}
		if taxes := parent.AggregateVariantTaxes(); len(taxes) > 0 {
			parent.TaxIDs = taxes
		}
		parent.SKU = parentSKU
		parent.MarkSynced(r.now())
		return tx.Products().Save(ctx, parent)
	})
	if err != nil {
		res.Fail(remoteID, fmt.Errorf("aggregate variant taxes: %w", err))
		r.log.Error("Failed to update parent product", zap.Int64("remote_id", remoteID), zap.Error(err))
	}
}
