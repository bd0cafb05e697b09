package woosync

import (
	"context"
	"fmt"
	"path"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/erp/woosync/internal/domain/woosync"
)

const endpointProducts = "products"

// syncProducts imports published remote products into local templates
func (r *run) syncProducts(ctx context.Context, res *woosync.StepResult) error {
	params := r.sc.Params(r.cfg.ImportLanguage, map[string]string{"status": woosync.RemoteStatusPublish})
	products, err := woosync.ListAllAs[woosync.RemoteProduct](ctx, r.client, endpointProducts, params, woosync.ListOptions{})
	if err != nil {
		return r.listingFailed(ctx, res, 0, endpointProducts, err)
	}

	for i := range products {
		rp := &products[i]
		if rp.SKU == "" {
			r.log.Debug("Skipping product without SKU", zap.Int64("remote_id", rp.ID))
			res.Skip()
			continue
		}
		if err := r.record(ctx, res, rp.ID, func(tx woosync.Store) (bool, error) {
			return r.importProduct(ctx, tx, rp)
		}); err != nil {
			return err
		}
	}
	return nil
}

// importProduct creates or updates the template of one remote product
func (r *run) importProduct(ctx context.Context, tx woosync.Store, rp *woosync.RemoteProduct) (bool, error) {
	repo := tx.Products()

	existing, err := repo.FindByRemoteID(ctx, r.site(), rp.ID)
	switch {
	case isNotFound(err):
		existing = nil
	case err != nil:
		return false, err
	case existing.StockConflict(bool(rp.ManageStock)):
		// The kind cannot change in place; recreate the template and its variants.
		r.log.Info("Recreating product after manage_stock change",
			zap.Int64("remote_id", rp.ID),
			zap.Bool("manage_stock", bool(rp.ManageStock)),
		)
		if err := repo.Delete(ctx, existing.ID); err != nil {
			return false, fmt.Errorf("delete product %d: %w", rp.ID, err)
		}
		existing = nil
	}

	fields, err := MapProduct(rp, r.sc)
	if err != nil {
		return false, err
	}

	p := existing
	if p == nil {
		p = woosync.NewProduct(r.site(), rp.ID)
	} else if !woosync.RemoteIsNewer(fields.RemoteModifiedAt, p.UpdatedAt) {
		return false, nil
	}

	fields.Apply(p)
	p.ResponsibleUser = r.cfg.ResponsibleUser
	p.CurrencyID = r.sc.CurrencyID
	p.WeightUnitID = r.sc.WeightUnitID
	p.DimensionUnitID = r.sc.DimensionUnitID

	if err := r.applyProductRefs(ctx, tx, p, fields); err != nil {
		return false, err
	}
	r.applyProductImages(ctx, p, fields)

	p.MarkSynced(r.now())
	if err := repo.Save(ctx, p); err != nil {
		return false, fmt.Errorf("save product %d: %w", rp.ID, err)
	}
	return true, nil
}

func (r *run) applyProductRefs(ctx context.Context, tx woosync.Store, p *woosync.Product, f *ProductFields) error {
	taxID, err := r.refs.Tax(ctx, tx, f.TaxRate, r.sc.PricesIncludeTax)
	if err != nil {
		return err
	}
	p.TaxIDs = idList(taxID)

	if p.BrandID, err = r.refs.Brand(ctx, tx, f.BrandName); err != nil {
		return err
	}

	p.CategoryID = nil
	p.CategoryIDs = nil
	for _, name := range f.CategoryNames {
		id, err := r.refs.Category(ctx, tx, name)
		if err != nil {
			return err
		}
		if id == nil {
			continue
		}
		if p.CategoryID == nil {
			p.CategoryID = id
		}
		p.CategoryIDs = appendUnique(p.CategoryIDs, *id)
	}

	p.TagIDs = nil
	for _, name := range f.TagNames {
		id, err := r.refs.Tag(ctx, tx, name)
		if err != nil {
			return err
		}
		if id != nil {
			p.TagIDs = appendUnique(p.TagIDs, *id)
		}
	}
	return nil
}

// applyProductImages replaces the featured image and gallery when image sync is on.
// Download failures leave the previous images in place.
func (r *run) applyProductImages(ctx context.Context, p *woosync.Product, f *ProductFields) {
	if !r.cfg.ImagesSync || r.deps.Images == nil {
		return
	}
	if img := r.fetchImage(ctx, f.FeaturedImage); img != nil {
		p.ImageKey = img.Key
	}
	if len(f.Gallery) == 0 {
		return
	}
	gallery := make([]woosync.ProductImage, 0, len(f.Gallery))
	for _, ri := range f.Gallery {
		img := r.fetchImage(ctx, ri.Src)
		if img == nil {
			continue
		}
		name := ri.Name
		if name == "" {
			name = img.Name
		}
		if name == "" {
			name = path.Base(ri.Src)
		}
		gallery = append(gallery, woosync.ProductImage{Name: name, StorageKey: img.Key})
	}
	p.Images = gallery
}

func idList(id *uuid.UUID) []uuid.UUID {
	if id == nil {
		return nil
	}
	return []uuid.UUID{*id}
}

func appendUnique(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
