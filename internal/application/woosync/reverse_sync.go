package woosync

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/erp/woosync/internal/domain/woosync"
)

// Remote taxonomy kinds, relative to the products endpoint
const (
	taxonomyBrands     = "brands"
	taxonomyCategories = "categories"
	taxonomyTags       = "tags"
)

// exportProducts pushes local products flagged for export to the store
func (r *run) exportProducts(ctx context.Context, res *woosync.StepResult) error {
	products, err := r.deps.Store.Products().FindExportable(ctx, r.cfg.ExportLanguage)
	if err != nil {
		return r.listingFailed(ctx, res, 0, "exportable products", err)
	}

	for i := range products {
		p := &products[i]
		if err := r.record(ctx, res, p.RemoteID, func(tx woosync.Store) (bool, error) {
			return r.exportProduct(ctx, tx, p)
		}); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) exportProduct(ctx context.Context, tx woosync.Store, p *woosync.Product) (bool, error) {
	remote, err := r.findRemoteBySKU(ctx, p.SKU)
	if err != nil {
		return false, err
	}

	var remoteModified *time.Time
	if remote != nil {
		if remoteModified, err = woosync.ParseRemoteDate(remote.DateModifiedGMT); err != nil {
			return false, fmt.Errorf("product %d date_modified_gmt: %w", remote.ID, err)
		}
		if !p.NeedsExport(remoteModified) {
			return r.exportVariations(ctx, tx, p, remote.ID, false)
		}
	}

	refs, err := r.exportRefs(ctx, tx, p)
	if err != nil {
		return false, err
	}
	payload := MapExportProduct(p, refs, r.sc)

	var written *woosync.RemoteProduct
	if remote == nil {
		raw, err := r.client.Post(ctx, endpointProducts, payload)
		if err != nil {
			return false, fmt.Errorf("create remote product %q: %w", p.SKU, err)
		}
		if written, err = woosync.Decode[woosync.RemoteProduct](raw); err != nil {
			return false, err
		}
		r.log.Info("Created remote product", zap.String("sku", p.SKU), zap.Int64("remote_id", written.ID))
	} else {
		raw, err := r.client.Put(ctx, fmt.Sprintf("%s/%d", endpointProducts, remote.ID), payload)
		if err != nil {
			return false, fmt.Errorf("update remote product %d: %w", remote.ID, err)
		}
		if written, err = woosync.Decode[woosync.RemoteProduct](raw); err != nil {
			return false, err
		}
	}

	if err := r.writeBack(p, written); err != nil {
		return false, err
	}
	if _, err := r.exportVariations(ctx, tx, p, written.ID, true); err != nil {
		return false, err
	}
	p.MarkSynced(r.now())
	if err := tx.Products().Save(ctx, p); err != nil {
		return false, fmt.Errorf("save product %q: %w", p.SKU, err)
	}
	return true, nil
}

// findRemoteBySKU returns the first published remote product with sku, or nil
func (r *run) findRemoteBySKU(ctx context.Context, sku string) (*woosync.RemoteProduct, error) {
	params := map[string]string{"status": woosync.RemoteStatusPublish, "sku": sku}
	if r.cfg.ExportLanguage != "" {
		params["lang"] = r.cfg.ExportLanguage
	}
	found, err := woosync.GetAs[[]woosync.RemoteProduct](ctx, r.client, endpointProducts, params)
	if err != nil {
		return nil, fmt.Errorf("search remote product %q: %w", sku, err)
	}
	if len(*found) == 0 {
		return nil, nil
	}
	return &(*found)[0], nil
}

// writeBack copies the remote identity and dates returned by a push onto p
func (r *run) writeBack(p *woosync.Product, rp *woosync.RemoteProduct) error {
	created, err := woosync.ParseRemoteDate(rp.DateCreatedGMT)
	if err != nil {
		return fmt.Errorf("product %d date_created_gmt: %w", rp.ID, err)
	}
	modified, err := woosync.ParseRemoteDate(rp.DateModifiedGMT)
	if err != nil {
		return fmt.Errorf("product %d date_modified_gmt: %w", rp.ID, err)
	}
	p.RemoteID = rp.ID
	p.SiteURL = r.site()
	p.RemoteType = rp.Type
	p.RemoteStatus = rp.Status
	if created != nil {
		p.RemoteCreatedAt = created
	}
	p.RemoteModifiedAt = modified
	return nil
}

// exportVariations matches local variants to remote variations by SKU. Variants newer than
// their remote variation are updated, variants without one are created. When force is
// false the template itself was not pushed and is only saved if a variant was.
func (r *run) exportVariations(ctx context.Context, tx woosync.Store, p *woosync.Product, remoteID int64, force bool) (bool, error) {
	if len(p.Variants) < 2 {
		return false, nil
	}

	endpoint := variationsEndpoint(remoteID)
	remote, err := woosync.ListAllAs[woosync.RemoteVariation](ctx, r.client, endpoint, nil, woosync.ListOptions{})
	if err != nil {
		return false, fmt.Errorf("list %s: %w", endpoint, err)
	}
	bySKU := make(map[string]*woosync.RemoteVariation, len(remote))
	for i := range remote {
		if remote[i].SKU != "" {
			bySKU[remote[i].SKU] = &remote[i]
		}
	}

	names, err := r.valueNames(ctx, tx, p)
	if err != nil {
		return false, err
	}

	pushed := false
	for i := range p.Variants {
		v := &p.Variants[i]
		if v.SKU == "" {
			continue
		}
		payload := MapExportVariation(v, p.Kind == woosync.ProductKindStocked, variantAttributes(v, names))

		rv, ok := bySKU[v.SKU]
		if ok {
			modified, err := woosync.ParseRemoteDate(rv.DateModifiedGMT)
			if err != nil {
				return false, fmt.Errorf("variation %d date_modified_gmt: %w", rv.ID, err)
			}
			if !v.NeedsExport(modified) {
				continue
			}
			if _, err := r.client.Put(ctx, endpoint+"/"+strconv.FormatInt(rv.ID, 10), payload); err != nil {
				return false, fmt.Errorf("update remote variation %d: %w", rv.ID, err)
			}
			v.RemoteModifiedAt = modified
		} else {
			raw, err := r.client.Post(ctx, endpoint, payload)
			if err != nil {
				return false, fmt.Errorf("create remote variation %q: %w", v.SKU, err)
			}
			created, err := woosync.Decode[woosync.RemoteVariation](raw)
			if err != nil {
				return false, err
			}
			v.RemoteID = created.ID
			v.RemoteParentID = remoteID
			v.SiteURL = r.site()
			if v.RemoteCreatedAt, err = woosync.ParseRemoteDate(created.DateCreatedGMT); err != nil {
				return false, fmt.Errorf("variation %d date_created_gmt: %w", created.ID, err)
			}
			if v.RemoteModifiedAt, err = woosync.ParseRemoteDate(created.DateModifiedGMT); err != nil {
				return false, fmt.Errorf("variation %d date_modified_gmt: %w", created.ID, err)
			}
		}
		v.MarkSynced(r.now())
		pushed = true
	}

	if pushed && !force {
		p.MarkSynced(r.now())
		if err := tx.Products().Save(ctx, p); err != nil {
			return false, fmt.Errorf("save product %q: %w", p.SKU, err)
		}
	}
	return pushed, nil
}

// attributeName pairs an attribute value with the name of its attribute
type attributeName struct {
	attribute string
	value     string
}

// valueNames loads the names of every attribute value used by p's lines
func (r *run) valueNames(ctx context.Context, tx woosync.Store, p *woosync.Product) (map[uuid.UUID]attributeName, error) {
	var ids []uuid.UUID
	for _, line := range p.AttributeLines {
		ids = append(ids, line.AttributeID)
		ids = append(ids, line.ValueIDs...)
	}
	refs, err := r.referencesByID(ctx, tx, ids)
	if err != nil {
		return nil, err
	}

	names := make(map[uuid.UUID]attributeName)
	for _, line := range p.AttributeLines {
		attr, ok := refs[line.AttributeID]
		if !ok {
			continue
		}
		for _, id := range line.ValueIDs {
			if val, ok := refs[id]; ok {
				names[id] = attributeName{attribute: attr.Name, value: val.Name}
			}
		}
	}
	return names, nil
}

func variantAttributes(v *woosync.ProductVariant, names map[uuid.UUID]attributeName) []woosync.RemoteAttribute {
	attrs := make([]woosync.RemoteAttribute, 0, len(v.AttributeValueIDs))
	for _, id := range v.AttributeValueIDs {
		if n, ok := names[id]; ok {
			attrs = append(attrs, woosync.RemoteAttribute{Name: n.attribute, Option: n.value})
		}
	}
	return attrs
}

// exportRefs resolves the remote IDs of p's brand, categories and tags, creating missing
// remote terms, and builds one remote attribute per attribute line
func (r *run) exportRefs(ctx context.Context, tx woosync.Store, p *woosync.Product) (*ExportRefs, error) {
	ids := append([]uuid.UUID{}, p.CategoryIDs...)
	ids = append(ids, p.TagIDs...)
	if p.BrandID != nil {
		ids = append(ids, *p.BrandID)
	}
	for _, line := range p.AttributeLines {
		ids = append(ids, line.AttributeID)
		ids = append(ids, line.ValueIDs...)
	}
	refs, err := r.referencesByID(ctx, tx, ids)
	if err != nil {
		return nil, err
	}

	out := &ExportRefs{}
	if p.BrandID != nil {
		if ref, ok := refs[*p.BrandID]; ok {
			if out.BrandID, err = r.remoteTerm(ctx, taxonomyBrands, ref.Name); err != nil {
				return nil, err
			}
		}
	}
	for _, id := range p.CategoryIDs {
		ref, ok := refs[id]
		if !ok {
			continue
		}
		termID, err := r.remoteTerm(ctx, taxonomyCategories, ref.Name)
		if err != nil {
			return nil, err
		}
		out.CategoryIDs = append(out.CategoryIDs, termID)
	}
	for _, id := range p.TagIDs {
		ref, ok := refs[id]
		if !ok {
			continue
		}
		termID, err := r.remoteTerm(ctx, taxonomyTags, ref.Name)
		if err != nil {
			return nil, err
		}
		out.TagIDs = append(out.TagIDs, termID)
	}

	for _, line := range p.AttributeLines {
		attr, ok := refs[line.AttributeID]
		if !ok {
			continue
		}
		ra := woosync.RemoteAttribute{Name: attr.Name, Visible: true, Variation: true}
		for _, id := range line.ValueIDs {
			if val, ok := refs[id]; ok {
				ra.Options = append(ra.Options, val.Name)
			}
		}
		if len(ra.Options) > 0 {
			out.Attributes = append(out.Attributes, ra)
		}
	}
	return out, nil
}

func (r *run) referencesByID(ctx context.Context, tx woosync.Store, ids []uuid.UUID) (map[uuid.UUID]woosync.Reference, error) {
	out := make(map[uuid.UUID]woosync.Reference, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	refs, err := tx.References().FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load references: %w", err)
	}
	for _, ref := range refs {
		out[ref.ID] = ref
	}
	return out, nil
}

// remoteTerm returns the remote ID of the taxonomy term name, searching first and
// creating the term when the search finds nothing. IDs are cached for the run.
func (r *run) remoteTerm(ctx context.Context, kind, name string) (int64, error) {
	key := kind + "|" + woosync.FoldName(name)
	if id, ok := r.remoteTerms[key]; ok {
		return id, nil
	}

	endpoint := endpointProducts + "/" + kind
	params := map[string]string{"search": name}
	if r.cfg.ExportLanguage != "" {
		params["lang"] = r.cfg.ExportLanguage
	}
	found, err := woosync.GetAs[[]woosync.RemoteTerm](ctx, r.client, endpoint, params)
	if err != nil {
		return 0, fmt.Errorf("search %s %q: %w", endpoint, name, err)
	}

	var id int64
	if len(*found) > 0 {
		id = (*found)[0].ID
	} else {
		raw, err := r.client.Post(ctx, endpoint, woosync.RemoteTaxonomyPayload{Name: name, Lang: r.cfg.ExportLanguage})
		if err != nil {
			return 0, fmt.Errorf("create %s %q: %w", endpoint, name, err)
		}
		term, err := woosync.Decode[woosync.RemoteTerm](raw)
		if err != nil {
			return 0, err
		}
		id = term.ID
	}
	r.remoteTerms[key] = id
	return id, nil
}
