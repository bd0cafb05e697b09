package woosync

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/erp/woosync/internal/domain/woosync"
)

// syncRelatedLinks resolves the remote related IDs of local products to local products.
// Related products that are unknown or archived locally are left out.
func (r *run) syncRelatedLinks(ctx context.Context, res *woosync.StepResult) error {
	products, err := r.deps.Store.Products().FindWithRelated(ctx, r.site())
	if err != nil {
		return r.listingFailed(ctx, res, 0, "related products", err)
	}

	for i := range products {
		p := &products[i]
		if err := r.record(ctx, res, p.RemoteID, func(tx woosync.Store) (bool, error) {
			return r.linkRelated(ctx, tx, p)
		}); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) linkRelated(ctx context.Context, tx woosync.Store, p *woosync.Product) (bool, error) {
	related := make([]uuid.UUID, 0, len(p.RemoteRelatedIDs))
	for _, remoteID := range p.RemoteRelatedIDs {
		if remoteID == p.RemoteID {
			continue
		}
		other, err := tx.Products().FindByRemoteID(ctx, r.site(), remoteID)
		if isNotFound(err) {
			continue
		}
		if err != nil {
			return false, fmt.Errorf("related product %d: %w", remoteID, err)
		}
		if other.Active {
			related = appendUnique(related, other.ID)
		}
	}

	if sameIDs(p.RelatedProductIDs, related) {
		return false, nil
	}
	p.RelatedProductIDs = related
	p.MarkSynced(r.now())
	if err := tx.Products().Save(ctx, p); err != nil {
		return false, fmt.Errorf("save product %d: %w", p.RemoteID, err)
	}
	return true, nil
}

func sameIDs(a, b []uuid.UUID) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[uuid.UUID]bool, len(a))
	for _, id := range a {
		set[id] = true
	}
	for _, id := range b {
		if !set[id] {
			return false
		}
	}
	return true
}
