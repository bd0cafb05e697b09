package woosync

import (
	"context"
	"fmt"

	"github.com/erp/woosync/internal/domain/woosync"
)

const endpointCustomers = "customers"

// syncCustomers imports registered customer accounts
func (r *run) syncCustomers(ctx context.Context, res *woosync.StepResult) error {
	customers, err := woosync.ListAllAs[woosync.RemoteCustomer](ctx, r.client, endpointCustomers, r.sc.Params("", nil), woosync.ListOptions{})
	if err != nil {
		return r.listingFailed(ctx, res, 0, endpointCustomers, err)
	}

	for i := range customers {
		rc := &customers[i]
		if err := r.record(ctx, res, rc.ID, func(tx woosync.Store) (bool, error) {
			return r.importCustomer(ctx, tx, rc)
		}); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) importCustomer(ctx context.Context, tx woosync.Store, rc *woosync.RemoteCustomer) (bool, error) {
	c, err := tx.Customers().FindByRemoteID(ctx, r.site(), rc.ID)
	if isNotFound(err) {
		c = nil
	} else if err != nil {
		return false, err
	}

	fields, err := MapCustomer(rc)
	if err != nil {
		return false, err
	}

	if c == nil {
		c = woosync.NewCustomer(r.site(), rc.ID)
	} else if !woosync.RemoteIsNewer(fields.RemoteModifiedAt, c.UpdatedAt) {
		return false, nil
	}

	fields.Apply(c)
	c.ResponsibleUser = r.cfg.ResponsibleUser
	if img := r.fetchImage(ctx, fields.AvatarURL); img != nil {
		c.ImageKey = img.Key
	}
	c.MarkSynced(r.now())
	if err := tx.Customers().Save(ctx, c); err != nil {
		return false, fmt.Errorf("save customer %d: %w", rc.ID, err)
	}
	return true, nil
}
