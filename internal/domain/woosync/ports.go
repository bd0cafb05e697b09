package woosync

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Remote store ports
// ---------------------------------------------------------------------------

// ListOptions controls pagination of a listing call.
// Zero values fall back to the client's defaults (100 per page, or 10 and a single
// page in test mode).
type ListOptions struct {
	// PageSize is the per_page parameter
	PageSize int
	// MaxPages truncates the listing after this many pages, 0 means no limit
	MaxPages int
}

// RemoteClient is an authenticated handle on a WooCommerce REST API.
// Endpoints are relative to the API root, e.g. "products/42/variations".
type RemoteClient interface {
	// Get returns the decoded JSON body of a GET request
	Get(ctx context.Context, endpoint string, params map[string]string) (json.RawMessage, error)
	// Post sends payload as JSON and returns the response body
	Post(ctx context.Context, endpoint string, payload any) (json.RawMessage, error)
	// Put sends payload as JSON and returns the response body
	Put(ctx context.Context, endpoint string, payload any) (json.RawMessage, error)
	// ListAll fetches pages 1, 2, ... until an empty page and returns every record in order
	ListAll(ctx context.Context, endpoint string, params map[string]string, opts ListOptions) ([]json.RawMessage, error)
}

// Connector opens a RemoteClient for a configuration after a liveness probe
type Connector interface {
	// Connect returns ErrConnectionFailed unless the probe answers HTTP 200
	Connect(ctx context.Context, cfg *SyncConfiguration) (RemoteClient, error)
}

// StoredImage is a remote image copied into object storage
type StoredImage struct {
	// Key is the object storage key
	Key string
	// Name is the file name from the source URL
	Name string
	// Base64 is the PNG encoded image
	Base64 string
}

// ImageFetcher downloads a remote image and stores a PNG copy
type ImageFetcher interface {
	Fetch(ctx context.Context, src string) (*StoredImage, error)
}

// ScheduleUpdater keeps the periodic trigger of a configuration in line with its settings
type ScheduleUpdater interface {
	UpdateSchedule(ctx context.Context, cfg *SyncConfiguration) error
}

// Decode unmarshals one raw remote record
func Decode[T any](raw json.RawMessage) (*T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRemoteInvalidBody, err)
	}
	return &v, nil
}

// GetAs performs a GET and decodes the body into T
func GetAs[T any](ctx context.Context, c RemoteClient, endpoint string, params map[string]string) (*T, error) {
	raw, err := c.Get(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}
	return Decode[T](raw)
}

// ListAllAs lists every record of endpoint and decodes them into T.
// A record that does not decode fails the whole listing.
func ListAllAs[T any](ctx context.Context, c RemoteClient, endpoint string, params map[string]string, opts ListOptions) ([]T, error) {
	raws, err := c.ListAll(ctx, endpoint, params, opts)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(raws))
	for i, raw := range raws {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("%w: %s record %d: %v", ErrRemoteInvalidBody, endpoint, i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Persistence ports
// ---------------------------------------------------------------------------

// Store gives access to the repositories. Repositories obtained from the Store passed
// to a Transaction callback are bound to that transaction.
type Store interface {
	Configurations() ConfigurationRepository
	SyncLogs() SyncLogRepository
	References() ReferenceRepository
	Products() ProductRepository
	Customers() CustomerRepository
	Orders() OrderRepository
	Stock() StockRepository

	// Transaction runs fn in one database transaction, rolled back when fn returns an error
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

// ConfigurationRepository persists sync configurations
type ConfigurationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*SyncConfiguration, error)
	FindAll(ctx context.Context) ([]SyncConfiguration, error)
	// FindScheduled returns configurations with scheduling enabled
	FindScheduled(ctx context.Context) ([]SyncConfiguration, error)
	Save(ctx context.Context, cfg *SyncConfiguration) error
}

// SyncLogRepository persists the last-sync timestamp of each configuration
type SyncLogRepository interface {
	// FindByConfiguration returns ErrRecordNotFound when no run has completed yet
	FindByConfiguration(ctx context.Context, configID uuid.UUID) (*SyncLog, error)
	Save(ctx context.Context, log *SyncLog) error
}

// ReferenceRepository persists shared reference entities
type ReferenceRepository interface {
	// Find returns ErrRecordNotFound when nothing matches q
	Find(ctx context.Context, q ReferenceQuery) (*Reference, error)
	// FindByIDs returns the references with the given IDs in no particular order
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Reference, error)
	Create(ctx context.Context, ref *Reference) error
}

// ProductRepository persists product templates and their variants
type ProductRepository interface {
	// FindByRemoteID returns the template with its variants
	FindByRemoteID(ctx context.Context, siteURL string, remoteID int64) (*Product, error)
	// FindByID returns the template with its variants
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	// FindVariantByRemoteID looks a variant up by remote variation ID
	FindVariantByRemoteID(ctx context.Context, siteURL string, remoteID int64) (*ProductVariant, error)
	// FindPlaceholder returns the placeholder product, archived or not
	FindPlaceholder(ctx context.Context) (*Product, error)
	// FindWithRelated returns active templates of siteURL that carry remote related IDs
	FindWithRelated(ctx context.Context, siteURL string) ([]Product, error)
	// FindExportable returns active templates flagged for export that have a SKU,
	// restricted to lang when lang is not empty
	FindExportable(ctx context.Context, lang string) ([]Product, error)
	// FindStockItems returns active, remote-linked, stock-managed simple templates and variants
	FindStockItems(ctx context.Context, siteURL string) ([]StockItem, error)
	// Save creates or updates the template and its variants
	Save(ctx context.Context, p *Product) error
	// SaveVariant creates or updates one variant
	SaveVariant(ctx context.Context, v *ProductVariant) error
	// Delete removes the template and its variants
	Delete(ctx context.Context, id uuid.UUID) error
}

// CustomerRepository persists customers
type CustomerRepository interface {
	FindByRemoteID(ctx context.Context, siteURL string, remoteID int64) (*Customer, error)
	// FindByEmail returns an active customer of siteURL with the given email
	FindByEmail(ctx context.Context, siteURL, email string) (*Customer, error)
	// FindPlaceholder returns the placeholder customer, archived or not
	FindPlaceholder(ctx context.Context) (*Customer, error)
	Save(ctx context.Context, c *Customer) error
}

// OrderRepository persists sales orders and their lines
type OrderRepository interface {
	FindByRemoteID(ctx context.Context, siteURL string, remoteID int64) (*SaleOrder, error)
	Save(ctx context.Context, o *SaleOrder) error
	FindLine(ctx context.Context, orderID uuid.UUID, remoteLineID int64) (*OrderLine, error)
	ListLines(ctx context.Context, orderID uuid.UUID) ([]OrderLine, error)
	SaveLine(ctx context.Context, l *OrderLine) error
}

// StockRepository persists stock records
type StockRepository interface {
	Find(ctx context.Context, siteURL string, productID uuid.UUID, location string) (*StockRecord, error)
	Save(ctx context.Context, rec *StockRecord) error
}
