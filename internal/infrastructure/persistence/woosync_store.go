package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/erp/woosync/internal/domain/woosync"
	"github.com/erp/woosync/internal/infrastructure/persistence/models"
)

// GormStore implements woosync.Store using GORM
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GormStore
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Configurations returns the configuration repository
func (s *GormStore) Configurations() woosync.ConfigurationRepository {
	return &GormConfigurationRepository{db: s.db}
}

// SyncLogs returns the sync log repository
func (s *GormStore) SyncLogs() woosync.SyncLogRepository {
	return &GormSyncLogRepository{db: s.db}
}

// References returns the reference repository
func (s *GormStore) References() woosync.ReferenceRepository {
	return &GormReferenceRepository{db: s.db}
}

// Products returns the product repository
func (s *GormStore) Products() woosync.ProductRepository {
	return &GormProductRepository{db: s.db}
}

// Customers returns the customer repository
func (s *GormStore) Customers() woosync.CustomerRepository {
	return &GormCustomerRepository{db: s.db}
}

// Orders returns the sales order repository
func (s *GormStore) Orders() woosync.OrderRepository {
	return &GormOrderRepository{db: s.db}
}

// Stock returns the stock record repository
func (s *GormStore) Stock() woosync.StockRepository {
	return &GormStockRepository{db: s.db}
}

// Transaction runs fn in a database transaction. Called on a store that is already
// inside a transaction it opens a savepoint.
func (s *GormStore) Transaction(ctx context.Context, fn func(tx woosync.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

// AutoMigrate creates the sync tables; used with SQLite where SQL migrations do not apply
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(models.AllWooSyncModels()...)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return woosync.ErrRecordNotFound
	}
	return err
}

// ---------------------------------------------------------------------------
// Configurations
// ---------------------------------------------------------------------------

// GormConfigurationRepository implements woosync.ConfigurationRepository
type GormConfigurationRepository struct {
	db *gorm.DB
}

// FindByID finds a configuration by its ID
func (r *GormConfigurationRepository) FindByID(ctx context.Context, id uuid.UUID) (*woosync.SyncConfiguration, error) {
	var m models.SyncConfigurationModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return m.ToDomain(), nil
}

// FindAll returns every configuration ordered by creation
func (r *GormConfigurationRepository) FindAll(ctx context.Context) ([]woosync.SyncConfiguration, error) {
	return r.find(ctx, r.db.WithContext(ctx))
}

// FindScheduled returns the configurations with scheduling enabled
func (r *GormConfigurationRepository) FindScheduled(ctx context.Context) ([]woosync.SyncConfiguration, error) {
	return r.find(ctx, r.db.WithContext(ctx).Where("schedule_enabled = ?", true))
}

func (r *GormConfigurationRepository) find(_ context.Context, query *gorm.DB) ([]woosync.SyncConfiguration, error) {
	var rows []models.SyncConfigurationModel
	if err := query.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]woosync.SyncConfiguration, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// Save creates or updates a configuration
func (r *GormConfigurationRepository) Save(ctx context.Context, cfg *woosync.SyncConfiguration) error {
	var m models.SyncConfigurationModel
	m.FromDomain(cfg)
	return r.db.WithContext(ctx).Save(&m).Error
}

// ---------------------------------------------------------------------------
// Sync logs
// ---------------------------------------------------------------------------

// GormSyncLogRepository implements woosync.SyncLogRepository
type GormSyncLogRepository struct {
	db *gorm.DB
}

// FindByConfiguration returns the log of a configuration
func (r *GormSyncLogRepository) FindByConfiguration(ctx context.Context, configID uuid.UUID) (*woosync.SyncLog, error) {
	var m models.SyncLogModel
	if err := r.db.WithContext(ctx).First(&m, "configuration_id = ?", configID).Error; err != nil {
		return nil, notFound(err)
	}
	return m.ToDomain(), nil
}

// Save creates or updates a log
func (r *GormSyncLogRepository) Save(ctx context.Context, log *woosync.SyncLog) error {
	var m models.SyncLogModel
	m.FromDomain(log)
	return r.db.WithContext(ctx).Save(&m).Error
}

// ---------------------------------------------------------------------------
// References
// ---------------------------------------------------------------------------

// GormReferenceRepository implements woosync.ReferenceRepository
type GormReferenceRepository struct {
	db *gorm.DB
}

// Find returns the oldest reference matching q
func (r *GormReferenceRepository) Find(ctx context.Context, q woosync.ReferenceQuery) (*woosync.Reference, error) {
	query := r.db.WithContext(ctx).Where("kind = ?", q.Kind)
	if q.Kind == woosync.ReferenceKindTax {
		query = query.Where("rate = ? AND price_include = ?", q.Rate, q.PriceInclude)
	} else {
		query = query.Where("name_key = ?", q.NameKey)
	}
	if q.ScopeID != nil {
		query = query.Where("scope_id = ?", *q.ScopeID)
	}
	if q.ActiveOnly {
		query = query.Where("active = ?", true)
	}

	var m models.ReferenceModel
	if err := query.Order("created_at ASC").First(&m).Error; err != nil {
		return nil, notFound(err)
	}
	return m.ToDomain(), nil
}

// FindByIDs returns the references with the given IDs
func (r *GormReferenceRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]woosync.Reference, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.ReferenceModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]woosync.Reference, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// Create inserts a reference
func (r *GormReferenceRepository) Create(ctx context.Context, ref *woosync.Reference) error {
	var m models.ReferenceModel
	m.FromDomain(ref)
	return r.db.WithContext(ctx).Create(&m).Error
}

// ---------------------------------------------------------------------------
// Products
// ---------------------------------------------------------------------------

// GormProductRepository implements woosync.ProductRepository
type GormProductRepository struct {
	db *gorm.DB
}

// FindByRemoteID finds a template by its natural key
func (r *GormProductRepository) FindByRemoteID(ctx context.Context, siteURL string, remoteID int64) (*woosync.Product, error) {
	return r.findOne(ctx, r.db.WithContext(ctx).Where("site_url = ? AND remote_id = ?", siteURL, remoteID))
}

// FindByID finds a template by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*woosync.Product, error) {
	return r.findOne(ctx, r.db.WithContext(ctx).Where("id = ?", id))
}

// FindPlaceholder finds the unavailable-product sentinel
func (r *GormProductRepository) FindPlaceholder(ctx context.Context) (*woosync.Product, error) {
	return r.findOne(ctx, r.db.WithContext(ctx).Where("sku = ? AND remote_id = ?", woosync.PlaceholderProductCode, 0))
}

func (r *GormProductRepository) findOne(ctx context.Context, query *gorm.DB) (*woosync.Product, error) {
	var m models.ProductModel
	if err := query.Order("created_at ASC").First(&m).Error; err != nil {
		return nil, notFound(err)
	}
	p := m.ToDomain()
	if err := r.loadVariants(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *GormProductRepository) loadVariants(ctx context.Context, p *woosync.Product) error {
	var rows []models.ProductVariantModel
	if err := r.db.WithContext(ctx).
		Where("template_id = ?", p.ID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return err
	}
	p.Variants = make([]woosync.ProductVariant, len(rows))
	for i := range rows {
		p.Variants[i] = rows[i].ToDomain()
	}
	return nil
}

// FindVariantByRemoteID finds a variant by remote variation ID
func (r *GormProductRepository) FindVariantByRemoteID(ctx context.Context, siteURL string, remoteID int64) (*woosync.ProductVariant, error) {
	var m models.ProductVariantModel
	if err := r.db.WithContext(ctx).
		Where("site_url = ? AND remote_id = ?", siteURL, remoteID).
		First(&m).Error; err != nil {
		return nil, notFound(err)
	}
	v := m.ToDomain()
	return &v, nil
}

// FindWithRelated returns active templates of siteURL with remote related IDs
func (r *GormProductRepository) FindWithRelated(ctx context.Context, siteURL string) ([]woosync.Product, error) {
	var rows []models.ProductModel
	if err := r.db.WithContext(ctx).
		Where("site_url = ? AND active = ? AND remote_id <> 0", siteURL, true).
		Order("remote_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	var out []woosync.Product
	for i := range rows {
		p := rows[i].ToDomain()
		if len(p.RemoteRelatedIDs) > 0 {
			out = append(out, *p)
		}
	}
	return out, nil
}

// FindExportable returns active templates flagged for export, with their variants
func (r *GormProductRepository) FindExportable(ctx context.Context, lang string) ([]woosync.Product, error) {
	query := r.db.WithContext(ctx).
		Where("active = ? AND sync_to_remote = ? AND sku <> '' AND sku <> ?", true, true, woosync.PlaceholderProductCode)
	if lang != "" {
		query = query.Where("lang = ?", lang)
	}
	var rows []models.ProductModel
	if err := query.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]woosync.Product, len(rows))
	for i := range rows {
		p := rows[i].ToDomain()
		if err := r.loadVariants(ctx, p); err != nil {
			return nil, err
		}
		out[i] = *p
	}
	return out, nil
}

// FindStockItems returns stock-managed simple templates and variants linked to siteURL
func (r *GormProductRepository) FindStockItems(ctx context.Context, siteURL string) ([]woosync.StockItem, error) {
	var templates []models.ProductModel
	if err := r.db.WithContext(ctx).
		Where("site_url = ? AND active = ? AND manage_stock = ? AND remote_id <> 0 AND remote_type <> ?",
			siteURL, true, true, woosync.RemoteTypeVariable).
		Order("remote_id ASC").
		Find(&templates).Error; err != nil {
		return nil, err
	}

	var variants []models.ProductVariantModel
	if err := r.db.WithContext(ctx).
		Joins("JOIN woo_products ON woo_products.id = woo_product_variants.template_id").
		Where("woo_product_variants.site_url = ? AND woo_product_variants.active = ? AND woo_product_variants.manage_stock = ?", siteURL, true, true).
		Where("woo_product_variants.remote_id <> 0 AND woo_products.active = ?", true).
		Order("woo_product_variants.remote_id ASC").
		Find(&variants).Error; err != nil {
		return nil, err
	}

	items := make([]woosync.StockItem, 0, len(templates)+len(variants))
	for _, t := range templates {
		items = append(items, woosync.StockItem{ProductID: t.ID, RemoteID: t.RemoteID, Name: t.Name})
	}
	for _, v := range variants {
		items = append(items, woosync.StockItem{
			ProductID:      v.ID,
			RemoteID:       v.RemoteID,
			RemoteParentID: v.RemoteParentID,
			Name:           v.SKU,
		})
	}
	return items, nil
}

// Save creates or updates the template and the variants it carries.
// Variants missing from p are left in place.
func (r *GormProductRepository) Save(ctx context.Context, p *woosync.Product) error {
	var m models.ProductModel
	m.FromDomain(p)
	if err := r.db.WithContext(ctx).Save(&m).Error; err != nil {
		return err
	}
	for i := range p.Variants {
		p.Variants[i].TemplateID = p.ID
		if err := r.SaveVariant(ctx, &p.Variants[i]); err != nil {
			return err
		}
	}
	return nil
}

// SaveVariant creates or updates one variant
func (r *GormProductRepository) SaveVariant(ctx context.Context, v *woosync.ProductVariant) error {
	if v.CreatedAt.IsZero() {
		v.CreatedAt = v.UpdatedAt
	}
	var m models.ProductVariantModel
	m.FromDomain(v)
	return r.db.WithContext(ctx).Save(&m).Error
}

// Delete removes a template, its variants and the stock records of both
func (r *GormProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var productIDs []uuid.UUID
		if err := tx.Model(&models.ProductVariantModel{}).Where("template_id = ?", id).Pluck("id", &productIDs).Error; err != nil {
			return err
		}
		productIDs = append(productIDs, id)
		if err := tx.Where("product_id IN ?", productIDs).Delete(&models.StockRecordModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("template_id = ?", id).Delete(&models.ProductVariantModel{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&models.ProductModel{}).Error
	})
}

// ---------------------------------------------------------------------------
// Customers
// ---------------------------------------------------------------------------

// GormCustomerRepository implements woosync.CustomerRepository
type GormCustomerRepository struct {
	db *gorm.DB
}

// FindByRemoteID finds a customer by its natural key
func (r *GormCustomerRepository) FindByRemoteID(ctx context.Context, siteURL string, remoteID int64) (*woosync.Customer, error) {
	return r.findOne(r.db.WithContext(ctx).Where("site_url = ? AND remote_id = ?", siteURL, remoteID))
}

// FindByEmail finds an active customer of siteURL by email, case-insensitively
func (r *GormCustomerRepository) FindByEmail(ctx context.Context, siteURL, email string) (*woosync.Customer, error) {
	return r.findOne(r.db.WithContext(ctx).
		Where("site_url = ? AND active = ? AND LOWER(email) = ?", siteURL, true, strings.ToLower(strings.TrimSpace(email))))
}

// FindPlaceholder finds the anonymous-customer sentinel
func (r *GormCustomerRepository) FindPlaceholder(ctx context.Context) (*woosync.Customer, error) {
	return r.findOne(r.db.WithContext(ctx).Where("ref = ? AND remote_id = ?", woosync.PlaceholderCustomerRef, 0))
}

func (r *GormCustomerRepository) findOne(query *gorm.DB) (*woosync.Customer, error) {
	var m models.CustomerModel
	if err := query.Order("created_at ASC").First(&m).Error; err != nil {
		return nil, notFound(err)
	}
	return m.ToDomain(), nil
}

// Save creates or updates a customer
func (r *GormCustomerRepository) Save(ctx context.Context, c *woosync.Customer) error {
	var m models.CustomerModel
	m.FromDomain(c)
	return r.db.WithContext(ctx).Save(&m).Error
}

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

// GormOrderRepository implements woosync.OrderRepository
type GormOrderRepository struct {
	db *gorm.DB
}

// FindByRemoteID finds an order by its natural key
func (r *GormOrderRepository) FindByRemoteID(ctx context.Context, siteURL string, remoteID int64) (*woosync.SaleOrder, error) {
	var m models.SaleOrderModel
	if err := r.db.WithContext(ctx).
		Where("site_url = ? AND remote_id = ?", siteURL, remoteID).
		First(&m).Error; err != nil {
		return nil, notFound(err)
	}
	return m.ToDomain(), nil
}

// Save creates or updates an order header
func (r *GormOrderRepository) Save(ctx context.Context, o *woosync.SaleOrder) error {
	var m models.SaleOrderModel
	m.FromDomain(o)
	return r.db.WithContext(ctx).Save(&m).Error
}

// FindLine finds a line of an order by remote line ID
func (r *GormOrderRepository) FindLine(ctx context.Context, orderID uuid.UUID, remoteLineID int64) (*woosync.OrderLine, error) {
	var m models.OrderLineModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ? AND remote_line_id = ?", orderID, remoteLineID).
		First(&m).Error; err != nil {
		return nil, notFound(err)
	}
	return m.ToDomain(), nil
}

// ListLines returns the lines of an order
func (r *GormOrderRepository) ListLines(ctx context.Context, orderID uuid.UUID) ([]woosync.OrderLine, error) {
	var rows []models.OrderLineModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("remote_line_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]woosync.OrderLine, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// SaveLine creates or updates an order line
func (r *GormOrderRepository) SaveLine(ctx context.Context, l *woosync.OrderLine) error {
	var m models.OrderLineModel
	m.FromDomain(l)
	return r.db.WithContext(ctx).Save(&m).Error
}

// ---------------------------------------------------------------------------
// Stock
// ---------------------------------------------------------------------------

// GormStockRepository implements woosync.StockRepository
type GormStockRepository struct {
	db *gorm.DB
}

// Find finds the stock record of a product at a location
func (r *GormStockRepository) Find(ctx context.Context, siteURL string, productID uuid.UUID, location string) (*woosync.StockRecord, error) {
	var m models.StockRecordModel
	if err := r.db.WithContext(ctx).
		Where("site_url = ? AND product_id = ? AND location = ?", siteURL, productID, location).
		First(&m).Error; err != nil {
		return nil, notFound(err)
	}
	return m.ToDomain(), nil
}

// Save creates or updates a stock record
func (r *GormStockRepository) Save(ctx context.Context, rec *woosync.StockRecord) error {
	var m models.StockRecordModel
	m.FromDomain(rec)
	return r.db.WithContext(ctx).Save(&m).Error
}
