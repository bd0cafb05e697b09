package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/erp/woosync/internal/domain/woosync"
)

// encodeJSON serializes v for a text column. Nil slices are stored as "[]".
func encodeJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil || string(b) == "null" {
		return "[]"
	}
	return string(b)
}

// decodeJSON parses a text column into out; empty or invalid content leaves out untouched
func decodeJSON(raw string, out any) {
	if raw == "" {
		return
	}
	_ = json.Unmarshal([]byte(raw), out)
}

// ---------------------------------------------------------------------------
// Sync configuration and log
// ---------------------------------------------------------------------------

// SyncConfigurationModel is the persistence model for SyncConfiguration
type SyncConfigurationModel struct {
	ID                      uuid.UUID `gorm:"type:uuid;primary_key"`
	Name                    string    `gorm:"type:varchar(200)"`
	SiteURL                 string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_woo_sync_configurations_site"`
	ConsumerKey             string    `gorm:"type:varchar(255);not null"`
	ConsumerSecret          string    `gorm:"type:varchar(255);not null"`
	TimeoutSeconds          int       `gorm:"not null;default:30"`
	QueryStringAuth         bool      `gorm:"not null;default:false"`
	ImportProducts          bool      `gorm:"not null;default:true"`
	ExportProducts          bool      `gorm:"not null;default:false"`
	ImportVariations        bool      `gorm:"not null;default:true"`
	ImportCustomers         bool      `gorm:"not null;default:true"`
	ImportOrders            bool      `gorm:"not null;default:true"`
	IncrementalImport       bool      `gorm:"not null;default:false"`
	ImagesSync              bool      `gorm:"not null;default:true"`
	StockManagement         bool      `gorm:"not null;default:false"`
	StockLocation           string    `gorm:"type:varchar(100)"`
	RelatedProductsMap      bool      `gorm:"not null;default:false"`
	OrdersCustomersMap      bool      `gorm:"not null;default:false"`
	LineItemProductsMap     bool      `gorm:"not null;default:false"`
	TestMode                bool      `gorm:"not null;default:false"`
	ResponsibleUser         string    `gorm:"type:varchar(100)"`
	ImportLanguage          string    `gorm:"type:varchar(10)"`
	ExportLanguage          string    `gorm:"type:varchar(10)"`
	ScheduleEnabled         bool      `gorm:"not null;default:false;index"`
	ScheduleIntervalMinutes int       `gorm:"not null;default:5"`
	CreatedAt               time.Time `gorm:"not null;autoCreateTime:false"`
	UpdatedAt               time.Time `gorm:"not null;autoUpdateTime:false"`
}

// TableName returns the table name for GORM
func (SyncConfigurationModel) TableName() string {
	return "woo_sync_configurations"
}

// ToDomain converts the persistence model to a domain SyncConfiguration
func (m *SyncConfigurationModel) ToDomain() *woosync.SyncConfiguration {
	return &woosync.SyncConfiguration{
		ID:                      m.ID,
		Name:                    m.Name,
		SiteURL:                 m.SiteURL,
		ConsumerKey:             m.ConsumerKey,
		ConsumerSecret:          m.ConsumerSecret,
		TimeoutSeconds:          m.TimeoutSeconds,
		QueryStringAuth:         m.QueryStringAuth,
		ImportProducts:          m.ImportProducts,
		ExportProducts:          m.ExportProducts,
		ImportVariations:        m.ImportVariations,
		ImportCustomers:         m.ImportCustomers,
		ImportOrders:            m.ImportOrders,
		IncrementalImport:       m.IncrementalImport,
		ImagesSync:              m.ImagesSync,
		StockManagement:         m.StockManagement,
		StockLocation:           m.StockLocation,
		RelatedProductsMap:      m.RelatedProductsMap,
		OrdersCustomersMap:      m.OrdersCustomersMap,
		LineItemProductsMap:     m.LineItemProductsMap,
		TestMode:                m.TestMode,
		ResponsibleUser:         m.ResponsibleUser,
		ImportLanguage:          m.ImportLanguage,
		ExportLanguage:          m.ExportLanguage,
		ScheduleEnabled:         m.ScheduleEnabled,
		ScheduleIntervalMinutes: m.ScheduleIntervalMinutes,
		CreatedAt:               m.CreatedAt,
		UpdatedAt:               m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain SyncConfiguration
func (m *SyncConfigurationModel) FromDomain(c *woosync.SyncConfiguration) {
	m.ID = c.ID
	m.Name = c.Name
	m.SiteURL = c.SiteURL
	m.ConsumerKey = c.ConsumerKey
	m.ConsumerSecret = c.ConsumerSecret
	m.TimeoutSeconds = c.TimeoutSeconds
	m.QueryStringAuth = c.QueryStringAuth
	m.ImportProducts = c.ImportProducts
	m.ExportProducts = c.ExportProducts
	m.ImportVariations = c.ImportVariations
	m.ImportCustomers = c.ImportCustomers
	m.ImportOrders = c.ImportOrders
	m.IncrementalImport = c.IncrementalImport
	m.ImagesSync = c.ImagesSync
	m.StockManagement = c.StockManagement
	m.StockLocation = c.StockLocation
	m.RelatedProductsMap = c.RelatedProductsMap
	m.OrdersCustomersMap = c.OrdersCustomersMap
	m.LineItemProductsMap = c.LineItemProductsMap
	m.TestMode = c.TestMode
	m.ResponsibleUser = c.ResponsibleUser
	m.ImportLanguage = c.ImportLanguage
	m.ExportLanguage = c.ExportLanguage
	m.ScheduleEnabled = c.ScheduleEnabled
	m.ScheduleIntervalMinutes = c.ScheduleIntervalMinutes
	m.CreatedAt = c.CreatedAt
	m.UpdatedAt = c.UpdatedAt
}

// SyncLogModel is the persistence model for SyncLog
type SyncLogModel struct {
	ID              uuid.UUID  `gorm:"type:uuid;primary_key"`
	ConfigurationID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_woo_sync_logs_configuration"`
	LastSyncedAt    *time.Time
	UpdatedAt       time.Time  `gorm:"not null;autoUpdateTime:false"`
}

// TableName returns the table name for GORM
func (SyncLogModel) TableName() string {
	return "woo_sync_logs"
}

// ToDomain converts the persistence model to a domain SyncLog
func (m *SyncLogModel) ToDomain() *woosync.SyncLog {
	return &woosync.SyncLog{
		ID:              m.ID,
		ConfigurationID: m.ConfigurationID,
		LastSyncedAt:    m.LastSyncedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain SyncLog
func (m *SyncLogModel) FromDomain(l *woosync.SyncLog) {
	m.ID = l.ID
	m.ConfigurationID = l.ConfigurationID
	m.LastSyncedAt = l.LastSyncedAt
	m.UpdatedAt = l.UpdatedAt
}

// ---------------------------------------------------------------------------
// References
// ---------------------------------------------------------------------------

// ReferenceModel is the persistence model for the shared reference entities
type ReferenceModel struct {
	ID            uuid.UUID             `gorm:"type:uuid;primary_key"`
	Kind          woosync.ReferenceKind `gorm:"type:varchar(20);not null;index:idx_woo_references_lookup,priority:1"`
	Name          string                `gorm:"type:varchar(255);not null"`
	NameKey       string                `gorm:"type:varchar(255);not null;index:idx_woo_references_lookup,priority:2"`
	ScopeID       *uuid.UUID            `gorm:"type:uuid;index"`
	Rate          decimal.Decimal       `gorm:"type:decimal(10,4);not null;default:0"`
	PriceInclude  bool                  `gorm:"not null;default:false"`
	TaxScope      string                `gorm:"type:varchar(20)"`
	UnitCategory  string                `gorm:"type:varchar(50)"`
	UnitFactor    decimal.Decimal       `gorm:"type:decimal(18,6);not null;default:1"`
	UnitType      string                `gorm:"type:varchar(20)"`
	CreateVariant string                `gorm:"type:varchar(20)"`
	Active        bool                  `gorm:"not null;default:true"`
	CreatedAt     time.Time             `gorm:"not null;autoCreateTime:false"`
}

// TableName returns the table name for GORM
func (ReferenceModel) TableName() string {
	return "woo_references"
}

// ToDomain converts the persistence model to a domain Reference
func (m *ReferenceModel) ToDomain() *woosync.Reference {
	return &woosync.Reference{
		ID:            m.ID,
		Kind:          m.Kind,
		Name:          m.Name,
		NameKey:       m.NameKey,
		ScopeID:       m.ScopeID,
		Rate:          m.Rate,
		PriceInclude:  m.PriceInclude,
		TaxScope:      m.TaxScope,
		UnitCategory:  m.UnitCategory,
		UnitFactor:    m.UnitFactor,
		UnitType:      m.UnitType,
		CreateVariant: m.CreateVariant,
		Active:        m.Active,
		CreatedAt:     m.CreatedAt,
	}
}

// FromDomain populates the persistence model from a domain Reference
func (m *ReferenceModel) FromDomain(r *woosync.Reference) {
	m.ID = r.ID
	m.Kind = r.Kind
	m.Name = r.Name
	m.NameKey = r.NameKey
	m.ScopeID = r.ScopeID
	m.Rate = r.Rate
	m.PriceInclude = r.PriceInclude
	m.TaxScope = r.TaxScope
	m.UnitCategory = r.UnitCategory
	m.UnitFactor = r.UnitFactor
	m.UnitType = r.UnitType
	m.CreateVariant = r.CreateVariant
	m.Active = r.Active
	m.CreatedAt = r.CreatedAt
	if m.UnitFactor.IsZero() {
		m.UnitFactor = decimal.NewFromInt(1)
	}
}

// ---------------------------------------------------------------------------
// Products
// ---------------------------------------------------------------------------

// ProductModel is the persistence model for a product template
type ProductModel struct {
	ID                    uuid.UUID           `gorm:"type:uuid;primary_key"`
	SiteURL               string              `gorm:"type:varchar(255);not null;default:'';index:idx_woo_products_remote,priority:1"`
	RemoteID              int64               `gorm:"not null;default:0;index:idx_woo_products_remote,priority:2"`
	RemoteType            string              `gorm:"type:varchar(20)"`
	RemoteStatus          string              `gorm:"type:varchar(20)"`
	Name                  string              `gorm:"type:varchar(255);not null"`
	SKU                   string              `gorm:"column:sku;type:varchar(100);index"`
	Kind                  woosync.ProductKind `gorm:"type:varchar(20);not null"`
	ManageStock           bool                `gorm:"not null;default:false"`
	Description           string              `gorm:"type:text"`
	SaleDescription       string              `gorm:"type:text"`
	Active                bool                `gorm:"not null;default:true"`
	SaleOK                bool                `gorm:"not null;default:true"`
	ListPrice             decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	CurrencyID            *uuid.UUID          `gorm:"type:uuid"`
	TaxIDsJSON            string              `gorm:"column:tax_ids;type:text"`
	TaxRate               decimal.Decimal     `gorm:"type:decimal(10,4);not null;default:0"`
	SalePrice             decimal.NullDecimal `gorm:"type:decimal(18,4)"`
	SaleFrom              *time.Time
	SaleTo                *time.Time
	BrandID               *uuid.UUID          `gorm:"type:uuid"`
	CategoryID            *uuid.UUID          `gorm:"type:uuid"`
	CategoryIDsJSON       string              `gorm:"column:category_ids;type:text"`
	TagIDsJSON            string              `gorm:"column:tag_ids;type:text"`
	Weight                decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	WeightUnitID          *uuid.UUID          `gorm:"type:uuid"`
	Length                decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	Width                 decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	Height                decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	DimensionUnitID       *uuid.UUID          `gorm:"type:uuid"`
	Volume                decimal.NullDecimal `gorm:"type:decimal(18,6)"`
	ImageKey              string              `gorm:"type:varchar(500)"`
	ImagesJSON            string              `gorm:"column:images;type:text"`
	AttributeLinesJSON    string              `gorm:"column:attribute_lines;type:text"`
	RemoteRelatedIDsJSON  string              `gorm:"column:remote_related_ids;type:text"`
	RelatedProductIDsJSON string              `gorm:"column:related_product_ids;type:text"`
	ResponsibleUser       string              `gorm:"type:varchar(100)"`
	Lang                  string              `gorm:"type:varchar(10);index"`
	SyncToRemote          bool                `gorm:"not null;default:false"`
	Source                string              `gorm:"type:varchar(20)"`
	RemoteCreatedAt       *time.Time
	RemoteModifiedAt      *time.Time
	SyncedAt              *time.Time
	CreatedAt             time.Time           `gorm:"not null;autoCreateTime:false"`
	UpdatedAt             time.Time           `gorm:"not null;autoUpdateTime:false"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "woo_products"
}

// ToDomain converts the persistence model to a domain Product without variants
func (m *ProductModel) ToDomain() *woosync.Product {
	p := &woosync.Product{
		ID:               m.ID,
		SiteURL:          m.SiteURL,
		RemoteID:         m.RemoteID,
		RemoteType:       m.RemoteType,
		RemoteStatus:     m.RemoteStatus,
		Name:             m.Name,
		SKU:              m.SKU,
		Kind:             m.Kind,
		ManageStock:      m.ManageStock,
		Description:      m.Description,
		SaleDescription:  m.SaleDescription,
		Active:           m.Active,
		SaleOK:           m.SaleOK,
		ListPrice:        m.ListPrice,
		CurrencyID:       m.CurrencyID,
		TaxRate:          m.TaxRate,
		SalePrice:        m.SalePrice,
		SaleFrom:         m.SaleFrom,
		SaleTo:           m.SaleTo,
		BrandID:          m.BrandID,
		CategoryID:       m.CategoryID,
		Weight:           m.Weight,
		WeightUnitID:     m.WeightUnitID,
		Length:           m.Length,
		Width:            m.Width,
		Height:           m.Height,
		DimensionUnitID:  m.DimensionUnitID,
		Volume:           m.Volume,
		ImageKey:         m.ImageKey,
		ResponsibleUser:  m.ResponsibleUser,
		Lang:             m.Lang,
		SyncToRemote:     m.SyncToRemote,
		Source:           m.Source,
		RemoteCreatedAt:  m.RemoteCreatedAt,
		RemoteModifiedAt: m.RemoteModifiedAt,
		SyncedAt:         m.SyncedAt,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
	decodeJSON(m.TaxIDsJSON, &p.TaxIDs)
	decodeJSON(m.CategoryIDsJSON, &p.CategoryIDs)
	decodeJSON(m.TagIDsJSON, &p.TagIDs)
	decodeJSON(m.ImagesJSON, &p.Images)
	decodeJSON(m.AttributeLinesJSON, &p.AttributeLines)
	decodeJSON(m.RemoteRelatedIDsJSON, &p.RemoteRelatedIDs)
	decodeJSON(m.RelatedProductIDsJSON, &p.RelatedProductIDs)
	return p
}

// FromDomain populates the persistence model from a domain Product
func (m *ProductModel) FromDomain(p *woosync.Product) {
	m.ID = p.ID
	m.SiteURL = p.SiteURL
	m.RemoteID = p.RemoteID
	m.RemoteType = p.RemoteType
	m.RemoteStatus = p.RemoteStatus
	m.Name = p.Name
	m.SKU = p.SKU
	m.Kind = p.Kind
	m.ManageStock = p.ManageStock
	m.Description = p.Description
	m.SaleDescription = p.SaleDescription
	m.Active = p.Active
	m.SaleOK = p.SaleOK
	m.ListPrice = p.ListPrice
	m.CurrencyID = p.CurrencyID
	m.TaxIDsJSON = encodeJSON(p.TaxIDs)
	m.TaxRate = p.TaxRate
	m.SalePrice = p.SalePrice
	m.SaleFrom = p.SaleFrom
	m.SaleTo = p.SaleTo
	m.BrandID = p.BrandID
	m.CategoryID = p.CategoryID
	m.CategoryIDsJSON = encodeJSON(p.CategoryIDs)
	m.TagIDsJSON = encodeJSON(p.TagIDs)
	m.Weight = p.Weight
	m.WeightUnitID = p.WeightUnitID
	m.Length = p.Length
	m.Width = p.Width
	m.Height = p.Height
	m.DimensionUnitID = p.DimensionUnitID
	m.Volume = p.Volume
	m.ImageKey = p.ImageKey
	m.ImagesJSON = encodeJSON(p.Images)
	m.AttributeLinesJSON = encodeJSON(p.AttributeLines)
	m.RemoteRelatedIDsJSON = encodeJSON(p.RemoteRelatedIDs)
	m.RelatedProductIDsJSON = encodeJSON(p.RelatedProductIDs)
	m.ResponsibleUser = p.ResponsibleUser
	m.Lang = p.Lang
	m.SyncToRemote = p.SyncToRemote
	m.Source = p.Source
	m.RemoteCreatedAt = p.RemoteCreatedAt
	m.RemoteModifiedAt = p.RemoteModifiedAt
	m.SyncedAt = p.SyncedAt
	m.CreatedAt = p.CreatedAt
	m.UpdatedAt = p.UpdatedAt
}

// ProductVariantModel is the persistence model for a product variant
type ProductVariantModel struct {
	ID                    uuid.UUID           `gorm:"type:uuid;primary_key"`
	TemplateID            uuid.UUID           `gorm:"type:uuid;not null;index"`
	SiteURL               string              `gorm:"type:varchar(255);not null;default:'';index:idx_woo_product_variants_remote,priority:1"`
	RemoteID              int64               `gorm:"not null;default:0;index:idx_woo_product_variants_remote,priority:2"`
	RemoteParentID        int64               `gorm:"not null;default:0"`
	SKU                   string              `gorm:"column:sku;type:varchar(100)"`
	Kind                  woosync.ProductKind `gorm:"type:varchar(20);not null"`
	ManageStock           bool                `gorm:"not null;default:false"`
	Description           string              `gorm:"type:text"`
	Active                bool                `gorm:"not null;default:true"`
	SaleOK                bool                `gorm:"not null;default:true"`
	ListPrice             decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	CurrencyID            *uuid.UUID          `gorm:"type:uuid"`
	TaxIDsJSON            string              `gorm:"column:tax_ids;type:text"`
	TaxRate               decimal.Decimal     `gorm:"type:decimal(10,4);not null;default:0"`
	Weight                decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	WeightUnitID          *uuid.UUID          `gorm:"type:uuid"`
	Volume                decimal.NullDecimal `gorm:"type:decimal(18,6)"`
	ImageKey              string              `gorm:"type:varchar(500)"`
	AttributeValueIDsJSON string              `gorm:"column:attribute_value_ids;type:text"`
	RemoteCreatedAt       *time.Time
	RemoteModifiedAt      *time.Time
	SyncedAt              *time.Time
	CreatedAt             time.Time           `gorm:"not null;autoCreateTime:false"`
	UpdatedAt             time.Time           `gorm:"not null;autoUpdateTime:false"`
}

// TableName returns the table name for GORM
func (ProductVariantModel) TableName() string {
	return "woo_product_variants"
}

// ToDomain converts the persistence model to a domain ProductVariant
func (m *ProductVariantModel) ToDomain() woosync.ProductVariant {
	v := woosync.ProductVariant{
		ID:               m.ID,
		TemplateID:       m.TemplateID,
		SiteURL:          m.SiteURL,
		RemoteID:         m.RemoteID,
		RemoteParentID:   m.RemoteParentID,
		SKU:              m.SKU,
		Kind:             m.Kind,
		ManageStock:      m.ManageStock,
		Description:      m.Description,
		Active:           m.Active,
		SaleOK:           m.SaleOK,
		ListPrice:        m.ListPrice,
		CurrencyID:       m.CurrencyID,
		TaxRate:          m.TaxRate,
		Weight:           m.Weight,
		WeightUnitID:     m.WeightUnitID,
		Volume:           m.Volume,
		ImageKey:         m.ImageKey,
		RemoteCreatedAt:  m.RemoteCreatedAt,
		RemoteModifiedAt: m.RemoteModifiedAt,
		SyncedAt:         m.SyncedAt,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
	decodeJSON(m.TaxIDsJSON, &v.TaxIDs)
	decodeJSON(m.AttributeValueIDsJSON, &v.AttributeValueIDs)
	return v
}

// FromDomain populates the persistence model from a domain ProductVariant
func (m *ProductVariantModel) FromDomain(v *woosync.ProductVariant) {
	m.ID = v.ID
	m.TemplateID = v.TemplateID
	m.SiteURL = v.SiteURL
	m.RemoteID = v.RemoteID
	m.RemoteParentID = v.RemoteParentID
	m.SKU = v.SKU
	m.Kind = v.Kind
	m.ManageStock = v.ManageStock
	m.Description = v.Description
	m.Active = v.Active
	m.SaleOK = v.SaleOK
	m.ListPrice = v.ListPrice
	m.CurrencyID = v.CurrencyID
	m.TaxIDsJSON = encodeJSON(v.TaxIDs)
	m.TaxRate = v.TaxRate
	m.Weight = v.Weight
	m.WeightUnitID = v.WeightUnitID
	m.Volume = v.Volume
	m.ImageKey = v.ImageKey
	m.AttributeValueIDsJSON = encodeJSON(v.AttributeValueIDs)
	m.RemoteCreatedAt = v.RemoteCreatedAt
	m.RemoteModifiedAt = v.RemoteModifiedAt
	m.SyncedAt = v.SyncedAt
	m.CreatedAt = v.CreatedAt
	m.UpdatedAt = v.UpdatedAt
}

// ---------------------------------------------------------------------------
// Customers
// ---------------------------------------------------------------------------

// CustomerModel is the persistence model for Customer
type CustomerModel struct {
	ID               uuid.UUID  `gorm:"type:uuid;primary_key"`
	SiteURL          string     `gorm:"type:varchar(255);not null;default:'';index:idx_woo_customers_remote,priority:1"`
	RemoteID         int64      `gorm:"not null;default:0;index:idx_woo_customers_remote,priority:2"`
	Name             string     `gorm:"type:varchar(255)"`
	Ref              string     `gorm:"type:varchar(100);index"`
	CompanyType      string     `gorm:"type:varchar(20)"`
	CustomerRank     int        `gorm:"not null;default:0"`
	Email            string     `gorm:"type:varchar(255);index"`
	Mobile           string     `gorm:"type:varchar(50)"`
	Street           string     `gorm:"type:varchar(255)"`
	Street2          string     `gorm:"type:varchar(255)"`
	City             string     `gorm:"type:varchar(100)"`
	State            string     `gorm:"type:varchar(100)"`
	Zip              string     `gorm:"type:varchar(20)"`
	CountryCode      string     `gorm:"type:varchar(2)"`
	Username         string     `gorm:"type:varchar(100)"`
	Role             string     `gorm:"type:varchar(50)"`
	ImageKey         string     `gorm:"type:varchar(500)"`
	ResponsibleUser  string     `gorm:"type:varchar(100)"`
	Active           bool       `gorm:"not null;default:true"`
	LastLoginAt      *time.Time
	RemoteCreatedAt  *time.Time
	RemoteModifiedAt *time.Time
	SyncedAt         *time.Time
	CreatedAt        time.Time  `gorm:"not null;autoCreateTime:false"`
	UpdatedAt        time.Time  `gorm:"not null;autoUpdateTime:false"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "woo_customers"
}

// ToDomain converts the persistence model to a domain Customer
func (m *CustomerModel) ToDomain() *woosync.Customer {
	return &woosync.Customer{
		ID:               m.ID,
		SiteURL:          m.SiteURL,
		RemoteID:         m.RemoteID,
		Name:             m.Name,
		Ref:              m.Ref,
		CompanyType:      m.CompanyType,
		CustomerRank:     m.CustomerRank,
		Email:            m.Email,
		Mobile:           m.Mobile,
		Street:           m.Street,
		Street2:          m.Street2,
		City:             m.City,
		State:            m.State,
		Zip:              m.Zip,
		CountryCode:      m.CountryCode,
		Username:         m.Username,
		Role:             m.Role,
		ImageKey:         m.ImageKey,
		ResponsibleUser:  m.ResponsibleUser,
		Active:           m.Active,
		LastLoginAt:      m.LastLoginAt,
		RemoteCreatedAt:  m.RemoteCreatedAt,
		RemoteModifiedAt: m.RemoteModifiedAt,
		SyncedAt:         m.SyncedAt,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Customer
func (m *CustomerModel) FromDomain(c *woosync.Customer) {
	m.ID = c.ID
	m.SiteURL = c.SiteURL
	m.RemoteID = c.RemoteID
	m.Name = c.Name
	m.Ref = c.Ref
	m.CompanyType = c.CompanyType
	m.CustomerRank = c.CustomerRank
	m.Email = c.Email
	m.Mobile = c.Mobile
	m.Street = c.Street
	m.Street2 = c.Street2
	m.City = c.City
	m.State = c.State
	m.Zip = c.Zip
	m.CountryCode = c.CountryCode
	m.Username = c.Username
	m.Role = c.Role
	m.ImageKey = c.ImageKey
	m.ResponsibleUser = c.ResponsibleUser
	m.Active = c.Active
	m.LastLoginAt = c.LastLoginAt
	m.RemoteCreatedAt = c.RemoteCreatedAt
	m.RemoteModifiedAt = c.RemoteModifiedAt
	m.SyncedAt = c.SyncedAt
	m.CreatedAt = c.CreatedAt
	m.UpdatedAt = c.UpdatedAt
}

// ---------------------------------------------------------------------------
// Sales orders
// ---------------------------------------------------------------------------

// SaleOrderModel is the persistence model for SaleOrder
type SaleOrderModel struct {
	ID                 uuid.UUID           `gorm:"type:uuid;primary_key"`
	SiteURL            string              `gorm:"type:varchar(255);not null;index:idx_woo_sale_orders_remote,priority:1"`
	RemoteID           int64               `gorm:"not null;index:idx_woo_sale_orders_remote,priority:2"`
	Name               string              `gorm:"type:varchar(255)"`
	Number             string              `gorm:"type:varchar(50)"`
	ClientOrderRef     string              `gorm:"type:varchar(50)"`
	Origin             string              `gorm:"type:varchar(50)"`
	State              woosync.OrderState  `gorm:"type:varchar(20);not null"`
	RemoteStatus       string              `gorm:"type:varchar(20)"`
	DateOrder          *time.Time
	CustomerID         uuid.UUID           `gorm:"type:uuid;not null;index"`
	CurrencyID         *uuid.UUID          `gorm:"type:uuid"`
	Note               string              `gorm:"type:text"`
	ResponsibleUser    string              `gorm:"type:varchar(100)"`
	PricesIncludeTax   bool                `gorm:"not null;default:false"`
	Total              decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	TotalTax           decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	DiscountTotal      decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	ShippingTotal      decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	PaymentMethod      string              `gorm:"type:varchar(100)"`
	PaymentMethodTitle string              `gorm:"type:varchar(255)"`
	TransactionID      string              `gorm:"type:varchar(255)"`
	TransactionFee     decimal.NullDecimal `gorm:"type:decimal(18,4)"`
	Lang               string              `gorm:"type:varchar(10)"`
	DatePaid           *time.Time
	DateCompleted      *time.Time
	RemoteCreatedAt    *time.Time
	RemoteModifiedAt   *time.Time
	SyncedAt           *time.Time
	CreatedAt          time.Time           `gorm:"not null;autoCreateTime:false"`
	UpdatedAt          time.Time           `gorm:"not null;autoUpdateTime:false"`
}

// TableName returns the table name for GORM
func (SaleOrderModel) TableName() string {
	return "woo_sale_orders"
}

// ToDomain converts the persistence model to a domain SaleOrder
func (m *SaleOrderModel) ToDomain() *woosync.SaleOrder {
	return &woosync.SaleOrder{
		ID:                 m.ID,
		SiteURL:            m.SiteURL,
		RemoteID:           m.RemoteID,
		Name:               m.Name,
		Number:             m.Number,
		ClientOrderRef:     m.ClientOrderRef,
		Origin:             m.Origin,
		State:              m.State,
		RemoteStatus:       m.RemoteStatus,
		DateOrder:          m.DateOrder,
		CustomerID:         m.CustomerID,
		CurrencyID:         m.CurrencyID,
		Note:               m.Note,
		ResponsibleUser:    m.ResponsibleUser,
		PricesIncludeTax:   m.PricesIncludeTax,
		Total:              m.Total,
		TotalTax:           m.TotalTax,
		DiscountTotal:      m.DiscountTotal,
		ShippingTotal:      m.ShippingTotal,
		PaymentMethod:      m.PaymentMethod,
		PaymentMethodTitle: m.PaymentMethodTitle,
		TransactionID:      m.TransactionID,
		TransactionFee:     m.TransactionFee,
		Lang:               m.Lang,
		DatePaid:           m.DatePaid,
		DateCompleted:      m.DateCompleted,
		RemoteCreatedAt:    m.RemoteCreatedAt,
		RemoteModifiedAt:   m.RemoteModifiedAt,
		SyncedAt:           m.SyncedAt,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain SaleOrder
func (m *SaleOrderModel) FromDomain(o *woosync.SaleOrder) {
	m.ID = o.ID
	m.SiteURL = o.SiteURL
	m.RemoteID = o.RemoteID
	m.Name = o.Name
	m.Number = o.Number
	m.ClientOrderRef = o.ClientOrderRef
	m.Origin = o.Origin
	m.State = o.State
	m.RemoteStatus = o.RemoteStatus
	m.DateOrder = o.DateOrder
	m.CustomerID = o.CustomerID
	m.CurrencyID = o.CurrencyID
	m.Note = o.Note
	m.ResponsibleUser = o.ResponsibleUser
	m.PricesIncludeTax = o.PricesIncludeTax
	m.Total = o.Total
	m.TotalTax = o.TotalTax
	m.DiscountTotal = o.DiscountTotal
	m.ShippingTotal = o.ShippingTotal
	m.PaymentMethod = o.PaymentMethod
	m.PaymentMethodTitle = o.PaymentMethodTitle
	m.TransactionID = o.TransactionID
	m.TransactionFee = o.TransactionFee
	m.Lang = o.Lang
	m.DatePaid = o.DatePaid
	m.DateCompleted = o.DateCompleted
	m.RemoteCreatedAt = o.RemoteCreatedAt
	m.RemoteModifiedAt = o.RemoteModifiedAt
	m.SyncedAt = o.SyncedAt
	m.CreatedAt = o.CreatedAt
	m.UpdatedAt = o.UpdatedAt
}

// OrderLineModel is the persistence model for OrderLine
type OrderLineModel struct {
	ID                uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID           uuid.UUID       `gorm:"type:uuid;not null;index:idx_woo_order_lines_remote,priority:1"`
	SiteURL           string          `gorm:"type:varchar(255);not null"`
	RemoteLineID      int64           `gorm:"not null;index:idx_woo_order_lines_remote,priority:2"`
	Name              string          `gorm:"type:varchar(255)"`
	ProductID         uuid.UUID       `gorm:"type:uuid;not null"`
	VariantID         *uuid.UUID      `gorm:"type:uuid"`
	RemoteProductID   int64           `gorm:"not null;default:0"`
	RemoteVariationID int64           `gorm:"not null;default:0"`
	SKU               string          `gorm:"column:sku;type:varchar(100)"`
	Quantity          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PriceUnit         decimal.Decimal `gorm:"type:decimal(18,6);not null;default:0"`
	Subtotal          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	SubtotalTax       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Total             decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalTax          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TaxRate           decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0"`
	TaxIDsJSON        string          `gorm:"column:tax_ids;type:text"`
	UnitID            *uuid.UUID      `gorm:"type:uuid"`
	CreatedAt         time.Time       `gorm:"not null;autoCreateTime:false"`
	UpdatedAt         time.Time       `gorm:"not null;autoUpdateTime:false"`
}

// TableName returns the table name for GORM
func (OrderLineModel) TableName() string {
	return "woo_order_lines"
}

// ToDomain converts the persistence model to a domain OrderLine
func (m *OrderLineModel) ToDomain() *woosync.OrderLine {
	l := &woosync.OrderLine{
		ID:                m.ID,
		OrderID:           m.OrderID,
		SiteURL:           m.SiteURL,
		RemoteLineID:      m.RemoteLineID,
		Name:              m.Name,
		ProductID:         m.ProductID,
		VariantID:         m.VariantID,
		RemoteProductID:   m.RemoteProductID,
		RemoteVariationID: m.RemoteVariationID,
		SKU:               m.SKU,
		Quantity:          m.Quantity,
		PriceUnit:         m.PriceUnit,
		Subtotal:          m.Subtotal,
		SubtotalTax:       m.SubtotalTax,
		Total:             m.Total,
		TotalTax:          m.TotalTax,
		TaxRate:           m.TaxRate,
		UnitID:            m.UnitID,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
	decodeJSON(m.TaxIDsJSON, &l.TaxIDs)
	return l
}

// FromDomain populates the persistence model from a domain OrderLine
func (m *OrderLineModel) FromDomain(l *woosync.OrderLine) {
	m.ID = l.ID
	m.OrderID = l.OrderID
	m.SiteURL = l.SiteURL
	m.RemoteLineID = l.RemoteLineID
	m.Name = l.Name
	m.ProductID = l.ProductID
	m.VariantID = l.VariantID
	m.RemoteProductID = l.RemoteProductID
	m.RemoteVariationID = l.RemoteVariationID
	m.SKU = l.SKU
	m.Quantity = l.Quantity
	m.PriceUnit = l.PriceUnit
	m.Subtotal = l.Subtotal
	m.SubtotalTax = l.SubtotalTax
	m.Total = l.Total
	m.TotalTax = l.TotalTax
	m.TaxRate = l.TaxRate
	m.TaxIDsJSON = encodeJSON(l.TaxIDs)
	m.UnitID = l.UnitID
	m.CreatedAt = l.CreatedAt
	m.UpdatedAt = l.UpdatedAt
}

// ---------------------------------------------------------------------------
// Stock
// ---------------------------------------------------------------------------

// StockRecordModel is the persistence model for StockRecord
type StockRecordModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key"`
	SiteURL        string          `gorm:"type:varchar(255);not null;uniqueIndex:idx_woo_stock_records_key,priority:1"`
	ProductID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_woo_stock_records_key,priority:2"`
	Location       string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_woo_stock_records_key,priority:3"`
	Quantity       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	StockUpdatedAt *time.Time
	UpdatedAt      time.Time       `gorm:"not null;autoUpdateTime:false"`
}

// TableName returns the table name for GORM
func (StockRecordModel) TableName() string {
	return "woo_stock_records"
}

// ToDomain converts the persistence model to a domain StockRecord
func (m *StockRecordModel) ToDomain() *woosync.StockRecord {
	return &woosync.StockRecord{
		ID:             m.ID,
		SiteURL:        m.SiteURL,
		ProductID:      m.ProductID,
		Location:       m.Location,
		Quantity:       m.Quantity,
		StockUpdatedAt: m.StockUpdatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain StockRecord
func (m *StockRecordModel) FromDomain(s *woosync.StockRecord) {
	m.ID = s.ID
	m.SiteURL = s.SiteURL
	m.ProductID = s.ProductID
	m.Location = s.Location
	m.Quantity = s.Quantity
	m.StockUpdatedAt = s.StockUpdatedAt
	m.UpdatedAt = s.UpdatedAt
}

// AllWooSyncModels lists every model, in dependency order, for AutoMigrate
func AllWooSyncModels() []any {
	return []any{
		&SyncConfigurationModel{},
		&SyncLogModel{},
		&ReferenceModel{},
		&ProductModel{},
		&ProductVariantModel{},
		&CustomerModel{},
		&SaleOrderModel{},
		&OrderLineModel{},
		&StockRecordModel{},
	}
}
