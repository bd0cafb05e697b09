package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/erp/woosync/internal/domain/woosync"
)

// SyncConfigurationRequest is the body of a create or update of a store link.
// Flags left nil keep their default (create) or current (update) value.
type SyncConfigurationRequest struct {
	ID              *uuid.UUID `json:"id,omitempty"`
	Name            string     `json:"name" binding:"max=200"`
	SiteURL         string     `json:"site_url" binding:"required,url"`
	ConsumerKey     string     `json:"consumer_key" binding:"required"`
	ConsumerSecret  string     `json:"consumer_secret" binding:"required"`
	TimeoutSeconds  int        `json:"timeout_seconds" binding:"omitempty,min=1,max=600"`
	QueryStringAuth bool       `json:"query_string_auth"`

	ImportProducts      *bool `json:"import_products"`
	ExportProducts      *bool `json:"export_products"`
	ImportVariations    *bool `json:"import_variations"`
	ImportCustomers     *bool `json:"import_customers"`
	ImportOrders        *bool `json:"import_orders"`
	IncrementalImport   *bool `json:"incremental_import"`
	ImagesSync          *bool `json:"images_sync"`
	StockManagement     *bool `json:"stock_management"`
	RelatedProductsMap  *bool `json:"related_products_map"`
	OrdersCustomersMap  *bool `json:"orders_customers_map"`
	LineItemProductsMap *bool `json:"line_item_products_map"`
	TestMode            *bool `json:"test_mode"`

	StockLocation   string `json:"stock_location" binding:"max=100"`
	ResponsibleUser string `json:"responsible_user" binding:"max=200"`
	ImportLanguage  string `json:"import_language" binding:"omitempty,max=10"`
	ExportLanguage  string `json:"export_language" binding:"omitempty,max=10"`

	ScheduleEnabled         bool `json:"schedule_enabled"`
	ScheduleIntervalMinutes int  `json:"schedule_interval_minutes" binding:"omitempty,min=1,max=10080"`
}

// ApplyTo copies the request onto cfg
func (r *SyncConfigurationRequest) ApplyTo(cfg *woosync.SyncConfiguration) {
	cfg.Name = r.Name
	cfg.SiteURL = r.SiteURL
	cfg.ConsumerKey = r.ConsumerKey
	cfg.ConsumerSecret = r.ConsumerSecret
	if r.TimeoutSeconds > 0 {
		cfg.TimeoutSeconds = r.TimeoutSeconds
	}
	cfg.QueryStringAuth = r.QueryStringAuth

	setFlag(&cfg.ImportProducts, r.ImportProducts)
	setFlag(&cfg.ExportProducts, r.ExportProducts)
	setFlag(&cfg.ImportVariations, r.ImportVariations)
	setFlag(&cfg.ImportCustomers, r.ImportCustomers)
	setFlag(&cfg.ImportOrders, r.ImportOrders)
	setFlag(&cfg.IncrementalImport, r.IncrementalImport)
	setFlag(&cfg.ImagesSync, r.ImagesSync)
	setFlag(&cfg.StockManagement, r.StockManagement)
	setFlag(&cfg.RelatedProductsMap, r.RelatedProductsMap)
	setFlag(&cfg.OrdersCustomersMap, r.OrdersCustomersMap)
	setFlag(&cfg.LineItemProductsMap, r.LineItemProductsMap)
	setFlag(&cfg.TestMode, r.TestMode)

	cfg.StockLocation = r.StockLocation
	cfg.ResponsibleUser = r.ResponsibleUser
	cfg.ImportLanguage = r.ImportLanguage
	cfg.ExportLanguage = r.ExportLanguage

	cfg.ScheduleEnabled = r.ScheduleEnabled
	if r.ScheduleIntervalMinutes > 0 {
		cfg.ScheduleIntervalMinutes = r.ScheduleIntervalMinutes
	}
}

func setFlag(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// ScheduleRequest changes the auto-sync settings of a configuration
type ScheduleRequest struct {
	Enabled         *bool `json:"enabled" binding:"required"`
	IntervalMinutes int   `json:"interval_minutes" binding:"omitempty,min=1,max=10080"`
}

// StockAdjustRequest sets the local on-hand quantity of a stock-tracked product
type StockAdjustRequest struct {
	Quantity *decimal.Decimal `json:"quantity" binding:"required"`
}

// StockRecordResponse is a local stock record
type StockRecordResponse struct {
	ProductID      uuid.UUID  `json:"product_id"`
	Location       string     `json:"location"`
	Quantity       string     `json:"quantity"`
	StockUpdatedAt *time.Time `json:"stock_updated_at,omitempty"`
}

// NewStockRecordResponse converts a stock record
func NewStockRecordResponse(rec *woosync.StockRecord) StockRecordResponse {
	return StockRecordResponse{
		ProductID:      rec.ProductID,
		Location:       rec.Location,
		Quantity:       rec.Quantity.String(),
		StockUpdatedAt: rec.StockUpdatedAt,
	}
}

// SyncConfigurationResponse is a configuration with its secret masked
type SyncConfigurationResponse struct {
	ID                  uuid.UUID `json:"id"`
	Name                string    `json:"name"`
	SiteURL             string    `json:"site_url"`
	ConsumerKey         string    `json:"consumer_key"`
	TimeoutSeconds      int       `json:"timeout_seconds"`
	QueryStringAuth     bool      `json:"query_string_auth"`
	ImportProducts      bool      `json:"import_products"`
	ExportProducts      bool      `json:"export_products"`
	ImportVariations    bool      `json:"import_variations"`
	ImportCustomers     bool      `json:"import_customers"`
	ImportOrders        bool      `json:"import_orders"`
	IncrementalImport   bool      `json:"incremental_import"`
	ImagesSync          bool      `json:"images_sync"`
	StockManagement     bool      `json:"stock_management"`
	StockLocation       string    `json:"stock_location,omitempty"`
	RelatedProductsMap  bool      `json:"related_products_map"`
	OrdersCustomersMap  bool      `json:"orders_customers_map"`
	LineItemProductsMap bool      `json:"line_item_products_map"`
	TestMode            bool      `json:"test_mode"`
	ResponsibleUser     string    `json:"responsible_user,omitempty"`
	ImportLanguage      string    `json:"import_language,omitempty"`
	ExportLanguage      string    `json:"export_language,omitempty"`
	ScheduleEnabled     bool      `json:"schedule_enabled"`
	ScheduleInterval    int       `json:"schedule_interval_minutes"`
	CronName            string    `json:"cron_name"`
	TimestampResponse
}

// NewSyncConfigurationResponse converts a configuration for output
func NewSyncConfigurationResponse(cfg *woosync.SyncConfiguration) SyncConfigurationResponse {
	return SyncConfigurationResponse{
		ID:                  cfg.ID,
		Name:                cfg.Name,
		SiteURL:             cfg.SiteURL,
		ConsumerKey:         MaskSecret(cfg.ConsumerKey),
		TimeoutSeconds:      cfg.TimeoutSeconds,
		QueryStringAuth:     cfg.QueryStringAuth,
		ImportProducts:      cfg.ImportProducts,
		ExportProducts:      cfg.ExportProducts,
		ImportVariations:    cfg.ImportVariations,
		ImportCustomers:     cfg.ImportCustomers,
		ImportOrders:        cfg.ImportOrders,
		IncrementalImport:   cfg.IncrementalImport,
		ImagesSync:          cfg.ImagesSync,
		StockManagement:     cfg.StockManagement,
		StockLocation:       cfg.StockLocation,
		RelatedProductsMap:  cfg.RelatedProductsMap,
		OrdersCustomersMap:  cfg.OrdersCustomersMap,
		LineItemProductsMap: cfg.LineItemProductsMap,
		TestMode:            cfg.TestMode,
		ResponsibleUser:     cfg.ResponsibleUser,
		ImportLanguage:      cfg.ImportLanguage,
		ExportLanguage:      cfg.ExportLanguage,
		ScheduleEnabled:     cfg.ScheduleEnabled,
		ScheduleInterval:    int(cfg.ScheduleInterval() / time.Minute),
		CronName:            cfg.CronName(),
		TimestampResponse: TimestampResponse{
			CreatedAt: cfg.CreatedAt,
			UpdatedAt: cfg.UpdatedAt,
		},
	}
}

// MaskSecret keeps the last four characters of a credential
func MaskSecret(s string) string {
	const visible = 4
	if len(s) <= visible {
		return "****"
	}
	return "****" + s[len(s)-visible:]
}

// SyncJobResponse is a queued or finished sync job
type SyncJobResponse struct {
	ID              uuid.UUID          `json:"id"`
	ConfigurationID uuid.UUID          `json:"configuration_id"`
	Trigger         string             `json:"trigger"`
	Status          string             `json:"status"`
	Error           string             `json:"error,omitempty"`
	SubmittedAt     time.Time          `json:"submitted_at"`
	StartedAt       *time.Time         `json:"started_at,omitempty"`
	CompletedAt     *time.Time         `json:"completed_at,omitempty"`
	Report          *woosync.RunReport `json:"report,omitempty"`
}
