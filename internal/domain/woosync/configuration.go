package woosync

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const (
	// DefaultTimeoutSeconds is the per-request timeout used when none is configured
	DefaultTimeoutSeconds = 30
	// DefaultScheduleIntervalMinutes is the auto-sync interval used when none is configured
	DefaultScheduleIntervalMinutes = 5
	// CronNamePrefix prefixes the name of the scheduled job of a configuration
	CronNamePrefix = "WooCommerce Auto-Sync - "
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// SyncConfiguration holds the connection and policy settings of one store link.
// It is passed explicitly through every sync call.
type SyncConfiguration struct {
	// ID is the unique identifier of the configuration
	ID uuid.UUID
	// Name is a human-readable label
	Name string `validate:"max=200"`

	// SiteURL is the storefront base URL, also the site half of every natural key
	SiteURL string `validate:"required,url"`
	// ConsumerKey is the REST API consumer key
	ConsumerKey string `validate:"required"`
	// ConsumerSecret is the REST API consumer secret
	ConsumerSecret string `validate:"required"`
	// TimeoutSeconds is the per-request timeout
	TimeoutSeconds int `validate:"gte=0,lte=600"`
	// QueryStringAuth sends credentials as query parameters instead of basic auth
	QueryStringAuth bool

	// ImportProducts enables remote to local product sync
	ImportProducts bool
	// ExportProducts enables local to remote product sync
	ExportProducts bool
	// ImportVariations enables variation sync (requires ImportProducts)
	ImportVariations bool
	// ImportCustomers enables customer sync
	ImportCustomers bool
	// ImportOrders enables order sync
	ImportOrders bool

	// IncrementalImport restricts listings to records modified since the last run
	IncrementalImport bool
	// ImagesSync enables featured image, gallery and avatar downloads
	ImagesSync bool
	// StockManagement enables stock reconciliation
	StockManagement bool
	// StockLocation is the warehouse location code used for stock records
	StockLocation string `validate:"required_if=StockManagement true"`
	// RelatedProductsMap links related products after product sync
	RelatedProductsMap bool
	// OrdersCustomersMap matches or creates guest customers by billing email
	OrdersCustomersMap bool
	// LineItemProductsMap resolves order line products by remote product ID
	LineItemProductsMap bool
	// TestMode fetches a single short page per listing
	TestMode bool

	// ResponsibleUser is assigned as salesperson on imported records
	ResponsibleUser string
	// ImportLanguage filters remote listings by language code
	ImportLanguage string `validate:"omitempty,max=10"`
	// ExportLanguage is the language of exported products
	ExportLanguage string `validate:"omitempty,max=10"`

	// ScheduleEnabled activates the periodic sync job
	ScheduleEnabled bool
	// ScheduleIntervalMinutes is the periodic sync interval
	ScheduleIntervalMinutes int `validate:"gte=0"`

	// CreatedAt is when the configuration was created
	CreatedAt time.Time
	// UpdatedAt is when the configuration was last updated
	UpdatedAt time.Time
}

// NewSyncConfiguration creates a configuration with the default policy flags
func NewSyncConfiguration(siteURL, consumerKey, consumerSecret string) *SyncConfiguration {
	return &SyncConfiguration{
		ID:                      uuid.New(),
		SiteURL:                 siteURL,
		ConsumerKey:             consumerKey,
		ConsumerSecret:          consumerSecret,
		TimeoutSeconds:          DefaultTimeoutSeconds,
		ImportProducts:          true,
		ImportVariations:        true,
		ImportCustomers:         true,
		ImportOrders:            true,
		ImagesSync:              true,
		ScheduleIntervalMinutes: DefaultScheduleIntervalMinutes,
	}
}

// Validate checks the configuration and fills defaults
func (c *SyncConfiguration) Validate() error {
	c.SiteURL = strings.TrimRight(strings.TrimSpace(c.SiteURL), "/")
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if c.ScheduleIntervalMinutes <= 0 {
		c.ScheduleIntervalMinutes = DefaultScheduleIntervalMinutes
	}
	return nil
}

// Timeout returns the per-request timeout as a duration
func (c *SyncConfiguration) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return DefaultTimeoutSeconds * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ScheduleInterval returns the periodic sync interval as a duration
func (c *SyncConfiguration) ScheduleInterval() time.Duration {
	if c.ScheduleIntervalMinutes <= 0 {
		return DefaultScheduleIntervalMinutes * time.Minute
	}
	return time.Duration(c.ScheduleIntervalMinutes) * time.Minute
}

// CronName returns the name of the scheduled job for this configuration
func (c *SyncConfiguration) CronName() string {
	return CronNamePrefix + c.SiteURL
}

// SyncVariations reports whether variation sync runs; it depends on product sync
func (c *SyncConfiguration) SyncVariations() bool {
	return c.ImportProducts && c.ImportVariations
}

// SetSchedule updates the scheduling parameters
func (c *SyncConfiguration) SetSchedule(intervalMinutes int, enabled bool) error {
	if intervalMinutes < 0 {
		return fmt.Errorf("%w: interval must not be negative", ErrInvalidConfiguration)
	}
	if intervalMinutes == 0 {
		intervalMinutes = DefaultScheduleIntervalMinutes
	}
	c.ScheduleIntervalMinutes = intervalMinutes
	c.ScheduleEnabled = enabled
	return nil
}

// SyncLog records the last successful run of a configuration
type SyncLog struct {
	// ID is the unique identifier of the log row
	ID uuid.UUID
	// ConfigurationID links the log to its configuration
	ConfigurationID uuid.UUID
	// LastSyncedAt is the start time of the last completed run
	LastSyncedAt *time.Time
	// UpdatedAt is when the row was last written
	UpdatedAt time.Time
}

// ModifiedAfter returns the incremental cutoff in the remote filter format,
// or an empty string if no run has completed yet
func (l *SyncLog) ModifiedAfter() string {
	if l == nil || l.LastSyncedAt == nil {
		return ""
	}
	return l.LastSyncedAt.UTC().Format(RemoteFilterLayout)
}

// NewSyncLog creates an empty log for configID
func NewSyncLog(configID uuid.UUID) *SyncLog {
	return &SyncLog{ID: uuid.New(), ConfigurationID: configID}
}
