// Package woocommerce implements the WooCommerce REST API adapter used by the sync engine.
package woocommerce

import (
	"errors"
	"time"
)

const (
	// DefaultAPIPath is the REST API root below the site URL
	DefaultAPIPath = "wp-json/wc/v3"
	// DefaultPageSize is the per_page value of listing calls
	DefaultPageSize = 100
	// DefaultTestPageSize is the per_page value in test mode
	DefaultTestPageSize = 10
	// DefaultImageTimeout bounds a single image download
	DefaultImageTimeout = 10 * time.Second
	// DefaultMaxResponseSize is the maximum response size read from the API (10MB)
	DefaultMaxResponseSize = 10 * 1024 * 1024
	// SystemStatusEndpoint is probed when connecting
	SystemStatusEndpoint = "system_status"
)

// Errors for WooCommerce adapter configuration
var (
	ErrConfigInvalidPageSize = errors.New("woocommerce: page size must be between 1 and 100")
	ErrConfigInvalidRate     = errors.New("woocommerce: requests per second must not be negative")
)

// Config holds adapter settings shared by every store connection
type Config struct {
	// APIPath is the REST API root, relative to the site URL
	APIPath string
	// PageSize is the per_page value of listing calls
	PageSize int
	// TestPageSize is the per_page value when a configuration runs in test mode
	TestPageSize int
	// RequestsPerSecond limits outbound calls per connection, 0 disables the limit
	RequestsPerSecond float64
	// Burst is the limiter burst size
	Burst int
	// MaxResponseSize caps the bytes read from a response body
	MaxResponseSize int64
	// ImageTimeout bounds a single image download
	ImageTimeout time.Duration
	// UserAgent is sent with every request
	UserAgent string
}

// NewConfig creates an adapter configuration with defaults
func NewConfig() *Config {
	return &Config{
		APIPath:         DefaultAPIPath,
		PageSize:        DefaultPageSize,
		TestPageSize:    DefaultTestPageSize,
		Burst:           1,
		MaxResponseSize: DefaultMaxResponseSize,
		ImageTimeout:    DefaultImageTimeout,
		UserAgent:       "woosync/1.0",
	}
}

// Validate validates the configuration and fills defaults
func (c *Config) Validate() error {
	if c.PageSize < 0 || c.PageSize > 100 || c.TestPageSize < 0 || c.TestPageSize > 100 {
		return ErrConfigInvalidPageSize
	}
	if c.RequestsPerSecond < 0 {
		return ErrConfigInvalidRate
	}
	if c.APIPath == "" {
		c.APIPath = DefaultAPIPath
	}
	if c.PageSize == 0 {
		c.PageSize = DefaultPageSize
	}
	if c.TestPageSize == 0 {
		c.TestPageSize = DefaultTestPageSize
	}
	if c.Burst <= 0 {
		c.Burst = 1
	}
	if c.MaxResponseSize <= 0 {
		c.MaxResponseSize = DefaultMaxResponseSize
	}
	if c.ImageTimeout <= 0 {
		c.ImageTimeout = DefaultImageTimeout
	}
	return nil
}
