package woocommerce

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/erp/woosync/internal/domain/woosync"
)

// Ensure the adapter implements the engine ports
var (
	_ woosync.Connector    = (*Connector)(nil)
	_ woosync.RemoteClient = (*Client)(nil)
)

// Option is a functional option for configuring the Connector
type Option func(*Connector)

// WithLogger sets a custom logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Connector) {
		c.logger = logger
	}
}

// WithHTTPClient sets the underlying HTTP client, e.g. for custom transports
func WithHTTPClient(client *http.Client) Option {
	return func(c *Connector) {
		c.httpClient = client
	}
}

// Connector opens authenticated clients for sync configurations
type Connector struct {
	config     *Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewConnector creates a connector with the given adapter configuration
func NewConnector(config *Config, opts ...Option) (*Connector, error) {
	if config == nil {
		config = NewConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	c := &Connector{
		config: config,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Connect probes the store's system status endpoint and returns a client only on HTTP 200.
// The probe is not retried.
func (c *Connector) Connect(ctx context.Context, cfg *woosync.SyncConfiguration) (woosync.RemoteClient, error) {
	client := c.NewClient(cfg)
	if err := client.probe(ctx); err != nil {
		c.logger.Error("WooCommerce connection failed",
			zap.String("site_url", cfg.SiteURL),
			zap.Error(err))
		return nil, err
	}
	c.logger.Info("Connected to WooCommerce", zap.String("site_url", cfg.SiteURL))
	return client, nil
}

// NewClient builds a client for cfg without probing the store
func (c *Connector) NewClient(cfg *woosync.SyncConfiguration) *Client {
	var rc *resty.Client
	if c.httpClient != nil {
		rc = resty.NewWithClient(c.httpClient)
	} else {
		rc = resty.New()
	}
	rc.SetBaseURL(strings.TrimRight(cfg.SiteURL, "/") + "/" + strings.Trim(c.config.APIPath, "/")).
		SetTimeout(cfg.Timeout()).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", c.config.UserAgent)

	if cfg.QueryStringAuth {
		rc.SetQueryParams(map[string]string{
			"consumer_key":    cfg.ConsumerKey,
			"consumer_secret": cfg.ConsumerSecret,
		})
	} else {
		rc.SetBasicAuth(cfg.ConsumerKey, cfg.ConsumerSecret)
	}

	client := &Client{
		http:            rc,
		pageSize:        c.config.PageSize,
		maxResponseSize: c.config.MaxResponseSize,
		logger:          c.logger.With(zap.String("site_url", cfg.SiteURL)),
	}
	if cfg.TestMode {
		client.pageSize = c.config.TestPageSize
		client.maxPages = 1
	}
	if c.config.RequestsPerSecond > 0 {
		client.limiter = rate.NewLimiter(rate.Limit(c.config.RequestsPerSecond), c.config.Burst)
	}
	return client
}

// Client is an authenticated handle on one store's REST API.
// All calls of one client share its rate limiter.
type Client struct {
	http            *resty.Client
	limiter         *rate.Limiter
	pageSize        int
	maxPages        int
	maxResponseSize int64
	logger          *zap.Logger
}

// Get performs a GET request
func (c *Client) Get(ctx context.Context, endpoint string, params map[string]string) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodGet, endpoint, params, nil)
}

// Post sends payload as a JSON POST request
func (c *Client) Post(ctx context.Context, endpoint string, payload any) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodPost, endpoint, nil, payload)
}

// Put sends payload as a JSON PUT request
func (c *Client) Put(ctx context.Context, endpoint string, payload any) (json.RawMessage, error) {
	return c.doRequest(ctx, http.MethodPut, endpoint, nil, payload)
}

// ListAll fetches pages 1, 2, ... appending every record in order. It stops at the first
// empty page or once MaxPages pages were read. Records are never deduplicated.
func (c *Client) ListAll(ctx context.Context, endpoint string, params map[string]string, opts woosync.ListOptions) ([]json.RawMessage, error) {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = c.pageSize
	}
	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = c.maxPages
	}

	var all []json.RawMessage
	for page := 1; ; page++ {
		query := make(map[string]string, len(params)+2)
		for k, v := range params {
			query[k] = v
		}
		query["page"] = strconv.Itoa(page)
		query["per_page"] = strconv.Itoa(pageSize)

		body, err := c.doRequest(ctx, http.MethodGet, endpoint, query, nil)
		if err != nil {
			return nil, err
		}

		var records []json.RawMessage
		if err := json.Unmarshal(body, &records); err != nil {
			return nil, fmt.Errorf("%w: %s page %d: %v", woosync.ErrRemoteInvalidBody, endpoint, page, err)
		}
		if len(records) == 0 {
			break
		}
		all = append(all, records...)

		c.logger.Debug("Fetched listing page",
			zap.String("endpoint", endpoint),
			zap.Int("page", page),
			zap.Int("records", len(records)))

		if maxPages > 0 && page >= maxPages {
			break
		}
	}
	return all, nil
}

// probe checks that the system status endpoint answers HTTP 200
func (c *Client) probe(ctx context.Context) error {
	if err := c.wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", woosync.ErrConnectionFailed, err)
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(SystemStatusEndpoint)
	if err != nil {
		return fmt.Errorf("%w: %v", woosync.ErrConnectionFailed, err)
	}
	if body := resp.RawBody(); body != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(body, c.maxResponseSize))
		body.Close()
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("%w: HTTP %d", woosync.ErrConnectionFailed, resp.StatusCode())
	}
	return nil
}

// doRequest executes one API call. Transport failures wrap ErrRemoteUnavailable,
// HTTP statuses of 400 and above wrap ErrRemoteRequestFailed.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, params map[string]string, payload any) (json.RawMessage, error) {
	if err := c.wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", woosync.ErrRemoteUnavailable, err)
	}

	req := c.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true)
	if len(params) > 0 {
		req.SetQueryParams(params)
	}
	if payload != nil {
		req.SetBody(payload)
	}

	resp, err := req.Execute(method, endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", woosync.ErrRemoteUnavailable, method, endpoint, err)
	}

	raw := resp.RawBody()
	if raw == nil {
		return nil, fmt.Errorf("%w: %s %s: empty body", woosync.ErrRemoteInvalidBody, method, endpoint)
	}
	defer raw.Close()

	body, err := io.ReadAll(io.LimitReader(raw, c.maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: failed to read response: %v", woosync.ErrRemoteUnavailable, method, endpoint, err)
	}

	if resp.StatusCode() >= 400 {
		return nil, fmt.Errorf("%w: %s %s: HTTP %d: %s",
			woosync.ErrRemoteRequestFailed, method, endpoint, resp.StatusCode(), truncate(body, 256))
	}
	return body, nil
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
