package woosync

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/erp/woosync/internal/domain/woosync"
)

// Runner executes one sync run for a configuration
type Runner interface {
	Run(ctx context.Context, cfg *woosync.SyncConfiguration) (*woosync.RunReport, error)
}

// Service is the entry point for triggers: HTTP handlers, the scheduler and the CLI
type Service struct {
	store     woosync.Store
	runner    Runner
	scheduler woosync.ScheduleUpdater
	logger    *zap.Logger
	now       func() time.Time
}

// NewService creates a new Service
func NewService(store woosync.Store, runner Runner, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:  store,
		runner: runner,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// SetScheduleUpdater sets the component keeping periodic triggers in line with configurations
func (s *Service) SetScheduleUpdater(u woosync.ScheduleUpdater) {
	s.scheduler = u
}

// RunSync loads the configuration and runs a sync synchronously
func (s *Service) RunSync(ctx context.Context, configID uuid.UUID) (*woosync.RunReport, error) {
	cfg, err := s.GetConfiguration(ctx, configID)
	if err != nil {
		return nil, err
	}
	return s.runner.Run(ctx, cfg)
}

// GetConfiguration retrieves a configuration by ID
func (s *Service) GetConfiguration(ctx context.Context, id uuid.UUID) (*woosync.SyncConfiguration, error) {
	cfg, err := s.store.Configurations().FindByID(ctx, id)
	if errors.Is(err, woosync.ErrRecordNotFound) {
		return nil, woosync.ErrConfigurationNotFound
	}
	return cfg, err
}

// ListConfigurations returns every configuration
func (s *Service) ListConfigurations(ctx context.Context) ([]woosync.SyncConfiguration, error) {
	return s.store.Configurations().FindAll(ctx)
}

// SaveConfiguration validates and persists cfg, then refreshes its schedule
func (s *Service) SaveConfiguration(ctx context.Context, cfg *woosync.SyncConfiguration) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	now := s.now()
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = now
	}
	cfg.UpdatedAt = now

	if err := s.store.Configurations().Save(ctx, cfg); err != nil {
		return err
	}
	s.logger.Info("Sync configuration saved",
		zap.String("configuration_id", cfg.ID.String()),
		zap.String("site_url", cfg.SiteURL),
	)
	return s.refreshSchedule(ctx, cfg)
}

// UpdateSchedule changes the auto-sync interval and enablement of a configuration
func (s *Service) UpdateSchedule(ctx context.Context, configID uuid.UUID, intervalMinutes int, enabled bool) (*woosync.SyncConfiguration, error) {
	cfg, err := s.GetConfiguration(ctx, configID)
	if err != nil {
		return nil, err
	}
	if err := cfg.SetSchedule(intervalMinutes, enabled); err != nil {
		return nil, err
	}
	cfg.UpdatedAt = s.now()
	if err := s.store.Configurations().Save(ctx, cfg); err != nil {
		return nil, err
	}
	if err := s.refreshSchedule(ctx, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// AdjustStock records a local on-hand quantity for a stock-tracked product of the
// configuration's store. The next reconciliation pushes it unless the remote changed later.
func (s *Service) AdjustStock(ctx context.Context, configID, productID uuid.UUID, qty decimal.Decimal) (*woosync.StockRecord, error) {
	cfg, err := s.GetConfiguration(ctx, configID)
	if err != nil {
		return nil, err
	}
	if !cfg.StockManagement {
		return nil, fmt.Errorf("%w: stock management is disabled", woosync.ErrInvalidConfiguration)
	}
	items, err := s.store.Products().FindStockItems(ctx, cfg.SiteURL)
	if err != nil {
		return nil, err
	}
	if !slices.ContainsFunc(items, func(item woosync.StockItem) bool { return item.ProductID == productID }) {
		return nil, woosync.ErrStockItemNotFound
	}

	var rec *woosync.StockRecord
	err = s.store.Transaction(ctx, func(tx woosync.Store) error {
		found, err := tx.Stock().Find(ctx, cfg.SiteURL, productID, cfg.StockLocation)
		if errors.Is(err, woosync.ErrRecordNotFound) {
			found = woosync.NewStockRecord(cfg.SiteURL, productID, cfg.StockLocation)
		} else if err != nil {
			return err
		}
		if err := found.Adjust(qty, s.now()); err != nil {
			return err
		}
		rec = found
		return tx.Stock().Save(ctx, found)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Stock adjusted",
		zap.String("configuration_id", cfg.ID.String()),
		zap.String("product_id", productID.String()),
		zap.String("quantity", qty.String()),
	)
	return rec, nil
}

func (s *Service) refreshSchedule(ctx context.Context, cfg *woosync.SyncConfiguration) error {
	if s.scheduler == nil {
		return nil
	}
	return s.scheduler.UpdateSchedule(ctx, cfg)
}
