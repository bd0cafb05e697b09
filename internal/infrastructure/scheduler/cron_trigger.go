package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/erp/woosync/internal/domain/woosync"
)

// ConfigurationSource lists the configurations with auto-sync enabled
type ConfigurationSource interface {
	FindScheduled(ctx context.Context) ([]woosync.SyncConfiguration, error)
}

// JobSubmitter queues sync jobs
type JobSubmitter interface {
	Submit(configID uuid.UUID, trigger Trigger) (*Job, error)
}

// entry is the registered cron entry of one configuration
type entry struct {
	id   cron.EntryID
	spec string
}

// CronTrigger keeps one "@every {n}m" cron entry per scheduled configuration.
// Each firing submits a sync job; overlapping runs are dropped by the scheduler's run lock.
type CronTrigger struct {
	cron      *cron.Cron
	submitter JobSubmitter
	source    ConfigurationSource
	logger    *zap.Logger

	mu        sync.Mutex
	entries   map[uuid.UUID]entry
	isRunning bool
}

// NewCronTrigger creates a new cron trigger
func NewCronTrigger(submitter JobSubmitter, source ConfigurationSource, logger *zap.Logger) *CronTrigger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CronTrigger{
		cron:      cron.New(),
		submitter: submitter,
		source:    source,
		logger:    logger,
		entries:   make(map[uuid.UUID]entry),
	}
}

// Start registers every scheduled configuration and starts the cron
func (c *CronTrigger) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = true
	c.mu.Unlock()

	if err := c.LoadAll(ctx); err != nil {
		c.mu.Lock()
		c.isRunning = false
		c.mu.Unlock()
		return err
	}
	c.cron.Start()

	c.logger.Info("Sync cron trigger started", zap.Int("entries", c.Len()))
	return nil
}

// Stop stops the cron and waits for firing entries to return
func (c *CronTrigger) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.isRunning {
		c.mu.Unlock()
		return nil
	}
	c.isRunning = false
	c.mu.Unlock()

	select {
	case <-c.cron.Stop().Done():
		c.logger.Info("Sync cron trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LoadAll registers an entry for every configuration with auto-sync enabled
func (c *CronTrigger) LoadAll(ctx context.Context) error {
	configs, err := c.source.FindScheduled(ctx)
	if err != nil {
		return fmt.Errorf("load scheduled configurations: %w", err)
	}
	for i := range configs {
		if err := c.UpdateSchedule(ctx, &configs[i]); err != nil {
			return err
		}
	}
	return nil
}

// UpdateSchedule replaces the entry of cfg, or removes it when auto-sync is disabled.
// It implements woosync.ScheduleUpdater.
func (c *CronTrigger) UpdateSchedule(_ context.Context, cfg *woosync.SyncConfiguration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	existing, ok := c.entries[cfg.ID]
	if !cfg.ScheduleEnabled {
		if ok {
			c.cron.Remove(existing.id)
			delete(c.entries, cfg.ID)
			c.logger.Info("Auto-sync disabled", zap.String("configuration_id", cfg.ID.String()))
		}
		return nil
	}

	minutes := int(cfg.ScheduleInterval() / time.Minute)
	spec := fmt.Sprintf("@every %dm", minutes)
	if ok && existing.spec == spec {
		return nil
	}

	configID := cfg.ID
	id, err := c.cron.AddFunc(spec, func() { c.fire(configID) })
	if err != nil {
		return fmt.Errorf("%w: schedule %q: %v", ErrInvalidConfig, spec, err)
	}
	if ok {
		c.cron.Remove(existing.id)
	}
	c.entries[cfg.ID] = entry{id: id, spec: spec}

	c.logger.Info("Auto-sync scheduled",
		zap.String("configuration_id", cfg.ID.String()),
		zap.String("name", cfg.CronName()),
		zap.String("spec", spec),
	)
	return nil
}

func (c *CronTrigger) fire(configID uuid.UUID) {
	job, err := c.submitter.Submit(configID, TriggerSchedule)
	if err != nil {
		level := zap.ErrorLevel
		if errors.Is(err, ErrJobQueueFull) {
			level = zap.WarnLevel
		}
		c.logger.Log(level, "Failed to submit scheduled sync",
			zap.String("configuration_id", configID.String()),
			zap.Error(err),
		)
		return
	}
	c.logger.Debug("Scheduled sync submitted",
		zap.String("configuration_id", configID.String()),
		zap.String("job_id", job.ID.String()),
	)
}

// Spec returns the cron spec registered for configID
func (c *CronTrigger) Spec(configID uuid.UUID) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[configID]
	return e.spec, ok
}

// Len returns the number of registered entries
func (c *CronTrigger) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
