package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp/woosync/internal/domain/woosync"
)

var _ woosync.ScheduleUpdater = (*CronTrigger)(nil)

type fakeSource struct {
	configs []woosync.SyncConfiguration
	err     error
}

func (s *fakeSource) FindScheduled(context.Context) ([]woosync.SyncConfiguration, error) {
	return s.configs, s.err
}

type fakeSubmitter struct {
	mu        sync.Mutex
	submitted []uuid.UUID
	err       error
}

func (s *fakeSubmitter) Submit(configID uuid.UUID, trigger Trigger) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.submitted = append(s.submitted, configID)
	return NewJob(configID, trigger), nil
}

func scheduledConfig(interval int, enabled bool) *woosync.SyncConfiguration {
	cfg := woosync.NewSyncConfiguration("https://shop.test", "ck", "cs")
	cfg.ScheduleIntervalMinutes = interval
	cfg.ScheduleEnabled = enabled
	return cfg
}

func TestCronTrigger_UpdateSchedule(t *testing.T) {
	ctx := context.Background()
	trigger := NewCronTrigger(&fakeSubmitter{}, &fakeSource{}, nil)
	cfg := scheduledConfig(15, true)

	require.NoError(t, trigger.UpdateSchedule(ctx, cfg))
	spec, ok := trigger.Spec(cfg.ID)
	require.True(t, ok)
	assert.Equal(t, "@every 15m", spec)
	assert.Len(t, trigger.cron.Entries(), 1)

	t.Run("unchanged interval keeps the entry", func(t *testing.T) {
		before := trigger.entries[cfg.ID].id
		require.NoError(t, trigger.UpdateSchedule(ctx, cfg))
		assert.Equal(t, before, trigger.entries[cfg.ID].id)
	})

	t.Run("new interval replaces the entry", func(t *testing.T) {
		cfg.ScheduleIntervalMinutes = 30
		require.NoError(t, trigger.UpdateSchedule(ctx, cfg))
		spec, _ := trigger.Spec(cfg.ID)
		assert.Equal(t, "@every 30m", spec)
		assert.Len(t, trigger.cron.Entries(), 1)
	})

	t.Run("zero interval uses the default", func(t *testing.T) {
		cfg.ScheduleIntervalMinutes = 0
		require.NoError(t, trigger.UpdateSchedule(ctx, cfg))
		spec, _ := trigger.Spec(cfg.ID)
		assert.Equal(t, "@every 5m", spec)
	})

	t.Run("disabling removes the entry", func(t *testing.T) {
		cfg.ScheduleEnabled = false
		require.NoError(t, trigger.UpdateSchedule(ctx, cfg))
		_, ok := trigger.Spec(cfg.ID)
		assert.False(t, ok)
		assert.Empty(t, trigger.cron.Entries())
		assert.Equal(t, 0, trigger.Len())
	})

	t.Run("disabling an unknown configuration is a no-op", func(t *testing.T) {
		require.NoError(t, trigger.UpdateSchedule(ctx, scheduledConfig(5, false)))
	})
}

func TestCronTrigger_Start(t *testing.T) {
	ctx := context.Background()
	a, b := scheduledConfig(10, true), scheduledConfig(20, true)
	source := &fakeSource{configs: []woosync.SyncConfiguration{*a, *b}}
	trigger := NewCronTrigger(&fakeSubmitter{}, source, nil)

	require.NoError(t, trigger.Start(ctx))
	defer func() { require.NoError(t, trigger.Stop(ctx)) }()

	assert.Equal(t, 2, trigger.Len())
	spec, _ := trigger.Spec(b.ID)
	assert.Equal(t, "@every 20m", spec)
}

func TestCronTrigger_StartSourceError(t *testing.T) {
	trigger := NewCronTrigger(&fakeSubmitter{}, &fakeSource{err: errors.New("db down")}, nil)

	err := trigger.Start(context.Background())
	assert.ErrorContains(t, err, "db down")
	assert.NoError(t, trigger.Stop(context.Background()), "a failed start leaves the trigger stopped")
}

func TestCronTrigger_Fire(t *testing.T) {
	submitter := &fakeSubmitter{}
	trigger := NewCronTrigger(submitter, &fakeSource{}, nil)
	configID := uuid.New()

	trigger.fire(configID)
	assert.Equal(t, []uuid.UUID{configID}, submitter.submitted)

	submitter.err = ErrJobQueueFull
	assert.NotPanics(t, func() { trigger.fire(configID) })
	assert.Len(t, submitter.submitted, 1)
}
