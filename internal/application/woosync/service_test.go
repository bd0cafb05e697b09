package woosync

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/erp/woosync/internal/domain/woosync"
)

type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Run(ctx context.Context, cfg *woosync.SyncConfiguration) (*woosync.RunReport, error) {
	args := m.Called(ctx, cfg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*woosync.RunReport), args.Error(1)
}

type MockScheduleUpdater struct {
	mock.Mock
}

func (m *MockScheduleUpdater) UpdateSchedule(ctx context.Context, cfg *woosync.SyncConfiguration) error {
	return m.Called(ctx, cfg).Error(0)
}

func TestService_SaveConfiguration(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	updater := new(MockScheduleUpdater)
	svc := NewService(store, new(MockRunner), nil)
	svc.SetScheduleUpdater(updater)

	t.Run("valid configuration is stored and scheduled", func(t *testing.T) {
		cfg := woosync.NewSyncConfiguration("https://shop.test/", "ck", "cs")
		updater.On("UpdateSchedule", ctx, cfg).Return(nil).Once()

		require.NoError(t, svc.SaveConfiguration(ctx, cfg))
		assert.Equal(t, "https://shop.test", cfg.SiteURL)
		assert.False(t, cfg.CreatedAt.IsZero())

		got, err := svc.GetConfiguration(ctx, cfg.ID)
		require.NoError(t, err)
		assert.Equal(t, cfg.SiteURL, got.SiteURL)
		updater.AssertExpectations(t)
	})

	t.Run("invalid configuration is rejected", func(t *testing.T) {
		cfg := woosync.NewSyncConfiguration("https://shop.test", "ck", "cs")
		cfg.StockManagement = true

		err := svc.SaveConfiguration(ctx, cfg)
		assert.ErrorIs(t, err, woosync.ErrInvalidConfiguration)
		updater.AssertNotCalled(t, "UpdateSchedule", ctx, cfg)
	})

	t.Run("list returns stored configurations", func(t *testing.T) {
		all, err := svc.ListConfigurations(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})
}

func TestService_RunSync(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	runner := new(MockRunner)
	svc := NewService(store, runner, nil)

	cfg := woosync.NewSyncConfiguration("https://shop.test", "ck", "cs")
	require.NoError(t, svc.SaveConfiguration(ctx, cfg))

	report := woosync.NewRunReport(cfg.ID, time.Now())
	runner.On("Run", ctx, mock.MatchedBy(func(c *woosync.SyncConfiguration) bool {
		return c.ID == cfg.ID
	})).Return(report, nil).Once()

	got, err := svc.RunSync(ctx, cfg.ID)
	require.NoError(t, err)
	assert.Same(t, report, got)
	runner.AssertExpectations(t)

	_, err = svc.RunSync(ctx, uuid.New())
	assert.ErrorIs(t, err, woosync.ErrConfigurationNotFound)
}

func TestService_UpdateSchedule(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	updater := new(MockScheduleUpdater)
	updater.On("UpdateSchedule", ctx, mock.Anything).Return(nil)
	svc := NewService(store, new(MockRunner), nil)
	svc.SetScheduleUpdater(updater)

	cfg := woosync.NewSyncConfiguration("https://shop.test", "ck", "cs")
	require.NoError(t, svc.SaveConfiguration(ctx, cfg))

	tests := []struct {
		name         string
		interval     int
		enabled      bool
		wantInterval int
		wantErr      error
	}{
		{name: "custom interval", interval: 15, enabled: true, wantInterval: 15},
		{name: "zero falls back to default", interval: 0, enabled: true, wantInterval: woosync.DefaultScheduleIntervalMinutes},
		{name: "disable", interval: 10, enabled: false, wantInterval: 10},
		{name: "negative interval", interval: -1, enabled: true, wantErr: woosync.ErrInvalidConfiguration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.UpdateSchedule(ctx, cfg.ID, tt.interval, tt.enabled)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantInterval, got.ScheduleIntervalMinutes)
			assert.Equal(t, tt.enabled, got.ScheduleEnabled)

			stored, err := svc.GetConfiguration(ctx, cfg.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantInterval, stored.ScheduleIntervalMinutes)
		})
	}
}
