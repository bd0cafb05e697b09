package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"

	"github.com/erp/woosync/internal/infrastructure/telemetry"
)

func TestNewSyncMetrics(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")

	sm, err := telemetry.NewSyncMetrics(telemetry.SyncMetricsConfig{
		Meter:  meter,
		Logger: zap.NewNop(),
	})

	require.NoError(t, err)
	require.NotNil(t, sm)
}

func TestNewSyncMetrics_NilMeter(t *testing.T) {
	sm, err := telemetry.NewSyncMetrics(telemetry.SyncMetricsConfig{
		Meter:  nil,
		Logger: zap.NewNop(),
	})

	require.Error(t, err)
	assert.Nil(t, sm)
	assert.Equal(t, "NewSyncMetrics: meter cannot be nil", err.Error())
}

func TestSyncMetrics_Record(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	sm, err := telemetry.NewSyncMetrics(telemetry.SyncMetricsConfig{Meter: meter})
	require.NoError(t, err)

	ctx := context.Background()

	// Should not panic
	sm.RecordStep(ctx, "https://shop.test", "PRODUCT_SYNC", 10, 1, 3)
	sm.RecordStep(ctx, "https://shop.test", "ORDER_SYNC", 0, 0, 0)
	sm.RecordRun(ctx, "https://shop.test", "PARTIAL", 42*time.Second)
}

func TestSyncMetrics_NilIsNoop(t *testing.T) {
	var sm *telemetry.SyncMetrics

	assert.NotPanics(t, func() {
		sm.RecordStep(context.Background(), "https://shop.test", "PRODUCT_SYNC", 1, 0, 0)
		sm.RecordRun(context.Background(), "https://shop.test", "SUCCESS", time.Second)
	})
}
