package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/erp/woosync/internal/infrastructure/telemetry"
)

func newManualMeter(t *testing.T) (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return reader, mp
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestCounter(t *testing.T) {
	reader, mp := newManualMeter(t)
	ctx := context.Background()

	c, err := telemetry.NewCounter(mp.Meter("test"), "pushes_total", "pushes", "{pushes}")
	require.NoError(t, err)

	c.Inc(ctx, attribute.String("step", "stock"))
	c.Add(ctx, 4, attribute.String("step", "stock"))

	m := collect(t, reader)["pushes_total"]
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(5), sum.DataPoints[0].Value)
	assert.True(t, sum.IsMonotonic)
}

func TestHistogram_RecordDuration(t *testing.T) {
	reader, mp := newManualMeter(t)

	h, err := telemetry.NewHistogram(mp.Meter("test"), telemetry.HistogramOpts{
		Name:       "run_seconds",
		Unit:       "s",
		Boundaries: telemetry.RunDurationBuckets,
	})
	require.NoError(t, err)

	h.RecordDuration(context.Background(), 90*time.Second)

	m := collect(t, reader)["run_seconds"]
	hist, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	dp := hist.DataPoints[0]
	assert.Equal(t, uint64(1), dp.Count)
	assert.InDelta(t, 90.0, dp.Sum, 0.001)
	assert.Equal(t, telemetry.RunDurationBuckets, dp.Bounds)
}

func TestSyncMetrics_Collected(t *testing.T) {
	reader, mp := newManualMeter(t)
	ctx := context.Background()

	sm, err := telemetry.NewSyncMetrics(telemetry.SyncMetricsConfig{Meter: mp.Meter("woosync")})
	require.NoError(t, err)

	sm.RecordStep(ctx, "https://shop.test", "PRODUCT_SYNC", 3, 1, 0)
	sm.RecordRun(ctx, "https://shop.test", "PARTIAL", 2*time.Second)

	metrics := collect(t, reader)

	records, ok := metrics["woosync_records_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Len(t, records.DataPoints, 2, "zero skipped is not recorded")
	var total int64
	for _, dp := range records.DataPoints {
		total += dp.Value
	}
	assert.Equal(t, int64(4), total)

	runs, ok := metrics["woosync_runs_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, runs.DataPoints, 1)
	status, _ := runs.DataPoints[0].Attributes.Value(telemetry.AttrSyncStatus)
	assert.Equal(t, "PARTIAL", status.AsString())
}
