package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// SyncMetrics records the outcome of sync runs and the records they handle.
// A nil *SyncMetrics is valid and records nothing.
type SyncMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	recordsTotal *Counter
	runsTotal    *Counter

	// Run duration distribution
	runDuration *Histogram
}

// SyncMetricsConfig holds configuration for sync metrics.
type SyncMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// NewSyncMetrics creates a new SyncMetrics instance.
func NewSyncMetrics(cfg SyncMetricsConfig) (*SyncMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	sm := &SyncMetrics{
		meter:  cfg.Meter,
		logger: logger,
	}

	var err error
	sm.recordsTotal, err = NewCounter(
		cfg.Meter,
		"woosync_records_total",
		"Total number of remote records handled by sync steps",
		"{records}",
	)
	if err != nil {
		return nil, err
	}

	sm.runsTotal, err = NewCounter(
		cfg.Meter,
		"woosync_runs_total",
		"Total number of sync runs",
		"{runs}",
	)
	if err != nil {
		return nil, err
	}

	sm.runDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "woosync_run_duration_seconds",
		Description: "Duration of sync runs",
		Unit:        "s",
		Boundaries:  RunDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	return sm, nil
}

// =============================================================================
// Record Metrics
// =============================================================================

// Record outcomes
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeSkipped   = "skipped"
)

// RecordStep records the record counts of one finished step.
func (sm *SyncMetrics) RecordStep(ctx context.Context, siteURL, step string, succeeded, failed, skipped int) {
	if sm == nil {
		return
	}
	for outcome, n := range map[string]int{
		OutcomeSucceeded: succeeded,
		OutcomeFailed:    failed,
		OutcomeSkipped:   skipped,
	} {
		if n == 0 {
			continue
		}
		sm.recordsTotal.Add(ctx, int64(n),
			AttrSiteURL.String(siteURL),
			AttrSyncStep.String(step),
			AttrOutcome.String(outcome),
		)
	}
}

// RecordRun records a finished run.
func (sm *SyncMetrics) RecordRun(ctx context.Context, siteURL, status string, d time.Duration) {
	if sm == nil {
		return
	}
	attrs := []attribute.KeyValue{
		AttrSiteURL.String(siteURL),
		AttrSyncStatus.String(status),
	}
	sm.runsTotal.Inc(ctx, attrs...)
	sm.runDuration.RecordDuration(ctx, d, attrs...)
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewSyncMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}

// =============================================================================
// Attribute Key Constants
// =============================================================================

// Sync metrics attribute keys
var (
	AttrSiteURL    = attribute.Key("site_url")
	AttrSyncStep   = attribute.Key("sync_step")
	AttrSyncStatus = attribute.Key("sync_status")
	AttrOutcome    = attribute.Key("outcome")
)
