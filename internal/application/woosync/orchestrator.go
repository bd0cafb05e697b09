package woosync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/erp/woosync/internal/domain/woosync"
	"github.com/erp/woosync/internal/infrastructure/logger"
	"github.com/erp/woosync/internal/infrastructure/telemetry"
)

// Dependencies are the collaborators of the orchestrator
type Dependencies struct {
	Store     woosync.Store
	Connector woosync.Connector
	// Images is optional; without it image sync is skipped
	Images  woosync.ImageFetcher
	Metrics *telemetry.SyncMetrics
	Logger  *zap.Logger
	// Now defaults to time.Now in UTC
	Now func() time.Time
}

// Orchestrator runs the sync state machine for one configuration at a time.
// It does not exclude concurrent runs of the same configuration; callers serialize them.
type Orchestrator struct {
	deps Dependencies
}

// NewOrchestrator creates an orchestrator
func NewOrchestrator(deps Dependencies) *Orchestrator {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Orchestrator{deps: deps}
}

// run is the state of one execution
type run struct {
	deps          Dependencies
	cfg           *woosync.SyncConfiguration
	client        woosync.RemoteClient
	sc            *SyncContext
	refs          *References
	report        *woosync.RunReport
	log           *zap.Logger
	modifiedAfter string

	// remoteTerms caches remote taxonomy IDs resolved during export, keyed by kind and folded name
	remoteTerms map[string]int64
}

type stepFunc func(ctx context.Context, res *woosync.StepResult) error

// Run executes one sync run. The returned report is never nil. A non-nil error is the
// fatal error that aborted the run; per-record failures only show in the report.
func (o *Orchestrator) Run(ctx context.Context, cfg *woosync.SyncConfiguration) (*woosync.RunReport, error) {
	startedAt := o.deps.Now()
	report := woosync.NewRunReport(cfg.ID, startedAt)

	r := &run{
		deps:        o.deps,
		cfg:         cfg,
		refs:        NewReferences(),
		report:      report,
		remoteTerms: make(map[string]int64),
	}

	ctx, span := telemetry.StartServiceSpan(ctx, "woosync", "run",
		telemetry.WithAttribute(telemetry.SpanAttrSiteURL, cfg.SiteURL),
		telemetry.WithAttribute(telemetry.SpanAttrConfigurationID, cfg.ID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrRunID, report.RunID.String()),
	)
	defer span.End()

	// statements issued by the store during the run log the run ID through ctx
	ctx, r.log = logger.WithRun(ctx, logger.ForContext(ctx, o.deps.Logger.With(zap.String("site_url", cfg.SiteURL))),
		cfg.ID.String(), report.RunID.String())

	r.log.Info("Starting sync run", zap.Bool("incremental", cfg.IncrementalImport), zap.Bool("test_mode", cfg.TestMode))

	err := r.execute(ctx)
	finishedAt := o.deps.Now()
	if err != nil {
		report.Abort(finishedAt, err)
		telemetry.RecordError(span, err)
		r.log.Error("Sync run aborted", zap.String("state", report.State.String()), zap.Error(err))
	} else {
		report.Complete(finishedAt)
		telemetry.SetOK(span)
		r.log.Info("Sync run finished",
			zap.String("status", report.Status.String()),
			zap.Int("failed_records", report.FailedRecords()),
			zap.Duration("duration", finishedAt.Sub(startedAt)),
		)
	}
	o.deps.Metrics.RecordRun(ctx, cfg.SiteURL, report.Status.String(), finishedAt.Sub(startedAt))
	return report, err
}

func (r *run) execute(ctx context.Context) error {
	if err := r.step(ctx, woosync.StepContextFetch, r.connect); err != nil {
		return err
	}

	steps := []struct {
		step    woosync.SyncStep
		enabled bool
		fn      stepFunc
	}{
		{woosync.StepProductSync, r.cfg.ImportProducts, r.syncProducts},
		{woosync.StepVariationSync, r.cfg.SyncVariations(), r.syncVariations},
		{woosync.StepRelatedLinkSync, r.cfg.RelatedProductsMap, r.syncRelatedLinks},
		{woosync.StepCustomerSync, r.cfg.ImportCustomers, r.syncCustomers},
		{woosync.StepOrderSync, r.cfg.ImportOrders, r.syncOrders},
		{woosync.StepReverseProductSync, r.cfg.ExportProducts, r.exportProducts},
		{woosync.StepStockReconciliation, r.cfg.StockManagement, r.reconcileStock},
	}
	for _, s := range steps {
		if !s.enabled {
			continue
		}
		if err := r.step(ctx, s.step, s.fn); err != nil {
			return err
		}
	}

	return r.step(ctx, woosync.StepLogUpdate, r.updateLog)
}

// step enters a state, runs it in its own span and records its counts
func (r *run) step(ctx context.Context, step woosync.SyncStep, fn stepFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	res := r.report.Enter(step)
	ctx, span := telemetry.StartServiceSpan(ctx, "woosync", strings.ToLower(step.String()))
	defer span.End()

	started := time.Now()
	r.log.Info("Sync step started", zap.String("step", step.String()))

	err := fn(ctx, res)

	telemetry.SetAttributes(span,
		telemetry.SpanAttrStep, step.String(),
		"total", res.Total,
		telemetry.SpanAttrSucceeded, res.Succeeded,
		telemetry.SpanAttrFailed, res.Failed,
		telemetry.SpanAttrSkipped, res.Skipped,
	)
	r.deps.Metrics.RecordStep(ctx, r.cfg.SiteURL, step.String(), res.Succeeded, res.Failed, res.Skipped)

	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	r.log.Info("Sync step finished",
		zap.String("step", step.String()),
		zap.Int("total", res.Total),
		zap.Int("succeeded", res.Succeeded),
		zap.Int("failed", res.Failed),
		zap.Int("skipped", res.Skipped),
		zap.Duration("duration", time.Since(started)),
	)
	return nil
}

// connect opens the remote handle and fetches the shared context
func (r *run) connect(ctx context.Context, _ *woosync.StepResult) error {
	if r.cfg.IncrementalImport {
		log, err := r.deps.Store.SyncLogs().FindByConfiguration(ctx, r.cfg.ID)
		switch {
		case err == nil:
			r.modifiedAfter = log.ModifiedAfter()
		case !errors.Is(err, woosync.ErrRecordNotFound):
			return fmt.Errorf("read sync log: %w", err)
		}
	}

	client, err := r.deps.Connector.Connect(ctx, r.cfg)
	if err != nil {
		return err
	}
	r.client = client
	return r.fetchContext(ctx)
}

// updateLog stamps the run start as the next incremental cutoff
func (r *run) updateLog(ctx context.Context, _ *woosync.StepResult) error {
	repo := r.deps.Store.SyncLogs()
	log, err := repo.FindByConfiguration(ctx, r.cfg.ID)
	if errors.Is(err, woosync.ErrRecordNotFound) {
		log = woosync.NewSyncLog(r.cfg.ID)
	} else if err != nil {
		return fmt.Errorf("read sync log: %w", err)
	}

	started := r.report.StartedAt
	log.LastSyncedAt = &started
	log.UpdatedAt = r.deps.Now()
	if err := repo.Save(ctx, log); err != nil {
		return fmt.Errorf("write sync log: %w", err)
	}
	return nil
}

// record runs fn as the unit of work of one remote record. fn reports whether it wrote
// anything. Fatal errors and cancellation are returned; any other error rolls the record
// back, is logged with its remote ID and counted as a failure.
func (r *run) record(ctx context.Context, res *woosync.StepResult, remoteID int64, fn func(tx woosync.Store) (bool, error)) error {
	var wrote bool
	err := r.deps.Store.Transaction(ctx, func(tx woosync.Store) error {
		var err error
		wrote, err = fn(tx)
		return err
	})
	if err != nil {
		r.refs.Rollback()
		if woosync.IsFatal(err) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		res.Fail(remoteID, err)
		r.log.Error("Failed to sync record",
			zap.String("step", res.Step.String()),
			zap.Int64("remote_id", remoteID),
			zap.Error(err),
		)
		return nil
	}

	r.refs.Commit()
	if wrote {
		res.Succeed()
	} else {
		res.Skip()
	}
	return nil
}

// listingFailed records a failed listing against the step. Only fatal errors stop the run.
func (r *run) listingFailed(ctx context.Context, res *woosync.StepResult, remoteID int64, endpoint string, err error) error {
	if woosync.IsFatal(err) {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	res.Fail(remoteID, fmt.Errorf("list %s: %w", endpoint, err))
	r.log.Error("Failed to list remote records",
		zap.String("step", res.Step.String()),
		zap.String("endpoint", endpoint),
		zap.Error(err),
	)
	return nil
}

// fetchImage downloads an image when image sync is on. Failures are logged and yield nil.
func (r *run) fetchImage(ctx context.Context, src string) *woosync.StoredImage {
	if !r.cfg.ImagesSync || r.deps.Images == nil || strings.TrimSpace(src) == "" {
		return nil
	}
	img, err := r.deps.Images.Fetch(ctx, src)
	if err != nil {
		r.log.Warn("Failed to fetch image", zap.String("src", src), zap.Error(err))
		return nil
	}
	return img
}

func (r *run) now() time.Time {
	return r.deps.Now()
}

func (r *run) site() string {
	return r.cfg.SiteURL
}

func isNotFound(err error) bool {
	return errors.Is(err, woosync.ErrRecordNotFound)
}
