package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/erp/woosync/internal/domain/woosync"
)

// JobStatus represents the status of a sync job
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusPartial JobStatus = "PARTIAL"
	JobStatusFailed  JobStatus = "FAILED"
	// JobStatusSkipped marks a job dropped because a run of the same configuration was active
	JobStatusSkipped JobStatus = "SKIPPED"
)

// IsTerminal reports whether the job has finished
func (s JobStatus) IsTerminal() bool {
	return s != JobStatusPending && s != JobStatusRunning
}

// Trigger records what submitted a job
type Trigger string

const (
	TriggerManual   Trigger = "MANUAL"
	TriggerSchedule Trigger = "SCHEDULE"
)

// Job is one queued sync run of a configuration
type Job struct {
	ID              uuid.UUID          `json:"id"`
	ConfigurationID uuid.UUID          `json:"configuration_id"`
	Trigger         Trigger            `json:"trigger"`
	Status          JobStatus          `json:"status"`
	Error           string             `json:"error,omitempty"`
	SubmittedAt     time.Time          `json:"submitted_at"`
	StartedAt       *time.Time         `json:"started_at,omitempty"`
	CompletedAt     *time.Time         `json:"completed_at,omitempty"`
	Report          *woosync.RunReport `json:"report,omitempty"`
}

// NewJob creates a pending job
func NewJob(configID uuid.UUID, trigger Trigger) *Job {
	return &Job{
		ID:              uuid.New(),
		ConfigurationID: configID,
		Trigger:         trigger,
		Status:          JobStatusPending,
		SubmittedAt:     time.Now(),
	}
}

// Start marks the job as running
func (j *Job) Start() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.Error = ""
}

// Complete records the run report. The job status follows the report status.
func (j *Job) Complete(report *woosync.RunReport) {
	now := time.Now()
	j.CompletedAt = &now
	j.Report = report
	switch report.Status {
	case woosync.SyncStatusSuccess:
		j.Status = JobStatusSuccess
	case woosync.SyncStatusPartial:
		j.Status = JobStatusPartial
	default:
		j.Status = JobStatusFailed
		j.Error = report.Error
	}
}

// Fail marks the job as failed
func (j *Job) Fail(err string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.CompletedAt = &now
	j.Error = err
}

// Skip marks the job as skipped
func (j *Job) Skip(reason string) {
	now := time.Now()
	j.Status = JobStatusSkipped
	j.CompletedAt = &now
	j.Error = reason
}

// Executor runs one sync of a configuration
type Executor interface {
	RunSync(ctx context.Context, configID uuid.UUID) (*woosync.RunReport, error)
}

// SchedulerConfig holds scheduler configuration
type SchedulerConfig struct {
	// Workers is the number of jobs run concurrently
	Workers int
	// QueueSize bounds the number of pending jobs
	QueueSize int
	// JobTimeout is the maximum time a run can take
	JobTimeout time.Duration
	// MaxHistory is the number of jobs kept for monitoring
	MaxHistory int
}

// DefaultSchedulerConfig returns default scheduler configuration
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Workers:    2,
		QueueSize:  100,
		JobTimeout: time.Hour,
		MaxHistory: 200,
	}
}

// Validate validates the configuration
func (c *SchedulerConfig) Validate() error {
	if c.Workers <= 0 || c.QueueSize <= 0 || c.JobTimeout <= 0 || c.MaxHistory < 0 {
		return ErrInvalidConfig
	}
	return nil
}

// Scheduler runs sync jobs on a fixed worker pool. Each job holds the run lock of its
// configuration, so at most one run per configuration is active across workers and,
// with a shared lock, across processes.
type Scheduler struct {
	config   SchedulerConfig
	executor Executor
	lock     RunLock
	logger   *zap.Logger

	jobs      chan *Job
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	// Job history for monitoring (in-memory, limited size), newest first
	historyMu sync.RWMutex
	history   []*Job
	byID      map[uuid.UUID]*Job
}

// NewScheduler creates a new scheduler instance
func NewScheduler(config SchedulerConfig, executor Executor, lock RunLock, logger *zap.Logger) (*Scheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if lock == nil {
		lock = NewMemoryRunLock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		config:   config,
		executor: executor,
		lock:     lock,
		logger:   logger,
		jobs:     make(chan *Job, config.QueueSize),
		history:  make([]*Job, 0, config.MaxHistory),
		byID:     make(map[uuid.UUID]*Job),
	}, nil
}

// Start starts the worker pool
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for i := 0; i < s.config.Workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}

	s.logger.Info("Sync scheduler started",
		zap.Int("workers", s.config.Workers),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)
	return nil
}

// Stop cancels running jobs and waits for the workers to exit
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	close(s.jobs)
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Sync scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Sync scheduler stop timed out")
		return ctx.Err()
	}
}

// Submit queues a sync of configID and returns a snapshot of the pending job
func (s *Scheduler) Submit(configID uuid.UUID, trigger Trigger) (*Job, error) {
	job := NewJob(configID, trigger)
	if err := s.SubmitJob(job); err != nil {
		return nil, err
	}
	snapshot := *job
	return &snapshot, nil
}

// SubmitJob queues a job for execution
func (s *Scheduler) SubmitJob(job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return ErrSchedulerNotRunning
	}

	s.addToHistory(job)
	select {
	case s.jobs <- job:
		s.logger.Debug("Sync job submitted",
			zap.String("job_id", job.ID.String()),
			zap.String("configuration_id", job.ConfigurationID.String()),
			zap.String("trigger", string(job.Trigger)),
		)
		return nil
	default:
		s.removeFromHistory(job.ID)
		return ErrJobQueueFull
	}
}

// RunNow runs a sync of configID on the calling goroutine under the run lock and
// records it in the job history. It returns woosync.ErrRunInProgress when the
// configuration is already running.
func (s *Scheduler) RunNow(ctx context.Context, configID uuid.UUID) (*Job, error) {
	release, err := s.lock.Acquire(ctx, configID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("Failed to release run lock",
				zap.String("configuration_id", configID.String()),
				zap.Error(err),
			)
		}
	}()

	job := NewJob(configID, TriggerManual)
	job.Start()
	s.addToHistory(job)

	report, err := s.executor.RunSync(ctx, configID)
	switch {
	case report != nil:
		s.update(job, func(j *Job) { j.Complete(report) })
	case err != nil:
		s.update(job, func(j *Job) { j.Fail(err.Error()) })
	}
	snapshot := s.snapshot(job)
	return &snapshot, err
}

// worker processes jobs from the queue
func (s *Scheduler) worker(ctx context.Context, workerID int) {
	defer s.wg.Done()

	s.logger.Debug("Sync worker started", zap.Int("worker_id", workerID))

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Sync worker stopping", zap.Int("worker_id", workerID))
			return
		case job, ok := <-s.jobs:
			if !ok {
				return
			}
			s.processJob(ctx, job, workerID)
		}
	}
}

// processJob executes a single job under the configuration's run lock
func (s *Scheduler) processJob(ctx context.Context, job *Job, workerID int) {
	log := s.logger.With(
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("configuration_id", job.ConfigurationID.String()),
	)

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	release, err := s.lock.Acquire(jobCtx, job.ConfigurationID)
	if err != nil {
		if errors.Is(err, woosync.ErrRunInProgress) {
			s.update(job, func(j *Job) { j.Skip(err.Error()) })
			log.Info("Sync job skipped, a run is already in progress")
			return
		}
		s.update(job, func(j *Job) { j.Fail(err.Error()) })
		log.Error("Failed to acquire run lock", zap.Error(err))
		return
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			log.Warn("Failed to release run lock", zap.Error(err))
		}
	}()

	s.update(job, (*Job).Start)
	log.Info("Processing sync job", zap.String("trigger", string(job.Trigger)))

	report, err := s.executor.RunSync(jobCtx, job.ConfigurationID)
	switch {
	case report != nil:
		s.update(job, func(j *Job) { j.Complete(report) })
	case err != nil:
		s.update(job, func(j *Job) { j.Fail(err.Error()) })
	}

	if err != nil {
		log.Error("Sync job failed", zap.Error(err))
		return
	}
	log.Info("Sync job completed", zap.String("status", string(s.snapshot(job).Status)))
}

// update applies fn to job under the history lock so readers never see a partial write
func (s *Scheduler) update(job *Job, fn func(*Job)) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()
	fn(job)
}

func (s *Scheduler) snapshot(job *Job) Job {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()
	return *job
}

// addToHistory adds a job to the front of the history
func (s *Scheduler) addToHistory(job *Job) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()

	s.history = append([]*Job{job}, s.history...)
	s.byID[job.ID] = job

	// Only finished jobs are evicted
	for len(s.history) > s.config.MaxHistory {
		i := len(s.history) - 1
		for i >= 0 && !s.history[i].Status.IsTerminal() {
			i--
		}
		if i < 0 {
			break
		}
		delete(s.byID, s.history[i].ID)
		s.history = append(s.history[:i], s.history[i+1:]...)
	}
}

func (s *Scheduler) removeFromHistory(id uuid.UUID) {
	s.historyMu.Lock()
	defer s.historyMu.Unlock()
	delete(s.byID, id)
	for i, j := range s.history {
		if j.ID == id {
			s.history = append(s.history[:i], s.history[i+1:]...)
			return
		}
	}
}

// Stats is a point-in-time view of the worker pool
type Stats struct {
	Running    bool `json:"running"`
	Workers    int  `json:"workers"`
	QueueDepth int  `json:"queue_depth"`
	QueueSize  int  `json:"queue_size"`
	Active     int  `json:"active"`
}

// Stats reports the pool state and the number of jobs currently running
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	stats := Stats{
		Running:    s.isRunning,
		Workers:    s.config.Workers,
		QueueDepth: len(s.jobs),
		QueueSize:  s.config.QueueSize,
	}
	s.mu.Unlock()

	s.historyMu.RLock()
	defer s.historyMu.RUnlock()
	for _, job := range s.history {
		if job.Status == JobStatusRunning {
			stats.Active++
		}
	}
	return stats
}

// GetJob returns a snapshot of the job with the given ID
func (s *Scheduler) GetJob(id uuid.UUID) (*Job, error) {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	job, ok := s.byID[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	snapshot := *job
	return &snapshot, nil
}

// GetJobHistory returns snapshots of the most recent jobs, newest first
func (s *Scheduler) GetJobHistory(limit int) []Job {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	if limit <= 0 || limit > len(s.history) {
		limit = len(s.history)
	}
	result := make([]Job, limit)
	for i := 0; i < limit; i++ {
		result[i] = *s.history[i]
	}
	return result
}

// GetJobHistoryByConfiguration returns recent jobs of one configuration, newest first
func (s *Scheduler) GetJobHistoryByConfiguration(configID uuid.UUID, limit int) []Job {
	s.historyMu.RLock()
	defer s.historyMu.RUnlock()

	result := make([]Job, 0)
	for _, job := range s.history {
		if job.ConfigurationID != configID {
			continue
		}
		result = append(result, *job)
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result
}
