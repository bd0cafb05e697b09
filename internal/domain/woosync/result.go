package woosync

import (
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// SyncStatus represents the status of a sync run
// ---------------------------------------------------------------------------

// SyncStatus represents the synchronization status
type SyncStatus string

const (
	// SyncStatusPending indicates the run has not started
	SyncStatusPending SyncStatus = "PENDING"
	// SyncStatusInProgress indicates the run is executing
	SyncStatusInProgress SyncStatus = "IN_PROGRESS"
	// SyncStatusSuccess indicates every record was synced
	SyncStatusSuccess SyncStatus = "SUCCESS"
	// SyncStatusPartial indicates the run completed with record failures
	SyncStatusPartial SyncStatus = "PARTIAL"
	// SyncStatusFailed indicates the run was aborted by a fatal error
	SyncStatusFailed SyncStatus = "FAILED"
)

// IsValid returns true if the status is valid
func (s SyncStatus) IsValid() bool {
	switch s {
	case SyncStatusPending, SyncStatusInProgress, SyncStatusSuccess, SyncStatusPartial, SyncStatusFailed:
		return true
	default:
		return false
	}
}

// String returns the string representation of SyncStatus
func (s SyncStatus) String() string {
	return string(s)
}

// ---------------------------------------------------------------------------
// SyncStep represents a state of the run state machine
// ---------------------------------------------------------------------------

// SyncStep is a state of the sync run
type SyncStep string

const (
	StepIdle                SyncStep = "IDLE"
	StepContextFetch        SyncStep = "CONTEXT_FETCH"
	StepProductSync         SyncStep = "PRODUCT_SYNC"
	StepVariationSync       SyncStep = "VARIATION_SYNC"
	StepRelatedLinkSync     SyncStep = "RELATED_LINK_SYNC"
	StepCustomerSync        SyncStep = "CUSTOMER_SYNC"
	StepOrderSync           SyncStep = "ORDER_SYNC"
	StepReverseProductSync  SyncStep = "REVERSE_PRODUCT_SYNC"
	StepStockReconciliation SyncStep = "STOCK_RECONCILIATION"
	StepLogUpdate           SyncStep = "LOG_UPDATE"
)

// String returns the string representation of SyncStep
func (s SyncStep) String() string {
	return string(s)
}

// MaxRecordedFailures bounds the failure details kept per step
const MaxRecordedFailures = 200

// RecordFailure describes a remote record that failed to sync
type RecordFailure struct {
	// RemoteID is the remote identifier of the failed record
	RemoteID int64 `json:"remote_id"`
	// Message is the error description
	Message string `json:"message"`
}

// StepResult counts the records handled by one step
type StepResult struct {
	Step      SyncStep        `json:"step"`
	Total     int             `json:"total"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Skipped   int             `json:"skipped"`
	Failures  []RecordFailure `json:"failures,omitempty"`
}

// Succeed counts a synced record
func (r *StepResult) Succeed() {
	r.Total++
	r.Succeeded++
}

// Skip counts a record that needed no work
func (r *StepResult) Skip() {
	r.Total++
	r.Skipped++
}

// Fail counts a failed record and keeps its details
func (r *StepResult) Fail(remoteID int64, err error) {
	r.Total++
	r.Failed++
	if len(r.Failures) < MaxRecordedFailures {
		r.Failures = append(r.Failures, RecordFailure{RemoteID: remoteID, Message: err.Error()})
	}
}

// RunReport is the outcome of one sync run
type RunReport struct {
	ConfigurationID uuid.UUID    `json:"configuration_id"`
	RunID           uuid.UUID    `json:"run_id"`
	State           SyncStep     `json:"state"`
	Status          SyncStatus   `json:"status"`
	StartedAt       time.Time    `json:"started_at"`
	FinishedAt      *time.Time   `json:"finished_at,omitempty"`
	Steps           []StepResult `json:"steps"`
	Error           string       `json:"error,omitempty"`
}

// NewRunReport creates an in-progress report for a run of configID
func NewRunReport(configID uuid.UUID, startedAt time.Time) *RunReport {
	return &RunReport{
		ConfigurationID: configID,
		RunID:           uuid.New(),
		State:           StepIdle,
		Status:          SyncStatusInProgress,
		StartedAt:       startedAt,
	}
}

// Enter moves the run to step and returns the step's result
func (r *RunReport) Enter(step SyncStep) *StepResult {
	r.State = step
	r.Steps = append(r.Steps, StepResult{Step: step})
	return &r.Steps[len(r.Steps)-1]
}

// Result returns the result of step, or nil when the step did not run
func (r *RunReport) Result(step SyncStep) *StepResult {
	for i := range r.Steps {
		if r.Steps[i].Step == step {
			return &r.Steps[i]
		}
	}
	return nil
}

// FailedRecords returns the number of failed records over all steps
func (r *RunReport) FailedRecords() int {
	n := 0
	for _, s := range r.Steps {
		n += s.Failed
	}
	return n
}

// Complete ends the run, returning to idle with SUCCESS or PARTIAL
func (r *RunReport) Complete(now time.Time) {
	r.State = StepIdle
	r.FinishedAt = &now
	if r.FailedRecords() > 0 {
		r.Status = SyncStatusPartial
		return
	}
	r.Status = SyncStatusSuccess
}

// Abort ends the run with a fatal error. State keeps the step that failed.
func (r *RunReport) Abort(now time.Time, err error) {
	r.FinishedAt = &now
	r.Status = SyncStatusFailed
	r.Error = err.Error()
}
