package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/erp/woosync/internal/domain/woosync"
	"github.com/erp/woosync/internal/infrastructure/logger"
	"github.com/erp/woosync/internal/infrastructure/scheduler"
	"github.com/erp/woosync/internal/interfaces/http/dto"
	"github.com/erp/woosync/internal/interfaces/http/middleware"
)

// SyncService manages store link configurations
type SyncService interface {
	ListConfigurations(ctx context.Context) ([]woosync.SyncConfiguration, error)
	GetConfiguration(ctx context.Context, id uuid.UUID) (*woosync.SyncConfiguration, error)
	SaveConfiguration(ctx context.Context, cfg *woosync.SyncConfiguration) error
	UpdateSchedule(ctx context.Context, configID uuid.UUID, intervalMinutes int, enabled bool) (*woosync.SyncConfiguration, error)
	AdjustStock(ctx context.Context, configID, productID uuid.UUID, qty decimal.Decimal) (*woosync.StockRecord, error)
}

// SyncJobs runs and tracks sync jobs
type SyncJobs interface {
	Submit(configID uuid.UUID, trigger scheduler.Trigger) (*scheduler.Job, error)
	RunNow(ctx context.Context, configID uuid.UUID) (*scheduler.Job, error)
	GetJob(id uuid.UUID) (*scheduler.Job, error)
	GetJobHistory(limit int) []scheduler.Job
	GetJobHistoryByConfiguration(configID uuid.UUID, limit int) []scheduler.Job
}

// SyncHandler serves the sync configuration and job endpoints
type SyncHandler struct {
	BaseHandler
	service SyncService
	jobs    SyncJobs
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(service SyncService, jobs SyncJobs) *SyncHandler {
	return &SyncHandler{service: service, jobs: jobs}
}

// bindJSON decodes the body into req, answering 400 on malformed JSON or failed validation
func (h *SyncHandler) bindJSON(c *gin.Context, req any) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}
	var validationErrors validator.ValidationErrors
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodePayloadTooLarge, "Request body exceeds maximum allowed size")
	case errors.As(err, &validationErrors):
		middleware.HandleValidationError(c, err)
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr), errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, "Malformed JSON body")
	default:
		h.BadRequest(c, err.Error())
	}
	return false
}

// ListConfigurations handles GET /sync/configurations
func (h *SyncHandler) ListConfigurations(c *gin.Context) {
	configs, err := h.service.ListConfigurations(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	items := make([]dto.SyncConfigurationResponse, 0, len(configs))
	for i := range configs {
		items = append(items, dto.NewSyncConfigurationResponse(&configs[i]))
	}
	h.Success(c, items)
}

// GetConfiguration handles GET /sync/configurations/:id
func (h *SyncHandler) GetConfiguration(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	cfg, err := h.service.GetConfiguration(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, dto.NewSyncConfigurationResponse(cfg))
}

// SaveConfiguration handles POST /sync/configurations.
// A body carrying an id updates that configuration; otherwise a new one is created.
func (h *SyncHandler) SaveConfiguration(c *gin.Context) {
	var req dto.SyncConfigurationRequest
	if !h.bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()

	var cfg *woosync.SyncConfiguration
	created := req.ID == nil
	if created {
		cfg = woosync.NewSyncConfiguration(req.SiteURL, req.ConsumerKey, req.ConsumerSecret)
	} else {
		existing, err := h.service.GetConfiguration(ctx, *req.ID)
		if err != nil {
			h.HandleDomainError(c, err)
			return
		}
		cfg = existing
	}
	req.ApplyTo(cfg)

	if err := h.service.SaveConfiguration(ctx, cfg); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	if created {
		h.Created(c, dto.NewSyncConfigurationResponse(cfg))
		return
	}
	h.Success(c, dto.NewSyncConfigurationResponse(cfg))
}

// UpdateSchedule handles PUT /sync/configurations/:id/schedule
func (h *SyncHandler) UpdateSchedule(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req dto.ScheduleRequest
	if !h.bindJSON(c, &req) {
		return
	}
	cfg, err := h.service.UpdateSchedule(c.Request.Context(), id, req.IntervalMinutes, *req.Enabled)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, dto.NewSyncConfigurationResponse(cfg))
}

// AdjustStock handles PUT /sync/configurations/:id/stock/:product_id
func (h *SyncHandler) AdjustStock(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	productID, err := uuid.Parse(c.Param("product_id"))
	if err != nil {
		h.BadRequest(c, "Invalid product_id format")
		return
	}
	var req dto.StockAdjustRequest
	if !h.bindJSON(c, &req) {
		return
	}
	rec, err := h.service.AdjustStock(c.Request.Context(), id, productID, *req.Quantity)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, dto.NewStockRecordResponse(rec))
}

// RunSync handles POST /sync/configurations/:id/run.
// With ?async=true the run is queued and the pending job returned with 202.
// Otherwise the run happens within the request and the finished job is returned;
// a run aborted by a fatal error answers 502 with the job attached.
func (h *SyncHandler) RunSync(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	async, err := strconv.ParseBool(c.DefaultQuery("async", "false"))
	if err != nil {
		h.BadRequest(c, "async must be a boolean")
		return
	}
	ctx := c.Request.Context()
	if _, err := h.service.GetConfiguration(ctx, id); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	if async {
		job, err := h.jobs.Submit(id, scheduler.TriggerManual)
		if err != nil {
			h.HandleDomainError(c, err)
			return
		}
		h.Accepted(c, newSyncJobResponse(job))
		return
	}

	job, err := h.jobs.RunNow(ctx, id)
	if err != nil {
		if job == nil {
			h.HandleDomainError(c, err)
			return
		}
		logger.GetGinLogger(c).Warn("Synchronous sync run aborted",
			zap.String("configuration_id", id.String()),
			zap.String("job_id", job.ID.String()),
			zap.Error(err),
		)
		resp := dto.NewErrorResponseWithRequestID(dto.ErrCodeSyncFailed, err.Error(), getRequestID(c))
		resp.Data = newSyncJobResponse(job)
		c.JSON(dto.GetHTTPStatus(dto.ErrCodeSyncFailed), resp)
		return
	}
	h.Success(c, newSyncJobResponse(job))
}

// ListJobs handles GET /sync/jobs, optionally filtered by ?configuration_id
func (h *SyncHandler) ListJobs(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	limit := req.Limit
	if limit == 0 {
		limit = dto.DefaultPageSize
	}

	var jobs []scheduler.Job
	if raw := c.Query("configuration_id"); raw != "" {
		configID, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid configuration_id format")
			return
		}
		jobs = h.jobs.GetJobHistoryByConfiguration(configID, limit)
	} else {
		jobs = h.jobs.GetJobHistory(limit)
	}

	items := make([]dto.SyncJobResponse, 0, len(jobs))
	for i := range jobs {
		items = append(items, newSyncJobResponse(&jobs[i]))
	}
	h.SuccessWithMeta(c, items, int64(len(items)), 1, limit)
}

// GetJob handles GET /sync/jobs/:id
func (h *SyncHandler) GetJob(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	job, err := h.jobs.GetJob(id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, newSyncJobResponse(job))
}

func newSyncJobResponse(job *scheduler.Job) dto.SyncJobResponse {
	return dto.SyncJobResponse{
		ID:              job.ID,
		ConfigurationID: job.ConfigurationID,
		Trigger:         string(job.Trigger),
		Status:          string(job.Status),
		Error:           job.Error,
		SubmittedAt:     job.SubmittedAt,
		StartedAt:       job.StartedAt,
		CompletedAt:     job.CompletedAt,
		Report:          job.Report,
	}
}
