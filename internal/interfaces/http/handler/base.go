package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/erp/woosync/internal/domain/woosync"
	"github.com/erp/woosync/internal/infrastructure/scheduler"
	"github.com/erp/woosync/internal/interfaces/http/dto"
	"github.com/erp/woosync/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	return middleware.RequestIDFromContext(c)
}

// parseID parses the :id path parameter, answering 400 when it is not a UUID
func (h *BaseHandler) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid ID format")
		return uuid.Nil, false
	}
	return id, true
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Accepted sends a 202 accepted response
func (h *BaseHandler) Accepted(c *gin.Context, data any) {
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// ErrorWithCode sends an error response, deriving status code from error code
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	h.Error(c, dto.GetHTTPStatus(code), code, message)
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// Conflict sends a 409 conflict response
func (h *BaseHandler) Conflict(c *gin.Context, message string) {
	h.Error(c, http.StatusConflict, dto.ErrCodeConflict, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// ServiceUnavailable sends a 503 response
func (h *BaseHandler) ServiceUnavailable(c *gin.Context, message string) {
	h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeServiceUnavailable, message)
}

// ValidationError sends a 400 validation error response with details
func (h *BaseHandler) ValidationError(c *gin.Context, details []dto.ValidationDetail) {
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
		"Request validation failed",
		getRequestID(c),
		details,
	))
}

// errorMapping maps a sentinel error to its response code and public message
type errorMapping struct {
	target  error
	code    string
	message string
}

// errorMappings is checked in order; the first errors.Is match wins
var errorMappings = []errorMapping{
	{woosync.ErrConfigurationNotFound, dto.ErrCodeNotFound, "Sync configuration not found"},
	{woosync.ErrRecordNotFound, dto.ErrCodeNotFound, "Record not found"},
	{woosync.ErrStockItemNotFound, dto.ErrCodeNotFound, "Product is not stock-tracked for this store"},
	{scheduler.ErrJobNotFound, dto.ErrCodeNotFound, "Sync job not found"},
	{woosync.ErrInvalidConfiguration, dto.ErrCodeValidation, ""},
	{woosync.ErrInvalidQuantity, dto.ErrCodeValidation, ""},
	{woosync.ErrRunInProgress, dto.ErrCodeRunInProgress, "A sync run is already in progress for this configuration"},
	{scheduler.ErrJobQueueFull, dto.ErrCodeQueueFull, "Sync queue is full, try again later"},
	{scheduler.ErrSchedulerNotRunning, dto.ErrCodeServiceUnavailable, "Sync scheduler is not running"},
	{woosync.ErrConnectionFailed, dto.ErrCodeRemoteUnavailable, ""},
	{woosync.ErrRemoteUnavailable, dto.ErrCodeRemoteUnavailable, ""},
	{woosync.ErrDimensionUnitMissing, dto.ErrCodeSyncFailed, ""},
	{context.DeadlineExceeded, dto.ErrCodeTimeout, "The request timed out"},
}

// HandleDomainError converts domain and scheduler errors to HTTP responses.
// An empty mapping message exposes the error text, which carries the failing detail.
func (h *BaseHandler) HandleDomainError(c *gin.Context, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			message := m.message
			if message == "" {
				message = err.Error()
			}
			h.ErrorWithCode(c, m.code, message)
			return
		}
	}

	// Unknown error type - return as internal error
	h.InternalError(c, "An unexpected error occurred")
}

// HandleError is a generic error handler that ignores nil errors
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	h.HandleDomainError(c, err)
}
