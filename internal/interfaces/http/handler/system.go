package handler

import (
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/erp/woosync/internal/infrastructure/scheduler"
)

// Version is the API version reported by /system/info; overridden at link time
var Version = "1.0.0"

// SchedulerStats reports the state of the sync worker pool
type SchedulerStats interface {
	Stats() scheduler.Stats
}

// SystemHandler serves the system endpoints
type SystemHandler struct {
	BaseHandler
	startTime time.Time
	scheduler SchedulerStats
}

// NewSystemHandler creates a SystemHandler; stats may be nil
func NewSystemHandler(stats SchedulerStats) *SystemHandler {
	return &SystemHandler{startTime: time.Now(), scheduler: stats}
}

// SystemInfoResponse describes the running service
type SystemInfoResponse struct {
	Name      string           `json:"name"`
	Version   string           `json:"version"`
	GoVersion string           `json:"go_version"`
	Uptime    string           `json:"uptime"`
	Scheduler *scheduler.Stats `json:"scheduler,omitempty"`
}

// GetSystemInfo handles GET /system/info
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	info := SystemInfoResponse{
		Name:      "WooCommerce Sync API",
		Version:   Version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}
	if h.scheduler != nil {
		stats := h.scheduler.Stats()
		info.Scheduler = &stats
	}
	h.Success(c, info)
}

// PingResponse is the body of GET /system/ping
type PingResponse struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Ping handles GET /system/ping
func (h *SystemHandler) Ping(c *gin.Context) {
	h.Success(c, PingResponse{Message: "pong", Timestamp: time.Now().UTC().Format(time.RFC3339)})
}
