package handler

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erp/woosync/internal/infrastructure/scheduler"
)

type fakeStats scheduler.Stats

func (f fakeStats) Stats() scheduler.Stats { return scheduler.Stats(f) }

func newSystemEngine(stats SchedulerStats) *gin.Engine {
	h := NewSystemHandler(stats)
	engine := gin.New()
	engine.GET("/system/info", h.GetSystemInfo)
	engine.GET("/system/ping", h.Ping)
	return engine
}

func TestSystemHandler_GetSystemInfo(t *testing.T) {
	tests := []struct {
		name  string
		stats SchedulerStats
		want  *scheduler.Stats
	}{
		{"without scheduler", nil, nil},
		{"with scheduler", fakeStats{Running: true, Workers: 2, QueueDepth: 3, QueueSize: 100, Active: 1},
			&scheduler.Stats{Running: true, Workers: 2, QueueDepth: 3, QueueSize: 100, Active: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(newSystemEngine(tt.stats), http.MethodGet, "/system/info", "")
			require.Equal(t, http.StatusOK, w.Code)

			var resp APIResponse[SystemInfoResponse]
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.True(t, resp.Success)
			assert.Equal(t, "WooCommerce Sync API", resp.Data.Name)
			assert.Equal(t, Version, resp.Data.Version)
			assert.NotEmpty(t, resp.Data.GoVersion)
			assert.Equal(t, tt.want, resp.Data.Scheduler)
		})
	}
}

func TestSystemHandler_Ping(t *testing.T) {
	w := doRequest(newSystemEngine(nil), http.MethodGet, "/system/ping", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp APIResponse[PingResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "pong", resp.Data.Message)
	ts, err := time.Parse(time.RFC3339, resp.Data.Timestamp)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), ts, time.Minute)
}
