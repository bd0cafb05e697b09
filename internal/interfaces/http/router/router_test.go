package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func ok(name string) gin.HandlerFunc {
	return func(c *gin.Context) { c.String(http.StatusOK, name) }
}

func serve(engine *gin.Engine, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())
	assert.Equal(t, "/api/v1", r.BasePath())

	r = NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "/api/v2", r.BasePath())
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	sync := NewDomainGroup("sync", "/sync").
		GET("/configurations", ok("list")).
		POST("/configurations", ok("create")).
		GET("/configurations/:id", ok("get")).
		POST("/configurations/:id/run", ok("run")).
		PUT("/configurations/:id/schedule", ok("schedule"))
	system := NewDomainGroup("system", "/system").GET("/ping", ok("pong"))

	NewRouter(engine).Register(sync).Register(system).Setup()

	tests := []struct {
		method string
		target string
		want   string
	}{
		{http.MethodGet, "/api/v1/sync/configurations", "list"},
		{http.MethodPost, "/api/v1/sync/configurations", "create"},
		{http.MethodGet, "/api/v1/sync/configurations/abc", "get"},
		{http.MethodPost, "/api/v1/sync/configurations/abc/run", "run"},
		{http.MethodPut, "/api/v1/sync/configurations/abc/schedule", "schedule"},
		{http.MethodGet, "/api/v1/system/ping", "pong"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			w := serve(engine, tt.method, tt.target)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, w.Body.String())
		})
	}

	t.Run("unregistered method", func(t *testing.T) {
		w := serve(engine, http.MethodDelete, "/api/v1/sync/configurations/abc")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestDomainGroup_Middleware(t *testing.T) {
	engine := gin.New()
	var calls []string
	mark := func(name string) gin.HandlerFunc {
		return func(c *gin.Context) {
			calls = append(calls, name)
			c.Next()
		}
	}

	g := NewDomainGroup("sync", "/sync").Use(mark("group"))
	g.POST("/configurations/:id/run", mark("route"), ok("run"))
	g.Group("jobs", "/jobs").GET("", ok("jobs"))
	NewRouter(engine).Register(g).Setup()

	serve(engine, http.MethodPost, "/api/v1/sync/configurations/abc/run")
	assert.Equal(t, []string{"group", "route"}, calls)

	calls = nil
	w := serve(engine, http.MethodGet, "/api/v1/sync/jobs")
	assert.Equal(t, "jobs", w.Body.String())
	assert.Equal(t, []string{"group"}, calls, "subgroups inherit group middleware")
}

func TestDomainGroup_Routes(t *testing.T) {
	g := NewDomainGroup("sync", "/sync")
	g.GET("/configurations", ok("list"))
	jobs := g.Group("jobs", "/jobs")
	jobs.GET("", ok("list"))
	jobs.GET("/:id", ok("get"))

	assert.Equal(t, "sync", g.Name())
	assert.Equal(t, "/sync", g.Prefix())
	assert.Equal(t, []RouteInfo{
		{Method: http.MethodGet, Path: "/sync/configurations"},
		{Method: http.MethodGet, Path: "/sync/jobs"},
		{Method: http.MethodGet, Path: "/sync/jobs/:id"},
	}, g.Routes())
}
