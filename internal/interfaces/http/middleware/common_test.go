package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(t *testing.T, handler gin.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	router := gin.New()
	router.Use(handler)
	router.Any("/api/v1/sync/configurations", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCORSWithConfig(t *testing.T) {
	const admin = "https://admin.shop.test"

	tests := []struct {
		name        string
		origins     []string
		method      string
		origin      string
		wantStatus  int
		wantAllow   string
		wantCreds   bool
		wantHeaders bool
	}{
		{"no origins configured", nil, http.MethodGet, admin, http.StatusOK, "", false, false},
		{"listed origin", []string{admin}, http.MethodGet, admin, http.StatusOK, admin, true, true},
		{"unlisted origin", []string{admin}, http.MethodGet, "https://evil.test", http.StatusOK, "", false, false},
		{"same origin request", []string{admin}, http.MethodGet, "", http.StatusOK, "", false, false},
		{"wildcard drops credentials", []string{"*"}, http.MethodGet, admin, http.StatusOK, "*", false, true},
		{"preflight from listed origin", []string{admin}, http.MethodOptions, admin, http.StatusNoContent, admin, true, true},
		{"preflight from unlisted origin", []string{admin}, http.MethodOptions, "https://evil.test", http.StatusNoContent, "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultCORSConfig()
			cfg.AllowOrigins = tt.origins
			req := httptest.NewRequest(tt.method, "/api/v1/sync/configurations", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}

			w := serve(t, CORSWithConfig(cfg), req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantAllow, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.wantCreds, w.Header().Get("Access-Control-Allow-Credentials") == "true")
			assert.Equal(t, tt.wantHeaders, w.Header().Get("Access-Control-Allow-Methods") != "")
		})
	}
}

func TestCORSWithConfig_Headers(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowOrigins = []string{"https://admin.shop.test"}
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/sync/configurations", nil)
	req.Header.Set("Origin", "https://admin.shop.test")

	w := serve(t, CORSWithConfig(cfg), req)

	assert.Equal(t, "GET, POST, PUT, DELETE, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), RequestIDHeader)
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "Retry-After")
	assert.Equal(t, "43200", w.Header().Get("Access-Control-Max-Age"))
	assert.Equal(t, "Origin", w.Header().Get("Vary"))
}

func TestRequestID(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   func(t *testing.T, id string)
	}{
		{"generated", "", func(t *testing.T, id string) {
			assert.Len(t, id, 32)
			assert.NotContains(t, id, "-")
		}},
		{"propagated", "run-42", func(t *testing.T, id string) {
			assert.Equal(t, "run-42", id)
		}},
		{"truncated", strings.Repeat("a", 300), func(t *testing.T, id string) {
			assert.Len(t, id, MaxRequestIDLength)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var fromContext string
			router := gin.New()
			router.Use(RequestID())
			router.GET("/", func(c *gin.Context) {
				fromContext = c.GetString(RequestIDKey)
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set(RequestIDHeader, tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			tt.want(t, fromContext)
			assert.Equal(t, fromContext, w.Header().Get(RequestIDHeader))
		})
	}

	t.Run("unique per request", func(t *testing.T) {
		seen := make(map[string]bool)
		for range 50 {
			w := serve(t, RequestID(), httptest.NewRequest(http.MethodGet, "/api/v1/sync/configurations", nil))
			id := w.Header().Get(RequestIDHeader)
			require.False(t, seen[id])
			seen[id] = true
		}
	})
}

func TestSecureWithConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		w := serve(t, Secure(), httptest.NewRequest(http.MethodGet, "/api/v1/sync/configurations", nil))

		assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "no-referrer", w.Header().Get("Referrer-Policy"))
		assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
		assert.Equal(t, "default-src 'none'; frame-ancestors 'none'", w.Header().Get("Content-Security-Policy"))
		assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
	})

	t.Run("hsts", func(t *testing.T) {
		cfg := SecurityConfig{HSTSMaxAge: 365 * 24 * time.Hour, HSTSIncludeSubdomains: true}
		w := serve(t, SecureWithConfig(cfg), httptest.NewRequest(http.MethodGet, "/api/v1/sync/configurations", nil))

		assert.Equal(t, "max-age=31536000; includeSubDomains", w.Header().Get("Strict-Transport-Security"))
		assert.Empty(t, w.Header().Get("Content-Security-Policy"))
	})
}

func TestTimeout(t *testing.T) {
	tests := []struct {
		name         string
		timeout      time.Duration
		wantDeadline bool
	}{
		{"bounded", 50 * time.Millisecond, true},
		{"disabled", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				deadline    time.Time
				hasDeadline bool
				ctxErr      error
			)
			router := gin.New()
			router.Use(Timeout(tt.timeout))
			router.GET("/", func(c *gin.Context) {
				deadline, hasDeadline = c.Request.Context().Deadline()
				if hasDeadline {
					<-c.Request.Context().Done()
					ctxErr = c.Request.Context().Err()
				}
				c.Status(http.StatusOK)
			})

			router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tt.wantDeadline, hasDeadline)
			if tt.wantDeadline {
				assert.WithinDuration(t, time.Now(), deadline, time.Second)
				assert.Error(t, ctxErr)
			}
		})
	}
}
