package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiter(t *testing.T) {
	t.Run("allows requests within limit", func(t *testing.T) {
		limiter := NewRateLimiter(5, time.Minute)
		defer limiter.Close()

		for i := 0; i < 5; i++ {
			assert.True(t, limiter.Allow("client1"), "request %d should be allowed", i+1)
		}
	})

	t.Run("blocks requests exceeding limit", func(t *testing.T) {
		limiter := NewRateLimiter(3, time.Minute)

		// Use up all tokens
		for i := 0; i < 3; i++ {
			assert.True(t, limiter.Allow("client2"))
		}

		// Next request should be blocked
		assert.False(t, limiter.Allow("client2"))
	})

	t.Run("separate limits per client", func(t *testing.T) {
		limiter := NewRateLimiter(2, time.Minute)

		assert.True(t, limiter.Allow("clientA"))
		assert.True(t, limiter.Allow("clientA"))
		assert.False(t, limiter.Allow("clientA"))

		// clientB should still have tokens
		assert.True(t, limiter.Allow("clientB"))
		assert.True(t, limiter.Allow("clientB"))
	})

	t.Run("resets after window", func(t *testing.T) {
		limiter := NewRateLimiter(2, 50*time.Millisecond)

		assert.True(t, limiter.Allow("client3"))
		assert.True(t, limiter.Allow("client3"))
		assert.False(t, limiter.Allow("client3"))

		// Wait for window to pass
		time.Sleep(60 * time.Millisecond)

		// Should be allowed again
		assert.True(t, limiter.Allow("client3"))
	})

	t.Run("remaining returns correct count", func(t *testing.T) {
		limiter := NewRateLimiter(5, time.Minute)

		assert.Equal(t, 5, limiter.Remaining("newclient"))

		limiter.Allow("newclient") // 4 remaining
		limiter.Allow("newclient") // 3 remaining

		assert.Equal(t, 3, limiter.Remaining("newclient"))
	})

	t.Run("concurrent access is safe", func(t *testing.T) {
		limiter := NewRateLimiter(100, time.Minute)
		var wg sync.WaitGroup
		allowed := 0
		var mu sync.Mutex

		for i := 0; i < 150; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if limiter.Allow("concurrent-client") {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}()
		}

		wg.Wait()
		assert.Equal(t, 100, allowed)
	})
}

func newLimitedRouter(limiter *RateLimiter, keyFunc func(*gin.Context) string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	group := router.Group("/sync/configurations/:id")
	if keyFunc == nil {
		group.Use(RateLimit(limiter))
	} else {
		group.Use(RateLimitByKey(limiter, keyFunc))
	}
	group.POST("/run", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return router
}

func postRun(router *gin.Engine, configID, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/sync/configurations/"+configID+"/run", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("returns 429 when limit exceeded", func(t *testing.T) {
		limiter := NewRateLimiter(2, time.Minute)
		defer limiter.Close()
		router := newLimitedRouter(limiter, nil)

		for i := 0; i < 2; i++ {
			assert.Equal(t, http.StatusOK, postRun(router, "a", "10.0.0.1:1000").Code)
		}

		w := postRun(router, "a", "10.0.0.1:1000")
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_RATE_LIMITED")
		assert.Equal(t, "60", w.Header().Get("Retry-After"))
	})

	t.Run("includes rate limit headers", func(t *testing.T) {
		limiter := NewRateLimiter(5, time.Minute)
		defer limiter.Close()
		router := newLimitedRouter(limiter, nil)

		w := postRun(router, "a", "10.0.0.1:1000")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "4", w.Header().Get("X-RateLimit-Remaining"))
	})

	t.Run("separate limits per IP address", func(t *testing.T) {
		limiter := NewRateLimiter(1, time.Minute)
		defer limiter.Close()
		router := newLimitedRouter(limiter, nil)

		assert.Equal(t, http.StatusOK, postRun(router, "a", "10.0.0.1:1000").Code)
		assert.Equal(t, http.StatusTooManyRequests, postRun(router, "a", "10.0.0.1:1000").Code)
		assert.Equal(t, http.StatusOK, postRun(router, "a", "10.0.0.2:1000").Code)
	})
}

func TestRateLimitByKey_ConfigurationRunKey(t *testing.T) {
	limiter := NewRateLimiter(1, time.Minute)
	defer limiter.Close()
	router := newLimitedRouter(limiter, ConfigurationRunKey)

	assert.Equal(t, http.StatusOK, postRun(router, "a", "10.0.0.1:1000").Code)
	assert.Equal(t, http.StatusTooManyRequests, postRun(router, "a", "10.0.0.1:1000").Code)
	assert.Equal(t, http.StatusOK, postRun(router, "b", "10.0.0.1:1000").Code, "other configurations keep their own bucket")
}

func TestRateLimiter_Close(t *testing.T) {
	limiter := NewRateLimiter(1, time.Minute)
	limiter.Close()
	assert.NotPanics(t, limiter.Close)
}
