// RateLimiter：RPS=1, Burst=1；連打兩次 → 第 2 次 429 且帶 Retry-After
package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestRateLimiter_429(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(LimiterConfig{RPS: 1, Burst: 1, IdleTTL: time.Minute})
	defer rl.Stop()

	s := gin.New()
	s.Use(rl.Middleware(func(c *gin.Context) string { return c.Query("k") }))
	s.GET("/x", func(c *gin.Context) { c.String(200, "ok") })

	w1 := httptest.NewRecorder()
	s.ServeHTTP(w1, httptest.NewRequest(http.MethodGet, "/x?k=a", nil))
	if w1.Code != 200 {
		t.Fatalf("want 200, got %d", w1.Code)
	}

	w2 := httptest.NewRecorder()
	s.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/x?k=a", nil))
	if w2.Code != http.StatusTooManyRequests {
		t.Fatalf("want 429, got %d", w2.Code)
	}
	if w2.Header().Get("Retry-After") != "1" {
		t.Fatalf("want Retry-After=1, got %q", w2.Header().Get("Retry-After"))
	}

	// 另一個 key 有自己的桶子
	w3 := httptest.NewRecorder()
	s.ServeHTTP(w3, httptest.NewRequest(http.MethodGet, "/x?k=b", nil))
	if w3.Code != 200 {
		t.Fatalf("want 200 for other key, got %d", w3.Code)
	}
}

func TestRateLimiter_RetryAfterFollowsRate(t *testing.T) {
	rl := NewRateLimiter(LimiterConfig{RPS: 0.5, Burst: 1, IdleTTL: time.Minute})
	defer rl.Stop()
	if got := rl.retryAfter(); got != 2 {
		t.Fatalf("want 2s, got %d", got)
	}
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(LimiterConfig{RPS: 1, Burst: 1, IdleTTL: time.Minute})
	if rl.Stopped() {
		t.Fatalf("new limiter should be running")
	}
	rl.Stop()
	rl.Stop()
	if !rl.Stopped() {
		t.Fatalf("want stopped after Stop")
	}
}
