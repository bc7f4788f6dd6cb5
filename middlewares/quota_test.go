// Quota：Limit=2，連打 3 次 → 第 3 次 429
package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func quotaServer(rdb *redis.Client, uid int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	s := gin.New()
	s.Use(func(c *gin.Context) { c.Set(CtxUserID, uid); c.Next() })
	s.Use(Quota(rdb, QuotaRule{Limit: 2, Window: time.Hour, KeyFn: UserDayKey}))
	s.GET("/x", func(c *gin.Context) { c.String(200, "ok") })
	return s
}

func TestQuota_Exceed429(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := quotaServer(rdb, 7)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		s.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		if w.Code != 200 {
			t.Fatalf("unexpected %d", w.Code)
		}
	}
	w := httptest.NewRecorder()
	s.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != 429 {
		t.Fatalf("want 429, got %d; body=%s", w.Code, w.Body.String())
	}

	if ttl := mr.TTL("quota:user:7:day"); ttl != time.Hour {
		t.Fatalf("want window ttl 1h, got %v", ttl)
	}

	// 視窗過了就重新計算
	mr.FastForward(time.Hour + time.Second)
	w = httptest.NewRecorder()
	s.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != 200 {
		t.Fatalf("want 200 after window, got %d", w.Code)
	}
}

func TestQuota_AnonymousNotCounted(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := quotaServer(rdb, 0)

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		s.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		if w.Code != 200 {
			t.Fatalf("unexpected %d", w.Code)
		}
	}
	if len(mr.Keys()) != 0 {
		t.Fatalf("no quota key expected, got %v", mr.Keys())
	}
}
