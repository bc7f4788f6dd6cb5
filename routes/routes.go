// routes/routes.go
package routes

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"devevents/middlewares"
	"devevents/services"
	"devevents/utils"
)

// Deps is what main hands to RegisterRoutes.
type Deps struct {
	Events   *services.EventService
	Bookings *services.BookingService
	Users    *services.UserService
	Redis    *redis.Client           // 每日配額
	Cache    *utils.CacheInvalidator // 寫入後清快取，nil 表示沒有快取
	Quota    int                     // 每位使用者每天的請求上限，0 表示不限
	Dev      bool                    // 開發模式才把內部錯誤細節回給 client

	// OAuthSecret 非空時才註冊 POST /oauth/:provider
	OAuthSecret string
}

// 依賴注入容器
type deps struct {
	events   *services.EventService
	bookings *services.BookingService
	users    *services.UserService
	inv      *utils.CacheInvalidator
	dev      bool
}

// Limiters are the rate limiters RegisterRoutes installed. Stop them on shutdown.
type Limiters []*middlewares.RateLimiter

func (ls Limiters) Stop() {
	for _, l := range ls {
		l.Stop()
	}
}

func RegisterRoutes(server *gin.Engine, d Deps) Limiters {
	h := &deps{events: d.Events, bookings: d.Bookings, users: d.Users, inv: d.Cache, dev: d.Dev}

	server.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// ===== ① 全域 IP 限速（20 rps / 40 burst）=====
	globalLimiter := middlewares.NewRateLimiter(middlewares.LimiterConfig{
		RPS:     20,
		Burst:   40,
		IdleTTL: 3 * time.Minute,
	})
	server.Use(globalLimiter.Middleware(func(c *gin.Context) string {
		return "ip:" + c.ClientIP()
	}))

	// ===== ② /signup、/login 以 IP 做 0.5 rps =====
	authLimiter := middlewares.NewRateLimiter(middlewares.LimiterConfig{
		RPS:     0.5,
		Burst:   2,
		IdleTTL: 10 * time.Minute,
	})
	server.POST("/signup",
		authLimiter.Middleware(func(c *gin.Context) string { return "signup:" + c.ClientIP() }),
		h.signup,
	)
	server.POST("/login",
		authLimiter.Middleware(func(c *gin.Context) string { return "login:" + c.ClientIP() }),
		h.login,
	)
	if d.OAuthSecret != "" {
		server.POST("/oauth/:provider",
			authLimiter.Middleware(func(c *gin.Context) string { return "oauth:" + c.ClientIP() }),
			requireBridgeKey(d.OAuthSecret),
			h.oauthSignIn,
		)
	}

	api := server.Group("/api")

	// 公開 endpoints → 全域 IP 限速與回應快取
	api.GET("/events", h.getEvents)
	api.GET("/events/:slug", h.getEvent)
	api.GET("/events/:slug/similar", h.getSimilarEvents)
	api.GET("/user/:id", h.getUser)

	// ===== ③ 受保護群組：先驗證，再以 userId 限速 + 每日配額 =====
	auth := api.Group("/")
	auth.Use(middlewares.Authenticate)

	userLimiter := middlewares.NewRateLimiter(middlewares.LimiterConfig{
		RPS:     5,
		Burst:   10,
		IdleTTL: 10 * time.Minute,
	})
	auth.Use(userLimiter.Middleware(func(c *gin.Context) string {
		return "u:" + strconv.FormatInt(c.GetInt64(middlewares.CtxUserID), 10)
	}))
	if d.Redis != nil && d.Quota > 0 {
		auth.Use(middlewares.Quota(d.Redis, middlewares.QuotaRule{
			Limit:  d.Quota,
			Window: 24 * time.Hour,
			KeyFn:  middlewares.UserDayKey,
		}))
	}

	auth.POST("/events", h.createEvent)
	auth.PUT("/events/:slug", h.updateEvent)
	auth.POST("/bookings", h.createBooking)
	auth.GET("/userBookings", h.getUserBookings)
	auth.PATCH("/user", h.updateUser)

	return Limiters{globalLimiter, authLimiter, userLimiter}
}

// caller 從 Authenticate 放進 context 的值組出呼叫者
func caller(c *gin.Context) services.Caller {
	return services.Caller{
		ID:    c.GetInt64(middlewares.CtxUserID),
		Email: c.GetString(middlewares.CtxEmail),
		Role:  c.GetString(middlewares.CtxRole),
	}
}
