package middlewares

import (
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type QuotaRule struct {
	Limit  int                       // 視窗內允許的請求數
	Window time.Duration             // 視窗大小，例如 24 小時
	KeyFn  func(*gin.Context) string // 用什麼 key 區分配額；空字串表示不計
}

// Quota counts requests per key in Redis and answers 429 past rule.Limit.
// If Redis is down the request is let through.
func Quota(rdb *redis.Client, rule QuotaRule) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := rule.KeyFn(c)
		if key == "" || rule.Limit <= 0 {
			c.Next()
			return
		}
		ctx := c.Request.Context()

		// INCR 不存在的 key 會從 0 開始
		n, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			log.Printf("quota %s: %v", key, err)
			c.Next()
			return
		}
		if n == 1 {
			_ = rdb.Expire(ctx, key, rule.Window).Err()
		}
		if int(n) > rule.Limit {
			c.AbortWithStatusJSON(429, gin.H{
				"message": "Usage quota exceeded. Please try again later.",
			})
			return
		}
		c.Header("X-Quota-Used", fmt.Sprintf("%d/%d", n, rule.Limit))
		c.Next()
	}
}

// UserDayKey keys the quota by authenticated user.
func UserDayKey(c *gin.Context) string {
	uid := c.GetInt64(CtxUserID)
	if uid == 0 {
		return ""
	}
	return fmt.Sprintf("quota:user:%d:day", uid)
}
