package middlewares

import (
	"bytes"
	"crypto/sha1"
	"encoding/gob"
	"encoding/hex"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"devevents/utils"
)

type cachedBody struct {
	Status int
	Header map[string][]string
	Body   []byte
}

// 把 query 轉成 SHA1，避免 Redis key 太長
func sha1Hex(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// CacheKeyFrom names the Redis key for a public event read. The second value
// is the namespace. Anything else, including per-user pages, is not cached.
func CacheKeyFrom(c *gin.Context) (string, string) {
	if c.Request.Method != "GET" {
		return "", ""
	}
	path := c.FullPath() // 路由模板，例如 /api/events/:slug
	switch {
	case path == "/api/events/:slug/similar":
		return utils.EventsSimilarPrefix + c.Param("slug"), "similar"
	case path == "/api/events/:slug":
		// slug 原文放在 key 裡，失效時可以精準刪除
		return utils.EventsItemPrefix + c.Param("slug"), "item"
	case path == "/api/events":
		return utils.EventsListPrefix + sha1Hex(c.Request.URL.RawQuery), "list"
	default:
		return "", ""
	}
}

// ResponseCache serves 2xx responses of cacheable routes from Redis for ttl.
// A Redis failure falls through to the handler.
func ResponseCache(rdb *redis.Client, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, _ := CacheKeyFrom(c)
		if key == "" {
			c.Next()
			return
		}
		ctx := c.Request.Context()

		// hit：還原 header / status / body，不呼叫 c.Next()
		if b, err := rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
			var hit cachedBody
			if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&hit); err == nil {
				for k, vals := range hit.Header {
					if strings.EqualFold(k, "X-Cache") {
						continue
					}
					for _, v := range vals {
						c.Writer.Header().Add(k, v)
					}
				}
				c.Writer.Header().Set("X-Cache", "HIT")
				c.Status(hit.Status)
				_, _ = c.Writer.Write(hit.Body)
				c.Abort()
				return
			}
		}

		// miss：攔截回應，handler 寫完後存進 Redis
		buf := &bytes.Buffer{}
		bw := &bufferedWriter{ResponseWriter: c.Writer, buf: buf}
		c.Writer = bw
		c.Header("X-Cache", "MISS")

		c.Next()

		if bw.Status() >= 200 && bw.Status() < 300 {
			item := cachedBody{
				Status: bw.Status(),
				Header: bw.Header().Clone(),
				Body:   buf.Bytes(),
			}
			var o bytes.Buffer
			if err := gob.NewEncoder(&o).Encode(item); err == nil {
				_ = rdb.Set(ctx, key, o.Bytes(), ttl).Err()
			}
		}
	}
}

type bufferedWriter struct {
	gin.ResponseWriter
	buf *bytes.Buffer
}

func (w *bufferedWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)                   // 先存一份在記憶體
	return w.ResponseWriter.Write(b) // 再寫給客戶端
}

func (w *bufferedWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
