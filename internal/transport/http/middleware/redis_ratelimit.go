package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	resp "acquisitions/internal/transport/http/response"
)

// 固定窗口：首个请求设置过期
const fixedWindowScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return current
`

type RedisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// RedisRateLimit 每 IP 每窗口最多 limit 次，多实例共享计数；redis 出错时放行
func RedisRateLimit(rdb RedisEvaler, l *zap.Logger, prefix string, limit int, window time.Duration) gin.HandlerFunc {
	secs := int(window.Seconds())
	if secs <= 0 {
		secs = 60
	}
	if limit <= 0 {
		limit = 1
	}
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 300*time.Millisecond)
		defer cancel()

		n, err := rdb.Eval(ctx, fixedWindowScript, []string{prefix + c.ClientIP()}, secs).Int()
		if err != nil {
			l.Warn("rate limit backend unavailable", zap.Error(err))
			c.Next()
			return
		}
		if n > limit {
			c.Header("Retry-After", strconv.Itoa(secs))
			resp.Abort(c, http.StatusTooManyRequests, "too many requests")
			return
		}
		c.Next()
	}
}
