package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// 敏感字段 key（query 中统一按 key 脱敏）
var sensitiveKeys = map[string]struct{}{
	"password": {}, "pwd": {}, "token": {}, "authorization": {},
	"secret": {}, "client_secret": {}, "access_token": {},
}

func maskQuery(kv map[string][]string) map[string][]string {
	out := make(map[string][]string, len(kv))
	for k, v := range kv {
		if _, ok := sensitiveKeys[strings.ToLower(k)]; ok {
			out[k] = []string{"****"}
		} else {
			out[k] = v
		}
	}
	return out
}

// AccessLogFields 供 ginzap 的 Context 钩子追加：rid、路由模板、脱敏 query、用户与 trace
func AccessLogFields(c *gin.Context) []zapcore.Field {
	fields := []zapcore.Field{
		zap.String("rid", c.GetString(KeyRequestID)),
		zap.String("route", c.FullPath()),
		zap.Int("size", c.Writer.Size()),
	}
	if q := c.Request.URL.Query(); len(q) > 0 {
		fields = append(fields, zap.Any("query", maskQuery(q)))
	}
	if uid := UserID(c); uid != "" {
		fields = append(fields, zap.String("uid", uid))
	}
	if sc := trace.SpanContextFromContext(c.Request.Context()); sc.IsValid() {
		fields = append(fields, zap.String("trace_id", sc.TraceID().String()))
	}
	if len(c.Errors) > 0 {
		fields = append(fields, zap.String("errors", c.Errors.String()))
	}
	return fields
}
