package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"acquisitions/internal/core/metrics"
)

func Metrics(p *metrics.Prom) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		p.InFlight.Inc()
		defer p.InFlight.Dec()

		c.Next()

		// 未匹配路由统一归一，避免标签爆炸
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		p.RequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		p.RequestsDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
