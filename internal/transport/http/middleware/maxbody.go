package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	resp "acquisitions/internal/transport/http/response"
)

// MaxBodyBytes 限制请求体大小；声明长度超限直接 413，分块上传在绑定时由 ez 映射为 413
func MaxBodyBytes(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > n {
			resp.Abort(c, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}
