package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	resp "acquisitions/internal/transport/http/response"
)

// RecoveryHandler ginzap 记录 panic 之后由这里返回统一信封
func RecoveryHandler(c *gin.Context, _ any) {
	resp.Abort(c, http.StatusInternalServerError, "internal error")
}
