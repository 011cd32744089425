package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"acquisitions/internal/domain"
	resp "acquisitions/internal/transport/http/response"
)

type RoleLookup interface {
	CurrentRole(ctx context.Context, id string) (domain.Role, error)
}

// FreshRole 挂在 AuthJWT 之后：用库里的当前角色覆盖 token 里的角色
// 账号已删除 401，降级立即生效，不必等 token 过期
func FreshRole(l RoleLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := UserID(c)
		if uid == "" {
			resp.Abort(c, http.StatusUnauthorized, "missing identity")
			return
		}
		role, err := l.CurrentRole(c.Request.Context(), uid)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			resp.Abort(c, http.StatusUnauthorized, "account no longer exists")
			return
		case err != nil:
			_ = c.Error(err)
			resp.Abort(c, http.StatusInternalServerError, "")
			return
		}
		c.Set(KeyRole, string(role))
		c.Next()
	}
}
