package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"acquisitions/internal/core/auth"
	"acquisitions/internal/domain"
	resp "acquisitions/internal/transport/http/response"
)

type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// AuthJWT 校验 Bearer token，把 userId / role 放进上下文
func AuthJWT(p TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if len(ah) < 7 || !strings.EqualFold(ah[:7], "Bearer ") {
			resp.Abort(c, http.StatusUnauthorized, "missing token")
			return
		}
		claims, err := p.Parse(strings.TrimSpace(ah[7:]))
		if err != nil {
			resp.Abort(c, http.StatusUnauthorized, "invalid token")
			return
		}
		c.Set(KeyUserID, claims.UID)
		c.Set(KeyRole, claims.Role)
		c.Next()
	}
}

// RequireRole 须挂在 AuthJWT 之后：无身份 401，角色不符 403
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if UserID(c) == "" {
			resp.Abort(c, http.StatusUnauthorized, "missing identity")
			return
		}
		role := Role(c)
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		resp.Abort(c, http.StatusForbidden, "insufficient role")
	}
}
