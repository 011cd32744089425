package router

import (
	"github.com/gin-gonic/gin"

	"acquisitions/internal/domain"
	"acquisitions/internal/transport/http/handler"
	mdw "acquisitions/internal/transport/http/middleware"
)

// NewAdminEngine 后台端：/admin/v1 统一要求 admin 角色
func NewAdminEngine(d Deps) *gin.Engine {
	r := base(d)

	admin := r.Group("/admin/v1", mdw.AuthJWT(d.JWT), mdw.FreshRole(d.Users), mdw.RequireRole(domain.RoleAdmin))
	NewRegistry(handler.NewAdminHandler(d.Users)).MountAdmin(admin)
	return r
}
