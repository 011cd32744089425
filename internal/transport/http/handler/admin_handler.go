package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"acquisitions/internal/domain"
	"acquisitions/internal/service"
	httpez "acquisitions/internal/transport/http/ez"
	mdw "acquisitions/internal/transport/http/middleware"
)

// AdminHandler 挂在已校验 admin 的分组下
type AdminHandler struct {
	svc *service.UserService
}

func NewAdminHandler(svc *service.UserService) *AdminHandler { return &AdminHandler{svc: svc} }

type listQ struct {
	Offset int    `form:"offset,default=0"  binding:"min=0"`
	Limit  int    `form:"limit,default=20"  binding:"min=0,max=100"`
	Q      string `form:"q"                 binding:"max=255"` // 按 email/name 模糊搜
}

type roleIn struct {
	Role domain.Role `json:"role" binding:"required,role"`
}

func (h *AdminHandler) MountAdmin(admin *gin.RouterGroup) {
	e := httpez.New(admin)

	httpez.RegisterAction(e, httpez.Action[listQ, domain.Page]{
		Method: http.MethodGet,
		Path:   "/users",
		Binder: httpez.BindQuery,
		Handler: func(c *gin.Context, in *listQ) (domain.Page, error) {
			return h.svc.List(c.Request.Context(), domain.ListQuery{Offset: in.Offset, Limit: in.Limit, Q: in.Q})
		},
	})

	httpez.RegisterAction(e, httpez.Action[roleIn, domain.PublicUser]{
		Method: http.MethodPut,
		Path:   "/users/:id/role",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *roleIn) (domain.PublicUser, error) {
			id := c.Param("id")
			// 防止最后一个入口把自己降级
			if id == mdw.UserID(c) && in.Role != domain.RoleAdmin {
				return domain.PublicUser{}, httpez.BadRequest("cannot demote yourself")
			}
			return h.svc.Update(c.Request.Context(), id, domain.UserUpdate{Role: &in.Role})
		},
	})

	httpez.RegisterAction(e, httpez.Action[struct{}, domain.DeletedUser]{
		Method: http.MethodDelete,
		Path:   "/users/:id",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (domain.DeletedUser, error) {
			if c.Param("id") == mdw.UserID(c) {
				return domain.DeletedUser{}, httpez.BadRequest("cannot delete yourself")
			}
			return h.svc.Delete(c.Request.Context(), c.Param("id"))
		},
	})
}
