package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"acquisitions/internal/domain"
	"acquisitions/internal/service"
	httpez "acquisitions/internal/transport/http/ez"
	mdw "acquisitions/internal/transport/http/middleware"
)

type UserHandler struct {
	svc   *service.UserService
	authn []gin.HandlerFunc
	// PublicList 为 true 时 GET /users 不需要登录
	PublicList bool
}

// authn 按顺序挂在需要登录的路由前，如 AuthJWT + FreshRole
func NewUserHandler(svc *service.UserService, authn ...gin.HandlerFunc) *UserHandler {
	return &UserHandler{svc: svc, authn: authn}
}

type updateIn struct {
	Name  *string      `json:"name"  binding:"omitempty,min=2,max=255"`
	Email *string      `json:"email" binding:"omitempty,email,max=255"`
	Role  *domain.Role `json:"role"  binding:"omitempty,role"`
}

func (h *UserHandler) Priority() int { return 20 }

func (h *UserHandler) MountAPI(api *gin.RouterGroup) {
	e := httpez.New(api.Group("/users"))

	var listGuard []gin.HandlerFunc
	if !h.PublicList {
		listGuard = h.authn
	}
	httpez.RegisterAction(e, httpez.Action[struct{}, []domain.PublicUser]{
		Method: http.MethodGet,
		Path:   "",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) ([]domain.PublicUser, error) {
			return h.svc.GetAll(c.Request.Context())
		},
	}, listGuard...)

	httpez.RegisterAction(e, httpez.Action[struct{}, domain.PublicUser]{
		Method: http.MethodGet,
		Path:   "/:id",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (domain.PublicUser, error) {
			return h.svc.GetByID(c.Request.Context(), c.Param("id"))
		},
	}, h.authn...)

	// 本人或 admin 可改；改角色仅 admin
	httpez.RegisterAction(e, httpez.Action[updateIn, domain.PublicUser]{
		Method: http.MethodPut,
		Path:   "/:id",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *updateIn) (domain.PublicUser, error) {
			id := c.Param("id")
			isAdmin := mdw.Role(c) == domain.RoleAdmin
			if !isAdmin && mdw.UserID(c) != id {
				return domain.PublicUser{}, httpez.Forbidden("you can only update your own account")
			}
			if in.Role != nil && !isAdmin {
				return domain.PublicUser{}, httpez.Forbidden("only admin can change roles")
			}
			return h.svc.Update(c.Request.Context(), id, domain.UserUpdate{
				Name: in.Name, Email: in.Email, Role: in.Role,
			})
		},
	}, h.authn...)

	httpez.RegisterAction(e, httpez.Action[struct{}, domain.DeletedUser]{
		Method: http.MethodDelete,
		Path:   "/:id",
		Binder: httpez.BindNone,
		Handler: func(c *gin.Context, _ *struct{}) (domain.DeletedUser, error) {
			return h.svc.Delete(c.Request.Context(), c.Param("id"))
		},
	}, h.guarded(mdw.RequireRole(domain.RoleAdmin))...)
}

func (h *UserHandler) guarded(extra ...gin.HandlerFunc) []gin.HandlerFunc {
	return append(append([]gin.HandlerFunc{}, h.authn...), extra...)
}
