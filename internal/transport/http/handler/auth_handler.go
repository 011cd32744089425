package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"acquisitions/internal/core/auth"
	"acquisitions/internal/domain"
	"acquisitions/internal/service"
	httpez "acquisitions/internal/transport/http/ez"
)

type AuthHandler struct {
	svc   *service.AuthService
	jwt   *auth.JWTer
	guard []gin.HandlerFunc // 如 /auth 限流
	// AllowRole 为 false 时忽略注册请求里的 role，一律为 user
	AllowRole bool
}

func NewAuthHandler(svc *service.AuthService, jwt *auth.JWTer, guard ...gin.HandlerFunc) *AuthHandler {
	return &AuthHandler{svc: svc, jwt: jwt, guard: guard}
}

type registerIn struct {
	Name     string      `json:"name"     binding:"required,min=2,max=255"`
	Email    string      `json:"email"    binding:"required,email,max=255"`
	Password string      `json:"password" binding:"required,min=6,max=72"`
	Role     domain.Role `json:"role"     binding:"omitempty,role"`
}

type loginIn struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type authOut struct {
	User  domain.PublicUser `json:"user"`
	Token string            `json:"token"`
}

func (h *AuthHandler) Priority() int { return 10 }

func (h *AuthHandler) MountAPI(api *gin.RouterGroup) {
	g := api.Group("/auth", h.guard...)
	e := httpez.New(g)

	httpez.RegisterAction(e, httpez.Action[registerIn, authOut]{
		Method: http.MethodPost,
		Path:   "/register",
		Binder: httpez.BindJSON,
		Status: http.StatusCreated,
		Handler: func(c *gin.Context, in *registerIn) (authOut, error) {
			role := domain.RoleUser
			if h.AllowRole && in.Role != "" {
				role = in.Role
			}
			u, err := h.svc.Register(c.Request.Context(), service.RegisterInput{
				Name: in.Name, Email: in.Email, Password: in.Password, Role: role,
			})
			if err != nil {
				return authOut{}, err
			}
			return h.withToken(u)
		},
	})

	httpez.RegisterAction(e, httpez.Action[loginIn, authOut]{
		Method: http.MethodPost,
		Path:   "/login",
		Binder: httpez.BindJSON,
		Handler: func(c *gin.Context, in *loginIn) (authOut, error) {
			u, err := h.svc.Authenticate(c.Request.Context(), in.Email, in.Password)
			if err != nil {
				return authOut{}, err
			}
			return h.withToken(u)
		},
	})
}

func (h *AuthHandler) withToken(u domain.PublicUser) (authOut, error) {
	tok, err := h.jwt.Issue(u.ID, string(u.Role))
	if err != nil {
		return authOut{}, httpez.Internal("issue token failed", err)
	}
	return authOut{User: u, Token: tok}, nil
}
