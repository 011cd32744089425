package ez

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"acquisitions/internal/domain"
	resp "acquisitions/internal/transport/http/response"
)

type EZ struct{ g *gin.RouterGroup }

func New(g *gin.RouterGroup) EZ { return EZ{g: g} }

// 绑定方式
type Binder string

const (
	BindJSON  Binder = "json"  // 从 JSON 绑定
	BindQuery Binder = "query" // 从 URL ?a=b 绑定
	BindNone  Binder = "none"  // 不绑定，自己从 c.Param 取
)

// AErr 处理函数里直接指定状态码的错误（如 403）
type AErr struct {
	Code int
	Msg  string
	Err  error
}

func (e *AErr) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "action error"
}

func (e *AErr) Unwrap() error { return e.Err }

func BadRequest(msg string) error   { return &AErr{Code: http.StatusBadRequest, Msg: msg} }
func Unauthorized(msg string) error { return &AErr{Code: http.StatusUnauthorized, Msg: msg} }
func Forbidden(msg string) error    { return &AErr{Code: http.StatusForbidden, Msg: msg} }
func NotFound(msg string) error     { return &AErr{Code: http.StatusNotFound, Msg: msg} }
func Internal(msg string, err error) error {
	return &AErr{Code: http.StatusInternalServerError, Msg: msg, Err: err}
}

// Action I 入参，O 出参
type Action[I any, O any] struct {
	Method  string // "GET" | "POST" | "PUT" | "DELETE"
	Path    string // 例："/auth/login"、"/users/:id"
	Binder  Binder
	Status  int // 成功状态码，默认 200
	Handler func(c *gin.Context, in *I) (O, error)
}

// RegisterAction 在当前分组下注册；mws 只作用于这一条路由
func RegisterAction[I any, O any](e EZ, a Action[I, O], mws ...gin.HandlerFunc) {
	ok := a.Status
	if ok == 0 {
		ok = http.StatusOK
	}
	h := func(c *gin.Context) {
		var in I
		var bindErr error
		switch a.Binder {
		case BindJSON:
			bindErr = c.ShouldBindJSON(&in)
		case BindQuery:
			bindErr = c.ShouldBindQuery(&in)
		}
		if bindErr != nil {
			status, body := bindFailure(bindErr)
			c.AbortWithStatusJSON(status, body)
			return
		}

		out, err := a.Handler(c, &in)
		if err != nil {
			Fail(c, err)
			return
		}
		c.JSON(ok, resp.OK(out))
	}

	handlers := append(append([]gin.HandlerFunc{}, mws...), h)
	switch strings.ToUpper(a.Method) {
	case http.MethodGet:
		e.g.GET(a.Path, handlers...)
	case http.MethodPut:
		e.g.PUT(a.Path, handlers...)
	case http.MethodPatch:
		e.g.PATCH(a.Path, handlers...)
	case http.MethodDelete:
		e.g.DELETE(a.Path, handlers...)
	default: // 默认 POST
		e.g.POST(a.Path, handlers...)
	}
}

// Fail 统一错误出口；5xx 只返回通用文案，原始错误挂到 c.Errors 由访问日志输出
func Fail(c *gin.Context, err error) {
	status, msg := StatusOf(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, resp.Error(status, msg))
}

// StatusOf 错误种类 → HTTP 状态与对外文案
func StatusOf(err error) (int, string) {
	var ae *AErr
	if errors.As(err, &ae) {
		if ae.Code >= http.StatusInternalServerError {
			return ae.Code, resp.CodeMsgMap[resp.CodeServerError]
		}
		return ae.Code, ae.Error()
	}

	var de *domain.Error
	if !errors.As(err, &de) {
		return http.StatusInternalServerError, resp.CodeMsgMap[resp.CodeServerError]
	}
	switch de.Kind {
	case domain.KindValidation:
		return http.StatusBadRequest, de.Msg
	case domain.KindDuplicateEmail, domain.KindUserExists:
		return http.StatusConflict, de.Msg
	case domain.KindNotFound, domain.KindUserNotFound:
		return http.StatusNotFound, de.Msg
	case domain.KindInvalidCredentials:
		return http.StatusUnauthorized, de.Msg
	default: // Hashing / Comparison / Persistence
		return http.StatusInternalServerError, resp.CodeMsgMap[resp.CodeServerError]
	}
}
