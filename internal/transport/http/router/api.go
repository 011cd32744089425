package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"acquisitions/internal/core/auth"
	"acquisitions/internal/core/config"
	"acquisitions/internal/core/metrics"
	"acquisitions/internal/core/server"
	"acquisitions/internal/service"
	httpez "acquisitions/internal/transport/http/ez"
	"acquisitions/internal/transport/http/handler"
	mdw "acquisitions/internal/transport/http/middleware"
	resp "acquisitions/internal/transport/http/response"
)

// Deps 两个引擎共用的依赖；Prom / Gatherer / Redis / Ping 可为 nil
type Deps struct {
	Log      *zap.Logger
	Cfg      *config.Config
	JWT      *auth.JWTer
	Users    *service.UserService
	Auth     *service.AuthService
	Prom     *metrics.Prom
	Gatherer prometheus.Gatherer
	Redis    mdw.RedisEvaler
	Ping     handler.Pinger
}

var quietPaths = []string{"/health", "/readyz", "/metrics"}

// base 公共中间件栈：trace、访问日志、恢复、CORS、指标、限流、并发、体积、超时
func base(d Deps) *gin.Engine {
	httpez.SetupValidator()

	sec := d.Cfg.Security
	mode := ""
	if d.Cfg.IsProd() {
		mode = gin.ReleaseMode
	}
	r := server.NewRouter(d.Log, server.Options{
		Name:        d.Cfg.App.Name,
		Mode:        mode,
		CORSOrigins: sec.CORSOrigins,
		SkipLog:     quietPaths,
	})
	if d.Prom != nil {
		r.Use(mdw.Metrics(d.Prom))
	}
	r.Use(
		mdw.RateLimit(rate.Limit(sec.RPS), sec.Burst),
		mdw.ConcurrencyLimit(sec.MaxConcurrent),
		mdw.MaxBodyBytes(sec.MaxBodyBytes),
		mdw.Timeout(time.Duration(sec.RequestTimeout)*time.Second),
	)

	handler.NewHealthHandler(d.Ping).Mount(r)
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, resp.Error(http.StatusNotFound, "Route not found"))
	})
	return r
}

func NewAPIEngine(d Deps) *gin.Engine {
	r := base(d)
	sec := d.Cfg.Security

	authH := handler.NewAuthHandler(d.Auth, d.JWT, authGuard(d))
	authH.AllowRole = sec.AllowSelfAssignRole
	userH := handler.NewUserHandler(d.Users, mdw.AuthJWT(d.JWT), mdw.FreshRole(d.Users))
	userH.PublicList = sec.PublicUserList

	NewRegistry(authH, userH).MountAPI(r.Group("/api"))
	return r
}

// authGuard /api/auth 专用限流：多实例有 Redis 时共享计数，否则进程内按 IP
func authGuard(d Deps) gin.HandlerFunc {
	perMin := d.Cfg.Security.AuthPerMin
	if perMin <= 0 {
		perMin = 20
	}
	if d.Redis != nil {
		return mdw.RedisRateLimit(d.Redis, d.Log, "rl:auth:", perMin, time.Minute)
	}
	return mdw.RateLimitPerIP(rate.Every(time.Minute/time.Duration(perMin)), perMin, 10*time.Minute)
}
