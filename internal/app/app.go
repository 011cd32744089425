// Package app 两个入口共用的装配：日志、DB、Redis、指标、服务、管理员种子
package app

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"acquisitions/internal/core/auth"
	"acquisitions/internal/core/cache"
	"acquisitions/internal/core/config"
	"acquisitions/internal/core/database"
	"acquisitions/internal/core/logger"
	"acquisitions/internal/core/metrics"
	"acquisitions/internal/core/tracing"
	"acquisitions/internal/domain"
	"acquisitions/internal/feature/user"
	"acquisitions/internal/repo"
	"acquisitions/internal/service"
	"acquisitions/internal/transport/http/router"
	"acquisitions/pkg/utils"
)

type App struct {
	Cfg  *config.Config
	Log  *zap.Logger
	DB   *gorm.DB
	Deps router.Deps

	closers []func()
}

// Logger 按配置建日志；开启切割时同时写文件
func Logger(cfg *config.Config) (*zap.Logger, func()) {
	if cfg.Log.Rotate.Enable {
		return logger.NewWithRotate(cfg.Log.Level, cfg.Log.JSON, logger.FileRotate{
			Filename:   cfg.Log.Rotate.Filename,
			MaxSizeMB:  cfg.Log.Rotate.MaxSizeMB,
			MaxBackups: cfg.Log.Rotate.MaxBackups,
			MaxAgeDays: cfg.Log.Rotate.MaxAgeDays,
			Compress:   cfg.Log.Rotate.Compress,
		})
	}
	return logger.New(cfg.Log.Level, cfg.Log.JSON)
}

// New 出错时已打开的资源会被关闭
func New(ctx context.Context, cfg *config.Config, l *zap.Logger) (_ *App, err error) {
	a := &App{Cfg: cfg, Log: l}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	shutdown, err := tracing.Init(ctx, cfg.Tracing.ServiceName, cfg.Tracing.Endpoint)
	if err != nil {
		return nil, err
	}
	a.onClose(func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdown(sctx)
	})

	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
		Logger:             l,
	})
	if err != nil {
		return nil, err
	}
	a.DB = db
	a.onClose(func() { _ = database.Close(db) })

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err = database.Ping(pctx, db); err != nil {
		return nil, err
	}
	l.Info("database connected", zap.String("driver", cfg.DB.Driver))

	if cfg.DB.AutoMigrate {
		if err = user.Migrate(db); err != nil {
			return nil, errors.Wrap(err, "automigrate")
		}
		l.Info("automigrate done")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom := metrics.NewProm(reg)

	var users domain.UserRepository = repo.NewUserRepo(db).WithMetrics(prom)
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb, err = cache.Dial(pctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		a.onClose(func() { _ = rdb.Close() })
		l.Info("redis connected", zap.String("addr", cfg.Redis.Addr))
	}
	if cfg.Cache.Enabled && rdb != nil {
		ttl := time.Duration(cfg.Cache.TTLSec) * time.Second
		users = repo.NewCachedUserRepo(users, cache.New(rdb, cfg.App.Name+":"), ttl, l)
	}

	userSvc := service.NewUserService(users, l)
	authSvc := service.NewAuthService(userSvc, utils.NewBcryptHasher(), l).WithMetrics(prom)

	a.Deps = router.Deps{
		Log:      l,
		Cfg:      cfg,
		JWT:      auth.New(cfg.JWT.Secret, cfg.JWT.Issuer, time.Duration(cfg.JWT.AccessTokenTTLMin)*time.Minute),
		Users:    userSvc,
		Auth:     authSvc,
		Prom:     prom,
		Gatherer: reg,
		Ping:     func(ctx context.Context) error { return database.Ping(ctx, db) },
	}
	// 接口里放 nil 指针会被当成非 nil
	if rdb != nil {
		a.Deps.Redis = rdb
	}

	if err = a.seedAdmin(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *App) seedAdmin(ctx context.Context) error {
	s := a.Cfg.Admin
	if s.Email == "" || s.Password == "" {
		return nil
	}
	u, created, err := a.Deps.Auth.EnsureAdmin(ctx, s.Name, s.Email, s.Password)
	if err != nil {
		return errors.Wrap(err, "seed admin")
	}
	a.Log.Info("admin account ready", zap.String("id", u.ID), zap.String("email", u.Email), zap.Bool("created", created))
	return nil
}

func (a *App) onClose(fn func()) { a.closers = append(a.closers, fn) }

// Close 逆序释放
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
