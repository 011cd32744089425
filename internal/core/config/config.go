package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host            string
	Port            int
	ReadTimeoutSec  int
	WriteTimeoutSec int
	IdleTimeoutSec  int
}
type AdminHTTP struct {
	Host string
	Port int
}

type App struct {
	Name  string
	Env   string
	HTTP  HTTP
	Admin AdminHTTP
}

type FileRotate struct {
	Enable     bool
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type Log struct {
	Level  string
	JSON   bool
	Rotate FileRotate
}

type JWT struct {
	Secret            string
	Issuer            string
	AccessTokenTTLMin int
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type DB struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
}

// Cache 用户读缓存（需要 Redis）
type Cache struct {
	Enabled bool
	TTLSec  int
}

type Security struct {
	// PublicUserList GET /api/users 是否免登录（保持原有行为，默认 true）
	PublicUserList bool
	// AllowSelfAssignRole 注册时是否采信请求里的 role，默认 false（一律 user）
	AllowSelfAssignRole bool
	CORSOrigins         []string
	RPS                 float64
	Burst               int
	// AuthPerMin /api/auth 每 IP 每分钟请求上限
	AuthPerMin     int
	MaxConcurrent  int64
	MaxBodyBytes   int64
	RequestTimeout int
}

// AdminSeed 启动时确保存在的管理员账号，邮箱或密码为空则跳过
type AdminSeed struct {
	Name     string
	Email    string
	Password string
}

type Tracing struct {
	Endpoint    string
	ServiceName string
}

type Config struct {
	App      App
	Log      Log
	JWT      JWT
	DB       DB
	Redis    Redis `mapstructure:"redis"`
	Cache    Cache
	Security Security
	Admin    AdminSeed
	Tracing  Tracing
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "acquisitions")
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 3000)
	v.SetDefault("app.http.readTimeoutSec", 5)
	v.SetDefault("app.http.writeTimeoutSec", 10)
	v.SetDefault("app.http.idleTimeoutSec", 60)
	v.SetDefault("app.admin.host", "127.0.0.1")
	v.SetDefault("app.admin.port", 3001)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.rotate.filename", "logs/app.log")
	v.SetDefault("log.rotate.maxSizeMB", 100)
	v.SetDefault("log.rotate.maxBackups", 7)
	v.SetDefault("log.rotate.maxAgeDays", 30)

	v.SetDefault("jwt.issuer", "acquisitions")
	v.SetDefault("jwt.accessTokenTTLMin", 60*24)

	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.maxOpenConns", 20)
	v.SetDefault("db.maxIdleConns", 5)
	v.SetDefault("db.connMaxLifetimeMin", 30)
	v.SetDefault("db.autoMigrate", true)
	v.SetDefault("db.logLevel", "warn")

	v.SetDefault("cache.ttlSec", 300)

	v.SetDefault("security.publicUserList", true)
	v.SetDefault("security.allowSelfAssignRole", false)
	v.SetDefault("security.rps", 200)
	v.SetDefault("security.burst", 400)
	v.SetDefault("security.authPerMin", 20)
	v.SetDefault("security.maxConcurrent", 300)
	v.SetDefault("security.maxBodyBytes", 1<<20)
	v.SetDefault("security.requestTimeout", 10)

	v.SetDefault("admin.name", "Administrator")
	v.SetDefault("tracing.serviceName", "acquisitions")

	// 无默认值的键也要登记，否则 AutomaticEnv 在 Unmarshal 时不生效
	for _, k := range []string{
		"jwt.secret", "db.dsn", "db.username", "db.password",
		"redis.addr", "redis.password", "admin.email", "admin.password", "tracing.endpoint",
	} {
		v.SetDefault(k, "")
	}
	v.SetDefault("redis.db", 0)
	v.SetDefault("cache.enabled", false)
	v.SetDefault("log.rotate.enable", false)
	v.SetDefault("log.rotate.compress", false)
	v.SetDefault("security.corsOrigins", []string{})
}

// Load 读取 YAML（文件不存在时仅用默认值 + 环境变量），环境变量前缀 APP_
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("stat config: %w", err)
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return errors.New("config: jwt.secret is required")
	}
	if c.DB.DSN == "" {
		return errors.New("config: db.dsn is required")
	}
	if c.Cache.Enabled && c.Redis.Addr == "" {
		return errors.New("config: cache.enabled requires redis.addr")
	}
	return nil
}

func (c *Config) IsProd() bool { return c.App.Env == "prod" }
