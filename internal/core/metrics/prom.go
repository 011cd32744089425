package metrics

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

const namespace = "acquisitions"

type Prom struct {
	RequestsTotal    *prometheus.CounterVec
	RequestsDuration *prometheus.HistogramVec
	InFlight         prometheus.Gauge

	DBQueryDuration *prometheus.HistogramVec
	DBErrorsTotal   *prometheus.CounterVec

	AuthAttempts *prometheus.CounterVec
}

func NewProm(reg prometheus.Registerer) *Prom {
	p := &Prom{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "Count of HTTP requests"},
			[]string{"method", "route", "status"},
		),
		RequestsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Latency of HTTP requests",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"method", "route"},
		),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "http_in_flight_requests", Help: "Current in-flight HTTP requests",
		}),
		DBQueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "db",
				Name:      "query_duration_seconds",
				Help:      "DB operation latency (logical op, not raw SQL)",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1, 2},
			},
			[]string{"op", "status"},
		),
		DBErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Subsystem: "db", Name: "errors_total", Help: "DB errors by op and class"},
			[]string{"op", "class"},
		),
		AuthAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{Namespace: namespace, Subsystem: "auth", Name: "attempts_total", Help: "Register/login outcomes"},
			[]string{"action", "result"},
		),
	}
	reg.MustRegister(p.RequestsTotal, p.RequestsDuration, p.InFlight, p.DBQueryDuration, p.DBErrorsTotal, p.AuthAttempts)
	return p
}

// ObserveDB 记录一次逻辑 DB 操作的耗时；记录不存在不算错误
func (p *Prom) ObserveDB(op string, fn func() error) error {
	start := time.Now()
	err := fn()
	status := "ok"
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		status = "error"
		p.DBErrorsTotal.WithLabelValues(op, ClassifyDBErr(err)).Inc()
	}
	p.DBQueryDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
	return err
}

func (p *Prom) Auth(action, result string) {
	p.AuthAttempts.WithLabelValues(action, result).Inc()
}

func ClassifyDBErr(err error) string {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return "unique_violation"
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return "unique_violation"
		case "40001":
			return "serialization_failure"
		case "40P01":
			return "deadlock"
		case "57014":
			return "query_canceled"
		default:
			return "pg_" + pgErr.Code
		}
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1062:
			return "unique_violation"
		case 1213:
			return "deadlock"
		case 1205:
			return "lock_timeout"
		default:
			return "mysql_" + strconv.Itoa(int(myErr.Number))
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate"):
		return "unique_violation"
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return "timeout"
	case strings.Contains(msg, "connection"):
		return "connection"
	default:
		return "unknown"
	}
}
