package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"acquisitions/internal/core/metrics"
)

func TestSecurityHeaders(t *testing.T) {
	w := hit(engineWith(SecurityHeaders()), "10.0.0.1")
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, w.Header().Get("Content-Security-Policy"))
}

func TestRequestID(t *testing.T) {
	r := engineWith(RequestID())

	w := hit(r, "10.0.0.1")
	assert.Len(t, w.Header().Get(KeyRequestID), 36)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(KeyRequestID, "abc")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Header().Get(KeyRequestID))
}

func TestMaxBodyBytes_DeclaredLength(t *testing.T) {
	r := gin.New()
	r.POST("/x", MaxBodyBytes(8), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"name":"far too long"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestTimeout_NoResponseWritten(t *testing.T) {
	r := gin.New()
	r.GET("/x", Timeout(10*time.Millisecond), func(c *gin.Context) {
		<-c.Request.Context().Done()
	})
	w := hit(r, "10.0.0.1")
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
}

func TestMetrics(t *testing.T) {
	p := metrics.NewProm(prometheus.NewRegistry())
	r := gin.New()
	r.Use(Metrics(p))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	hit(r, "10.0.0.1")
	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, 1.0, testutil.ToFloat64(p.RequestsTotal.WithLabelValues("GET", "/x", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.RequestsTotal.WithLabelValues("GET", "unmatched", "404")))
	assert.Equal(t, 0.0, testutil.ToFloat64(p.InFlight))
}

func TestAccessLogFields_MasksSecrets(t *testing.T) {
	r := gin.New()
	var got map[string][]string
	r.GET("/x", func(c *gin.Context) {
		c.Set(KeyUserID, "u-1")
		for _, f := range AccessLogFields(c) {
			if f.Key == "query" {
				got = f.Interface.(map[string][]string)
			}
		}
	})
	req := httptest.NewRequest(http.MethodGet, "/x?token=abc&q=ann", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, []string{"****"}, got["token"])
	assert.Equal(t, []string{"ann"}, got["q"])
}
