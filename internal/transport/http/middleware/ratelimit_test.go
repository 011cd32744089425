package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func hit(r http.Handler, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.RemoteAddr = ip + ":1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func engineWith(mw gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.GET("/x", mw, func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestRateLimitPerIP(t *testing.T) {
	r := engineWith(RateLimitPerIP(0.0001, 2, time.Minute))

	assert.Equal(t, http.StatusOK, hit(r, "10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, hit(r, "10.0.0.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(r, "10.0.0.1").Code)
	// 其他 IP 不受影响
	assert.Equal(t, http.StatusOK, hit(r, "10.0.0.2").Code)
}

func TestRateLimit_Global(t *testing.T) {
	r := engineWith(RateLimit(0.0001, 1))
	assert.Equal(t, http.StatusOK, hit(r, "10.0.0.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(r, "10.0.0.2").Code)
}

type fakeEvaler struct {
	counts map[string]int64
	err    error
	keys   []string
	args   []interface{}
}

func (f *fakeEvaler) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	f.keys, f.args = keys, args
	cmd := redis.NewCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	f.counts[keys[0]]++
	cmd.SetVal(f.counts[keys[0]])
	return cmd
}

func TestRedisRateLimit(t *testing.T) {
	ev := &fakeEvaler{counts: map[string]int64{}}
	r := engineWith(RedisRateLimit(ev, zap.NewNop(), "rl:auth:", 2, time.Minute))

	assert.Equal(t, http.StatusOK, hit(r, "10.0.0.1").Code)
	assert.Equal(t, []string{"rl:auth:10.0.0.1"}, ev.keys)
	assert.Equal(t, []interface{}{60}, ev.args)

	assert.Equal(t, http.StatusOK, hit(r, "10.0.0.1").Code)
	w := hit(r, "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, hit(r, "10.0.0.9").Code)
}

func TestRedisRateLimit_FailsOpen(t *testing.T) {
	ev := &fakeEvaler{counts: map[string]int64{}, err: errors.New("conn refused")}
	r := engineWith(RedisRateLimit(ev, zap.NewNop(), "rl:", 1, time.Minute))
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hit(r, "10.0.0.1").Code)
	}
}
