package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type Pinger func(ctx context.Context) error

// HealthHandler 探针与欢迎页，不走统一信封
type HealthHandler struct {
	started time.Time
	ping    Pinger
}

func NewHealthHandler(ping Pinger) *HealthHandler {
	return &HealthHandler{started: time.Now(), ping: ping}
}

func (h *HealthHandler) Mount(r gin.IRoutes) {
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Hello from acquisitions!")
	})
	r.GET("/health", h.health)
	r.GET("/readyz", h.ready)
	r.GET("/api", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Acquisitions API is running!"})
	})
}

func (h *HealthHandler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"uptime":    time.Since(h.started).Seconds(),
	})
}

func (h *HealthHandler) ready(c *gin.Context) {
	if h.ping != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
