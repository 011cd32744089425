package middleware

import (
	"github.com/gin-gonic/gin"

	"acquisitions/internal/domain"
)

const (
	KeyUserID    = "userId"
	KeyRole      = "role"
	KeyRequestID = "X-Request-ID"
)

func UserID(c *gin.Context) string { return c.GetString(KeyUserID) }

func Role(c *gin.Context) domain.Role { return domain.Role(c.GetString(KeyRole)) }
