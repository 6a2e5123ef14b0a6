package handlers

import (
	"net/http"
	"time"

	"github.com/blogpulse/backend/internal/cache"
	"github.com/blogpulse/backend/internal/database"
	"github.com/blogpulse/backend/internal/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Health is the liveness probe; it answers as long as the process runs
// GET /health
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready is the readiness probe. The database is required; Redis is
// reported but optional since every caching layer degrades without it.
// GET /ready
func Ready(c *gin.Context) {
	checks := gin.H{"database": "ok"}

	if err := database.Health(); err != nil {
		logger.Warn("readiness check failed", zap.Error(err))
		checks["database"] = "unavailable"
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"checks": checks,
		})
		return
	}

	if rc := cache.GetRedisClient(); rc != nil {
		if err := rc.Ping(c.Request.Context()); err != nil {
			checks["redis"] = "unavailable"
		} else {
			checks["redis"] = "ok"
		}
	} else {
		checks["redis"] = "disabled"
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"checks": checks,
	})
}
