package core

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nerith/photofold/config"
	"github.com/nerith/photofold/internal/app"
)

var startTime = time.Now()

// healthHandler reports service health with per-dependency checks.
func healthHandler(container *app.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := gin.H{
			"database": checkDatabaseHealth(container),
			"cache":    checkCacheHealth(container),
			"storage":  checkStorageHealth(c.Request.Context(), container),
		}

		httpStatus := http.StatusOK
		for _, result := range checks {
			if s, ok := result.(string); ok && s != "ok" {
				httpStatus = http.StatusServiceUnavailable
				break
			}
		}

		c.JSON(httpStatus, gin.H{
			"status":  statusWord(httpStatus),
			"uptime":  time.Since(startTime).Round(time.Second).String(),
			"version": config.Version,
			"checks":  checks,
		})
	}
}

func statusWord(httpStatus int) string {
	if httpStatus == http.StatusOK {
		return "ok"
	}
	return "degraded"
}

func checkDatabaseHealth(container *app.Container) string {
	factory := container.DB()
	if factory == nil {
		return "not initialized"
	}
	if err := factory.Ping(); err != nil {
		return "unavailable: " + err.Error()
	}
	return "ok"
}

func checkCacheHealth(container *app.Container) string {
	factory := container.Cache()
	if factory == nil || factory.GetProvider() == nil {
		return "not initialized"
	}
	return "ok"
}

func checkStorageHealth(ctx context.Context, container *app.Container) string {
	provider := container.Storage()
	if provider == nil {
		return "not initialized"
	}
	if err := provider.Health(ctx); err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}
