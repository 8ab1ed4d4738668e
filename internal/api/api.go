package api

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/barsham/design-automation/internal/api/handlers"
	"github.com/barsham/design-automation/internal/api/middleware"
)

type Services struct {
	RunHandler *handlers.RunHandler
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	// Add middleware
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	apiGroup := router.Group("/api/v1")

	if services != nil && services.RunHandler != nil {
		runGroup := apiGroup.Group("/runs")
		{
			runGroup.POST("/adoptions", services.RunHandler.StageAdoption)
			runGroup.POST("/updates", services.RunHandler.StageUpdate)
			runGroup.POST("/:id/sat", services.RunHandler.StageSAT)
			runGroup.POST("/:id/rfa", services.RunHandler.StageRFA)
			runGroup.POST("/:id/rfa/relocate", services.RunHandler.RelocateRFA)
			runGroup.POST("/:id/publish", services.RunHandler.Publish)
			runGroup.POST("/:id/publish-viewables", services.RunHandler.PublishViewables)
			runGroup.GET("/:id/status", services.RunHandler.Status)
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
