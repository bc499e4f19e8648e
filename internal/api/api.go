package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/andresuchdata/farmrisk/internal/api/handlers"
	"github.com/andresuchdata/farmrisk/internal/api/middleware"
	"github.com/andresuchdata/farmrisk/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Services struct {
	Inventory     *service.InventoryHealthService
	Alerts        *service.AlertService
	Notifications *service.NotificationDispatcher
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
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

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	if services != nil {
		if services.Alerts != nil && services.Notifications != nil {
			alertHandler := handlers.NewAlertHandler(services.Alerts, services.Notifications)
			alertGroup := apiGroup.Group("/alerts")
			{
				alertGroup.GET("", alertHandler.ListAlerts)
				alertGroup.POST("/refresh", alertHandler.RefreshAlerts)
				alertGroup.GET("/:id", alertHandler.GetAlert)
				alertGroup.POST("/:id/send", alertHandler.SendAlert)
				alertGroup.PATCH("/:id/status", alertHandler.UpdateStatus)
			}
		}

		if services.Inventory != nil {
			inventoryHandler := handlers.NewInventoryHandler(services.Inventory)
			apiGroup.GET("/inventory/lots", inventoryHandler.GetRiskLots)
			apiGroup.GET("/dashboard/inventory-health", inventoryHandler.GetInventoryHealth)
		}

		if services.Notifications != nil {
			notificationHandler := handlers.NewNotificationHandler(services.Notifications)
			userGroup := apiGroup.Group("/users/:userId/notifications")
			{
				userGroup.GET("", notificationHandler.ListNotifications)
				userGroup.PATCH("/:id/read", notificationHandler.MarkRead)
			}
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
