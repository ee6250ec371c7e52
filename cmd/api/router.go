package api

import (
	"net/http"

	"kanban-mail-backend/internal/auth/delivery"
	authUsecase "kanban-mail-backend/internal/auth/usecase"
	kanbanDelivery "kanban-mail-backend/internal/kanban/delivery"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, authUc authUsecase.AuthUsecase, kanbanHandler *kanbanDelivery.KanbanHandler, fcmHandler *delivery.FCMHandler, settings *RuntimeSettings) {
	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		kanban := api.Group("/kanban")
		kanban.Use(delivery.AuthMiddleware(authUc))
		kanbanHandler.RegisterRoutes(kanban)

		fcm := api.Group("/fcm")
		fcm.Use(delivery.AuthMiddleware(authUc))
		fcmHandler.RegisterRoutes(fcm)

		// Runtime AI settings
		ai := api.Group("/settings/ai")
		{
			ai.GET("", settings.Get)
			ai.PUT("", settings.Update)
			ai.POST("/test", settings.TestConnection)
		}
	}
}
