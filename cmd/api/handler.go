package api

import (
	authDelivery "kanban-mail-backend/internal/auth/delivery"
	authUsecase "kanban-mail-backend/internal/auth/usecase"
	kanbanDelivery "kanban-mail-backend/internal/kanban/delivery"
	kanbanUsecase "kanban-mail-backend/internal/kanban/usecase"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	authUsecase   authUsecase.AuthUsecase
	kanbanHandler *kanbanDelivery.KanbanHandler
	fcmHandler    *authDelivery.FCMHandler
	settings      *RuntimeSettings
}

func NewHandler(authUc authUsecase.AuthUsecase, kanbanUc kanbanUsecase.KanbanUsecase, settings *RuntimeSettings) *Handler {
	return &Handler{
		authUsecase:   authUc,
		kanbanHandler: kanbanDelivery.NewKanbanHandler(kanbanUc),
		fcmHandler:    authDelivery.NewFCMHandler(authUc),
		settings:      settings,
	}
}

func corsMiddleware(c *gin.Context) {
	origin := c.Request.Header.Get("Origin")
	if origin != "" {
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
	} else {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
	}

	c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
	c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
	c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

	if c.Request.Method == "OPTIONS" {
		c.AbortWithStatus(204)
		return
	}

	c.Next()
}

// Router builds the engine with every route mounted
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), corsMiddleware)
	SetupRoutes(r, h.authUsecase, h.kanbanHandler, h.fcmHandler, h.settings)
	return r
}

func (h *Handler) Start(addr string) error {
	gin.SetMode(gin.ReleaseMode)
	return h.Router().Run(addr)
}
