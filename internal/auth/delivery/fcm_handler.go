package delivery

import (
	"errors"
	"net/http"

	authdomain "kanban-mail-backend/internal/auth/domain"
	authdto "kanban-mail-backend/internal/auth/dto"
	"kanban-mail-backend/internal/auth/usecase"

	"github.com/gin-gonic/gin"
)

type FCMHandler struct {
	authUsecase usecase.AuthUsecase
}

func NewFCMHandler(authUsecase usecase.AuthUsecase) *FCMHandler {
	return &FCMHandler{authUsecase: authUsecase}
}

func userFromContext(c *gin.Context) (*authdomain.User, bool) {
	user, exists := c.Get(userKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return nil, false
	}
	userData, ok := user.(*authdomain.User)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user data"})
		return nil, false
	}
	return userData, true
}

// POST /api/fcm/register
func (h *FCMHandler) Register(c *gin.Context) {
	user, ok := userFromContext(c)
	if !ok {
		return
	}

	var req authdto.RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	count, err := h.authUsecase.RegisterDevice(c.Request.Context(), user.ID, req.Token, req.DeviceInfo)
	if err != nil {
		if errors.Is(err, usecase.ErrDeviceMissing) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, authdto.DeviceResponse{Message: "device registered", Devices: count})
}

// DELETE /api/fcm/:token
func (h *FCMHandler) Unregister(c *gin.Context) {
	user, ok := userFromContext(c)
	if !ok {
		return
	}

	if err := h.authUsecase.UnregisterDevice(c.Request.Context(), user.ID, c.Param("token")); err != nil {
		if errors.Is(err, usecase.ErrDeviceMissing) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "device unregistered"})
}

// RegisterRoutes mounts the device endpoints on an authenticated group
func (h *FCMHandler) RegisterRoutes(r gin.IRoutes) {
	r.POST("/register", h.Register)
	r.DELETE("/:token", h.Unregister)
}
