package delivery

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	authdomain "kanban-mail-backend/internal/auth/domain"
	"kanban-mail-backend/internal/kanban/domain"
	kanbandto "kanban-mail-backend/internal/kanban/dto"
	"kanban-mail-backend/internal/kanban/usecase"

	"github.com/gin-gonic/gin"
)

type KanbanHandler struct {
	kanbanUsecase usecase.KanbanUsecase
}

func NewKanbanHandler(kanbanUsecase usecase.KanbanUsecase) *KanbanHandler {
	return &KanbanHandler{
		kanbanUsecase: kanbanUsecase,
	}
}

// currentUserID reads the user set by the auth middleware
func currentUserID(c *gin.Context) (string, bool) {
	user, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return "", false
	}
	userData, ok := user.(*authdomain.User)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user data"})
		return "", false
	}
	return userData.ID, true
}

// writeError maps usecase errors onto HTTP status codes
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrUpstream):
		status = http.StatusBadGateway
	case errors.Is(err, domain.ErrEmbeddingNotPersisted):
		status = http.StatusInternalServerError
	default:
		log.Printf("[Kanban] %s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func queryInt(c *gin.Context, key string) int {
	if v := c.Query(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return 0
}

// GET /api/kanban/board
func (h *KanbanHandler) GetBoard(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	board, err := h.kanbanUsecase.GetBoard(c.Request.Context(), usecase.BoardQuery{
		UserID:    userID,
		Label:     c.Query("label"),
		PageToken: c.Query("pageToken"),
		PageSize:  queryInt(c, "pageSize"),
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, board)
}

// PATCH /api/kanban/items/:messageId/status
func (h *KanbanHandler) UpdateStatus(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req kanbandto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.kanbanUsecase.UpdateStatus(c.Request.Context(), userID, c.Param("messageId"), req.Status, req.GmailLabel)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, kanbandto.ItemResponse{Item: item})
}

// POST /api/kanban/items/:messageId/snooze
func (h *KanbanHandler) Snooze(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req kanbandto.SnoozeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.kanbanUsecase.Snooze(c.Request.Context(), userID, c.Param("messageId"), req.Until)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, kanbandto.ItemResponse{Item: item})
}

// POST /api/kanban/items/:messageId/unsnooze
func (h *KanbanHandler) Unsnooze(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	item, err := h.kanbanUsecase.Unsnooze(c.Request.Context(), userID, c.Param("messageId"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, kanbandto.ItemResponse{Item: item})
}

// POST /api/kanban/items/:messageId/summarize
func (h *KanbanHandler) Summarize(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	result, err := h.kanbanUsecase.Summarize(c.Request.Context(), userID, c.Param("messageId"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// POST /api/kanban/items/:messageId/embedding
func (h *KanbanHandler) GenerateEmbedding(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.kanbanUsecase.GenerateAndStoreEmbedding(c.Request.Context(), userID, c.Param("messageId")); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "embedding stored"})
}

// GET /api/kanban/search
func (h *KanbanHandler) Search(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	results, err := h.kanbanUsecase.SearchItems(c.Request.Context(), userID, c.Query("q"), queryInt(c, "limit"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, kanbandto.SearchResponse{Results: results})
}

// POST /api/kanban/search/semantic
func (h *KanbanHandler) SemanticSearch(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req kanbandto.SemanticSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results, err := h.kanbanUsecase.SemanticSearch(c.Request.Context(), userID, req.Query, req.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, kanbandto.SearchResponse{Results: results})
}

// GET /api/kanban/search/suggestions
func (h *KanbanHandler) Suggestions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	results, err := h.kanbanUsecase.Suggestions(c.Request.Context(), userID, c.Query("q"), queryInt(c, "limit"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, kanbandto.SuggestionsResponse{Results: results})
}

// GET /api/kanban/columns
func (h *KanbanHandler) GetColumns(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	columns, err := h.kanbanUsecase.GetColumns(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, kanbandto.ColumnsResponse{Columns: columns})
}

// PUT /api/kanban/columns
func (h *KanbanHandler) UpdateColumns(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req kanbandto.UpdateColumnsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	columns, err := h.kanbanUsecase.UpdateColumns(c.Request.Context(), userID, req.Columns)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, kanbandto.ColumnsResponse{Columns: columns})
}

// GET /api/kanban/labels
func (h *KanbanHandler) ListLabels(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	labels, err := h.kanbanUsecase.ListLabels(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, kanbandto.LabelsResponse{Labels: labels})
}

// POST /api/kanban/labels/validate
func (h *KanbanHandler) ValidateLabel(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req kanbandto.ValidateLabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.kanbanUsecase.ValidateLabel(c.Request.Context(), userID, req.LabelName)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// POST /api/kanban/watch
func (h *KanbanHandler) WatchMailbox(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.kanbanUsecase.WatchMailbox(c.Request.Context(), userID); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "watching mailbox"})
}

// RegisterRoutes mounts the kanban endpoints on an authenticated group
func (h *KanbanHandler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/board", h.GetBoard)
	r.PATCH("/items/:messageId/status", h.UpdateStatus)
	r.POST("/items/:messageId/snooze", h.Snooze)
	r.POST("/items/:messageId/unsnooze", h.Unsnooze)
	r.POST("/items/:messageId/summarize", h.Summarize)
	r.POST("/items/:messageId/embedding", h.GenerateEmbedding)
	r.GET("/search", h.Search)
	r.POST("/search/semantic", h.SemanticSearch)
	r.GET("/search/suggestions", h.Suggestions)
	r.GET("/columns", h.GetColumns)
	r.PUT("/columns", h.UpdateColumns)
	r.GET("/labels", h.ListLabels)
	r.POST("/labels/validate", h.ValidateLabel)
	r.POST("/watch", h.WatchMailbox)
}
