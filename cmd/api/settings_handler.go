package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"kanban-mail-backend/pkg/ai"

	"github.com/gin-gonic/gin"
)

const pingTimeout = 5 * time.Second

// RuntimeSettings holds the AI settings that can change without a restart.
// The summarizer reads the Ollama endpoint through the getters on every call.
type RuntimeSettings struct {
	mu            sync.RWMutex
	provider      ai.ProviderType
	ollamaBaseURL string
	ollamaModel   string
	pinger        *ai.OllamaService
}

func NewRuntimeSettings(provider ai.ProviderType, ollamaBaseURL, ollamaModel string) *RuntimeSettings {
	s := &RuntimeSettings{
		provider:      provider,
		ollamaBaseURL: ollamaBaseURL,
		ollamaModel:   ollamaModel,
	}
	s.pinger = ai.NewOllamaServiceWithGetters(s.OllamaBaseURL, s.OllamaModel)
	return s
}

func (s *RuntimeSettings) OllamaBaseURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ollamaBaseURL
}

func (s *RuntimeSettings) OllamaModel() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ollamaModel
}

type AISettingsResponse struct {
	Provider      ai.ProviderType `json:"provider"`
	OllamaBaseURL string          `json:"ollama_base_url"`
	OllamaModel   string          `json:"ollama_model"`
}

type UpdateAISettingsRequest struct {
	OllamaBaseURL string `json:"ollama_base_url" binding:"required,url"`
	OllamaModel   string `json:"ollama_model,omitempty"`
}

func (s *RuntimeSettings) snapshot() AISettingsResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return AISettingsResponse{
		Provider:      s.provider,
		OllamaBaseURL: s.ollamaBaseURL,
		OllamaModel:   s.ollamaModel,
	}
}

// GET /api/settings/ai
func (s *RuntimeSettings) Get(c *gin.Context) {
	c.JSON(http.StatusOK, s.snapshot())
}

// PUT /api/settings/ai
func (s *RuntimeSettings) Update(c *gin.Context) {
	var req UpdateAISettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	s.ollamaBaseURL = req.OllamaBaseURL
	if req.OllamaModel != "" {
		s.ollamaModel = req.OllamaModel
	}
	s.mu.Unlock()

	c.JSON(http.StatusOK, s.snapshot())
}

// POST /api/settings/ai/test
func (s *RuntimeSettings) TestConnection(c *gin.Context) {
	var req struct {
		OllamaBaseURL string `json:"ollama_base_url"`
	}
	// an empty body tests the current endpoint
	_ = c.ShouldBindJSON(&req)

	baseURL := req.OllamaBaseURL
	if baseURL == "" {
		baseURL = s.OllamaBaseURL()
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
	defer cancel()

	if err := s.pinger.Ping(ctx, baseURL); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"connected": false,
			"error":     err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"connected":       true,
		"ollama_base_url": baseURL,
	})
}
