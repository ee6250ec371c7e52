package ai

import (
	"fmt"

	"kanban-mail-backend/pkg/gemini"
)

// Config holds AI provider configuration. The Ollama getters let the endpoint
// be changed at runtime from the settings API.
type Config struct {
	Provider ProviderType

	OpenAIAPIKey string
	OpenAIModel  string

	GeminiAPIKey string

	GetOllamaBaseURL func() string
	GetOllamaModel   func() string
}

func (c Config) ollama() *OllamaService {
	getBaseURL, getModel := c.GetOllamaBaseURL, c.GetOllamaModel
	if getBaseURL == nil || getModel == nil {
		return NewOllamaService("", "")
	}
	return NewOllamaServiceWithGetters(
		func() string {
			if u := getBaseURL(); u != "" {
				return u
			}
			return "http://localhost:11434"
		},
		func() string {
			if m := getModel(); m != "" {
				return m
			}
			return "llama3"
		},
	)
}

// NewSummarizerService creates a SummarizerService based on the config
// This is the factory function - switch AI provider by changing config.Provider
func NewSummarizerService(cfg Config) (SummarizerService, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for OpenAI provider")
		}
		return NewOpenAIService(cfg.OpenAIAPIKey, cfg.OpenAIModel), nil

	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for Gemini provider")
		}
		return gemini.NewGeminiService(cfg.GeminiAPIKey, SystemPrompt), nil

	case ProviderOllama:
		return cfg.ollama(), nil

	case ProviderAuto, "":
		// Hosted provider when a key is present, local Ollama behind it
		var primary SummarizerService
		switch {
		case cfg.OpenAIAPIKey != "":
			primary = NewOpenAIService(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		case cfg.GeminiAPIKey != "":
			primary = gemini.NewGeminiService(cfg.GeminiAPIKey, SystemPrompt)
		}
		return NewFallbackService(primary, cfg.ollama()), nil

	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}
