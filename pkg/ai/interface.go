package ai

import (
	"context"
)

// EmailContent is what a summary is generated from. BodyText wins over
// BodyHTML when both are present.
type EmailContent struct {
	Subject   string
	FromName  string
	FromEmail string
	BodyHTML  string
	BodyText  string
}

// Summary is the result of Summarize, including degraded outputs.
type Summary struct {
	Text     string `json:"summary"`
	BodyHash string `json:"bodyHash"`
	Degraded bool   `json:"-"`
}

// SummarizerService is the interface for AI summarization
// Implement this interface to add new AI providers (OpenAI, Gemini, Ollama, etc.)
type SummarizerService interface {
	SummarizeEmail(ctx context.Context, emailText string) (string, error)
}

// ProviderType represents the AI provider type
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderGemini ProviderType = "gemini"
	ProviderOllama ProviderType = "ollama"
	ProviderAuto   ProviderType = "auto"
)

// SystemPrompt is shared by every provider so summaries look alike.
const SystemPrompt = "Summarize this email for a Kanban productivity app. " +
	"Return 2-4 concise bullet points and one action suggestion line."
