package ai

import (
	"context"
	"fmt"
	"log"
	"net"
	"strings"
)

// FallbackService tries the hosted provider first and falls back to the local
// Ollama model when it is unreachable or out of quota.
type FallbackService struct {
	primary SummarizerService
	ollama  SummarizerService
}

// NewFallbackService creates a new fallback service with both providers
func NewFallbackService(primary, ollama SummarizerService) *FallbackService {
	return &FallbackService{
		primary: primary,
		ollama:  ollama,
	}
}

// isConnectionError checks if the error is a network/connection error
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}

	if _, ok := err.(net.Error); ok {
		return true
	}

	connectionIndicators := []string{
		"connection refused",
		"no such host",
		"network is unreachable",
		"connection reset",
		"timeout",
		"dial tcp",
		"eof",
	}
	return containsAny(err.Error(), connectionIndicators)
}

// isQuotaError checks if the error indicates API quota exhaustion (429)
func isQuotaError(err error) bool {
	if err == nil {
		return false
	}

	quotaIndicators := []string{
		"429",
		"quota",
		"rate limit",
		"too many requests",
		"resource exhausted",
		"resource_exhausted",
		"insufficient_quota",
	}
	return containsAny(err.Error(), quotaIndicators)
}

func containsAny(s string, needles []string) bool {
	s = strings.ToLower(s)
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// SummarizeEmail implements SummarizerService
func (f *FallbackService) SummarizeEmail(ctx context.Context, emailText string) (string, error) {
	if f.primary != nil {
		result, err := f.primary.SummarizeEmail(ctx, emailText)
		if err == nil {
			return result, nil
		}
		if f.ollama == nil {
			return "", err
		}

		switch {
		case isQuotaError(err):
			log.Printf("[AI] Primary provider quota exhausted: %v, falling back to Ollama", err)
		case isConnectionError(err):
			log.Printf("[AI] Primary provider unreachable: %v, falling back to Ollama", err)
		default:
			log.Printf("[AI] Primary provider error: %v, falling back to Ollama", err)
		}
	}

	if f.ollama != nil {
		result, err := f.ollama.SummarizeEmail(ctx, emailText)
		if err != nil {
			return "", fmt.Errorf("ollama summarization failed: %w", err)
		}
		return result, nil
	}

	return "", fmt.Errorf("no AI provider available for summarization")
}
