package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.5-flash:generateContent"

// GeminiService summarizes text through the Gemini REST API
type GeminiService struct {
	ApiKey       string
	BaseURL      string
	SystemPrompt string
	httpClient   *http.Client
}

func NewGeminiService(apiKey, systemPrompt string) *GeminiService {
	return &GeminiService{
		ApiKey:       apiKey,
		BaseURL:      defaultBaseURL,
		SystemPrompt: systemPrompt,
		httpClient:   &http.Client{},
	}
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateRequest struct {
	SystemInstruction *content               `json:"systemInstruction,omitempty"`
	Contents          []content              `json:"contents"`
	GenerationConfig  map[string]interface{} `json:"generationConfig,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func (g *GeminiService) SummarizeEmail(ctx context.Context, emailText string) (string, error) {
	payload := generateRequest{
		Contents:         []content{{Parts: []part{{Text: emailText}}}},
		GenerationConfig: map[string]interface{}{"temperature": 0.2},
	}
	if g.SystemPrompt != "" {
		payload.SystemInstruction = &content{Parts: []part{{Text: g.SystemPrompt}}}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+"?key="+g.ApiKey, bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("Gemini API error (%d): %s", resp.StatusCode, string(respBody))
	}

	var result generateResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", err
	}

	if len(result.Candidates) > 0 && len(result.Candidates[0].Content.Parts) > 0 {
		return result.Candidates[0].Content.Parts[0].Text, nil
	}
	return "", fmt.Errorf("no summary returned")
}
