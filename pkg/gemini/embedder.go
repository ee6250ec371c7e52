package gemini

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/amikos-tech/chroma-go/pkg/embeddings"
	"github.com/amikos-tech/chroma-go/pkg/embeddings/gemini"
)

const embeddingModel = "text-embedding-004"

// Embedder turns text into vectors with the Gemini embedding model
type Embedder struct {
	fn *gemini.GeminiEmbeddingFunction
}

func NewEmbedder(apiKey string) (*Embedder, error) {
	if apiKey != "" {
		os.Setenv("GEMINI_API_KEY", apiKey)
	}

	fn, err := gemini.NewGeminiEmbeddingFunction(
		gemini.WithEnvAPIKey(),
		gemini.WithDefaultModel(embeddingModel),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini embedding function: %w", err)
	}
	return &Embedder{fn: fn}, nil
}

// Function exposes the underlying embedding function so the vector
// collection can be created with it.
func (e *Embedder) Function() embeddings.EmbeddingFunction {
	return e.fn
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("nothing to embed")
	}
	emb, err := e.fn.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("gemini embed failed: %w", err)
	}
	vec := emb.ContentAsFloat32()
	if len(vec) == 0 {
		return nil, fmt.Errorf("gemini returned an empty embedding")
	}
	return vec, nil
}
