package embeddings

import (
	"context"
	"fmt"
	"strings"

	chromem "github.com/philippgille/chromem-go"
)

const defaultOllamaBaseURL = "http://localhost:11434"

// OllamaEmbedder generates embeddings with a local Ollama instance through
// chromem-go's built-in Ollama embedding function.
type OllamaEmbedder struct {
	model string
	embed chromem.EmbeddingFunc
}

// NewOllamaEmbedder creates a new Ollama embedder. model is the Ollama
// model name (e.g. "nomic-embed-text"); baseURL is the server root.
func NewOllamaEmbedder(model string, baseURL string) *OllamaEmbedder {
	if model == "" {
		model = "nomic-embed-text"
	}
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	apiURL := strings.TrimSuffix(baseURL, "/") + "/api"
	return &OllamaEmbedder{
		model: model,
		embed: chromem.NewEmbeddingFuncOllama(model, apiURL),
	}
}

func (e *OllamaEmbedder) Name() string {
	return "ollama/" + e.model
}

func (e *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, 0, len(texts))
	for _, text := range texts {
		emb, err := e.embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("ollama embedding failed: %w", err)
		}
		results = append(results, emb)
	}
	return results, nil
}
