package embeddings

import (
	"context"
	"fmt"
	"os"
)

// Embedder defines the interface for generating text embeddings.
type Embedder interface {
	// Embed generates embeddings for one or more texts.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Name returns the name/identifier of the embedding model.
	Name() string
}

// New builds the embedder for a provider name. API keys come from the
// same environment variables the completion providers use.
func New(provider, model string) (Embedder, error) {
	switch provider {
	case "openai", "":
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		return NewOpenAIEmbedder(key, model), nil
	case "google":
		key := os.Getenv("GOOGLE_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("GOOGLE_API_KEY environment variable is not set")
		}
		return NewGoogleEmbedder(key, model), nil
	case "ollama":
		host := os.Getenv("OLLAMA_HOST")
		if host == "" {
			host = defaultOllamaBaseURL
		}
		return NewOllamaEmbedder(model, host), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", provider)
	}
}

// Prefixed prepends an instruction prefix to every text before delegating.
// Instruction-tuned models (bge, e5) expect e.g. "Represent this query: ".
type Prefixed struct {
	Embedder
	Prefix string
}

func (p Prefixed) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if p.Prefix == "" {
		return p.Embedder.Embed(ctx, texts)
	}
	prefixed := make([]string, len(texts))
	for i, t := range texts {
		prefixed[i] = p.Prefix + t
	}
	return p.Embedder.Embed(ctx, prefixed)
}
