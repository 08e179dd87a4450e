package embeddings

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/genai"
)

// GoogleEmbedder generates embeddings using the Gemini API.
type GoogleEmbedder struct {
	apiKey string
	model  string

	once    sync.Once
	client  *genai.Client
	initErr error
}

// NewGoogleEmbedder creates a new Google embedder. An empty model selects
// gemini-embedding-001.
func NewGoogleEmbedder(apiKey string, model string) *GoogleEmbedder {
	if model == "" {
		model = "gemini-embedding-001"
	}
	return &GoogleEmbedder{apiKey: apiKey, model: model}
}

func (e *GoogleEmbedder) Name() string {
	return e.model
}

func (e *GoogleEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	e.once.Do(func() {
		e.client, e.initErr = genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  e.apiKey,
			Backend: genai.BackendGeminiAPI,
		})
	})
	if e.initErr != nil {
		return nil, fmt.Errorf("creating gemini client: %w", e.initErr)
	}

	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
	}
	result, err := e.client.Models.EmbedContent(ctx, e.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("gemini embedding request failed: %w", err)
	}
	if result == nil || len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini returned an unexpected number of embeddings")
	}

	out := make([][]float32, len(texts))
	for i, emb := range result.Embeddings {
		out[i] = emb.Values
	}
	return out, nil
}
