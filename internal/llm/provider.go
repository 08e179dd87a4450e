package llm

import (
	"context"
	"errors"
	"strings"
)

// ErrEmptyResponse is returned when a provider answers without any text.
var ErrEmptyResponse = errors.New("empty completion response")

// Provider defines the interface for completion providers.
// Implementations must be safe for concurrent use.
type Provider interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// Name returns the name of this provider.
	Name() string
}

// CompleteText issues one completion with a system prompt followed by msgs
// and returns the trimmed response text. Transport errors and empty
// responses are both reported as errors.
func CompleteText(ctx context.Context, p Provider, model, system string, msgs []Message, temperature float64, maxTokens int) (string, error) {
	all := make([]Message, 0, len(msgs)+1)
	if system != "" {
		all = append(all, Message{Role: RoleSystem, Content: system})
	}
	all = append(all, msgs...)

	resp, err := p.Complete(ctx, CompletionRequest{
		Model:       model,
		Messages:    all,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// splitSystem separates system messages (concatenated) from the
// conversational ones, for APIs that take the system prompt out of band.
func splitSystem(msgs []Message) (string, []Message) {
	var system []string
	rest := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}
		rest = append(rest, m)
	}
	return strings.Join(system, "\n\n"), rest
}
