package assistant

import (
	"context"
	"fmt"

	"github.com/ziadkadry99/runbookqa/internal/llm"
)

// DefaultHistoryWindow is how many trailing turns are replayed to the
// answer model.
const DefaultHistoryWindow = 15

const (
	answerTemperature = 0.1
	answerMaxTokens   = 800
)

// Synthesizer issues the final answer completion.
type Synthesizer struct {
	provider llm.Provider
	model    string
	prompts  Prompts
	window   int
}

// NewSynthesizer creates a synthesizer replaying the last window turns.
func NewSynthesizer(provider llm.Provider, model string, prompts Prompts, window int) *Synthesizer {
	if window <= 0 {
		window = DefaultHistoryWindow
	}
	return &Synthesizer{provider: provider, model: model, prompts: prompts, window: window}
}

// Answer writes the reply to question from contextBlock, using the
// procedural template for runbook intents and the conversational one
// otherwise. Errors are returned as is; there is no retry.
func (s *Synthesizer) Answer(ctx context.Context, intent Intent, contextBlock, question string, history []Turn) (string, error) {
	system := s.prompts.Chat
	if intent.Kind == RunbookRequest {
		system = s.prompts.Runbook
	}

	recent := history[max(0, len(history)-s.window):]
	msgs := make([]llm.Message, 0, len(recent)+1)
	for _, t := range recent {
		msgs = append(msgs, t.message())
	}
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: answerPrompt(contextBlock, question)})

	text, err := llm.CompleteText(ctx, s.provider, s.model, system, msgs, answerTemperature, answerMaxTokens)
	if err != nil {
		return "", fmt.Errorf("synthesizing answer: %w", err)
	}
	return text, nil
}

// ExtractPortion writes the procedural extract for a confirmed offer.
func (s *Synthesizer) ExtractPortion(ctx context.Context, contextBlock, question string) (string, error) {
	text, err := llm.CompleteText(ctx, s.provider, s.model, s.prompts.PortionExtract,
		[]llm.Message{{Role: llm.RoleUser, Content: portionPrompt(contextBlock, question)}},
		answerTemperature, answerMaxTokens)
	if err != nil {
		return "", fmt.Errorf("extracting runbook portion: %w", err)
	}
	return text, nil
}

// runbookTypeKeywords are checked in priority order; for each keyword every
// source is scanned before moving to the next keyword.
var runbookTypeKeywords = []struct {
	keyword, runbookType string
}{
	{"operational", "operational"},
	{"incident", "incident"},
	{"system", "system_admin"},
	{"admin", "system_admin"},
}

// InferRunbookType guesses the runbook family from source document names.
// It returns "" when no keyword matches.
func InferRunbookType(sources []string) string {
	for _, k := range runbookTypeKeywords {
		for _, src := range sources {
			if containsFold(src, k.keyword) {
				return k.runbookType
			}
		}
	}
	return ""
}
