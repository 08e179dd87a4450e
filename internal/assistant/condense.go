package assistant

import (
	"context"
	"strings"

	"github.com/phuslu/log"

	"github.com/ziadkadry99/runbookqa/internal/llm"
)

// DefaultCondenseWindow is how many trailing turns the condenser sees.
const DefaultCondenseWindow = 10

// Condenser rewrites follow-up questions into standalone queries.
type Condenser struct {
	provider llm.Provider
	model    string
	system   string
	window   int
}

// NewCondenser creates a condenser that looks at the last window turns.
func NewCondenser(provider llm.Provider, model string, prompts Prompts, window int) *Condenser {
	if window <= 0 {
		window = DefaultCondenseWindow
	}
	return &Condenser{provider: provider, model: model, system: prompts.CondenseSystem, window: window}
}

// Condense returns a standalone version of query. Empty history returns
// query untouched without calling the model, and any completion failure
// falls back to the original query.
func (c *Condenser) Condense(ctx context.Context, history []Turn, query string) string {
	if len(history) == 0 {
		return query
	}

	recent := history[max(0, len(history)-c.window):]
	text, err := llm.CompleteText(ctx, c.provider, c.model, c.system,
		[]llm.Message{{Role: llm.RoleUser, Content: condensePrompt(recent, query)}}, 0.1, 200)
	if err != nil {
		log.Warn().Err(err).Str("query", query).Msg("query condensation failed, using original query")
		return query
	}

	condensed := singleLine(strings.TrimPrefix(text, "Standalone Question:"))
	if condensed == "" {
		return query
	}
	return condensed
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
