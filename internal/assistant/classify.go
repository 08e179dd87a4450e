package assistant

import (
	"context"
	"strings"

	"github.com/phuslu/log"

	"github.com/ziadkadry99/runbookqa/internal/llm"
)

// Classifier decides the intent of a query. Implementations never fail:
// they degrade to General when they cannot decide.
type Classifier interface {
	Classify(ctx context.Context, query string) Intent
}

// LLMClassifier asks the completion service for a structured verdict.
type LLMClassifier struct {
	provider llm.Provider
	model    string
	system   string
}

// NewLLMClassifier creates a completion-backed classifier. model is
// normally a small, fast model.
func NewLLMClassifier(provider llm.Provider, model string, prompts Prompts) *LLMClassifier {
	return &LLMClassifier{provider: provider, model: model, system: prompts.Classifier}
}

func (c *LLMClassifier) Classify(ctx context.Context, query string) Intent {
	text, err := llm.CompleteText(ctx, c.provider, c.model, c.system,
		[]llm.Message{{Role: llm.RoleUser, Content: query}}, 0, 60)
	if err != nil {
		log.Warn().Err(err).Msg("intent classification failed, treating as general query")
		return General()
	}
	return ParseIntent(text)
}

// ParseIntent reads "INTENT: RUNBOOK_REQUEST | TOPIC: <topic> | TYPE: <type>"
// out of free text. Missing markers fall back to defaults.
func ParseIntent(text string) Intent {
	if !strings.Contains(text, RunbookRequest.String()) {
		return General()
	}
	topic := markerValue(text, "TOPIC:")
	runbookType := strings.ToLower(markerValue(text, "TYPE:"))
	switch runbookType {
	case "operational", "incident", "system_admin":
	default:
		runbookType = ""
	}
	if topic == "" && runbookType != "" {
		topic = categoryLabel(runbookType)
	}
	return Runbook(topic, runbookType)
}

// markerValue returns the text after marker up to the next "|" or newline.
func markerValue(text, marker string) string {
	i := strings.Index(text, marker)
	if i < 0 {
		return ""
	}
	v := text[i+len(marker):]
	if j := strings.IndexAny(v, "|\n"); j >= 0 {
		v = v[:j]
	}
	return strings.Trim(strings.TrimSpace(v), `"'.*`)
}

type category struct {
	id       string
	label    string
	keywords []phrase
}

var categories = []category{
	{"operational", "Operational Procedures", phrases(
		"daily transaction", "transaction management", "deal capture", "settlement", "settle",
		"cash position", "liquidity management", "month-end", "master data",
		"business partner", "product type", "operational procedure", "daily operation",
	)},
	{"incident", "Incident Response", phrases(
		"incident", "emergency", "critical", "liquidity shortfall", "unauthorized payment",
		"system outage", "breach", "escalation", "response procedure", "crisis",
	)},
	{"system_admin", "System Administration", phrases(
		"configuration", "account determination", "troubleshoot", "performance",
		"ot84", "product configuration", "system admin", "technical issue",
		"posting failure", "integration", "fi integration", "error", "fix",
	)},
	{"deployment", "Deployment", phrases("deploy", "deployment", "install")},
	{"system_config", "System Configuration", phrases("system config", "configuration settings", "setup")},
	{"backup_recovery", "Backup & Recovery", phrases("backup", "recovery", "restore", "disaster recovery")},
}

func categoryLabel(id string) string {
	for _, c := range categories {
		if c.id == id {
			return c.label
		}
	}
	return DefaultTopic
}

var (
	explicitMarkers = phrases("runbook", "manual", "documentation", "formal procedure",
		"procedures", "step-by-step", "steps", "checklist")
	plainVerbs      = phrases("show", "get", "give", "display", "format as", "generate", "provide")
	proceduralVerbs = phrases("how to", "how do i", "how can i", "how should i", "steps for",
		"procedure for", "runbook for", "walk me through")
	definitional = phrases("what is", "what are", "what's", "whats", "explain", "define",
		"describe", "tell me about", "who", "why", "list")
)

// KeywordClassifier scores queries against curated keyword lists and only
// consults Fallback when neither a keyword nor a request verb is present.
type KeywordClassifier struct {
	// Fallback is optional. Without it, unmatched queries are General.
	Fallback Classifier
}

func (c *KeywordClassifier) Classify(ctx context.Context, query string) Intent {
	tokens := tokenize(query)

	best, bestScore := category{}, 0
	for _, cat := range categories {
		if score := countIn(cat.keywords, tokens); score > bestScore {
			best, bestScore = cat, score
		}
	}
	hasKeyword := bestScore > 0
	procedural := anyIn(proceduralVerbs, tokens)
	hasVerb := procedural || anyIn(plainVerbs, tokens)

	switch {
	case anyIn(explicitMarkers, tokens):
		if hasKeyword {
			return Runbook(best.label, best.id)
		}
		return Runbook(DefaultTopic, "")
	case hasKeyword && hasVerb:
		return Runbook(best.label, best.id)
	case hasKeyword:
		if anyPrefix(definitional, tokens) {
			return General()
		}
		return Runbook(best.label, best.id)
	case procedural:
		return Runbook(DefaultTopic, "")
	case hasVerb:
		return General()
	case c.Fallback != nil:
		return c.Fallback.Classify(ctx, query)
	default:
		return General()
	}
}
