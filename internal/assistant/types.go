// Package assistant answers questions against the knowledge base and runs
// the two-step runbook offer protocol across conversation turns.
package assistant

import "github.com/ziadkadry99/runbookqa/internal/llm"

// Role is the speaker of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message of a conversation, oldest first.
type Turn struct {
	Role    Role   `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content"`
}

func (t Turn) message() llm.Message {
	if t.Role == RoleAssistant {
		return llm.Message{Role: llm.RoleAssistant, Content: t.Content}
	}
	return llm.Message{Role: llm.RoleUser, Content: t.Content}
}

// IntentKind separates procedural requests from informational ones.
type IntentKind int

const (
	GeneralQuery IntentKind = iota
	RunbookRequest
)

func (k IntentKind) String() string {
	if k == RunbookRequest {
		return "RUNBOOK_REQUEST"
	}
	return "GENERAL_QUERY"
}

// DefaultTopic labels a runbook request whose topic could not be extracted.
const DefaultTopic = "this topic"

// Intent is decided once per turn, before retrieval.
type Intent struct {
	Kind IntentKind
	// Topic is a short label for RunbookRequest intents.
	Topic string
	// RunbookType is a catalogue id when the classifier could tell which
	// runbook family the request belongs to.
	RunbookType string
}

// General is the informational intent.
func General() Intent {
	return Intent{Kind: GeneralQuery}
}

// Runbook is a procedural intent about topic.
func Runbook(topic, runbookType string) Intent {
	if topic == "" {
		topic = DefaultTopic
	}
	return Intent{Kind: RunbookRequest, Topic: topic, RunbookType: runbookType}
}

// Phase is the explicit conversation state carried between turns.
type Phase string

const (
	// PhaseUnknown makes the engine derive the phase from the last
	// assistant turn.
	PhaseUnknown Phase = ""
	PhaseNormal  Phase = "normal"
	// PhaseAwaitingPortion follows a "retrieve the formal runbook portion" offer.
	PhaseAwaitingPortion Phase = "awaiting_portion"
	// PhaseAwaitingRunbook follows an offer to fetch a whole runbook file.
	PhaseAwaitingRunbook Phase = "awaiting_full_runbook"
)

// State travels with a conversation and is returned updated after every turn.
// PendingRunbook is a catalogue id: the file to fetch while awaiting a
// full runbook, or the runbook family of a pending portion offer.
type State struct {
	Phase          Phase  `json:"phase"`
	PendingQuery   string `json:"pending_query,omitempty"`
	PendingRunbook string `json:"pending_runbook,omitempty"`
}

// Result is the outcome of one turn.
type Result struct {
	Answer      string   `json:"answer"`
	Sources     []string `json:"sources"`
	IsRunbook   bool     `json:"is_runbook"`
	RunbookType string   `json:"runbook_type,omitempty"`
	// State is the conversation state to pass with the next turn.
	State State `json:"state"`
	// UnansweredQuery is the question no document cleared the similarity
	// threshold for. Empty when the turn was answered from context.
	UnansweredQuery string `json:"-"`
}

func normalState() State {
	return State{Phase: PhaseNormal}
}
