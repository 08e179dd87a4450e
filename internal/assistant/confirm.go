package assistant

import (
	"strings"

	"github.com/ziadkadry99/runbookqa/internal/runbooks"
)

// Reply classifies a short user message.
type Reply int

const (
	ReplyOther Reply = iota
	ReplyConfirm
	ReplyDeny
)

func (r Reply) String() string {
	switch r {
	case ReplyConfirm:
		return "confirm"
	case ReplyDeny:
		return "deny"
	default:
		return "other"
	}
}

// maxReplyTokens bounds what counts as a bare yes/no.
const maxReplyTokens = 5

var (
	confirmKeywords = phrases("yes", "confirm", "get it", "show me", "please", "go ahead", "sure", "ok", "okay")
	denyKeywords    = phrases("no", "not", "nah", "later", "skip", "don't", "stop", "nope", "nevermind", "n", "close")
)

// ClassifyReply reports whether query is a bare confirmation or denial.
// Keywords match whole words, messages longer than five words never count,
// and denial wins when both kinds match.
func ClassifyReply(query string) Reply {
	if len(strings.Fields(query)) > maxReplyTokens {
		return ReplyOther
	}
	tokens := tokenize(query)
	switch {
	case anyIn(denyKeywords, tokens):
		return ReplyDeny
	case anyIn(confirmKeywords, tokens):
		return ReplyConfirm
	default:
		return ReplyOther
	}
}

// Action is what the tracker asks the engine to do with a reply.
type Action int

const (
	// ActionNone lets the turn go through normal classification.
	ActionNone Action = iota
	// ActionForceGeneral answers OriginalQuery as an informational question.
	ActionForceGeneral
	// ActionPortion extracts the procedural portion for OriginalQuery.
	ActionPortion
	// ActionFullRunbook returns the Runbook file verbatim.
	ActionFullRunbook
)

// Decision is the tracker's reading of the current turn.
type Decision struct {
	Reply         Reply
	Action        Action
	OriginalQuery string
	// Runbook is the runbook to fetch, or for portions the family named
	// by the offer when known.
	Runbook runbooks.Entry
}

// Track interprets query against the pending offer, if any. An explicit
// state.Phase wins; without one the phase is derived from the wording of
// the immediately preceding assistant turn.
func Track(query string, history []Turn, state State) Decision {
	d := Decision{Reply: ClassifyReply(query)}
	if d.Reply == ReplyOther {
		return d
	}

	phase := state.Phase
	if phase == PhaseUnknown {
		phase = PhaseFromHistory(history)
	}

	switch phase {
	case PhaseAwaitingPortion:
		original := state.PendingQuery
		if original == "" {
			original = recoverOriginalQuery(history)
		}
		if d.Reply == ReplyDeny {
			d.Action = ActionForceGeneral
			d.OriginalQuery = original
		} else if original != "" {
			d.Action = ActionPortion
			d.OriginalQuery = original
			d.Runbook, _ = runbooks.Lookup(state.PendingRunbook)
		}
	case PhaseAwaitingRunbook:
		if d.Reply == ReplyDeny {
			d.Action = ActionForceGeneral
			d.OriginalQuery = recoverOriginalQuery(history)
			return d
		}
		entry, ok := runbooks.Lookup(state.PendingRunbook)
		if !ok {
			entry, ok = runbooks.FindByName(lastAssistant(history))
		}
		if ok {
			d.Action = ActionFullRunbook
			d.Runbook = entry
		}
	}
	return d
}

// PhaseFromHistory derives the conversation phase from marker phrases in
// the final turn, which must be the assistant's.
func PhaseFromHistory(history []Turn) Phase {
	last := lastAssistant(history)
	switch {
	case strings.Contains(last, PortionOfferMarker):
		return PhaseAwaitingPortion
	case strings.Contains(last, LegacyOfferMarker) && !strings.Contains(last, "portion"):
		return PhaseAwaitingRunbook
	default:
		return PhaseNormal
	}
}

// lastAssistant returns the content of the final turn when it is the
// assistant's, or "".
func lastAssistant(history []Turn) string {
	if len(history) == 0 || history[len(history)-1].Role != RoleAssistant {
		return ""
	}
	return history[len(history)-1].Content
}

// recoverOriginalQuery finds the latest user turn long enough to be a real
// question rather than a yes/no.
func recoverOriginalQuery(history []Turn) string {
	for i := len(history) - 1; i >= 0; i-- {
		t := history[i]
		if t.Role == RoleUser && len(strings.Fields(t.Content)) > 2 {
			return t.Content
		}
	}
	return ""
}
