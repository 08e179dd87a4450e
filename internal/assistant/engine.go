package assistant

import (
	"context"
	"errors"
	"fmt"

	"github.com/phuslu/log"

	"github.com/ziadkadry99/runbookqa/internal/retrieval"
	"github.com/ziadkadry99/runbookqa/internal/runbooks"
)

// RunbookSource reads a runbook file by catalogue id or file name.
type RunbookSource interface {
	Get(identifier string) (string, error)
}

// Options tune retrieval for an Engine. Zero values take the retrieval
// defaults.
type Options struct {
	TopK          int
	MinSimilarity float64
}

// Engine runs one conversational turn end to end. It holds no per-
// conversation state and is safe for concurrent use when its collaborators are.
type Engine struct {
	classifier  Classifier
	condenser   *Condenser
	retriever   retrieval.Retriever
	synthesizer *Synthesizer
	runbooks    RunbookSource
	prompts     Prompts
	opts        Options
}

// NewEngine wires an engine from its collaborators.
func NewEngine(classifier Classifier, condenser *Condenser, retriever retrieval.Retriever,
	synthesizer *Synthesizer, runbookSource RunbookSource, prompts Prompts, opts Options) *Engine {
	if opts.TopK <= 0 {
		opts.TopK = retrieval.DefaultTopK
	}
	if opts.MinSimilarity <= 0 {
		opts.MinSimilarity = retrieval.DefaultMinSimilarity
	}
	return &Engine{
		classifier:  classifier,
		condenser:   condenser,
		retriever:   retriever,
		synthesizer: synthesizer,
		runbooks:    runbookSource,
		prompts:     prompts,
		opts:        opts,
	}
}

// Answer processes query given the prior turns and the state returned by
// the previous call. history is not modified. Errors are returned only for
// retrieval and synthesis failures.
func (e *Engine) Answer(ctx context.Context, query string, history []Turn, state State) (*Result, error) {
	decision := Track(query, history, state)
	log.Debug().Str("reply", decision.Reply.String()).Int("action", int(decision.Action)).Msg("confirmation check")

	switch decision.Action {
	case ActionPortion:
		return e.answerPortion(ctx, decision, history)
	case ActionFullRunbook:
		return e.fullRunbook(decision.Runbook)
	}

	working := query
	var intent Intent
	if decision.Action == ActionForceGeneral {
		if decision.OriginalQuery != "" {
			working = decision.OriginalQuery
		}
		intent = General()
	} else {
		intent = e.classifier.Classify(ctx, query)
	}
	log.Debug().Str("intent", intent.Kind.String()).Str("topic", intent.Topic).Msg("intent classified")

	if intent.Kind == RunbookRequest && decision.Reply != ReplyConfirm {
		return &Result{
			Answer:  OfferMessage(intent.Topic),
			Sources: []string{},
			State:   State{Phase: PhaseAwaitingPortion, PendingQuery: query, PendingRunbook: intent.RunbookType},
		}, nil
	}

	searchQuery := e.condenser.Condense(ctx, history, working)
	log.Debug().Str("query", working).Str("condensed", searchQuery).Msg("query condensed")

	hits, err := e.retrieve(ctx, searchQuery)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return &Result{Answer: e.prompts.Insufficient, Sources: []string{}, State: normalState(), UnansweredQuery: working}, nil
	}

	answer, err := e.synthesizer.Answer(ctx, intent, retrieval.BuildContext(hits), working, history)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Answer:    answer,
		Sources:   retrieval.Sources(hits),
		IsRunbook: intent.Kind == RunbookRequest,
		State:     normalState(),
	}
	if res.IsRunbook {
		res.RunbookType = intent.RunbookType
		if res.RunbookType == "" {
			res.RunbookType = InferRunbookType(res.Sources)
		}
	}
	return res, nil
}

func (e *Engine) retrieve(ctx context.Context, query string) ([]retrieval.Hit, error) {
	hits, err := e.retriever.Query(ctx, query, e.opts.TopK)
	if err != nil {
		return nil, fmt.Errorf("retrieving context: %w", err)
	}
	kept := retrieval.Filter(hits, e.opts.MinSimilarity)
	log.Debug().Int("hits", len(hits)).Int("kept", len(kept)).Float64("threshold", e.opts.MinSimilarity).Msg("retrieval filtered")
	return kept, nil
}

// answerPortion handles a confirmed portion offer.
func (e *Engine) answerPortion(ctx context.Context, d Decision, history []Turn) (*Result, error) {
	original := d.OriginalQuery
	prior := history
	if lastAssistant(prior) != "" {
		prior = prior[:len(prior)-1]
	}
	searchQuery := e.condenser.Condense(ctx, prior, original)

	hits, err := e.retrieve(ctx, searchQuery)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return &Result{Answer: NoPortionDetailMessage, Sources: []string{}, State: normalState(), UnansweredQuery: original}, nil
	}

	answer, err := e.synthesizer.ExtractPortion(ctx, retrieval.BuildContext(hits), original)
	if err != nil {
		return nil, err
	}
	sources := retrieval.Sources(hits)
	runbookType := d.Runbook.ID
	if runbookType == "" {
		runbookType = InferRunbookType(sources)
	}
	return &Result{
		Answer:      answer,
		Sources:     sources,
		IsRunbook:   true,
		RunbookType: runbookType,
		State:       normalState(),
	}, nil
}

// fullRunbook returns a runbook file verbatim. Lookup misses become the
// answer text rather than errors.
func (e *Engine) fullRunbook(entry runbooks.Entry) (*Result, error) {
	content, err := e.runbooks.Get(entry.ID)
	var notFound *runbooks.NotFoundError
	switch {
	case errors.Is(err, runbooks.ErrAccessDenied):
		content = runbooks.AccessDeniedMessage
	case errors.As(err, &notFound):
		content = notFound.Error()
	case err != nil:
		return nil, fmt.Errorf("reading runbook %s: %w", entry.ID, err)
	}
	return &Result{
		Answer:      FormatFullRunbook(entry.Name, entry.ID, content),
		Sources:     []string{LocalRunbookSource},
		IsRunbook:   true,
		RunbookType: entry.ID,
		State:       normalState(),
	}, nil
}
