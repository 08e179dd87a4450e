package assistant

import (
	"context"
	"sync"

	"github.com/ziadkadry99/runbookqa/internal/llm"
	"github.com/ziadkadry99/runbookqa/internal/retrieval"
	"github.com/ziadkadry99/runbookqa/internal/runbooks"
)

const testDomain = "SAP Treasury and Risk Management (TRM)"

var testPrompts = DefaultPrompts(testDomain)

// scriptedProvider routes each completion to a reply by its system prompt.
type scriptedProvider struct {
	mu      sync.Mutex
	calls   []llm.CompletionRequest
	replies map[string]string
	errs    map[string]error
}

func newScriptedProvider() *scriptedProvider {
	return &scriptedProvider{replies: map[string]string{}, errs: map[string]error{}}
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, req)
	system := ""
	if len(req.Messages) > 0 && req.Messages[0].Role == llm.RoleSystem {
		system = req.Messages[0].Content
	}
	if err := p.errs[system]; err != nil {
		return nil, err
	}
	reply, ok := p.replies[system]
	if !ok {
		reply = "default reply"
	}
	return &llm.CompletionResponse{Content: reply}, nil
}

func (p *scriptedProvider) callsWith(system string) []llm.CompletionRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []llm.CompletionRequest
	for _, c := range p.calls {
		if len(c.Messages) > 0 && c.Messages[0].Content == system {
			out = append(out, c)
		}
	}
	return out
}

type fakeRetriever struct {
	mu      sync.Mutex
	hits    []retrieval.Hit
	err     error
	queries []string
}

func (r *fakeRetriever) Query(_ context.Context, text string, _ int) ([]retrieval.Hit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queries = append(r.queries, text)
	return r.hits, r.err
}

type fakeRunbooks map[string]string

func (f fakeRunbooks) Get(id string) (string, error) {
	if content, ok := f[id]; ok {
		return content, nil
	}
	return "", &runbooks.NotFoundError{Identifier: id, Available: []string{"deployment.md"}}
}

type fixture struct {
	provider  *scriptedProvider
	retriever *fakeRetriever
	engine    *Engine
}

func newFixture(hits ...retrieval.Hit) *fixture {
	p := newScriptedProvider()
	r := &fakeRetriever{hits: hits}
	e := NewEngine(
		&KeywordClassifier{},
		NewCondenser(p, "condense-model", testPrompts, 10),
		r,
		NewSynthesizer(p, "answer-model", testPrompts, 15),
		fakeRunbooks{"incident": "incident runbook body"},
		testPrompts,
		Options{TopK: 10, MinSimilarity: 0.55},
	)
	return &fixture{provider: p, retriever: r, engine: e}
}

func turns(pairs ...string) []Turn {
	out := make([]Turn, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, Turn{Role: Role(pairs[i]), Content: pairs[i+1]})
	}
	return out
}
