package assistant

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/runbookqa/internal/retrieval"
)

var settlementHits = []retrieval.Hit{
	{DocName: "01_SAP_TRM_Operational_Procedures", ChunkID: 4, Text: "Settlement uses TBB1.", Score: 0.81},
	{DocName: "00_glossary", ChunkID: 1, Text: "A deal is a contract.", Score: 0.62},
	{DocName: "01_SAP_TRM_Operational_Procedures", ChunkID: 5, Text: "Post with TBB1.", Score: 0.58},
	{DocName: "99_unrelated", ChunkID: 0, Text: "Noise.", Score: 0.40},
}

func TestEngineOffersPortionOnFirstProceduralQuery(t *testing.T) {
	f := newFixture(settlementHits...)
	res, err := f.engine.Answer(context.Background(), "How do I settle a deal?", nil, State{})
	require.NoError(t, err)

	assert.Equal(t, OfferMessage("Operational Procedures"), res.Answer)
	assert.Contains(t, res.Answer, PortionOfferMarker)
	assert.Empty(t, res.Sources)
	assert.NotNil(t, res.Sources)
	assert.False(t, res.IsRunbook)
	assert.Equal(t, State{Phase: PhaseAwaitingPortion, PendingQuery: "How do I settle a deal?", PendingRunbook: "operational"}, res.State)
	assert.Empty(t, f.provider.calls, "offers never reach the model")
	assert.Empty(t, f.retriever.queries)
}

func TestEngineConfirmedPortion(t *testing.T) {
	f := newFixture(settlementHits...)
	f.provider.replies[testPrompts.CondenseSystem] = "How do I configure product types in TRM?"
	f.provider.replies[testPrompts.PortionExtract] = "## 📋 Product Type Setup"

	history := turns("user", "Configure product types", "assistant", OfferMessage("Operational Procedures"))
	res, err := f.engine.Answer(context.Background(), "yes", history, State{})
	require.NoError(t, err)

	assert.Equal(t, "## 📋 Product Type Setup", res.Answer)
	assert.True(t, res.IsRunbook)
	assert.Equal(t, "operational", res.RunbookType)
	assert.Equal(t, []string{"00_glossary", "01_SAP_TRM_Operational_Procedures"}, res.Sources)
	assert.Equal(t, PhaseNormal, res.State.Phase)

	assert.Equal(t, []string{"How do I configure product types in TRM?"}, f.retriever.queries)

	condense := f.provider.callsWith(testPrompts.CondenseSystem)
	require.Len(t, condense, 1)
	assert.NotContains(t, condense[0].Messages[1].Content, PortionOfferMarker, "offer turn is not condensed")
	assert.Contains(t, condense[0].Messages[1].Content, "Follow Up Input: Configure product types")

	extract := f.provider.callsWith(testPrompts.PortionExtract)
	require.Len(t, extract, 1)
	prompt := extract[0].Messages[1].Content
	assert.Contains(t, prompt, "--- Retrieved Chunk (score=0.810) ---\nSettlement uses TBB1.")
	assert.NotContains(t, prompt, "Noise.")
	assert.Contains(t, prompt, "Provide the specific portion for 'Configure product types'")
}

func TestEngineConfirmedPortionUsesPendingRunbook(t *testing.T) {
	f := newFixture(settlementHits...)
	state := State{Phase: PhaseAwaitingPortion, PendingQuery: "Show me the escalation path", PendingRunbook: "incident"}

	res, err := f.engine.Answer(context.Background(), "sure", nil, state)
	require.NoError(t, err)
	assert.Equal(t, "incident", res.RunbookType)
	assert.Equal(t, []string{"Show me the escalation path"}, f.retriever.queries, "no history means no condensation")
}

func TestEngineConfirmedPortionWithoutHits(t *testing.T) {
	f := newFixture(retrieval.Hit{DocName: "x", Text: "weak", Score: 0.3})
	state := State{Phase: PhaseAwaitingPortion, PendingQuery: "How do I settle a deal?"}

	res, err := f.engine.Answer(context.Background(), "yes", nil, state)
	require.NoError(t, err)
	assert.Equal(t, NoPortionDetailMessage, res.Answer)
	assert.Equal(t, "How do I settle a deal?", res.UnansweredQuery)
	assert.False(t, res.IsRunbook)
	assert.Empty(t, res.Sources)
	assert.Empty(t, f.provider.callsWith(testPrompts.PortionExtract))
}

func TestEngineDeclineAnswersOriginalAsGeneral(t *testing.T) {
	f := newFixture(settlementHits...)
	f.provider.replies[testPrompts.Chat] = "Settlement is the exchange of cash."

	history := turns("user", "How do I settle a deal?", "assistant", OfferMessage("Operational Procedures"))
	res, err := f.engine.Answer(context.Background(), "no thanks", history, State{})
	require.NoError(t, err)

	assert.Equal(t, "Settlement is the exchange of cash.", res.Answer)
	assert.False(t, res.IsRunbook)
	assert.Empty(t, res.RunbookType)
	assert.Equal(t, PhaseNormal, res.State.Phase)

	chat := f.provider.callsWith(testPrompts.Chat)
	require.Len(t, chat, 1)
	last := chat[0].Messages[len(chat[0].Messages)-1]
	assert.Contains(t, last.Content, "Question: How do I settle a deal?")
	assert.Empty(t, f.provider.callsWith(testPrompts.Runbook))
}

func TestEngineShortDenialAnswersOriginalAsGeneral(t *testing.T) {
	f := newFixture(settlementHits...)
	f.provider.replies[testPrompts.Chat] = "Settlement is the exchange of cash."

	history := turns("user", "How do I settle a deal?", "assistant", OfferMessage("Operational Procedures"))
	res, err := f.engine.Answer(context.Background(), "not now", history, State{})
	require.NoError(t, err)

	assert.Equal(t, "Settlement is the exchange of cash.", res.Answer)
	assert.False(t, res.IsRunbook)
	chat := f.provider.callsWith(testPrompts.Chat)
	require.Len(t, chat, 1)
	assert.Contains(t, chat[0].Messages[len(chat[0].Messages)-1].Content, "Question: How do I settle a deal?")
	assert.Empty(t, f.provider.callsWith(testPrompts.PortionExtract))
}

func TestEngineOfferRoundTripWithoutHistory(t *testing.T) {
	f := newFixture(settlementHits...)
	f.provider.replies[testPrompts.PortionExtract] = "## 📋 Settlement"

	offer, err := f.engine.Answer(context.Background(), "How do I settle a deal?", nil, State{})
	require.NoError(t, err)
	require.Equal(t, PhaseAwaitingPortion, offer.State.Phase)

	res, err := f.engine.Answer(context.Background(), "yes", nil, offer.State)
	require.NoError(t, err)
	assert.True(t, res.IsRunbook)
	assert.Equal(t, "## 📋 Settlement", res.Answer)
	assert.Equal(t, "operational", res.RunbookType)
	assert.Equal(t, []string{"How do I settle a deal?"}, f.retriever.queries)
}

func TestEngineInsufficientContext(t *testing.T) {
	f := newFixture(retrieval.Hit{DocName: "x", Text: "weak", Score: 0.54})
	res, err := f.engine.Answer(context.Background(), "What is the capital of France?", nil, State{})
	require.NoError(t, err)

	assert.Equal(t, testPrompts.Insufficient, res.Answer)
	assert.Contains(t, res.Answer, "I don't have enough information")
	assert.Equal(t, "What is the capital of France?", res.UnansweredQuery)
	assert.Empty(t, res.Sources)
	assert.Empty(t, f.provider.callsWith(testPrompts.Chat))
}

func TestNewEngineDefaults(t *testing.T) {
	e := NewEngine(&KeywordClassifier{}, nil, &fakeRetriever{}, nil, fakeRunbooks{}, testPrompts, Options{})
	assert.Equal(t, retrieval.DefaultTopK, e.opts.TopK)
	assert.InDelta(t, retrieval.DefaultMinSimilarity, e.opts.MinSimilarity, 1e-9)
}

func TestEngineGeneralAnswer(t *testing.T) {
	f := newFixture(settlementHits...)
	f.provider.replies[testPrompts.Chat] = "Portfolio Analyzer measures risk."

	res, err := f.engine.Answer(context.Background(), "What is Portfolio Analyzer?", nil, State{})
	require.NoError(t, err)
	assert.Equal(t, "Portfolio Analyzer measures risk.", res.Answer)
	assert.Equal(t, []string{"00_glossary", "01_SAP_TRM_Operational_Procedures"}, res.Sources)
	assert.False(t, res.IsRunbook)
	assert.Equal(t, []string{"What is Portfolio Analyzer?"}, f.retriever.queries)
}

func TestEngineConfirmedRunbookRequestIsAnswered(t *testing.T) {
	f := newFixture(settlementHits...)
	f.provider.replies[testPrompts.Runbook] = "## 📋 Runbook"

	res, err := f.engine.Answer(context.Background(), "yes show me the runbook", nil, State{})
	require.NoError(t, err)
	assert.Equal(t, "## 📋 Runbook", res.Answer)
	assert.True(t, res.IsRunbook)
	assert.Equal(t, "operational", res.RunbookType, "inferred from sources")
}

func TestEngineFullRunbook(t *testing.T) {
	f := newFixture()
	history := turns("user", "incident steps please",
		"assistant", "Would you like me to retrieve the SAP TRM Incident Response runbook?")

	res, err := f.engine.Answer(context.Background(), "yes", history, State{})
	require.NoError(t, err)
	assert.True(t, res.IsRunbook)
	assert.Equal(t, "incident", res.RunbookType)
	assert.Equal(t, []string{LocalRunbookSource}, res.Sources)
	assert.Contains(t, res.Answer, "# 📘 SAP TRM Incident Response")
	assert.Contains(t, res.Answer, "incident runbook body")
	assert.Contains(t, res.Answer, "`runbooks/incident.md`")
	assert.Empty(t, f.provider.calls)
	assert.Empty(t, f.retriever.queries)
}

func TestEngineFullRunbookNotFound(t *testing.T) {
	f := newFixture()
	res, err := f.engine.Answer(context.Background(), "ok", nil, State{Phase: PhaseAwaitingRunbook, PendingRunbook: "deployment"})
	require.NoError(t, err)
	assert.Contains(t, res.Answer, "I couldn't find")
	assert.Equal(t, "deployment", res.RunbookType)
}

func TestEngineErrors(t *testing.T) {
	boom := errors.New("vector store unavailable")
	f := newFixture()
	f.retriever.err = boom
	_, err := f.engine.Answer(context.Background(), "What is TRM?", nil, State{})
	assert.ErrorIs(t, err, boom)

	f = newFixture(settlementHits...)
	f.provider.errs[testPrompts.Chat] = boom
	_, err = f.engine.Answer(context.Background(), "What is TRM?", nil, State{})
	assert.ErrorIs(t, err, boom)

	f = newFixture(settlementHits...)
	f.provider.errs[testPrompts.PortionExtract] = boom
	_, err = f.engine.Answer(context.Background(), "yes", nil, State{Phase: PhaseAwaitingPortion, PendingQuery: "How do I settle?"})
	assert.ErrorIs(t, err, boom)
}

func TestEngineHistoryWindow(t *testing.T) {
	f := newFixture(settlementHits...)
	var history []Turn
	for i := 0; i < 20; i++ {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		history = append(history, Turn{Role: role, Content: fmt.Sprintf("turn %d", i)})
	}

	_, err := f.engine.Answer(context.Background(), "What is Portfolio Analyzer?", history, State{})
	require.NoError(t, err)

	chat := f.provider.callsWith(testPrompts.Chat)
	require.Len(t, chat, 1)
	msgs := chat[0].Messages
	require.Len(t, msgs, 1+15+1)
	assert.Equal(t, "turn 5", msgs[1].Content)
	assert.Equal(t, "turn 19", msgs[15].Content)
	assert.Len(t, history, 20, "history is not modified")
}
