package strategy_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dkarki/twinfolio/internal/model/conv"
	"github.com/dkarki/twinfolio/internal/service/completion"
	"github.com/dkarki/twinfolio/internal/service/search"
	"github.com/dkarki/twinfolio/internal/service/strategy"
)

// fakePort records queries under a lock because hybrid fans legs out on
// separate goroutines.
type fakePort struct {
	mu      sync.Mutex
	results []conv.SearchResult
	err     error
	queries []string
}

func (f *fakePort) Search(_ context.Context, query string, _ int) ([]conv.SearchResult, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

// scriptedCompleter returns canned outputs: fast calls pop from fastOuts,
// full completions always return answer.
type scriptedCompleter struct {
	answer   string
	fastOuts []string
	fastErr  error
}

func (s *scriptedCompleter) Complete(context.Context, string, string, []conv.Turn) (string, error) {
	return s.answer, nil
}

func (s *scriptedCompleter) CompleteFast(context.Context, string, string) (string, error) {
	if s.fastErr != nil {
		return "", s.fastErr
	}
	if len(s.fastOuts) == 0 {
		return "", errors.New("no scripted output")
	}
	out := s.fastOuts[0]
	s.fastOuts = s.fastOuts[1:]
	return out, nil
}

var prompts = completion.NewPromptBuilder("Dipesh")

func scored(score float64, text string) conv.SearchResult {
	return conv.SearchResult{Score: score, Text: text}
}

func TestStandardSearchesAndGrounds(t *testing.T) {
	port := &fakePort{results: []conv.SearchResult{scored(0.9, "I work at Aubot.")}}
	completer := &scriptedCompleter{answer: "I work at Aubot on education robotics.", fastOuts: []string{"SEARCH"}}
	s := strategy.NewStandardAgentic(port, completer, prompts, 0.5, 5, zap.NewNop())

	answer, err := s.Execute(context.Background(), "where do you work", strategy.Context{})
	require.NoError(t, err)
	assert.Equal(t, "I work at Aubot on education robotics.", answer.Response)
	assert.Equal(t, string(conv.StrategyStandardAgentic), answer.Metadata["ragPattern"])
	assert.Equal(t, "SEARCH", answer.Metadata["agenticDecision"])
}

func TestStandardBelowThresholdHasNoAnswer(t *testing.T) {
	port := &fakePort{results: []conv.SearchResult{scored(0.3, "weak match")}}
	completer := &scriptedCompleter{answer: "unused", fastOuts: []string{"SEARCH"}}
	s := strategy.NewStandardAgentic(port, completer, prompts, 0.5, 5, zap.NewNop())

	_, err := s.Execute(context.Background(), "obscure question", strategy.Context{})
	assert.ErrorIs(t, err, strategy.ErrNoGroundedAnswer)
}

func TestStandardDecisionParseFailureDefaultsToSearch(t *testing.T) {
	port := &fakePort{results: []conv.SearchResult{scored(0.9, "fact")}}
	completer := &scriptedCompleter{answer: "grounded", fastErr: errors.New("model down")}
	s := strategy.NewStandardAgentic(port, completer, prompts, 0.5, 5, zap.NewNop())

	answer, err := s.Execute(context.Background(), "question", strategy.Context{})
	require.NoError(t, err)
	assert.Equal(t, "SEARCH", answer.Metadata["agenticDecision"])
}

func TestStandardDirect(t *testing.T) {
	port := &fakePort{err: errors.New("must not be called")}
	completer := &scriptedCompleter{answer: "direct answer", fastOuts: []string{"DIRECT"}}
	s := strategy.NewStandardAgentic(port, completer, prompts, 0.5, 5, zap.NewNop())

	answer, err := s.Execute(context.Background(), "thanks!", strategy.Context{})
	require.NoError(t, err)
	assert.Equal(t, "direct answer", answer.Response)
	assert.Empty(t, port.queries)
}

func TestStandardReturnsCuratedAnswerVerbatim(t *testing.T) {
	port := &fakePort{results: []conv.SearchResult{{
		Score:    0.9,
		Text:     "profile chunk",
		Metadata: map[string]string{"answer": "I built the education robots at Aubot."},
	}}}
	completer := &scriptedCompleter{answer: "a paraphrase that must not be used", fastOuts: []string{"SEARCH"}}
	s := strategy.NewStandardAgentic(port, completer, prompts, 0.5, 5, zap.NewNop())

	answer, err := s.Execute(context.Background(), "what did you build at aubot", strategy.Context{})
	require.NoError(t, err)
	assert.Equal(t, "I built the education robots at Aubot.", answer.Response)
	assert.Equal(t, true, answer.Metadata["curated"])
}

func TestMultiHopStopsWhenNothingAboveThreshold(t *testing.T) {
	port := &fakePort{results: []conv.SearchResult{scored(0.2, "weak")}}
	completer := &scriptedCompleter{answer: "unused"}
	m := strategy.NewMultiHop(port, completer, prompts, 0.5, 5, zap.NewNop())

	_, err := m.Execute(context.Background(), "broad question", strategy.Context{})
	assert.ErrorIs(t, err, strategy.ErrNoGroundedAnswer)
	assert.Len(t, port.queries, 1)
}

func TestMultiHopFollowsDerivedQueries(t *testing.T) {
	port := &fakePort{results: []conv.SearchResult{scored(0.9, "I used Python at Aubot.")}}
	completer := &scriptedCompleter{
		answer:   "synthesized answer",
		fastOuts: []string{"what did python enable", "NONE"},
	}
	m := strategy.NewMultiHop(port, completer, prompts, 0.5, 5, zap.NewNop())

	answer, err := m.Execute(context.Background(), "tell me about your python work", strategy.Context{})
	require.NoError(t, err)
	assert.Equal(t, "synthesized answer", answer.Response)
	hops, _ := answer.Metadata["hops"].(int)
	assert.GreaterOrEqual(t, hops, 1)
	assert.LessOrEqual(t, hops, 3)
}

func TestMultiHopStopsWithoutNewQuery(t *testing.T) {
	// A trusted but low-scoring hit with no derivable next query must end
	// the chain instead of re-running the identical search.
	port := &fakePort{results: []conv.SearchResult{scored(0.55, "One narrow fact.")}}
	completer := &scriptedCompleter{answer: "synthesized", fastOuts: []string{"NONE"}}
	m := strategy.NewMultiHop(port, completer, prompts, 0.5, 5, zap.NewNop())

	answer, err := m.Execute(context.Background(), "niche question", strategy.Context{})
	require.NoError(t, err)
	assert.Len(t, port.queries, 1)
	assert.Equal(t, 1, answer.Metadata["hops"])
}

func TestMultiHopStopsOnRepeatedQuery(t *testing.T) {
	port := &fakePort{results: []conv.SearchResult{scored(0.55, "One narrow fact.")}}
	completer := &scriptedCompleter{answer: "synthesized", fastOuts: []string{"niche question"}}
	m := strategy.NewMultiHop(port, completer, prompts, 0.5, 5, zap.NewNop())

	_, err := m.Execute(context.Background(), "niche question", strategy.Context{})
	require.NoError(t, err)
	assert.Len(t, port.queries, 1)
}

func TestHybridFusesWithoutCompletion(t *testing.T) {
	vector := &fakePort{results: []conv.SearchResult{scored(0.9, "React front-end work")}}
	keyword := search.NewKeywordScorer([]string{"React front-end work", "Python scripts"})
	h := strategy.NewHybridSearch(vector, keyword, 0.5, 5, search.FusionRRF, zap.NewNop())

	answer, err := h.Execute(context.Background(), "compare react and python", strategy.Context{
		Enhanced: conv.EnhancedQuery{Entities: []string{"react", "python"}},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, answer.Response)
	assert.Equal(t, string(conv.StrategyHybridSearch), answer.Metadata["ragPattern"])
	fused, _ := answer.Metadata["fusedPassages"].(int)
	assert.LessOrEqual(t, fused, 3)
}

func TestHybridSurvivesOneFailedLeg(t *testing.T) {
	vector := &fakePort{err: errors.New("backend down")}
	keyword := search.NewKeywordScorer([]string{"React front-end work"})
	h := strategy.NewHybridSearch(vector, keyword, 0.5, 5, search.FusionRRF, zap.NewNop())

	answer, err := h.Execute(context.Background(), "react", strategy.Context{})
	require.NoError(t, err)
	assert.Contains(t, answer.Response, "React")
}

func TestHybridWeightedFusion(t *testing.T) {
	vector := &fakePort{results: []conv.SearchResult{scored(0.9, "React front-end work")}}
	keyword := search.NewKeywordScorer([]string{"React front-end work"})
	h := strategy.NewHybridSearch(vector, keyword, 0.5, 5, search.FusionWeighted, zap.NewNop())

	answer, err := h.Execute(context.Background(), "react experience", strategy.Context{})
	require.NoError(t, err)
	assert.Contains(t, answer.Response, "React")
	assert.Equal(t, search.FusionWeighted, answer.Metadata["fusionMethod"])
}
