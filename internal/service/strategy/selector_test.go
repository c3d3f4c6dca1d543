package strategy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dkarki/twinfolio/internal/model/conv"
	"github.com/dkarki/twinfolio/internal/service/strategy"
)

func TestSelectToolVocabularyWinsOverEverything(t *testing.T) {
	// Even with strong multi-hop and comparison signals present, an
	// external-data keyword must force tool selection.
	in := strategy.SelectorInput{
		Query: "compare and also tell me everything about your github repositories",
		Enhanced: conv.EnhancedQuery{
			IsFollowUp: true,
			Confidence: 0.9,
			Entities:   []string{"python", "java", "react", "go"},
		},
		Stats: conv.Stats{TopTopics: []string{"python", "java", "react", "go"}},
	}

	decision := strategy.Select(in)
	assert.Equal(t, conv.StrategyToolEnhanced, decision.Strategy)
}

func TestSelectRepositoriesQuery(t *testing.T) {
	decision := strategy.Select(strategy.SelectorInput{
		Query: "Tell me about your GitHub repositories",
	})
	assert.Equal(t, conv.StrategyToolEnhanced, decision.Strategy)
}

func TestSelectMultiPart(t *testing.T) {
	cases := []string{
		"what do you do and also where did you study",
		"give me a comprehensive overview of your career",
		"everything about your background please",
	}
	for _, query := range cases {
		decision := strategy.Select(strategy.SelectorInput{Query: query})
		assert.Equal(t, conv.StrategyMultiHop, decision.Strategy, "query=%q", query)
	}
}

func TestSelectEntityRichTellMeAbout(t *testing.T) {
	decision := strategy.Select(strategy.SelectorInput{
		Query: "tell me about your backend work",
		Enhanced: conv.EnhancedQuery{
			Entities: []string{"python", "java", "go"},
		},
	})
	assert.Equal(t, conv.StrategyMultiHop, decision.Strategy)
}

func TestSelectComparison(t *testing.T) {
	decision := strategy.Select(strategy.SelectorInput{
		Query: "compare your frontend and backend experience",
	})
	assert.Equal(t, conv.StrategyHybridSearch, decision.Strategy)
}

func TestSelectDeepContextFollowUp(t *testing.T) {
	decision := strategy.Select(strategy.SelectorInput{
		Query: "how did that shape your approach",
		Enhanced: conv.EnhancedQuery{
			IsFollowUp: true,
			Confidence: 0.85,
		},
		Stats: conv.Stats{TopTopics: []string{"python", "java", "react", "vr"}},
	})
	assert.Equal(t, conv.StrategyAdvancedAgentic, decision.Strategy)
}

func TestSelectDefault(t *testing.T) {
	decision := strategy.Select(strategy.SelectorInput{Query: "where do you live"})
	assert.Equal(t, conv.StrategyStandardAgentic, decision.Strategy)
}

func TestSelectDeterministic(t *testing.T) {
	in := strategy.SelectorInput{Query: "compare python and java"}
	first := strategy.Select(in)
	second := strategy.Select(in)
	assert.Equal(t, first, second)
}

func TestSelectUsesEnhancedQueryForSearch(t *testing.T) {
	decision := strategy.Select(strategy.SelectorInput{
		Query:    "tell me more",
		Enhanced: conv.EnhancedQuery{Enhanced: "tell me more react"},
	})
	assert.Equal(t, "tell me more react", decision.SearchQuery)
}
