package strategy

import (
	"regexp"
	"strings"

	"github.com/dkarki/twinfolio/internal/model/conv"
)

// toolVocabulary matches queries that need live external data no static
// knowledge base holds. It is checked before every other rule.
var toolVocabulary = regexp.MustCompile(`(?i)\b(github|repository|repositories|repos|code|projects|commits|linkedin|work history|currency|exchange rate)\b`)

var comparisonPattern = regexp.MustCompile(`(?i)\b(compare|versus|vs|different types of)\b`)

// SelectorInput is everything a selection decision may consult.
type SelectorInput struct {
	Query    string
	Enhanced conv.EnhancedQuery
	Stats    conv.Stats
}

type rule struct {
	name      string
	predicate func(SelectorInput) bool
	strategy  conv.StrategyName
	reasoning string
}

// rules is evaluated top-down; first match wins. Order matters because
// later predicates are broader than earlier ones.
var rules = []rule{
	{
		name: "tool_vocabulary",
		predicate: func(in SelectorInput) bool {
			return toolVocabulary.MatchString(in.Query)
		},
		strategy:  conv.StrategyToolEnhanced,
		reasoning: "query references external data sources",
	},
	{
		name: "multi_part",
		predicate: func(in SelectorInput) bool {
			lower := strings.ToLower(in.Query)
			if strings.Contains(lower, "and also") ||
				strings.Contains(lower, "comprehensive") ||
				strings.Contains(lower, "everything about") {
				return true
			}
			return len(in.Enhanced.Entities) > 2 && strings.Contains(lower, "tell me about")
		},
		strategy:  conv.StrategyMultiHop,
		reasoning: "query spans multiple parts or a broad scope",
	},
	{
		name: "comparison",
		predicate: func(in SelectorInput) bool {
			return comparisonPattern.MatchString(in.Query) || len(in.Enhanced.Entities) > 3
		},
		strategy:  conv.StrategyHybridSearch,
		reasoning: "query compares topics or carries many entities",
	},
	{
		name: "deep_context",
		predicate: func(in SelectorInput) bool {
			return in.Enhanced.IsFollowUp && in.Enhanced.Confidence > 0.8 && len(in.Stats.TopTopics) > 3
		},
		strategy:  conv.StrategyAdvancedAgentic,
		reasoning: "context-rich follow-up in a deep conversation",
	},
	{
		name:      "default",
		predicate: func(SelectorInput) bool { return true },
		strategy:  conv.StrategyStandardAgentic,
		reasoning: "default baseline strategy",
	},
}

// Select is pure and deterministic: same input, same decision.
func Select(in SelectorInput) conv.StrategyDecision {
	searchQuery := in.Enhanced.Enhanced
	if searchQuery == "" {
		searchQuery = in.Query
	}

	for _, r := range rules {
		if r.predicate(in) {
			return conv.StrategyDecision{
				Strategy:    r.strategy,
				SearchQuery: searchQuery,
				Reasoning:   r.reasoning,
			}
		}
	}

	// Unreachable: the last rule always matches.
	return conv.StrategyDecision{Strategy: conv.StrategyStandardAgentic, SearchQuery: searchQuery}
}
