package conv

// EnhancedQuery is derived fresh per turn from session history and embedded
// into the assistant turn's metadata.
type EnhancedQuery struct {
	Raw        string   `json:"raw"`
	Enhanced   string   `json:"enhanced"`
	IsFollowUp bool     `json:"isFollowUp"`
	Entities   []string `json:"entities"`
	Intent     string   `json:"intent"`
	Confidence float64  `json:"confidence"`
}

// StrategyName enumerates the retrieval-and-generation strategies.
type StrategyName string

const (
	StrategyStandardAgentic StrategyName = "standard_agentic"
	StrategyAdvancedAgentic StrategyName = "advanced_agentic"
	StrategyMultiHop        StrategyName = "multi_hop"
	StrategyHybridSearch    StrategyName = "hybrid_search"
	StrategyToolEnhanced    StrategyName = "tool_enhanced"

	// Metadata-only patterns for non-retrieval paths.
	StrategyTemplate      StrategyName = "template_response"
	StrategySpecialAction StrategyName = "special_action"
)

// StrategyDecision is computed per turn and not persisted beyond the
// response metadata.
type StrategyDecision struct {
	Strategy    StrategyName `json:"strategy"`
	SearchQuery string       `json:"searchQuery"`
	Reasoning   string       `json:"reasoning"`
}

// SearchResult is one ranked passage from the knowledge search port.
type SearchResult struct {
	Score    float64           `json:"score"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Answer is the common executor result: response text plus explainable
// metadata (ragPattern, fallbackUsed, confidence, sources).
type Answer struct {
	Response string         `json:"response"`
	Metadata map[string]any `json:"metadata"`
}
