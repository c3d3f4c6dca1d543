package strategy

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/dkarki/twinfolio/internal/model/conv"
	"github.com/dkarki/twinfolio/internal/service/completion"
	"github.com/dkarki/twinfolio/internal/service/search"
)

// StandardAgentic makes one SEARCH/DIRECT/CLARIFY decision and acts on it.
// It is also the fallback target for every other strategy's failure.
type StandardAgentic struct {
	searcher  search.Port
	completer Completer
	prompts   *completion.PromptBuilder
	threshold float64
	topK      int
	logger    *zap.Logger
}

func NewStandardAgentic(searcher search.Port, completer Completer, prompts *completion.PromptBuilder, threshold float64, topK int, logger *zap.Logger) *StandardAgentic {
	return &StandardAgentic{
		searcher:  searcher,
		completer: completer,
		prompts:   prompts,
		threshold: threshold,
		topK:      topK,
		logger:    logger.Named("standard"),
	}
}

func (s *StandardAgentic) Name() conv.StrategyName { return conv.StrategyStandardAgentic }

func (s *StandardAgentic) Execute(ctx context.Context, query string, pc Context) (conv.Answer, error) {
	decision := s.decide(ctx, query)
	meta := baseMetadata(s.Name())
	meta["agenticDecision"] = decision

	switch decision {
	case "DIRECT":
		response, err := s.completer.Complete(ctx, s.prompts.DirectAnswer(), query, pc.History)
		if err != nil {
			return conv.Answer{}, err
		}
		return conv.Answer{Response: response, Metadata: meta}, nil

	case "CLARIFY":
		response, err := s.completer.Complete(ctx, s.prompts.Clarify(), query, pc.History)
		if err != nil {
			return conv.Answer{}, err
		}
		return conv.Answer{Response: response, Metadata: meta}, nil

	default: // SEARCH
		results, err := s.searcher.Search(ctx, query, s.topK)
		if err != nil {
			return conv.Answer{}, err
		}
		kept := trusted(results, s.threshold)
		if len(kept) == 0 {
			return conv.Answer{}, ErrNoGroundedAnswer
		}
		meta["sources"] = len(kept)
		meta["topScore"] = kept[0].Score

		// A curated answer on the top passage goes out verbatim; the model
		// only paraphrases when no curated text exists.
		if answer, ok := curatedAnswer(kept[0]); ok {
			meta["curated"] = true
			return conv.Answer{Response: answer, Metadata: meta}, nil
		}

		response, err := s.completer.Complete(ctx, s.prompts.GroundedAnswer(kept), query, pc.History)
		if err != nil {
			return conv.Answer{}, err
		}
		return conv.Answer{Response: response, Metadata: meta}, nil
	}
}

func curatedAnswer(r conv.SearchResult) (string, bool) {
	answer := strings.TrimSpace(r.Metadata["answer"])
	return answer, answer != ""
}

// decide asks the fast model whether to search, answer directly, or ask for
// clarification. Any parse failure recovers to SEARCH.
func (s *StandardAgentic) decide(ctx context.Context, query string) string {
	out, err := s.completer.CompleteFast(ctx,
		"Decide how to answer a question about a developer's professional background. "+
			"Reply with exactly one word: SEARCH if the knowledge base should be consulted, "+
			"DIRECT if the conversation alone suffices, CLARIFY if the question is too ambiguous.",
		query)
	if err != nil {
		s.logger.Debug("decision call failed, defaulting to SEARCH", zap.Error(err))
		return "SEARCH"
	}

	upper := strings.ToUpper(strings.TrimSpace(out))
	for _, d := range []string{"DIRECT", "CLARIFY", "SEARCH"} {
		if strings.Contains(upper, d) {
			return d
		}
	}
	return "SEARCH"
}
