package strategy

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/dkarki/twinfolio/internal/model/conv"
	"github.com/dkarki/twinfolio/internal/service/completion"
	"github.com/dkarki/twinfolio/internal/service/search"
)

const (
	maxHops = 3
	// lowConfidenceHop reserves the final hop for chains whose best score
	// is still below it.
	lowConfidenceHop = 0.6
)

// MultiHop searches iteratively: each hop's query is derived from the
// previous hop's top result, and the final answer synthesizes across all
// hop findings. Strictly sequential by construction.
type MultiHop struct {
	searcher  search.Port
	completer Completer
	prompts   *completion.PromptBuilder
	threshold float64
	topK      int
	logger    *zap.Logger
}

func NewMultiHop(searcher search.Port, completer Completer, prompts *completion.PromptBuilder, threshold float64, topK int, logger *zap.Logger) *MultiHop {
	return &MultiHop{
		searcher:  searcher,
		completer: completer,
		prompts:   prompts,
		threshold: threshold,
		topK:      topK,
		logger:    logger.Named("multihop"),
	}
}

func (m *MultiHop) Name() conv.StrategyName { return conv.StrategyMultiHop }

func (m *MultiHop) Execute(ctx context.Context, query string, pc Context) (conv.Answer, error) {
	var findings []string
	hopQuery := query
	hops := 0
	bestScore := 0.0

	for hops < maxHops {
		results, err := m.searcher.Search(ctx, hopQuery, m.topK)
		if err != nil {
			if hops == 0 {
				return conv.Answer{}, err
			}
			break
		}
		kept := trusted(results, m.threshold)
		if len(kept) == 0 {
			break
		}

		top := kept[0]
		findings = append(findings, search.BestText(top))
		if top.Score > bestScore {
			bestScore = top.Score
		}
		hops++

		next := m.nextHopQuery(ctx, query, search.BestText(top))
		if next == "" || next == hopQuery {
			// No new query to chase; re-running the same search would only
			// duplicate the last finding.
			break
		}
		if hops >= maxHops-1 && bestScore >= lowConfidenceHop {
			break
		}
		hopQuery = next
	}

	if len(findings) == 0 {
		return conv.Answer{}, ErrNoGroundedAnswer
	}

	response, err := m.completer.Complete(ctx, m.prompts.Synthesis(findings), query, pc.History)
	if err != nil {
		return conv.Answer{}, err
	}

	meta := baseMetadata(m.Name())
	meta["hops"] = hops
	meta["topScore"] = bestScore
	return conv.Answer{Response: response, Metadata: meta}, nil
}

// nextHopQuery asks the fast model for a follow-up search derived from the
// previous hop's best passage. An empty string ends the chain.
func (m *MultiHop) nextHopQuery(ctx context.Context, original, finding string) string {
	out, err := m.completer.CompleteFast(ctx,
		"Given an original question and one retrieved fact, produce the next short search query that fills in what is still missing. Reply with the query only, or NONE if the fact already answers the question.",
		"Question: "+original+"\nFact: "+finding)
	if err != nil {
		m.logger.Debug("hop derivation failed", zap.Error(err))
		return ""
	}

	out = strings.TrimSpace(strings.Trim(out, "\"'"))
	if out == "" || strings.EqualFold(out, "NONE") {
		return ""
	}
	return out
}
