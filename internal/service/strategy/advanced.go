package strategy

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/dkarki/twinfolio/internal/model/conv"
	"github.com/dkarki/twinfolio/internal/service/completion"
	"github.com/dkarki/twinfolio/internal/service/search"
)

const maxPlannedSteps = 3

// AdvancedAgentic plans up to three sub-steps for a context-rich query and
// tracks running confidence across them. Reserved for deep conversations
// where the extra latency is justified.
type AdvancedAgentic struct {
	searcher  search.Port
	completer Completer
	prompts   *completion.PromptBuilder
	threshold float64
	topK      int
	logger    *zap.Logger
}

func NewAdvancedAgentic(searcher search.Port, completer Completer, prompts *completion.PromptBuilder, threshold float64, topK int, logger *zap.Logger) *AdvancedAgentic {
	return &AdvancedAgentic{
		searcher:  searcher,
		completer: completer,
		prompts:   prompts,
		threshold: threshold,
		topK:      topK,
		logger:    logger.Named("advanced"),
	}
}

func (a *AdvancedAgentic) Name() conv.StrategyName { return conv.StrategyAdvancedAgentic }

func (a *AdvancedAgentic) Execute(ctx context.Context, query string, pc Context) (conv.Answer, error) {
	steps := a.plan(ctx, query, pc)

	var findings []string
	confidence := pc.Enhanced.Confidence
	executed := 0

	for _, step := range steps {
		results, err := a.searcher.Search(ctx, step, a.topK)
		if err != nil {
			a.logger.Debug("planned step failed", zap.String("step", step), zap.Error(err))
			confidence *= 0.8
			continue
		}
		kept := trusted(results, a.threshold)
		if len(kept) == 0 {
			confidence *= 0.8
			continue
		}
		findings = append(findings, search.BestText(kept[0]))
		confidence = (confidence + kept[0].Score) / 2
		executed++
	}

	if len(findings) == 0 {
		return conv.Answer{}, ErrNoGroundedAnswer
	}

	response, err := a.completer.Complete(ctx, a.prompts.Synthesis(findings), query, pc.History)
	if err != nil {
		return conv.Answer{}, err
	}

	meta := baseMetadata(a.Name())
	meta["plannedSteps"] = len(steps)
	meta["executedSteps"] = executed
	meta["confidence"] = confidence
	return conv.Answer{Response: response, Metadata: meta}, nil
}

// plan derives up to three focused sub-queries. The model is asked for one
// per line; a failure falls back to the query itself.
func (a *AdvancedAgentic) plan(ctx context.Context, query string, pc Context) []string {
	instruction := fmt.Sprintf(
		"Break this question about a developer's background into at most %d focused search queries, one per line, no numbering. Known conversation topics: %s.",
		maxPlannedSteps, strings.Join(pc.Stats.TopTopics, ", "))

	out, err := a.completer.CompleteFast(ctx, instruction, query)
	if err != nil {
		return []string{query}
	}

	var steps []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "-*0123456789. "))
		if line == "" {
			continue
		}
		steps = append(steps, line)
		if len(steps) == maxPlannedSteps {
			break
		}
	}
	if len(steps) == 0 {
		return []string{query}
	}
	return steps
}
