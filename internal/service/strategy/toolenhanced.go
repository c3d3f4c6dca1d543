package strategy

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/dkarki/twinfolio/internal/model/conv"
	"github.com/dkarki/twinfolio/internal/service/completion"
	"github.com/dkarki/twinfolio/internal/service/search"
	"github.com/dkarki/twinfolio/internal/service/tools"
)

// ToolEnhanced performs one background search, lets the orchestrator call
// live external tools, and synthesizes across both.
type ToolEnhanced struct {
	searcher     search.Port
	completer    Completer
	prompts      *completion.PromptBuilder
	orchestrator *tools.Orchestrator
	threshold    float64
	topK         int
	logger       *zap.Logger
}

func NewToolEnhanced(searcher search.Port, completer Completer, prompts *completion.PromptBuilder, orchestrator *tools.Orchestrator, threshold float64, topK int, logger *zap.Logger) *ToolEnhanced {
	return &ToolEnhanced{
		searcher:     searcher,
		completer:    completer,
		prompts:      prompts,
		orchestrator: orchestrator,
		threshold:    threshold,
		topK:         topK,
		logger:       logger.Named("toolenhanced"),
	}
}

func (t *ToolEnhanced) Name() conv.StrategyName { return conv.StrategyToolEnhanced }

func (t *ToolEnhanced) Execute(ctx context.Context, query string, pc Context) (conv.Answer, error) {
	var findings []string

	// Background context is best-effort; tool output alone can carry the
	// answer when retrieval is down.
	if t.searcher != nil {
		if results, err := t.searcher.Search(ctx, query, t.topK); err == nil {
			for _, r := range trusted(results, t.threshold) {
				findings = append(findings, search.BestText(r))
			}
		} else {
			t.logger.Debug("background search unavailable", zap.Error(err))
		}
	}

	outputs, reasoning := t.orchestrator.Run(ctx, query)
	for name, out := range outputs {
		findings = append(findings, fmt.Sprintf("[%s] %s", name, out))
	}

	if len(findings) == 0 {
		return conv.Answer{}, ErrNoGroundedAnswer
	}

	response, err := t.completer.Complete(ctx, t.prompts.Synthesis(findings), query, pc.History)
	if err != nil {
		return conv.Answer{}, err
	}

	meta := baseMetadata(t.Name())
	meta["toolsUsed"] = len(outputs)
	meta["toolReasoning"] = reasoning
	return conv.Answer{Response: response, Metadata: meta}, nil
}
