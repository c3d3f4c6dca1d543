package strategy

import (
	"context"
	"errors"

	"github.com/dkarki/twinfolio/internal/model/conv"
)

// ErrNoGroundedAnswer signals that a strategy found nothing trustworthy;
// the caller advances the fallback ladder instead of surfacing an error.
var ErrNoGroundedAnswer = errors.New("no grounded answer available")

// Completer is the slice of the completion service that executors need.
type Completer interface {
	Complete(ctx context.Context, system, query string, history []conv.Turn) (string, error)
	CompleteFast(ctx context.Context, system, query string) (string, error)
}

// Context carries per-turn state into an executor.
type Context struct {
	SessionID string
	Enhanced  conv.EnhancedQuery
	Stats     conv.Stats
	History   []conv.Turn
}

// Strategy is one interchangeable answer-generation algorithm.
type Strategy interface {
	Name() conv.StrategyName
	Execute(ctx context.Context, query string, pc Context) (conv.Answer, error)
}

func baseMetadata(name conv.StrategyName) map[string]any {
	return map[string]any{
		"ragPattern":   string(name),
		"fallbackUsed": false,
	}
}

// trusted filters a ranked list down to results at or above the threshold.
func trusted(results []conv.SearchResult, threshold float64) []conv.SearchResult {
	var kept []conv.SearchResult
	for _, r := range results {
		if r.Score >= threshold {
			kept = append(kept, r)
		}
	}
	return kept
}
