package pipeline

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/dkarki/twinfolio/internal/model/conv"
	"github.com/dkarki/twinfolio/internal/service/strategy"
)

// levelResult wraps one fallback attempt so the ladder can be iterated
// without nested error handling.
type levelResult struct {
	answer conv.Answer
	err    error
}

func (r levelResult) ok() bool { return r.err == nil }

// fallbackLevel is one rung of the ladder, tried in order.
type fallbackLevel struct {
	name string
	run  func(ctx context.Context, query string, pc strategy.Context) levelResult
}

// ladder builds the ordered fallback chain for one selected strategy.
func (s *Service) ladder(selected strategy.Strategy) []fallbackLevel {
	return []fallbackLevel{
		{
			name: "strategy",
			run: func(ctx context.Context, query string, pc strategy.Context) levelResult {
				if selected == nil {
					return levelResult{err: errors.New("no strategy available")}
				}
				answer, err := selected.Execute(ctx, query, pc)
				return levelResult{answer: answer, err: err}
			},
		},
		{
			name: "keyword_store",
			run:  s.keywordLevel,
		},
		{
			name: "canned",
			run: func(_ context.Context, query string, _ strategy.Context) levelResult {
				if bucket := matchCanned(query); bucket != nil {
					return levelResult{answer: conv.Answer{
						Response: bucket.answer,
						Metadata: map[string]any{
							"ragPattern":   string(conv.StrategyTemplate),
							"fallbackUsed": true,
							"bucket":       bucket.name,
						},
					}}
				}
				return levelResult{err: errors.New("no canned bucket matched")}
			},
		},
		{
			name: "generic",
			run: func(context.Context, string, strategy.Context) levelResult {
				return levelResult{answer: conv.Answer{
					Response: genericAnswer,
					Metadata: map[string]any{
						"ragPattern":   string(conv.StrategyTemplate),
						"fallbackUsed": true,
						"bucket":       "generic",
					},
				}}
			},
		},
	}
}

// keywordLevel is the relational-store fallback: exact keyword match first,
// then widened substring matching inside the store.
func (s *Service) keywordLevel(ctx context.Context, query string, _ strategy.Context) levelResult {
	if s.logStore == nil {
		return levelResult{err: errors.New("log store not configured")}
	}

	entry, err := s.logStore.KeywordMatch(ctx, query)
	if err != nil {
		return levelResult{err: err}
	}
	return levelResult{answer: conv.Answer{
		Response: entry.Answer,
		Metadata: map[string]any{
			"ragPattern":   string(conv.StrategyTemplate),
			"fallbackUsed": true,
			"matchedKey":   entry.Keyword,
		},
	}}
}

// runLadder tries each level in order; the generic terminal level always
// succeeds, so a zero answer can never escape.
func (s *Service) runLadder(ctx context.Context, query string, pc strategy.Context, selected strategy.Strategy) (conv.Answer, string) {
	var reason string
	for i, level := range s.ladder(selected) {
		result := level.run(ctx, query, pc)
		if result.ok() {
			if i > 0 {
				result.answer.Metadata["fallbackUsed"] = true
				result.answer.Metadata["fallbackReason"] = reason
				result.answer.Metadata["fallbackLevel"] = i
			}
			return result.answer, level.name
		}
		if reason == "" {
			reason = result.err.Error()
		}
		s.logger.Info("fallback level failed",
			zap.String("level", level.name),
			zap.Error(result.err))
	}

	// Unreachable: the generic level never fails.
	return conv.Answer{Response: genericAnswer, Metadata: map[string]any{
		"ragPattern":   string(conv.StrategyTemplate),
		"fallbackUsed": true,
	}}, "generic"
}
