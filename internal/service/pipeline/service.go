package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dkarki/twinfolio/internal/analytics"
	"github.com/dkarki/twinfolio/internal/model/conv"
	"github.com/dkarki/twinfolio/internal/service/action"
	"github.com/dkarki/twinfolio/internal/service/language"
	"github.com/dkarki/twinfolio/internal/service/memory"
	"github.com/dkarki/twinfolio/internal/service/strategy"
	"github.com/dkarki/twinfolio/internal/storage/logstore"
)

// Request is the single entry point's input.
type Request struct {
	Message      string
	SessionID    string
	LanguageHint string
	User         *action.User
}

// Response pairs the answer text with explainable metadata. Metadata always
// names the strategy that actually produced the text.
type Response struct {
	Response  string         `json:"response"`
	SessionID string         `json:"sessionId"`
	Metadata  map[string]any `json:"metadata"`
}

// Service composes detection, language handling, memory, selection,
// execution and the fallback ladder into one per-turn contract.
type Service struct {
	memory     *memory.Service
	lang       *language.Service
	detector   *action.Detector
	strategies map[conv.StrategyName]strategy.Strategy
	standard   strategy.Strategy
	logStore   *logstore.Store
	recorder   *analytics.Recorder
	logger     *zap.Logger
}

func NewService(
	mem *memory.Service,
	lang *language.Service,
	detector *action.Detector,
	strategies []strategy.Strategy,
	logStore *logstore.Store,
	recorder *analytics.Recorder,
	logger *zap.Logger,
) *Service {
	byName := make(map[conv.StrategyName]strategy.Strategy, len(strategies))
	var standard strategy.Strategy
	for _, s := range strategies {
		byName[s.Name()] = s
		if s.Name() == conv.StrategyStandardAgentic {
			standard = s
		}
	}

	return &Service{
		memory:     mem,
		lang:       lang,
		detector:   detector,
		strategies: byName,
		standard:   standard,
		logStore:   logStore,
		recorder:   recorder,
		logger:     logger.Named("pipeline"),
	}
}

// Handle answers one incoming turn. It never returns an error for expected
// failure modes; degradation is recorded in metadata instead.
func (s *Service) Handle(ctx context.Context, req Request) Response {
	started := time.Now()
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	s.memory.AddMessage(req.SessionID, conv.RoleUser, req.Message, nil)

	if result := s.detector.Handle(ctx, req.SessionID, req.Message, req.User); result != nil {
		meta := map[string]any{
			"ragPattern":   string(conv.StrategySpecialAction),
			"fallbackUsed": false,
			"actionKind":   string(result.Kind),
			"actionState":  string(result.State),
		}
		for k, v := range result.Metadata {
			meta[k] = v
		}
		return s.finish(ctx, req, result.Response, meta, started)
	}

	detection := s.detectLanguage(req)
	searchText := s.lang.TranslateForSearch(ctx, req.Message, detection.Language)

	enhanced := s.memory.EnhanceQueryWithContext(req.SessionID, searchText)
	s.memory.RecordEnhanced(req.SessionID, enhanced.Enhanced)
	stats := s.memory.GetStats(req.SessionID)

	decision := strategy.Select(strategy.SelectorInput{
		Query:    searchText,
		Enhanced: enhanced,
		Stats:    stats,
	})

	selected, ok := s.strategies[decision.Strategy]
	if !ok {
		s.logger.Warn("selected strategy unavailable, using standard",
			zap.String("strategy", string(decision.Strategy)))
		selected = s.standard
	}

	pc := strategy.Context{
		SessionID: req.SessionID,
		Enhanced:  enhanced,
		Stats:     stats,
		History:   s.memory.RelevantHistory(req.SessionID, searchText),
	}

	answer, level := s.runLadder(ctx, decision.SearchQuery, pc, selected)

	text := s.lang.RenderResponse(ctx, answer.Response, detection.Language)
	text = stripEnclosingQuotes(text)

	meta := answer.Metadata
	meta["selectedStrategy"] = string(decision.Strategy)
	meta["selectionReasoning"] = decision.Reasoning
	meta["fallbackPath"] = level
	meta["language"] = detection.Language
	meta["languageConfidence"] = detection.Confidence
	meta["enhancement"] = enhanced
	meta["sessionStats"] = stats

	return s.finish(ctx, req, text, meta, started)
}

// finish performs the write-backs common to every path: memory, durable
// log, analytics. None of them may fail the response.
func (s *Service) finish(ctx context.Context, req Request, text string, meta map[string]any, started time.Time) Response {
	turnID := s.memory.AddMessage(req.SessionID, conv.RoleAssistant, text, meta)

	if s.logStore != nil {
		turn := conv.Turn{
			ID:        turnID,
			SessionID: req.SessionID,
			Role:      conv.RoleAssistant,
			Text:      text,
			Timestamp: time.Now().UTC(),
			Metadata:  meta,
		}
		if _, err := s.logStore.Insert(ctx, turn); err != nil {
			s.logger.Warn("turn log insert failed", zap.Error(err))
		}
	}

	if s.recorder != nil {
		pattern, _ := meta["ragPattern"].(string)
		fallback, _ := meta["fallbackUsed"].(bool)
		lang, _ := meta["language"].(string)
		s.recorder.Record(analytics.Event{
			SessionID:    req.SessionID,
			Strategy:     conv.StrategyName(pattern),
			FallbackUsed: fallback,
			Language:     lang,
			LatencyMS:    time.Since(started).Milliseconds(),
		})
	}

	return Response{Response: text, SessionID: req.SessionID, Metadata: meta}
}

func (s *Service) detectLanguage(req Request) language.Detection {
	if req.LanguageHint != "" {
		return language.Detection{Language: req.LanguageHint, Confidence: 1}
	}
	return s.lang.Detect(req.Message)
}

// History exposes session turns for the read endpoints.
func (s *Service) History(sessionID string) []conv.Turn {
	return s.memory.History(sessionID)
}

// Stats exposes session aggregates for the read endpoints.
func (s *Service) Stats(sessionID string) conv.Stats {
	return s.memory.GetStats(sessionID)
}

// stripEnclosingQuotes removes one layer of matching quote characters that
// models sometimes wrap answers in.
func stripEnclosingQuotes(text string) string {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < 2 {
		return trimmed
	}
	first, last := trimmed[0], trimmed[len(trimmed)-1]
	if (first == '"' && last == '"') || (first == '\'' && last == '\'') || (first == '`' && last == '`') {
		return strings.TrimSpace(trimmed[1 : len(trimmed)-1])
	}
	return trimmed
}
