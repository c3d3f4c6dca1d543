package memory

import (
	"errors"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dkarki/twinfolio/internal/model/conv"
)

const (
	// maxTrackedTopics caps the topic list per session.
	maxTrackedTopics = 20
	// compressAfter triggers history compression once a session grows past it.
	compressAfter = 50
	// compressKeep is how many recent turns survive compression.
	compressKeep = 30
)

// Follow-up resolution confidence starts at a base and climbs a fixed step
// per independent signal: pronoun marker, brevity, topic overlap, and a
// fresh previous turn.
const (
	followUpBaseConfidence = 0.55
	followUpSignalStep     = 0.15
	followUpMaxConfidence  = 0.95
	// recentTurnWindow bounds how old the last turn may be for the recency
	// signal to fire.
	recentTurnWindow = 10 * time.Minute
)

var followUpPattern = regexp.MustCompile(`(?i)\b(that|this|it|them|more|continue|elaborate|expand|detail)\b`)

// entityVocabulary lists the professional-profile terms worth tracking as
// conversation topics.
var entityVocabulary = []string{
	"python", "java", "javascript", "typescript", "go", "react", "nextjs",
	"node", "ai", "ml", "machine learning", "github", "api", "vr", "sql",
	"aubot", "edgedvr", "kimpton",
	"development", "programming", "web development", "automation", "education",
}

// Service owns per-session conversation history and derives the enhanced
// query used downstream for strategy selection and retrieval.
type Service struct {
	store  Store
	logger *zap.Logger
}

// NewService wires the memory service onto an injected store.
func NewService(store Store, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger.Named("memory")}
}

// AddMessage appends a turn, creating the session on first use. Storage
// errors are logged and swallowed; a synthetic id is always returned so the
// pipeline never fails on a memory write.
func (s *Service) AddMessage(sessionID string, role conv.Role, text string, meta map[string]any) string {
	id := uuid.NewString()

	session, err := s.store.Get(sessionID)
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			s.logger.Warn("session load failed", zap.String("sessionId", sessionID), zap.Error(err))
			return id
		}
		session = conv.Session{SessionID: sessionID, CreatedAt: time.Now().UTC()}
	}

	session.Turns = append(session.Turns, conv.Turn{
		ID:        id,
		SessionID: sessionID,
		Role:      role,
		Text:      text,
		Timestamp: time.Now().UTC(),
		Metadata:  meta,
	})
	session.Topics = mergeTopics(session.Topics, extractEntities(text))

	if len(session.Turns) > compressAfter {
		session.Turns = session.Turns[len(session.Turns)-compressKeep:]
	}

	if err := s.store.Put(session); err != nil {
		s.logger.Warn("session save failed", zap.String("sessionId", sessionID), zap.Error(err))
	}
	return id
}

// EnhanceQueryWithContext resolves a follow-up query against session history.
// Read-only: session state is never mutated.
func (s *Service) EnhanceQueryWithContext(sessionID, query string) conv.EnhancedQuery {
	entities := extractEntities(query)
	enhanced := conv.EnhancedQuery{
		Raw:        query,
		Enhanced:   query,
		Entities:   entities,
		Intent:     classifyIntent(query),
		Confidence: 0.6,
	}

	session, err := s.store.Get(sessionID)
	if err != nil {
		return enhanced
	}

	hasMarker := followUpPattern.MatchString(query)
	isShort := len(strings.Fields(query)) <= 4
	if (!hasMarker && !isShort) || len(session.Topics) == 0 {
		return enhanced
	}

	// Carry the most recent topic into the rewritten query so retrieval has
	// something concrete to search for.
	topic := session.Topics[len(session.Topics)-1]
	if !strings.Contains(strings.ToLower(query), topic) {
		enhanced.Enhanced = query + " " + topic
	}
	enhanced.IsFollowUp = true
	enhanced.Intent = "follow_up"
	enhanced.Confidence = followUpConfidence(hasMarker, isShort, entities, session)
	if len(entities) == 0 {
		enhanced.Entities = []string{topic}
	}
	return enhanced
}

// followUpConfidence scores how sure the resolution is. Each fired signal
// raises the score one step; a follow-up backed by several signals crosses
// the deep-context selection threshold, a bare one stays below it.
func followUpConfidence(hasMarker, isShort bool, entities []string, session conv.Session) float64 {
	signals := 0
	if hasMarker {
		signals++
	}
	if isShort {
		signals++
	}
	if overlapsTopics(entities, session.Topics) {
		signals++
	}
	if len(session.Turns) > 0 &&
		time.Since(session.Turns[len(session.Turns)-1].Timestamp) <= recentTurnWindow {
		signals++
	}

	confidence := followUpBaseConfidence + float64(signals)*followUpSignalStep
	if confidence > followUpMaxConfidence {
		confidence = followUpMaxConfidence
	}
	return confidence
}

func overlapsTopics(entities, topics []string) bool {
	for _, e := range entities {
		if slices.Contains(topics, e) {
			return true
		}
	}
	return false
}

// GetStats aggregates over the stored turns.
func (s *Service) GetStats(sessionID string) conv.Stats {
	session, err := s.store.Get(sessionID)
	if err != nil {
		return conv.Stats{SessionID: sessionID}
	}

	topics := make([]string, len(session.Topics))
	copy(topics, session.Topics)
	return conv.Stats{
		SessionID:    sessionID,
		MessageCount: len(session.Turns),
		TopTopics:    topics,
		LastEnhanced: session.LastEnhanced,
	}
}

// RecordEnhanced remembers the last rewritten query for stats reporting.
func (s *Service) RecordEnhanced(sessionID, enhanced string) {
	session, err := s.store.Get(sessionID)
	if err != nil {
		return
	}
	session.LastEnhanced = enhanced
	if err := s.store.Put(session); err != nil {
		s.logger.Warn("session save failed", zap.String("sessionId", sessionID), zap.Error(err))
	}
}

// History returns the session's turns in insertion order.
func (s *Service) History(sessionID string) []conv.Turn {
	session, err := s.store.Get(sessionID)
	if err != nil {
		return nil
	}
	return session.Turns
}

// RelevantHistory picks prior turns that share entities with the query:
// up to 6 matching turns from the last 10, otherwise the last 4 verbatim.
func (s *Service) RelevantHistory(sessionID, query string) []conv.Turn {
	session, err := s.store.Get(sessionID)
	if err != nil {
		return nil
	}

	turns := session.Turns
	if len(turns) > 10 {
		turns = turns[len(turns)-10:]
	}

	queryEntities := extractEntities(query)
	var matched []conv.Turn
	for _, turn := range turns {
		if sharesEntity(turn.Text, queryEntities) {
			matched = append(matched, turn)
		}
	}
	if len(matched) > 0 {
		if len(matched) > 6 {
			matched = matched[len(matched)-6:]
		}
		return matched
	}

	if len(turns) > 4 {
		turns = turns[len(turns)-4:]
	}
	return turns
}

func sharesEntity(text string, entities []string) bool {
	lower := strings.ToLower(text)
	for _, e := range entities {
		if strings.Contains(lower, e) {
			return true
		}
	}
	return false
}

func extractEntities(text string) []string {
	lower := strings.ToLower(text)
	var found []string
	for _, term := range entityVocabulary {
		if strings.Contains(lower, term) {
			found = append(found, term)
		}
	}
	return found
}

func classifyIntent(query string) string {
	lower := strings.ToLower(query)
	switch {
	case strings.Contains(lower, "experience") || strings.Contains(lower, "work") || strings.Contains(lower, "job"):
		return "ask_about_experience"
	case strings.Contains(lower, "detail") || strings.Contains(lower, "more about") || strings.Contains(lower, "explain"):
		return "request_details"
	case strings.Contains(lower, "should i") || strings.Contains(lower, "advice") || strings.Contains(lower, "recommend"):
		return "seek_advice"
	case followUpPattern.MatchString(lower) && len(strings.Fields(lower)) <= 5:
		return "follow_up"
	default:
		return "general_inquiry"
	}
}

func mergeTopics(existing, found []string) []string {
	for _, topic := range found {
		if !slices.Contains(existing, topic) {
			existing = append(existing, topic)
		}
	}
	if len(existing) > maxTrackedTopics {
		existing = existing[len(existing)-maxTrackedTopics:]
	}
	return existing
}
