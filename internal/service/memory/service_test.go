package memory_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dkarki/twinfolio/internal/model/conv"
	"github.com/dkarki/twinfolio/internal/service/memory"
)

func newService() *memory.Service {
	return memory.NewService(memory.NewMapStore(), zap.NewNop())
}

func TestAddMessageCreatesSession(t *testing.T) {
	svc := newService()

	id := svc.AddMessage("s1", conv.RoleUser, "hello there", nil)
	require.NotEmpty(t, id)

	stats := svc.GetStats("s1")
	assert.Equal(t, 1, stats.MessageCount)
}

func TestAddMessageNeverFails(t *testing.T) {
	svc := newService()

	// An empty session id is rejected by the store; the call must still
	// hand back a synthetic id.
	id := svc.AddMessage("", conv.RoleUser, "hello", nil)
	assert.NotEmpty(t, id)
}

func TestFollowUpCarriesPreviousTopic(t *testing.T) {
	svc := newService()
	svc.AddMessage("s1", conv.RoleUser, "what languages do you use", nil)
	svc.AddMessage("s1", conv.RoleAssistant, "I mostly work in Python and Java.", nil)

	enhanced := svc.EnhanceQueryWithContext("s1", "tell me more about that")

	assert.True(t, enhanced.IsFollowUp)
	assert.Greater(t, enhanced.Confidence, 0.8)
	lower := strings.ToLower(enhanced.Enhanced)
	if !strings.Contains(lower, "python") && !strings.Contains(lower, "java") {
		t.Fatalf("enhanced query %q carries neither python nor java", enhanced.Enhanced)
	}
}

func TestFollowUpConfidenceScalesWithSignals(t *testing.T) {
	svc := newService()
	svc.AddMessage("s1", conv.RoleUser, "I write python and java daily", nil)

	// Marker plus recency only: long query, no entity overlap.
	weak := svc.EnhanceQueryWithContext("s1", "could you elaborate on the second language please")
	// Marker, brevity, topic overlap and recency all fire.
	strong := svc.EnhanceQueryWithContext("s1", "more about python")

	assert.True(t, weak.IsFollowUp)
	assert.True(t, strong.IsFollowUp)
	assert.Greater(t, strong.Confidence, weak.Confidence)
	assert.LessOrEqual(t, strong.Confidence, 0.95)
}

func TestEnhanceIsIdempotent(t *testing.T) {
	svc := newService()
	svc.AddMessage("s1", conv.RoleAssistant, "I built dashboards in React.", nil)

	first := svc.EnhanceQueryWithContext("s1", "tell me more about it")
	second := svc.EnhanceQueryWithContext("s1", "tell me more about it")

	assert.Equal(t, first, second)
}

func TestEnhanceNonFollowUp(t *testing.T) {
	svc := newService()
	svc.AddMessage("s1", conv.RoleAssistant, "I built dashboards in React.", nil)

	enhanced := svc.EnhanceQueryWithContext("s1", "what certifications do you hold in cloud engineering")

	assert.False(t, enhanced.IsFollowUp)
	assert.Equal(t, "what certifications do you hold in cloud engineering", enhanced.Enhanced)
}

func TestIntentClassification(t *testing.T) {
	svc := newService()

	cases := map[string]string{
		"what was your work experience like": "ask_about_experience",
		"can you explain that in more detail": "request_details",
		"should i learn go or rust first":     "seek_advice",
		"what's your favourite color":         "general_inquiry",
	}
	for query, want := range cases {
		enhanced := svc.EnhanceQueryWithContext("fresh", query)
		assert.Equal(t, want, enhanced.Intent, "query=%q", query)
	}
}

func TestStatsTracksTopics(t *testing.T) {
	svc := newService()
	svc.AddMessage("s1", conv.RoleUser, "do you know python", nil)
	svc.AddMessage("s1", conv.RoleUser, "and react", nil)

	stats := svc.GetStats("s1")
	assert.Contains(t, stats.TopTopics, "python")
	assert.Contains(t, stats.TopTopics, "react")
	assert.Equal(t, 2, stats.MessageCount)
}

func TestRelevantHistoryPrefersEntityOverlap(t *testing.T) {
	svc := newService()
	svc.AddMessage("s1", conv.RoleUser, "tell me about react", nil)
	svc.AddMessage("s1", conv.RoleAssistant, "React is my main front-end tool.", nil)
	svc.AddMessage("s1", conv.RoleUser, "what about cooking", nil)

	relevant := svc.RelevantHistory("s1", "more react details")
	require.NotEmpty(t, relevant)
	for _, turn := range relevant {
		assert.Contains(t, strings.ToLower(turn.Text), "react")
	}
}
