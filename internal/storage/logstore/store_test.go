package logstore_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dkarki/twinfolio/internal/model/conv"
	"github.com/dkarki/twinfolio/internal/storage/logstore"
)

func openStore(t *testing.T) *logstore.Store {
	t.Helper()
	store, err := logstore.Open(filepath.Join(t.TempDir(), "log.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestInsertAndRecent(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	for i, text := range []string{"first", "second", "third"} {
		_, err := store.Insert(ctx, conv.Turn{
			ID:        "t" + string(rune('1'+i)),
			SessionID: "s1",
			Role:      conv.RoleUser,
			Text:      text,
			Timestamp: time.Now().UTC(),
		})
		require.NoError(t, err)
	}

	turns, err := store.Recent(ctx, 2, "s1")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	// Oldest first within the returned window.
	assert.Equal(t, "second", turns[0].Text)
	assert.Equal(t, "third", turns[1].Text)
}

func TestRecentScopedBySession(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	_, err := store.Insert(ctx, conv.Turn{ID: "a", SessionID: "s1", Role: conv.RoleUser, Text: "mine", Timestamp: time.Now()})
	require.NoError(t, err)
	_, err = store.Insert(ctx, conv.Turn{ID: "b", SessionID: "s2", Role: conv.RoleUser, Text: "other", Timestamp: time.Now()})
	require.NoError(t, err)

	turns, err := store.Recent(ctx, 10, "s1")
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "mine", turns[0].Text)
}

func TestInsertPreservesMetadata(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	_, err := store.Insert(ctx, conv.Turn{
		ID:        "a",
		SessionID: "s1",
		Role:      conv.RoleAssistant,
		Text:      "answer",
		Timestamp: time.Now(),
		Metadata:  map[string]any{"ragPattern": "standard_agentic", "fallbackUsed": false},
	})
	require.NoError(t, err)

	turns, err := store.Recent(ctx, 1, "s1")
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "standard_agentic", turns[0].Metadata["ragPattern"])
}

func TestKeywordMatchExactFirst(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	require.NoError(t, store.SeedContent(ctx, []logstore.Entry{
		{Keyword: "react", Answer: "react answer"},
		{Keyword: "python", Answer: "python answer"},
	}))

	entry, err := store.KeywordMatch(ctx, "do you use react at work")
	require.NoError(t, err)
	assert.Equal(t, "react", entry.Keyword)
}

func TestKeywordMatchWidenedPrefersLongestKeyword(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	require.NoError(t, store.SeedContent(ctx, []logstore.Entry{
		{Keyword: "vr", Answer: "short answer"},
		{Keyword: "virtual reality", Answer: "specific answer"},
	}))

	// Neither keyword equals a single query word, so the widened substring
	// pass runs; the longer keyword must win.
	entry, err := store.KeywordMatch(ctx, "tell me about your virtual reality work")
	require.NoError(t, err)
	assert.Equal(t, "virtual reality", entry.Keyword)
}

func TestKeywordMatchMiss(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	require.NoError(t, store.SeedContent(ctx, []logstore.Entry{{Keyword: "react", Answer: "x"}}))

	_, err := store.KeywordMatch(ctx, "completely unrelated query")
	assert.ErrorIs(t, err, logstore.ErrNoMatch)
}
