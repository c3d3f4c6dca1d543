package chat_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dkarki/twinfolio/internal/analytics"
	"github.com/dkarki/twinfolio/internal/handler/chat"
	"github.com/dkarki/twinfolio/internal/service/action"
	"github.com/dkarki/twinfolio/internal/service/language"
	"github.com/dkarki/twinfolio/internal/service/memory"
	"github.com/dkarki/twinfolio/internal/service/pipeline"
)

type staticToolHealth struct {
	status map[string]bool
}

func (s staticToolHealth) Health(context.Context) map[string]bool { return s.status }

func newHandler(tools chat.ToolHealth) http.Handler {
	logger := zap.NewNop()
	svc := pipeline.NewService(
		memory.NewService(memory.NewMapStore(), logger),
		language.NewService(nil, logger),
		action.NewDetector(nil, nil, false, "", "Dipesh", logger),
		nil,
		nil,
		analytics.NewRecorder(logger),
		logger,
	)
	h := chat.New(svc, analytics.NewRecorder(logger), map[string]bool{"ai": false}, tools)

	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func TestHealthReportsToolStatus(t *testing.T) {
	router := newHandler(staticToolHealth{status: map[string]bool{
		"github_repos": true,
		"work_history": false,
	}})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Status     string          `json:"status"`
		Subsystems map[string]bool `json:"subsystems"`
		Tools      map[string]bool `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "ok", payload.Status)
	assert.True(t, payload.Tools["github_repos"])
	assert.False(t, payload.Tools["work_history"])
}

func TestHealthOmitsToolsWhenNoneWired(t *testing.T) {
	router := newHandler(nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	_, ok := payload["tools"]
	assert.False(t, ok)
}
