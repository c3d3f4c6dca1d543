package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticTool struct {
	name   string
	output string
	err    error
	calls  int
}

func (s *staticTool) Name() string        { return s.name }
func (s *staticTool) Description() string { return "test tool" }
func (s *staticTool) Call(context.Context, map[string]string) (string, error) {
	s.calls++
	return s.output, s.err
}

type staticDecider struct {
	out string
	err error
}

func (s staticDecider) CompleteFast(context.Context, string, string) (string, error) {
	return s.out, s.err
}

func TestRunExecutesSelectedTools(t *testing.T) {
	repos := &staticTool{name: "github_repos", output: "repo list"}
	registry := NewRegistry(zap.NewNop(), repos)
	o := NewOrchestrator(registry, staticDecider{
		out: `{"tools":[{"tool":"github_repos","params":{}}],"reasoning":"needs repos"}`,
	}, zap.NewNop())

	outputs, reasoning := o.Run(context.Background(), "show me your repos")

	assert.Equal(t, 1, repos.calls)
	assert.Equal(t, "repo list", outputs["github_repos"])
	assert.Equal(t, "needs repos", reasoning)
}

func TestRegistryHealthProbesEveryTool(t *testing.T) {
	healthy := &staticTool{name: "work_history", output: "roles"}
	broken := &staticTool{name: "github_repos", err: errors.New("unconfigured")}
	registry := NewRegistry(zap.NewNop(), healthy, broken)

	status := registry.Health(context.Background())

	require.Len(t, status, 2)
	assert.True(t, status["work_history"])
	assert.False(t, status["github_repos"])
}

func TestRunExtractsEmbeddedJSON(t *testing.T) {
	repos := &staticTool{name: "github_repos", output: "repo list"}
	registry := NewRegistry(zap.NewNop(), repos)
	o := NewOrchestrator(registry, staticDecider{
		out: `Sure! Here is my selection: {"tools":[{"tool":"github_repos","params":{}}],"reasoning":"embedded"} hope that helps`,
	}, zap.NewNop())

	outputs, _ := o.Run(context.Background(), "repos please")
	assert.Equal(t, "repo list", outputs["github_repos"])
}

func TestRunFallsBackToKeywordHeuristic(t *testing.T) {
	repos := &staticTool{name: "github_repos", output: "repo list"}
	work := &staticTool{name: "work_history", output: "jobs"}
	registry := NewRegistry(zap.NewNop(), repos, work)
	o := NewOrchestrator(registry, staticDecider{err: errors.New("model down")}, zap.NewNop())

	outputs, reasoning := o.Run(context.Background(), "tell me about your github work experience")

	assert.Equal(t, "keyword heuristic", reasoning)
	assert.Equal(t, "repo list", outputs["github_repos"])
	assert.Equal(t, "jobs", outputs["work_history"])
}

func TestRunSkipsUnknownAndFailingTools(t *testing.T) {
	failing := &staticTool{name: "work_history", err: errors.New("down")}
	registry := NewRegistry(zap.NewNop(), failing)
	o := NewOrchestrator(registry, staticDecider{
		out: `{"tools":[{"tool":"nonexistent"},{"tool":"work_history"}],"reasoning":"r"}`,
	}, zap.NewNop())

	outputs, _ := o.Run(context.Background(), "anything")
	assert.Empty(t, outputs)
	assert.Equal(t, 1, failing.calls)
}

func TestWorkHistoryTool(t *testing.T) {
	tool := &WorkHistory{Entries: []WorkEntry{
		{Company: "Aubot", Role: "Developer", Period: "2022", Summary: "automation"},
	}}

	out, err := tool.Call(context.Background(), nil)
	require.NoError(t, err)
	assert.Contains(t, out, "Aubot")
}

func TestExtractJSONBalancesBraces(t *testing.T) {
	assert.Equal(t, `{"a":{"b":1}}`, extractJSON(`prefix {"a":{"b":1}} suffix`))
	assert.Equal(t, "", extractJSON("no json here"))
}
