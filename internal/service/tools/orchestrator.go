package tools

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"
)

// Decider is the fast completion used to pick tools.
type Decider interface {
	CompleteFast(ctx context.Context, system, query string) (string, error)
}

// Decision is the model's tool selection.
type Decision struct {
	Tools []struct {
		Tool   string            `json:"tool"`
		Params map[string]string `json:"params"`
	} `json:"tools"`
	Reasoning string `json:"reasoning"`
}

// Orchestrator decides which tools a query needs and runs them.
type Orchestrator struct {
	registry *Registry
	decider  Decider
	logger   *zap.Logger
}

func NewOrchestrator(registry *Registry, decider Decider, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{registry: registry, decider: decider, logger: logger.Named("orchestrator")}
}

// Run selects and executes tools for the query, returning each tool's
// output plus the reasoning behind the selection.
func (o *Orchestrator) Run(ctx context.Context, query string) (map[string]string, string) {
	decision := o.decide(ctx, query)

	outputs := make(map[string]string)
	for _, sel := range decision.Tools {
		tool, ok := o.registry.Get(sel.Tool)
		if !ok {
			o.logger.Warn("model selected unknown tool", zap.String("tool", sel.Tool))
			continue
		}
		result, err := tool.Call(ctx, sel.Params)
		if err != nil {
			o.logger.Warn("tool call failed", zap.String("tool", sel.Tool), zap.Error(err))
			continue
		}
		outputs[sel.Tool] = result
	}
	return outputs, decision.Reasoning
}

// decide asks the model for a JSON tool selection; parse failures fall back
// to extracting an embedded JSON object, then to keyword heuristics.
func (o *Orchestrator) decide(ctx context.Context, query string) Decision {
	system := "Select which external tools answer the question. Available tools:\n" +
		o.registry.Describe() +
		"Reply with JSON only: {\"tools\":[{\"tool\":\"name\",\"params\":{}}],\"reasoning\":\"short reason\"}. " +
		"Select no tools if none apply."

	out, err := o.decider.CompleteFast(ctx, system, query)
	if err != nil {
		o.logger.Debug("tool decision call failed", zap.Error(err))
		return o.heuristic(query)
	}

	var decision Decision
	if err := json.Unmarshal([]byte(out), &decision); err == nil {
		return decision
	}
	if extracted := extractJSON(out); extracted != "" {
		if err := json.Unmarshal([]byte(extracted), &decision); err == nil {
			return decision
		}
	}

	o.logger.Debug("unparseable tool decision, using heuristic", zap.String("raw", out))
	return o.heuristic(query)
}

// heuristic maps query keywords straight onto tool names.
func (o *Orchestrator) heuristic(query string) Decision {
	lower := strings.ToLower(query)
	var decision Decision
	decision.Reasoning = "keyword heuristic"

	add := func(name string) {
		if _, ok := o.registry.Get(name); ok {
			decision.Tools = append(decision.Tools, struct {
				Tool   string            `json:"tool"`
				Params map[string]string `json:"params"`
			}{Tool: name})
		}
	}

	if strings.Contains(lower, "github") || strings.Contains(lower, "repo") ||
		strings.Contains(lower, "code") || strings.Contains(lower, "project") {
		add("github_repos")
	}
	if strings.Contains(lower, "work") || strings.Contains(lower, "job") ||
		strings.Contains(lower, "compan") || strings.Contains(lower, "employ") ||
		strings.Contains(lower, "experience") {
		add("work_history")
	}
	return decision
}

// extractJSON pulls the first balanced {...} block out of surrounding prose.
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	if start < 0 {
		return ""
	}
	depth := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}
