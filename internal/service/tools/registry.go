package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Tool is one callable external data source.
type Tool interface {
	Name() string
	Description() string
	Call(ctx context.Context, params map[string]string) (string, error)
}

// Registry holds the available tools keyed by name.
type Registry struct {
	tools  map[string]Tool
	order  []string
	logger *zap.Logger
}

func NewRegistry(logger *zap.Logger, available ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool), logger: logger.Named("tools")}
	for _, t := range available {
		r.tools[t.Name()] = t
		r.order = append(r.order, t.Name())
	}
	return r
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Names lists registered tools in registration order.
func (r *Registry) Names() []string {
	return r.order
}

// Describe renders the tool catalog for the decision prompt.
func (r *Registry) Describe() string {
	out := ""
	for _, name := range r.order {
		out += fmt.Sprintf("- %s: %s\n", name, r.tools[name].Description())
	}
	return out
}

// Health calls every tool with empty params and reports which respond.
func (r *Registry) Health(ctx context.Context) map[string]bool {
	status := make(map[string]bool, len(r.tools))
	for name, t := range r.tools {
		cctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		_, err := t.Call(cctx, nil)
		cancel()
		status[name] = err == nil
	}
	return status
}

// GitHubRepos lists an account's public repositories via the GitHub API.
type GitHubRepos struct {
	User string
	HTTP *http.Client
}

func (g *GitHubRepos) Name() string { return "github_repos" }

func (g *GitHubRepos) Description() string {
	return "lists public code repositories with names, descriptions and languages"
}

func (g *GitHubRepos) Call(ctx context.Context, _ map[string]string) (string, error) {
	if g.User == "" {
		return "", fmt.Errorf("github user not configured")
	}

	url := fmt.Sprintf("https://api.github.com/users/%s/repos?sort=updated&per_page=10", g.User)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := g.client().Do(req)
	if err != nil {
		return "", fmt.Errorf("github request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("github returned status %d", resp.StatusCode)
	}

	var repos []struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Language    string `json:"language"`
		Stars       int    `json:"stargazers_count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&repos); err != nil {
		return "", fmt.Errorf("decode github response: %w", err)
	}

	out := ""
	for _, r := range repos {
		out += fmt.Sprintf("%s (%s): %s\n", r.Name, r.Language, r.Description)
	}
	return out, nil
}

func (g *GitHubRepos) client() *http.Client {
	if g.HTTP != nil {
		return g.HTTP
	}
	return http.DefaultClient
}

// WorkHistory serves the owner's employment record from a static dataset;
// a live profile API can replace it without changing callers.
type WorkHistory struct {
	Entries []WorkEntry
}

// WorkEntry is one role in the owner's history.
type WorkEntry struct {
	Company string
	Role    string
	Period  string
	Summary string
}

func (w *WorkHistory) Name() string { return "work_history" }

func (w *WorkHistory) Description() string {
	return "returns employment history: companies, roles, periods and highlights"
}

func (w *WorkHistory) Call(_ context.Context, _ map[string]string) (string, error) {
	if len(w.Entries) == 0 {
		return "", fmt.Errorf("work history not configured")
	}
	out := ""
	for _, e := range w.Entries {
		out += fmt.Sprintf("%s at %s (%s): %s\n", e.Role, e.Company, e.Period, e.Summary)
	}
	return out, nil
}
