package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/dkarki/twinfolio/internal/config"
	"github.com/dkarki/twinfolio/internal/model/conv"
)

// Client calls the hosted similarity-search service over HTTP.
type Client struct {
	cfg    config.SearchConfig
	http   *http.Client
	logger *zap.Logger
}

// NewClient returns nil when the backend is unconfigured so callers can gate
// on the port being absent.
func NewClient(cfg config.SearchConfig, logger *zap.Logger) *Client {
	if !cfg.Enabled() {
		return nil
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		logger: logger.Named("search"),
	}
}

type queryRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"topK"`
}

type queryResponse struct {
	Matches []struct {
		Score    float64           `json:"score"`
		Text     string            `json:"text"`
		Metadata map[string]string `json:"metadata"`
	} `json:"matches"`
}

// Search runs one similarity query and returns score-descending results.
func (c *Client) Search(ctx context.Context, query string, topK int) ([]conv.SearchResult, error) {
	if c == nil {
		return nil, ErrNotConfigured
	}
	if topK <= 0 {
		topK = c.cfg.TopK
	}

	body, err := json.Marshal(queryRequest{Query: query, TopK: topK})
	if err != nil {
		return nil, fmt.Errorf("encode search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/query", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search backend returned status %d", resp.StatusCode)
	}

	var parsed queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	results := make([]conv.SearchResult, 0, len(parsed.Matches))
	for _, m := range parsed.Matches {
		results = append(results, conv.SearchResult{Score: m.Score, Text: m.Text, Metadata: m.Metadata})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })

	c.logger.Debug("search completed", zap.String("query", query), zap.Int("results", len(results)))
	if len(results) == 0 {
		return nil, ErrNoResults
	}
	return results, nil
}
