package search

import (
	"context"
	"errors"

	"github.com/dkarki/twinfolio/internal/model/conv"
)

var (
	// ErrNotConfigured signals that the vector search backend has no
	// credentials; callers treat it as an immediate fallback trigger.
	ErrNotConfigured = errors.New("search service not configured")
	// ErrNoResults signals an empty result list or nothing above threshold.
	ErrNoResults = errors.New("no search results")
)

// Port is the single entry point into the external similarity-search
// service. Implementations must return results sorted by descending score.
type Port interface {
	Search(ctx context.Context, query string, topK int) ([]conv.SearchResult, error)
}

// BestText returns the passage text to ground an answer on. A metadata
// answer/content field, when present, wins over the raw chunk text.
func BestText(r conv.SearchResult) string {
	for _, key := range []string{"answer", "content", "text"} {
		if v, ok := r.Metadata[key]; ok && v != "" {
			return v
		}
	}
	return r.Text
}
