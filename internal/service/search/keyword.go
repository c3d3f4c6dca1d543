package search

import (
	"context"
	"sort"
	"strings"

	"github.com/dkarki/twinfolio/internal/model/conv"
)

// KeywordScorer ranks a fixed document set by naive term-frequency overlap.
// It backs the keyword leg of hybrid retrieval and needs no external service.
type KeywordScorer struct {
	docs []string
}

func NewKeywordScorer(docs []string) *KeywordScorer {
	return &KeywordScorer{docs: docs}
}

// Search scores each document by how often the query's significant words
// (longer than 2 chars) occur, normalized so dense matches approach 1.
func (k *KeywordScorer) Search(_ context.Context, query string, topK int) ([]conv.SearchResult, error) {
	words := significantWords(query)
	if len(words) == 0 {
		return nil, ErrNoResults
	}

	var results []conv.SearchResult
	for _, doc := range k.docs {
		lower := strings.ToLower(doc)
		hits := 0
		for _, w := range words {
			hits += strings.Count(lower, w)
		}
		if hits == 0 {
			continue
		}
		score := float64(hits) / float64(len(words)) / 3.0
		if score > 1 {
			score = 1
		}
		results = append(results, conv.SearchResult{
			Score:    score,
			Text:     doc,
			Metadata: map[string]string{"method": "keyword"},
		})
	}

	if len(results) == 0 {
		return nil, ErrNoResults
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func significantWords(query string) []string {
	var words []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		w = strings.Trim(w, ".,!?\"'")
		if len(w) > 2 {
			words = append(words, w)
		}
	}
	return words
}
