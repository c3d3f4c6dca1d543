package search

import (
	"sort"
	"strings"

	"github.com/dkarki/twinfolio/internal/model/conv"
)

// Fusion method names as they appear in configuration and metadata.
const (
	FusionRRF      = "rrf"
	FusionWeighted = "weighted"
)

// rrfK dampens the contribution of lower-ranked passages.
const rrfK = 60.0

// FuseRRF merges several ranked lists with reciprocal-rank fusion. Each
// passage contributes 1/(k+rank) per list it appears in; duplicates are
// collapsed by a normalized content key.
func FuseRRF(lists ...[]conv.SearchResult) []conv.SearchResult {
	type entry struct {
		result conv.SearchResult
		score  float64
	}
	merged := make(map[string]*entry)

	for _, list := range lists {
		for rank, r := range list {
			key := contentKey(r)
			contribution := 1.0 / (rrfK + float64(rank+1))
			if e, ok := merged[key]; ok {
				e.score += contribution
				if r.Score > e.result.Score {
					e.result = r
				}
			} else {
				merged[key] = &entry{result: r, score: contribution}
			}
		}
	}

	fused := make([]conv.SearchResult, 0, len(merged))
	for _, e := range merged {
		r := e.result
		if r.Metadata == nil {
			r.Metadata = map[string]string{}
		}
		r.Metadata["fusion"] = "rrf"
		r.Score = e.score
		fused = append(fused, r)
	}
	sort.SliceStable(fused, func(i, j int) bool { return fused[i].Score > fused[j].Score })
	return fused
}

// FuseWeighted merges lists by weighted score sum; weights are normalized
// and resulting scores clamped to [0,1].
func FuseWeighted(weights []float64, lists ...[]conv.SearchResult) []conv.SearchResult {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total == 0 {
		total = 1
	}

	type entry struct {
		result conv.SearchResult
		score  float64
	}
	merged := make(map[string]*entry)

	for i, list := range lists {
		weight := 1.0 / float64(len(lists))
		if i < len(weights) {
			weight = weights[i] / total
		}
		for _, r := range list {
			key := contentKey(r)
			contribution := r.Score * weight
			if e, ok := merged[key]; ok {
				e.score += contribution
			} else {
				merged[key] = &entry{result: r, score: contribution}
			}
		}
	}

	fused := make([]conv.SearchResult, 0, len(merged))
	for _, e := range merged {
		r := e.result
		if e.score > 1 {
			e.score = 1
		}
		if e.score < 0 {
			e.score = 0
		}
		r.Score = e.score
		if r.Metadata == nil {
			r.Metadata = map[string]string{}
		}
		r.Metadata["fusion"] = "weighted"
		fused = append(fused, r)
	}
	sort.SliceStable(fused, func(i, j int) bool { return fused[i].Score > fused[j].Score })
	return fused
}

func contentKey(r conv.SearchResult) string {
	text := BestText(r)
	text = strings.ToLower(strings.TrimSpace(text))
	if len(text) > 80 {
		text = text[:80]
	}
	return text
}
