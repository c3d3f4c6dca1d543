package strategy

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dkarki/twinfolio/internal/model/conv"
	"github.com/dkarki/twinfolio/internal/service/search"
)

const (
	// fusedPassageCap bounds how many fused passages feed the answer.
	fusedPassageCap = 3
	subQueryTimeout = 8 * time.Second
)

// HybridSearch fans several rewordings out to both retrieval legs in
// parallel, fuses the ranked lists, and synthesizes from the top fused
// passages without an LLM call. Deliberately the cheapest strategy.
type HybridSearch struct {
	vector    search.Port
	keyword   search.Port
	threshold float64
	topK      int
	fusion    string
	logger    *zap.Logger
}

func NewHybridSearch(vector, keyword search.Port, threshold float64, topK int, fusion string, logger *zap.Logger) *HybridSearch {
	if fusion == "" {
		fusion = search.FusionRRF
	}
	return &HybridSearch{
		vector:    vector,
		keyword:   keyword,
		threshold: threshold,
		topK:      topK,
		fusion:    fusion,
		logger:    logger.Named("hybrid"),
	}
}

func (h *HybridSearch) Name() conv.StrategyName { return conv.StrategyHybridSearch }

func (h *HybridSearch) Execute(ctx context.Context, query string, pc Context) (conv.Answer, error) {
	subQueries := rewordings(query, pc.Enhanced.Entities)

	type leg struct {
		port search.Port
		q    string
		// gated legs drop passages below the trust threshold; keyword
		// scores are term-frequency estimates and skip the gate.
		gated bool
	}
	var legs []leg
	for _, q := range subQueries {
		if h.vector != nil {
			legs = append(legs, leg{port: h.vector, q: q, gated: true})
		}
		if h.keyword != nil {
			legs = append(legs, leg{port: h.keyword, q: q})
		}
	}
	if len(legs) == 0 {
		return conv.Answer{}, search.ErrNotConfigured
	}

	lists := make([][]conv.SearchResult, len(legs))
	g, gctx := errgroup.WithContext(ctx)
	for i, l := range legs {
		i, l := i, l
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(gctx, subQueryTimeout)
			defer cancel()

			results, err := l.port.Search(cctx, l.q, h.topK)
			if err != nil {
				// A failed leg just contributes nothing to the fusion.
				h.logger.Debug("sub-query failed", zap.String("query", l.q), zap.Error(err))
				return nil
			}
			if l.gated {
				results = trusted(results, h.threshold)
			}
			lists[i] = results
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return conv.Answer{}, err
	}

	var fused []conv.SearchResult
	if h.fusion == search.FusionWeighted {
		// Equal weights per leg; weighted fusion keeps raw scores comparable
		// instead of rank-only RRF contributions.
		fused = search.FuseWeighted(nil, lists...)
	} else {
		fused = search.FuseRRF(lists...)
	}
	if len(fused) > fusedPassageCap {
		fused = fused[:fusedPassageCap]
	}
	if len(fused) == 0 {
		return conv.Answer{}, ErrNoGroundedAnswer
	}

	var b strings.Builder
	for i, r := range fused {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(search.BestText(r))
	}

	meta := baseMetadata(h.Name())
	meta["fusedPassages"] = len(fused)
	meta["subQueries"] = len(subQueries)
	meta["fusionMethod"] = h.fusion
	return conv.Answer{Response: b.String(), Metadata: meta}, nil
}

// rewordings produces up to three retrieval variants of the query.
func rewordings(query string, entities []string) []string {
	variants := []string{query}
	if len(entities) > 0 {
		variants = append(variants, strings.Join(entities, " "))
	}
	lower := strings.ToLower(query)
	if stripped := strings.TrimSpace(strings.NewReplacer(
		"compare", "", "versus", "", " vs ", " ", "different types of", "",
	).Replace(lower)); stripped != "" && stripped != lower {
		variants = append(variants, stripped)
	}
	if len(variants) > 3 {
		variants = variants[:3]
	}
	return variants
}
