package pipeline

import "sort"

// Reranker fuses the per-method scores into one relevance score and imposes
// the final, deterministic candidate ordering.
type Reranker struct {
	vectorWeight  float64
	keywordWeight float64
	methodBonus   float64
	topN          int
}

func newReranker(cfg Config) *Reranker {
	return &Reranker{
		vectorWeight:  cfg.VectorWeight,
		keywordWeight: cfg.KeywordWeight,
		methodBonus:   cfg.MethodBonus,
		topN:          cfg.RerankTopN,
	}
}

// Rank scores and sorts candidates descending by fused score. Ties break by
// lowest originating variant index, then lexical document ID, so identical
// inputs always produce identical orderings. Returns the top N with 0-based
// rank positions assigned.
func (r *Reranker) Rank(candidates []DedupedCandidate) []RankedCandidate {
	ranked := make([]RankedCandidate, len(candidates))
	for i, c := range candidates {
		ranked[i] = RankedCandidate{DedupedCandidate: c, FinalScore: r.score(c)}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.FinalScore != b.FinalScore {
			return a.FinalScore > b.FinalScore
		}
		av, bv := firstVariant(a.VariantIndexes), firstVariant(b.VariantIndexes)
		if av != bv {
			return av < bv
		}
		return a.DocumentID < b.DocumentID
	})

	if len(ranked) > r.topN {
		ranked = ranked[:r.topN]
	}
	for i := range ranked {
		ranked[i].Rank = i
	}
	return ranked
}

// score computes the weighted combination of the method scores, with a bonus
// when vector and keyword search agree on the candidate.
func (r *Reranker) score(c DedupedCandidate) float64 {
	s := r.vectorWeight*c.VectorScore + r.keywordWeight*c.KeywordScore
	if c.Method == MethodBoth {
		s += r.methodBonus
	}
	return s
}

func firstVariant(variants []int) int {
	if len(variants) == 0 {
		return 0
	}
	return variants[0]
}
