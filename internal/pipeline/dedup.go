package pipeline

import (
	"sort"
	"strings"
)

// Deduplicator merges duplicate and near-duplicate candidates across
// variants and methods. Output order follows first-seen input order, making
// the result deterministic for a given input multiset.
type Deduplicator struct {
	overlapThreshold float64
}

func newDeduplicator(cfg Config) *Deduplicator {
	return &Deduplicator{overlapThreshold: cfg.OverlapThreshold}
}

// Dedup groups candidates by (document, version, section), then collapses
// groups from the same document version whose content overlaps by more than
// the configured fraction. Near-duplicate collapse guards against chunk
// boundaries produced by sliding-window ingestion.
func (d *Deduplicator) Dedup(candidates []Candidate) []DedupedCandidate {
	// Exact grouping by identity key, preserving first-seen order.
	byKey := make(map[string]DedupedCandidate)
	var order []string
	for _, c := range candidates {
		key := c.DocumentID + "\x00" + c.DocumentVersion + "\x00" + c.Section
		single := DedupedCandidate{Candidate: c, VariantIndexes: []int{c.VariantIndex}}
		if existing, ok := byKey[key]; ok {
			byKey[key] = mergeGroups(existing, single)
			continue
		}
		byKey[key] = single
		order = append(order, key)
	}

	groups := make([]DedupedCandidate, 0, len(order))
	for _, key := range order {
		groups = append(groups, byKey[key])
	}

	// Overlap collapse across section boundaries, repeated until stable so
	// the result is idempotent.
	for {
		merged, changed := d.collapseOverlaps(groups)
		groups = merged
		if !changed {
			break
		}
	}
	return groups
}

func (d *Deduplicator) collapseOverlaps(groups []DedupedCandidate) ([]DedupedCandidate, bool) {
	var out []DedupedCandidate
	changed := false
	for _, g := range groups {
		mergedInto := -1
		for i, kept := range out {
			if kept.DocumentID != g.DocumentID || kept.DocumentVersion != g.DocumentVersion {
				continue
			}
			if contentOverlap(kept.Content, g.Content) > d.overlapThreshold {
				mergedInto = i
				break
			}
		}
		if mergedInto >= 0 {
			out[mergedInto] = mergeGroups(out[mergedInto], g)
			changed = true
			continue
		}
		out = append(out, g)
	}
	return out, changed
}

// mergeGroups combines two groups covering the same underlying passage: the
// best score per method is kept, the method becomes "both" when both methods
// contributed, the longer content span wins, and variant sets are unioned.
func mergeGroups(a, b DedupedCandidate) DedupedCandidate {
	out := a.Candidate

	if hasVector(b.Candidate) && (!hasVector(a.Candidate) || b.VectorScore > a.VectorScore) {
		out.VectorScore = b.VectorScore
	}
	if hasKeyword(b.Candidate) && (!hasKeyword(a.Candidate) || b.KeywordScore > a.KeywordScore) {
		out.KeywordScore = b.KeywordScore
	}

	if a.Method != b.Method {
		out.Method = MethodBoth
	}

	if len(b.Content) > len(a.Content) {
		out.Content = b.Content
		out.Section = b.Section
		out.Page = b.Page
	}
	if b.VariantIndex < a.VariantIndex {
		out.VariantIndex = b.VariantIndex
	}

	variants := append(append([]int{}, a.VariantIndexes...), b.VariantIndexes...)
	return DedupedCandidate{Candidate: out, VariantIndexes: dedupInts(variants)}
}

func hasVector(c Candidate) bool  { return c.Method == MethodVector || c.Method == MethodBoth }
func hasKeyword(c Candidate) bool { return c.Method == MethodKeyword || c.Method == MethodBoth }

func dedupInts(in []int) []int {
	seen := make(map[int]bool, len(in))
	var out []int
	for _, v := range in {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}

// contentOverlap estimates the fraction of the shorter text covered by the
// longer one: full containment counts as 1, otherwise the longest
// suffix/prefix splice (the sliding-window case) is measured.
func contentOverlap(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	short := a
	if len(b) < len(short) {
		short = b
	}
	long := a
	if short == a {
		long = b
	}
	if strings.Contains(long, short) {
		return 1
	}

	k := maxAffixOverlap(a, b)
	if j := maxAffixOverlap(b, a); j > k {
		k = j
	}
	return float64(k) / float64(len(short))
}

// maxAffixOverlap returns the length of the longest suffix of a that is a
// prefix of b.
func maxAffixOverlap(a, b string) int {
	max := len(a)
	if len(b) < max {
		max = len(b)
	}
	for k := max; k > 0; k-- {
		if a[len(a)-k:] == b[:k] {
			return k
		}
	}
	return 0
}
