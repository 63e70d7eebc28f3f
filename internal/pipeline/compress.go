package pipeline

import "unicode/utf8"

// Compressor selects and trims ranked candidates into a bounded context
// while preserving citation provenance. The generation prompt can never
// exceed the configured budget.
type Compressor struct {
	budget       int
	candidateCap int
	minFragment  int
}

func newCompressor(cfg Config) *Compressor {
	return &Compressor{
		budget:       cfg.ContextBudget,
		candidateCap: cfg.CandidateCap,
		minFragment:  cfg.MinFragment,
	}
}

// Compress walks candidates in rank order, appending each candidate's
// content (capped per candidate) until the character budget is exhausted. A
// candidate that would overflow the budget is truncated to fit; when the
// remaining budget is below the minimum useful fragment size the candidate
// is skipped instead. Kept fragments receive sequential 1-based citation
// indices.
func (c *Compressor) Compress(ranked []RankedCandidate, tr *trace) []CompressedSegment {
	remaining := c.budget
	var segments []CompressedSegment

	for _, rc := range ranked {
		text := truncateRunes(rc.Content, c.candidateCap)
		size := utf8.RuneCountInString(text)

		switch {
		case size <= remaining:
			// fits whole
		case remaining >= c.minFragment:
			text = truncateRunes(text, remaining)
			size = utf8.RuneCountInString(text)
			tr.log(StageCompress, LevelDebug, "candidate truncated to fit context budget", map[string]any{
				"document": rc.DocumentID,
				"kept":     size,
			})
		default:
			tr.log(StageCompress, LevelDebug, "candidate skipped, remaining budget below minimum fragment", map[string]any{
				"document":  rc.DocumentID,
				"remaining": remaining,
			})
			continue
		}

		segments = append(segments, CompressedSegment{
			CitationIndex: len(segments) + 1,
			Text:          text,
			Source:        rc,
		})
		remaining -= size
		if remaining <= 0 {
			break
		}
	}
	return segments
}

// truncateRunes cuts s to at most n runes, never splitting a rune.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
