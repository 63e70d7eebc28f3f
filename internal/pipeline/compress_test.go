package pipeline

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"
)

func rankedWithContent(docID, content string) RankedCandidate {
	return RankedCandidate{DedupedCandidate: DedupedCandidate{Candidate: Candidate{
		DocumentID: docID,
		Content:    content,
	}}}
}

func TestCompressFitsWithinBudget(t *testing.T) {
	c := newCompressor(Config{ContextBudget: 100, CandidateCap: 100, MinFragment: 10})
	tr, _ := newTestTrace(context.Background())

	ranked := []RankedCandidate{
		rankedWithContent("a", strings.Repeat("x", 40)),
		rankedWithContent("b", strings.Repeat("y", 40)),
		rankedWithContent("c", strings.Repeat("z", 40)),
	}

	segments := c.Compress(ranked, tr)

	total := 0
	for _, seg := range segments {
		total += utf8.RuneCountInString(seg.Text)
	}
	if total > 100 {
		t.Errorf("total compressed size = %d, exceeds budget 100", total)
	}
}

func TestCompressTruncatesLastFittingCandidate(t *testing.T) {
	c := newCompressor(Config{ContextBudget: 50, CandidateCap: 100, MinFragment: 5})
	tr, drain := newTestTrace(context.Background())

	ranked := []RankedCandidate{
		rankedWithContent("a", strings.Repeat("x", 40)),
		rankedWithContent("b", strings.Repeat("y", 40)),
	}

	segments := c.Compress(ranked, tr)
	if len(segments) != 2 {
		t.Fatalf("got %d segments, want 2", len(segments))
	}
	if n := utf8.RuneCountInString(segments[1].Text); n != 10 {
		t.Errorf("second segment length = %d, want 10 (truncated to remaining budget)", n)
	}
	if !containsMessage(drain(), "truncated") {
		t.Error("expected a truncation trace event")
	}
}

func TestCompressSkipsBelowMinFragment(t *testing.T) {
	c := newCompressor(Config{ContextBudget: 45, CandidateCap: 100, MinFragment: 10})
	tr, drain := newTestTrace(context.Background())

	ranked := []RankedCandidate{
		rankedWithContent("a", strings.Repeat("x", 40)),
		rankedWithContent("b", strings.Repeat("y", 40)),
		rankedWithContent("c", "tiny"),
	}

	segments := c.Compress(ranked, tr)

	// 40 kept, 5 remaining < MinFragment: b skipped, then c (4 runes) fits.
	if len(segments) != 2 {
		t.Fatalf("got %d segments, want 2", len(segments))
	}
	if segments[1].Source.DocumentID != "c" {
		t.Errorf("second segment from %q, want %q", segments[1].Source.DocumentID, "c")
	}
	if !containsMessage(drain(), "skipped") {
		t.Error("expected a skip trace event")
	}
}

func TestCompressAppliesCandidateCap(t *testing.T) {
	c := newCompressor(Config{ContextBudget: 1000, CandidateCap: 25, MinFragment: 5})
	tr, _ := newTestTrace(context.Background())

	segments := c.Compress([]RankedCandidate{rankedWithContent("a", strings.Repeat("x", 200))}, tr)
	if len(segments) != 1 {
		t.Fatalf("got %d segments, want 1", len(segments))
	}
	if n := utf8.RuneCountInString(segments[0].Text); n != 25 {
		t.Errorf("segment length = %d, want candidate cap 25", n)
	}
}

func TestCompressAssignsSequentialCitationIndices(t *testing.T) {
	c := newCompressor(Config{ContextBudget: 1000, CandidateCap: 100, MinFragment: 5})
	tr, _ := newTestTrace(context.Background())

	ranked := []RankedCandidate{
		rankedWithContent("a", "first"),
		rankedWithContent("b", "second"),
		rankedWithContent("c", "third"),
	}

	segments := c.Compress(ranked, tr)
	for i, seg := range segments {
		if seg.CitationIndex != i+1 {
			t.Errorf("segment %d citation index = %d, want %d", i, seg.CitationIndex, i+1)
		}
	}
}

func TestCompressEmptyInput(t *testing.T) {
	c := newCompressor(Config{ContextBudget: 100, CandidateCap: 100, MinFragment: 5})
	tr, _ := newTestTrace(context.Background())

	if segments := c.Compress(nil, tr); len(segments) != 0 {
		t.Errorf("got %d segments for empty input, want 0", len(segments))
	}
}

func TestTruncateRunesRespectsBoundaries(t *testing.T) {
	got := truncateRunes("привет мир", 6)
	if got != "привет" {
		t.Errorf("truncateRunes() = %q, want %q", got, "привет")
	}
	if !utf8.ValidString(got) {
		t.Error("truncateRunes produced invalid UTF-8")
	}
}
