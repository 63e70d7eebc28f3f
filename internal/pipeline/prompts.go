package pipeline

import (
	"fmt"
	"regexp"
	"strings"
)

const rewriteSystemPrompt = `You reformulate legal and compliance questions into search queries.
Given a question, produce alternative phrasings and focused sub-questions that
would help retrieve relevant passages from a corpus of contracts, policies and
regulations. Output one query per line with no numbering, bullets or
commentary. Do not repeat the original question.`

const answerSystemPrompt = `You are a legal and compliance assistant. Answer the question using ONLY the
numbered source passages provided. Cite every claim with the matching bracket
reference, e.g. [1] or [2]. If the sources do not contain the answer, say so
plainly. Do not invent citation numbers that are not in the sources.`

// buildRewritePrompt asks for up to n alternative search phrasings.
func buildRewritePrompt(query string, n int) string {
	return fmt.Sprintf("Produce up to %d alternative search queries for this question:\n\n%s", n, query)
}

// buildAnswerPrompt assembles the generation prompt from the compressed
// segments and the question. Each segment is prefixed with its citation
// index so the model can emit matching bracket references.
func buildAnswerPrompt(q Query, segments []CompressedSegment) string {
	var b strings.Builder

	b.WriteString("Source passages:\n\n")
	for _, seg := range segments {
		src := seg.Source
		fmt.Fprintf(&b, "[%d] %s (version %s", seg.CitationIndex, src.DocumentName, src.DocumentVersion)
		if src.Section != "" {
			fmt.Fprintf(&b, ", %s", src.Section)
		}
		if src.Page > 0 {
			fmt.Fprintf(&b, ", p. %d", src.Page)
		}
		b.WriteString(")\n")
		b.WriteString(seg.Text)
		b.WriteString("\n\n")
	}

	b.WriteString("Question: ")
	b.WriteString(q.Text)
	return b.String()
}

// listMarkerPattern matches a leading list marker ("1. ", "2) ", "- ", "* ",
// "• ") and nothing more, so variants that legitimately start with digits,
// like "30-day notice", survive intact.
var listMarkerPattern = regexp.MustCompile(`^(?:\d{1,3}[.)]|[-*•])\s+`)

// parseRewriteOutput extracts clean variant texts from the model's response:
// one per line, list markers stripped, blank and duplicate lines dropped.
// The original query is never included.
func parseRewriteOutput(output, original string) []string {
	seen := map[string]bool{normalizeQuery(original): true}

	var variants []string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		line = listMarkerPattern.ReplaceAllString(line, "")
		line = strings.Trim(line, `"`)
		if line == "" {
			continue
		}
		key := normalizeQuery(line)
		if seen[key] {
			continue
		}
		seen[key] = true
		variants = append(variants, line)
	}
	return variants
}

func normalizeQuery(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
