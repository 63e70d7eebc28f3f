package pipeline

import (
	"context"
	"errors"
	"io"
	"math"
	"regexp"
	"strconv"

	"github.com/lexrag/lexrag/internal/llm"
)

// noSourcesAnswer is returned without a model call when retrieval found
// nothing usable to cite.
const noSourcesAnswer = "No relevant passages were found in the document corpus for this question."

var citationRefPattern = regexp.MustCompile(`\[(\d+)\]`)

// Generator drives the generation model, binds the generated text's bracket
// references to citations and computes the answer confidence.
type Generator struct {
	provider        llm.Provider
	versions        *VersionAnalyzer
	model           string
	maxTokens       int
	outdatedPenalty float64
}

func newGenerator(provider llm.Provider, versions *VersionAnalyzer, cfg Config) *Generator {
	return &Generator{
		provider:        provider,
		versions:        versions,
		model:           cfg.GenerationModel,
		maxTokens:       cfg.GenerationMaxTokens,
		outdatedPenalty: cfg.OutdatedPenalty,
	}
}

// Generate produces the final Answer. Only segments the generated text
// actually references become citations; version analysis runs over those, so
// warnings never name a version the answer did not use. A provider failure
// after its retry budget is fatal for the query.
func (g *Generator) Generate(ctx context.Context, q Query, segments []CompressedSegment, ranked []RankedCandidate, tr *trace) (*Answer, error) {
	if len(segments) == 0 {
		tr.log(StageGenerate, LevelWarn, "no context segments available, returning fallback answer", nil)
		return &Answer{
			Text:            noSourcesAnswer,
			Citations:       []Citation{},
			Confidence:      0,
			VersionWarnings: []string{},
		}, nil
	}

	messages := []llm.Message{{Role: llm.RoleSystem, Content: answerSystemPrompt}}
	for _, turn := range q.History {
		role := llm.RoleUser
		if turn.Role == "assistant" {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{Role: role, Content: turn.Content})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: buildAnswerPrompt(q, segments)})

	text, err := g.complete(ctx, messages, tr)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, &GenerationError{Err: err}
	}

	text, cited := g.bindCitations(text, segments, tr)
	sources, warnings := g.versions.Analyze(ctx, cited, tr)
	if warnings == nil {
		warnings = []string{}
	}

	return &Answer{
		Text:            text,
		Citations:       projectCitations(cited),
		Confidence:      g.confidence(ranked, sources.HasOutdated),
		VersionWarnings: warnings,
		Sources:         sources,
	}, nil
}

// complete obtains the generated text, preferring an incremental stream so
// partial output can be re-emitted into the trace as it arrives.
func (g *Generator) complete(ctx context.Context, messages []llm.Message, tr *trace) (string, error) {
	req := llm.CompletionRequest{
		Model:       g.model,
		Messages:    messages,
		MaxTokens:   g.maxTokens,
		Temperature: 0.1,
	}

	if sp, ok := g.provider.(llm.StreamingProvider); ok {
		stream, err := sp.CompleteStream(ctx, req)
		if err == nil {
			return g.drain(stream, tr)
		}
		tr.log(StageGenerate, LevelWarn, "streaming unavailable, falling back to blocking completion",
			map[string]any{"error": err.Error()})
	}

	resp, err := g.provider.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// drain consumes the stream, re-emitting each fragment as a GENERATE trace
// event, and returns the accumulated text.
func (g *Generator) drain(stream llm.Stream, tr *trace) (string, error) {
	defer stream.Close()

	var text []byte
	for {
		frag, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return string(text), nil
		}
		if err != nil {
			return "", err
		}
		text = append(text, frag...)
		tr.log(StageGenerate, LevelDebug, frag, map[string]any{"partial": true})
	}
}

// bindCitations selects the segments the text references, numbered 1..N in
// first-reference order, and rewrites the text's bracket references to
// match. References naming a nonexistent segment are dropped from the
// citation list, logged once each, and left verbatim in the text. Segments
// the text never references produce no citation.
func (g *Generator) bindCitations(text string, segments []CompressedSegment, tr *trace) (string, []CompressedSegment) {
	byIndex := make(map[int]int, len(segments))
	for i, seg := range segments {
		byIndex[seg.CitationIndex] = i
	}

	renumbered := make(map[int]int)
	reported := make(map[int]bool)
	var cited []CompressedSegment

	out := citationRefPattern.ReplaceAllStringFunc(text, func(ref string) string {
		idx, err := strconv.Atoi(ref[1 : len(ref)-1])
		if err != nil {
			return ref
		}

		pos, ok := byIndex[idx]
		if !ok {
			if !reported[idx] {
				reported[idx] = true
				tr.log(StageGenerate, LevelWarn, "generated text references unknown citation, dropping it", map[string]any{
					"citation_index": idx,
					"segments":       len(segments),
				})
			}
			return ref
		}

		n, ok := renumbered[idx]
		if !ok {
			n = len(cited) + 1
			renumbered[idx] = n
			seg := segments[pos]
			seg.CitationIndex = n
			cited = append(cited, seg)
		}
		return "[" + strconv.Itoa(n) + "]"
	})
	return out, cited
}

// projectCitations maps cited segments into the answer's citation list.
func projectCitations(cited []CompressedSegment) []Citation {
	citations := make([]Citation, 0, len(cited))
	for _, seg := range cited {
		src := seg.Source
		citations = append(citations, Citation{
			Index:           seg.CitationIndex,
			DocumentName:    src.DocumentName,
			DocumentVersion: src.DocumentVersion,
			Section:         src.Section,
			Page:            src.Page,
			Excerpt:         seg.Text,
			Relevance:       src.FinalScore,
			Method:          src.Method,
		})
	}
	return citations
}

// confidence scales the mean of the top-3 final scores to 0..100, applying
// the outdated-version penalty when a stale source was cited.
func (g *Generator) confidence(ranked []RankedCandidate, hasOutdated bool) int {
	if len(ranked) == 0 {
		return 0
	}

	n := len(ranked)
	if n > 3 {
		n = 3
	}
	var sum float64
	for _, rc := range ranked[:n] {
		sum += rc.FinalScore
	}
	score := 100 * sum / float64(n)
	if hasOutdated {
		score *= g.outdatedPenalty
	}

	c := int(math.Round(score))
	if c < 0 {
		c = 0
	}
	if c > 100 {
		c = 100
	}
	return c
}
