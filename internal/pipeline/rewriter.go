package pipeline

import (
	"context"
	"time"

	"github.com/lexrag/lexrag/internal/llm"
)

// Rewriter expands one user query into search-oriented variants. Variant 0
// is always the verbatim query; rewriting failure only reduces capability,
// never fails the pipeline.
type Rewriter struct {
	provider    llm.Provider
	model       string
	maxVariants int
	timeout     time.Duration
}

func newRewriter(provider llm.Provider, cfg Config) *Rewriter {
	return &Rewriter{
		provider:    provider,
		model:       cfg.GenerationModel,
		maxVariants: cfg.MaxVariants,
		timeout:     cfg.RewriteTimeout,
	}
}

// Rewrite returns at least one variant. The model is asked once, under a
// timeout, for alternative phrasings; on timeout or malformed output the
// rewriter degrades to the original query alone.
func (r *Rewriter) Rewrite(ctx context.Context, q Query, tr *trace) []QueryVariant {
	variants := []QueryVariant{{Index: 0, Text: q.Text}}
	if r.maxVariants <= 1 || r.provider == nil {
		return variants
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	resp, err := r.provider.Complete(callCtx, llm.CompletionRequest{
		Model: r.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: rewriteSystemPrompt},
			{Role: llm.RoleUser, Content: buildRewritePrompt(q.Text, r.maxVariants-1)},
		},
		MaxTokens:   512,
		Temperature: 0.7,
	})
	if err != nil {
		tr.log(StageRewrite, LevelWarn, "query rewriting degraded, using original query only",
			map[string]any{"error": err.Error()})
		return variants
	}

	parsed := parseRewriteOutput(resp.Content, q.Text)
	if len(parsed) == 0 {
		tr.log(StageRewrite, LevelWarn, "query rewriting produced no usable variants",
			map[string]any{"raw_length": len(resp.Content)})
		return variants
	}

	for _, text := range parsed {
		if len(variants) >= r.maxVariants {
			break
		}
		variants = append(variants, QueryVariant{Index: len(variants), Text: text})
	}
	return variants
}
