// Package pipeline implements the query-processing pipeline: query
// rewriting, hybrid retrieval, deduplication, reranking, context
// compression, version analysis and streamed answer generation with
// citation binding.
package pipeline

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/lexrag/lexrag/internal/llm"
)

// Pipeline sequences the query stages, emits progress events and yields the
// final answer or error. Pipelines are safe for concurrent use: each query
// is processed independently with no shared mutable state.
type Pipeline struct {
	cfg        Config
	logger     *zap.Logger
	rewriter   *Rewriter
	retriever  *Retriever
	dedup      *Deduplicator
	reranker   *Reranker
	compressor *Compressor
	generator  *Generator
}

// New creates a pipeline over the given index and generation provider. The
// provider is wrapped with the configured generation retry budget; zero
// config fields fall back to defaults.
func New(cfg Config, index IndexClient, provider llm.Provider, logger *zap.Logger) *Pipeline {
	cfg = cfg.withDefaults()
	retrying := llm.NewRetryProvider(provider, cfg.GenerationRetries, 0)

	return &Pipeline{
		cfg:        cfg,
		logger:     logger,
		rewriter:   newRewriter(provider, cfg),
		retriever:  newRetriever(index, cfg),
		dedup:      newDeduplicator(cfg),
		reranker:   newReranker(cfg),
		compressor: newCompressor(cfg),
		generator:  newGenerator(retrying, newVersionAnalyzer(index), cfg),
	}
}

// Stream processes the query and returns its event stream: zero or more log
// events followed by exactly one answer or error terminal. If ctx is
// canceled the stream closes without a terminal event and outstanding
// external calls are aborted.
func (p *Pipeline) Stream(ctx context.Context, q Query) <-chan Event {
	out := make(chan Event)
	go func() {
		defer close(out)
		tr := &trace{ctx: ctx, out: out, logger: p.logger, queryID: q.ID}
		p.run(ctx, q, tr)
	}()
	return out
}

// Ask processes the query synchronously and returns only the terminal
// result. Trace events still reach the service logger.
func (p *Pipeline) Ask(ctx context.Context, q Query) (*Answer, error) {
	events := make(chan Event, 16)
	done := make(chan struct{})
	go func() {
		for range events {
		}
		close(done)
	}()

	tr := &trace{ctx: ctx, out: events, logger: p.logger, queryID: q.ID}
	answer, err := p.run(ctx, q, tr)
	close(events)
	<-done
	return answer, err
}

// run executes the stage sequence. Stages advance strictly forward; no stage
// re-executes. The terminal event is emitted here unless the context was
// canceled first.
func (p *Pipeline) run(ctx context.Context, q Query, tr *trace) (*Answer, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, p.fail(ctx, tr, ErrEmptyQuery)
	}

	tr.log(StageStart, LevelInfo, "processing query", map[string]any{"length": len(q.Text)})

	// REWRITE: degradation here is a capability reduction, never a failure.
	variants := p.rewriter.Rewrite(ctx, q, tr)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tr.log(StageRewrite, LevelInfo, "query variants prepared", map[string]any{"variants": len(variants)})

	// RETRIEVE
	candidates, err := p.retriever.Retrieve(ctx, variants, tr)
	if err != nil {
		return nil, p.fail(ctx, tr, err)
	}
	tr.log(StageRetrieve, LevelInfo, "candidates retrieved", map[string]any{"candidates": len(candidates)})

	// DEDUP
	deduped := p.dedup.Dedup(candidates)
	tr.log(StageDedup, LevelInfo, "duplicates merged", map[string]any{
		"before": len(candidates),
		"after":  len(deduped),
	})

	// RERANK
	ranked := p.reranker.Rank(deduped)
	tr.log(StageRerank, LevelInfo, "candidates reranked", map[string]any{"kept": len(ranked)})

	// COMPRESS
	segments := p.compressor.Compress(ranked, tr)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tr.log(StageCompress, LevelInfo, "context compressed", map[string]any{"segments": len(segments)})

	// GENERATE, including version analysis of what the answer cites.
	answer, err := p.generator.Generate(ctx, q, segments, ranked, tr)
	if err != nil {
		return nil, p.fail(ctx, tr, err)
	}

	tr.log(StageDone, LevelInfo, "query answered", map[string]any{
		"citations":  len(answer.Citations),
		"confidence": answer.Confidence,
	})
	tr.send(Event{Type: EventAnswer, Answer: answer})
	return answer, nil
}

// fail emits the single error terminal with a user-safe message, unless the
// caller is already gone.
func (p *Pipeline) fail(ctx context.Context, tr *trace, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	tr.log(StageError, LevelError, "query failed", map[string]any{"error": err.Error()})
	tr.send(Event{Type: EventError, Err: &ErrorData{Message: userMessage(err)}})
	return err
}
