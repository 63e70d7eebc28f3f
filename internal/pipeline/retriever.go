package pipeline

import (
	"context"
	"sync"
	"time"
)

// Retriever runs one vector and one keyword search per variant, all
// concurrently, each bounded by its own timeout. Partial failures are
// absorbed; only the loss of every call fails the stage.
type Retriever struct {
	index   IndexClient
	limit   int
	timeout time.Duration
}

func newRetriever(index IndexClient, cfg Config) *Retriever {
	return &Retriever{
		index:   index,
		limit:   cfg.RetrievalLimit,
		timeout: cfg.SearchTimeout,
	}
}

// searchResult is the outcome of one method/variant call.
type searchResult struct {
	hits []SearchHit
	err  error
}

// Retrieve returns the flattened union of all returned candidates, tagged
// with their originating variant and method. Output order is not
// significant; ordering is reimposed downstream.
func (r *Retriever) Retrieve(ctx context.Context, variants []QueryVariant, tr *trace) ([]Candidate, error) {
	methods := []SearchMethod{MethodVector, MethodKeyword}
	results := make(map[int]map[SearchMethod]searchResult, len(variants))
	for _, v := range variants {
		results[v.Index] = make(map[SearchMethod]searchResult, len(methods))
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, v := range variants {
		for _, m := range methods {
			wg.Add(1)
			go func(v QueryVariant, m SearchMethod) {
				defer wg.Done()

				callCtx, cancel := context.WithTimeout(ctx, r.timeout)
				defer cancel()

				var hits []SearchHit
				var err error
				switch m {
				case MethodVector:
					hits, err = r.index.VectorSearch(callCtx, v.Text, r.limit)
				case MethodKeyword:
					hits, err = r.index.KeywordSearch(callCtx, v.Text, r.limit)
				}

				mu.Lock()
				results[v.Index][m] = searchResult{hits: hits, err: err}
				mu.Unlock()
			}(v, m)
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Report failures and assemble candidates in deterministic variant then
	// method order, so the trace is reproducible.
	var candidates []Candidate
	failed := 0
	for _, v := range variants {
		for _, m := range methods {
			res := results[v.Index][m]
			if res.err != nil {
				failed++
				tr.log(StageRetrieve, LevelWarn, "search call failed", map[string]any{
					"variant": v.Index,
					"method":  string(m),
					"error":   res.err.Error(),
				})
				continue
			}
			for _, h := range res.hits {
				candidates = append(candidates, hitToCandidate(h, m, v.Index))
			}
		}
	}

	total := len(variants) * len(methods)
	if failed == total {
		return nil, &RetrievalError{Calls: total}
	}
	if failed > 0 {
		tr.log(StageRetrieve, LevelWarn, "retrieval partially degraded", map[string]any{
			"failed_calls": failed,
			"total_calls":  total,
		})
	}
	return candidates, nil
}

func hitToCandidate(h SearchHit, method SearchMethod, variant int) Candidate {
	c := Candidate{
		DocumentID:      h.DocumentID,
		DocumentName:    h.DocumentName,
		DocumentVersion: h.DocumentVersion,
		Section:         h.Section,
		Page:            h.Page,
		Content:         h.Content,
		Method:          method,
		VariantIndex:    variant,
	}
	switch method {
	case MethodVector:
		c.VectorScore = h.Score
	case MethodKeyword:
		c.KeywordScore = h.Score
	}
	return c
}
