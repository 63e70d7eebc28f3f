package pipeline

import "context"

// SearchHit is one scored passage returned by the document index.
type SearchHit struct {
	DocumentID      string
	DocumentName    string
	DocumentVersion string
	Section         string
	Page            int
	Content         string
	Score           float64 // 0..1, per the index's own scoring
}

// IndexClient is the document index consumed by the pipeline. Both search
// methods return up to limit passages sorted by the index's own score. A
// timeout or error on one call is treated by the retriever as an empty
// result for that call.
type IndexClient interface {
	VectorSearch(ctx context.Context, query string, limit int) ([]SearchHit, error)
	KeywordSearch(ctx context.Context, query string, limit int) ([]SearchHit, error)
	// LatestVersion returns the latest known version for a document, or ""
	// if the document is unknown.
	LatestVersion(ctx context.Context, documentID string) (string, error)
}
