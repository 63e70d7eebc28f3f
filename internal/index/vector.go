package index

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	chromem "github.com/philippgille/chromem-go"

	"github.com/lexrag/lexrag/internal/embeddings"
	"github.com/lexrag/lexrag/internal/pipeline"
)

const collectionName = "corpus"

// VectorIndex stores passage embeddings in chromem-go and answers semantic
// similarity queries.
type VectorIndex struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedFunc  chromem.EmbeddingFunc
}

// NewVectorIndex creates a new in-memory vector index using the given
// embedder for both ingestion and queries.
func NewVectorIndex(embedder embeddings.Embedder) (*VectorIndex, error) {
	db := chromem.NewDB()
	ef := embeddings.ToChromemFunc(embedder)

	col, err := db.GetOrCreateCollection(collectionName, nil, ef)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	return &VectorIndex{db: db, collection: col, embedFunc: ef}, nil
}

// Add embeds and stores the given passages.
func (v *VectorIndex) Add(ctx context.Context, passages []Passage) error {
	if len(passages) == 0 {
		return nil
	}

	docs := make([]chromem.Document, len(passages))
	for i, p := range passages {
		docs[i] = chromem.Document{
			ID:      p.ID,
			Content: p.Content,
			Metadata: map[string]string{
				"doc_id":   p.DocumentID,
				"doc_name": p.DocumentName,
				"version":  p.DocumentVersion,
				"section":  p.Section,
				"page":     strconv.Itoa(p.Page),
			},
		}
	}

	return v.collection.AddDocuments(ctx, docs, 1)
}

// Search returns up to limit passages ranked by cosine similarity.
func (v *VectorIndex) Search(ctx context.Context, query string, limit int) ([]pipeline.SearchHit, error) {
	if limit <= 0 {
		limit = 10
	}

	// chromem-go requires nResults <= collection size.
	count := v.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if limit > count {
		limit = count
	}

	results, err := v.collection.Query(ctx, query, limit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	hits := make([]pipeline.SearchHit, len(results))
	for i, r := range results {
		page, _ := strconv.Atoi(r.Metadata["page"])
		hits[i] = pipeline.SearchHit{
			DocumentID:      r.Metadata["doc_id"],
			DocumentName:    r.Metadata["doc_name"],
			DocumentVersion: r.Metadata["version"],
			Section:         r.Metadata["section"],
			Page:            page,
			Content:         r.Content,
			Score:           float64(r.Similarity),
		}
	}
	return hits, nil
}

// Count returns the number of stored passages.
func (v *VectorIndex) Count() int {
	return v.collection.Count()
}

// Persist exports the index to a compressed file under dir.
func (v *VectorIndex) Persist(ctx context.Context, dir string) error {
	return v.db.ExportToFile(filepath.Join(dir, "vectors.gob.gz"), true, "")
}

// Load restores the index from a previous Persist.
func (v *VectorIndex) Load(ctx context.Context, dir string) error {
	if err := v.db.ImportFromFile(filepath.Join(dir, "vectors.gob.gz"), ""); err != nil {
		return fmt.Errorf("import from file: %w", err)
	}

	// Re-acquire collection reference after import.
	col := v.db.GetCollection(collectionName, v.embedFunc)
	if col == nil {
		return fmt.Errorf("collection %q not found after import", collectionName)
	}
	v.collection = col
	return nil
}
