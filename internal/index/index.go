// Package index implements the document index consumed by the query
// pipeline: vector similarity search over chromem-go, keyword search over a
// SQLite FTS5 table, and a per-document latest-version registry.
package index

import (
	"context"
	"fmt"

	"github.com/lexrag/lexrag/internal/pipeline"
)

// Passage is one ingested chunk stored in both indexes.
type Passage struct {
	ID              string `json:"id"`
	DocumentID      string `json:"document_id"`
	DocumentName    string `json:"document_name"`
	DocumentVersion string `json:"document_version"`
	Section         string `json:"section"`
	Page            int    `json:"page,omitempty"`
	Content         string `json:"content"`
}

// Client combines the vector and keyword indexes over one corpus. It
// satisfies pipeline.IndexClient.
type Client struct {
	vector  *VectorIndex
	keyword *KeywordIndex
}

// NewClient creates a combined index client.
func NewClient(vector *VectorIndex, keyword *KeywordIndex) *Client {
	return &Client{vector: vector, keyword: keyword}
}

// VectorSearch performs semantic similarity search.
func (c *Client) VectorSearch(ctx context.Context, query string, limit int) ([]pipeline.SearchHit, error) {
	return c.vector.Search(ctx, query, limit)
}

// KeywordSearch performs full-text search.
func (c *Client) KeywordSearch(ctx context.Context, query string, limit int) ([]pipeline.SearchHit, error) {
	return c.keyword.Search(ctx, query, limit)
}

// LatestVersion returns the latest known version of a document, or "" if the
// document is not registered.
func (c *Client) LatestVersion(ctx context.Context, documentID string) (string, error) {
	return c.keyword.LatestVersion(ctx, documentID)
}

// Add stores passages in both indexes and registers their document versions.
func (c *Client) Add(ctx context.Context, passages []Passage) error {
	if len(passages) == 0 {
		return nil
	}
	if err := c.vector.Add(ctx, passages); err != nil {
		return fmt.Errorf("adding to vector index: %w", err)
	}
	if err := c.keyword.Add(ctx, passages); err != nil {
		return fmt.Errorf("adding to keyword index: %w", err)
	}
	for _, p := range passages {
		if err := c.keyword.RegisterDocument(ctx, p.DocumentID, p.DocumentName, p.DocumentVersion); err != nil {
			return fmt.Errorf("registering document %s: %w", p.DocumentID, err)
		}
	}
	return nil
}

// Count returns the number of passages in the vector index.
func (c *Client) Count() int {
	return c.vector.Count()
}

// Persist saves the vector index under dir. The keyword index persists
// through its SQLite file and needs no explicit save.
func (c *Client) Persist(ctx context.Context, dir string) error {
	return c.vector.Persist(ctx, dir)
}

// Load restores the vector index from dir.
func (c *Client) Load(ctx context.Context, dir string) error {
	return c.vector.Load(ctx, dir)
}

// Close releases the keyword index's database handle.
func (c *Client) Close() error {
	return c.keyword.Close()
}
