package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/lexrag/lexrag/internal/pipeline"
)

// KeywordIndex stores passages in a SQLite FTS5 table for full-text search,
// and tracks the latest known version per document.
type KeywordIndex struct {
	db *sql.DB
}

const keywordSchema = `
CREATE TABLE IF NOT EXISTS documents (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    latest_version TEXT NOT NULL,
    updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE VIRTUAL TABLE IF NOT EXISTS passages USING fts5(
    content,
    passage_id UNINDEXED,
    doc_id UNINDEXED,
    doc_name UNINDEXED,
    version UNINDEXED,
    section UNINDEXED,
    page UNINDEXED
);
`

// KeywordDBPath returns the keyword index database path under dataDir.
func KeywordDBPath(dataDir string) string {
	return filepath.Join(dataDir, "keyword.db")
}

// OpenKeywordIndex creates or opens the keyword index database at path.
func OpenKeywordIndex(path string) (*KeywordIndex, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	// _txlock=immediate takes the write lock at BEGIN, so concurrent write
	// transactions queue on busy_timeout instead of failing on lock upgrade.
	db, err := sql.Open("sqlite", path+"?_txlock=immediate&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening keyword index: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging keyword index: %w", err)
	}
	if _, err := db.Exec(keywordSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating keyword schema: %w", err)
	}

	return &KeywordIndex{db: db}, nil
}

// OpenMemoryKeywordIndex creates an in-memory keyword index (useful for testing).
func OpenMemoryKeywordIndex() (*KeywordIndex, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory keyword index: %w", err)
	}
	// Each sqlite connection gets its own private in-memory database, so the
	// pool must stay at a single connection.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(keywordSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating keyword schema: %w", err)
	}
	return &KeywordIndex{db: db}, nil
}

// Add stores the given passages in the FTS table. Existing rows with the
// same passage ID are replaced.
func (k *KeywordIndex) Add(ctx context.Context, passages []Passage) error {
	tx, err := k.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	del, err := tx.PrepareContext(ctx, `DELETE FROM passages WHERE passage_id = ?`)
	if err != nil {
		return fmt.Errorf("preparing delete: %w", err)
	}
	defer del.Close()

	ins, err := tx.PrepareContext(ctx, `
		INSERT INTO passages (content, passage_id, doc_id, doc_name, version, section, page)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer ins.Close()

	for _, p := range passages {
		if _, err := del.ExecContext(ctx, p.ID); err != nil {
			return fmt.Errorf("deleting passage %s: %w", p.ID, err)
		}
		if _, err := ins.ExecContext(ctx, p.Content, p.ID, p.DocumentID, p.DocumentName, p.DocumentVersion, p.Section, strconv.Itoa(p.Page)); err != nil {
			return fmt.Errorf("inserting passage %s: %w", p.ID, err)
		}
	}

	return tx.Commit()
}

// Search returns up to limit passages ranked by BM25, with scores normalized
// to (0, 1).
func (k *KeywordIndex) Search(ctx context.Context, query string, limit int) ([]pipeline.SearchHit, error) {
	if limit <= 0 {
		limit = 10
	}

	match := buildMatchQuery(query)
	if match == "" {
		return nil, nil
	}

	rows, err := k.db.QueryContext(ctx, `
		SELECT doc_id, doc_name, version, section, page, content, bm25(passages) AS rank
		FROM passages
		WHERE passages MATCH ?
		ORDER BY rank
		LIMIT ?`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	defer rows.Close()

	var hits []pipeline.SearchHit
	for rows.Next() {
		var h pipeline.SearchHit
		var page string
		var rank float64
		if err := rows.Scan(&h.DocumentID, &h.DocumentName, &h.DocumentVersion, &h.Section, &page, &h.Content, &rank); err != nil {
			return nil, fmt.Errorf("scanning search row: %w", err)
		}
		h.Page, _ = strconv.Atoi(page)
		h.Score = normalizeBM25(rank)
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// RegisterDocument records a document version, keeping the highest version
// seen as the latest. The compare-and-upsert runs in one transaction so
// concurrent registrations cannot interleave and persist a lower version.
func (k *KeywordIndex) RegisterDocument(ctx context.Context, docID, name, version string) error {
	tx, err := k.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("registering document %s: %w", docID, err)
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx, `SELECT latest_version FROM documents WHERE id = ?`, docID).Scan(&current)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("looking up document %s: %w", docID, err)
	}
	if current != "" && compareVersions(version, current) <= 0 {
		return nil
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (id, name, latest_version, updated_at)
		VALUES (?, ?, ?, datetime('now'))
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			latest_version = excluded.latest_version,
			updated_at = excluded.updated_at`,
		docID, name, version)
	if err != nil {
		return fmt.Errorf("upserting document %s: %w", docID, err)
	}
	return tx.Commit()
}

// LatestVersion returns the latest known version for a document, or "" if
// the document is not registered.
func (k *KeywordIndex) LatestVersion(ctx context.Context, docID string) (string, error) {
	var version string
	err := k.db.QueryRowContext(ctx, `SELECT latest_version FROM documents WHERE id = ?`, docID).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("looking up document %s: %w", docID, err)
	}
	return version, nil
}

// Close closes the underlying database.
func (k *KeywordIndex) Close() error {
	return k.db.Close()
}

// buildMatchQuery turns free text into an FTS5 MATCH expression: each token
// is quoted and the tokens are OR-joined so partial matches still rank.
func buildMatchQuery(text string) string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !(r == '\'' || r == '-' ||
			('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') ||
			('0' <= r && r <= '9') || r > 127)
	})

	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, "'-")
		if f == "" {
			continue
		}
		terms = append(terms, `"`+strings.ReplaceAll(f, `"`, ``)+`"`)
	}
	return strings.Join(terms, " OR ")
}

// normalizeBM25 maps SQLite's bm25() output (lower is better, typically
// negative) into (0, 1) with better matches scoring higher.
func normalizeBM25(rank float64) float64 {
	b := -rank
	if b < 0 {
		b = 0
	}
	return b / (1 + b)
}

// compareVersions compares two version strings numerically segment by
// segment ("2.0" > "1.10" > "1.9"), falling back to lexical comparison for
// non-numeric segments. Returns -1, 0 or 1.
func compareVersions(a, b string) int {
	as := strings.Split(strings.TrimPrefix(a, "v"), ".")
	bs := strings.Split(strings.TrimPrefix(b, "v"), ".")

	for i := 0; i < len(as) || i < len(bs); i++ {
		var sa, sb string
		if i < len(as) {
			sa = as[i]
		}
		if i < len(bs) {
			sb = bs[i]
		}
		na, errA := strconv.Atoi(sa)
		nb, errB := strconv.Atoi(sb)
		switch {
		case errA == nil && errB == nil:
			if na != nb {
				if na < nb {
					return -1
				}
				return 1
			}
		default:
			if sa != sb {
				if sa < sb {
					return -1
				}
				return 1
			}
		}
	}
	return 0
}
