// Package corpus loads pre-chunked passage files into the document index.
// Input is JSONL: one passage object per line. Chunking itself happens
// upstream; the loader only validates, identifies and indexes passages.
package corpus

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/lexrag/lexrag/internal/index"
	"github.com/lexrag/lexrag/internal/progress"
)

// maxLineBytes bounds a single JSONL line; passages are chunk-sized.
const maxLineBytes = 1 << 20

// Stats summarizes one load run.
type Stats struct {
	Files     int
	Passages  int
	Documents int
}

// Loader reads passage files and feeds them to the index.
type Loader struct {
	index    *index.Client
	reporter progress.Reporter
}

// NewLoader creates a loader. reporter may be nil.
func NewLoader(idx *index.Client, reporter progress.Reporter) *Loader {
	if reporter == nil {
		reporter = progress.NopReporter{}
	}
	return &Loader{index: idx, reporter: reporter}
}

// Load expands the given doublestar glob patterns, reads every matched JSONL
// file and indexes its passages. Files are processed in sorted path order so
// repeated runs behave identically.
func (l *Loader) Load(ctx context.Context, patterns []string) (*Stats, error) {
	var files []string
	seen := make(map[string]bool)
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files matched patterns %v", patterns)
	}
	sort.Strings(files)

	l.reporter.Start(len(files))
	defer l.reporter.Finish()

	stats := &Stats{Files: len(files)}
	docs := make(map[string]bool)

	for i, path := range files {
		l.reporter.Update(i+1, path)

		passages, err := readPassageFile(path)
		if err != nil {
			return nil, err
		}
		if err := l.index.Add(ctx, passages); err != nil {
			return nil, fmt.Errorf("indexing %s: %w", path, err)
		}

		stats.Passages += len(passages)
		for _, p := range passages {
			docs[p.DocumentID] = true
		}
	}

	stats.Documents = len(docs)
	return stats, nil
}

func readPassageFile(path string) ([]index.Passage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var passages []index.Passage
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var p index.Passage
		if err := json.Unmarshal(line, &p); err != nil {
			return nil, fmt.Errorf("%s:%d: invalid passage: %w", path, lineNo, err)
		}
		if p.DocumentID == "" || p.DocumentVersion == "" || p.Content == "" {
			return nil, fmt.Errorf("%s:%d: passage requires document_id, document_version and content", path, lineNo)
		}
		if p.DocumentName == "" {
			p.DocumentName = p.DocumentID
		}
		if p.ID == "" {
			p.ID = fmt.Sprintf("%s@%s/%s#%d", p.DocumentID, p.DocumentVersion, p.Section, lineNo)
		}
		passages = append(passages, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return passages, nil
}
