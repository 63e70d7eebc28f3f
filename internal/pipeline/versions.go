package pipeline

import (
	"context"
	"fmt"
)

// VersionAnalyzer checks the documents the generated answer actually cites
// against the latest known version per document, and produces the
// sources-used summary and any staleness warnings.
type VersionAnalyzer struct {
	index IndexClient
}

func newVersionAnalyzer(index IndexClient) *VersionAnalyzer {
	return &VersionAnalyzer{index: index}
}

// Analyze returns the sources summary and one human-readable warning per
// outdated document version present in the cited segments. Documents whose
// latest version is unknown produce no warning.
func (a *VersionAnalyzer) Analyze(ctx context.Context, cited []CompressedSegment, tr *trace) (SourcesUsed, []string) {
	type docVersion struct{ id, version string }

	seenDoc := make(map[string]bool)
	seenPair := make(map[docVersion]bool)
	latestByDoc := make(map[string]string)

	var sources SourcesUsed
	var warnings []string

	for _, seg := range cited {
		src := seg.Source
		if !seenDoc[src.DocumentID] {
			seenDoc[src.DocumentID] = true
			sources.DocumentCount++

			latest, err := a.index.LatestVersion(ctx, src.DocumentID)
			if err != nil {
				tr.log(StageGenerate, LevelWarn, "latest version lookup failed", map[string]any{
					"document": src.DocumentID,
					"error":    err.Error(),
				})
			}
			latestByDoc[src.DocumentID] = latest
		}

		pair := docVersion{id: src.DocumentID, version: src.DocumentVersion}
		if seenPair[pair] {
			continue
		}
		seenPair[pair] = true
		sources.Versions = append(sources.Versions, fmt.Sprintf("%s %s", src.DocumentName, src.DocumentVersion))

		latest := latestByDoc[src.DocumentID]
		if latest != "" && src.DocumentVersion != latest {
			sources.HasOutdated = true
			warnings = append(warnings, fmt.Sprintf(
				"%s version %s is outdated; the latest known version is %s",
				src.DocumentName, src.DocumentVersion, latest))
		}
	}

	return sources, warnings
}
