package pipeline

import "time"

// Config holds the pipeline tunables. Zero values are replaced by defaults
// via withDefaults, so a partially filled Config is safe to use.
type Config struct {
	// MaxVariants caps the query variants produced by rewriting, including
	// the original query at index 0.
	MaxVariants int
	// RetrievalLimit is the per-call candidate cap (K) for each search.
	RetrievalLimit int
	// RerankTopN is the number of ranked candidates kept for compression.
	RerankTopN int

	// Score fusion weights.
	VectorWeight  float64
	KeywordWeight float64
	MethodBonus   float64

	// ContextBudget is the total character budget for compressed context.
	ContextBudget int
	// CandidateCap is the per-candidate character cap before budgeting.
	CandidateCap int
	// MinFragment is the smallest useful fragment; remaining budget below
	// this skips the candidate instead of truncating it.
	MinFragment int

	// OverlapThreshold is the content overlap fraction above which two
	// candidates from the same document version are collapsed.
	OverlapThreshold float64

	// OutdatedPenalty is the multiplicative confidence factor applied when
	// an outdated document version was cited. Must be in (0, 1].
	OutdatedPenalty float64

	// RewriteTimeout bounds the single rewrite model call.
	RewriteTimeout time.Duration
	// SearchTimeout bounds each individual index search call.
	SearchTimeout time.Duration

	// GenerationModel is the model name passed to the generation client.
	GenerationModel string
	// GenerationMaxTokens caps the generated answer length.
	GenerationMaxTokens int
	// GenerationRetries is the total number of generation attempts before
	// the query fails.
	GenerationRetries int
}

// DefaultConfig returns the default pipeline tunables.
func DefaultConfig() Config {
	return Config{
		MaxVariants:         4,
		RetrievalLimit:      10,
		RerankTopN:          8,
		VectorWeight:        0.6,
		KeywordWeight:       0.3,
		MethodBonus:         0.1,
		ContextBudget:       6000,
		CandidateCap:        1200,
		MinFragment:         200,
		OverlapThreshold:    0.6,
		OutdatedPenalty:     0.85,
		RewriteTimeout:      10 * time.Second,
		SearchTimeout:       5 * time.Second,
		GenerationMaxTokens: 1024,
		GenerationRetries:   2,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxVariants <= 0 {
		c.MaxVariants = d.MaxVariants
	}
	if c.RetrievalLimit <= 0 {
		c.RetrievalLimit = d.RetrievalLimit
	}
	if c.RerankTopN <= 0 {
		c.RerankTopN = d.RerankTopN
	}
	if c.VectorWeight == 0 && c.KeywordWeight == 0 && c.MethodBonus == 0 {
		c.VectorWeight = d.VectorWeight
		c.KeywordWeight = d.KeywordWeight
		c.MethodBonus = d.MethodBonus
	}
	if c.ContextBudget <= 0 {
		c.ContextBudget = d.ContextBudget
	}
	if c.CandidateCap <= 0 {
		c.CandidateCap = d.CandidateCap
	}
	if c.MinFragment <= 0 {
		c.MinFragment = d.MinFragment
	}
	if c.OverlapThreshold <= 0 {
		c.OverlapThreshold = d.OverlapThreshold
	}
	if c.OutdatedPenalty <= 0 || c.OutdatedPenalty > 1 {
		c.OutdatedPenalty = d.OutdatedPenalty
	}
	if c.RewriteTimeout <= 0 {
		c.RewriteTimeout = d.RewriteTimeout
	}
	if c.SearchTimeout <= 0 {
		c.SearchTimeout = d.SearchTimeout
	}
	if c.GenerationMaxTokens <= 0 {
		c.GenerationMaxTokens = d.GenerationMaxTokens
	}
	if c.GenerationRetries <= 0 {
		c.GenerationRetries = d.GenerationRetries
	}
	return c
}
