package config

// DefaultConfig returns the configuration used when no file or overrides are
// present.
func DefaultConfig() *Config {
	return &Config{
		Provider:          ProviderOpenAI,
		Model:             "gpt-4o-mini",
		EmbeddingProvider: ProviderOpenAI,
		EmbeddingModel:    "text-embedding-3-small",
		DataDir:           ".lexrag",
		LogLevel:          "info",
		Server: ServerConfig{
			Port: 8080,
		},
		Pipeline: PipelineConfig{
			MaxVariants:       4,
			RetrievalLimit:    10,
			RerankTopN:        8,
			VectorWeight:      0.6,
			KeywordWeight:     0.3,
			MethodBonus:       0.1,
			ContextBudget:     6000,
			CandidateCap:      1200,
			MinFragment:       200,
			OverlapThreshold:  0.6,
			OutdatedPenalty:   0.85,
			RewriteTimeoutSec: 10,
			SearchTimeoutSec:  5,
			GenerationRetries: 2,
			MaxAnswerTokens:   1024,
		},
	}
}
