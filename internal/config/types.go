package config

import (
	"time"

	"github.com/lexrag/lexrag/internal/pipeline"
)

// ProviderType identifies a model provider.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderOllama ProviderType = "ollama"
)

// Config is the top-level lexrag configuration, corresponding to .lexrag.yml.
type Config struct {
	Provider          ProviderType `yaml:"provider" koanf:"provider"`
	Model             string       `yaml:"model" koanf:"model"`
	EmbeddingProvider ProviderType `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string       `yaml:"embedding_model" koanf:"embedding_model"`
	// EmbeddingDimensions is required for Ollama embedding models, which do
	// not advertise their output size.
	EmbeddingDimensions int `yaml:"embedding_dimensions" koanf:"embedding_dimensions"`

	// DataDir holds the vector index export and the keyword index database.
	DataDir string `yaml:"data_dir" koanf:"data_dir"`

	Server   ServerConfig   `yaml:"server" koanf:"server"`
	Pipeline PipelineConfig `yaml:"pipeline" koanf:"pipeline"`

	// RequestsPerMinute rate-limits generation model calls. 0 disables the
	// limiter.
	RequestsPerMinute int `yaml:"requests_per_minute" koanf:"requests_per_minute"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" koanf:"log_level"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port     int  `yaml:"port" koanf:"port"`
	AllowAll bool `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}

// PipelineConfig holds the query pipeline tunables.
type PipelineConfig struct {
	MaxVariants       int     `yaml:"max_variants" koanf:"max_variants"`
	RetrievalLimit    int     `yaml:"retrieval_limit" koanf:"retrieval_limit"`
	RerankTopN        int     `yaml:"rerank_top_n" koanf:"rerank_top_n"`
	VectorWeight      float64 `yaml:"vector_weight" koanf:"vector_weight"`
	KeywordWeight     float64 `yaml:"keyword_weight" koanf:"keyword_weight"`
	MethodBonus       float64 `yaml:"method_bonus" koanf:"method_bonus"`
	ContextBudget     int     `yaml:"context_budget" koanf:"context_budget"`
	CandidateCap      int     `yaml:"candidate_cap" koanf:"candidate_cap"`
	MinFragment       int     `yaml:"min_fragment" koanf:"min_fragment"`
	OverlapThreshold  float64 `yaml:"overlap_threshold" koanf:"overlap_threshold"`
	OutdatedPenalty   float64 `yaml:"outdated_penalty" koanf:"outdated_penalty"`
	RewriteTimeoutSec int     `yaml:"rewrite_timeout_sec" koanf:"rewrite_timeout_sec"`
	SearchTimeoutSec  int     `yaml:"search_timeout_sec" koanf:"search_timeout_sec"`
	GenerationRetries int     `yaml:"generation_retries" koanf:"generation_retries"`
	MaxAnswerTokens   int     `yaml:"max_answer_tokens" koanf:"max_answer_tokens"`
}

// ToPipeline converts the YAML-facing tunables into the pipeline's Config.
func (p PipelineConfig) ToPipeline(model string) pipeline.Config {
	return pipeline.Config{
		MaxVariants:         p.MaxVariants,
		RetrievalLimit:      p.RetrievalLimit,
		RerankTopN:          p.RerankTopN,
		VectorWeight:        p.VectorWeight,
		KeywordWeight:       p.KeywordWeight,
		MethodBonus:         p.MethodBonus,
		ContextBudget:       p.ContextBudget,
		CandidateCap:        p.CandidateCap,
		MinFragment:         p.MinFragment,
		OverlapThreshold:    p.OverlapThreshold,
		OutdatedPenalty:     p.OutdatedPenalty,
		RewriteTimeout:      time.Duration(p.RewriteTimeoutSec) * time.Second,
		SearchTimeout:       time.Duration(p.SearchTimeoutSec) * time.Second,
		GenerationModel:     model,
		GenerationMaxTokens: p.MaxAnswerTokens,
		GenerationRetries:   p.GenerationRetries,
	}
}
