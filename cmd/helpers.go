package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lexrag/lexrag/internal/config"
	"github.com/lexrag/lexrag/internal/embeddings"
	"github.com/lexrag/lexrag/internal/index"
	"github.com/lexrag/lexrag/internal/llm"
	"github.com/lexrag/lexrag/internal/pipeline"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `lexrag init` to create a config file", err)
	}
	return cfg, nil
}

// newLogger builds a zap logger writing to stderr, so stdout stays free for
// command output and the MCP protocol.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.LogLevel != "" {
		if err := level.Set(cfg.LogLevel); err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
		}
	}
	if verbose {
		level = zapcore.DebugLevel
	}

	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	return zc.Build()
}

// createEmbedderFromConfig creates an embeddings.Embedder based on config.
func createEmbedderFromConfig(cfg *config.Config) (embeddings.Embedder, error) {
	provider := cfg.EmbeddingProvider
	if provider == "" {
		provider = cfg.Provider
	}

	switch provider {
	case config.ProviderOpenAI:
		apiKey := os.Getenv(config.APIKeyEnvVar(config.ProviderOpenAI))
		if apiKey == "" {
			return nil, fmt.Errorf("%s environment variable is required for OpenAI embeddings", config.APIKeyEnvVar(config.ProviderOpenAI))
		}
		return embeddings.NewOpenAIEmbedder(apiKey, embeddings.OpenAIModel(cfg.EmbeddingModel)), nil
	case config.ProviderOllama:
		return embeddings.NewOllamaEmbedder(cfg.EmbeddingModel, cfg.EmbeddingDimensions, ""), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider %q", provider)
	}
}

// createProviderFromConfig creates the generation LLM provider, applying the
// configured rate limit.
func createProviderFromConfig(cfg *config.Config) (llm.Provider, error) {
	provider, err := llm.NewProvider(string(cfg.Provider), cfg.Model)
	if err != nil {
		return nil, err
	}
	if cfg.RequestsPerMinute > 0 {
		provider = llm.NewRateLimitedProvider(provider, cfg.RequestsPerMinute)
	}
	return provider, nil
}

// openIndex builds the hybrid index client and loads any persisted vector
// data from the data directory. A missing vector export is not an error; the
// index starts empty.
func openIndex(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*index.Client, error) {
	embedder, err := createEmbedderFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	vector, err := index.NewVectorIndex(embedder)
	if err != nil {
		return nil, fmt.Errorf("creating vector index: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	keyword, err := index.OpenKeywordIndex(index.KeywordDBPath(cfg.DataDir))
	if err != nil {
		return nil, fmt.Errorf("opening keyword index: %w", err)
	}

	client := index.NewClient(vector, keyword)
	if err := client.Load(ctx, cfg.DataDir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Debug("no persisted vector index found", zap.String("dir", cfg.DataDir))
		} else {
			logger.Warn("could not load vector index; starting empty",
				zap.String("dir", cfg.DataDir),
				zap.Error(err))
		}
	}
	return client, nil
}

// buildPipeline wires the full query pipeline from config.
func buildPipeline(cfg *config.Config, idx *index.Client, logger *zap.Logger) (*pipeline.Pipeline, error) {
	provider, err := createProviderFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}
	return pipeline.New(cfg.Pipeline.ToPipeline(cfg.Model), idx, provider, logger), nil
}
