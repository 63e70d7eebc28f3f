package config

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Provider != ProviderOpenAI {
		t.Errorf("Provider = %q, want default %q", cfg.Provider, ProviderOpenAI)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Pipeline.MaxVariants != 4 {
		t.Errorf("Pipeline.MaxVariants = %d, want 4", cfg.Pipeline.MaxVariants)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".lexrag.yml")

	cfg := DefaultConfig()
	cfg.Provider = ProviderOllama
	cfg.Model = "llama3.1"
	cfg.EmbeddingProvider = ProviderOllama
	cfg.EmbeddingModel = "nomic-embed-text"
	cfg.EmbeddingDimensions = 768
	cfg.Server.Port = 9999
	cfg.Pipeline.MaxVariants = 6
	cfg.Pipeline.OverlapThreshold = 0.75

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if loaded.Provider != ProviderOllama {
		t.Errorf("Provider = %q, want %q", loaded.Provider, ProviderOllama)
	}
	if loaded.Model != "llama3.1" {
		t.Errorf("Model = %q, want llama3.1", loaded.Model)
	}
	if loaded.EmbeddingDimensions != 768 {
		t.Errorf("EmbeddingDimensions = %d, want 768", loaded.EmbeddingDimensions)
	}
	if loaded.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999", loaded.Server.Port)
	}
	if loaded.Pipeline.MaxVariants != 6 {
		t.Errorf("Pipeline.MaxVariants = %d, want 6", loaded.Pipeline.MaxVariants)
	}
	if loaded.Pipeline.OverlapThreshold != 0.75 {
		t.Errorf("Pipeline.OverlapThreshold = %v, want 0.75", loaded.Pipeline.OverlapThreshold)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("LEXRAG_MODEL", "gpt-4o")
	t.Setenv("LEXRAG_LOG_LEVEL", "debug")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Model != "gpt-4o" {
		t.Errorf("Model = %q, want env override gpt-4o", cfg.Model)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config { return DefaultConfig() }

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults are valid", func(c *Config) {}, ""},
		{"missing provider", func(c *Config) { c.Provider = "" }, "provider is required"},
		{"unknown provider", func(c *Config) { c.Provider = "claude" }, "invalid provider"},
		{"missing model", func(c *Config) { c.Model = "" }, "model is required"},
		{"ollama embeddings need dimensions", func(c *Config) {
			c.EmbeddingProvider = ProviderOllama
			c.EmbeddingDimensions = 0
		}, "embedding_dimensions"},
		{"missing data dir", func(c *Config) { c.DataDir = "" }, "data_dir is required"},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"negative weight", func(c *Config) { c.Pipeline.VectorWeight = -1 }, "non-negative"},
		{"overlap above one", func(c *Config) { c.Pipeline.OverlapThreshold = 1.5 }, "overlap_threshold"},
		{"zero penalty", func(c *Config) { c.Pipeline.OutdatedPenalty = 0 }, "outdated_penalty"},
		{"fragment above budget", func(c *Config) { c.Pipeline.MinFragment = 10000 }, "min_fragment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestToPipelineCarriesTunables(t *testing.T) {
	pc := DefaultConfig().Pipeline
	pc.MaxVariants = 5
	pc.SearchTimeoutSec = 7

	cfg := pc.ToPipeline("gpt-4o")
	if cfg.MaxVariants != 5 {
		t.Errorf("MaxVariants = %d, want 5", cfg.MaxVariants)
	}
	if cfg.SearchTimeout.Seconds() != 7 {
		t.Errorf("SearchTimeout = %v, want 7s", cfg.SearchTimeout)
	}
	if cfg.GenerationModel != "gpt-4o" {
		t.Errorf("GenerationModel = %q, want gpt-4o", cfg.GenerationModel)
	}
}

func TestAPIKeyEnvVar(t *testing.T) {
	if got := APIKeyEnvVar(ProviderOpenAI); got != "OPENAI_API_KEY" {
		t.Errorf("APIKeyEnvVar(openai) = %q", got)
	}
	if got := APIKeyEnvVar(ProviderOllama); got != "" {
		t.Errorf("APIKeyEnvVar(ollama) = %q, want empty", got)
	}
}
