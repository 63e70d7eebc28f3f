package config

import (
	"fmt"
	"strconv"

	"github.com/manifoldco/promptui"
)

// defaultModels maps each provider to a sensible generation model.
var defaultModels = map[ProviderType]string{
	ProviderOpenAI: "gpt-4o-mini",
	ProviderOllama: "llama3.1",
}

// defaultEmbeddingModels maps each provider to its default embedding model.
var defaultEmbeddingModels = map[ProviderType]string{
	ProviderOpenAI: "text-embedding-3-small",
	ProviderOllama: "nomic-embed-text",
}

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to lexrag! Let's configure your corpus assistant.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Provider selection.
	providerPrompt := promptui.Select{
		Label: "Select LLM provider",
		Items: []string{"openai", "ollama"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.Provider = ProviderType(providerStr)
	cfg.EmbeddingProvider = cfg.Provider

	// 2. Generation model.
	modelPrompt := promptui.Prompt{
		Label:   "Generation model",
		Default: defaultModels[cfg.Provider],
	}
	if cfg.Model, err = modelPrompt.Run(); err != nil {
		return nil, fmt.Errorf("model: %w", err)
	}

	// 3. Embedding model.
	embedPrompt := promptui.Prompt{
		Label:   "Embedding model",
		Default: defaultEmbeddingModels[cfg.Provider],
	}
	if cfg.EmbeddingModel, err = embedPrompt.Run(); err != nil {
		return nil, fmt.Errorf("embedding model: %w", err)
	}

	if cfg.Provider == ProviderOllama {
		dimPrompt := promptui.Prompt{
			Label:   "Embedding dimensions",
			Default: "768",
			Validate: func(s string) error {
				n, err := strconv.Atoi(s)
				if err != nil || n <= 0 {
					return fmt.Errorf("must be a positive integer")
				}
				return nil
			},
		}
		dimStr, err := dimPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("embedding dimensions: %w", err)
		}
		cfg.EmbeddingDimensions, _ = strconv.Atoi(dimStr)
	}

	// 4. Data directory.
	dataPrompt := promptui.Prompt{
		Label:   "Data directory for the index",
		Default: cfg.DataDir,
	}
	if cfg.DataDir, err = dataPrompt.Run(); err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	// 5. HTTP port.
	portPrompt := promptui.Prompt{
		Label:   "HTTP server port",
		Default: strconv.Itoa(cfg.Server.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 || n > 65535 {
				return fmt.Errorf("must be a port number between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("Configuration written to %s\n", path)
	if cfg.Provider == ProviderOpenAI {
		fmt.Printf("Remember to set %s before running queries.\n", APIKeyEnvVar(ProviderOpenAI))
	}
	fmt.Println("Next: run `lexrag corpus load <patterns>` to index your documents.")

	return cfg, nil
}
