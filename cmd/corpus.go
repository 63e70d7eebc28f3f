package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lexrag/lexrag/internal/corpus"
	"github.com/lexrag/lexrag/internal/progress"
)

var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Manage the document corpus index",
}

var corpusLoadCmd = &cobra.Command{
	Use:   "load [patterns...]",
	Short: "Index passage files into the corpus",
	Long: `Loads JSON Lines passage files matching the given glob patterns into both
the vector and the keyword index, then persists the vector index to the
data directory. Each line is one passage with document_id,
document_version and content fields.

Example:
  lexrag corpus load 'corpus/**/*.jsonl'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCorpusLoad,
}

func init() {
	corpusCmd.AddCommand(corpusLoadCmd)
	rootCmd.AddCommand(corpusCmd)
}

func runCorpusLoad(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := cmd.Context()
	idx, err := openIndex(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer idx.Close()

	loader := corpus.NewLoader(idx, progress.NewReporter())
	stats, err := loader.Load(ctx, args)
	if err != nil {
		return fmt.Errorf("loading corpus: %w", err)
	}

	if err := idx.Persist(ctx, cfg.DataDir); err != nil {
		return fmt.Errorf("persisting vector index: %w", err)
	}

	logger.Info("corpus loaded",
		zap.Int("files", stats.Files),
		zap.Int("passages", stats.Passages),
		zap.Int("documents", stats.Documents))

	fmt.Printf("Indexed %d passages from %d documents (%d files).\n",
		stats.Passages, stats.Documents, stats.Files)
	return nil
}
