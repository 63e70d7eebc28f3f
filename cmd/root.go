package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "lexrag",
	Short: "Question answering over a versioned legal document corpus",
	Long: `Lexrag answers natural language questions from an indexed corpus of
legal and compliance documents. It rewrites each question into search
variants, runs hybrid vector and keyword retrieval, reranks and
compresses the results, and generates a cited answer with a confidence
score and document version warnings.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".lexrag.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
