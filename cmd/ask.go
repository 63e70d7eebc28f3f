package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lexrag/lexrag/internal/pipeline"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from the indexed corpus",
	Long: `Runs the full query pipeline for a single question and prints the cited
answer. Pipeline progress is streamed to stderr as it happens.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().Bool("json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

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

	pipe, err := buildPipeline(cfg, idx, logger)
	if err != nil {
		return err
	}

	q := pipeline.Query{ID: uuid.NewString(), Text: args[0]}

	var answer *pipeline.Answer
	for ev := range pipe.Stream(ctx, q) {
		switch ev.Type {
		case pipeline.EventLog:
			if ev.Log.Level == pipeline.LevelDebug && !verbose {
				continue
			}
			fmt.Fprintf(os.Stderr, "[%s] %s\n", ev.Log.Stage, ev.Log.Message)
		case pipeline.EventAnswer:
			answer = ev.Answer
		case pipeline.EventError:
			return fmt.Errorf("%s", ev.Err.Message)
		}
	}
	if answer == nil {
		return fmt.Errorf("query canceled")
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(answer)
	}

	printAnswer(answer)
	return nil
}

func printAnswer(answer *pipeline.Answer) {
	fmt.Println()
	fmt.Println(answer.Text)
	fmt.Println()
	fmt.Printf("Confidence: %d/100\n", answer.Confidence)

	for _, w := range answer.VersionWarnings {
		fmt.Printf("Warning: %s\n", w)
	}

	if len(answer.Citations) > 0 {
		fmt.Println()
		fmt.Println("Sources:")
		for _, c := range answer.Citations {
			var loc []string
			if c.Section != "" {
				loc = append(loc, c.Section)
			}
			if c.Page > 0 {
				loc = append(loc, fmt.Sprintf("p. %d", c.Page))
			}
			line := fmt.Sprintf("  [%d] %s (version %s", c.Index, c.DocumentName, c.DocumentVersion)
			if len(loc) > 0 {
				line += ", " + strings.Join(loc, ", ")
			}
			fmt.Println(line + ")")
		}
	}
}
