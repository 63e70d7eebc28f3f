package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/lexrag/lexrag/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing the ask and search_corpus tools for AI agents like Claude Code.`,
	RunE: func(cmd *cobra.Command, args []string) error {
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

		// Stdout carries the MCP protocol; status goes to stderr.
		fmt.Fprintf(os.Stderr, "lexrag MCP server started on stdio (passages=%d)\n", idx.Count())

		mcpserver.Version = Version
		srv := mcpserver.NewServer(pipe, idx)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
