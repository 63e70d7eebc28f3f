package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lexrag/lexrag/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Starts the HTTP server exposing POST /api/ask for blocking queries and
GET /ws/ask for streaming the full pipeline event sequence over WebSocket.`,
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

		if idx.Count() == 0 {
			logger.Warn("corpus index is empty; run `lexrag corpus load` to index documents")
		}

		pipe, err := buildPipeline(cfg, idx, logger)
		if err != nil {
			return err
		}

		srv := server.New(server.Config{
			Port:     cfg.Server.Port,
			AllowAll: cfg.Server.AllowAll,
		}, pipe, idx, logger)

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start() }()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return err
		case sig := <-stop:
			logger.Info("shutting down", zap.String("signal", sig.String()))
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
