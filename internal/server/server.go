// Package server exposes the query pipeline over HTTP: a blocking JSON
// endpoint for simple callers and a WebSocket stream carrying the full
// pipeline event protocol.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/lexrag/lexrag/internal/index"
	"github.com/lexrag/lexrag/internal/pipeline"
)

// QueryPipeline is the pipeline surface the server consumes.
type QueryPipeline interface {
	Ask(ctx context.Context, q pipeline.Query) (*pipeline.Answer, error)
	Stream(ctx context.Context, q pipeline.Query) <-chan pipeline.Event
}

// Config holds server configuration.
type Config struct {
	Port     int
	AllowAll bool // allow all CORS origins (dev mode)
}

// Server serves the question-answering API.
type Server struct {
	cfg        Config
	pipe       QueryPipeline
	idx        *index.Client
	logger     *zap.Logger
	router     chi.Router
	httpServer *http.Server
}

// New creates a server. idx may be nil when corpus stats are not needed.
func New(cfg Config, pipe QueryPipeline, idx *index.Client, logger *zap.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		pipe:   pipe,
		idx:    idx,
		logger: logger,
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Post("/api/ask", s.handleAsk)
	r.Get("/ws/ask", s.handleAskStream)
	r.Get("/api/corpus/stats", s.handleCorpusStats)

	return r
}

// Router returns the chi router, mainly for tests.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured port and blocks until the server
// stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("http server listening", zap.String("addr", addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
