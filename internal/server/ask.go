package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lexrag/lexrag/internal/pipeline"
)

// askRequest is the JSON body for both the blocking and the streaming
// endpoint.
type askRequest struct {
	Question string          `json:"question"`
	History  []pipeline.Turn `json:"history,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type statsResponse struct {
	Passages int `json:"passages"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	q := pipeline.Query{
		ID:      requestID(r),
		Text:    req.Question,
		History: req.History,
	}

	answer, err := s.pipe.Ask(r.Context(), q)
	if err != nil {
		s.logger.Warn("ask failed",
			zap.String("query_id", q.ID),
			zap.Error(err))
		status, msg := statusForError(err)
		writeError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusOK, answer)
}

func (s *Server) handleCorpusStats(w http.ResponseWriter, r *http.Request) {
	if s.idx == nil {
		writeError(w, http.StatusServiceUnavailable, "corpus index not available")
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{Passages: s.idx.Count()})
}

// statusClientClosedRequest is nginx's non-standard code for a caller that
// disconnected mid-request. Any status written here is unreachable by the
// gone client; it keeps disconnects distinguishable from server faults in
// logs and middleware metrics.
const statusClientClosedRequest = 499

// statusForError maps pipeline failures to HTTP statuses without leaking
// internal detail to the caller.
func statusForError(err error) (int, string) {
	var retrievalErr *pipeline.RetrievalError
	var generationErr *pipeline.GenerationError

	switch {
	case errors.Is(err, pipeline.ErrEmptyQuery):
		return http.StatusBadRequest, "question must not be empty"
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest, "request canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "the request timed out; please try again"
	case errors.As(err, &retrievalErr):
		return http.StatusBadGateway, "document retrieval is temporarily unavailable"
	case errors.As(err, &generationErr):
		return http.StatusBadGateway, "answer generation failed; please try again"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func requestID(r *http.Request) string {
	if id := middleware.GetReqID(r.Context()); id != "" {
		return id
	}
	return uuid.NewString()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
