package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/lexrag/lexrag/internal/pipeline"
)

// fakePipeline returns a canned answer or error, and a fixed event stream.
type fakePipeline struct {
	answer *pipeline.Answer
	err    error
	events []pipeline.Event
}

func (f *fakePipeline) Ask(ctx context.Context, q pipeline.Query) (*pipeline.Answer, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.answer, nil
}

func (f *fakePipeline) Stream(ctx context.Context, q pipeline.Query) <-chan pipeline.Event {
	out := make(chan pipeline.Event)
	go func() {
		defer close(out)
		for _, ev := range f.events {
			select {
			case <-ctx.Done():
				return
			case out <- ev:
			}
		}
	}()
	return out
}

func newTestServer(pipe QueryPipeline) *Server {
	return New(Config{Port: 0}, pipe, nil, zap.NewNop())
}

func testAnswer() *pipeline.Answer {
	return &pipeline.Answer{
		Text:            "Thirty days [1].",
		Citations:       []pipeline.Citation{{Index: 1, DocumentName: "MSA", DocumentVersion: "1.0"}},
		Confidence:      72,
		VersionWarnings: []string{},
	}
}

func postAsk(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/ask", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestAskReturnsAnswer(t *testing.T) {
	s := newTestServer(&fakePipeline{answer: testAnswer()})

	rec := postAsk(t, s, `{"question":"What is the payment term?"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}

	var got pipeline.Answer
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if got.Text != "Thirty days [1]." {
		t.Errorf("Text = %q", got.Text)
	}
	if got.Confidence != 72 {
		t.Errorf("Confidence = %d, want 72", got.Confidence)
	}
}

func TestAskErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"empty query", pipeline.ErrEmptyQuery, http.StatusBadRequest},
		{"retrieval down", &pipeline.RetrievalError{Calls: 8}, http.StatusBadGateway},
		{"generation failed", &pipeline.GenerationError{Err: errors.New("boom")}, http.StatusBadGateway},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"client disconnected", context.Canceled, statusClientClosedRequest},
		{"unknown", errors.New("mystery"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(&fakePipeline{err: tt.err})
			rec := postAsk(t, s, `{"question":"q"}`)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var resp errorResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decoding error body: %v", err)
			}
			if resp.Error == "" {
				t.Error("error message is empty")
			}
			if strings.Contains(resp.Error, "boom") || strings.Contains(resp.Error, "mystery") {
				t.Errorf("error message %q leaks internal detail", resp.Error)
			}
		})
	}
}

func TestAskRejectsMalformedBody(t *testing.T) {
	s := newTestServer(&fakePipeline{answer: testAnswer()})
	rec := postAsk(t, s, `{not json`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(&fakePipeline{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestCorpusStatsWithoutIndex(t *testing.T) {
	s := newTestServer(&fakePipeline{})
	req := httptest.NewRequest(http.MethodGet, "/api/corpus/stats", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestAskStreamDeliversEventSequence(t *testing.T) {
	events := []pipeline.Event{
		{Type: pipeline.EventLog, Log: &pipeline.LogEvent{
			Level: pipeline.LevelInfo, Stage: pipeline.StageStart, Message: "processing query"}},
		{Type: pipeline.EventAnswer, Answer: testAnswer()},
	}
	s := newTestServer(&fakePipeline{events: events})

	ts := httptest.NewServer(s.Router())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/ask"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dialing websocket: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(askRequest{Question: "q"}); err != nil {
		t.Fatalf("writing request: %v", err)
	}

	var types []string
	for {
		var msg struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		types = append(types, msg.Type)
		if msg.Type != "log" {
			break
		}
	}

	if len(types) != 2 || types[0] != "log" || types[1] != "answer" {
		t.Errorf("event types = %v, want [log answer]", types)
	}
}
