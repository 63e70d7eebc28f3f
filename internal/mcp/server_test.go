package mcp

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/lexrag/lexrag/internal/pipeline"
)

// mockPipeline implements Asker for testing.
type mockPipeline struct {
	answer *pipeline.Answer
	err    error
}

func (m *mockPipeline) Ask(_ context.Context, q pipeline.Query) (*pipeline.Answer, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.answer, nil
}

// mockIndex implements pipeline.IndexClient for testing.
type mockIndex struct {
	hits []pipeline.SearchHit
}

func (m *mockIndex) VectorSearch(_ context.Context, query string, limit int) ([]pipeline.SearchHit, error) {
	return m.hits, nil
}

func (m *mockIndex) KeywordSearch(_ context.Context, query string, limit int) ([]pipeline.SearchHit, error) {
	return m.hits, nil
}

func (m *mockIndex) LatestVersion(_ context.Context, documentID string) (string, error) {
	return "", nil
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("result has no content")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is not text: %T", result.Content[0])
	}
	return tc.Text
}

func TestHandleAsk(t *testing.T) {
	answer := &pipeline.Answer{
		Text:       "Thirty days [1].",
		Confidence: 80,
		Citations: []pipeline.Citation{
			{Index: 1, DocumentName: "MSA", DocumentVersion: "1.0", Section: "Payment"},
		},
		VersionWarnings: []string{"MSA version 1.0 is outdated; the latest known version is 2.0"},
	}
	s := NewServer(&mockPipeline{answer: answer}, &mockIndex{})

	result, err := s.handleAsk(context.Background(), callRequest(map[string]any{"question": "payment term?"}))
	if err != nil {
		t.Fatalf("handleAsk() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("handleAsk() returned tool error: %s", resultText(t, result))
	}

	text := resultText(t, result)
	for _, want := range []string{"Thirty days [1].", "Confidence: 80/100", "outdated", "[1] MSA (version 1.0, Payment)"} {
		if !strings.Contains(text, want) {
			t.Errorf("result missing %q:\n%s", want, text)
		}
	}
}

func TestHandleAskMissingQuestion(t *testing.T) {
	s := NewServer(&mockPipeline{}, &mockIndex{})
	result, err := s.handleAsk(context.Background(), callRequest(map[string]any{}))
	if err != nil {
		t.Fatalf("handleAsk() error = %v", err)
	}
	if !result.IsError {
		t.Fatal("expected a tool error for a missing question")
	}
}

func TestHandleAskPipelineFailure(t *testing.T) {
	s := NewServer(&mockPipeline{err: errors.New("retrieval down")}, &mockIndex{})
	result, err := s.handleAsk(context.Background(), callRequest(map[string]any{"question": "q"}))
	if err != nil {
		t.Fatalf("handleAsk() error = %v", err)
	}
	if !result.IsError {
		t.Fatal("expected a tool error for a pipeline failure")
	}
}

func TestHandleSearchCorpus(t *testing.T) {
	idx := &mockIndex{hits: []pipeline.SearchHit{
		{DocumentID: "dpa", DocumentName: "DPA", DocumentVersion: "2.0", Section: "s1",
			Content: "Breach notification within 72 hours.", Score: 0.91},
	}}
	s := NewServer(&mockPipeline{}, idx)

	result, err := s.handleSearchCorpus(context.Background(),
		callRequest(map[string]any{"query": "breach", "method": "keyword"}))
	if err != nil {
		t.Fatalf("handleSearchCorpus() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("handleSearchCorpus() returned tool error: %s", resultText(t, result))
	}

	text := resultText(t, result)
	for _, want := range []string{"Found 1 passages", "DPA (version 2.0, s1)", "score=0.910"} {
		if !strings.Contains(text, want) {
			t.Errorf("result missing %q:\n%s", want, text)
		}
	}
}

func TestHandleSearchCorpusEmpty(t *testing.T) {
	s := NewServer(&mockPipeline{}, &mockIndex{})
	result, err := s.handleSearchCorpus(context.Background(),
		callRequest(map[string]any{"query": "anything"}))
	if err != nil {
		t.Fatalf("handleSearchCorpus() error = %v", err)
	}
	if !strings.Contains(resultText(t, result), "No results") {
		t.Error("expected a no-results message for an empty corpus")
	}
}
