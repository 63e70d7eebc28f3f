package pipeline

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/lexrag/lexrag/internal/llm"
)

// newTestTrace returns a trace backed by a buffered channel large enough
// that unit tests never block, plus a drain function returning everything
// emitted so far.
func newTestTrace(ctx context.Context) (*trace, func() []Event) {
	out := make(chan Event, 1024)
	tr := &trace{ctx: ctx, out: out, queryID: "test-query"}
	drain := func() []Event {
		var events []Event
		for {
			select {
			case ev := <-out:
				events = append(events, ev)
			default:
				return events
			}
		}
	}
	return tr, drain
}

func logMessages(events []Event) []string {
	var msgs []string
	for _, ev := range events {
		if ev.Type == EventLog {
			msgs = append(msgs, ev.Log.Message)
		}
	}
	return msgs
}

func containsMessage(events []Event, substr string) bool {
	for _, msg := range logMessages(events) {
		if strings.Contains(msg, substr) {
			return true
		}
	}
	return false
}

// fakeProvider returns canned responses in order, then repeats the last one.
type fakeProvider struct {
	mu        sync.Mutex
	responses []string
	err       error
	calls     int
}

func (f *fakeProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	idx := f.calls - 1
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	return &llm.CompletionResponse{Content: f.responses[idx]}, nil
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeStreamProvider streams fragments one at a time.
type fakeStreamProvider struct {
	fakeProvider
	fragments []string
	setupErr  error
}

func (f *fakeStreamProvider) CompleteStream(ctx context.Context, req llm.CompletionRequest) (llm.Stream, error) {
	if f.setupErr != nil {
		return nil, f.setupErr
	}
	return &sliceStream{fragments: f.fragments}, nil
}

type sliceStream struct {
	fragments []string
	pos       int
}

func (s *sliceStream) Recv() (string, error) {
	if s.pos >= len(s.fragments) {
		return "", io.EOF
	}
	frag := s.fragments[s.pos]
	s.pos++
	return frag, nil
}

func (s *sliceStream) Close() error { return nil }

// fakeIndex serves fixed hits per method and a latest-version registry.
type fakeIndex struct {
	vectorHits  []SearchHit
	keywordHits []SearchHit
	vectorErr   error
	keywordErr  error
	latest      map[string]string
	latestErr   error
}

func (f *fakeIndex) VectorSearch(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	if f.vectorErr != nil {
		return nil, f.vectorErr
	}
	return f.vectorHits, nil
}

func (f *fakeIndex) KeywordSearch(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	if f.keywordErr != nil {
		return nil, f.keywordErr
	}
	return f.keywordHits, nil
}

func (f *fakeIndex) LatestVersion(ctx context.Context, documentID string) (string, error) {
	if f.latestErr != nil {
		return "", f.latestErr
	}
	return f.latest[documentID], nil
}
