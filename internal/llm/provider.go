package llm

import (
	"context"
	"io"
)

// Provider defines the interface for generation model providers.
type Provider interface {
	// Complete sends a completion request and returns the full response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// Name returns the name of this provider.
	Name() string
}

// Stream is a finite, non-restartable sequence of completion fragments.
// Recv returns io.EOF after the final fragment. Close releases the
// underlying connection and may be called at any time to abandon the stream.
type Stream interface {
	Recv() (string, error)
	Close() error
}

// StreamingProvider is implemented by providers that can deliver a
// completion incrementally. Canceling the context aborts the stream
// mid-flight.
type StreamingProvider interface {
	Provider
	CompleteStream(ctx context.Context, req CompletionRequest) (Stream, error)
}

// staticStream yields one pre-computed fragment followed by io.EOF. Used to
// adapt non-streaming providers to the streaming interface.
type staticStream struct {
	content string
	sent    bool
}

func newStaticStream(content string) *staticStream {
	return &staticStream{content: content}
}

func (s *staticStream) Recv() (string, error) {
	if s.sent || s.content == "" {
		return "", io.EOF
	}
	s.sent = true
	return s.content, nil
}

func (s *staticStream) Close() error { return nil }
