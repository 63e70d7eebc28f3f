package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type countingProvider struct {
	mu       sync.Mutex
	calls    int
	failureN int // fail the first N calls
	err      error
}

func (c *countingProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.calls <= c.failureN {
		return nil, c.err
	}
	return &CompletionResponse{Content: "ok"}, nil
}

func (c *countingProvider) Name() string { return "counting" }

func (c *countingProvider) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func TestRetryProviderRecoversFromTransientFailure(t *testing.T) {
	inner := &countingProvider{failureN: 2, err: errors.New("transient")}
	p := NewRetryProvider(inner, 3, time.Millisecond)

	resp, err := p.Complete(context.Background(), CompletionRequest{})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Content != "ok" {
		t.Errorf("Content = %q, want ok", resp.Content)
	}
	if inner.callCount() != 3 {
		t.Errorf("inner called %d times, want 3", inner.callCount())
	}
}

func TestRetryProviderExhaustsBudget(t *testing.T) {
	wantErr := errors.New("persistent")
	inner := &countingProvider{failureN: 10, err: wantErr}
	p := NewRetryProvider(inner, 2, time.Millisecond)

	_, err := p.Complete(context.Background(), CompletionRequest{})
	if !errors.Is(err, wantErr) {
		t.Fatalf("error = %v, want %v", err, wantErr)
	}
	if inner.callCount() != 2 {
		t.Errorf("inner called %d times, want 2", inner.callCount())
	}
}

func TestRetryProviderNeverRetriesCancellation(t *testing.T) {
	inner := &countingProvider{failureN: 10, err: context.Canceled}
	p := NewRetryProvider(inner, 5, time.Millisecond)

	_, err := p.Complete(context.Background(), CompletionRequest{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if inner.callCount() != 1 {
		t.Errorf("inner called %d times, want 1", inner.callCount())
	}
}

func TestRetryProviderStreamRequiresStreamingUnderlying(t *testing.T) {
	p := NewRetryProvider(&countingProvider{}, 2, time.Millisecond)
	if _, err := p.CompleteStream(context.Background(), CompletionRequest{}); err == nil {
		t.Fatal("CompleteStream() = nil error for a non-streaming provider")
	}
}
