package llm

import (
	"context"
	"errors"
	"time"
)

// RetryProvider wraps a Provider with a bounded retry budget and exponential
// backoff. Context cancellation is never retried.
type RetryProvider struct {
	provider Provider
	attempts int
	backoff  time.Duration
}

// NewRetryProvider wraps the given provider. attempts is the total number of
// tries (minimum 1); backoff is the initial delay, doubled per retry.
func NewRetryProvider(provider Provider, attempts int, backoff time.Duration) *RetryProvider {
	if attempts < 1 {
		attempts = 1
	}
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	return &RetryProvider{provider: provider, attempts: attempts, backoff: backoff}
}

func (r *RetryProvider) Name() string {
	return r.provider.Name()
}

func (r *RetryProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	var lastErr error
	delay := r.backoff
	for attempt := 0; attempt < r.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		resp, err := r.provider.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// CompleteStream retries only the stream setup; an established stream that
// fails mid-flight is not resumed.
func (r *RetryProvider) CompleteStream(ctx context.Context, req CompletionRequest) (Stream, error) {
	sp, ok := r.provider.(StreamingProvider)
	if !ok {
		return nil, errors.New("underlying provider does not support streaming")
	}

	var lastErr error
	delay := r.backoff
	for attempt := 0; attempt < r.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		stream, err := sp.CompleteStream(ctx, req)
		if err == nil {
			return stream, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}
