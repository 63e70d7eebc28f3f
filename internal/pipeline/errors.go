package pipeline

import (
	"errors"
	"fmt"
)

// ErrEmptyQuery is returned for a query with no text.
var ErrEmptyQuery = errors.New("query text is empty")

// RetrievalError indicates that every search call across all variants and
// methods failed. Partial failures are absorbed by the retrieval stage and
// surfaced only in the pipeline trace.
type RetrievalError struct {
	Calls int // total search calls attempted
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval failed: all %d search calls failed", e.Calls)
}

// GenerationError indicates the generation model was unreachable or returned
// malformed output after its retry budget. Fatal for the query; the caller
// must resubmit.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// userMessage maps a fatal pipeline error to the user-safe message carried by
// the terminal error event. Internal detail stays in the trace.
func userMessage(err error) string {
	var rerr *RetrievalError
	var gerr *GenerationError
	switch {
	case errors.Is(err, ErrEmptyQuery):
		return "The query is empty."
	case errors.As(err, &rerr):
		return "Document retrieval is currently unavailable. Please try again."
	case errors.As(err, &gerr):
		return "Answer generation failed. Please resubmit your question."
	default:
		return "The query could not be processed."
	}
}
