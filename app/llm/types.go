package llm

import (
	"context"
	"errors"
	"fmt"
)

// Request describes a single-shot chat completion.
type Request struct {
	Model       string
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// Completer issues chat completions. Implementations must report every
// failure mode (transport, non-2xx, empty or malformed body) as an
// UnavailableError so callers can branch on it uniformly.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// UnavailableError marks the completion service as unusable for this call.
// Callers fall back to their deterministic strategy; they never propagate
// it past the stage boundary.
type UnavailableError struct {
	Reason string
	Err    error
}

func (e *UnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("completion unavailable (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("completion unavailable (%s)", e.Reason)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// Unavailable wraps err into an UnavailableError with the given reason.
func Unavailable(reason string, err error) error {
	return &UnavailableError{Reason: reason, Err: err}
}

// IsUnavailable reports whether err is an UnavailableError.
func IsUnavailable(err error) bool {
	var ue *UnavailableError
	return errors.As(err, &ue)
}
