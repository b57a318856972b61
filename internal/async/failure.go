package async

import (
	"context"
	"errors"
	"fmt"
)

// FailureKind separates the three user-facing outcomes of a failed request.
// Cancellation is not an error: it restores the pre-request state and is
// surfaced only as an informational note. Timeouts are treated like service
// failures but keep their own message.
type FailureKind int

const (
	FailureCancelled FailureKind = iota
	FailureTimeout
	FailureService
)

// Failure describes why a request produced no result.
type Failure struct {
	Kind FailureKind
	Err  error
}

func (f *Failure) Error() string {
	switch f.Kind {
	case FailureCancelled:
		return "request cancelled"
	case FailureTimeout:
		return fmt.Sprintf("request timed out: %v", f.Err)
	default:
		return fmt.Sprintf("service error: %v", f.Err)
	}
}

// Retryable reports whether a fresh request may be issued. All failure
// kinds leave the manual fallback path open, and all are retryable.
func (f *Failure) Retryable() bool { return true }

// Classify maps an error from a request into a Failure.
func Classify(err error) *Failure {
	switch {
	case errors.Is(err, context.Canceled):
		return &Failure{Kind: FailureCancelled, Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &Failure{Kind: FailureTimeout, Err: err}
	default:
		return &Failure{Kind: FailureService, Err: err}
	}
}
