package async

import (
	"context"
	"sync"
	"time"
)

// Runner executes one kind of request at a time: single-flight, per-request
// timeout, cooperative cancellation, simulated progress while waiting. A
// cancelled request's late response is discarded, never applied.
type Runner[T any] struct {
	Timeout  time.Duration
	Driver   ProgressDriver
	Reporter ProgressReporter

	handle Handle

	mu      sync.Mutex
	done    chan struct{}
	results []T
	failure *Failure
}

// Start launches call on its own goroutine. It fails with
// ErrRequestInFlight when a request is already outstanding, no matter how
// many triggers fired. Previous results and failures are cleared so a retry
// after cancellation starts from a clean slate.
func (r *Runner[T]) Start(parent context.Context, call func(context.Context) ([]T, error)) error {
	ctx, gen, err := r.handle.Start(parent, r.Timeout)
	if err != nil {
		return err
	}

	done := make(chan struct{})
	r.mu.Lock()
	r.done = done
	r.results = nil
	r.failure = nil
	r.mu.Unlock()

	if res, ok := r.Reporter.(interface{ Reset() }); ok {
		res.Reset()
	}

	go r.run(ctx, gen, done, call)
	return nil
}

func (r *Runner[T]) run(ctx context.Context, gen uint64, done chan struct{}, call func(context.Context) ([]T, error)) {
	defer close(done)

	if r.Driver != nil && r.Reporter != nil {
		progressCtx, stop := context.WithCancel(ctx)
		defer stop()
		go r.Driver.Drive(progressCtx, r.Reporter)
	}

	out, err := call(ctx)
	applied := r.handle.Settle(gen)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done != done {
		// A newer request owns the state now.
		return
	}
	if !applied {
		r.failure = &Failure{Kind: FailureCancelled, Err: context.Canceled}
		return
	}
	if err != nil {
		r.failure = Classify(err)
		return
	}
	if ctx.Err() != nil {
		// The service ignored its context; honor the cancellation anyway.
		r.failure = Classify(ctx.Err())
		return
	}
	r.results = out
}

// Cancel aborts the outstanding request: the request context is cancelled,
// progress timers stop with it, and no partial result is kept. Cancelling
// twice, or with nothing in flight, is a no-op.
func (r *Runner[T]) Cancel() {
	if !r.handle.Cancel() {
		return
	}

	r.mu.Lock()
	r.results = nil
	r.failure = &Failure{Kind: FailureCancelled, Err: context.Canceled}
	r.mu.Unlock()

	if res, ok := r.Reporter.(interface{ Reset() }); ok {
		res.Reset()
	}
}

// Wait blocks until the current request's goroutine finishes. Safe to call
// with nothing in flight.
func (r *Runner[T]) Wait() {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Results returns the last successful response, or nil.
func (r *Runner[T]) Results() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.results
}

// Failure returns why the last request produced no result, or nil.
func (r *Runner[T]) Failure() *Failure {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failure
}

// InFlight reports whether a request is outstanding.
func (r *Runner[T]) InFlight() bool {
	return r.handle.InFlight()
}
