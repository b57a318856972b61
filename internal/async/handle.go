// Package async owns the machinery shared by the suggestion and
// enhancement clients: a single-flight, cancellation-aware task handle,
// failure classification, and phased progress reporting.
package async

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrRequestInFlight is returned when a request is started while another is
// still outstanding on the same handle.
var ErrRequestInFlight = errors.New("a request is already in flight")

// Handle enforces single-flight and cooperative cancellation for one kind
// of asynchronous operation. Each request gets its own context and
// generation number; a cancelled request's late result is detected through
// the stale generation and discarded.
type Handle struct {
	mu       sync.Mutex
	gen      uint64
	inFlight bool
	cancel   context.CancelFunc
}

// Start claims the handle for a new request. The returned context carries
// the request timeout; the generation must be passed back to Settle.
func (h *Handle) Start(parent context.Context, timeout time.Duration) (context.Context, uint64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.inFlight {
		return nil, 0, ErrRequestInFlight
	}

	ctx, cancel := context.WithCancel(parent)
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(parent, timeout)
	}

	h.gen++
	h.inFlight = true
	h.cancel = cancel
	return ctx, h.gen, nil
}

// Cancel aborts the outstanding request, if any. Cancelling an idle handle
// is a no-op, so double cancellation is safe. The generation is bumped so a
// response that was already in flight settles as stale.
func (h *Handle) Cancel() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.inFlight {
		return false
	}
	h.cancel()
	h.cancel = nil
	h.gen++
	h.inFlight = false
	return true
}

// Settle releases the handle when a request finishes. It reports whether
// the result may be applied: false means the request was cancelled or
// superseded and its result must be discarded.
func (h *Handle) Settle(gen uint64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if gen != h.gen {
		return false
	}
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
	h.inFlight = false
	return true
}

// InFlight reports whether a request is outstanding.
func (h *Handle) InFlight() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.inFlight
}
