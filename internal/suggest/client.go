package suggest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tbialecki/catmap/internal/async"
	"github.com/tbialecki/catmap/pkg/models"
)

// Phases shown while a suggestion request is outstanding. The percentages
// are a local simulation; completion is signalled by the request itself.
func progressPhases() []async.Phase {
	return []async.Phase{
		{Name: "Analyzing descriptions", Status: "Reading metric names and descriptions", Target: 20, Estimate: 8 * time.Second},
		{Name: "Mapping to functions", Status: "Placing metrics on framework functions", Target: 45, Estimate: 10 * time.Second},
		{Name: "Evaluating confidence", Status: "Scoring each candidate mapping", Target: 65, Estimate: 8 * time.Second},
		{Name: "Generating reasoning", Status: "Writing the rationale for each mapping", Target: 85, Estimate: 10 * time.Second},
		{Name: "Finalizing", Status: "Collecting results", Target: 95, Estimate: 4 * time.Second},
	}
}

// Client drives suggestion requests for one import session. At most one
// request is outstanding at a time regardless of how many triggers fire,
// and the automatic trigger on stage entry fires exactly once.
type Client struct {
	svc    Service
	runner *async.Runner[models.MappingSuggestion]

	mu        sync.Mutex
	autoFired bool
}

func NewClient(svc Service, timeout time.Duration, reporter async.ProgressReporter) *Client {
	return &Client{
		svc: svc,
		runner: &async.Runner[models.MappingSuggestion]{
			Timeout:  timeout,
			Driver:   &async.PhaseTicker{Phases: progressPhases()},
			Reporter: reporter,
		},
	}
}

// NewClientWithDriver swaps the simulated progress driver, e.g. for one fed
// by genuine server-reported progress.
func NewClientWithDriver(svc Service, timeout time.Duration, driver async.ProgressDriver, reporter async.ProgressReporter) *Client {
	return &Client{
		svc:    svc,
		runner: &async.Runner[models.MappingSuggestion]{Timeout: timeout, Driver: driver, Reporter: reporter},
	}
}

// Request issues a suggestion request. Returns async.ErrRequestInFlight when
// one is already outstanding.
func (c *Client) Request(ctx context.Context, catalogID, frameworkCode string) error {
	return c.runner.Start(ctx, func(reqCtx context.Context) ([]models.MappingSuggestion, error) {
		return c.svc.SuggestMappings(reqCtx, catalogID, frameworkCode)
	})
}

// AutoTrigger issues the one automatic request made when the framework
// mapping stage is entered with no suggestions and a known catalog. Returns
// whether a request was started.
func (c *Client) AutoTrigger(ctx context.Context, catalogID, frameworkCode string) bool {
	c.mu.Lock()
	if c.autoFired || catalogID == "" {
		c.mu.Unlock()
		return false
	}
	c.autoFired = true
	c.mu.Unlock()

	if len(c.Suggestions()) > 0 {
		return false
	}
	return c.Request(ctx, catalogID, frameworkCode) == nil
}

// Cancel aborts the outstanding request, stops the progress simulation and
// returns the session to a retryable no-suggestions state. Idempotent.
func (c *Client) Cancel() {
	c.runner.Cancel()
}

// Wait blocks until the outstanding request, if any, has settled.
func (c *Client) Wait() {
	c.runner.Wait()
}

// Suggestions returns the generated suggestions, nil when none exist.
func (c *Client) Suggestions() []models.MappingSuggestion {
	return c.runner.Results()
}

func (c *Client) InFlight() bool {
	return c.runner.InFlight()
}

// Failure reports why the last request produced no suggestions, nil when it
// succeeded or none was made.
func (c *Client) Failure() *async.Failure {
	return c.runner.Failure()
}

// FailureMessage renders the user-facing message for the last failure.
// Cancellation, timeout and service errors read differently, and every one
// of them leaves manual mapping open.
func (c *Client) FailureMessage() string {
	f := c.Failure()
	if f == nil {
		return ""
	}
	switch f.Kind {
	case async.FailureCancelled:
		return "Suggestion request cancelled. Retry when ready, or map metrics manually."
	case async.FailureTimeout:
		return "The suggestion service timed out. Retry, or map metrics manually."
	default:
		return fmt.Sprintf("The suggestion service failed (%v). Retry, or map metrics manually.", f.Err)
	}
}
