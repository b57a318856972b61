package enhance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tbialecki/catmap/internal/async"
	"github.com/tbialecki/catmap/pkg/models"
)

func progressPhases() []async.Phase {
	return []async.Phase{
		{Name: "Reviewing mappings", Status: "Reading the confirmed framework mappings", Target: 25, Estimate: 6 * time.Second},
		{Name: "Deriving priorities", Status: "Ranking metrics by framework placement", Target: 55, Estimate: 8 * time.Second},
		{Name: "Suggesting ownership", Status: "Matching metrics to owner functions and data sources", Target: 85, Estimate: 8 * time.Second},
		{Name: "Finalizing", Status: "Collecting results", Target: 95, Estimate: 3 * time.Second},
	}
}

// Client drives enhancement requests for one import session, one at a
// time, with the same trigger-once and cancellation discipline as the
// suggestion client.
type Client struct {
	svc    Service
	runner *async.Runner[models.MetricEnhancement]

	mu        sync.Mutex
	autoFired bool
}

func NewClient(svc Service, timeout time.Duration, reporter async.ProgressReporter) *Client {
	return &Client{
		svc: svc,
		runner: &async.Runner[models.MetricEnhancement]{
			Timeout:  timeout,
			Driver:   &async.PhaseTicker{Phases: progressPhases()},
			Reporter: reporter,
		},
	}
}

// Request issues an enhancement request; async.ErrRequestInFlight when one
// is already outstanding.
func (c *Client) Request(ctx context.Context, catalogID string) error {
	return c.runner.Start(ctx, func(reqCtx context.Context) ([]models.MetricEnhancement, error) {
		return c.svc.SuggestEnhancements(reqCtx, catalogID)
	})
}

// AutoTrigger fires the single automatic request on enhancement stage
// entry.
func (c *Client) AutoTrigger(ctx context.Context, catalogID string) bool {
	c.mu.Lock()
	if c.autoFired || catalogID == "" {
		c.mu.Unlock()
		return false
	}
	c.autoFired = true
	c.mu.Unlock()

	if len(c.Enhancements()) > 0 {
		return false
	}
	return c.Request(ctx, catalogID) == nil
}

func (c *Client) Cancel() {
	c.runner.Cancel()
}

func (c *Client) Wait() {
	c.runner.Wait()
}

// Enhancements returns the generated enhancement suggestions, nil when
// none exist. Its length is the "generated count" the enhancement stage
// gate checks.
func (c *Client) Enhancements() []models.MetricEnhancement {
	return c.runner.Results()
}

// GeneratedCount is the number of enhancement suggestions produced by the
// last successful request; zero after a failure or an empty response.
func (c *Client) GeneratedCount() int {
	return len(c.runner.Results())
}

func (c *Client) InFlight() bool {
	return c.runner.InFlight()
}

func (c *Client) Failure() *async.Failure {
	return c.runner.Failure()
}

// FailureMessage renders the user-facing message for the last failure;
// manual enhancement stays available in every case.
func (c *Client) FailureMessage() string {
	f := c.Failure()
	if f == nil {
		return ""
	}
	switch f.Kind {
	case async.FailureCancelled:
		return "Enhancement request cancelled. Retry when ready, or edit metrics manually."
	case async.FailureTimeout:
		return "The enhancement service timed out. Retry, or edit metrics manually."
	default:
		return fmt.Sprintf("The enhancement service failed (%v). Retry, or edit metrics manually.", f.Err)
	}
}
