package suggest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbialecki/catmap/internal/async"
	"github.com/tbialecki/catmap/pkg/models"
)

// fakeService blocks until released so tests control when the request
// settles. With honorCtx unset it keeps running after cancellation, like a
// service that ignores its context.
type fakeService struct {
	release     chan struct{}
	suggestions []models.MappingSuggestion
	err         error
	honorCtx    bool

	calls int
}

func (f *fakeService) SuggestMappings(ctx context.Context, _, _ string) ([]models.MappingSuggestion, error) {
	f.calls++
	if f.release != nil {
		if f.honorCtx {
			select {
			case <-f.release:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		} else {
			<-f.release
		}
	}
	return f.suggestions, f.err
}

func twoSuggestions() []models.MappingSuggestion {
	return []models.MappingSuggestion{
		{CatalogItemID: "item-1", SuggestedFunctionCode: "gv", ConfidenceScore: 0.9},
		{CatalogItemID: "item-2", SuggestedFunctionCode: "id", ConfidenceScore: 0.7},
	}
}

func newTestClient(svc Service, timeout time.Duration) *Client {
	return NewClient(svc, timeout, async.NopReporter{})
}

func TestRequestDeliversSuggestions(t *testing.T) {
	svc := &fakeService{suggestions: twoSuggestions()}
	c := newTestClient(svc, time.Second)

	require.NoError(t, c.Request(context.Background(), "cat-1", "nist-csf-2"))
	c.Wait()

	assert.Nil(t, c.Failure())
	assert.Len(t, c.Suggestions(), 2)
	assert.False(t, c.InFlight())
}

func TestRequestSingleFlight(t *testing.T) {
	svc := &fakeService{release: make(chan struct{}), honorCtx: true, suggestions: twoSuggestions()}
	c := newTestClient(svc, time.Second)

	require.NoError(t, c.Request(context.Background(), "cat-1", "nist-csf-2"))
	assert.True(t, c.InFlight())

	err := c.Request(context.Background(), "cat-1", "nist-csf-2")
	assert.ErrorIs(t, err, async.ErrRequestInFlight)

	close(svc.release)
	c.Wait()
	assert.Equal(t, 1, svc.calls)
}

func TestCancelDiscardsLateResponse(t *testing.T) {
	// The service ignores cancellation and eventually returns a full
	// result; none of it may be applied.
	svc := &fakeService{release: make(chan struct{}), suggestions: twoSuggestions()}
	c := newTestClient(svc, time.Second)

	require.NoError(t, c.Request(context.Background(), "cat-1", "nist-csf-2"))
	c.Cancel()

	close(svc.release)
	c.Wait()

	assert.Empty(t, c.Suggestions())
	f := c.Failure()
	require.NotNil(t, f)
	assert.Equal(t, async.FailureCancelled, f.Kind)
	assert.Contains(t, c.FailureMessage(), "cancelled")
	assert.Contains(t, c.FailureMessage(), "manually")
}

func TestRetryAfterCancelSucceeds(t *testing.T) {
	svc := &fakeService{release: make(chan struct{}), honorCtx: true, suggestions: twoSuggestions()}
	c := newTestClient(svc, time.Second)

	require.NoError(t, c.Request(context.Background(), "cat-1", "nist-csf-2"))
	c.Cancel()
	c.Wait()

	svc.release = nil
	require.NoError(t, c.Request(context.Background(), "cat-1", "nist-csf-2"))
	c.Wait()

	assert.Nil(t, c.Failure())
	assert.Len(t, c.Suggestions(), 2)
}

func TestTimeoutFailure(t *testing.T) {
	svc := &fakeService{release: make(chan struct{}), honorCtx: true}
	c := newTestClient(svc, 15*time.Millisecond)

	require.NoError(t, c.Request(context.Background(), "cat-1", "nist-csf-2"))
	c.Wait()

	f := c.Failure()
	require.NotNil(t, f)
	assert.Equal(t, async.FailureTimeout, f.Kind)
	assert.Contains(t, c.FailureMessage(), "timed out")
	assert.Contains(t, c.FailureMessage(), "manually")
	close(svc.release)
}

func TestServiceFailure(t *testing.T) {
	svc := &fakeService{err: errors.New("upstream exploded")}
	c := newTestClient(svc, time.Second)

	require.NoError(t, c.Request(context.Background(), "cat-1", "nist-csf-2"))
	c.Wait()

	f := c.Failure()
	require.NotNil(t, f)
	assert.Equal(t, async.FailureService, f.Kind)
	assert.True(t, f.Retryable())
	assert.Contains(t, c.FailureMessage(), "upstream exploded")
	assert.Contains(t, c.FailureMessage(), "manually")
}

func TestAutoTriggerFiresOnce(t *testing.T) {
	svc := &fakeService{suggestions: twoSuggestions()}
	c := newTestClient(svc, time.Second)

	assert.True(t, c.AutoTrigger(context.Background(), "cat-1", "nist-csf-2"))
	c.Wait()

	// Re-entering the stage must not fire again, even after results or a
	// cancel cleared the way for manual retries.
	assert.False(t, c.AutoTrigger(context.Background(), "cat-1", "nist-csf-2"))
	assert.Equal(t, 1, svc.calls)

	// Manual retry is still allowed.
	require.NoError(t, c.Request(context.Background(), "cat-1", "nist-csf-2"))
	c.Wait()
	assert.Equal(t, 2, svc.calls)
}

func TestAutoTriggerRequiresCatalog(t *testing.T) {
	svc := &fakeService{suggestions: twoSuggestions()}
	c := newTestClient(svc, time.Second)

	assert.False(t, c.AutoTrigger(context.Background(), "", "nist-csf-2"))
	assert.Equal(t, 0, svc.calls)

	// The miss does not consume the one automatic shot.
	assert.True(t, c.AutoTrigger(context.Background(), "cat-1", "nist-csf-2"))
	c.Wait()
	assert.Equal(t, 1, svc.calls)
}

func TestFailureMessageEmptyOnSuccess(t *testing.T) {
	c := newTestClient(&fakeService{}, time.Second)
	assert.Empty(t, c.FailureMessage())
}
