package enhance

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

type fakeService struct {
	enhancements []models.MetricEnhancement
	err          error
	calls        int
}

func (f *fakeService) SuggestEnhancements(context.Context, string) ([]models.MetricEnhancement, error) {
	f.calls++
	return f.enhancements, f.err
}

func enhancement(itemID string, priority int) models.MetricEnhancement {
	return models.MetricEnhancement{
		CatalogItemID:       itemID,
		SuggestedPriority:   priority,
		SuggestedOwner:      "CISO",
		SuggestedDataSource: "SIEM",
		SuggestedFrequency:  "monthly",
	}
}

func TestClientDeliversEnhancements(t *testing.T) {
	svc := &fakeService{enhancements: []models.MetricEnhancement{
		enhancement("item-1", 1),
		enhancement("item-2", 2),
	}}
	c := NewClient(svc, time.Second, async.NopReporter{})

	require.NoError(t, c.Request(context.Background(), "cat-1"))
	c.Wait()

	assert.Nil(t, c.Failure())
	assert.Equal(t, 2, c.GeneratedCount())
}

func TestClientEmptyResponseCountsZero(t *testing.T) {
	c := NewClient(&fakeService{}, time.Second, async.NopReporter{})

	require.NoError(t, c.Request(context.Background(), "cat-1"))
	c.Wait()

	assert.Nil(t, c.Failure())
	assert.Equal(t, 0, c.GeneratedCount())
}

func TestClientServiceFailure(t *testing.T) {
	svc := &fakeService{err: errors.New("model unavailable")}
	c := NewClient(svc, time.Second, async.NopReporter{})

	require.NoError(t, c.Request(context.Background(), "cat-1"))
	c.Wait()

	assert.Equal(t, 0, c.GeneratedCount())
	require.NotNil(t, c.Failure())
	assert.Equal(t, async.FailureService, c.Failure().Kind)
	assert.Contains(t, c.FailureMessage(), "manually")
}

func TestClientAutoTriggerFiresOnce(t *testing.T) {
	svc := &fakeService{enhancements: []models.MetricEnhancement{enhancement("item-1", 1)}}
	c := NewClient(svc, time.Second, async.NopReporter{})

	assert.True(t, c.AutoTrigger(context.Background(), "cat-1"))
	c.Wait()
	assert.False(t, c.AutoTrigger(context.Background(), "cat-1"))
	assert.Equal(t, 1, svc.calls)
}

func TestStoreAcceptAndAcceptAll(t *testing.T) {
	s := NewStore()
	suggested := []models.MetricEnhancement{
		enhancement("item-1", 1),
		enhancement("item-2", 2),
	}

	require.True(t, s.Accept(suggested[0]))
	assert.False(t, s.Accept(suggested[0]))

	assert.Equal(t, 1, s.AcceptAll(suggested))
	assert.Equal(t, 0, s.AcceptAll(suggested))
	assert.Equal(t, 2, s.Count())

	accepted := s.Accepted()
	require.Len(t, accepted, 2)
	assert.Equal(t, "item-1", accepted[0].CatalogItemID)
	assert.True(t, accepted[0].Accepted)
}

func TestStoreEditAndSave(t *testing.T) {
	s := NewStore()

	d := s.Edit(enhancement("item-1", 3))
	d.Priority = 1
	d.Owner = "Head of Ops"
	require.NoError(t, s.Save(d))

	accepted := s.Accepted()
	require.Len(t, accepted, 1)
	assert.Equal(t, 1, accepted[0].SuggestedPriority)
	assert.Equal(t, "Head of Ops", accepted[0].SuggestedOwner)
	assert.True(t, accepted[0].Accepted)

	// Saving again replaces, not duplicates.
	d.Priority = 2
	require.NoError(t, s.Save(d))
	assert.Equal(t, 1, s.Count())
	assert.Equal(t, 2, s.Accepted()[0].SuggestedPriority)
}

func TestStoreSaveValidatesPriority(t *testing.T) {
	s := NewStore()

	assert.Error(t, s.Save(&Draft{CatalogItemID: "item-1", Priority: 0}))
	assert.Error(t, s.Save(&Draft{CatalogItemID: "item-1", Priority: 4}))
	assert.Error(t, s.Save(&Draft{Priority: 2}))
	assert.Equal(t, 0, s.Count())
}
