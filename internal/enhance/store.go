package enhance

import (
	"fmt"
	"sync"

	"github.com/tbialecki/catmap/pkg/models"
)

// Store is the accepted-enhancements set the enhancement stage gate reads.
// Mirrors the confirmation store's accept/edit/accept-all semantics: one
// accepted enhancement per catalog item.
type Store struct {
	mu     sync.Mutex
	byItem map[string]models.MetricEnhancement
	order  []string
}

func NewStore() *Store {
	return &Store{byItem: make(map[string]models.MetricEnhancement)}
}

// Accept records a suggested enhancement as-is. A no-op when the catalog
// item already has an accepted enhancement.
func (s *Store) Accept(e models.MetricEnhancement) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byItem[e.CatalogItemID]; exists {
		return false
	}
	e.Accepted = true
	s.byItem[e.CatalogItemID] = e
	s.order = append(s.order, e.CatalogItemID)
	return true
}

// AcceptAll accepts every not-yet-accepted enhancement in suggestion
// order; idempotent under repeated invocation.
func (s *Store) AcceptAll(enhancements []models.MetricEnhancement) int {
	added := 0
	for _, e := range enhancements {
		if s.Accept(e) {
			added++
		}
	}
	return added
}

// Draft is an in-progress manual edit of a suggested enhancement.
type Draft struct {
	CatalogItemID string
	Priority      int
	Owner         string
	DataSource    string
	Frequency     string
}

// Edit opens a draft seeded from a suggestion.
func (s *Store) Edit(e models.MetricEnhancement) *Draft {
	return &Draft{
		CatalogItemID: e.CatalogItemID,
		Priority:      e.SuggestedPriority,
		Owner:         e.SuggestedOwner,
		DataSource:    e.SuggestedDataSource,
		Frequency:     e.SuggestedFrequency,
	}
}

// Save commits a draft, replacing any accepted enhancement for the item.
func (s *Store) Save(d *Draft) error {
	if d.CatalogItemID == "" {
		return fmt.Errorf("draft has no catalog item id")
	}
	if d.Priority < 1 || d.Priority > 3 {
		return fmt.Errorf("priority must be 1, 2 or 3, got %d", d.Priority)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byItem[d.CatalogItemID]; !exists {
		s.order = append(s.order, d.CatalogItemID)
	}
	s.byItem[d.CatalogItemID] = models.MetricEnhancement{
		CatalogItemID:       d.CatalogItemID,
		SuggestedPriority:   d.Priority,
		SuggestedOwner:      d.Owner,
		SuggestedDataSource: d.DataSource,
		SuggestedFrequency:  d.Frequency,
		Accepted:            true,
	}
	return nil
}

// Accepted returns the accepted enhancements in acceptance order.
func (s *Store) Accepted() []models.MetricEnhancement {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.MetricEnhancement, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byItem[id])
	}
	return out
}

// Count returns the number of accepted enhancements.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byItem)
}
