// Package confirm records which taxonomy placement each catalog item ended
// up with, and how: straight acceptance of a suggestion, or a human edit.
// The store holds exactly zero or one confirmed mapping per catalog item at
// all times.
package confirm

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tbialecki/catmap/pkg/models"
)

// Store is the in-session confirmed mapping set.
type Store struct {
	mu     sync.Mutex
	byItem map[string]models.ConfirmedMapping
	order  []string // catalog item ids in confirmation order
}

func NewStore() *Store {
	return &Store{byItem: make(map[string]models.ConfirmedMapping)}
}

// AcceptSuggestion confirms a suggestion as-is with method auto. A no-op
// when the catalog item is already confirmed; reports whether it was
// applied.
func (s *Store) AcceptSuggestion(sug models.MappingSuggestion) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byItem[sug.CatalogItemID]; exists {
		return false
	}
	s.byItem[sug.CatalogItemID] = models.ConfirmedMapping{
		CatalogItemID:   sug.CatalogItemID,
		FunctionCode:    sug.SuggestedFunctionCode,
		CategoryCode:    sug.SuggestedCategoryCode,
		SubcategoryCode: sug.SuggestedSubcategoryCode,
		ConfidenceScore: sug.ConfidenceScore,
		Method:          models.MethodAuto,
	}
	s.order = append(s.order, sug.CatalogItemID)
	return true
}

// AcceptAll confirms every not-yet-confirmed suggestion in suggestion
// order. Idempotent under repeated invocation; returns how many mappings
// were added this time.
func (s *Store) AcceptAll(suggestions []models.MappingSuggestion) int {
	added := 0
	for _, sug := range suggestions {
		if s.AcceptSuggestion(sug) {
			added++
		}
	}
	return added
}

// Draft is an in-progress manual mapping seeded from a suggestion. Saving
// it always records method manual with ManualConfidence, whatever the
// original suggestion scored.
type Draft struct {
	CatalogItemID   string
	FunctionCode    string
	CategoryCode    string
	SubcategoryCode string
	Notes           string
}

// EditSuggestion opens a draft seeded from a suggestion.
func (s *Store) EditSuggestion(sug models.MappingSuggestion) *Draft {
	return &Draft{
		CatalogItemID:   sug.CatalogItemID,
		FunctionCode:    sug.SuggestedFunctionCode,
		CategoryCode:    sug.SuggestedCategoryCode,
		SubcategoryCode: sug.SuggestedSubcategoryCode,
	}
}

// CreateManualMapping synthesizes a placeholder suggestion for a catalog
// item that has no suggestion at all, then hands back the edit draft for
// it. The placeholder starts at the default function code with no category
// or subcategory chosen.
func (s *Store) CreateManualMapping(catalogItemID, defaultFunctionCode string) *Draft {
	if catalogItemID == "" {
		catalogItemID = uuid.NewString()
	}
	placeholder := models.MappingSuggestion{
		CatalogItemID:         catalogItemID,
		SuggestedFunctionCode: defaultFunctionCode,
		GeneratedAt:           time.Now().UTC(),
	}
	return s.EditSuggestion(placeholder)
}

// Save commits a draft. The draft replaces any existing confirmation for
// the same catalog item, keeping the one-mapping-per-item invariant.
func (s *Store) Save(d *Draft) error {
	if d.CatalogItemID == "" {
		return fmt.Errorf("draft has no catalog item id")
	}
	if d.FunctionCode == "" {
		return fmt.Errorf("draft has no function code")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byItem[d.CatalogItemID]; !exists {
		s.order = append(s.order, d.CatalogItemID)
	}
	s.byItem[d.CatalogItemID] = models.ConfirmedMapping{
		CatalogItemID:   d.CatalogItemID,
		FunctionCode:    d.FunctionCode,
		CategoryCode:    d.CategoryCode,
		SubcategoryCode: d.SubcategoryCode,
		ConfidenceScore: models.ManualConfidence,
		Method:          models.MethodManual,
		Notes:           d.Notes,
	}
	return nil
}

// Confirmed returns the mapping for a catalog item, if one exists.
func (s *Store) Confirmed(catalogItemID string) (models.ConfirmedMapping, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.byItem[catalogItemID]
	return m, ok
}

// Mappings returns every confirmed mapping in confirmation order.
func (s *Store) Mappings() []models.ConfirmedMapping {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.ConfirmedMapping, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byItem[id])
	}
	return out
}

// Count returns the number of confirmed mappings.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byItem)
}
