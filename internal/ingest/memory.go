package ingest

import (
	"context"
	"sync"

	"github.com/tbialecki/catmap/pkg/models"
)

// MemoryStore is an in-process CatalogStore for tests and dry runs.
type MemoryStore struct {
	mu      sync.Mutex
	items   map[string][]models.CatalogItem
	metrics map[string][]models.Metric
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items:   make(map[string][]models.CatalogItem),
		metrics: make(map[string][]models.Metric),
	}
}

func (m *MemoryStore) SaveItems(_ context.Context, catalogID string, items []models.CatalogItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[catalogID] = append(m.items[catalogID], items...)
	return nil
}

func (m *MemoryStore) Items(_ context.Context, catalogID string) ([]models.CatalogItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.CatalogItem, len(m.items[catalogID]))
	copy(out, m.items[catalogID])
	return out, nil
}

func (m *MemoryStore) SaveMetrics(_ context.Context, catalogID string, metrics []models.Metric) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metrics[catalogID] = metrics
	return nil
}

// Metrics returns the saved canonical metrics for a catalog.
func (m *MemoryStore) Metrics(catalogID string) []models.Metric {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Metric, len(m.metrics[catalogID]))
	copy(out, m.metrics[catalogID])
	return out
}
