// Package ingest implements the upload side of the import wizard: paging
// metric rows out of a catalog source, collecting per-row import errors,
// and loading catalog items into a store.
package ingest

import (
	"context"

	"github.com/tbialecki/catmap/pkg/models"
)

// CatalogSource pages raw metric rows out of a file or database. Items come
// back without IDs; the pipeline assigns them.
type CatalogSource interface {
	Columns() ([]string, error)
	Extract(batchSize, offset int) ([]models.CatalogItem, int, error)
}

// CatalogStore persists catalog items and, after field mapping, their
// canonical metrics.
type CatalogStore interface {
	SaveItems(ctx context.Context, catalogID string, items []models.CatalogItem) error
	Items(ctx context.Context, catalogID string) ([]models.CatalogItem, error)
	SaveMetrics(ctx context.Context, catalogID string, metrics []models.Metric) error
}
