package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tbialecki/catmap/internal/fieldmap"
	"github.com/tbialecki/catmap/pkg/logger"
	"github.com/tbialecki/catmap/pkg/models"
)

// UploadRequest carries everything the upload collaborator needs.
type UploadRequest struct {
	CatalogName   string
	Description   string
	ActorID       string
	FrameworkCode string
	Source        CatalogSource
	BatchSize     int
}

// UploadResult reports what the upload produced. SuggestedMapping is the
// best-effort column match the field-mapping stage is seeded with.
type UploadResult struct {
	CatalogID        string
	ItemsImported    int
	ImportErrors     []models.RowError
	Columns          []string
	SuggestedMapping fieldmap.Mapping
}

// Pipeline batches rows from a source into a store.
type Pipeline struct {
	Store     CatalogStore
	BatchSize int
}

func NewPipeline(store CatalogStore, batchSize int) *Pipeline {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Pipeline{Store: store, BatchSize: batchSize}
}

// Upload ingests the whole source under a fresh catalog id. Rows that
// cannot be imported are collected as row errors, not fatal failures; the
// pipeline only aborts when the source or store itself fails.
func (p *Pipeline) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	if strings.TrimSpace(req.CatalogName) == "" {
		return nil, fmt.Errorf("catalog name must not be empty")
	}

	columns, err := req.Source.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read source columns: %w", err)
	}

	batchSize := req.BatchSize
	if batchSize <= 0 {
		batchSize = p.BatchSize
	}

	result := &UploadResult{
		CatalogID:        uuid.NewString(),
		Columns:          columns,
		SuggestedMapping: fieldmap.AutoMap(columns),
	}

	logger.Infof("Starting upload of catalog %q (%s). Batch size: %d", req.CatalogName, result.CatalogID, batchSize)

	offset := 0
	startTime := time.Now()
	for {
		items, newOffset, err := req.Source.Extract(batchSize, offset)
		if err != nil {
			logger.Errorf("Extraction failed at offset %d: %v", offset, err)
			return nil, err
		}
		if len(items) == 0 {
			break
		}

		batch := make([]models.CatalogItem, 0, len(items))
		for _, item := range items {
			if emptyRow(item) {
				result.ImportErrors = append(result.ImportErrors, models.RowError{
					RowIndex: item.RowIndex,
					Reason:   "row has no values",
				})
				continue
			}
			item.ID = uuid.NewString()
			batch = append(batch, item)
		}

		if len(batch) > 0 {
			if err := p.Store.SaveItems(ctx, result.CatalogID, batch); err != nil {
				logger.Errorf("Loading failed at offset %d: %v", offset, err)
				return nil, err
			}
		}

		result.ItemsImported += len(batch)
		offset = newOffset

		rate := 0.0
		if secs := time.Since(startTime).Seconds(); secs > 0 {
			rate = float64(result.ItemsImported) / secs
		}
		logger.Infof("Batch done. Imported: %d. Rate: %.2f rows/sec", result.ItemsImported, rate)
	}

	logger.Infof("Upload finished: %d items, %d row errors", result.ItemsImported, len(result.ImportErrors))
	return result, nil
}

func emptyRow(item models.CatalogItem) bool {
	for _, f := range item.Raw {
		if strings.TrimSpace(f.Value) != "" {
			return false
		}
	}
	return true
}
