package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tbialecki/catmap/internal/activate"
	"github.com/tbialecki/catmap/internal/confirm"
	"github.com/tbialecki/catmap/internal/coverage"
	"github.com/tbialecki/catmap/internal/enhance"
	"github.com/tbialecki/catmap/internal/fieldmap"
	"github.com/tbialecki/catmap/internal/ingest"
	"github.com/tbialecki/catmap/internal/suggest"
	"github.com/tbialecki/catmap/internal/taxonomy"
	"github.com/tbialecki/catmap/pkg/logger"
	"github.com/tbialecki/catmap/pkg/models"
)

// UploadData is what the upload stage collects before the catalog exists.
type UploadData struct {
	FileName      string
	CatalogName   string
	Description   string
	ActorID       string
	FrameworkCode string
	Source        ingest.CatalogSource
}

// FieldMappingData is the field-mapping stage's working state, seeded from
// the upload result and retained if the user navigates back into it.
type FieldMappingData struct {
	Columns []string
	Mapping fieldmap.Mapping
}

// Uploader is the ingestion collaborator.
type Uploader interface {
	Upload(ctx context.Context, req ingest.UploadRequest) (*ingest.UploadResult, error)
}

// Activator is the activation collaborator.
type Activator interface {
	Activate(ctx context.Context, catalogID string, mappings []models.ConfirmedMapping) error
}

// Deps wires the stage collaborators into a session.
type Deps struct {
	Uploader     Uploader
	Store        ingest.CatalogStore
	Taxonomy     *taxonomy.Tree
	Suggest      *suggest.Client
	Enhance      *enhance.Client
	Confirm      *confirm.Store
	Enhancements *enhance.Store
	Activator    Activator
	Repo         Repository // optional
	BatchSize    int
}

// Session is one run of the import wizard. All mutation goes through
// Advance, Skip and Back; stage data set earlier is retained when the user
// navigates back.
type Session struct {
	id        string
	createdAt time.Time
	deps      Deps

	mu        sync.Mutex
	stage     Stage
	catalogID string
	upload    UploadData
	fields    FieldMappingData
	result    *ingest.UploadResult
}

// New starts a session at the upload stage and records it.
func New(ctx context.Context, deps Deps) (*Session, error) {
	s := &Session{
		id:        uuid.NewString(),
		createdAt: time.Now().UTC(),
		deps:      deps,
		stage:     StageUpload,
	}
	if err := s.persist(ctx); err != nil {
		return nil, fmt.Errorf("failed to record session: %w", err)
	}
	return s, nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) Stage() Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

func (s *Session) CatalogID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalogID
}

// SetUpload stores the upload stage's inputs.
func (s *Session) SetUpload(d UploadData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upload = d
}

// SetFieldMapping replaces the working field mapping.
func (s *Session) SetFieldMapping(m fieldmap.Mapping) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fields.Mapping = m
}

// FieldMapping returns the working field-mapping stage data.
func (s *Session) FieldMapping() FieldMappingData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fields
}

// UploadResult returns the ingestion outcome, nil before upload completes.
func (s *Session) UploadResult() *ingest.UploadResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Coverage recomputes the coverage snapshot from the confirmed mappings.
// Cheap enough to call on every render.
func (s *Session) Coverage() models.CoverageSnapshot {
	return coverage.Compute(s.deps.Taxonomy, s.deps.Confirm.Mappings())
}

// Advance validates the current stage's gate and moves forward one stage.
// A *ValidationError blocks only this transition.
func (s *Session) Advance(ctx context.Context) error {
	s.mu.Lock()
	stage := s.stage
	s.mu.Unlock()

	switch stage {
	case StageUpload:
		return s.advanceUpload(ctx)
	case StageFieldMapping:
		return s.advanceFieldMapping(ctx)
	case StageFrameworkMapping:
		return s.advanceFrameworkMapping(ctx)
	case StageEnhancement:
		return s.advanceEnhancement(ctx)
	case StageActivation:
		return s.advanceActivation(ctx)
	default:
		return fmt.Errorf("session is complete")
	}
}

func (s *Session) advanceUpload(ctx context.Context) error {
	s.mu.Lock()
	d := s.upload
	s.mu.Unlock()

	if d.Source == nil {
		return &ValidationError{Stage: StageUpload, Msg: "a catalog file must be selected"}
	}
	if d.CatalogName == "" {
		return &ValidationError{Stage: StageUpload, Field: "catalog_name", Msg: "catalog name must not be empty"}
	}

	result, err := s.deps.Uploader.Upload(ctx, ingest.UploadRequest{
		CatalogName:   d.CatalogName,
		Description:   d.Description,
		ActorID:       d.ActorID,
		FrameworkCode: d.FrameworkCode,
		Source:        d.Source,
		BatchSize:     s.deps.BatchSize,
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.result = result
	s.catalogID = result.CatalogID
	if s.fields.Mapping == nil {
		s.fields = FieldMappingData{Columns: result.Columns, Mapping: result.SuggestedMapping}
	}
	s.stage = StageFieldMapping
	s.mu.Unlock()

	return s.persist(ctx)
}

func (s *Session) advanceFieldMapping(ctx context.Context) error {
	s.mu.Lock()
	mapping := s.fields.Mapping
	catalogID := s.catalogID
	s.mu.Unlock()

	if err := fieldmap.Validate(mapping); err != nil {
		if ve, ok := err.(*fieldmap.ValidationError); ok {
			return &ValidationError{Stage: StageFieldMapping, Field: ve.Field, Msg: "must be mapped to a source column"}
		}
		return err
	}

	items, err := s.deps.Store.Items(ctx, catalogID)
	if err != nil {
		return fmt.Errorf("failed to load catalog items: %w", err)
	}

	transformer := fieldmap.NewTransformer(mapping)
	metrics := make([]models.Metric, 0, len(items))
	for _, item := range items {
		metric, err := transformer.Apply(item)
		if err != nil {
			logger.Warnf("Skipping catalog item %s: %v", item.ID, err)
			continue
		}
		metrics = append(metrics, metric)
	}
	if err := s.deps.Store.SaveMetrics(ctx, catalogID, metrics); err != nil {
		return fmt.Errorf("failed to save metrics: %w", err)
	}

	s.enterFrameworkMapping(ctx)
	return s.persist(ctx)
}

// Skip bypasses the current stage without validating it. Only positionally
// skippable stages allow this.
func (s *Session) Skip(ctx context.Context) error {
	s.mu.Lock()
	stage := s.stage
	s.mu.Unlock()

	if !stage.Skippable() {
		return &ValidationError{Stage: stage, Msg: "stage cannot be skipped"}
	}
	s.enterFrameworkMapping(ctx)
	return s.persist(ctx)
}

func (s *Session) enterFrameworkMapping(ctx context.Context) {
	s.mu.Lock()
	s.stage = StageFrameworkMapping
	catalogID := s.catalogID
	frameworkCode := s.upload.FrameworkCode
	s.mu.Unlock()

	if len(s.deps.Suggest.Suggestions()) == 0 {
		s.deps.Suggest.AutoTrigger(ctx, catalogID, frameworkCode)
	}
}

func (s *Session) advanceFrameworkMapping(ctx context.Context) error {
	if s.deps.Confirm.Count() == 0 {
		return &ValidationError{
			Stage: StageFrameworkMapping,
			Msg:   "no mappings confirmed yet; accept a suggestion or map a metric manually",
		}
	}

	s.mu.Lock()
	s.stage = StageEnhancement
	catalogID := s.catalogID
	s.mu.Unlock()

	s.deps.Enhance.AutoTrigger(ctx, catalogID)
	return s.persist(ctx)
}

func (s *Session) advanceEnhancement(ctx context.Context) error {
	generated := s.deps.Enhance.GeneratedCount()
	accepted := s.deps.Enhancements.Count()

	// The gate exists to prevent silently discarding generated
	// suggestions, not to force work that never existed: zero generated
	// (failure or empty) advances freely.
	if generated > 0 && accepted == 0 {
		return &ValidationError{
			Stage: StageEnhancement,
			Msg:   fmt.Sprintf("%d enhancement suggestions were generated but none accepted; accept at least one or go back", generated),
		}
	}

	s.mu.Lock()
	s.stage = StageActivation
	s.mu.Unlock()
	return s.persist(ctx)
}

func (s *Session) advanceActivation(ctx context.Context) error {
	s.mu.Lock()
	catalogID := s.catalogID
	s.mu.Unlock()

	if catalogID == "" {
		return &ValidationError{Stage: StageActivation, Msg: "no catalog to activate"}
	}

	if err := s.deps.Activator.Activate(ctx, catalogID, s.deps.Confirm.Mappings()); err != nil {
		return err
	}

	s.mu.Lock()
	s.stage = StageComplete
	s.mu.Unlock()

	if s.deps.Repo != nil {
		if err := s.deps.Repo.Delete(ctx, s.id); err != nil {
			logger.Warnf("Failed to delete completed session %s: %v", s.id, err)
		}
	}
	return nil
}

// Back moves one stage backwards without destroying the prior stage's
// data. An outstanding suggestion or enhancement request for the stage
// being left is cancelled.
func (s *Session) Back(ctx context.Context) error {
	s.mu.Lock()
	stage := s.stage
	s.mu.Unlock()

	switch stage {
	case StageUpload:
		return fmt.Errorf("already at the first stage")
	case StageComplete:
		return fmt.Errorf("session is complete")
	case StageFrameworkMapping:
		s.deps.Suggest.Cancel()
	case StageEnhancement:
		s.deps.Enhance.Cancel()
	}

	s.mu.Lock()
	s.stage = stage - 1
	s.mu.Unlock()
	return s.persist(ctx)
}

func (s *Session) persist(ctx context.Context) error {
	if s.deps.Repo == nil {
		return nil
	}

	s.mu.Lock()
	rec := models.SessionRecord{
		ID:            s.id,
		Stage:         s.stage.String(),
		CatalogID:     s.catalogID,
		CatalogName:   s.upload.CatalogName,
		FrameworkCode: s.upload.FrameworkCode,
		CreatedAt:     s.createdAt,
		UpdatedAt:     time.Now().UTC(),
	}
	s.mu.Unlock()

	return s.deps.Repo.Save(ctx, rec)
}

var _ Activator = (*activate.Coordinator)(nil)
