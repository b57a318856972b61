package session

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbialecki/catmap/internal/activate"
	"github.com/tbialecki/catmap/internal/async"
	"github.com/tbialecki/catmap/internal/confirm"
	"github.com/tbialecki/catmap/internal/enhance"
	"github.com/tbialecki/catmap/internal/fieldmap"
	"github.com/tbialecki/catmap/internal/ingest"
	"github.com/tbialecki/catmap/internal/suggest"
	"github.com/tbialecki/catmap/internal/taxonomy"
	"github.com/tbialecki/catmap/pkg/models"
)

const goodCSV = "name,direction\nUptime,up\nMTTR,down\n"

// unmappableCSV automaps direction but not name, so the field-mapping gate
// has something to complain about.
const unmappableCSV = "metric_name,direction\nUptime,up\n"

type fakeSuggestService struct {
	suggestions []models.MappingSuggestion
	release     chan struct{}
}

func (f *fakeSuggestService) SuggestMappings(ctx context.Context, _, _ string) ([]models.MappingSuggestion, error) {
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.suggestions, nil
}

type fakeEnhanceService struct {
	enhancements []models.MetricEnhancement
}

func (f *fakeEnhanceService) SuggestEnhancements(context.Context, string) ([]models.MetricEnhancement, error) {
	return f.enhancements, nil
}

func testTaxonomy(t *testing.T) *taxonomy.Tree {
	t.Helper()
	tree, err := taxonomy.FromDocument(taxonomy.Document{
		FrameworkCode: "nist-csf-2",
		Functions: []taxonomy.FunctionDoc{
			{Code: "gv", Name: "Govern", Categories: []taxonomy.CategoryDoc{
				{Code: "GV.OC", Subcategories: []taxonomy.SubcategoryDoc{{Code: "GV.OC-01"}}},
			}},
			{Code: "id", Name: "Identify", Categories: []taxonomy.CategoryDoc{
				{Code: "ID.AM", Subcategories: []taxonomy.SubcategoryDoc{{Code: "ID.AM-01"}}},
			}},
		},
	})
	require.NoError(t, err)
	return tree
}

type testEnv struct {
	deps     Deps
	store    *ingest.MemoryStore
	repo     *MemoryRepository
	registry *activate.MemoryRegistry
	saver    *recordingSaver
}

type recordingSaver struct {
	mappings []models.ConfirmedMapping
}

func (r *recordingSaver) SaveMappings(_ context.Context, _ string, mappings []models.ConfirmedMapping) error {
	r.mappings = mappings
	return nil
}

func newEnv(t *testing.T, suggestSvc suggest.Service, enhanceSvc enhance.Service) *testEnv {
	t.Helper()
	if suggestSvc == nil {
		suggestSvc = &fakeSuggestService{suggestions: []models.MappingSuggestion{
			{CatalogItemID: "item-1", SuggestedFunctionCode: "gv", SuggestedCategoryCode: "GV.OC", SuggestedSubcategoryCode: "GV.OC-01", ConfidenceScore: 0.9},
			{CatalogItemID: "item-2", SuggestedFunctionCode: "id", SuggestedCategoryCode: "ID.AM", SuggestedSubcategoryCode: "ID.AM-01", ConfidenceScore: 0.7},
		}}
	}
	if enhanceSvc == nil {
		enhanceSvc = &fakeEnhanceService{}
	}

	store := ingest.NewMemoryStore()
	repo := NewMemoryRepository()
	registry := &activate.MemoryRegistry{}
	saver := &recordingSaver{}

	return &testEnv{
		deps: Deps{
			Uploader:     ingest.NewPipeline(store, 50),
			Store:        store,
			Taxonomy:     testTaxonomy(t),
			Suggest:      suggest.NewClient(suggestSvc, time.Second, async.NopReporter{}),
			Enhance:      enhance.NewClient(enhanceSvc, time.Second, async.NopReporter{}),
			Confirm:      confirm.NewStore(),
			Enhancements: enhance.NewStore(),
			Activator:    &activate.Coordinator{Registry: registry, Mappings: saver},
			Repo:         repo,
		},
		store:    store,
		repo:     repo,
		registry: registry,
		saver:    saver,
	}
}

func startSession(t *testing.T, env *testEnv, csv string) *Session {
	t.Helper()
	src, err := ingest.NewCSVSource(strings.NewReader(csv))
	require.NoError(t, err)

	sess, err := New(context.Background(), env.deps)
	require.NoError(t, err)
	sess.SetUpload(UploadData{
		FileName:      "catalog.csv",
		CatalogName:   "ops catalog",
		FrameworkCode: "nist-csf-2",
		Source:        src,
	})
	return sess
}

func TestAdvanceUploadGates(t *testing.T) {
	env := newEnv(t, nil, nil)
	ctx := context.Background()

	sess, err := New(ctx, env.deps)
	require.NoError(t, err)

	// No source selected.
	err = sess.Advance(ctx)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, StageUpload, ve.Stage)
	assert.Equal(t, StageUpload, sess.Stage())

	// Source but no catalog name.
	src, err := ingest.NewCSVSource(strings.NewReader(goodCSV))
	require.NoError(t, err)
	sess.SetUpload(UploadData{Source: src})
	err = sess.Advance(ctx)
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "catalog_name", ve.Field)
	assert.Equal(t, StageUpload, sess.Stage())
}

func TestAdvanceUploadSeedsFieldMapping(t *testing.T) {
	env := newEnv(t, nil, nil)
	ctx := context.Background()
	sess := startSession(t, env, goodCSV)

	require.NoError(t, sess.Advance(ctx))
	assert.Equal(t, StageFieldMapping, sess.Stage())
	assert.NotEmpty(t, sess.CatalogID())

	fields := sess.FieldMapping()
	assert.Equal(t, []string{"name", "direction"}, fields.Columns)
	assert.Equal(t, "name", fields.Mapping[fieldmap.FieldName])
	assert.Equal(t, "direction", fields.Mapping[fieldmap.FieldDirection])

	result := sess.UploadResult()
	require.NotNil(t, result)
	assert.Equal(t, 2, result.ItemsImported)
}

func TestFieldMappingGateNamesFirstMissingField(t *testing.T) {
	env := newEnv(t, nil, nil)
	ctx := context.Background()
	sess := startSession(t, env, unmappableCSV)
	require.NoError(t, sess.Advance(ctx))

	err := sess.Advance(ctx)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, StageFieldMapping, ve.Stage)
	assert.Equal(t, "name", ve.Field)
	assert.Equal(t, StageFieldMapping, sess.Stage())

	// Fixing the mapping unblocks the gate and transforms the metrics.
	sess.SetFieldMapping(fieldmap.Mapping{
		fieldmap.FieldName:      "metric_name",
		fieldmap.FieldDirection: "direction",
	})
	require.NoError(t, sess.Advance(ctx))
	assert.Equal(t, StageFrameworkMapping, sess.Stage())

	metrics := env.store.Metrics(sess.CatalogID())
	require.Len(t, metrics, 1)
	assert.Equal(t, "Uptime", metrics[0].Name)
}

func TestSkipFieldMapping(t *testing.T) {
	env := newEnv(t, nil, nil)
	ctx := context.Background()
	sess := startSession(t, env, goodCSV)

	// Only the field-mapping stage may be skipped.
	err := sess.Skip(ctx)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)

	require.NoError(t, sess.Advance(ctx))
	require.NoError(t, sess.Skip(ctx))
	assert.Equal(t, StageFrameworkMapping, sess.Stage())
}

func TestFrameworkMappingGateRequiresConfirmation(t *testing.T) {
	env := newEnv(t, nil, nil)
	ctx := context.Background()
	sess := startSession(t, env, goodCSV)
	require.NoError(t, sess.Advance(ctx))
	require.NoError(t, sess.Advance(ctx))

	env.deps.Suggest.Wait()
	require.Len(t, env.deps.Suggest.Suggestions(), 2)

	err := sess.Advance(ctx)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, StageFrameworkMapping, ve.Stage)

	env.deps.Confirm.AcceptSuggestion(env.deps.Suggest.Suggestions()[0])
	require.NoError(t, sess.Advance(ctx))
	assert.Equal(t, StageEnhancement, sess.Stage())
}

func TestEnhancementGate(t *testing.T) {
	enhanceSvc := &fakeEnhanceService{enhancements: []models.MetricEnhancement{
		{CatalogItemID: "item-1", SuggestedPriority: 1},
		{CatalogItemID: "item-2", SuggestedPriority: 2},
	}}
	env := newEnv(t, nil, enhanceSvc)
	ctx := context.Background()
	sess := startSession(t, env, goodCSV)
	require.NoError(t, sess.Advance(ctx))
	require.NoError(t, sess.Advance(ctx))
	env.deps.Suggest.Wait()
	env.deps.Confirm.AcceptAll(env.deps.Suggest.Suggestions())
	require.NoError(t, sess.Advance(ctx))

	env.deps.Enhance.Wait()
	require.Equal(t, 2, env.deps.Enhance.GeneratedCount())

	// Generated but none accepted: blocked.
	err := sess.Advance(ctx)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, StageEnhancement, ve.Stage)

	// One acceptance satisfies the gate.
	env.deps.Enhancements.Accept(env.deps.Enhance.Enhancements()[0])
	require.NoError(t, sess.Advance(ctx))
	assert.Equal(t, StageActivation, sess.Stage())
}

func TestEnhancementGateOpenWhenNothingGenerated(t *testing.T) {
	env := newEnv(t, nil, &fakeEnhanceService{})
	ctx := context.Background()
	sess := startSession(t, env, goodCSV)
	require.NoError(t, sess.Advance(ctx))
	require.NoError(t, sess.Advance(ctx))
	env.deps.Suggest.Wait()
	env.deps.Confirm.AcceptAll(env.deps.Suggest.Suggestions())
	require.NoError(t, sess.Advance(ctx))
	env.deps.Enhance.Wait()

	require.NoError(t, sess.Advance(ctx))
	assert.Equal(t, StageActivation, sess.Stage())
}

func TestWizardCompletes(t *testing.T) {
	env := newEnv(t, nil, nil)
	ctx := context.Background()
	sess := startSession(t, env, goodCSV)

	require.NoError(t, sess.Advance(ctx))
	require.NoError(t, sess.Advance(ctx))
	env.deps.Suggest.Wait()
	env.deps.Confirm.AcceptAll(env.deps.Suggest.Suggestions())
	require.NoError(t, sess.Advance(ctx))
	env.deps.Enhance.Wait()
	require.NoError(t, sess.Advance(ctx))
	require.NoError(t, sess.Advance(ctx))

	assert.Equal(t, StageComplete, sess.Stage())

	active, _, err := env.registry.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, sess.CatalogID(), active)
	assert.Len(t, env.saver.mappings, 2)

	// The completed session record is gone.
	_, err = env.repo.Get(ctx, sess.ID())
	assert.Error(t, err)

	// Both functions fully covered.
	snap := sess.Coverage()
	assert.Equal(t, 100.0, snap.OverallPercentage)

	// No stage remains to advance.
	assert.Error(t, sess.Advance(ctx))
}

func TestBackRetainsEarlierStageData(t *testing.T) {
	env := newEnv(t, nil, nil)
	ctx := context.Background()
	sess := startSession(t, env, goodCSV)
	require.NoError(t, sess.Advance(ctx))
	require.NoError(t, sess.Advance(ctx))
	env.deps.Suggest.Wait()

	require.NoError(t, sess.Back(ctx))
	assert.Equal(t, StageFieldMapping, sess.Stage())
	assert.Equal(t, "name", sess.FieldMapping().Mapping[fieldmap.FieldName])

	require.NoError(t, sess.Back(ctx))
	assert.Equal(t, StageUpload, sess.Stage())
	require.NotNil(t, sess.UploadResult())

	assert.Error(t, sess.Back(ctx))
}

func TestBackCancelsOutstandingSuggestion(t *testing.T) {
	blocking := &fakeSuggestService{release: make(chan struct{})}
	env := newEnv(t, blocking, nil)
	ctx := context.Background()
	sess := startSession(t, env, goodCSV)
	require.NoError(t, sess.Advance(ctx))
	require.NoError(t, sess.Advance(ctx))
	require.True(t, env.deps.Suggest.InFlight())

	require.NoError(t, sess.Back(ctx))
	env.deps.Suggest.Wait()

	f := env.deps.Suggest.Failure()
	require.NotNil(t, f)
	assert.Equal(t, async.FailureCancelled, f.Kind)
	assert.Empty(t, env.deps.Suggest.Suggestions())
}

func TestSessionRecordTracksStage(t *testing.T) {
	env := newEnv(t, nil, nil)
	ctx := context.Background()
	sess := startSession(t, env, goodCSV)

	rec, err := env.repo.Get(ctx, sess.ID())
	require.NoError(t, err)
	assert.Equal(t, "Upload", rec.Stage)

	require.NoError(t, sess.Advance(ctx))
	rec, err = env.repo.Get(ctx, sess.ID())
	require.NoError(t, err)
	assert.Equal(t, "FieldMapping", rec.Stage)
	assert.Equal(t, "ops catalog", rec.CatalogName)
}

func TestPurgeAbandonedSessions(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	stale := models.SessionRecord{ID: "old", UpdatedAt: time.Now().Add(-48 * time.Hour)}
	fresh := models.SessionRecord{ID: "new", UpdatedAt: time.Now()}
	require.NoError(t, repo.Save(ctx, stale))
	require.NoError(t, repo.Save(ctx, fresh))

	purged, err := repo.PurgeAbandoned(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, purged)

	_, err = repo.Get(ctx, "old")
	assert.Error(t, err)
	_, err = repo.Get(ctx, "new")
	assert.NoError(t, err)
}
