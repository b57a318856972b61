package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/tbialecki/catmap/internal/activate"
	"github.com/tbialecki/catmap/internal/async"
	"github.com/tbialecki/catmap/internal/config"
	"github.com/tbialecki/catmap/internal/confirm"
	"github.com/tbialecki/catmap/internal/coverage"
	"github.com/tbialecki/catmap/internal/enhance"
	"github.com/tbialecki/catmap/internal/ingest"
	"github.com/tbialecki/catmap/internal/session"
	"github.com/tbialecki/catmap/internal/suggest"
	"github.com/tbialecki/catmap/internal/taxonomy"
	"github.com/tbialecki/catmap/pkg/database"
	"github.com/tbialecki/catmap/pkg/logger"
	"github.com/tbialecki/catmap/pkg/models"
)

func runImport(ctx context.Context, opts *ImportOptions) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	mongoClient, err := database.ConnectMongo(cfg.MongoConnString)
	if err != nil {
		return err
	}
	defer mongoClient.Disconnect(context.Background())

	tree, err := taxonomy.Load(cfg.TaxonomyFile)
	if err != nil {
		return err
	}

	source, cleanup, err := openSource(cfg, opts)
	if err != nil {
		return err
	}
	defer cleanup()

	store := ingest.NewMongoStore(mongoClient, cfg.MongoDatabase)
	suggestProgress := &async.ProgressState{}
	enhanceProgress := &async.ProgressState{}

	confirmStore := confirm.NewStore()
	enhanceStore := enhance.NewStore()
	suggestClient := suggest.NewClient(
		&suggest.HTTPService{BaseURL: cfg.SuggestServiceURL}, cfg.SuggestTimeout, suggestProgress)
	enhanceClient := enhance.NewClient(
		&enhance.HTTPService{BaseURL: cfg.SuggestServiceURL}, cfg.SuggestTimeout, enhanceProgress)

	deps := session.Deps{
		Uploader:     ingest.NewPipeline(store, opts.BatchSize),
		Store:        store,
		Taxonomy:     tree,
		Suggest:      suggestClient,
		Enhance:      enhanceClient,
		Confirm:      confirmStore,
		Enhancements: enhanceStore,
		Activator: &activate.Coordinator{
			Registry: activate.NewMongoRegistry(mongoClient, cfg.MongoDatabase, ""),
			Mappings: confirm.NewMongoRepository(mongoClient, cfg.MongoDatabase),
		},
		Repo:      session.NewMongoRepository(mongoClient, cfg.MongoDatabase),
		BatchSize: opts.BatchSize,
	}

	sess, err := session.New(ctx, deps)
	if err != nil {
		return err
	}

	sess.SetUpload(session.UploadData{
		FileName:      opts.File,
		CatalogName:   opts.CatalogName,
		Description:   opts.Description,
		ActorID:       opts.ActorID,
		FrameworkCode: opts.FrameworkCode,
		Source:        source,
	})

	if err := sess.Advance(ctx); err != nil {
		return err
	}
	result := sess.UploadResult()
	logger.Infof("Uploaded catalog %s: %d items, %d row errors", result.CatalogID, result.ItemsImported, len(result.ImportErrors))
	for _, re := range result.ImportErrors {
		logger.Warnf("Row %d skipped: %s", re.RowIndex, re.Reason)
	}

	if opts.SkipFields {
		if err := sess.Skip(ctx); err != nil {
			return err
		}
	} else if err := sess.Advance(ctx); err != nil {
		return err
	}

	waitWithProgress(suggestClient.Wait, suggestProgress, "suggestions")
	if f := suggestClient.Failure(); f != nil {
		logger.Warnf("%s", suggestClient.FailureMessage())
	}
	suggestions := suggestClient.Suggestions()
	if len(suggestions) == 0 {
		return fmt.Errorf("no mapping suggestions available; retry later or confirm mappings manually")
	}
	logger.Infof("Accepted %d of %d suggested mappings", confirmStore.AcceptAll(suggestions), len(suggestions))

	if err := sess.Advance(ctx); err != nil {
		return err
	}

	waitWithProgress(enhanceClient.Wait, enhanceProgress, "enhancements")
	if f := enhanceClient.Failure(); f != nil {
		logger.Warnf("%s", enhanceClient.FailureMessage())
	}
	if n := enhanceClient.GeneratedCount(); n > 0 {
		logger.Infof("Accepted %d of %d suggested enhancements", enhanceStore.AcceptAll(enhanceClient.Enhancements()), n)
	}

	if err := sess.Advance(ctx); err != nil {
		return err
	}
	if err := sess.Advance(ctx); err != nil {
		return err
	}

	logger.Infof("Import session %s complete; catalog %s is now active", sess.ID(), sess.CatalogID())
	printSnapshot(sess.Coverage())
	return nil
}

func openSource(cfg *config.Config, opts *ImportOptions) (ingest.CatalogSource, func(), error) {
	switch {
	case opts.File != "":
		f, err := os.Open(opts.File)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open catalog file: %w", err)
		}
		src, err := ingest.NewCSVSource(f)
		f.Close()
		if err != nil {
			return nil, nil, err
		}
		return src, func() {}, nil
	case opts.Table != "":
		if cfg.SQLConnString == "" {
			return nil, nil, fmt.Errorf("SQL_CONNECTION_STRING must be set to import from a table")
		}
		db, err := database.ConnectSQL(cfg.SQLConnString)
		if err != nil {
			return nil, nil, err
		}
		return ingest.NewSQLSource(db, opts.Table, opts.OrderBy), func() { db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("either --file or --table is required")
	}
}

// waitWithProgress blocks on wait while echoing phase changes.
func waitWithProgress(wait func(), progress *async.ProgressState, what string) {
	done := make(chan struct{})
	go func() {
		wait()
		close(done)
	}()

	lastPhase := ""
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			u := progress.Last()
			if u.Phase != "" && u.Phase != lastPhase {
				lastPhase = u.Phase
				logger.Infof("Waiting for %s: %s (%d%%) - %s", what, u.Phase, u.Percent, u.Status)
			}
		}
	}
}

func printSnapshot(snap models.CoverageSnapshot) {
	for _, fc := range snap.Functions {
		logger.Infof("Function %-6s categories %d/%d, subcategories %d/%d, metrics %d (%.1f%%)",
			fc.FunctionCode, fc.CoveredCategories, fc.TotalCategories,
			fc.CoveredSubcategories, fc.TotalSubcategories, fc.MetricCount, fc.Percentage)
	}
	logger.Infof("Overall coverage: %.1f%%", snap.OverallPercentage)
}

func runCoverage(ctx context.Context, catalogID string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	mongoClient, err := database.ConnectMongo(cfg.MongoConnString)
	if err != nil {
		return err
	}
	defer mongoClient.Disconnect(context.Background())

	tree, err := taxonomy.Load(cfg.TaxonomyFile)
	if err != nil {
		return err
	}

	mappings, err := confirm.NewMongoRepository(mongoClient, cfg.MongoDatabase).Mappings(ctx, catalogID)
	if err != nil {
		return err
	}

	printSnapshot(coverage.Compute(tree, mappings))
	return nil
}

func runPurge(ctx context.Context, olderThan time.Duration) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	mongoClient, err := database.ConnectMongo(cfg.MongoConnString)
	if err != nil {
		return err
	}
	defer mongoClient.Disconnect(context.Background())

	purged, err := session.NewMongoRepository(mongoClient, cfg.MongoDatabase).PurgeAbandoned(ctx, olderThan)
	if err != nil {
		return err
	}
	logger.Infof("Purged %d abandoned sessions", purged)
	return nil
}
