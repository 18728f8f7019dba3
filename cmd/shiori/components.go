package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/shiori/internal/catalog"
	"github.com/hyperjump/shiori/internal/config"
	"github.com/hyperjump/shiori/internal/extract"
	"github.com/hyperjump/shiori/internal/indexer"
	"github.com/hyperjump/shiori/internal/keyword"
	"github.com/hyperjump/shiori/internal/metrics"
	"github.com/hyperjump/shiori/internal/recommend"
	"github.com/hyperjump/shiori/internal/search"
	"github.com/hyperjump/shiori/internal/storage"
)

// Components holds initialized services.
type Components struct {
	Storage      storage.Storage
	KeywordIndex keyword.KeywordIndex
	Engine       *search.Engine
	Indexer      *indexer.Indexer
}

func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.KeywordIndex != nil {
		_ = c.KeywordIndex.Close()
	}
}

// initializeComponents wires storage, indices, engine and indexer. With memIndex the
// full-text index lives in memory, so one-shot commands never contend for the
// on-disk index lock held by a running server.
func initializeComponents(cfg *config.Config, logger *zap.Logger, debug, memIndex bool) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	indexPath := cfg.Storage.BleveIndexPath
	if memIndex {
		indexPath = ""
	}
	keywordIndex, err := keyword.NewBleveIndex(indexPath, keyword.WithFuzziness(cfg.Search.Fuzziness))
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize keyword index: %w", err)
	}

	recorder := metrics.NewRecorder(cfg.Recommend.CacheEnabled)
	recOpts := []recommend.Option{recommend.WithObserver(recorder)}
	if cfg.Recommend.CacheEnabled {
		cache, err := recommend.NewModelCache(cfg.Recommend.CacheSize)
		if err != nil {
			_ = store.Close()
			_ = keywordIndex.Close()
			return nil, fmt.Errorf("failed to initialize recommendation cache: %w", err)
		}
		recOpts = append(recOpts, recommend.WithCache(cache))
	}
	if debug {
		recOpts = append(recOpts, recommend.WithLogger(logger))
	}

	engine := search.NewEngine(store, keywordIndex, recommend.NewRecommender(recOpts...),
		&cfg.Search, &cfg.Recommend,
		search.WithLogger(logger),
		search.WithCatalogObserver(recorder),
	)

	loaderOpts := []catalog.LoaderOption{catalog.WithExtractor(extract.NewExtractor())}
	idxOpts := []indexer.IndexerOption{}
	if debug {
		loaderOpts = append(loaderOpts, catalog.WithLogger(logger))
		idxOpts = append(idxOpts, indexer.WithLogger(logger))
	}
	idx := indexer.NewIndexer(store, catalog.NewLoader(loaderOpts...), engine, idxOpts...)

	return &Components{
		Storage:      store,
		KeywordIndex: keywordIndex,
		Engine:       engine,
		Indexer:      idx,
	}, nil
}

// bootstrapCatalog brings the store in line with the configuration and loads the
// engine snapshot. With replace, a configured catalog file replaces the stored
// catalog; without it the file is only imported into an empty store, so books added
// through the API or an upsert import survive read-only commands. An empty store
// with no catalog file is seeded with the sample catalog when enabled.
func bootstrapCatalog(ctx context.Context, cfg *config.Config, c *Components, logger *zap.Logger, replace bool) error {
	count, err := c.Storage.CountBooks(ctx)
	if err != nil {
		return fmt.Errorf("failed to count books: %w", err)
	}
	switch {
	case cfg.Catalog.Path != "" && (replace || count == 0):
		if _, err := c.Indexer.Import(ctx, cfg.Catalog.Path, true); err != nil {
			return err
		}
		return nil
	case cfg.Catalog.Path == "" && count == 0 && cfg.Catalog.SeedSampleOrDefault():
		seeded, err := c.Indexer.SeedSample(ctx)
		if err != nil {
			return err
		}
		if seeded {
			return nil
		}
	}
	if err := c.Engine.Reload(ctx); err != nil {
		return err
	}
	if c.Engine.Count() == 0 {
		logger.Warn("catalog is empty; import a catalog file or enable catalog.seed_sample")
	}
	return nil
}
