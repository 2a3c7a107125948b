// Package app wires the import pipeline from a Config. Both binaries start here.
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/knowledge-vault/constants"
	"github.com/joseph-ayodele/knowledge-vault/internal/classify"
	"github.com/joseph-ayodele/knowledge-vault/internal/common"
	"github.com/joseph-ayodele/knowledge-vault/internal/export"
	"github.com/joseph-ayodele/knowledge-vault/internal/extract"
	"github.com/joseph-ayodele/knowledge-vault/internal/ingest"
	"github.com/joseph-ayodele/knowledge-vault/internal/llm"
	"github.com/joseph-ayodele/knowledge-vault/internal/repository"
	"github.com/joseph-ayodele/knowledge-vault/internal/scrape"
	"github.com/joseph-ayodele/knowledge-vault/internal/storage"
	"github.com/joseph-ayodele/knowledge-vault/internal/thumbnail"
)

type Options struct {
	// InMemory keeps items and categories in process instead of the database.
	InMemory bool
}

type App struct {
	Config *common.Config
	Logger *slog.Logger
	DB     *repository.DB
	Repos  repository.Repositories
	Store  *storage.Store
	Engine *classify.Engine
	Import *ingest.Service
	Export *export.Service
}

func New(ctx context.Context, cfg *common.Config, logger *slog.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	var storeOpts []storage.Option
	if cfg.Storage.S3.Enabled {
		mirror, err := storage.NewS3Mirror(ctx, cfg.Storage.S3, logger)
		if err != nil {
			return nil, err
		}
		storeOpts = append(storeOpts, storage.WithMirror(mirror))
	}
	store, err := storage.New(cfg.Storage.DataDir, logger, storeOpts...)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Logger: logger, Store: store}
	if opts.InMemory {
		a.Repos = repository.NewMemory()
	} else {
		db, err := repository.Open(ctx, repository.Config{
			DSN:             cfg.DatabaseDSN(),
			MaxConns:        cfg.Database.MaxConns,
			MinConns:        cfg.Database.MinConns,
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
			DialTimeout:     cfg.Database.DialTimeout,
		}, logger)
		if err != nil {
			return nil, common.NewAppError(common.CodeConfig, "open database", err)
		}
		a.DB = db
		a.Repos = repository.NewRepositories(db, logger)
	}
	if _, err := a.Repos.Categories.EnsureDefaults(ctx, constants.DefaultCategories()); err != nil {
		a.Close()
		return nil, err
	}

	completer, err := llm.New(cfg.Classification, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	engine, err := classify.NewEngine(classify.DefaultRules(), cfg.Classification.Rules,
		classify.WithResolver(a.Repos.Categories),
		classify.WithArbiter(classify.NewArbiter(completer, cfg.Classification.AITimeout, logger)),
		classify.WithLogger(logger),
	)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Engine = engine

	processor := ingest.NewFileProcessor(
		extract.NewRegistry(extract.Config{Pdftotext: cfg.Import.Pdftotext}, logger),
		thumbnail.New(thumbnail.Config{}, logger),
		ingest.ProcessorConfig{ExtractText: cfg.Import.ExtractText, GenerateThumbnails: cfg.Import.GenerateThumbnails},
		logger,
	)
	scrapeCfg := scrape.Config{
		Timeout:       cfg.Scrape.Timeout,
		RatePerSecond: cfg.Scrape.RatePerSecond,
		Burst:         cfg.Scrape.Burst,
		MaxBodyBytes:  cfg.Scrape.MaxBodyBytes,
		UserAgent:     cfg.Scrape.UserAgent,
	}
	a.Import = ingest.NewService(ingest.Deps{
		Store:      store,
		Processor:  processor,
		Engine:     engine,
		Items:      a.Repos.Items,
		Categories: a.Repos.Categories,
		Fetchers:   func() ingest.PageFetcher { return scrape.New(scrapeCfg, logger) },
	}, ingest.Config{
		MaxFileSize:     cfg.Storage.MaxFileSize,
		Workers:         cfg.Import.Workers,
		FileTimeout:     cfg.Import.FileTimeout,
		AIMinConfidence: cfg.Classification.AIMinConfidence,
	}, logger)
	a.Export = export.NewService(a.Repos.Items, a.Repos.Categories, logger)

	logger.Info("app.ready", "data_dir", cfg.Storage.DataDir, "in_memory", opts.InMemory,
		"ai", engine.AIEnabled(), "categories", len(engine.Categories()))
	return a, nil
}

// HealthCheck reports whether the database answers. In-memory apps are always healthy.
func (a *App) HealthCheck(ctx context.Context) error {
	if a.DB == nil {
		return nil
	}
	return a.DB.HealthCheck(ctx, 5*time.Second)
}

func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}
