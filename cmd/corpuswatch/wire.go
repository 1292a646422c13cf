package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/corpuswatch/internal/adapters/driven/config/file"
	"github.com/custodia-labs/corpuswatch/internal/adapters/driven/extractor/basic"
	"github.com/custodia-labs/corpuswatch/internal/adapters/driven/extractor/ollama"
	"github.com/custodia-labs/corpuswatch/internal/adapters/driven/extractor/ratelimit"
	"github.com/custodia-labs/corpuswatch/internal/adapters/driven/refresh"
	"github.com/custodia-labs/corpuswatch/internal/adapters/driven/storage/jsonfile"
	"github.com/custodia-labs/corpuswatch/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/corpuswatch/internal/adapters/driven/storage/rediscache"
	"github.com/custodia-labs/corpuswatch/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/corpuswatch/internal/adapters/driving/cli"
	"github.com/custodia-labs/corpuswatch/internal/connectors/filesystem"
	"github.com/custodia-labs/corpuswatch/internal/core/domain"
	"github.com/custodia-labs/corpuswatch/internal/core/ports/driven"
	"github.com/custodia-labs/corpuswatch/internal/core/services"
	"github.com/custodia-labs/corpuswatch/internal/logger"
	"github.com/custodia-labs/corpuswatch/internal/normalisers"
	"github.com/custodia-labs/corpuswatch/internal/normalisers/csv"
	"github.com/custodia-labs/corpuswatch/internal/normalisers/docx"
	"github.com/custodia-labs/corpuswatch/internal/normalisers/eml"
	"github.com/custodia-labs/corpuswatch/internal/normalisers/html"
	"github.com/custodia-labs/corpuswatch/internal/normalisers/markdown"
	"github.com/custodia-labs/corpuswatch/internal/normalisers/pdf"
	"github.com/custodia-labs/corpuswatch/internal/normalisers/plaintext"
	"github.com/custodia-labs/corpuswatch/internal/postprocessors"
)

// stores are the persistence adapters for one invocation.
type stores struct {
	dirs      driven.DirectoryStore
	files     driven.FileStore
	cache     driven.ExtractionCache
	scheduler driven.SchedulerStore
	closers   []func() error
}

func (s *stores) close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	return errors.Join(errs...)
}

// newBootstrap returns the function that wires services from the settings
// stored in configDir.
func newBootstrap(configDir string) cli.Bootstrap {
	return func(ctx context.Context, opts cli.Options) (*cli.Services, error) {
		configStore, err := file.NewConfigStore(configDir)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		settingsService := services.NewSettingsService(configStore)
		settings, err := settingsService.Get()
		if err != nil {
			return nil, fmt.Errorf("load settings: %w", err)
		}

		st, err := openStores(ctx, settings, opts.Ephemeral)
		if err != nil {
			return nil, err
		}

		extractor, err := newExtractor(settings, configDir)
		if err != nil {
			_ = st.close()
			return nil, err
		}

		pipeline, err := newPipeline(settings.Scanner.RecordProcessors)
		if err != nil {
			_ = st.close()
			return nil, err
		}

		skipDir := filesystem.DefaultSkipDir(settings.Scanner.SkipDirs)
		scanner := services.NewScanner(
			st.dirs,
			st.files,
			filesystem.NewSource(skipDir),
			newRegistry(),
			st.cache,
			extractor,
			services.ScannerConfigFromSettings(*settings),
		).WithPipeline(pipeline)
		scheduler := services.NewMonitoringScheduler(
			services.SchedulerConfigFromSettings(*settings),
			scanner,
			st.dirs,
			st.cache,
			newRefresher(settings),
			st.scheduler,
		)

		return &cli.Services{
			Directories: services.NewDirectoryService(st.dirs, st.files).WithCache(st.cache).WithScanner(scanner),
			Scanner:     scanner,
			Scheduler:   scheduler,
			Settings:    settingsService,
			Cache:       st.cache,
			History:     scheduler,
			Watcher:     services.NewWatcher(filesystem.NewNotifier(skipDir), st.dirs, scheduler, 0),
			Close:       st.close,
		}, nil
	}
}

func openStores(ctx context.Context, settings *domain.AppSettings, ephemeral bool) (*stores, error) {
	if ephemeral {
		logger.Debug("Ephemeral mode: state is kept in memory")
		files := memory.NewFileStore()
		return &stores{
			dirs:      memory.NewDirectoryStore(files),
			files:     files,
			cache:     memory.NewExtractionCache(),
			scheduler: memory.NewSchedulerStore(),
		}, nil
	}

	db, err := sqlite.NewStore(settings.Data.Dir)
	if err != nil {
		return nil, fmt.Errorf("open metadata store: %w", err)
	}
	logger.Debug("Metadata store: %s", db.Path())

	st := &stores{
		dirs:      db.DirectoryStore(),
		files:     db.FileStore(),
		scheduler: db.SchedulerStore(),
		closers:   []func() error{db.Close},
	}

	switch settings.Cache.Backend {
	case domain.CacheBackendFile:
		dir := settings.Cache.Dir
		if dir == "" {
			dir = filepath.Join(filepath.Dir(db.Path()), "cache")
		}
		cache, err := jsonfile.New(dir)
		if err != nil {
			_ = st.close()
			return nil, fmt.Errorf("open file cache: %w", err)
		}
		st.cache = cache
	case domain.CacheBackendRedis:
		cache, err := rediscache.New(ctx, rediscache.Config{
			Addr:      settings.Cache.RedisAddr,
			Retention: settings.Cache.Retention,
		})
		if err != nil {
			_ = st.close()
			return nil, fmt.Errorf("open redis cache: %w", err)
		}
		st.cache = cache
		st.closers = append(st.closers, cache.Close)
	default:
		st.cache = db.ExtractionCache()
	}
	logger.Debug("Extraction cache: %s", settings.Cache.Backend.Description())

	return st, nil
}

// newExtractor uses Ollama when a model is configured and the rule-based
// extractor otherwise.
func newExtractor(settings *domain.AppSettings, configDir string) (driven.Extractor, error) {
	if settings.Extractor.Model == "" {
		return basic.New(), nil
	}

	prompts, err := file.NewPromptStore(filepath.Join(configDir, "prompts"))
	if err != nil {
		return nil, fmt.Errorf("open prompt store: %w", err)
	}
	extractor := ollama.New(ollama.Config{
		BaseURL: settings.Extractor.BaseURL,
		Model:   settings.Extractor.Model,
	})
	extractor.SetPromptStore(prompts)

	return ratelimit.New(extractor, ratelimit.Config{
		RequestsPerSecond: settings.Extractor.RatePerSecond,
		BurstSize:         settings.Extractor.Burst,
	}), nil
}

func newRefresher(settings *domain.AppSettings) driven.CorpusRefresher {
	if settings.Refresh.WebhookURL == "" {
		return refresh.NewNop()
	}
	return refresh.NewWebhook(settings.Refresh.WebhookURL, settings.Refresh.Token)
}

func newRegistry() *normalisers.Registry {
	return normalisers.NewRegistry(
		plaintext.New(),
		markdown.New(),
		csv.New(),
		html.New(),
		eml.New(),
		docx.New(),
		pdf.New(),
	)
}

func newPipeline(names []string) (*postprocessors.Pipeline, error) {
	registry := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(registry)
	pipeline, err := registry.BuildPipeline(names)
	if err != nil {
		return nil, fmt.Errorf("build record processors: %w", err)
	}
	return pipeline, nil
}
