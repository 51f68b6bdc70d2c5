package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ramonehamilton/commander-decks/internal/api/handlers"
	"github.com/ramonehamilton/commander-decks/internal/cardcache"
	"github.com/ramonehamilton/commander-decks/internal/cards/scryfall"
	"github.com/ramonehamilton/commander-decks/internal/config"
	"github.com/ramonehamilton/commander-decks/internal/importer"
	"github.com/ramonehamilton/commander-decks/internal/resolver"
	"github.com/ramonehamilton/commander-decks/internal/sources"
	"github.com/ramonehamilton/commander-decks/internal/storage"
)

// pipeline is the wired import stack shared by serve and preview.
type pipeline struct {
	db       *storage.DB
	store    *storage.CardStore
	writer   *cardcache.Writer
	importer *importer.Service
}

func openDatabase(cfg *config.Config) (*storage.DB, error) {
	dbConfig := storage.DefaultConfig(cfg.Database.Path)
	dbConfig.BusyTimeout = cfg.Database.BusyTimeoutDuration()
	dbConfig.AutoMigrate = cfg.Database.AutoMigrate

	db, err := storage.Open(dbConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open card cache: %w", err)
	}
	return db, nil
}

func newPipeline(cfg *config.Config, logger *zap.Logger) (*pipeline, error) {
	p := &pipeline{}

	// Interface values stay nil when the cache is disabled.
	var cache resolver.Cache
	var writer resolver.CacheWriter
	if cfg.Cache.Enabled {
		db, err := openDatabase(cfg)
		if err != nil {
			return nil, err
		}
		p.db = db
		p.store = storage.NewCardStore(db)
		p.writer = cardcache.NewWriter(p.store, cardcache.Config{
			QueueSize:    cfg.Cache.QueueSize,
			WriteTimeout: cfg.Cache.WriteTimeoutDuration(),
		}, logger.Named("cardcache"))
		cache, writer = p.store, p.writer
	}

	retries := cfg.Catalog.MaxRetries
	if retries == 0 {
		retries = -1
	}
	client := scryfall.NewClient(scryfall.Options{
		BaseURL:        cfg.Catalog.BaseURL,
		UserAgent:      cfg.Catalog.UserAgent,
		RateLimitDelay: cfg.Catalog.RateLimitDuration(),
		Timeout:        cfg.Catalog.TimeoutDuration(),
		MaxRetries:     retries,
	})

	res := resolver.New(resolver.NewScryfallCatalog(client), cache, writer, resolver.Options{
		BatchSize:         cfg.Resolver.BatchSize,
		Concurrency:       cfg.Resolver.Concurrency,
		FuzzyThreshold:    cfg.Resolver.FuzzyThreshold,
		CandidateMinScore: cfg.Resolver.CandidateMinScore,
		MaxCandidates:     cfg.Resolver.MaxCandidates,
	}, logger.Named("resolver"))

	registry := sources.NewDefaultRegistry(sources.Options{
		UserAgent:    cfg.Sources.UserAgent,
		Timeout:      cfg.Sources.TimeoutDuration(),
		MaxBodyBytes: cfg.Sources.MaxBodyBytes,
	}, logger.Named("sources"))

	p.importer = importer.NewService(registry, res, importer.Config{
		MaxLineLength:   cfg.Import.MaxLineLength,
		MaxTextBytes:    cfg.Import.MaxTextBytes,
		DefaultDeckSize: cfg.Import.DefaultDeckSize,
	}, logger.Named("importer"))

	return p, nil
}

// suggester returns the card store, or nil when the cache is disabled.
func (p *pipeline) suggester() handlers.NameSuggester {
	if p.store == nil {
		return nil
	}
	return p.store
}

// Close drains pending cache writes and closes the database.
func (p *pipeline) Close() error {
	if p.writer != nil {
		p.writer.Close()
	}
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}
