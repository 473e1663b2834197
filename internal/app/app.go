// Package app assembles the engine and its adapters from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"studyrag/config"
	"studyrag/internal/adapter/analyzer"
	"studyrag/internal/adapter/cache"
	"studyrag/internal/adapter/chroma"
	"studyrag/internal/adapter/chunker"
	"studyrag/internal/adapter/embedding"
	"studyrag/internal/adapter/fs"
	"studyrag/internal/adapter/memstore"
	"studyrag/internal/adapter/store"
	"studyrag/internal/logger"
	"studyrag/internal/port"
	"studyrag/internal/usecase"
)

// App owns an engine and the resources behind it.
type App struct {
	Config   *config.Config
	Engine   *usecase.Engine
	Embedder port.Embedder
	Store    port.VectorStore
	Indexer  *usecase.IndexUseCase

	closers []func() error
}

// NewEmbedder creates the embedder selected by cfg.Embedding.Provider.
func NewEmbedder(cfg *config.Config) (port.Embedder, error) {
	ec := cfg.Embedding
	opts := embedding.Options{
		BaseURL:   ec.BaseURL,
		Dimension: ec.Dimension,
		BatchSize: ec.BatchSize,
		Timeout:   ec.Timeout(),
	}

	switch ec.Provider {
	case "openai":
		return embedding.NewOpenAIEmbedder(ec.APIKeyEnv, ec.Model, opts)
	case "ollama":
		return embedding.NewOllamaEmbedder(ec.Model, opts)
	case "hash":
		return embedding.NewHashEmbedder(ec.Dimension, analyzer.NewTokenizer()), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", ec.Provider)
	}
}

// NewChunker creates a sentence chunker from the chunking section.
func NewChunker(cfg *config.Config) *chunker.SentenceChunker {
	cc := cfg.Chunking
	return chunker.NewSentenceChunker(
		chunker.WithChunkSize(cc.ChunkSize),
		chunker.WithOverlap(cc.ChunkOverlap),
		chunker.WithMinWords(cc.MinChunkWords),
		chunker.WithMaxSentenceWords(cc.MaxSentenceWords),
	)
}

// DataDir resolves the configured data directory against rootDir.
func DataDir(cfg *config.Config, rootDir string) string {
	if filepath.IsAbs(cfg.Store.DataDir) {
		return cfg.Store.DataDir
	}
	return filepath.Join(rootDir, cfg.Store.DataDir)
}

// Open builds the engine described by cfg and rebuilds its document
// registry from whatever the vector store already holds.
func Open(ctx context.Context, cfg *config.Config, rootDir string) (*App, error) {
	embedder, err := NewEmbedder(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	a := &App{Config: cfg, Embedder: embedder}

	vs, err := a.openStore(ctx, rootDir, embedder.Dimension())
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Store = vs

	opts := []usecase.Option{
		usecase.WithTopK(cfg.Retrieve.TopK),
		usecase.WithThreshold(cfg.Retrieve.Threshold),
		usecase.WithDefaultSubject(cfg.Retrieve.DefaultSubject),
	}
	if cfg.Retrieve.CacheSize > 0 {
		opts = append(opts, usecase.WithQueryCache(cache.NewQueryCache(cfg.Retrieve.CacheSize, cfg.Retrieve.CacheTTL())))
	}

	a.Engine = usecase.NewEngine(NewChunker(cfg), embedder, vs, memstore.NewRegistry(), opts...)
	a.Indexer = usecase.NewIndexUseCase(a.Engine, fs.NewWalker(cfg.Ingest.Includes, cfg.Ingest.Excludes), fs.TextReader{})

	docs, err := a.Engine.Reconcile(ctx)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to load document registry: %w", err)
	}

	logger.Infow("engine ready",
		"backend", cfg.Store.Backend,
		"provider", cfg.Embedding.Provider,
		"model", embedder.ModelName(),
		"dimension", embedder.Dimension(),
		"documents", docs,
	)
	return a, nil
}

func (a *App) openStore(ctx context.Context, rootDir string, dimension int) (port.VectorStore, error) {
	cfg := a.Config

	switch cfg.Store.Backend {
	case "memory":
		return memstore.NewVectorStore(dimension), nil

	case "chroma":
		cs, err := chroma.Open(ctx, cfg.Store.ChromaURL, cfg.Store.Collection)
		if err != nil {
			return nil, fmt.Errorf("failed to open chroma collection: %w", err)
		}
		a.closers = append(a.closers, cs.Close)
		return cs, nil

	case "bolt":
		dataDir := DataDir(cfg, rootDir)
		if err := config.EnsureDataDir(dataDir); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}

		bs, err := store.Open(config.DBPath(dataDir))
		if err != nil {
			return nil, fmt.Errorf("failed to open store: %w", err)
		}
		a.closers = append(a.closers, bs.Close)

		migration, err := bs.CheckMigration(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to check migration: %w", err)
		}
		if migration.NeedsRebuild {
			logger.Warnw("clearing stored vectors", "reason", migration.Reason)
			if err := bs.Clear(); err != nil {
				return nil, fmt.Errorf("failed to clear store: %w", err)
			}
		}
		if migration.NeedsRebuild || migration.NeedsMigration {
			if err := bs.Migrate(cfg); err != nil {
				return nil, fmt.Errorf("migration failed: %w", err)
			}
		}

		vs, err := store.NewBoltVectorStore(bs, dimension)
		if err != nil {
			return nil, fmt.Errorf("failed to load vectors: %w", err)
		}
		return vs, nil

	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.Store.Backend)
	}
}

// Close releases the store connections in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
