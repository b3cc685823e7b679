package main

import (
	"fmt"
	"time"

	"github.com/dgallion1/docindex/internal/blobstore"
	"github.com/dgallion1/docindex/internal/chunker"
	"github.com/dgallion1/docindex/internal/embed"
	"github.com/dgallion1/docindex/internal/extract"
	"github.com/dgallion1/docindex/internal/index"
	"github.com/dgallion1/docindex/internal/parser"
	"github.com/dgallion1/docindex/internal/pipeline"
	"github.com/dgallion1/docindex/internal/remote"
)

// services holds the remote clients one command run shares.
type services struct {
	stats    *remote.Registry
	blobs    *blobstore.Store
	layout   *extract.LayoutClient
	embedder *embed.OpenAIEmbedder
	index    *index.Client
	worker   *pipeline.Worker
}

// newServices builds every collaborator from cfg. The blob store is only
// created when configured or when requireBlobs is set.
func newServices(requireBlobs bool) (*services, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if requireBlobs {
		if err := cfg.ValidateBlob(); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
	}

	s := &services{stats: remote.NewRegistry(time.Hour)}
	deps := pipeline.Deps{
		Chunker:             chunker.New(chunker.Config{MinSectionChars: cfg.MinSectionChars, Logger: logger}),
		EmbedBatchSize:      cfg.EmbeddingBatchSize,
		EmbedMaxBatchTokens: cfg.EmbeddingMaxBatchTokens,
		IndexBatchSize:      cfg.IndexBatchSize,
	}

	if cfg.BlobEnabled() {
		blobs, err := blobstore.New(blobstore.Config{
			AccountName: cfg.StorageAccountName,
			AccountKey:  cfg.StorageAccountKey,
			Container:   cfg.BlobContainer,
			Endpoint:    cfg.StorageEndpoint,
			Logger:      logger,
			Stats:       s.stats.For("blob"),
		})
		if err != nil {
			return nil, err
		}
		s.blobs = blobs
		deps.Blobs = blobs
	}

	opts := parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext}
	if cfg.LayoutEnabled() {
		s.layout = extract.NewLayoutClient(extract.LayoutConfig{
			Endpoint:          cfg.LayoutEndpoint,
			APIKey:            cfg.LayoutKey,
			Model:             cfg.LayoutModel,
			APIVersion:        cfg.LayoutAPIVersion,
			RequestsPerMinute: cfg.LayoutRequestsPerMinute,
			Logger:            logger,
			Stats:             s.stats.For("layout"),
		})
		deps.Extractor = extract.NewExtractor(s.layout, opts)
	} else {
		logger.Info("layout extraction not configured, using local parsers")
		deps.Extractor = extract.NewExtractor(nil, opts)
	}

	s.embedder = embed.NewOpenAIEmbedder(embed.OpenAIConfig{
		APIKey:     cfg.OpenAIAPIKey,
		BaseURL:    cfg.OpenAIAPIBase,
		APIVersion: cfg.OpenAIAPIVersion,
		Model:      cfg.EmbeddingDeployment,
		Stats:      s.stats.For("embeddings"),
	})
	deps.Embedder = s.embedder

	s.index = newIndexClient(s.stats)
	deps.Indexer = s.index

	s.worker = pipeline.NewWorker(deps, logger)
	return s, nil
}

func newIndexClient(stats *remote.Registry) *index.Client {
	return index.NewClient(index.Config{
		Endpoint:   cfg.SearchEndpoint,
		APIKey:     cfg.SearchKey,
		IndexName:  cfg.SearchIndexName,
		APIVersion: cfg.SearchAPIVersion,
		Logger:     logger,
		Stats:      stats.For("search"),
	})
}

func (s *services) Close() {
	if s.layout != nil {
		s.layout.Close()
	}
	s.embedder.Close()
	s.index.Close()
}
