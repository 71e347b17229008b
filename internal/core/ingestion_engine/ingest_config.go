package ingestion_engine

import (
	"time"

	"github.com/markdave123-py/mindwise/internal/config"
	"github.com/markdave123-py/mindwise/internal/core"
)

// IngestConfig tunes the pipeline.
//
// ChunkSize:     maximum characters per chunk (1500).
// ChunkOverlap:  characters shared by consecutive chunks (200).
// EmbedDim:      required length of every embedding vector (768).
// EmbedTimeout:  upper bound for the embedding call.
type IngestConfig struct {
	ChunkSize    int
	ChunkOverlap int
	EmbedDim     int
	EmbedTimeout time.Duration
}

// IngestConfigFrom copies the pipeline settings out of the process config.
func IngestConfigFrom(cfg *config.Config) *IngestConfig {
	return &IngestConfig{
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
		EmbedDim:     cfg.EmbedDim,
		EmbedTimeout: cfg.EmbedTimeout,
	}
}

// DocumentIngestor orchestrates one synchronous ingestion job:
//
// db:        persistence gateway; its transaction is opened only for the final write.
// scraper:   fetches the page text.
// embedder:  embedding provider (Gemini).
// splitter:  recursive text chunker.
// snapshots: optional object storage archive of the scraped text.
type DocumentIngestor struct {
	db        core.DbClient
	scraper   core.Scraper
	embedder  core.EmbeddingProvider
	splitter  *TextSplitter
	snapshots core.ObjectClient
	cfg       *IngestConfig
}

// Result is returned for a committed job.
type Result struct {
	ClientID  string
	Documents int
}
