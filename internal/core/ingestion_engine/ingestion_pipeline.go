package ingestion_engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/markdave123-py/mindwise/internal/core"
	"github.com/markdave123-py/mindwise/internal/models"
)

var _ Ingestor = (*DocumentIngestor)(nil)

// NewDocumentIngestor wires the pipeline. snapshots may be nil.
func NewDocumentIngestor(db core.DbClient, scraper core.Scraper, emb core.EmbeddingProvider, snapshots core.ObjectClient, cfg *IngestConfig) *DocumentIngestor {
	if cfg == nil {
		cfg = &IngestConfig{ChunkSize: DefaultChunkSize, ChunkOverlap: DefaultChunkOverlap}
	}
	return &DocumentIngestor{
		db:        db,
		scraper:   scraper,
		embedder:  emb,
		snapshots: snapshots,
		cfg:       cfg,
		splitter:  NewTextSplitter(WithChunkSize(cfg.ChunkSize), WithOverlap(cfg.ChunkOverlap)),
	}
}

// Ingest scrapes websiteURL, chunks and embeds the text, then stores every chunk and
// points the user at the new client ID in one transaction. Either all of the job's
// rows become visible or none do.
func (i *DocumentIngestor) Ingest(ctx context.Context, userID int64, websiteURL string) (*Result, error) {
	websiteURL = strings.TrimSpace(websiteURL)
	if websiteURL == "" {
		return nil, fmt.Errorf("%w: website URL is required", ErrInvalidInput)
	}
	if !strings.HasPrefix(websiteURL, "http") {
		websiteURL = "https://" + websiteURL
	}
	if i.embedder == nil {
		return nil, ErrEmbeddingUnavailable
	}

	clientID := ClientID(websiteURL)
	log := slog.With("user_id", userID, "client_id", clientID, "url", websiteURL)
	log.Info("starting ingestion job")

	content, err := i.scraper.Scrape(ctx, websiteURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoContent, err)
	}
	if strings.TrimSpace(content) == "" {
		return nil, ErrNoContent
	}

	chunks := i.splitter.Split(content)
	if len(chunks) == 0 {
		return nil, ErrNoContent
	}
	log.Info("split content into chunks", "chunks", len(chunks))

	vectors, err := i.embed(ctx, chunks)
	if err != nil {
		return nil, err
	}

	docs, err := i.buildDocuments(userID, clientID, chunks, vectors)
	if err != nil {
		return nil, err
	}

	if err := i.persist(ctx, userID, clientID, docs); err != nil {
		log.Error("ingestion job failed", "error", err)
		return nil, err
	}
	log.Info("ingestion job committed", "documents", len(docs))

	i.archive(ctx, userID, clientID, content)

	return &Result{ClientID: clientID, Documents: len(docs)}, nil
}

func (i *DocumentIngestor) embed(ctx context.Context, chunks []string) ([][]float32, error) {
	embedCtx := ctx
	if i.cfg.EmbedTimeout > 0 {
		var cancel context.CancelFunc
		embedCtx, cancel = context.WithTimeout(ctx, i.cfg.EmbedTimeout)
		defer cancel()
	}
	vectors, err := i.embedder.EmbedDocuments(embedCtx, chunks)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingService, err)
	}
	return vectors, nil
}

// buildDocuments pairs chunk k with vector k.
func (i *DocumentIngestor) buildDocuments(userID int64, clientID string, chunks []string, vectors [][]float32) ([]models.Document, error) {
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("%w: %d chunks but %d embeddings", ErrConsistency, len(chunks), len(vectors))
	}
	docs := make([]models.Document, len(chunks))
	for k, text := range chunks {
		if i.cfg.EmbedDim > 0 && len(vectors[k]) != i.cfg.EmbedDim {
			return nil, fmt.Errorf("%w: embedding %d has %d dimensions, want %d", ErrConsistency, k, len(vectors[k]), i.cfg.EmbedDim)
		}
		docs[k] = models.Document{
			UserID:    userID,
			ClientID:  clientID,
			Content:   text,
			Embedding: vectors[k],
		}
	}
	return docs, nil
}

func (i *DocumentIngestor) persist(ctx context.Context, userID int64, clientID string, docs []models.Document) (err error) {
	tx, err := i.db.BeginIngest(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil {
			err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
	}()

	if err = tx.InsertDocuments(ctx, docs); err != nil {
		return fmt.Errorf("%w: insert documents: %w", ErrPersistence, err)
	}
	if err = tx.UpdateUserClientID(ctx, userID, clientID); err != nil {
		return fmt.Errorf("%w: update user: %w", ErrPersistence, err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", ErrPersistence, err)
	}
	return nil
}

// archive stores the scraped text after commit. Failures are logged only.
func (i *DocumentIngestor) archive(ctx context.Context, userID int64, clientID, content string) {
	if i.snapshots == nil {
		return
	}
	key := fmt.Sprintf("snapshots/%d/%s/%s.txt", userID, clientID, uuid.NewString())
	archiveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	if _, err := i.snapshots.UploadFile(archiveCtx, key, []byte(content), "text/plain; charset=utf-8"); err != nil {
		slog.Warn("page snapshot upload failed", "client_id", clientID, "key", key, "error", err)
	}
}
