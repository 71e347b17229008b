package ingestion_engine

import "errors"

var (
	// ErrInvalidInput is user-correctable, e.g. a missing website URL.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoContent means the page could not be fetched or yielded no text.
	ErrNoContent = errors.New("scraping returned no content")
	// ErrEmbeddingUnavailable means no embedding provider is configured.
	ErrEmbeddingUnavailable = errors.New("embedding model is not configured")
	// ErrEmbeddingService wraps transport or service failures of the embedding call.
	ErrEmbeddingService = errors.New("embedding service error")
	// ErrConsistency marks a broken chunk/embedding pairing invariant.
	ErrConsistency = errors.New("chunk and embedding mismatch")
	// ErrPersistence wraps transaction failures; the job's writes are rolled back.
	ErrPersistence = errors.New("persistence error")
)
