package ingestion_engine

import "context"

type Ingestor interface {
	Ingest(ctx context.Context, userID int64, websiteURL string) (*Result, error)
}
