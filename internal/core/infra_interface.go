package core

import (
	"context"

	"github.com/markdave123-py/mindwise/internal/models"
)

// DbClient defines all persistence operations your services will need.
// It abstracts Postgres/pgvector so higher layers never depend on a specific DB.
type DbClient interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)

	// BeginIngest opens the transaction that makes an ingestion job visible all at once.
	BeginIngest(ctx context.Context) (IngestTx, error)

	SearchDocuments(ctx context.Context, clientID string, queryVec []float32, limit int) ([]models.Document, error)

	// CreateTicket stores a visitor's support request and fills ID and CreatedAt.
	CreateTicket(ctx context.Context, t *models.Ticket) error

	Close() error
}

// IngestTx is the write side of one ingestion job. Nothing it writes is visible
// to readers until Commit; Rollback after Commit is a no-op.
type IngestTx interface {
	InsertDocuments(ctx context.Context, docs []models.Document) error
	UpdateUserClientID(ctx context.Context, userID int64, clientID string) error
	Commit() error
	Rollback() error
}

// ObjectClient defines interactions with S3 or any object storage.
type ObjectClient interface {
	UploadFile(ctx context.Context, key string, data []byte, contentType string) (url string, err error)
}
