package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/markdave123-py/mindwise/internal/core"
	"github.com/markdave123-py/mindwise/internal/models"
)

type ingestTx struct {
	tx *sql.Tx
}

var _ core.IngestTx = (*ingestTx)(nil)

// InsertDocuments writes all chunks through one prepared statement on the job's transaction.
func (t *ingestTx) InsertDocuments(ctx context.Context, docs []models.Document) error {
	if len(docs) == 0 {
		return nil
	}
	const q = `
		INSERT INTO documents (user_id, client_id, content, embedding)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	stmt, err := t.tx.PrepareContext(ctx, q)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range docs {
		d := &docs[i]
		if err := stmt.QueryRowContext(ctx, d.UserID, d.ClientID, d.Content, pgvector.NewVector(d.Embedding)).Scan(&d.ID); err != nil {
			return fmt.Errorf("insert document %d: %w", i, err)
		}
	}
	return nil
}

func (t *ingestTx) UpdateUserClientID(ctx context.Context, userID int64, clientID string) error {
	res, err := t.tx.ExecContext(ctx, `UPDATE users SET client_id = $2 WHERE id = $1`, userID, clientID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrUserNotFound, userID)
	}
	return nil
}

func (t *ingestTx) Commit() error {
	return t.tx.Commit()
}

func (t *ingestTx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}
