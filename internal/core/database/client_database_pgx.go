package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pgvector/pgvector-go"

	"github.com/markdave123-py/mindwise/internal/config"
	"github.com/markdave123-py/mindwise/internal/core"
	"github.com/markdave123-py/mindwise/internal/models"
)

var (
	ErrEmailTaken   = errors.New("email already registered")
	ErrUserNotFound = errors.New("user not found")
)

const uniqueViolation = "23505"

type DatabaseClient struct {
	db *sql.DB
}

var _ core.DbClient = (*DatabaseClient)(nil)

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (*DatabaseClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	dsn, err := buildDSN(cfg.DatabaseURL, cfg.SslCertPath)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

// buildDSN appends certificate verification to the DATABASE_URL when a root cert is configured.
func buildDSN(databaseURL, sslCertPath string) (string, error) {
	if databaseURL == "" {
		return "", fmt.Errorf("DATABASE_URL is empty")
	}
	if sslCertPath == "" {
		return databaseURL, nil
	}
	if _, err := os.Stat(sslCertPath); err != nil {
		return "", fmt.Errorf("ssl cert not accessible at %q: %w", sslCertPath, err)
	}
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid DATABASE_URL: %w", err)
	}
	q := u.Query()
	q.Set("sslmode", "verify-ca")
	q.Set("sslrootcert", sslCertPath)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Implementing the db interface for user

func (c *DatabaseClient) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return errors.New("nil user")
	}
	const q = `
		INSERT INTO users (email, password_hash, client_id)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	err := c.db.QueryRowContext(ctx, q, user.Email, user.PasswordHash, user.ClientID).Scan(&user.ID)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrEmailTaken
	}
	return err
}

func (c *DatabaseClient) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const q = `
		SELECT id, email, password_hash, client_id
		FROM users WHERE email = $1
	`
	return c.scanUser(c.db.QueryRowContext(ctx, q, email))
}

func (c *DatabaseClient) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	const q = `
		SELECT id, email, password_hash, client_id
		FROM users WHERE id = $1
	`
	return c.scanUser(c.db.QueryRowContext(ctx, q, id))
}

func (c *DatabaseClient) scanUser(row *sql.Row) (*models.User, error) {
	var (
		u        models.User
		clientID sql.NullString
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &clientID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if clientID.Valid {
		u.ClientID = &clientID.String
	}
	return &u, nil
}

// BeginIngest opens the write transaction for one ingestion job.
func (c *DatabaseClient) BeginIngest(ctx context.Context) (core.IngestTx, error) {
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return &ingestTx{tx: tx}, nil
}

func (c *DatabaseClient) CreateTicket(ctx context.Context, t *models.Ticket) error {
	if t == nil {
		return errors.New("nil ticket")
	}
	const q = `
		INSERT INTO tickets (client_id, email, question)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	return c.db.QueryRowContext(ctx, q, t.ClientID, t.Email, t.Question).Scan(&t.ID, &t.CreatedAt)
}

// SearchDocuments finds the top-k chunks of one client closest to the query embedding.
func (c *DatabaseClient) SearchDocuments(ctx context.Context, clientID string, queryVec []float32, limit int) ([]models.Document, error) {
	const q = `
		SELECT id, user_id, client_id, content, embedding
		FROM documents
		WHERE client_id = $1
		ORDER BY embedding <-> $2
		LIMIT $3
	`
	rows, err := c.db.QueryContext(ctx, q, clientID, pgvector.NewVector(queryVec), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Document
	for rows.Next() {
		var (
			d       models.Document
			content sql.NullString
			emb     pgvector.Vector
		)
		if err := rows.Scan(&d.ID, &d.UserID, &d.ClientID, &content, &emb); err != nil {
			return nil, err
		}
		d.Content = content.String
		d.Embedding = emb.Slice()
		out = append(out, d)
	}
	return out, rows.Err()
}
