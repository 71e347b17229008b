package db

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/mindwise/internal/config"
	"github.com/markdave123-py/mindwise/internal/models"
)

func TestBuildDSN(t *testing.T) {
	t.Run("empty url", func(t *testing.T) {
		_, err := buildDSN("", "")
		require.Error(t, err)
	})

	t.Run("no cert keeps url", func(t *testing.T) {
		dsn, err := buildDSN("postgres://u:p@localhost:5432/db?sslmode=disable", "")
		require.NoError(t, err)
		assert.Equal(t, "postgres://u:p@localhost:5432/db?sslmode=disable", dsn)
	})

	t.Run("missing cert file", func(t *testing.T) {
		_, err := buildDSN("postgres://u:p@localhost:5432/db", filepath.Join(t.TempDir(), "nope.pem"))
		require.Error(t, err)
	})

	t.Run("cert appends verify-ca", func(t *testing.T) {
		cert := filepath.Join(t.TempDir(), "root.pem")
		require.NoError(t, os.WriteFile(cert, []byte("cert"), 0o600))

		dsn, err := buildDSN("postgres://u:p@localhost:5432/db?sslmode=disable", cert)
		require.NoError(t, err)
		assert.Contains(t, dsn, "sslmode=verify-ca")
		assert.Contains(t, dsn, "sslrootcert=")
	})
}

// newTestClient connects to TEST_DATABASE_URL; the test is skipped when it is unset.
func newTestClient(t *testing.T) *DatabaseClient {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client, err := NewDatabaseClient(ctx, &config.Config{DatabaseURL: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func vector(seed float32) []float32 {
	v := make([]float32, config.EmbeddingDimension)
	for i := range v {
		v[i] = seed
	}
	return v
}

func newUser(t *testing.T, client *DatabaseClient) *models.User {
	t.Helper()
	u := &models.User{Email: uuid.NewString() + "@example.com", PasswordHash: "hash"}
	require.NoError(t, client.CreateUser(context.Background(), u))
	require.NotZero(t, u.ID)
	return u
}

func TestDatabaseClientUsers(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	u := newUser(t, client)

	dup := &models.User{Email: u.Email, PasswordHash: "other"}
	require.ErrorIs(t, client.CreateUser(ctx, dup), ErrEmailTaken)

	got, err := client.GetUserByEmail(ctx, u.Email)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)
	assert.Nil(t, got.ClientID)

	missing, err := client.GetUserByEmail(ctx, strings.ToUpper(u.Email))
	require.NoError(t, err)
	assert.Nil(t, missing, "email lookup is case-sensitive")
}

func TestIngestTxCommitAndSearch(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	u := newUser(t, client)
	clientID := "commit_" + uuid.NewString()[:8] + "_docs"

	tx, err := client.BeginIngest(ctx)
	require.NoError(t, err)
	docs := []models.Document{
		{UserID: u.ID, ClientID: clientID, Content: "near", Embedding: vector(0.1)},
		{UserID: u.ID, ClientID: clientID, Content: "far", Embedding: vector(0.9)},
	}
	require.NoError(t, tx.InsertDocuments(ctx, docs))
	require.NoError(t, tx.UpdateUserClientID(ctx, u.ID, clientID))
	require.NoError(t, tx.Commit())
	require.NoError(t, tx.Rollback(), "rollback after commit is a no-op")

	got, err := client.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ClientID)
	assert.Equal(t, clientID, *got.ClientID)

	found, err := client.SearchDocuments(ctx, clientID, vector(0.1), 5)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "near", found[0].Content)
	assert.Len(t, found[0].Embedding, config.EmbeddingDimension)
}

func TestIngestTxRollbackLeavesNothing(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	u := newUser(t, client)
	clientID := "rollback_" + uuid.NewString()[:8] + "_docs"

	tx, err := client.BeginIngest(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.InsertDocuments(ctx, []models.Document{
		{UserID: u.ID, ClientID: clientID, Content: "x", Embedding: vector(0.5)},
	}))
	require.ErrorIs(t, tx.UpdateUserClientID(ctx, -1, clientID), ErrUserNotFound)
	require.NoError(t, tx.Rollback())

	found, err := client.SearchDocuments(ctx, clientID, vector(0.5), 5)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestCreateTicket(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	ticket := &models.Ticket{ClientID: "acme.com_docs", Email: "visitor@example.com", Question: "Do you ship to Norway?"}
	require.NoError(t, client.CreateTicket(ctx, ticket))
	assert.NotZero(t, ticket.ID)
	assert.WithinDuration(t, time.Now(), ticket.CreatedAt, time.Minute)

	var question string
	require.NoError(t, client.db.QueryRowContext(ctx, `SELECT question FROM tickets WHERE id = $1`, ticket.ID).Scan(&question))
	assert.Equal(t, "Do you ship to Norway?", question)
}

func TestBootstrapRecordsSchemaVersion(t *testing.T) {
	client := newTestClient(t)

	var ok bool
	require.NoError(t, client.db.QueryRowContext(context.Background(),
		`SELECT EXISTS (SELECT 1 FROM mindwise_meta WHERE version = $1)`, schemaVersion).Scan(&ok))
	assert.True(t, ok)
}
