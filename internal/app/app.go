package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/markdave123-py/mindwise/internal/api/handlers"
	appMiddleware "github.com/markdave123-py/mindwise/internal/api/middlewares"
	"github.com/markdave123-py/mindwise/internal/config"
	"github.com/markdave123-py/mindwise/internal/core"
	db "github.com/markdave123-py/mindwise/internal/core/database"
	"github.com/markdave123-py/mindwise/internal/core/ingestion_engine"
	"github.com/markdave123-py/mindwise/internal/core/llm"
	objectclient "github.com/markdave123-py/mindwise/internal/core/object-client"
	"github.com/markdave123-py/mindwise/internal/ratelimit"
	"github.com/markdave123-py/mindwise/internal/services"
)

const (
	sessionTTL      = 24 * time.Hour
	askLimiterScope = "mindwise:ratelimit:ask"
)

// App owns every long-lived client. They are built once here and injected.
type App struct {
	DBClient     *db.DatabaseClient
	ObjectClient *objectclient.S3Client
	Embedder     *llm.GeminiEmbedder
	LLM          *llm.GeminiLLM
	Limiter      *ratelimit.FixedWindowLimiter
	DocProcessor ingestion_engine.Ingestor
	Server       *Server
}

func NewApp(ctx context.Context, cfg *config.Config) (_ *App, err error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	a := &App{}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	a.DBClient, err = db.NewDatabaseClient(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	slog.Info("database initialized and ready")

	var snapshots core.ObjectClient
	if cfg.ObjectStorageEnabled() {
		a.ObjectClient, err = objectclient.NewS3Client(appCtx, cfg)
		if err != nil {
			return nil, err
		}
		snapshots = a.ObjectClient
	} else {
		slog.Info("object storage not configured, page snapshots disabled")
	}

	a.Embedder, err = llm.NewGeminiEmbedder(appCtx, cfg.AIAPIKey, cfg.EmbedModel)
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the embedder: %w", err)
	}
	a.LLM, err = llm.NewGeminiLLM(appCtx, cfg.AIAPIKey, cfg.GenModel)
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the generator: %w", err)
	}

	var limiter ratelimit.Limiter
	if cfg.RedisAddr != "" {
		a.Limiter, err = ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, askLimiterScope, cfg.AskRateLimit, cfg.AskRateWindow)
		if err != nil {
			return nil, fmt.Errorf("couldn't initialize the ask limiter: %w", err)
		}
		limiter = a.Limiter
	}

	scraper := ingestion_engine.NewWebScraper(cfg.ScrapeTimeout, cfg.ScrapeMaxBytes)
	a.DocProcessor = ingestion_engine.NewDocumentIngestor(a.DBClient, scraper, a.Embedder, snapshots, ingestion_engine.IngestConfigFrom(cfg))

	sessions := appMiddleware.NewSessions(cfg.SecretKey, sessionTTL)
	a.Server = NewServer(cfg, Handlers{
		Auth:      handlers.NewAuthHandler(services.NewUserService(a.DBClient), sessions),
		Documents: handlers.NewDocumentHandler(a.DocProcessor, jobTimeout),
		Chat:      handlers.NewChatHandler(a.DBClient, a.Embedder, a.LLM, limiter),
		Tickets:   handlers.NewTicketHandler(a.DBClient, limiter),
		Sessions:  sessions,
	})

	return a, nil
}

// Close releases every client that was opened.
func (a *App) Close() error {
	var errs []error
	if a.Limiter != nil {
		errs = append(errs, a.Limiter.Close())
	}
	if a.LLM != nil {
		errs = append(errs, a.LLM.Close())
	}
	if a.Embedder != nil {
		errs = append(errs, a.Embedder.Close())
	}
	if a.DBClient != nil {
		errs = append(errs, a.DBClient.Close())
	}
	return errors.Join(errs...)
}
