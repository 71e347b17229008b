package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/markdave123-py/mindwise/internal/api/handlers"
	appMiddleware "github.com/markdave123-py/mindwise/internal/api/middlewares"
	"github.com/markdave123-py/mindwise/internal/config"
)

const (
	requestTimeout = 60 * time.Second
	// an ingestion job scrapes and embeds synchronously
	ingestTimeout = 5 * time.Minute
	jobTimeout    = ingestTimeout
)

// Handlers groups what the router mounts.
type Handlers struct {
	Auth      *handlers.AuthHandler
	Documents *handlers.DocumentHandler
	Chat      *handlers.ChatHandler
	Tickets   *handlers.TicketHandler
	Sessions  *appMiddleware.Sessions
}

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, h Handlers) *Server {
	return &Server{httpServer: &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           NewRouter(cfg, h),
		ReadHeaderTimeout: 10 * time.Second,
	}}
}

func NewRouter(cfg *config.Config, h Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appMiddleware.RequestLog)
	r.Use(middleware.Recoverer)

	// The chat widget is embedded on customer sites, so origins default to "*".
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: !slices.Contains(cfg.AllowedOrigins, "*"),
		MaxAge:           300,
	}))

	r.Get("/health", handlers.Health)

	r.Group(func(public chi.Router) {
		public.Use(middleware.Timeout(requestTimeout))
		public.Post("/register", h.Auth.Register)
		public.Post("/login", h.Auth.Login)
		public.Post("/logout", h.Auth.Logout)
		public.Post("/ask", h.Chat.Ask)
		public.Post("/create_ticket", h.Tickets.CreateTicket)
	})

	r.Group(func(protected chi.Router) {
		protected.Use(h.Sessions.JWTMiddleware)
		protected.Use(middleware.Timeout(ingestTimeout))
		protected.Get("/me", h.Auth.Me)
		protected.Post("/dashboard/create-script", h.Documents.CreateScript)
	})

	return r
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	slog.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
