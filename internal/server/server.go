package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/notevault/notevault/internal/handler"
	"github.com/notevault/notevault/internal/model"
	"github.com/notevault/notevault/internal/openapi"
	"github.com/notevault/notevault/internal/server/middleware"
	"github.com/notevault/notevault/internal/service"
	"github.com/notevault/notevault/internal/store"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	IssueRateLimit  int // issuance requests per minute per IP
	KeyRateLimit    int // guarded requests per minute per credential
}

// DefaultConfig returns a Config with sensible production defaults.
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            3000,
		ShutdownTimeout: 30 * time.Second,
		CORSOrigins:     []string{"*"},
		IssueRateLimit:  30,
		KeyRateLimit:    300,
	}
}

// Server is the top-level HTTP server. It owns the chi router, the store,
// and the authentication service.
type Server struct {
	cfg        Config
	router     chi.Router
	store      *store.Store
	authSvc    *service.AuthService
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a new Server, wires up all routes and middleware, and returns
// it ready to listen. Call ListenAndServe to start accepting connections.
func New(cfg Config, st *store.Store, authSvc *service.AuthService, logger *slog.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		store:   st,
		authSvc: authSvc,
		logger:  logger,
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// --- Global middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", middleware.HeaderAPIKey, "X-Requested-With"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(chimw.Compress(5))

	// --- Health checks and API docs (no auth required) ---
	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)
	r.Get("/openapi.json", s.handleOpenAPI)

	keysHandler := handler.NewKeysHandler(s.store, s.authSvc, s.logger)
	notesHandler := handler.NewNotesHandler(s.store, s.logger)

	// --- Key issuance ---
	// Sits outside the auth middleware: it is how a caller obtains its
	// first credential. Rate limited per IP since it is the only
	// unauthenticated mutating endpoint.
	r.With(middleware.RateLimitByIP(s.cfg.IssueRateLimit)).
		Post("/api_key/new", keysHandler.Issue)

	// --- Guarded routes ---
	r.Group(func(r chi.Router) {
		// Throttling runs before authentication so a flood of bogus
		// credentials can't burn bcrypt verification cycles.
		r.Use(middleware.RateLimitByKey(s.cfg.KeyRateLimit))
		r.Use(middleware.Authenticate(s.authSvc))

		read := middleware.RequireScope(model.ScopeRead)
		write := middleware.RequireScope(model.ScopeWrite)

		// Note CRUD
		r.With(read).Get("/notes", notesHandler.List)
		r.With(write).Post("/notes", notesHandler.Create)
		r.With(read).Get("/notes/{noteId}", notesHandler.Get)
		r.With(write).Patch("/notes/{noteId}", notesHandler.Update)
		r.With(write).Delete("/notes/{noteId}", notesHandler.Delete)

		// Key administration
		r.With(read).Get("/api_key", keysHandler.List)
		r.With(write).Delete("/api_key", keysHandler.DeleteAll)
		r.With(write).Patch("/api_key/{keyId}", keysHandler.Update)
		r.With(write).Delete("/api_key/{keyId}", keysHandler.Delete)
	})

	s.router = r
}

// handleHealthz is a liveness probe. Returns 200 if the process is running.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// handleReadyz is a readiness probe. Returns 200 when the database is
// reachable, or 503 otherwise.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	httpStatus := http.StatusOK
	checks := make(map[string]string)

	if err := s.store.Ping(r.Context()); err != nil {
		checks["database"] = "error: " + err.Error()
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": status,
		"checks": checks,
	})
}

// handleOpenAPI serves the generated OpenAPI document for the HTTP surface.
func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	doc := openapi.Document(fmt.Sprintf("http://%s:%d", s.cfg.Host, s.cfg.Port))
	writeJSON := json.NewEncoder(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := writeJSON.Encode(doc); err != nil {
		s.logger.Error("encode openapi document", "error", err)
	}
}

// ListenAndServe starts the HTTP server and blocks until a SIGINT or SIGTERM
// is received. It then performs a graceful shutdown, draining in-flight
// requests before closing the database.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// Router returns the underlying chi router, useful for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler, delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
