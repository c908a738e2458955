// Package httpserver provides the HTTP REST API of the conference catalog service.
package httpserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/helixir/conference-catalog-service/internal/database"
	"github.com/helixir/conference-catalog-service/internal/domain"
	"github.com/helixir/conference-catalog-service/internal/papersources"
)

// SubmissionService is the submission intake and review surface used by the handlers.
type SubmissionService interface {
	Submit(ctx context.Context, sub *domain.Submission) (*domain.PendingSubmission, error)
	ListPending(ctx context.Context) ([]*domain.PendingSubmission, error)
	GetPending(ctx context.Context, id uuid.UUID) (*domain.PendingSubmission, error)
	UpdatePending(ctx context.Context, id uuid.UUID, payload *domain.EnrichedPayload) (*domain.PendingSubmission, error)
	DeleteAllPending(ctx context.Context) (int64, error)
	RecomputeRank(ctx context.Context, id uuid.UUID) (*domain.PendingSubmission, error)
	Approve(ctx context.Context, id uuid.UUID) (*domain.ApprovalResult, error)
	Reject(ctx context.Context, id uuid.UUID) error
	RefreshAuthor(ctx context.Context, id uuid.UUID) (*domain.Author, error)
	ClearCaches()
}

// Classifier assigns research fields to a conference.
type Classifier interface {
	Classify(name string, titles []string) (*domain.Classification, error)
}

// Ranker computes a conference rank.
type Ranker interface {
	Rank(ctx context.Context, cls *domain.Classification, papers []domain.EnrichedPaper) *domain.RankResult
}

// HealthChecker reports database health.
type HealthChecker interface {
	Health(ctx context.Context) database.HealthStatus
}

// Config holds HTTP server configuration.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// CORSAllowedOrigins lists the origins allowed to call the API from a browser.
	CORSAllowedOrigins []string
	// SubmissionRateLimit is the number of submissions accepted per client IP per minute.
	SubmissionRateLimit int
	// MaxBodyBytes caps request body size.
	MaxBodyBytes int64
	// AdminToken guards the admin routes. Empty disables the guard.
	AdminToken string
}

// Server is the HTTP REST API server.
type Server struct {
	cfg         Config
	router      chi.Router
	httpServer  *http.Server
	submissions SubmissionService
	authors     papersources.AuthorIndex
	classifier  Classifier
	ranker      Ranker
	health      HealthChecker
	logger      zerolog.Logger
}

// NewServer creates a new HTTP server with all dependencies.
func NewServer(
	cfg Config,
	submissions SubmissionService,
	authors papersources.AuthorIndex,
	classifier Classifier,
	ranker Ranker,
	health HealthChecker,
	logger zerolog.Logger,
) *Server {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}

	s := &Server{
		cfg:         cfg,
		submissions: submissions,
		authors:     authors,
		classifier:  classifier,
		ranker:      ranker,
		health:      health,
		logger:      logger.With().Str("component", "http-server").Logger(),
	}

	s.router = s.buildRouter()

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// buildRouter creates the chi router with all middleware and routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(correlationIDMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Correlation-ID"},
		ExposedHeaders: []string{"X-Correlation-ID"},
		MaxAge:         300,
	}))
	r.Use(jsonContentTypeMiddleware)

	// Health endpoints
	r.Get("/healthz", s.healthHandler)
	r.Get("/readyz", s.readinessHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.With(s.submissionRateLimit()).Post("/submissions", s.createSubmission)

		r.Get("/authors/resolve", s.resolveAuthor)
		r.Get("/authors/external/{externalID}", s.getAuthorByExternalID)
		r.Get("/conferences/papers", s.searchVenuePapers)
		r.Get("/conferences/info", s.getConferenceInfo)
		r.Post("/classify", s.classify)
		r.Post("/rank", s.rank)

		r.Route("/admin", func(r chi.Router) {
			r.Use(adminAuthMiddleware(s.cfg.AdminToken))

			r.Get("/pending", s.listPending)
			r.Delete("/pending", s.deleteAllPending)
			r.Get("/pending/{submissionID}", s.getPending)
			r.Put("/pending/{submissionID}", s.updatePending)
			r.Post("/pending/{submissionID}/approve", s.approveSubmission)
			r.Post("/pending/{submissionID}/reject", s.rejectSubmission)
			r.Post("/pending/{submissionID}/rank", s.recomputeRank)
			r.Post("/authors/{authorID}/refresh", s.refreshAuthor)
			r.Delete("/cache", s.clearCaches)
		})
	})

	return r
}

// submissionRateLimit throttles submissions per client IP.
func (s *Server) submissionRateLimit() func(http.Handler) http.Handler {
	if s.cfg.SubmissionRateLimit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		s.cfg.SubmissionRateLimit,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			writeError(w, http.StatusTooManyRequests, "too many submissions, try again later")
		}),
	)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("HTTP server starting")
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// healthHandler returns basic liveness status.
func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readinessHandler reports ready only when the database answers.
func (s *Server) readinessHandler(w http.ResponseWriter, r *http.Request) {
	health := s.health.Health(r.Context())
	if health.Status != "healthy" {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "not_ready",
			"database": health.Status,
			"error":    health.Error,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ready",
		"database": "healthy",
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Best-effort; headers already sent.
		_ = err
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{
		"error": message,
	})
}
