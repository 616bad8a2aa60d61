// Package server provides the HTTP REST API for the proposal agent.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/proposal-agent/internal/config"
	"github.com/jonathan/proposal-agent/internal/db"
	"github.com/jonathan/proposal-agent/internal/llm"
	"github.com/jonathan/proposal-agent/internal/proposal"
	"github.com/jonathan/proposal-agent/internal/server/middleware"
	"github.com/jonathan/proposal-agent/internal/server/ratelimit"
)

// JobStore is the job persistence surface the handlers need.
type JobStore interface {
	CreateJob(ctx context.Context, input *db.JobCreateInput) (*db.Job, error)
	GetJob(ctx context.Context, id uuid.UUID) (*db.Job, error)
	ListJobsByUser(ctx context.Context, userID uuid.UUID, limit int) ([]db.Job, error)
	GetAnalysisOutputByJob(ctx context.Context, jobID uuid.UUID) (*db.AnalysisOutput, error)
	ListJobStages(ctx context.Context, jobID uuid.UUID) ([]db.JobStage, error)
}

// ChunkStore is the resume chunk persistence surface.
type ChunkStore interface {
	CreateResumeChunk(ctx context.Context, input db.ResumeChunkCreateInput) (*db.ResumeChunk, error)
	GetResumeChunk(ctx context.Context, id uuid.UUID) (*db.ResumeChunk, error)
	ListResumeChunks(ctx context.Context, userID uuid.UUID, domain *string) ([]*db.ResumeChunk, error)
	UpdateResumeChunk(ctx context.Context, id uuid.UUID, domain *string, role string) (*db.ResumeChunk, error)
	DeleteResumeChunk(ctx context.Context, id uuid.UUID) (bool, error)
}

// Enqueuer schedules background analysis for accepted jobs.
type Enqueuer interface {
	Enqueue(jobID uuid.UUID) bool
}

// HistoryStore is the chat history persistence surface.
type HistoryStore interface {
	GetHistoryEntry(ctx context.Context, id uuid.UUID) (*db.HistoryEntry, error)
	ListHistoryByUser(ctx context.Context, userID uuid.UUID) ([]db.HistoryEntry, error)
	DeleteHistoryEntry(ctx context.Context, id uuid.UUID) (bool, error)
}

// ProposalService drives on-demand proposal synthesis, critique and
// question-driven answers.
type ProposalService interface {
	Synthesize(ctx context.Context, jobID, callerID uuid.UUID) (string, error)
	Critique(ctx context.Context, jobID, callerID uuid.UUID) (*proposal.CritiqueResult, error)
	Answer(ctx context.Context, user *db.User, question string) (*db.HistoryEntry, error)
}

// Embedder produces embedding vectors for resume chunk indexing.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// Generator produces free-form LLM text for resume generation.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)
}

// Server represents the HTTP server.
type Server struct {
	httpServer  *http.Server
	jobs        JobStore
	chunks      ChunkStore
	users       UserStore
	history     HistoryStore
	runner      Enqueuer
	proposals   ProposalService
	embedder    Embedder
	generator   Generator
	rateLimiter *ratelimit.Limiter
	jwtService  *JWTService
	userService *UserService
	authHandler *AuthHandler
	validator   *validator.Validate
	corsOrigin  string
	dbCloser    func()
	log         *zap.Logger
}

// Deps carries the already-constructed collaborators the server wires up.
type Deps struct {
	DB        *db.DB
	Runner    Enqueuer
	Proposals ProposalService
	Embedder  Embedder
	Generator Generator
	Log       *zap.Logger
}

// New creates a new server instance.
func New(cfg *config.Config, deps Deps) (*Server, error) {
	jwtConfig, err := config.NewJWTConfig(cfg.JWTSecret, config.DefaultJWTExpirationHours)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT config: %w", err)
	}

	passwordConfig, err := config.NewPasswordConfig(0)
	if err != nil {
		return nil, fmt.Errorf("failed to create password config: %w", err)
	}

	s := &Server{
		jobs:        deps.DB,
		chunks:      deps.DB,
		users:       deps.DB,
		history:     deps.DB,
		runner:      deps.Runner,
		proposals:   deps.Proposals,
		embedder:    deps.Embedder,
		generator:   deps.Generator,
		rateLimiter: ratelimit.NewLimiter(cfg.RateLimit, time.Minute),
		jwtService:  NewJWTService(jwtConfig),
		validator:   validator.New(),
		corsOrigin:  cfg.CORSOrigin,
		dbCloser:    deps.DB.Close,
		log:         deps.Log,
	}
	s.userService = NewUserService(deps.DB, passwordConfig)
	s.authHandler = NewAuthHandler(s.userService, s.jwtService)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler builds the routed handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Public endpoints
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /auth/register", s.authHandler.Register)
	mux.HandleFunc("POST /auth/login", s.authHandler.Login)

	// Everything else requires a valid bearer token.
	auth := middleware.Auth(s.jwtService.AsTokenValidator())
	protect := func(h http.HandlerFunc) http.Handler { return auth(h) }

	mux.Handle("GET /users/me", protect(s.handleMe))

	// Job endpoints
	mux.Handle("POST /jobs", protect(s.handleCreateJob))
	mux.Handle("GET /jobs", protect(s.handleListJobs))
	mux.Handle("GET /jobs/{id}", protect(s.handleGetJob))
	mux.Handle("GET /jobs/{id}/stages", protect(s.handleListJobStages))
	mux.Handle("POST /jobs/{id}/proposal", protect(s.handleSynthesizeProposal))
	mux.Handle("POST /jobs/{id}/critique", protect(s.handleCritiqueProposal))

	// Resume chunk endpoints
	mux.Handle("POST /resumes", protect(s.handleCreateChunk))
	mux.Handle("POST /resumes/generate", protect(s.handleGenerateChunk))
	mux.Handle("GET /resumes", protect(s.handleListChunks))
	mux.Handle("GET /resumes/{id}", protect(s.handleGetChunk))
	mux.Handle("PATCH /resumes/{id}", protect(s.handleUpdateChunk))
	mux.Handle("DELETE /resumes/{id}", protect(s.handleDeleteChunk))

	// Chat and history endpoints
	mux.Handle("POST /chat", protect(s.handleChat))
	mux.Handle("GET /history", protect(s.handleListHistory))
	mux.Handle("GET /history/{id}", protect(s.handleGetHistory))
	mux.Handle("DELETE /history/{id}", protect(s.handleDeleteHistory))

	return s.withRateLimit(s.withLogging(s.withCORS(mux)))
}

// Start begins listening for requests and blocks until shutdown.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-stop:
	}
	s.log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	if s.dbCloser != nil {
		s.dbCloser()
	}
	s.log.Info("server stopped")
	return nil
}

// withCORS adds CORS headers.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.corsOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds per-client rate limiting.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := extractClientID(r)

		allowed, info := s.rateLimiter.Allow(clientID)
		setRateLimitHeaders(w, info)
		if !allowed {
			w.Header().Set("Retry-After", strconv.Itoa(int(info.RetryAfter.Seconds())+1))
			writeJSON(w, http.StatusTooManyRequests, map[string]string{
				"error": "Rate limit exceeded",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote", r.RemoteAddr),
			zap.Duration("duration", time.Since(start)))
	})
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleMe returns the authenticated user's account.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := s.authedUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// extractClientID identifies the caller for rate limiting by IP.
func extractClientID(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
}
