// internal/api/server.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/nniranjan/mnqsim/internal/api/handler"
	"github.com/nniranjan/mnqsim/internal/api/job"
	"github.com/nniranjan/mnqsim/internal/api/middleware"
	"github.com/nniranjan/mnqsim/internal/metrics"
	"github.com/nniranjan/mnqsim/internal/report"
	"github.com/nniranjan/mnqsim/internal/storage/archive"
)

const (
	defaultMaxJobs = 256
	jobTTL         = 24 * time.Hour
)

// Server represents the simulation HTTP server.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	jobs       *job.Store
	done       chan struct{}
}

// Config holds server configuration.
type Config struct {
	Host    string
	Port    int
	APIKey  string
	MaxJobs int
}

// NewServer creates a new HTTP server wired to the given provider,
// artifact store and metrics registry.
func NewServer(
	cfg Config,
	provider handler.HistoryProvider,
	store archive.Storage,
	reg *metrics.Registry,
	logger *zap.Logger,
) *Server {
	maxJobs := cfg.MaxJobs
	if maxJobs <= 0 {
		maxJobs = defaultMaxJobs
	}
	jobs := job.NewStore(maxJobs, jobTTL)
	writer := report.NewWriter(store)

	backtest := handler.NewBacktestHandler(jobs, provider, writer, reg, logger)
	simulate := handler.NewSimulateHandler(jobs, writer, reg, logger)
	montecarlo := handler.NewMonteCarloHandler(jobs, writer, reg, logger)
	jobsHandler := handler.NewJobsHandler(jobs)
	runs := handler.NewRunsHandler(store)

	apiMux := http.NewServeMux()
	apiMux.HandleFunc("POST /api/v1/backtest", backtest.Create)
	apiMux.HandleFunc("POST /api/v1/simulate", simulate.Create)
	apiMux.HandleFunc("POST /api/v1/montecarlo", montecarlo.Create)
	apiMux.HandleFunc("GET /api/v1/jobs", jobsHandler.List)
	apiMux.HandleFunc("GET /api/v1/jobs/{id}", jobsHandler.Get)
	apiMux.HandleFunc("GET /api/v1/runs/{runID}/{artifact}", runs.GetArtifact)

	auth := middleware.APIKeyAuth(cfg.APIKey)
	instrument := metrics.HTTPMiddleware(reg)

	mux := http.NewServeMux()
	mux.Handle("/api/", instrument(auth(apiMux)))
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /healthz", handleHealth)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
		jobs:   jobs,
		done:   make(chan struct{}),
	}
}

// Handler exposes the root mux, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server and the job janitor.
func (s *Server) Start() error {
	go s.cleanupLoop()
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	close(s.done)
	return s.httpServer.Shutdown(ctx)
}

// cleanupLoop evicts finished jobs past their TTL.
func (s *Server) cleanupLoop() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if n := s.jobs.CleanupExpired(); n > 0 {
				s.logger.Debug("cleaned up expired jobs", zap.Int("removed", n))
			}
		}
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
