package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/cwbudde/curvefit/internal/config"
	"github.com/cwbudde/curvefit/internal/fit"
	"github.com/cwbudde/curvefit/internal/opt"
	"github.com/cwbudde/curvefit/internal/store"
)

// Server represents the HTTP server
type Server struct {
	jobManager *JobManager
	store      store.Store
	traceDir   string
	addr       string
	server     *http.Server

	// workers run one goroutine per job; jobCtx is cancelled on Shutdown
	workers    conc.WaitGroup
	jobCtx     context.Context
	cancelJobs context.CancelFunc
}

// NewServer creates a new HTTP server. checkpointStore may be nil; when it is an
// FSStore, job traces are written next to the checkpoints.
func NewServer(addr string, checkpointStore store.Store) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		jobManager: NewJobManager(),
		store:      checkpointStore,
		addr:       addr,
		jobCtx:     ctx,
		cancelJobs: cancel,
	}
	if fsStore, ok := checkpointStore.(*store.FSStore); ok {
		s.traceDir = fsStore.BaseDir()
	}
	return s
}

// Handler returns the HTTP handler with all routes and middleware
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.handleIndex)

	mux.HandleFunc("/api/v1/algorithms", s.handleAlgorithms)
	mux.HandleFunc("/api/v1/jobs", s.handleJobs)
	mux.HandleFunc("/api/v1/jobs/", s.handleJobsWithID)

	return s.loggingMiddleware(s.corsMiddleware(mux))
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}

	slog.Info("Starting HTTP server", "addr", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown cancels running jobs, waits for their workers and stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down HTTP server", "running_jobs", len(s.jobManager.GetRunningJobs()))
	s.cancelJobs()

	var err error
	if s.server != nil {
		err = s.server.Shutdown(ctx)
	}
	s.workers.Wait()
	return err
}

// submit registers a job and starts its worker
func (s *Server) submit(cfg config.RunConfig, points []fit.Point) *Job {
	job := s.jobManager.CreateJob(cfg, points)
	s.workers.Go(func() {
		// failures are recorded on the job and logged by the worker
		_ = runJob(s.jobCtx, s.jobManager, s.store, s.traceDir, job.ID)
	})
	return job
}

// handleAlgorithms handles GET /api/v1/algorithms
func (s *Server) handleAlgorithms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, opt.Algorithms())
}

// handleJobs handles /api/v1/jobs
func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateJob(w, r)
	case http.MethodGet:
		s.handleListJobs(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleJobsWithID handles /api/v1/jobs/:id/*
func (s *Server) handleJobsWithID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/jobs/")
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] == "" {
		http.Error(w, "Job ID required", http.StatusBadRequest)
		return
	}

	jobID := parts[0]
	sub := ""
	if len(parts) > 1 {
		sub = parts[1]
	}

	var method string
	var handle func(http.ResponseWriter, *http.Request, string)
	switch sub {
	case "", "status":
		method, handle = http.MethodGet, s.handleGetJobStatus
	case "curves":
		method, handle = http.MethodGet, s.handleGetCurves
	case "stream":
		method, handle = http.MethodGet, s.handleJobStream
	case "points":
		method, handle = http.MethodPut, s.handleUpdatePoints
	case "cancel":
		method, handle = http.MethodPost, s.handleCancelJob
	default:
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	handle(w, r, jobID)
}

// handleCreateJob handles POST /api/v1/jobs.
// The body is a run configuration; omitted fields take their defaults.
func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	cfg := config.Default()
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}

	if err := cfg.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	job := s.submit(cfg, cfg.Dataset())
	writeJSON(w, http.StatusCreated, job)
}

// handleListJobs handles GET /api/v1/jobs
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.jobManager.ListJobs())
}

// handleGetJobStatus handles GET /api/v1/jobs/:id/status
func (s *Server) handleGetJobStatus(w http.ResponseWriter, r *http.Request, jobID string) {
	job, exists := s.jobManager.GetJob(jobID)
	if !exists {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}

	var elapsed time.Duration
	if job.EndTime != nil {
		elapsed = job.EndTime.Sub(job.StartTime)
	} else {
		elapsed = time.Since(job.StartTime)
	}

	stepsPerSecond := float64(0)
	if elapsed.Seconds() > 0 {
		stepsPerSecond = float64(job.Iterations) / elapsed.Seconds()
	}

	response := map[string]interface{}{
		"id":             job.ID,
		"state":          job.State,
		"config":         job.Config,
		"numPoints":      len(job.Points),
		"bestWeights":    fit.JSONFloats(job.BestWeights),
		"loss":           fit.JSONFloat(job.Loss),
		"bestLoss":       fit.JSONFloat(job.BestLoss),
		"initialLoss":    fit.JSONFloat(job.InitialLoss),
		"iterations":     job.Iterations,
		"stopReason":     job.StopReason,
		"elapsed":        elapsed.Seconds(),
		"stepsPerSecond": stepsPerSecond,
		"startTime":      job.StartTime,
		"endTime":        job.EndTime,
		"error":          job.Error,
	}

	writeJSON(w, http.StatusOK, response)
}

// handleGetCurves handles GET /api/v1/jobs/:id/curves
func (s *Server) handleGetCurves(w http.ResponseWriter, r *http.Request, jobID string) {
	job, exists := s.jobManager.GetJob(jobID)
	if !exists {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}

	curves := job.Curves
	if curves == nil {
		curves = []*fit.Curve{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":          job.ID,
		"iterations":  job.Iterations,
		"points":      job.Points,
		"curves":      curves,
		"bestWeights": fit.JSONFloats(job.BestWeights),
		"bestLoss":    fit.JSONFloat(job.BestLoss),
	})
}

// handleUpdatePoints handles PUT /api/v1/jobs/:id/points
func (s *Server) handleUpdatePoints(w http.ResponseWriter, r *http.Request, jobID string) {
	var req struct {
		Points []fit.Point `json:"points"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}

	if err := s.jobManager.UpdatePoints(jobID, req.Points); err != nil {
		http.Error(w, err.Error(), jobErrorStatus(err))
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"id":        jobID,
		"numPoints": len(req.Points),
	})
}

// handleCancelJob handles POST /api/v1/jobs/:id/cancel
func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request, jobID string) {
	if err := s.jobManager.Cancel(jobID); err != nil {
		http.Error(w, err.Error(), jobErrorStatus(err))
		return
	}

	job, _ := s.jobManager.GetJob(jobID)
	writeJSON(w, http.StatusAccepted, job)
}

// jobErrorStatus maps job manager errors to HTTP status codes
func jobErrorStatus(err error) int {
	switch {
	case errors.Is(err, ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrJobFinished):
		return http.StatusConflict
	case errors.Is(err, fit.ErrEmptyDataset):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON encodes v before writing the header so encoding failures surface as a 500
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("Failed to encode response", "error", err)
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(data, '\n'))
}

// corsMiddleware adds CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("HTTP request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
