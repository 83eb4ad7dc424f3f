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

	"github.com/cwbudde/keysweep/internal/search"
)

// Server hosts the search management API.
type Server struct {
	manager *SearchManager
	addr    string
	server  *http.Server
	baseCtx context.Context // parent context for search workers
}

// NewServer creates a server that will listen on addr.
func NewServer(addr string) *Server {
	return &Server{
		manager: NewSearchManager(),
		addr:    addr,
		baseCtx: context.Background(),
	}
}

// Handler returns the route tree wrapped in logging and CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/searches", s.handleSearches)
	mux.HandleFunc("/api/v1/searches/", s.handleSearchesWithID)
	return s.loggingMiddleware(s.corsMiddleware(mux))
}

// Start serves until the listener fails or Shutdown is called. Searches
// created while serving run under ctx, so shutting the process down cancels
// them and their in-flight batches are abandoned without checkpointing.
func (s *Server) Start(ctx context.Context) error {
	s.baseCtx = ctx
	s.server = &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}

	slog.Info("Starting HTTP server", "addr", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down HTTP server")
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// handleSearches handles /api/v1/searches.
func (s *Server) handleSearches(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateSearch(w, r)
	case http.MethodGet:
		s.handleListSearches(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleSearchesWithID handles /api/v1/searches/{id} and subresources.
func (s *Server) handleSearchesWithID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/searches/")
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] == "" {
		http.Error(w, "Search ID required", http.StatusBadRequest)
		return
	}
	searchID := parts[0]

	if len(parts) == 1 || parts[1] == "status" {
		s.handleGetSearchStatus(w, r, searchID)
	} else if parts[1] == "stream" {
		s.handleSearchStream(w, r, searchID)
	} else {
		http.Error(w, "Not found", http.StatusNotFound)
	}
}

// createSearchRequest is the POST body. The timeout is expressed in seconds
// so the wire format stays integer-friendly.
type createSearchRequest struct {
	TargetPath     string `json:"targetPath"`
	Alphabet       string `json:"alphabet,omitempty"`
	MinLength      int    `json:"minLength,omitempty"`
	MaxLength      int    `json:"maxLength,omitempty"`
	Workers        int    `json:"workers,omitempty"`
	ChunkSize      int    `json:"chunkSize,omitempty"`
	TimeoutSeconds int    `json:"timeoutSeconds,omitempty"`
	CheckpointPath string `json:"checkpointPath,omitempty"`
	FoundPath      string `json:"foundPath,omitempty"`
	OracleBinary   string `json:"oracleBinary,omitempty"`
}

func (req createSearchRequest) toConfig() search.Config {
	return search.Config{
		TargetPath:     req.TargetPath,
		Alphabet:       req.Alphabet,
		MinLength:      req.MinLength,
		MaxLength:      req.MaxLength,
		Workers:        req.Workers,
		ChunkSize:      req.ChunkSize,
		Timeout:        time.Duration(req.TimeoutSeconds) * time.Second,
		CheckpointPath: req.CheckpointPath,
		FoundPath:      req.FoundPath,
		OracleBinary:   req.OracleBinary,
	}
}

// handleCreateSearch handles POST /api/v1/searches.
func (s *Server) handleCreateSearch(w http.ResponseWriter, r *http.Request) {
	var req createSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}
	cfg := req.toConfig()

	// API-created searches keep their durable records next to the target,
	// so concurrent searches never share a checkpoint file by accident.
	if cfg.CheckpointPath == "" && cfg.TargetPath != "" {
		cfg.CheckpointPath = cfg.TargetPath + ".checkpoint.json"
	}
	if cfg.FoundPath == "" && cfg.TargetPath != "" {
		cfg.FoundPath = cfg.TargetPath + ".found.txt"
	}

	// Build a searcher once to validate parameters and target readability.
	searcher, err := search.New(cfg)
	if err != nil {
		if errors.Is(err, &search.ValidationError{}) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		} else {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	record := s.manager.CreateSearch(searcher.Config())
	go runSearch(s.baseCtx, s.manager, record.ID)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(record)
}

// handleListSearches handles GET /api/v1/searches.
func (s *Server) handleListSearches(w http.ResponseWriter, r *http.Request) {
	searches := s.manager.ListSearches()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(searches)
}

// handleGetSearchStatus handles GET /api/v1/searches/{id}.
func (s *Server) handleGetSearchStatus(w http.ResponseWriter, r *http.Request, searchID string) {
	rec, exists := s.manager.GetSearch(searchID)
	if !exists {
		http.Error(w, "Search not found", http.StatusNotFound)
		return
	}

	var elapsed time.Duration
	if rec.EndTime != nil {
		elapsed = rec.EndTime.Sub(rec.StartTime)
	} else {
		elapsed = time.Since(rec.StartTime)
	}
	var rate float64
	if elapsed.Seconds() > 0 {
		rate = float64(rec.Tested) / elapsed.Seconds()
	}

	response := map[string]interface{}{
		"id":        rec.ID,
		"state":     rec.State,
		"config":    rec.Config,
		"position":  rec.Position,
		"tested":    rec.Tested,
		"total":     rec.Total,
		"secret":    rec.Secret,
		"elapsed":   elapsed.Seconds(),
		"rate":      rate,
		"startTime": rec.StartTime,
		"endTime":   rec.EndTime,
		"error":     rec.Error,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// corsMiddleware adds CORS headers.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("HTTP request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
