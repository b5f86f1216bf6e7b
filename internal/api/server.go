// Package api provides the HTTP REST API consumed by the dashboard.
//
// It exposes stock data, ratio, analysis, news and report endpoints on
// top of the aggregator and the pure analysis engines. Response field
// names at this boundary are bound by the dashboard and must stay
// stable.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/equityscope/equityscope/internal/analysis/scoring"
	"github.com/equityscope/equityscope/internal/config"
	"github.com/equityscope/equityscope/internal/datasource"
	"github.com/equityscope/equityscope/pkg/symbols"
)

// Server is the HTTP API server.
type Server struct {
	router  chi.Router
	cfg     *config.Config
	agg     *datasource.Aggregator
	scorer  *scoring.Engine
	version string
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config, agg *datasource.Aggregator, version string) *Server {
	srv := &Server{
		cfg:     cfg,
		agg:     agg,
		scorer:  scoring.NewEngine(cfg.Scoring),
		version: version,
	}
	srv.router = srv.buildRouter()
	return srv
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server with graceful shutdown.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/validate-ticker", s.handleValidateTicker)
		r.Get("/stock-data", s.handleStockData)
		r.Get("/ratios", s.handleRatios)
		r.Get("/analysis", s.handleAnalysis)
		r.Get("/news", s.handleNews)
		r.Get("/report", s.handleReport)
	})

	return r
}

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to write JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{Success: false, Error: msg})
}

// writeFetchError maps the error taxonomy onto HTTP statuses: invalid
// symbols are a client error, unknown symbols are 404, provider trouble
// is a bad gateway.
func writeFetchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, symbols.ErrInvalidSymbol):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, datasource.ErrSymbolNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, datasource.ErrRateLimited), errors.Is(err, datasource.ErrProviderUnavailable):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
