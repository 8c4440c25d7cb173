package handlers

import (
	"context"
	"net/http"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/pep299/random-user-aggregator/internal/cache"
	"github.com/pep299/random-user-aggregator/internal/config"
	"github.com/pep299/random-user-aggregator/internal/logging"
	"github.com/pep299/random-user-aggregator/internal/model"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// Aggregator builds the combined payload.
type Aggregator interface {
	Aggregate(ctx context.Context) model.Payload
}

// CacheManager exposes the cache maintenance operations served over HTTP.
type CacheManager interface {
	GetStats(ctx context.Context) (*cache.Stats, error)
	Clear(ctx context.Context) error
}

// Server holds the HTTP server and its dependencies
type Server struct {
	config       *config.Config
	aggregator   Aggregator
	cacheManager CacheManager
	logger       *logrus.Logger
	version      string
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, aggregator Aggregator, cacheManager CacheManager, logger *logrus.Logger, version string) *Server {
	if version == "" {
		version = "dev"
	}
	return &Server{
		config:       cfg,
		aggregator:   aggregator,
		cacheManager: cacheManager,
		logger:       logger,
		version:      version,
	}
}

// SetupRoutes configures HTTP routes
func (s *Server) SetupRoutes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)

	r.HandleFunc("/api/random-user", s.randomUserHandler).Methods("GET", "OPTIONS")

	// API routes
	api := r.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", s.healthHandler).Methods("GET", "OPTIONS")

	// Cache operations
	api.HandleFunc("/cache/stats", s.cacheStatsHandler).Methods("GET", "OPTIONS")
	api.HandleFunc("/cache/clear", s.cacheClearHandler).Methods("DELETE", "OPTIONS")

	// Configuration
	api.HandleFunc("/config", s.configHandler).Methods("GET", "OPTIONS")

	// Front end
	if s.config.ViewsDir != "" {
		r.HandleFunc("/", s.indexHandler).Methods("GET")
	}
	if s.config.PublicDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(s.config.PublicDir)))
	}

	return r
}

func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, filepath.Join(s.config.ViewsDir, "index.html"))
}

// Middleware functions

// requestIDMiddleware reuses an incoming X-Request-ID or assigns a new one
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), id)))
	})
}

// corsMiddleware adds CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+RequestIDHeader)

		if r.Method == "OPTIONS" {
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

		// Wrap the ResponseWriter to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		logging.FromContext(r.Context(), s.logger).WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      wrapped.statusCode,
			"duration_ms": time.Since(start).Milliseconds(),
		}).Info("Handled request")
	})
}

// recoveryMiddleware turns a panic into a 500
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logging.FromContext(r.Context(), s.logger).WithFields(logrus.Fields{
					"panic": rec,
					"stack": string(debug.Stack()),
				}).Error("Recovered from panic")
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
