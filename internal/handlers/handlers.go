package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// randomUserHandler runs one aggregation. Upstream failures are already folded
// into fallbacks, so this always answers 200.
func (s *Server) randomUserHandler(w http.ResponseWriter, r *http.Request) {
	payload := s.aggregator.Aggregate(r.Context())
	writeJSON(w, http.StatusOK, payload)
}

// healthHandler provides health check endpoint
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
		"version":   s.version,
	}

	writeJSON(w, http.StatusOK, response)
}

// cacheStatsHandler returns cache statistics
func (s *Server) cacheStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := s.cacheManager.GetStats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Error getting cache stats: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// cacheClearHandler clears the cache
func (s *Server) cacheClearHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.cacheManager.Clear(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Error clearing cache: %v", err))
		return
	}

	response := map[string]string{
		"status":  "success",
		"message": "Cache cleared successfully",
	}

	writeJSON(w, http.StatusOK, response)
}

// configHandler returns configuration (sanitized)
func (s *Server) configHandler(w http.ResponseWriter, r *http.Request) {
	// API keys and the redis password carry json:"-"
	writeJSON(w, http.StatusOK, s.config)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
