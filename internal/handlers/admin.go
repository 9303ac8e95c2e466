package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"universal-redaction/internal/cache"
	"universal-redaction/internal/config"
	"universal-redaction/internal/models"
)

// Healthz reports liveness.
func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("UP"))
}

// Ready reports whether a detector is configured and Redis, when enabled,
// answers.
func (s *Server) Ready(w http.ResponseWriter, r *http.Request) {
	if s.detector == nil {
		http.Error(w, "Detector not configured", http.StatusServiceUnavailable)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := cache.Ping(ctx); err != nil {
		http.Error(w, "Redis not ready", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("READY"))
}

// ReloadCache clears the detection cache. Requires X-ADMIN-KEY to match
// ADMIN_API_KEY; with no admin key configured the endpoint is closed.
func ReloadCache(w http.ResponseWriter, r *http.Request) {
	var adminKey string
	if config.AppConfig != nil {
		adminKey = config.AppConfig.AdminAPIKey
	}
	if adminKey == "" || r.Header.Get("X-ADMIN-KEY") != adminKey {
		writeError(w, http.StatusUnauthorized, "Unauthorized", models.ErrTypeUnauthorized, "")
		return
	}

	n, err := cache.ClearCache(cache.KeyDetections)
	if err != nil {
		log.Printf("[handlers] cache clear failed: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to clear cache", models.ErrTypeInternal, "")
		return
	}

	log.Printf("[handlers] detection cache cleared: %d keys", n)
	writeJSON(w, http.StatusOK, models.StatusResponse{
		Status:  "ok",
		Message: fmt.Sprintf("Detection cache cleared (%d entries)", n),
		Cleared: n,
	})
}
