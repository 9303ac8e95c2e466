package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"universal-redaction/internal/ai"
	"universal-redaction/internal/audit"
	"universal-redaction/internal/cache"
	"universal-redaction/internal/config"
	"universal-redaction/internal/handlers"
	"universal-redaction/internal/redaction"
)

func main() {
	// Load Config
	config.LoadConfig()
	cfg := config.AppConfig

	// Initialize Redis (optional detection cache)
	cache.InitRedis()

	mode, err := redaction.ParseMode(cfg.RedactionMode)
	if err != nil {
		log.Fatalf("Invalid REDACTION_MODE: %v", err)
	}

	// Initialize AI Provider
	var detector handlers.Detector
	if err := ai.InitProvider(); err != nil {
		log.Printf("Warning: Failed to initialize AI provider: %v (/detect disabled, /redact and /evaluate still available)", err)
	} else {
		cacheTTL := cfg.DetectionCacheTTL
		if !cache.Enabled() {
			cacheTTL = 0
		}
		detector = ai.NewEntityDetector(ai.GetProvider(), ai.DetectorOptions{
			ValidateSchema: cfg.Features.SchemaValidationEnabled,
			CacheTTL:       cacheTTL,
		})
	}

	// Log Configuration
	log.Printf("Redaction Mode: [%s] | AI Provider: %s | Max Text Bytes: %d | Detection Cache: %v",
		mode,
		cfg.AIProvider,
		cfg.MaxTextBytes,
		cache.Enabled())

	mux := http.NewServeMux()
	handlers.NewServer(handlers.Options{
		Detector:     detector,
		Audit:        audit.NewWebhook(cfg.SIEMWebhookURL),
		DefaultMode:  mode,
		MaxTextBytes: cfg.MaxTextBytes,
	}).Register(mux)

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful Shutdown
	go func() {
		log.Printf("Server starting on :%s...", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Could not listen on %s: %v\n", cfg.ServerPort, err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("Server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	if cache.RDB != nil {
		_ = cache.RDB.Close()
	}

	log.Println("Server exited properly")
}
