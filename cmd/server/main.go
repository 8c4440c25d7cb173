package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pep299/random-user-aggregator/internal/application"
	"github.com/pep299/random-user-aggregator/internal/config"
	"github.com/pep299/random-user-aggregator/internal/logging"
)

var (
	Version   string = "dev"
	Commit    string = "unknown"
	BuildTime string = "unknown"
)

func main() {
	var (
		showHelp    = flag.Bool("help", false, "Show help message")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showHelp {
		fmt.Printf("Random User Aggregator Server\n\n")
		fmt.Printf("Usage: %s [options]\n\n", os.Args[0])
		fmt.Printf("Options:\n")
		flag.PrintDefaults()
		fmt.Printf("\nEnvironment Variables:\n")
		fmt.Printf("  PORT                    Server port (default: 3000)\n")
		fmt.Printf("  HOST                    Server host (default: 0.0.0.0)\n")
		fmt.Printf("  COUNTRYLAYER_API_KEY    countrylayer access key\n")
		fmt.Printf("  EXCHANGERATE_API_KEY    exchangerate-api key\n")
		fmt.Printf("  NEWSAPI_KEY             newsapi.org key\n")
		fmt.Printf("  CACHE_TYPE              Cache type: memory, redis or cloud-storage (default: memory)\n")
		fmt.Printf("  RATES_REFRESH_SCHEDULE  Cron schedule for rate warm-up (default: 0 */6 * * *)\n")
		fmt.Printf("  LOG_LEVEL, LOG_FORMAT   Logging (default: info, json)\n")
		os.Exit(0)
	}

	if *showVersion {
		fmt.Printf("Random User Aggregator Server\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Commit: %s\n", Commit)
		fmt.Printf("Build Time: %s\n", BuildTime)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := application.New(ctx, cfg, logger, Version)
	if err != nil {
		logger.WithError(err).Fatal("Failed to create application")
	}
	defer app.Close()

	// Create HTTP server
	httpServer := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      app.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Keep the conversion-rate cache warm
	if err := app.Warmer.Start(ctx); err != nil {
		logger.WithError(err).Error("Failed to schedule rates warm-up")
	}

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start server
	go func() {
		logger.WithField("addr", cfg.Addr()).Info("Starting server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	logger.Info("Shutting down server...")

	// Cancel background tasks
	cancel()

	// Shutdown HTTP server
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server shutdown error")
	}

	logger.Info("Server stopped")
}
