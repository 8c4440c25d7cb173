// Package cloudfunctions exposes the aggregator as a Google Cloud Function.
package cloudfunctions

import (
	"context"
	"net/http"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/pep299/random-user-aggregator/internal/application"
	"github.com/pep299/random-user-aggregator/internal/config"
	"github.com/pep299/random-user-aggregator/internal/logging"
)

// Version is reported by /api/v1/health.
var Version = "dev"

var (
	appOnce sync.Once
	app     *application.Application
	handler http.Handler
	appErr  error
)

func init() {
	functions.HTTP("RandomUser", RandomUser)
}

// RandomUser serves the same routes as cmd/server. The application is built on
// the first request and reused by warm instances.
func RandomUser(w http.ResponseWriter, r *http.Request) {
	appOnce.Do(func() {
		app, appErr = newApplication(context.Background())
		if appErr == nil {
			handler = app.Handler()
		}
	})

	if appErr != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	handler.ServeHTTP(w, r)
}

func newApplication(ctx context.Context) (*application.Application, error) {
	cfg, err := config.Load()
	logger := logging.NewWithWriter(funcframework.LogWriter(ctx), cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		logger.WithError(err).Error("Failed to load configuration")
		return nil, err
	}

	// Instances are short-lived; the warm-up scheduler only runs in cmd/server.
	a, err := application.New(ctx, cfg, logger, Version)
	if err != nil {
		logger.WithError(err).Error("Failed to create application")
		return nil, err
	}
	return a, nil
}
