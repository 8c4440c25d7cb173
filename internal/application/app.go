package application

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/pep299/random-user-aggregator/internal/aggregator"
	"github.com/pep299/random-user-aggregator/internal/cache"
	"github.com/pep299/random-user-aggregator/internal/config"
	"github.com/pep299/random-user-aggregator/internal/countrylayer"
	"github.com/pep299/random-user-aggregator/internal/exchangerate"
	"github.com/pep299/random-user-aggregator/internal/handlers"
	"github.com/pep299/random-user-aggregator/internal/newsapi"
	"github.com/pep299/random-user-aggregator/internal/randomuser"
	"github.com/pep299/random-user-aggregator/internal/scheduler"
	"github.com/pep299/random-user-aggregator/internal/upstream"
)

// Application represents the application with all components wired together
type Application struct {
	Config     *config.Config
	Logger     *logrus.Logger
	Cache      *cache.Manager
	Aggregator *aggregator.Aggregator
	Rates      *aggregator.CachedRateSource
	Warmer     *scheduler.RatesWarmer
	Server     *handlers.Server
}

// New creates a new application instance with all dependencies
func New(ctx context.Context, cfg *config.Config, logger *logrus.Logger, version string) (*Application, error) {
	for _, warning := range cfg.Warnings() {
		logger.Warn(warning)
	}

	// Initialize cache manager
	cacheManager, err := cache.NewManager(ctx, cfg.CacheOptions())
	if err != nil {
		return nil, fmt.Errorf("creating cache manager: %w", err)
	}

	newUpstream := func(name string) *upstream.Client {
		return upstream.NewClient(upstream.Options{
			Name:          name,
			Timeout:       cfg.UpstreamTimeout,
			RatePerSecond: cfg.UpstreamRatePerSecond,
			Burst:         cfg.UpstreamBurst,
		}, logger)
	}

	people := randomuser.NewClient(cfg.RandomUserBaseURL, newUpstream(randomuser.Name))
	countries := aggregator.NewCachedCountrySource(
		countrylayer.NewClient(cfg.CountryLayerBaseURL, cfg.CountryLayerAPIKey, newUpstream(countrylayer.Name)),
		cacheManager, logger)
	rates := aggregator.NewCachedRateSource(
		exchangerate.NewClient(cfg.ExchangeRateBaseURL, cfg.ExchangeRateAPIKey, newUpstream(exchangerate.Name)),
		cacheManager, logger)
	news := newsapi.NewClient(cfg.NewsAPIBaseURL, cfg.NewsAPIKey, cfg.NewsPageSize, newUpstream(newsapi.Name))

	agg := aggregator.New(aggregator.Sources{
		People:    people,
		Countries: countries,
		Rates:     rates,
		News:      news,
	}, cfg.NewsLimit, logger)

	return &Application{
		Config:     cfg,
		Logger:     logger,
		Cache:      cacheManager,
		Aggregator: agg,
		Rates:      rates,
		Warmer:     scheduler.NewRatesWarmer(rates, cfg.RatesRefreshSchedule, cfg.WarmCurrencies, logger),
		Server:     handlers.NewServer(cfg, agg, cacheManager, logger, version),
	}, nil
}

// Handler returns the routed HTTP handler
func (a *Application) Handler() http.Handler {
	return a.Server.SetupRoutes()
}

// Close cleans up application resources
func (a *Application) Close() error {
	a.Warmer.Stop()
	return a.Cache.Close()
}
