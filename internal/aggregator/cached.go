package aggregator

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pep299/random-user-aggregator/internal/cache"
	"github.com/pep299/random-user-aggregator/internal/model"
)

// CountryCache is the subset of cache.Manager used for country metadata.
type CountryCache interface {
	GetCountry(ctx context.Context, name string) (*model.CountryInfo, error)
	SetCountry(ctx context.Context, name string, country model.CountryInfo) error
}

// RateCache is the subset of cache.Manager used for conversion tables.
type RateCache interface {
	GetRates(ctx context.Context, base string) (map[string]float64, error)
	SetRates(ctx context.Context, base string, rates map[string]float64) error
}

// CachedCountrySource consults the cache before the wrapped source.
type CachedCountrySource struct {
	source CountrySource
	cache  CountryCache
	logger *logrus.Logger
}

// NewCachedCountrySource decorates source with a cache-first lookup.
func NewCachedCountrySource(source CountrySource, c CountryCache, logger *logrus.Logger) *CachedCountrySource {
	return &CachedCountrySource{source: source, cache: c, logger: logger}
}

// FetchCountry returns the cached record or fetches and stores it. Only
// successful lookups are cached.
func (s *CachedCountrySource) FetchCountry(ctx context.Context, name string) (*model.CountryInfo, error) {
	log := s.logger.WithFields(logrus.Fields{"component": "cache", "country": name})

	cached, err := s.cache.GetCountry(ctx, name)
	if err == nil {
		log.Debug("Country cache hit")
		return cached, nil
	}
	if !cache.IsMiss(err) {
		log.WithError(err).Warn("Country cache read failed")
	}

	country, err := s.source.FetchCountry(ctx, name)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetCountry(ctx, name, *country); err != nil {
		log.WithError(err).Warn("Country cache write failed")
	}
	return country, nil
}

// CachedRateSource consults the cache before the wrapped source.
type CachedRateSource struct {
	source RateSource
	cache  RateCache
	logger *logrus.Logger
}

// NewCachedRateSource decorates source with a cache-first lookup.
func NewCachedRateSource(source RateSource, c RateCache, logger *logrus.Logger) *CachedRateSource {
	return &CachedRateSource{source: source, cache: c, logger: logger}
}

// FetchRates returns the cached table for base or fetches and stores it.
func (s *CachedRateSource) FetchRates(ctx context.Context, base string) (map[string]float64, error) {
	base = strings.ToUpper(strings.TrimSpace(base))
	log := s.logger.WithFields(logrus.Fields{"component": "cache", "base": base})

	cached, err := s.cache.GetRates(ctx, base)
	if err == nil {
		log.Debug("Rates cache hit")
		return cached, nil
	}
	if !cache.IsMiss(err) {
		log.WithError(err).Warn("Rates cache read failed")
	}

	return s.Refresh(ctx, base)
}

// Refresh fetches the table for base from the source and overwrites the cache.
func (s *CachedRateSource) Refresh(ctx context.Context, base string) (map[string]float64, error) {
	base = strings.ToUpper(strings.TrimSpace(base))

	rates, err := s.source.FetchRates(ctx, base)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetRates(ctx, base, rates); err != nil {
		s.logger.WithError(err).WithField("base", base).Warn("Rates cache write failed")
	}
	return rates, nil
}
