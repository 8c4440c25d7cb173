// Package aggregator stitches the person, country, exchange-rate and news
// sources into one payload. Every step is fault-isolated: a failing source is
// logged and replaced by its fallback record.
package aggregator

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pep299/random-user-aggregator/internal/exchangerate"
	"github.com/pep299/random-user-aggregator/internal/logging"
	"github.com/pep299/random-user-aggregator/internal/model"
)

// DefaultNewsLimit is the number of articles kept in a payload.
const DefaultNewsLimit = 5

// ErrMissingCurrencyCode means no currency code could be parsed from the country record.
var ErrMissingCurrencyCode = errors.New("no currency code derivable")

// PersonSource produces a random person.
type PersonSource interface {
	FetchPerson(ctx context.Context) (*model.Person, error)
}

// CountrySource looks up country metadata by name.
type CountrySource interface {
	FetchCountry(ctx context.Context, name string) (*model.CountryInfo, error)
}

// RateSource returns the conversion table for a base currency code.
type RateSource interface {
	FetchRates(ctx context.Context, base string) (map[string]float64, error)
}

// NewsSource searches headlines by free text.
type NewsSource interface {
	Search(ctx context.Context, query string) ([]model.NewsArticle, error)
}

// Sources groups the four upstreams.
type Sources struct {
	People    PersonSource
	Countries CountrySource
	Rates     RateSource
	News      NewsSource
}

// Aggregator runs the pipeline.
type Aggregator struct {
	sources   Sources
	newsLimit int
	logger    *logrus.Logger
}

// New creates an aggregator. A newsLimit of zero selects DefaultNewsLimit.
func New(sources Sources, newsLimit int, logger *logrus.Logger) *Aggregator {
	if newsLimit == 0 {
		newsLimit = DefaultNewsLimit
	}
	return &Aggregator{
		sources:   sources,
		newsLimit: newsLimit,
		logger:    logger,
	}
}

// Aggregate queries the sources in order and assembles the payload. It never fails.
func (a *Aggregator) Aggregate(ctx context.Context) model.Payload {
	log := logging.FromContext(ctx, a.logger).WithField("component", "aggregator")

	person := a.fetchPerson(ctx, log.WithField("step", "person"))
	country := a.fetchCountry(ctx, person, log.WithField("step", "country"))
	rates := a.fetchRates(ctx, country, log.WithField("step", "exchange"))
	news := a.fetchNews(ctx, person, log.WithField("step", "news"))

	log.WithFields(logrus.Fields{
		"country":  person.Country,
		"currency": rates.Base,
		"articles": len(news),
	}).Debug("Aggregated payload")

	return model.Payload{
		User:          person,
		Country:       country,
		ExchangeRates: rates,
		News:          news,
	}
}

func (a *Aggregator) fetchPerson(ctx context.Context, log *logrus.Entry) model.Person {
	if a.sources.People == nil {
		return model.FallbackPerson()
	}

	p, err := a.sources.People.FetchPerson(ctx)
	if err != nil || p == nil {
		log.WithError(err).Warn("Person fetch failed, using fallback")
		return model.FallbackPerson()
	}
	return normalizePerson(*p)
}

func (a *Aggregator) fetchCountry(ctx context.Context, person model.Person, log *logrus.Entry) model.CountryInfo {
	if !person.HasCountry() || a.sources.Countries == nil {
		log.Debug("No country to look up, skipping")
		return model.FallbackCountry(model.NoInfo)
	}

	c, err := a.sources.Countries.FetchCountry(ctx, person.Country)
	if err != nil || c == nil {
		log.WithError(err).WithField("country", person.Country).Warn("Country fetch failed, using fallback")
		return model.FallbackCountry(person.Country)
	}
	return normalizeCountry(*c, person.Country)
}

func (a *Aggregator) fetchRates(ctx context.Context, country model.CountryInfo, log *logrus.Entry) model.ExchangeRates {
	code, ok := exchangerate.ParseCurrencyCode(country.Currency)
	if !ok {
		log.WithError(ErrMissingCurrencyCode).WithField("currency", country.Currency).Info("Skipping exchange rates")
		return model.FallbackRates()
	}
	if a.sources.Rates == nil {
		return model.FallbackRates()
	}

	table, err := a.sources.Rates.FetchRates(ctx, code)
	if err != nil {
		log.WithError(err).WithField("base", code).Warn("Exchange rate fetch failed, using fallback")
		return model.FallbackRates()
	}

	return model.ExchangeRates{
		Base: code,
		USD:  rateOr(table, exchangerate.USD),
		KZT:  rateOr(table, exchangerate.KZT),
	}
}

func (a *Aggregator) fetchNews(ctx context.Context, person model.Person, log *logrus.Entry) []model.NewsArticle {
	var articles []model.NewsArticle

	// The query is the person's country as rendered, marker included.
	switch {
	case a.sources.News == nil:
		log.Debug("No news source configured, skipping")
	default:
		found, err := a.sources.News.Search(ctx, person.Country)
		if err != nil {
			log.WithError(err).WithField("query", person.Country).Warn("News fetch failed")
			break
		}
		for _, article := range model.TruncateNews(found, a.newsLimit) {
			articles = append(articles, normalizeArticle(article))
		}
	}

	if len(articles) == 0 {
		return []model.NewsArticle{model.NoNewsPlaceholder()}
	}
	return articles
}

func rateOr(table map[string]float64, code string) string {
	rate, ok := table[code]
	if !ok {
		return model.NoInfo
	}
	return exchangerate.FormatRate(rate)
}

func normalizePerson(p model.Person) model.Person {
	p.FirstName = model.ValueOr(p.FirstName, model.NoInfo)
	p.LastName = model.ValueOr(p.LastName, model.NoInfo)
	p.Gender = model.ValueOr(p.Gender, model.NoInfo)
	p.DOB = model.ValueOr(p.DOB, model.NoInfo)
	p.Picture = strings.TrimSpace(p.Picture)
	p.City = model.ValueOr(p.City, model.NoInfo)
	p.Country = model.ValueOr(p.Country, model.NoInfo)
	p.Address = model.ValueOr(p.Address, model.NoInfo)
	return p
}

func normalizeCountry(c model.CountryInfo, requested string) model.CountryInfo {
	c.Name = model.ValueOr(c.Name, model.ValueOr(requested, model.NoInfo))
	c.Capital = model.ValueOr(c.Capital, model.NoInfo)
	c.Languages = model.ValueOr(c.Languages, model.NoInfo)
	c.Currency = model.ValueOr(c.Currency, model.NoInfo)
	c.Flag = strings.TrimSpace(c.Flag)
	return c
}

func normalizeArticle(n model.NewsArticle) model.NewsArticle {
	n.Title = model.ValueOr(n.Title, model.NoTitle)
	n.Description = model.ValueOr(n.Description, model.NoDescription)
	n.URL = model.ValueOr(n.URL, model.NoURL)
	n.Image = strings.TrimSpace(n.Image)
	return n
}
