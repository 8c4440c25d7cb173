// Package exchangerate fetches conversion rates from exchangerate-api.com.
package exchangerate

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/pep299/random-user-aggregator/internal/model"
	"github.com/pep299/random-user-aggregator/internal/upstream"
)

const (
	// Name identifies this upstream in logs and errors.
	Name = "exchangerate"

	DefaultBaseURL = "https://v6.exchangerate-api.com"
)

// APIError is returned when the API answers with "result":"error".
type APIError struct {
	Type string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: API error: %s", Name, e.Type)
}

// Is lets errors.Is(err, upstream.ErrUnavailable) match API errors.
func (e *APIError) Is(target error) bool {
	return target == upstream.ErrUnavailable
}

// Client interacts with the ExchangeRate-API v6.
type Client struct {
	upstream *upstream.Client
	apiKey   string
	BaseURL  string
}

// NewClient creates a new client. An empty baseURL selects the public API.
func NewClient(baseURL, apiKey string, up *upstream.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		upstream: up,
		apiKey:   apiKey,
		BaseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// FetchRates returns the conversion table for base, keyed by currency code.
func (c *Client) FetchRates(ctx context.Context, base string) (map[string]float64, error) {
	endpoint := fmt.Sprintf("%s/v6/%s/latest/%s",
		c.BaseURL, url.PathEscape(c.apiKey), url.PathEscape(base))

	js, err := c.upstream.GetJSON(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	if upstream.String(js, "result") == "error" {
		return nil, &APIError{Type: model.ValueOr(upstream.String(js, "error-type"), "unknown")}
	}

	table, err := js.Get("conversion_rates").Map()
	if err != nil {
		return nil, upstream.Malformed(Name, "missing conversion_rates")
	}

	rates := make(map[string]float64, len(table))
	for code := range table {
		if rate, ok := upstream.Float(js, "conversion_rates", code); ok {
			rates[code] = rate
		}
	}
	return rates, nil
}
