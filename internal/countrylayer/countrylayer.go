// Package countrylayer looks up country metadata by name on countrylayer.com.
package countrylayer

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/bitly/go-simplejson"

	"github.com/pep299/random-user-aggregator/internal/model"
	"github.com/pep299/random-user-aggregator/internal/upstream"
)

const (
	// Name identifies this upstream in logs and errors.
	Name = "countrylayer"

	DefaultBaseURL = "https://api.countrylayer.com"
)

// ErrCountryNotFound is returned when the lookup matched nothing.
var ErrCountryNotFound = errors.New("countrylayer: country not found")

// Client interacts with the countrylayer API.
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

// FetchCountry fetches metadata for the named country. The first match wins.
func (c *Client) FetchCountry(ctx context.Context, name string) (*model.CountryInfo, error) {
	endpoint := fmt.Sprintf("%s/v2/name/%s?access_key=%s",
		c.BaseURL, url.PathEscape(name), url.QueryEscape(c.apiKey))

	js, err := c.upstream.GetJSON(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	// Errors come back as 200 with {"success":false,"error":{...}}.
	if success, err := js.Get("success").Bool(); err == nil && !success {
		return nil, fmt.Errorf("%s: %w: %s", Name, upstream.ErrUnavailable,
			model.ValueOr(upstream.String(js, "error", "info"), upstream.String(js, "error", "type")))
	}

	switch n := upstream.Len(js); {
	case n < 0:
		return nil, upstream.Malformed(Name, "expected an array of countries")
	case n == 0:
		return nil, fmt.Errorf("%w: %s", ErrCountryNotFound, name)
	}

	country := mapCountry(js.GetIndex(0))
	return &country, nil
}

func mapCountry(data *simplejson.Json) model.CountryInfo {
	return model.CountryInfo{
		Name:      model.ValueOr(upstream.String(data, "name"), model.NoInfo),
		Capital:   model.ValueOr(upstream.String(data, "capital"), model.NoInfo),
		Languages: model.ValueOr(joinLanguages(data.Get("languages")), model.NoInfo),
		Currency:  model.ValueOr(joinCurrencies(data.Get("currencies")), model.NoInfo),
		Flag:      firstFlag(data),
	}
}

// joinLanguages joins language names with ", ".
func joinLanguages(languages *simplejson.Json) string {
	var names []string
	for i := 0; i < upstream.Len(languages); i++ {
		if name := upstream.String(languages.GetIndex(i), "name"); name != "" {
			names = append(names, name)
		}
	}
	return strings.Join(names, ", ")
}

// joinCurrencies renders each currency as "name (code)" and joins them with ", ".
func joinCurrencies(currencies *simplejson.Json) string {
	var descriptors []string
	for i := 0; i < upstream.Len(currencies); i++ {
		currency := currencies.GetIndex(i)
		name := upstream.String(currency, "name")
		code := upstream.String(currency, "code")
		switch {
		case name != "" && code != "":
			descriptors = append(descriptors, fmt.Sprintf("%s (%s)", name, code))
		case code != "":
			descriptors = append(descriptors, fmt.Sprintf("(%s)", code))
		case name != "":
			descriptors = append(descriptors, name)
		}
	}
	return strings.Join(descriptors, ", ")
}

// firstFlag accepts both a single flag URL and a list of them.
func firstFlag(data *simplejson.Json) string {
	if flag := upstream.String(data, "flag"); flag != "" {
		return flag
	}
	if upstream.Len(data, "flag") > 0 {
		return strings.TrimSpace(data.Get("flag").GetIndex(0).MustString())
	}
	return ""
}
