// Package newsapi searches headlines on newsapi.org.
package newsapi

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/bitly/go-simplejson"

	"github.com/pep299/random-user-aggregator/internal/model"
	"github.com/pep299/random-user-aggregator/internal/upstream"
)

const (
	// Name identifies this upstream in logs and errors.
	Name = "newsapi"

	DefaultBaseURL  = "https://newsapi.org"
	DefaultPageSize = 8
	DefaultLanguage = "en"
)

// APIError is returned when the API answers with "status":"error".
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: API error %s: %s", Name, e.Code, e.Message)
}

// Is lets errors.Is(err, upstream.ErrUnavailable) match API errors.
func (e *APIError) Is(target error) bool {
	return target == upstream.ErrUnavailable
}

// Client interacts with the News API "everything" endpoint.
type Client struct {
	upstream *upstream.Client
	apiKey   string
	BaseURL  string
	PageSize int
	Language string
}

// NewClient creates a new client. An empty baseURL selects the public API.
func NewClient(baseURL, apiKey string, pageSize int, up *upstream.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Client{
		upstream: up,
		apiKey:   apiKey,
		BaseURL:  strings.TrimRight(baseURL, "/"),
		PageSize: pageSize,
		Language: DefaultLanguage,
	}
}

// Search returns the articles matching query in source order, each normalized
// with its fallbacks. The result is not truncated.
func (c *Client) Search(ctx context.Context, query string) ([]model.NewsArticle, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("language", c.Language)
	params.Set("pageSize", strconv.Itoa(c.PageSize))
	params.Set("apiKey", c.apiKey)

	js, err := c.upstream.GetJSON(ctx, c.BaseURL+"/v2/everything?"+params.Encode())
	if err != nil {
		return nil, err
	}

	if upstream.String(js, "status") == "error" {
		return nil, &APIError{
			Code:    model.ValueOr(upstream.String(js, "code"), "unknown"),
			Message: upstream.String(js, "message"),
		}
	}

	count := upstream.Len(js, "articles")
	if count < 0 {
		return nil, upstream.Malformed(Name, "missing articles")
	}

	articles := make([]model.NewsArticle, 0, count)
	for i := 0; i < count; i++ {
		articles = append(articles, mapArticle(js.Get("articles").GetIndex(i)))
	}
	return articles, nil
}

func mapArticle(article *simplejson.Json) model.NewsArticle {
	return model.NewsArticle{
		Title:       model.ValueOr(upstream.String(article, "title"), model.NoTitle),
		Description: model.ValueOr(upstream.String(article, "description"), model.NoDescription),
		URL:         model.ValueOr(upstream.String(article, "url"), model.NoURL),
		Image:       upstream.String(article, "urlToImage"),
	}
}
