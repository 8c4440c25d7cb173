// Package upstream is the outbound HTTP layer shared by every external data source.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/bitly/go-simplejson"
	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "random-user-aggregator/1.0"

	// maxBodyBytes caps how much of an upstream body is read.
	maxBodyBytes = 4 << 20
	// maxErrorBody caps how much of a failed body ends up in an error message.
	maxErrorBody = 256
)

// Options configures a Client.
type Options struct {
	Name          string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
	UserAgent     string
}

// Client performs GET requests against one upstream and decodes JSON bodies.
type Client struct {
	name       string
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
	logger     *logrus.Entry
}

// NewClient creates a new upstream client
func NewClient(opts Options, logger *logrus.Logger) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Client{
		name: opts.Name,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter:   rate.NewLimiter(limit, burst),
		userAgent: userAgent,
		logger:    logger.WithField("upstream", opts.Name),
	}
}

// Name returns the upstream name used in logs and errors.
func (c *Client) Name() string {
	return c.name
}

// GetJSON fetches rawURL and decodes the body. A request that times out is retried
// once as long as ctx itself is still live.
func (c *Client) GetJSON(ctx context.Context, rawURL string) (*simplejson.Json, error) {
	var body []byte
	op := func() error {
		var err error
		body, err = c.get(ctx, rawURL)
		if err != nil && (!IsTimeout(err) || ctx.Err() != nil) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, _ time.Duration) {
		c.logger.WithError(err).Warn("upstream timed out, retrying once")
	}

	if err := backoff.RetryNotify(op, backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 1), notify); err != nil {
		return nil, err
	}

	js, err := simplejson.NewJson(body)
	if err != nil {
		return nil, Malformed(c.name, "decoding response: %v", err)
	}
	return js, nil
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	// The limiter wait counts against the call timeout. Wait fails fast when the
	// next token would arrive after the deadline.
	waitCtx, cancel := context.WithTimeout(ctx, c.httpClient.Timeout)
	err := c.limiter.Wait(waitCtx)
	cancel()
	if err != nil {
		return nil, &TransportError{
			Upstream: c.name,
			Err:      fmt.Errorf("waiting for rate limiter: %w", err),
			timeout:  ctx.Err() == nil,
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: creating request: %w", c.name, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.transportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, c.transportError(fmt.Errorf("reading response body: %w", err))
	}

	c.logger.WithFields(logrus.Fields{
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("upstream responded")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{
			Upstream:   c.name,
			StatusCode: resp.StatusCode,
			Body:       truncate(string(body), maxErrorBody),
		}
	}

	return body, nil
}

// transportError strips the request URL from err and records whether it timed out.
func (c *Client) transportError(err error) error {
	timeout := IsTimeout(err)
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}
	return &TransportError{Upstream: c.name, Err: err, timeout: timeout}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
