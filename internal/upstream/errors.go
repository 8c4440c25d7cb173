package upstream

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrUnavailable marks network failures and non-2xx responses.
	ErrUnavailable = errors.New("upstream unavailable")

	// ErrMalformedResponse marks bodies that are not JSON or lack expected fields.
	ErrMalformedResponse = errors.New("malformed upstream response")
)

// StatusError is returned when an upstream answers with a non-2xx status.
type StatusError struct {
	Upstream   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status code: %d", e.Upstream, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status code: %d: %s", e.Upstream, e.StatusCode, e.Body)
}

// Is lets errors.Is(err, ErrUnavailable) match status failures.
func (e *StatusError) Is(target error) bool {
	return target == ErrUnavailable
}

// TransportError wraps a failed round trip. The request URL is deliberately left
// out of the message because several upstreams carry their API key in it.
type TransportError struct {
	Upstream string
	Err      error
	timeout  bool
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: request failed: %v", e.Upstream, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the round trip ran out of time.
func (e *TransportError) Timeout() bool {
	return e.timeout
}

func (e *TransportError) Is(target error) bool {
	return target == ErrUnavailable
}

// Malformed wraps cause as an ErrMalformedResponse for the named upstream.
func Malformed(upstream, format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w: %s", upstream, ErrMalformedResponse, fmt.Sprintf(format, args...))
}

// IsTimeout reports whether err was caused by a timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	var timeoutErr interface{ Timeout() bool }
	if errors.As(err, &timeoutErr) && timeoutErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
