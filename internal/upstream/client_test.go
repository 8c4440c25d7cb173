package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(timeout time.Duration) *Client {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewClient(Options{Name: "test", Timeout: timeout}, logger)
}

func TestGetJSON_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		fmt.Fprintln(w, `{"results":[{"name":{"first":"Ada"}}]}`)
	}))
	defer server.Close()

	js, err := newTestClient(time.Second).GetJSON(context.Background(), server.URL)

	require.NoError(t, err)
	assert.Equal(t, "Ada", String(js.Get("results").GetIndex(0), "name", "first"))
}

func TestGetJSON_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"invalid key"}`)
	}))
	defer server.Close()

	_, err := newTestClient(time.Second).GetJSON(context.Background(), server.URL)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Contains(t, err.Error(), "invalid key")
}

func TestGetJSON_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results": [`)
	}))
	defer server.Close()

	_, err := newTestClient(time.Second).GetJSON(context.Background(), server.URL)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedResponse))
	assert.False(t, errors.Is(err, ErrUnavailable))
}

func TestGetJSON_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL + "/v6/secret-key/latest/EUR"
	server.Close()

	_, err := newTestClient(time.Second).GetJSON(context.Background(), url)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.NotContains(t, err.Error(), "secret-key", "error must not leak the request URL")
}

func TestGetJSON_RetriesOnceOnTimeout(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			time.Sleep(300 * time.Millisecond)
		}
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer server.Close()

	js, err := newTestClient(100*time.Millisecond).GetJSON(context.Background(), server.URL)

	require.NoError(t, err)
	assert.True(t, js.Get("ok").MustBool())
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGetJSON_GivesUpAfterSecondTimeout(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(300 * time.Millisecond)
	}))
	defer server.Close()

	_, err := newTestClient(50*time.Millisecond).GetJSON(context.Background(), server.URL)

	require.Error(t, err)
	assert.True(t, IsTimeout(err))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGetJSON_NoRetryWhenCallerContextDone(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(300 * time.Millisecond)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestClient(5*time.Second).GetJSON(ctx, server.URL)

	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGetJSON_RateLimitWaitBoundedByTimeout(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer server.Close()

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	client := NewClient(Options{
		Name:          "test",
		Timeout:       200 * time.Millisecond,
		RatePerSecond: 1,
		Burst:         1,
	}, logger)

	_, err := client.GetJSON(context.Background(), server.URL)
	require.NoError(t, err)

	// The next token is a second away, well past the call timeout.
	start := time.Now()
	_, err = client.GetJSON(context.Background(), server.URL)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, IsTimeout(err))
	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.Less(t, elapsed, 500*time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGetJSON_ConcurrentCallsNeverQueuePastTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer server.Close()

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	client := NewClient(Options{
		Name:          "test",
		Timeout:       200 * time.Millisecond,
		RatePerSecond: 1,
		Burst:         1,
	}, logger)

	var wg sync.WaitGroup
	var succeeded int32
	durations := make([]time.Duration, 4)
	for i := range durations {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			start := time.Now()
			if _, err := client.GetJSON(context.Background(), server.URL); err == nil {
				atomic.AddInt32(&succeeded, 1)
			}
			durations[i] = time.Since(start)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&succeeded))
	for i, d := range durations {
		assert.Less(t, d, 500*time.Millisecond, "call %d", i)
	}
}

func TestJSONHelpers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"a":{"s":"  x  ","n":12,"f":1.5,"list":[1,2,3],"null":null}}`)
	}))
	defer server.Close()

	js, err := newTestClient(time.Second).GetJSON(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Equal(t, "x", String(js, "a", "s"))
	assert.Equal(t, "", String(js, "a", "n"))
	assert.Equal(t, "", String(js, "missing"))

	n, ok := Int(js, "a", "n")
	assert.True(t, ok)
	assert.Equal(t, 12, n)
	_, ok = Int(js, "a", "s")
	assert.False(t, ok)

	f, ok := Float(js, "a", "f")
	assert.True(t, ok)
	assert.InDelta(t, 1.5, f, 1e-9)

	assert.Equal(t, 3, Len(js, "a", "list"))
	assert.Equal(t, -1, Len(js, "a", "s"))

	assert.True(t, Has(js, "a", "s"))
	assert.False(t, Has(js, "a", "null"))
	assert.False(t, Has(js, "a", "nope"))
	assert.False(t, strings.Contains(String(nil, "a"), "x"))
}
