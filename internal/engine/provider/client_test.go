package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestClientRetriesRateLimits(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newJSONClient("test", http.DefaultTransport, zaptest.NewLogger(t))
	c.backoff = time.Millisecond

	body, err := c.get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(body))
	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, int64(2), c.RateLimits())
}

func TestClientGivesUpAfterRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newJSONClient("test", http.DefaultTransport, nil)
	c.backoff = time.Millisecond

	_, err := c.get(context.Background(), srv.URL, nil)
	var rl *RateLimitError
	require.True(t, errors.As(err, &rl))
	assert.Equal(t, http.StatusTooManyRequests, rl.StatusCode)
}

func TestClientTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := newJSONClient("test", http.DefaultTransport, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.get(ctx, srv.URL, nil)
	assert.True(t, errors.Is(err, ErrProviderTimeout), "got %v", err)
}

func TestClientSendsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "v", r.Header.Get("X-Test"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := newJSONClient("test", newTransport(false, ""), nil)
	_, err := c.get(context.Background(), srv.URL, http.Header{"X-Test": {"v"}})
	require.NoError(t, err)
}
