package provider

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	utls "github.com/refraction-networking/utls"
	"go.uber.org/zap"
)

const (
	maxRetries   = 3
	baseBackoff  = 1 * time.Second
	maxBackoff   = 8 * time.Second
	jitterFactor = 0.5
	maxErrorBody = 512
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// jsonClient performs GET requests against a JSON API, retrying with
// exponential backoff when the provider rate limits.
type jsonClient struct {
	name       string
	http       *http.Client
	logger     *zap.Logger
	backoff    time.Duration
	rateLimits atomic.Int64
}

func newJSONClient(name string, transport http.RoundTripper, logger *zap.Logger) *jsonClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &jsonClient{
		name:    name,
		http:    &http.Client{Transport: transport},
		logger:  logger,
		backoff: baseBackoff,
	}
}

// get fetches reqURL. Deadlines come from ctx; an expired deadline is
// reported as ErrProviderTimeout.
func (c *jsonClient) get(ctx context.Context, reqURL string, header http.Header) ([]byte, error) {
	var lastErr error
	for attempt := range maxRetries {
		body, err := c.do(ctx, reqURL, header)
		if err == nil {
			return body, nil
		}
		lastErr = err

		var rl *RateLimitError
		if !errors.As(err, &rl) {
			return nil, err
		}
		c.rateLimits.Add(1)

		backoff := c.backoff * time.Duration(1<<uint(attempt))
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
		jitter := time.Duration(float64(backoff) * jitterFactor * rand.Float64())
		c.logger.Warn("rate limited, backing off",
			zap.String("provider", c.name),
			zap.Int("status", rl.StatusCode),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", backoff+jitter))

		t := time.NewTimer(backoff + jitter)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, wrapCtxErr(ctx.Err())
		case <-t.C:
		}
	}
	return nil, lastErr
}

// RateLimits returns how many rate-limited answers this client has seen.
// Kakao and Yogiyo expose it through RateLimitCounter.
func (c *jsonClient) RateLimits() int64 {
	return c.rateLimits.Load()
}

func (c *jsonClient) do(ctx context.Context, reqURL string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, wrapCtxErr(ctx.Err())
		}
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return nil, fmt.Errorf("%w: %v", ErrProviderTimeout, err)
		}
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		io.Copy(io.Discard, resp.Body)
		return nil, &RateLimitError{StatusCode: resp.StatusCode}
	case resp.StatusCode != http.StatusOK:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &ProviderError{Provider: c.name, StatusCode: resp.StatusCode, Body: string(snippet)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, wrapCtxErr(ctx.Err())
		}
		return nil, fmt.Errorf("reading body: %w", err)
	}
	return body, nil
}

func wrapCtxErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrProviderTimeout, err)
	}
	return err
}

// newTransport returns the HTTP transport for a provider. With browserTLS the
// TLS handshake mimics Chrome, which web-facing catalog APIs expect.
func newTransport(browserTLS bool, proxyURL string) http.RoundTripper {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		MaxIdleConns:        32,
		MaxIdleConnsPerHost: 16,
		IdleConnTimeout:     90 * time.Second,
	}

	if browserTLS {
		transport.DialTLSContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}

			host, _, err := net.SplitHostPort(addr)
			if err != nil {
				host = addr
			}

			// Chrome hello with ALPN pinned to HTTP/1.1; net/http cannot speak
			// h2 over a custom TLS conn.
			spec, err := utls.UTLSIdToSpec(utls.HelloChrome_Auto)
			if err != nil {
				conn.Close()
				return nil, err
			}
			for i, ext := range spec.Extensions {
				if alpn, ok := ext.(*utls.ALPNExtension); ok {
					alpn.AlpnProtocols = []string{"http/1.1"}
					spec.Extensions[i] = alpn
					break
				}
			}

			tlsConn := utls.UClient(conn, &utls.Config{ServerName: host}, utls.HelloCustom)
			if err := tlsConn.ApplyPreset(&spec); err != nil {
				conn.Close()
				return nil, err
			}
			if err := tlsConn.HandshakeContext(ctx); err != nil {
				conn.Close()
				return nil, err
			}
			return tlsConn, nil
		}
	}

	if proxyURL != "" {
		if parsed, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(parsed)
			// the proxy tunnels the connection, so standard TLS it is
			transport.DialTLSContext = nil
			transport.TLSClientConfig = &tls.Config{}
		}
	}

	return transport
}
