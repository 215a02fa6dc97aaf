// ABOUTME: HTTP client for the administrative REST backend
// ABOUTME: Attaches the session bearer token through an oauth2 transport and decodes typed envelopes
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Client talks to the backend. Requests to private endpoints go through
// an oauth2 transport fed by the session's token source; sign-in and
// password recovery use an anonymous client.
type Client struct {
	baseURL *url.URL
	authed  *http.Client
	anon    *http.Client
	logger  *zap.Logger
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	timeout   time.Duration
	transport http.RoundTripper
	logger    *zap.Logger
}

// WithTimeout sets a per-request timeout. Zero means none.
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) { o.timeout = d }
}

// WithTransport replaces the base round tripper (tests, proxies).
func WithTransport(rt http.RoundTripper) Option {
	return func(o *clientOptions) { o.transport = rt }
}

// WithLogger sets the request logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *clientOptions) { o.logger = l }
}

// NewClient creates a client for baseURL. ts may be nil, in which case no
// Authorization header is ever sent.
func NewClient(baseURL string, ts oauth2.TokenSource, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid api url %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid api url %q: scheme and host are required", baseURL)
	}

	o := clientOptions{transport: http.DefaultTransport, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	anon := &http.Client{Transport: o.transport, Timeout: o.timeout}
	authed := anon
	if ts != nil {
		authed = &http.Client{
			Transport: &oauth2.Transport{Source: ts, Base: o.transport},
			Timeout:   o.timeout,
		}
	}

	return &Client{baseURL: u, authed: authed, anon: anon, logger: o.logger}, nil
}

// BaseURL returns the backend root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

func (c *Client) endpoint(path string) string {
	return c.baseURL.String() + "/" + strings.TrimLeft(path, "/")
}

// do issues one request. body is JSON-encoded when non-nil; out is decoded
// from a 2xx response when non-nil. Non-2xx responses become *APIError.
func (c *Client) do(ctx context.Context, hc *http.Client, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), reader)
	if err != nil {
		return fmt.Errorf("failed to build %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(hc, req, out)
}

// send executes req and decodes a 2xx JSON answer into out.
func (c *Client) send(hc *http.Client, req *http.Request, out any) error {
	method, path := req.Method, req.URL.Path
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		c.logger.Debug("request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read %s %s response: %w", method, path, err)
	}

	c.logger.Debug("request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}
