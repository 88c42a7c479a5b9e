package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"

	"github.com/estoque-app/estoque/pkg/authevents"
)

const (
	// CSRFCookie is the readable cookie the server sets with the token.
	CSRFCookie = "XSRF-TOKEN"
	// CSRFHeader echoes the token back on mutating calls.
	CSRFHeader = "X-XSRF-TOKEN"
	// RequestIDHeader tags every call for server-side correlation.
	RequestIDHeader = "X-Request-ID"

	maxErrorBody = 1 << 20 // 1 MB
)

// MetricsRecorder receives request outcomes. internal/metrics.Collector
// satisfies it.
type MetricsRecorder interface {
	RecordRequest(method string, status int, d time.Duration)
	RecordFailure(method, reason string)
	RecordUnauthorized()
}

type nopRecorder struct{}

func (nopRecorder) RecordRequest(string, int, time.Duration) {}
func (nopRecorder) RecordFailure(string, string)              {}
func (nopRecorder) RecordUnauthorized()                       {}

// Client is the estoque API client. Every call to the remote API goes
// through it.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	jar        *cookiejar.Jar
	bus        *authevents.Bus
	limiter    *rate.Limiter
	log        zerolog.Logger
	metrics    MetricsRecorder
}

// Option configures a Client.
type Option func(*Client)

// WithBus sets the bus 401 responses are published to. Defaults to
// authevents.Default.
func WithBus(b *authevents.Bus) Option {
	return func(c *Client) { c.bus = b }
}

// WithLogger sets the diagnostics logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(c *Client) { c.metrics = m }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithRateLimit spaces outgoing calls to rps requests per second. A
// non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// New creates a new API client for baseURL (e.g. "https://erp.example.com/api").
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("client.New: parse base URL: %w", err)
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("client.New: cookie jar: %w", err)
	}
	c := &Client{
		baseURL: u,
		jar:     jar,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
		bus:     authevents.Default,
		log:     zerolog.Nop(),
		metrics: nopRecorder{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Cookies returns the session cookies the jar holds for the API.
func (c *Client) Cookies() []*http.Cookie {
	return c.jar.Cookies(c.baseURL)
}

// SetCookies seeds the jar, e.g. with cookies saved by a previous run.
func (c *Client) SetCookies(cookies []*http.Cookie) {
	for _, ck := range cookies {
		if ck.Path == "" {
			ck.Path = "/"
		}
	}
	c.jar.SetCookies(c.baseURL, cookies)
}

// ClearCookies drops every cookie held for the API.
func (c *Client) ClearCookies() {
	expired := make([]*http.Cookie, 0)
	for _, ck := range c.jar.Cookies(c.baseURL) {
		expired = append(expired, &http.Cookie{Name: ck.Name, Path: "/", MaxAge: -1})
	}
	c.jar.SetCookies(c.baseURL, expired)
}

// call describes one outbound request.
type call struct {
	method string
	path   string
	body   any
	out    any
	// probe marks session calls (login, logout, who-am-i) whose 401 means
	// "not signed in" rather than "session expired".
	probe bool
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.doRequest(ctx, call{method: http.MethodGet, path: path, out: out})
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	return c.doRequest(ctx, call{method: http.MethodPost, path: path, body: body, out: out})
}

func (c *Client) put(ctx context.Context, path string, body any, out any) error {
	return c.doRequest(ctx, call{method: http.MethodPut, path: path, body: body, out: out})
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.doRequest(ctx, call{method: http.MethodDelete, path: path})
}

func (c *Client) doRequest(ctx context.Context, cl call) error {
	var reqBody io.Reader
	if cl.body != nil {
		data, err := json.Marshal(cl.body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return c.transportFailure(cl, "", fmt.Errorf("rate limit: %w", err))
		}
	}

	target, err := c.resolve(cl.path)
	if err != nil {
		return fmt.Errorf("resolve %q: %w", cl.path, err)
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, target.String(), reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)
	req.Header.Set("Accept", "application/json")
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if needsCSRF(cl.method) {
		if token := c.csrfToken(target); token != "" {
			req.Header.Set(CSRFHeader, token)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.transportFailure(cl, reqID, err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close
	c.metrics.RecordRequest(cl.method, resp.StatusCode, time.Since(start))

	if resp.StatusCode >= 400 {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		httpErr := &HTTPError{Method: cl.method, Path: cl.path, StatusCode: resp.StatusCode}
		if readErr != nil {
			httpErr.Message = fmt.Sprintf("failed to read body: %v", readErr)
		} else {
			httpErr.Message = messageFromBody(respBody)
		}

		// The unauthorized reaction must be in motion before the caller
		// sees the error.
		if resp.StatusCode == http.StatusUnauthorized && !cl.probe {
			if c.bus.Publish() {
				c.metrics.RecordUnauthorized()
				c.log.Info().Str("path", cl.path).Str("request_id", reqID).Msg("session rejected, unauthorized event published")
			}
		}

		c.metrics.RecordFailure(cl.method, "http")
		c.log.Warn().
			Int("status", resp.StatusCode).
			Str("method", cl.method).
			Str("path", cl.path).
			Str("request_id", reqID).
			Msg("API error")
		return httpErr
	}

	if cl.out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(cl.out); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) transportFailure(cl call, reqID string, err error) error {
	c.metrics.RecordFailure(cl.method, "transport")
	c.log.Warn().
		Err(err).
		Str("method", cl.method).
		Str("path", cl.path).
		Str("request_id", reqID).
		Msg("API unreachable")
	return &TransportError{Method: cl.method, Path: cl.path, Err: err}
}

// resolve joins path (which may carry a query string) onto the base URL,
// keeping the base path prefix.
func (c *Client) resolve(path string) (*url.URL, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, err
	}
	u := *c.baseURL
	u.Path = joinPath(c.baseURL.Path, ref.Path)
	u.RawPath = ""
	u.RawQuery = ref.RawQuery
	return &u, nil
}

func joinPath(base, p string) string {
	switch {
	case base == "" || base == "/":
		return p
	case p == "":
		return base
	case base[len(base)-1] == '/' && p[0] == '/':
		return base + p[1:]
	case base[len(base)-1] != '/' && p[0] != '/':
		return base + "/" + p
	default:
		return base + p
	}
}

func (c *Client) csrfToken(u *url.URL) string {
	for _, ck := range c.jar.Cookies(u) {
		if ck.Name == CSRFCookie {
			return ck.Value
		}
	}
	return ""
}

func needsCSRF(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
