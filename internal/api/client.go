// Package api is the HTTP client for the Vastram REST backend.
//
// Every response body is wrapped in the envelope {success, message, data}.
// A 401 from any endpoint invokes the registered unauthorized hook before
// the error is returned, so the session can be invalidated globally.
package api

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
	"strings"
	"sync"
	"time"

	"vastram/internal/logging"

	"github.com/google/go-querystring/query"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/net/publicsuffix"
)

const tracerName = "vastram/api"

// ErrUnauthorized is wrapped by every error caused by a 401 response.
var ErrUnauthorized = errors.New("api: unauthorized")

// Error is a non-2xx backend response.
type Error struct {
	Status  int
	Message string // backend "message", may be empty
	Method  string
	Path    string
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, msg)
}

// Unwrap lets errors.Is(err, ErrUnauthorized) match 401s.
func (e *Error) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// UserMessage returns the backend's message when err carries one,
// otherwise fallback.
func UserMessage(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// TokenSource supplies the bearer credential for each request.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

// Options configures a Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration // per request, applied only when ctx has no deadline
	HTTPClient *http.Client  // optional; a cookie jar is added when missing
	UserAgent  string
}

// Client talks to the backend. Safe for concurrent use.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	timeout   time.Duration
	userAgent string

	mu             sync.RWMutex
	tokens         TokenSource
	onUnauthorized func(reason string)
}

// envelope is the backend response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

// NewClient builds a client for opts.BaseURL.
func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("api: base URL required")
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("api: invalid base URL %q: %w", opts.BaseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("api: base URL must be http or https, got %q", opts.BaseURL)
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	if hc.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("api: cookie jar: %w", err)
		}
		hc.Jar = jar
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = "vastram-cli"
	}

	return &Client{baseURL: base, http: hc, timeout: timeout, userAgent: ua}, nil
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string { return c.baseURL.String() }

// SetTokenSource registers where bearer tokens come from.
func (c *Client) SetTokenSource(ts TokenSource) {
	c.mu.Lock()
	c.tokens = ts
	c.mu.Unlock()
}

// OnUnauthorized registers the hook run on every 401 response.
func (c *Client) OnUnauthorized(fn func(reason string)) {
	c.mu.Lock()
	c.onUnauthorized = fn
	c.mu.Unlock()
}

// Close releases idle connections.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

func (c *Client) token() string {
	c.mu.RLock()
	ts := c.tokens
	c.mu.RUnlock()
	if ts == nil {
		return ""
	}
	return ts.Token()
}

// endpoint joins path to the base URL. path is already escaped; ids in it
// go through url.PathEscape in the gateways.
func (c *Client) endpoint(path string, params interface{}) (string, error) {
	u := *c.baseURL
	raw := strings.TrimRight(u.EscapedPath(), "/") + path
	unescaped, err := url.PathUnescape(raw)
	if err != nil {
		return "", fmt.Errorf("invalid path %q: %w", path, err)
	}
	u.Path, u.RawPath = unescaped, raw
	if params != nil {
		v, err := query.Values(params)
		if err != nil {
			return "", fmt.Errorf("encode query: %w", err)
		}
		u.RawQuery = v.Encode()
	}
	return u.String(), nil
}

// do performs one round trip. body is JSON-encoded when non-nil; the
// envelope's data is decoded into out when out is non-nil. It returns the
// envelope message.
func (c *Client) do(ctx context.Context, method, path string, params, body, out interface{}) (string, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	reqID := uuid.NewString()
	ctx, span := otel.Tracer(tracerName).Start(ctx, method+" "+path)
	defer span.End()
	span.SetAttributes(
		attribute.String("http.request.method", method),
		attribute.String("url.path", path),
		attribute.String("vastram.request_id", reqID),
	)

	log := logging.WithRequestID(logging.CategoryAPI, reqID)
	timer := logging.StartTimer(logging.CategoryAPI, method+" "+path)

	target, err := c.endpoint(path, params)
	if err != nil {
		timer.Stop()
		span.RecordError(err)
		span.SetStatus(codes.Error, "endpoint")
		log.Warn("%s %s: %v", method, path, err)
		return "", fmt.Errorf("%s %s: %w", method, path, err)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return "", fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", reqID)
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		timer.Stop()
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport")
		log.Warn("%s %s transport error: %v", method, path, err)
		logging.Audit().APIError(reqID, method, path, 0, err)
		return "", fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	timer.StopWithThreshold(3 * time.Second)
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil && resp.StatusCode < 300 {
			return "", fmt.Errorf("failed to decode response envelope: %w", err)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := env.Message
		if msg == "" {
			msg = env.Error
		}
		apiErr := &Error{Status: resp.StatusCode, Message: msg, Method: method, Path: path}
		span.SetStatus(codes.Error, apiErr.Error())
		log.Warn("%s %s -> %d %s", method, path, resp.StatusCode, msg)
		logging.Audit().APIError(reqID, method, path, resp.StatusCode, apiErr)

		if resp.StatusCode == http.StatusUnauthorized {
			c.mu.RLock()
			hook := c.onUnauthorized
			c.mu.RUnlock()
			if hook != nil {
				hook(fmt.Sprintf("%s %s returned 401", method, path))
			}
		}
		return "", apiErr
	}

	log.Debug("%s %s -> %d", method, path, resp.StatusCode)

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return "", fmt.Errorf("failed to decode %s %s data: %w", method, path, err)
		}
	}
	return env.Message, nil
}
