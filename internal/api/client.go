// Package api is the HTTP boundary between the PsiChat client and its backend.
//
// Every request carries the stored bearer token when one exists. A 401
// response triggers the registered unauthorized handler before the error
// is returned, so callers never have to clean up a dead session themselves.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"

	"github.com/felixgeelhaar/psichat/internal/log"
	"github.com/felixgeelhaar/psichat/internal/metrics"
	"github.com/felixgeelhaar/psichat/internal/telemetry"
)

// DefaultTimeout is used when Config.Timeout is zero.
const DefaultTimeout = 10 * time.Second

// HeaderRequestID carries the per-request correlation id.
const HeaderRequestID = "X-Request-ID"

// Config fixes the base URL and timeout for the lifetime of a Client.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// TokenSource yields the current bearer token, or "" when there is none.
type TokenSource interface {
	Token() (string, error)
}

// UnauthorizedHandler is called for every 401 response. It must be
// idempotent; concurrent 401s each call it.
type UnauthorizedHandler func(ctx context.Context, err *APIError)

// Doer performs one request. out may be nil.
type Doer interface {
	Do(ctx context.Context, method, path string, query url.Values, body, out any) error
}

// Option configures a Client.
type Option func(*Client)

// WithCredentials attaches tokens from src to every request.
func WithCredentials(src TokenSource) Option {
	return func(c *Client) { c.tokens = src }
}

// WithUnauthorizedHandler registers the forced-teardown hook.
func WithUnauthorizedHandler(h UnauthorizedHandler) Option {
	return func(c *Client) { c.onUnauthorized = h }
}

// WithHTTPClient replaces the underlying http.Client. Its Timeout is
// overwritten by Config.Timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithMetrics records request metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// Client is safe for concurrent use.
type Client struct {
	baseURL        string
	userAgent      string
	httpClient     *http.Client
	tokens         TokenSource
	onUnauthorized UnauthorizedHandler
	logger         *log.Logger
	metrics        *metrics.Metrics
}

// New creates a Client.
func New(cfg Config, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		logger:    log.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	c.httpClient.Timeout = timeout

	return c
}

// BaseURL returns the backend root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out)
}

// Put issues a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, nil, body, out)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, out)
}

// Do performs a request. body is encoded as JSON unless it is url.Values,
// which is sent form-encoded. A successful response is decoded into out
// when out is non-nil and the body is non-empty.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	route := routeOf(path)
	requestID := uuid.NewString()

	ctx, span := telemetry.StartRequestSpan(ctx, method, route)
	defer span.End()
	span.SetAttributes(attribute.String("request_id", requestID))

	start := time.Now()
	status, err := c.do(ctx, method, path, query, body, out, requestID)
	elapsed := time.Since(start)

	c.metrics.RecordRequest(method, route, status, elapsed)

	if err != nil {
		telemetry.RecordError(span, err)
		c.logger.WarnContext(ctx, "request failed",
			"method", method,
			"path", path,
			"status", status,
			"request_id", requestID,
			"duration_ms", elapsed.Milliseconds(),
			"error", err.Error(),
		)
		return err
	}

	telemetry.RecordSuccess(span, attribute.Int("http.status_code", status))
	c.logger.DebugContext(ctx, "request completed",
		"method", method,
		"path", path,
		"status", status,
		"request_id", requestID,
		"duration_ms", elapsed.Milliseconds(),
	)
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any, requestID string) (int, error) {
	newErr := func(status int, kind Kind, msg string, cause error) *APIError {
		return &APIError{
			Status:    status,
			Kind:      kind,
			Message:   msg,
			Method:    method,
			Path:      path,
			RequestID: requestID,
			Cause:     cause,
		}
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reqBody io.Reader
	contentType := ""
	switch b := body.(type) {
	case nil:
	case url.Values:
		reqBody = strings.NewReader(b.Encode())
		contentType = "application/x-www-form-urlencoded"
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return 0, newErr(0, KindClient, "The request could not be encoded.", fmt.Errorf("failed to marshal request body: %w", err))
		}
		reqBody = bytes.NewReader(data)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return 0, newErr(0, KindClient, "The request could not be built.", fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderRequestID, requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.tokens != nil {
		token, err := c.tokens.Token()
		if err != nil {
			c.logger.WarnContext(ctx, "token unavailable, sending request without credentials", "error", err.Error())
		} else if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return 0, newErr(0, KindTimeout, timeoutMessage, err)
		}
		return 0, newErr(0, KindNetwork, networkMessage, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return resp.StatusCode, newErr(resp.StatusCode, KindTimeout, timeoutMessage, err)
		}
		return resp.StatusCode, newErr(resp.StatusCode, KindNetwork, networkMessage, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, code := extractMessage(data)
		if msg == "" {
			msg = genericMessage(resp.StatusCode)
		}
		apiErr := newErr(resp.StatusCode, KindForStatus(resp.StatusCode), msg, nil)
		apiErr.Code = code

		if apiErr.Kind == KindUnauthorized {
			c.metrics.RecordUnauthorized()
			c.logger.API("unauthorized response, ending session", "path", path, "request_id", requestID)
			if c.onUnauthorized != nil {
				c.onUnauthorized(ctx, apiErr)
			}
		}
		return resp.StatusCode, apiErr
	}

	if out != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, newErr(resp.StatusCode, KindDecode, decodeMessage, fmt.Errorf("failed to decode response: %w", err))
		}
	}

	return resp.StatusCode, nil
}

func isTimeout(err error) bool {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return stderrors.As(err, &netErr) && netErr.Timeout()
}

var idSegment = regexp.MustCompile(`/[0-9]+(/|$)`)

// routeOf collapses numeric path segments so metric labels stay bounded.
func routeOf(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	for idSegment.MatchString(path) {
		path = idSegment.ReplaceAllString(path, "/:id$1")
	}
	return path
}
