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

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/gestion-erp/gestion-go/session"
)

const (
	defaultTimeout  = 30 * time.Second
	contentTypeJSON = "application/json"
)

// Client mediates every call to the Gestion backend: it attaches bearer
// credentials from the session store, recovers from access-token expiry with a
// single silent refresh, and unwraps the standard {success, data} envelope.
type Client struct {
	baseURL          string
	httpClient       *http.Client
	store            session.Store
	logger           zerolog.Logger
	onSessionExpired func()
	refreshGroup     singleflight.Group
}

// Option modifies a Client at construction time.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client (30s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the structured logger for request tracing.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithSessionExpiredHook registers fn to run when a request fails with an
// unrecoverable 401, after the stored tokens have been cleared. The CLI uses
// it to point the user back at login.
func WithSessionExpiredHook(fn func()) Option {
	return func(c *Client) {
		c.onSessionExpired = fn
	}
}

// New creates a Client for the backend at baseURL, persisting tokens through
// the given store.
func New(baseURL string, store session.Store, options ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("[api.New] baseURL is required")
	}
	if store == nil {
		return nil, errors.New("[api.New] session store is required")
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		store:      store,
		logger:     zerolog.Nop(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

type callOptions struct {
	jsonBody    any
	rawBody     []byte
	contentType string
	query       url.Values
}

// CallOption modifies a single request.
type CallOption func(*callOptions)

// WithBody sets a JSON-encoded request body.
func WithBody(v any) CallOption {
	return func(o *callOptions) {
		o.jsonBody = v
	}
}

// WithRawBody sets a pre-encoded body and its content type, e.g. a multipart
// upload. The JSON content-type header is not applied.
func WithRawBody(data []byte, contentType string) CallOption {
	return func(o *callOptions) {
		o.rawBody = data
		o.contentType = contentType
	}
}

// WithQuery appends query parameters to the request URL.
func WithQuery(q url.Values) CallOption {
	return func(o *callOptions) {
		o.query = q
	}
}

// Request issues an authenticated call and decodes the unwrapped payload into
// T. An empty body, or an envelope carrying null data, yields T's zero value.
func Request[T any](ctx context.Context, c *Client, method, path string, options ...CallOption) (T, error) {
	var out T
	payload, err := c.Call(ctx, method, path, options...)
	if err != nil {
		return out, err
	}
	if len(payload) == 0 || string(payload) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(payload, &out); err != nil {
		return out, fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return out, nil
}

// Call issues an authenticated request and returns the unwrapped raw payload.
// A 401 triggers at most one silent refresh followed by a single retry; a
// second 401 clears the stored tokens and surfaces SessionExpiredError.
func (c *Client) Call(ctx context.Context, method, path string, options ...CallOption) (json.RawMessage, error) {
	opts := &callOptions{}
	for _, o := range options {
		o(opts)
	}

	body, contentType, err := encodeBody(opts)
	if err != nil {
		return nil, err
	}

	retried := false
	for {
		status, respBody, err := c.send(ctx, method, path, body, contentType, opts.query, true)
		if err != nil {
			return nil, err
		}
		if status == http.StatusUnauthorized {
			if !retried && c.refreshSession(ctx) {
				retried = true
				continue
			}
			c.expireSession()
			return nil, &SessionExpiredError{}
		}
		if status < http.StatusOK || status >= http.StatusMultipleChoices {
			return nil, normalizeError(status, respBody)
		}
		return unwrapBody(respBody), nil
	}
}

func encodeBody(opts *callOptions) ([]byte, string, error) {
	if opts.rawBody != nil {
		return opts.rawBody, opts.contentType, nil
	}
	if opts.jsonBody != nil {
		data, err := json.Marshal(opts.jsonBody)
		if err != nil {
			return nil, "", fmt.Errorf("encode request body: %w", err)
		}
		return data, contentTypeJSON, nil
	}
	return nil, "", nil
}

// send performs one HTTP round trip. Transport failures come back as
// NetworkError; any received response, whatever its status, is returned to the
// caller for interpretation.
func (c *Client) send(ctx context.Context, method, path string, body []byte, contentType string, query url.Values, withAuth bool) (int, []byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	if withAuth {
		if creds, err := c.store.Load(); err == nil && creds.AccessToken != "" {
			req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().
			Str("method", method).
			Str("path", path).
			Str("request_id", requestID).
			Err(err).
			Msg("request failed")
		return 0, nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, &NetworkError{Err: err}
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("request")

	return resp.StatusCode, respBody, nil
}

func (c *Client) clearSession() {
	if err := c.store.Clear(); err != nil {
		c.logger.Debug().Err(err).Msg("clear credentials failed")
	}
}

func (c *Client) expireSession() {
	c.clearSession()
	if c.onSessionExpired != nil {
		c.onSessionExpired()
	}
}
