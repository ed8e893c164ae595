package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pkg/errors"

	"github.com/gestion-erp/gestion-go/session"
)

// Auth endpoint paths. The exact values are a deployment contract with the
// backend.
const (
	routeLogin   = "/api/auth/login/"
	routeRefresh = "/api/auth/refresh/"
	routeLogout  = "/api/auth/logout/"
	routeCheck   = "/api/auth/check/"
)

// LoginResult carries the payloads returned by a successful login. User,
// Employee and Company are opaque to this layer; callers render them.
type LoginResult struct {
	User         json.RawMessage
	Employee     json.RawMessage
	Company      json.RawMessage
	AccessToken  string
	RefreshToken string
}

// Session is the authenticated state derived from the check endpoint. It is
// rebuilt on every call and never cached.
type Session struct {
	Authenticated bool
	User          json.RawMessage
	Employee      json.RawMessage
	Company       json.RawMessage
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Access   string          `json:"access"`
	Refresh  string          `json:"refresh"`
	User     json.RawMessage `json:"user"`
	Employee json.RawMessage `json:"empleado"`
	Company  json.RawMessage `json:"empresa"`
}

type checkResponse struct {
	User     json.RawMessage `json:"user"`
	Employee json.RawMessage `json:"empleado"`
	Company  json.RawMessage `json:"empresa"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type refreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Login authenticates against the backend and persists the returned token
// pair. Rejected credentials come back as an APIError carrying the server's
// title and message when present; nothing is persisted on failure.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if username == "" || password == "" {
		return nil, errors.New("[Client.Login] username and password are required")
	}

	body, err := json.Marshal(loginRequest{Username: username, Password: password})
	if err != nil {
		return nil, fmt.Errorf("encode login request: %w", err)
	}

	status, respBody, err := c.send(ctx, http.MethodPost, routeLogin, body, contentTypeJSON, nil, false)
	if err != nil {
		return nil, err
	}
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return nil, normalizeError(status, respBody)
	}

	var lr loginResponse
	if err := json.Unmarshal(unwrapBody(respBody), &lr); err != nil {
		return nil, fmt.Errorf("decode login response: %w", err)
	}
	if lr.Access == "" || lr.Refresh == "" {
		return nil, fmt.Errorf("login response missing tokens")
	}

	if err := c.store.Save(&session.Credentials{AccessToken: lr.Access, RefreshToken: lr.Refresh}); err != nil {
		return nil, fmt.Errorf("persist credentials: %w", err)
	}

	c.logger.Debug().Str("username", username).Msg("logged in")
	return &LoginResult{
		User:         lr.User,
		Employee:     lr.Employee,
		Company:      lr.Company,
		AccessToken:  lr.Access,
		RefreshToken: lr.Refresh,
	}, nil
}

// Logout tells the server to drop the session, then clears the stored tokens.
// The server call is best effort: an unreachable backend must not keep a
// client signed in.
func (c *Client) Logout(ctx context.Context) error {
	status, _, err := c.send(ctx, http.MethodPost, routeLogout, nil, "", nil, true)
	if err != nil {
		c.logger.Debug().Err(err).Msg("logout notification failed")
	} else if status < http.StatusOK || status >= http.StatusMultipleChoices {
		c.logger.Debug().Int("status", status).Msg("logout notification rejected")
	}

	if err := c.store.Clear(); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}

// CheckAuth reports whether the stored credentials are still accepted by the
// backend. Auth rejection is a normal result, not an error: a missing token
// returns Authenticated=false without a network call, and a 401 that survives
// the single refresh attempt returns Authenticated=false as well. Only
// transport faults and unexpected server errors surface as errors.
func (c *Client) CheckAuth(ctx context.Context) (*Session, error) {
	creds, err := c.store.Load()
	if err != nil || creds.AccessToken == "" {
		return &Session{}, nil
	}

	// Bounded to one refresh, as an explicit loop rather than recursion.
	refreshed := false
	for {
		status, body, err := c.send(ctx, http.MethodGet, routeCheck, nil, "", nil, true)
		if err != nil {
			return nil, err
		}
		switch {
		case status == http.StatusUnauthorized:
			if !refreshed && c.refreshSession(ctx) {
				refreshed = true
				continue
			}
			return &Session{}, nil
		case status < http.StatusOK || status >= http.StatusMultipleChoices:
			return nil, normalizeError(status, body)
		}

		var cr checkResponse
		if err := json.Unmarshal(unwrapBody(body), &cr); err != nil {
			return nil, fmt.Errorf("decode check response: %w", err)
		}
		return &Session{
			Authenticated: true,
			User:          cr.User,
			Employee:      cr.Employee,
			Company:       cr.Company,
		}, nil
	}
}

// refreshSession exchanges the stored refresh token for a new access token.
// Concurrent callers share a single in-flight exchange.
func (c *Client) refreshSession(ctx context.Context) bool {
	v, _, _ := c.refreshGroup.Do("refresh", func() (any, error) {
		return c.doRefresh(ctx), nil
	})
	ok, _ := v.(bool)
	return ok
}

// doRefresh is the leaf of the retry chain: any failure clears both stored
// tokens and returns false, never another refresh. With no stored refresh
// token it returns false without touching the network or the store.
func (c *Client) doRefresh(ctx context.Context) bool {
	creds, err := c.store.Load()
	if err != nil || creds.RefreshToken == "" {
		return false
	}

	body, err := json.Marshal(refreshRequest{Refresh: creds.RefreshToken})
	if err != nil {
		return false
	}

	status, respBody, err := c.send(ctx, http.MethodPost, routeRefresh, body, contentTypeJSON, nil, false)
	if err != nil || status < http.StatusOK || status >= http.StatusMultipleChoices {
		c.clearSession()
		return false
	}

	var rr refreshResponse
	if err := json.Unmarshal(unwrapBody(respBody), &rr); err != nil || rr.Access == "" {
		c.clearSession()
		return false
	}

	next := &session.Credentials{AccessToken: rr.Access, RefreshToken: creds.RefreshToken}
	if rr.Refresh != "" {
		// Server rotated the refresh token.
		next.RefreshToken = rr.Refresh
	}
	if err := c.store.Save(next); err != nil {
		return false
	}

	c.logger.Debug().Msg("access token refreshed")
	return true
}
