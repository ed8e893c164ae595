package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// ExpiresAt reports the expiry claim of the access token without verifying the
// signature; verification is the server's job, the client only needs the
// timestamp for display and refresh planning. Returns the zero time when the
// token is absent, malformed, or carries no exp claim.
func (c *Credentials) ExpiresAt() time.Time {
	if c == nil || c.AccessToken == "" {
		return time.Time{}
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(c.AccessToken, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// TokenSource adapts a Store to oauth2.TokenSource so the stored session can
// feed libraries that expect oauth2 tokens. It never refreshes; silent refresh
// stays with the API client.
func TokenSource(store Store) oauth2.TokenSource {
	return storeTokenSource{store: store}
}

type storeTokenSource struct {
	store Store
}

func (ts storeTokenSource) Token() (*oauth2.Token, error) {
	creds, err := ts.store.Load()
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       creds.ExpiresAt(),
	}, nil
}
