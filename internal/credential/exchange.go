package credential

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/backlog/internal/domain"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// ClientCredentials exchanges a client id and secret for a token using the
// OAuth2 client-credentials grant (Twitch issues IGDB tokens this way).
type ClientCredentials struct {
	config     clientcredentials.Config
	httpClient *http.Client
	now        func() time.Time
}

// NewClientCredentials creates an exchanger posting form-encoded credentials to tokenURL
func NewClientCredentials(clientID, clientSecret, tokenURL string, httpClient *http.Client) *ClientCredentials {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &ClientCredentials{
		config: clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			// Twitch expects client_id/client_secret in the form body, not basic auth
			AuthStyle: oauth2.AuthStyleInParams,
		},
		httpClient: httpClient,
		now:        time.Now,
	}
}

// Exchange performs one client-credentials grant
func (c *ClientCredentials) Exchange(ctx context.Context) (Grant, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	tok, err := c.config.Token(ctx)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			return Grant{}, fmt.Errorf("token endpoint rejected client credentials: status %d", retrieveErr.Response.StatusCode)
		}
		return Grant{}, fmt.Errorf("token request failed: %w", err)
	}

	grant := Grant{AccessToken: tok.AccessToken}
	if !tok.Expiry.IsZero() {
		grant.TTL = tok.Expiry.Sub(c.now())
	}
	return grant, nil
}

// ErrNoStaticToken indicates a static source was built without a token
var ErrNoStaticToken = fmt.Errorf("%w: no static token configured", domain.ErrCredentialUnavailable)

// Static serves a fixed bearer token that never expires, for providers that
// issue long-lived read tokens (TMDB). Refreshing returns the same token, so
// a second 401 on the retry is terminal.
type Static struct {
	token string
}

// NewStatic creates a static credential source
func NewStatic(token string) *Static {
	return &Static{token: token}
}

// Token returns the configured token
func (s *Static) Token(ctx context.Context) (string, error) {
	if s.token == "" {
		return "", ErrNoStaticToken
	}
	return s.token, nil
}

// InvalidateAndRefresh returns the configured token again
func (s *Static) InvalidateAndRefresh(ctx context.Context, rejected string) (string, error) {
	return s.Token(ctx)
}
