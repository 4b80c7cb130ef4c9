package source

import (
	"fmt"
	"log/slog"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/mmcdole/backlog/internal/adapter"
	"github.com/mmcdole/backlog/internal/credential"
	"github.com/mmcdole/backlog/internal/domain"
)

// NewGameCredentials creates the IGDB credential store. Tokens come from the
// Twitch client-credentials grant and are cached until expiry.
func NewGameCredentials(cfg *adapter.Config, httpClient *retryablehttp.Client, logger *slog.Logger) (domain.Credentials, error) {
	if cfg.IGDB.TokenURL == "" {
		return nil, fmt.Errorf("igdb token URL is required")
	}

	exchanger := credential.NewClientCredentials(
		cfg.IGDB.ClientID,
		cfg.IGDB.ClientSecret,
		cfg.IGDB.TokenURL,
		httpClient.StandardClient(),
	)
	return credential.NewStore(exchanger, cfg.IGDB.FallbackTTL, logger), nil
}

// NewFilmCredentials creates the TMDB credential source: a static read token
func NewFilmCredentials(cfg *adapter.Config) domain.Credentials {
	return credential.NewStatic(cfg.TMDB.ReadToken)
}
