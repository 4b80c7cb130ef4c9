package source

import (
	"fmt"
	"log/slog"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/mmcdole/backlog/internal/adapter"
	"github.com/mmcdole/backlog/internal/adapter/source/igdb"
	"github.com/mmcdole/backlog/internal/adapter/source/tmdb"
	"github.com/mmcdole/backlog/internal/domain"
)

// GameSource is the IGDB client paired with the credentials it needs
type GameSource struct {
	Client      domain.CatalogClient[igdb.Game]
	Credentials domain.Credentials
}

// FilmSource is the TMDB client paired with the credentials it needs
type FilmSource struct {
	Client      domain.CatalogClient[tmdb.Movie]
	Credentials domain.Credentials
}

// NewHTTPClient creates the transport shared by both providers
func NewHTTPClient(cfg *adapter.Config, logger *slog.Logger) *retryablehttp.Client {
	return adapter.NewHTTPClient(cfg.HTTP.Timeout, cfg.HTTP.RetryMax, logger)
}

// NewGameSource creates the IGDB source from the application config
func NewGameSource(cfg *adapter.Config, httpClient *retryablehttp.Client, logger *slog.Logger) (*GameSource, error) {
	if cfg == nil {
		return nil, fmt.Errorf("source config is nil")
	}
	if !cfg.IsConfigured() {
		return nil, fmt.Errorf("%w: igdb client_id and client_secret are required", domain.ErrNotConfigured)
	}
	if cfg.IGDB.BaseURL == "" {
		return nil, fmt.Errorf("igdb base URL is required")
	}

	creds, err := NewGameCredentials(cfg, httpClient, logger)
	if err != nil {
		return nil, err
	}

	return &GameSource{
		Client:      igdb.NewClient(cfg.IGDB.BaseURL, cfg.IGDB.ClientID, httpClient, logger),
		Credentials: creds,
	}, nil
}

// NewFilmSource creates the TMDB source from the application config.
// It returns domain.ErrNotConfigured when no read token is set.
func NewFilmSource(cfg *adapter.Config, httpClient *retryablehttp.Client, logger *slog.Logger) (*FilmSource, error) {
	if cfg == nil {
		return nil, fmt.Errorf("source config is nil")
	}
	if !cfg.HasFilms() {
		return nil, fmt.Errorf("%w: tmdb read_token is required", domain.ErrNotConfigured)
	}
	if cfg.TMDB.BaseURL == "" {
		return nil, fmt.Errorf("tmdb base URL is required")
	}

	return &FilmSource{
		Client:      tmdb.NewClient(cfg.TMDB.BaseURL, httpClient, logger),
		Credentials: NewFilmCredentials(cfg),
	}, nil
}
