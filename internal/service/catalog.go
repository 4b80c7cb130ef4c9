package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mmcdole/backlog/internal/adapter"
	"github.com/mmcdole/backlog/internal/adapter/source"
	"github.com/mmcdole/backlog/internal/adapter/source/igdb"
	"github.com/mmcdole/backlog/internal/adapter/source/tmdb"
	"github.com/mmcdole/backlog/internal/catalog"
	"github.com/mmcdole/backlog/internal/domain"
	"github.com/mmcdole/backlog/internal/store"
)

// GameRepository syncs the IGDB game catalog
type GameRepository = catalog.Repository[igdb.Game, *domain.Game]

// FilmRepository syncs the TMDB film catalog
type FilmRepository = catalog.Repository[tmdb.Movie, *domain.Film]

// CatalogService exposes the game and film repositories over one local store
type CatalogService struct {
	Games *GameRepository
	Films *FilmRepository // nil when no TMDB token is configured

	stores *store.Catalogs
	logger *slog.Logger
}

// NewCatalogService wires credentials, clients and stores from the config.
// The game catalog is required; the film catalog is optional.
func NewCatalogService(cfg *adapter.Config, logger *slog.Logger) (*CatalogService, error) {
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := source.NewHTTPClient(cfg, logger)

	games, err := source.NewGameSource(cfg, httpClient, logger)
	if err != nil {
		return nil, err
	}

	films, err := source.NewFilmSource(cfg, httpClient, logger)
	if errors.Is(err, domain.ErrNotConfigured) {
		logger.Info("film catalog disabled", "reason", err)
		films = nil
	} else if err != nil {
		return nil, err
	}

	stores, err := store.OpenCatalogs(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	return NewCatalogServiceFrom(games, films, stores, logger), nil
}

// NewCatalogServiceFrom builds the service from already constructed parts.
// A nil films source disables the film catalog.
func NewCatalogServiceFrom(games *source.GameSource, films *source.FilmSource, stores *store.Catalogs, logger *slog.Logger) *CatalogService {
	if logger == nil {
		logger = slog.Default()
	}

	svc := &CatalogService{
		Games:  catalog.NewRepository[igdb.Game, *domain.Game](domain.KindGame, games.Client, games.Credentials, stores.Games, igdb.MapGame, logger),
		stores: stores,
		logger: logger,
	}
	if films != nil {
		svc.Films = catalog.NewRepository[tmdb.Movie, *domain.Film](domain.KindFilm, films.Client, films.Credentials, stores.Films, tmdb.MapFilm, logger)
	}
	return svc
}

// FilmsEnabled reports whether the film catalog is available
func (s *CatalogService) FilmsEnabled() bool {
	return s.Films != nil
}

// WipeAll deletes every cached game and film
func (s *CatalogService) WipeAll(ctx context.Context) error {
	if err := s.Games.Wipe(ctx); err != nil {
		return err
	}
	// Film rows may exist from an earlier run with a token configured
	if err := s.stores.Films.DeleteAll(ctx); err != nil {
		return err
	}
	return nil
}

// Close releases the local store
func (s *CatalogService) Close() error {
	return s.stores.Close()
}
