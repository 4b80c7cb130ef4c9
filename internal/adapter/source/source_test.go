package source

import (
	"testing"

	"github.com/mmcdole/backlog/internal/adapter"
	"github.com/mmcdole/backlog/internal/credential"
	"github.com/mmcdole/backlog/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGameSourceRequiresCredentials(t *testing.T) {
	cfg := adapter.DefaultConfig()

	_, err := NewGameSource(cfg, NewHTTPClient(cfg, nil), nil)
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}

func TestNewGameSource(t *testing.T) {
	cfg := adapter.DefaultConfig()
	cfg.IGDB.ClientID = "id"
	cfg.IGDB.ClientSecret = "secret"

	src, err := NewGameSource(cfg, NewHTTPClient(cfg, nil), nil)
	require.NoError(t, err)
	assert.NotNil(t, src.Client)
	assert.IsType(t, &credential.Store{}, src.Credentials)
}

func TestNewGameSourceRequiresTokenURL(t *testing.T) {
	cfg := adapter.DefaultConfig()
	cfg.IGDB.ClientID = "id"
	cfg.IGDB.ClientSecret = "secret"
	cfg.IGDB.TokenURL = ""

	_, err := NewGameSource(cfg, NewHTTPClient(cfg, nil), nil)
	assert.Error(t, err)
}

func TestNewFilmSource(t *testing.T) {
	cfg := adapter.DefaultConfig()

	_, err := NewFilmSource(cfg, NewHTTPClient(cfg, nil), nil)
	assert.ErrorIs(t, err, domain.ErrNotConfigured)

	cfg.TMDB.ReadToken = "read-token"
	src, err := NewFilmSource(cfg, NewHTTPClient(cfg, nil), nil)
	require.NoError(t, err)
	assert.IsType(t, &credential.Static{}, src.Credentials)
}
