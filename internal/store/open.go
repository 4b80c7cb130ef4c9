package store

import (
	"fmt"
	"io"

	"github.com/mmcdole/backlog/internal/adapter"
	"github.com/mmcdole/backlog/internal/domain"
)

// Catalogs holds the per-kind stores backed by one database file
type Catalogs struct {
	Games domain.CatalogStore[*domain.Game]
	Films domain.CatalogStore[*domain.Film]

	closer io.Closer
}

// Close releases the underlying database
func (c *Catalogs) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

// OpenCatalogs opens the configured backend and prepares both kinds
func OpenCatalogs(cfg adapter.StoreConfig) (*Catalogs, error) {
	switch cfg.Driver {
	case adapter.StoreDriverBolt, "":
		db, err := Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		games, err := NewBoltStore[domain.Game](db, domain.KindGame)
		if err != nil {
			db.Close()
			return nil, err
		}
		films, err := NewBoltStore[domain.Film](db, domain.KindFilm)
		if err != nil {
			db.Close()
			return nil, err
		}
		return &Catalogs{Games: games, Films: films, closer: db}, nil

	case adapter.StoreDriverSQLite:
		db, err := OpenSQLite(cfg.Path)
		if err != nil {
			return nil, err
		}
		games, err := NewSQLStore[domain.Game](db, domain.KindGame)
		if err != nil {
			db.Close()
			return nil, err
		}
		films, err := NewSQLStore[domain.Film](db, domain.KindFilm)
		if err != nil {
			db.Close()
			return nil, err
		}
		return &Catalogs{Games: games, Films: films, closer: db}, nil

	default:
		return nil, fmt.Errorf("unknown store driver: %q", cfg.Driver)
	}
}
