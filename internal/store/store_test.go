package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mmcdole/backlog/internal/adapter"
	"github.com/mmcdole/backlog/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

// eachBackend runs fn against a fresh bolt store and a fresh SQLite store
func eachBackend(t *testing.T, fn func(t *testing.T, s domain.CatalogStore[*domain.Game])) {
	t.Run("bolt", func(t *testing.T) {
		db, err := Open(t.TempDir())
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })

		s, err := NewBoltStore[domain.Game](db, domain.KindGame)
		require.NoError(t, err)
		fn(t, s)
	})

	t.Run("sqlite", func(t *testing.T) {
		db, err := OpenSQLite(t.TempDir())
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })

		s, err := NewSQLStore[domain.Game](db, domain.KindGame)
		require.NoError(t, err)
		fn(t, s)
	})
}

func game(ext int64, name string, rating float64) *domain.Game {
	return &domain.Game{ExternalID: ext, Name: name, Rating: ptr(rating)}
}

func TestUpsertAssignsLocalID(t *testing.T) {
	eachBackend(t, func(t *testing.T, s domain.CatalogStore[*domain.Game]) {
		ctx := context.Background()

		g := game(100, "Hades", 93)
		id, err := s.Upsert(ctx, g)
		require.NoError(t, err)
		assert.NotZero(t, id)
		assert.Equal(t, id, g.LocalID)
		assert.False(t, g.CreatedAt.IsZero())

		got, ok, err := s.GetByLocalID(ctx, id)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "Hades", got.Name)
		assert.Equal(t, int64(100), got.ExternalID)
	})
}

func TestUpsertIsIdempotent(t *testing.T) {
	eachBackend(t, func(t *testing.T, s domain.CatalogStore[*domain.Game]) {
		ctx := context.Background()

		first, err := s.Upsert(ctx, game(100, "Hades", 93))
		require.NoError(t, err)
		second, err := s.Upsert(ctx, game(100, "Hades", 93))
		require.NoError(t, err)

		assert.Equal(t, first, second)
		all, err := s.ListAllOrderedByRank(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})
}

func TestUpsertOverwritesByExternalID(t *testing.T) {
	eachBackend(t, func(t *testing.T, s domain.CatalogStore[*domain.Game]) {
		ctx := context.Background()

		for i := int64(1); i <= 6; i++ {
			_, err := s.Upsert(ctx, game(i, fmt.Sprintf("Filler %d", i), 10))
			require.NoError(t, err)
		}

		id, err := s.Upsert(ctx, &domain.Game{ExternalID: 42, Name: "Old"})
		require.NoError(t, err)
		require.Equal(t, int64(7), id)

		original, ok, err := s.GetByExternalID(ctx, 42)
		require.NoError(t, err)
		require.True(t, ok)

		id, err = s.Upsert(ctx, &domain.Game{ExternalID: 42, Name: "New", Summary: "updated"})
		require.NoError(t, err)
		assert.Equal(t, int64(7), id)

		got, ok, err := s.GetByLocalID(ctx, 7)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "New", got.Name)
		assert.Equal(t, "updated", got.Summary)
		assert.True(t, original.CreatedAt.Equal(got.CreatedAt), "created_at must survive an update")
	})
}

func TestUpsertConcurrentSameExternalID(t *testing.T) {
	eachBackend(t, func(t *testing.T, s domain.CatalogStore[*domain.Game]) {
		ctx := context.Background()

		var wg sync.WaitGroup
		ids := make([]int64, 10)
		for i := range ids {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				id, err := s.Upsert(ctx, game(55, "Celeste", 90))
				assert.NoError(t, err)
				ids[i] = id
			}(i)
		}
		wg.Wait()

		for _, id := range ids {
			assert.Equal(t, ids[0], id)
		}
		all, err := s.ListAllOrderedByRank(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})
}

func TestLookupsMiss(t *testing.T) {
	eachBackend(t, func(t *testing.T, s domain.CatalogStore[*domain.Game]) {
		ctx := context.Background()

		_, ok, err := s.GetByLocalID(ctx, 99)
		require.NoError(t, err)
		assert.False(t, ok)

		_, ok, err = s.GetByExternalID(ctx, 99)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestSearchIsCaseInsensitiveSubstring(t *testing.T) {
	eachBackend(t, func(t *testing.T, s domain.CatalogStore[*domain.Game]) {
		ctx := context.Background()

		for i, name := range []string{"The Legend of Zelda", "Zelda II", "Metroid", "Ocarina (Zelda)"} {
			_, err := s.Upsert(ctx, game(int64(i+1), name, 50))
			require.NoError(t, err)
		}

		got, err := s.Search(ctx, "zELDA")
		require.NoError(t, err)

		var names []string
		for _, g := range got {
			names = append(names, g.Name)
		}
		assert.ElementsMatch(t, []string{"The Legend of Zelda", "Zelda II", "Ocarina (Zelda)"}, names)
		assert.Equal(t, "Zelda II", names[0])

		none, err := s.Search(ctx, "halo")
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}

func TestListAllOrderedByRank(t *testing.T) {
	eachBackend(t, func(t *testing.T, s domain.CatalogStore[*domain.Game]) {
		ctx := context.Background()

		_, err := s.Upsert(ctx, game(1, "Low", 40))
		require.NoError(t, err)
		_, err = s.Upsert(ctx, &domain.Game{ExternalID: 2, Name: "Unrated"})
		require.NoError(t, err)
		_, err = s.Upsert(ctx, game(3, "High", 95))
		require.NoError(t, err)
		_, err = s.Upsert(ctx, game(4, "Also High", 95))
		require.NoError(t, err)

		all, err := s.ListAllOrderedByRank(ctx)
		require.NoError(t, err)
		require.Len(t, all, 4)
		assert.Equal(t, "High", all[0].Name)
		assert.Equal(t, "Also High", all[1].Name)
		assert.Equal(t, "Low", all[2].Name)
		assert.Equal(t, "Unrated", all[3].Name)
	})
}

func TestDeleteAllNeverReusesLocalIDs(t *testing.T) {
	eachBackend(t, func(t *testing.T, s domain.CatalogStore[*domain.Game]) {
		ctx := context.Background()

		first, err := s.Upsert(ctx, game(1, "Hades", 93))
		require.NoError(t, err)

		require.NoError(t, s.DeleteAll(ctx))

		all, err := s.ListAllOrderedByRank(ctx)
		require.NoError(t, err)
		assert.Empty(t, all)

		_, ok, err := s.GetByLocalID(ctx, first)
		require.NoError(t, err)
		assert.False(t, ok)

		again, err := s.Upsert(ctx, game(1, "Hades", 93))
		require.NoError(t, err)
		assert.Greater(t, again, first)
	})
}

func TestDeleteAllRacingReadsLeavesNoRows(t *testing.T) {
	eachBackend(t, func(t *testing.T, s domain.CatalogStore[*domain.Game]) {
		ctx := context.Background()

		for i := 0; i < 200; i++ {
			id, err := s.Upsert(ctx, game(int64(i+1), "Hades", 93))
			require.NoError(t, err)

			var wg sync.WaitGroup
			for r := 0; r < 4; r++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, _, _ = s.GetByLocalID(ctx, id)
				}()
			}
			require.NoError(t, s.DeleteAll(ctx))
			wg.Wait()

			_, ok, err := s.GetByLocalID(ctx, id)
			require.NoError(t, err)
			require.False(t, ok, "row %d served after DeleteAll (iteration %d)", id, i)
		}
	})
}

func TestReadsRacingUpsertSeeLatestRow(t *testing.T) {
	eachBackend(t, func(t *testing.T, s domain.CatalogStore[*domain.Game]) {
		ctx := context.Background()

		id, err := s.Upsert(ctx, game(7, "Version 0", 50))
		require.NoError(t, err)

		for i := 1; i <= 200; i++ {
			name := fmt.Sprintf("Version %d", i)

			var wg sync.WaitGroup
			for r := 0; r < 4; r++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, _, _ = s.GetByLocalID(ctx, id)
				}()
			}
			_, err := s.Upsert(ctx, game(7, name, 50))
			require.NoError(t, err)
			wg.Wait()

			got, ok, err := s.GetByLocalID(ctx, id)
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, name, got.Name)
		}
	})
}

func TestBoltSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	db, err := Open(dir)
	require.NoError(t, err)
	s, err := NewBoltStore[domain.Film](db, domain.KindFilm)
	require.NoError(t, err)

	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	id, err := s.Upsert(ctx, &domain.Film{ExternalID: 603, Title: "The Matrix", CreatedAt: created})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(dir)
	require.NoError(t, err)
	defer db.Close()
	s, err = NewBoltStore[domain.Film](db, domain.KindFilm)
	require.NoError(t, err)

	got, ok, err := s.GetByLocalID(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "The Matrix", got.Title)
	assert.True(t, created.Equal(got.CreatedAt))
}

func TestKindsAreIsolated(t *testing.T) {
	db, err := Open(t.TempDir())
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	games, err := NewBoltStore[domain.Game](db, domain.KindGame)
	require.NoError(t, err)
	films, err := NewBoltStore[domain.Film](db, domain.KindFilm)
	require.NoError(t, err)

	_, err = games.Upsert(ctx, game(7, "Hades", 93))
	require.NoError(t, err)

	_, ok, err := films.GetByExternalID(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, films.DeleteAll(ctx))
	_, ok, err = games.GetByExternalID(ctx, 7)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestOpenCatalogs(t *testing.T) {
	for _, driver := range []adapter.StoreDriver{adapter.StoreDriverBolt, adapter.StoreDriverSQLite} {
		t.Run(string(driver), func(t *testing.T) {
			c, err := OpenCatalogs(adapter.StoreConfig{Driver: driver, Path: t.TempDir()})
			require.NoError(t, err)
			defer c.Close()

			assert.NotNil(t, c.Games)
			assert.NotNil(t, c.Films)
		})
	}

	_, err := OpenCatalogs(adapter.StoreConfig{Driver: "postgres", Path: t.TempDir()})
	assert.Error(t, err)
}
