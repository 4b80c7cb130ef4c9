package tmdb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestMapFilmRequiresTitle(t *testing.T) {
	_, ok := MapFilm(Movie{ID: 1})
	assert.False(t, ok)
}

func TestMapFilmListRecord(t *testing.T) {
	f, ok := MapFilm(Movie{
		ID:          27205,
		Title:       ptr("Inception"),
		Overview:    ptr("Dreams within dreams."),
		ReleaseDate: ptr("2010-07-15"),
		VoteAverage: ptr(8.4),
		VoteCount:   ptr(35000),
		PosterPath:  ptr("/inception.jpg"),
	})
	require.True(t, ok)

	assert.EqualValues(t, 27205, f.ExternalID)
	assert.Equal(t, "Inception", f.Title)
	assert.Equal(t, "Dreams within dreams.", f.Overview)
	require.NotNil(t, f.ReleaseDate)
	assert.Equal(t, time.Date(2010, 7, 15, 0, 0, 0, 0, time.UTC), *f.ReleaseDate)
	require.NotNil(t, f.PosterURL)
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/inception.jpg", *f.PosterURL)
	assert.Nil(t, f.Genres)
	assert.Nil(t, f.Cast)
	assert.Nil(t, f.Director)
}

func TestMapFilmMissingOptionalFields(t *testing.T) {
	f, ok := MapFilm(Movie{ID: 5, Title: ptr("Untitled"), ReleaseDate: ptr(""), PosterPath: nil})
	require.True(t, ok)
	assert.Nil(t, f.ReleaseDate)
	assert.Nil(t, f.PosterURL)
	assert.Nil(t, f.Rating)
}

func TestMapFilmDetails(t *testing.T) {
	f, ok := MapFilm(Movie{
		ID:     603,
		Title:  ptr("The Matrix"),
		Genres: []Genre{{Name: "Action"}, {Name: "Science Fiction"}},
		Credits: &Credits{
			Cast: []CastMember{
				{Name: "Carrie-Anne Moss", Order: 2},
				{Name: "Keanu Reeves", Order: 0},
				{Name: "Laurence Fishburne", Order: 1},
			},
			Crew: []CrewMember{
				{Name: "Lana Wachowski", Job: "Director"},
				{Name: "Joel Silver", Job: "Producer"},
				{Name: "Lilly Wachowski", Job: "Director"},
			},
		},
	})
	require.True(t, ok)
	assert.Equal(t, "Action, Science Fiction", *f.Genres)
	assert.Equal(t, "Keanu Reeves, Laurence Fishburne, Carrie-Anne Moss", *f.Cast)
	assert.Equal(t, "Lana Wachowski, Lilly Wachowski", *f.Director)
}
