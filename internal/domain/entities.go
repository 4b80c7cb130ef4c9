package domain

import (
	"fmt"
	"time"
)

// Kind distinguishes the catalogs kept in the local store
type Kind string

const (
	KindGame Kind = "games"
	KindFilm Kind = "films"
)

// Entity is the contract the cache layer needs from a catalog row.
// Implementations are pointer types so the store can assign the local ID.
type Entity interface {
	// GetLocalID returns the surrogate key assigned by the local store (0 = not stored yet)
	GetLocalID() int64
	SetLocalID(id int64)

	// GetExternalID returns the provider's identifier, the dedup key for upserts
	GetExternalID() int64

	// GetName returns the display name used for substring search
	GetName() string

	// GetRank returns the value rows are ordered by when listing the whole cache
	GetRank() float64

	GetCreatedAt() time.Time
	SetCreatedAt(t time.Time)
}

// Game is a cached IGDB game
type Game struct {
	LocalID     int64      `json:"local_id"`
	ExternalID  int64      `json:"external_id"` // IGDB id
	Name        string     `json:"name"`
	Summary     string     `json:"summary"`
	ReleaseDate *time.Time `json:"release_date,omitempty"`
	Rating      *float64   `json:"rating,omitempty"` // 0-100
	RatingCount *int       `json:"rating_count,omitempty"`
	CoverURL    *string    `json:"cover_url,omitempty"`

	// Denormalized, comma separated. Only filled by detail lookups.
	Platforms *string `json:"platforms,omitempty"`
	Developer *string `json:"developer,omitempty"`
	Publisher *string `json:"publisher,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (g *Game) GetLocalID() int64        { return g.LocalID }
func (g *Game) SetLocalID(id int64)      { g.LocalID = id }
func (g *Game) GetExternalID() int64     { return g.ExternalID }
func (g *Game) GetName() string          { return g.Name }
func (g *Game) GetCreatedAt() time.Time  { return g.CreatedAt }
func (g *Game) SetCreatedAt(t time.Time) { g.CreatedAt = t }

func (g *Game) GetRank() float64 {
	if g.Rating == nil {
		return 0
	}
	return *g.Rating
}

// ReleaseYear returns the release year, or 0 when unknown
func (g *Game) ReleaseYear() int {
	if g.ReleaseDate == nil {
		return 0
	}
	return g.ReleaseDate.Year()
}

// Film is a cached TMDB movie
type Film struct {
	LocalID     int64      `json:"local_id"`
	ExternalID  int64      `json:"external_id"` // TMDB id
	Title       string     `json:"title"`
	Overview    string     `json:"overview"`
	ReleaseDate *time.Time `json:"release_date,omitempty"`
	Rating      *float64   `json:"rating,omitempty"` // 0-10 vote average
	RatingCount *int       `json:"rating_count,omitempty"`
	PosterURL   *string    `json:"poster_url,omitempty"`

	// Denormalized, comma separated. Only filled by detail lookups.
	Genres   *string `json:"genres,omitempty"`
	Cast     *string `json:"cast,omitempty"`
	Director *string `json:"director,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (f *Film) GetLocalID() int64        { return f.LocalID }
func (f *Film) SetLocalID(id int64)      { f.LocalID = id }
func (f *Film) GetExternalID() int64     { return f.ExternalID }
func (f *Film) GetName() string          { return f.Title }
func (f *Film) GetCreatedAt() time.Time  { return f.CreatedAt }
func (f *Film) SetCreatedAt(t time.Time) { f.CreatedAt = t }

func (f *Film) GetRank() float64 {
	if f.Rating == nil {
		return 0
	}
	return *f.Rating
}

// ReleaseYear returns the release year, or 0 when unknown
func (f *Film) ReleaseYear() int {
	if f.ReleaseDate == nil {
		return 0
	}
	return f.ReleaseDate.Year()
}

// FormattedRating renders a nullable rating with its vote count
func FormattedRating(rating *float64, count *int) string {
	if rating == nil {
		return "unrated"
	}
	if count == nil {
		return fmt.Sprintf("%.1f", *rating)
	}
	return fmt.Sprintf("%.1f (%d votes)", *rating, *count)
}
