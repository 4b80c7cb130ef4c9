package tmdb

import (
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/backlog/internal/adapter"
	"github.com/mmcdole/backlog/internal/domain"
)

// PosterTemplate expands a poster path ("/abc.jpg") into a CDN URL
const PosterTemplate = "https://image.tmdb.org/t/p/w500%s"

// maxCast limits the denormalized cast list to the top billed actors
const maxCast = 5

// MapFilm converts a raw TMDB movie to a domain film.
// Movies without a title are unusable and report false.
func MapFilm(m Movie) (*domain.Film, bool) {
	if m.Title == nil || strings.TrimSpace(*m.Title) == "" {
		return nil, false
	}

	film := &domain.Film{
		ExternalID:  m.ID,
		Title:       *m.Title,
		Rating:      m.VoteAverage,
		RatingCount: m.VoteCount,
		ReleaseDate: parseDate(m.ReleaseDate),
		Genres:      joinGenres(m.Genres),
	}

	if m.Overview != nil {
		film.Overview = *m.Overview
	}

	if m.PosterPath != nil {
		film.PosterURL = adapter.NormalizeImageURL("", *m.PosterPath, PosterTemplate)
	}

	if m.Credits != nil {
		film.Cast = topCast(m.Credits.Cast)
		film.Director = directors(m.Credits.Crew)
	}

	return film, true
}

// parseDate reads TMDB's YYYY-MM-DD release date; empty or invalid yields nil
func parseDate(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t, err := time.Parse(time.DateOnly, *s)
	if err != nil {
		return nil
	}
	return &t
}

func joinGenres(genres []Genre) *string {
	names := make([]string, 0, len(genres))
	for _, g := range genres {
		if g.Name != "" {
			names = append(names, g.Name)
		}
	}
	return join(names)
}

func topCast(cast []CastMember) *string {
	sorted := append([]CastMember(nil), cast...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })

	names := make([]string, 0, maxCast)
	for _, c := range sorted {
		if len(names) == maxCast {
			break
		}
		if c.Name != "" {
			names = append(names, c.Name)
		}
	}
	return join(names)
}

func directors(crew []CrewMember) *string {
	var names []string
	for _, c := range crew {
		if c.Job == "Director" && c.Name != "" {
			names = append(names, c.Name)
		}
	}
	return join(names)
}

// join flattens names into delimited text; nil when there are none
func join(names []string) *string {
	if len(names) == 0 {
		return nil
	}
	joined := strings.Join(names, ", ")
	return &joined
}
