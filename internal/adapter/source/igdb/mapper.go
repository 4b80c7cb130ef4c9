package igdb

import (
	"strings"
	"time"

	"github.com/mmcdole/backlog/internal/adapter"
	"github.com/mmcdole/backlog/internal/domain"
)

// CoverTemplate expands an opaque cover image id into a CDN URL
const CoverTemplate = "https://images.igdb.com/igdb/image/upload/t_cover_big/%s.jpg"

// MapGame converts a raw IGDB record to a domain game.
// Records without a name are unusable and report false.
func MapGame(g Game) (*domain.Game, bool) {
	if g.Name == nil || strings.TrimSpace(*g.Name) == "" {
		return nil, false
	}

	game := &domain.Game{
		ExternalID:  g.ID,
		Name:        *g.Name,
		Rating:      g.Rating,
		RatingCount: g.RatingCount,
		Platforms:   joinNames(g.Platforms),
	}

	if g.Summary != nil {
		game.Summary = *g.Summary
	}

	if g.FirstReleaseDate != nil {
		released := time.Unix(*g.FirstReleaseDate, 0).UTC()
		game.ReleaseDate = &released
	}

	if g.Cover != nil {
		game.CoverURL = adapter.NormalizeImageURL(deref(g.Cover.URL), deref(g.Cover.ImageID), CoverTemplate)
	}

	game.Developer, game.Publisher = mapCompanies(g.InvolvedCompanies)

	return game, true
}

// mapCompanies splits involved companies into developer and publisher lists
func mapCompanies(companies []InvolvedCompany) (developer, publisher *string) {
	var devs, pubs []NamedRef
	for _, ic := range companies {
		if ic.Company == nil || ic.Company.Name == "" {
			continue
		}
		if ic.Developer {
			devs = append(devs, *ic.Company)
		}
		if ic.Publisher {
			pubs = append(pubs, *ic.Company)
		}
	}
	return joinNames(devs), joinNames(pubs)
}

// joinNames flattens names into delimited text; nil when there are none
func joinNames(refs []NamedRef) *string {
	names := make([]string, 0, len(refs))
	for _, r := range refs {
		if r.Name != "" {
			names = append(names, r.Name)
		}
	}
	if len(names) == 0 {
		return nil
	}
	joined := strings.Join(names, ", ")
	return &joined
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
