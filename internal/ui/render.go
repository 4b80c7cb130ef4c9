// Package ui renders catalog results for the terminal.
package ui

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/backlog/internal/domain"
)

const (
	defaultWidth = 80
	minNameWidth = 16
)

// Renderer prints results to w. Colors are dropped automatically when w is
// not a terminal.
type Renderer struct {
	w      io.Writer
	width  int
	styles Styles
}

// NewRenderer creates a renderer for w. A non-positive width uses 80 columns.
func NewRenderer(w io.Writer, width int) *Renderer {
	if width <= 0 {
		width = defaultWidth
	}
	return &Renderer{
		w:      w,
		width:  width,
		styles: NewStyles(lipgloss.NewRenderer(w)),
	}
}

// row is one line of a result list
type row struct {
	localID    int64
	externalID int64
	name       string
	year       int
	rating     string
}

// Games prints a game result list
func (r *Renderer) Games(label string, res domain.Result[*domain.Game]) {
	rows := make([]row, len(res.Items))
	for i, g := range res.Items {
		rows[i] = row{g.LocalID, g.ExternalID, g.Name, g.ReleaseYear(), domain.FormattedRating(g.Rating, g.RatingCount)}
	}
	r.list(label, res.Source, res.Err, rows)
}

// Films prints a film result list
func (r *Renderer) Films(label string, res domain.Result[*domain.Film]) {
	rows := make([]row, len(res.Items))
	for i, f := range res.Items {
		rows[i] = row{f.LocalID, f.ExternalID, f.Title, f.ReleaseYear(), domain.FormattedRating(f.Rating, f.RatingCount)}
	}
	r.list(label, res.Source, res.Err, rows)
}

func (r *Renderer) list(label string, source domain.Source, cause error, rows []row) {
	fmt.Fprintln(r.w, r.header(label, source, len(rows), cause))
	if len(rows) == 0 {
		return
	}

	nameWidth := r.width - 44
	if nameWidth < minNameWidth {
		nameWidth = minNameWidth
	}

	for _, row := range rows {
		name := Truncate(row.name, nameWidth)
		if row.year > 0 {
			name = Truncate(fmt.Sprintf("%s (%d)", row.name, row.year), nameWidth)
		}
		fmt.Fprintf(r.w, "%s  %s  %s  %s\n",
			r.styles.Accent.Render(fmt.Sprintf("%6d", row.localID)),
			r.styles.Title.Render(pad(name, nameWidth)),
			r.styles.Subtle.Render(pad(row.rating, 20)),
			r.styles.Dim.Render(fmt.Sprintf("ext:%d", row.externalID)),
		)
	}
}

// header summarizes where a result came from
func (r *Renderer) header(label string, source domain.Source, count int, cause error) string {
	badge := r.styles.Badge.Render(label)

	switch source {
	case domain.SourceRemote:
		return fmt.Sprintf("%s %s", badge, r.styles.Success.Render(fmt.Sprintf("%d fresh", count)))
	case domain.SourceCache:
		msg := fmt.Sprintf("%d cached", count)
		if cause != nil {
			msg += " (provider unavailable: " + describe(cause) + ")"
		}
		return fmt.Sprintf("%s %s", badge, r.styles.Accent.Render(msg))
	default:
		msg := "nothing found"
		if cause != nil {
			msg += " (provider unavailable: " + describe(cause) + ")"
		}
		return fmt.Sprintf("%s %s", badge, r.styles.Dim.Render(msg))
	}
}

// Game prints one game with its detail fields
func (r *Renderer) Game(g *domain.Game, source domain.Source) {
	var b strings.Builder
	b.WriteString(r.styles.Title.Render(g.Name) + "\n")
	r.field(&b, "Local ID", fmt.Sprint(g.LocalID))
	r.field(&b, "IGDB ID", fmt.Sprint(g.ExternalID))
	if g.ReleaseDate != nil {
		r.field(&b, "Released", g.ReleaseDate.Format("2006-01-02"))
	}
	r.field(&b, "Rating", domain.FormattedRating(g.Rating, g.RatingCount))
	r.optional(&b, "Platforms", g.Platforms)
	r.optional(&b, "Developer", g.Developer)
	r.optional(&b, "Publisher", g.Publisher)
	r.optional(&b, "Cover", g.CoverURL)
	r.field(&b, "Source", source.String())
	if g.Summary != "" {
		b.WriteString("\n" + r.wrap(g.Summary))
	}
	fmt.Fprintln(r.w, r.styles.Panel.Render(strings.TrimRight(b.String(), "\n")))
}

// Film prints one film with its detail fields
func (r *Renderer) Film(f *domain.Film, source domain.Source) {
	var b strings.Builder
	b.WriteString(r.styles.Title.Render(f.Title) + "\n")
	r.field(&b, "Local ID", fmt.Sprint(f.LocalID))
	r.field(&b, "TMDB ID", fmt.Sprint(f.ExternalID))
	if f.ReleaseDate != nil {
		r.field(&b, "Released", f.ReleaseDate.Format("2006-01-02"))
	}
	r.field(&b, "Rating", domain.FormattedRating(f.Rating, f.RatingCount))
	r.optional(&b, "Genres", f.Genres)
	r.optional(&b, "Director", f.Director)
	r.optional(&b, "Cast", f.Cast)
	r.optional(&b, "Poster", f.PosterURL)
	r.field(&b, "Source", source.String())
	if f.Overview != "" {
		b.WriteString("\n" + r.wrap(f.Overview))
	}
	fmt.Fprintln(r.w, r.styles.Panel.Render(strings.TrimRight(b.String(), "\n")))
}

// NotFound prints a miss for a single-record lookup
func (r *Renderer) NotFound(label string, cause error) {
	fmt.Fprintln(r.w, r.header(label, domain.SourceNone, 0, cause))
}

// Message prints a plain status line
func (r *Renderer) Message(msg string) {
	fmt.Fprintln(r.w, r.styles.Success.Render("✓ ")+msg)
}

func (r *Renderer) field(b *strings.Builder, label, value string) {
	b.WriteString(r.styles.Label.Render(label) + value + "\n")
}

func (r *Renderer) optional(b *strings.Builder, label string, value *string) {
	if value != nil && *value != "" {
		r.field(b, label, *value)
	}
}

func (r *Renderer) wrap(text string) string {
	return r.styles.Subtle.Width(r.width - 6).Render(text)
}

// describe turns a degraded-result cause into a short phrase
func describe(err error) string {
	var statusErr *domain.StatusError
	switch {
	case errors.Is(err, domain.ErrCredentialUnavailable):
		return "could not obtain a token"
	case errors.Is(err, domain.ErrUnauthorized):
		return "token rejected"
	case errors.Is(err, domain.ErrServerOffline):
		return "offline"
	case errors.Is(err, domain.ErrMalformedResponse):
		return "unexpected response"
	case errors.As(err, &statusErr):
		return fmt.Sprintf("HTTP %d", statusErr.Code)
	default:
		return err.Error()
	}
}

func pad(s string, width int) string {
	n := lipgloss.Width(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}
