package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	Amber     = lipgloss.Color("#E5A00D")
	DimGray   = lipgloss.Color("#6B7280")
	LightGray = lipgloss.Color("#9CA3AF")
	White     = lipgloss.Color("#F9FAFB")
	Green     = lipgloss.Color("#10B981")
	Red       = lipgloss.Color("#EF4444")
)

// SpinnerFrames animate the fetch indicator
var SpinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Styles are bound to one lipgloss renderer so color support follows the
// writer they print to.
type Styles struct {
	Title   lipgloss.Style
	Subtle  lipgloss.Style
	Dim     lipgloss.Style
	Accent  lipgloss.Style
	Error   lipgloss.Style
	Success lipgloss.Style
	Badge   lipgloss.Style
	Panel   lipgloss.Style
	Label   lipgloss.Style
}

// NewStyles builds the palette for renderer
func NewStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Title: r.NewStyle().
			Foreground(White).
			Bold(true),

		Subtle: r.NewStyle().
			Foreground(LightGray),

		Dim: r.NewStyle().
			Foreground(DimGray),

		Accent: r.NewStyle().
			Foreground(Amber),

		Error: r.NewStyle().
			Foreground(Red),

		Success: r.NewStyle().
			Foreground(Green),

		Badge: r.NewStyle().
			Foreground(White).
			Background(Amber).
			Padding(0, 1),

		Panel: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Amber).
			Padding(0, 1),

		Label: r.NewStyle().
			Foreground(DimGray).
			Width(11),
	}
}

// Truncate shortens s to width runes with an ellipsis
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
