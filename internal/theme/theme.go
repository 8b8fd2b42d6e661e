// Package theme provides the colour palettes of the table report.
package theme

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/chmouel/nodupe/internal/models"
)

// Theme names.
const (
	AutoName           = "auto"
	DraculaName        = "dracula"
	DraculaLightName   = "dracula-light"
	NordName           = "nord"
	GruvboxDarkName    = "gruvbox-dark"
	GruvboxLightName   = "gruvbox-light"
	SolarizedDarkName  = "solarized-dark"
	SolarizedLightName = "solarized-light"
	MonokaiName        = "monokai"
)

// Theme holds the colours of one palette.
type Theme struct {
	Header    lipgloss.Color
	Processed lipgloss.Color
	DryRun    lipgloss.Color
	Failed    lipgloss.Color
	Muted     lipgloss.Color
}

var themes = map[string]Theme{
	DraculaName:        {Header: "#BD93F9", Processed: "#50FA7B", DryRun: "#FFB86C", Failed: "#FF5555", Muted: "#6272A4"},
	DraculaLightName:   {Header: "#7C3AED", Processed: "#059669", DryRun: "#D97706", Failed: "#DC2626", Muted: "#6E7781"},
	NordName:           {Header: "#88C0D0", Processed: "#A3BE8C", DryRun: "#EBCB8B", Failed: "#BF616A", Muted: "#81A1C1"},
	GruvboxDarkName:    {Header: "#FABD2F", Processed: "#B8BB26", DryRun: "#FE8019", Failed: "#FB4934", Muted: "#928374"},
	GruvboxLightName:   {Header: "#D79921", Processed: "#79740E", DryRun: "#AF3A03", Failed: "#9D0006", Muted: "#7C6F64"},
	SolarizedDarkName:  {Header: "#268BD2", Processed: "#859900", DryRun: "#B58900", Failed: "#DC322F", Muted: "#586E75"},
	SolarizedLightName: {Header: "#268BD2", Processed: "#859900", DryRun: "#B58900", Failed: "#DC322F", Muted: "#93A1A1"},
	MonokaiName:        {Header: "#66D9EF", Processed: "#A6E22E", DryRun: "#FD971F", Failed: "#F92672", Muted: "#75715E"},
}

// Normalize returns the canonical name of a theme, or "" when it is unknown.
func Normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == AutoName {
		return AutoName
	}
	if _, ok := themes[name]; ok {
		return name
	}
	return ""
}

// Get returns the named theme. "auto" and unknown names pick the default
// palette for the terminal background.
func Get(name string) Theme {
	if t, ok := themes[Normalize(name)]; ok {
		return t
	}
	if lipgloss.HasDarkBackground() {
		return themes[DraculaName]
	}
	return themes[DraculaLightName]
}

// HeaderStyle styles the table header.
func (t Theme) HeaderStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(t.Header)
}

// StatusStyle styles the status column of a result.
func (t Theme) StatusStyle(res models.FileResult) lipgloss.Style {
	switch {
	case res.Outcome == models.OutcomeFailed:
		return lipgloss.NewStyle().Foreground(t.Failed).Bold(true)
	case res.Outcome == models.OutcomeProcessed && res.DryRun:
		return lipgloss.NewStyle().Foreground(t.DryRun)
	case res.Outcome == models.OutcomeProcessed:
		return lipgloss.NewStyle().Foreground(t.Processed)
	default:
		return lipgloss.NewStyle().Foreground(t.Muted).Faint(true)
	}
}

// AvailableThemes returns the theme names, sorted, "auto" first.
func AvailableThemes() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return append([]string{AutoName}, names...)
}
