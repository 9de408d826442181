package tui

import "github.com/charmbracelet/lipgloss"

// Theme defines the visual style of the viewer.
type Theme struct {
	Title       lipgloss.Style
	Subtitle    lipgloss.Style
	TabActive   lipgloss.Style
	TabInactive lipgloss.Style
	Selected    lipgloss.Style
	StatusBar   lipgloss.Style
	Filter      lipgloss.Style
	Primary     lipgloss.Color
	Border      lipgloss.Color
	Muted       lipgloss.Color
}

func newTheme(primary, border, muted, foreground, selectedFg lipgloss.Color) Theme {
	return Theme{
		Primary: primary,
		Border:  border,
		Muted:   muted,
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(foreground),
		Subtitle: lipgloss.NewStyle().
			Foreground(muted),
		TabActive: lipgloss.NewStyle().
			Bold(true).
			Foreground(primary).
			Padding(0, 1).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(primary),
		TabInactive: lipgloss.NewStyle().
			Foreground(muted).
			Padding(0, 1).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(border),
		Selected: lipgloss.NewStyle().
			Background(primary).
			Foreground(selectedFg).
			Bold(true),
		StatusBar: lipgloss.NewStyle().
			Foreground(muted),
		Filter: lipgloss.NewStyle().
			Foreground(primary).
			Italic(true),
	}
}

// DefaultTheme is the default theme.
var DefaultTheme = newTheme(
	lipgloss.Color("#7c3aed"),
	lipgloss.Color("#404040"),
	lipgloss.Color("#737373"),
	lipgloss.Color("#fafafa"),
	lipgloss.Color("#fafafa"),
)

// CatppuccinMocha is the Catppuccin Mocha theme.
var CatppuccinMocha = newTheme(
	lipgloss.Color("#cba6f7"),
	lipgloss.Color("#45475a"),
	lipgloss.Color("#6c7086"),
	lipgloss.Color("#cdd6f4"),
	lipgloss.Color("#1e1e2e"),
)

// ThemeByName returns the named theme, falling back to DefaultTheme.
func ThemeByName(name string) Theme {
	if name == "mocha" || name == "catppuccin" {
		return CatppuccinMocha
	}
	return DefaultTheme
}
