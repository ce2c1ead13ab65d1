package application

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme is the colour scheme of the terminal UI.
type Theme int

const (
	ThemeLight Theme = iota
	ThemeDark
)

func (t Theme) String() string {
	if t == ThemeDark {
		return "dark"
	}
	return "light"
}

// ParseTheme parses "light" or "dark".
func ParseTheme(s string) (Theme, error) {
	switch strings.ToLower(s) {
	case "", "light":
		return ThemeLight, nil
	case "dark":
		return ThemeDark, nil
	}
	return ThemeLight, fmt.Errorf("unknown theme %q", s)
}

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

type palette struct {
	accent, text, muted, ok, bad string
	gradientA, gradientB       string
}

var palettes = map[Theme]palette{
	ThemeLight: {
		accent: "#5A3FD8", text: "#1E1E1E", muted: "#767676", ok: "#1A7F37", bad: "#C62828",
		gradientA: "#5A3FD8", gradientB: "#2EA8E6",
	},
	ThemeDark: {
		accent: "#B4A0FF", text: "#EDEDED", muted: "#8A8A8A", ok: "#7EE2A8", bad: "#FF6B6B",
		gradientA: "#B4A0FF", gradientB: "#7DE3F4",
	},
}

type styles struct {
	title    lipgloss.Style
	selected lipgloss.Style
	item     lipgloss.Style
	help     lipgloss.Style
	ok       lipgloss.Style
	bad      lipgloss.Style
	output   lipgloss.Style
}

func newStyles(t Theme) styles {
	p := palettes[t]
	return styles{
		title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(p.accent)).MarginBottom(1),
		selected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(p.accent)),
		item:     lipgloss.NewStyle().Foreground(lipgloss.Color(p.text)),
		help:     lipgloss.NewStyle().Foreground(lipgloss.Color(p.muted)),
		ok:       lipgloss.NewStyle().Foreground(lipgloss.Color(p.ok)),
		bad:      lipgloss.NewStyle().Foreground(lipgloss.Color(p.bad)),
		output: lipgloss.NewStyle().
			Foreground(lipgloss.Color(p.text)).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(p.muted)).
			Padding(0, 1),
	}
}
