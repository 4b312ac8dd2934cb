// Package styles holds the colour palettes and lipgloss styles of the TUI.
package styles

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette is the set of colours a theme is built from.
type Palette struct {
	Accent    lipgloss.Color // titles, assistant turns, selection
	Highlight lipgloss.Color // subtitles, user turns
	Text      lipgloss.Color
	Subtle    lipgloss.Color // hints, timestamps, streaming marker
	Good      lipgloss.Color
	Caution   lipgloss.Color
	Bad       lipgloss.Color
	Edge      lipgloss.Color // borders
	Bar       lipgloss.Color // status bar background
}

// Dark suits terminals with a dark background.
var Dark = Palette{
	Accent:    "#7C3AED",
	Highlight: "#06B6D4",
	Text:      "#CDD6F4",
	Subtle:    "#6C7086",
	Good:      "#A6E3A1",
	Caution:   "#F9E2AF",
	Bad:       "#F38BA8",
	Edge:      "#45475A",
	Bar:       "#181825",
}

// Light suits terminals with a light background.
var Light = Palette{
	Accent:    "#6D28D9",
	Highlight: "#0E7490",
	Text:      "#1F2937",
	Subtle:    "#6B7280",
	Good:      "#15803D",
	Caution:   "#B45309",
	Bad:       "#B91C1C",
	Edge:      "#D1D5DB",
	Bar:       "#E5E7EB",
}

var palettes = map[string]Palette{
	"dark":  Dark,
	"light": Light,
}

// Names lists the selectable themes.
func Names() []string {
	names := make([]string, 0, len(palettes)+1)
	for n := range palettes {
		names = append(names, n)
	}
	names = append(names, "auto")
	sort.Strings(names)
	return names
}

// ByName returns styles for a named theme. "auto" and "" pick dark or
// light from the terminal background.
func ByName(name string) (*Styles, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "auto" {
		if lipgloss.HasDarkBackground() {
			return New(Dark), nil
		}
		return New(Light), nil
	}
	p, ok := palettes[name]
	if !ok {
		return nil, fmt.Errorf("unknown theme %q (want one of %s)", name, strings.Join(Names(), ", "))
	}
	return New(p), nil
}

// Styles are the rendered styles used by views and components.
type Styles struct {
	palette Palette

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Normal   lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style
	Help     lipgloss.Style

	Error   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style

	InputField lipgloss.Style
	StatusBar  lipgloss.Style
	Border     lipgloss.Style

	// Transcript.
	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	Streaming      lipgloss.Style
}

// New builds styles from p.
func New(p Palette) *Styles {
	fg := func(c lipgloss.Color) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(c)
	}
	boxed := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(p.Edge)

	return &Styles{
		palette: p,

		Title:    fg(p.Accent).Bold(true),
		Subtitle: fg(p.Highlight).Bold(true),
		Normal:   fg(p.Text),
		Muted:    fg(p.Subtle),
		Selected: fg(p.Text).Background(p.Accent).Bold(true),
		Help:     fg(p.Subtle),

		Error:   fg(p.Bad),
		Success: fg(p.Good),
		Warning: fg(p.Caution),

		InputField: boxed.Padding(0, 1),
		StatusBar:  fg(p.Subtle).Background(p.Bar).Padding(0, 1),
		Border:     boxed,

		UserLabel:      fg(p.Highlight).Bold(true),
		AssistantLabel: fg(p.Accent).Bold(true),
		Streaming:      fg(p.Subtle).Italic(true),
	}
}

// DefaultStyles returns the dark theme.
func DefaultStyles() *Styles {
	return New(Dark)
}

// Palette returns the colours s was built from.
func (s *Styles) Palette() Palette {
	return s.palette
}
