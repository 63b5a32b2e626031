// Package styles holds the color themes and shared lipgloss styles
// for the TUI. Components ask for the current theme rather than
// hard-coding colors, so /set theme switches everything at once.
package styles

import (
	"fmt"
	"image/color"

	"github.com/charmbracelet/lipgloss/v2"
)

// Theme is a named set of semantic colors.
type Theme struct {
	Name   string
	IsDark bool

	// Brand colors
	Primary   color.Color
	Secondary color.Color
	Accent    color.Color

	// Background colors
	BgBase    color.Color
	BgSubtle  color.Color
	BgOverlay color.Color

	// Foreground colors
	FgBase     color.Color
	FgMuted    color.Color
	FgSubtle   color.Color
	FgInverted color.Color

	// Border colors
	Border      color.Color
	BorderFocus color.Color

	// Semantic colors
	Success color.Color
	Error   color.Color
	Warning color.Color
	Info    color.Color

	styles *Styles
}

// Styles are prebuilt lipgloss styles derived from a theme.
type Styles struct {
	Base     lipgloss.Style
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Muted    lipgloss.Style
	Subtle   lipgloss.Style
	Bold     lipgloss.Style

	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style

	Button        lipgloss.Style
	ButtonFocused lipgloss.Style
	Border        lipgloss.Style
	BorderFocused lipgloss.Style
}

func (t *Theme) S() *Styles {
	if t.styles == nil {
		t.styles = t.buildStyles()
	}
	return t.styles
}

func (t *Theme) buildStyles() *Styles {
	base := lipgloss.NewStyle().Foreground(t.FgBase)

	return &Styles{
		Base: base,

		Title: base.
			Foreground(t.Accent).
			Bold(true),

		Subtitle: base.
			Foreground(t.Secondary).
			Bold(true),

		Muted:  base.Foreground(t.FgMuted),
		Subtle: base.Foreground(t.FgSubtle),
		Bold:   base.Bold(true),

		Success: base.Foreground(t.Success),
		Error:   base.Foreground(t.Error),
		Warning: base.Foreground(t.Warning),
		Info:    base.Foreground(t.Info),

		Button: base.
			Background(t.BgSubtle).
			Foreground(t.FgBase).
			Padding(0, 2),

		ButtonFocused: base.
			Background(t.Primary).
			Foreground(t.FgInverted).
			Padding(0, 2),

		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border),

		BorderFocused: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.BorderFocus),
	}
}

// Manager tracks registered themes and which one is active.
type Manager struct {
	themes  map[string]*Theme
	current *Theme
}

var defaultManager *Manager

// SetDefaultManager installs the manager CurrentTheme reads from.
func SetDefaultManager(m *Manager) {
	defaultManager = m
}

// CurrentTheme returns the active theme, falling back to the built-in
// dark theme when no manager has been installed (tests, mostly).
func CurrentTheme() *Theme {
	if defaultManager == nil {
		defaultManager = NewManager("dark")
	}
	return defaultManager.Current()
}

// NewManager creates a manager with the built-in themes registered
// and the named theme active.
func NewManager(defaultTheme string) *Manager {
	m := &Manager{themes: make(map[string]*Theme)}
	m.Register(DarkTheme())
	m.Register(LightTheme())
	if err := m.SetTheme(defaultTheme); err != nil {
		m.current = m.themes["dark"]
	}
	return m
}

func (m *Manager) Register(theme *Theme) {
	m.themes[theme.Name] = theme
}

func (m *Manager) Current() *Theme {
	return m.current
}

func (m *Manager) SetTheme(name string) error {
	theme, ok := m.themes[name]
	if !ok {
		return fmt.Errorf("unknown theme: %s", name)
	}
	m.current = theme
	return nil
}

// List returns the registered theme names.
func (m *Manager) List() []string {
	names := make([]string, 0, len(m.themes))
	for name := range m.themes {
		names = append(names, name)
	}
	return names
}
