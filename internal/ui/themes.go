package ui

import (
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Mode is the process-wide display mode
type Mode int

const (
	ModeDark Mode = iota
	ModeLight
)

func (m Mode) String() string {
	if m == ModeLight {
		return "light"
	}
	return "dark"
}

// ParseMode converts a configured theme name into a Mode
func ParseMode(name string) (Mode, error) {
	switch name {
	case "", "dark":
		return ModeDark, nil
	case "light":
		return ModeLight, nil
	default:
		return ModeDark, fmt.Errorf("unknown theme %q (must be one of: dark, light)", name)
	}
}

var (
	modeMu      sync.RWMutex
	currentMode = ModeDark
)

// CurrentMode returns the active display mode
func CurrentMode() Mode {
	modeMu.RLock()
	defer modeMu.RUnlock()
	return currentMode
}

// SetMode sets the active display mode
func SetMode(m Mode) {
	modeMu.Lock()
	defer modeMu.Unlock()
	currentMode = m
}

// ToggleMode flips between dark and light and returns the new mode
func ToggleMode() Mode {
	modeMu.Lock()
	defer modeMu.Unlock()
	if currentMode == ModeDark {
		currentMode = ModeLight
	} else {
		currentMode = ModeDark
	}
	return currentMode
}

// Theme represents a color theme for the TUI
type Theme struct {
	Name string

	// Primary colors
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color

	// Semantic colors
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Info    lipgloss.Color

	// UI colors
	Border   lipgloss.Color
	Muted    lipgloss.Color
	Selected lipgloss.Color
	Bright   lipgloss.Color
	Dim      lipgloss.Color
}

// buildTheme creates a theme from hex colors
func buildTheme(name string, colors [12]string) Theme {
	return Theme{
		Name:      name,
		Primary:   lipgloss.Color(colors[0]),
		Secondary: lipgloss.Color(colors[1]),
		Accent:    lipgloss.Color(colors[2]),
		Success:   lipgloss.Color(colors[3]),
		Warning:   lipgloss.Color(colors[4]),
		Error:     lipgloss.Color(colors[5]),
		Info:      lipgloss.Color(colors[6]),
		Border:    lipgloss.Color(colors[7]),
		Muted:     lipgloss.Color(colors[8]),
		Selected:  lipgloss.Color(colors[9]),
		Bright:    lipgloss.Color(colors[10]),
		Dim:       lipgloss.Color(colors[11]),
	}
}

// Available themes
var (
	DarkTheme = buildTheme("dark", [12]string{
		"#60A5FA", "#9CA3AF", "#A855F7",
		"#34D399", "#FBBF24", "#F87171", "#22D3EE",
		"#374151", "#6B7280", "#1E3A8A", "#F9FAFB", "#111827",
	})

	LightTheme = buildTheme("light", [12]string{
		"#1E40AF", "#4B5563", "#7C3AED",
		"#059669", "#D97706", "#DC2626", "#0891B2",
		"#D1D5DB", "#9CA3AF", "#DBEAFE", "#FFFFFF", "#111827",
	})
)

// ThemeFor returns the palette for a mode
func ThemeFor(m Mode) Theme {
	if m == ModeLight {
		return LightTheme
	}
	return DarkTheme
}

// GetTheme returns the palette of the current mode
func GetTheme() Theme {
	return ThemeFor(CurrentMode())
}

// IsColorDisabled checks if colors should be disabled
func IsColorDisabled() bool {
	return os.Getenv("NO_COLOR") != ""
}

// Styles contains all the styled components
type Styles struct {
	Theme Theme

	Title    lipgloss.Style
	Header   lipgloss.Style
	Body     lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style

	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style

	Panel  lipgloss.Style
	Tab    lipgloss.Style
	TabOn  lipgloss.Style
	Bar    lipgloss.Style
	Winner lipgloss.Style
}

// GetStyles builds the styles for the current mode
func GetStyles() *Styles {
	return NewStyles(GetTheme())
}

// NewStyles builds the styles for a theme
func NewStyles(theme Theme) *Styles {
	return &Styles{
		Theme: theme,

		Title: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true).
			Padding(0, 1),

		Header: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true),

		Body: lipgloss.NewStyle().
			Foreground(theme.Secondary),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Selected: lipgloss.NewStyle().
			Background(theme.Selected).
			Foreground(theme.Primary).
			Bold(true),

		Success: lipgloss.NewStyle().
			Foreground(theme.Success).
			Bold(true),

		Warning: lipgloss.NewStyle().
			Foreground(theme.Warning).
			Bold(true),

		Error: lipgloss.NewStyle().
			Foreground(theme.Error).
			Bold(true),

		Info: lipgloss.NewStyle().
			Foreground(theme.Info),

		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),

		Tab: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Padding(0, 1),

		TabOn: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Background(theme.Selected).
			Bold(true).
			Padding(0, 1),

		Bar: lipgloss.NewStyle().
			Foreground(theme.Primary),

		Winner: lipgloss.NewStyle().
			Foreground(theme.Success).
			Bold(true),
	}
}
