package styles

import "github.com/charmbracelet/lipgloss"

// Theme defines the color palette and pre-built styles for the application.
type Theme struct {
	// Brand/accent colors
	Primary   lipgloss.Color // Purple - filter keys, focused items
	Secondary lipgloss.Color // Gold/orange - filter values

	// Text hierarchy (most to least prominent)
	FgBase   lipgloss.Color // Primary text (bright)
	FgMuted  lipgloss.Color // Secondary text (dimmed)
	FgSubtle lipgloss.Color // Tertiary text (very dim)

	// Backgrounds
	BgCursor lipgloss.Color // Cursor/selection highlight

	// Borders
	Border lipgloss.Color

	// Status colors
	Error   lipgloss.Color // Red - errors
	Warning lipgloss.Color // Yellow/orange - unterminated quotes

	styles *Styles
}

// Styles contains pre-built lipgloss styles for common UI patterns.
type Styles struct {
	Base     lipgloss.Style // Default text
	Muted    lipgloss.Style // Dimmed text
	Subtle   lipgloss.Style // Very dim text
	Title    lipgloss.Style // Bold, bright
	Cursor   lipgloss.Style // Cursor background highlight
	Selected lipgloss.Style // Selected result row
	Error    lipgloss.Style
	Panel    lipgloss.Style // Rounded border around the input

	// Query token highlighting
	FilterKey   lipgloss.Style // "artist" in artist:Daft, colon included
	FilterValue lipgloss.Style // "Daft" in artist:Daft
	FreeText    lipgloss.Style
	Blank       lipgloss.Style
	Unclosed    lipgloss.Style // free text produced by a missing closing quote
}

var defaultTheme = Theme{
	// Bright purple accent
	Primary:   lipgloss.Color("#a78bfa"),
	Secondary: lipgloss.Color("#f1a208"),

	// Text hierarchy (grayscale)
	FgBase:   lipgloss.Color("#c0c0c0"),
	FgMuted:  lipgloss.Color("#808080"),
	FgSubtle: lipgloss.Color("#585858"),

	BgCursor: lipgloss.Color("#303030"),

	Border: lipgloss.Color("#585858"),

	// Status
	Error:   lipgloss.Color("#ff5555"),
	Warning: lipgloss.Color("#e0af68"),
}

// T returns the default theme.
func T() *Theme {
	return &defaultTheme
}

// S returns the pre-built styles for this theme.
func (t *Theme) S() *Styles {
	if t.styles == nil {
		t.styles = t.buildStyles()
	}
	return t.styles
}

func (t *Theme) buildStyles() *Styles {
	base := lipgloss.NewStyle().Foreground(t.FgBase)

	return &Styles{
		Base:   base,
		Muted:  lipgloss.NewStyle().Foreground(t.FgMuted),
		Subtle: lipgloss.NewStyle().Foreground(t.FgSubtle),
		Title:  base.Bold(true),
		Cursor: lipgloss.NewStyle().
			Background(t.Primary).
			Foreground(lipgloss.Color("#1a1a1a")),
		Selected: lipgloss.NewStyle().
			Background(t.BgCursor).
			Foreground(t.FgBase).
			Bold(true),
		Error: lipgloss.NewStyle().Foreground(t.Error),
		Panel: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(0, 1),

		FilterKey:   lipgloss.NewStyle().Foreground(t.Primary).Bold(true),
		FilterValue: lipgloss.NewStyle().Foreground(t.Secondary),
		FreeText:    base,
		Blank:       lipgloss.NewStyle(),
		Unclosed:    lipgloss.NewStyle().Foreground(t.Warning).Italic(true),
	}
}
