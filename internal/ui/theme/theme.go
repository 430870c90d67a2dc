package theme

import "github.com/charmbracelet/lipgloss"

// Palette follows Catppuccin Mocha so CLI cards look at home in dark
// terminals. Styles are plain values; renderers copy before changing them.
var (
	Mantle   = lipgloss.Color("#181825")
	Surface1 = lipgloss.Color("#45475a")
	Text     = lipgloss.Color("#cdd6f4")
	Subtext0 = lipgloss.Color("#a6adc8")
	Lavender = lipgloss.Color("#b4befe")
	Sapphire = lipgloss.Color("#74c7ec")
	Green    = lipgloss.Color("#a6e3a1")
	Peach    = lipgloss.Color("#fab387")
	Mauve    = lipgloss.Color("#cba6f7")

	Card = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Lavender).
		Foreground(Text).
		Padding(0, 2)

	Title = lipgloss.NewStyle().Foreground(Sapphire).Bold(true)
	Label = lipgloss.NewStyle().Foreground(Subtext0).Width(18)
	Muted = lipgloss.NewStyle().Foreground(Subtext0)
	Good  = lipgloss.NewStyle().Foreground(Green)
	Hot   = lipgloss.NewStyle().Foreground(Peach).Bold(true)
	Badge = lipgloss.NewStyle().Foreground(Mauve).Bold(true)
)
