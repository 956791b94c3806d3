package output

import "github.com/charmbracelet/lipgloss"

var (
	ColorRed    = lipgloss.Color("#FF0000")
	ColorGreen  = lipgloss.Color("#00FF00")
	ColorYellow = lipgloss.Color("#FFFF00")
	ColorCyan   = lipgloss.Color("#00FFFF")
	ColorGray   = lipgloss.Color("#666666")
	ColorWhite  = lipgloss.Color("#FFFFFF")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorCyan)

	DimStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	PriceStyle = lipgloss.NewStyle().
			Foreground(ColorYellow).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorYellow)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	SpeechStyle = lipgloss.NewStyle().
			Foreground(ColorWhite).
			Italic(true)

	SeatFreeStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	SeatSelectedStyle = lipgloss.NewStyle().
				Foreground(ColorGreen).
				Bold(true)

	SeatOccupiedStyle = lipgloss.NewStyle().
				Foreground(ColorRed).
				Strikethrough(true)

	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorCyan).
			Padding(0, 1)
)
