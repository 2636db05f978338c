package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/lox/carrombot/internal/board"
	"github.com/lox/carrombot/internal/events"
)

// Static styles for content elements
var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Bold(true)

	PanelTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true)

	LightPieceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFEAA7")).
			Bold(true)

	DarkPieceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8B5A2B")).
			Bold(true)

	QueenStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)

	StrikerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4")).
			Bold(true)

	PocketStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	GazeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#C77DFF")).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFEAA7")).
			Bold(true)

	AIStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#C77DFF"))

	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))
)

// SetColorProfile picks the colour profile for every style, stripping colour
// entirely when noColor is set.
func SetColorProfile(noColor bool) {
	if noColor {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	lipgloss.SetColorProfile(termenv.EnvColorProfile())
}

func severityStyle(s events.Severity) lipgloss.Style {
	switch s {
	case events.Success:
		return SuccessStyle
	case events.Error:
		return ErrorStyle
	case events.Warning:
		return WarningStyle
	case events.AI:
		return AIStyle
	case events.Info:
		return InfoStyle
	default:
		return InfoStyle
	}
}

func kindStyle(k board.Kind) lipgloss.Style {
	switch k {
	case board.Light:
		return LightPieceStyle
	case board.Dark:
		return DarkPieceStyle
	case board.Queen:
		return QueenStyle
	case board.Striker:
		return StrikerStyle
	default:
		return InfoStyle
	}
}
