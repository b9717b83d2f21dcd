package style

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(HeadingColor).
			Bold(true)

	MutedStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(InfoColor)

	CodeStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)

	PathStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor).
			Italic(true)

	// Badges mimic the inverted labels of webpack's friendly error output.
	ErrorBadge = lipgloss.NewStyle().
			Background(ErrorColor).
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true).
			Padding(0, 1)

	WarningBadge = lipgloss.NewStyle().
			Background(WarningColor).
			Foreground(lipgloss.Color("#000000")).
			Bold(true).
			Padding(0, 1)

	DoneBadge = lipgloss.NewStyle().
			Background(SuccessColor).
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true).
			Padding(0, 1)
)

var (
	ScriptStyle     = lipgloss.NewStyle().Foreground(ScriptColor)
	StylesheetStyle = lipgloss.NewStyle().Foreground(StylesheetColor)
	AssetStyle      = lipgloss.NewStyle().Foreground(AssetColor)
)

// KindStyle returns the style for an output kind: js, css or asset.
func KindStyle(kind string) lipgloss.Style {
	switch kind {
	case "js":
		return ScriptStyle
	case "css":
		return StylesheetStyle
	default:
		return AssetStyle
	}
}

func Indent(s string, level int) string {
	return lipgloss.NewStyle().PaddingLeft(level * 2).Render(s)
}
