// Package tui provides the terminal output layer for VERDICT: semantic
// styles, the Output abstraction shared by every command, auto-sized tables
// for summaries and rule listings, and a progress spinner for long batches.
//
// All colors use AdaptiveColor for light/dark terminal support, and every
// styled surface degrades to plain text when NO_COLOR is set or the terminal
// is dumb.
package tui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

//nolint:gochecknoglobals // Package-level semantic color palette
var (
	// ColorPrimary is blue, used for informational output and column
	// headers.
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#0087AF", Dark: "#00D7FF"}

	// ColorSuccess is green, used for passing rules and completed batches.
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#008700", Dark: "#00FF87"}

	// ColorWarning is yellow, used for needs-review flags and partial
	// scores.
	ColorWarning = lipgloss.AdaptiveColor{Light: "#AF8700", Dark: "#FFD700"}

	// ColorError is red, used for failing rules and failed extractions.
	ColorError = lipgloss.AdaptiveColor{Light: "#AF0000", Dark: "#FF5F5F"}

	// ColorMuted is gray, used for secondary text and unscored rules.
	ColorMuted = lipgloss.AdaptiveColor{Light: "#585858", Dark: "#6C6C6C"}
)

// OutputStyles holds the styles used by message-level output.
type OutputStyles struct {
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Dim     lipgloss.Style
}

// NewOutputStyles creates the message-level output styles.
func NewOutputStyles() *OutputStyles {
	return &OutputStyles{
		Success: lipgloss.NewStyle().Foreground(ColorSuccess).Bold(true),
		Error:   lipgloss.NewStyle().Foreground(ColorError).Bold(true),
		Warning: lipgloss.NewStyle().Foreground(ColorWarning),
		Info:    lipgloss.NewStyle().Foreground(ColorPrimary),
		Dim:     lipgloss.NewStyle().Foreground(ColorMuted),
	}
}

// TableStyles holds the styles used by table rendering.
type TableStyles struct {
	Header lipgloss.Style
	Dim    lipgloss.Style
}

// NewTableStyles creates the table rendering styles.
func NewTableStyles() *TableStyles {
	return &TableStyles{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#DDDDDD"}),
		Dim: lipgloss.NewStyle().Foreground(ColorMuted),
	}
}

// ScoreStyle returns the style for an auto_score cell: green at eighty
// percent of the rubric maximum or better, yellow at half, red below.
func ScoreStyle(score, maxScore float64) lipgloss.Style {
	if maxScore <= 0 {
		return lipgloss.NewStyle()
	}
	switch frac := score / maxScore; {
	case frac >= 0.8:
		return lipgloss.NewStyle().Foreground(ColorSuccess)
	case frac >= 0.5:
		return lipgloss.NewStyle().Foreground(ColorWarning)
	default:
		return lipgloss.NewStyle().Foreground(ColorError)
	}
}

// CheckNoColor disables the lipgloss color profile when the environment asks
// for plain output. Call at the start of commands that render styled text.
func CheckNoColor() {
	if !HasColorSupport() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// HasColorSupport returns true if the terminal supports colors.
// Returns false if NO_COLOR is set (any value, including empty) or
// TERM=dumb, per the NO_COLOR convention (https://no-color.org/).
func HasColorSupport() bool {
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return true
}
