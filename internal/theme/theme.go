package theme

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
)

// HeaderStyle is used for command output headings.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// LabelStyle is used for field names in key/value output.
var LabelStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Width(12)

// HelpStyle is used for usage hints.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// ErrorStyle is used for the final error line printed by the CLI.
var ErrorStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorRed)

// StatusStyle returns a color-coded style for a tracker status, a pull
// request state or a commit status state. Matching is case-insensitive.
func StatusStyle(status string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "NEW", "OPEN", "REOPENED", "PENDING":
		return base.Foreground(ColorBlue)
	case "ASSIGNED", "IN PROGRESS", "CODING IN PROGRESS":
		return base.Foreground(ColorYellow)
	case "POST", "PULL REQUEST SENT", "MODIFIED":
		return base.Foreground(ColorMagenta)
	case "ON_QA", "VERIFIED", "RESOLVED", "MERGED", "SUCCESS":
		return base.Foreground(ColorGreen)
	case "FAILURE", "ERROR":
		return base.Foreground(ColorRed)
	default:
		return base.Foreground(ColorGray)
	}
}

// TrackerLabelStyle returns a color-coded style for a tracker name.
func TrackerLabelStyle(tracker string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch tracker {
	case "bugzilla":
		return base.Foreground(ColorRed)
	case "jira":
		return base.Foreground(ColorBlue)
	default:
		return base.Foreground(ColorGray)
	}
}
