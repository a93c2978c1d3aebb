// Package ui renders deploy outcomes for the operator.
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	Red    = lipgloss.AdaptiveColor{Light: "#D70000", Dark: "#FF5F5F"}
	Yellow = lipgloss.AdaptiveColor{Light: "#AF8700", Dark: "#FFD75F"}
	Green  = lipgloss.AdaptiveColor{Light: "#008700", Dark: "#5FD787"}
	Cyan   = lipgloss.AdaptiveColor{Light: "#0087AF", Dark: "#5FD7FF"}
	Feint  = lipgloss.AdaptiveColor{Light: "#8A8A8A", Dark: "#6C6C6C"}

	TextStyle = lipgloss.NewStyle()
	BoldStyle = lipgloss.NewStyle().Bold(true)

	bannerStyle = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(Red).
			Padding(0, 1)
)

// RenderError renders a fatal message.
func RenderError(msg string) string {
	return BoldStyle.Copy().Foreground(Red).Render("Error: ") + TextStyle.Copy().Foreground(Red).Render(msg)
}

// RenderWarning renders a non-fatal problem.
func RenderWarning(msg string) string {
	return TextStyle.Copy().Foreground(Yellow).Render(msg)
}

// RenderSuccess renders a completed step.
func RenderSuccess(msg string) string {
	return BoldStyle.Copy().Foreground(Green).Render(msg)
}

// RenderInfo renders a progress or informational line.
func RenderInfo(msg string) string {
	return TextStyle.Copy().Foreground(Cyan).Render(msg)
}

// RenderFeint renders secondary detail.
func RenderFeint(msg string) string {
	return TextStyle.Copy().Foreground(Feint).Render(msg)
}

// RenderBanner renders a boxed, impossible-to-miss message.
func RenderBanner(lines ...string) string {
	body := BoldStyle.Copy().Foreground(Red).Render(strings.Join(lines, "\n"))
	return bannerStyle.Render(body)
}
