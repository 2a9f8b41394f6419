// Package style centralizes terminal presentation for the takeoff CLI.
package style

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss/v2"
)

var (
	// Color palette
	ErrorColor   = lipgloss.Color("#FF6B6B")
	ErrorBgColor = lipgloss.Color("#3D2020")
	WarningColor = lipgloss.Color("#FFA726")
	SuccessColor = lipgloss.Color("#66BB6A")
	InfoColor    = lipgloss.Color("#42A5F5")
	MutedColor   = lipgloss.Color("#6C757D")
	AccentColor  = lipgloss.Color("#7C3AED")
	CodeColor    = lipgloss.Color("#D4D4D4")

	PrimaryTextColor = lipgloss.Color("#E4E4E7")

	// Base styles
	ErrorStyle   = lipgloss.NewStyle().Foreground(ErrorColor).Bold(true)
	WarningStyle = lipgloss.NewStyle().Foreground(WarningColor).Bold(true)
	SuccessStyle = lipgloss.NewStyle().Foreground(SuccessColor).Bold(true)
	InfoStyle    = lipgloss.NewStyle().Foreground(InfoColor).Bold(true)
	MutedStyle   = lipgloss.NewStyle().Foreground(MutedColor)
	AccentStyle  = lipgloss.NewStyle().Foreground(AccentColor)

	HeaderStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

// ErrorIcon returns the styled error marker.
func ErrorIcon() string { return ErrorStyle.Render("✗") }

// WarningIcon returns the styled warning marker.
func WarningIcon() string { return WarningStyle.Render("⚠") }

// SuccessIcon returns the styled success marker.
func SuccessIcon() string { return SuccessStyle.Render("✓") }

// InfoIcon returns the styled info marker.
func InfoIcon() string { return InfoStyle.Render("ℹ") }

// Errorf writes a styled error line.
func Errorf(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, "%s %s\n", ErrorIcon(), fmt.Sprintf(format, args...))
}

// Warningf writes a styled warning line.
func Warningf(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, "%s %s\n", WarningIcon(), fmt.Sprintf(format, args...))
}

// Successf writes a styled success line.
func Successf(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, "%s %s\n", SuccessIcon(), fmt.Sprintf(format, args...))
}

// Infof writes a styled info line.
func Infof(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, "%s %s\n", InfoIcon(), fmt.Sprintf(format, args...))
}
