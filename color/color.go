// Package color names the terminal colors used for output.
package color

import "github.com/charmbracelet/lipgloss"

// New wraps an ANSI code or a hex value.
func New(value string) lipgloss.Color {
	return lipgloss.Color(value)
}

// ANSI colors follow the terminal's theme.
var (
	Red      = New("1")
	Green    = New("2")
	Yellow   = New("3")
	Blue     = New("4")
	Purple   = New("5")
	Cyan     = New("6")
	White    = New("7")
	HiPurple = New("13")
)

// Gray is fixed so faded text stays readable on any theme.
var Gray = New("#808080")
