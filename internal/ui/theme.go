package ui

import (
	"os"
	"strings"

	"github.com/fatih/color"
)

// Styled text helpers for consistent CLI output.
// Respects NO_COLOR and FORCE_COLOR environment variables.

var (
	noColor    = os.Getenv("NO_COLOR") != ""
	forceColor = isForceColor()
)

func isForceColor() bool {
	fc := strings.TrimSpace(os.Getenv("FORCE_COLOR"))
	return fc != "" && fc != "0"
}

func init() {
	if forceColor {
		color.NoColor = false
	}
}

// IsRich returns true if the terminal supports rich output (colors)
func IsRich() bool {
	if noColor && !forceColor {
		return false
	}
	return color.NoColor == false
}

// Accent returns primary brand-colored text
func Accent(format string, a ...interface{}) string {
	return color.New(color.FgHiGreen).Sprintf(format, a...)
}

// AccentDim returns muted accent text
func AccentDim(format string, a ...interface{}) string {
	return color.New(color.FgGreen).Sprintf(format, a...)
}

// Heading returns bold accent text for section headers
func Heading(format string, a ...interface{}) string {
	return color.New(color.FgHiGreen, color.Bold).Sprintf(format, a...)
}

// Info returns informational styled text
func Info(format string, a ...interface{}) string {
	return color.New(color.FgHiCyan).Sprintf(format, a...)
}

// Success returns success-styled text
func Success(format string, a ...interface{}) string {
	return color.New(color.FgGreen).Sprintf(format, a...)
}

// Warn returns warning-styled text
func Warn(format string, a ...interface{}) string {
	return color.New(color.FgYellow).Sprintf(format, a...)
}

// Error returns error-styled text
func Error(format string, a ...interface{}) string {
	return color.New(color.FgRed).Sprintf(format, a...)
}

// Muted returns secondary/hint text
func Muted(format string, a ...interface{}) string {
	return color.New(color.FgHiBlack).Sprintf(format, a...)
}

// Subtle returns subtle white text
func Subtle(format string, a ...interface{}) string {
	return color.New(color.FgWhite).Sprintf(format, a...)
}

// Bold returns bold white text
func Bold(format string, a ...interface{}) string {
	return color.New(color.FgWhite, color.Bold).Sprintf(format, a...)
}
