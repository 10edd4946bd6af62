package ui

import (
	"regexp"
	"unicode/utf8"
)

// SGR (Select Graphic Rendition) codes: ESC[...m
var ansiSGRPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// StripAnsi removes ANSI SGR codes from a string
func StripAnsi(input string) string {
	return ansiSGRPattern.ReplaceAllString(input, "")
}

// VisibleWidth returns the display width of a string, ignoring ANSI
// codes. Counts runes, not bytes, for proper Unicode support.
func VisibleWidth(input string) int {
	return utf8.RuneCountInString(StripAnsi(input))
}
