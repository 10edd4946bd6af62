package ui

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// ASCII art banner
var banner = []string{
	"███╗   ██╗ ██████╗ ██████╗ ██████╗ ██╗",
	"████╗  ██║██╔═══██╗██╔══██╗██╔══██╗██║",
	"██╔██╗ ██║██║   ██║██║  ██║██████╔╝██║",
	"██║╚██╗██║██║   ██║██║  ██║██╔═══╝ ██║",
	"██║ ╚████║╚██████╔╝██████╔╝██║     ██║",
	"╚═╝  ╚═══╝ ╚═════╝ ╚═════╝ ╚═╝     ╚═╝",
}

var bannerEmitted = false

// FormatBannerArt returns the ASCII banner with gradient coloring
func FormatBannerArt() string {
	if !IsRich() {
		return strings.Join(banner, "\n")
	}

	accent := color.New(color.FgHiGreen, color.Bold)
	accentDim := color.New(color.FgGreen)

	var lines []string
	for _, line := range banner {
		var colored strings.Builder
		for _, ch := range line {
			switch ch {
			case '█', '╗', '╔', '╚', '╝', '║':
				colored.WriteString(accent.Sprint(string(ch)))
			case '═':
				colored.WriteString(accentDim.Sprint(string(ch)))
			default:
				colored.WriteString(Muted("%c", ch))
			}
		}
		lines = append(lines, colored.String())
	}
	return strings.Join(lines, "\n")
}

// FormatBannerLine returns the version/tagline line
func FormatBannerLine(version, tagline string) string {
	title := "◆ NODPI PROXY"
	if IsRich() {
		return fmt.Sprintf("%s %s %s %s",
			Heading("%s", title),
			Info("%s", version),
			Muted("—"),
			AccentDim("%s", tagline))
	}
	return fmt.Sprintf("%s %s — %s", title, version, tagline)
}

// EmitBanner displays the banner once per process
func EmitBanner(version, tagline string) {
	if bannerEmitted {
		return
	}
	bannerEmitted = true

	fmt.Println()
	fmt.Println(FormatBannerArt())
	fmt.Println()
	fmt.Println(FormatBannerLine(version, tagline))
	fmt.Println()
}
