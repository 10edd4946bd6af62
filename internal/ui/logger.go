package ui

import (
	"fmt"
	"time"
)

// LogStatus displays a status message with appropriate styling
func LogStatus(category, message string) {
	ts := Muted("%s", time.Now().Format("15:04:05"))

	var icon, styledMsg string
	switch category {
	case "success":
		icon = Success("✔")
		styledMsg = Success("%s", message)
	case "error":
		icon = Error("✖")
		styledMsg = Error("%s", message)
	case "warning":
		icon = Warn("⚠")
		styledMsg = Warn("%s", message)
	case "info":
		icon = Info("ℹ")
		styledMsg = Subtle("%s", message)
	default:
		icon = Muted("●")
		styledMsg = Subtle("%s", message)
	}

	fmt.Printf("%s  %s  %s\n", ts, icon, styledMsg)
}

// statsWidth is the visible width the stats line pads to, so a shorter
// refresh fully overwrites the previous one.
var statsWidth int

// RenderStatsLine redraws the single carriage-return statistics line:
// connection counters, traffic totals and current rates.
func RenderStatsLine(total, allowed, fragmented uint64, bytesIn, bytesOut uint64, rateIn, rateOut float64) {
	line := Accent("[STATS]") +
		Subtle(" Conns: ") + Warn("%d", total) +
		Subtle(" | Miss: ") + Success("%d", allowed) +
		Subtle(" | Unblock: ") + Error("%d", fragmented) +
		Subtle(" | DL: ") + Info("%s", FormatSize(float64(bytesIn))) +
		Subtle(" | UL: ") + Info("%s", FormatSize(float64(bytesOut))) +
		Subtle(" | Speed DL: ") + Info("%s", FormatSpeed(rateIn)) +
		Subtle(" | Speed UL: ") + Info("%s", FormatSpeed(rateOut))

	if w := VisibleWidth(line); w >= statsWidth {
		statsWidth = w
	} else {
		line += fmt.Sprintf("%*s", statsWidth-w, "")
	}
	fmt.Printf("\r%s", line)
}

// FormatSize converts a byte count to a human readable size (1024-based)
func FormatSize(size float64) string {
	units := []string{"B", "KB", "MB", "GB"}
	unit := 0
	for size >= 1024 && unit < len(units)-1 {
		size /= 1024
		unit++
	}
	return fmt.Sprintf("%.1f %s", size, units[unit])
}

// FormatSpeed converts a bit rate to a human readable speed (1000-based)
func FormatSpeed(speed float64) string {
	units := []string{"bps", "Kbps", "Mbps", "Gbps"}
	unit := 0
	for speed >= 1000 && unit < len(units)-1 {
		speed /= 1000
		unit++
	}
	return fmt.Sprintf("%.1f %s", speed, units[unit])
}
