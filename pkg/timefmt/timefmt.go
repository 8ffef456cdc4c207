// Package timefmt renders play time the way the save list shows it.
package timefmt

import (
	"fmt"
	"math"
	"time"
)

// Format renders seconds as "{d}d {h}h {m}m {s}s", dropping leading zero days
// and hours. Minutes and seconds are always present. Every component is
// truncated, never rounded. Negative, infinite and NaN input renders as "0m 0s".
func Format(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		seconds = 0
	}
	total := uint64(math.Floor(seconds))

	secs := total % 60
	minutes := (total / 60) % 60
	hours := (total / 3600) % 24
	days := total / 86400

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, secs)
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, secs)
	default:
		return fmt.Sprintf("%dm %ds", minutes, secs)
	}
}

// FormatDuration is Format for a time.Duration.
func FormatDuration(d time.Duration) string {
	return Format(d.Seconds())
}
