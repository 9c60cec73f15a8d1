package services

import (
	"fmt"
	"math"
	"strconv"
)

// Clock times are persisted in seconds but the host (and the UI) speak
// decimal minutes. The rendering picks the coarsest precision that still
// round-trips: "5" for 300s, "1.5" for 90s, "2.08" for 125s.

// FormatClockMinutes renders a clock time stored in seconds as a decimal
// minutes string.
func FormatClockMinutes(seconds int) string {
	minutes := float64(seconds) / 60
	if minutes == math.Floor(minutes) {
		return strconv.Itoa(int(minutes))
	}
	if minutes*10 == math.Floor(minutes*10) {
		return strconv.FormatFloat(minutes, 'f', 1, 64)
	}
	return strconv.FormatFloat(minutes, 'f', 2, 64)
}

// ParseClockMinutes converts a decimal minutes string back to whole seconds.
// Rounding (not truncation) keeps two-decimal renderings like "2.08"
// recovering their original 125 seconds.
func ParseClockMinutes(value string) (int, error) {
	minutes, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number of minutes", ErrInvalidClockTime, value)
	}
	if minutes < 0 {
		return 0, fmt.Errorf("%w: %q is negative", ErrInvalidClockTime, value)
	}
	return int(math.Round(minutes * 60)), nil
}
