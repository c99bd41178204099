package miscutils

import (
	"fmt"
	"math"
	"time"
)

// FormatDuration formats d with a unit that matches its magnitude.
func FormatDuration(d time.Duration) string {
	if d == 0 {
		return "0s"
	}

	// Format based on magnitude.
	switch {
	case d < time.Microsecond:
		return fmt.Sprintf("%.0fns", float64(d.Nanoseconds()))
	case d < time.Millisecond:
		return fmt.Sprintf("%.2fμs", float64(d.Nanoseconds())/1000)
	case d < time.Second:
		return fmt.Sprintf("%.2fms", float64(d.Nanoseconds())/1000000)
	default:
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
}

// FormatCount shortens large counts, e.g. 1520 becomes "1.52K".
func FormatCount(n float64) string {
	switch {
	case n >= 1e9:
		return fmt.Sprintf("%.2fG", n/1e9)
	case n >= 1e6:
		return fmt.Sprintf("%.2fM", n/1e6)
	case n >= 1e3:
		return fmt.Sprintf("%.2fK", n/1e3)
	default:
		return fmt.Sprintf("%.0f", n)
	}
}

// FormatFloat formats v with the given precision, printing "nan" for the empty-sample sentinel.
func FormatFloat(v float64, precision int) string {
	if math.IsNaN(v) {
		return "nan"
	}
	return fmt.Sprintf("%.*f", precision, v)
}
