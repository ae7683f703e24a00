package display

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Count formats a resource quantity the way the player sees it: floored and
// digit-grouped ("1,234,567").
func Count(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	v = math.Floor(v)
	if v >= math.MaxInt64 || v < math.MinInt64 {
		return printer.Sprintf("%.0f", v)
	}
	return printer.Sprintf("%d", int64(v))
}

// Rate formats a per-second rate with one decimal place ("1,234.5").
func Rate(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0.0"
	}
	return printer.Sprintf("%.1f", v)
}

// Percent renders a 0-100 progress value as "42%".
func Percent(v int) string {
	return printer.Sprintf("%d%%", v)
}
