// Package format renders amounts and counts for display surfaces
// (dashboard metrics, CLI tables). Monetary values are Canadian dollars.
package format

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.MustParse("en-CA"))

// CAD formats a dollar amount with thousands separators and no cents,
// e.g. 11800000 -> "$11,800,000".
func CAD(amount float64) string {
	return printer.Sprintf("$%d", int64(math.Round(amount)))
}

// CADCompact abbreviates large amounts for metric cards,
// e.g. "$11.8M", "$2.3B". Values under a million fall back to CAD.
func CADCompact(amount float64) string {
	abs := math.Abs(amount)
	switch {
	case abs >= 1e9:
		return printer.Sprintf("$%.1fB", amount/1e9)
	case abs >= 1e6:
		return printer.Sprintf("$%.1fM", amount/1e6)
	default:
		return CAD(amount)
	}
}

// Count formats an integer with thousands separators.
func Count(n int) string {
	return printer.Sprintf("%d", n)
}

// Percent formats a 0..1 share as a percentage with one decimal.
func Percent(share float64) string {
	return printer.Sprintf("%.1f%%", share*100)
}
