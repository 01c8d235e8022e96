// Package report renders simulation results for terminals and scripts.
// It only formats; the numbers it is given are never altered.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
)

var thousand = decimal.NewFromInt(1000)

// Money formats an amount in millions: "$438.0M", or "$2.61B" once the
// rounded amount reaches a thousand million.
func Money(millions float64) string {
	d := decimal.NewFromFloat(millions)
	if d.Abs().Round(1).GreaterThanOrEqual(thousand) {
		return "$" + d.Div(thousand).StringFixed(2) + "B"
	}
	return "$" + d.StringFixed(1) + "M"
}

// Percent formats a probability in [0, 1] as "12.3%".
func Percent(p float64) string {
	return decimal.NewFromFloat(p).Shift(2).StringFixed(1) + "%"
}

// Count formats a mean project count with one decimal.
func Count(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(1)
}

// Share formats part as a percentage of whole, or "-" when whole is zero.
func Share(part, whole float64) string {
	if whole == 0 {
		return "-"
	}
	return decimal.NewFromFloat(part).Div(decimal.NewFromFloat(whole)).Shift(2).StringFixed(1) + "%"
}

// WriteJSON writes v as indented JSON followed by a newline.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	return nil
}

// truncate shortens s to maxLen runes, marking the cut with "...".
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

func rule(n int) string {
	return strings.Repeat("-", n)
}
