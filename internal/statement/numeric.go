package statement

import (
	"regexp"
	"strconv"
)

var nonNumericRe = regexp.MustCompile(`[^\d.]`)

// cleanNumeric extracts a float from a formatted cell value by stripping
// every character except digits and the decimal point. Empty or unparsable
// cells yield 0.0.
func cleanNumeric(value string) float64 {
	cleaned := nonNumericRe.ReplaceAllString(value, "")
	if cleaned == "" {
		return 0.0
	}
	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0.0
	}
	return parsed
}
