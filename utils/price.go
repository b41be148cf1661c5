package utils

import (
	"regexp"
	"strconv"
	"strings"
)

var amountRe = regexp.MustCompile(`\d[\d.,]*`)

// ParsePrice reads the amount out of a display price such as "MXN 1,250.50"
// or "€ 1.250". A single separator followed by exactly three digits is taken
// as a thousands separator.
func ParsePrice(text string) (float64, bool) {
	raw := amountRe.FindString(text)
	raw = strings.TrimRight(raw, ".,")
	if raw == "" {
		return 0, false
	}

	lastComma := strings.LastIndex(raw, ",")
	lastDot := strings.LastIndex(raw, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			raw = strings.ReplaceAll(raw, ".", "")
			raw = strings.Replace(raw, ",", ".", 1)
		} else {
			raw = strings.ReplaceAll(raw, ",", "")
		}
	case lastComma >= 0:
		raw = normalizeSingleSeparator(raw, ",")
	case lastDot >= 0:
		raw = normalizeSingleSeparator(raw, ".")
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func normalizeSingleSeparator(raw, sep string) string {
	parts := strings.Split(raw, sep)
	if len(parts) == 2 && len(parts[1]) != 3 {
		return parts[0] + "." + parts[1]
	}
	return strings.Join(parts, "")
}
