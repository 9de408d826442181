package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// parseFloat converts an OCR numeric token. Values go through decimal so that percentage
// scaling and rounding do not pick up binary floating point noise.
func parseFloat(s string) (float64, error) {
	d, err := decimal.NewFromString(strings.TrimPrefix(strings.TrimSpace(s), "+"))
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", s, err)
	}
	f, _ := d.Float64()
	return f, nil
}

// parseGroupedFloat parses a number that may carry thousands separators.
func parseGroupedFloat(s string) (float64, error) {
	return parseFloat(strings.ReplaceAll(s, ",", ""))
}

// parseInt converts an integer token.
func parseInt(s string) (float64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q: %w", s, err)
	}
	return float64(n), nil
}

// parsePercent converts "12.34%" to 0.1234. places < 0 disables rounding.
func parsePercent(s string, places int32) (float64, error) {
	d, err := decimal.NewFromString(strings.Trim(strings.TrimSpace(s), "%"))
	if err != nil {
		return 0, fmt.Errorf("invalid percentage %q: %w", s, err)
	}
	d = d.Div(hundred)
	if places >= 0 {
		d = d.Round(places)
	}
	f, _ := d.Float64()
	return f, nil
}
