package trading

import (
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// ParsePositive parses a user-entered amount. It reports false for empty,
// non-numeric, non-finite and non-positive input.
func ParsePositive(raw string) (decimal.Decimal, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || !d.IsPositive() {
		return decimal.Zero, false
	}
	return d, true
}

// ParseOptional parses an amount that may be left blank. ok is false only
// when raw is non-blank and not a positive number.
func ParseOptional(raw string) (d *decimal.Decimal, ok bool) {
	if strings.TrimSpace(raw) == "" {
		return nil, true
	}
	v, ok := ParsePositive(raw)
	if !ok {
		return nil, false
	}
	return &v, true
}

// FormatGrouped renders an amount with thousands separators and two decimals
func FormatGrouped(d decimal.Decimal) string {
	return humanize.FormatFloat("#,###.##", d.Round(2).InexactFloat64())
}
