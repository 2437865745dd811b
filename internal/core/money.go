// Package core provides money parsing and handling utilities.
//
// Amounts travel through the ledger as integer cents. This file turns user
// supplied decimal strings into cents and renders cents back as fixed-point
// text, using exact decimal arithmetic in both directions.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ParseAmountToCents converts a non-negative decimal numeral into cents.
//
// The input may carry at most two fractional digits and no sign. Values
// with a residual fraction after scaling by 100 are rejected, never rounded.
//
// Examples:
//
//	ParseAmountToCents("10.05") -> 1005, nil
//	ParseAmountToCents("1.2")   -> 120, nil
//	ParseAmountToCents("1.234") -> 0, *ValidationError
func ParseAmountToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, invalid("amount", "amount required")
	}
	if strings.HasPrefix(s, "-") {
		return 0, invalid("amount", "amount must be non-negative")
	}
	if !isPlainDecimal(s) {
		return 0, invalid("amount", "amount invalid")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, invalid("amount", "amount invalid")
	}

	scaled := d.Mul(hundred)
	if !scaled.IsInteger() {
		return 0, invalid("amount", "amount supports up to 2 decimals")
	}
	cents := scaled.BigInt()
	if !cents.IsInt64() {
		return 0, invalid("amount", "amount too large")
	}
	return cents.Int64(), nil
}

// FormatCents renders cents as a decimal string with exactly two
// fractional digits ("1234" -> "12.34", "5" -> "0.05").
func FormatCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// isPlainDecimal accepts digits with at most one decimal point and at
// least one digit. Exponents, signs and separators are refused.
func isPlainDecimal(s string) bool {
	digits := 0
	dots := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.':
			dots++
			if dots > 1 {
				return false
			}
		default:
			return false
		}
	}
	return digits > 0
}
