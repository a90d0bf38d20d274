// Package money converts between the upstream's minor-unit integer prices
// (cents) and display decimals, and normalizes quantities.
package money

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MinorUnit is the number of minor units per major currency unit.
const MinorUnit = 100

// ParsePrice converts a decimal price string to minor units (cents).
// The upstream emits prices like "29.00"; comma decimal separators and
// surrounding whitespace are accepted. Invalid or empty input yields 0.
func ParsePrice(price string) int64 {
	s := strings.TrimSpace(strings.ReplaceAll(price, ",", "."))
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int64(math.Round(f * MinorUnit))
}

// ParseMinor parses a minor-unit integer string ("2980") as emitted by the
// session cart API. Invalid input yields 0.
func ParseMinor(price string) int64 {
	s := strings.TrimSpace(price)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// FormatMinor renders a minor-unit amount as a decimal string ("29.80").
func FormatMinor(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/MinorUnit, cents%MinorUnit)
}

// FormatEUR renders a minor-unit amount with the euro suffix used by the
// storefront ("29,80 €").
func FormatEUR(cents int64) string {
	s := FormatMinor(cents)
	return strings.Replace(s, ".", ",", 1) + " €"
}

// ClampQuantity normalizes a requested quantity to the minimum of 1.
func ClampQuantity(q int) int {
	if q < 1 {
		return 1
	}
	return q
}
