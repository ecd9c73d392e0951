package models

import (
	"strings"

	"github.com/Rhymond/go-money"
)

// NormalizeCurrency upper-cases and trims a currency code.
func NormalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsValidCurrency reports whether code is a known ISO 4217 currency code.
func IsValidCurrency(code string) bool {
	code = NormalizeCurrency(code)
	if len(code) != 3 {
		return false
	}
	return money.GetCurrency(code) != nil
}

// CurrencyFraction returns the number of minor-unit digits of a currency (2 when unknown).
func CurrencyFraction(code string) int32 {
	if c := money.GetCurrency(NormalizeCurrency(code)); c != nil {
		return int32(c.Fraction)
	}
	return 2
}
