// Package calculator holds the pure arithmetic of the ledger: currency
// conversion, wallet balance effects, loan reconciliation and aggregation.
// Nothing in here touches storage.
package calculator

import (
	"errors"

	"github.com/shopspring/decimal"
)

// ErrInvalidRate is returned when an exchange rate is zero or negative.
var ErrInvalidRate = errors.New("exchange rate must be positive")

// divisionPrecision is the number of decimal places kept by rate divisions.
const divisionPrecision = 16

var one = decimal.NewFromInt(1)

// Convert converts amount with rate, where rate means "1 source = rate target".
// No rounding is applied.
func Convert(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate)
}

// Invert returns the rate for the opposite direction (1/rate).
func Invert(rate decimal.Decimal) (decimal.Decimal, error) {
	if !rate.IsPositive() {
		return decimal.Zero, ErrInvalidRate
	}
	return one.DivRound(rate, divisionPrecision), nil
}

// ToLoanCurrency normalizes a repayment recorded in a wallet currency back
// into the loan currency. The stored rate is "1 loan currency = rate wallet
// currency", so the loan-currency value is amount / rate.
func ToLoanCurrency(amount, rate decimal.Decimal) (decimal.Decimal, error) {
	if !rate.IsPositive() {
		return decimal.Zero, ErrInvalidRate
	}
	return amount.DivRound(rate, divisionPrecision), nil
}
