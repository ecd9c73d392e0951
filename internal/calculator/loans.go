package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/walletledger/internal/models"
)

// SettlementEpsilon is the tolerance under the total at which a loan counts as settled.
var SettlementEpsilon = decimal.RequireFromString("0.01")

// LoanState is the derived part of a loan.
type LoanState struct {
	Paid   decimal.Decimal
	Status models.LoanStatus

	// Counted is the number of transactions that contributed to Paid.
	Counted int

	// Unconverted counts cross-currency repayments without a usable rate;
	// they were added at face value.
	Unconverted int
}

// ReconcileLoan recomputes paid amount and status from every transaction
// linked to the loan. It is a pure function of its inputs, so repeated calls
// with the same journal give the same state.
//
// Algorithm:
//   - lend loans count income, borrow loans count expense; other types are ignored
//   - amounts in a currency other than the loan's are divided by the stored rate
//   - paid >= total - 0.01 settles the loan
//   - a settled loan that is no longer covered goes back to active
//   - any other status (active, bad_debt) is left unchanged
func ReconcileLoan(loan *models.Loan, txs []*models.Transaction) LoanState {
	state := LoanState{Status: loan.Status}
	if !state.Status.Valid() {
		state.Status = models.LoanActive
	}

	want := loan.Direction.RepaymentType()
	total := decimal.Zero
	for _, tx := range txs {
		if tx.LoanID != loan.ID || tx.Type != want {
			continue
		}
		amount := tx.Amount
		if tx.Currency != "" && tx.Currency != loan.Currency {
			if tx.ExchangeRate.Valid {
				if v, err := ToLoanCurrency(tx.Amount, tx.ExchangeRate.Decimal); err == nil {
					amount = v
				} else {
					state.Unconverted++
				}
			} else {
				state.Unconverted++
			}
		}
		total = total.Add(amount)
		state.Counted++
	}

	state.Paid = total.Round(2)

	switch {
	case total.GreaterThanOrEqual(loan.TotalAmount.Sub(SettlementEpsilon)):
		state.Status = models.LoanSettled
	case state.Status == models.LoanSettled:
		state.Status = models.LoanActive
	}
	return state
}
