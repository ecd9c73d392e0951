package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/walletledger/internal/models"
)

// Effects maps wallet IDs to the signed balance change a transaction applies.
type Effects map[string]decimal.Decimal

// add accumulates delta on walletID, ignoring detached legs.
func (e Effects) add(walletID string, delta decimal.Decimal) {
	if walletID == "" {
		return
	}
	e[walletID] = e[walletID].Add(delta)
}

// TransactionEffects computes the balance changes of tx:
//   - expense: source -= amount
//   - income: source += amount
//   - transfer: source -= amount, destination += destination amount (or amount)
func TransactionEffects(tx *models.Transaction) Effects {
	e := make(Effects, 2)
	if tx == nil {
		return e
	}
	switch tx.Type {
	case models.TypeExpense:
		e.add(tx.WalletID, tx.Amount.Neg())
	case models.TypeIncome:
		e.add(tx.WalletID, tx.Amount)
	case models.TypeTransfer:
		e.add(tx.WalletID, tx.Amount.Neg())
		e.add(tx.ToWalletID, tx.CreditedAmount())
	}
	return e
}

// Negate returns the effects that undo e.
func (e Effects) Negate() Effects {
	out := make(Effects, len(e))
	for id, d := range e {
		out[id] = d.Neg()
	}
	return out
}

// Merge adds other into a copy of e and drops wallets whose net change is zero.
func (e Effects) Merge(other Effects) Effects {
	out := make(Effects, len(e)+len(other))
	for id, d := range e {
		out.add(id, d)
	}
	for id, d := range other {
		out.add(id, d)
	}
	for id, d := range out {
		if d.IsZero() {
			delete(out, id)
		}
	}
	return out
}

// Rewrite returns the net balance changes of replacing before with after.
// The old effects are reversed before the new ones are applied, so an edit
// never double-counts. A nil before means creation, a nil after means deletion.
func Rewrite(before, after *models.Transaction) Effects {
	reversed := make(Effects)
	if before != nil {
		reversed = TransactionEffects(before).Negate()
	}
	applied := make(Effects)
	if after != nil {
		applied = TransactionEffects(after)
	}
	return reversed.Merge(applied)
}

// ReplayBalance recomputes a wallet balance from its seed and the journal.
func ReplayBalance(walletID string, opening decimal.Decimal, txs []*models.Transaction) decimal.Decimal {
	balance := opening
	for _, tx := range txs {
		if d, ok := TransactionEffects(tx)[walletID]; ok {
			balance = balance.Add(d)
		}
	}
	return balance
}
