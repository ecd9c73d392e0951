package ledger

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/mmynk/walletledger/internal/calculator"
	"github.com/mmynk/walletledger/internal/models"
	"github.com/mmynk/walletledger/internal/storage"
)

// BalanceAudit compares a cached wallet balance with the one replayed from
// the journal.
type BalanceAudit struct {
	Wallet   *models.Wallet
	Expected decimal.Decimal
	Drift    decimal.Decimal
}

// InBalance reports whether the cached balance matches the journal.
func (a BalanceAudit) InBalance() bool {
	return a.Drift.IsZero()
}

// AuditBalances replays every wallet of the owner from its opening balance
// and the journal. It never writes.
func (l *Ledger) AuditBalances(ctx context.Context, ownerID string) ([]BalanceAudit, error) {
	const op = "ledger.AuditBalances"
	if err := requireOwner(op, ownerID); err != nil {
		return nil, err
	}

	var out []BalanceAudit
	err := l.store.InTx(ctx, func(q storage.Queries) error {
		wallets, err := q.ListWallets(ctx, ownerID, true)
		if err != nil {
			return err
		}
		for _, w := range wallets {
			txs, err := q.ListTransactions(ctx, ownerID, storage.TransactionFilter{WalletID: w.ID})
			if err != nil {
				return err
			}
			expected := calculator.ReplayBalance(w.ID, w.OpeningBalance, txs)
			out = append(out, BalanceAudit{
				Wallet:   w,
				Expected: expected,
				Drift:    w.Balance.Sub(expected),
			})
		}
		return nil
	})
	if err != nil {
		return nil, wrap(op, err)
	}
	return out, nil
}
