package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"strings"

	"github.com/google/uuid"
	"modernc.org/sqlite"

	"github.com/mmynk/walletledger/internal/models"
	"github.com/mmynk/walletledger/internal/storage"
)

const transactionColumns = `t.id, t.owner_id, t.type, t.amount, t.currency, t.original_amount, t.original_currency,
	t.exchange_rate, t.wallet_id, t.to_wallet_id, t.to_amount, t.to_exchange_rate,
	t.category_id, t.sub_ledger_id, t.loan_id, t.description, t.occurred_on, t.created_at`

// CreateTransaction inserts a transaction record. It does not touch wallet balances.
func (q *queries) CreateTransaction(ctx context.Context, tx *models.Transaction) error {
	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	if tx.CreatedAt == 0 {
		tx.CreatedAt = now()
	}

	_, err := q.db.ExecContext(ctx, `
		INSERT INTO transactions (id, owner_id, type, amount, currency, original_amount, original_currency,
			exchange_rate, wallet_id, to_wallet_id, to_amount, to_exchange_rate,
			category_id, sub_ledger_id, loan_id, description, occurred_on, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.OwnerID, string(tx.Type), tx.Amount.String(), tx.Currency,
		nullDecimal(tx.OriginalAmount), tx.OriginalCurrency, nullDecimal(tx.ExchangeRate),
		nullString(tx.WalletID), nullString(tx.ToWalletID),
		nullDecimal(tx.ToAmount), nullDecimal(tx.ToExchangeRate),
		nullString(tx.CategoryID), nullString(tx.SubLedgerID), nullString(tx.LoanID),
		tx.Description, dateValue(tx.Date), tx.CreatedAt,
	)
	if err != nil {
		return wrapErr("failed to insert transaction", err)
	}
	return nil
}

// GetTransaction retrieves a transaction by ID for its owner.
func (q *queries) GetTransaction(ctx context.Context, id, ownerID string) (*models.Transaction, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions t WHERE t.id = ? AND t.owner_id = ?`,
		id, ownerID,
	)
	tx, err := scanTransaction(row)
	if err != nil {
		return nil, wrapErr("failed to get transaction", err)
	}
	return tx, nil
}

// UpdateTransaction rewrites every stored field of a transaction.
func (q *queries) UpdateTransaction(ctx context.Context, tx *models.Transaction) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE transactions
		SET type = ?, amount = ?, currency = ?, original_amount = ?, original_currency = ?,
			exchange_rate = ?, wallet_id = ?, to_wallet_id = ?, to_amount = ?, to_exchange_rate = ?,
			category_id = ?, sub_ledger_id = ?, loan_id = ?, description = ?, occurred_on = ?
		WHERE id = ? AND owner_id = ?`,
		string(tx.Type), tx.Amount.String(), tx.Currency,
		nullDecimal(tx.OriginalAmount), tx.OriginalCurrency, nullDecimal(tx.ExchangeRate),
		nullString(tx.WalletID), nullString(tx.ToWalletID),
		nullDecimal(tx.ToAmount), nullDecimal(tx.ToExchangeRate),
		nullString(tx.CategoryID), nullString(tx.SubLedgerID), nullString(tx.LoanID),
		tx.Description, dateValue(tx.Date),
		tx.ID, tx.OwnerID,
	)
	if err != nil {
		return wrapErr("failed to update transaction", err)
	}
	return expectOne(res, "failed to update transaction")
}

// DeleteTransaction removes a transaction record.
func (q *queries) DeleteTransaction(ctx context.Context, id, ownerID string) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return wrapErr("failed to delete transaction", err)
	}
	return expectOne(res, "failed to delete transaction")
}

// ListTransactions returns matching transactions, newest first.
func (q *queries) ListTransactions(ctx context.Context, ownerID string, filter storage.TransactionFilter) ([]*models.Transaction, error) {
	where, args := transactionWhere(ownerID, filter)
	query := `SELECT ` + transactionColumns + `
		FROM transactions t LEFT JOIN categories c ON c.id = t.category_id
		WHERE ` + where + `
		ORDER BY t.occurred_on DESC, t.rowid DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, max(filter.Offset, 0))
	}

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("failed to list transactions", err)
	}
	defer rows.Close()

	var txs []*models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, wrapErr("failed to scan transaction", err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("failed to iterate transactions", err)
	}
	return txs, nil
}

// CountTransactions counts matches ignoring Limit and Offset.
func (q *queries) CountTransactions(ctx context.Context, ownerID string, filter storage.TransactionFilter) (int, error) {
	where, args := transactionWhere(ownerID, filter)
	var n int
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions t LEFT JOIN categories c ON c.id = t.category_id WHERE `+where,
		args...,
	).Scan(&n)
	if err != nil {
		return 0, wrapErr("failed to count transactions", err)
	}
	return n, nil
}

// DetachWallet clears both legs that reference the wallet.
func (q *queries) DetachWallet(ctx context.Context, walletID, ownerID string) error {
	if _, err := q.db.ExecContext(ctx,
		`UPDATE transactions SET wallet_id = NULL WHERE wallet_id = ? AND owner_id = ?`,
		walletID, ownerID,
	); err != nil {
		return wrapErr("failed to detach wallet", err)
	}
	if _, err := q.db.ExecContext(ctx,
		`UPDATE transactions SET to_wallet_id = NULL WHERE to_wallet_id = ? AND owner_id = ?`,
		walletID, ownerID,
	); err != nil {
		return wrapErr("failed to detach wallet", err)
	}
	return nil
}

// UnlinkLoan clears the loan link from every repayment of the loan.
func (q *queries) UnlinkLoan(ctx context.Context, loanID, ownerID string) error {
	if _, err := q.db.ExecContext(ctx,
		`UPDATE transactions SET loan_id = NULL WHERE loan_id = ? AND owner_id = ?`,
		loanID, ownerID,
	); err != nil {
		return wrapErr("failed to unlink loan", err)
	}
	return nil
}

func transactionWhere(ownerID string, f storage.TransactionFilter) (string, []any) {
	conds := []string{"t.owner_id = ?"}
	args := []any{ownerID}

	if !f.Start.IsZero() {
		conds = append(conds, "t.occurred_on >= ?")
		args = append(args, dateValue(f.Start))
	}
	if !f.End.IsZero() {
		conds = append(conds, "t.occurred_on <= ?")
		args = append(args, dateValue(f.End))
	}
	if f.CategoryID != "" {
		conds = append(conds, "t.category_id = ?")
		args = append(args, f.CategoryID)
	}
	if f.SubLedgerID != "" {
		conds = append(conds, "t.sub_ledger_id = ?")
		args = append(args, f.SubLedgerID)
	}
	if f.LoanID != "" {
		conds = append(conds, "t.loan_id = ?")
		args = append(args, f.LoanID)
	}
	if f.WalletID != "" {
		conds = append(conds, "(t.wallet_id = ? OR t.to_wallet_id = ?)")
		args = append(args, f.WalletID, f.WalletID)
	}
	if f.Type != "" {
		conds = append(conds, "t.type = ?")
		args = append(args, string(f.Type))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		pattern := "%" + escapeLike(strings.ToLower(s)) + "%"
		conds = append(conds, `(fold(t.description) LIKE ? ESCAPE '\' OR fold(COALESCE(c.name, '')) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}
	return strings.Join(conds, " AND "), args
}

func init() {
	sqlite.MustRegisterDeterministicScalarFunction("fold", 1, foldText)
}

// foldText lower-cases text the way the Go side folds search terms.
// SQLite's LOWER only folds ASCII.
func foldText(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}

// escapeLike makes the LIKE wildcards literal.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func scanTransaction(row scanner) (*models.Transaction, error) {
	tx := &models.Transaction{}
	var txType string
	var walletID, toWalletID, categoryID, subID, loanID, occurredOn sql.NullString
	err := row.Scan(
		&tx.ID, &tx.OwnerID, &txType, &tx.Amount, &tx.Currency,
		&tx.OriginalAmount, &tx.OriginalCurrency, &tx.ExchangeRate,
		&walletID, &toWalletID, &tx.ToAmount, &tx.ToExchangeRate,
		&categoryID, &subID, &loanID, &tx.Description, &occurredOn, &tx.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	tx.Type = models.TransactionType(txType)
	tx.WalletID = walletID.String
	tx.ToWalletID = toWalletID.String
	tx.CategoryID = categoryID.String
	tx.SubLedgerID = subID.String
	tx.LoanID = loanID.String
	if tx.Date, err = parseDate(occurredOn); err != nil {
		return nil, err
	}
	return tx, nil
}
