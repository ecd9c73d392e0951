// Package models defines the core domain models of the wallet ledger.
//
// # Entities
//
//   - Wallet: a money container with its own currency and cached balance
//   - Transaction: an expense, income or transfer touching one or two wallets
//   - Loan: a receivable (lend) or payable (borrow) settled by tagged transactions
//   - Category, Budget, SavingsGoal, SubLedger: reporting entities used by aggregation
//   - User: the owner of every other entity
//
// # Design Principles
//
//  1. **Owner scoping**: every entity carries the owning user ID; lookups are always by (id, owner)
//  2. **Exact money**: amounts and rates are decimal.Decimal, never float64
//  3. **No pointers between entities**: relationships are ID strings
//  4. **Derived fields are marked**: Wallet.Balance and Loan.PaidAmount/Status are caches owned by the ledger
//
// # Rate Convention
//
// An exchange rate R between currencies A and B always means "1 A = R B".
// Callers invert with calculator.Invert when they need the other direction.
package models
