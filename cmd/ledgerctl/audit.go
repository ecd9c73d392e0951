package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"

	"github.com/mmynk/walletledger/internal/models"
)

type auditCmd struct {
	owner string
}

func (*auditCmd) Name() string     { return "audit-balances" }
func (*auditCmd) Synopsis() string { return "compare cached wallet balances with the journal" }
func (*auditCmd) Usage() string {
	return `ledgerctl audit-balances -owner <id>

  Replays every wallet from its opening balance and transactions. Exits
  non-zero when any wallet drifted. Never writes.
`
}

func (c *auditCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.owner, "owner", "", "Owner (user) ID.")
}

func (c *auditCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.owner == "" {
		return fail(fmt.Errorf("-owner is required"))
	}
	store, l, err := openLedger()
	if err != nil {
		return fail(err)
	}
	defer store.Close()

	audits, err := l.AuditBalances(ctx, c.owner)
	if err != nil {
		return fail(err)
	}

	drifted := 0
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WALLET\tCURRENCY\tBALANCE\tEXPECTED\tDRIFT")
	for _, a := range audits {
		if !a.InBalance() {
			drifted++
		}
		// drift stays unrounded so sub-cent differences remain visible
		places := models.CurrencyFraction(a.Wallet.Currency)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", a.Wallet.Name, a.Wallet.Currency,
			a.Wallet.Balance.StringFixed(places), a.Expected.StringFixed(places), a.Drift)
	}
	w.Flush()

	if drifted > 0 {
		fmt.Fprintf(os.Stderr, "%d wallet(s) out of balance\n", drifted)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
