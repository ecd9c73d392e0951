package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
)

type seedCmd struct {
	owner    string
	currency string
}

func (*seedCmd) Name() string     { return "seed" }
func (*seedCmd) Synopsis() string { return "create the default wallet and categories of an owner" }
func (*seedCmd) Usage() string {
	return `ledgerctl seed -owner <id> [-currency <code>]

  Inserts the default "Cash" wallet and categories that are missing. Safe to
  run any number of times. The currency defaults to the user's.
`
}

func (c *seedCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.owner, "owner", "", "Owner (user) ID.")
	f.StringVar(&c.currency, "currency", "", "Currency of the default wallet.")
}

func (c *seedCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.owner == "" {
		return fail(fmt.Errorf("-owner is required"))
	}
	store, l, err := openLedger()
	if err != nil {
		return fail(err)
	}
	defer store.Close()

	currency := c.currency
	if currency == "" {
		user, err := store.GetUserByID(ctx, c.owner)
		if err != nil {
			return fail(fmt.Errorf("no -currency given and user %s not found: %w", c.owner, err))
		}
		currency = user.DefaultCurrency
	}

	res, err := l.InitializeDefaults(ctx, c.owner, currency)
	if err != nil {
		return fail(err)
	}
	fmt.Printf("wallet created: %t, categories created: %d\n", res.WalletCreated, res.CategoriesCreated)
	return subcommands.ExitSuccess
}
