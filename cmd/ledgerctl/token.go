package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/google/subcommands"

	"github.com/mmynk/walletledger/internal/auth"
	"github.com/mmynk/walletledger/internal/storage/sqlite"
)

type tokenCmd struct {
	email string
	ttl   time.Duration
}

func (*tokenCmd) Name() string     { return "token" }
func (*tokenCmd) Synopsis() string { return "issue a session token for a user" }
func (*tokenCmd) Usage() string {
	return `ledgerctl token -email <address> [-ttl <duration>]

  Signs a token with JWT_SECRET for scripted access to the API.
`
}

func (c *tokenCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.email, "email", "", "Email of the user.")
	f.DurationVar(&c.ttl, "ttl", time.Hour, "Token lifetime.")
}

func (c *tokenCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	cfg := configFrom(args)
	if cfg.JWTSecret == "" {
		return fail(fmt.Errorf("JWT_SECRET is not set"))
	}
	if c.email == "" {
		return fail(fmt.Errorf("-email is required"))
	}

	store, err := sqlite.New(dbPath)
	if err != nil {
		return fail(err)
	}
	defer store.Close()

	user, err := store.GetUserByEmail(ctx, c.email)
	if err != nil {
		return fail(fmt.Errorf("user %s: %w", c.email, err))
	}
	token, err := auth.NewJWTManager(cfg.JWTSecret, c.ttl).Generate(user)
	if err != nil {
		return fail(err)
	}
	fmt.Println(token)
	return subcommands.ExitSuccess
}
