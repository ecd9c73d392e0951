package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/mmynk/walletledger/internal/storage/sqlite"
)

type migrateCmd struct{}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "apply pending schema migrations" }
func (*migrateCmd) Usage() string {
	return `ledgerctl [-db <path>] migrate

  Brings the database schema up to date and prints the applied version.
`
}

func (*migrateCmd) SetFlags(*flag.FlagSet) {}

func (*migrateCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := sqlite.RunMigrations(dbPath); err != nil {
		return fail(err)
	}
	version, dirty, err := sqlite.SchemaVersion(dbPath)
	if err != nil {
		return fail(err)
	}
	fmt.Printf("schema version %d (dirty=%t)\n", version, dirty)
	return subcommands.ExitSuccess
}
