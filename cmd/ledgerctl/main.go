// Command ledgerctl runs maintenance tasks against a ledger database.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path"

	"github.com/google/subcommands"

	"github.com/mmynk/walletledger/internal/config"
	"github.com/mmynk/walletledger/internal/ledger"
	"github.com/mmynk/walletledger/internal/storage/sqlite"
	"github.com/mmynk/walletledger/pkg/logging"
)

var commands = []subcommands.Command{
	&migrateCmd{},
	&seedCmd{},
	&recalcLoansCmd{},
	&auditCmd{},
	&tokenCmd{},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logging.Setup(cfg.Level(), logging.Text)

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	for _, c := range commands {
		commander.Register(c, "")
	}

	flag.StringVar(&dbPath, "db", cfg.DBPath, "Path of the SQLite database.")
	flag.Parse()
	os.Exit(int(commander.Execute(context.Background(), cfg)))
}

var dbPath string

// openLedger opens the store at -db; callers close the store.
func openLedger() (*sqlite.SQLiteStore, *ledger.Ledger, error) {
	store, err := sqlite.New(dbPath)
	if err != nil {
		return nil, nil, err
	}
	return store, ledger.New(store), nil
}

// configFrom extracts the config passed to Execute.
func configFrom(args []interface{}) *config.Config {
	if len(args) > 0 {
		if cfg, ok := args[0].(*config.Config); ok {
			return cfg
		}
	}
	return &config.Config{}
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, err)
	return subcommands.ExitFailure
}
