package service

import (
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/walletledger/internal/auth"
	"github.com/mmynk/walletledger/internal/ledger"
)

// Dependencies are what the services need to serve requests.
type Dependencies struct {
	Ledger        *ledger.Ledger
	Authenticator auth.Authenticator
	Users         auth.UserStorage
	JWT           *auth.JWTManager
	Logger        *slog.Logger
}

// Mount registers every service on mux with the given handler options
// (interceptors are applied to each procedure).
func Mount(mux *http.ServeMux, deps Dependencies, opts ...connect.HandlerOption) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux.Handle(NewAuthServiceHandler(NewAuthService(deps.Authenticator, deps.Users, deps.JWT, deps.Ledger, logger), opts...))
	mux.Handle(NewWalletServiceHandler(NewWalletService(deps.Ledger), opts...))
	mux.Handle(NewTransactionServiceHandler(NewTransactionService(deps.Ledger), opts...))
	mux.Handle(NewLoanServiceHandler(NewLoanService(deps.Ledger), opts...))
	mux.Handle(NewCatalogServiceHandler(NewCatalogService(deps.Ledger), opts...))
	mux.Handle(NewStatsServiceHandler(NewStatsService(deps.Ledger), opts...))
	mux.Handle(NewSeedServiceHandler(NewSeedService(deps.Ledger, deps.Users), opts...))
}
