package service

import (
	"context"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/walletledger/internal/auth"
	"github.com/mmynk/walletledger/internal/ledger"
)

const SeedServiceName = "SeedService"

type InitializeDefaultsRequest struct {
	// DefaultCurrency of the seeded wallet; the user's currency when empty.
	DefaultCurrency string `json:"default_currency"`
}

type InitializeDefaultsResponse struct {
	WalletCreated     bool `json:"wallet_created"`
	CategoriesCreated int  `json:"categories_created"`
}

// SeedService re-runs the default-data initializer for the caller.
type SeedService struct {
	ledger *ledger.Ledger
	users  auth.UserStorage
}

func NewSeedService(l *ledger.Ledger, users auth.UserStorage) *SeedService {
	return &SeedService{ledger: l, users: users}
}

func (s *SeedService) InitializeDefaults(ctx context.Context, req *connect.Request[InitializeDefaultsRequest]) (*connect.Response[InitializeDefaultsResponse], error) {
	owner, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	currency := req.Msg.DefaultCurrency
	if currency == "" {
		user, err := s.users.GetUserByID(ctx, owner)
		if err != nil {
			slog.WarnContext(ctx, "No user record to take the currency from", "owner_id", owner, "error", err)
			return nil, invalidArgument("default_currency is required")
		}
		currency = user.DefaultCurrency
	}

	res, err := s.ledger.InitializeDefaults(ctx, owner, currency)
	if err != nil {
		logFailure(ctx, "InitializeDefaults failed", err, "owner_id", owner)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&InitializeDefaultsResponse{
		WalletCreated:     res.WalletCreated,
		CategoriesCreated: res.CategoriesCreated,
	}), nil
}

func NewSeedServiceHandler(s *SeedService, opts ...connect.HandlerOption) (string, http.Handler) {
	p := newProcedures(SeedServiceName, opts)
	handle(p, "InitializeDefaults", s.InitializeDefaults)
	return p.path(), p.mux
}

type SeedServiceClient struct{ c *rpcClient }

func NewSeedServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *SeedServiceClient {
	return &SeedServiceClient{c: newRPCClient(httpClient, baseURL, opts)}
}

func (c *SeedServiceClient) InitializeDefaults(ctx context.Context, req *connect.Request[InitializeDefaultsRequest]) (*connect.Response[InitializeDefaultsResponse], error) {
	return callUnary[InitializeDefaultsRequest, InitializeDefaultsResponse](ctx, c.c, SeedServiceName, "InitializeDefaults", req)
}
