package service

import (
	"context"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/walletledger/internal/ledger"
	"github.com/mmynk/walletledger/internal/models"
)

const WalletServiceName = "WalletService"

type IDRequest struct {
	ID string `json:"id"`
}

type ListWalletsRequest struct {
	IncludeArchived bool `json:"include_archived"`
}

type ListWalletsResponse struct {
	Wallets []*Wallet `json:"wallets"`
}

type WalletResponse struct {
	Wallet *Wallet `json:"wallet"`
}

type CreateWalletRequest struct {
	Name           string          `json:"name"`
	Type           string          `json:"type"`
	Currency       string          `json:"currency"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	ExchangeRate   decimal.Decimal `json:"exchange_rate"`
	IsFlexible     *bool           `json:"is_flexible"`
	IsDefault      bool            `json:"is_default"`
	Icon           string          `json:"icon"`
	Color          string          `json:"color"`
}

type UpdateWalletRequest struct {
	ID           string           `json:"id"`
	Name         *string          `json:"name"`
	Type         *string          `json:"type"`
	Currency     *string          `json:"currency"`
	ExchangeRate *decimal.Decimal `json:"exchange_rate"`
	IsFlexible   *bool            `json:"is_flexible"`
	IsDefault    *bool            `json:"is_default"`
	Icon         *string          `json:"icon"`
	Color        *string          `json:"color"`
}

type DeleteWalletRequest struct {
	ID string `json:"id"`
	// Cascade deletes the wallet's transactions instead of detaching them.
	Cascade bool `json:"cascade"`
}

type AdjustBalanceRequest struct {
	ID    string          `json:"id"`
	Delta decimal.Decimal `json:"delta"`
}

type ArchiveWalletRequest struct {
	ID             string              `json:"id"`
	Action         string              `json:"action"`
	TargetWalletID string              `json:"target_wallet_id"`
	ExchangeRate   decimal.NullDecimal `json:"exchange_rate"`
	Date           string              `json:"date"`
}

type ArchiveWalletResponse struct {
	Wallet   *Wallet      `json:"wallet"`
	Transfer *Transaction `json:"transfer,omitempty"`
}

type AuditBalancesResponse struct {
	Audits []*BalanceAudit `json:"audits"`
}

// WalletService exposes the wallet ledger.
type WalletService struct {
	ledger *ledger.Ledger
}

func NewWalletService(l *ledger.Ledger) *WalletService {
	return &WalletService{ledger: l}
}

func (s *WalletService) ListWallets(ctx context.Context, req *connect.Request[ListWalletsRequest]) (*connect.Response[ListWalletsResponse], error) {
	owner, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	wallets, err := s.ledger.ListWallets(ctx, owner, req.Msg.IncludeArchived)
	if err != nil {
		logFailure(ctx, "ListWallets failed", err, "owner_id", owner)
		return nil, toConnectError(err)
	}
	resp := &ListWalletsResponse{Wallets: make([]*Wallet, 0, len(wallets))}
	for _, w := range wallets {
		resp.Wallets = append(resp.Wallets, walletFromModel(w))
	}
	return connect.NewResponse(resp), nil
}

func (s *WalletService) GetWallet(ctx context.Context, req *connect.Request[IDRequest]) (*connect.Response[WalletResponse], error) {
	owner, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	w, err := s.ledger.GetWallet(ctx, req.Msg.ID, owner)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&WalletResponse{Wallet: walletFromModel(w)}), nil
}

func (s *WalletService) CreateWallet(ctx context.Context, req *connect.Request[CreateWalletRequest]) (*connect.Response[WalletResponse], error) {
	owner, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	m := req.Msg
	w, err := s.ledger.CreateWallet(ctx, owner, ledger.CreateWalletInput{
		Name:           m.Name,
		Type:           models.WalletType(m.Type),
		Currency:       m.Currency,
		InitialBalance: m.InitialBalance,
		ExchangeRate:   m.ExchangeRate,
		IsFlexible:     m.IsFlexible,
		IsDefault:      m.IsDefault,
		Icon:           m.Icon,
		Color:          m.Color,
	})
	if err != nil {
		logFailure(ctx, "CreateWallet failed", err, "owner_id", owner)
		return nil, toConnectError(err)
	}
	slog.InfoContext(ctx, "Wallet created", "owner_id", owner, "wallet_id", w.ID)
	return connect.NewResponse(&WalletResponse{Wallet: walletFromModel(w)}), nil
}

func (s *WalletService) UpdateWallet(ctx context.Context, req *connect.Request[UpdateWalletRequest]) (*connect.Response[WalletResponse], error) {
	owner, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	m := req.Msg
	in := ledger.UpdateWalletInput{
		Name:         m.Name,
		Currency:     m.Currency,
		ExchangeRate: m.ExchangeRate,
		IsFlexible:   m.IsFlexible,
		IsDefault:    m.IsDefault,
		Icon:         m.Icon,
		Color:        m.Color,
	}
	if m.Type != nil {
		t := models.WalletType(*m.Type)
		in.Type = &t
	}
	w, err := s.ledger.UpdateWallet(ctx, m.ID, owner, in)
	if err != nil {
		logFailure(ctx, "UpdateWallet failed", err, "wallet_id", m.ID)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&WalletResponse{Wallet: walletFromModel(w)}), nil
}

func (s *WalletService) DeleteWallet(ctx context.Context, req *connect.Request[DeleteWalletRequest]) (*connect.Response[Empty], error) {
	owner, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.ledger.DeleteWallet(ctx, req.Msg.ID, owner, req.Msg.Cascade); err != nil {
		logFailure(ctx, "DeleteWallet failed", err, "wallet_id", req.Msg.ID)
		return nil, toConnectError(err)
	}
	slog.InfoContext(ctx, "Wallet deleted", "owner_id", owner, "wallet_id", req.Msg.ID, "cascade", req.Msg.Cascade)
	return connect.NewResponse(&Empty{}), nil
}

func (s *WalletService) AdjustBalance(ctx context.Context, req *connect.Request[AdjustBalanceRequest]) (*connect.Response[WalletResponse], error) {
	owner, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	w, err := s.ledger.AdjustBalance(ctx, req.Msg.ID, owner, req.Msg.Delta)
	if err != nil {
		logFailure(ctx, "AdjustBalance failed", err, "wallet_id", req.Msg.ID)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&WalletResponse{Wallet: walletFromModel(w)}), nil
}

func (s *WalletService) SetDefaultWallet(ctx context.Context, req *connect.Request[IDRequest]) (*connect.Response[WalletResponse], error) {
	owner, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	w, err := s.ledger.SetDefault(ctx, req.Msg.ID, owner)
	if err != nil {
		logFailure(ctx, "SetDefaultWallet failed", err, "wallet_id", req.Msg.ID)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&WalletResponse{Wallet: walletFromModel(w)}), nil
}

func (s *WalletService) ArchiveWallet(ctx context.Context, req *connect.Request[ArchiveWalletRequest]) (*connect.Response[ArchiveWalletResponse], error) {
	owner, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	m := req.Msg
	date, err := parseDate("date", m.Date)
	if err != nil {
		return nil, err
	}
	res, err := s.ledger.ArchiveWallet(ctx, m.ID, owner, ledger.ArchiveInput{
		Action:         ledger.ArchiveAction(m.Action),
		TargetWalletID: m.TargetWalletID,
		ExchangeRate:   m.ExchangeRate,
		Date:           date,
	})
	if err != nil {
		logFailure(ctx, "ArchiveWallet failed", err, "wallet_id", m.ID)
		return nil, toConnectError(err)
	}
	resp := &ArchiveWalletResponse{Wallet: walletFromModel(res.Wallet)}
	if res.Transfer != nil {
		resp.Transfer = transactionFromModel(res.Transfer)
	}
	slog.InfoContext(ctx, "Wallet archived", "owner_id", owner, "wallet_id", m.ID, "action", m.Action)
	return connect.NewResponse(resp), nil
}

// AuditBalances replays every wallet and reports drift between cached and
// derived balances.
func (s *WalletService) AuditBalances(ctx context.Context, _ *connect.Request[Empty]) (*connect.Response[AuditBalancesResponse], error) {
	owner, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	audits, err := s.ledger.AuditBalances(ctx, owner)
	if err != nil {
		logFailure(ctx, "AuditBalances failed", err, "owner_id", owner)
		return nil, toConnectError(err)
	}
	resp := &AuditBalancesResponse{Audits: make([]*BalanceAudit, 0, len(audits))}
	for _, a := range audits {
		if !a.InBalance() {
			slog.WarnContext(ctx, "Wallet balance drifted", "wallet_id", a.Wallet.ID, "drift", a.Drift)
		}
		resp.Audits = append(resp.Audits, auditFromLedger(a))
	}
	return connect.NewResponse(resp), nil
}

func NewWalletServiceHandler(s *WalletService, opts ...connect.HandlerOption) (string, http.Handler) {
	p := newProcedures(WalletServiceName, opts)
	handle(p, "ListWallets", s.ListWallets)
	handle(p, "GetWallet", s.GetWallet)
	handle(p, "CreateWallet", s.CreateWallet)
	handle(p, "UpdateWallet", s.UpdateWallet)
	handle(p, "DeleteWallet", s.DeleteWallet)
	handle(p, "AdjustBalance", s.AdjustBalance)
	handle(p, "SetDefaultWallet", s.SetDefaultWallet)
	handle(p, "ArchiveWallet", s.ArchiveWallet)
	handle(p, "AuditBalances", s.AuditBalances)
	return p.path(), p.mux
}

type WalletServiceClient struct{ c *rpcClient }

func NewWalletServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *WalletServiceClient {
	return &WalletServiceClient{c: newRPCClient(httpClient, baseURL, opts)}
}

func (c *WalletServiceClient) ListWallets(ctx context.Context, req *connect.Request[ListWalletsRequest]) (*connect.Response[ListWalletsResponse], error) {
	return callUnary[ListWalletsRequest, ListWalletsResponse](ctx, c.c, WalletServiceName, "ListWallets", req)
}

func (c *WalletServiceClient) GetWallet(ctx context.Context, req *connect.Request[IDRequest]) (*connect.Response[WalletResponse], error) {
	return callUnary[IDRequest, WalletResponse](ctx, c.c, WalletServiceName, "GetWallet", req)
}

func (c *WalletServiceClient) CreateWallet(ctx context.Context, req *connect.Request[CreateWalletRequest]) (*connect.Response[WalletResponse], error) {
	return callUnary[CreateWalletRequest, WalletResponse](ctx, c.c, WalletServiceName, "CreateWallet", req)
}

func (c *WalletServiceClient) UpdateWallet(ctx context.Context, req *connect.Request[UpdateWalletRequest]) (*connect.Response[WalletResponse], error) {
	return callUnary[UpdateWalletRequest, WalletResponse](ctx, c.c, WalletServiceName, "UpdateWallet", req)
}

func (c *WalletServiceClient) DeleteWallet(ctx context.Context, req *connect.Request[DeleteWalletRequest]) (*connect.Response[Empty], error) {
	return callUnary[DeleteWalletRequest, Empty](ctx, c.c, WalletServiceName, "DeleteWallet", req)
}

func (c *WalletServiceClient) AdjustBalance(ctx context.Context, req *connect.Request[AdjustBalanceRequest]) (*connect.Response[WalletResponse], error) {
	return callUnary[AdjustBalanceRequest, WalletResponse](ctx, c.c, WalletServiceName, "AdjustBalance", req)
}

func (c *WalletServiceClient) SetDefaultWallet(ctx context.Context, req *connect.Request[IDRequest]) (*connect.Response[WalletResponse], error) {
	return callUnary[IDRequest, WalletResponse](ctx, c.c, WalletServiceName, "SetDefaultWallet", req)
}

func (c *WalletServiceClient) ArchiveWallet(ctx context.Context, req *connect.Request[ArchiveWalletRequest]) (*connect.Response[ArchiveWalletResponse], error) {
	return callUnary[ArchiveWalletRequest, ArchiveWalletResponse](ctx, c.c, WalletServiceName, "ArchiveWallet", req)
}

func (c *WalletServiceClient) AuditBalances(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[AuditBalancesResponse], error) {
	return callUnary[Empty, AuditBalancesResponse](ctx, c.c, WalletServiceName, "AuditBalances", req)
}
