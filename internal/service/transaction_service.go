package service

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/walletledger/internal/ledger"
	"github.com/mmynk/walletledger/internal/models"
	"github.com/mmynk/walletledger/internal/storage"
)

const TransactionServiceName = "TransactionService"

type CreateTransactionRequest struct {
	Type             string              `json:"type"`
	Amount           decimal.Decimal     `json:"amount"`
	OriginalAmount   decimal.NullDecimal `json:"original_amount"`
	OriginalCurrency string              `json:"original_currency"`
	ExchangeRate     decimal.NullDecimal `json:"exchange_rate"`
	WalletID         string              `json:"wallet_id"`
	ToWalletID       string              `json:"to_wallet_id"`
	ToAmount         decimal.NullDecimal `json:"to_amount"`
	ToExchangeRate   decimal.NullDecimal `json:"to_exchange_rate"`
	CategoryID       string              `json:"category_id"`
	SubLedgerID      string              `json:"sub_ledger_id"`
	LoanID           string              `json:"loan_id"`
	Description      string              `json:"description"`
	Date             string              `json:"date"`
}

// UpdateTransactionRequest is a partial update: absent fields keep their
// value and the clear_* flags drop optional references.
type UpdateTransactionRequest struct {
	ID               string           `json:"id"`
	Type             *string          `json:"type"`
	Amount           *decimal.Decimal `json:"amount"`
	OriginalAmount   *decimal.Decimal `json:"original_amount"`
	OriginalCurrency *string          `json:"original_currency"`
	ExchangeRate     *decimal.Decimal `json:"exchange_rate"`
	ClearOriginal    bool             `json:"clear_original"`
	WalletID         *string          `json:"wallet_id"`
	ToWalletID       *string          `json:"to_wallet_id"`
	ToAmount         *decimal.Decimal `json:"to_amount"`
	ToExchangeRate   *decimal.Decimal `json:"to_exchange_rate"`
	ClearToWallet    bool             `json:"clear_to_wallet"`
	CategoryID       *string          `json:"category_id"`
	ClearCategory    bool             `json:"clear_category"`
	SubLedgerID      *string          `json:"sub_ledger_id"`
	ClearSubLedger   bool             `json:"clear_sub_ledger"`
	LoanID           *string          `json:"loan_id"`
	ClearLoan        bool             `json:"clear_loan"`
	Description      *string          `json:"description"`
	Date             *string          `json:"date"`
}

type TransactionResponse struct {
	Transaction *Transaction `json:"transaction"`
}

type ListTransactionsRequest struct {
	Start       string `json:"start"`
	End         string `json:"end"`
	WalletID    string `json:"wallet_id"`
	CategoryID  string `json:"category_id"`
	SubLedgerID string `json:"sub_ledger_id"`
	LoanID      string `json:"loan_id"`
	Type        string `json:"type"`
	Search      string `json:"search"`
	Limit       int    `json:"limit"`
	Offset      int    `json:"offset"`
}

type ListTransactionsResponse struct {
	Transactions []*Transaction `json:"transactions"`
	Total        int            `json:"total"`
	Limit        int            `json:"limit"`
	Offset       int            `json:"offset"`
}

type DeleteAllForWalletRequest struct {
	WalletID string `json:"wallet_id"`
}

type DeleteAllForWalletResponse struct {
	Deleted int `json:"deleted"`
}

// TransactionService exposes the transaction journal.
type TransactionService struct {
	ledger *ledger.Ledger
}

func NewTransactionService(l *ledger.Ledger) *TransactionService {
	return &TransactionService{ledger: l}
}

func (s *TransactionService) GetTransaction(ctx context.Context, req *connect.Request[IDRequest]) (*connect.Response[TransactionResponse], error) {
	owner, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := s.ledger.GetTransaction(ctx, req.Msg.ID, owner)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&TransactionResponse{Transaction: transactionFromModel(tx)}), nil
}

func (s *TransactionService) ListTransactions(ctx context.Context, req *connect.Request[ListTransactionsRequest]) (*connect.Response[ListTransactionsResponse], error) {
	owner, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	m := req.Msg
	start, err := parseDate("start", m.Start)
	if err != nil {
		return nil, err
	}
	end, err := parseDate("end", m.End)
	if err != nil {
		return nil, err
	}
	page, err := s.ledger.ListTransactions(ctx, owner, storage.TransactionFilter{
		Start:       start,
		End:         end,
		WalletID:    m.WalletID,
		CategoryID:  m.CategoryID,
		SubLedgerID: m.SubLedgerID,
		LoanID:      m.LoanID,
		Type:        models.TransactionType(m.Type),
		Search:      m.Search,
		Limit:       m.Limit,
		Offset:      m.Offset,
	})
	if err != nil {
		logFailure(ctx, "ListTransactions failed", err, "owner_id", owner)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ListTransactionsResponse{
		Transactions: transactionsFromModels(page.Transactions),
		Total:        page.Total,
		Limit:        page.Limit,
		Offset:       page.Offset,
	}), nil
}

func (s *TransactionService) CreateTransaction(ctx context.Context, req *connect.Request[CreateTransactionRequest]) (*connect.Response[TransactionResponse], error) {
	owner, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	m := req.Msg
	date, err := parseDate("date", m.Date)
	if err != nil {
		return nil, err
	}
	tx, err := s.ledger.CreateTransaction(ctx, owner, ledger.TransactionInput{
		Type:             models.TransactionType(m.Type),
		Amount:           m.Amount,
		OriginalAmount:   m.OriginalAmount,
		OriginalCurrency: m.OriginalCurrency,
		ExchangeRate:     m.ExchangeRate,
		WalletID:         m.WalletID,
		ToWalletID:       m.ToWalletID,
		ToAmount:         m.ToAmount,
		ToExchangeRate:   m.ToExchangeRate,
		CategoryID:       m.CategoryID,
		SubLedgerID:      m.SubLedgerID,
		LoanID:           m.LoanID,
		Description:      m.Description,
		Date:             date,
	})
	if err != nil {
		logFailure(ctx, "CreateTransaction failed", err, "owner_id", owner)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&TransactionResponse{Transaction: transactionFromModel(tx)}), nil
}

func (s *TransactionService) UpdateTransaction(ctx context.Context, req *connect.Request[UpdateTransactionRequest]) (*connect.Response[TransactionResponse], error) {
	owner, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	m := req.Msg
	date, err := parseDatePtr("date", m.Date)
	if err != nil {
		return nil, err
	}
	patch := ledger.TransactionPatch{
		Amount:           m.Amount,
		OriginalAmount:   m.OriginalAmount,
		OriginalCurrency: m.OriginalCurrency,
		ExchangeRate:     m.ExchangeRate,
		ClearOriginal:    m.ClearOriginal,
		WalletID:         m.WalletID,
		ToWalletID:       m.ToWalletID,
		ToAmount:         m.ToAmount,
		ToExchangeRate:   m.ToExchangeRate,
		ClearToWallet:    m.ClearToWallet,
		CategoryID:       m.CategoryID,
		ClearCategory:    m.ClearCategory,
		SubLedgerID:      m.SubLedgerID,
		ClearSubLedger:   m.ClearSubLedger,
		LoanID:           m.LoanID,
		ClearLoan:        m.ClearLoan,
		Description:      m.Description,
		Date:             date,
	}
	if m.Type != nil {
		t := models.TransactionType(*m.Type)
		patch.Type = &t
	}
	tx, err := s.ledger.UpdateTransaction(ctx, m.ID, owner, patch)
	if err != nil {
		logFailure(ctx, "UpdateTransaction failed", err, "transaction_id", m.ID)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&TransactionResponse{Transaction: transactionFromModel(tx)}), nil
}

func (s *TransactionService) DeleteTransaction(ctx context.Context, req *connect.Request[IDRequest]) (*connect.Response[Empty], error) {
	owner, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.ledger.DeleteTransaction(ctx, req.Msg.ID, owner); err != nil {
		logFailure(ctx, "DeleteTransaction failed", err, "transaction_id", req.Msg.ID)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&Empty{}), nil
}

func (s *TransactionService) DeleteAllForWallet(ctx context.Context, req *connect.Request[DeleteAllForWalletRequest]) (*connect.Response[DeleteAllForWalletResponse], error) {
	owner, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	n, err := s.ledger.DeleteAllForWallet(ctx, req.Msg.WalletID, owner)
	if err != nil {
		logFailure(ctx, "DeleteAllForWallet failed", err, "wallet_id", req.Msg.WalletID)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&DeleteAllForWalletResponse{Deleted: n}), nil
}

func NewTransactionServiceHandler(s *TransactionService, opts ...connect.HandlerOption) (string, http.Handler) {
	p := newProcedures(TransactionServiceName, opts)
	handle(p, "GetTransaction", s.GetTransaction)
	handle(p, "ListTransactions", s.ListTransactions)
	handle(p, "CreateTransaction", s.CreateTransaction)
	handle(p, "UpdateTransaction", s.UpdateTransaction)
	handle(p, "DeleteTransaction", s.DeleteTransaction)
	handle(p, "DeleteAllForWallet", s.DeleteAllForWallet)
	return p.path(), p.mux
}

type TransactionServiceClient struct{ c *rpcClient }

func NewTransactionServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *TransactionServiceClient {
	return &TransactionServiceClient{c: newRPCClient(httpClient, baseURL, opts)}
}

func (c *TransactionServiceClient) GetTransaction(ctx context.Context, req *connect.Request[IDRequest]) (*connect.Response[TransactionResponse], error) {
	return callUnary[IDRequest, TransactionResponse](ctx, c.c, TransactionServiceName, "GetTransaction", req)
}

func (c *TransactionServiceClient) ListTransactions(ctx context.Context, req *connect.Request[ListTransactionsRequest]) (*connect.Response[ListTransactionsResponse], error) {
	return callUnary[ListTransactionsRequest, ListTransactionsResponse](ctx, c.c, TransactionServiceName, "ListTransactions", req)
}

func (c *TransactionServiceClient) CreateTransaction(ctx context.Context, req *connect.Request[CreateTransactionRequest]) (*connect.Response[TransactionResponse], error) {
	return callUnary[CreateTransactionRequest, TransactionResponse](ctx, c.c, TransactionServiceName, "CreateTransaction", req)
}

func (c *TransactionServiceClient) UpdateTransaction(ctx context.Context, req *connect.Request[UpdateTransactionRequest]) (*connect.Response[TransactionResponse], error) {
	return callUnary[UpdateTransactionRequest, TransactionResponse](ctx, c.c, TransactionServiceName, "UpdateTransaction", req)
}

func (c *TransactionServiceClient) DeleteTransaction(ctx context.Context, req *connect.Request[IDRequest]) (*connect.Response[Empty], error) {
	return callUnary[IDRequest, Empty](ctx, c.c, TransactionServiceName, "DeleteTransaction", req)
}

func (c *TransactionServiceClient) DeleteAllForWallet(ctx context.Context, req *connect.Request[DeleteAllForWalletRequest]) (*connect.Response[DeleteAllForWalletResponse], error) {
	return callUnary[DeleteAllForWalletRequest, DeleteAllForWalletResponse](ctx, c.c, TransactionServiceName, "DeleteAllForWallet", req)
}
