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

const LoanServiceName = "LoanService"

type ListLoansRequest struct {
	Status string `json:"status"`
}

type ListLoansResponse struct {
	Loans []*Loan `json:"loans"`
}

type LoanResponse struct {
	// Loan is null when a recalculated loan no longer exists.
	Loan *Loan `json:"loan"`
}

type CreateLoanRequest struct {
	Direction    string          `json:"direction"`
	Counterparty string          `json:"counterparty"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Currency     string          `json:"currency"`
	StartDate    string          `json:"start_date"`
	DueDate      string          `json:"due_date"`
	Description  string          `json:"description"`
}

type UpdateLoanRequest struct {
	ID           string           `json:"id"`
	Counterparty *string          `json:"counterparty"`
	TotalAmount  *decimal.Decimal `json:"total_amount"`
	Currency     *string          `json:"currency"`
	StartDate    *string          `json:"start_date"`
	DueDate      *string          `json:"due_date"`
	ClearDueDate bool             `json:"clear_due_date"`
	Description  *string          `json:"description"`
	Status       *string          `json:"status"`
}

type RecalculateAllLoansResponse struct {
	Changed int `json:"changed"`
}

type ListLoanTransactionsResponse struct {
	Transactions []*Transaction `json:"transactions"`
}

// LoanService exposes loans and their reconciliation.
type LoanService struct {
	ledger *ledger.Ledger
}

func NewLoanService(l *ledger.Ledger) *LoanService {
	return &LoanService{ledger: l}
}

func (s *LoanService) ListLoans(ctx context.Context, req *connect.Request[ListLoansRequest]) (*connect.Response[ListLoansResponse], error) {
	owner, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	loans, err := s.ledger.ListLoans(ctx, owner, models.LoanStatus(req.Msg.Status))
	if err != nil {
		logFailure(ctx, "ListLoans failed", err, "owner_id", owner)
		return nil, toConnectError(err)
	}
	resp := &ListLoansResponse{Loans: make([]*Loan, 0, len(loans))}
	for _, l := range loans {
		resp.Loans = append(resp.Loans, loanFromModel(l))
	}
	return connect.NewResponse(resp), nil
}

func (s *LoanService) GetLoan(ctx context.Context, req *connect.Request[IDRequest]) (*connect.Response[LoanResponse], error) {
	owner, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	loan, err := s.ledger.GetLoan(ctx, req.Msg.ID, owner)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&LoanResponse{Loan: loanFromModel(loan)}), nil
}

func (s *LoanService) CreateLoan(ctx context.Context, req *connect.Request[CreateLoanRequest]) (*connect.Response[LoanResponse], error) {
	owner, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	m := req.Msg
	start, err := parseDate("start_date", m.StartDate)
	if err != nil {
		return nil, err
	}
	due, err := parseDate("due_date", m.DueDate)
	if err != nil {
		return nil, err
	}
	loan, err := s.ledger.CreateLoan(ctx, owner, ledger.CreateLoanInput{
		Direction:    models.LoanDirection(m.Direction),
		Counterparty: m.Counterparty,
		TotalAmount:  m.TotalAmount,
		Currency:     m.Currency,
		StartDate:    start,
		DueDate:      due,
		Description:  m.Description,
	})
	if err != nil {
		logFailure(ctx, "CreateLoan failed", err, "owner_id", owner)
		return nil, toConnectError(err)
	}
	slog.InfoContext(ctx, "Loan created", "owner_id", owner, "loan_id", loan.ID, "direction", loan.Direction)
	return connect.NewResponse(&LoanResponse{Loan: loanFromModel(loan)}), nil
}

func (s *LoanService) UpdateLoan(ctx context.Context, req *connect.Request[UpdateLoanRequest]) (*connect.Response[LoanResponse], error) {
	owner, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	m := req.Msg
	start, err := parseDatePtr("start_date", m.StartDate)
	if err != nil {
		return nil, err
	}
	due, err := parseDatePtr("due_date", m.DueDate)
	if err != nil {
		return nil, err
	}
	in := ledger.UpdateLoanInput{
		Counterparty: m.Counterparty,
		TotalAmount:  m.TotalAmount,
		Currency:     m.Currency,
		StartDate:    start,
		DueDate:      due,
		ClearDueDate: m.ClearDueDate,
		Description:  m.Description,
	}
	if m.Status != nil {
		st := models.LoanStatus(*m.Status)
		in.Status = &st
	}
	loan, err := s.ledger.UpdateLoan(ctx, m.ID, owner, in)
	if err != nil {
		logFailure(ctx, "UpdateLoan failed", err, "loan_id", m.ID)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&LoanResponse{Loan: loanFromModel(loan)}), nil
}

func (s *LoanService) DeleteLoan(ctx context.Context, req *connect.Request[IDRequest]) (*connect.Response[Empty], error) {
	owner, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.ledger.DeleteLoan(ctx, req.Msg.ID, owner); err != nil {
		logFailure(ctx, "DeleteLoan failed", err, "loan_id", req.Msg.ID)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&Empty{}), nil
}

func (s *LoanService) RecalculateLoan(ctx context.Context, req *connect.Request[IDRequest]) (*connect.Response[LoanResponse], error) {
	owner, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	loan, err := s.ledger.RecalculateLoan(ctx, req.Msg.ID, owner)
	if err != nil {
		logFailure(ctx, "RecalculateLoan failed", err, "loan_id", req.Msg.ID)
		return nil, toConnectError(err)
	}
	resp := &LoanResponse{}
	if loan != nil {
		resp.Loan = loanFromModel(loan)
	}
	return connect.NewResponse(resp), nil
}

func (s *LoanService) RecalculateAllLoans(ctx context.Context, _ *connect.Request[Empty]) (*connect.Response[RecalculateAllLoansResponse], error) {
	owner, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	n, err := s.ledger.RecalculateAllLoans(ctx, owner)
	if err != nil {
		logFailure(ctx, "RecalculateAllLoans failed", err, "owner_id", owner)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&RecalculateAllLoansResponse{Changed: n}), nil
}

func (s *LoanService) ListLoanTransactions(ctx context.Context, req *connect.Request[IDRequest]) (*connect.Response[ListLoanTransactionsResponse], error) {
	owner, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	txs, err := s.ledger.ListLoanTransactions(ctx, req.Msg.ID, owner)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ListLoanTransactionsResponse{Transactions: transactionsFromModels(txs)}), nil
}

func NewLoanServiceHandler(s *LoanService, opts ...connect.HandlerOption) (string, http.Handler) {
	p := newProcedures(LoanServiceName, opts)
	handle(p, "ListLoans", s.ListLoans)
	handle(p, "GetLoan", s.GetLoan)
	handle(p, "CreateLoan", s.CreateLoan)
	handle(p, "UpdateLoan", s.UpdateLoan)
	handle(p, "DeleteLoan", s.DeleteLoan)
	handle(p, "RecalculateLoan", s.RecalculateLoan)
	handle(p, "RecalculateAllLoans", s.RecalculateAllLoans)
	handle(p, "ListLoanTransactions", s.ListLoanTransactions)
	return p.path(), p.mux
}

type LoanServiceClient struct{ c *rpcClient }

func NewLoanServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *LoanServiceClient {
	return &LoanServiceClient{c: newRPCClient(httpClient, baseURL, opts)}
}

func (c *LoanServiceClient) ListLoans(ctx context.Context, req *connect.Request[ListLoansRequest]) (*connect.Response[ListLoansResponse], error) {
	return callUnary[ListLoansRequest, ListLoansResponse](ctx, c.c, LoanServiceName, "ListLoans", req)
}

func (c *LoanServiceClient) GetLoan(ctx context.Context, req *connect.Request[IDRequest]) (*connect.Response[LoanResponse], error) {
	return callUnary[IDRequest, LoanResponse](ctx, c.c, LoanServiceName, "GetLoan", req)
}

func (c *LoanServiceClient) CreateLoan(ctx context.Context, req *connect.Request[CreateLoanRequest]) (*connect.Response[LoanResponse], error) {
	return callUnary[CreateLoanRequest, LoanResponse](ctx, c.c, LoanServiceName, "CreateLoan", req)
}

func (c *LoanServiceClient) UpdateLoan(ctx context.Context, req *connect.Request[UpdateLoanRequest]) (*connect.Response[LoanResponse], error) {
	return callUnary[UpdateLoanRequest, LoanResponse](ctx, c.c, LoanServiceName, "UpdateLoan", req)
}

func (c *LoanServiceClient) DeleteLoan(ctx context.Context, req *connect.Request[IDRequest]) (*connect.Response[Empty], error) {
	return callUnary[IDRequest, Empty](ctx, c.c, LoanServiceName, "DeleteLoan", req)
}

func (c *LoanServiceClient) RecalculateLoan(ctx context.Context, req *connect.Request[IDRequest]) (*connect.Response[LoanResponse], error) {
	return callUnary[IDRequest, LoanResponse](ctx, c.c, LoanServiceName, "RecalculateLoan", req)
}

func (c *LoanServiceClient) RecalculateAllLoans(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[RecalculateAllLoansResponse], error) {
	return callUnary[Empty, RecalculateAllLoansResponse](ctx, c.c, LoanServiceName, "RecalculateAllLoans", req)
}

func (c *LoanServiceClient) ListLoanTransactions(ctx context.Context, req *connect.Request[IDRequest]) (*connect.Response[ListLoanTransactionsResponse], error) {
	return callUnary[IDRequest, ListLoanTransactionsResponse](ctx, c.c, LoanServiceName, "ListLoanTransactions", req)
}
