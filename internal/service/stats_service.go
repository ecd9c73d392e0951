package service

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/walletledger/internal/ledger"
)

const StatsServiceName = "StatsService"

type StatsForPeriodRequest struct {
	Start       string `json:"start"`
	End         string `json:"end"`
	SubLedgerID string `json:"sub_ledger_id"`
}

type StatsForPeriodResponse struct {
	Start         string           `json:"start"`
	End           string           `json:"end"`
	Currency      string           `json:"currency"`
	Income        decimal.Decimal  `json:"income"`
	Expense       decimal.Decimal  `json:"expense"`
	Net           decimal.Decimal  `json:"net"`
	IncomeCount   int              `json:"income_count"`
	ExpenseCount  int              `json:"expense_count"`
	TransferCount int              `json:"transfer_count"`
	ByCategory    []*CategoryTotal `json:"by_category"`
}

type BudgetSpendingRequest struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

type BudgetSpendingResponse struct {
	Month    int            `json:"month"`
	Year     int            `json:"year"`
	Currency string         `json:"currency"`
	Budgets  []*BudgetSpend `json:"budgets"`
}

type GoalProgressResponse struct {
	Goals []*GoalStatus `json:"goals"`
}

// StatsService serves the read-only aggregation reports.
type StatsService struct {
	ledger *ledger.Ledger
}

func NewStatsService(l *ledger.Ledger) *StatsService {
	return &StatsService{ledger: l}
}

func (s *StatsService) StatsForPeriod(ctx context.Context, req *connect.Request[StatsForPeriodRequest]) (*connect.Response[StatsForPeriodResponse], error) {
	owner, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	start, err := parseDate("start", req.Msg.Start)
	if err != nil {
		return nil, err
	}
	end, err := parseDate("end", req.Msg.End)
	if err != nil {
		return nil, err
	}
	report, err := s.ledger.StatsForPeriod(ctx, owner, ledger.StatsQuery{Start: start, End: end, SubLedgerID: req.Msg.SubLedgerID})
	if err != nil {
		logFailure(ctx, "StatsForPeriod failed", err, "owner_id", owner)
		return nil, toConnectError(err)
	}

	resp := &StatsForPeriodResponse{
		Start:         formatDate(report.Start),
		End:           formatDate(report.End),
		Currency:      report.Currency,
		Income:        report.Income,
		Expense:       report.Expense,
		Net:           report.Net,
		IncomeCount:   report.IncomeCount,
		ExpenseCount:  report.ExpenseCount,
		TransferCount: report.TransferCount,
		ByCategory:    make([]*CategoryTotal, 0, len(report.ByCategory)),
	}
	for _, c := range report.ByCategory {
		resp.ByCategory = append(resp.ByCategory, &CategoryTotal{CategoryID: c.CategoryID, Name: c.Name, Total: c.Total, Count: c.Count})
	}
	return connect.NewResponse(resp), nil
}

func (s *StatsService) BudgetSpending(ctx context.Context, req *connect.Request[BudgetSpendingRequest]) (*connect.Response[BudgetSpendingResponse], error) {
	owner, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	report, err := s.ledger.BudgetSpending(ctx, owner, req.Msg.Month, req.Msg.Year)
	if err != nil {
		logFailure(ctx, "BudgetSpending failed", err, "owner_id", owner)
		return nil, toConnectError(err)
	}
	resp := &BudgetSpendingResponse{
		Month:    report.Month,
		Year:     report.Year,
		Currency: report.Currency,
		Budgets:  make([]*BudgetSpend, 0, len(report.Budgets)),
	}
	for _, b := range report.Budgets {
		resp.Budgets = append(resp.Budgets, budgetSpendFromCalc(b))
	}
	return connect.NewResponse(resp), nil
}

func (s *StatsService) GoalProgress(ctx context.Context, _ *connect.Request[Empty]) (*connect.Response[GoalProgressResponse], error) {
	owner, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	goals, err := s.ledger.GoalProgress(ctx, owner)
	if err != nil {
		logFailure(ctx, "GoalProgress failed", err, "owner_id", owner)
		return nil, toConnectError(err)
	}
	resp := &GoalProgressResponse{Goals: make([]*GoalStatus, 0, len(goals))}
	for _, g := range goals {
		resp.Goals = append(resp.Goals, &GoalStatus{Goal: goalFromModel(g.Goal), Progress: g.Progress})
	}
	return connect.NewResponse(resp), nil
}

func NewStatsServiceHandler(s *StatsService, opts ...connect.HandlerOption) (string, http.Handler) {
	p := newProcedures(StatsServiceName, opts)
	handle(p, "StatsForPeriod", s.StatsForPeriod)
	handle(p, "BudgetSpending", s.BudgetSpending)
	handle(p, "GoalProgress", s.GoalProgress)
	return p.path(), p.mux
}

type StatsServiceClient struct{ c *rpcClient }

func NewStatsServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *StatsServiceClient {
	return &StatsServiceClient{c: newRPCClient(httpClient, baseURL, opts)}
}

func (c *StatsServiceClient) StatsForPeriod(ctx context.Context, req *connect.Request[StatsForPeriodRequest]) (*connect.Response[StatsForPeriodResponse], error) {
	return callUnary[StatsForPeriodRequest, StatsForPeriodResponse](ctx, c.c, StatsServiceName, "StatsForPeriod", req)
}

func (c *StatsServiceClient) BudgetSpending(ctx context.Context, req *connect.Request[BudgetSpendingRequest]) (*connect.Response[BudgetSpendingResponse], error) {
	return callUnary[BudgetSpendingRequest, BudgetSpendingResponse](ctx, c.c, StatsServiceName, "BudgetSpending", req)
}

func (c *StatsServiceClient) GoalProgress(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[GoalProgressResponse], error) {
	return callUnary[Empty, GoalProgressResponse](ctx, c.c, StatsServiceName, "GoalProgress", req)
}
