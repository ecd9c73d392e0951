package service

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/walletledger/internal/ledger"
	"github.com/mmynk/walletledger/internal/models"
)

const CatalogServiceName = "CatalogService"

type CategoryRequest struct {
	// ID is ignored on create.
	ID    string `json:"id"`
	Name  string `json:"name"`
	Type  string `json:"type"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

type CategoryResponse struct {
	Category *Category `json:"category"`
}

type ListCategoriesResponse struct {
	Categories []*Category `json:"categories"`
}

type ListBudgetsRequest struct {
	// Zero month and year list every budget.
	Month int `json:"month"`
	Year  int `json:"year"`
}

type ListBudgetsResponse struct {
	Budgets []*Budget `json:"budgets"`
}

type BudgetRequest struct {
	ID         string          `json:"id"`
	CategoryID string          `json:"category_id"`
	Month      int             `json:"month"`
	Year       int             `json:"year"`
	Amount     decimal.Decimal `json:"amount"`
}

type BudgetResponse struct {
	Budget *Budget `json:"budget"`
}

type GoalRequest struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	Currency      string          `json:"currency"`
	Deadline      string          `json:"deadline"`
}

type GoalResponse struct {
	Goal *Goal `json:"goal"`
}

type ListGoalsResponse struct {
	Goals []*Goal `json:"goals"`
}

type SubLedgerRequest struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	ExcludeFromStats bool   `json:"exclude_from_stats"`
}

type SubLedgerResponse struct {
	SubLedger *SubLedger `json:"sub_ledger"`
}

type ListSubLedgersResponse struct {
	SubLedgers []*SubLedger `json:"sub_ledgers"`
}

// CatalogService manages the reference data transactions point at.
type CatalogService struct {
	ledger *ledger.Ledger
}

func NewCatalogService(l *ledger.Ledger) *CatalogService {
	return &CatalogService{ledger: l}
}

func categoryInput(m *CategoryRequest) ledger.CategoryInput {
	return ledger.CategoryInput{Name: m.Name, Type: models.CategoryType(m.Type), Icon: m.Icon, Color: m.Color}
}

func (s *CatalogService) ListCategories(ctx context.Context, _ *connect.Request[Empty]) (*connect.Response[ListCategoriesResponse], error) {
	owner, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	cats, err := s.ledger.ListCategories(ctx, owner)
	if err != nil {
		logFailure(ctx, "ListCategories failed", err, "owner_id", owner)
		return nil, toConnectError(err)
	}
	resp := &ListCategoriesResponse{Categories: make([]*Category, 0, len(cats))}
	for _, c := range cats {
		resp.Categories = append(resp.Categories, categoryFromModel(c))
	}
	return connect.NewResponse(resp), nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, req *connect.Request[CategoryRequest]) (*connect.Response[CategoryResponse], error) {
	owner, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	c, err := s.ledger.CreateCategory(ctx, owner, categoryInput(req.Msg))
	if err != nil {
		logFailure(ctx, "CreateCategory failed", err, "owner_id", owner)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&CategoryResponse{Category: categoryFromModel(c)}), nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, req *connect.Request[CategoryRequest]) (*connect.Response[CategoryResponse], error) {
	owner, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	c, err := s.ledger.UpdateCategory(ctx, req.Msg.ID, owner, categoryInput(req.Msg))
	if err != nil {
		logFailure(ctx, "UpdateCategory failed", err, "category_id", req.Msg.ID)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&CategoryResponse{Category: categoryFromModel(c)}), nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, req *connect.Request[IDRequest]) (*connect.Response[Empty], error) {
	owner, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.ledger.DeleteCategory(ctx, req.Msg.ID, owner); err != nil {
		logFailure(ctx, "DeleteCategory failed", err, "category_id", req.Msg.ID)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&Empty{}), nil
}

func budgetInput(m *BudgetRequest) ledger.BudgetInput {
	return ledger.BudgetInput{CategoryID: m.CategoryID, Month: m.Month, Year: m.Year, Amount: m.Amount}
}

func (s *CatalogService) ListBudgets(ctx context.Context, req *connect.Request[ListBudgetsRequest]) (*connect.Response[ListBudgetsResponse], error) {
	owner, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	budgets, err := s.ledger.ListBudgets(ctx, owner, req.Msg.Month, req.Msg.Year)
	if err != nil {
		logFailure(ctx, "ListBudgets failed", err, "owner_id", owner)
		return nil, toConnectError(err)
	}
	resp := &ListBudgetsResponse{Budgets: make([]*Budget, 0, len(budgets))}
	for _, b := range budgets {
		resp.Budgets = append(resp.Budgets, budgetFromModel(b))
	}
	return connect.NewResponse(resp), nil
}

// SetBudget creates the budget of a category and month, or replaces its amount.
func (s *CatalogService) SetBudget(ctx context.Context, req *connect.Request[BudgetRequest]) (*connect.Response[BudgetResponse], error) {
	owner, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	b, err := s.ledger.SetBudget(ctx, owner, budgetInput(req.Msg))
	if err != nil {
		logFailure(ctx, "SetBudget failed", err, "owner_id", owner)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&BudgetResponse{Budget: budgetFromModel(b)}), nil
}

func (s *CatalogService) UpdateBudget(ctx context.Context, req *connect.Request[BudgetRequest]) (*connect.Response[BudgetResponse], error) {
	owner, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	b, err := s.ledger.UpdateBudget(ctx, req.Msg.ID, owner, budgetInput(req.Msg))
	if err != nil {
		logFailure(ctx, "UpdateBudget failed", err, "budget_id", req.Msg.ID)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&BudgetResponse{Budget: budgetFromModel(b)}), nil
}

func (s *CatalogService) DeleteBudget(ctx context.Context, req *connect.Request[IDRequest]) (*connect.Response[Empty], error) {
	owner, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.ledger.DeleteBudget(ctx, req.Msg.ID, owner); err != nil {
		logFailure(ctx, "DeleteBudget failed", err, "budget_id", req.Msg.ID)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&Empty{}), nil
}

func goalInput(m *GoalRequest) (ledger.GoalInput, error) {
	deadline, err := parseDate("deadline", m.Deadline)
	if err != nil {
		return ledger.GoalInput{}, err
	}
	return ledger.GoalInput{
		Name:          m.Name,
		TargetAmount:  m.TargetAmount,
		CurrentAmount: m.CurrentAmount,
		Currency:      m.Currency,
		Deadline:      deadline,
	}, nil
}

func (s *CatalogService) ListGoals(ctx context.Context, _ *connect.Request[Empty]) (*connect.Response[ListGoalsResponse], error) {
	owner, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	goals, err := s.ledger.ListGoals(ctx, owner)
	if err != nil {
		logFailure(ctx, "ListGoals failed", err, "owner_id", owner)
		return nil, toConnectError(err)
	}
	resp := &ListGoalsResponse{Goals: make([]*Goal, 0, len(goals))}
	for _, g := range goals {
		resp.Goals = append(resp.Goals, goalFromModel(g))
	}
	return connect.NewResponse(resp), nil
}

func (s *CatalogService) CreateGoal(ctx context.Context, req *connect.Request[GoalRequest]) (*connect.Response[GoalResponse], error) {
	owner, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	in, err := goalInput(req.Msg)
	if err != nil {
		return nil, err
	}
	g, err := s.ledger.CreateGoal(ctx, owner, in)
	if err != nil {
		logFailure(ctx, "CreateGoal failed", err, "owner_id", owner)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&GoalResponse{Goal: goalFromModel(g)}), nil
}

func (s *CatalogService) UpdateGoal(ctx context.Context, req *connect.Request[GoalRequest]) (*connect.Response[GoalResponse], error) {
	owner, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	in, err := goalInput(req.Msg)
	if err != nil {
		return nil, err
	}
	g, err := s.ledger.UpdateGoal(ctx, req.Msg.ID, owner, in)
	if err != nil {
		logFailure(ctx, "UpdateGoal failed", err, "goal_id", req.Msg.ID)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&GoalResponse{Goal: goalFromModel(g)}), nil
}

func (s *CatalogService) DeleteGoal(ctx context.Context, req *connect.Request[IDRequest]) (*connect.Response[Empty], error) {
	owner, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.ledger.DeleteGoal(ctx, req.Msg.ID, owner); err != nil {
		logFailure(ctx, "DeleteGoal failed", err, "goal_id", req.Msg.ID)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&Empty{}), nil
}

func (s *CatalogService) ListSubLedgers(ctx context.Context, _ *connect.Request[Empty]) (*connect.Response[ListSubLedgersResponse], error) {
	owner, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	subs, err := s.ledger.ListSubLedgers(ctx, owner)
	if err != nil {
		logFailure(ctx, "ListSubLedgers failed", err, "owner_id", owner)
		return nil, toConnectError(err)
	}
	resp := &ListSubLedgersResponse{SubLedgers: make([]*SubLedger, 0, len(subs))}
	for _, sl := range subs {
		resp.SubLedgers = append(resp.SubLedgers, subLedgerFromModel(sl))
	}
	return connect.NewResponse(resp), nil
}

func (s *CatalogService) CreateSubLedger(ctx context.Context, req *connect.Request[SubLedgerRequest]) (*connect.Response[SubLedgerResponse], error) {
	owner, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	sl, err := s.ledger.CreateSubLedger(ctx, owner, ledger.SubLedgerInput{Name: req.Msg.Name, ExcludeFromStats: req.Msg.ExcludeFromStats})
	if err != nil {
		logFailure(ctx, "CreateSubLedger failed", err, "owner_id", owner)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&SubLedgerResponse{SubLedger: subLedgerFromModel(sl)}), nil
}

func (s *CatalogService) UpdateSubLedger(ctx context.Context, req *connect.Request[SubLedgerRequest]) (*connect.Response[SubLedgerResponse], error) {
	owner, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	sl, err := s.ledger.UpdateSubLedger(ctx, req.Msg.ID, owner, ledger.SubLedgerInput{Name: req.Msg.Name, ExcludeFromStats: req.Msg.ExcludeFromStats})
	if err != nil {
		logFailure(ctx, "UpdateSubLedger failed", err, "sub_ledger_id", req.Msg.ID)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&SubLedgerResponse{SubLedger: subLedgerFromModel(sl)}), nil
}

func (s *CatalogService) DeleteSubLedger(ctx context.Context, req *connect.Request[IDRequest]) (*connect.Response[Empty], error) {
	owner, err := ownerID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.ledger.DeleteSubLedger(ctx, req.Msg.ID, owner); err != nil {
		logFailure(ctx, "DeleteSubLedger failed", err, "sub_ledger_id", req.Msg.ID)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&Empty{}), nil
}

func NewCatalogServiceHandler(s *CatalogService, opts ...connect.HandlerOption) (string, http.Handler) {
	p := newProcedures(CatalogServiceName, opts)
	handle(p, "ListCategories", s.ListCategories)
	handle(p, "CreateCategory", s.CreateCategory)
	handle(p, "UpdateCategory", s.UpdateCategory)
	handle(p, "DeleteCategory", s.DeleteCategory)
	handle(p, "ListBudgets", s.ListBudgets)
	handle(p, "SetBudget", s.SetBudget)
	handle(p, "UpdateBudget", s.UpdateBudget)
	handle(p, "DeleteBudget", s.DeleteBudget)
	handle(p, "ListGoals", s.ListGoals)
	handle(p, "CreateGoal", s.CreateGoal)
	handle(p, "UpdateGoal", s.UpdateGoal)
	handle(p, "DeleteGoal", s.DeleteGoal)
	handle(p, "ListSubLedgers", s.ListSubLedgers)
	handle(p, "CreateSubLedger", s.CreateSubLedger)
	handle(p, "UpdateSubLedger", s.UpdateSubLedger)
	handle(p, "DeleteSubLedger", s.DeleteSubLedger)
	return p.path(), p.mux
}

type CatalogServiceClient struct{ c *rpcClient }

func NewCatalogServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *CatalogServiceClient {
	return &CatalogServiceClient{c: newRPCClient(httpClient, baseURL, opts)}
}

func (c *CatalogServiceClient) ListCategories(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[ListCategoriesResponse], error) {
	return callUnary[Empty, ListCategoriesResponse](ctx, c.c, CatalogServiceName, "ListCategories", req)
}

func (c *CatalogServiceClient) CreateCategory(ctx context.Context, req *connect.Request[CategoryRequest]) (*connect.Response[CategoryResponse], error) {
	return callUnary[CategoryRequest, CategoryResponse](ctx, c.c, CatalogServiceName, "CreateCategory", req)
}

func (c *CatalogServiceClient) UpdateCategory(ctx context.Context, req *connect.Request[CategoryRequest]) (*connect.Response[CategoryResponse], error) {
	return callUnary[CategoryRequest, CategoryResponse](ctx, c.c, CatalogServiceName, "UpdateCategory", req)
}

func (c *CatalogServiceClient) DeleteCategory(ctx context.Context, req *connect.Request[IDRequest]) (*connect.Response[Empty], error) {
	return callUnary[IDRequest, Empty](ctx, c.c, CatalogServiceName, "DeleteCategory", req)
}

func (c *CatalogServiceClient) ListBudgets(ctx context.Context, req *connect.Request[ListBudgetsRequest]) (*connect.Response[ListBudgetsResponse], error) {
	return callUnary[ListBudgetsRequest, ListBudgetsResponse](ctx, c.c, CatalogServiceName, "ListBudgets", req)
}

func (c *CatalogServiceClient) SetBudget(ctx context.Context, req *connect.Request[BudgetRequest]) (*connect.Response[BudgetResponse], error) {
	return callUnary[BudgetRequest, BudgetResponse](ctx, c.c, CatalogServiceName, "SetBudget", req)
}

func (c *CatalogServiceClient) UpdateBudget(ctx context.Context, req *connect.Request[BudgetRequest]) (*connect.Response[BudgetResponse], error) {
	return callUnary[BudgetRequest, BudgetResponse](ctx, c.c, CatalogServiceName, "UpdateBudget", req)
}

func (c *CatalogServiceClient) DeleteBudget(ctx context.Context, req *connect.Request[IDRequest]) (*connect.Response[Empty], error) {
	return callUnary[IDRequest, Empty](ctx, c.c, CatalogServiceName, "DeleteBudget", req)
}

func (c *CatalogServiceClient) ListGoals(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[ListGoalsResponse], error) {
	return callUnary[Empty, ListGoalsResponse](ctx, c.c, CatalogServiceName, "ListGoals", req)
}

func (c *CatalogServiceClient) CreateGoal(ctx context.Context, req *connect.Request[GoalRequest]) (*connect.Response[GoalResponse], error) {
	return callUnary[GoalRequest, GoalResponse](ctx, c.c, CatalogServiceName, "CreateGoal", req)
}

func (c *CatalogServiceClient) UpdateGoal(ctx context.Context, req *connect.Request[GoalRequest]) (*connect.Response[GoalResponse], error) {
	return callUnary[GoalRequest, GoalResponse](ctx, c.c, CatalogServiceName, "UpdateGoal", req)
}

func (c *CatalogServiceClient) DeleteGoal(ctx context.Context, req *connect.Request[IDRequest]) (*connect.Response[Empty], error) {
	return callUnary[IDRequest, Empty](ctx, c.c, CatalogServiceName, "DeleteGoal", req)
}

func (c *CatalogServiceClient) ListSubLedgers(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[ListSubLedgersResponse], error) {
	return callUnary[Empty, ListSubLedgersResponse](ctx, c.c, CatalogServiceName, "ListSubLedgers", req)
}

func (c *CatalogServiceClient) CreateSubLedger(ctx context.Context, req *connect.Request[SubLedgerRequest]) (*connect.Response[SubLedgerResponse], error) {
	return callUnary[SubLedgerRequest, SubLedgerResponse](ctx, c.c, CatalogServiceName, "CreateSubLedger", req)
}

func (c *CatalogServiceClient) UpdateSubLedger(ctx context.Context, req *connect.Request[SubLedgerRequest]) (*connect.Response[SubLedgerResponse], error) {
	return callUnary[SubLedgerRequest, SubLedgerResponse](ctx, c.c, CatalogServiceName, "UpdateSubLedger", req)
}

func (c *CatalogServiceClient) DeleteSubLedger(ctx context.Context, req *connect.Request[IDRequest]) (*connect.Response[Empty], error) {
	return callUnary[IDRequest, Empty](ctx, c.c, CatalogServiceName, "DeleteSubLedger", req)
}
