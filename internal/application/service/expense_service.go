package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/expensedesk/expensedesk/internal/apperr"
	"github.com/expensedesk/expensedesk/internal/currency"
	"github.com/expensedesk/expensedesk/internal/domain/entity"
	"github.com/expensedesk/expensedesk/internal/engine"
	"github.com/expensedesk/expensedesk/pkg/utils"
)

// ExpenseService handles expense submission, listing and approval
// decisions. All lifecycle logic is delegated to the workflow engine.
type ExpenseService struct {
	app    *App
	engine *engine.Engine
	logger *zap.Logger
}

// NewExpenseService creates a new ExpenseService
func NewExpenseService(app *App, eng *engine.Engine, logger *zap.Logger) *ExpenseService {
	return &ExpenseService{app: app, engine: eng, logger: logger}
}

// SubmitInput holds the expense submission form.
type SubmitInput struct {
	Amount      decimal.Decimal
	Currency    string
	Category    string
	Date        string
	Description string
	Receipt     string
}

// Submit validates and creates an expense for the submitter, routing
// it through the configured approval policy.
func (s *ExpenseService) Submit(ctx context.Context, submitterID string, in SubmitInput) (*entity.Expense, error) {
	defer s.app.lock()()
	state := s.app.State

	submitter, ok := state.UserByID(submitterID)
	if !ok {
		return nil, fmt.Errorf("%w: user %s", apperr.ErrNotFound, submitterID)
	}
	if err := utils.ValidateAmount(in.Amount); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}
	if !entity.IsValidCategory(in.Category) {
		return nil, fmt.Errorf("%w: unknown category %q", apperr.ErrValidation, in.Category)
	}
	if in.Date == "" {
		return nil, fmt.Errorf("%w: date is required", apperr.ErrValidation)
	}

	expense := entity.Expense{
		ID:              uuid.NewString(),
		EmployeeID:      submitter.ID,
		Amount:          in.Amount,
		Currency:        in.Currency,
		Category:        in.Category,
		Date:            in.Date,
		Description:     in.Description,
		Receipt:         in.Receipt,
		Status:          entity.StatusPending,
		ApprovalHistory: []entity.ApprovalEntry{},
		CreatedAt:       time.Now(),
	}

	s.engine.InitialRoute(state, &expense, submitter)
	state.Expenses = append(state.Expenses, expense)

	if err := s.app.save(ctx); err != nil {
		return nil, err
	}

	e := expense
	return &e, nil
}

// ListOwn returns the user's own expenses, optionally filtered by
// status ("all" or empty means no filter). Newest first.
func (s *ExpenseService) ListOwn(userID string, statusFilter string) []entity.Expense {
	defer s.app.lock()()
	state := s.app.State

	var out []entity.Expense
	for i := len(state.Expenses) - 1; i >= 0; i-- {
		e := state.Expenses[i]
		if e.EmployeeID != userID {
			continue
		}
		if statusFilter != "" && statusFilter != "all" && e.Status != entity.Status(statusFilter) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Stats summarizes expense counts for the dashboard. Pending counts
// both pending and in-review.
type Stats struct {
	Total    int `json:"total"`
	Approved int `json:"approved"`
	Pending  int `json:"pending"`
	Rejected int `json:"rejected"`
}

// Dashboard returns stats and the most recent expenses visible to the
// user: employees see their own, managers and admins see everything.
func (s *ExpenseService) Dashboard(user *entity.User, recent int) (Stats, []ExpenseView) {
	defer s.app.lock()()
	state := s.app.State

	var stats Stats
	var views []ExpenseView
	for i := len(state.Expenses) - 1; i >= 0; i-- {
		e := state.Expenses[i]
		if user.Role == entity.RoleEmployee && e.EmployeeID != user.ID {
			continue
		}
		stats.Total++
		switch e.Status {
		case entity.StatusApproved:
			stats.Approved++
		case entity.StatusRejected:
			stats.Rejected++
		default:
			stats.Pending++
		}
		if len(views) < recent {
			views = append(views, s.view(e))
		}
	}
	return stats, views
}

// ExpenseView is an expense with referenced names resolved and the
// amount converted to the company currency for display. The converted
// amount never feeds policy evaluation.
type ExpenseView struct {
	entity.Expense
	EmployeeName    string           `json:"employeeName"`
	ApproverName    string           `json:"approverName,omitempty"`
	ConvertedAmount *decimal.Decimal `json:"convertedAmount,omitempty"`
	CompanyCurrency string           `json:"companyCurrency,omitempty"`
	History         []HistoryView    `json:"history"`
}

// HistoryView is an approval trail entry with the approver name resolved.
type HistoryView struct {
	entity.ApprovalEntry
	ApproverName string `json:"approverName"`
}

func (s *ExpenseService) view(e entity.Expense) ExpenseView {
	state := s.app.State

	view := ExpenseView{
		Expense:      e,
		EmployeeName: state.UserName(e.EmployeeID),
		History:      make([]HistoryView, 0, len(e.ApprovalHistory)),
	}
	if e.CurrentApproverID != "" {
		view.ApproverName = state.UserName(e.CurrentApproverID)
	}
	if state.Company != nil {
		converted := currency.Convert(e.Amount, e.Currency, state.Company.Currency)
		view.ConvertedAmount = &converted
		view.CompanyCurrency = state.Company.Currency
	}
	for _, entry := range e.ApprovalHistory {
		view.History = append(view.History, HistoryView{
			ApprovalEntry: entry,
			ApproverName:  state.UserName(entry.ApproverID),
		})
	}
	return view
}

// Get returns a single expense with display fields resolved.
func (s *ExpenseService) Get(expenseID string) (*ExpenseView, error) {
	defer s.app.lock()()

	e, ok := s.app.State.ExpenseByID(expenseID)
	if !ok {
		return nil, fmt.Errorf("%w: expense %s", apperr.ErrNotFound, expenseID)
	}
	view := s.view(*e)
	return &view, nil
}

// Queue returns the expenses awaiting the actor's decision: admins see
// all expenses, managers see those routed to them or, while still
// pending, those whose sequence they belong to. With pendingOnly only
// non-terminal expenses are returned.
func (s *ExpenseService) Queue(actor *entity.User, pendingOnly bool) []ExpenseView {
	defer s.app.lock()()
	state := s.app.State

	views := []ExpenseView{}
	for i := len(state.Expenses) - 1; i >= 0; i-- {
		e := state.Expenses[i]
		if actor.Role != entity.RoleAdmin {
			assigned := e.CurrentApproverID == actor.ID
			inSequence := e.Status == entity.StatusPending && state.ApprovalSettings.InSequence(actor.ID)
			if !assigned && !inSequence {
				continue
			}
		}
		if pendingOnly && e.Status.IsTerminal() {
			continue
		}
		views = append(views, s.view(e))
	}
	return views
}

// Decide records an approve or reject decision through the workflow
// engine and persists the result.
func (s *ExpenseService) Decide(ctx context.Context, expenseID string, actorID string, action entity.Action, comment string) (*ExpenseView, error) {
	defer s.app.lock()()
	state := s.app.State

	actor, ok := state.UserByID(actorID)
	if !ok {
		return nil, fmt.Errorf("%w: user %s", apperr.ErrNotFound, actorID)
	}

	expense, err := s.engine.RecordAction(ctx, state, expenseID, actor, action, comment)
	if err != nil {
		return nil, err
	}

	if err := s.app.save(ctx); err != nil {
		return nil, err
	}

	view := s.view(*expense)
	return &view, nil
}

// All returns every expense with display fields resolved, for export.
func (s *ExpenseService) All() []ExpenseView {
	defer s.app.lock()()
	state := s.app.State

	views := make([]ExpenseView, 0, len(state.Expenses))
	for _, e := range state.Expenses {
		views = append(views, s.view(e))
	}
	return views
}
