package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/expensedesk/expensedesk/internal/apperr"
	"github.com/expensedesk/expensedesk/internal/domain/entity"
	"github.com/expensedesk/expensedesk/internal/domain/workflow"
)

func newTestState(users ...entity.User) *entity.AppState {
	state := entity.NewAppState()
	state.Users = users
	return state
}

func user(id string, role entity.Role, managerID string) entity.User {
	return entity.User{ID: id, Name: "User " + id, Email: id + "@example.com", Role: role, ManagerID: managerID}
}

func addExpense(state *entity.AppState, e *Engine, employeeID string) *entity.Expense {
	submitter, _ := state.UserByID(employeeID)
	expense := entity.Expense{
		ID:              "exp-" + employeeID,
		EmployeeID:      employeeID,
		Amount:          decimal.NewFromInt(100),
		Currency:        "USD",
		Category:        entity.CategoryTravel,
		Date:            "2026-01-15",
		Status:          entity.StatusPending,
		ApprovalHistory: []entity.ApprovalEntry{},
	}
	e.InitialRoute(state, &expense, submitter)
	state.Expenses = append(state.Expenses, expense)
	return &state.Expenses[len(state.Expenses)-1]
}

func TestInitialRoute(t *testing.T) {
	tests := []struct {
		name            string
		managerApproval bool
		sequence        []string
		submitter       entity.User
		wantStatus      entity.Status
		wantApprover    string
		wantStep        bool
	}{
		{
			name:            "manager routing",
			managerApproval: true,
			submitter:       user("emp", entity.RoleEmployee, "mgr"),
			wantStatus:      entity.StatusInReview,
			wantApprover:    "mgr",
		},
		{
			name:            "manager routing wins over sequence",
			managerApproval: true,
			sequence:        []string{"a", "b"},
			submitter:       user("emp", entity.RoleEmployee, "mgr"),
			wantStatus:      entity.StatusInReview,
			wantApprover:    "mgr",
		},
		{
			name:            "manager routing without a manager stays pending",
			managerApproval: true,
			submitter:       user("mgr", entity.RoleManager, ""),
			wantStatus:      entity.StatusPending,
		},
		{
			name:       "sequence routing",
			sequence:   []string{"a", "b"},
			submitter:  user("emp", entity.RoleEmployee, ""),
			wantStatus: entity.StatusInReview,
			wantApprover: "a",
			wantStep:   true,
		},
		{
			name:       "no routing configured",
			submitter:  user("emp", entity.RoleEmployee, ""),
			wantStatus: entity.StatusPending,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := newTestState(tt.submitter)
			state.ApprovalSettings.ManagerApproval = tt.managerApproval
			state.ApprovalSettings.ApprovalSequence = tt.sequence

			e := New(false, zap.NewNop())
			expense := addExpense(state, e, tt.submitter.ID)

			if expense.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", expense.Status, tt.wantStatus)
			}
			if expense.CurrentApproverID != tt.wantApprover {
				t.Errorf("currentApproverId = %q, want %q", expense.CurrentApproverID, tt.wantApprover)
			}
			if tt.wantStep {
				if expense.ApprovalStep == nil || *expense.ApprovalStep != 0 {
					t.Errorf("approvalStep = %v, want 0", expense.ApprovalStep)
				}
			} else if expense.ApprovalStep != nil {
				t.Errorf("approvalStep = %v, want nil", *expense.ApprovalStep)
			}
		})
	}
}

func TestRecordAction_SequenceRouting(t *testing.T) {
	a := user("a", entity.RoleManager, "")
	b := user("b", entity.RoleManager, "")
	emp := user("emp", entity.RoleEmployee, "")
	state := newTestState(a, b, emp)
	state.ApprovalSettings.ManagerApproval = false
	state.ApprovalSettings.ApprovalSequence = []string{"a", "b"}

	e := New(false, zap.NewNop())
	expense := addExpense(state, e, "emp")

	ctx := context.Background()

	got, err := e.RecordAction(ctx, state, expense.ID, &a, entity.ActionApproved, "first")
	if err != nil {
		t.Fatalf("RecordAction(a) error: %v", err)
	}
	if got.Status != entity.StatusInReview {
		t.Errorf("status after first approval = %s, want in-review", got.Status)
	}
	if got.CurrentApproverID != "b" {
		t.Errorf("currentApproverId = %q, want b", got.CurrentApproverID)
	}
	if got.ApprovalStep == nil || *got.ApprovalStep != 1 {
		t.Errorf("approvalStep = %v, want 1", got.ApprovalStep)
	}

	got, err = e.RecordAction(ctx, state, expense.ID, &b, entity.ActionApproved, "second")
	if err != nil {
		t.Fatalf("RecordAction(b) error: %v", err)
	}
	if got.Status != entity.StatusApproved {
		t.Errorf("status after sequence exhausted = %s, want approved", got.Status)
	}
	if got.CurrentApproverID != "" {
		t.Errorf("currentApproverId = %q, want empty", got.CurrentApproverID)
	}
	if len(got.ApprovalHistory) != 2 {
		t.Errorf("history length = %d, want 2", len(got.ApprovalHistory))
	}
}

func TestRecordAction_RejectionIsTerminal(t *testing.T) {
	a := user("a", entity.RoleManager, "")
	b := user("b", entity.RoleManager, "")
	emp := user("emp", entity.RoleEmployee, "")
	state := newTestState(a, b, emp)
	state.ApprovalSettings.ManagerApproval = false
	state.ApprovalSettings.ApprovalSequence = []string{"a", "b"}

	e := New(false, zap.NewNop())
	expense := addExpense(state, e, "emp")
	ctx := context.Background()

	got, err := e.RecordAction(ctx, state, expense.ID, &a, entity.ActionRejected, "too expensive")
	if err != nil {
		t.Fatalf("RecordAction(reject) error: %v", err)
	}
	if got.Status != entity.StatusRejected {
		t.Fatalf("status = %s, want rejected", got.Status)
	}
	if got.CurrentApproverID != "" {
		t.Errorf("currentApproverId = %q, want empty", got.CurrentApproverID)
	}

	// A later attempt by the next approver in the chain must not
	// mutate anything.
	before := len(got.ApprovalHistory)
	_, err = e.RecordAction(ctx, state, expense.ID, &b, entity.ActionApproved, "")
	if !errors.Is(err, workflow.ErrInvalidTransition) {
		t.Errorf("error = %v, want ErrInvalidTransition", err)
	}
	if len(got.ApprovalHistory) != before {
		t.Errorf("history grew on terminal expense: %d -> %d", before, len(got.ApprovalHistory))
	}
	if got.Status != entity.StatusRejected {
		t.Errorf("status changed on terminal expense: %s", got.Status)
	}
}

func TestRecordAction_ManagerPathApprovedRegardlessOfRule(t *testing.T) {
	// Legacy behavior: the percentage rule cannot be satisfied here,
	// yet a single manager approval still completes the expense.
	mgr := user("mgr", entity.RoleManager, "")
	other := user("other", entity.RoleManager, "")
	third := user("third", entity.RoleManager, "")
	emp := user("emp", entity.RoleEmployee, "mgr")
	state := newTestState(mgr, other, third, emp)
	state.ApprovalSettings.ConditionalRule = entity.RulePercentage
	state.ApprovalSettings.PercentageValue = 100

	e := New(false, zap.NewNop())
	expense := addExpense(state, e, "emp")

	got, err := e.RecordAction(context.Background(), state, expense.ID, &mgr, entity.ActionApproved, "")
	if err != nil {
		t.Fatalf("RecordAction error: %v", err)
	}
	if got.Status != entity.StatusApproved {
		t.Errorf("status = %s, want approved (legacy mode ignores the rule)", got.Status)
	}
}

func TestRecordAction_StrictConditionalHoldsExpense(t *testing.T) {
	mgr := user("mgr", entity.RoleManager, "")
	other := user("other", entity.RoleManager, "")
	admin := user("adm", entity.RoleAdmin, "")
	emp := user("emp", entity.RoleEmployee, "mgr")
	state := newTestState(mgr, other, admin, emp)
	state.ApprovalSettings.ConditionalRule = entity.RulePercentage
	state.ApprovalSettings.PercentageValue = 60 // 1 of 3 approvers is 33%

	e := New(true, zap.NewNop())
	expense := addExpense(state, e, "emp")
	ctx := context.Background()

	got, err := e.RecordAction(ctx, state, expense.ID, &mgr, entity.ActionApproved, "")
	if err != nil {
		t.Fatalf("RecordAction(mgr) error: %v", err)
	}
	if got.Status != entity.StatusPending {
		t.Fatalf("status = %s, want pending while rule unsatisfied", got.Status)
	}
	if got.CurrentApproverID != "" {
		t.Errorf("currentApproverId = %q, want empty", got.CurrentApproverID)
	}

	// Second approval by an admin reaches 2/3 = 66% >= 60%.
	got, err = e.RecordAction(ctx, state, expense.ID, &admin, entity.ActionApproved, "")
	if err != nil {
		t.Fatalf("RecordAction(admin) error: %v", err)
	}
	if got.Status != entity.StatusApproved {
		t.Errorf("status = %s, want approved once the rule passes", got.Status)
	}
}

func TestRecordAction_Authorization(t *testing.T) {
	mgr := user("mgr", entity.RoleManager, "")
	outsider := user("outsider", entity.RoleManager, "")
	admin := user("adm", entity.RoleAdmin, "")
	emp := user("emp", entity.RoleEmployee, "mgr")
	state := newTestState(mgr, outsider, admin, emp)

	e := New(false, zap.NewNop())
	expense := addExpense(state, e, "emp")
	ctx := context.Background()

	_, err := e.RecordAction(ctx, state, expense.ID, &outsider, entity.ActionApproved, "")
	if !errors.Is(err, apperr.ErrPermissionDenied) {
		t.Errorf("outsider error = %v, want ErrPermissionDenied", err)
	}
	if len(expense.ApprovalHistory) != 0 {
		t.Errorf("history grew on denied action")
	}

	// Admins may always act, even when not the designated approver.
	got, err := e.RecordAction(ctx, state, expense.ID, &admin, entity.ActionApproved, "")
	if err != nil {
		t.Fatalf("admin RecordAction error: %v", err)
	}
	if got.Status != entity.StatusApproved {
		t.Errorf("status = %s, want approved", got.Status)
	}
}

func TestRecordAction_SequenceMemberMayActWhilePending(t *testing.T) {
	a := user("a", entity.RoleManager, "")
	emp := user("emp", entity.RoleEmployee, "")
	state := newTestState(a, emp)
	// Sequence configured but the expense was routed before it existed:
	// simulate by clearing routing after submission.
	e := New(false, zap.NewNop())
	expense := addExpense(state, e, "emp")
	state.ApprovalSettings.ApprovalSequence = []string{"a"}

	if expense.Status != entity.StatusPending {
		t.Fatalf("precondition: status = %s, want pending", expense.Status)
	}

	got, err := e.RecordAction(context.Background(), state, expense.ID, &a, entity.ActionApproved, "")
	if err != nil {
		t.Fatalf("RecordAction error: %v", err)
	}
	if got.Status != entity.StatusApproved {
		t.Errorf("status = %s, want approved", got.Status)
	}
}

func TestRecordAction_UnknownExpense(t *testing.T) {
	admin := user("adm", entity.RoleAdmin, "")
	state := newTestState(admin)
	e := New(false, zap.NewNop())

	_, err := e.RecordAction(context.Background(), state, "missing", &admin, entity.ActionApproved, "")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestConditionalApproval_Percentage(t *testing.T) {
	tests := []struct {
		name      string
		approvers int
		approvals int
		threshold int
		want      bool
	}{
		{"2 of 4 at 50", 4, 2, 50, true},
		{"2 of 4 at 51", 4, 2, 51, false},
		{"zero approvers", 0, 2, 50, false},
		{"all approved", 3, 3, 100, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := entity.NewAppState()
			for i := 0; i < tt.approvers; i++ {
				state.Users = append(state.Users, user(string(rune('a'+i)), entity.RoleManager, ""))
			}
			state.ApprovalSettings.ConditionalRule = entity.RulePercentage
			state.ApprovalSettings.PercentageValue = tt.threshold

			expense := &entity.Expense{}
			for i := 0; i < tt.approvals; i++ {
				expense.ApprovalHistory = append(expense.ApprovalHistory, entity.ApprovalEntry{
					ApproverID: string(rune('a' + i)),
					Action:     entity.ActionApproved,
				})
			}

			e := New(false, zap.NewNop())
			if got := e.ConditionalApproval(state, expense); got != tt.want {
				t.Errorf("ConditionalApproval() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConditionalApproval_Specific(t *testing.T) {
	state := newTestState(user("boss", entity.RoleManager, ""), user("peer", entity.RoleManager, ""))
	state.ApprovalSettings.ConditionalRule = entity.RuleSpecific
	state.ApprovalSettings.SpecificApprover = "boss"

	e := New(false, zap.NewNop())
	expense := &entity.Expense{ApprovalHistory: []entity.ApprovalEntry{
		{ApproverID: "peer", Action: entity.ActionApproved},
	}}
	if e.ConditionalApproval(state, expense) {
		t.Error("rule satisfied without the designated approver")
	}

	expense.ApprovalHistory = append(expense.ApprovalHistory, entity.ApprovalEntry{
		ApproverID: "boss", Action: entity.ActionApproved,
	})
	if !e.ConditionalApproval(state, expense) {
		t.Error("rule not satisfied after designated approver approved")
	}
}

func TestConditionalApproval_Hybrid(t *testing.T) {
	e := New(false, zap.NewNop())

	// Specific side satisfied, percentage side not.
	state := newTestState(
		user("boss", entity.RoleManager, ""),
		user("m2", entity.RoleManager, ""),
		user("m3", entity.RoleManager, ""),
		user("m4", entity.RoleManager, ""),
	)
	state.ApprovalSettings.ConditionalRule = entity.RuleHybrid
	state.ApprovalSettings.HybridPercentage = 100
	state.ApprovalSettings.HybridApprover = "boss"

	expense := &entity.Expense{ApprovalHistory: []entity.ApprovalEntry{
		{ApproverID: "boss", Action: entity.ActionApproved},
	}}
	if !e.ConditionalApproval(state, expense) {
		t.Error("hybrid rule not satisfied by designated approver")
	}

	// Percentage side satisfied, specific side not.
	state.ApprovalSettings.HybridPercentage = 25
	expense = &entity.Expense{ApprovalHistory: []entity.ApprovalEntry{
		{ApproverID: "m2", Action: entity.ActionApproved},
	}}
	if !e.ConditionalApproval(state, expense) {
		t.Error("hybrid rule not satisfied by percentage threshold")
	}
}

func TestConditionalApproval_NoneIsNeverSatisfied(t *testing.T) {
	state := newTestState(user("m", entity.RoleManager, ""))
	e := New(false, zap.NewNop())
	expense := &entity.Expense{ApprovalHistory: []entity.ApprovalEntry{
		{ApproverID: "m", Action: entity.ActionApproved},
	}}
	if e.ConditionalApproval(state, expense) {
		t.Error("rule none must never auto-approve")
	}
}

func TestRecordAction_DanglingApproverTolerated(t *testing.T) {
	// The routed manager was deleted after submission; an admin can
	// still complete the expense and nothing panics on the dangling id.
	admin := user("adm", entity.RoleAdmin, "")
	emp := user("emp", entity.RoleEmployee, "ghost")
	state := newTestState(admin, emp)

	e := New(false, zap.NewNop())
	expense := addExpense(state, e, "emp")
	if expense.CurrentApproverID != "ghost" {
		t.Fatalf("precondition: routed to %q, want ghost", expense.CurrentApproverID)
	}
	if state.UserName("ghost") != entity.UnknownUserName {
		t.Errorf("dangling id resolved to %q, want placeholder", state.UserName("ghost"))
	}

	got, err := e.RecordAction(context.Background(), state, expense.ID, &admin, entity.ActionApproved, "")
	if err != nil {
		t.Fatalf("RecordAction error: %v", err)
	}
	if got.Status != entity.StatusApproved {
		t.Errorf("status = %s, want approved", got.Status)
	}
}
