// Package engine implements the approval workflow: initial routing of
// a submitted expense, recording of approve/reject decisions, and the
// conditional auto-approval rules.
package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/expensedesk/expensedesk/internal/apperr"
	"github.com/expensedesk/expensedesk/internal/domain/entity"
	"github.com/expensedesk/expensedesk/internal/domain/workflow"
)

// Engine owns the expense lifecycle. It mutates expenses inside the
// caller-owned AppState and never touches persistence itself.
//
// StrictConditional selects how the conditional rule is applied on the
// single-approval path. The legacy behavior evaluates the rule and
// then approves regardless of its result; strict mode makes the rule
// gating, returning the expense to pending while it is unsatisfied.
type Engine struct {
	strictConditional bool
	now               func() time.Time
	logger            *zap.Logger
}

// New creates an approval engine.
func New(strictConditional bool, logger *zap.Logger) *Engine {
	return &Engine{
		strictConditional: strictConditional,
		now:               time.Now,
		logger:            logger,
	}
}

// InitialRoute computes the initial status and approver of a newly
// submitted expense. Manager routing takes precedence over the
// configured sequence; a submitter without a manager under manager
// routing deliberately stays pending with no designated approver.
func (e *Engine) InitialRoute(state *entity.AppState, expense *entity.Expense, submitter *entity.User) {
	settings := &state.ApprovalSettings

	switch {
	case settings.ManagerApproval && submitter.ManagerID != "":
		expense.Status = entity.StatusInReview
		expense.CurrentApproverID = submitter.ManagerID

	case len(settings.ApprovalSequence) > 0:
		step := 0
		expense.Status = entity.StatusInReview
		expense.CurrentApproverID = settings.ApprovalSequence[0]
		expense.ApprovalStep = &step

	default:
		expense.Status = entity.StatusPending
		expense.CurrentApproverID = ""
	}

	e.logger.Info("Expense routed",
		zap.String("expense_id", expense.ID),
		zap.String("status", expense.Status.String()),
		zap.String("current_approver", expense.CurrentApproverID))
}

// RecordAction records an approve or reject decision by the actor
// against the expense. The decision is appended to the approval trail
// and the lifecycle recomputed. Terminal expenses are never mutated.
func (e *Engine) RecordAction(ctx context.Context, state *entity.AppState, expenseID string, actor *entity.User, action entity.Action, comment string) (*entity.Expense, error) {
	expense, ok := state.ExpenseByID(expenseID)
	if !ok {
		return nil, fmt.Errorf("%w: expense %s", apperr.ErrNotFound, expenseID)
	}
	if !action.IsValid() {
		return nil, fmt.Errorf("%w: unknown action %q", apperr.ErrValidation, action)
	}
	if expense.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: expense %s is already %s", workflow.ErrInvalidTransition, expenseID, expense.Status)
	}
	if !e.authorized(state, expense, actor) {
		return nil, fmt.Errorf("%w: user %s may not act on expense %s", apperr.ErrPermissionDenied, actor.ID, expenseID)
	}

	settings := &state.ApprovalSettings
	onSequence := expense.ApprovalStep != nil
	trigger := workflow.TriggerReject
	if action == entity.ActionApproved {
		trigger = workflow.TriggerApprove
	}

	// The trail entry is appended before the lifecycle is recomputed so
	// the conditional rules see the decision being recorded.
	expense.ApprovalHistory = append(expense.ApprovalHistory, entity.ApprovalEntry{
		ApproverID: actor.ID,
		Action:     action,
		Comment:    comment,
		Timestamp:  e.now(),
	})

	machine, err := workflow.NewMachine(expense.Status, workflow.Guards{
		Advance: func(context.Context) bool {
			return onSequence && *expense.ApprovalStep+1 < len(settings.ApprovalSequence)
		},
		Hold: func(context.Context) bool {
			if onSequence || !e.strictConditional {
				return false
			}
			if settings.ConditionalRule == entity.RuleNone {
				return false
			}
			return !e.ConditionalApproval(state, expense)
		},
	})
	if err != nil {
		return nil, err
	}

	if err := machine.Fire(ctx, trigger); err != nil {
		return nil, err
	}

	previous := expense.Status
	expense.Status = machine.State()

	switch {
	case expense.Status.IsTerminal():
		expense.CurrentApproverID = ""

	case onSequence && action == entity.ActionApproved:
		next := *expense.ApprovalStep + 1
		expense.ApprovalStep = &next
		expense.CurrentApproverID = settings.ApprovalSequence[next]

	case expense.Status == entity.StatusPending:
		// Strict hold: the conditional rule is not yet satisfied, so
		// the expense awaits further ad-hoc approvals.
		expense.CurrentApproverID = ""
	}

	if action == entity.ActionApproved && !onSequence && !e.strictConditional {
		// Legacy mode computes the conditional rule here and
		// discards the result; the approval stands either way. Kept for
		// observability of the rule outcome.
		satisfied := e.ConditionalApproval(state, expense)
		e.logger.Debug("Conditional rule evaluated",
			zap.String("expense_id", expense.ID),
			zap.String("rule", string(settings.ConditionalRule)),
			zap.Bool("satisfied", satisfied))
	}

	e.logger.Info("Decision recorded",
		zap.String("expense_id", expense.ID),
		zap.String("actor_id", actor.ID),
		zap.String("action", string(action)),
		zap.String("from", previous.String()),
		zap.String("to", expense.Status.String()))

	return expense, nil
}

// authorized reports whether the actor may decide on the expense:
// admins always, the designated current approver, or any sequence
// member while the expense is still pending.
func (e *Engine) authorized(state *entity.AppState, expense *entity.Expense, actor *entity.User) bool {
	switch actor.Role {
	case entity.RoleAdmin:
		return true
	case entity.RoleManager, entity.RoleEmployee:
		if actor.ID == expense.CurrentApproverID && expense.CurrentApproverID != "" {
			return true
		}
		return expense.Status == entity.StatusPending && state.ApprovalSettings.InSequence(actor.ID)
	default:
		return false
	}
}

// ConditionalApproval evaluates the configured conditional rule against
// the expense's approval trail. Pure: no side effects on either
// argument. The percentage denominator is the live count of managers
// and admins; a zero denominator never auto-approves.
func (e *Engine) ConditionalApproval(state *entity.AppState, expense *entity.Expense) bool {
	settings := &state.ApprovalSettings

	switch settings.ConditionalRule {
	case entity.RulePercentage:
		return meetsPercentage(state, expense, settings.PercentageValue)

	case entity.RuleSpecific:
		return expense.HasApprovalBy(settings.SpecificApprover)

	case entity.RuleHybrid:
		return meetsPercentage(state, expense, settings.HybridPercentage) ||
			expense.HasApprovalBy(settings.HybridApprover)

	default:
		return false
	}
}

func meetsPercentage(state *entity.AppState, expense *entity.Expense, threshold int) bool {
	total := state.ApproverCount()
	if total == 0 {
		return false
	}
	percentage := float64(expense.ApprovedCount()) / float64(total) * 100
	return percentage >= float64(threshold)
}
