package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/expensedesk/expensedesk/internal/apperr"
	"github.com/expensedesk/expensedesk/internal/domain/entity"
)

// SettingsService handles the company-wide approval policy
// configuration.
type SettingsService struct {
	app    *App
	logger *zap.Logger
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(app *App, logger *zap.Logger) *SettingsService {
	return &SettingsService{app: app, logger: logger}
}

// Get returns the current approval settings.
func (s *SettingsService) Get() entity.ApprovalSettings {
	defer s.app.lock()()
	return s.app.State.ApprovalSettings
}

// Update replaces the policy fields. The approval sequence is managed
// separately through AddToSequence and RemoveFromSequence.
func (s *SettingsService) Update(ctx context.Context, in entity.ApprovalSettings) (entity.ApprovalSettings, error) {
	defer s.app.lock()()
	state := s.app.State

	if err := in.Validate(); err != nil {
		return entity.ApprovalSettings{}, fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}

	settings := &state.ApprovalSettings
	settings.ManagerApproval = in.ManagerApproval
	settings.ConditionalRule = in.ConditionalRule

	switch in.ConditionalRule {
	case entity.RulePercentage:
		settings.PercentageValue = in.PercentageValue
	case entity.RuleSpecific:
		settings.SpecificApprover = in.SpecificApprover
	case entity.RuleHybrid:
		settings.HybridPercentage = in.HybridPercentage
		settings.HybridApprover = in.HybridApprover
	}

	if err := s.app.save(ctx); err != nil {
		return entity.ApprovalSettings{}, err
	}

	s.logger.Info("Approval settings updated",
		zap.Bool("manager_approval", settings.ManagerApproval),
		zap.String("conditional_rule", string(settings.ConditionalRule)))
	return *settings, nil
}

// AddToSequence appends an approver to the approval sequence. Only
// managers and admins not already in the sequence are eligible.
func (s *SettingsService) AddToSequence(ctx context.Context, approverID string) (entity.ApprovalSettings, error) {
	defer s.app.lock()()
	state := s.app.State

	user, ok := state.UserByID(approverID)
	if !ok {
		return entity.ApprovalSettings{}, fmt.Errorf("%w: user %s", apperr.ErrNotFound, approverID)
	}
	if !user.Role.CanApprove() {
		return entity.ApprovalSettings{}, fmt.Errorf("%w: %s is not a manager or admin", apperr.ErrValidation, approverID)
	}
	if state.ApprovalSettings.InSequence(approverID) {
		return entity.ApprovalSettings{}, fmt.Errorf("%w: %s is already in the sequence", apperr.ErrValidation, approverID)
	}

	state.ApprovalSettings.ApprovalSequence = append(state.ApprovalSettings.ApprovalSequence, approverID)

	if err := s.app.save(ctx); err != nil {
		return entity.ApprovalSettings{}, err
	}
	return state.ApprovalSettings, nil
}

// RemoveFromSequence removes the approver at the given position.
func (s *SettingsService) RemoveFromSequence(ctx context.Context, index int) (entity.ApprovalSettings, error) {
	defer s.app.lock()()
	state := s.app.State

	sequence := state.ApprovalSettings.ApprovalSequence
	if index < 0 || index >= len(sequence) {
		return entity.ApprovalSettings{}, fmt.Errorf("%w: sequence position %d", apperr.ErrNotFound, index)
	}

	state.ApprovalSettings.ApprovalSequence = append(sequence[:index], sequence[index+1:]...)

	if err := s.app.save(ctx); err != nil {
		return entity.ApprovalSettings{}, err
	}
	return state.ApprovalSettings, nil
}
