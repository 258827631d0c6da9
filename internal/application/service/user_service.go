package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/expensedesk/expensedesk/internal/apperr"
	"github.com/expensedesk/expensedesk/internal/domain/entity"
	"github.com/expensedesk/expensedesk/pkg/utils"
)

// UserService handles admin user management. Deleting a user does not
// cascade into expenses or the approval sequence; dangling references
// are resolved to a placeholder at render time.
type UserService struct {
	app    *App
	logger *zap.Logger
}

// NewUserService creates a new UserService
func NewUserService(app *App, logger *zap.Logger) *UserService {
	return &UserService{app: app, logger: logger}
}

// UserInput holds the user create/update form.
type UserInput struct {
	Name      string
	Email     string
	Password  string
	Role      entity.Role
	ManagerID string
}

// UserView is a user with referenced names resolved for display.
type UserView struct {
	entity.User
	ManagerName string `json:"managerName,omitempty"`
}

func (s *UserService) validate(in UserInput) error {
	if err := utils.ValidateEmail(in.Email); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}
	if !in.Role.IsValid() {
		return fmt.Errorf("%w: unknown role %q", apperr.ErrValidation, in.Role)
	}
	if in.Name == "" {
		return fmt.Errorf("%w: name is required", apperr.ErrValidation)
	}
	return nil
}

// Create adds a user. Duplicate emails are rejected before any mutation.
func (s *UserService) Create(ctx context.Context, in UserInput) (*entity.User, error) {
	defer s.app.lock()()
	state := s.app.State

	if err := s.validate(in); err != nil {
		return nil, err
	}
	if _, exists := state.UserByEmail(in.Email); exists {
		return nil, fmt.Errorf("%w: email already exists", apperr.ErrValidation)
	}

	managerID := in.ManagerID
	if in.Role != entity.RoleEmployee {
		managerID = ""
	}

	user := entity.User{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Email:     in.Email,
		Password:  in.Password,
		Role:      in.Role,
		ManagerID: managerID,
		CreatedAt: time.Now(),
	}
	state.Users = append(state.Users, user)

	if err := s.app.save(ctx); err != nil {
		return nil, err
	}

	s.logger.Info("User created", zap.String("user_id", user.ID), zap.String("role", user.Role.String()))
	u := user
	return &u, nil
}

// Update edits an existing user. The email must stay unique across all
// other users.
func (s *UserService) Update(ctx context.Context, id string, in UserInput) (*entity.User, error) {
	defer s.app.lock()()
	state := s.app.State

	user, ok := state.UserByID(id)
	if !ok {
		return nil, fmt.Errorf("%w: user %s", apperr.ErrNotFound, id)
	}
	if err := s.validate(in); err != nil {
		return nil, err
	}
	if other, exists := state.UserByEmail(in.Email); exists && other.ID != id {
		return nil, fmt.Errorf("%w: email already exists", apperr.ErrValidation)
	}

	user.Name = in.Name
	user.Email = in.Email
	if in.Password != "" {
		user.Password = in.Password
	}
	user.Role = in.Role
	if in.Role == entity.RoleEmployee {
		user.ManagerID = in.ManagerID
	} else {
		user.ManagerID = ""
	}

	if err := s.app.save(ctx); err != nil {
		return nil, err
	}

	s.logger.Info("User updated", zap.String("user_id", id))
	return user, nil
}

// Delete removes a user. References to the id elsewhere are left in
// place on purpose.
func (s *UserService) Delete(ctx context.Context, id string) error {
	defer s.app.lock()()
	state := s.app.State

	idx := -1
	for i := range state.Users {
		if state.Users[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: user %s", apperr.ErrNotFound, id)
	}

	state.Users = append(state.Users[:idx], state.Users[idx+1:]...)

	if err := s.app.save(ctx); err != nil {
		return err
	}

	s.logger.Info("User deleted", zap.String("user_id", id))
	return nil
}

// List returns all users with manager names resolved.
func (s *UserService) List() []UserView {
	defer s.app.lock()()
	state := s.app.State

	views := make([]UserView, 0, len(state.Users))
	for _, u := range state.Users {
		view := UserView{User: u}
		if u.ManagerID != "" {
			view.ManagerName = state.UserName(u.ManagerID)
		}
		views = append(views, view)
	}
	return views
}

// Approvers returns the users eligible as managers and approvers
// (managers and admins), for selection dropdowns.
func (s *UserService) Approvers() []entity.User {
	defer s.app.lock()()
	return s.app.State.Approvers()
}
