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

// AuthService handles signup, login and logout. Credentials are
// compared in plaintext; this tool has no security ambitions.
type AuthService struct {
	app    *App
	logger *zap.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(app *App, logger *zap.Logger) *AuthService {
	return &AuthService{app: app, logger: logger}
}

// SignupInput holds the first-run signup form.
type SignupInput struct {
	CompanyName string
	Currency    string
	Name        string
	Email       string
	Password    string
}

// Signup creates the company and its admin account and signs the admin in.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*entity.User, error) {
	defer s.app.lock()()
	state := s.app.State

	if err := utils.ValidateEmail(in.Email); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}
	if _, exists := state.UserByEmail(in.Email); exists {
		return nil, fmt.Errorf("%w: email already exists", apperr.ErrValidation)
	}
	if in.CompanyName == "" || in.Name == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: company name, name and password are required", apperr.ErrValidation)
	}

	now := time.Now()
	state.Company = &entity.Company{
		Name:      in.CompanyName,
		Currency:  in.Currency,
		CreatedAt: now,
	}

	admin := entity.User{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Email:     in.Email,
		Password:  in.Password,
		Role:      entity.RoleAdmin,
		CreatedAt: now,
	}
	state.Users = append(state.Users, admin)
	state.CurrentUser = &state.Users[len(state.Users)-1]

	if err := s.app.save(ctx); err != nil {
		return nil, err
	}

	s.logger.Info("Company created",
		zap.String("company", in.CompanyName),
		zap.String("admin_id", admin.ID))
	return state.CurrentUser, nil
}

// Login signs a user in by email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*entity.User, error) {
	defer s.app.lock()()
	state := s.app.State

	user, ok := state.UserByEmail(email)
	if !ok || user.Password != password {
		return nil, fmt.Errorf("%w: invalid email or password", apperr.ErrValidation)
	}

	state.CurrentUser = user
	if err := s.app.save(ctx); err != nil {
		return nil, err
	}

	s.logger.Info("User logged in", zap.String("user_id", user.ID), zap.String("role", user.Role.String()))
	return user, nil
}

// Logout signs the current user out.
func (s *AuthService) Logout(ctx context.Context) error {
	defer s.app.lock()()

	s.app.State.CurrentUser = nil
	return s.app.save(ctx)
}

// CurrentUser returns the signed-in user, if any.
func (s *AuthService) CurrentUser() (*entity.User, bool) {
	defer s.app.lock()()

	if s.app.State.CurrentUser == nil {
		return nil, false
	}
	return s.app.State.CurrentUser, true
}
