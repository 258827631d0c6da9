package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/expensedesk/expensedesk/internal/apperr"
	"github.com/expensedesk/expensedesk/internal/application/service"
	"github.com/expensedesk/expensedesk/internal/currency"
	"github.com/expensedesk/expensedesk/internal/domain/entity"
	"github.com/expensedesk/expensedesk/internal/domain/workflow"
	"github.com/expensedesk/expensedesk/internal/report"
	"github.com/expensedesk/expensedesk/internal/scan"
)

// Pinger reports storage liveness for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers contains all HTTP request handlers
type Handlers struct {
	auth      *service.AuthService
	users     *service.UserService
	expenses  *service.ExpenseService
	settings  *service.SettingsService
	scanner   *scan.Scanner
	exporter  *report.Exporter
	reportDir string
	pinger    Pinger
	logger    *zap.Logger
}

// SetPinger attaches a storage liveness check to the health endpoint.
func (h *Handlers) SetPinger(p Pinger) {
	h.pinger = p
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	auth *service.AuthService,
	users *service.UserService,
	expenses *service.ExpenseService,
	settings *service.SettingsService,
	scanner *scan.Scanner,
	exporter *report.Exporter,
	reportDir string,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		auth:      auth,
		users:     users,
		expenses:  expenses,
		settings:  settings,
		scanner:   scanner,
		exporter:  exporter,
		reportDir: reportDir,
		logger:    logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func (h *Handlers) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperr.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, apperr.ErrPermissionDenied):
		status = http.StatusForbidden
	case errors.Is(err, apperr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, workflow.ErrInvalidTransition), errors.Is(err, workflow.ErrGuardFailed):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.Error(err))
	}
	c.JSON(status, Response{Success: false, Error: err.Error()})
}

func (h *Handlers) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: msg})
}

// currentUser resolves the signed-in user or responds 401.
func (h *Handlers) currentUser(c *gin.Context) (*entity.User, bool) {
	user, okUser := h.auth.CurrentUser()
	if !okUser {
		c.JSON(http.StatusUnauthorized, Response{Success: false, Error: "not signed in"})
		return nil, false
	}
	return user, true
}

// requireAdmin resolves the signed-in user and requires the admin role.
func (h *Handlers) requireAdmin(c *gin.Context) (*entity.User, bool) {
	user, okUser := h.currentUser(c)
	if !okUser {
		return nil, false
	}
	if user.Role != entity.RoleAdmin {
		c.JSON(http.StatusForbidden, Response{Success: false, Error: "admin role required"})
		return nil, false
	}
	return user, true
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	if h.pinger != nil {
		if err := h.pinger.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, Response{Success: false, Error: "storage unreachable"})
			return
		}
	}
	ok(c, gin.H{
		"status":    "healthy",
		"service":   "expensedesk",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// SignupRequest is the first-run signup payload.
type SignupRequest struct {
	CompanyName string `json:"companyName" binding:"required"`
	Currency    string `json:"currency" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
}

// Signup handles POST /api/v1/auth/signup
func (h *Handlers) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid signup payload")
		return
	}

	user, err := h.auth.Signup(c.Request.Context(), service.SignupInput{
		CompanyName: req.CompanyName,
		Currency:    req.Currency,
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, user)
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /api/v1/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid login payload")
		return
	}

	user, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, user)
}

// Logout handles POST /api/v1/auth/logout
func (h *Handlers) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	ok(c, nil)
}

// Me handles GET /api/v1/me
func (h *Handlers) Me(c *gin.Context) {
	user, okUser := h.currentUser(c)
	if !okUser {
		return
	}
	ok(c, user)
}

// Dashboard handles GET /api/v1/dashboard
func (h *Handlers) Dashboard(c *gin.Context) {
	user, okUser := h.currentUser(c)
	if !okUser {
		return
	}

	stats, recent := h.expenses.Dashboard(user, 5)
	ok(c, gin.H{"stats": stats, "recent": recent})
}

// SubmitExpenseRequest is the expense submission payload.
type SubmitExpenseRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Currency    string          `json:"currency" binding:"required"`
	Category    string          `json:"category" binding:"required"`
	Date        string          `json:"date" binding:"required"`
	Description string          `json:"description"`
	Receipt     string          `json:"receipt"`
}

// SubmitExpense handles POST /api/v1/expenses
func (h *Handlers) SubmitExpense(c *gin.Context) {
	user, okUser := h.currentUser(c)
	if !okUser {
		return
	}

	var req SubmitExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid expense payload")
		return
	}

	expense, err := h.expenses.Submit(c.Request.Context(), user.ID, service.SubmitInput{
		Amount:      req.Amount,
		Currency:    req.Currency,
		Category:    req.Category,
		Date:        req.Date,
		Description: req.Description,
		Receipt:     req.Receipt,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, expense)
}

// ListExpenses handles GET /api/v1/expenses
func (h *Handlers) ListExpenses(c *gin.Context) {
	user, okUser := h.currentUser(c)
	if !okUser {
		return
	}
	ok(c, h.expenses.ListOwn(user.ID, c.Query("status")))
}

// GetExpense handles GET /api/v1/expenses/:id
func (h *Handlers) GetExpense(c *gin.Context) {
	if _, okUser := h.currentUser(c); !okUser {
		return
	}

	view, err := h.expenses.Get(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, view)
}

// Approvals handles GET /api/v1/approvals
func (h *Handlers) Approvals(c *gin.Context) {
	user, okUser := h.currentUser(c)
	if !okUser {
		return
	}
	pendingOnly := c.DefaultQuery("filter", "pending") == "pending"
	ok(c, h.expenses.Queue(user, pendingOnly))
}

// DecisionRequest is the approve/reject payload.
type DecisionRequest struct {
	Action  entity.Action `json:"action" binding:"required"`
	Comment string        `json:"comment"`
}

// Decide handles POST /api/v1/expenses/:id/decision
func (h *Handlers) Decide(c *gin.Context) {
	user, okUser := h.currentUser(c)
	if !okUser {
		return
	}

	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid decision payload")
		return
	}

	view, err := h.expenses.Decide(c.Request.Context(), c.Param("id"), user.ID, req.Action, req.Comment)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, view)
}

// ListUsers handles GET /api/v1/users
func (h *Handlers) ListUsers(c *gin.Context) {
	if _, okUser := h.requireAdmin(c); !okUser {
		return
	}
	ok(c, h.users.List())
}

// UserRequest is the user create/update payload.
type UserRequest struct {
	Name      string `json:"name" binding:"required"`
	Email     string `json:"email" binding:"required"`
	Password  string `json:"password"`
	Role      string `json:"role" binding:"required"`
	ManagerID string `json:"managerId"`
}

// CreateUser handles POST /api/v1/users
func (h *Handlers) CreateUser(c *gin.Context) {
	if _, okUser := h.requireAdmin(c); !okUser {
		return
	}

	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid user payload")
		return
	}

	user, err := h.users.Create(c.Request.Context(), service.UserInput{
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Password,
		Role:      entity.Role(req.Role),
		ManagerID: req.ManagerID,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, user)
}

// UpdateUser handles PUT /api/v1/users/:id
func (h *Handlers) UpdateUser(c *gin.Context) {
	if _, okUser := h.requireAdmin(c); !okUser {
		return
	}

	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid user payload")
		return
	}

	user, err := h.users.Update(c.Request.Context(), c.Param("id"), service.UserInput{
		Name:      req.Name,
		Email:     req.Email,
		Password:  req.Password,
		Role:      entity.Role(req.Role),
		ManagerID: req.ManagerID,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, user)
}

// DeleteUser handles DELETE /api/v1/users/:id
func (h *Handlers) DeleteUser(c *gin.Context) {
	if _, okUser := h.requireAdmin(c); !okUser {
		return
	}

	if err := h.users.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	ok(c, nil)
}

// Approvers handles GET /api/v1/approvers. It backs the manager and
// sequence selection dropdowns.
func (h *Handlers) Approvers(c *gin.Context) {
	if _, okUser := h.requireAdmin(c); !okUser {
		return
	}
	ok(c, h.users.Approvers())
}

// Currencies handles GET /api/v1/currencies
func (h *Handlers) Currencies(c *gin.Context) {
	if _, okUser := h.currentUser(c); !okUser {
		return
	}
	ok(c, currency.Codes())
}

// GetSettings handles GET /api/v1/settings
func (h *Handlers) GetSettings(c *gin.Context) {
	if _, okUser := h.requireAdmin(c); !okUser {
		return
	}
	ok(c, h.settings.Get())
}

// UpdateSettings handles PUT /api/v1/settings
func (h *Handlers) UpdateSettings(c *gin.Context) {
	if _, okUser := h.requireAdmin(c); !okUser {
		return
	}

	var req entity.ApprovalSettings
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid settings payload")
		return
	}

	settings, err := h.settings.Update(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, settings)
}

// SequenceRequest names an approver to append to the sequence.
type SequenceRequest struct {
	ApproverID string `json:"approverId" binding:"required"`
}

// AddSequenceApprover handles POST /api/v1/settings/sequence
func (h *Handlers) AddSequenceApprover(c *gin.Context) {
	if _, okUser := h.requireAdmin(c); !okUser {
		return
	}

	var req SequenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid sequence payload")
		return
	}

	settings, err := h.settings.AddToSequence(c.Request.Context(), req.ApproverID)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, settings)
}

// RemoveSequenceApprover handles DELETE /api/v1/settings/sequence/:index
func (h *Handlers) RemoveSequenceApprover(c *gin.Context) {
	if _, okUser := h.requireAdmin(c); !okUser {
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		h.badRequest(c, "invalid sequence position")
		return
	}

	settings, err := h.settings.RemoveFromSequence(c.Request.Context(), index)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, settings)
}

// ScanReceipt handles POST /api/v1/scan
func (h *Handlers) ScanReceipt(c *gin.Context) {
	if _, okUser := h.currentUser(c); !okUser {
		return
	}

	result, err := h.scanner.Scan(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, result)
}

// ExportReport handles GET /api/v1/export
func (h *Handlers) ExportReport(c *gin.Context) {
	user, okUser := h.currentUser(c)
	if !okUser {
		return
	}
	if !user.Role.CanApprove() {
		c.JSON(http.StatusForbidden, Response{Success: false, Error: "manager or admin role required"})
		return
	}

	filename := fmt.Sprintf("expenses-%s.xlsx", time.Now().Format("20060102-150405"))
	path := filepath.Join(h.reportDir, filename)
	if err := h.exporter.Save(h.expenses.All(), path); err != nil {
		h.fail(c, err)
		return
	}
	c.FileAttachment(path, filename)
}
