// Command seed populates the state store with demo data: a company,
// an admin, two managers, three employees and a handful of expenses in
// assorted states. It replaces any existing document.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/expensedesk/expensedesk/internal/config"
	"github.com/expensedesk/expensedesk/internal/domain/entity"
	"github.com/expensedesk/expensedesk/internal/infrastructure/store"
	"github.com/expensedesk/expensedesk/pkg/utils"
)

func main() {
	configPath := "configs/config.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewDevelopmentLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0755); err != nil {
		logger.Fatal("Failed to create data directory", zap.Error(err))
	}

	st, err := store.NewSQLiteStore(store.Config{
		Path:            cfg.Store.Path,
		MaxOpenConns:    cfg.Store.MaxOpenConns,
		MaxIdleConns:    cfg.Store.MaxIdleConns,
		ConnMaxLifetime: cfg.Store.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to open state store", zap.Error(err))
	}
	defer st.Close()

	ctx := context.Background()
	state := demoState()

	if err := st.Clear(ctx); err != nil {
		logger.Fatal("Failed to clear existing document", zap.Error(err))
	}
	if err := st.Save(ctx, state); err != nil {
		logger.Fatal("Failed to save demo document", zap.Error(err))
	}

	logger.Info("Demo data seeded",
		zap.Int("users", len(state.Users)),
		zap.Int("expenses", len(state.Expenses)),
		zap.String("path", cfg.Store.Path))
	logger.Info("Admin login", zap.String("email", "admin@techcorp.com"), zap.String("password", "admin123"))
}

func demoState() *entity.AppState {
	now := time.Now()
	daysAgo := func(d int) time.Time { return now.AddDate(0, 0, -d) }

	adminID := uuid.NewString()
	manager1ID := uuid.NewString()
	manager2ID := uuid.NewString()
	employee1ID := uuid.NewString()
	employee2ID := uuid.NewString()
	employee3ID := uuid.NewString()

	state := entity.NewAppState()
	state.Company = &entity.Company{
		Name:      "TechCorp Solutions",
		Currency:  "USD",
		CreatedAt: daysAgo(30),
	}
	state.Users = []entity.User{
		{ID: adminID, Name: "Sarah Johnson", Email: "admin@techcorp.com", Password: "admin123", Role: entity.RoleAdmin, CreatedAt: daysAgo(30)},
		{ID: manager1ID, Name: "Michael Chen", Email: "michael@techcorp.com", Password: "manager123", Role: entity.RoleManager, CreatedAt: daysAgo(25)},
		{ID: manager2ID, Name: "Emily Rodriguez", Email: "emily@techcorp.com", Password: "manager123", Role: entity.RoleManager, CreatedAt: daysAgo(25)},
		{ID: employee1ID, Name: "David Kim", Email: "david@techcorp.com", Password: "employee123", Role: entity.RoleEmployee, ManagerID: manager1ID, CreatedAt: daysAgo(20)},
		{ID: employee2ID, Name: "Jessica Brown", Email: "jessica@techcorp.com", Password: "employee123", Role: entity.RoleEmployee, ManagerID: manager1ID, CreatedAt: daysAgo(20)},
		{ID: employee3ID, Name: "Alex Turner", Email: "alex@techcorp.com", Password: "employee123", Role: entity.RoleEmployee, ManagerID: manager2ID, CreatedAt: daysAgo(18)},
	}

	amount := func(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }
	date := func(d int) string { return daysAgo(d).Format("2006-01-02") }

	state.Expenses = []entity.Expense{
		{
			ID: uuid.NewString(), EmployeeID: employee1ID,
			Amount: amount(842.30), Currency: "USD", Category: entity.CategoryTravel,
			Date: date(12), Description: "Flight to client meeting in New York",
			Status: entity.StatusApproved, CreatedAt: daysAgo(12),
			ApprovalHistory: []entity.ApprovalEntry{
				{ApproverID: manager1ID, Action: entity.ActionApproved, Comment: "Within travel budget", Timestamp: daysAgo(11)},
			},
		},
		{
			ID: uuid.NewString(), EmployeeID: employee2ID,
			Amount: amount(64.80), Currency: "EUR", Category: entity.CategoryMeals,
			Date: date(8), Description: "Business lunch with client",
			Status: entity.StatusInReview, CurrentApproverID: manager1ID, CreatedAt: daysAgo(8),
			ApprovalHistory: []entity.ApprovalEntry{},
		},
		{
			ID: uuid.NewString(), EmployeeID: employee3ID,
			Amount: amount(310.00), Currency: "GBP", Category: entity.CategoryAccommodation,
			Date: date(6), Description: "Hotel stay in San Francisco",
			Status: entity.StatusRejected, CreatedAt: daysAgo(6),
			ApprovalHistory: []entity.ApprovalEntry{
				{ApproverID: manager2ID, Action: entity.ActionRejected, Comment: "Missing receipt", Timestamp: daysAgo(5)},
			},
		},
		{
			ID: uuid.NewString(), EmployeeID: employee2ID,
			Amount: amount(45.99), Currency: "USD", Category: entity.CategoryOfficeSupplies,
			Date: date(3), Description: "Office supplies and stationery",
			Status: entity.StatusInReview, CurrentApproverID: manager1ID, CreatedAt: daysAgo(3),
			ApprovalHistory: []entity.ApprovalEntry{},
		},
		{
			ID: uuid.NewString(), EmployeeID: employee1ID,
			Amount: amount(8200), Currency: "INR", Category: entity.CategoryTravel,
			Date: date(1), Description: "Train tickets for conference",
			Status: entity.StatusInReview, CurrentApproverID: manager1ID, CreatedAt: daysAgo(1),
			ApprovalHistory: []entity.ApprovalEntry{},
		},
	}

	return state
}
