package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/expensedesk/expensedesk/internal/domain/entity"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(Config{
		Path:            filepath.Join(t.TempDir(), "state.db"),
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleState() *entity.AppState {
	state := entity.NewAppState()
	state.Company = &entity.Company{Name: "TechCorp", Currency: "USD", CreatedAt: time.Now().UTC()}
	state.Users = []entity.User{
		{ID: "u1", Name: "Sarah", Email: "sarah@example.com", Password: "pw", Role: entity.RoleAdmin, CreatedAt: time.Now().UTC()},
	}
	step := 0
	state.Expenses = []entity.Expense{
		{
			ID:                "e1",
			EmployeeID:        "u1",
			Amount:            decimal.NewFromFloat(42.50),
			Currency:          "EUR",
			Category:          entity.CategoryMeals,
			Date:              "2026-02-01",
			Status:            entity.StatusInReview,
			CurrentApproverID: "u2",
			ApprovalStep:      &step,
			ApprovalHistory: []entity.ApprovalEntry{
				{ApproverID: "u2", Action: entity.ActionApproved, Comment: "fine", Timestamp: time.Now().UTC()},
			},
			CreatedAt: time.Now().UTC(),
		},
	}
	return state
}

func TestSQLiteStore_LoadEmpty(t *testing.T) {
	s := newTestStore(t)

	state, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestSQLiteStore_SaveAndLoad(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleState()))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, "TechCorp", loaded.Company.Name)
	require.Len(t, loaded.Users, 1)
	assert.Equal(t, entity.RoleAdmin, loaded.Users[0].Role)

	require.Len(t, loaded.Expenses, 1)
	e := loaded.Expenses[0]
	assert.True(t, e.Amount.Equal(decimal.NewFromFloat(42.50)))
	assert.Equal(t, entity.StatusInReview, e.Status)
	assert.Equal(t, "u2", e.CurrentApproverID)
	require.NotNil(t, e.ApprovalStep)
	assert.Equal(t, 0, *e.ApprovalStep)
	require.Len(t, e.ApprovalHistory, 1)
	assert.Equal(t, entity.ActionApproved, e.ApprovalHistory[0].Action)
}

func TestSQLiteStore_SaveReplacesDocument(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleState()))

	second := sampleState()
	second.Company.Name = "NewCorp"
	require.NoError(t, s.Save(ctx, second))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "NewCorp", loaded.Company.Name)
}

func TestSQLiteStore_Clear(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleState()))
	require.NoError(t, s.Clear(ctx))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	loaded, err := m.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, loaded)

	require.NoError(t, m.Save(ctx, sampleState()))
	loaded, err = m.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "TechCorp", loaded.Company.Name)

	require.NoError(t, m.Clear(ctx))
	loaded, err = m.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}
