package report

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/expensedesk/expensedesk/internal/application/service"
	"github.com/expensedesk/expensedesk/internal/domain/entity"
)

func TestExporter_Build(t *testing.T) {
	converted := decimal.NewFromFloat(100)
	views := []service.ExpenseView{
		{
			Expense: entity.Expense{
				Amount:   decimal.NewFromFloat(85),
				Currency: "EUR",
				Category: entity.CategoryMeals,
				Date:     "2026-02-10",
				Status:   entity.StatusApproved,
			},
			EmployeeName:    "David Kim",
			ConvertedAmount: &converted,
			CompanyCurrency: "USD",
		},
		{
			Expense: entity.Expense{
				Amount:   decimal.NewFromFloat(42.50),
				Currency: "USD",
				Category: entity.CategoryTravel,
				Date:     "2026-02-11",
				Status:   entity.StatusPending,
			},
			EmployeeName: "Jessica Brown",
		},
	}

	f, err := NewExporter(zap.NewNop()).Build(views)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Expenses"}, f.GetSheetList())

	header, err := f.GetCellValue("Expenses", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Employee", header)

	name, _ := f.GetCellValue("Expenses", "A2")
	assert.Equal(t, "David Kim", name)
	amount, _ := f.GetCellValue("Expenses", "E2")
	assert.Equal(t, "85.00", amount)
	conv, _ := f.GetCellValue("Expenses", "G2")
	assert.Equal(t, "100.00 USD", conv)

	// Second row has no company currency, so the converted column is blank.
	conv, _ = f.GetCellValue("Expenses", "G3")
	assert.Empty(t, conv)
	status, _ := f.GetCellValue("Expenses", "H3")
	assert.Equal(t, "pending", status)
}

func TestExporter_Save(t *testing.T) {
	path := t.TempDir() + "/report.xlsx"
	err := NewExporter(zap.NewNop()).Save(nil, path)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Expenses"}, f.GetSheetList())
}
