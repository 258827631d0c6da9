// Package report builds expense-report spreadsheets.
package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/expensedesk/expensedesk/internal/application/service"
)

const sheetName = "Expenses"

var headers = []string{"Employee", "Category", "Description", "Date", "Amount", "Currency", "Converted", "Status"}

// Exporter writes expense reports as .xlsx workbooks.
type Exporter struct {
	logger *zap.Logger
}

// NewExporter creates a new Exporter
func NewExporter(logger *zap.Logger) *Exporter {
	return &Exporter{logger: logger}
}

// Build renders the expenses into a workbook. The caller owns the
// returned file and is responsible for closing it.
func (ex *Exporter) Build(expenses []service.ExpenseView) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}

	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	for row, e := range expenses {
		converted := ""
		if e.ConvertedAmount != nil {
			converted = fmt.Sprintf("%s %s", e.ConvertedAmount.StringFixed(2), e.CompanyCurrency)
		}
		values := []interface{}{
			e.EmployeeName,
			e.Category,
			e.Description,
			e.Date,
			e.Amount.StringFixed(2),
			e.Currency,
			converted,
			e.Status.String(),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return nil, fmt.Errorf("failed to write row %d: %w", row+2, err)
			}
		}
	}

	ex.logger.Info("Expense report built", zap.Int("rows", len(expenses)))
	return f, nil
}

// Save builds the report and writes it to the given path.
func (ex *Exporter) Save(expenses []service.ExpenseView, path string) error {
	f, err := ex.Build(expenses)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	ex.logger.Info("Expense report saved", zap.String("path", path))
	return nil
}
