// Package scan provides the simulated receipt scanner. There is no
// real OCR: scanning waits a cosmetic delay and returns canned fields
// for the UI to autofill the expense form with.
package scan

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Result holds the fields a scan autofills.
type Result struct {
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
}

// Scanner simulates receipt scanning.
type Scanner struct {
	delay  time.Duration
	now    func() time.Time
	logger *zap.Logger
}

// NewScanner creates a scanner with the given simulated processing delay.
func NewScanner(delay time.Duration, logger *zap.Logger) *Scanner {
	return &Scanner{
		delay:  delay,
		now:    time.Now,
		logger: logger,
	}
}

// Scan waits the configured delay and returns the canned autofill
// fields. The wait is cancellable through the context.
func (s *Scanner) Scan(ctx context.Context) (*Result, error) {
	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	s.logger.Info("Receipt scanned", zap.Duration("simulated_delay", s.delay))

	return &Result{
		Amount:      decimal.NewFromFloat(125.50),
		Category:    "Meals",
		Date:        s.now().Format("2006-01-02"),
		Description: "Business lunch at Restaurant XYZ",
	}, nil
}
