// Package currency converts amounts between currencies using a fixed
// table of unit-to-USD rates. Conversion is display-only: approval
// thresholds are never applied to converted amounts.
package currency

import "github.com/shopspring/decimal"

// rates maps a currency code to its unit-to-USD rate. Unknown codes
// fall back to rate 1.
var rates = map[string]decimal.Decimal{
	"USD": decimal.NewFromInt(1),
	"EUR": decimal.NewFromFloat(0.85),
	"GBP": decimal.NewFromFloat(0.73),
	"INR": decimal.NewFromFloat(83.12),
	"JPY": decimal.NewFromFloat(110.0),
	"AUD": decimal.NewFromFloat(1.35),
	"CAD": decimal.NewFromFloat(1.25),
}

// Codes returns the currency codes with a known rate.
func Codes() []string {
	return []string{"USD", "EUR", "GBP", "INR", "JPY", "AUD", "CAD"}
}

func rate(code string) decimal.Decimal {
	if r, ok := rates[code]; ok {
		return r
	}
	return decimal.NewFromInt(1)
}

// Convert converts an amount from one currency to another through USD:
// amount / rate[from] * rate[to]. Identical codes return the amount
// unchanged.
func Convert(amount decimal.Decimal, from, to string) decimal.Decimal {
	if from == to {
		return amount
	}
	usd := amount.Div(rate(from))
	return usd.Mul(rate(to))
}
