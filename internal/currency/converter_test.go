package currency

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestConvert(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		from   string
		to     string
		want   string
	}{
		{"same currency is identity", "123.45", "EUR", "EUR", "123.45"},
		{"usd to usd", "10", "USD", "USD", "10"},
		{"eur to usd", "85", "EUR", "USD", "100"},
		{"usd to eur", "100", "USD", "EUR", "85"},
		{"eur to gbp", "85", "EUR", "GBP", "73"},
		{"unknown from defaults to rate 1", "50", "XXX", "USD", "50"},
		{"unknown to defaults to rate 1", "50", "USD", "YYY", "50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, _ := decimal.NewFromString(tt.amount)
			want, _ := decimal.NewFromString(tt.want)
			got := Convert(amount, tt.from, tt.to)
			if !got.Equal(want) {
				t.Errorf("Convert(%s, %s, %s) = %s, want %s", tt.amount, tt.from, tt.to, got, want)
			}
		})
	}
}

func TestCodes(t *testing.T) {
	codes := Codes()
	if len(codes) != 7 {
		t.Fatalf("len(Codes()) = %d, want 7", len(codes))
	}
	if codes[0] != "USD" {
		t.Errorf("Codes()[0] = %s, want USD", codes[0])
	}
}
