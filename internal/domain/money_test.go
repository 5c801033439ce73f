package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func mustMoney(t *testing.T, s string) Money {
	t.Helper()
	m, err := ParseMoney(s, "USD")
	if err != nil {
		t.Fatalf("ParseMoney(%q) unexpected error: %v", s, err)
	}
	return m
}

func mustPrice(t *testing.T, s string) Price {
	t.Helper()
	p, err := ParsePrice(s, "USD")
	if err != nil {
		t.Fatalf("ParsePrice(%q) unexpected error: %v", s, err)
	}
	return p
}

func TestParseMoney(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"zero", "0", "0.00 USD", false},
		{"whole dollars", "100", "100.00 USD", false},
		{"two decimal places", "148.50", "148.50 USD", false},
		{"rounds third decimal", "1.005", "1.01 USD", false},
		{"small amount", "0.01", "0.01 USD", false},
		{"large amount", "1000000.00", "1000000.00 USD", false},
		{"negative rejected", "-50.25", "", true},
		{"not a number", "abc", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMoney(tt.input, "USD")
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseMoney(%q) expected error, got nil", tt.input)
				}
				return
			}
			if err != nil {
				t.Errorf("ParseMoney(%q) unexpected error: %v", tt.input, err)
				return
			}
			if got.String() != tt.want {
				t.Errorf("ParseMoney(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestMoney_AddSub(t *testing.T) {
	a := mustMoney(t, "100.25")
	b := mustMoney(t, "0.75")

	sum, err := a.Add(b)
	if err != nil {
		t.Fatalf("Add unexpected error: %v", err)
	}
	if sum.String() != "101.00 USD" {
		t.Fatalf("Add = %s, want 101.00 USD", sum)
	}

	diff, err := b.Sub(a)
	if err != nil {
		t.Fatalf("Sub unexpected error: %v", err)
	}
	if diff.String() != "-99.50 USD" {
		t.Fatalf("Sub = %s, want -99.50 USD", diff)
	}
	if !diff.IsNegative() {
		t.Fatal("expected negative delta from Sub")
	}
}

func TestMoney_CurrencyMismatch(t *testing.T) {
	usd := mustMoney(t, "10")
	eur, err := ParseMoney("10", "EUR")
	if err != nil {
		t.Fatalf("ParseMoney EUR: %v", err)
	}

	if _, err := usd.Add(eur); !errors.Is(err, ErrCurrencyMismatch) {
		t.Fatalf("Add expected ErrCurrencyMismatch, got %v", err)
	}
	if _, err := usd.Sub(eur); !errors.Is(err, ErrCurrencyMismatch) {
		t.Fatalf("Sub expected ErrCurrencyMismatch, got %v", err)
	}
}

func TestNewPrice(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"positive", "110.00", false},
		{"sub-cent rounds", "0.009", false},
		{"zero rejected", "0", true},
		{"negative rejected", "-1.50", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := decimal.NewFromString(tt.input)
			if err != nil {
				t.Fatalf("bad test input %q", tt.input)
			}
			_, err = NewPrice(d, "USD")
			if tt.wantErr && err == nil {
				t.Errorf("NewPrice(%s) expected error, got nil", tt.input)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("NewPrice(%s) unexpected error: %v", tt.input, err)
			}
		})
	}
}

func TestPrice_Times(t *testing.T) {
	tests := []struct {
		name     string
		price    string
		quantity int64
		want     string
	}{
		{"whole", "100.00", 10, "1000.00 USD"},
		{"cents", "110.00", 12, "1320.00 USD"},
		{"single share", "99.99", 1, "99.99 USD"},
		{"zero shares", "42.00", 0, "0.00 USD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := mustPrice(t, tt.price)
			got := p.Times(ShareQuantity(tt.quantity))
			if got.String() != tt.want {
				t.Errorf("%s × %d = %s, want %s", tt.price, tt.quantity, got, tt.want)
			}
		})
	}
}

func TestNewShareQuantity(t *testing.T) {
	if _, err := NewShareQuantity(-1); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity for -1, got %v", err)
	}
	q, err := NewShareQuantity(0)
	if err != nil || q != 0 {
		t.Fatalf("NewShareQuantity(0) = %d, %v", q, err)
	}
	q, err = NewShareQuantity(42)
	if err != nil || q.Int64() != 42 {
		t.Fatalf("NewShareQuantity(42) = %d, %v", q, err)
	}
}
