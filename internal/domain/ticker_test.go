package domain

import (
	"errors"
	"testing"
)

func TestNewTicker(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"simple", "AAPL", "AAPL", false},
		{"lowercase normalized", "aapl", "AAPL", false},
		{"whitespace trimmed", "  MSFT ", "MSFT", false},
		{"single letter", "F", "F", false},
		{"exchange suffix", "BHP.AX", "BHP.AX", false},
		{"digits after letter", "BRK4", "BRK4", false},
		{"empty", "", "", true},
		{"too long", "ABCDEFGHIJK", "", true},
		{"leading digit", "1AAPL", "", true},
		{"embedded space", "AA PL", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewTicker(tt.input)
			if tt.wantErr {
				var vErr *ValidationError
				if !errors.As(err, &vErr) {
					t.Errorf("NewTicker(%q) expected ValidationError, got %v", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Errorf("NewTicker(%q) unexpected error: %v", tt.input, err)
				return
			}
			if got.String() != tt.want {
				t.Errorf("NewTicker(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestTicker_MapKey(t *testing.T) {
	a, _ := NewTicker("aapl")
	b, _ := NewTicker("AAPL")

	m := map[Ticker]int{a: 1}
	if m[b] != 1 {
		t.Fatal("normalized tickers should be equal map keys")
	}
}
