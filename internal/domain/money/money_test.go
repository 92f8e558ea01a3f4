package money

import (
	"encoding/json"
	"testing"
)

func TestFromDollarsRoundsToNearestCent(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
		want   Cents
	}{
		{"whole", 12, 1200},
		{"two decimals", 0.33, 33},
		{"binary unfriendly", 0.1 + 0.2, 30},
		{"half rounds away from zero", 1.005, 101},
		{"negative", -45.5, -4550},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromDollars(tt.amount); got != tt.want {
				t.Fatalf("FromDollars(%v) = %d, want %d", tt.amount, got, tt.want)
			}
		})
	}
}

func TestParseAcceptsHumanAmounts(t *testing.T) {
	tests := []struct {
		in   string
		want Cents
	}{
		{"1,234.50", 123450},
		{"$12", 1200},
		{" -3.3 ", -330},
		{"0.333", 33},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("Parse(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}

	if _, err := Parse("abc"); err == nil {
		t.Fatalf("expected error for non-numeric amount")
	}
	if _, err := Parse("  "); err == nil {
		t.Fatalf("expected error for empty amount")
	}
}

func TestSumOfManySmallAmountsDoesNotDrift(t *testing.T) {
	var total Cents
	for i := 0; i < 10000; i++ {
		total += FromDollars(0.33)
	}
	if total.String() != "3300.00" {
		t.Fatalf("total = %s, want 3300.00", total)
	}
}

func TestTimesAndShareRoundOnce(t *testing.T) {
	if got := Cents(4000).Share(2, 50); got != 4000 {
		t.Fatalf("share = %d, want 4000", got)
	}
	if got := Cents(333).Times(1.5); got != 500 {
		t.Fatalf("times = %d, want 500", got)
	}
	if got := Cents(100).Share(1, 33.333); got != 33 {
		t.Fatalf("share = %d, want 33", got)
	}
	if got := Cents(1000).DivRound(3); got != 333 {
		t.Fatalf("div = %d, want 333", got)
	}
	if got := Cents(1000).DivRound(0); got != 0 {
		t.Fatalf("div by zero = %d, want 0", got)
	}
}

func TestJSONRoundTripInDollars(t *testing.T) {
	payload := struct {
		Amount Cents  `json:"amount"`
		Rate   *Cents `json:"rate,omitempty"`
	}{Amount: 123456}

	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"amount":1234.56}` {
		t.Fatalf("unexpected json %s", data)
	}

	var decoded struct {
		Amount Cents  `json:"amount"`
		Rate   *Cents `json:"rate"`
	}
	if err := json.Unmarshal([]byte(`{"amount":"12.5","rate":0}`), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Amount != 1250 {
		t.Fatalf("amount = %d, want 1250", decoded.Amount)
	}
	if decoded.Rate == nil || *decoded.Rate != 0 {
		t.Fatalf("explicit zero rate must survive decoding, got %v", decoded.Rate)
	}
}

func TestUSDPutsSignBeforeSymbol(t *testing.T) {
	tests := []struct {
		in   Cents
		want string
	}{
		{0, "$0.00"},
		{1500, "$15.00"},
		{-1500, "-$15.00"},
		{-5, "-$0.05"},
	}
	for _, tt := range tests {
		if got := tt.in.USD(); got != tt.want {
			t.Fatalf("USD(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
