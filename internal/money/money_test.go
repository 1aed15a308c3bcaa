package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestToScaled(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"0.1", 10000000},
		{"10", 1000000000},
		{"0.00000001", 1},
		{"0.000000014", 1},  // rounds down at the 9th place
		{"0.000000015", 2},  // rounds half away from zero
		{"123.456789", 12345678900},
	}
	for _, tt := range tests {
		d := decimal.RequireFromString(tt.in)
		if got := ToScaled(d); got != tt.want {
			t.Errorf("ToScaled(%s) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestRoundTripWithinOneUnit(t *testing.T) {
	ulp := decimal.New(1, -ScaleDigits)
	inputs := []string{"0.1", "0.3", "10", "0.123456789", "99.99999999", "7.000000004"}
	for _, in := range inputs {
		d := decimal.RequireFromString(in)
		back := FromScaled(ToScaled(d))
		if d.Sub(back).Abs().GreaterThan(ulp) {
			t.Errorf("round trip of %s drifted to %s", in, back)
		}
	}
}

func TestRoundTripDeterministic(t *testing.T) {
	d := decimal.RequireFromString("0.123456789")
	first := ToScaled(d)
	for i := 0; i < 100; i++ {
		if got := ToScaled(d); got != first {
			t.Fatalf("ToScaled not deterministic: run %d got %d, want %d", i, got, first)
		}
	}
}

func TestToTokenUnits(t *testing.T) {
	tests := []struct {
		in       string
		decimals uint8
		want     string
	}{
		{"0.1", 18, "100000000000000000"},
		{"0.1", 6, "100000"},
		{"1", 6, "1000000"},
		{"0.00000001", 6, "0"}, // below 6-decimal resolution, truncates
		{"2.5", 8, "250000000"},
	}
	for _, tt := range tests {
		d := decimal.RequireFromString(tt.in)
		if got := ToTokenUnits(d, tt.decimals).String(); got != tt.want {
			t.Errorf("ToTokenUnits(%s, %d) = %s, want %s", tt.in, tt.decimals, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(decimal.RequireFromString("0.1")); err != nil {
		t.Errorf("expected 0.1 to be valid, got %v", err)
	}
	if err := Validate(decimal.Zero); err == nil {
		t.Error("expected zero amount to be rejected")
	}
	if err := Validate(decimal.RequireFromString("-1")); err == nil {
		t.Error("expected negative amount to be rejected")
	}
	if err := Validate(decimal.RequireFromString("0.000000001")); err == nil {
		t.Error("expected sub-unit amount to be rejected")
	}
}
