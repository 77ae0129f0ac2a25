package numeric

import (
	"math"
	"testing"
)

func TestRound2(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"already rounded", 590, 590},
		{"rounds down", 10.7639, 10.76},
		{"rounds half up", 2.345, 2.35},
		{"negative half away from zero", -2.345, -2.35},
		{"nan becomes zero", math.NaN(), 0},
		{"inf becomes zero", math.Inf(1), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Round2(tt.in); got != tt.want {
				t.Errorf("Round2(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSumHasNoBinaryNoise(t *testing.T) {
	if got := Sum(0.1, 0.2); got != 0.3 {
		t.Fatalf("Sum(0.1, 0.2) = %v, want 0.3", got)
	}
	if got := Sum(); got != 0 {
		t.Fatalf("Sum() = %v, want 0", got)
	}
}

func TestNonNegativeAndValue(t *testing.T) {
	if got := NonNegative(-4); got != 0 {
		t.Fatalf("NonNegative(-4) = %v, want 0", got)
	}
	if got := Value(nil); got != 0 {
		t.Fatalf("Value(nil) = %v, want 0", got)
	}
	v := 3.5
	if got := Value(&v); got != 3.5 {
		t.Fatalf("Value(&3.5) = %v, want 3.5", got)
	}
}
