package palette

import (
	"math"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name        string
		v, max, min float64
		want        float64
	}{
		{"min", 10, 20, 10, 0},
		{"max", 20, 20, 10, 1},
		{"middle", 15, 20, 10, 0.5},
		{"below", 0, 20, 10, 0},
		{"above", 99, 20, 10, 1},
		{"degenerate", 5, 7, 7, 0},
		{"degenerate at value", 7, 7, 7, 0},
		{"nan", math.NaN(), 1, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.v, tt.max, tt.min); got != tt.want {
				t.Errorf("Normalize(%v, %v, %v) = %v, want %v", tt.v, tt.max, tt.min, got, tt.want)
			}
		})
	}
}

func TestNormalizeStaysInUnitRange(t *testing.T) {
	for v := -5.0; v <= 105; v += 0.37 {
		got := Normalize(v, 100, 0)
		if got < 0 || got > 1 {
			t.Fatalf("Normalize(%v)=%v out of [0,1]", v, got)
		}
	}
}

func TestIndex(t *testing.T) {
	tests := []struct {
		v, max, min float64
		want        int
	}{
		{0, 1, 0, 0},
		{1, 1, 0, 255},
		{0.5, 1, 0, 128},
		{2, 1, 0, 255},
		{-1, 1, 0, 0},
		{3, 3, 3, 0},
	}
	for _, tt := range tests {
		if got := Index(tt.v, tt.max, tt.min); got != tt.want {
			t.Errorf("Index(%v, %v, %v) = %d, want %d", tt.v, tt.max, tt.min, got, tt.want)
		}
	}
}
