package palette

import "math"

// Normalize maps value into [0,1] relative to [min, max], clamping values
// outside the range. A degenerate range (max == min) yields 0, as does NaN.
func Normalize(value, max, min float64) float64 {
	if max == min {
		return 0
	}
	y := (value - min) / (max - min)
	switch {
	case math.IsNaN(y):
		return 0
	case y < 0:
		return 0
	case y > 1:
		return 1
	}
	return y
}

// Index quantizes value to a palette index in [0, Size-1].
func Index(value, max, min float64) int {
	i := int(math.Round(Normalize(value, max, min) * (Size - 1)))
	if i < 0 {
		return 0
	}
	if i > Size-1 {
		return Size - 1
	}
	return i
}
