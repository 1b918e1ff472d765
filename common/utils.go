package common

import (
	"cmp"
	"math"
)

// Clamp limits v to the closed range [lo, hi].
//
// Parameters:
//   - v: the value to clamp
//   - lo: the lower bound
//   - hi: the upper bound (must be >= lo)
//
// Returns:
//   - T: v limited to [lo, hi]
func Clamp[T cmp.Ordered](v, lo, hi T) T {
	return min(max(v, lo), hi)
}

// AtLeast raises v to lo. NaN and infinite values also return lo, unlike the builtin max which
// propagates NaN.
//
// Parameters:
//   - v: the value to floor
//   - lo: the smallest value returned
//
// Returns:
//   - float32: v if it is finite and not below lo, otherwise lo
func AtLeast(v, lo float32) float32 {
	if !(v >= lo) || math.IsInf(float64(v), 1) {
		return lo
	}
	return v
}

// FiniteOr returns v, or fallback when v is NaN or infinite.
func FiniteOr(v, fallback float32) float32 {
	if !IsFinite(v) {
		return fallback
	}
	return v
}

// BoolToFloat returns 1 for true and 0 for false, the encoding shaders expect for toggle flags.
func BoolToFloat(b bool) float32 {
	if b {
		return 1
	}
	return 0
}
