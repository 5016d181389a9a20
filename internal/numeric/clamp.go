// Package numeric holds tiny generic numeric helpers for clamping values
// into a bounded range.
package numeric

import "golang.org/x/exp/constraints"

// Clamp restricts v to [lo, hi].
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
