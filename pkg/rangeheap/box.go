package rangeheap

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// NullBox returns the empty box. Its Min is +Inf and its Max is -Inf on every
// axis, so extending it by any box yields that box.
func NullBox() sdf.Box3 {
	inf := math.Inf(1)
	return sdf.Box3{
		Min: v3.Vec{X: inf, Y: inf, Z: inf},
		Max: v3.Vec{X: -inf, Y: -inf, Z: -inf},
	}
}

// IsNull reports whether b contains no points.
func IsNull(b sdf.Box3) bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

// Union returns the smallest box containing both a and b.
func Union(a, b sdf.Box3) sdf.Box3 {
	return a.Extend(b)
}

// Expand grows b by d on every side. The null box stays null.
func Expand(b sdf.Box3, d float64) sdf.Box3 {
	if IsNull(b) || d == 0 {
		return b
	}
	v := v3.Vec{X: d, Y: d, Z: d}
	return sdf.Box3{Min: b.Min.Sub(v), Max: b.Max.Add(v)}
}

// Diagonal returns the length of the box diagonal, 0 for the null box.
func Diagonal(b sdf.Box3) float64 {
	if IsNull(b) {
		return 0
	}
	return b.Max.Sub(b.Min).Length()
}

// Overlaps reports whether a and b share at least one point when only the
// first numDimensions axes (x, y[, z]) are considered. Touching boxes overlap.
func Overlaps(a, b sdf.Box3, numDimensions int) bool {
	if IsNull(a) || IsNull(b) {
		return false
	}
	for k := 0; k < numDimensions && k < 3; k++ {
		if axis(a.Min, k) > axis(b.Max, k) || axis(b.Min, k) > axis(a.Max, k) {
			return false
		}
	}
	return true
}

// Distance returns the gap between two boxes, 0 when they overlap.
func Distance(a, b sdf.Box3) float64 {
	if IsNull(a) || IsNull(b) {
		return math.Inf(1)
	}
	var sum float64
	for k := 0; k < 3; k++ {
		gap := math.Max(0, math.Max(axis(a.Min, k)-axis(b.Max, k), axis(b.Min, k)-axis(a.Max, k)))
		sum += gap * gap
	}
	return math.Sqrt(sum)
}

func axis(v v3.Vec, k int) float64 {
	switch k {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// BoxSource is a RangeSource over a slice of per-item boxes.
type BoxSource []sdf.Box3

// Range returns the union of the boxes in [i0,i1]. Indices outside the slice
// are ignored.
func (s BoxSource) Range(i0, i1 int) sdf.Box3 {
	r := NullBox()
	if i0 < 0 {
		i0 = 0
	}
	for i := i0; i <= i1 && i < len(s); i++ {
		r = r.Extend(s[i])
	}
	return r
}
