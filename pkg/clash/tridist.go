package clash

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// TriangleDistance returns the distance between two solid triangles and a
// closest point on each. Intersecting triangles are at distance 0.
func TriangleDistance(a, b [3]v3.Vec) (dist float64, pa, pb v3.Vec) {
	for _, s := range [2]struct{ edges, tri [3]v3.Vec }{{a, b}, {b, a}} {
		for i := 0; i < 3; i++ {
			if p, ok := segmentTriangle(s.edges[i], s.edges[(i+1)%3], s.tri); ok {
				return 0, p, p
			}
		}
	}

	dist = math.Inf(1)
	try := func(p, q v3.Vec) {
		if d := p.Sub(q).Length(); d < dist {
			dist, pa, pb = d, p, q
		}
	}

	for i := 0; i < 3; i++ {
		try(a[i], closestOnTriangle(a[i], b))
		try(closestOnTriangle(b[i], a), b[i])
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			try(closestOnSegments(a[i], a[(i+1)%3], b[j], b[(j+1)%3]))
		}
	}
	return dist, pa, pb
}

// closestOnTriangle returns the point of triangle t closest to p, found by
// classifying p against the Voronoi regions of the triangle.
func closestOnTriangle(p v3.Vec, t [3]v3.Vec) v3.Vec {
	a, b, c := t[0], t[1], t[2]
	ab, ac, ap := b.Sub(a), c.Sub(a), p.Sub(a)

	d1, d2 := ab.Dot(ap), ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return a
	}

	bp := p.Sub(b)
	d3, d4 := ab.Dot(bp), ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return b
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		return a.Add(ab.MulScalar(d1 / (d1 - d3)))
	}

	cp := p.Sub(c)
	d5, d6 := ab.Dot(cp), ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return c
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		return a.Add(ac.MulScalar(d2 / (d2 - d6)))
	}

	va := d3*d6 - d5*d4
	if va <= 0 && d4-d3 >= 0 && d5-d6 >= 0 {
		return b.Add(c.Sub(b).MulScalar((d4 - d3) / ((d4 - d3) + (d5 - d6))))
	}

	sum := va + vb + vc
	if sum == 0 {
		// Degenerate triangle: fall back to its edges.
		best, bestD := a, math.Inf(1)
		for i := 0; i < 3; i++ {
			q, _ := closestOnSegments(p, p, t[i], t[(i+1)%3])
			if d := p.Sub(q).Length(); d < bestD {
				best, bestD = q, d
			}
		}
		return best
	}
	v, w := vb/sum, vc/sum
	return a.Add(ab.MulScalar(v)).Add(ac.MulScalar(w))
}

// closestOnSegments returns the closest points of segments p1q1 and p2q2,
// in that order.
func closestOnSegments(p1, q1, p2, q2 v3.Vec) (v3.Vec, v3.Vec) {
	const eps = 1e-18
	d1, d2, r := q1.Sub(p1), q2.Sub(p2), p1.Sub(p2)
	a, e, f := d1.Dot(d1), d2.Dot(d2), d2.Dot(r)

	var s, t float64
	switch {
	case a <= eps && e <= eps:
		return p1, p2
	case a <= eps:
		t = clamp01(f / e)
	default:
		c := d1.Dot(r)
		if e <= eps {
			s = clamp01(-c / a)
			break
		}
		b := d1.Dot(d2)
		if denom := a*e - b*b; denom != 0 {
			s = clamp01((b*f - c*e) / denom)
		}
		t = (b*s + f) / e
		if t < 0 {
			t, s = 0, clamp01(-c/a)
		} else if t > 1 {
			t, s = 1, clamp01((b-c)/a)
		}
	}
	return p1.Add(d1.MulScalar(s)), p2.Add(d2.MulScalar(t))
}

// segmentTriangle intersects segment pq with triangle t. Segments parallel
// to the triangle's plane never intersect here; their contacts show up as
// edge or vertex distances of 0.
func segmentTriangle(p, q v3.Vec, t [3]v3.Vec) (v3.Vec, bool) {
	dir := q.Sub(p)
	e1, e2 := t[1].Sub(t[0]), t[2].Sub(t[0])
	h := dir.Cross(e2)
	det := e1.Dot(h)
	if det == 0 {
		return v3.Vec{}, false
	}
	inv := 1 / det
	s := p.Sub(t[0])
	u := inv * s.Dot(h)
	if u < 0 || u > 1 {
		return v3.Vec{}, false
	}
	qv := s.Cross(e1)
	v := inv * dir.Dot(qv)
	if v < 0 || u+v > 1 {
		return v3.Vec{}, false
	}
	k := inv * e2.Dot(qv)
	if k < 0 || k > 1 {
		return v3.Vec{}, false
	}
	return p.Add(dir.MulScalar(k)), true
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
