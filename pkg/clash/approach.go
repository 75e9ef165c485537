package clash

import (
	"math"
	"time"

	"github.com/chazu/rangeheap/pkg/rangeheap"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/toolkits/pkg/logger"
)

// Approach is the closest approach between two parts.
type Approach struct {
	A        string  `json:"a"`
	B        string  `json:"b"`
	FacetA   int     `json:"facetA"`
	FacetB   int     `json:"facetB"`
	PointA   v3.Vec  `json:"pointA"`
	PointB   v3.Vec  `json:"pointB"`
	Distance float64 `json:"distance"`
}

// ClosestApproach returns the closest pair of facets of a and b. A positive
// maxDistance bounds the search; no result is reported when the parts are
// farther apart. The search stops as soon as touching facets are found.
func (d *Detector) ClosestApproach(a, b Part, maxDistance float64) (Approach, bool) {
	if a.Mesh == nil || b.Mesh == nil {
		return Approach{}, false
	}
	ta, tb := d.Tree(a.Mesh), d.Tree(b.Mesh)

	best := Approach{A: a.Name, B: b.Name, Distance: math.Inf(1)}
	if maxDistance > 0 {
		best.Distance = maxDistance
	}
	found := false

	start := time.Now()
	rangeheap.SearchPairSorted(ta.Heap(), tb.Heap(), rangeheap.PairFuncs{
		Need: func(boxA sdf.Box3, _, _ int, boxB sdf.Box3, _, _ int) bool {
			d.metrics.nodePair("approach")
			return rangeheap.Distance(boxA, boxB) <= best.Distance
		},
		Live: func() bool {
			return !found || best.Distance > 0
		},
		Fn: func(posA, posB int) {
			ra, _ := ta.ReadIndex(posA)
			rb, _ := tb.ReadIndex(posB)
			triA, okA := a.Mesh.Triangle(ra)
			triB, okB := b.Mesh.Triangle(rb)
			if !okA || !okB {
				return
			}
			dist, pa, pb := TriangleDistance(triA, triB)
			if dist < best.Distance || (!found && dist <= best.Distance) {
				best.FacetA, best.FacetB = ra, rb
				best.PointA, best.PointB = pa, pb
				best.Distance = dist
				found = true
			}
		},
	}, d.opts.SortMethod)
	d.metrics.observe("approach", time.Since(start).Seconds())

	if found {
		logger.Debugf("clash: %s x %s closest %.6g at facets %d/%d", a.Name, b.Name, best.Distance, best.FacetA, best.FacetB)
	}
	return best, found
}
