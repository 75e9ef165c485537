// Package clash finds interfering parts of a scene and measures how close
// two parts come. Both run pair searches over range heaps: one heap over
// part boxes, then one heap per part over its facets.
package clash

import (
	"fmt"
	"sort"
	"time"

	"github.com/chazu/rangeheap/pkg/facettree"
	"github.com/chazu/rangeheap/pkg/kernel"
	"github.com/chazu/rangeheap/pkg/rangeheap"
	"github.com/deadsy/sdfx/sdf"
	"github.com/pkg/errors"
	"github.com/toolkits/pkg/logger"
)

var (
	ErrNoMesh        = errors.New("clash: part has no mesh")
	ErrDuplicatePart = errors.New("clash: duplicate part name")
)

// Part is a named tessellated solid.
type Part = kernel.Part

// Options tunes a Detector.
type Options struct {
	// LeafSize is the number of facets per facet tree leaf.
	LeafSize int
	// SortMethod orders child pairs during facet searches.
	SortMethod rangeheap.SortMethod
	// Clearance is the gap below which parts count as clashing.
	Clearance float64
}

// DefaultOptions returns leaf size 4, diagonal sorting and no clearance.
func DefaultOptions() Options {
	return Options{LeafSize: facettree.DefaultLeafSize, SortMethod: rangeheap.SortByDiagonal}
}

// FacetPair is a pair of facet read indices, one from each part.
type FacetPair struct {
	A int `json:"a"`
	B int `json:"b"`
}

// Pair is a pair of parts whose facet boxes come within the clearance.
type Pair struct {
	A      string      `json:"a"`
	B      string      `json:"b"`
	Facets []FacetPair `json:"facets"`
}

// Detector runs clash queries. It caches one facet tree per mesh, so it is
// not safe for concurrent use.
type Detector struct {
	opts    Options
	metrics *Metrics
	trees   map[*kernel.Mesh]*facettree.Tree
}

// NewDetector returns a detector. metrics may be nil.
func NewDetector(opts Options, metrics *Metrics) *Detector {
	if opts.LeafSize < 1 {
		opts.LeafSize = facettree.DefaultLeafSize
	}
	if opts.Clearance < 0 {
		opts.Clearance = 0
	}
	return &Detector{
		opts:    opts,
		metrics: metrics,
		trees:   make(map[*kernel.Mesh]*facettree.Tree),
	}
}

// Options returns the effective options.
func (d *Detector) Options() Options {
	return d.opts
}

// Tree returns the facet tree of a mesh, building it on first use.
func (d *Detector) Tree(m *kernel.Mesh) *facettree.Tree {
	t, ok := d.trees[m]
	if !ok {
		t = facettree.NewXYSort(m, d.opts.LeafSize)
		d.trees[m] = t
	}
	return t
}

func validate(parts []Part) error {
	seen := make(map[string]bool, len(parts))
	for _, p := range parts {
		if p.Mesh == nil {
			return errors.Wrapf(ErrNoMesh, "part %q", p.Name)
		}
		if seen[p.Name] {
			return errors.Wrapf(ErrDuplicatePart, "%q", p.Name)
		}
		seen[p.Name] = true
	}
	return nil
}

// near reports whether two boxes come within the clearance on every axis.
func (d *Detector) near(a, b sdf.Box3) bool {
	half := d.opts.Clearance / 2
	return rangeheap.Overlaps(rangeheap.Expand(a, half), rangeheap.Expand(b, half), 3)
}

// Detect returns every pair of parts with facets within the clearance,
// ordered by the parts' positions in parts. Each pair lists its facet pairs
// sorted by A then B.
func (d *Detector) Detect(parts []Part) ([]Pair, error) {
	if err := validate(parts); err != nil {
		return nil, err
	}

	candidates := d.candidateParts(parts)
	logger.Debugf("clash: %d parts, %d candidate pairs", len(parts), len(candidates))

	var pairs []Pair
	for _, c := range candidates {
		a, b := parts[c[0]], parts[c[1]]
		facets := d.facetPairs(a.Mesh, b.Mesh)
		if len(facets) == 0 {
			continue
		}
		logger.Debugf("clash: %s x %s: %d facet pairs", a.Name, b.Name, len(facets))
		pairs = append(pairs, Pair{A: a.Name, B: b.Name, Facets: facets})
	}
	return pairs, nil
}

// candidateParts self-searches a heap over the part boxes. Each unordered
// pair is kept once, as (lower index, higher index).
func (d *Detector) candidateParts(parts []Part) [][2]int {
	boxes := make(rangeheap.BoxSource, len(parts))
	for i, p := range parts {
		boxes[i] = p.Mesh.Bounds()
	}
	var h rangeheap.Heap
	h.Build(1, boxes, 0, len(boxes)-1)

	var out [][2]int
	start := time.Now()
	rangeheap.SearchPair(&h, &h, rangeheap.PairFuncs{
		Need: func(boxA sdf.Box3, _, _ int, boxB sdf.Box3, _, _ int) bool {
			d.metrics.nodePair("parts")
			return d.near(boxA, boxB)
		},
		Fn: func(i, j int) {
			if i < j && d.near(boxes[i], boxes[j]) {
				out = append(out, [2]int{i, j})
			}
		},
	})
	d.metrics.observe("parts", time.Since(start).Seconds())
	d.metrics.candidates("part", len(out))

	sort.Slice(out, func(x, y int) bool {
		if out[x][0] != out[y][0] {
			return out[x][0] < out[y][0]
		}
		return out[x][1] < out[y][1]
	})
	return out
}

func (d *Detector) facetPairs(ma, mb *kernel.Mesh) []FacetPair {
	ta, tb := d.Tree(ma), d.Tree(mb)

	var out []FacetPair
	start := time.Now()
	rangeheap.SearchPairSorted(ta.Heap(), tb.Heap(), rangeheap.PairFuncs{
		Need: func(boxA sdf.Box3, _, _ int, boxB sdf.Box3, _, _ int) bool {
			d.metrics.nodePair("facets")
			return d.near(boxA, boxB)
		},
		Fn: func(posA, posB int) {
			boxA, _ := ta.Range(posA)
			boxB, _ := tb.Range(posB)
			if !d.near(boxA, boxB) {
				return
			}
			ra, _ := ta.ReadIndex(posA)
			rb, _ := tb.ReadIndex(posB)
			out = append(out, FacetPair{A: ra, B: rb})
		},
	}, d.opts.SortMethod)
	d.metrics.observe("facets", time.Since(start).Seconds())
	d.metrics.candidates("facet", len(out))

	sort.Slice(out, func(i, j int) bool {
		if out[i].A != out[j].A {
			return out[i].A < out[j].A
		}
		return out[i].B < out[j].B
	})
	return out
}

// String formats the pair for the command line report.
func (p Pair) String() string {
	return fmt.Sprintf("%s x %s: %d facet pairs", p.A, p.B, len(p.Facets))
}
