// Package facettree indexes the triangles of a mesh with a rangeheap.
//
// Triangles can be reordered by the centres of their boxes before the heap is
// built, so that neighbouring positions hold neighbouring triangles. Results
// are always reported as read indices, the triangle's index in the mesh.
package facettree

import (
	"sort"

	"github.com/chazu/rangeheap/pkg/kernel"
	"github.com/chazu/rangeheap/pkg/rangeheap"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// DefaultLeafSize is used when New is given a leaf size below 1.
const DefaultLeafSize = 4

// Tree is a range heap over the facets of one mesh. It copies the facet boxes
// at construction; later edits to the mesh are not seen.
type Tree struct {
	boxes     rangeheap.BoxSource // by position
	readIndex []int               // position -> mesh facet index
	heap      rangeheap.Heap
}

// New indexes the facets of mesh. Facets are sorted by box centre on the
// enabled axes, x before y before z; with no axis enabled the mesh order is
// kept. A nil or empty mesh gives an empty tree.
func New(mesh *kernel.Mesh, leafSize int, sortX, sortY, sortZ bool) *Tree {
	if leafSize < 1 {
		leafSize = DefaultLeafSize
	}
	t := &Tree{}
	if mesh == nil {
		return t
	}

	n := mesh.TriangleCount()
	byRead := mesh.FacetBoxes()
	t.readIndex = make([]int, n)
	for i := range t.readIndex {
		t.readIndex[i] = i
	}

	if sortX || sortY || sortZ {
		centres := make([]v3.Vec, n)
		for i, b := range byRead {
			if !rangeheap.IsNull(b) {
				centres[i] = b.Center()
			}
		}
		keys := make([]func(v3.Vec) float64, 0, 3)
		if sortX {
			keys = append(keys, func(v v3.Vec) float64 { return v.X })
		}
		if sortY {
			keys = append(keys, func(v v3.Vec) float64 { return v.Y })
		}
		if sortZ {
			keys = append(keys, func(v v3.Vec) float64 { return v.Z })
		}
		sort.SliceStable(t.readIndex, func(i, j int) bool {
			a, b := centres[t.readIndex[i]], centres[t.readIndex[j]]
			for _, key := range keys {
				if ka, kb := key(a), key(b); ka != kb {
					return ka < kb
				}
			}
			return false
		})
	}

	t.boxes = make(rangeheap.BoxSource, n)
	for pos, read := range t.readIndex {
		t.boxes[pos] = byRead[read]
	}
	t.heap.Build(leafSize, t.boxes, 0, n-1)
	return t
}

// NewXYSort indexes the facets of mesh sorted on x then y.
func NewXYSort(mesh *kernel.Mesh, leafSize int) *Tree {
	return New(mesh, leafSize, true, true, false)
}

// Heap returns the underlying heap. Its indices are positions; map them with
// ReadIndex.
func (t *Tree) Heap() *rangeheap.Heap {
	return &t.heap
}

// NumRanges returns the number of indexed facets.
func (t *Tree) NumRanges() int {
	return len(t.boxes)
}

// ReadIndex maps a heap position to the mesh facet index.
func (t *Tree) ReadIndex(position int) (int, bool) {
	if position < 0 || position >= len(t.readIndex) {
		return rangeheap.NoIndex, false
	}
	return t.readIndex[position], true
}

// Range returns the box of the facet at a heap position.
func (t *Tree) Range(position int) (sdf.Box3, bool) {
	if position < 0 || position >= len(t.boxes) {
		return rangeheap.NullBox(), false
	}
	return t.boxes[position], true
}

// CollectInRange returns the read indices, ascending, of facets whose boxes
// meet box grown by expansion on every side.
func (t *Tree) CollectInRange(box sdf.Box3, expansion float64) ([]int, error) {
	positions, err := t.heap.CollectInRange(rangeheap.Expand(box, expansion), 3, nil)
	reads := make([]int, len(positions))
	for i, pos := range positions {
		reads[i] = t.readIndex[pos]
	}
	sort.Ints(reads)
	return reads, err
}

// CollectReadIndicesByDepth groups the read indices under each node returned
// by NodesAtDepth. It reports false for a negative depth or an empty tree.
func (t *Tree) CollectReadIndicesByDepth(depth int) ([][]int, bool) {
	nodes := t.heap.NodesAtDepth(depth)
	if len(nodes) == 0 {
		return nil, false
	}
	buckets := make([][]int, 0, len(nodes))
	for _, node := range nodes {
		_, i0, i1, _ := t.heap.GetWithInterval(node)
		bucket := make([]int, 0, i1-i0+1)
		for pos := i0; pos <= i1; pos++ {
			bucket = append(bucket, t.readIndex[pos])
		}
		buckets = append(buckets, bucket)
	}
	return buckets, true
}
