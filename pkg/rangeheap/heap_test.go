package rangeheap

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// unitBoxes returns n unit cubes centred at (i,0,0).
func unitBoxes(n int) BoxSource {
	boxes := make(BoxSource, n)
	for i := range boxes {
		boxes[i] = sdf.Box3{
			Min: v3.Vec{X: float64(i) - 0.5, Y: -0.5, Z: -0.5},
			Max: v3.Vec{X: float64(i) + 0.5, Y: 0.5, Z: 0.5},
		}
	}
	return boxes
}

func randomBox(rnd *rand.Rand, maxStart, maxWidth float64) sdf.Box3 {
	var bb sdf.Box3
	bb.Min = v3.Vec{X: rnd.Float64() * maxStart, Y: rnd.Float64() * maxStart, Z: rnd.Float64() * maxStart}
	bb.Max = v3.Vec{
		X: bb.Min.X + rnd.Float64()*maxWidth,
		Y: bb.Min.Y + rnd.Float64()*maxWidth,
		Z: bb.Min.Z + rnd.Float64()*maxWidth,
	}
	return bb
}

func randomBoxes(rnd *rand.Rand, n int) BoxSource {
	boxes := make(BoxSource, n)
	for i := range boxes {
		boxes[i] = randomBox(rnd, 0.9, 0.1)
	}
	return boxes
}

// countingSource records how often each interval is requested.
type countingSource struct {
	BoxSource
	calls map[[2]int]int
}

func (s *countingSource) Range(i0, i1 int) sdf.Box3 {
	s.calls[[2]int{i0, i1}]++
	return s.BoxSource.Range(i0, i1)
}

// checkInvariants walks the heap from the root and verifies addressing,
// interval partitioning, leaf boxes and bottom-up box aggregation.
func checkInvariants(t *testing.T, h *Heap, src RangeSource, i0, i1 int) {
	t.Helper()
	if i1 < i0 {
		if h.RootIndex() != NoIndex {
			t.Fatalf("expected empty heap for [%d,%d]", i0, i1)
		}
		return
	}
	if h.RootIndex() != 0 {
		t.Fatalf("root index = %d, want 0", h.RootIndex())
	}

	next := i0
	visited := 0
	var recurse func(index int)
	recurse = func(index int) {
		e, ok := h.Entry(index)
		if !ok {
			t.Fatalf("node %d is not valid", index)
		}
		visited++
		if e.IsLeaf() {
			if e.I0 != next {
				t.Fatalf("leaf %d starts at %d, want %d", index, e.I0, next)
			}
			if e.I1-e.I0+1 > h.LeafSize() {
				t.Fatalf("leaf %d holds %d indices, leaf size %d", index, e.I1-e.I0+1, h.LeafSize())
			}
			if e.Range != src.Range(e.I0, e.I1) {
				t.Fatalf("leaf %d box %v, want %v", index, e.Range, src.Range(e.I0, e.I1))
			}
			next = e.I1 + 1
			return
		}
		if e.Child != 2*index+1 {
			t.Fatalf("node %d child = %d, want %d", index, e.Child, 2*index+1)
		}
		c0, _ := h.Entry(e.Child)
		c1, _ := h.Entry(e.Child + 1)
		if c0.I0 != e.I0 || c1.I1 != e.I1 || c0.I1+1 != c1.I0 {
			t.Fatalf("node %d [%d,%d] not partitioned by [%d,%d] and [%d,%d]",
				index, e.I0, e.I1, c0.I0, c0.I1, c1.I0, c1.I1)
		}
		if e.Range != Union(c0.Range, c1.Range) {
			t.Fatalf("node %d box %v is not the union of its children", index, e.Range)
		}
		recurse(e.Child)
		recurse(e.Child + 1)
	}
	recurse(0)

	if next != i1+1 {
		t.Fatalf("leaves cover up to %d, want %d", next-1, i1)
	}
	if visited != h.NumEntries() {
		t.Fatalf("reached %d nodes, heap has %d populated", visited, h.NumEntries())
	}
}

func TestBuildInvariants(t *testing.T) {
	for leafSize := 1; leafSize <= 5; leafSize++ {
		for population := 0; population < 40; population++ {
			name := fmt.Sprintf("leaf_%d_pop_%d", leafSize, population)
			t.Run(name, func(t *testing.T) {
				rnd := rand.New(rand.NewSource(int64(population)))
				src := &countingSource{BoxSource: randomBoxes(rnd, population), calls: map[[2]int]int{}}

				var h Heap
				h.Build(leafSize, src, 0, population-1)
				checkInvariants(t, &h, src.BoxSource, 0, population-1)

				for interval, n := range src.calls {
					if n != 1 {
						t.Errorf("interval %v requested %d times", interval, n)
					}
					if !h.IsLeafIndex(leafFor(&h, interval[0])) {
						t.Errorf("interval %v requested but not a leaf", interval)
					}
				}
			})
		}
	}
}

// leafFor returns the leaf holding raw index i.
func leafFor(h *Heap, i int) int {
	index := h.RootIndex()
	for h.IsValidIndex(index) && !h.IsLeafIndex(index) {
		c0, _ := h.ChildIndex(index, 0)
		_, _, c0I1, _ := h.GetWithInterval(c0)
		if i <= c0I1 {
			index = c0
		} else {
			index, _ = h.ChildIndex(index, 1)
		}
	}
	return index
}

func TestBuildOffsetInterval(t *testing.T) {
	src := unitBoxes(30)
	var h Heap
	h.Build(3, src, 7, 25)
	checkInvariants(t, &h, src, 7, 25)
}

func TestBuildRootBox(t *testing.T) {
	var h Heap
	h.Build(2, unitBoxes(10), 0, 9)

	box, ok := h.Get(h.RootIndex())
	if !ok {
		t.Fatal("root is not valid")
	}
	want := sdf.Box3{
		Min: v3.Vec{X: -0.5, Y: -0.5, Z: -0.5},
		Max: v3.Vec{X: 9.5, Y: 0.5, Z: 0.5},
	}
	if box != want {
		t.Errorf("root box = %v, want %v", box, want)
	}
}

func TestBuildEmpty(t *testing.T) {
	tests := []struct {
		name   string
		src    RangeSource
		i0, i1 int
	}{
		{"reversed interval", unitBoxes(5), 4, 3},
		{"nil source", nil, 0, 3},
		{"interval ending at NoIndex", unitBoxes(5), NoIndex - 1, NoIndex},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var h Heap
			h.Build(2, tt.src, tt.i0, tt.i1)
			if h.RootIndex() != NoIndex {
				t.Errorf("RootIndex() = %d, want NoIndex", h.RootIndex())
			}
			if h.Len() != 0 || h.NumEntries() != 0 {
				t.Errorf("Len() = %d, NumEntries() = %d, want 0", h.Len(), h.NumEntries())
			}
			if h.Depth() != -1 {
				t.Errorf("Depth() = %d, want -1", h.Depth())
			}
		})
	}
}

func TestBuildClampsLeafSize(t *testing.T) {
	src := unitBoxes(6)
	var h Heap
	h.Build(-3, src, 0, 5)
	if h.LeafSize() != 1 {
		t.Fatalf("LeafSize() = %d, want 1", h.LeafSize())
	}
	checkInvariants(t, &h, src, 0, 5)
	for i := 0; i < h.Len(); i++ {
		if _, i0, i1, ok := h.GetWithInterval(i); ok && h.IsLeafIndex(i) && i0 != i1 {
			t.Errorf("leaf %d holds [%d,%d], want a single index", i, i0, i1)
		}
	}
}

func TestBuildSingleLeaf(t *testing.T) {
	var h Heap
	h.Build(10, unitBoxes(4), 0, 3)
	if !h.IsLeafIndex(0) {
		t.Fatal("root should be a leaf")
	}
	if h.Len() != 1 {
		t.Errorf("Len() = %d, want 1", h.Len())
	}
	if h.Depth() != 0 {
		t.Errorf("Depth() = %d, want 0", h.Depth())
	}
}

func TestRebuildDiscardsPreviousContent(t *testing.T) {
	var h Heap
	h.Build(1, unitBoxes(50), 0, 49)
	big := h.Len()

	src := unitBoxes(3)
	h.Build(1, src, 0, 2)
	if h.Len() >= big {
		t.Errorf("Len() = %d after rebuild, want fewer than %d", h.Len(), big)
	}
	checkInvariants(t, &h, src, 0, 2)

	h.Build(1, src, 2, 1)
	if h.RootIndex() != NoIndex {
		t.Error("rebuild with empty interval should leave the heap empty")
	}
}

func TestAccessorsInvalidIndex(t *testing.T) {
	var h Heap
	h.Build(1, unitBoxes(6), 0, 5)

	// Node 4 holds [2,2] and is a leaf, so slots 9 and 10 are never filled.
	hole := NoIndex
	for i := 0; i < h.Len(); i++ {
		if !h.IsValidIndex(i) {
			hole = i
			break
		}
	}

	for _, index := range []int{-1, h.Len(), h.Len() + 100, NoIndex, hole} {
		t.Run(fmt.Sprintf("index_%d", index), func(t *testing.T) {
			if h.IsValidIndex(index) {
				t.Fatalf("IsValidIndex(%d) = true", index)
			}
			if h.IsLeafIndex(index) {
				t.Errorf("IsLeafIndex(%d) = true", index)
			}
			box, ok := h.Get(index)
			if ok || !IsNull(box) {
				t.Errorf("Get(%d) = %v, %t, want null box, false", index, box, ok)
			}
			box, i0, i1, ok := h.GetWithInterval(index)
			if ok || !IsNull(box) || i0 != NoIndex || i1 != NoIndex {
				t.Errorf("GetWithInterval(%d) = %v, %d, %d, %t", index, box, i0, i1, ok)
			}
			if c, ok := h.ChildIndex(index, 0); ok || c != NoIndex {
				t.Errorf("ChildIndex(%d, 0) = %d, %t", index, c, ok)
			}
		})
	}
}

func TestChildIndex(t *testing.T) {
	var h Heap
	h.Build(2, unitBoxes(10), 0, 9)

	for offset, want := range []int{1, 2} {
		got, ok := h.ChildIndex(0, offset)
		if !ok || got != want {
			t.Errorf("ChildIndex(0, %d) = %d, %t, want %d", offset, got, ok, want)
		}
	}
	if _, ok := h.ChildIndex(0, 2); ok {
		t.Error("ChildIndex(0, 2) should fail")
	}
	if _, ok := h.ChildIndex(0, -1); ok {
		t.Error("ChildIndex(0, -1) should fail")
	}

	leaf := leafFor(&h, 9)
	if c, ok := h.ChildIndex(leaf, 0); ok || c != NoIndex {
		t.Errorf("ChildIndex(leaf) = %d, %t, want NoIndex, false", c, ok)
	}
}

func TestNodesAtDepth(t *testing.T) {
	src := unitBoxes(10)
	var h Heap
	h.Build(2, src, 0, 9)

	depth := h.Depth()
	if depth != 3 {
		t.Fatalf("Depth() = %d, want 3", depth)
	}
	if h.NodesAtDepth(-1) != nil {
		t.Error("NodesAtDepth(-1) should be nil")
	}
	if got := h.NodesAtDepth(0); len(got) != 1 || got[0] != 0 {
		t.Errorf("NodesAtDepth(0) = %v, want [0]", got)
	}

	for d := 0; d <= depth+1; d++ {
		next := 0
		for _, index := range h.NodesAtDepth(d) {
			_, i0, i1, ok := h.GetWithInterval(index)
			if !ok {
				t.Fatalf("depth %d: invalid node %d", d, index)
			}
			if i0 != next {
				t.Fatalf("depth %d: node %d starts at %d, want %d", d, index, i0, next)
			}
			next = i1 + 1
		}
		if next != 10 {
			t.Errorf("depth %d: nodes cover up to %d, want 9", d, next-1)
		}
	}
}

func TestBoxHelpers(t *testing.T) {
	a := sdf.Box3{Min: v3.Vec{X: 0, Y: 0, Z: 0}, Max: v3.Vec{X: 1, Y: 1, Z: 1}}
	b := sdf.Box3{Min: v3.Vec{X: 3, Y: 0, Z: 4}, Max: v3.Vec{X: 4, Y: 1, Z: 5}}
	c := sdf.Box3{Min: v3.Vec{X: 0.5, Y: 0.5, Z: 4}, Max: v3.Vec{X: 1.5, Y: 1.5, Z: 5}}

	if !IsNull(NullBox()) {
		t.Error("NullBox() is not null")
	}
	if Union(NullBox(), a) != a {
		t.Error("union with the null box should be the identity")
	}
	if got := Distance(a, b); got < 3.6055 || got > 3.6056 {
		t.Errorf("Distance = %f, want sqrt(13)", got)
	}
	if Distance(a, a) != 0 {
		t.Error("Distance of overlapping boxes should be 0")
	}
	if Overlaps(a, b, 2) {
		t.Error("a and b overlap in 2D")
	}
	if !Overlaps(a, c, 2) {
		t.Error("a and c do not overlap in 2D")
	}
	if Overlaps(a, c, 3) {
		t.Error("a and c overlap in 3D")
	}
	if Overlaps(a, NullBox(), 3) {
		t.Error("nothing overlaps the null box")
	}
	if Diagonal(NullBox()) != 0 {
		t.Error("null diagonal should be 0")
	}
	if e := Expand(a, 1); e.Min.X != -1 || e.Max.Z != 2 {
		t.Errorf("Expand = %v", e)
	}
	if !IsNull(Expand(NullBox(), 1)) {
		t.Error("expanding the null box should stay null")
	}
}
