// Package rangeheap implements an indexed bounding-volume hierarchy over an
// ordered sequence of primitives. The tree only knows index intervals and
// their boxes; geometry-specific work is delegated to a RangeSource during
// Build and to processor callbacks during queries.
//
// A Heap is built once and is read-only afterwards. Queries take no locks:
// any number of them may run concurrently against an unmodified heap, but a
// Build while a query is in flight must be serialized by the caller.
package rangeheap

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
)

// NoIndex is the sentinel index. It marks leaves (no child), unset intervals
// and "not found" results.
const NoIndex = math.MaxInt

// RangeSource supplies the box covering the primitives in the inclusive index
// range [i0,i1]. It may return the null box only for an empty range.
type RangeSource interface {
	Range(i0, i1 int) sdf.Box3
}

// Entry is one node of the hierarchy.
type Entry struct {
	Range sdf.Box3
	I0    int
	I1    int
	// Child is the first of two contiguous children, or NoIndex for a leaf.
	Child int
}

// IsLeaf reports whether the entry has no children.
func (e *Entry) IsLeaf() bool {
	return e.Child == NoIndex
}

func unsetEntry() Entry {
	return Entry{Range: NullBox(), I0: NoIndex, I1: NoIndex, Child: NoIndex}
}

// Heap is a binary range tree stored in a flat slice. The root is at 0 and
// the children of node k are at 2k+1 and 2k+2. Slots that no split ever
// reached stay unset and are reported as invalid.
//
// The zero value is an empty heap.
type Heap struct {
	entries     []Entry
	source      RangeSource
	numPerEntry int
}

// Build discards any previous content and builds the tree over [i0,i1].
// Intervals of at most numPerEntry indices become leaves whose box comes from
// source; larger intervals are split at their midpoint. numPerEntry is
// clamped to at least 1. An empty interval or nil source leaves the heap
// empty, and so does an interval ending at NoIndex, which is reserved.
//
// The heap keeps source for its lifetime; the caller must keep it alive.
func (h *Heap) Build(numPerEntry int, source RangeSource, i0, i1 int) {
	if numPerEntry < 1 {
		numPerEntry = 1
	}
	h.entries = h.entries[:0]
	h.source = source
	h.numPerEntry = numPerEntry
	if i1 < i0 || i1 >= NoIndex || source == nil {
		return
	}
	h.grow(1)
	h.build(0, i0, i1)
}

func (h *Heap) build(index, i0, i1 int) {
	if i1-i0 < h.numPerEntry {
		h.entries[index] = Entry{Range: h.source.Range(i0, i1), I0: i0, I1: i1, Child: NoIndex}
		return
	}

	child := 2*index + 1
	h.entries[index] = Entry{Range: NullBox(), I0: i0, I1: i1, Child: child}
	h.grow(child + 2)

	mid := i0 + (i1-i0)/2
	h.build(child, i0, mid)
	h.build(child+1, mid+1, i1)

	// Both children are final now.
	h.entries[index].Range = h.entries[child].Range.Extend(h.entries[child+1].Range)
}

// grow extends the slice with unset entries until it holds n of them.
func (h *Heap) grow(n int) {
	for len(h.entries) < n {
		h.entries = append(h.entries, unsetEntry())
	}
}

// Source returns the RangeSource the heap was built from.
func (h *Heap) Source() RangeSource {
	return h.source
}

// LeafSize returns the clamped leaf threshold used by the last Build.
func (h *Heap) LeafSize() int {
	return h.numPerEntry
}

// Len returns the length of the backing slice, unset slots included.
func (h *Heap) Len() int {
	return len(h.entries)
}

// NumEntries returns the number of populated nodes.
func (h *Heap) NumEntries() int {
	n := 0
	for i := range h.entries {
		if h.entries[i].I0 != NoIndex {
			n++
		}
	}
	return n
}

// IsValidIndex reports whether index addresses a populated node.
func (h *Heap) IsValidIndex(index int) bool {
	return index >= 0 && index < len(h.entries) && h.entries[index].I0 != NoIndex
}

// IsLeafIndex reports whether index addresses a populated leaf.
func (h *Heap) IsLeafIndex(index int) bool {
	return h.IsValidIndex(index) && h.entries[index].IsLeaf()
}

// RootIndex returns 0, or NoIndex when the heap is empty.
func (h *Heap) RootIndex() int {
	if h.IsValidIndex(0) {
		return 0
	}
	return NoIndex
}

// Entry returns a copy of the node at index.
func (h *Heap) Entry(index int) (Entry, bool) {
	if !h.IsValidIndex(index) {
		return unsetEntry(), false
	}
	return h.entries[index], true
}

// Get returns the box of the node at index, or the null box.
func (h *Heap) Get(index int) (sdf.Box3, bool) {
	if !h.IsValidIndex(index) {
		return NullBox(), false
	}
	return h.entries[index].Range, true
}

// GetWithInterval returns the box and index interval of the node at index.
// Invalid indices yield the null box and NoIndex bounds.
func (h *Heap) GetWithInterval(index int) (box sdf.Box3, i0, i1 int, ok bool) {
	if !h.IsValidIndex(index) {
		return NullBox(), NoIndex, NoIndex, false
	}
	e := &h.entries[index]
	return e.Range, e.I0, e.I1, true
}

// ChildIndex returns child 0 or 1 of an interior node.
func (h *Heap) ChildIndex(index, offset int) (int, bool) {
	if !h.IsValidIndex(index) || h.entries[index].IsLeaf() || offset < 0 || offset > 1 {
		return NoIndex, false
	}
	return h.entries[index].Child + offset, true
}

// Depth returns the number of levels below the root: 0 for a single leaf,
// -1 for an empty heap.
func (h *Heap) Depth() int {
	root := h.RootIndex()
	if root == NoIndex {
		return -1
	}
	var depth func(index int) int
	depth = func(index int) int {
		e := &h.entries[index]
		if e.IsLeaf() {
			return 0
		}
		return 1 + max(depth(e.Child), depth(e.Child+1))
	}
	return depth(root)
}

// NodesAtDepth returns the nodes exactly depth levels below the root, plus
// the leaves that end above that level, in index-interval order. Their
// intervals partition the interval the heap was built over.
func (h *Heap) NodesAtDepth(depth int) []int {
	root := h.RootIndex()
	if root == NoIndex || depth < 0 {
		return nil
	}
	var nodes []int
	var walk func(index, level int)
	walk = func(index, level int) {
		e := &h.entries[index]
		if level == depth || e.IsLeaf() {
			nodes = append(nodes, index)
			return
		}
		walk(e.Child, level+1)
		walk(e.Child+1, level+1)
	}
	walk(root, 0)
	return nodes
}
