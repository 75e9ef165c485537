package rangeheap

import (
	"github.com/deadsy/sdfx/sdf"
	"github.com/pkg/errors"
)

// collectStackCapacity bounds the explicit stack of CollectInRange. A
// midpoint-split tree needs at most depth+1 slots, so this covers trees of
// up to about 2^47 leaves.
const collectStackCapacity = 48

// ErrStackOverflow is returned, wrapped, by CollectInRange when some subtrees
// could not be visited. The indices returned alongside it are incomplete.
var ErrStackOverflow = errors.New("rangeheap: collector stack overflow")

// CollectInRange returns the raw indices whose boxes overlap query on the
// first numDimensions axes (clamped to 2 or 3). The result reuses the backing
// array of indices and is in ascending index order.
//
// Leaves covering several indices are refined by asking the heap's source for
// each index's own box, so only genuinely overlapping indices are reported.
//
// The traversal uses a fixed-size stack instead of recursion. If a malformed
// or extremely deep tree would overflow it, the remaining subtrees are
// skipped and an error wrapping ErrStackOverflow is returned with the partial
// result.
func (h *Heap) CollectInRange(query sdf.Box3, numDimensions int, indices []int) ([]int, error) {
	return h.collectInRange(query, numDimensions, indices, collectStackCapacity)
}

func (h *Heap) collectInRange(query sdf.Box3, numDimensions int, indices []int, capacity int) ([]int, error) {
	indices = indices[:0]
	root := h.RootIndex()
	if root == NoIndex || IsNull(query) {
		return indices, nil
	}
	numDimensions = min(max(numDimensions, 2), 3)

	var stack [collectStackCapacity]int
	if capacity > len(stack) {
		capacity = len(stack)
	}
	stack[0] = root
	n := 1
	skipped := 0
	for n > 0 {
		n--
		index := stack[n]
		if !h.IsValidIndex(index) {
			continue
		}
		e := &h.entries[index]
		if !Overlaps(e.Range, query, numDimensions) {
			continue
		}
		if e.IsLeaf() {
			indices = h.appendLeaf(indices, e, query, numDimensions)
			continue
		}
		if n+2 > capacity {
			skipped++
			continue
		}
		// Second child first so the first child is popped next.
		stack[n] = e.Child + 1
		stack[n+1] = e.Child
		n += 2
	}
	if skipped > 0 {
		return indices, errors.Wrapf(ErrStackOverflow, "%d subtrees skipped", skipped)
	}
	return indices, nil
}

func (h *Heap) appendLeaf(indices []int, e *Entry, query sdf.Box3, numDimensions int) []int {
	if e.I0 == e.I1 || h.source == nil {
		for i := e.I0; i <= e.I1; i++ {
			indices = append(indices, i)
		}
		return indices
	}
	for i := e.I0; i <= e.I1; i++ {
		if Overlaps(h.source.Range(i, i), query, numDimensions) {
			indices = append(indices, i)
		}
	}
	return indices
}
