package rangeheap

// singleSearcher walks one heap, pruning with the processor's predicate.
type singleSearcher struct {
	heap *Heap
	proc SingleProcessor
}

// Search visits the heap from the root. Subtrees whose node is rejected by
// NeedProcessing are skipped; for each accepted leaf, Process is called with
// every raw index of its interval in ascending order. IsLive is checked
// before every node and before every Process call.
func Search(h *Heap, p SingleProcessor) {
	if h == nil || p == nil {
		return
	}
	root := h.RootIndex()
	if root == NoIndex {
		return
	}
	s := singleSearcher{heap: h, proc: p}
	s.testAndRecurse(root)
}

func (s *singleSearcher) test(index int) (Entry, bool) {
	e, ok := s.heap.Entry(index)
	if !ok || !s.proc.NeedProcessing(e.Range, e.I0, e.I1) {
		return e, false
	}
	return e, true
}

func (s *singleSearcher) testAndRecurse(index int) {
	if !s.proc.IsLive() {
		return
	}
	e, ok := s.test(index)
	if !ok {
		return
	}
	if e.IsLeaf() {
		for i := e.I0; i <= e.I1; i++ {
			if !s.proc.IsLive() {
				return
			}
			s.proc.Process(i)
		}
		return
	}
	s.testAndRecurse(e.Child)
	s.testAndRecurse(e.Child + 1)
}
