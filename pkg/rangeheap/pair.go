package rangeheap

// SortMethod selects the order in which SearchPair expands child pairs.
type SortMethod int

const (
	// SortNone expands child pairs in index order.
	SortNone SortMethod = iota
	// SortByDiagonal expands the child pair with the smallest combined box
	// diagonal first.
	SortByDiagonal
)

func (m SortMethod) String() string {
	switch m {
	case SortNone:
		return "none"
	case SortByDiagonal:
		return "diagonal"
	default:
		return "unknown"
	}
}

type pairSearcher struct {
	a, b *Heap
	proc PairProcessor
	sort SortMethod
}

// childPair is a candidate pair of child nodes with its traversal score.
type childPair struct {
	a, b  int
	score float64
}

// SearchPair visits the cross product of two heaps in index order. It is
// SearchPairSorted with SortNone.
func SearchPair(a, b *Heap, p PairProcessor) {
	SearchPairSorted(a, b, p, SortNone)
}

// SearchPairSorted visits the cross product of two heaps, which may be the
// same heap. A node pair rejected by NeedProcessing prunes everything below
// it. For a pair of accepted leaves, Process is called for every raw index
// pair in row-major order over [i0A,i1A] x [i0B,i1B]. IsLive is checked
// before every node pair and before every Process call.
//
// The sort method only changes the order in which interior-interior child
// pairs are expanded, never the set of Process calls.
func SearchPairSorted(a, b *Heap, p PairProcessor, method SortMethod) {
	if a == nil || b == nil || p == nil {
		return
	}
	rootA, rootB := a.RootIndex(), b.RootIndex()
	if rootA == NoIndex || rootB == NoIndex {
		return
	}
	s := pairSearcher{a: a, b: b, proc: p, sort: method}
	s.testAndRecurse(rootA, rootB)
}

func (s *pairSearcher) test(ia, ib int) (Entry, Entry, bool) {
	ea, okA := s.a.Entry(ia)
	eb, okB := s.b.Entry(ib)
	if !okA || !okB {
		return ea, eb, false
	}
	return ea, eb, s.proc.NeedProcessing(ea.Range, ea.I0, ea.I1, eb.Range, eb.I0, eb.I1)
}

func (s *pairSearcher) testAndRecurse(ia, ib int) {
	if !s.proc.IsLive() {
		return
	}
	ea, eb, ok := s.test(ia, ib)
	if !ok {
		return
	}

	leafA, leafB := ea.IsLeaf(), eb.IsLeaf()
	switch {
	case leafA && leafB:
		for i := ea.I0; i <= ea.I1; i++ {
			for j := eb.I0; j <= eb.I1; j++ {
				if !s.proc.IsLive() {
					return
				}
				s.proc.Process(i, j)
			}
		}
	case leafA:
		s.testAndRecurse(ia, eb.Child)
		s.testAndRecurse(ia, eb.Child+1)
	case leafB:
		s.testAndRecurse(ea.Child, ib)
		s.testAndRecurse(ea.Child+1, ib)
	default:
		s.recurseChildren(ea.Child, eb.Child)
	}
}

func (s *pairSearcher) recurseChildren(childA, childB int) {
	pairs := [4]childPair{
		{a: childA, b: childB},
		{a: childA, b: childB + 1},
		{a: childA + 1, b: childB},
		{a: childA + 1, b: childB + 1},
	}
	if s.sort == SortByDiagonal {
		for k := range pairs {
			boxA, _ := s.a.Get(pairs[k].a)
			boxB, _ := s.b.Get(pairs[k].b)
			pairs[k].score = Diagonal(Union(boxA, boxB))
		}
		sortChildPairs(&pairs)
	}
	for _, cp := range pairs {
		s.testAndRecurse(cp.a, cp.b)
	}
}

// sortChildPairs is an insertion sort, ascending and stable by score.
func sortChildPairs(pairs *[4]childPair) {
	for i := 1; i < len(pairs); i++ {
		for j := i; j > 0 && pairs[j].score < pairs[j-1].score; j-- {
			pairs[j], pairs[j-1] = pairs[j-1], pairs[j]
		}
	}
}
