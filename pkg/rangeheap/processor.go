package rangeheap

import "github.com/deadsy/sdfx/sdf"

// SingleProcessor drives Search over one heap.
type SingleProcessor interface {
	// NeedProcessing returns false to prune the node covering [i0,i1].
	NeedProcessing(box sdf.Box3, i0, i1 int) bool
	// IsLive returns false to stop the search.
	IsLive() bool
	// Process is called for each raw index of an accepted leaf.
	Process(index int)
}

// PairProcessor drives SearchPair over two heaps.
type PairProcessor interface {
	NeedProcessing(boxA sdf.Box3, i0A, i1A int, boxB sdf.Box3, i0B, i1B int) bool
	IsLive() bool
	Process(indexA, indexB int)
}

// SingleFuncs adapts closures to SingleProcessor. A nil Need accepts every
// node, a nil Live never cancels.
type SingleFuncs struct {
	Need func(box sdf.Box3, i0, i1 int) bool
	Live func() bool
	Fn   func(index int)
}

var _ SingleProcessor = SingleFuncs{}

func (f SingleFuncs) NeedProcessing(box sdf.Box3, i0, i1 int) bool {
	return f.Need == nil || f.Need(box, i0, i1)
}

func (f SingleFuncs) IsLive() bool {
	return f.Live == nil || f.Live()
}

func (f SingleFuncs) Process(index int) {
	if f.Fn != nil {
		f.Fn(index)
	}
}

// PairFuncs adapts closures to PairProcessor, with the same nil defaults as
// SingleFuncs.
type PairFuncs struct {
	Need func(boxA sdf.Box3, i0A, i1A int, boxB sdf.Box3, i0B, i1B int) bool
	Live func() bool
	Fn   func(indexA, indexB int)
}

var _ PairProcessor = PairFuncs{}

func (f PairFuncs) NeedProcessing(boxA sdf.Box3, i0A, i1A int, boxB sdf.Box3, i0B, i1B int) bool {
	return f.Need == nil || f.Need(boxA, i0A, i1A, boxB, i0B, i1B)
}

func (f PairFuncs) IsLive() bool {
	return f.Live == nil || f.Live()
}

func (f PairFuncs) Process(indexA, indexB int) {
	if f.Fn != nil {
		f.Fn(indexA, indexB)
	}
}
