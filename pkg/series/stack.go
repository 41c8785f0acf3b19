package series

import (
	"fmt"
	"sort"
)

// Slice pairs one image's metadata with its stored samples.
type Slice struct {
	Meta   *SliceMeta
	Pixels *PixelBuffer
}

// Stack is an ordered run of slices from a single series, sorted by
// instance index. It is the unit the display pipeline scrolls through
// and the source for projection windows.
type Stack struct {
	identity Identity
	slices   []*Slice
}

// NewStack orders the given slices by instance index and verifies they
// all belong to one series.
func NewStack(slices ...*Slice) (*Stack, error) {
	if len(slices) == 0 {
		return nil, fmt.Errorf("stack requires at least one slice")
	}
	id := Identity{Study: slices[0].Meta.Study, Series: slices[0].Meta.Series}
	for _, s := range slices {
		sid := Identity{Study: s.Meta.Study, Series: s.Meta.Series}
		if sid != id {
			return nil, fmt.Errorf("mixed series in stack: %s vs %s", id, sid)
		}
	}
	ordered := make([]*Slice, len(slices))
	copy(ordered, slices)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Meta.Instance < ordered[j].Meta.Instance
	})
	return &Stack{identity: id, slices: ordered}, nil
}

// Identity returns the series the stack belongs to.
func (s *Stack) Identity() Identity { return s.identity }

// Len returns the number of slices in the stack.
func (s *Stack) Len() int { return len(s.slices) }

// At returns the slice at position i in stack order, or nil when i is
// out of range.
func (s *Stack) At(i int) *Slice {
	if i < 0 || i >= len(s.slices) {
		return nil
	}
	return s.slices[i]
}

// Window returns the contiguous run [start, start+count) clamped to the
// stack bounds. Near the end of the stack the run shrinks rather than
// wrapping, so a window of 4 anchored at the second-to-last slice
// yields 2. An anchor past either end yields nil.
func (s *Stack) Window(start, count int) []*Slice {
	lo := start
	if lo < 0 {
		lo = 0
	}
	hi := start + count
	if hi > len(s.slices) {
		hi = len(s.slices)
	}
	if hi <= lo {
		return nil
	}
	return s.slices[lo:hi]
}

// Clamp maps an arbitrary index onto a valid stack position.
func (s *Stack) Clamp(i int) int {
	if i < 0 {
		return 0
	}
	if i >= len(s.slices) {
		return len(s.slices) - 1
	}
	return i
}

// Step advances the given index by delta with wraparound, so scrolling
// past the last slice lands on the first and vice versa.
func (s *Stack) Step(i, delta int) int {
	n := len(s.slices)
	if n == 0 {
		return 0
	}
	i = (i + delta) % n
	if i < 0 {
		i += n
	}
	return i
}
