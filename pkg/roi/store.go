package roi

import "github.com/sliceview/sliceview.go/pkg/series"

// Store holds drawn shapes keyed by the slice they were drawn on.
// Display filters to the current slice key, so shapes from other
// slices in the stack never bleed into the frame.
type Store struct {
	shapes map[series.Key][]Shape
}

// NewStore returns an empty shape store.
func NewStore() *Store {
	return &Store{shapes: make(map[series.Key][]Shape)}
}

// Add records a shape on the given slice and returns its position
// among that slice's shapes.
func (s *Store) Add(k series.Key, sh Shape) int {
	s.shapes[k] = append(s.shapes[k], sh)
	return len(s.shapes[k]) - 1
}

// At returns the shapes drawn on one slice, in draw order.
func (s *Store) At(k series.Key) []Shape {
	return s.shapes[k]
}

// Remove deletes the i-th shape of a slice. It reports false when no
// such shape exists.
func (s *Store) Remove(k series.Key, i int) bool {
	list, ok := s.shapes[k]
	if !ok || i < 0 || i >= len(list) {
		return false
	}
	s.shapes[k] = append(list[:i], list[i+1:]...)
	if len(s.shapes[k]) == 0 {
		delete(s.shapes, k)
	}
	return true
}

// ClearSlice drops every shape on one slice.
func (s *Store) ClearSlice(k series.Key) {
	delete(s.shapes, k)
}

// Clear drops everything, the response to a new file set.
func (s *Store) Clear() {
	s.shapes = make(map[series.Key][]Shape)
}

// Prune drops shapes whose slice no longer exists, returning how many
// shapes went. Stale keys appear when a file set is replaced while
// shapes from the old one are still held.
func (s *Store) Prune(valid func(series.Key) bool) int {
	dropped := 0
	for k, list := range s.shapes {
		if !valid(k) {
			dropped += len(list)
			delete(s.shapes, k)
		}
	}
	return dropped
}

// Len counts every stored shape across all slices.
func (s *Store) Len() int {
	n := 0
	for _, list := range s.shapes {
		n += len(list)
	}
	return n
}
