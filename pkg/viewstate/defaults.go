package viewstate

import (
	"github.com/sliceview/sliceview.go/pkg/geom"
	"github.com/sliceview/sliceview.go/pkg/series"
	"github.com/sliceview/sliceview.go/pkg/windowing"
)

// ViewDefaults is the initial view of one series, captured the first
// time it displays and read back on reset: the computed default window
// in stored sample values, the calibration mapping it was computed
// under, the readout convention, the inversion flag, and the settled
// fit transform. Locked marks a canonical entry that later init passes
// must not overwrite.
type ViewDefaults struct {
	Window     windowing.WindowLevel
	Rescale    series.Rescale
	HasRescale bool
	Rescaled   bool
	Inverted   bool
	Transform  geom.Transform
	Locked     bool
}

// carryInto re-expresses the default window for a target calibration:
// out of the source mapping into calibrated units, then into the
// target's stored values. Either side lacking a mapping passes values
// through unchanged.
func (d ViewDefaults) carryInto(target series.Rescale, hasTarget bool) windowing.WindowLevel {
	wl := d.Window
	if d.HasRescale {
		wl = windowing.RawToRescaled(wl, d.Rescale)
	}
	if hasTarget {
		wl = windowing.RescaledToRaw(wl, target)
	}
	return wl
}

// defaultsStore keeps per-series view defaults behind a two-phase
// commit: a display stages its freshly computed defaults as tentative,
// and they become canonical only once zoom and pan have settled. A
// failure in between discards the staged value so the next attempt
// computes cleanly.
type defaultsStore struct {
	committed map[series.Identity]ViewDefaults
	staged    map[series.Identity]ViewDefaults
}

func newDefaultsStore() *defaultsStore {
	return &defaultsStore{
		committed: make(map[series.Identity]ViewDefaults),
		staged:    make(map[series.Identity]ViewDefaults),
	}
}

func (s *defaultsStore) stage(id series.Identity, def ViewDefaults) {
	s.staged[id] = def
}

// commit promotes the staged defaults, stamping them with the settled
// transform and locking them against later init passes. It reports
// false when nothing was staged or a locked entry already exists.
func (s *defaultsStore) commit(id series.Identity, tr geom.Transform) bool {
	def, ok := s.staged[id]
	if !ok {
		return false
	}
	delete(s.staged, id)
	if prev, done := s.committed[id]; done && prev.Locked {
		return false
	}
	def.Transform = tr
	def.Locked = true
	s.committed[id] = def
	return true
}

func (s *defaultsStore) discard(id series.Identity) {
	delete(s.staged, id)
}

func (s *defaultsStore) get(id series.Identity) (ViewDefaults, bool) {
	def, ok := s.committed[id]
	return def, ok
}

func (s *defaultsStore) clear() {
	s.committed = make(map[series.Identity]ViewDefaults)
	s.staged = make(map[series.Identity]ViewDefaults)
}
