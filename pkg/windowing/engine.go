package windowing

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/sliceview/sliceview.go/pkg/series"
)

// State tracks how far a series' window has progressed from nothing to
// a user-chosen value.
type State int

const (
	// Uninitialized means no defaults have been computed yet.
	Uninitialized State = iota
	// DefaultsComputed means the window is the computed default or a
	// value equivalent to one of the series' presets.
	DefaultsComputed
	// UserModified means the user has moved the window somewhere no
	// preset accounts for.
	UserModified
)

// Engine owns one series' window state. The window is stored in raw
// stored-sample values regardless of the readout convention, so
// toggling the readout between stored and calibrated units never
// changes what renders and round-trips exactly.
type Engine struct {
	state    State
	current  WindowLevel
	defaults WindowLevel

	rescale    series.Rescale
	hasRescale bool
	presets    []series.Preset

	rescaledReadout bool
}

// NewEngine returns an engine with no defaults computed.
func NewEngine() *Engine {
	return &Engine{}
}

// defaultWindow derives a first window from the stored samples: center
// at the median of the nonzero samples or mid-range, whichever is
// higher, width spanning the full sample range. The median term keeps
// heavily zero-padded slices from defaulting to a window centered in
// the padding.
func defaultWindow(px *series.PixelBuffer) WindowLevel {
	if px == nil || px.Len() == 0 {
		return WindowLevel{Center: 0, Width: 1}
	}
	min, max := px.MinMax()
	center := (min + max) / 2

	nz := make([]float64, 0, px.Len())
	for i := 0; i < px.Len(); i++ {
		if v := px.ValueAt(i); v != 0 {
			nz = append(nz, v)
		}
	}
	if len(nz) > 0 {
		sort.Float64s(nz)
		if med := stat.Quantile(0.5, stat.Empirical, nz, nil); med > center {
			center = med
		}
	}
	return WindowLevel{Center: center, Width: max - min}.Floor()
}

// ComputeDefaults derives and locks the default window from the given
// slice, records its calibration mapping, and adopts its presets,
// falling back to the modality's builtin catalog. The first header
// preset, when the slice carries any, wins over the pixel statistics.
// A second call while defaults already exist is a duplicate display
// event and returns the existing defaults unchanged.
func (e *Engine) ComputeDefaults(sl *series.Slice) WindowLevel {
	if e.state != Uninitialized {
		return e.defaults
	}
	e.rescale, e.hasRescale = sl.Meta.Rescale()
	e.presets = sl.Meta.Presets
	if len(e.presets) == 0 {
		e.presets = BuiltinPresets(sl.Meta.Modality)
	}
	if len(sl.Meta.Presets) > 0 {
		e.defaults = rawPreset(sl.Meta.Presets[0], e.rescale).Floor()
	} else {
		e.defaults = defaultWindow(sl.Pixels)
	}
	e.current = e.defaults
	e.rescaledReadout = e.hasRescale
	e.state = DefaultsComputed
	return e.defaults
}

// State returns where the engine is in its lifecycle.
func (e *Engine) State() State { return e.state }

// Current returns the window in stored sample values, the form the
// render path consumes.
func (e *Engine) Current() WindowLevel { return e.current }

// Defaults returns the computed default window in stored sample values.
func (e *Engine) Defaults() WindowLevel { return e.defaults }

// Presets returns the preset catalog in force for this series.
func (e *Engine) Presets() []series.Preset { return e.presets }

// Rescale returns the calibration mapping recorded at defaults time.
func (e *Engine) Rescale() (series.Rescale, bool) { return e.rescale, e.hasRescale }

// RescaledReadout reports whether Display speaks calibrated units.
func (e *Engine) RescaledReadout() bool { return e.rescaledReadout }

// SetRescaledReadout switches the readout convention. Switching to
// calibrated units fails when the series carries no mapping. The
// stored window is untouched either way.
func (e *Engine) SetRescaledReadout(on bool) bool {
	if on && !e.hasRescale {
		return false
	}
	e.rescaledReadout = on
	return true
}

// Display returns the window in the readout convention.
func (e *Engine) Display() WindowLevel {
	if e.rescaledReadout && e.hasRescale {
		return RawToRescaled(e.current, e.rescale)
	}
	return e.current
}

// Unit names the readout units, empty when reading stored values.
func (e *Engine) Unit() string {
	if e.rescaledReadout && e.hasRescale {
		return e.rescale.Unit
	}
	return ""
}

// store records a raw window. A value equivalent to a preset within
// tolerance is not a user modification, so cine transitions and preset
// re-selection never flip the series to user-modified.
func (e *Engine) store(wl WindowLevel) {
	e.current = wl.Floor()
	if _, ok := Match(e.current, e.presets, e.rescale); ok {
		e.state = DefaultsComputed
	} else {
		e.state = UserModified
	}
}

// SetWindow replaces the window with one expressed in the readout
// convention.
func (e *Engine) SetWindow(wl WindowLevel) {
	if e.rescaledReadout && e.hasRescale {
		wl = RescaledToRaw(wl, e.rescale)
	}
	e.store(wl)
}

// SetRawWindow replaces the window with one already expressed in
// stored sample values.
func (e *Engine) SetRawWindow(wl WindowLevel) {
	e.store(wl)
}

// AdjustBy nudges the window by deltas in the readout convention, the
// shape of an interactive drag.
func (e *Engine) AdjustBy(deltaCenter, deltaWidth float64) {
	disp := e.Display()
	disp.Center += deltaCenter
	disp.Width += deltaWidth
	e.SetWindow(disp)
}

// ApplyPreset replaces the window with the i-th preset. Out-of-range
// indexes are ignored and report false.
func (e *Engine) ApplyPreset(i int) bool {
	if i < 0 || i >= len(e.presets) {
		return false
	}
	e.store(rawPreset(e.presets[i], e.rescale))
	return true
}

// MatchPreset reports which preset, if any, the current window is
// equivalent to within tolerance.
func (e *Engine) MatchPreset() (int, bool) {
	return Match(e.current, e.presets, e.rescale)
}

// Reset returns the window to the computed defaults. It reports false
// when no defaults exist yet.
func (e *Engine) Reset() bool {
	if e.state == Uninitialized {
		return false
	}
	e.current = e.defaults
	e.state = DefaultsComputed
	return true
}
