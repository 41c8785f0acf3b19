// Package windowing maps stored sample values to display intensity via
// a linear window and tracks the per-series window state: computed
// defaults, header presets, and user adjustments.
package windowing

import (
	"math"

	"github.com/sliceview/sliceview.go/pkg/series"
)

// WindowLevel is one display window. Center is the value shown as mid
// gray, Width the value range spread from black to white.
type WindowLevel struct {
	Center float64
	Width  float64
}

// Floor clamps the width to the minimum usable window of 1.0 so a
// degenerate window never divides by zero downstream.
func (wl WindowLevel) Floor() WindowLevel {
	if wl.Width < 1.0 {
		wl.Width = 1.0
	}
	return wl
}

// RawToRescaled converts a window from stored sample values into
// calibrated units. The center moves through the full affine mapping,
// the width scales by the slope alone. A zero slope leaves the window
// untouched so uncalibrated slices keep stored-value windows.
func RawToRescaled(wl WindowLevel, rs series.Rescale) WindowLevel {
	if rs.Slope == 0 {
		return wl
	}
	return WindowLevel{
		Center: wl.Center*rs.Slope + rs.Intercept,
		Width:  wl.Width * rs.Slope,
	}
}

// RescaledToRaw converts a window from calibrated units back into
// stored sample values, the inverse of RawToRescaled. A zero slope
// returns the input unchanged.
func RescaledToRaw(wl WindowLevel, rs series.Rescale) WindowLevel {
	if rs.Slope == 0 {
		return wl
	}
	return WindowLevel{
		Center: (wl.Center - rs.Intercept) / rs.Slope,
		Width:  wl.Width / rs.Slope,
	}
}

// tolerance is the per-component slack used when deciding whether a
// window equals a preset: a tenth of a unit, or 0.1% of the component
// for large values.
func tolerance(v float64) float64 {
	t := math.Abs(v) * 0.001
	if t < 0.1 {
		t = 0.1
	}
	return t
}
