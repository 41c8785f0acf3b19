package windowing

import (
	"math"

	"github.com/sliceview/sliceview.go/pkg/series"
)

// BuiltinPresets returns the standard viewing windows offered when a
// header carries none. Values are in calibrated units except for the
// projection-radiography default, which spans the stored range.
func BuiltinPresets(modality string) []series.Preset {
	switch modality {
	case "CT":
		return []series.Preset{
			{Center: 40, Width: 400, Rescaled: true, Label: "SOFT_TISSUE"},
			{Center: 400, Width: 2000, Rescaled: true, Label: "BONE"},
			{Center: -600, Width: 1500, Rescaled: true, Label: "LUNG"},
			{Center: 50, Width: 350, Rescaled: true, Label: "BRAIN"},
		}
	case "DX", "CR":
		return []series.Preset{
			{Center: 32768, Width: 65535, Rescaled: false, Label: "DEFAULT"},
		}
	default:
		return nil
	}
}

// rawPreset expresses a preset in stored sample values using the given
// mapping. Presets already in stored values pass through.
func rawPreset(p series.Preset, rs series.Rescale) WindowLevel {
	wl := WindowLevel{Center: p.Center, Width: p.Width}
	if p.Rescaled {
		wl = RescaledToRaw(wl, rs)
	}
	return wl
}

// Match returns the index of the first preset the window is equivalent
// to, comparing center and width each within tolerance. Both sides are
// compared in stored sample values so the answer does not depend on
// the readout convention. The tolerance anchors on the preset's
// declared components and converts along with them, so the floor means
// a tenth of a unit in the preset's own convention whatever the slope.
func Match(wl WindowLevel, presets []series.Preset, rs series.Rescale) (int, bool) {
	for i, p := range presets {
		pw := rawPreset(p, rs)
		scale := 1.0
		if p.Rescaled && rs.Slope != 0 {
			scale = math.Abs(rs.Slope)
		}
		if math.Abs(wl.Center-pw.Center) <= tolerance(p.Center)/scale &&
			math.Abs(wl.Width-pw.Width) <= tolerance(p.Width)/scale {
			return i, true
		}
	}
	return -1, false
}
