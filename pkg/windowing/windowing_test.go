package windowing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sliceview/sliceview.go/pkg/series"
	"github.com/sliceview/sliceview.go/pkg/windowing"
)

func ctSlice(t *testing.T, data []int16, withRescale bool) *series.Slice {
	t.Helper()
	px, err := series.FromInt16(2, 4, data)
	require.NoError(t, err)
	meta := &series.SliceMeta{
		Study: "s", Series: "se", Instance: 0,
		Modality: "CT", Rows: 2, Cols: 4, Bits: 16, Signed: true,
	}
	if withRescale {
		meta.SetRescale(1.0, -1024.0, "HU")
	}
	return &series.Slice{Meta: meta, Pixels: px}
}

func TestConversionRoundTrip(t *testing.T) {
	rs := series.Rescale{Slope: 1, Intercept: -1024, Unit: "HU"}
	wl := windowing.WindowLevel{Center: 40, Width: 400}

	raw := windowing.RescaledToRaw(wl, rs)
	assert.Equal(t, windowing.WindowLevel{Center: 1064, Width: 400}, raw)
	assert.Equal(t, wl, windowing.RawToRescaled(raw, rs))

	rs2 := series.Rescale{Slope: 2, Intercept: -1024}
	raw2 := windowing.RescaledToRaw(wl, rs2)
	assert.Equal(t, windowing.WindowLevel{Center: 532, Width: 200}, raw2)
	assert.Equal(t, wl, windowing.RawToRescaled(raw2, rs2))
}

func TestConversionZeroSlopeIsInert(t *testing.T) {
	wl := windowing.WindowLevel{Center: 100, Width: 50}
	rs := series.Rescale{Slope: 0, Intercept: 99}
	assert.Equal(t, wl, windowing.RescaledToRaw(wl, rs))
	assert.Equal(t, wl, windowing.RawToRescaled(wl, rs))
}

func TestWindowFloor(t *testing.T) {
	assert.Equal(t, 1.0, windowing.WindowLevel{Center: 0, Width: 0}.Floor().Width)
	assert.Equal(t, 1.0, windowing.WindowLevel{Center: 0, Width: -5}.Floor().Width)
	assert.Equal(t, 400.0, windowing.WindowLevel{Center: 0, Width: 400}.Floor().Width)
}

func TestMatchTolerance(t *testing.T) {
	presets := []series.Preset{
		{Center: 40, Width: 400, Label: "SOFT_TISSUE"},
		{Center: 400, Width: 2000, Label: "BONE"},
	}
	rs := series.Rescale{}

	i, ok := windowing.Match(windowing.WindowLevel{Center: 40.05, Width: 399.9}, presets, rs)
	require.True(t, ok, "within 0.1 absolute / 0.1% relative slack")
	assert.Equal(t, 0, i)

	i, ok = windowing.Match(windowing.WindowLevel{Center: 400.3, Width: 2001}, presets, rs)
	require.True(t, ok, "0.1% of 400 and 2000 covers these")
	assert.Equal(t, 1, i)

	_, ok = windowing.Match(windowing.WindowLevel{Center: 41, Width: 400}, presets, rs)
	assert.False(t, ok)

	_, ok = windowing.Match(windowing.WindowLevel{Center: 40, Width: 405}, presets, rs)
	assert.False(t, ok)
}

func TestMatchConvertsRescaledPresets(t *testing.T) {
	presets := []series.Preset{{Center: 40, Width: 400, Rescaled: true}}
	rs := series.Rescale{Slope: 1, Intercept: -1024}

	// The stored-value window equivalent to 40/400 HU.
	i, ok := windowing.Match(windowing.WindowLevel{Center: 1064, Width: 400}, presets, rs)
	require.True(t, ok)
	assert.Equal(t, 0, i)

	_, ok = windowing.Match(windowing.WindowLevel{Center: 40, Width: 400}, presets, rs)
	assert.False(t, ok, "calibrated numbers must not match against stored values")
}

func TestMatchFloorConvertsWithPreset(t *testing.T) {
	presets := []series.Preset{{Center: 40, Width: 400, Rescaled: true, Label: "SOFT_TISSUE"}}
	rs := series.Rescale{Slope: 2, Intercept: 0}

	// 40/400 HU is 20/200 in stored values under slope 2, and the 0.1
	// floor is a tenth of an HU, so 0.05 stored values.
	i, ok := windowing.Match(windowing.WindowLevel{Center: 20.04, Width: 200}, presets, rs)
	require.True(t, ok, "0.08 HU off center sits inside the floor")
	assert.Equal(t, 0, i)

	_, ok = windowing.Match(windowing.WindowLevel{Center: 20.08, Width: 200}, presets, rs)
	assert.False(t, ok, "0.16 HU off center sits past the floor")
}

func TestDefaultsMidRange(t *testing.T) {
	e := windowing.NewEngine()
	def := e.ComputeDefaults(ctSlice(t, []int16{0, 0, 0, 0, 100, 200, 300, 800}, false))

	// Median of nonzero samples (200) is below mid-range (400), so
	// mid-range wins.
	assert.Equal(t, windowing.WindowLevel{Center: 400, Width: 800}, def)
	assert.Equal(t, windowing.DefaultsComputed, e.State())
}

func TestDefaultsMedianWinsOnPaddedData(t *testing.T) {
	e := windowing.NewEngine()
	def := e.ComputeDefaults(ctSlice(t, []int16{0, 0, 0, 0, 0, 0, 1000, 1000}, false))

	assert.Equal(t, windowing.WindowLevel{Center: 1000, Width: 1000}, def)
}

func TestDefaultsDegenerateData(t *testing.T) {
	e := windowing.NewEngine()
	def := e.ComputeDefaults(ctSlice(t, []int16{0, 0, 0, 0, 0, 0, 0, 0}, false))

	assert.Equal(t, windowing.WindowLevel{Center: 0, Width: 1}, def, "flat data floors the width")
}

func TestDefaultsComputedOnce(t *testing.T) {
	e := windowing.NewEngine()
	first := e.ComputeDefaults(ctSlice(t, []int16{0, 0, 0, 0, 100, 200, 300, 800}, false))
	again := e.ComputeDefaults(ctSlice(t, []int16{0, 0, 0, 0, 0, 0, 0, 127}, false))

	assert.Equal(t, first, again, "duplicate display events must not move defaults")
}

func TestDefaultsFromHeaderPreset(t *testing.T) {
	sl := ctSlice(t, []int16{0, 0, 0, 0, 100, 200, 300, 800}, true)
	sl.Meta.Presets = []series.Preset{
		{Center: 40, Width: 400, Rescaled: true, Label: "SOFT_TISSUE"},
		{Center: -600, Width: 1500, Rescaled: true, Label: "LUNG"},
	}
	e := windowing.NewEngine()
	def := e.ComputeDefaults(sl)

	// The first header preset beats the pixel statistics, expressed in
	// stored sample values.
	assert.Equal(t, windowing.WindowLevel{Center: 1064, Width: 400}, def)
	assert.Equal(t, windowing.WindowLevel{Center: 40, Width: 400}, e.Display())
}

func TestReadoutConventionDoesNotTouchStoredWindow(t *testing.T) {
	e := windowing.NewEngine()
	e.ComputeDefaults(ctSlice(t, []int16{0, 0, 0, 0, 100, 200, 300, 800}, true))

	require.True(t, e.RescaledReadout(), "calibrated readout is the default when a mapping exists")
	raw := e.Current()

	require.True(t, e.SetRescaledReadout(false))
	assert.Equal(t, raw, e.Current())
	assert.Equal(t, raw, e.Display())
	assert.Equal(t, "", e.Unit())

	require.True(t, e.SetRescaledReadout(true))
	assert.Equal(t, raw, e.Current(), "toggling the readout must not change what renders")
	assert.Equal(t, "HU", e.Unit())
	assert.Equal(t, windowing.RawToRescaled(raw, series.Rescale{Slope: 1, Intercept: -1024, Unit: "HU"}), e.Display())
}

func TestRescaledReadoutRequiresMapping(t *testing.T) {
	e := windowing.NewEngine()
	e.ComputeDefaults(ctSlice(t, []int16{0, 0, 0, 0, 1, 2, 3, 4}, false))

	assert.False(t, e.RescaledReadout())
	assert.False(t, e.SetRescaledReadout(true))
	assert.True(t, e.SetRescaledReadout(false))
}

func TestSetWindowAndAdjustInReadoutUnits(t *testing.T) {
	e := windowing.NewEngine()
	e.ComputeDefaults(ctSlice(t, []int16{0, 0, 0, 0, 100, 200, 300, 800}, true))

	e.SetWindow(windowing.WindowLevel{Center: 45, Width: 380})
	assert.Equal(t, windowing.UserModified, e.State())
	assert.Equal(t, windowing.WindowLevel{Center: 1069, Width: 380}, e.Current())
	assert.Equal(t, windowing.WindowLevel{Center: 45, Width: 380}, e.Display())

	e.AdjustBy(10, -60)
	assert.Equal(t, windowing.WindowLevel{Center: 55, Width: 320}, e.Display())

	// Shrinking past the floor pins the stored width at 1.
	e.AdjustBy(0, -1000)
	assert.Equal(t, 1.0, e.Current().Width)
}

func TestSetWindowMatchingPresetStaysUnmodified(t *testing.T) {
	e := windowing.NewEngine()
	e.ComputeDefaults(ctSlice(t, []int16{0, 0, 0, 0, 100, 200, 300, 800}, true))

	// 40.05/399.9 HU sits within tolerance of the builtin 40/400.
	e.SetWindow(windowing.WindowLevel{Center: 40.05, Width: 399.9})
	assert.Equal(t, windowing.DefaultsComputed, e.State())
	i, ok := e.MatchPreset()
	require.True(t, ok)
	assert.Equal(t, 0, i)

	e.SetWindow(windowing.WindowLevel{Center: 45, Width: 380})
	assert.Equal(t, windowing.UserModified, e.State())
}

func TestApplyAndMatchPreset(t *testing.T) {
	sl := ctSlice(t, []int16{0, 0, 0, 0, 100, 200, 300, 800}, true)
	sl.Meta.Presets = []series.Preset{
		{Center: 40, Width: 400, Rescaled: true, Label: "SOFT_TISSUE"},
		{Center: -600, Width: 1500, Rescaled: true, Label: "LUNG"},
	}
	e := windowing.NewEngine()
	e.ComputeDefaults(sl)

	require.True(t, e.ApplyPreset(1))
	assert.Equal(t, windowing.WindowLevel{Center: -600, Width: 1500}, e.Display())
	i, ok := e.MatchPreset()
	require.True(t, ok)
	assert.Equal(t, 1, i)

	e.AdjustBy(500, 0)
	_, ok = e.MatchPreset()
	assert.False(t, ok)

	assert.False(t, e.ApplyPreset(2))
	assert.False(t, e.ApplyPreset(-1))
}

func TestBuiltinPresetFallback(t *testing.T) {
	e := windowing.NewEngine()
	e.ComputeDefaults(ctSlice(t, []int16{0, 0, 0, 0, 1, 2, 3, 4}, false))

	require.Len(t, e.Presets(), 4, "CT catalog")
	assert.Equal(t, "SOFT_TISSUE", e.Presets()[0].Label)

	assert.Len(t, windowing.BuiltinPresets("DX"), 1)
	assert.Nil(t, windowing.BuiltinPresets("MR"))
}

func TestReset(t *testing.T) {
	e := windowing.NewEngine()
	assert.False(t, e.Reset(), "nothing to reset before defaults exist")

	def := e.ComputeDefaults(ctSlice(t, []int16{0, 0, 0, 0, 100, 200, 300, 800}, true))
	e.SetWindow(windowing.WindowLevel{Center: 45, Width: 380})
	require.Equal(t, windowing.UserModified, e.State())

	require.True(t, e.Reset())
	assert.Equal(t, def, e.Current())
	assert.Equal(t, windowing.DefaultsComputed, e.State())
}
