package projection_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sliceview/sliceview.go/pkg/projection"
	"github.com/sliceview/sliceview.go/pkg/series"
)

func slice(t *testing.T, instance int, data []int16) *series.Slice {
	t.Helper()
	px, err := series.FromInt16(2, 2, data)
	require.NoError(t, err)
	meta := &series.SliceMeta{
		Study: "s", Series: "se", Instance: instance,
		Modality: "CT", Rows: 2, Cols: 2, Bits: 16, Signed: true,
	}
	meta.SetRescale(1, -1024, "HU")
	meta.SetSliceThickness(2.5)
	return &series.Slice{Meta: meta, Pixels: px}
}

func TestComposeMaximum(t *testing.T) {
	a := slice(t, 0, []int16{10, -5, 0, 100})
	b := slice(t, 1, []int16{3, 40, -2, 90})

	c, err := projection.Compose(projection.Maximum, []*series.Slice{a, b})
	require.NoError(t, err)
	assert.Equal(t, []float32{10, 40, 0, 100}, c.Data)
	assert.Equal(t, 2, c.Count)
	assert.Equal(t, "MIP", c.Mode.String())
}

func TestComposeAverage(t *testing.T) {
	a := slice(t, 0, []int16{10, 20, -30, 0})
	b := slice(t, 1, []int16{20, 20, -10, 1})

	c, err := projection.Compose(projection.Average, []*series.Slice{a, b})
	require.NoError(t, err)
	assert.Equal(t, []float32{15, 20, -20, 0.5}, c.Data)
}

func TestComposeMinimum(t *testing.T) {
	a := slice(t, 0, []int16{10, -5, 0, 100})
	b := slice(t, 1, []int16{3, 40, -2, 90})

	c, err := projection.Compose(projection.Minimum, []*series.Slice{a, b})
	require.NoError(t, err)
	assert.Equal(t, []float32{3, -5, -2, 90}, c.Data)
}

func TestComposeIdenticalSlicesIsIdentity(t *testing.T) {
	data := []int16{7, -3, 250, 0}
	run := []*series.Slice{slice(t, 0, data), slice(t, 1, data), slice(t, 2, data)}

	for _, mode := range []projection.Mode{projection.Maximum, projection.Average, projection.Minimum} {
		c, err := projection.Compose(mode, run)
		require.NoError(t, err)
		assert.Equal(t, []float32{7, -3, 250, 0}, c.Data, mode.String())
	}
}

func TestComposeTooFewSlices(t *testing.T) {
	_, err := projection.Compose(projection.Maximum, []*series.Slice{slice(t, 0, []int16{1, 2, 3, 4})})
	assert.ErrorIs(t, err, projection.ErrTooFewSlices)

	_, err = projection.Compose(projection.Maximum, nil)
	assert.ErrorIs(t, err, projection.ErrTooFewSlices)
}

func TestComposeRejectsNonReduction(t *testing.T) {
	run := []*series.Slice{
		slice(t, 0, []int16{1, 2, 3, 4}),
		slice(t, 1, []int16{5, 6, 7, 8}),
	}

	_, err := projection.Compose(projection.None, run)
	assert.Error(t, err, "the zero mode must not reduce")
	_, err = projection.Compose(projection.Mode(42), run)
	assert.Error(t, err)
}

func TestComposeShapeMismatch(t *testing.T) {
	a := slice(t, 0, []int16{1, 2, 3, 4})
	px, err := series.FromInt16(1, 4, []int16{1, 2, 3, 4})
	require.NoError(t, err)
	b := &series.Slice{Meta: a.Meta, Pixels: px}

	_, err = projection.Compose(projection.Maximum, []*series.Slice{a, b})
	assert.ErrorIs(t, err, projection.ErrShapeMismatch)
}

func TestComposeMissingBuffer(t *testing.T) {
	a := slice(t, 0, []int16{1, 2, 3, 4})
	b := &series.Slice{Meta: a.Meta, Pixels: nil}

	_, err := projection.Compose(projection.Average, []*series.Slice{a, b})
	assert.ErrorIs(t, err, series.ErrPixelAccess)
}

func TestComposeOverClampedWindow(t *testing.T) {
	slices := make([]*series.Slice, 8)
	for i := range slices {
		slices[i] = slice(t, i, []int16{int16(i), int16(i), int16(i), int16(i)})
	}
	st, err := series.NewStack(slices...)
	require.NoError(t, err)

	// Anchored near the end the window shrinks to two slices and the
	// reduction still runs.
	c, err := projection.Compose(projection.Maximum, st.Window(6, 4))
	require.NoError(t, err)
	assert.Equal(t, []float32{7, 7, 7, 7}, c.Data)

	// On the last slice only one remains: no reduction, callers show
	// the slice itself.
	_, err = projection.Compose(projection.Maximum, st.Window(7, 4))
	assert.ErrorIs(t, err, projection.ErrTooFewSlices)
}

func TestCompositeMinMax(t *testing.T) {
	a := slice(t, 0, []int16{10, -5, 0, 100})
	b := slice(t, 1, []int16{3, 40, -2, 90})
	c, err := projection.Compose(projection.Maximum, []*series.Slice{a, b})
	require.NoError(t, err)

	min, max := c.MinMax()
	assert.Equal(t, 0.0, min)
	assert.Equal(t, 100.0, max)
}

func TestQuantizeRoundsAndClips(t *testing.T) {
	a := slice(t, 0, []int16{10, 20, 32767, -32768})
	b := slice(t, 1, []int16{11, 21, 32767, -32768})
	c, err := projection.Compose(projection.Average, []*series.Slice{a, b})
	require.NoError(t, err)

	px, err := c.Quantize()
	require.NoError(t, err)
	assert.Equal(t, 16, px.Bits)
	assert.True(t, px.Signed)
	// Halves round away from zero; extremes stay within range.
	assert.Equal(t, []float64{11, 21, 32767, -32768}, px.Float64s())
}

func TestDerivedMeta(t *testing.T) {
	run := []*series.Slice{
		slice(t, 3, []int16{1, 2, 3, 4}),
		slice(t, 4, []int16{5, 6, 7, 8}),
		slice(t, 5, []int16{9, 10, 11, 12}),
	}
	c, err := projection.Compose(projection.Maximum, run)
	require.NoError(t, err)

	m := c.DerivedMeta("1.2.3.99")
	assert.Equal(t, "1.2.3.99", m.SOPInstanceUID)
	assert.Equal(t, "MIP of 3 slices", m.Derivation)
	assert.Equal(t, "s", m.Study)
	assert.Equal(t, 3, m.Instance)

	th, ok := m.SliceThickness()
	require.True(t, ok)
	assert.InDelta(t, 7.5, th, 1e-9)

	rs, ok := m.Rescale()
	require.True(t, ok)
	assert.Equal(t, -1024.0, rs.Intercept)
}

func TestDerivedThicknessAbsentWhenAnySliceLacksIt(t *testing.T) {
	a := slice(t, 0, []int16{1, 2, 3, 4})
	b := slice(t, 1, []int16{5, 6, 7, 8})
	b.Meta = &series.SliceMeta{
		Study: "s", Series: "se", Instance: 1,
		Modality: "CT", Rows: 2, Cols: 2, Bits: 16, Signed: true,
	}
	c, err := projection.Compose(projection.Average, []*series.Slice{a, b})
	require.NoError(t, err)

	_, ok := c.Thickness()
	assert.False(t, ok)
	_, ok = c.DerivedMeta("uid").SliceThickness()
	assert.False(t, ok)
}

func TestSpecAndCounts(t *testing.T) {
	assert.True(t, projection.ValidCount(2))
	assert.True(t, projection.ValidCount(8))
	assert.False(t, projection.ValidCount(5))
	assert.False(t, projection.ValidCount(0))

	assert.False(t, projection.Spec{}.Active())
	assert.False(t, projection.Spec{Mode: projection.Maximum, Count: 1}.Active())
	assert.True(t, projection.Spec{Mode: projection.Average, Count: 4}.Active())
	assert.Equal(t, []int{2, 3, 4, 6, 8}, projection.AllowedCounts())
}
