package roi_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sliceview/sliceview.go/pkg/geom"
	"github.com/sliceview/sliceview.go/pkg/projection"
	"github.com/sliceview/sliceview.go/pkg/roi"
	"github.com/sliceview/sliceview.go/pkg/series"
)

func gradientSlice(t *testing.T) *series.Slice {
	t.Helper()
	data := make([]int16, 16)
	for i := range data {
		data[i] = int16(i)
	}
	px, err := series.FromInt16(4, 4, data)
	require.NoError(t, err)
	meta := &series.SliceMeta{
		Study: "s", Series: "se", Instance: 0,
		Modality: "CT", Rows: 4, Cols: 4, Bits: 16, Signed: true,
	}
	return &series.Slice{Meta: meta, Pixels: px}
}

func TestRectangleStats(t *testing.T) {
	sl := gradientSlice(t)
	sh := roi.Shape{Kind: roi.Rectangle, P0: geom.Pt(0, 0), P1: geom.Pt(1, 1)}

	st := roi.ComputeSlice(sh, sl)
	assert.Equal(t, 4, st.Count)
	assert.InDelta(t, 2.5, st.Mean, 1e-9)
	assert.InDelta(t, 2.3805, st.StdDev, 1e-3)
	assert.Equal(t, 0.0, st.Min)
	assert.Equal(t, 5.0, st.Max)
	assert.Equal(t, "4 px", st.Area.String())
}

func TestStatsApplyRescale(t *testing.T) {
	sl := gradientSlice(t)
	sl.Meta.SetRescale(1, -1024, "HU")
	sh := roi.Shape{Kind: roi.Rectangle, P0: geom.Pt(0, 0), P1: geom.Pt(1, 1)}

	st := roi.ComputeSlice(sh, sl)
	assert.InDelta(t, -1021.5, st.Mean, 1e-9)
	assert.Equal(t, -1024.0, st.Min)
	assert.Equal(t, -1019.0, st.Max)
	assert.InDelta(t, 2.3805, st.StdDev, 1e-3, "slope 1 leaves spread unchanged")
}

func TestStatsIgnoreZeroSlopeRescale(t *testing.T) {
	sl := gradientSlice(t)
	sl.Meta.SetRescale(0, 500, "HU")
	sh := roi.Shape{Kind: roi.Rectangle, P0: geom.Pt(0, 0), P1: geom.Pt(1, 1)}

	st := roi.ComputeSlice(sh, sl)
	assert.InDelta(t, 2.5, st.Mean, 1e-9, "unusable mapping reads raw")
}

func TestComputeRawSkipsCalibration(t *testing.T) {
	sl := gradientSlice(t)
	sl.Meta.SetRescale(1, -1024, "HU")
	sh := roi.Shape{Kind: roi.Rectangle, P0: geom.Pt(0, 0), P1: geom.Pt(1, 1)}

	st := roi.ComputeRaw(sh, sl.Pixels, sl.Meta)
	assert.InDelta(t, 2.5, st.Mean, 1e-9)
	assert.Equal(t, 0.0, st.Min)
	assert.Equal(t, 5.0, st.Max)
}

func TestRectangleCorneredAnyDirection(t *testing.T) {
	sl := gradientSlice(t)
	forward := roi.ComputeSlice(roi.Shape{Kind: roi.Rectangle, P0: geom.Pt(0, 0), P1: geom.Pt(2, 2)}, sl)
	backward := roi.ComputeSlice(roi.Shape{Kind: roi.Rectangle, P0: geom.Pt(2, 2), P1: geom.Pt(0, 0)}, sl)
	assert.Equal(t, forward, backward)
	assert.Equal(t, 9, forward.Count)
}

func TestShapeClipsToImage(t *testing.T) {
	sl := gradientSlice(t)
	sh := roi.Shape{Kind: roi.Rectangle, P0: geom.Pt(-10, -10), P1: geom.Pt(1, 1)}

	st := roi.ComputeSlice(sh, sl)
	assert.Equal(t, 4, st.Count, "outside pixels clipped away")

	far := roi.Shape{Kind: roi.Rectangle, P0: geom.Pt(100, 100), P1: geom.Pt(200, 200)}
	st = roi.ComputeSlice(far, sl)
	assert.Equal(t, 0, st.Count)
	assert.Equal(t, roi.Stats{Area: roi.Area{}}, st, "fully outside yields zero stats")
}

func TestDegenerateShapes(t *testing.T) {
	sl := gradientSlice(t)

	point := roi.Shape{Kind: roi.Rectangle, P0: geom.Pt(2, 2), P1: geom.Pt(2, 2)}
	assert.Equal(t, 0, roi.ComputeSlice(point, sl).Count)

	line := roi.Shape{Kind: roi.Rectangle, P0: geom.Pt(0, 1), P1: geom.Pt(3, 1)}
	assert.Equal(t, 0, roi.ComputeSlice(line, sl).Count)

	flat := roi.Shape{Kind: roi.Ellipse, P0: geom.Pt(0, 0), P1: geom.Pt(3, 0)}
	assert.Equal(t, 0, roi.ComputeSlice(flat, sl).Count)
}

func TestEllipseCoverageNearsTrueArea(t *testing.T) {
	data := make([]int16, 41*41)
	px, err := series.FromInt16(41, 41, data)
	require.NoError(t, err)
	meta := &series.SliceMeta{Study: "s", Series: "se", Rows: 41, Cols: 41, Bits: 16, Signed: true}
	sl := &series.Slice{Meta: meta, Pixels: px}

	// Circle of radius 10 centered mid-image.
	sh := roi.Shape{Kind: roi.Ellipse, P0: geom.Pt(10, 10), P1: geom.Pt(30, 30)}
	st := roi.ComputeSlice(sh, sl)
	assert.InDelta(t, math.Pi*10*10, float64(st.Count), 10)
}

func TestEllipseStaysInsideBounds(t *testing.T) {
	sh := roi.Shape{Kind: roi.Ellipse, P0: geom.Pt(0, 0), P1: geom.Pt(3, 3)}

	inside := 0
	b := sh.Bounds()
	sh.ForEachPixel(4, 4, func(x, y int) {
		inside++
		assert.True(t, b.Contains(geom.Pt(float64(x), float64(y))))
	})
	assert.Greater(t, inside, 0)
	assert.Less(t, inside, 16, "corners fall outside the ellipse")
}

func TestAreaFormatting(t *testing.T) {
	assert.Equal(t, "7 px", roi.Area{Pixels: 7}.String())
	assert.Equal(t, "1.00 mm2", roi.Area{Pixels: 4, MM2: 1, Physical: true}.String())
	assert.Equal(t, "100.00 mm2", roi.Area{Pixels: 400, MM2: 100, Physical: true}.String())
	assert.Equal(t, "1.25 cm2", roi.Area{Pixels: 500, MM2: 125, Physical: true}.String())
}

func TestPhysicalArea(t *testing.T) {
	sl := gradientSlice(t)
	sl.Meta.SetPixelSpacing(0.5, 0.5)
	sh := roi.Shape{Kind: roi.Rectangle, P0: geom.Pt(0, 0), P1: geom.Pt(1, 1)}

	st := roi.ComputeSlice(sh, sl)
	require.True(t, st.Area.Physical)
	assert.InDelta(t, 1.0, st.Area.MM2, 1e-9, "4 px at 0.25 mm2 each")
}

func TestComputeOverComposite(t *testing.T) {
	a := gradientSlice(t)
	b := gradientSlice(t)
	b.Meta = &series.SliceMeta{
		Study: "s", Series: "se", Instance: 1,
		Modality: "CT", Rows: 4, Cols: 4, Bits: 16, Signed: true,
	}
	c, err := projection.Compose(projection.Maximum, []*series.Slice{a, b})
	require.NoError(t, err)

	sh := roi.Shape{Kind: roi.Rectangle, P0: geom.Pt(0, 0), P1: geom.Pt(1, 1)}
	st := roi.Compute(sh, c, c.Anchor)
	assert.Equal(t, 4, st.Count)
	assert.InDelta(t, 2.5, st.Mean, 1e-9)
}

func TestStore(t *testing.T) {
	st := roi.NewStore()
	k0 := series.Key{Identity: series.Identity{Study: "s", Series: "se"}, Instance: 0}
	k1 := series.Key{Identity: series.Identity{Study: "s", Series: "se"}, Instance: 1}

	sh := roi.Shape{Kind: roi.Rectangle, P0: geom.Pt(0, 0), P1: geom.Pt(1, 1)}
	require.Equal(t, 0, st.Add(k0, sh))
	require.Equal(t, 1, st.Add(k0, sh))
	require.Equal(t, 0, st.Add(k1, sh))

	assert.Len(t, st.At(k0), 2)
	assert.Len(t, st.At(k1), 1)
	assert.Empty(t, st.At(series.Key{Instance: 99}))
	assert.Equal(t, 3, st.Len())

	assert.True(t, st.Remove(k0, 0))
	assert.False(t, st.Remove(k0, 5))
	assert.Len(t, st.At(k0), 1)

	st.ClearSlice(k1)
	assert.Empty(t, st.At(k1))

	st.Add(k1, sh)
	dropped := st.Prune(func(k series.Key) bool { return k == k0 })
	assert.Equal(t, 1, dropped)
	assert.Len(t, st.At(k0), 1)
	assert.Empty(t, st.At(k1))

	st.Clear()
	assert.Equal(t, 0, st.Len())
}
