package roi

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/sliceview/sliceview.go/pkg/series"
)

// Source is any sample plane statistics can run over: a stored slice
// buffer or a projection composite.
type Source interface {
	Dims() (rows, cols int)
	ValueAt(i int) float64
}

// Area is the region's size: a physical measurement when pixel
// spacing is known, a bare pixel count otherwise.
type Area struct {
	Pixels   int
	MM2      float64
	Physical bool
}

// String formats the area for the measurement readout, moving to cm2
// once the region grows past 100 mm2.
func (a Area) String() string {
	if !a.Physical {
		return fmt.Sprintf("%d px", a.Pixels)
	}
	if a.MM2 > 100 {
		return fmt.Sprintf("%.2f cm2", a.MM2/100)
	}
	return fmt.Sprintf("%.2f mm2", a.MM2)
}

// Stats summarizes the samples inside one shape. A region covering no
// pixels is all zeros, not an error.
type Stats struct {
	Count  int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
	Area   Area
}

// Compute evaluates a shape against a sample plane. Values pass
// through the calibration mapping when the metadata carries a usable
// one, so a CT region reads in HU; spacing, when present, turns the
// pixel count into a physical area.
func Compute(sh Shape, src Source, meta *series.SliceMeta) Stats {
	return compute(sh, src, meta, true)
}

// ComputeRaw evaluates a shape in stored sample values even when the
// metadata carries a calibration mapping, the readout for a series
// whose window convention is raw.
func ComputeRaw(sh Shape, src Source, meta *series.SliceMeta) Stats {
	return compute(sh, src, meta, false)
}

func compute(sh Shape, src Source, meta *series.SliceMeta, calibrated bool) Stats {
	rows, cols := src.Dims()
	rs, hasRS := meta.Rescale()
	if !calibrated || rs.Slope == 0 {
		hasRS = false
	}

	vals := make([]float64, 0, 64)
	sh.ForEachPixel(rows, cols, func(x, y int) {
		v := src.ValueAt(y*cols + x)
		if hasRS {
			v = rs.Apply(v)
		}
		vals = append(vals, v)
	})

	out := Stats{Count: len(vals), Area: Area{Pixels: len(vals)}}
	if rowSp, colSp, ok := meta.PixelSpacing(); ok {
		out.Area.Physical = true
		out.Area.MM2 = float64(len(vals)) * rowSp * colSp
	}
	if len(vals) == 0 {
		return out
	}

	out.Mean = stat.Mean(vals, nil)
	if len(vals) > 1 {
		out.StdDev = stat.StdDev(vals, nil)
	}
	out.Min = floats.Min(vals)
	out.Max = floats.Max(vals)
	return out
}

// ComputeSlice evaluates a shape against a stored slice.
func ComputeSlice(sh Shape, sl *series.Slice) Stats {
	return Compute(sh, sl.Pixels, sl.Meta)
}
