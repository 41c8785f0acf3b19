// Package projection reduces a contiguous run of slices into one
// composite image by maximum, average or minimum intensity, and turns
// composites back into storable slices.
package projection

import (
	"errors"
	"fmt"

	"github.com/sliceview/sliceview.go/pkg/series"
)

// Mode selects the intensity reduction.
type Mode int

const (
	// None displays the single current slice with no reduction.
	None Mode = iota
	// Maximum keeps the brightest sample across the run (MIP).
	Maximum
	// Average keeps the mean sample across the run (AIP).
	Average
	// Minimum keeps the darkest sample across the run (MinIP).
	Minimum
)

func (m Mode) String() string {
	switch m {
	case Maximum:
		return "MIP"
	case Average:
		return "AIP"
	case Minimum:
		return "MinIP"
	default:
		return ""
	}
}

// AllowedCounts lists the slab sizes the UI offers.
func AllowedCounts() []int { return []int{2, 3, 4, 6, 8} }

// ValidCount reports whether n is an offered slab size.
func ValidCount(n int) bool {
	for _, c := range AllowedCounts() {
		if n == c {
			return true
		}
	}
	return false
}

// Spec is the projection a viewport has dialed in. The zero value
// means plain single-slice display.
type Spec struct {
	Mode  Mode
	Count int
}

// Active reports whether s calls for an actual reduction.
func (s Spec) Active() bool { return s.Mode != None && s.Count >= 2 }

var (
	// ErrTooFewSlices means the clamped window left fewer than two
	// slices to reduce. Callers fall back to single-slice display.
	ErrTooFewSlices = errors.New("projection requires at least two slices")
	// ErrShapeMismatch means the run's buffers disagree in geometry
	// or representation and cannot be reduced sample-by-sample.
	ErrShapeMismatch = errors.New("projection slices disagree in shape")
)

// Composite is the float reduction of a slice run plus the context
// needed to display it or write it back out.
type Composite struct {
	Rows  int
	Cols  int
	Mode  Mode
	Count int

	// Anchor is the metadata of the first slice in the run; display
	// calibration and derived headers start from it.
	Anchor *series.SliceMeta

	Data []float32

	thickness    float64
	hasThickness bool
}

// Compose reduces the run into one composite. mode must name a
// reduction and the run must hold at least two slices of identical
// shape.
func Compose(mode Mode, slices []*series.Slice) (*Composite, error) {
	switch mode {
	case Maximum, Average, Minimum:
	default:
		return nil, fmt.Errorf("projection mode %d is not a reduction", mode)
	}
	if len(slices) < 2 {
		return nil, ErrTooFewSlices
	}
	first := slices[0].Pixels
	if first == nil {
		return nil, fmt.Errorf("%w: slice %d has no buffer", series.ErrPixelAccess, slices[0].Meta.Instance)
	}
	for _, sl := range slices[1:] {
		if sl.Pixels == nil {
			return nil, fmt.Errorf("%w: slice %d has no buffer", series.ErrPixelAccess, sl.Meta.Instance)
		}
		if !first.SameShape(sl.Pixels) {
			return nil, fmt.Errorf("%w: %dx%d vs %dx%d", ErrShapeMismatch,
				first.Cols, first.Rows, sl.Pixels.Cols, sl.Pixels.Rows)
		}
	}

	c := &Composite{
		Rows:   first.Rows,
		Cols:   first.Cols,
		Mode:   mode,
		Count:  len(slices),
		Anchor: slices[0].Meta,
		Data:   make([]float32, first.Len()),
	}

	switch mode {
	case Average:
		acc := make([]float64, first.Len())
		for _, sl := range slices {
			for i := range acc {
				acc[i] += sl.Pixels.ValueAt(i)
			}
		}
		n := float64(len(slices))
		for i, v := range acc {
			c.Data[i] = float32(v / n)
		}
	case Minimum:
		for i := range c.Data {
			c.Data[i] = float32(first.ValueAt(i))
		}
		for _, sl := range slices[1:] {
			for i := range c.Data {
				if v := float32(sl.Pixels.ValueAt(i)); v < c.Data[i] {
					c.Data[i] = v
				}
			}
		}
	case Maximum:
		for i := range c.Data {
			c.Data[i] = float32(first.ValueAt(i))
		}
		for _, sl := range slices[1:] {
			for i := range c.Data {
				if v := float32(sl.Pixels.ValueAt(i)); v > c.Data[i] {
					c.Data[i] = v
				}
			}
		}
	}

	sum := 0.0
	c.hasThickness = true
	for _, sl := range slices {
		th, ok := sl.Meta.SliceThickness()
		if !ok {
			c.hasThickness = false
			break
		}
		sum += th
	}
	if c.hasThickness {
		c.thickness = sum
	}

	return c, nil
}

// Dims returns the composite geometry.
func (c *Composite) Dims() (rows, cols int) { return c.Rows, c.Cols }

// ValueAt returns the i-th composite sample in row-major order.
func (c *Composite) ValueAt(i int) float64 { return float64(c.Data[i]) }

// Len returns the sample count.
func (c *Composite) Len() int { return len(c.Data) }

// MinMax scans the composite for its extreme values.
func (c *Composite) MinMax() (min, max float64) {
	if len(c.Data) == 0 {
		return 0, 0
	}
	min = float64(c.Data[0])
	max = min
	for _, v := range c.Data[1:] {
		f := float64(v)
		if f < min {
			min = f
		}
		if f > max {
			max = f
		}
	}
	return min, max
}

// Thickness returns the summed slab depth of the reduced run, present
// only when every slice in the run carried one.
func (c *Composite) Thickness() (float64, bool) {
	return c.thickness, c.hasThickness
}
