package series

import (
	"errors"
	"fmt"
	"math"
)

// ErrPixelAccess tags failures to materialize stored pixel samples,
// whether from a corrupt source, an unsupported sample layout, or a
// buffer that disagrees with its declared geometry. Pipelines surface
// it instead of masking the slice as empty.
var ErrPixelAccess = errors.New("pixel data inaccessible")

// PixelBuffer holds one slice's stored samples in row-major order with
// their declared bit depth and signedness. Samples are kept as raw bit
// patterns and sign-extended on read, so a buffer round-trips exactly
// through quantize and persist.
type PixelBuffer struct {
	Rows   int
	Cols   int
	Bits   int
	Signed bool

	samples []uint32
}

// New allocates a zeroed buffer. Bits must be 8, 16 or 32.
func New(rows, cols, bits int, signed bool) (*PixelBuffer, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: geometry %dx%d", ErrPixelAccess, cols, rows)
	}
	switch bits {
	case 8, 16, 32:
	default:
		return nil, fmt.Errorf("%w: unsupported bit depth %d", ErrPixelAccess, bits)
	}
	return &PixelBuffer{
		Rows:    rows,
		Cols:    cols,
		Bits:    bits,
		Signed:  signed,
		samples: make([]uint32, rows*cols),
	}, nil
}

// FromSamples8 wraps 8-bit raw samples in a buffer.
func FromSamples8(rows, cols int, signed bool, data []uint8) (*PixelBuffer, error) {
	b, err := New(rows, cols, 8, signed)
	if err != nil {
		return nil, err
	}
	if len(data) != len(b.samples) {
		return nil, fmt.Errorf("%w: %d samples for %dx%d", ErrPixelAccess, len(data), cols, rows)
	}
	for i, s := range data {
		b.samples[i] = uint32(s)
	}
	return b, nil
}

// FromSamples16 wraps 16-bit raw samples in a buffer. The signed flag
// controls how the bit patterns read back, matching the header's pixel
// representation.
func FromSamples16(rows, cols int, signed bool, data []uint16) (*PixelBuffer, error) {
	b, err := New(rows, cols, 16, signed)
	if err != nil {
		return nil, err
	}
	if len(data) != len(b.samples) {
		return nil, fmt.Errorf("%w: %d samples for %dx%d", ErrPixelAccess, len(data), cols, rows)
	}
	for i, s := range data {
		b.samples[i] = uint32(s)
	}
	return b, nil
}

// FromSamples32 wraps 32-bit raw samples in a buffer.
func FromSamples32(rows, cols int, signed bool, data []uint32) (*PixelBuffer, error) {
	b, err := New(rows, cols, 32, signed)
	if err != nil {
		return nil, err
	}
	if len(data) != len(b.samples) {
		return nil, fmt.Errorf("%w: %d samples for %dx%d", ErrPixelAccess, len(data), cols, rows)
	}
	copy(b.samples, data)
	return b, nil
}

// FromInt16 wraps signed 16-bit values, the common CT case.
func FromInt16(rows, cols int, data []int16) (*PixelBuffer, error) {
	raw := make([]uint16, len(data))
	for i, v := range data {
		raw[i] = uint16(v)
	}
	return FromSamples16(rows, cols, true, raw)
}

// Len returns the sample count.
func (b *PixelBuffer) Len() int { return len(b.samples) }

// Dims returns the buffer geometry.
func (b *PixelBuffer) Dims() (rows, cols int) { return b.Rows, b.Cols }

// ValueAt returns the sign-extended value of the i-th sample in
// row-major order.
func (b *PixelBuffer) ValueAt(i int) float64 {
	s := b.samples[i]
	if !b.Signed {
		return float64(s)
	}
	switch b.Bits {
	case 8:
		return float64(int8(uint8(s)))
	case 16:
		return float64(int16(uint16(s)))
	default:
		return float64(int32(s))
	}
}

// Value returns the sign-extended value at column x, row y.
func (b *PixelBuffer) Value(x, y int) float64 {
	return b.ValueAt(y*b.Cols + x)
}

// SampleBounds returns the lowest and highest values representable at
// the buffer's depth and signedness. Quantization clips to these.
func (b *PixelBuffer) SampleBounds() (lo, hi float64) {
	if b.Signed {
		half := math.Pow(2, float64(b.Bits-1))
		return -half, half - 1
	}
	return 0, math.Pow(2, float64(b.Bits)) - 1
}

// SetValue rounds v to the nearest representable sample, clips it to
// the buffer's range, and stores it at column x, row y.
func (b *PixelBuffer) SetValue(x, y int, v float64) {
	lo, hi := b.SampleBounds()
	v = math.Round(v)
	if v < lo {
		v = lo
	}
	if v > hi {
		v = hi
	}
	var s uint32
	if b.Signed {
		switch b.Bits {
		case 8:
			s = uint32(uint8(int8(v)))
		case 16:
			s = uint32(uint16(int16(v)))
		default:
			s = uint32(int32(v))
		}
	} else {
		s = uint32(v)
	}
	b.samples[y*b.Cols+x] = s
}

// MinMax scans the buffer and returns its extreme values. An empty
// buffer yields (0, 0).
func (b *PixelBuffer) MinMax() (min, max float64) {
	if len(b.samples) == 0 {
		return 0, 0
	}
	min = b.ValueAt(0)
	max = min
	for i := 1; i < len(b.samples); i++ {
		v := b.ValueAt(i)
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

// Float64s copies every sample out as sign-extended values, row-major.
func (b *PixelBuffer) Float64s() []float64 {
	out := make([]float64, len(b.samples))
	for i := range b.samples {
		out[i] = b.ValueAt(i)
	}
	return out
}

// SameShape reports whether two buffers agree in geometry, depth and
// signedness, the precondition for compositing them.
func (b *PixelBuffer) SameShape(o *PixelBuffer) bool {
	return b.Rows == o.Rows && b.Cols == o.Cols && b.Bits == o.Bits && b.Signed == o.Signed
}
