// Package render maps sample planes through a display window into
// 8-bit grayscale frames.
package render

import (
	"image"

	"github.com/sliceview/sliceview.go/pkg/series"
	"github.com/sliceview/sliceview.go/pkg/windowing"
)

// Source is any sample plane the renderer can draw: a stored slice
// buffer or a projection composite.
type Source interface {
	Dims() (rows, cols int)
	ValueAt(i int) float64
}

// Frame renders the source through a window expressed in the source's
// own value space. The mapping follows the standard display function:
// samples at or below center - width/2 go black, samples above
// center + width/2 go white, and the band between ramps linearly.
// inverted flips the ramp for sources that light up low values.
func Frame(src Source, wl windowing.WindowLevel, inverted bool) *image.Gray {
	rows, cols := src.Dims()
	img := image.NewGray(image.Rect(0, 0, cols, rows))

	wl = wl.Floor()
	w := wl.Width - 1.0
	c := wl.Center - 0.5

	for i := 0; i < rows*cols; i++ {
		v := src.ValueAt(i)
		var g float64
		switch {
		case v <= c-0.5*w:
			g = 0
		case v > c+0.5*w:
			g = 255
		default:
			g = ((v-c)/w + 0.5) * 255
		}
		if inverted {
			g = 255 - g
		}
		img.Pix[i] = uint8(g)
	}
	return img
}

// Slice renders a stored slice under its own photometric
// interpretation.
func Slice(sl *series.Slice, wl windowing.WindowLevel) *image.Gray {
	return Frame(sl.Pixels, wl, sl.Meta.Inverted())
}

// Normalized renders the source by stretching its own value range to
// full contrast, the fallback when no window has been chosen for a
// composite. A flat source comes out black.
func Normalized(src Source, inverted bool) *image.Gray {
	rows, cols := src.Dims()
	img := image.NewGray(image.Rect(0, 0, cols, rows))

	min, max := minMax(src, rows*cols)
	if max == min {
		return img
	}
	scale := 255 / (max - min)
	for i := 0; i < rows*cols; i++ {
		g := (src.ValueAt(i) - min) * scale
		if inverted {
			g = 255 - g
		}
		img.Pix[i] = uint8(g)
	}
	return img
}

func minMax(src Source, n int) (min, max float64) {
	if n == 0 {
		return 0, 0
	}
	min = src.ValueAt(0)
	max = min
	for i := 1; i < n; i++ {
		v := src.ValueAt(i)
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}
