// Package roi measures regions of interest drawn on a slice:
// rectangles and ellipses spanned by a drag, with summary statistics
// over the samples they cover.
package roi

import (
	"math"

	"github.com/sliceview/sliceview.go/pkg/geom"
)

// Kind selects the shape geometry.
type Kind int

const (
	// Rectangle covers the axis-aligned box between the corners.
	Rectangle Kind = iota
	// Ellipse covers the ellipse inscribed in that box.
	Ellipse
)

func (k Kind) String() string {
	if k == Ellipse {
		return "ellipse"
	}
	return "rectangle"
}

// Shape is one drawn region. P0 and P1 are the opposite corners of
// the drag in image pixel coordinates, in any order.
type Shape struct {
	Kind Kind
	P0   geom.Point
	P1   geom.Point
}

// Bounds returns the normalized box spanned by the drag.
func (s Shape) Bounds() geom.Rect {
	return geom.NewRect(s.P0, s.P1)
}

// ForEachPixel visits every integer pixel covered by the shape,
// clipped to a cols by rows image. A drag with zero extent on either
// axis covers nothing.
func (s Shape) ForEachPixel(rows, cols int, fn func(x, y int)) {
	b := s.Bounds()
	if b.Width() == 0 || b.Height() == 0 {
		return
	}

	x0 := int(math.Ceil(b.Min.X))
	x1 := int(math.Floor(b.Max.X))
	y0 := int(math.Ceil(b.Min.Y))
	y1 := int(math.Floor(b.Max.Y))
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 > cols-1 {
		x1 = cols - 1
	}
	if y1 > rows-1 {
		y1 = rows - 1
	}

	if s.Kind == Rectangle {
		for y := y0; y <= y1; y++ {
			for x := x0; x <= x1; x++ {
				fn(x, y)
			}
		}
		return
	}

	c := b.Center()
	rx := b.Width() / 2
	ry := b.Height() / 2
	for y := y0; y <= y1; y++ {
		dy := (float64(y) - c.Y) / ry
		for x := x0; x <= x1; x++ {
			dx := (float64(x) - c.X) / rx
			if dx*dx+dy*dy <= 1 {
				fn(x, y)
			}
		}
	}
}
