// Package geom provides the small set of 2D primitives the view engine
// needs: points, axis-aligned rectangles, and the uniform scale+translate
// transform a slice viewport applies to its scene.
package geom

import "math"

// Point represents a 2D point in either scene or viewport coordinates.
type Point struct {
	X, Y float64
}

// Pt is a convenience function to create a Point.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns the sum of two points (vector addition).
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns the difference of two points (vector subtraction).
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Mul returns the point scaled by a scalar.
func (p Point) Mul(s float64) Point {
	return Point{X: p.X * s, Y: p.Y * s}
}

// Rect represents an axis-aligned rectangle.
// Min is the top-left corner, Max the bottom-right.
type Rect struct {
	Min, Max Point
}

// NewRect creates a rectangle from two points, normalized so Min <= Max.
func NewRect(p1, p2 Point) Rect {
	return Rect{
		Min: Point{X: math.Min(p1.X, p2.X), Y: math.Min(p1.Y, p2.Y)},
		Max: Point{X: math.Max(p1.X, p2.X), Y: math.Max(p1.Y, p2.Y)},
	}
}

// RectXYWH creates a rectangle from an origin and a size.
func RectXYWH(x, y, w, h float64) Rect {
	return NewRect(Point{X: x, Y: y}, Point{X: x + w, Y: y + h})
}

// Width returns the width of the rectangle.
func (r Rect) Width() float64 {
	return r.Max.X - r.Min.X
}

// Height returns the height of the rectangle.
func (r Rect) Height() float64 {
	return r.Max.Y - r.Min.Y
}

// Center returns the midpoint of the rectangle.
func (r Rect) Center() Point {
	return Point{X: (r.Min.X + r.Max.X) / 2, Y: (r.Min.Y + r.Max.Y) / 2}
}

// IsEmpty returns true when the rectangle has no interior.
func (r Rect) IsEmpty() bool {
	return r.Max.X <= r.Min.X || r.Max.Y <= r.Min.Y
}

// Contains returns true if the point is inside the rectangle.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Intersect returns the overlap of r and other. The result may be empty.
func (r Rect) Intersect(other Rect) Rect {
	out := Rect{
		Min: Point{X: math.Max(r.Min.X, other.Min.X), Y: math.Max(r.Min.Y, other.Min.Y)},
		Max: Point{X: math.Min(r.Max.X, other.Max.X), Y: math.Min(r.Max.Y, other.Max.Y)},
	}
	if out.IsEmpty() {
		return Rect{Min: out.Min, Max: out.Min}
	}
	return out
}

// Transform is the viewport transform applied to the scene: a uniform
// scale followed by a translation, both in viewport pixels. Rotation is
// not part of the slice-view model.
//
//	viewport = scene*Scale + (Tx, Ty)
type Transform struct {
	Scale  float64
	Tx, Ty float64
}

// IdentityTransform returns the no-op transform.
func IdentityTransform() Transform {
	return Transform{Scale: 1}
}

// Apply maps a scene point into viewport coordinates.
func (t Transform) Apply(p Point) Point {
	return Point{X: p.X*t.Scale + t.Tx, Y: p.Y*t.Scale + t.Ty}
}

// Invert maps a viewport point back into scene coordinates.
// A degenerate scale maps everything to the untranslated point rather
// than dividing by zero; callers treat that as "no usable transform".
func (t Transform) Invert(p Point) Point {
	if t.Scale == 0 {
		return Point{X: p.X - t.Tx, Y: p.Y - t.Ty}
	}
	return Point{X: (p.X - t.Tx) / t.Scale, Y: (p.Y - t.Ty) / t.Scale}
}

// InvertRect maps a viewport rectangle back into scene coordinates.
func (t Transform) InvertRect(r Rect) Rect {
	return NewRect(t.Invert(r.Min), t.Invert(r.Max))
}

// Translated returns a copy of the transform shifted by (dx, dy) in
// viewport pixels.
func (t Transform) Translated(dx, dy float64) Transform {
	return Transform{Scale: t.Scale, Tx: t.Tx + dx, Ty: t.Ty + dy}
}

// ScaledAbout returns a copy of the transform whose scale is multiplied
// by factor while keeping the given viewport point fixed on screen,
// the usual zoom-under-cursor behavior.
func (t Transform) ScaledAbout(factor float64, pivot Point) Transform {
	if factor == 0 {
		return t
	}
	return Transform{
		Scale: t.Scale * factor,
		Tx:    pivot.X - (pivot.X-t.Tx)*factor,
		Ty:    pivot.Y - (pivot.Y-t.Ty)*factor,
	}
}

// FitRect computes the transform that scales content of size (w, h)
// to fit a viewport of size (vw, vh), centered. A zero-sized content
// or viewport yields the identity transform.
func FitRect(w, h, vw, vh float64) Transform {
	if w <= 0 || h <= 0 || vw <= 0 || vh <= 0 {
		return IdentityTransform()
	}
	scale := math.Min(vw/w, vh/h)
	return Transform{
		Scale: scale,
		Tx:    (vw - w*scale) / 2,
		Ty:    (vh - h*scale) / 2,
	}
}
