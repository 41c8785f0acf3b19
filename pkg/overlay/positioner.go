package overlay

import (
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/sliceview/sliceview.go/pkg/geom"
)

// Corner anchors an overlay block to one viewport corner.
type Corner int

const (
	TopLeft Corner = iota
	TopRight
	BottomLeft
	BottomRight
)

// Corners lists the anchors in layout order.
var Corners = [4]Corner{TopLeft, TopRight, BottomLeft, BottomRight}

func (c Corner) String() string {
	switch c {
	case TopLeft:
		return "top-left"
	case TopRight:
		return "top-right"
	case BottomLeft:
		return "bottom-left"
	default:
		return "bottom-right"
	}
}

func (c Corner) right() bool { return c == TopRight || c == BottomRight }

func (c Corner) bottom() bool { return c == BottomLeft || c == BottomRight }

// Item is one retained overlay line. Pos is the scene location of the
// text's top-left anchor; because overlay text keeps a fixed screen
// size, Pos must be recomputed whenever the view transform moves.
type Item struct {
	ID     int
	Corner Corner
	Text   string
	Pos    geom.Point
}

// Scene retains positioned items the way a canvas layer would: items
// by id plus per-corner draw lists. Items can disappear underneath the
// positioner via Delete; Position detects the dangling reference and
// rebuilds the corner.
type Scene struct {
	items   map[int]*Item
	corners map[Corner][]int
	nextID  int
}

// NewScene returns an empty overlay scene.
func NewScene() *Scene {
	return &Scene{
		items:   make(map[int]*Item),
		corners: make(map[Corner][]int),
	}
}

// Get returns the item with the given id, nil when it is gone.
func (s *Scene) Get(id int) *Item { return s.items[id] }

// Items returns a corner's live items in draw order.
func (s *Scene) Items(c Corner) []*Item {
	ids := s.corners[c]
	out := make([]*Item, 0, len(ids))
	for _, id := range ids {
		if it, ok := s.items[id]; ok {
			out = append(out, it)
		}
	}
	return out
}

// Len counts live items across all corners.
func (s *Scene) Len() int { return len(s.items) }

// Delete removes an item outright, leaving any corner reference to it
// dangling until the next Position pass.
func (s *Scene) Delete(id int) { delete(s.items, id) }

func (s *Scene) add(c Corner, text string) *Item {
	s.nextID++
	it := &Item{ID: s.nextID, Corner: c, Text: text}
	s.items[it.ID] = it
	s.corners[c] = append(s.corners[c], it.ID)
	return it
}

func (s *Scene) clearCorner(c Corner) {
	for _, id := range s.corners[c] {
		delete(s.items, id)
	}
	delete(s.corners, c)
}

// intact reports whether every id in the corner list still resolves.
func (s *Scene) intact(c Corner) bool {
	for _, id := range s.corners[c] {
		if _, ok := s.items[id]; !ok {
			return false
		}
	}
	return true
}

// Positioner computes scene positions for corner-anchored text whose
// size is fixed in screen pixels. Layout happens in screen space and
// maps into the scene through the inverse view transform, so line
// spacing and margins shrink as the scene zooms in.
type Positioner struct {
	face    font.Face
	margin  float64
	spacing float64

	viewW float64
	viewH float64

	maxWidth   [4]int
	contentKey [4]string
}

// NewPositioner builds a positioner from the overlay config, using the
// fixed 7x13 bitmap face for measurement.
func NewPositioner(cfg *Config) *Positioner {
	return &Positioner{
		face:    basicfont.Face7x13,
		margin:  cfg.Margin,
		spacing: cfg.SpacingFactor,
	}
}

// LineHeight returns the screen-pixel advance between stacked lines,
// the font height compressed by the spacing factor.
func (p *Positioner) LineHeight() float64 {
	return float64(p.face.Metrics().Height.Ceil()) * p.spacing
}

// MeasureText returns the rendered width of one line in screen pixels.
func (p *Positioner) MeasureText(s string) int {
	return font.MeasureString(p.face, s).Ceil()
}

// SetViewport records the viewport size. A size change invalidates
// every width cache since right-edge anchors moved.
func (p *Positioner) SetViewport(w, h float64) {
	if w == p.viewW && h == p.viewH {
		return
	}
	p.viewW, p.viewH = w, h
	p.ResetWidths()
}

// ResetWidths clears all cached corner widths.
func (p *Positioner) ResetWidths() {
	p.maxWidth = [4]int{}
}

// CachedWidth exposes a corner's current width cache.
func (p *Positioner) CachedWidth(c Corner) int { return p.maxWidth[c] }

// Position lays out one corner's lines into the scene under the given
// view transform. Items are moved in place when the corner still holds
// the same number of live items; otherwise the corner is rebuilt.
//
// contentKey fingerprints the corner's field set. Right-aligned
// corners anchor on the widest line seen for the current key, growing
// only, so a cine run flipping between "Slice 9/240" and "Slice
// 10/240" does not shiver the block left and right each frame. The
// cache drops only when the key or the viewport changes.
func (p *Positioner) Position(sc *Scene, c Corner, contentKey string, lines []string, tr geom.Transform) []*Item {
	if p.contentKey[c] != contentKey {
		p.contentKey[c] = contentKey
		p.maxWidth[c] = 0
	}
	for _, line := range lines {
		if w := p.MeasureText(line); w > p.maxWidth[c] {
			p.maxWidth[c] = w
		}
	}

	items := sc.Items(c)
	if !sc.intact(c) || len(items) != len(lines) {
		sc.clearCorner(c)
		items = items[:0]
		for _, line := range lines {
			items = append(items, sc.add(c, line))
		}
	}

	lineH := p.LineHeight()
	blockH := lineH * float64(len(lines))
	var sx float64
	if c.right() {
		sx = p.viewW - p.margin - float64(p.maxWidth[c])
	} else {
		sx = p.margin
	}
	for i, it := range items {
		var sy float64
		if c.bottom() {
			sy = p.viewH - p.margin - blockH + float64(i)*lineH
		} else {
			sy = p.margin + float64(i)*lineH
		}
		it.Text = lines[i]
		it.Pos = tr.Invert(geom.Pt(sx, sy))
	}
	return items
}
