// Package viewport holds the pan, zoom and selection state used to display an
// atlas, together with the coordinate transforms and hit testing built on it.
//
// State is a value. Every transition returns a new State and leaves the receiver
// untouched, so a reload is a single assignment of New().
package viewport

import "github.com/MeKo-Tech/atlasmatch/internal/atlas"

const (
	// MinScale and MaxScale bound the zoom factor.
	MinScale = 0.1
	MaxScale = 10.0
	// ZoomStep is the relative scale change of one wheel notch.
	ZoomStep = 0.1
)

// Point is a 2D coordinate in either world (atlas pixel) or screen space.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }

// State is the viewport: screen = world*Scale + Offset.
type State struct {
	Scale    float64 `json:"scale" yaml:"scale"`
	OffsetX  float64 `json:"offset_x" yaml:"offset_x"`
	OffsetY  float64 `json:"offset_y" yaml:"offset_y"`
	Selected int     `json:"selected" yaml:"selected"`
	Panning  bool    `json:"panning" yaml:"panning"`
	Anchor   *Point  `json:"anchor,omitempty" yaml:"anchor,omitempty"`
}

// New returns the state every freshly loaded atlas starts from.
func New() State {
	return State{Scale: 1, Selected: -1}
}

// Offset returns the translation as a point.
func (s State) Offset() Point { return Point{X: s.OffsetX, Y: s.OffsetY} }

// WorldToScreen maps an atlas coordinate to a screen coordinate.
func (s State) WorldToScreen(p Point) Point {
	return Point{X: p.X*s.Scale + s.OffsetX, Y: p.Y*s.Scale + s.OffsetY}
}

// ScreenToWorld maps a screen coordinate back to an atlas coordinate.
func (s State) ScreenToWorld(p Point) Point {
	return Point{X: (p.X - s.OffsetX) / s.Scale, Y: (p.Y - s.OffsetY) / s.Scale}
}

// ZoomAt changes the scale by one wheel notch in direction d (-1, 0 or +1)
// keeping the world point under the screen point m fixed. Larger magnitudes of d
// count as one notch.
//
// The factor is 1+ZoomStep*d, so a notch in followed by a notch out lands at
// 0.99 of the starting scale, not on it.
func (s State) ZoomAt(m Point, d int) State {
	d = max(-1, min(1, d))
	before := s.ScreenToWorld(m)
	scale := clamp(s.Scale*(1+ZoomStep*float64(d)), MinScale, MaxScale)

	next := s
	next.Scale = scale
	next.OffsetX = m.X - before.X*scale
	next.OffsetY = m.Y - before.Y*scale
	return next
}

// PanBy translates the view by a screen-space delta.
func (s State) PanBy(delta Point) State {
	next := s
	next.OffsetX += delta.X
	next.OffsetY += delta.Y
	return next
}

// BeginPan starts a drag at screen point p.
func (s State) BeginPan(p Point) State {
	next := s
	next.Panning = true
	anchor := p
	next.Anchor = &anchor
	return next
}

// PanTo advances an active drag to p. The offset moves by the distance from the
// previous pointer position, which then becomes the new anchor. Without an
// active drag the state is returned unchanged.
func (s State) PanTo(p Point) State {
	if !s.Panning || s.Anchor == nil {
		return s
	}
	next := s.PanBy(p.Sub(*s.Anchor))
	anchor := p
	next.Anchor = &anchor
	return next
}

// EndPan finishes a drag.
func (s State) EndPan() State {
	next := s
	next.Panning = false
	next.Anchor = nil
	return next
}

// Select sets the selected frame index. The index is not validated; callers pass
// a valid index or -1.
func (s State) Select(idx int) State {
	next := s
	next.Selected = idx
	return next
}

// HitTest returns the index of the topmost frame containing the world point p,
// or -1. Frames later in the collection are drawn above earlier ones, so the
// scan runs from the last frame to the first. Bounds are inclusive.
func HitTest(frames atlas.Collection, p Point) int {
	for i := len(frames) - 1; i >= 0; i-- {
		if frames[i].Contains(p.X, p.Y) {
			return i
		}
	}
	return -1
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
