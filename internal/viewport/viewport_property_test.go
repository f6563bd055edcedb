package viewport

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func near(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

// TestTransforms_RoundTrip verifies ScreenToWorld inverts WorldToScreen.
func TestTransforms_RoundTrip(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("screenToWorld(worldToScreen(p)) == p", prop.ForAll(
		func(px, py, scale, ox, oy float64) bool {
			s := State{Scale: scale, OffsetX: ox, OffsetY: oy, Selected: -1}
			back := s.ScreenToWorld(s.WorldToScreen(Pt(px, py)))
			return near(back.X, px, 1e-9) && near(back.Y, py, 1e-9)
		},
		gen.Float64Range(-1e4, 1e4),
		gen.Float64Range(-1e4, 1e4),
		gen.Float64Range(MinScale, MaxScale),
		gen.Float64Range(-1e4, 1e4),
		gen.Float64Range(-1e4, 1e4),
	))

	properties.TestingRun(t)
}

// TestZoomAt_CursorInvariant verifies the world point under the cursor does not
// move when zooming.
func TestZoomAt_CursorInvariant(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("zoomAt keeps screenToWorld(m)", prop.ForAll(
		func(mx, my, scale, ox, oy float64, d int) bool {
			s := State{Scale: scale, OffsetX: ox, OffsetY: oy, Selected: -1}
			m := Pt(mx, my)
			before := s.ScreenToWorld(m)
			after := s.ZoomAt(m, d).ScreenToWorld(m)
			return near(before.X, after.X, 1e-9) && near(before.Y, after.Y, 1e-9)
		},
		gen.Float64Range(0, 2000),
		gen.Float64Range(0, 2000),
		gen.Float64Range(MinScale, MaxScale),
		gen.Float64Range(-5000, 5000),
		gen.Float64Range(-5000, 5000),
		gen.IntRange(-1, 1),
	))

	properties.Property("scale stays within bounds", prop.ForAll(
		func(scale float64, d int) bool {
			s := State{Scale: scale, Selected: -1}.ZoomAt(Pt(0, 0), d)
			return s.Scale >= MinScale && s.Scale <= MaxScale
		},
		gen.Float64Range(MinScale, MaxScale),
		gen.IntRange(-1, 1),
	))

	properties.Property("zoom in then out scales by 0.99 around a fixed point", prop.ForAll(
		func(scale, mx, my float64) bool {
			s := State{Scale: scale, Selected: -1}
			m := Pt(mx, my)
			back := s.ZoomAt(m, 1).ZoomAt(m, -1)
			w0, w1 := s.ScreenToWorld(m), back.ScreenToWorld(m)
			return near(back.Scale, s.Scale*0.99, 1e-12) && near(w0.X, w1.X, 1e-9) && near(w0.Y, w1.Y, 1e-9)
		},
		gen.Float64Range(MinScale/(1-ZoomStep), MaxScale/(1+ZoomStep)),
		gen.Float64Range(0, 1000),
		gen.Float64Range(0, 1000),
	))

	properties.TestingRun(t)
}
