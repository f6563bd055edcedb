package viewport

import (
	"math"
	"testing"

	"github.com/MeKo-Tech/atlasmatch/internal/atlas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	s := New()
	assert.InDelta(t, 1.0, s.Scale, 0)
	assert.Zero(t, s.OffsetX)
	assert.Zero(t, s.OffsetY)
	assert.Equal(t, -1, s.Selected)
	assert.False(t, s.Panning)
	assert.Nil(t, s.Anchor)
}

func TestTransforms(t *testing.T) {
	s := State{Scale: 2, OffsetX: 10, OffsetY: -5, Selected: -1}

	screen := s.WorldToScreen(Pt(3, 4))
	assert.Equal(t, Pt(16, 3), screen)
	assert.Equal(t, Pt(3, 4), s.ScreenToWorld(screen))
}

func TestZoomAt_KeepsCursorWorldPoint(t *testing.T) {
	s := State{Scale: 1.5, OffsetX: 40, OffsetY: 12, Selected: -1}
	m := Pt(200, 150)

	before := s.ScreenToWorld(m)
	zoomed := s.ZoomAt(m, 1)
	after := zoomed.ScreenToWorld(m)

	assert.InDelta(t, 1.5*1.1, zoomed.Scale, 1e-12)
	assert.InDelta(t, before.X, after.X, 1e-9)
	assert.InDelta(t, before.Y, after.Y, 1e-9)
}

func TestZoomAt_InThenOut(t *testing.T) {
	s := New()
	m := Pt(120, 80)

	back := s.ZoomAt(m, 1).ZoomAt(m, -1)

	// One notch is +10% in and -10% out.
	assert.InDelta(t, 0.99, back.Scale, 1e-12)
	w := back.ScreenToWorld(m)
	assert.InDelta(t, 120, w.X, 1e-9)
	assert.InDelta(t, 80, w.Y, 1e-9)
}

func TestZoomAt_OutOfRangeDirectionIsOneNotch(t *testing.T) {
	s := New()
	assert.InDelta(t, 1.1, s.ZoomAt(Pt(0, 0), 5).Scale, 1e-12)
	assert.InDelta(t, 0.9, s.ZoomAt(Pt(0, 0), -12).Scale, 1e-12)
}

func TestZoomAt_Clamps(t *testing.T) {
	s := State{Scale: MaxScale, Selected: -1}
	assert.InDelta(t, MaxScale, s.ZoomAt(Pt(0, 0), 1).Scale, 0)

	s = State{Scale: MinScale, Selected: -1}
	assert.InDelta(t, MinScale, s.ZoomAt(Pt(0, 0), -1).Scale, 0)

	// Many notches never escape the range.
	s = New()
	for range 100 {
		s = s.ZoomAt(Pt(10, 10), 1)
	}
	assert.InDelta(t, MaxScale, s.Scale, 0)
}

func TestZoomAt_ZeroDirectionIsNoop(t *testing.T) {
	s := State{Scale: 3, OffsetX: 7, OffsetY: 9, Selected: 2}
	got := s.ZoomAt(Pt(50, 60), 0)
	assert.InDelta(t, s.Scale, got.Scale, 0)
	assert.InDelta(t, s.OffsetX, got.OffsetX, 1e-9)
	assert.InDelta(t, s.OffsetY, got.OffsetY, 1e-9)
	assert.Equal(t, 2, got.Selected)
}

func TestZoomAt_LeavesReceiverUntouched(t *testing.T) {
	s := New()
	_ = s.ZoomAt(Pt(5, 5), 1)
	assert.Equal(t, New(), s)
}

func TestPan_Incremental(t *testing.T) {
	s := New().BeginPan(Pt(10, 10))
	require.True(t, s.Panning)

	s = s.PanTo(Pt(15, 12))
	assert.Equal(t, Pt(5, 2), s.Offset())
	require.NotNil(t, s.Anchor)
	assert.Equal(t, Pt(15, 12), *s.Anchor)

	s = s.PanTo(Pt(20, 20))
	assert.Equal(t, Pt(10, 10), s.Offset())

	s = s.EndPan()
	assert.False(t, s.Panning)
	assert.Nil(t, s.Anchor)

	// Moves after the drag ended do nothing.
	assert.Equal(t, Pt(10, 10), s.PanTo(Pt(100, 100)).Offset())
}

func TestPanBy(t *testing.T) {
	s := New().PanBy(Pt(-3, 4)).PanBy(Pt(1, 1))
	assert.Equal(t, Pt(-2, 5), s.Offset())
}

func TestHitTest_TopmostWins(t *testing.T) {
	frames := atlas.Collection{
		{Name: "A", X: 0, Y: 0, W: 10, H: 10},
		{Name: "B", X: 5, Y: 5, W: 10, H: 10},
	}

	assert.Equal(t, 1, HitTest(frames, Pt(7, 7)), "overlap resolves to the highest index")
	assert.Equal(t, 0, HitTest(frames, Pt(2, 2)))
	assert.Equal(t, 1, HitTest(frames, Pt(15, 15)), "far edge is inclusive")
	assert.Equal(t, -1, HitTest(frames, Pt(15.5, 2)))
	assert.Equal(t, -1, HitTest(nil, Pt(0, 0)))
}

func TestSelect_Unvalidated(t *testing.T) {
	s := New().Select(42)
	assert.Equal(t, 42, s.Selected)
	assert.Equal(t, -1, s.Select(-1).Selected)
}

func TestClamp(t *testing.T) {
	assert.InDelta(t, 0.1, clamp(0.01, 0.1, 10), 0)
	assert.InDelta(t, 10.0, clamp(math.Inf(1), 0.1, 10), 0)
	assert.InDelta(t, 2.5, clamp(2.5, 0.1, 10), 0)
}
