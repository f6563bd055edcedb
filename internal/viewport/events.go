package viewport

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/atlasmatch/internal/atlas"
)

// Event is an input that drives the viewport state machine.
type Event interface {
	isEvent()
}

// Wheel is a scroll at screen point At. A negative DeltaY zooms in.
type Wheel struct {
	At     Point
	DeltaY float64
}

// PointerDown starts a drag.
type PointerDown struct{ At Point }

// PointerMove moves the pointer; it pans only while a drag is active.
type PointerMove struct{ At Point }

// PointerUp ends a drag.
type PointerUp struct{}

// Click selects the topmost frame under the screen point At, if any.
type Click struct{ At Point }

// SelectIndex selects a frame by index, e.g. from a list or a search result.
type SelectIndex struct{ Index int }

func (Wheel) isEvent()       {}
func (PointerDown) isEvent() {}
func (PointerMove) isEvent() {}
func (PointerUp) isEvent()   {}
func (Click) isEvent()       {}
func (SelectIndex) isEvent() {}

// Apply computes the state that follows s after event e. frames is the loaded
// collection used for click hit testing.
func Apply(s State, frames atlas.Collection, e Event) State {
	switch ev := e.(type) {
	case Wheel:
		return s.ZoomAt(ev.At, wheelDirection(ev.DeltaY))
	case PointerDown:
		return s.BeginPan(ev.At)
	case PointerMove:
		return s.PanTo(ev.At)
	case PointerUp:
		return s.EndPan()
	case Click:
		if idx := HitTest(frames, s.ScreenToWorld(ev.At)); idx >= 0 {
			return s.Select(idx)
		}
		return s
	case SelectIndex:
		return s.Select(ev.Index)
	}
	return s
}

// Replay applies events in order starting from s.
func Replay(s State, frames atlas.Collection, events []Event) State {
	for _, e := range events {
		s = Apply(s, frames, e)
	}
	return s
}

func wheelDirection(deltaY float64) int {
	switch {
	case deltaY < 0:
		return 1
	case deltaY > 0:
		return -1
	}
	return 0
}

// ParseEvent reads the textual event form used on the command line:
//
//	wheel:X,Y,DELTA   down:X,Y   move:X,Y   up   click:X,Y   select:INDEX
func ParseEvent(s string) (Event, error) {
	kind, args, _ := strings.Cut(strings.TrimSpace(s), ":")
	nums, err := parseNumbers(args)
	if err != nil {
		return nil, fmt.Errorf("event %q: %w", s, err)
	}

	want := map[string]int{"wheel": 3, "down": 2, "move": 2, "up": 0, "click": 2, "select": 1}
	n, ok := want[strings.ToLower(kind)]
	if !ok {
		return nil, fmt.Errorf("event %q: unknown kind %q", s, kind)
	}
	if len(nums) != n {
		return nil, fmt.Errorf("event %q: expected %d values, got %d", s, n, len(nums))
	}

	switch strings.ToLower(kind) {
	case "wheel":
		return Wheel{At: Pt(nums[0], nums[1]), DeltaY: nums[2]}, nil
	case "down":
		return PointerDown{At: Pt(nums[0], nums[1])}, nil
	case "move":
		return PointerMove{At: Pt(nums[0], nums[1])}, nil
	case "up":
		return PointerUp{}, nil
	case "click":
		return Click{At: Pt(nums[0], nums[1])}, nil
	default:
		return SelectIndex{Index: int(nums[0])}, nil
	}
}

// ParseEvents parses a list of textual events.
func ParseEvents(specs []string) ([]Event, error) {
	out := make([]Event, 0, len(specs))
	for _, s := range specs {
		e, err := ParseEvent(s)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func parseNumbers(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", p)
		}
		out[i] = v
	}
	return out, nil
}
