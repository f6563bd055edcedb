package atlas

import "image"

// Placement describes where a frame's pixels physically live in the atlas and how
// to turn them upright.
type Placement struct {
	// Source is the stored rectangle in atlas coordinates. For rotated frames the
	// logical width and height are swapped.
	Source image.Rectangle
	// Angle is the counter-clockwise rotation in degrees (0 or 90) that turns the
	// stored pixels into the logical orientation.
	Angle int
}

// Placement maps the frame's logical rectangle and rotation flag to its stored
// source rectangle and the rotation needed to present it upright.
func (f Frame) Placement() Placement {
	if f.Rotated {
		return Placement{
			Source: image.Rect(f.X, f.Y, f.X+f.H, f.Y+f.W),
			Angle:  90,
		}
	}
	return Placement{Source: f.Rect()}
}
