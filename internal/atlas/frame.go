// Package atlas models the named frames of a texture atlas and parses the
// metadata dialects that describe them.
package atlas

import (
	"fmt"
	"image"
	"strings"

	"golang.org/x/text/cases"
)

// NoName is the name given to frames whose metadata carries none.
const NoName = "(noname)"

// Frame is one named sub-rectangle of the atlas image in atlas pixel coordinates.
// W and H are the logical (upright) dimensions. Rotated means the stored pixels
// are turned 90 degrees clockwise relative to the logical orientation.
type Frame struct {
	Name    string `json:"name" yaml:"name"`
	X       int    `json:"x" yaml:"x"`
	Y       int    `json:"y" yaml:"y"`
	W       int    `json:"w" yaml:"w"`
	H       int    `json:"h" yaml:"h"`
	Rotated bool   `json:"rotated" yaml:"rotated"`
}

// Rect returns the logical rectangle [X, X+W) x [Y, Y+H).
func (f Frame) Rect() image.Rectangle {
	return image.Rect(f.X, f.Y, f.X+f.W, f.Y+f.H)
}

// Contains reports whether the world point lies inside the frame, bounds included.
func (f Frame) Contains(x, y float64) bool {
	return x >= float64(f.X) && x <= float64(f.X+f.W) &&
		y >= float64(f.Y) && y <= float64(f.Y+f.H)
}

// Details renders the one-line summary shown for a selected frame.
func (f Frame) Details() string {
	rot := "no"
	if f.Rotated {
		rot = "yes"
	}
	return fmt.Sprintf("pos: [%d, %d] size: [%d×%d] rotated: %s", f.X, f.Y, f.W, f.H, rot)
}

func (f Frame) String() string {
	return fmt.Sprintf("%s x:%d y:%d w:%d h:%d", f.Name, f.X, f.Y, f.W, f.H)
}

// Collection is the ordered frame list of one atlas. Order is document order and
// names are not deduplicated.
type Collection []Frame

// Valid reports whether idx addresses a frame of the collection.
func (c Collection) Valid(idx int) bool {
	return idx >= 0 && idx < len(c)
}

// FindByName returns the index of the first frame whose name contains query,
// compared with Unicode case folding, or -1.
func (c Collection) FindByName(query string) int {
	if query == "" {
		return -1
	}
	fold := cases.Fold()
	q := fold.String(query)
	for i, f := range c {
		if strings.Contains(fold.String(f.Name), q) {
			return i
		}
	}
	return -1
}

// Names returns the frame names in collection order.
func (c Collection) Names() []string {
	out := make([]string, len(c))
	for i, f := range c {
		out[i] = f.Name
	}
	return out
}
