// Package raster turns arbitrary image regions into fixed-size buffers: the
// canonical rasters compared by the matcher and the previews shown to users.
package raster

import (
	"image"
	"image/color"
	"math"

	"github.com/MeKo-Tech/atlasmatch/internal/atlas"
	"github.com/disintegration/imaging"
)

// CanonicalSize is the edge length of the square buffers used for matching.
const CanonicalSize = 64

// Normalize renders the region r of src into a size x size buffer. See Fit.
func Normalize(src image.Image, r image.Rectangle, rotated bool, size int) *image.NRGBA {
	return Fit(src, r, rotated, size, size)
}

// NormalizeFrame renders an atlas frame upright into a size x size buffer.
func NormalizeFrame(src image.Image, f atlas.Frame, size int) *image.NRGBA {
	return Normalize(src, f.Rect(), f.Rotated, size)
}

// Fit renders the logical region r of src into a width x height buffer.
//
// The region is scaled uniformly so its larger side fits the buffer, centered,
// and sampled with nearest neighbor so every caller gets identical resampling
// artifacts. When rotated is set the stored pixels occupy r with width and height
// swapped and are turned 90 degrees counter-clockwise, which places them upright
// exactly like an unrotated region of the same logical size. Pixels outside the
// drawn area stay fully transparent.
func Fit(src image.Image, r image.Rectangle, rotated bool, width, height int) *image.NRGBA {
	dst := imaging.New(max(width, 0), max(height, 0), color.Transparent)
	w, h := r.Dx(), r.Dy()
	if src == nil || w <= 0 || h <= 0 || width <= 0 || height <= 0 {
		return dst
	}

	g := fitGeometry(w, h, width, height)

	region := extract(src, r, rotated)
	scaled := imaging.Resize(region, g.outW, g.outH, imaging.NearestNeighbor)
	return imaging.Paste(dst, scaled, image.Pt(g.offX, g.offY))
}

// geometry is the placement of a fitted region inside the output buffer.
type geometry struct {
	outW, outH int
	offX, offY int
}

func fitGeometry(w, h, width, height int) geometry {
	scale := math.Min(float64(width)/float64(w), float64(height)/float64(h))
	outW := max(1, int(math.Floor(float64(w)*scale)))
	outH := max(1, int(math.Floor(float64(h)*scale)))
	return geometry{
		outW: outW,
		outH: outH,
		offX: floorDiv(width-outW, 2),
		offY: floorDiv(height-outH, 2),
	}
}

// extract copies the stored pixels of a region onto a transparent canvas of the
// stored size and turns them upright. Parts of the region outside src stay
// transparent, so the canvas always has the region's aspect ratio.
func extract(src image.Image, r image.Rectangle, rotated bool) *image.NRGBA {
	p := atlas.Frame{X: r.Min.X, Y: r.Min.Y, W: r.Dx(), H: r.Dy(), Rotated: rotated}.Placement()
	stored := p.Source.Add(src.Bounds().Min)
	canvas := imaging.New(stored.Dx(), stored.Dy(), color.Transparent)
	if visible := stored.Intersect(src.Bounds()); !visible.Empty() {
		canvas = imaging.Paste(canvas, imaging.Crop(src, visible), visible.Min.Sub(stored.Min))
	}
	if p.Angle == 90 {
		return imaging.Rotate90(canvas)
	}
	return canvas
}

func floorDiv(a, b int) int {
	return int(math.Floor(float64(a) / float64(b)))
}
