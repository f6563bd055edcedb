// Package render draws the atlas through a viewport and produces frame previews.
package render

import (
	"image"
	"image/color"
	"math"

	"github.com/MeKo-Tech/atlasmatch/internal/atlas"
	"github.com/MeKo-Tech/atlasmatch/internal/raster"
	"github.com/MeKo-Tech/atlasmatch/internal/viewport"
	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Options configures View.
type Options struct {
	Width, Height int
	Outline       color.Color
	Selected      color.Color
	Background    color.Color
	Labels        bool
}

// DefaultOptions returns an 800x600 canvas with the stock outline colors.
func DefaultOptions() Options {
	return Options{
		Width:      800,
		Height:     600,
		Outline:    color.NRGBA{R: 0xe5, G: 0xc0, B: 0x7b, A: 0xff},
		Selected:   color.NRGBA{R: 0x7a, G: 0xa2, B: 0xf7, A: 0xff},
		Background: color.Transparent,
	}
}

// View renders the atlas under the viewport transform screen = world*scale +
// offset. Every frame gets a dashed outline one screen pixel wide; the selected
// frame is drawn last, solid and two pixels wide.
func View(atlasImg image.Image, frames atlas.Collection, vs viewport.State, opts Options) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, max(opts.Width, 1), max(opts.Height, 1)))
	if opts.Background != nil {
		xdraw.Draw(dst, dst.Bounds(), image.NewUniform(opts.Background), image.Point{}, xdraw.Src)
	}

	if atlasImg != nil {
		b := atlasImg.Bounds()
		s2d := f64.Aff3{
			vs.Scale, 0, vs.OffsetX - vs.Scale*float64(b.Min.X),
			0, vs.Scale, vs.OffsetY - vs.Scale*float64(b.Min.Y),
		}
		xdraw.NearestNeighbor.Transform(dst, s2d, atlasImg, b, xdraw.Over, nil)
	}

	outline := opts.Outline
	if outline == nil {
		outline = DefaultOptions().Outline
	}
	for _, f := range frames {
		r := ScreenRect(vs, f)
		drawDashedRect(dst, r, outline, DashLength)
		if opts.Labels {
			drawLabel(dst, r.Min.X, r.Min.Y-labelHeight(), f.Name, outline)
		}
	}

	if frames.Valid(vs.Selected) {
		sel := opts.Selected
		if sel == nil {
			sel = DefaultOptions().Selected
		}
		drawRect(dst, ScreenRect(vs, frames[vs.Selected]), sel, 2)
	}
	return dst
}

// ScreenRect is the pixel rectangle a frame covers on screen.
func ScreenRect(vs viewport.State, f atlas.Frame) image.Rectangle {
	p0 := vs.WorldToScreen(viewport.Pt(float64(f.X), float64(f.Y)))
	p1 := vs.WorldToScreen(viewport.Pt(float64(f.X+f.W), float64(f.Y+f.H)))
	return image.Rect(
		int(math.Round(p0.X)), int(math.Round(p0.Y)),
		int(math.Round(p1.X)), int(math.Round(p1.Y)),
	)
}

// Preview renders a frame upright, fitted into a size x size square.
func Preview(atlasImg image.Image, f atlas.Frame, size int) *image.NRGBA {
	return raster.Fit(atlasImg, f.Rect(), f.Rotated, size, size)
}

// ContactSheet lays out a thumbnail of every frame on a grid, optionally with
// the frame name under each cell.
func ContactSheet(atlasImg image.Image, frames atlas.Collection, thumb, columns int, labels bool, bg color.Color) *image.NRGBA {
	const gap = 4
	if columns <= 0 {
		columns = int(math.Ceil(math.Sqrt(float64(len(frames)))))
	}
	columns = max(1, min(columns, len(frames)))
	rows := (len(frames) + columns - 1) / columns

	cellW, cellH := thumb+gap, thumb+gap
	if labels {
		cellH += labelHeight()
	}
	if bg == nil {
		bg = color.Transparent
	}
	sheet := imaging.New(max(1, columns*cellW+gap), max(1, rows*cellH+gap), bg)

	for i, f := range frames {
		x := gap + (i%columns)*cellW
		y := gap + (i/columns)*cellH
		sheet = imaging.Paste(sheet, Preview(atlasImg, f, thumb), image.Pt(x, y))
		if labels {
			drawLabel(sheet, x, y+thumb, clipName(f.Name, thumb), color.White)
		}
	}
	return sheet
}

// clipName shortens a name to what fits in width pixels of the label font.
func clipName(name string, width int) string {
	limit := max(1, width/7)
	r := []rune(name)
	if len(r) <= limit {
		return name
	}
	return string(r[:limit])
}
