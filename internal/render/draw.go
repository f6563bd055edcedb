package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strconv"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// DashLength is the on/off run length of frame outlines in screen pixels.
const DashLength = 4

// drawRect draws an axis-aligned rectangle outline into dst.
func drawRect(dst draw.Image, rect image.Rectangle, col color.Color, thickness int) {
	if thickness < 1 {
		thickness = 1
	}
	clip := rect.Intersect(dst.Bounds())
	if clip.Empty() {
		return
	}
	for t := range thickness {
		yTop, yBot := rect.Min.Y+t, rect.Max.Y-1-t
		for x := clip.Min.X; x < clip.Max.X; x++ {
			setIn(dst, x, yTop, col)
			setIn(dst, x, yBot, col)
		}
		xLeft, xRight := rect.Min.X+t, rect.Max.X-1-t
		for y := clip.Min.Y; y < clip.Max.Y; y++ {
			setIn(dst, xLeft, y, col)
			setIn(dst, xRight, y, col)
		}
	}
}

// drawDashedRect walks the outline clockwise from the top-left corner and draws
// alternating runs of dash pixels.
func drawDashedRect(dst draw.Image, rect image.Rectangle, col color.Color, dash int) {
	if rect.Empty() || !rect.Overlaps(dst.Bounds()) {
		return
	}
	if dash < 1 {
		dash = 1
	}
	pos := 0
	plot := func(x, y int) {
		if (pos/dash)%2 == 0 {
			setIn(dst, x, y, col)
		}
		pos++
	}

	minX, minY, maxX, maxY := rect.Min.X, rect.Min.Y, rect.Max.X-1, rect.Max.Y-1
	for x := minX; x <= maxX; x++ {
		plot(x, minY)
	}
	for y := minY + 1; y <= maxY; y++ {
		plot(maxX, y)
	}
	if maxY > minY {
		for x := maxX - 1; x >= minX; x-- {
			plot(x, maxY)
		}
	}
	if maxX > minX {
		for y := maxY - 1; y > minY; y-- {
			plot(minX, y)
		}
	}
}

func setIn(dst draw.Image, x, y int, col color.Color) {
	if image.Pt(x, y).In(dst.Bounds()) {
		dst.Set(x, y, col)
	}
}

// drawLabel writes text with its top-left corner at (x, y).
func drawLabel(dst draw.Image, x, y int, text string, col color.Color) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(x, y+face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(text)
}

// labelHeight is the line height of drawLabel.
func labelHeight() int { return basicfont.Face7x13.Metrics().Height.Ceil() }

// ParseHexColor reads #rgb, #rrggbb or #rrggbbaa.
func ParseHexColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: want #rgb, #rrggbb or #rrggbbaa", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
