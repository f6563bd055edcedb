package termview

import (
	"bytes"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite_Blocks(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 3))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	img.SetNRGBA(0, 1, color.NRGBA{G: 255, A: 255})
	img.SetNRGBA(1, 2, color.NRGBA{B: 255, A: 255})

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, img, Blocks))
	out := buf.String()

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "\x1b[38;2;255;0;0m\x1b[48;2;0;255;0m▀")
	// Top transparent, bottom missing: blank cell.
	assert.Contains(t, lines[0], "\x1b[0m ")
	// Odd last row has no bottom pixel.
	assert.Contains(t, lines[1], "\x1b[38;2;0;0;255m▀")
	assert.True(t, strings.HasSuffix(lines[1], "\x1b[0m"))
}

func TestWrite_Unknown(t *testing.T) {
	err := Write(&bytes.Buffer{}, image.NewNRGBA(image.Rect(0, 0, 1, 1)), "ascii")
	assert.Error(t, err)
}

func TestParseProtocol(t *testing.T) {
	for _, name := range []string{"kitty", "ITerm", " sixel ", "blocks"} {
		p, err := ParseProtocol(name)
		require.NoError(t, err)
		assert.Equal(t, Protocol(strings.ToLower(strings.TrimSpace(name))), p)
	}

	_, err := ParseProtocol("ascii")
	assert.Error(t, err)
}

func TestQuantize(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := range 8 {
		for x := range 8 {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 32), G: uint8(y * 32), B: 128, A: 255})
		}
	}

	p := Quantize(img, 16)
	assert.Equal(t, img.Bounds(), p.Bounds())
	assert.NotEmpty(t, p.Palette)
	assert.LessOrEqual(t, len(p.Palette), 16)
}
