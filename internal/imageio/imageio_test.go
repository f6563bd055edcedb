package imageio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func checker(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			c := color.NRGBA{R: 250, G: 20, B: 40, A: 255}
			if (x+y)%2 == 1 {
				c = color.NRGBA{R: 10, G: 200, B: 90, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func assertSamePixels(t *testing.T, want image.Image, got image.Image) {
	t.Helper()
	require.Equal(t, want.Bounds().Size(), got.Bounds().Size())
	wb, gb := want.Bounds(), got.Bounds()
	for y := range wb.Dy() {
		for x := range wb.Dx() {
			w := color.NRGBAModel.Convert(want.At(wb.Min.X+x, wb.Min.Y+y))
			g := color.NRGBAModel.Convert(got.At(gb.Min.X+x, gb.Min.Y+y))
			require.Equal(t, w, g, "pixel (%d,%d)", x, y)
		}
	}
}

// tgaBytes builds an uncompressed 32-bit top-left origin TGA file.
func tgaBytes(img *image.NRGBA) []byte {
	b := img.Bounds()
	var buf bytes.Buffer
	header := make([]byte, 18)
	header[2] = 2 // uncompressed true color
	binary.LittleEndian.PutUint16(header[12:], uint16(b.Dx()))
	binary.LittleEndian.PutUint16(header[14:], uint16(b.Dy()))
	header[16] = 32
	header[17] = 0x28
	buf.Write(header)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.NRGBAAt(x, y)
			buf.Write([]byte{c.B, c.G, c.R, c.A})
		}
	}
	return buf.Bytes()
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	src := checker(6, 4)
	dir := t.TempDir()

	for _, ext := range []string{".png", ".webp"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(dir, "out", "img"+ext)
			require.NoError(t, SaveImage(path, src))

			img, meta, err := LoadImage(path)
			require.NoError(t, err)
			assert.Equal(t, 6, meta.Width)
			assert.Equal(t, 4, meta.Height)
			assert.Positive(t, meta.SizeBytes)
			assertSamePixels(t, src, img)
		})
	}

	t.Run(".jpg", func(t *testing.T) {
		path := filepath.Join(dir, "img.jpg")
		require.NoError(t, SaveImage(path, src))
		_, meta, err := LoadImage(path)
		require.NoError(t, err)
		assert.Equal(t, "jpeg", meta.Format)
		assert.Equal(t, 6, meta.Width)
	})
}

func TestLoadImage_BMP(t *testing.T) {
	src := checker(5, 3)
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, src))
	path := filepath.Join(t.TempDir(), "atlas.BMP")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	img, meta, err := LoadImage(path)
	require.NoError(t, err)
	assert.Equal(t, "bmp", meta.Format)
	assertSamePixels(t, src, img)
}

func TestLoadImage_TGA(t *testing.T) {
	src := checker(4, 3)
	src.SetNRGBA(0, 0, color.NRGBA{R: 1, G: 2, B: 3, A: 255})
	path := filepath.Join(t.TempDir(), "atlas.tga")
	require.NoError(t, os.WriteFile(path, tgaBytes(src), 0o600))

	img, meta, err := LoadImage(path)
	require.NoError(t, err)
	assert.Equal(t, "tga", meta.Format)
	assertSamePixels(t, src, img)
}

func TestLoadImage_Errors(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "broken.png")
	require.NoError(t, os.WriteFile(garbage, []byte("not a png"), 0o600))

	for name, path := range map[string]string{
		"empty path":  "",
		"unsupported": filepath.Join(dir, "atlas.gif"),
		"missing":     filepath.Join(dir, "missing.png"),
		"corrupt":     garbage,
	} {
		t.Run(name, func(t *testing.T) {
			_, _, err := LoadImage(path)
			var de *DecodeError
			require.True(t, errors.As(err, &de), "got %v", err)
			assert.Equal(t, path, de.Path)
			assert.Contains(t, err.Error(), "failed to decode image")
		})
	}
}

func TestSaveImage_Unsupported(t *testing.T) {
	err := SaveImage(filepath.Join(t.TempDir(), "out.tiff"), checker(2, 2))
	assert.ErrorContains(t, err, "unsupported output format")

	assert.Error(t, Encode(&bytes.Buffer{}, checker(2, 2), "gif"))
}

func TestIsSupportedImage(t *testing.T) {
	assert.True(t, IsSupportedImage("a/b/sheet.PNG"))
	assert.True(t, IsSupportedImage("sheet.tga"))
	assert.True(t, IsSupportedImage("sheet.webp"))
	assert.False(t, IsSupportedImage("sheet.json"))
	assert.False(t, IsSupportedImage("sheet"))
}

func TestReadText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "atlas.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"x":1}]`), 0o600))

	text, err := ReadText(path)
	require.NoError(t, err)
	assert.Equal(t, `[{"x":1}]`, text)

	_, err = ReadText(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorContains(t, err, "failed to read metadata")
}
