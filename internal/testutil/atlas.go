package testutil

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MeKo-Tech/atlasmatch/internal/atlas"
	"github.com/MeKo-Tech/atlasmatch/internal/imageio"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Metadata dialects produced by SyntheticAtlas.Metadata.
const (
	FormatJSONHash        = "json-hash"
	FormatJSONArray       = "json-array"
	FormatJSONFramesArray = "json-frames-array"
	FormatXML             = "xml"
)

// TileSpec describes one sprite of a synthetic atlas. W and H are the upright
// size; Rotated stores the pixels turned 90 degrees clockwise.
type TileSpec struct {
	Name       string
	W, H       int
	Rotated    bool
	Background color.NRGBA
	Label      string
}

// AtlasConfig holds configuration for generating a synthetic atlas.
type AtlasConfig struct {
	Tiles      []TileSpec
	Padding    int
	Background color.NRGBA
}

// DefaultAtlasConfig returns a small atlas with distinct, partly rotated tiles.
func DefaultAtlasConfig() AtlasConfig {
	return AtlasConfig{
		Tiles: []TileSpec{
			{Name: "hero", W: 24, H: 32, Background: color.NRGBA{R: 220, G: 60, B: 60, A: 255}, Label: "H"},
			{Name: "coin", W: 16, H: 16, Background: color.NRGBA{R: 240, G: 200, B: 40, A: 255}, Label: "C"},
			{Name: "enemy_walk_01", W: 32, H: 20, Rotated: true, Background: color.NRGBA{R: 60, G: 160, B: 80, A: 255}, Label: "E"},
			{Name: "heart", W: 14, H: 22, Rotated: true, Background: color.NRGBA{R: 200, G: 40, B: 160, A: 255}, Label: "<3"},
		},
		Padding:    2,
		Background: color.NRGBA{},
	}
}

// SyntheticAtlas is a generated sprite sheet together with its frame layout.
type SyntheticAtlas struct {
	Image  *image.NRGBA
	Frames atlas.Collection
	tiles  map[string]*image.NRGBA
}

// GenerateAtlas packs the configured tiles left to right into one row.
func GenerateAtlas(config AtlasConfig) *SyntheticAtlas {
	type placed struct {
		spec   TileSpec
		stored *image.NRGBA
		x      int
	}

	pad := config.Padding
	x, height := pad, 0
	var layout []placed
	tiles := make(map[string]*image.NRGBA, len(config.Tiles))
	for i, spec := range config.Tiles {
		tile := generateTile(spec, i)
		tiles[spec.Name] = tile
		stored := tile
		if spec.Rotated {
			stored = imaging.Rotate270(tile)
		}
		layout = append(layout, placed{spec: spec, stored: stored, x: x})
		x += stored.Bounds().Dx() + pad
		height = max(height, stored.Bounds().Dy())
	}

	sheet := imaging.New(max(x, 1), height+2*pad, config.Background)
	frames := make(atlas.Collection, 0, len(layout))
	for _, p := range layout {
		sheet = imaging.Paste(sheet, p.stored, image.Pt(p.x, pad))
		frames = append(frames, atlas.Frame{
			Name: p.spec.Name, X: p.x, Y: pad, W: p.spec.W, H: p.spec.H, Rotated: p.spec.Rotated,
		})
	}
	return &SyntheticAtlas{Image: sheet, Frames: frames, tiles: tiles}
}

// generateTile fills an upright tile with its color, a per-tile stripe pattern
// and the label.
func generateTile(spec TileSpec, seed int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, spec.W, spec.H))
	draw.Draw(img, img.Bounds(), &image.Uniform{spec.Background}, image.Point{}, draw.Src)

	stripe := color.NRGBA{R: spec.Background.G, G: spec.Background.B, B: spec.Background.R, A: 255}
	step := seed + 3
	for y := range spec.H {
		for x := range spec.W {
			if (x+2*y)%step == 0 {
				img.SetNRGBA(x, y, stripe)
			}
		}
	}
	// Top-left marker so orientation mistakes are visible.
	for y := range min(3, spec.H) {
		for x := range min(3, spec.W) {
			img.SetNRGBA(x, y, color.NRGBA{A: 255})
		}
	}

	if spec.Label != "" {
		face := basicfont.Face7x13
		drawer := &font.Drawer{Dst: img, Src: image.White, Face: face}
		w := font.MeasureString(face, spec.Label).Ceil()
		h := face.Metrics().Ascent.Ceil()
		drawer.Dot = fixed.P((spec.W-w)/2, (spec.H+h)/2)
		drawer.DrawString(spec.Label)
	}
	return img
}

// Tile returns the upright pixels of a named tile.
func (a *SyntheticAtlas) Tile(name string) *image.NRGBA {
	return a.tiles[name]
}

// Query returns a named tile upscaled by an integer factor with nearest
// neighbor sampling, which normalizes to the same raster as the tile.
func (a *SyntheticAtlas) Query(name string, factor int) *image.NRGBA {
	tile := a.tiles[name]
	if tile == nil || factor <= 1 {
		return tile
	}
	b := tile.Bounds()
	return imaging.Resize(tile, b.Dx()*factor, b.Dy()*factor, imaging.NearestNeighbor)
}

type jsonRect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

func rectOf(f atlas.Frame) jsonRect { return jsonRect{X: f.X, Y: f.Y, W: f.W, H: f.H} }

func (a *SyntheticAtlas) meta(imageName string) map[string]any {
	b := a.Image.Bounds()
	return map[string]any{
		"app":     "atlasmatch-testutil",
		"version": "1.0",
		"image":   imageName,
		"format":  "RGBA8888",
		"size":    map[string]int{"w": b.Dx(), "h": b.Dy()},
		"scale":   "1",
	}
}

// Metadata renders the frame layout in one of the supported dialects.
func (a *SyntheticAtlas) Metadata(format, imageName string) (string, error) {
	switch format {
	case FormatJSONArray:
		type entry struct {
			Name    string `json:"name"`
			X       int    `json:"x"`
			Y       int    `json:"y"`
			W       int    `json:"w"`
			H       int    `json:"h"`
			Rotated bool   `json:"rotated"`
		}
		out := make([]entry, len(a.Frames))
		for i, f := range a.Frames {
			out[i] = entry{Name: f.Name, X: f.X, Y: f.Y, W: f.W, H: f.H, Rotated: f.Rotated}
		}
		return marshal(out)

	case FormatJSONFramesArray:
		type entry struct {
			Filename string   `json:"filename"`
			Frame    jsonRect `json:"frame"`
			Rotated  bool     `json:"rotated"`
		}
		out := make([]entry, len(a.Frames))
		for i, f := range a.Frames {
			out[i] = entry{Filename: f.Name, Frame: rectOf(f), Rotated: f.Rotated}
		}
		return marshal(map[string]any{"frames": out, "meta": a.meta(imageName)})

	case FormatJSONHash:
		// Maps lose key order, so the frames object is assembled by hand.
		var sb strings.Builder
		sb.WriteString(`{"frames":{`)
		for i, f := range a.Frames {
			if i > 0 {
				sb.WriteByte(',')
			}
			key, _ := json.Marshal(f.Name)
			val, _ := json.Marshal(map[string]any{"frame": rectOf(f), "rotated": f.Rotated})
			sb.Write(key)
			sb.WriteByte(':')
			sb.Write(val)
		}
		meta, err := json.Marshal(a.meta(imageName))
		if err != nil {
			return "", err
		}
		sb.WriteString(`},"meta":`)
		sb.Write(meta)
		sb.WriteByte('}')
		return sb.String(), nil

	case FormatXML:
		type subTexture struct {
			Name    string `xml:"name,attr"`
			X       int    `xml:"x,attr"`
			Y       int    `xml:"y,attr"`
			Width   int    `xml:"width,attr"`
			Height  int    `xml:"height,attr"`
			Rotated bool   `xml:"rotated,attr,omitempty"`
		}
		type textureAtlas struct {
			XMLName   xml.Name     `xml:"TextureAtlas"`
			ImagePath string       `xml:"imagePath,attr"`
			Sub       []subTexture `xml:"SubTexture"`
		}
		doc := textureAtlas{ImagePath: imageName}
		for _, f := range a.Frames {
			doc.Sub = append(doc.Sub, subTexture{Name: f.Name, X: f.X, Y: f.Y, Width: f.W, Height: f.H, Rotated: f.Rotated})
		}
		data, err := xml.MarshalIndent(doc, "", "  ")
		if err != nil {
			return "", err
		}
		return xml.Header + string(data), nil
	}
	return "", fmt.Errorf("unknown metadata format %q", format)
}

func marshal(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WriteAtlas saves the sheet as atlas.png and its metadata in dir and returns
// both paths.
func (a *SyntheticAtlas) WriteAtlas(t *testing.T, dir, format string) (string, string) {
	t.Helper()

	imagePath := filepath.Join(dir, "atlas.png")
	require.NoError(t, imageio.SaveImage(imagePath, a.Image), "Failed to write atlas image")

	text, err := a.Metadata(format, "atlas.png")
	require.NoError(t, err)
	ext := ".json"
	if format == FormatXML {
		ext = ".xml"
	}
	metaPath := WriteFile(t, dir, "atlas"+ext, text)
	return imagePath, metaPath
}

// SaveImage writes img to path, creating parent directories.
func SaveImage(t *testing.T, img image.Image, path string) {
	t.Helper()
	require.NoError(t, imageio.SaveImage(path, img), "Failed to save image %s", path)
}
