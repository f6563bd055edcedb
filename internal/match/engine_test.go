package match

import (
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MeKo-Tech/atlasmatch/internal/atlas"
	"github.com/MeKo-Tech/atlasmatch/internal/raster"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tile returns a w x h opaque image with a diagonal gradient seeded by c.
func tile(w, h int, c uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetNRGBA(x, y, color.NRGBA{R: c + uint8(x*9), G: c ^ uint8(y*13), B: uint8(x+y) * c, A: 255})
		}
	}
	return img
}

// fixture lays out four distinct tiles on a 64x32 sheet, the last one stored
// rotated.
func fixture() (*image.NRGBA, atlas.Collection, []*image.NRGBA) {
	tiles := []*image.NRGBA{tile(12, 12, 20), tile(8, 16, 90), tile(16, 8, 160), tile(6, 10, 230)}
	sheet := imaging.New(64, 32, color.Transparent)
	sheet = imaging.Paste(sheet, tiles[0], image.Pt(0, 0))
	sheet = imaging.Paste(sheet, tiles[1], image.Pt(14, 0))
	sheet = imaging.Paste(sheet, tiles[2], image.Pt(24, 0))
	sheet = imaging.Paste(sheet, imaging.Rotate270(tiles[3]), image.Pt(42, 0))

	frames := atlas.Collection{
		{Name: "a", X: 0, Y: 0, W: 12, H: 12},
		{Name: "b", X: 14, Y: 0, W: 8, H: 16},
		{Name: "c", X: 24, Y: 0, W: 16, H: 8},
		{Name: "d", X: 42, Y: 0, W: 6, H: 10, Rotated: true},
	}
	return sheet, frames, tiles
}

func TestFindBestMatch_IdenticalQuery(t *testing.T) {
	sheet, frames, tiles := fixture()

	for k, q := range tiles {
		got := FindBestMatch(q, sheet, frames)
		assert.Equal(t, k, got.Index, "tile %d", k)
		assert.InDelta(t, 0, got.Score, 1e-9, "tile %d", k)
	}
}

func TestFindBestMatch_CanonicalQuery(t *testing.T) {
	sheet, frames, _ := fixture()
	e := NewEngine(DefaultConfig())

	// A query that already is the canonical raster of a frame matches it exactly.
	q := raster.NormalizeFrame(sheet, frames[2], e.CanonicalSize())
	got := e.FindBestMatch(q, sheet, frames)
	assert.Equal(t, Result{Index: 2, Score: 0}, got)
}

func TestFindBestMatch_Empty(t *testing.T) {
	sheet, _, tiles := fixture()

	got := FindBestMatch(tiles[0], sheet, nil)
	assert.Equal(t, -1, got.Index)
	assert.True(t, math.IsInf(got.Score, 1))
	assert.False(t, got.Found())
}

func TestFindBestMatch_TieKeepsLowestIndex(t *testing.T) {
	sheet, frames, tiles := fixture()
	dup := atlas.Collection{frames[1], frames[0], frames[0], frames[0]}

	got := FindBestMatch(tiles[0], sheet, dup)
	assert.Equal(t, 1, got.Index)
	assert.Zero(t, got.Score)
}

func TestFindBestMatch_ScaledQuery(t *testing.T) {
	sheet, frames, tiles := fixture()

	// Nearest-neighbor upscaling by an integer factor lands on the same raster.
	q := imaging.Resize(tiles[0], 48, 48, imaging.NearestNeighbor)
	got := FindBestMatch(q, sheet, frames)
	assert.Equal(t, 0, got.Index)
	assert.InDelta(t, 0, got.Score, 1e-9)
}

func TestEngine_Rank(t *testing.T) {
	sheet, frames, tiles := fixture()
	e := NewEngine(Config{CanonicalSize: 32})

	all := e.Rank(tiles[3], sheet, frames, 0)
	require.Len(t, all, len(frames))
	assert.Equal(t, 3, all[0].Index)
	for i := 1; i < len(all); i++ {
		assert.LessOrEqual(t, all[i-1].Score, all[i].Score)
	}

	top := e.Rank(tiles[3], sheet, frames, 2)
	assert.Equal(t, all[:2], top)

	best := e.FindBestMatch(tiles[3], sheet, frames)
	assert.Equal(t, best, top[0])
}

func TestEngine_DefaultSize(t *testing.T) {
	assert.Equal(t, raster.CanonicalSize, NewEngine(Config{}).CanonicalSize())
	assert.Equal(t, 16, NewEngine(Config{CanonicalSize: 16}).CanonicalSize())
}

func TestScore(t *testing.T) {
	black := imaging.New(4, 4, color.NRGBA{A: 255})
	white := imaging.New(4, 4, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	clear := imaging.New(4, 4, color.NRGBA{})

	assert.Equal(t, 0.0, Score(black, black))
	assert.Equal(t, 65025.0, Score(black, white))
	assert.Equal(t, Score(black, white), Score(white, black))
	// Alpha does not count.
	assert.Equal(t, 0.0, Score(black, clear))

	half := imaging.Clone(black)
	half.SetNRGBA(0, 0, color.NRGBA{R: 30, A: 255})
	assert.InDelta(t, 900.0/48.0, Score(black, half), 1e-12)

	assert.True(t, math.IsInf(Score(black, imaging.New(4, 5, color.Black)), 1))
}

func TestMetrics(t *testing.T) {
	sheet, frames, tiles := fixture()
	m := NewMetrics()
	e := NewEngine(DefaultConfig(), WithMetrics(m))

	e.FindBestMatch(tiles[0], sheet, frames)
	e.FindBestMatch(tiles[1], sheet, nil)
	e.Rank(tiles[2], sheet, frames, 1)

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	values := map[string]float64{}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			key := mf.GetName()
			for _, lp := range metric.GetLabel() {
				key += "/" + lp.GetValue()
			}
			switch {
			case metric.GetCounter() != nil:
				values[key] = metric.GetCounter().GetValue()
			case metric.GetHistogram() != nil:
				values[key] = float64(metric.GetHistogram().GetSampleCount())
			}
		}
	}

	assert.Equal(t, 2.0, values["atlasmatch_scans_total/matched"])
	assert.Equal(t, 1.0, values["atlasmatch_scans_total/empty"])
	assert.Equal(t, 8.0, values["atlasmatch_frames_compared_total"])
	assert.Equal(t, 3.0, values["atlasmatch_scan_duration_seconds"])
	assert.Equal(t, 2.0, values["atlasmatch_best_score"])

	path := filepath.Join(t.TempDir(), "match.prom")
	require.NoError(t, m.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "atlasmatch_frames_compared_total 8"))
}
