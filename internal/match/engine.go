// Package match finds the atlas frame that looks most like a query image by
// comparing canonical rasters pixel by pixel.
package match

import (
	"cmp"
	"image"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/MeKo-Tech/atlasmatch/internal/atlas"
	"github.com/MeKo-Tech/atlasmatch/internal/raster"
)

// Result is a scored candidate. Lower scores are better; Index is -1 when there
// was nothing to compare against.
type Result struct {
	Index int     `json:"index" yaml:"index"`
	Score float64 `json:"score" yaml:"score"`
}

// Found reports whether the result points at a frame.
func (r Result) Found() bool { return r.Index >= 0 }

// Config controls the matcher.
type Config struct {
	// CanonicalSize is the edge length of the square rasters that get compared.
	CanonicalSize int
}

// DefaultConfig returns the 64x64 configuration.
func DefaultConfig() Config {
	return Config{CanonicalSize: raster.CanonicalSize}
}

// Option customizes an Engine.
type Option func(*Engine)

// WithMetrics records every scan in m.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// Engine scores frames against query images.
type Engine struct {
	size    int
	metrics *Metrics
}

// NewEngine creates an engine. A non-positive canonical size falls back to the
// default.
func NewEngine(cfg Config, opts ...Option) *Engine {
	e := &Engine{size: cfg.CanonicalSize}
	if e.size <= 0 {
		e.size = raster.CanonicalSize
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CanonicalSize returns the raster edge length in use.
func (e *Engine) CanonicalSize() int { return e.size }

var defaultEngine = NewEngine(DefaultConfig())

// FindBestMatch runs the default 64x64 engine.
func FindBestMatch(query, atlasImg image.Image, frames atlas.Collection) Result {
	return defaultEngine.FindBestMatch(query, atlasImg, frames)
}

// NormalizeQuery renders the whole query surface into a canonical raster.
// Queries are taken as upright and never rotated.
func (e *Engine) NormalizeQuery(query image.Image) *image.NRGBA {
	return raster.Normalize(query, surfaceRect(query), false, e.size)
}

// FindBestMatch compares the query against every frame and returns the lowest
// scoring one. Every frame is evaluated; on equal scores the lowest index wins.
// An empty collection yields {-1, +Inf}.
func (e *Engine) FindBestMatch(query, atlasImg image.Image, frames atlas.Collection) Result {
	start := time.Now()
	q := e.NormalizeQuery(query)

	best := Result{Index: -1, Score: math.Inf(1)}
	for i, f := range frames {
		s := Score(raster.NormalizeFrame(atlasImg, f, e.size), q)
		if s < best.Score {
			best = Result{Index: i, Score: s}
		}
	}

	elapsed := time.Since(start)
	e.metrics.observe(len(frames), elapsed, best)
	slog.Debug("Match scan finished",
		"frames", len(frames),
		"best_index", best.Index,
		"best_score", best.Score,
		"duration", elapsed,
	)
	return best
}

// Rank scores every frame and returns the n best results ordered by score, ties
// by index. n <= 0 returns all of them.
func (e *Engine) Rank(query, atlasImg image.Image, frames atlas.Collection, n int) []Result {
	start := time.Now()
	q := e.NormalizeQuery(query)

	results := make([]Result, len(frames))
	for i, f := range frames {
		results[i] = Result{Index: i, Score: Score(raster.NormalizeFrame(atlasImg, f, e.size), q)}
	}
	slices.SortStableFunc(results, func(a, b Result) int {
		return cmp.Compare(a.Score, b.Score)
	})

	best := Result{Index: -1, Score: math.Inf(1)}
	if len(results) > 0 {
		best = results[0]
	}
	e.metrics.observe(len(frames), time.Since(start), best)

	if n > 0 && n < len(results) {
		results = results[:n]
	}
	return results
}

// Score is the mean squared RGB error between two equally sized rasters,
// sum(dR²+dG²+dB²) / (pixels*3). Alpha is ignored. Rasters of different sizes
// score +Inf.
func Score(a, b *image.NRGBA) float64 {
	ab, bb := a.Bounds(), b.Bounds()
	w, h := ab.Dx(), ab.Dy()
	if w != bb.Dx() || h != bb.Dy() {
		return math.Inf(1)
	}
	if w == 0 || h == 0 {
		return 0
	}

	var sum float64
	for y := range h {
		ra := a.Pix[y*a.Stride : y*a.Stride+w*4]
		rb := b.Pix[y*b.Stride : y*b.Stride+w*4]
		for p := 0; p < len(ra); p += 4 {
			dr := float64(ra[p]) - float64(rb[p])
			dg := float64(ra[p+1]) - float64(rb[p+1])
			db := float64(ra[p+2]) - float64(rb[p+2])
			sum += dr*dr + dg*dg + db*db
		}
	}
	return sum / float64(w*h*3)
}

func surfaceRect(img image.Image) image.Rectangle {
	if img == nil {
		return image.Rectangle{}
	}
	b := img.Bounds()
	return image.Rect(0, 0, b.Dx(), b.Dy())
}
