package match

import (
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects scan statistics in a private registry. There is no HTTP
// exposition; the registry is dumped with WriteTextfile for node_exporter's
// textfile collector or inspected in tests.
type Metrics struct {
	registry *prometheus.Registry

	scansTotal     *prometheus.CounterVec
	framesCompared prometheus.Counter
	scanDuration   prometheus.Histogram
	bestScore      prometheus.Histogram
}

// NewMetrics creates the match metrics in a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		scansTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "atlasmatch_scans_total",
				Help: "Total number of match scans",
			},
			[]string{"status"}, // status: matched, empty
		),
		framesCompared: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "atlasmatch_frames_compared_total",
				Help: "Total number of frames normalized and scored",
			},
		),
		scanDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "atlasmatch_scan_duration_seconds",
				Help:    "Duration of a full match scan in seconds",
				Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
		),
		bestScore: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "atlasmatch_best_score",
				Help:    "Mean squared error of the best candidate per scan",
				Buckets: []float64{0, 1, 10, 100, 500, 1000, 5000, 10000, 30000, 65025},
			},
		),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// WriteTextfile writes the current metric values in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

func (m *Metrics) observe(frames int, elapsed time.Duration, best Result) {
	if m == nil {
		return
	}
	status := "matched"
	if !best.Found() {
		status = "empty"
	}
	m.scansTotal.WithLabelValues(status).Inc()
	m.framesCompared.Add(float64(frames))
	m.scanDuration.Observe(elapsed.Seconds())
	if !math.IsInf(best.Score, 0) {
		m.bestScore.Observe(best.Score)
	}
}
