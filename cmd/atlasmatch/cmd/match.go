package cmd

import (
	"fmt"
	"image"
	"log/slog"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/atlasmatch/internal/atlas"
	"github.com/MeKo-Tech/atlasmatch/internal/imageio"
	"github.com/MeKo-Tech/atlasmatch/internal/match"
	"github.com/MeKo-Tech/atlasmatch/internal/session"
	"github.com/spf13/cobra"
)

// matchEntry is one ranked candidate.
type matchEntry struct {
	Rank        int     `json:"rank" yaml:"rank"`
	Index       int     `json:"index" yaml:"index"`
	Score       float64 `json:"score" yaml:"score"`
	atlas.Frame `yaml:",inline"`
}

// matchCmd finds the frames that look most like a query image.
var matchCmd = &cobra.Command{
	Use:   "match ATLAS META QUERY_IMAGE",
	Short: "Find the frame that best matches a query image",
	Long: `Compare a query image against every frame of an atlas.

The query and each frame are fitted into a canonical square raster (frames are
turned upright first) and compared by mean squared RGB error. The lowest error
wins; ties go to the frame listed first. Alpha is ignored.

Supported image formats: PNG, JPEG, BMP, WebP, TGA

Examples:
  atlasmatch match atlas.png atlas.json query.png
  atlasmatch match atlas.png atlas.xml query.png --top 5 --format csv
  atlasmatch match atlas.png atlas.json query.png --metrics-file match.prom`,
	Args:         cobra.ExactArgs(3),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolvedConfig()
		if err != nil {
			return err
		}

		sess, metrics := newSession(cfg)
		if err := sess.LoadFiles(args[0], args[1]); err != nil {
			return err
		}
		query, _, err := imageio.LoadImage(args[2])
		if err != nil {
			return err
		}

		results, err := matchResults(sess, query, cfg.Match.Top)
		if err != nil {
			return err
		}

		if metrics != nil {
			if err := metrics.WriteTextfile(cfg.Match.MetricsFile); err != nil {
				return fmt.Errorf("failed to write metrics: %w", err)
			}
			slog.Info("Match metrics written", "path", cfg.Match.MetricsFile)
		}

		return emit(cmd, cfg, matchReport(args[2], sess.Frames(), results))
	},
}

// matchResults returns the best candidate, selecting it in the session, or the
// top n candidates when n > 1.
func matchResults(sess *session.Session, query image.Image, n int) ([]match.Result, error) {
	if n > 1 {
		return sess.Rank(query, n)
	}
	res, err := sess.FindByImage(query)
	if err != nil {
		return nil, err
	}
	if !res.Found() {
		return nil, nil
	}
	return []match.Result{res}, nil
}

func matchReport(queryPath string, frames atlas.Collection, results []match.Result) report {
	entries := make([]matchEntry, 0, len(results))
	rows := make([][]string, 0, len(results))
	var text strings.Builder

	if len(results) == 0 {
		text.WriteString(session.MatchStatus(match.Result{Index: -1}, frames))
	} else {
		text.WriteString(session.MatchStatus(results[0], frames))
		text.WriteByte('\n')
	}
	for i, res := range results {
		f := frames[res.Index]
		entries = append(entries, matchEntry{Rank: i + 1, Index: res.Index, Score: res.Score, Frame: f})
		rows = append(rows, []string{
			strconv.Itoa(i + 1), strconv.Itoa(res.Index), f.Name,
			strconv.FormatFloat(res.Score, 'f', 3, 64),
		})
		fmt.Fprintf(&text, "%d. %s (MSE %.1f)  %s\n", i+1, f.Name, res.Score, f.Details())
	}

	return report{
		text: text.String(),
		value: struct {
			Query   string       `json:"query" yaml:"query"`
			Results []matchEntry `json:"results" yaml:"results"`
		}{queryPath, entries},
		header: []string{"rank", "index", "name", "score"},
		rows:   rows,
	}
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().IntP("top", "n", 1, "number of ranked candidates to report")
	matchCmd.Flags().Int("canonical-size", 64, "side of the square raster images are compared at")
	matchCmd.Flags().String("metrics-file", "", "write Prometheus text-format match metrics to this file")

	bindFlags(matchCmd.Flags().Lookup, []flagBinding{
		{"match.top", "top"},
		{"match.canonical_size", "canonical-size"},
		{"match.metrics_file", "metrics-file"},
	})
}
