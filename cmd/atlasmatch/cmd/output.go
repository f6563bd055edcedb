package cmd

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"image"
	"os"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/atlasmatch/internal/atlas"
	"github.com/MeKo-Tech/atlasmatch/internal/config"
	"github.com/MeKo-Tech/atlasmatch/internal/match"
	"github.com/MeKo-Tech/atlasmatch/internal/session"
	"github.com/MeKo-Tech/atlasmatch/internal/termview"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	outputFormatText = "text"
	outputFormatJSON = "json"
	outputFormatYAML = "yaml"
	outputFormatCSV  = "csv"
)

type flagBinding struct {
	key  string
	flag string
}

func bindFlags(lookup func(string) *pflag.Flag, bindings []flagBinding) {
	for _, binding := range bindings {
		if err := viper.BindPFlag(binding.key, lookup(binding.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", binding.flag, err))
		}
	}
}

// resolvedConfig returns the configuration including command-line flags and
// rejects values a flag may have made invalid.
func resolvedConfig() (*config.Config, error) {
	cfg := GetConfig()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newSession builds a session whose matcher follows cfg. Metrics are only
// collected when a metrics file is configured.
func newSession(cfg *config.Config) (*session.Session, *match.Metrics) {
	var (
		opts    []match.Option
		metrics *match.Metrics
	)
	if cfg.Match.MetricsFile != "" {
		metrics = match.NewMetrics()
		opts = append(opts, match.WithMetrics(metrics))
	}
	return session.New(match.NewEngine(cfg.ToMatchConfig(), opts...)), metrics
}

// report is the result of a command in every output format: text for people,
// value for json and yaml, header and rows for csv.
type report struct {
	text   string
	value  any
	header []string
	rows   [][]string
}

func (r report) render(format string) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case outputFormatJSON:
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r.value); err != nil {
			return nil, fmt.Errorf("failed to marshal JSON: %w", err)
		}
	case outputFormatYAML:
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(r.value); err != nil {
			return nil, fmt.Errorf("failed to marshal YAML: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("failed to marshal YAML: %w", err)
		}
	case outputFormatCSV:
		if r.header == nil {
			return nil, fmt.Errorf("output format %s is not available for this command", format)
		}
		w := csv.NewWriter(&buf)
		if err := w.Write(r.header); err != nil {
			return nil, fmt.Errorf("format csv failed: %w", err)
		}
		if err := w.WriteAll(r.rows); err != nil {
			return nil, fmt.Errorf("format csv failed: %w", err)
		}
	default:
		buf.WriteString(r.text)
		if !strings.HasSuffix(r.text, "\n") {
			buf.WriteByte('\n')
		}
	}
	return buf.Bytes(), nil
}

// emit prints r in the configured format, or writes it to the configured file.
func emit(cmd *cobra.Command, cfg *config.Config, r report) error {
	data, err := r.render(cfg.Output.Format)
	if err != nil {
		return err
	}
	if cfg.Output.File != "" {
		if err := os.WriteFile(cfg.Output.File, data, 0o600); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Results written to %s\n", cfg.Output.File); err != nil {
			return fmt.Errorf("failed to write to stdout: %w", err)
		}
		return nil
	}
	if _, err := cmd.OutOrStdout().Write(data); err != nil {
		return fmt.Errorf("failed to write final output: %w", err)
	}
	return nil
}

// frameEntry is a frame together with its collection index.
type frameEntry struct {
	Index       int `json:"index" yaml:"index"`
	atlas.Frame `yaml:",inline"`
}

func frameEntries(frames atlas.Collection) []frameEntry {
	out := make([]frameEntry, len(frames))
	for i, f := range frames {
		out[i] = frameEntry{Index: i, Frame: f}
	}
	return out
}

var frameHeader = []string{"index", "name", "x", "y", "w", "h", "rotated"}

func frameRow(i int, f atlas.Frame) []string {
	return []string{
		strconv.Itoa(i), f.Name,
		strconv.Itoa(f.X), strconv.Itoa(f.Y), strconv.Itoa(f.W), strconv.Itoa(f.H),
		strconv.FormatBool(f.Rotated),
	}
}

func frameLine(i int, f atlas.Frame) string {
	return fmt.Sprintf("%d: %s  %s", i, f.Name, f.Details())
}

// showInTerminal prints img with the configured terminal protocol.
func showInTerminal(cmd *cobra.Command, cfg *config.Config, img image.Image) error {
	p, err := termview.ParseProtocol(cfg.Preview.Protocol)
	if err != nil {
		return err
	}
	if err := termview.Write(cmd.OutOrStdout(), img, p); err != nil {
		return fmt.Errorf("failed to print image: %w", err)
	}
	return nil
}
