package config

import (
	"fmt"
	"image/color"
	"slices"
	"strings"

	"github.com/MeKo-Tech/atlasmatch/internal/match"
	"github.com/MeKo-Tech/atlasmatch/internal/raster"
	"github.com/MeKo-Tech/atlasmatch/internal/render"
)

// Config represents the complete configuration for atlasmatch. It is loaded from
// configuration files, environment variables and command-line flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	Output  OutputConfig  `mapstructure:"output" yaml:"output" json:"output"`
	Match   MatchConfig   `mapstructure:"match" yaml:"match" json:"match"`
	Preview PreviewConfig `mapstructure:"preview" yaml:"preview" json:"preview"`
	Render  RenderConfig  `mapstructure:"render" yaml:"render" json:"render"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format" json:"format"`
	File   string `mapstructure:"file" yaml:"file" json:"file"`
}

// MatchConfig contains matcher settings.
type MatchConfig struct {
	CanonicalSize int    `mapstructure:"canonical_size" yaml:"canonical_size" json:"canonical_size"`
	Top           int    `mapstructure:"top" yaml:"top" json:"top"`
	MetricsFile   string `mapstructure:"metrics_file" yaml:"metrics_file" json:"metrics_file"`
}

// PreviewConfig contains crop preview and thumbnail settings.
type PreviewConfig struct {
	Size          int    `mapstructure:"size" yaml:"size" json:"size"`
	ThumbnailSize int    `mapstructure:"thumbnail_size" yaml:"thumbnail_size" json:"thumbnail_size"`
	Terminal      bool   `mapstructure:"terminal" yaml:"terminal" json:"terminal"`
	Protocol      string `mapstructure:"protocol" yaml:"protocol" json:"protocol"`
}

// RenderConfig contains settings for rendering the atlas view.
type RenderConfig struct {
	Width           int    `mapstructure:"width" yaml:"width" json:"width"`
	Height          int    `mapstructure:"height" yaml:"height" json:"height"`
	OutlineColor    string `mapstructure:"outline_color" yaml:"outline_color" json:"outline_color"`
	SelectedColor   string `mapstructure:"selected_color" yaml:"selected_color" json:"selected_color"`
	BackgroundColor string `mapstructure:"background_color" yaml:"background_color" json:"background_color"`
	Labels          bool   `mapstructure:"labels" yaml:"labels" json:"labels"`
}

// Valid values for enumerated settings.
var (
	LogLevels       = []string{"debug", "info", "warn", "error"}
	OutputFormats   = []string{"text", "json", "yaml", "csv"}
	PreviewProtocol = []string{"auto", "kitty", "iterm", "sixel", "blocks"}
)

// MaxCanonicalSize bounds match.canonical_size.
const MaxCanonicalSize = 1024

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
		Verbose:  false,
		Output: OutputConfig{
			Format: "text",
		},
		Match: MatchConfig{
			CanonicalSize: raster.CanonicalSize,
			Top:           1,
		},
		Preview: PreviewConfig{
			Size:          256,
			ThumbnailSize: 44,
			Terminal:      false,
			Protocol:      "auto",
		},
		Render: RenderConfig{
			Width:           800,
			Height:          600,
			OutlineColor:    "#e5c07b",
			SelectedColor:   "#7aa2f7",
			BackgroundColor: "#00000000",
			Labels:          false,
		},
	}
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	if !slices.Contains(LogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(LogLevels, ", "))
	}

	if c.Output.Format != "" && !slices.Contains(OutputFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)", c.Output.Format, strings.Join(OutputFormats, ", "))
	}

	if c.Match.CanonicalSize <= 0 || c.Match.CanonicalSize > MaxCanonicalSize {
		return fmt.Errorf("invalid match canonical size: %d (must be between 1 and %d)", c.Match.CanonicalSize, MaxCanonicalSize)
	}
	if c.Match.Top <= 0 {
		return fmt.Errorf("invalid match top: %d (must be positive)", c.Match.Top)
	}

	if c.Preview.Size <= 0 {
		return fmt.Errorf("invalid preview size: %d (must be positive)", c.Preview.Size)
	}
	if c.Preview.ThumbnailSize <= 0 {
		return fmt.Errorf("invalid thumbnail size: %d (must be positive)", c.Preview.ThumbnailSize)
	}
	if c.Preview.Protocol != "" && !slices.Contains(PreviewProtocol, c.Preview.Protocol) {
		return fmt.Errorf("invalid preview protocol: %s (must be one of: %s)", c.Preview.Protocol, strings.Join(PreviewProtocol, ", "))
	}

	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		return fmt.Errorf("invalid render size: %dx%d (must be positive)", c.Render.Width, c.Render.Height)
	}
	for _, setting := range []struct{ name, value string }{
		{"render.outline_color", c.Render.OutlineColor},
		{"render.selected_color", c.Render.SelectedColor},
		{"render.background_color", c.Render.BackgroundColor},
	} {
		if _, err := render.ParseHexColor(setting.value); err != nil {
			return fmt.Errorf("invalid %s: %w", setting.name, err)
		}
	}

	return nil
}

// ToMatchConfig converts the config to the matcher configuration.
func (c *Config) ToMatchConfig() match.Config {
	return match.Config{CanonicalSize: c.Match.CanonicalSize}
}

// ToRenderOptions converts the config to view rendering options. Colors that do
// not parse fall back to the defaults.
func (c *Config) ToRenderOptions() render.Options {
	opts := render.DefaultOptions()
	opts.Width = c.Render.Width
	opts.Height = c.Render.Height
	opts.Labels = c.Render.Labels
	opts.Outline = colorOr(c.Render.OutlineColor, opts.Outline)
	opts.Selected = colorOr(c.Render.SelectedColor, opts.Selected)
	opts.Background = colorOr(c.Render.BackgroundColor, opts.Background)
	return opts
}

func colorOr(hex string, fallback color.Color) color.Color {
	c, err := render.ParseHexColor(hex)
	if err != nil {
		return fallback
	}
	return c
}
