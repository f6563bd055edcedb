package config

import (
	"image/color"
	"strings"
	"testing"
)

const (
	infoLevel  = "info"
	debugLevel = "debug"
)

// TestDefaultConfig tests the default configuration values.
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.LogLevel != infoLevel {
		t.Errorf("Expected log level '%s', got %s", infoLevel, cfg.LogLevel)
	}
	if cfg.Verbose {
		t.Error("Expected verbose to be false")
	}
	if cfg.Output.Format != "text" {
		t.Errorf("Expected output format 'text', got %s", cfg.Output.Format)
	}
	if cfg.Match.CanonicalSize != 64 {
		t.Errorf("Expected canonical size 64, got %d", cfg.Match.CanonicalSize)
	}
	if cfg.Match.Top != 1 {
		t.Errorf("Expected top 1, got %d", cfg.Match.Top)
	}
	if cfg.Preview.Size != 256 || cfg.Preview.ThumbnailSize != 44 {
		t.Errorf("Expected preview 256/44, got %d/%d", cfg.Preview.Size, cfg.Preview.ThumbnailSize)
	}
	if cfg.Render.Width != 800 || cfg.Render.Height != 600 {
		t.Errorf("Expected render size 800x600, got %dx%d", cfg.Render.Width, cfg.Render.Height)
	}
	if cfg.Render.OutlineColor != "#e5c07b" {
		t.Errorf("Expected outline color #e5c07b, got %s", cfg.Render.OutlineColor)
	}
	if cfg.Render.SelectedColor != "#7aa2f7" {
		t.Errorf("Expected selected color #7aa2f7, got %s", cfg.Render.SelectedColor)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should be valid, got %v", err)
	}
}

// TestValidate tests the validation rules one setting at a time.
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"valid default", func(*Config) {}, ""},
		{"debug level", func(c *Config) { c.LogLevel = debugLevel }, ""},
		{"invalid log level", func(c *Config) { c.LogLevel = "trace" }, "invalid log level"},
		{"yaml output", func(c *Config) { c.Output.Format = "yaml" }, ""},
		{"empty output format", func(c *Config) { c.Output.Format = "" }, ""},
		{"invalid output format", func(c *Config) { c.Output.Format = "xml" }, "invalid output format"},
		{"zero canonical size", func(c *Config) { c.Match.CanonicalSize = 0 }, "canonical size"},
		{"huge canonical size", func(c *Config) { c.Match.CanonicalSize = 4096 }, "canonical size"},
		{"zero top", func(c *Config) { c.Match.Top = 0 }, "invalid match top"},
		{"zero preview", func(c *Config) { c.Preview.Size = 0 }, "invalid preview size"},
		{"negative thumbnail", func(c *Config) { c.Preview.ThumbnailSize = -1 }, "invalid thumbnail size"},
		{"kitty protocol", func(c *Config) { c.Preview.Protocol = "kitty" }, ""},
		{"bad protocol", func(c *Config) { c.Preview.Protocol = "ascii" }, "invalid preview protocol"},
		{"zero render width", func(c *Config) { c.Render.Width = 0 }, "invalid render size"},
		{"bad outline color", func(c *Config) { c.Render.OutlineColor = "yellow" }, "render.outline_color"},
		{"bad selected color", func(c *Config) { c.Render.SelectedColor = "#12345" }, "render.selected_color"},
		{"bad background", func(c *Config) { c.Render.BackgroundColor = "" }, "render.background_color"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

// TestToMatchConfig tests conversion to the matcher configuration.
func TestToMatchConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Match.CanonicalSize = 32

	if got := cfg.ToMatchConfig().CanonicalSize; got != 32 {
		t.Errorf("Expected canonical size 32, got %d", got)
	}
}

// TestToRenderOptions tests conversion to view rendering options.
func TestToRenderOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Render.Width = 320
	cfg.Render.Height = 200
	cfg.Render.Labels = true
	cfg.Render.OutlineColor = "#ff0000"
	cfg.Render.SelectedColor = "not a color"

	opts := cfg.ToRenderOptions()
	if opts.Width != 320 || opts.Height != 200 {
		t.Errorf("Expected 320x200, got %dx%d", opts.Width, opts.Height)
	}
	if !opts.Labels {
		t.Error("Expected labels to be enabled")
	}
	if opts.Outline != (color.NRGBA{R: 0xff, A: 0xff}) {
		t.Errorf("Expected red outline, got %v", opts.Outline)
	}
	if opts.Selected != (color.NRGBA{R: 0x7a, G: 0xa2, B: 0xf7, A: 0xff}) {
		t.Errorf("Expected default selected color on parse failure, got %v", opts.Selected)
	}
	if opts.Background != (color.NRGBA{}) {
		t.Errorf("Expected transparent background, got %v", opts.Background)
	}
}
