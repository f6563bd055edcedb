package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/MeKo-Tech/atlasmatch/internal/config"
	"github.com/MeKo-Tech/atlasmatch/internal/version"
	"github.com/spf13/cobra"
)

var (
	configLoader *config.Loader
	globalConfig *config.Config
	// cfgFile is the --config value; empty means search the default locations.
	cfgFile string
)

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

var rootCmd = &cobra.Command{
	Use:   "atlasmatch",
	Short: "Inspect sprite atlases and find frames by name or by image",
	Long: `atlasmatch loads a sprite-sheet image together with its frame metadata
(TexturePacker JSON array, JSON hash, JSON frames array, or Sparrow/Starling XML)
and answers which frame of the sheet corresponds to a name or to a query image.

Commands cover:
- listing and searching frames in any of the supported metadata dialects
- matching a query image by mean squared error on a canonical 64x64 raster
- upright crops and thumbnail contact sheets of the frames
- rendering the atlas view after pan, zoom and selection events

Examples:
  atlasmatch frames atlas.json
  atlasmatch find atlas.json hero
  atlasmatch match atlas.png atlas.json query.png --top 3
  atlasmatch crop atlas.png atlas.json hero --save hero.png
  atlasmatch view atlas.png atlas.xml --event wheel:100,100,-1 --save view.png`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(GetConfig())
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion, _ := cmd.PersistentFlags().GetBool("version"); showVersion {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.String())
			return err
		}
		return cmd.Help()
	},
}

// Execute runs the root command and exits with status 1 on error. Cobra has
// already printed the error by then.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "",
		"config file (default is search in ., $HOME, $HOME/.config/atlasmatch, /etc/atlasmatch)")
	flags.BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.StringP("format", "f", "text", "output format (text, json, yaml, csv)")
	flags.StringP("output", "o", "", "write results to this file instead of stdout")
	flags.Bool("terminal", false, "also print images to the terminal")
	flags.String("protocol", "auto", "terminal image protocol (auto, kitty, iterm, sixel, blocks)")
	flags.Bool("version", false, "print version information and exit")

	bindFlags(flags.Lookup, []flagBinding{
		{"verbose", "verbose"},
		{"log_level", "log-level"},
		{"output.format", "format"},
		{"output.file", "output"},
		{"preview.terminal", "terminal"},
		{"preview.protocol", "protocol"},
	})
}

// setupLogging installs a JSON slog handler on stderr. Stdout carries only
// command output.
func setupLogging(cfg *config.Config) {
	level, ok := logLevels[cfg.LogLevel]
	if !ok {
		level = slog.LevelInfo
	}
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// initConfig loads the configuration file and environment. A broken or invalid
// configuration ends the process before any command runs.
func initConfig() {
	configLoader = config.NewLoader()

	cfg, err := configLoader.LoadWithFile(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	globalConfig = cfg
}

// GetConfig returns the configuration with the current flag values applied.
// globalConfig is a snapshot from load time, so the bound keys are read again.
func GetConfig() *config.Config {
	if globalConfig == nil {
		initConfig()
	}

	var cfg config.Config
	if err := GetConfigLoader().GetViper().Unmarshal(&cfg); err != nil {
		slog.Warn("Failed to apply command-line flags to configuration", "error", err)
		return globalConfig
	}
	return &cfg
}

// GetConfigLoader returns the loader used by initConfig.
func GetConfigLoader() *config.Loader {
	if configLoader == nil {
		configLoader = config.NewLoader()
	}
	return configLoader
}
