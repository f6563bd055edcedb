package cmd

import (
	"fmt"
	"os"

	"github.com/MeKo-Tech/atlasmatch/internal/config"
	"github.com/spf13/cobra"
)

// configCmd groups configuration file helpers.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Create or inspect the atlasmatch configuration",
	Long: `Configuration is read from atlasmatch.yaml in ., $HOME, $HOME/.config/atlasmatch
or /etc/atlasmatch, from ATLASMATCH_* environment variables and from flags.
Flags win over environment variables, which win over the file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init [FILE]",
	Short: "Write a configuration file with the default settings",
	Long: `Write the default configuration as YAML.

Without FILE the file is atlasmatch.yaml in the current directory. An existing
file is only replaced with --force.`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := config.ConfigFileName + ".yaml"
		if len(args) == 1 {
			filename = args[0]
		}
		force, _ := cmd.Flags().GetBool("force")
		if _, err := os.Stat(filename); err == nil && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", filename)
		}
		if err := config.GenerateDefaultConfigFile(filename); err != nil {
			return err
		}
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", filename)
		return err
	},
}

var configShowCmd = &cobra.Command{
	Use:          "show",
	Short:        "Print the resolved configuration as YAML",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		data, err := config.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal configuration: %w", err)
		}
		if used := GetConfigLoader().GetConfigFileUsed(); used != "" {
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "# loaded from %s\n", used); err != nil {
				return err
			}
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)

	configInitCmd.Flags().Bool("force", false, "overwrite an existing file")
}
