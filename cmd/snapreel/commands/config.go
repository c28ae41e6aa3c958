package commands

import (
	"fmt"

	"github.com/bryanchriswhite/snapreel/internal/errs"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect snapreel configuration",
	Long:  `View the resolved settings and the location of the configuration file.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show resolved configuration",
	Long:  `Display every setting after merging defaults, the INI file and SNAPREEL_ environment variables.`,
	Example: `  # Show configuration as YAML (default)
  snapreel config show

  # Show configuration as JSON
  snapreel config show --format json`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Get a configuration value",
	Example: `  # Get the GIF frame rate
  snapreel config get gif.fps`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

var configFormat string

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configPathCmd)

	configShowCmd.Flags().StringVarP(&configFormat, "format", "f", "yaml", "output format (yaml or json)")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	if configFormat == "text" {
		return errs.Config("unsupported format %q (use yaml or json)", configFormat)
	}
	return printReport(cmd.OutOrStdout(), loader.Viper().AllSettings(), configFormat)
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	v := loader.Viper()
	if !v.IsSet(args[0]) {
		return errs.Config("configuration key not found: %s", args[0])
	}
	fmt.Fprintln(cmd.OutOrStdout(), v.Get(args[0]))
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	fmt.Fprintln(cmd.OutOrStdout(), loader.Path())
	return nil
}
