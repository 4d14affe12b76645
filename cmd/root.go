package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mj1618/overlay-cli/internal/logger"
	"github.com/mj1618/overlay-cli/internal/output"
	"github.com/mj1618/overlay-cli/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "overlay-cli",
	Short: "Overlay UI-hierarchy element bounds onto device screenshots",
	Long: "A CLI tool that calibrates the coordinate space of a UI-hierarchy dump against\n" +
		"the pixel space of a screenshot of the same screen, so element bounds can be\n" +
		"overlaid and clicked accurately. Supports per-device/per-app calibration profiles.",
}

// log is the process logger, configured in PersistentPreRunE.
var log = zap.NewNop()

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version.Version, version.Commit, version.BuildDate)
	rootCmd.PersistentFlags().String("format", "yaml", "Output format: yaml, json")
	rootCmd.PersistentFlags().Bool("pretty", false, "Pretty-print JSON output")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable debug logging on stderr")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		verbose, _ := rootCmd.PersistentFlags().GetBool("verbose")
		log = logger.New(verbose)

		// Use the root persistent flag directly to avoid conflicts with
		// subcommand local flags (e.g. annotate --format png/jpg).
		format, _ := rootCmd.PersistentFlags().GetString("format")
		switch format {
		case "yaml":
			output.OutputFormat = output.FormatYAML
		case "json":
			output.OutputFormat = output.FormatJSON
		default:
			return fmt.Errorf("unsupported format: %s (use yaml or json)", format)
		}
		if pretty, _ := rootCmd.PersistentFlags().GetBool("pretty"); pretty {
			output.PrettyOutput = true
		}
		return nil
	}
}
