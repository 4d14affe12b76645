package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mj1618/overlay-cli/internal/output"
)

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Show or edit the global overlay adjustment preferences",
	Long: "Global preferences are the session-level manual adjustment layer: overlay\n" +
		"scale (scalar or per-axis), pixel offsets, contain-fit vertical alignment,\n" +
		"and the auto-calibration switch. They apply on top of any calibration and\n" +
		"are independent of calibration profiles.",
	RunE: runPrefsShow,
}

var prefsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a preference and persist it",
	Long: "Keys: overlay_scale, overlay_scale_x, overlay_scale_y, offset_x, offset_y,\n" +
		"vertical_align (top|center|bottom), auto_calibration (true|false).",
	Args: cobra.ExactArgs(2),
	RunE: runPrefsSet,
}

var prefsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore every preference to its default",
	RunE:  runPrefsReset,
}

func init() {
	rootCmd.AddCommand(prefsCmd)
	prefsCmd.AddCommand(prefsSetCmd, prefsResetCmd)
}

func runPrefsShow(cmd *cobra.Command, args []string) error {
	return output.Print(loadPreferences().All())
}

func runPrefsSet(cmd *cobra.Command, args []string) error {
	p := loadPreferences()
	if err := p.Set(args[0], args[1]); err != nil {
		return err
	}
	if err := p.Save(); err != nil {
		return err
	}
	fmt.Printf("%s = %s\n", args[0], args[1])
	return nil
}

func runPrefsReset(cmd *cobra.Command, args []string) error {
	p := loadPreferences()
	p.Reset()
	if err := p.Save(); err != nil {
		return err
	}
	return output.Print(p.All())
}
