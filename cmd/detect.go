package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mj1618/overlay-cli/internal/calib"
	"github.com/mj1618/overlay-cli/internal/output"
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect whether viewport and screenshot coordinate spaces disagree",
	Long: "Compare the hierarchy's declared viewport size against the screenshot's pixel\n" +
		"size and report whether calibration is needed, the proposed scale/offset\n" +
		"correction, and a heuristic confidence.\n\n" +
		"Examples:\n" +
		"  overlay-cli detect --hierarchy dump.xml --screenshot screen.png\n" +
		"  overlay-cli detect --xml-width 720 --xml-height 1484 --screenshot-width 720 --screenshot-height 1612",
	RunE: runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)
	addDimensionFlags(detectCmd)
	detectCmd.Flags().Float64("tolerance", 0, "Override the per-axis scale match tolerance (default 0.05)")
}

func runDetect(cmd *cobra.Command, args []string) error {
	xmlW, xmlH, shotW, shotH, err := resolveDimensions(cmd)
	if err != nil {
		return err
	}

	cfg := calib.DefaultDetectorConfig()
	if tol, _ := cmd.Flags().GetFloat64("tolerance"); tol > 0 {
		cfg.MatchTolerance = tol
	}

	result, err := calib.NewDetector(cfg).Detect(xmlW, xmlH, shotW, shotH)
	if err != nil {
		return err
	}
	return output.Print(result)
}
