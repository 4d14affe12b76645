package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mj1618/overlay-cli/internal/calib"
	"github.com/mj1618/overlay-cli/internal/geometry"
	"github.com/mj1618/overlay-cli/internal/output"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage persisted per-device/per-app calibration profiles",
	Long: "Calibration profiles persist a detected or hand-tuned calibration per\n" +
		"(device, package) pair so detection need not repeat every session. A profile\n" +
		"saved with package '*' acts as a device-wide fallback.",
}

var profileSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save a calibration profile for a (device, package) pair",
	Long: "Persist a calibration. The values come either from explicit flags or from a\n" +
		"fresh detection run against a hierarchy/screenshot pair (--from-detection).",
	RunE: runProfileSave,
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the stored profile for a (device, package) pair",
	RunE:  runProfileShow,
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored calibration profiles, most recently used first",
	RunE:  runProfileList,
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the profile for a (device, package) pair",
	RunE:  runProfileDelete,
}

var profileCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete profiles unused for longer than the expiry window",
	RunE:  runProfileCleanup,
}

var profileExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export all profiles as a JSON array (stdout by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runProfileExport,
}

var profileImportCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import profiles from a JSON array (stdin by default), upserting per record",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runProfileImport,
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileSaveCmd, profileShowCmd, profileListCmd,
		profileDeleteCmd, profileCleanupCmd, profileExportCmd, profileImportCmd)

	addTargetFlags(profileSaveCmd)
	profileSaveCmd.Flags().Float64("scale-x", 0, "Viewport-to-screenshot X scale")
	profileSaveCmd.Flags().Float64("scale-y", 0, "Viewport-to-screenshot Y scale")
	profileSaveCmd.Flags().Float64("cal-offset-x", 0, "Viewport-to-screenshot X offset in pixels")
	profileSaveCmd.Flags().Float64("cal-offset-y", 0, "Viewport-to-screenshot Y offset in pixels")
	profileSaveCmd.Flags().Float64("confidence", 1, "Calibration confidence 0-1")
	profileSaveCmd.Flags().String("note", "", "Free-form note stored with the profile")
	profileSaveCmd.Flags().Bool("from-detection", false, "Derive the calibration from a detection run instead of flags")
	addDimensionFlags(profileSaveCmd)

	addTargetFlags(profileShowCmd)
	addTargetFlags(profileDeleteCmd)
	profileCleanupCmd.Flags().Int("max-age-days", calib.DefaultMaxAgeDays, "Expire profiles unused for at least this many days")
}

func requireTarget(cmd *cobra.Command) (string, string, error) {
	device, _ := cmd.Flags().GetString("device")
	pkg, _ := cmd.Flags().GetString("package")
	if device == "" || pkg == "" {
		return "", "", fmt.Errorf("--device and --package are required")
	}
	return device, pkg, nil
}

func runProfileSave(cmd *cobra.Command, args []string) error {
	device, pkg, err := requireTarget(cmd)
	if err != nil {
		return err
	}
	store, err := newStore()
	if err != nil {
		return err
	}

	var cal geometry.Calibration
	if fromDetection, _ := cmd.Flags().GetBool("from-detection"); fromDetection {
		xmlW, xmlH, shotW, shotH, err := resolveDimensions(cmd)
		if err != nil {
			return err
		}
		result, err := calib.NewDetector(calib.DefaultDetectorConfig()).Detect(xmlW, xmlH, shotW, shotH)
		if err != nil {
			return err
		}
		if result.Calibration == nil {
			return fmt.Errorf("nothing to save: %s", result.Reason)
		}
		cal = *result.Calibration
	} else {
		cal.ScaleX, _ = cmd.Flags().GetFloat64("scale-x")
		cal.ScaleY, _ = cmd.Flags().GetFloat64("scale-y")
		cal.OffsetX, _ = cmd.Flags().GetFloat64("cal-offset-x")
		cal.OffsetY, _ = cmd.Flags().GetFloat64("cal-offset-y")
		cal.Confidence, _ = cmd.Flags().GetFloat64("confidence")
		if !cal.Valid() {
			return fmt.Errorf("invalid calibration: scales must be positive (got %gx%g)", cal.ScaleX, cal.ScaleY)
		}
	}

	note, _ := cmd.Flags().GetString("note")
	saved, err := store.Save(calib.Profile{
		DeviceID:    device,
		PackageName: pkg,
		Calibration: cal,
		Note:        note,
	})
	if err != nil {
		return err
	}
	return output.Print(saved)
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	device, pkg, err := requireTarget(cmd)
	if err != nil {
		return err
	}
	store, err := newStore()
	if err != nil {
		return err
	}
	p, err := store.Load(device, pkg)
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("no profile for device %q package %q", device, pkg)
	}
	return output.Print(p)
}

func runProfileList(cmd *cobra.Command, args []string) error {
	store, err := newStore()
	if err != nil {
		return err
	}
	profiles, err := store.List()
	if err != nil {
		return err
	}
	return output.Print(struct {
		Count    int             `yaml:"count"    json:"count"`
		Profiles []calib.Profile `yaml:"profiles" json:"profiles"`
	}{len(profiles), profiles})
}

func runProfileDelete(cmd *cobra.Command, args []string) error {
	device, pkg, err := requireTarget(cmd)
	if err != nil {
		return err
	}
	store, err := newStore()
	if err != nil {
		return err
	}
	if err := store.Delete(device, pkg); err != nil {
		return err
	}
	fmt.Printf("deleted profile for device %q package %q\n", device, pkg)
	return nil
}

func runProfileCleanup(cmd *cobra.Command, args []string) error {
	store, err := newStore()
	if err != nil {
		return err
	}
	maxAge, _ := cmd.Flags().GetInt("max-age-days")
	removed, err := store.CleanupExpired(maxAge)
	if err != nil {
		return err
	}
	fmt.Printf("removed %d expired profile(s)\n", removed)
	return nil
}

func runProfileExport(cmd *cobra.Command, args []string) error {
	store, err := newStore()
	if err != nil {
		return err
	}
	data, err := store.ExportAll()
	if err != nil {
		return err
	}
	if len(args) == 1 {
		return os.WriteFile(args[0], data, 0644)
	}
	_, err = os.Stdout.Write(append(data, '\n'))
	return err
}

func runProfileImport(cmd *cobra.Command, args []string) error {
	var data []byte
	var err error
	if len(args) == 1 {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return fmt.Errorf("read import data: %w", err)
	}
	store, err := newStore()
	if err != nil {
		return err
	}
	count, err := store.ImportAll(data)
	if err != nil {
		return err
	}
	fmt.Printf("imported %d profile(s)\n", count)
	return nil
}
