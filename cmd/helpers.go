package cmd

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mj1618/overlay-cli/internal/calib"
	"github.com/mj1618/overlay-cli/internal/geometry"
	"github.com/mj1618/overlay-cli/internal/hierarchy"
	"github.com/mj1618/overlay-cli/internal/prefs"
)

// readHierarchyFile reads a hierarchy dump from a file, or from stdin when
// path is "-".
func readHierarchyFile(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read hierarchy from stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read hierarchy: %w", err)
	}
	return string(data), nil
}

// screenshotSize returns the pixel dimensions of an image file without
// decoding the pixel data.
func screenshotSize(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("open screenshot: %w", err)
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("decode screenshot %s: %w", path, err)
	}
	return cfg.Width, cfg.Height, nil
}

// addDimensionFlags adds the viewport/screenshot dimension flags shared by
// detect and transform. Dimensions can be given explicitly or derived from
// a hierarchy dump and a screenshot file.
func addDimensionFlags(cmd *cobra.Command) {
	cmd.Flags().String("hierarchy", "", "Hierarchy dump file ('-' for stdin); viewport size is extracted from it")
	cmd.Flags().String("screenshot", "", "Screenshot file (png/jpg); pixel size is read from it")
	cmd.Flags().Int("xml-width", 0, "Viewport width declared by the hierarchy (overrides --hierarchy)")
	cmd.Flags().Int("xml-height", 0, "Viewport height declared by the hierarchy (overrides --hierarchy)")
	cmd.Flags().Int("screenshot-width", 0, "Screenshot pixel width (overrides --screenshot)")
	cmd.Flags().Int("screenshot-height", 0, "Screenshot pixel height (overrides --screenshot)")
}

// resolveDimensions reads the dimension flags, falling back to the
// hierarchy/screenshot files when explicit values are absent.
func resolveDimensions(cmd *cobra.Command) (xmlW, xmlH, shotW, shotH int, err error) {
	xmlW, _ = cmd.Flags().GetInt("xml-width")
	xmlH, _ = cmd.Flags().GetInt("xml-height")
	shotW, _ = cmd.Flags().GetInt("screenshot-width")
	shotH, _ = cmd.Flags().GetInt("screenshot-height")

	if xmlW == 0 || xmlH == 0 {
		path, _ := cmd.Flags().GetString("hierarchy")
		if path == "" {
			return 0, 0, 0, 0, fmt.Errorf("viewport size required: use --xml-width/--xml-height or --hierarchy")
		}
		text, err := readHierarchyFile(path)
		if err != nil {
			return 0, 0, 0, 0, err
		}
		vp := hierarchy.ExtractViewport(text)
		if vp == nil {
			return 0, 0, 0, 0, fmt.Errorf("no viewport bounds found in %s", path)
		}
		xmlW, xmlH = vp.Width, vp.Height
	}

	if shotW == 0 || shotH == 0 {
		path, _ := cmd.Flags().GetString("screenshot")
		if path == "" {
			return 0, 0, 0, 0, fmt.Errorf("screenshot size required: use --screenshot-width/--screenshot-height or --screenshot")
		}
		shotW, shotH, err = screenshotSize(path)
		if err != nil {
			return 0, 0, 0, 0, err
		}
	}
	return xmlW, xmlH, shotW, shotH, nil
}

// addTargetFlags adds the (device, package) profile-target flags.
func addTargetFlags(cmd *cobra.Command) {
	cmd.Flags().String("device", "", "Device ID the hierarchy/screenshot came from")
	cmd.Flags().String("package", "", "App package name ('*' for a device-wide profile)")
}

// addAdjustmentFlags adds the manual overlay adjustment flags. Unset flags
// fall back to the persisted global preferences.
func addAdjustmentFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("overlay-scale", 0, "Manual overlay scale around the contain-rect center (default: preference)")
	cmd.Flags().Float64("overlay-scale-x", 0, "Per-axis X overlay scale override")
	cmd.Flags().Float64("overlay-scale-y", 0, "Per-axis Y overlay scale override")
	cmd.Flags().Float64("offset-x", 0, "Manual pixel X offset (default: preference)")
	cmd.Flags().Float64("offset-y", 0, "Manual pixel Y offset (default: preference)")
	cmd.Flags().String("align", "", "Vertical alignment of the contain-fit image: top, center, bottom (default: preference)")
}

// newStore opens the profile store in the default per-user location.
func newStore() (*calib.ProfileStore, error) {
	dir, err := calib.DefaultProfileDir()
	if err != nil {
		return nil, err
	}
	return calib.NewProfileStore(dir, log), nil
}

// loadPreferences loads the global preferences, degrading to in-memory
// defaults when the per-user config dir cannot be resolved.
func loadPreferences() *prefs.Preferences {
	dir, err := prefs.DefaultPrefsDir()
	if err != nil {
		log.Warn("preferences unavailable, using defaults", zap.Error(err))
		dir = os.TempDir()
	}
	return prefs.Load(dir)
}

// transformParamsFromFlags assembles the transform parameters from resolved
// dimensions, the flag-level manual adjustments (preferences as fallback),
// and an optional calibration.
func transformParamsFromFlags(cmd *cobra.Command, p *prefs.Preferences,
	xmlW, xmlH, shotW, shotH int, containerW, containerH float64,
	cal *geometry.Calibration) geometry.TransformParams {

	scale := flagOrPref(cmd, "overlay-scale", p.OverlayScale())
	scaleX := flagOrPref(cmd, "overlay-scale-x", p.OverlayScaleX())
	scaleY := flagOrPref(cmd, "overlay-scale-y", p.OverlayScaleY())
	offX := flagOrPref(cmd, "offset-x", p.OffsetX())
	offY := flagOrPref(cmd, "offset-y", p.OffsetY())

	align := p.VerticalAlign()
	if s, _ := cmd.Flags().GetString("align"); s != "" {
		align = geometry.ParseVerticalAlign(s)
	}

	return geometry.TransformParams{
		ViewportW:     float64(xmlW),
		ViewportH:     float64(xmlH),
		ScreenshotW:   float64(shotW),
		ScreenshotH:   float64(shotH),
		ContainerW:    containerW,
		ContainerH:    containerH,
		Calibration:   cal,
		OverlayScale:  scale,
		OverlayScaleX: scaleX,
		OverlayScaleY: scaleY,
		OffsetX:       offX,
		OffsetY:       offY,
		Align:         align,
	}
}

// flagOrPref returns the flag value when the user set it, the preference
// value otherwise.
func flagOrPref(cmd *cobra.Command, name string, pref float64) float64 {
	if cmd.Flags().Changed(name) {
		v, _ := cmd.Flags().GetFloat64(name)
		return v
	}
	return pref
}

// resolveCalibration picks the calibration for a command invocation using
// the coordinator's precedence: a stored (device, package) profile wins over
// auto-detection; --no-calibration forces the naive mapping. The returned
// source string reports which path was taken.
func resolveCalibration(cmd *cobra.Command, store *calib.ProfileStore, p *prefs.Preferences,
	xmlW, xmlH, shotW, shotH int) (*geometry.Calibration, string) {

	if no, _ := cmd.Flags().GetBool("no-calibration"); no {
		return nil, calib.SourceNone.String()
	}

	coord := calib.NewCoordinator(store, p, log)
	device, _ := cmd.Flags().GetString("device")
	pkg, _ := cmd.Flags().GetString("package")
	if device != "" {
		coord.SetTarget(device, pkg)
	}
	coord.ObserveDimensions(xmlW, xmlH, shotW, shotH)
	if w := coord.LastWarning(); w != "" {
		log.Warn(w)
	}
	cal, source := coord.Current()
	return cal, source.String()
}
