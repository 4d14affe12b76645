package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mj1618/overlay-cli/internal/geometry"
	"github.com/mj1618/overlay-cli/internal/hierarchy"
	"github.com/mj1618/overlay-cli/internal/output"
)

var transformCmd = &cobra.Command{
	Use:   "transform",
	Short: "Map hierarchy coordinates to overlay pixels",
	Long: "Run a viewport point or bounds string through the calibration transform\n" +
		"pipeline: calibrated (or naive proportional) viewport-to-screen mapping,\n" +
		"contain-fit placement in the container, manual overlay scale around the\n" +
		"contain-rect center, and manual pixel offset.\n\n" +
		"Examples:\n" +
		"  overlay-cli transform --point 360,742 --hierarchy dump.xml --screenshot screen.png --container 600x1200\n" +
		"  overlay-cli transform --bounds '[0,63][720,147]' --xml-width 720 --xml-height 1484 \\\n" +
		"      --screenshot-width 720 --screenshot-height 1612 --container 720x1612 --device emulator-5554",
	RunE: runTransform,
}

func init() {
	rootCmd.AddCommand(transformCmd)
	addDimensionFlags(transformCmd)
	addTargetFlags(transformCmd)
	addAdjustmentFlags(transformCmd)
	transformCmd.Flags().String("point", "", "Viewport point to map, as 'x,y'")
	transformCmd.Flags().String("bounds", "", "Viewport bounds to map, as '[x1,y1][x2,y2]'")
	transformCmd.Flags().String("container", "", "Container size as 'WxH' (default: screenshot size)")
	transformCmd.Flags().Bool("no-calibration", false, "Force the naive proportional mapping")
}

// transformResult is the printed outcome of a transform invocation.
type transformResult struct {
	Point       *mappedPoint          `yaml:"point,omitempty"  json:"point,omitempty"`
	Rect        *geometry.OverlayRect `yaml:"rect,omitempty"   json:"rect,omitempty"`
	Source      string                `yaml:"source"           json:"source"`
	Diagnostics geometry.Diagnostics  `yaml:"diagnostics"      json:"diagnostics"`
}

type mappedPoint struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

func runTransform(cmd *cobra.Command, args []string) error {
	pointStr, _ := cmd.Flags().GetString("point")
	boundsStr, _ := cmd.Flags().GetString("bounds")
	if pointStr == "" && boundsStr == "" {
		return fmt.Errorf("--point or --bounds is required")
	}

	xmlW, xmlH, shotW, shotH, err := resolveDimensions(cmd)
	if err != nil {
		return err
	}

	containerW, containerH := float64(shotW), float64(shotH)
	if c, _ := cmd.Flags().GetString("container"); c != "" {
		containerW, containerH, err = parseSize(c)
		if err != nil {
			return err
		}
	}

	store, err := newStore()
	if err != nil {
		return err
	}
	p := loadPreferences()
	cal, source := resolveCalibration(cmd, store, p, xmlW, xmlH, shotW, shotH)

	t := geometry.NewTransform(transformParamsFromFlags(cmd, p, xmlW, xmlH, shotW, shotH, containerW, containerH, cal))

	result := transformResult{Source: source, Diagnostics: t.Diagnostics()}
	if pointStr != "" {
		x, y, err := parsePoint(pointStr)
		if err != nil {
			return err
		}
		ox, oy := t.Point(x, y)
		result.Point = &mappedPoint{X: ox, Y: oy}
	}
	if boundsStr != "" {
		r, ok := hierarchy.ParseBounds(boundsStr)
		if !ok {
			return fmt.Errorf("malformed bounds %q (expected '[x1,y1][x2,y2]')", boundsStr)
		}
		rect := t.MapRect(float64(r.X1), float64(r.Y1), float64(r.X2), float64(r.Y2))
		result.Rect = &rect
	}
	return output.Print(result)
}

// parsePoint parses "x,y" into coordinates.
func parsePoint(s string) (float64, float64, error) {
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed point %q (expected 'x,y')", s)
	}
	x, errX := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	y, errY := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errX != nil || errY != nil {
		return 0, 0, fmt.Errorf("malformed point %q (expected 'x,y')", s)
	}
	return x, y, nil
}

// parseSize parses "WxH" into dimensions.
func parseSize(s string) (float64, float64, error) {
	parts := strings.SplitN(strings.ToLower(s), "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed size %q (expected 'WxH')", s)
	}
	w, errW := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	h, errH := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errW != nil || errH != nil || w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("malformed size %q (expected positive 'WxH')", s)
	}
	return w, h, nil
}
