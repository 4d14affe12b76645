package cmd

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"

	"github.com/spf13/cobra"

	"github.com/mj1618/overlay-cli/internal/geometry"
	"github.com/mj1618/overlay-cli/internal/hierarchy"
)

var annotateCmd = &cobra.Command{
	Use:   "annotate",
	Short: "Overlay calibrated element bounds onto a screenshot",
	Long: "Decode a screenshot, composite it into a container canvas with contain-fit\n" +
		"scaling, and draw bounding boxes and labels for the hierarchy's elements,\n" +
		"with every box routed through the coordinate calibration pipeline.",
	RunE: runAnnotate,
}

func init() {
	rootCmd.AddCommand(annotateCmd)
	annotateCmd.Flags().String("hierarchy", "", "Hierarchy dump file ('-' for stdin)")
	annotateCmd.Flags().String("screenshot", "", "Screenshot file (png/jpg)")
	annotateCmd.Flags().String("container", "", "Container size as 'WxH' (default: screenshot size)")
	annotateCmd.Flags().String("output", "", "Output file path (default: stdout as base64)")
	annotateCmd.Flags().String("image-format", "png", "Output image format: png, jpg")
	annotateCmd.Flags().Int("quality", 80, "JPEG quality 1-100")
	annotateCmd.Flags().String("labels", "coords", "Label mode: coords, index, none")
	annotateCmd.Flags().Bool("all-elements", false, "Draw all elements (default: clickable elements only)")
	annotateCmd.Flags().String("text", "", "Filter elements by text content (case-insensitive substring)")
	annotateCmd.Flags().Bool("no-calibration", false, "Force the naive proportional mapping")
	addTargetFlags(annotateCmd)
	addAdjustmentFlags(annotateCmd)
}

func runAnnotate(cmd *cobra.Command, args []string) error {
	hierarchyPath, _ := cmd.Flags().GetString("hierarchy")
	screenshotPath, _ := cmd.Flags().GetString("screenshot")
	if hierarchyPath == "" || screenshotPath == "" {
		return fmt.Errorf("--hierarchy and --screenshot are required")
	}

	text, err := readHierarchyFile(hierarchyPath)
	if err != nil {
		return err
	}
	vp := hierarchy.ExtractViewport(text)
	if vp == nil {
		return fmt.Errorf("no viewport bounds found in %s", hierarchyPath)
	}

	elements := hierarchy.ParseElements(text)
	if all, _ := cmd.Flags().GetBool("all-elements"); !all {
		elements = hierarchy.FilterClickable(elements)
	}
	if filter, _ := cmd.Flags().GetString("text"); filter != "" {
		elements = hierarchy.FilterByText(elements, filter)
	}

	img, err := decodeImage(screenshotPath)
	if err != nil {
		return err
	}
	shotW := img.Bounds().Dx()
	shotH := img.Bounds().Dy()

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
	cal, source := resolveCalibration(cmd, store, p, vp.Width, vp.Height, shotW, shotH)
	log.Debug("annotating with calibration source: " + source)

	t := geometry.NewTransform(transformParamsFromFlags(cmd, p,
		vp.Width, vp.Height, shotW, shotH, containerW, containerH, cal))

	mode, err := parseLabelMode(cmd)
	if err != nil {
		return err
	}
	annotated := RenderOverlay(img, elements, t, int(containerW), int(containerH), mode)

	// Encode
	var buf bytes.Buffer
	imageFormat, _ := cmd.Flags().GetString("image-format")
	switch imageFormat {
	case "jpg", "jpeg":
		quality, _ := cmd.Flags().GetInt("quality")
		err = jpeg.Encode(&buf, annotated, &jpeg.Options{Quality: quality})
	default: // png
		err = png.Encode(&buf, annotated)
	}
	if err != nil {
		return fmt.Errorf("failed to encode annotated image: %w", err)
	}

	if outPath, _ := cmd.Flags().GetString("output"); outPath != "" {
		return os.WriteFile(outPath, buf.Bytes(), 0644)
	}

	// Default: write to stdout as base64 for easy agent consumption
	encoder := base64.NewEncoder(base64.StdEncoding, os.Stdout)
	if _, err := encoder.Write(buf.Bytes()); err != nil {
		return err
	}
	if err := encoder.Close(); err != nil {
		return err
	}
	fmt.Println() // newline after base64
	return nil
}

func decodeImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open screenshot: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode screenshot %s: %w", path, err)
	}
	return img, nil
}

func parseLabelMode(cmd *cobra.Command) (LabelMode, error) {
	s, _ := cmd.Flags().GetString("labels")
	switch s {
	case "coords":
		return LabelCoords, nil
	case "index":
		return LabelIndex, nil
	case "none":
		return LabelNone, nil
	}
	return LabelCoords, fmt.Errorf("unsupported label mode: %s (use coords, index, or none)", s)
}
