// Package calib implements viewport/screenshot calibration detection,
// per-device calibration profiles, and the coordinator that decides which
// calibration is in effect.
package calib

import (
	"errors"
	"fmt"
	"math"

	"github.com/mj1618/overlay-cli/internal/geometry"
)

// ErrInvalidDimensions is returned when a dimension is non-positive or NaN.
var ErrInvalidDimensions = errors.New("invalid dimensions")

// DetectorConfig holds the detection heuristics. The confidence asymmetry
// and the vertical-centering assumption are inherited, unverified
// heuristics: they are fields rather than hardcoded constants so callers
// can override them per instance.
type DetectorConfig struct {
	// MatchTolerance is the per-axis |scale-1| band inside which the two
	// coordinate spaces are considered to already match.
	MatchTolerance float64
	// ScreenshotLargerConfidence applies when the screenshot is taller than
	// the viewport (scaleY > 1), the common status-bar-cropped-dump case.
	ScreenshotLargerConfidence float64
	// ViewportLargerConfidence applies when the viewport is taller than the
	// screenshot (scaleY < 1), a rarer and less-trusted situation.
	ViewportLargerConfidence float64
}

// DefaultDetectorConfig returns the inherited heuristic defaults.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		MatchTolerance:             0.05,
		ScreenshotLargerConfidence: 0.9,
		ViewportLargerConfidence:   0.7,
	}
}

// DetectionDetails carries the raw dimension pairs and ratios behind a
// verdict, for diagnostics.
type DetectionDetails struct {
	XMLWidth         int     `yaml:"xml_width"         json:"xml_width"`
	XMLHeight        int     `yaml:"xml_height"        json:"xml_height"`
	ScreenshotWidth  int     `yaml:"screenshot_width"  json:"screenshot_width"`
	ScreenshotHeight int     `yaml:"screenshot_height" json:"screenshot_height"`
	ScaleX           float64 `yaml:"scale_x"           json:"scale_x"`
	ScaleY           float64 `yaml:"scale_y"           json:"scale_y"`
	AvgScale         float64 `yaml:"avg_scale"         json:"avg_scale"`
}

// DetectionResult is the verdict for one (viewport, screenshot) dimension
// pair: whether calibration is needed, the proposed correction, and a
// heuristic confidence.
type DetectionResult struct {
	NeedsCalibration      bool                  `yaml:"needs_calibration"       json:"needs_calibration"`
	Calibration           *geometry.Calibration `yaml:"calibration,omitempty"   json:"calibration,omitempty"`
	SuggestedOverlayScale float64               `yaml:"suggested_overlay_scale" json:"suggested_overlay_scale"`
	Confidence            float64               `yaml:"confidence"              json:"confidence"`
	Reason                string                `yaml:"reason"                  json:"reason"`
	Details               DetectionDetails      `yaml:"details"                 json:"details"`
}

// Detector compares viewport and screenshot dimensions and proposes a
// calibration when they disagree.
type Detector struct {
	cfg DetectorConfig
}

// NewDetector creates a detector. A zero config is replaced by the defaults.
func NewDetector(cfg DetectorConfig) *Detector {
	if cfg == (DetectorConfig{}) {
		cfg = DefaultDetectorConfig()
	}
	return &Detector{cfg: cfg}
}

// Detect compares the declared viewport against the screenshot pixel size.
// Returns ErrInvalidDimensions for non-positive input; callers keep their
// previous result in that case.
func (d *Detector) Detect(xmlW, xmlH, screenshotW, screenshotH int) (DetectionResult, error) {
	if xmlW <= 0 || xmlH <= 0 || screenshotW <= 0 || screenshotH <= 0 {
		return DetectionResult{}, fmt.Errorf("%w: viewport %dx%d, screenshot %dx%d",
			ErrInvalidDimensions, xmlW, xmlH, screenshotW, screenshotH)
	}

	scaleX := float64(screenshotW) / float64(xmlW)
	scaleY := float64(screenshotH) / float64(xmlH)
	avgScale := (scaleX + scaleY) / 2

	details := DetectionDetails{
		XMLWidth:         xmlW,
		XMLHeight:        xmlH,
		ScreenshotWidth:  screenshotW,
		ScreenshotHeight: screenshotH,
		ScaleX:           scaleX,
		ScaleY:           scaleY,
		AvgScale:         avgScale,
	}

	// The spaces match only when neither axis deviates beyond tolerance;
	// averaging the axes would hide a one-axis mismatch like a status-bar
	// crop, the most common case this detector exists for.
	deviation := math.Max(math.Abs(scaleX-1), math.Abs(scaleY-1))
	if deviation < d.cfg.MatchTolerance {
		return DetectionResult{
			NeedsCalibration:      false,
			SuggestedOverlayScale: 1,
			Confidence:            1,
			Reason: fmt.Sprintf("dimensions match: viewport %dx%d vs screenshot %dx%d (avg scale %.3f)",
				xmlW, xmlH, screenshotW, screenshotH, avgScale),
			Details: details,
		}, nil
	}

	// Assume the viewport content is vertically centered inside the
	// screenshot (symmetric status/nav bars). Documented heuristic, not
	// guaranteed correct.
	cal := &geometry.Calibration{
		OffsetX: 0,
		OffsetY: (float64(screenshotH) - float64(xmlH)*scaleY) / 2,
		ScaleX:  scaleX,
		ScaleY:  scaleY,
	}

	confidence := d.cfg.ScreenshotLargerConfidence
	direction := "screenshot taller than viewport"
	if scaleY < 1 {
		confidence = d.cfg.ViewportLargerConfidence
		direction = "viewport taller than screenshot"
	}
	cal.Confidence = confidence

	return DetectionResult{
		NeedsCalibration:      true,
		Calibration:           cal,
		SuggestedOverlayScale: round3(scaleY),
		Confidence:            confidence,
		Reason: fmt.Sprintf("%s: viewport %dx%d vs screenshot %dx%d (scale %.3fx%.3f)",
			direction, xmlW, xmlH, screenshotW, screenshotH, scaleX, scaleY),
		Details: details,
	}, nil
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
