package calib

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mj1618/overlay-cli/internal/geometry"
	"github.com/mj1618/overlay-cli/internal/prefs"
)

// Source is the tagged origin of the calibration currently in effect.
type Source int

const (
	// SourceNone means no calibration applies; mapping falls back to the
	// naive proportional path.
	SourceNone Source = iota
	// SourceAutoDetected means the last detection run supplied the current
	// calibration. Not persisted.
	SourceAutoDetected
	// SourceDeviceProfile means a stored (device, package) profile supplied
	// the current calibration. Takes precedence over auto-detection until
	// reset or the target pair changes.
	SourceDeviceProfile
)

func (s Source) String() string {
	switch s {
	case SourceAutoDetected:
		return "auto-detected"
	case SourceDeviceProfile:
		return "device-profile"
	default:
		return "none"
	}
}

// Coordinator owns the calibration-source state machine: which calibration
// is in effect, the dimension-signature memo that deduplicates detection
// runs, and the apply/save/reset operations. All state is instance-owned so
// multiple coordinators (multiple sessions) never interfere.
type Coordinator struct {
	store    *ProfileStore
	prefs    *prefs.Preferences
	detector *Detector
	log      *zap.Logger

	deviceID    string
	packageName string

	source        Source
	current       *geometry.Calibration
	lastDetection *DetectionResult
	lastSignature string
	lastWarning   string
}

// NewCoordinator wires a coordinator over a profile store and preferences.
// A nil logger is replaced with a no-op logger.
func NewCoordinator(store *ProfileStore, p *prefs.Preferences, log *zap.Logger) *Coordinator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Coordinator{
		store:    store,
		prefs:    p,
		detector: NewDetector(DefaultDetectorConfig()),
		log:      log,
	}
}

// SetTarget points the coordinator at a (device, package) pair. On change it
// attempts a profile load: a hit makes the profile the current calibration;
// a miss returns to SourceNone. The detection memo is cleared so the new
// target gets a fresh detection run.
func (c *Coordinator) SetTarget(deviceID, packageName string) {
	if deviceID == c.deviceID && packageName == c.packageName {
		return
	}
	c.deviceID = deviceID
	c.packageName = packageName
	c.lastSignature = ""
	c.lastWarning = ""

	c.source = SourceNone
	c.current = nil
	if deviceID == "" {
		return
	}
	profile, err := c.store.Load(deviceID, packageName)
	if err != nil {
		c.degrade(fmt.Sprintf("profile load failed: %v", err))
		return
	}
	if profile != nil {
		cal := profile.Calibration
		c.source = SourceDeviceProfile
		c.current = &cal
		c.log.Debug("calibration profile loaded",
			zap.String("device", deviceID), zap.String("package", profile.PackageName))
	}
}

// ObserveDimensions feeds a (viewport, screenshot) dimension pair into the
// coordinator. The detector runs only when the auto-calibration preference
// is enabled and no device profile holds precedence, and is skipped when
// the dimension signature matches the previous run. A positive verdict
// becomes the current calibration (not persisted). Invalid dimensions
// return the previous result unchanged.
func (c *Coordinator) ObserveDimensions(xmlW, xmlH, screenshotW, screenshotH int) *DetectionResult {
	if !c.prefs.AutoCalibration() || c.source == SourceDeviceProfile {
		return c.lastDetection
	}
	result := c.RunDetection(xmlW, xmlH, screenshotW, screenshotH)
	if result != nil && result.NeedsCalibration && result.Calibration != nil {
		cal := *result.Calibration
		c.source = SourceAutoDetected
		c.current = &cal
	}
	return result
}

// RunDetection runs the detector unconditionally (deduplicated by the
// dimension-signature memo) and records the result, without changing the
// current calibration. ApplyAutoCalibration can then promote it manually.
func (c *Coordinator) RunDetection(xmlW, xmlH, screenshotW, screenshotH int) *DetectionResult {
	sig := fmt.Sprintf("%dx%d:%dx%d", xmlW, xmlH, screenshotW, screenshotH)
	if sig == c.lastSignature {
		return c.lastDetection
	}
	result, err := c.detector.Detect(xmlW, xmlH, screenshotW, screenshotH)
	if err != nil {
		// Guard failure: keep the previous verdict.
		return c.lastDetection
	}
	c.lastSignature = sig
	c.lastDetection = &result
	return c.lastDetection
}

// ApplyAutoCalibration promotes the last detection result into the current
// calibration, independent of the automatic trigger. Returns false when no
// detection proposed a calibration.
func (c *Coordinator) ApplyAutoCalibration() bool {
	if c.lastDetection == nil || c.lastDetection.Calibration == nil {
		return false
	}
	cal := *c.lastDetection.Calibration
	c.source = SourceAutoDetected
	c.current = &cal
	return true
}

// SaveCurrentAsProfile persists the current calibration for the current
// target pair and promotes the source to SourceDeviceProfile. Missing
// target or calibration makes this a warned no-op.
func (c *Coordinator) SaveCurrentAsProfile(note string) error {
	if c.deviceID == "" || c.packageName == "" {
		return c.degrade("cannot save profile: no device/package target set")
	}
	if c.current == nil {
		return c.degrade("cannot save profile: no current calibration")
	}
	_, err := c.store.Save(Profile{
		DeviceID:    c.deviceID,
		PackageName: c.packageName,
		Calibration: *c.current,
		Note:        note,
	})
	if err != nil {
		return c.degrade(fmt.Sprintf("profile save failed: %v", err))
	}
	c.source = SourceDeviceProfile
	return nil
}

// ResetToDefault clears the current calibration, returns to SourceNone, and
// restores the default global preferences.
func (c *Coordinator) ResetToDefault() {
	c.source = SourceNone
	c.current = nil
	c.lastSignature = ""
	c.lastWarning = ""
	c.prefs.Reset()
}

// Current resolves the calibration in effect and its source. This is the
// single precedence point: DeviceProfile > AutoDetected > None.
func (c *Coordinator) Current() (*geometry.Calibration, Source) {
	if c.current == nil {
		return nil, SourceNone
	}
	cal := *c.current
	return &cal, c.source
}

// LastDetection returns the most recent detection verdict, or nil.
func (c *Coordinator) LastDetection() *DetectionResult { return c.lastDetection }

// LastWarning returns the most recent degraded-path reason, or "".
func (c *Coordinator) LastWarning() string { return c.lastWarning }

// degrade records and logs a degraded-path reason and returns it as an
// error so callers can decide whether to surface it.
func (c *Coordinator) degrade(reason string) error {
	c.lastWarning = reason
	c.log.Warn(reason)
	return errors.New(reason)
}
