package calib

import (
	"testing"

	"github.com/mj1618/overlay-cli/internal/prefs"
)

func testCoordinator(t *testing.T) (*Coordinator, *ProfileStore, *prefs.Preferences) {
	t.Helper()
	store := NewProfileStore(t.TempDir(), nil)
	p := prefs.Load(t.TempDir())
	return NewCoordinator(store, p, nil), store, p
}

func TestCoordinator_StartsWithNoCalibration(t *testing.T) {
	c, _, _ := testCoordinator(t)
	cal, source := c.Current()
	if cal != nil || source != SourceNone {
		t.Errorf("expected no calibration initially, got %+v from %v", cal, source)
	}
}

func TestCoordinator_ObservePromotesDetection(t *testing.T) {
	c, _, _ := testCoordinator(t)
	result := c.ObserveDimensions(720, 1484, 720, 1612)
	if result == nil || !result.NeedsCalibration {
		t.Fatalf("expected a positive verdict, got %+v", result)
	}
	cal, source := c.Current()
	if source != SourceAutoDetected {
		t.Errorf("expected auto-detected source, got %v", source)
	}
	if cal == nil || cal.ScaleY <= 1 {
		t.Errorf("expected the detected calibration, got %+v", cal)
	}
}

func TestCoordinator_ObserveMatchingLeavesNone(t *testing.T) {
	c, _, _ := testCoordinator(t)
	result := c.ObserveDimensions(1080, 1920, 1080, 1920)
	if result == nil || result.NeedsCalibration {
		t.Fatalf("expected a negative verdict, got %+v", result)
	}
	if _, source := c.Current(); source != SourceNone {
		t.Errorf("a negative verdict must not change the source, got %v", source)
	}
}

func TestCoordinator_DetectionMemo(t *testing.T) {
	c, _, _ := testCoordinator(t)
	first := c.RunDetection(720, 1484, 720, 1612)
	second := c.RunDetection(720, 1484, 720, 1612)
	if first != second {
		t.Error("unchanged dimensions must reuse the memoized verdict")
	}
	third := c.RunDetection(720, 1484, 720, 1600)
	if third == first {
		t.Error("changed dimensions must produce a fresh verdict")
	}
}

func TestCoordinator_InvalidDimensionsKeepPrevious(t *testing.T) {
	c, _, _ := testCoordinator(t)
	first := c.RunDetection(720, 1484, 720, 1612)
	if first == nil {
		t.Fatal("expected a verdict")
	}
	after := c.RunDetection(0, 1484, 720, 1612)
	if after != first {
		t.Error("invalid dimensions must return the previous verdict")
	}
}

func TestCoordinator_AutoCalibrationOffGatesDetection(t *testing.T) {
	c, _, p := testCoordinator(t)
	if err := p.Set(prefs.KeyAutoCalibration, "false"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	result := c.ObserveDimensions(720, 1484, 720, 1612)
	if result != nil {
		t.Errorf("expected no detection while auto-calibration is off, got %+v", result)
	}
	if _, source := c.Current(); source != SourceNone {
		t.Errorf("expected source none, got %v", source)
	}
}

func TestCoordinator_DeviceProfileTakesPrecedence(t *testing.T) {
	c, store, _ := testCoordinator(t)
	stored := sampleCalibration()
	if _, err := store.Save(Profile{
		DeviceID:    "emulator-5554",
		PackageName: "com.example.app",
		Calibration: stored,
	}); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	c.SetTarget("emulator-5554", "com.example.app")
	cal, source := c.Current()
	if source != SourceDeviceProfile {
		t.Fatalf("expected the stored profile to load, got %v", source)
	}
	if cal == nil || *cal != stored {
		t.Errorf("expected the stored calibration, got %+v", cal)
	}

	// New dimensions must not displace the profile.
	if result := c.ObserveDimensions(720, 1484, 720, 1612); result != nil {
		t.Errorf("detection must not run under a device profile, got %+v", result)
	}
	if _, source := c.Current(); source != SourceDeviceProfile {
		t.Errorf("profile lost precedence, got %v", source)
	}
}

func TestCoordinator_SetTargetMissClearsCalibration(t *testing.T) {
	c, _, _ := testCoordinator(t)
	c.ObserveDimensions(720, 1484, 720, 1612)
	c.SetTarget("emulator-5554", "com.unknown.app")
	if cal, source := c.Current(); cal != nil || source != SourceNone {
		t.Errorf("target change without a profile must reset, got %+v from %v", cal, source)
	}
}

func TestCoordinator_ApplyAutoCalibration(t *testing.T) {
	c, _, _ := testCoordinator(t)
	if c.ApplyAutoCalibration() {
		t.Error("apply must fail before any detection ran")
	}
	c.RunDetection(720, 1484, 720, 1612)
	if _, source := c.Current(); source != SourceNone {
		t.Fatalf("a manual detection run must not promote by itself, got %v", source)
	}
	if !c.ApplyAutoCalibration() {
		t.Fatal("expected apply to succeed after a positive verdict")
	}
	if _, source := c.Current(); source != SourceAutoDetected {
		t.Errorf("expected auto-detected source, got %v", source)
	}
}

func TestCoordinator_SaveCurrentAsProfile(t *testing.T) {
	c, store, _ := testCoordinator(t)

	// No target yet: warned no-op.
	if err := c.SaveCurrentAsProfile(""); err == nil {
		t.Error("expected an error without a target")
	}
	if c.LastWarning() == "" {
		t.Error("expected a recorded warning")
	}

	c.SetTarget("emulator-5554", "com.example.app")
	if err := c.SaveCurrentAsProfile(""); err == nil {
		t.Error("expected an error without a current calibration")
	}

	c.ObserveDimensions(720, 1484, 720, 1612)
	if err := c.SaveCurrentAsProfile("from detection"); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if _, source := c.Current(); source != SourceDeviceProfile {
		t.Errorf("a saved calibration becomes a device profile, got %v", source)
	}

	p, err := store.Load("emulator-5554", "com.example.app")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if p == nil {
		t.Fatal("expected the profile to be persisted")
	}
	if p.Note != "from detection" {
		t.Errorf("unexpected note: %q", p.Note)
	}
}

func TestCoordinator_ResetToDefault(t *testing.T) {
	c, _, p := testCoordinator(t)
	if err := p.Set(prefs.KeyOverlayScale, "1.5"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	c.ObserveDimensions(720, 1484, 720, 1612)

	c.ResetToDefault()
	if cal, source := c.Current(); cal != nil || source != SourceNone {
		t.Errorf("expected a clean slate, got %+v from %v", cal, source)
	}
	if p.OverlayScale() != 1 {
		t.Errorf("reset must restore default preferences, got %v", p.OverlayScale())
	}
	// The memo is cleared too: the same dimensions detect again.
	if result := c.ObserveDimensions(720, 1484, 720, 1612); result == nil || !result.NeedsCalibration {
		t.Errorf("expected detection to run again after reset, got %+v", result)
	}
}
