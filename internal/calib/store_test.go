package calib

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mj1618/overlay-cli/internal/geometry"
)

func testStore(t *testing.T) *ProfileStore {
	t.Helper()
	return NewProfileStore(t.TempDir(), nil)
}

func sampleCalibration() geometry.Calibration {
	return geometry.Calibration{
		OffsetX:    0,
		OffsetY:    3.5,
		ScaleX:     1,
		ScaleY:     1.086,
		Confidence: 0.9,
	}
}

func TestStore_SaveLoadRoundtrip(t *testing.T) {
	s := testStore(t)
	saved, err := s.Save(Profile{
		DeviceID:    "emulator-5554",
		PackageName: "com.example.app",
		Calibration: sampleCalibration(),
		Note:        "manual tune",
	})
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if saved.UseCount != 1 {
		t.Errorf("expected use count 1 after first save, got %d", saved.UseCount)
	}
	if saved.CreatedAt.IsZero() || saved.LastUsedAt.IsZero() {
		t.Error("expected timestamps to be set on save")
	}

	p, err := s.Load("emulator-5554", "com.example.app")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if p == nil {
		t.Fatal("expected a profile")
	}
	if p.Calibration != sampleCalibration() {
		t.Errorf("calibration did not survive the roundtrip: %+v", p.Calibration)
	}
	if p.Note != "manual tune" {
		t.Errorf("unexpected note: %q", p.Note)
	}
}

func TestStore_LoadMiss(t *testing.T) {
	s := testStore(t)
	p, err := s.Load("emulator-5554", "com.example.app")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != nil {
		t.Errorf("expected nil on miss, got %+v", p)
	}
}

func TestStore_WildcardFallback(t *testing.T) {
	s := testStore(t)
	if _, err := s.Save(Profile{
		DeviceID:    "emulator-5554",
		PackageName: WildcardPackage,
		Calibration: sampleCalibration(),
	}); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	p, err := s.Load("emulator-5554", "com.never.seen")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if p == nil {
		t.Fatal("expected the device-wide profile to apply")
	}
	if p.PackageName != WildcardPackage {
		t.Errorf("expected the wildcard record, got package %q", p.PackageName)
	}
}

func TestStore_LoadTouchesUsage(t *testing.T) {
	s := testStore(t)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	if _, err := s.Save(Profile{
		DeviceID:    "emulator-5554",
		PackageName: "com.example.app",
		Calibration: sampleCalibration(),
	}); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	s.now = func() time.Time { return base.Add(48 * time.Hour) }
	p, err := s.Load("emulator-5554", "com.example.app")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if p.UseCount != 2 {
		t.Errorf("expected use count 2 after one load, got %d", p.UseCount)
	}
	if !p.LastUsedAt.Equal(base.Add(48 * time.Hour)) {
		t.Errorf("expected lastUsedAt to advance, got %v", p.LastUsedAt)
	}
	if !p.CreatedAt.Equal(base) {
		t.Errorf("createdAt must not change on load, got %v", p.CreatedAt)
	}

	// The touch is persisted, not just returned.
	p2, err := s.Load("emulator-5554", "com.example.app")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if p2.UseCount != 3 {
		t.Errorf("expected use count 3 after second load, got %d", p2.UseCount)
	}
}

func TestStore_ListSortedAndSkipsCorrupt(t *testing.T) {
	s := testStore(t)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	s.now = func() time.Time { return base }
	if _, err := s.Save(Profile{DeviceID: "dev-a", PackageName: "com.old", Calibration: sampleCalibration()}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	s.now = func() time.Time { return base.Add(time.Hour) }
	if _, err := s.Save(Profile{DeviceID: "dev-b", PackageName: "com.new", Calibration: sampleCalibration()}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, "broken.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	profiles, err := s.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(profiles) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(profiles))
	}
	if profiles[0].DeviceID != "dev-b" {
		t.Errorf("expected most recently used first, got %q", profiles[0].DeviceID)
	}
}

func TestStore_Delete(t *testing.T) {
	s := testStore(t)
	if _, err := s.Save(Profile{DeviceID: "dev-a", PackageName: "com.app", Calibration: sampleCalibration()}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := s.Delete("dev-a", "com.app"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	p, err := s.Load("dev-a", "com.app")
	if err != nil || p != nil {
		t.Errorf("expected a clean miss after delete, got %+v, %v", p, err)
	}
	// Deleting again is not an error.
	if err := s.Delete("dev-a", "com.app"); err != nil {
		t.Errorf("deleting a missing profile should succeed, got %v", err)
	}
}

func TestStore_CleanupExpired(t *testing.T) {
	s := testStore(t)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	s.now = func() time.Time { return base.AddDate(0, 0, -40) }
	if _, err := s.Save(Profile{DeviceID: "dev-old", PackageName: "com.app", Calibration: sampleCalibration()}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	s.now = func() time.Time { return base.AddDate(0, 0, -5) }
	if _, err := s.Save(Profile{DeviceID: "dev-recent", PackageName: "com.app", Calibration: sampleCalibration()}); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	s.now = func() time.Time { return base }
	removed, err := s.CleanupExpired(0)
	if err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("expected 1 profile removed at the default horizon, got %d", removed)
	}
	profiles, err := s.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(profiles) != 1 || profiles[0].DeviceID != "dev-recent" {
		t.Errorf("expected only the recent profile to survive, got %+v", profiles)
	}
}

func TestStore_ExportImportPreservesHistory(t *testing.T) {
	src := testStore(t)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	src.now = func() time.Time { return base }
	if _, err := src.Save(Profile{DeviceID: "dev-a", PackageName: "com.app", Calibration: sampleCalibration()}); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	// Bump usage so there is history to preserve.
	if _, err := src.Load("dev-a", "com.app"); err != nil {
		t.Fatalf("load failed: %v", err)
	}

	data, err := src.ExportAll()
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}

	dst := testStore(t)
	count, err := dst.ImportAll(data)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 imported profile, got %d", count)
	}
	profiles, err := dst.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(profiles) != 1 {
		t.Fatalf("expected 1 profile, got %d", len(profiles))
	}
	if profiles[0].UseCount != 2 {
		t.Errorf("import must preserve usage history, got use count %d", profiles[0].UseCount)
	}
	if !profiles[0].CreatedAt.Equal(base) {
		t.Errorf("import must preserve createdAt, got %v", profiles[0].CreatedAt)
	}
}

func TestStore_ImportRejectsGarbage(t *testing.T) {
	s := testStore(t)
	if _, err := s.ImportAll([]byte("not json")); err == nil {
		t.Error("expected an error for unparseable import data")
	}
}
