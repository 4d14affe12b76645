package calib

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mj1618/overlay-cli/internal/geometry"
)

// DefaultMaxAgeDays is the expiry horizon for unused profiles.
const DefaultMaxAgeDays = 30

// Profile is a persisted calibration keyed by (deviceId, packageName).
// PackageName "*" denotes a device-wide fallback profile.
type Profile struct {
	DeviceID    string               `json:"deviceId"       yaml:"deviceId"`
	PackageName string               `json:"packageName"    yaml:"packageName"`
	Calibration geometry.Calibration `json:"calibration"    yaml:"calibration"`
	CreatedAt   time.Time            `json:"createdAt"      yaml:"createdAt"`
	LastUsedAt  time.Time            `json:"lastUsedAt"     yaml:"lastUsedAt"`
	UseCount    int                  `json:"useCount"       yaml:"useCount"`
	Note        string               `json:"note,omitempty" yaml:"note,omitempty"`
}

// ProfileStore persists one JSON record per sanitized (deviceId,
// packageName) key in a directory. Methods return errors instead of
// panicking; callers decide whether a failed read or write is worth
// surfacing. Concurrent writers resolve last-write-wins.
type ProfileStore struct {
	dir string
	log *zap.Logger
	now func() time.Time
}

// NewProfileStore creates a store rooted at dir. The directory is created
// lazily on first write. A nil logger is replaced with a no-op logger.
func NewProfileStore(dir string, log *zap.Logger) *ProfileStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProfileStore{dir: dir, log: log, now: time.Now}
}

// DefaultProfileDir returns the per-user profile directory.
func DefaultProfileDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(configDir, "overlay-cli", "profiles"), nil
}

func (s *ProfileStore) path(deviceID, packageName string) string {
	return filepath.Join(s.dir, ProfileKey(deviceID, packageName)+".json")
}

// Save persists a profile, bumping UseCount and LastUsedAt as part of the
// same write, and returns the record as written. Saving and touching
// deliberately share this one code path.
func (s *ProfileStore) Save(p Profile) (Profile, error) {
	now := s.now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.LastUsedAt = now
	p.UseCount++
	if err := s.write(p); err != nil {
		s.log.Warn("profile save failed", zap.String("device", p.DeviceID),
			zap.String("package", p.PackageName), zap.Error(err))
		return p, err
	}
	return p, nil
}

// write persists a profile verbatim, without touching usage fields.
// Import uses this directly so restored records keep their history.
func (s *ProfileStore) write(p Profile) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create profile dir: %w", err)
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	path := s.path(p.DeviceID, p.PackageName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write profile %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Load returns the profile for (deviceID, packageName), falling back to the
// device-wide "*" profile. A hit bumps usage via Save. Returns (nil, nil)
// when neither key exists.
func (s *ProfileStore) Load(deviceID, packageName string) (*Profile, error) {
	p, err := s.read(s.path(deviceID, packageName))
	if err != nil {
		return nil, err
	}
	if p == nil && packageName != WildcardPackage {
		p, err = s.read(s.path(deviceID, WildcardPackage))
		if err != nil {
			return nil, err
		}
	}
	if p == nil {
		return nil, nil
	}
	// Touch on successful load; a failed touch still returns the profile.
	if touched, err := s.Save(*p); err == nil {
		*p = touched
	}
	return p, nil
}

// read parses one profile file. A missing file is (nil, nil); a corrupt
// file is an error.
func (s *ProfileStore) read(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read profile %s: %w", filepath.Base(path), err)
	}
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", filepath.Base(path), err)
	}
	return &p, nil
}

// List returns all stored profiles sorted by LastUsedAt descending.
// Corrupt entries are skipped and logged, not fatal.
func (s *ProfileStore) List() ([]Profile, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan profile dir: %w", err)
	}
	var profiles []Profile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		p, err := s.read(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			s.log.Warn("skipping corrupt profile", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		if p != nil {
			profiles = append(profiles, *p)
		}
	}
	sort.Slice(profiles, func(i, j int) bool {
		return profiles[i].LastUsedAt.After(profiles[j].LastUsedAt)
	})
	return profiles, nil
}

// Delete removes the profile for (deviceID, packageName). Deleting a
// missing profile is not an error.
func (s *ProfileStore) Delete(deviceID, packageName string) error {
	err := os.Remove(s.path(deviceID, packageName))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete profile: %w", err)
	}
	return nil
}

// CleanupExpired deletes profiles whose LastUsedAt predates the cutoff and
// returns how many were removed. maxAgeDays <= 0 uses DefaultMaxAgeDays.
func (s *ProfileStore) CleanupExpired(maxAgeDays int) (int, error) {
	if maxAgeDays <= 0 {
		maxAgeDays = DefaultMaxAgeDays
	}
	cutoff := s.now().AddDate(0, 0, -maxAgeDays)

	profiles, err := s.List()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, p := range profiles {
		if p.LastUsedAt.Before(cutoff) {
			if err := s.Delete(p.DeviceID, p.PackageName); err != nil {
				s.log.Warn("expired profile not deleted", zap.String("device", p.DeviceID),
					zap.String("package", p.PackageName), zap.Error(err))
				continue
			}
			removed++
		}
	}
	return removed, nil
}

// ExportAll serializes every stored profile to a JSON array for backup.
func (s *ProfileStore) ExportAll() ([]byte, error) {
	profiles, err := s.List()
	if err != nil {
		return nil, err
	}
	if profiles == nil {
		profiles = []Profile{}
	}
	data, err := json.MarshalIndent(profiles, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal profiles: %w", err)
	}
	return data, nil
}

// ImportAll restores profiles from a JSON array, upserting per record
// verbatim (usage history is preserved, not bumped). Returns the number of
// profiles written.
func (s *ProfileStore) ImportAll(data []byte) (int, error) {
	var profiles []Profile
	if err := json.Unmarshal(data, &profiles); err != nil {
		return 0, fmt.Errorf("parse import: %w", err)
	}
	count := 0
	for _, p := range profiles {
		if err := s.write(p); err != nil {
			s.log.Warn("profile import skipped", zap.String("device", p.DeviceID),
				zap.String("package", p.PackageName), zap.Error(err))
			continue
		}
		count++
	}
	return count, nil
}
