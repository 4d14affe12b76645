// Package prefs holds the session-level manual adjustment preferences:
// overlay scale, pixel offsets, vertical alignment, and the auto-calibration
// switch. Values are persisted as flat scalars and every read falls back to
// a documented default on parse failure.
package prefs

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/mj1618/overlay-cli/internal/geometry"
)

// Flat preference keys.
const (
	KeyOverlayScale    = "overlay_scale"
	KeyOverlayScaleX   = "overlay_scale_x"
	KeyOverlayScaleY   = "overlay_scale_y"
	KeyOffsetX         = "offset_x"
	KeyOffsetY         = "offset_y"
	KeyVerticalAlign   = "vertical_align"
	KeyAutoCalibration = "auto_calibration"
)

// Defaults.
const (
	DefaultOverlayScale    = 1.0
	DefaultVerticalAlign   = string(geometry.AlignCenter)
	DefaultAutoCalibration = true
)

const prefsFile = "preferences.yaml"

// Preferences is a viper-backed store of the global manual adjustments.
// It is independent of any calibration profile.
type Preferences struct {
	v    *viper.Viper
	path string
}

// DefaultPrefsDir returns the per-user preferences directory.
func DefaultPrefsDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(configDir, "overlay-cli"), nil
}

// Load reads preferences from dir/preferences.yaml. A missing or unreadable
// file yields the defaults; Load never fails.
func Load(dir string) *Preferences {
	v := viper.New()
	v.SetDefault(KeyOverlayScale, DefaultOverlayScale)
	v.SetDefault(KeyOverlayScaleX, 0.0)
	v.SetDefault(KeyOverlayScaleY, 0.0)
	v.SetDefault(KeyOffsetX, 0.0)
	v.SetDefault(KeyOffsetY, 0.0)
	v.SetDefault(KeyVerticalAlign, DefaultVerticalAlign)
	v.SetDefault(KeyAutoCalibration, DefaultAutoCalibration)

	path := filepath.Join(dir, prefsFile)
	v.SetConfigFile(path)
	// Parse failures degrade to defaults.
	_ = v.ReadInConfig()

	return &Preferences{v: v, path: path}
}

// OverlayScale returns the scalar overlay scale, defaulting to 1 when the
// stored value is missing or not a positive real number.
func (p *Preferences) OverlayScale() float64 {
	return positiveOr(p.v.GetFloat64(KeyOverlayScale), DefaultOverlayScale)
}

// OverlayScaleX returns the per-axis X override; 0 means unset.
func (p *Preferences) OverlayScaleX() float64 {
	return positiveOr(p.v.GetFloat64(KeyOverlayScaleX), 0)
}

// OverlayScaleY returns the per-axis Y override; 0 means unset.
func (p *Preferences) OverlayScaleY() float64 {
	return positiveOr(p.v.GetFloat64(KeyOverlayScaleY), 0)
}

// OffsetX returns the manual pixel X offset.
func (p *Preferences) OffsetX() float64 { return finiteOr(p.v.GetFloat64(KeyOffsetX), 0) }

// OffsetY returns the manual pixel Y offset.
func (p *Preferences) OffsetY() float64 { return finiteOr(p.v.GetFloat64(KeyOffsetY), 0) }

// VerticalAlign returns the contain-fit alignment policy, defaulting to
// center for unrecognized values.
func (p *Preferences) VerticalAlign() geometry.VerticalAlign {
	return geometry.ParseVerticalAlign(p.v.GetString(KeyVerticalAlign))
}

// AutoCalibration reports whether dimension changes trigger detection.
func (p *Preferences) AutoCalibration() bool { return p.v.GetBool(KeyAutoCalibration) }

// Set stores a raw value under a flat key. Unknown keys are rejected so a
// typo cannot silently create a dead preference.
func (p *Preferences) Set(key string, value string) error {
	switch key {
	case KeyOverlayScale, KeyOverlayScaleX, KeyOverlayScaleY,
		KeyOffsetX, KeyOffsetY, KeyVerticalAlign, KeyAutoCalibration:
		p.v.Set(key, value)
		return nil
	}
	return fmt.Errorf("unknown preference key: %s", key)
}

// Reset restores every preference to its default.
func (p *Preferences) Reset() {
	p.v.Set(KeyOverlayScale, DefaultOverlayScale)
	p.v.Set(KeyOverlayScaleX, 0.0)
	p.v.Set(KeyOverlayScaleY, 0.0)
	p.v.Set(KeyOffsetX, 0.0)
	p.v.Set(KeyOffsetY, 0.0)
	p.v.Set(KeyVerticalAlign, DefaultVerticalAlign)
	p.v.Set(KeyAutoCalibration, DefaultAutoCalibration)
}

// Save writes the preferences file, creating the directory if needed.
func (p *Preferences) Save() error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}
	if err := p.v.WriteConfigAs(p.path); err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	return nil
}

// All returns the effective preferences as a flat map, for display.
func (p *Preferences) All() map[string]interface{} {
	return map[string]interface{}{
		KeyOverlayScale:    p.OverlayScale(),
		KeyOverlayScaleX:   p.OverlayScaleX(),
		KeyOverlayScaleY:   p.OverlayScaleY(),
		KeyOffsetX:         p.OffsetX(),
		KeyOffsetY:         p.OffsetY(),
		KeyVerticalAlign:   string(p.VerticalAlign()),
		KeyAutoCalibration: p.AutoCalibration(),
	}
}

// positiveOr returns v when it is a positive real number, fallback otherwise.
func positiveOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return fallback
	}
	return v
}

// finiteOr returns v when it is a real number, fallback otherwise.
func finiteOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}
