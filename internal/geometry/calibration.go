package geometry

import "math"

// Calibration is an offset+scale correction mapping viewport (XML)
// coordinates into screenshot pixel space. Scales must be positive for the
// calibration to be usable.
type Calibration struct {
	OffsetX    float64 `yaml:"xmlOffsetX"        json:"xmlOffsetX"`
	OffsetY    float64 `yaml:"xmlOffsetY"        json:"xmlOffsetY"`
	ScaleX     float64 `yaml:"xmlToScreenScaleX" json:"xmlToScreenScaleX"`
	ScaleY     float64 `yaml:"xmlToScreenScaleY" json:"xmlToScreenScaleY"`
	Confidence float64 `yaml:"confidence"        json:"confidence"`
}

// Valid reports whether the calibration can be applied: both scales positive
// and every field a real number.
func (c Calibration) Valid() bool {
	for _, v := range [...]float64{c.OffsetX, c.OffsetY, c.ScaleX, c.ScaleY} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return c.ScaleX > 0 && c.ScaleY > 0
}
