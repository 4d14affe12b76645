package geometry

// TransformParams are the explicit inputs of the coordinate transform
// pipeline. The pipeline is a pure function of these values: no global
// state is consulted during mapping.
type TransformParams struct {
	// ViewportW/H is the coordinate space declared by the hierarchy dump.
	ViewportW, ViewportH float64
	// ScreenshotW/H is the pixel size of the captured raster image.
	ScreenshotW, ScreenshotH float64
	// ContainerW/H is the surface the screenshot is composited into.
	ContainerW, ContainerH float64

	// Calibration corrects viewport coordinates into screenshot pixels.
	// When nil (or invalid), a naive proportional mapping is used, which is
	// only exact when the two spaces already match.
	Calibration *Calibration

	// Manual adjustment layer, applied after the geometric mapping.
	// OverlayScaleX/Y override OverlayScale per axis; zero means unset.
	OverlayScale             float64
	OverlayScaleX            float64
	OverlayScaleY            float64
	OffsetX, OffsetY         float64
	Align                    VerticalAlign
}

// OverlayRect is a mapped rectangle in container (overlay) pixels. Width and
// height may be non-positive for degenerate input bounds; callers clamp.
type OverlayRect struct {
	X      float64 `yaml:"x"      json:"x"`
	Y      float64 `yaml:"y"      json:"y"`
	Width  float64 `yaml:"width"  json:"width"`
	Height float64 `yaml:"height" json:"height"`
}

// Diagnostics describes which path the pipeline took, for display alongside
// mapped coordinates.
type Diagnostics struct {
	CalibrationApplied bool        `yaml:"calibration_applied" json:"calibration_applied"`
	ScaleXUsed         float64     `yaml:"scale_x_used"        json:"scale_x_used"`
	ScaleYUsed         float64     `yaml:"scale_y_used"        json:"scale_y_used"`
	ContainRect        ContainRect `yaml:"contain_rect"        json:"contain_rect"`
}

// Transform maps viewport coordinates to overlay pixels through six
// deterministic stages: calibrated (or naive) viewport→screen mapping,
// normalization into the contain-fit rect, manual per-axis scaling around
// the rect center, and manual pixel offset.
type Transform struct {
	p    TransformParams
	rect ContainRect
	// effective manual scales, resolved once
	scaleX, scaleY float64
	// calibration resolved once; nil means naive fallback
	cal *Calibration
}

// NewTransform builds a transform from explicit parameters. Identical
// parameters always produce an identical mapping.
func NewTransform(p TransformParams) *Transform {
	t := &Transform{
		p:    p,
		rect: ComputeContainRect(p.ContainerW, p.ContainerH, p.ScreenshotW, p.ScreenshotH, p.Align),
	}

	t.scaleX = resolveScale(p.OverlayScaleX, p.OverlayScale)
	t.scaleY = resolveScale(p.OverlayScaleY, p.OverlayScale)

	if p.Calibration != nil && p.Calibration.Valid() {
		cal := *p.Calibration
		t.cal = &cal
	}
	return t
}

// resolveScale picks the per-axis override when set, the scalar otherwise,
// and 1 when neither is usable.
func resolveScale(axis, scalar float64) float64 {
	if axis > 0 {
		return axis
	}
	if scalar > 0 {
		return scalar
	}
	return 1
}

// Rect returns the contain-fit rectangle of the screenshot in the container.
func (t *Transform) Rect() ContainRect { return t.rect }

// Diagnostics reports the resolved pipeline configuration.
func (t *Transform) Diagnostics() Diagnostics {
	return Diagnostics{
		CalibrationApplied: t.cal != nil,
		ScaleXUsed:         t.scaleX,
		ScaleYUsed:         t.scaleY,
		ContainRect:        t.rect,
	}
}

// Point maps a single viewport coordinate to overlay pixels.
func (t *Transform) Point(xmlX, xmlY float64) (float64, float64) {
	// Stage 2: viewport → screen space.
	var screenX, screenY float64
	if t.cal != nil {
		screenX = xmlX*t.cal.ScaleX + t.cal.OffsetX
		screenY = xmlY*t.cal.ScaleY + t.cal.OffsetY
	} else {
		// Naive proportional fallback; exact only when the spaces match.
		screenX = proportional(xmlX, t.p.ViewportW, t.p.ScreenshotW)
		screenY = proportional(xmlY, t.p.ViewportH, t.p.ScreenshotH)
	}

	// Stage 3: screen space → container pixels via the contain rect.
	var normX, normY float64
	if t.p.ScreenshotW > 0 {
		normX = screenX / t.p.ScreenshotW
	}
	if t.p.ScreenshotH > 0 {
		normY = screenY / t.p.ScreenshotH
	}
	x := t.rect.Left + normX*t.rect.Width
	y := t.rect.Top + normY*t.rect.Height

	// Stage 4: manual overlay scale around the rect center.
	cx, cy := t.rect.CenterX(), t.rect.CenterY()
	x = cx + (x-cx)*t.scaleX
	y = cy + (y-cy)*t.scaleY

	// Stage 5: manual pixel offset.
	return x + t.p.OffsetX, y + t.p.OffsetY
}

// MapRect maps a viewport rectangle given by two corners to an overlay
// rectangle by transforming both corners. Width/height may come out
// non-positive for degenerate bounds; the caller decides whether to clamp.
func (t *Transform) MapRect(x1, y1, x2, y2 float64) OverlayRect {
	ox1, oy1 := t.Point(x1, y1)
	ox2, oy2 := t.Point(x2, y2)
	return OverlayRect{X: ox1, Y: oy1, Width: ox2 - ox1, Height: oy2 - oy1}
}

// proportional maps v from a source extent to a destination extent,
// guarding against a zero source. A viewport that declares no usable extent
// passes coordinates through unchanged.
func proportional(v, src, dst float64) float64 {
	if src <= 0 {
		return v
	}
	return v / src * dst
}
