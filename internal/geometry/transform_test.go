package geometry

import (
	"math"
	"testing"
)

func approxEq(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func identityParams() TransformParams {
	return TransformParams{
		ViewportW: 1080, ViewportH: 1920,
		ScreenshotW: 1080, ScreenshotH: 1920,
		ContainerW: 1080, ContainerH: 1920,
	}
}

func TestTransform_Identity(t *testing.T) {
	// Matching spaces, no calibration, no manual adjustment: coordinates
	// pass through unchanged.
	tr := NewTransform(identityParams())
	points := [][2]float64{{0, 0}, {540, 960}, {1080, 1920}, {37, 1511}}
	for _, p := range points {
		x, y := tr.Point(p[0], p[1])
		if !approxEq(x, p[0]) || !approxEq(y, p[1]) {
			t.Errorf("Point(%v, %v) = (%v, %v), want identity", p[0], p[1], x, y)
		}
	}
	d := tr.Diagnostics()
	if d.CalibrationApplied {
		t.Error("expected no calibration applied")
	}
	if d.ScaleXUsed != 1 || d.ScaleYUsed != 1 {
		t.Errorf("expected unit scales, got %v/%v", d.ScaleXUsed, d.ScaleYUsed)
	}
}

func TestTransform_Deterministic(t *testing.T) {
	p := identityParams()
	p.Calibration = &Calibration{ScaleX: 1, ScaleY: 1.086, OffsetY: 3.5, Confidence: 0.9}
	p.OverlayScale = 1.1
	p.OffsetX = -4
	a := NewTransform(p)
	b := NewTransform(p)
	ax, ay := a.Point(123, 456)
	bx, by := b.Point(123, 456)
	if ax != bx || ay != by {
		t.Errorf("identical parameters produced different points: (%v,%v) vs (%v,%v)", ax, ay, bx, by)
	}
}

func TestTransform_CalibrationCorrectsBottomEdge(t *testing.T) {
	// Viewport 720x1484 against a 720x1612 screenshot. The calibrated
	// mapping should land the viewport's bottom edge on the screenshot's
	// bottom edge; the naive mapping should not need to.
	scaleY := 1612.0 / 1484.0
	p := TransformParams{
		ViewportW: 720, ViewportH: 1484,
		ScreenshotW: 720, ScreenshotH: 1612,
		ContainerW: 720, ContainerH: 1612,
		Calibration: &Calibration{
			ScaleX: 1, ScaleY: scaleY,
			OffsetY:    (1612 - 1484*scaleY) / 2,
			Confidence: 0.9,
		},
	}
	tr := NewTransform(p)
	if !tr.Diagnostics().CalibrationApplied {
		t.Fatal("expected calibration to be applied")
	}
	_, y := tr.Point(360, 1484)
	if !approxEq(y, 1612) {
		t.Errorf("bottom edge mapped to y=%v, want 1612", y)
	}
	x, y := tr.Point(0, 0)
	if !approxEq(x, 0) || !approxEq(y, 0) {
		t.Errorf("origin mapped to (%v, %v), want (0, 0)", x, y)
	}
}

func TestTransform_NaiveFallbackStretches(t *testing.T) {
	// Without calibration the same mismatch falls back to proportional
	// stretching: viewport y=1484 still reaches the screenshot bottom but
	// intermediate points differ from the calibrated path only by offsets.
	p := TransformParams{
		ViewportW: 720, ViewportH: 1484,
		ScreenshotW: 720, ScreenshotH: 1612,
		ContainerW: 720, ContainerH: 1612,
	}
	tr := NewTransform(p)
	_, y := tr.Point(360, 742)
	if !approxEq(y, 806) {
		t.Errorf("midpoint mapped to y=%v, want 806", y)
	}
}

func TestTransform_InvalidCalibrationIgnored(t *testing.T) {
	p := identityParams()
	p.Calibration = &Calibration{ScaleX: 0, ScaleY: 1}
	tr := NewTransform(p)
	if tr.Diagnostics().CalibrationApplied {
		t.Error("zero-scale calibration must be ignored")
	}
	p.Calibration = &Calibration{ScaleX: math.NaN(), ScaleY: 1}
	if NewTransform(p).Diagnostics().CalibrationApplied {
		t.Error("NaN calibration must be ignored")
	}
}

func TestTransform_OverlayScaleAroundCenter(t *testing.T) {
	p := identityParams()
	p.OverlayScale = 1.5
	tr := NewTransform(p)

	// The rect center is a fixed point of the manual scale.
	cx, cy := tr.Rect().CenterX(), tr.Rect().CenterY()
	x, y := tr.Point(cx, cy)
	if !approxEq(x, cx) || !approxEq(y, cy) {
		t.Errorf("center moved under scaling: (%v, %v) vs (%v, %v)", x, y, cx, cy)
	}

	// Off-center points move away from the center by exactly the scale.
	x, y = tr.Point(cx+100, cy+40)
	if !approxEq(x-cx, 150) || !approxEq(y-cy, 60) {
		t.Errorf("expected deltas (150, 60), got (%v, %v)", x-cx, y-cy)
	}
}

func TestTransform_PerAxisScaleOverride(t *testing.T) {
	p := identityParams()
	p.OverlayScale = 1.5
	p.OverlayScaleX = 2
	tr := NewTransform(p)
	d := tr.Diagnostics()
	if d.ScaleXUsed != 2 {
		t.Errorf("expected x override 2, got %v", d.ScaleXUsed)
	}
	if d.ScaleYUsed != 1.5 {
		t.Errorf("expected y to fall back to scalar 1.5, got %v", d.ScaleYUsed)
	}
}

func TestTransform_OffsetsAppliedLast(t *testing.T) {
	p := identityParams()
	p.OffsetX = 12
	p.OffsetY = -7
	tr := NewTransform(p)
	x, y := tr.Point(100, 200)
	if !approxEq(x, 112) || !approxEq(y, 193) {
		t.Errorf("expected (112, 193), got (%v, %v)", x, y)
	}
}

func TestTransform_MapRect(t *testing.T) {
	p := identityParams()
	p.OffsetX = 10
	tr := NewTransform(p)
	r := tr.MapRect(40, 1200, 680, 1300)
	if !approxEq(r.X, 50) || !approxEq(r.Y, 1200) {
		t.Errorf("unexpected origin: %+v", r)
	}
	if !approxEq(r.Width, 640) || !approxEq(r.Height, 100) {
		t.Errorf("unexpected size: %+v", r)
	}
}

func TestTransform_ContainerSmallerThanScreenshot(t *testing.T) {
	// Scenario: 720x1612 screenshot composited into a 600x1200 container.
	// Points inside the viewport must land inside the contain rect.
	p := TransformParams{
		ViewportW: 720, ViewportH: 1612,
		ScreenshotW: 720, ScreenshotH: 1612,
		ContainerW: 600, ContainerH: 1200,
	}
	tr := NewTransform(p)
	rect := tr.Rect()
	for _, pt := range [][2]float64{{0, 0}, {720, 1612}, {360, 806}} {
		x, y := tr.Point(pt[0], pt[1])
		if x < rect.Left-1e-9 || x > rect.Left+rect.Width+1e-9 {
			t.Errorf("Point(%v, %v): x=%v outside rect %+v", pt[0], pt[1], x, rect)
		}
		if y < rect.Top-1e-9 || y > rect.Top+rect.Height+1e-9 {
			t.Errorf("Point(%v, %v): y=%v outside rect %+v", pt[0], pt[1], y, rect)
		}
	}
	// Corners map to rect corners.
	x, y := tr.Point(0, 0)
	if !approxEq(x, rect.Left) || !approxEq(y, rect.Top) {
		t.Errorf("origin mapped to (%v, %v), want rect origin (%v, %v)", x, y, rect.Left, rect.Top)
	}
}
