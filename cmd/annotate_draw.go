package cmd

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/mj1618/overlay-cli/internal/geometry"
	"github.com/mj1618/overlay-cli/internal/hierarchy"
)

// LabelMode controls what text is drawn on each annotated element.
type LabelMode int

const (
	// LabelCoords draws "(x,y)" viewport center coordinates.
	LabelCoords LabelMode = iota
	// LabelIndex draws "[i]" element indexes.
	LabelIndex
	// LabelNone draws boxes only.
	LabelNone
)

// RenderOverlay composites the screenshot into a container canvas using the
// transform's contain-fit rect, then draws each element's bounds and label,
// with every coordinate routed through the calibration transform.
func RenderOverlay(screenshot image.Image, elements []hierarchy.Element, t *geometry.Transform,
	containerW, containerH int, mode LabelMode) *image.RGBA {

	rect := t.Rect()
	canvasW, canvasH := containerW, containerH
	if canvasW <= 0 || canvasH <= 0 {
		// Degenerate container: fall back to the screenshot's own size.
		canvasW = screenshot.Bounds().Dx()
		canvasH = screenshot.Bounds().Dy()
	}
	canvas := image.NewRGBA(image.Rect(0, 0, canvasW, canvasH))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

	// Composite the screenshot into its contain-fit placement.
	dst := image.Rect(int(rect.Left), int(rect.Top), int(rect.Left+rect.Width), int(rect.Top+rect.Height))
	xdraw.ApproxBiLinear.Scale(canvas, dst, screenshot, screenshot.Bounds(), xdraw.Src, nil)

	boxColor := color.RGBA{R: 255, G: 0, B: 0, A: 255}
	textColor := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	outlineColor := color.RGBA{R: 0, G: 0, B: 0, A: 200}

	for i, el := range elements {
		drawElementBox(canvas, el, i, t, boxColor, textColor, outlineColor, mode)
	}
	return canvas
}

// drawElementBox maps one element's bounds through the transform and draws
// its box and label.
func drawElementBox(img *image.RGBA, el hierarchy.Element, index int, t *geometry.Transform,
	boxColor, textColor, outlineColor color.Color, mode LabelMode) {

	b := el.Bounds
	r := t.MapRect(float64(b.X1), float64(b.Y1), float64(b.X2), float64(b.Y2))
	if r.Width <= 0 || r.Height <= 0 {
		return
	}

	x1, y1 := int(r.X), int(r.Y)
	x2, y2 := int(r.X+r.Width), int(r.Y+r.Height)
	drawRectangle(img, x1, y1, x2, y2, boxColor)

	if mode == LabelNone {
		return
	}
	var label string
	switch mode {
	case LabelIndex:
		label = fmt.Sprintf("[%d]", index)
	default: // LabelCoords: viewport-space center, what a click dispatcher would use
		label = fmt.Sprintf("(%d,%d)", (b.X1+b.X2)/2, (b.Y1+b.Y2)/2)
	}
	drawTextWithOutline(img, label, (x1+x2)/2, (y1+y2)/2, textColor, outlineColor)
}

// isWithinBounds checks if a point is within the image bounds.
func isWithinBounds(bounds image.Rectangle, x, y int) bool {
	return x >= bounds.Min.X && x < bounds.Max.X && y >= bounds.Min.Y && y < bounds.Max.Y
}

// drawRectangle draws a rectangle outline on the image.
func drawRectangle(img *image.RGBA, x1, y1, x2, y2 int, c color.Color) {
	bounds := img.Bounds()

	// Clamp to image bounds
	if x1 < bounds.Min.X {
		x1 = bounds.Min.X
	}
	if y1 < bounds.Min.Y {
		y1 = bounds.Min.Y
	}
	if x2 > bounds.Max.X {
		x2 = bounds.Max.X
	}
	if y2 > bounds.Max.Y {
		y2 = bounds.Max.Y
	}

	if x2 <= x1 || y2 <= y1 {
		return // Empty rectangle
	}

	// Draw top and bottom lines
	for x := x1; x < x2; x++ {
		if isWithinBounds(bounds, x, y1) {
			img.Set(x, y1, c)
		}
		if isWithinBounds(bounds, x, y2-1) {
			img.Set(x, y2-1, c)
		}
	}

	// Draw left and right lines
	for y := y1; y < y2; y++ {
		if isWithinBounds(bounds, x1, y) {
			img.Set(x1, y, c)
		}
		if isWithinBounds(bounds, x2-1, y) {
			img.Set(x2-1, y, c)
		}
	}
}

// drawTextWithOutline draws text with an outline for better visibility.
func drawTextWithOutline(img *image.RGBA, text string, x, y int, textColor, outlineColor color.Color) {
	// basicfont.Face7x13: ~7px per character, ~13px line height
	textWidth := len(text) * 7
	textHeight := 13

	// Offset position to center the text at (x, y)
	offsetX := x - textWidth/2
	offsetY := y - textHeight/2

	// Draw outline (8 directions around the text)
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx == 0 && dy == 0 {
				continue // Skip center, we'll draw it as main text
			}
			p := fixed.Point26_6{
				X: fixed.Int26_6((offsetX + dx) * 64),
				Y: fixed.Int26_6((offsetY + dy) * 64),
			}
			d := &font.Drawer{
				Dst:  img,
				Src:  image.NewUniform(outlineColor),
				Face: basicfont.Face7x13,
				Dot:  p,
			}
			d.DrawString(text)
		}
	}

	// Draw main text
	point := fixed.Point26_6{
		X: fixed.Int26_6(offsetX * 64),
		Y: fixed.Int26_6(offsetY * 64),
	}
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(textColor),
		Face: basicfont.Face7x13,
		Dot:  point,
	}
	d.DrawString(text)
}
