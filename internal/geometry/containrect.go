package geometry

// VerticalAlign selects where a width-constrained image sits inside its
// container. It has no effect on the height-constrained axis, which is
// always centered horizontally.
type VerticalAlign string

const (
	AlignTop    VerticalAlign = "top"
	AlignCenter VerticalAlign = "center"
	AlignBottom VerticalAlign = "bottom"
)

// ParseVerticalAlign returns the alignment for s, or AlignCenter for
// anything unrecognized.
func ParseVerticalAlign(s string) VerticalAlign {
	switch VerticalAlign(s) {
	case AlignTop, AlignCenter, AlignBottom:
		return VerticalAlign(s)
	}
	return AlignCenter
}

// ContainRect is the aspect-preserving placement of an image inside a
// container: the image is scaled to fit fully inside while keeping its
// aspect ratio, with the shorter axis aligned per policy.
type ContainRect struct {
	Left   float64 `yaml:"left"   json:"left"`
	Top    float64 `yaml:"top"    json:"top"`
	Width  float64 `yaml:"width"  json:"width"`
	Height float64 `yaml:"height" json:"height"`
}

// CenterX returns the horizontal center of the rect.
func (r ContainRect) CenterX() float64 { return r.Left + r.Width/2 }

// CenterY returns the vertical center of the rect.
func (r ContainRect) CenterY() float64 { return r.Top + r.Height/2 }

// ComputeContainRect computes the contain-fit rectangle of an image inside
// a container. Non-positive dimensions yield a zero rect rather than a
// division by zero.
func ComputeContainRect(containerW, containerH, imageW, imageH float64, align VerticalAlign) ContainRect {
	if containerW <= 0 || containerH <= 0 || imageW <= 0 || imageH <= 0 {
		return ContainRect{}
	}

	rImg := imageW / imageH
	rCont := containerW / containerH

	if rImg > rCont {
		// Image is relatively wider: full container width, height scaled down.
		drawW := containerW
		drawH := containerW / rImg
		var top float64
		switch align {
		case AlignTop:
			top = 0
		case AlignBottom:
			top = containerH - drawH
		default:
			top = (containerH - drawH) / 2
		}
		return ContainRect{Left: 0, Top: top, Width: drawW, Height: drawH}
	}

	// Image is relatively taller (or equal): full container height, width
	// scaled down, horizontally centered.
	drawH := containerH
	drawW := containerH * rImg
	return ContainRect{Left: (containerW - drawW) / 2, Top: 0, Width: drawW, Height: drawH}
}
