package hierarchy

import "regexp"

// Viewport is the coordinate space width/height declared by a hierarchy dump.
type Viewport struct {
	Width  int `yaml:"width"  json:"width"`
	Height int `yaml:"height" json:"height"`
}

// rootBoundsRe matches a bounds attribute inside the opening <hierarchy> tag
// itself. Most uiautomator dumps put the full-screen rect on the first node
// instead, which the origin-preference scan below picks up.
var rootBoundsRe = regexp.MustCompile(`<hierarchy[^>]*\bbounds="(\[-?\d+,-?\d+\]\[-?\d+,-?\d+\])"`)

// ExtractViewport derives the declared viewport size from raw hierarchy text.
//
// Preference order:
//  1. an explicit bounds attribute on the root <hierarchy> tag
//  2. the largest-area bounds rectangle whose origin is (0,0)
//  3. the largest-area bounds rectangle anywhere in the dump
//
// Returns nil when no positive-area bounds exist. Malformed or empty input
// never panics; it degrades to nil.
func ExtractViewport(text string) *Viewport {
	if m := rootBoundsRe.FindStringSubmatch(text); m != nil {
		if r, ok := ParseBounds(m[1]); ok && r.Area() > 0 {
			return &Viewport{Width: r.Width(), Height: r.Height()}
		}
	}

	rects := parseAllBounds(text)
	if len(rects) == 0 {
		return nil
	}

	var bestOrigin, bestAny *Rect
	for i := range rects {
		r := &rects[i]
		if r.Area() == 0 {
			continue
		}
		if bestAny == nil || r.Area() > bestAny.Area() {
			bestAny = r
		}
		if r.X1 == 0 && r.Y1 == 0 {
			if bestOrigin == nil || r.Area() > bestOrigin.Area() {
				bestOrigin = r
			}
		}
	}

	best := bestOrigin
	if best == nil {
		best = bestAny
	}
	if best == nil {
		return nil
	}
	return &Viewport{Width: best.Width(), Height: best.Height()}
}
