package hierarchy

import (
	"regexp"
	"strconv"
)

// Rect is an axis-aligned rectangle parsed from a bounds attribute,
// expressed as two corners in viewport coordinates.
type Rect struct {
	X1, Y1, X2, Y2 int
}

// Width returns the rectangle width (may be non-positive for degenerate bounds).
func (r Rect) Width() int { return r.X2 - r.X1 }

// Height returns the rectangle height (may be non-positive for degenerate bounds).
func (r Rect) Height() int { return r.Y2 - r.Y1 }

// Area returns the rectangle area, or 0 for degenerate bounds.
func (r Rect) Area() int64 {
	w, h := r.Width(), r.Height()
	if w <= 0 || h <= 0 {
		return 0
	}
	return int64(w) * int64(h)
}

// boundsRe matches a "[x1,y1][x2,y2]" bounds value. uiautomator dumps emit
// non-negative coordinates, but off-screen elements can carry negative ones.
var boundsRe = regexp.MustCompile(`\[(-?\d+),(-?\d+)\]\[(-?\d+),(-?\d+)\]`)

// ParseBounds parses a single "[x1,y1][x2,y2]" bounds string.
// Returns ok=false for malformed input.
func ParseBounds(s string) (Rect, bool) {
	m := boundsRe.FindStringSubmatch(s)
	if m == nil {
		return Rect{}, false
	}
	return rectFromMatch(m), true
}

func rectFromMatch(m []string) Rect {
	// The regexp guarantees each group is a valid integer.
	x1, _ := strconv.Atoi(m[1])
	y1, _ := strconv.Atoi(m[2])
	x2, _ := strconv.Atoi(m[3])
	y2, _ := strconv.Atoi(m[4])
	return Rect{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// parseAllBounds extracts every bounds rectangle occurring in the text,
// in document order. Malformed occurrences are simply not matched.
func parseAllBounds(text string) []Rect {
	matches := boundsRe.FindAllStringSubmatch(text, -1)
	if matches == nil {
		return nil
	}
	rects := make([]Rect, 0, len(matches))
	for _, m := range matches {
		rects = append(rects, rectFromMatch(m))
	}
	return rects
}
