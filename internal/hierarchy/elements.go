package hierarchy

import (
	"encoding/xml"
	"strings"
)

// Element is a single node from a hierarchy dump, flattened for annotation.
type Element struct {
	Class      string `yaml:"class,omitempty"       json:"class,omitempty"`
	Text       string `yaml:"text,omitempty"        json:"text,omitempty"`
	ResourceID string `yaml:"resource_id,omitempty" json:"resource_id,omitempty"`
	Bounds     Rect   `yaml:"-"                     json:"-"`
	BoundsRaw  string `yaml:"bounds"                json:"bounds"`
	Clickable  bool   `yaml:"clickable,omitempty"   json:"clickable,omitempty"`
}

// Label returns the best short label for an element: text, then the last
// segment of the resource id, then the bare class name.
func (e Element) Label() string {
	if e.Text != "" {
		return e.Text
	}
	if e.ResourceID != "" {
		if idx := strings.LastIndexAny(e.ResourceID, "/:"); idx >= 0 && idx < len(e.ResourceID)-1 {
			return e.ResourceID[idx+1:]
		}
		return e.ResourceID
	}
	if idx := strings.LastIndex(e.Class, "."); idx >= 0 && idx < len(e.Class)-1 {
		return e.Class[idx+1:]
	}
	return e.Class
}

// ParseElements extracts every node carrying a well-formed, positive-area
// bounds attribute from the hierarchy text, in document order. Parsing is
// best-effort: on a tokenizer error the elements read so far are returned.
func ParseElements(text string) []Element {
	dec := xml.NewDecoder(strings.NewReader(text))
	var elements []Element
	for {
		tok, err := dec.Token()
		if err != nil {
			return elements
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		el := Element{Class: start.Name.Local}
		var boundsRaw string
		for _, attr := range start.Attr {
			switch attr.Name.Local {
			case "bounds":
				boundsRaw = attr.Value
			case "text":
				el.Text = attr.Value
			case "resource-id":
				el.ResourceID = attr.Value
			case "class":
				// uiautomator nodes are all <node class="...">; prefer the
				// class attribute over the tag name when present.
				if attr.Value != "" {
					el.Class = attr.Value
				}
			case "clickable":
				el.Clickable = attr.Value == "true"
			}
		}
		r, ok := ParseBounds(boundsRaw)
		if !ok || r.Area() == 0 {
			continue
		}
		el.Bounds = r
		el.BoundsRaw = boundsRaw
		elements = append(elements, el)
	}
}

// FilterClickable returns only the elements marked clickable.
func FilterClickable(elements []Element) []Element {
	var result []Element
	for _, el := range elements {
		if el.Clickable {
			result = append(result, el)
		}
	}
	return result
}

// FilterByText returns elements whose text, resource id, or class contains
// the given text (case-insensitive substring).
func FilterByText(elements []Element, text string) []Element {
	textLower := strings.ToLower(text)
	var result []Element
	for _, el := range elements {
		if strings.Contains(strings.ToLower(el.Text), textLower) ||
			strings.Contains(strings.ToLower(el.ResourceID), textLower) ||
			strings.Contains(strings.ToLower(el.Class), textLower) {
			result = append(result, el)
		}
	}
	return result
}
