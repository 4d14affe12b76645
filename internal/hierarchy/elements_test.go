package hierarchy

import "testing"

const sampleDump = `<?xml version='1.0' encoding='UTF-8' standalone='yes' ?>
<hierarchy rotation="0">
  <node index="0" class="android.widget.FrameLayout" package="com.example.app" bounds="[0,0][720,1484]" clickable="false">
    <node index="0" text="Sign in" resource-id="com.example.app:id/sign_in" class="android.widget.Button" bounds="[40,1200][680,1300]" clickable="true"/>
    <node index="1" text="" resource-id="com.example.app:id/avatar" class="android.widget.ImageView" bounds="[300,200][420,320]" clickable="false"/>
    <node index="2" text="" resource-id="" class="android.view.View" bounds="[0,0][0,0]" clickable="true"/>
  </node>
</hierarchy>`

func TestParseElements_BasicFields(t *testing.T) {
	elements := ParseElements(sampleDump)
	// The zero-area node is dropped; the root and two children remain.
	if len(elements) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(elements))
	}
	btn := elements[1]
	if btn.Text != "Sign in" {
		t.Errorf("expected text 'Sign in', got %q", btn.Text)
	}
	if btn.ResourceID != "com.example.app:id/sign_in" {
		t.Errorf("unexpected resource id: %q", btn.ResourceID)
	}
	if !btn.Clickable {
		t.Error("expected button to be clickable")
	}
	if btn.Bounds.X1 != 40 || btn.Bounds.Y2 != 1300 {
		t.Errorf("unexpected bounds: %+v", btn.Bounds)
	}
	if btn.BoundsRaw != "[40,1200][680,1300]" {
		t.Errorf("unexpected raw bounds: %q", btn.BoundsRaw)
	}
}

func TestParseElements_PrefersClassAttribute(t *testing.T) {
	elements := ParseElements(sampleDump)
	if elements[0].Class != "android.widget.FrameLayout" {
		t.Errorf("expected class attribute, got %q", elements[0].Class)
	}
}

func TestParseElements_TruncatedInput(t *testing.T) {
	truncated := sampleDump[:len(sampleDump)/2]
	// Best-effort: whatever parsed before the error is returned.
	elements := ParseElements(truncated)
	if len(elements) == 0 {
		t.Error("expected at least the root element from truncated input")
	}
}

func TestFilterClickable(t *testing.T) {
	clickable := FilterClickable(ParseElements(sampleDump))
	if len(clickable) != 1 {
		t.Fatalf("expected 1 clickable element, got %d", len(clickable))
	}
	if clickable[0].Text != "Sign in" {
		t.Errorf("expected the sign-in button, got %+v", clickable[0])
	}
}

func TestFilterByText(t *testing.T) {
	elements := ParseElements(sampleDump)
	matches := FilterByText(elements, "avatar")
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].ResourceID != "com.example.app:id/avatar" {
		t.Errorf("unexpected match: %+v", matches[0])
	}
}

func TestElementLabel(t *testing.T) {
	cases := []struct {
		el   Element
		want string
	}{
		{Element{Text: "OK", ResourceID: "app:id/ok"}, "OK"},
		{Element{ResourceID: "com.example.app:id/sign_in"}, "sign_in"},
		{Element{Class: "android.widget.Button"}, "Button"},
		{Element{Class: "View"}, "View"},
	}
	for _, c := range cases {
		if got := c.el.Label(); got != c.want {
			t.Errorf("Label(%+v) = %q, want %q", c.el, got, c.want)
		}
	}
}
