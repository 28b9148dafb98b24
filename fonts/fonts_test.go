package fonts

import "testing"

func TestMeasureGrowsWithText(t *testing.T) {
	short, err := Measure("Hi", 12)
	if err != nil {
		t.Fatalf("measure: %v", err)
	}
	long, err := Measure("Hello, world", 12)
	if err != nil {
		t.Fatalf("measure: %v", err)
	}
	if short <= 0 || long <= short {
		t.Fatalf("short=%v long=%v", short, long)
	}
	double, _ := Measure("Hello, world", 24)
	if double < long*1.9 || double > long*2.1 {
		t.Fatalf("advance should scale with size: %v vs %v", double, long)
	}
	if w, _ := Measure("", 12); w != 0 {
		t.Fatalf("empty text width = %v", w)
	}
}

func TestFacesCache(t *testing.T) {
	c := NewFaces()
	a, err := c.Face(14)
	if err != nil {
		t.Fatalf("face: %v", err)
	}
	b, _ := c.Face(14.05)
	if a != b {
		t.Fatalf("expected cached face for nearby size")
	}
	if _, err := c.Face(0); err == nil {
		t.Fatalf("expected error for zero size")
	}
	if m := a.Metrics(); m.Ascent <= 0 {
		t.Fatalf("ascent = %v", m.Ascent)
	}
	if len(FallbackTTF()) == 0 {
		t.Fatalf("fallback program empty")
	}
}
