package coords

import (
	"math"
	"testing"
)

const eps = 1e-9

func near(a, b float64) bool { return math.Abs(a-b) < eps }

func TestMatrixInverse(t *testing.T) {
	m := Translate(10, 20).Multiply(Scale(2, 3))
	inv, err := m.Inverse()
	if err != nil {
		t.Fatalf("inverse: %v", err)
	}
	p := Point{X: 7, Y: -4}
	got := inv.Transform(m.Transform(p))
	if !near(got.X, p.X) || !near(got.Y, p.Y) {
		t.Fatalf("round trip got %+v want %+v", got, p)
	}
	if _, err := (Matrix{}).Inverse(); err == nil {
		t.Fatalf("expected singular matrix error")
	}
}

func TestMatrixFontSizeAndRotation(t *testing.T) {
	m := Matrix{12, 0, 0, -14, 5, 6}
	if m.FontSize() != 14 {
		t.Fatalf("font size = %v", m.FontSize())
	}
	if m.Rotation() != 0 {
		t.Fatalf("rotation = %v", m.Rotation())
	}
	r := Rotate(math.Pi / 2)
	if !near(r.Rotation(), 90) {
		t.Fatalf("rotation = %v", r.Rotation())
	}
}

func TestPixelFractionRoundTrip(t *testing.T) {
	size := PageSize{Width: 612, Height: 792}
	for _, scale := range []float64{0.1, 0.5, 1, 1.37, 2, 5} {
		vp := NewViewport(0, size, scale)
		for _, p := range []Pixel{{0, 0}, {10, 20}, {vp.WidthPx, vp.HeightPx}, {123.456, 7.89}} {
			got := FractionToPixel(PixelToFraction(p, vp), vp)
			if math.Abs(got.X-p.X) > 1e-6 || math.Abs(got.Y-p.Y) > 1e-6 {
				t.Fatalf("scale %v: got %+v want %+v", scale, got, p)
			}
		}
	}
}

func TestPointPixelRoundTrip(t *testing.T) {
	size := PageSize{Width: 200, Height: 300}
	for _, scale := range []float64{0.1, 1, 3.3} {
		vp := NewViewport(0, size, scale)
		p := Point{X: 12.5, Y: 250}
		px := PointToPixel(p, size, vp)
		if !near(px.X, p.X*scale) || !near(px.Y, p.Y*scale) {
			t.Fatalf("point to pixel = %+v", px)
		}
		back := PixelToPoint(px, size, vp)
		if math.Abs(back.X-p.X) > 1e-9 || math.Abs(back.Y-p.Y) > 1e-9 {
			t.Fatalf("pixel to point = %+v", back)
		}
	}
}

func TestFractionScaleIndependence(t *testing.T) {
	size := PageSize{Width: 200, Height: 200}
	at1 := NewViewport(0, size, 1)
	at2 := NewViewport(0, size, 2)
	f := PixelToFraction(Pixel{X: 100, Y: 150}, at1)
	got := FractionToPixel(f, at2)
	if got.X != 200 || got.Y != 300 {
		t.Fatalf("replay at 2x = %+v", got)
	}
}

func TestCoverRectAndBaseline(t *testing.T) {
	size := PageSize{Width: 200, Height: 200}
	box := Rect{X: 10, Y: 20, Width: 50, Height: 14}
	got := CoverRect(box, size, 2)
	want := Rect{X: 8, Y: 164, Width: 54, Height: 18}
	if got != want {
		t.Fatalf("cover = %+v want %+v", got, want)
	}
	if b := Baseline(20, size); b != 180 {
		t.Fatalf("baseline = %v", b)
	}
	if tl := TopLeftRect(Rect{X: 8, Y: 166, Width: 50, Height: 14}, size); tl.Y != 20 {
		t.Fatalf("top-left = %+v", tl)
	}

	// The plain cover tops out at the baseline plus padding.
	if top := got.Y + got.Height; top != 182 {
		t.Fatalf("cover top = %v", top)
	}
	lifted := LiftCover(got, 0.8*box.Height)
	if lifted.Y < 175 || lifted.Y > 175.3 || lifted.Height != 18 || lifted.X != 8 {
		t.Fatalf("lifted = %+v", lifted)
	}
	if top := lifted.Y + lifted.Height; top < 180+0.8*box.Height {
		t.Fatalf("lifted cover top %v is below the ascent", top)
	}
}

func TestScaleToFit(t *testing.T) {
	size := PageSize{Width: 100, Height: 200}
	if s := ScaleToFit(300, size.Width); s != 3 {
		t.Fatalf("fit width = %v", s)
	}
	if s := ScaleToFitSurface(300, 300, size); s != 1.5 {
		t.Fatalf("fit surface = %v", s)
	}
	if s := ScaleToFit(300, 0); s != 0 {
		t.Fatalf("fit zero page = %v", s)
	}
}
