package annotation_test

import (
	"errors"
	"testing"

	"github.com/wudi/pdfedit/annotation"
	"github.com/wudi/pdfedit/coords"
	"github.com/wudi/pdfedit/document"
)

var page = coords.PageSize{Width: 200, Height: 200}

func TestRectangleReplayAtNewScale(t *testing.T) {
	m := annotation.NewModel()
	at1 := coords.NewViewport(0, page, 1)
	id, err := m.Begin(0, annotation.Rectangle, coords.Pixel{X: 100, Y: 100}, at1, annotation.Style{})
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	m.Extend(id, coords.Pixel{X: 150, Y: 150}, at1)
	if err := m.Commit(id); err != nil {
		t.Fatalf("commit: %v", err)
	}

	a, ok := m.Get(id)
	if !ok {
		t.Fatalf("annotation missing")
	}
	got := a.Project(coords.NewViewport(0, page, 2))
	want := []coords.Pixel{{X: 200, Y: 200}, {X: 300, Y: 300}}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("projected = %+v want %+v", got, want)
	}
}

func TestScaleIndependence(t *testing.T) {
	for _, tc := range []struct{ s1, s2 float64 }{{0.5, 3}, {2, 0.25}, {1.3, 1.3}} {
		m := annotation.NewModel()
		vp1 := coords.NewViewport(0, page, tc.s1)
		p := coords.Pixel{X: 37 * tc.s1, Y: 81 * tc.s1}
		id, _ := m.Begin(0, annotation.Stroke, p, vp1, annotation.Style{})
		a, _ := m.Get(id)

		vp2 := coords.NewViewport(0, page, tc.s2)
		got := coords.PixelToFraction(a.Project(vp2)[0], vp2)
		want := coords.PixelToFraction(p, vp1)
		if d := got.X - want.X; d > 1e-12 || d < -1e-12 {
			t.Fatalf("s1=%v s2=%v: fraction x %v want %v", tc.s1, tc.s2, got.X, want.X)
		}
		if d := got.Y - want.Y; d > 1e-12 || d < -1e-12 {
			t.Fatalf("s1=%v s2=%v: fraction y %v want %v", tc.s1, tc.s2, got.Y, want.Y)
		}
	}
}

func TestExtendIgnoresCommittedAndUnknown(t *testing.T) {
	m := annotation.NewModel()
	vp := coords.NewViewport(0, page, 1)
	id, _ := m.Begin(0, annotation.Stroke, coords.Pixel{X: 1, Y: 1}, vp, annotation.Style{})
	m.Extend(id, coords.Pixel{X: 2, Y: 2}, vp)
	if err := m.Commit(id); err != nil {
		t.Fatalf("commit: %v", err)
	}
	m.Extend(id, coords.Pixel{X: 3, Y: 3}, vp)
	m.Extend("missing", coords.Pixel{X: 3, Y: 3}, vp)

	a, _ := m.Get(id)
	if len(a.Path) != 2 || !a.Committed {
		t.Fatalf("committed annotation mutated: %+v", a)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	m := annotation.NewModel()
	vp := coords.NewViewport(0, page, 1)
	id, _ := m.Begin(0, annotation.Stroke, coords.Pixel{X: 10, Y: 10}, vp, annotation.Style{})
	a, _ := m.Get(id)
	a.Path[0] = coords.Fraction{X: 0.9, Y: 0.9}
	b, _ := m.Get(id)
	if b.Path[0] == a.Path[0] {
		t.Fatalf("path shared with caller")
	}
}

func TestRemoveAndForPage(t *testing.T) {
	m := annotation.NewModel()
	vp := coords.NewViewport(0, page, 1)
	a, _ := m.Begin(0, annotation.Highlight, coords.Pixel{}, vp, annotation.Style{StrokeWidth: 12})
	b, _ := m.Begin(1, annotation.Circle, coords.Pixel{}, vp, annotation.Style{})
	c, _ := m.Begin(0, annotation.Stroke, coords.Pixel{}, vp, annotation.Style{})
	_ = m.Commit(a)
	_ = m.Commit(c)

	if got := m.ForPage(0); len(got) != 2 || got[0].ID != a || got[1].ID != c {
		t.Fatalf("page 0 = %+v", got)
	}
	last, ok := m.LastCommitted(0)
	if !ok || last.ID != c {
		t.Fatalf("last committed = %+v", last)
	}
	if err := m.Remove(c); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := m.Remove(c); !errors.Is(err, document.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if got := m.ForPage(0); len(got) != 1 || got[0].StrokeWidth != 12 {
		t.Fatalf("page 0 after remove = %+v", got)
	}
	if got := m.ForPage(1); len(got) != 1 || got[0].ID != b {
		t.Fatalf("page 1 = %+v", got)
	}
	if err := m.Commit("missing"); !errors.Is(err, document.ErrNotFound) {
		t.Fatalf("commit unknown: %v", err)
	}
}

func TestKinds(t *testing.T) {
	if _, err := annotation.NewModel().Begin(0, annotation.Kind(9), coords.Pixel{}, coords.Viewport{}, annotation.Style{}); err == nil {
		t.Fatalf("expected invalid kind error")
	}
	for _, k := range []annotation.Kind{annotation.Stroke, annotation.Highlight, annotation.Rectangle, annotation.Circle} {
		got, err := annotation.ParseKind(k.String())
		if err != nil || got != k {
			t.Fatalf("parse %v: %v %v", k, got, err)
		}
	}
	if _, err := annotation.ParseKind("blob"); err == nil {
		t.Fatalf("expected unknown kind error")
	}
}
