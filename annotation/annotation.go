// Package annotation holds free-form marks drawn over pages. Points are
// stored as page fractions so that replay at any zoom lands on the same spot.
package annotation

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/wudi/pdfedit/coords"
	"github.com/wudi/pdfedit/document"
)

// Kind is the shape of an annotation.
type Kind int

const (
	Stroke Kind = iota
	Highlight
	Rectangle
	Circle
)

func (k Kind) String() string {
	switch k {
	case Stroke:
		return "stroke"
	case Highlight:
		return "highlight"
	case Rectangle:
		return "rectangle"
	case Circle:
		return "circle"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Valid reports whether k is one of the defined kinds.
func (k Kind) Valid() bool { return k >= Stroke && k <= Circle }

// ParseKind maps a kind name back to a Kind.
func ParseKind(s string) (Kind, error) {
	for k := Stroke; k <= Circle; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown annotation kind %q", s)
}

type ID string

// Annotation is one mark. Path points are page fractions.
type Annotation struct {
	ID          ID
	Page        int
	Kind        Kind
	Path        []coords.Fraction
	Color       document.Color
	StrokeWidth float64
	Committed   bool
}

// Style is the appearance given to new annotations.
type Style struct {
	Color       document.Color
	StrokeWidth float64
}

// Model owns annotations for every page, in creation order.
type Model struct {
	items []*Annotation
	byID  map[ID]*Annotation
}

func NewModel() *Model {
	return &Model{byID: make(map[ID]*Annotation)}
}

// Begin starts a draft annotation at a surface pixel.
func (m *Model) Begin(page int, kind Kind, start coords.Pixel, vp coords.Viewport, style Style) (ID, error) {
	if !kind.Valid() {
		return "", fmt.Errorf("annotation kind %d invalid", int(kind))
	}
	a := &Annotation{
		ID:          ID(uuid.NewString()),
		Page:        page,
		Kind:        kind,
		Path:        []coords.Fraction{coords.PixelToFraction(start, vp)},
		Color:       style.Color,
		StrokeWidth: style.StrokeWidth,
	}
	m.items = append(m.items, a)
	m.byID[a.ID] = a
	return a.ID, nil
}

// Extend appends a point to a draft. Unknown or committed ids are ignored.
func (m *Model) Extend(id ID, p coords.Pixel, vp coords.Viewport) {
	a, ok := m.byID[id]
	if !ok || a.Committed {
		return
	}
	a.Path = append(a.Path, coords.PixelToFraction(p, vp))
}

// Commit finalizes a draft; it is immutable afterwards.
func (m *Model) Commit(id ID) error {
	a, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("annotation %s: %w", id, document.ErrNotFound)
	}
	a.Committed = true
	return nil
}

func (m *Model) Remove(id ID) error {
	if _, ok := m.byID[id]; !ok {
		return fmt.Errorf("annotation %s: %w", id, document.ErrNotFound)
	}
	delete(m.byID, id)
	for i, a := range m.items {
		if a.ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			break
		}
	}
	return nil
}

// Get returns a copy of an annotation.
func (m *Model) Get(id ID) (Annotation, bool) {
	a, ok := m.byID[id]
	if !ok {
		return Annotation{}, false
	}
	return a.clone(), true
}

// ForPage returns copies of a page's annotations in creation order.
func (m *Model) ForPage(page int) []Annotation {
	var out []Annotation
	for _, a := range m.items {
		if a.Page == page {
			out = append(out, a.clone())
		}
	}
	return out
}

// LastCommitted returns the newest committed annotation on a page.
func (m *Model) LastCommitted(page int) (Annotation, bool) {
	for i := len(m.items) - 1; i >= 0; i-- {
		if a := m.items[i]; a.Page == page && a.Committed {
			return a.clone(), true
		}
	}
	return Annotation{}, false
}

func (m *Model) Len() int { return len(m.items) }

func (a *Annotation) clone() Annotation {
	c := *a
	c.Path = append([]coords.Fraction(nil), a.Path...)
	return c
}

// Project replays the path onto a surface.
func (a Annotation) Project(vp coords.Viewport) []coords.Pixel {
	out := make([]coords.Pixel, len(a.Path))
	for i, f := range a.Path {
		out[i] = coords.FractionToPixel(f, vp)
	}
	return out
}
