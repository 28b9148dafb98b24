package textrun

import "github.com/wudi/pdfedit/coords"

// quadTree indexes run boxes for hit testing.
type quadTree struct {
	bounds   coords.Rect
	capacity int
	items    []quadItem
	nodes    []*quadTree
}

type quadItem struct {
	rect  coords.Rect
	index int
}

func newQuadTree(bounds coords.Rect, capacity int) *quadTree {
	return &quadTree{
		bounds:   bounds,
		capacity: capacity,
		items:    make([]quadItem, 0, capacity),
	}
}

func (qt *quadTree) insert(rect coords.Rect, index int) bool {
	if !qt.bounds.Intersects(rect) {
		return false
	}

	if qt.nodes != nil {
		for _, node := range qt.nodes {
			if contains(node.bounds, rect) && node.insert(rect, index) {
				return true
			}
		}
		// Straddles a split line; keep it here.
		qt.items = append(qt.items, quadItem{rect: rect, index: index})
		return true
	}

	if len(qt.items) < qt.capacity || qt.bounds.Width < 1 || qt.bounds.Height < 1 {
		qt.items = append(qt.items, quadItem{rect: rect, index: index})
		return true
	}

	qt.subdivide()
	old := qt.items
	qt.items = make([]quadItem, 0, qt.capacity)
	for _, it := range old {
		qt.insert(it.rect, it.index)
	}
	return qt.insert(rect, index)
}

func (qt *quadTree) subdivide() {
	b := qt.bounds
	hw, hh := b.Width/2, b.Height/2
	qt.nodes = []*quadTree{
		newQuadTree(coords.Rect{X: b.X, Y: b.Y, Width: hw, Height: hh}, qt.capacity),
		newQuadTree(coords.Rect{X: b.X + hw, Y: b.Y, Width: hw, Height: hh}, qt.capacity),
		newQuadTree(coords.Rect{X: b.X, Y: b.Y + hh, Width: hw, Height: hh}, qt.capacity),
		newQuadTree(coords.Rect{X: b.X + hw, Y: b.Y + hh, Width: hw, Height: hh}, qt.capacity),
	}
}

func (qt *quadTree) query(r coords.Rect) []int {
	if !qt.bounds.Intersects(r) {
		return nil
	}
	var found []int
	for _, it := range qt.items {
		if it.rect.Intersects(r) {
			found = append(found, it.index)
		}
	}
	for _, node := range qt.nodes {
		found = append(found, node.query(r)...)
	}
	return found
}

func contains(outer, inner coords.Rect) bool {
	return inner.X >= outer.X && inner.X+inner.Width <= outer.X+outer.Width &&
		inner.Y >= outer.Y && inner.Y+inner.Height <= outer.Y+outer.Height
}
