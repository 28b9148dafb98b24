// Package textrun holds the positioned text runs extracted from a document.
//
// Runs are created once at extraction time. Their geometry is fixed; only the
// text may change afterwards.
package textrun

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/wudi/pdfedit/coords"
	"github.com/wudi/pdfedit/document"
	"github.com/wudi/pdfedit/observability"
)

// advanceRatio estimates glyph advance as a fraction of the font size when
// the source does not supply a width.
const advanceRatio = 0.6

// Run is one positioned, indivisible unit of text.
// X and Y locate the run in top-left point space.
type Run struct {
	ID       string
	Page     int
	Text     string
	X        float64
	Y        float64
	Width    float64
	Height   float64
	FontSize float64
	FontName string
	Color    document.Color
	Rotation float64
}

// Box is the run's fixed bounding box in top-left point space.
func (r Run) Box() coords.Rect {
	return coords.Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}

// Model owns every run of a document, in extraction order.
type Model struct {
	runs     []*Run
	byID     map[string]*Run
	byPage   map[int][]*Run
	original map[string]string
	indexes  map[int]*quadTree
	sizes    map[int]coords.PageSize
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{
		byID:     make(map[string]*Run),
		byPage:   make(map[int][]*Run),
		original: make(map[string]string),
		indexes:  make(map[int]*quadTree),
		sizes:    make(map[int]coords.PageSize),
	}
}

// Extract builds a model from every page of h. Items without a placement
// matrix or with an origin off the page are dropped individually.
func Extract(ctx context.Context, h document.Handle, logger observability.Logger) (*Model, error) {
	logger = observability.OrNop(logger)
	m := NewModel()
	dropped := 0
	for page := 0; page < h.PageCount(); page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		w, ht, err := h.PageSize(page)
		if err != nil {
			return nil, fmt.Errorf("page %d size: %w", page, err)
		}
		size := coords.PageSize{Width: w, Height: ht}
		m.sizes[page] = size

		items, err := h.ExtractPositionedText(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("page %d text: %w", page, err)
		}
		for _, item := range items {
			run, ok := fromItem(item, page, size)
			if !ok {
				dropped++
				logger.Debug("text item dropped", observability.Int("page", page), observability.String("text", item.Text))
				continue
			}
			run.ID = fmt.Sprintf("p%d-r%d", page, len(m.byPage[page]))
			m.add(run)
		}
	}
	logger.Info("text extracted",
		observability.Int("pages", h.PageCount()),
		observability.Int("runs", len(m.runs)),
		observability.Int("dropped", dropped))
	return m, nil
}

func fromItem(item document.PositionedText, page int, size coords.PageSize) (*Run, bool) {
	if item.Matrix == nil {
		return nil, false
	}
	mtx := *item.Matrix
	fontSize := mtx.FontSize()
	if fontSize == 0 && item.Height != nil {
		fontSize = *item.Height
	}

	width := float64(utf8.RuneCountInString(item.Text)) * fontSize * advanceRatio
	if item.Width != nil && *item.Width > 0 {
		width = *item.Width
	}
	height := fontSize
	if item.Height != nil && *item.Height > 0 {
		height = *item.Height
	}
	color := document.Black
	if item.Color != nil {
		color = *item.Color
	}

	origin := mtx.Origin()
	pos := coords.Point{X: origin.X, Y: coords.FlipY(origin.Y, size)}
	if !size.Contains(pos) {
		return nil, false
	}
	return &Run{
		Page:     page,
		Text:     item.Text,
		X:        pos.X,
		Y:        pos.Y,
		Width:    width,
		Height:   height,
		FontSize: fontSize,
		FontName: item.FontName,
		Color:    color,
		Rotation: mtx.Rotation(),
	}, true
}

// Add inserts a run built elsewhere; the run's ID must be unique.
func (m *Model) Add(r Run) error {
	if r.ID == "" {
		return fmt.Errorf("run id is required")
	}
	if _, ok := m.byID[r.ID]; ok {
		return fmt.Errorf("duplicate run id %q", r.ID)
	}
	m.add(&r)
	return nil
}

func (m *Model) add(r *Run) {
	m.runs = append(m.runs, r)
	m.byID[r.ID] = r
	m.byPage[r.Page] = append(m.byPage[r.Page], r)
	m.original[r.ID] = r.Text
	delete(m.indexes, r.Page)
}

// Update replaces the text of a run. Geometry never changes.
func (m *Model) Update(id, text string) error {
	r, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("run %q: %w", id, document.ErrNotFound)
	}
	r.Text = text
	return nil
}

// Revert restores the extracted text of a run.
func (m *Model) Revert(id string) error {
	orig, ok := m.original[id]
	if !ok {
		return fmt.Errorf("run %q: %w", id, document.ErrNotFound)
	}
	m.byID[id].Text = orig
	return nil
}

// Get returns a copy of a run.
func (m *Model) Get(id string) (Run, bool) {
	r, ok := m.byID[id]
	if !ok {
		return Run{}, false
	}
	return *r, true
}

// RunsForPage returns copies of a page's runs in extraction order.
func (m *Model) RunsForPage(page int) []Run {
	src := m.byPage[page]
	out := make([]Run, len(src))
	for i, r := range src {
		out[i] = *r
	}
	return out
}

// All returns copies of every run in extraction order.
func (m *Model) All() []Run {
	out := make([]Run, len(m.runs))
	for i, r := range m.runs {
		out[i] = *r
	}
	return out
}

func (m *Model) Len() int { return len(m.runs) }

// Modified returns the runs whose text differs from the extracted text.
func (m *Model) Modified() []Run {
	var out []Run
	for _, r := range m.runs {
		if r.Text != m.original[r.ID] {
			out = append(out, *r)
		}
	}
	return out
}

// At returns the topmost run whose box contains p on the given page.
func (m *Model) At(page int, p coords.Point) (Run, bool) {
	idx, ok := m.indexes[page]
	if !ok {
		idx = m.buildIndex(page)
		m.indexes[page] = idx
	}
	hits := idx.query(coords.Rect{X: p.X, Y: p.Y})
	best := -1
	for _, i := range hits {
		r := m.byPage[page][i]
		if r.Box().Contains(p.X, p.Y) && i > best {
			best = i
		}
	}
	if best < 0 {
		return Run{}, false
	}
	return *m.byPage[page][best], true
}

func (m *Model) buildIndex(page int) *quadTree {
	size, ok := m.sizes[page]
	bounds := coords.Rect{Width: size.Width, Height: size.Height}
	if !ok || size.Width == 0 || size.Height == 0 {
		bounds = coords.Rect{}
		for _, r := range m.byPage[page] {
			bounds.Width = max(bounds.Width, r.X+r.Width)
			bounds.Height = max(bounds.Height, r.Y+r.Height)
		}
	}
	qt := newQuadTree(bounds, 10)
	for i, r := range m.byPage[page] {
		qt.insert(r.Box(), i)
	}
	return qt
}

// Blank reports whether the run's text has nothing to draw.
func (r Run) Blank() bool {
	return strings.TrimSpace(r.Text) == ""
}
