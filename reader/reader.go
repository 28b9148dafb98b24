// Package reader parses PDF bytes into a document.Handle. Page geometry comes
// from pdfcpu; positioned glyphs come from ledongthuc/pdf and are grouped
// into runs of adjacent glyphs sharing a font, size and baseline.
package reader

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/wudi/pdfedit/coords"
	"github.com/wudi/pdfedit/document"
	"github.com/wudi/pdfedit/observability"
)

var disableConfigDir sync.Once

// Config tunes glyph grouping.
type Config struct {
	// BaselineTolerance is the largest baseline drift, as a fraction of the
	// font size, tolerated inside one run.
	BaselineTolerance float64
	// GapTolerance is the largest horizontal gap, as a fraction of the font
	// size, between consecutive glyphs of one run.
	GapTolerance float64
	Logger       observability.Logger
}

func DefaultConfig() Config {
	return Config{BaselineTolerance: 0.2, GapTolerance: 0.35}
}

// Parser implements document.Parser.
type Parser struct {
	cfg Config
}

func NewParser(cfg Config) *Parser {
	def := DefaultConfig()
	if cfg.BaselineTolerance <= 0 {
		cfg.BaselineTolerance = def.BaselineTolerance
	}
	if cfg.GapTolerance <= 0 {
		cfg.GapTolerance = def.GapTolerance
	}
	cfg.Logger = observability.OrNop(cfg.Logger)
	return &Parser{cfg: cfg}
}

// Parse reads data. Any failure of either backend is reported as
// document.ErrUnreadableDocument; no partial handle is returned.
func (p *Parser) Parse(ctx context.Context, data []byte) (h document.Handle, err error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty input: %w", document.ErrUnreadableDocument)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			h, err = nil, fmt.Errorf("parse panic %v: %w", r, document.ErrUnreadableDocument)
		}
	}()

	dims, err := PageDims(data)
	if err != nil {
		return nil, err
	}
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %v: %w", err, document.ErrUnreadableDocument)
	}
	if r.NumPage() != len(dims) {
		p.cfg.Logger.Warn("page count mismatch",
			observability.Int("geometry", len(dims)),
			observability.Int("content", r.NumPage()))
	}
	return &Handle{r: r, sizes: dims, cfg: p.cfg}, nil
}

// PageDims reads every page's size in points.
func PageDims(data []byte) ([]coords.PageSize, error) {
	disableConfigDir.Do(api.DisableConfigDir)
	ctx, err := api.ReadAndValidate(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return nil, fmt.Errorf("page geometry: %v: %w", err, document.ErrUnreadableDocument)
	}
	pbs, err := ctx.PageBoundaries(nil)
	if err != nil {
		return nil, fmt.Errorf("page geometry: %v: %w", err, document.ErrUnreadableDocument)
	}
	if len(pbs) != ctx.PageCount {
		return nil, fmt.Errorf("page geometry: %d boxes for %d pages: %w", len(pbs), ctx.PageCount, document.ErrUnreadableDocument)
	}
	out := make([]coords.PageSize, len(pbs))
	for i, pb := range pbs {
		out[i] = mediaSize(pb)
	}
	return out, nil
}

// mediaSize is the unrotated MediaBox size. Content streams, extracted
// origins and the builder's drawing space all ignore /Rotate.
func mediaSize(pb model.PageBoundaries) coords.PageSize {
	d := pb.MediaBox().Dimensions()
	return coords.PageSize{Width: d.Width, Height: d.Height}
}

// Validate runs pdfcpu's relaxed structural validation over data.
func Validate(data []byte) error {
	disableConfigDir.Do(api.DisableConfigDir)
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := api.Validate(bytes.NewReader(data), conf); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	return nil
}

// Handle implements document.Handle.
type Handle struct {
	r     *pdf.Reader
	sizes []coords.PageSize
	cfg   Config
}

func (h *Handle) PageCount() int { return len(h.sizes) }

func (h *Handle) PageSize(index int) (float64, float64, error) {
	if index < 0 || index >= len(h.sizes) {
		return 0, 0, fmt.Errorf("page %d: %w", index, document.ErrOutOfRange)
	}
	return h.sizes[index].Width, h.sizes[index].Height, nil
}

// ExtractPositionedText returns grouped runs for a page. A page whose content
// cannot be decoded yields no items rather than an error.
func (h *Handle) ExtractPositionedText(ctx context.Context, index int) (items []document.PositionedText, err error) {
	if index < 0 || index >= len(h.sizes) {
		return nil, fmt.Errorf("page %d: %w", index, document.ErrOutOfRange)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if index >= h.r.NumPage() {
		return nil, nil
	}
	page := h.r.Page(index + 1)
	if page.V.IsNull() {
		return nil, nil
	}
	defer func() {
		if r := recover(); r != nil {
			h.cfg.Logger.Warn("page content unreadable", observability.Int("page", index), observability.String("panic", fmt.Sprint(r)))
			items, err = nil, nil
		}
	}()
	return group(page.Content().Text, h.cfg), nil
}

type glyphRun struct {
	font  string
	size  float64
	x, y  float64
	end   float64
	text  strings.Builder
	width float64
}

func group(glyphs []pdf.Text, cfg Config) []document.PositionedText {
	var out []document.PositionedText
	var cur *glyphRun
	flush := func() {
		if cur == nil {
			return
		}
		text := strings.TrimRight(cur.text.String(), " ")
		if strings.TrimSpace(text) != "" {
			m := coords.Matrix{cur.size, 0, 0, cur.size, cur.x, cur.y}
			item := document.PositionedText{Text: text, FontName: cur.font, Matrix: &m}
			if w := cur.end - cur.x; w > 0 {
				item.Width = &w
			}
			out = append(out, item)
		}
		cur = nil
	}

	for _, g := range glyphs {
		if g.S == "" {
			continue
		}
		if cur != nil && !cur.accepts(g, cfg) {
			flush()
		}
		if cur == nil {
			if strings.TrimSpace(g.S) == "" {
				continue
			}
			cur = &glyphRun{font: g.Font, size: g.FontSize, x: g.X, y: g.Y, end: g.X}
		}
		cur.text.WriteString(g.S)
		cur.end = math.Max(cur.end, g.X+g.W)
	}
	flush()
	return out
}

func (r *glyphRun) accepts(g pdf.Text, cfg Config) bool {
	if g.Font != r.font || math.Abs(g.FontSize-r.size) > 0.01 {
		return false
	}
	tol := r.size
	if tol <= 0 {
		tol = 1
	}
	if math.Abs(g.Y-r.y) > tol*cfg.BaselineTolerance {
		return false
	}
	if g.X < r.x-0.01 {
		return false
	}
	gap := g.X - r.end
	// Sources without width tables report zero advances; fall back to a
	// font-size based reach.
	reach := tol * cfg.GapTolerance
	if r.end == r.x || g.W == 0 {
		reach = tol * 1.2
	}
	return gap <= reach
}
