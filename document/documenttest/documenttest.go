// Package documenttest provides in-memory document backends for tests.
package documenttest

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/wudi/pdfedit/coords"
	"github.com/wudi/pdfedit/document"
)

// Page is one page of a fake document.
type Page struct {
	Width, Height float64
	Items         []document.PositionedText
}

// Handle is a document.Handle over fixed pages.
type Handle struct {
	Pages []Page
	// TextErr, when set, is returned by every text extraction.
	TextErr error
}

func (h *Handle) PageCount() int { return len(h.Pages) }

func (h *Handle) PageSize(index int) (float64, float64, error) {
	if index < 0 || index >= len(h.Pages) {
		return 0, 0, document.ErrOutOfRange
	}
	return h.Pages[index].Width, h.Pages[index].Height, nil
}

func (h *Handle) ExtractPositionedText(_ context.Context, index int) ([]document.PositionedText, error) {
	if index < 0 || index >= len(h.Pages) {
		return nil, document.ErrOutOfRange
	}
	if h.TextErr != nil {
		return nil, h.TextErr
	}
	return h.Pages[index].Items, nil
}

// Item builds a positioned text item whose baseline origin is (x, y) in
// bottom-left space.
func Item(text string, x, y, size float64) document.PositionedText {
	m := coords.Matrix{size, 0, 0, size, x, y}
	return document.PositionedText{Text: text, FontName: "Helvetica", Matrix: &m}
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Parser returns Doc for any input except Reject.
type Parser struct {
	Doc    *Handle
	Reject bool
}

func (p *Parser) Parse(_ context.Context, data []byte) (document.Handle, error) {
	if p.Reject || len(data) == 0 {
		return nil, fmt.Errorf("fake parse: %w", document.ErrUnreadableDocument)
	}
	return p.Doc, nil
}

// Rasterizer paints a solid surface sized to the scaled page, white unless
// Fill is set. Gate, when set, blocks each call until a value is received.
type Rasterizer struct {
	Fill  color.Color
	Gate  chan struct{}
	mu    sync.Mutex
	Calls int
}

func (r *Rasterizer) Rasterize(ctx context.Context, h document.Handle, index int, scale float64) (image.Image, error) {
	r.mu.Lock()
	r.Calls++
	r.mu.Unlock()
	if r.Gate != nil {
		select {
		case <-r.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	w, ht, err := h.PageSize(index)
	if err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, int(w*scale), int(ht*scale)))
	var fill color.Color = color.White
	if r.Fill != nil {
		fill = r.Fill
	}
	draw.Draw(img, img.Bounds(), image.NewUniform(fill), image.Point{}, draw.Src)
	return img, nil
}

// Op is one recorded drawing call.
type Op struct {
	Kind  string  `json:"kind"`
	Page  int     `json:"page"`
	Text  string  `json:"text,omitempty"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	W     float64 `json:"w,omitempty"`
	H     float64 `json:"h,omitempty"`
	Size  float64 `json:"size,omitempty"`
	Font  string  `json:"font,omitempty"`
	Color document.Color
}

// Constructor opens MutableDocuments that record their operations.
type Constructor struct {
	Pages []Page
	// FailFonts makes DrawText fail for the named fonts.
	FailFonts map[string]bool
	// FailSerialize makes Serialize fail.
	FailSerialize bool
	Last          *MutableDocument
}

func (c *Constructor) OpenForEdit(_ context.Context, data []byte) (document.MutableDocument, error) {
	if len(data) == 0 {
		return nil, document.ErrUnreadableDocument
	}
	c.Last = &MutableDocument{pages: c.Pages, failFonts: c.FailFonts, failSerialize: c.FailSerialize}
	return c.Last, nil
}

// MutableDocument records draw calls; Serialize emits them as JSON.
type MutableDocument struct {
	pages         []Page
	failFonts     map[string]bool
	failSerialize bool
	Ops           []Op
}

func (m *MutableDocument) PageCount() int { return len(m.pages) }

func (m *MutableDocument) PageSize(index int) (float64, float64, error) {
	if index < 0 || index >= len(m.pages) {
		return 0, 0, document.ErrOutOfRange
	}
	return m.pages[index].Width, m.pages[index].Height, nil
}

func (m *MutableDocument) DrawRectangle(index int, x, y, w, h float64, opts document.RectOptions) error {
	m.Ops = append(m.Ops, Op{Kind: "rect", Page: index, X: x, Y: y, W: w, H: h, Color: opts.FillColor})
	return nil
}

func (m *MutableDocument) DrawText(index int, text string, x, y float64, opts document.TextOptions) error {
	if m.failFonts[opts.Font] {
		return fmt.Errorf("font %q: %w", opts.Font, document.ErrUnsupportedFont)
	}
	m.Ops = append(m.Ops, Op{Kind: "text", Page: index, Text: text, X: x, Y: y, Size: opts.FontSize, Font: opts.Font, Color: opts.Color})
	return nil
}

func (m *MutableDocument) Serialize(context.Context) ([]byte, error) {
	if m.failSerialize {
		return nil, fmt.Errorf("fake: %w", document.ErrSerializationFailed)
	}
	return json.Marshal(m.Ops)
}

// Decode parses bytes produced by MutableDocument.Serialize.
func Decode(data []byte) ([]Op, error) {
	var ops []Op
	err := json.Unmarshal(data, &ops)
	return ops, err
}
