// Package document declares the capabilities the editor consumes from PDF
// parsing, rasterizing and construction backends, and the error taxonomy
// shared by every editing component.
package document

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/wudi/pdfedit/coords"
)

var (
	// ErrUnreadableDocument is returned when the parser rejects the input bytes.
	ErrUnreadableDocument = errors.New("unreadable document")
	// ErrOutOfRange is returned for page indices outside [0, pageCount).
	ErrOutOfRange = errors.New("page index out of range")
	// ErrNotFound is returned when an id does not name a known object.
	ErrNotFound = errors.New("not found")
	// ErrDrawFailure is returned when a single drawing primitive cannot be emitted.
	ErrDrawFailure = errors.New("draw failure")
	// ErrUnsupportedFont is a draw failure caused by the requested font.
	ErrUnsupportedFont = fmt.Errorf("unsupported font: %w", ErrDrawFailure)
	// ErrSerializationFailed is returned when the output document cannot be produced.
	ErrSerializationFailed = errors.New("serialization failed")
)

// Color is an RGB color with 0-255 channels.
type Color struct {
	R, G, B uint8
}

var (
	Black = Color{}
	White = Color{R: 255, G: 255, B: 255}
)

// Page describes one page of a loaded document.
type Page struct {
	Index  int
	Width  float64
	Height float64
}

// Size returns the page extent in points.
func (p Page) Size() coords.PageSize {
	return coords.PageSize{Width: p.Width, Height: p.Height}
}

// Document is the immutable page geometry of a loaded file.
type Document struct {
	Pages []Page
}

func (d *Document) PageCount() int { return len(d.Pages) }

// PositionedText is one text item as placed by the source document.
// Matrix is nil when the item carries no placement; Width, Height and Color
// are nil when the source does not supply them.
type PositionedText struct {
	Text     string
	FontName string
	Matrix   *coords.Matrix
	Width    *float64
	Height   *float64
	Color    *Color
}

// Handle is a parsed, read-only document.
type Handle interface {
	PageCount() int
	// PageSize returns the page extent in points for a zero-based index.
	PageSize(index int) (width, height float64, err error)
	// ExtractPositionedText returns the text items of a page in content order.
	// Positions are in the document's native bottom-left space.
	ExtractPositionedText(ctx context.Context, index int) ([]PositionedText, error)
}

// Parser turns raw bytes into a Handle.
type Parser interface {
	Parse(ctx context.Context, data []byte) (Handle, error)
}

// Rasterizer renders a page of a Handle at a zoom scale.
type Rasterizer interface {
	Rasterize(ctx context.Context, h Handle, index int, scale float64) (image.Image, error)
}

// TextOptions configures DrawText.
type TextOptions struct {
	Font     string
	FontSize float64
	Color    Color
}

// RectOptions configures DrawRectangle.
type RectOptions struct {
	FillColor Color
}

// MutableDocument is a document opened for drawing over its existing pages.
// Coordinates are in the native bottom-left point space.
type MutableDocument interface {
	PageCount() int
	PageSize(index int) (width, height float64, err error)
	DrawRectangle(index int, x, y, width, height float64, opts RectOptions) error
	// DrawText anchors text at baseline (x, y). A non-nil error leaves the
	// document unchanged.
	DrawText(index int, text string, x, y float64, opts TextOptions) error
	Serialize(ctx context.Context) ([]byte, error)
}

// Constructor opens pristine bytes for editing.
type Constructor interface {
	OpenForEdit(ctx context.Context, data []byte) (MutableDocument, error)
}

// Describe reads the page geometry of a Handle.
func Describe(h Handle) (*Document, error) {
	n := h.PageCount()
	doc := &Document{Pages: make([]Page, 0, n)}
	for i := 0; i < n; i++ {
		w, ht, err := h.PageSize(i)
		if err != nil {
			return nil, err
		}
		doc.Pages = append(doc.Pages, Page{Index: i, Width: w, Height: ht})
	}
	return doc, nil
}
