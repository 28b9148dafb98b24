// Package builder opens existing PDF bytes for drawing. Every source page is
// re-imported as a template and new content is painted over it; the source
// content streams are never rewritten.
package builder

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"codeberg.org/go-pdf/fpdf"
	"codeberg.org/go-pdf/fpdf/contrib/gofpdi"
	"golang.org/x/text/encoding/charmap"

	"github.com/wudi/pdfedit/coords"
	"github.com/wudi/pdfedit/document"
	"github.com/wudi/pdfedit/fonts"
	"github.com/wudi/pdfedit/reader"
)

// Config configures constructed documents.
type Config struct {
	Compress bool
	Producer string
}

func DefaultConfig() Config {
	return Config{Compress: true, Producer: "pdfedit"}
}

// Constructor implements document.Constructor.
type Constructor struct {
	cfg Config
}

func NewConstructor(cfg Config) *Constructor {
	return &Constructor{cfg: cfg}
}

// OpenForEdit reads the page geometry of data. Pages are imported as
// templates when the document is serialized. Unreadable input is reported as
// document.ErrUnreadableDocument.
func (c *Constructor) OpenForEdit(ctx context.Context, data []byte) (document.MutableDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dims, err := reader.PageDims(data)
	if err != nil {
		return nil, err
	}

	pdf := fpdf.New("P", "pt", "", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetCompression(c.cfg.Compress)
	if c.cfg.Producer != "" {
		pdf.SetProducer(c.cfg.Producer, true)
	}
	return &Document{pdf: pdf, src: data, sizes: dims, ops: make([][]drawOp, len(dims))}, nil
}

// drawOp is one buffered primitive in fpdf's top-left space.
type drawOp struct {
	rect       bool
	x, y, w, h float64
	color      document.Color
	text       string
	font       fontSpec
	size       float64
}

// Document implements document.MutableDocument over fpdf. Primitives are
// validated when drawn and buffered per page; fpdf flips y against the
// height of the page it is currently emitting, so each page's primitives are
// replayed right after that page is added.
type Document struct {
	pdf      *fpdf.Fpdf
	src      []byte
	sizes    []coords.PageSize
	ops      [][]drawOp
	fallback bool
	closed   bool
}

func (d *Document) PageCount() int { return len(d.sizes) }

func (d *Document) PageSize(index int) (float64, float64, error) {
	size, err := d.size(index)
	return size.Width, size.Height, err
}

func (d *Document) size(index int) (coords.PageSize, error) {
	if index < 0 || index >= len(d.sizes) {
		return coords.PageSize{}, fmt.Errorf("page %d: %w", index, document.ErrOutOfRange)
	}
	return d.sizes[index], nil
}

func (d *Document) page(index int) (coords.PageSize, error) {
	if d.closed {
		return coords.PageSize{}, fmt.Errorf("document already serialized: %w", document.ErrDrawFailure)
	}
	return d.size(index)
}

func (d *Document) DrawRectangle(index int, x, y, width, height float64, opts document.RectOptions) error {
	size, err := d.page(index)
	if err != nil {
		return err
	}
	r := coords.TopLeftRect(coords.Rect{X: x, Y: y, Width: width, Height: height}, size)
	d.ops[index] = append(d.ops[index], drawOp{rect: true, x: r.X, y: r.Y, w: r.Width, h: r.Height, color: opts.FillColor})
	return nil
}

func (d *Document) DrawText(index int, text string, x, y float64, opts document.TextOptions) error {
	size, err := d.page(index)
	if err != nil {
		return err
	}
	f, err := resolveFont(opts.Font)
	if err != nil {
		return err
	}
	encoded := text
	if f.core {
		encoded, err = charmap.Windows1252.NewEncoder().String(text)
		if err != nil {
			return fmt.Errorf("font %q cannot encode %q: %w", opts.Font, text, document.ErrUnsupportedFont)
		}
	} else if !d.fallback {
		d.pdf.AddUTF8FontFromBytes(fonts.FallbackName, "", fonts.FallbackTTF())
		if err := d.check("register fallback font"); err != nil {
			return err
		}
		d.fallback = true
	}
	fontSize := opts.FontSize
	if fontSize <= 0 {
		fontSize = 12
	}
	d.ops[index] = append(d.ops[index], drawOp{
		x: x, y: coords.FlipY(y, size),
		text: encoded, font: f, size: fontSize, color: opts.Color,
	})
	return nil
}

// check converts fpdf's sticky error into a draw failure and clears it so
// later primitives can still be emitted.
func (d *Document) check(op string) error {
	if !d.pdf.Err() {
		return nil
	}
	err := d.pdf.Error()
	d.pdf.ClearError()
	return fmt.Errorf("%s: %v: %w", op, err, document.ErrDrawFailure)
}

// Serialize adds every page, stamps its source template, replays its
// primitives and emits the document. It may be called once.
func (d *Document) Serialize(ctx context.Context) (out []byte, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.closed {
		return nil, fmt.Errorf("document already serialized: %w", document.ErrSerializationFailed)
	}
	d.closed = true
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("import pages: %v: %w", r, document.ErrSerializationFailed)
		}
	}()

	imp := gofpdi.NewImporter()
	rs := io.ReadSeeker(bytes.NewReader(d.src))
	for i, size := range d.sizes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		d.pdf.AddPageFormat("P", fpdf.SizeType{Wd: size.Width, Ht: size.Height})
		tpl := imp.ImportPageFromStream(d.pdf, &rs, i+1, "/MediaBox")
		imp.UseImportedTemplate(d.pdf, tpl, 0, 0, size.Width, size.Height)
		for _, o := range d.ops[i] {
			d.replay(o)
		}
		if d.pdf.Err() {
			return nil, fmt.Errorf("page %d: %v: %w", i, d.pdf.Error(), document.ErrSerializationFailed)
		}
	}

	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("output: %v: %w", err, document.ErrSerializationFailed)
	}
	return buf.Bytes(), nil
}

func (d *Document) replay(o drawOp) {
	if o.rect {
		d.pdf.SetFillColor(int(o.color.R), int(o.color.G), int(o.color.B))
		d.pdf.Rect(o.x, o.y, o.w, o.h, "F")
		return
	}
	d.pdf.SetFont(o.font.family, o.font.style, o.size)
	d.pdf.SetTextColor(int(o.color.R), int(o.color.G), int(o.color.B))
	d.pdf.Text(o.x, o.y, o.text)
}

type fontSpec struct {
	family string
	style  string
	core   bool
}

// resolveFont maps a source font name onto a standard family, or onto the
// embedded fallback when name is fonts.FallbackName.
func resolveFont(name string) (fontSpec, error) {
	if name == fonts.FallbackName {
		return fontSpec{family: fonts.FallbackName}, nil
	}
	base := name
	if i := strings.IndexByte(base, '+'); i == 6 {
		base = base[i+1:]
	}
	lower := strings.ToLower(base)

	spec := fontSpec{core: true}
	switch {
	case lower == "":
		spec.family = "Helvetica"
	case strings.Contains(lower, "courier") || strings.Contains(lower, "mono"):
		spec.family = "Courier"
	case strings.Contains(lower, "times") || strings.Contains(lower, "roman") ||
		(strings.Contains(lower, "serif") && !strings.Contains(lower, "sans")):
		spec.family = "Times"
	case strings.Contains(lower, "helvetica") || strings.Contains(lower, "arial") || strings.Contains(lower, "sans"):
		spec.family = "Helvetica"
	default:
		return fontSpec{}, fmt.Errorf("font %q: %w", name, document.ErrUnsupportedFont)
	}
	if strings.Contains(lower, "bold") {
		spec.style += "B"
	}
	if strings.Contains(lower, "italic") || strings.Contains(lower, "oblique") {
		spec.style += "I"
	}
	return spec, nil
}
