package reader

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"codeberg.org/go-pdf/fpdf"
	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/wudi/pdfedit/document"
)

func TestGroupMergesAdjacentGlyphs(t *testing.T) {
	glyphs := []pdf.Text{
		{Font: "Helvetica", FontSize: 10, X: 10, Y: 100, W: 6, S: "H"},
		{Font: "Helvetica", FontSize: 10, X: 16, Y: 100, W: 5, S: "i"},
		{Font: "Helvetica", FontSize: 10, X: 21, Y: 100, W: 3, S: " "},
		{Font: "Helvetica", FontSize: 10, X: 24, Y: 100, W: 6, S: "A"},
		// new line
		{Font: "Helvetica", FontSize: 10, X: 10, Y: 80, W: 6, S: "B"},
		// font change
		{Font: "Times-Bold", FontSize: 10, X: 16, Y: 80, W: 6, S: "C"},
		// far gap
		{Font: "Times-Bold", FontSize: 10, X: 90, Y: 80, W: 6, S: "D"},
		{Font: "Times-Bold", FontSize: 10, X: 96, Y: 80, W: 3, S: " "},
	}
	items := group(glyphs, DefaultConfig())
	want := []string{"Hi A", "B", "C", "D"}
	if len(items) != len(want) {
		t.Fatalf("got %d items: %+v", len(items), items)
	}
	for i, w := range want {
		if items[i].Text != w {
			t.Fatalf("item %d = %q want %q", i, items[i].Text, w)
		}
	}
	first := items[0]
	if first.Matrix == nil || first.Matrix[4] != 10 || first.Matrix[5] != 100 || first.Matrix[0] != 10 {
		t.Fatalf("placement = %+v", first.Matrix)
	}
	if first.Width == nil || *first.Width != 20 {
		t.Fatalf("width = %v", first.Width)
	}
	if items[1].FontName != "Helvetica" || items[2].FontName != "Times-Bold" {
		t.Fatalf("fonts = %q %q", items[1].FontName, items[2].FontName)
	}
}

func TestGroupWithoutAdvances(t *testing.T) {
	glyphs := []pdf.Text{
		{Font: "F", FontSize: 12, X: 30, Y: 50, S: "o"},
		{Font: "F", FontSize: 12, X: 30, Y: 50, S: "k"},
	}
	items := group(glyphs, DefaultConfig())
	if len(items) != 1 || items[0].Text != "ok" || items[0].Width != nil {
		t.Fatalf("items = %+v", items)
	}
}

func samplePDF(t *testing.T) []byte {
	t.Helper()
	doc := fpdf.New("P", "pt", "", "")
	doc.AddPageFormat("P", fpdf.SizeType{Wd: 300, Ht: 400})
	doc.SetFont("Helvetica", "", 14)
	doc.Text(20, 50, "Hello")
	doc.AddPageFormat("P", fpdf.SizeType{Wd: 200, Ht: 200})
	doc.SetFont("Helvetica", "", 10)
	doc.Text(10, 100, "World")
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		t.Fatalf("build sample: %v", err)
	}
	return buf.Bytes()
}

func TestParse(t *testing.T) {
	h, err := NewParser(Config{}).Parse(context.Background(), samplePDF(t))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if h.PageCount() != 2 {
		t.Fatalf("pages = %d", h.PageCount())
	}
	w, ht, err := h.PageSize(0)
	if err != nil || w != 300 || ht != 400 {
		t.Fatalf("page 0 size = %v x %v (%v)", w, ht, err)
	}
	if _, _, err := h.PageSize(2); !errors.Is(err, document.ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}

	items, err := h.ExtractPositionedText(context.Background(), 0)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(items) != 1 || items[0].Text != "Hello" {
		t.Fatalf("items = %+v", items)
	}
	m := items[0].Matrix
	if m == nil || m[4] < 19.5 || m[4] > 20.5 || m[5] < 349.5 || m[5] > 350.5 {
		t.Fatalf("placement = %+v", m)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	p := NewParser(Config{})
	for _, data := range [][]byte{nil, []byte("not a pdf at all")} {
		if _, err := p.Parse(context.Background(), data); !errors.Is(err, document.ErrUnreadableDocument) {
			t.Fatalf("expected ErrUnreadableDocument, got %v", err)
		}
	}
}

func TestPageDimsIgnoresRotation(t *testing.T) {
	var rotated bytes.Buffer
	if err := api.Rotate(bytes.NewReader(samplePDF(t)), &rotated, 90, []string{"1"}, model.NewDefaultConfiguration()); err != nil {
		t.Fatalf("rotate: %v", err)
	}
	dims, err := PageDims(rotated.Bytes())
	if err != nil {
		t.Fatalf("dims: %v", err)
	}
	if len(dims) != 2 || dims[0].Width != 300 || dims[0].Height != 400 || dims[1].Width != 200 {
		t.Fatalf("dims = %+v", dims)
	}

	h, err := NewParser(Config{}).Parse(context.Background(), rotated.Bytes())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	items, err := h.ExtractPositionedText(context.Background(), 0)
	if err != nil || len(items) != 1 || items[0].Matrix == nil {
		t.Fatalf("items = %+v (%v)", items, err)
	}
	// The origin stays in the unrotated page space the size describes.
	if _, ht, _ := h.PageSize(0); ht-items[0].Matrix[5] < 49.5 || ht-items[0].Matrix[5] > 50.5 {
		t.Fatalf("origin %v does not fit page height %v", items[0].Matrix[5], ht)
	}
}
