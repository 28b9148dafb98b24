// Package raster paints preview surfaces: a page's extracted text, the cover
// pass used while editing text, and annotation overlays.
package raster

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"

	"golang.org/x/image/draw"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/wudi/pdfedit/coords"
	"github.com/wudi/pdfedit/document"
	"github.com/wudi/pdfedit/fonts"
)

// maxSurface bounds either side of a surface in pixels.
const maxSurface = 16384

// Config configures the preview rasterizer.
type Config struct {
	Background document.Color
	TextColor  document.Color
}

func DefaultConfig() Config {
	return Config{Background: document.White, TextColor: document.Black}
}

// Preview implements document.Rasterizer by drawing a page's positioned text
// in the fallback face. It reproduces text layout, not vector artwork.
// Calls are serialized; use one Preview per goroutine for parallel rendering.
type Preview struct {
	mu    sync.Mutex
	cfg   Config
	faces *fonts.Faces
}

func NewPreview(cfg Config) *Preview {
	return &Preview{cfg: cfg, faces: fonts.NewFaces()}
}

func (p *Preview) Rasterize(ctx context.Context, h document.Handle, index int, scale float64) (image.Image, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	w, ht, err := h.PageSize(index)
	if err != nil {
		return nil, err
	}
	size := coords.PageSize{Width: w, Height: ht}
	vp := coords.NewViewport(index, size, scale)
	img, err := NewSurface(vp, p.cfg.Background)
	if err != nil {
		return nil, err
	}

	items, err := h.ExtractPositionedText(ctx, index)
	if err != nil {
		return nil, fmt.Errorf("page %d text: %w", index, err)
	}
	for _, it := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if it.Matrix == nil {
			continue
		}
		o := it.Matrix.Origin()
		at := coords.PointToPixel(coords.Point{X: o.X, Y: coords.FlipY(o.Y, size)}, size, vp)
		col := p.cfg.TextColor
		if it.Color != nil {
			col = *it.Color
		}
		sizePx := coords.LengthToPixel(it.Matrix.FontSize(), size, vp)
		if err := DrawText(img, p.faces, it.Text, at, sizePx, col); err != nil {
			return nil, err
		}
	}
	return img, nil
}

// NewSurface allocates a surface for vp filled with bg.
func NewSurface(vp coords.Viewport, bg document.Color) (*image.RGBA, error) {
	w, h := int(math.Ceil(vp.WidthPx)), int(math.Ceil(vp.HeightPx))
	if w <= 0 || h <= 0 || w > maxSurface || h > maxSurface {
		return nil, fmt.Errorf("surface %dx%d out of bounds", w, h)
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(rgba(bg)), image.Point{}, draw.Src)
	return img, nil
}

// Clone copies src into a fresh RGBA surface.
func Clone(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

// DrawText draws text with its baseline at the given pixel. Empty text and
// non-positive sizes draw nothing.
func DrawText(dst draw.Image, faces *fonts.Faces, text string, baseline coords.Pixel, sizePx float64, c document.Color) error {
	if text == "" || sizePx <= 0 {
		return nil
	}
	face, err := faces.Face(sizePx)
	if err != nil {
		return err
	}
	d := xfont.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(rgba(c)),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.Int26_6(baseline.X * 64), Y: fixed.Int26_6(baseline.Y * 64)},
	}
	d.DrawString(text)
	return nil
}

// Erase fills a pixel rectangle with c.
func Erase(dst draw.Image, r coords.Rect, c document.Color) {
	rect := image.Rect(
		int(math.Floor(r.X)), int(math.Floor(r.Y)),
		int(math.Ceil(r.X+r.Width)), int(math.Ceil(r.Y+r.Height)),
	).Intersect(dst.Bounds())
	if rect.Empty() {
		return
	}
	draw.Draw(dst, rect, image.NewUniform(rgba(c)), image.Point{}, draw.Src)
}

func rgba(c document.Color) color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
}
