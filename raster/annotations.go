package raster

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/vector"

	"github.com/wudi/pdfedit/annotation"
	"github.com/wudi/pdfedit/coords"
)

const (
	highlightAlpha   = 0x60
	highlightWidth   = 14
	defaultLineWidth = 2
	circleSegments   = 64
)

// DrawAnnotation paints a onto dst. Highlights use partial opacity and a wide
// stroke; rectangles and circles use only the first and last path points;
// strokes draw the full polyline. Widths are in points and scale with vp.
func DrawAnnotation(dst draw.Image, a annotation.Annotation, size coords.PageSize, vp coords.Viewport) {
	pts := a.Project(vp)
	if len(pts) == 0 {
		return
	}
	width := a.StrokeWidth
	if width <= 0 {
		width = defaultLineWidth
	}
	col := color.NRGBA{R: a.Color.R, G: a.Color.G, B: a.Color.B, A: 0xff}

	var segments [][]coords.Pixel
	switch a.Kind {
	case annotation.Highlight:
		col.A = highlightAlpha
		if a.StrokeWidth <= 0 {
			width = highlightWidth
		}
		segments = [][]coords.Pixel{pts}
	case annotation.Rectangle:
		p0, p1 := pts[0], pts[len(pts)-1]
		segments = [][]coords.Pixel{{p0, {X: p1.X, Y: p0.Y}, p1, {X: p0.X, Y: p1.Y}, p0}}
	case annotation.Circle:
		c, edge := pts[0], pts[len(pts)-1]
		segments = [][]coords.Pixel{circle(c, math.Hypot(edge.X-c.X, edge.Y-c.Y))}
	default:
		segments = [][]coords.Pixel{pts}
	}

	b := dst.Bounds()
	r := vector.NewRasterizer(b.Dx(), b.Dy())
	half := coords.LengthToPixel(width, size, vp) / 2
	for _, poly := range segments {
		strokePolyline(r, poly, half)
	}
	r.Draw(dst, b, image.NewUniform(col), image.Point{})
}

func circle(c coords.Pixel, radius float64) []coords.Pixel {
	out := make([]coords.Pixel, 0, circleSegments+1)
	for i := 0; i <= circleSegments; i++ {
		t := 2 * math.Pi * float64(i) / circleSegments
		out = append(out, coords.Pixel{X: c.X + radius*math.Cos(t), Y: c.Y + radius*math.Sin(t)})
	}
	return out
}

// strokePolyline adds one quad per segment and a square cap per vertex. All
// quads share a winding so overlaps at joints accumulate instead of cancel.
func strokePolyline(r *vector.Rasterizer, pts []coords.Pixel, half float64) {
	if half <= 0 {
		return
	}
	if len(pts) == 1 {
		square(r, pts[0], half)
		return
	}
	for i := 1; i < len(pts); i++ {
		p0, p1 := pts[i-1], pts[i]
		dx, dy := p1.X-p0.X, p1.Y-p0.Y
		l := math.Hypot(dx, dy)
		if l == 0 {
			continue
		}
		nx, ny := -dy/l*half, dx/l*half
		r.MoveTo(float32(p0.X+nx), float32(p0.Y+ny))
		r.LineTo(float32(p1.X+nx), float32(p1.Y+ny))
		r.LineTo(float32(p1.X-nx), float32(p1.Y-ny))
		r.LineTo(float32(p0.X-nx), float32(p0.Y-ny))
		r.ClosePath()
		square(r, p1, half)
	}
	square(r, pts[0], half)
}

func square(r *vector.Rasterizer, p coords.Pixel, half float64) {
	r.MoveTo(float32(p.X-half), float32(p.Y+half))
	r.LineTo(float32(p.X+half), float32(p.Y+half))
	r.LineTo(float32(p.X+half), float32(p.Y-half))
	r.LineTo(float32(p.X-half), float32(p.Y-half))
	r.ClosePath()
}
