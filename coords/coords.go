// Package coords maps geometry between the three spaces the editor works in:
// document points (top-left origin after extraction), page-relative fractions,
// and pixels on a rendering surface at some zoom scale.
//
// All scale and page-size arithmetic lives here. Other packages consume
// already-converted coordinates.
package coords

import (
	"errors"
	"math"
)

// Matrix is a PDF affine matrix [a b c d e f].
type Matrix [6]float64

func Identity() Matrix { return Matrix{1, 0, 0, 1, 0, 0} }

func (m Matrix) Multiply(o Matrix) Matrix {
	return Matrix{
		m[0]*o[0] + m[1]*o[2],
		m[0]*o[1] + m[1]*o[3],
		m[2]*o[0] + m[3]*o[2],
		m[2]*o[1] + m[3]*o[3],
		m[4]*o[0] + m[5]*o[2] + o[4],
		m[4]*o[1] + m[5]*o[3] + o[5],
	}
}

func (m Matrix) Transform(p Point) Point {
	return Point{X: m[0]*p.X + m[2]*p.Y + m[4], Y: m[1]*p.X + m[3]*p.Y + m[5]}
}

func (m Matrix) Inverse() (Matrix, error) {
	det := m[0]*m[3] - m[1]*m[2]
	if math.Abs(det) < 1e-10 {
		return Matrix{}, errors.New("matrix singular")
	}
	return Matrix{
		m[3] / det, -m[1] / det, -m[2] / det, m[0] / det,
		(m[2]*m[5] - m[3]*m[4]) / det,
		(m[1]*m[4] - m[0]*m[5]) / det,
	}, nil
}

// FontSize is the larger of the horizontal and vertical scale terms.
func (m Matrix) FontSize() float64 {
	return math.Max(math.Abs(m[0]), math.Abs(m[3]))
}

// Rotation returns the rotation encoded by the matrix in degrees.
func (m Matrix) Rotation() float64 {
	return math.Atan2(m[1], m[0]) * 180 / math.Pi
}

// Origin is the translation component.
func (m Matrix) Origin() Point { return Point{X: m[4], Y: m[5]} }

func Translate(tx, ty float64) Matrix { return Matrix{1, 0, 0, 1, tx, ty} }
func Scale(sx, sy float64) Matrix     { return Matrix{sx, 0, 0, sy, 0, 0} }
func Rotate(angle float64) Matrix {
	c, s := math.Cos(angle), math.Sin(angle)
	return Matrix{c, s, -s, c, 0, 0}
}

// Point is a location in document point space.
type Point struct{ X, Y float64 }

// Pixel is a location on the current rendering surface.
type Pixel struct{ X, Y float64 }

// Fraction is a location relative to the page, 0..1 on each axis.
type Fraction struct{ X, Y float64 }

// PageSize is a page's extent in points.
type PageSize struct{ Width, Height float64 }

// Contains reports whether p lies on the page, edges included.
func (s PageSize) Contains(p Point) bool {
	return p.X >= 0 && p.X <= s.Width && p.Y >= 0 && p.Y <= s.Height
}

// Rect is an axis-aligned rectangle anchored at (X, Y).
type Rect struct{ X, Y, Width, Height float64 }

func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height
}

func (r Rect) Intersects(o Rect) bool {
	return !(o.X > r.X+r.Width || o.X+o.Width < r.X || o.Y > r.Y+r.Height || o.Y+o.Height < r.Y)
}

// Inset grows the rectangle by pad on every side (shrinks for negative pad).
func (r Rect) Inset(pad float64) Rect {
	return Rect{X: r.X - pad, Y: r.Y - pad, Width: r.Width + 2*pad, Height: r.Height + 2*pad}
}

// Viewport describes the rendering surface for one page at one scale.
type Viewport struct {
	Page     int
	Scale    float64
	WidthPx  float64
	HeightPx float64
}

// NewViewport sizes the rendering surface for a page at scale.
func NewViewport(page int, size PageSize, scale float64) Viewport {
	return Viewport{
		Page:     page,
		Scale:    scale,
		WidthPx:  size.Width * scale,
		HeightPx: size.Height * scale,
	}
}

// scaleOf derives the effective scale from the rendered width, falling back to
// the height for degenerate pages.
func scaleOf(size PageSize, vp Viewport) float64 {
	if size.Width > 0 {
		return vp.WidthPx / size.Width
	}
	if size.Height > 0 {
		return vp.HeightPx / size.Height
	}
	return vp.Scale
}

// ScaleToFit returns the scale at which a page of the given width fills avail pixels.
func ScaleToFit(availPx, pagePoints float64) float64 {
	if pagePoints <= 0 {
		return 0
	}
	return availPx / pagePoints
}

// ScaleToFitSurface returns the largest scale at which the whole page fits.
func ScaleToFitSurface(widthPx, heightPx float64, size PageSize) float64 {
	sw := ScaleToFit(widthPx, size.Width)
	sh := ScaleToFit(heightPx, size.Height)
	return math.Min(sw, sh)
}

func PointToPixel(p Point, size PageSize, vp Viewport) Pixel {
	s := scaleOf(size, vp)
	return Pixel{X: p.X * s, Y: p.Y * s}
}

func PixelToPoint(p Pixel, size PageSize, vp Viewport) Point {
	s := scaleOf(size, vp)
	if s == 0 {
		return Point{}
	}
	return Point{X: p.X / s, Y: p.Y / s}
}

func PixelToFraction(p Pixel, vp Viewport) Fraction {
	var f Fraction
	if vp.WidthPx > 0 {
		f.X = p.X / vp.WidthPx
	}
	if vp.HeightPx > 0 {
		f.Y = p.Y / vp.HeightPx
	}
	return f
}

func FractionToPixel(f Fraction, vp Viewport) Pixel {
	return Pixel{X: f.X * vp.WidthPx, Y: f.Y * vp.HeightPx}
}

func FractionToPoint(f Fraction, size PageSize) Point {
	return Point{X: f.X * size.Width, Y: f.Y * size.Height}
}

// RectToPixel projects a point-space rectangle onto the surface.
func RectToPixel(r Rect, size PageSize, vp Viewport) Rect {
	s := scaleOf(size, vp)
	return Rect{X: r.X * s, Y: r.Y * s, Width: r.Width * s, Height: r.Height * s}
}

// LengthToPixel scales a point-space length (font size, stroke width).
func LengthToPixel(l float64, size PageSize, vp Viewport) float64 {
	return l * scaleOf(size, vp)
}

// FlipY converts between bottom-left and top-left origin. It is its own inverse.
func FlipY(y float64, size PageSize) float64 {
	return size.Height - y
}

// CoverRect is the erase rectangle for a run box in bottom-left space,
// padded on every side. A run's Y is its baseline, so the rectangle hangs
// below the baseline; see LiftCover.
func CoverRect(box Rect, size PageSize, pad float64) Rect {
	bottom := size.Height - box.Y - box.Height
	return Rect{X: box.X, Y: bottom, Width: box.Width, Height: box.Height}.Inset(pad)
}

// LiftCover raises a bottom-left cover rectangle by lift points so it spans
// the ascent of the glyphs above the baseline.
func LiftCover(r Rect, lift float64) Rect {
	r.Y += lift
	return r
}

// Baseline is the bottom-left y at which a run's text is anchored.
func Baseline(originY float64, size PageSize) float64 {
	return FlipY(originY, size)
}

// TopLeftRect converts a bottom-left anchored rectangle into a top-left one.
func TopLeftRect(r Rect, size PageSize) Rect {
	return Rect{X: r.X, Y: size.Height - r.Y - r.Height, Width: r.Width, Height: r.Height}
}
