package session

import (
	"context"
	"fmt"
	"image"

	"github.com/wudi/pdfedit/annotation"
	"github.com/wudi/pdfedit/coords"
	"github.com/wudi/pdfedit/document"
	"github.com/wudi/pdfedit/export"
	"github.com/wudi/pdfedit/mode"
	"github.com/wudi/pdfedit/observability"
	"github.com/wudi/pdfedit/raster"
	"github.com/wudi/pdfedit/textrun"
)

// Overlay positions one run's editable text over a frame, in pixels.
type Overlay struct {
	RunID      string
	Box        coords.Rect
	Baseline   coords.Pixel
	Text       string
	FontSizePx float64
	Color      document.Color
	Rotation   float64
	Editable   bool
}

// Frame is a rendered page.
type Frame struct {
	Seq      uint64
	Viewport coords.Viewport
	Mode     mode.State
	// Image holds the page raster with annotations painted over it. In
	// EditText every run's cover rectangle has been erased.
	Image    *image.RGBA
	Overlays []Overlay

	paint func(dst *image.RGBA, o Overlay) error
}

// Flatten returns a copy of the frame image with the overlay text drawn in.
// Outside EditText the image already shows the page text and is copied as is.
func (f *Frame) Flatten() (*image.RGBA, error) {
	out := raster.Clone(f.Image)
	if f.Mode.Kind != mode.EditText || f.paint == nil {
		return out, nil
	}
	for _, o := range f.Overlays {
		if err := f.paint(out, o); err != nil {
			return nil, fmt.Errorf("overlay %s: %w", o.RunID, err)
		}
	}
	return out, nil
}

// RenderRequest is a snapshot of the session taken when a render was
// dispatched.
type RenderRequest struct {
	s     *Session
	Seq   uint64
	vp    coords.Viewport
	size  coords.PageSize
	mode  mode.State
	runs  []textrun.Run
	notes []annotation.Annotation
}

// RequestRender snapshots the current page and dispatches a new render
// sequence number. Any earlier request still in flight becomes stale.
func (s *Session) RequestRender() *RenderRequest {
	return &RenderRequest{
		s:     s,
		Seq:   s.seq.Add(1),
		vp:    s.Viewport(),
		size:  s.pageSize(s.page),
		mode:  s.modes.Current(),
		runs:  s.runs.RunsForPage(s.page),
		notes: s.notes.ForPage(s.page),
	}
}

// Render dispatches and runs a request.
func (s *Session) Render(ctx context.Context) (*Frame, error) {
	return s.RequestRender().Run(ctx)
}

// Run rasterizes and composites the snapshot. It returns ErrStaleRender when
// a newer request was dispatched before it finished.
func (r *RenderRequest) Run(ctx context.Context) (f *Frame, err error) {
	s := r.s
	ctx, span := s.cfg.Tracer.StartSpan(ctx, observability.SpanRender)
	span.SetTag("page", r.vp.Page)
	span.SetTag("seq", r.Seq)
	defer func() {
		if err != nil {
			span.SetError(err)
		}
		span.Finish()
	}()

	if r.stale() {
		return nil, ErrStaleRender
	}
	img, err := s.backend.Rasterizer.Rasterize(ctx, s.handle, r.vp.Page, r.vp.Scale)
	if err != nil {
		return nil, fmt.Errorf("rasterize page %d: %w", r.vp.Page, err)
	}
	if r.stale() {
		s.cfg.Logger.Debug("stale render discarded",
			observability.Int("page", r.vp.Page), observability.Int("seq", int(r.Seq)))
		return nil, ErrStaleRender
	}

	s.renderMu.Lock()
	defer s.renderMu.Unlock()
	f = &Frame{
		Seq:      r.Seq,
		Viewport: r.vp,
		Mode:     r.mode,
		Image:    raster.Clone(img),
		Overlays: make([]Overlay, 0, len(r.runs)),
		paint:    s.paintOverlay,
	}
	editing := r.mode.Kind == mode.EditText
	for _, run := range r.runs {
		if editing {
			cover := coords.TopLeftRect(export.Cover(run, r.size, s.cfg.Export), r.size)
			raster.Erase(f.Image, coords.RectToPixel(cover, r.size, r.vp), s.cfg.Export.Background)
		}
		f.Overlays = append(f.Overlays, Overlay{
			RunID:      run.ID,
			Box:        coords.RectToPixel(run.Box(), r.size, r.vp),
			Baseline:   coords.PointToPixel(coords.Point{X: run.X, Y: run.Y}, r.size, r.vp),
			Text:       run.Text,
			FontSizePx: coords.LengthToPixel(run.FontSize, r.size, r.vp),
			Color:      run.Color,
			Rotation:   run.Rotation,
			Editable:   editing,
		})
	}
	for _, a := range r.notes {
		raster.DrawAnnotation(f.Image, a, r.size, r.vp)
	}
	return f, nil
}

func (r *RenderRequest) stale() bool {
	return r.s.seq.Load() != r.Seq
}

func (s *Session) paintOverlay(dst *image.RGBA, o Overlay) error {
	s.renderMu.Lock()
	defer s.renderMu.Unlock()
	return raster.DrawText(dst, s.faces, o.Text, o.Baseline, o.FontSizePx, o.Color)
}
