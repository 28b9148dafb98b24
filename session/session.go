// Package session is the editing aggregate: one loaded document, its text
// runs and annotations, the current page and zoom, and the edit mode.
//
// A Session has a single logical writer. Every method except
// (*RenderRequest).Run must be called from that writer; render requests
// snapshot what they need and may run on any goroutine.
package session

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/wudi/pdfedit/annotation"
	"github.com/wudi/pdfedit/coords"
	"github.com/wudi/pdfedit/document"
	"github.com/wudi/pdfedit/export"
	"github.com/wudi/pdfedit/fonts"
	"github.com/wudi/pdfedit/mode"
	"github.com/wudi/pdfedit/observability"
	"github.com/wudi/pdfedit/textrun"
)

var (
	// ErrReadOnly is returned when an edit is attempted outside the mode that
	// owns it.
	ErrReadOnly = errors.New("not editable in current mode")
	// ErrStaleRender is returned by a render request superseded by a newer one.
	ErrStaleRender = errors.New("stale render")
)

// Backend bundles the external document capabilities a session consumes.
type Backend struct {
	Parser      document.Parser
	Rasterizer  document.Rasterizer
	Constructor document.Constructor
}

// Reason says why the visible frame became invalid.
type Reason int

const (
	Navigated Reason = iota
	Zoomed
	ModeChanged
	TextEdited
	AnnotationsChanged
)

func (r Reason) String() string {
	switch r {
	case Navigated:
		return "navigated"
	case Zoomed:
		return "zoomed"
	case ModeChanged:
		return "mode-changed"
	case TextEdited:
		return "text-edited"
	case AnnotationsChanged:
		return "annotations-changed"
	default:
		return fmt.Sprintf("Reason(%d)", int(r))
	}
}

// Config configures a session.
type Config struct {
	DefaultScale float64
	MinScale     float64
	MaxScale     float64
	// Style is applied to new annotations.
	Style annotation.Style
	// Export is used by Export; its Logger and Tracer default to the session's.
	Export export.Config
	Logger observability.Logger
	Tracer observability.Tracer
	// OnInvalidate is called when the current frame should be re-rendered.
	OnInvalidate func(Reason)
}

func DefaultConfig() Config {
	return Config{
		DefaultScale: 1,
		MinScale:     0.1,
		MaxScale:     5,
		Style:        annotation.Style{Color: document.Color{R: 220, G: 30, B: 30}, StrokeWidth: 2},
		Export:       export.DefaultConfig(),
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.MinScale <= 0 {
		c.MinScale = def.MinScale
	}
	if c.MaxScale < c.MinScale {
		c.MaxScale = math.Max(def.MaxScale, c.MinScale)
	}
	if c.DefaultScale <= 0 {
		c.DefaultScale = def.DefaultScale
	}
	c.DefaultScale = math.Min(math.Max(c.DefaultScale, c.MinScale), c.MaxScale)
	c.Logger = observability.OrNop(c.Logger)
	c.Tracer = observability.TracerOrNop(c.Tracer)
	if c.Export.Logger == nil {
		c.Export.Logger = c.Logger
	}
	if c.Export.Tracer == nil {
		c.Export.Tracer = c.Tracer
	}
	return c
}

// Session is a loaded document under edit.
type Session struct {
	cfg      Config
	backend  Backend
	original []byte
	handle   document.Handle
	doc      *document.Document

	runs  *textrun.Model
	notes *annotation.Model
	modes *mode.Machine

	page  int
	scale float64
	draft annotation.ID

	seq      atomic.Uint64
	renderMu sync.Mutex
	faces    *fonts.Faces
}

// Load parses data and builds a fresh session on page 0 at the default
// scale. Any parse failure yields document.ErrUnreadableDocument and no
// session.
func Load(ctx context.Context, data []byte, backend Backend, cfg Config) (s *Session, err error) {
	cfg = cfg.withDefaults()
	ctx, span := cfg.Tracer.StartSpan(ctx, observability.SpanLoad)
	defer func() {
		if err != nil {
			span.SetError(err)
		}
		span.Finish()
	}()
	if backend.Parser == nil || backend.Rasterizer == nil || backend.Constructor == nil {
		return nil, errors.New("session backend is incomplete")
	}

	h, err := backend.Parser.Parse(ctx, data)
	if err != nil {
		if !errors.Is(err, document.ErrUnreadableDocument) {
			err = fmt.Errorf("%v: %w", err, document.ErrUnreadableDocument)
		}
		return nil, err
	}
	doc, err := document.Describe(h)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, document.ErrUnreadableDocument)
	}
	if doc.PageCount() == 0 {
		return nil, fmt.Errorf("no pages: %w", document.ErrUnreadableDocument)
	}
	runs, err := textrun.Extract(ctx, h, cfg.Logger)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, document.ErrUnreadableDocument) {
			return nil, fmt.Errorf("extract text: %w", err)
		}
		return nil, fmt.Errorf("extract text: %v: %w", err, document.ErrUnreadableDocument)
	}
	span.SetTag("pages", doc.PageCount())
	span.SetTag("runs", runs.Len())

	s = &Session{
		cfg:      cfg,
		backend:  backend,
		original: append([]byte(nil), data...),
		handle:   h,
		doc:      doc,
		runs:     runs,
		notes:    annotation.NewModel(),
		scale:    cfg.DefaultScale,
		faces:    fonts.NewFaces(),
	}
	s.modes = mode.NewMachine(mode.Hooks{OnEnter: s.entered, OnLeave: s.left})
	cfg.Logger.Info("document loaded",
		observability.Int("pages", doc.PageCount()),
		observability.Int("runs", runs.Len()))
	return s, nil
}

func (s *Session) Document() *document.Document { return s.doc }
func (s *Session) Page() int                    { return s.page }
func (s *Session) Scale() float64               { return s.scale }
func (s *Session) Mode() mode.State             { return s.modes.Current() }

// Runs exposes the text runs for reading. Mutate through CommitText.
func (s *Session) Runs() *textrun.Model { return s.runs }

// Annotations exposes the annotations for reading. Mutate through gestures
// and UndoAnnotation.
func (s *Session) Annotations() *annotation.Model { return s.notes }

func (s *Session) pageSize(page int) coords.PageSize {
	return s.doc.Pages[page].Size()
}

// Viewport describes the current page at the current scale.
func (s *Session) Viewport() coords.Viewport {
	return coords.NewViewport(s.page, s.pageSize(s.page), s.scale)
}

// GoToPage moves to page n. Out-of-range pages fail with
// document.ErrOutOfRange and leave the session unchanged.
func (s *Session) GoToPage(n int) error {
	if n < 0 || n >= s.doc.PageCount() {
		return fmt.Errorf("page %d of %d: %w", n, s.doc.PageCount(), document.ErrOutOfRange)
	}
	if n == s.page {
		return nil
	}
	s.commitDraft()
	s.page = n
	s.invalidate(Navigated)
	return nil
}

// SetScale clamps sc to the configured zoom range and applies it. It
// returns the applied scale.
func (s *Session) SetScale(sc float64) (float64, error) {
	if math.IsNaN(sc) || math.IsInf(sc, 0) {
		return s.scale, fmt.Errorf("invalid scale %v", sc)
	}
	sc = math.Min(math.Max(sc, s.cfg.MinScale), s.cfg.MaxScale)
	if sc == s.scale {
		return sc, nil
	}
	s.scale = sc
	s.invalidate(Zoomed)
	return sc, nil
}

// FitToWidth scales the current page to fill widthPx.
func (s *Session) FitToWidth(widthPx float64) (float64, error) {
	return s.SetScale(coords.ScaleToFit(widthPx, s.pageSize(s.page).Width))
}

// FitToSurface scales the current page to fit entirely within the surface.
func (s *Session) FitToSurface(widthPx, heightPx float64) (float64, error) {
	return s.SetScale(coords.ScaleToFitSurface(widthPx, heightPx, s.pageSize(s.page)))
}

// SelectMode switches the edit mode. Accumulated edits and annotations are
// always preserved.
func (s *Session) SelectMode(st mode.State) error {
	return s.modes.Select(st)
}

func (s *Session) entered(t mode.Transition) {
	s.cfg.Logger.Debug("mode entered", observability.String("mode", t.To.String()))
	s.invalidate(ModeChanged)
}

func (s *Session) left(t mode.Transition) {
	if t.From.Kind == mode.Annotate {
		s.commitDraft()
	}
}

func (s *Session) invalidate(r Reason) {
	if s.cfg.OnInvalidate != nil {
		s.cfg.OnInvalidate(r)
	}
}
