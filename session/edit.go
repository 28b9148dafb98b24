package session

import (
	"context"
	"fmt"

	"github.com/wudi/pdfedit/annotation"
	"github.com/wudi/pdfedit/coords"
	"github.com/wudi/pdfedit/document"
	"github.com/wudi/pdfedit/export"
	"github.com/wudi/pdfedit/fonts"
	"github.com/wudi/pdfedit/observability"
	"github.com/wudi/pdfedit/textrun"
)

// CommitText replaces the text of a run. It is accepted only in EditText.
func (s *Session) CommitText(id, text string) error {
	if !s.modes.CanEditText() {
		return fmt.Errorf("commit text %q: %w", id, ErrReadOnly)
	}
	if err := s.runs.Update(id, text); err != nil {
		return err
	}
	s.invalidate(TextEdited)
	return nil
}

// RevertText restores a run's extracted text. It is accepted only in EditText.
func (s *Session) RevertText(id string) error {
	if !s.modes.CanEditText() {
		return fmt.Errorf("revert text %q: %w", id, ErrReadOnly)
	}
	if err := s.runs.Revert(id); err != nil {
		return err
	}
	s.invalidate(TextEdited)
	return nil
}

// RunAt returns the run under a surface pixel on the current page.
func (s *Session) RunAt(p coords.Pixel) (textrun.Run, bool) {
	size := s.pageSize(s.page)
	return s.runs.At(s.page, coords.PixelToPoint(p, size, s.Viewport()))
}

// Overflow reports whether a run's current text, set in the fallback face,
// is wider than the box fixed at extraction. It also returns the measured
// width in points.
func (s *Session) Overflow(id string) (bool, float64, error) {
	r, ok := s.runs.Get(id)
	if !ok {
		return false, 0, fmt.Errorf("run %q: %w", id, document.ErrNotFound)
	}
	w, err := fonts.Measure(r.Text, r.FontSize)
	if err != nil {
		return false, 0, err
	}
	return w > r.Width, w, nil
}

// PointerDown starts an annotation with the active tool. It fails with
// ErrReadOnly outside Annotate.
func (s *Session) PointerDown(p coords.Pixel) error {
	tool, ok := s.modes.Tool()
	if !ok {
		return fmt.Errorf("pointer down: %w", ErrReadOnly)
	}
	s.commitDraft()
	id, err := s.notes.Begin(s.page, tool, p, s.Viewport(), s.cfg.Style)
	if err != nil {
		return err
	}
	s.draft = id
	s.invalidate(AnnotationsChanged)
	return nil
}

// PointerMove extends the annotation being drawn, if any.
func (s *Session) PointerMove(p coords.Pixel) {
	if s.draft == "" {
		return
	}
	s.notes.Extend(s.draft, p, s.Viewport())
	s.invalidate(AnnotationsChanged)
}

// PointerUp extends and commits the annotation being drawn. It returns the
// committed id, or "" when nothing was being drawn.
func (s *Session) PointerUp(p coords.Pixel) annotation.ID {
	id := s.draft
	if id == "" {
		return ""
	}
	s.notes.Extend(id, p, s.Viewport())
	s.commitDraft()
	return id
}

func (s *Session) commitDraft() {
	if s.draft == "" {
		return
	}
	if err := s.notes.Commit(s.draft); err != nil {
		s.cfg.Logger.Warn("commit draft annotation", observability.Error("error", err))
	}
	s.draft = ""
	s.invalidate(AnnotationsChanged)
}

// UndoAnnotation removes the newest committed annotation on the current page.
func (s *Session) UndoAnnotation() error {
	a, ok := s.notes.LastCommitted(s.page)
	if !ok {
		return fmt.Errorf("page %d has no annotations: %w", s.page, document.ErrNotFound)
	}
	if err := s.notes.Remove(a.ID); err != nil {
		return err
	}
	s.invalidate(AnnotationsChanged)
	return nil
}

// Export composites every run over the original bytes. Annotations are not
// exported.
func (s *Session) Export(ctx context.Context) (*export.Result, error) {
	return export.Export(ctx, s.original, s.runs.All(), s.backend.Constructor, s.cfg.Export)
}
