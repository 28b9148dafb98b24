// Package export composites edited text runs over the pristine source
// document.
//
// Export runs in two passes. The first pass covers every run on every page
// with an opaque rectangle; the second draws each non-blank run at its
// baseline. Because no rectangle is drawn after text, overlapping padded boxes
// can never erase an edited run.
package export

import (
	"context"
	"errors"
	"fmt"

	"github.com/wudi/pdfedit/coords"
	"github.com/wudi/pdfedit/document"
	"github.com/wudi/pdfedit/fonts"
	"github.com/wudi/pdfedit/observability"
	"github.com/wudi/pdfedit/textrun"
)

// Outcome is the result of drawing one run.
type Outcome int

const (
	// Drawn means the run was drawn with its own font.
	Drawn Outcome = iota
	// DrawnFallback means the run's font failed and the fallback font was used.
	DrawnFallback
	// Skipped means neither font could draw the run, or it was blank.
	Skipped
)

func (o Outcome) String() string {
	switch o {
	case Drawn:
		return "drawn"
	case DrawnFallback:
		return "drawn-fallback"
	case Skipped:
		return "skipped"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Config controls an export.
type Config struct {
	// Padding inflates every cover rectangle, in points.
	Padding float64
	// CoverAscent raises each cover by this fraction of the run height so it
	// spans the glyphs above the baseline. Zero keeps the cover below the
	// baseline.
	CoverAscent float64
	// Background fills cover rectangles.
	Background document.Color
	// FallbackFont is retried once when a run's font cannot draw it.
	FallbackFont string
	// Validate, when set, checks the serialized bytes. A failure fails the
	// export.
	Validate func([]byte) error
	// Progress, when set, receives the completed fraction after each page
	// of each pass.
	Progress func(float64)
	Logger   observability.Logger
	Tracer   observability.Tracer
}

func DefaultConfig() Config {
	return Config{
		Padding:      2,
		Background:   document.White,
		FallbackFont: fonts.FallbackName,
	}
}

// RunResult reports how one run was handled. Err holds the final draw error
// for skipped runs.
type RunResult struct {
	RunID   string
	Page    int
	Outcome Outcome
	Err     error
}

// Result is a successful export.
type Result struct {
	Data []byte
	Runs []RunResult
}

// Counts tallies outcomes.
func (r *Result) Counts() map[Outcome]int {
	out := make(map[Outcome]int)
	for _, rr := range r.Runs {
		out[rr.Outcome]++
	}
	return out
}

// Export opens original through ctor, applies runs and serializes the result.
// Runs on pages the document does not have are ignored. On any fatal error no
// bytes are returned.
func Export(ctx context.Context, original []byte, runs []textrun.Run, ctor document.Constructor, cfg Config) (res *Result, err error) {
	logger := observability.OrNop(cfg.Logger)
	ctx, span := observability.TracerOrNop(cfg.Tracer).StartSpan(ctx, observability.SpanExport)
	defer func() {
		if err != nil {
			span.SetError(err)
		}
		span.Finish()
	}()
	if cfg.FallbackFont == "" {
		cfg.FallbackFont = fonts.FallbackName
	}

	doc, err := ctor.OpenForEdit(ctx, original)
	if err != nil {
		return nil, fmt.Errorf("open for edit: %w", err)
	}
	pages, sizes, err := byPage(doc, runs)
	if err != nil {
		return nil, err
	}
	span.SetTag("pages", len(pages))
	span.SetTag("runs", len(runs))

	steps := 2 * len(pages)
	done := 0
	progress := func() {
		done++
		if cfg.Progress != nil && steps > 0 {
			cfg.Progress(float64(done) / float64(steps))
		}
	}

	for p, pageRuns := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, r := range pageRuns {
			c := Cover(r, sizes[p], cfg)
			if err := doc.DrawRectangle(p, c.X, c.Y, c.Width, c.Height, document.RectOptions{FillColor: cfg.Background}); err != nil {
				return nil, fmt.Errorf("cover run %s: %w", r.ID, err)
			}
		}
		logger.Debug("page covered", observability.Int("page", p), observability.Int("runs", len(pageRuns)))
		progress()
	}

	res = &Result{Runs: make([]RunResult, 0, len(runs))}
	for p, pageRuns := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, r := range pageRuns {
			rr := drawRun(doc, r, sizes[p], cfg)
			switch {
			case rr.Outcome == DrawnFallback:
				logger.Warn("run drawn with fallback font",
					observability.String("run", r.ID), observability.String("font", r.FontName))
			case rr.Outcome == Skipped && rr.Err != nil:
				logger.Warn("run skipped", observability.String("run", r.ID), observability.Error("error", rr.Err))
			}
			res.Runs = append(res.Runs, rr)
		}
		logger.Debug("page drawn", observability.Int("page", p))
		progress()
	}

	data, err := doc.Serialize(ctx)
	if err != nil {
		if !errors.Is(err, document.ErrSerializationFailed) {
			err = fmt.Errorf("%v: %w", err, document.ErrSerializationFailed)
		}
		return nil, err
	}
	if cfg.Validate != nil {
		if verr := cfg.Validate(data); verr != nil {
			return nil, fmt.Errorf("%v: %w", verr, document.ErrSerializationFailed)
		}
	}
	res.Data = data
	counts := res.Counts()
	logger.Info("export complete",
		observability.Int("bytes", len(data)),
		observability.Int("drawn", counts[Drawn]),
		observability.Int("fallback", counts[DrawnFallback]),
		observability.Int("skipped", counts[Skipped]))
	return res, nil
}

// Cover is the bottom-left rectangle that erases r.
func Cover(r textrun.Run, size coords.PageSize, cfg Config) coords.Rect {
	return coords.LiftCover(coords.CoverRect(r.Box(), size, cfg.Padding), cfg.CoverAscent*r.Height)
}

// byPage buckets runs by page in extraction order, indexed over every page of
// doc, and reads each page size.
func byPage(doc document.MutableDocument, runs []textrun.Run) ([][]textrun.Run, []coords.PageSize, error) {
	n := doc.PageCount()
	pages := make([][]textrun.Run, n)
	sizes := make([]coords.PageSize, n)
	for i := 0; i < n; i++ {
		w, h, err := doc.PageSize(i)
		if err != nil {
			return nil, nil, fmt.Errorf("page %d size: %w", i, err)
		}
		sizes[i] = coords.PageSize{Width: w, Height: h}
	}
	for _, r := range runs {
		if r.Page < 0 || r.Page >= n {
			continue
		}
		pages[r.Page] = append(pages[r.Page], r)
	}
	return pages, sizes, nil
}

func drawRun(doc document.MutableDocument, r textrun.Run, size coords.PageSize, cfg Config) RunResult {
	rr := RunResult{RunID: r.ID, Page: r.Page}
	if r.Blank() {
		rr.Outcome = Skipped
		return rr
	}
	opts := document.TextOptions{Font: r.FontName, FontSize: r.FontSize, Color: r.Color}
	y := coords.Baseline(r.Y, size)
	err := doc.DrawText(r.Page, r.Text, r.X, y, opts)
	if err == nil {
		rr.Outcome = Drawn
		return rr
	}
	if opts.Font == cfg.FallbackFont {
		rr.Outcome, rr.Err = Skipped, err
		return rr
	}
	opts.Font = cfg.FallbackFont
	if ferr := doc.DrawText(r.Page, r.Text, r.X, y, opts); ferr != nil {
		rr.Outcome, rr.Err = Skipped, fmt.Errorf("%v; fallback: %w", err, ferr)
		return rr
	}
	rr.Outcome = DrawnFallback
	return rr
}
