package main

import (
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/wudi/pdfedit/builder"
	"github.com/wudi/pdfedit/mode"
	"github.com/wudi/pdfedit/observability"
	"github.com/wudi/pdfedit/raster"
	"github.com/wudi/pdfedit/reader"
	"github.com/wudi/pdfedit/session"
)

// Edit replaces the text of one run.
type Edit struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// RunView is the JSON shape printed by the runs command.
type RunView struct {
	ID       string  `json:"id"`
	Page     int     `json:"page"`
	Text     string  `json:"text"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	FontSize float64 `json:"font_size"`
	FontName string  `json:"font_name,omitempty"`
}

// App runs the subcommands.
type App struct {
	Logger observability.Logger
	Stdout io.Writer
}

func (a *App) backend() session.Backend {
	return session.Backend{
		Parser:      reader.NewParser(reader.Config{Logger: a.Logger}),
		Rasterizer:  raster.NewPreview(raster.DefaultConfig()),
		Constructor: builder.NewConstructor(builder.DefaultConfig()),
	}
}

func (a *App) open(ctx context.Context, config Config) (*session.Session, error) {
	data, err := os.ReadFile(config.Filename)
	if err != nil {
		return nil, err
	}
	cfg := session.DefaultConfig()
	cfg.Logger = a.Logger.With(observability.String("file", filepath.Base(config.Filename)))
	cfg.Export.Validate = reader.Validate
	cfg.Export.CoverAscent = config.CoverAscent
	s, err := session.Load(ctx, data, a.backend(), cfg)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", config.Filename, err)
	}
	if config.Edits == "" {
		return s, nil
	}
	edits, err := readEdits(config.Edits)
	if err != nil {
		return nil, err
	}
	if err := s.SelectMode(mode.State{Kind: mode.EditText}); err != nil {
		return nil, err
	}
	for _, e := range edits {
		if err := s.CommitText(e.ID, e.Text); err != nil {
			return nil, err
		}
		if over, w, err := s.Overflow(e.ID); err == nil && over {
			a.Logger.Warn("edited text overflows its box",
				observability.String("run", e.ID), observability.Float64("width", w))
		}
	}
	return s, nil
}

func readEdits(path string) ([]Edit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var edits []Edit
	if err := json.Unmarshal(data, &edits); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return edits, nil
}

// Runs prints every run as JSON.
func (a *App) Runs(config Config) error {
	s, err := a.open(context.Background(), config)
	if err != nil {
		return err
	}
	all := s.Runs().All()
	views := make([]RunView, len(all))
	for i, r := range all {
		views[i] = RunView{
			ID: r.ID, Page: r.Page, Text: r.Text,
			X: r.X, Y: r.Y, Width: r.Width, Height: r.Height,
			FontSize: r.FontSize, FontName: r.FontName,
		}
	}
	enc := json.NewEncoder(a.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(views)
}

// Apply exports the document with the edits applied.
func (a *App) Apply(config Config) error {
	ctx := context.Background()
	s, err := a.open(ctx, config)
	if err != nil {
		return err
	}
	res, err := s.Export(ctx)
	if err != nil {
		return err
	}
	if err := os.WriteFile(config.Output, res.Data, 0o644); err != nil {
		return err
	}
	for _, rr := range res.Runs {
		if rr.Err != nil {
			a.Logger.Warn("run not drawn", observability.String("run", rr.RunID), observability.Error("error", rr.Err))
		}
	}
	a.Logger.Info("wrote document", observability.String("path", config.Output), observability.Int("bytes", len(res.Data)))
	return nil
}

// Preview renders every page to <directory>/page-<n>.png. Each worker loads
// its own session since a session has a single writer.
func (a *App) Preview(config Config) error {
	if err := os.MkdirAll(config.Directory, 0o755); err != nil {
		return err
	}
	first, err := a.open(context.Background(), config)
	if err != nil {
		return err
	}
	pages := first.Document().PageCount()
	workers := min(max(config.Concurrency, 1), pages)
	scale := float64(config.Zoom) / 100

	g, ctx := errgroup.WithContext(context.Background())
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			s := first
			if w > 0 {
				var err error
				if s, err = a.open(ctx, config); err != nil {
					return err
				}
			}
			if _, err := s.SetScale(scale); err != nil {
				return err
			}
			for page := w; page < pages; page += workers {
				if err := renderPage(ctx, s, page, config.Directory); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	a.Logger.Info("preview written", observability.String("dir", config.Directory), observability.Int("pages", pages))
	return nil
}

func renderPage(ctx context.Context, s *session.Session, page int, dir string) error {
	if err := s.GoToPage(page); err != nil {
		return err
	}
	frame, err := s.Render(ctx)
	if err != nil {
		return err
	}
	img, err := frame.Flatten()
	if err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(dir, fmt.Sprintf("page-%03d.png", page+1)))
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
