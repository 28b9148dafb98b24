// Package fonts supplies the editor's fallback typeface: Go Regular faces for
// raster previews and shaped advance widths for overflow checks.
package fonts

import (
	"bytes"
	"fmt"
	"math"
	"sync"
	"unicode"

	"github.com/go-text/typesetting/di"
	gofont "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// FallbackName is the family name under which the fallback font is registered
// with construction backends.
const FallbackName = "goregular"

// FallbackTTF returns the fallback TrueType program.
func FallbackTTF() []byte { return goregular.TTF }

var (
	parseOnce sync.Once
	parsed    *opentype.Font
	parseErr  error

	shapeOnce sync.Once
	shapeFace *gofont.Face
	shapeErr  error
)

func fallbackFont() (*opentype.Font, error) {
	parseOnce.Do(func() {
		parsed, parseErr = opentype.Parse(goregular.TTF)
	})
	return parsed, parseErr
}

// Faces caches raster faces of the fallback font by pixel size.
type Faces struct {
	mu    sync.Mutex
	faces map[float64]xfont.Face
}

func NewFaces() *Faces {
	return &Faces{faces: make(map[float64]xfont.Face)}
}

// Face returns a face whose em is sizePx pixels. Sizes are rounded to a
// quarter pixel to bound the cache.
func (c *Faces) Face(sizePx float64) (xfont.Face, error) {
	if sizePx <= 0 {
		return nil, fmt.Errorf("face size %v must be positive", sizePx)
	}
	key := math.Round(sizePx*4) / 4
	if key == 0 {
		key = 0.25
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if f, ok := c.faces[key]; ok {
		return f, nil
	}
	font, err := fallbackFont()
	if err != nil {
		return nil, fmt.Errorf("parse fallback font: %w", err)
	}
	face, err := opentype.NewFace(font, &opentype.FaceOptions{
		Size:    key,
		DPI:     72,
		Hinting: xfont.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("new face: %w", err)
	}
	c.faces[key] = face
	return face, nil
}

// Measure returns the shaped advance width of text set in the fallback font
// at size points.
func Measure(text string, size float64) (float64, error) {
	runes := []rune(text)
	if len(runes) == 0 || size <= 0 {
		return 0, nil
	}
	shapeOnce.Do(func() {
		shapeFace, shapeErr = gofont.ParseTTF(bytes.NewReader(goregular.TTF))
	})
	if shapeErr != nil {
		return 0, fmt.Errorf("parse fallback font: %w", shapeErr)
	}

	script := detectScript(runes)
	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: scriptDirection(script),
		Face:      shapeFace,
		Size:      fixed.Int26_6(size * 64),
		Script:    script,
		Language:  language.DefaultLanguage(),
	}
	out := (&shaping.HarfbuzzShaper{}).Shape(input)
	return math.Abs(float64(out.Advance) / 64), nil
}

func scriptDirection(script language.Script) di.Direction {
	switch script {
	case language.Arabic, language.Hebrew, language.Syriac, language.Thaana, language.Nko:
		return di.DirectionRTL
	default:
		return di.DirectionLTR
	}
}

func detectScript(runes []rune) language.Script {
	counts := make(map[language.Script]int)
	best, bestCount := language.Latin, 0
	for _, r := range runes {
		s := scriptFromRune(r)
		if s == language.Unknown {
			continue
		}
		counts[s]++
		if counts[s] > bestCount {
			best, bestCount = s, counts[s]
		}
	}
	return best
}

func scriptFromRune(r rune) language.Script {
	switch {
	case unicode.Is(unicode.Latin, r):
		return language.Latin
	case unicode.Is(unicode.Arabic, r):
		return language.Arabic
	case unicode.Is(unicode.Hebrew, r):
		return language.Hebrew
	case unicode.Is(unicode.Cyrillic, r):
		return language.Cyrillic
	case unicode.Is(unicode.Greek, r):
		return language.Greek
	case unicode.Is(unicode.Han, r):
		return language.Han
	}
	return language.Unknown
}
