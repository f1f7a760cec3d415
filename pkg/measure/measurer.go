package measure

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/fogleman/gg"

	"folio/pkg/doc"
)

// Measurer supplies text geometry to the line breaker and flow engine.
// Implementations must be deterministic for identical input.
type Measurer interface {
	// RunWidth measures text rendered with the run's style.
	RunWidth(r *doc.Run, text string) float64
	// RunMetrics returns the ascent and descent of the run's font.
	RunMetrics(r *doc.Run) (ascent, descent float64)
}

// FontConfig holds paths to the font files used for measurement and
// rasterization.
type FontConfig struct {
	Regular    string
	Bold       string
	Italic     string
	BoldItalic string
}

// defaultFontsDir locates the bundled fonts next to the executable, falling
// back to the source tree.
func defaultFontsDir() string {
	if exe, err := os.Executable(); err == nil {
		dir := filepath.Join(filepath.Dir(exe), "..", "fonts")
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	_, thisFile, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(thisFile), "..", "..", "fonts")
}

// DefaultFontConfig returns a FontConfig over the bundled fonts.
func DefaultFontConfig() FontConfig {
	dir := defaultFontsDir()
	return FontConfig{
		Regular:    filepath.Join(dir, "Regular.ttf"),
		Bold:       filepath.Join(dir, "Bold.ttf"),
		Italic:     filepath.Join(dir, "Italic.ttf"),
		BoldItalic: filepath.Join(dir, "BoldItalic.ttf"),
	}
}

// FontPath returns the configured path for a bold/italic combination.
func (fc FontConfig) FontPath(bold, italic bool) string {
	if bold && italic && fc.BoldItalic != "" {
		return fc.BoldItalic
	}
	if bold && fc.Bold != "" {
		return fc.Bold
	}
	if italic && fc.Italic != "" {
		return fc.Italic
	}
	return fc.Regular
}

type fontKey struct {
	path string
	size float64
}

// GGMeasurer measures text through fogleman/gg font faces. Loaded faces are
// cached per (path, size); a load failure degrades to a rough character
// estimate rather than failing the layout pass.
type GGMeasurer struct {
	fonts    FontConfig
	contexts map[fontKey]*gg.Context
}

// NewGGMeasurer creates a measurer over the given fonts.
func NewGGMeasurer(fonts FontConfig) *GGMeasurer {
	return &GGMeasurer{
		fonts:    fonts,
		contexts: make(map[fontKey]*gg.Context),
	}
}

const defaultFontSize = 12.0

func runFontSize(r *doc.Run) float64 {
	if r.FontSize > 0 {
		return r.FontSize
	}
	return defaultFontSize
}

func (m *GGMeasurer) contextFor(r *doc.Run) *gg.Context {
	key := fontKey{path: m.fonts.FontPath(r.Bold, r.Italic), size: runFontSize(r)}
	if dc, ok := m.contexts[key]; ok {
		return dc
	}
	dc := gg.NewContext(1, 1)
	if err := dc.LoadFontFace(key.path, key.size); err != nil {
		m.contexts[key] = nil
		return nil
	}
	m.contexts[key] = dc
	return dc
}

// RunWidth implements Measurer.
func (m *GGMeasurer) RunWidth(r *doc.Run, text string) float64 {
	dc := m.contextFor(r)
	if dc == nil {
		return float64(len([]rune(text))) * runFontSize(r) * 0.6
	}
	w, _ := dc.MeasureString(text)
	return w
}

// RunMetrics implements Measurer.
func (m *GGMeasurer) RunMetrics(r *doc.Run) (ascent, descent float64) {
	size := runFontSize(r)
	dc := m.contextFor(r)
	if dc == nil {
		return size * 0.96, size * 0.24
	}
	h := dc.FontHeight()
	return h * 0.8, h * 0.2
}

// FixedMeasurer is a deterministic measurer for tests: every character is
// CharWidth wide and every run is Ascent over Descent tall.
type FixedMeasurer struct {
	CharWidth float64
	Ascent    float64
	Descent   float64
}

// NewFixedMeasurer returns a FixedMeasurer with sensible test defaults.
func NewFixedMeasurer() *FixedMeasurer {
	return &FixedMeasurer{CharWidth: 5, Ascent: 10, Descent: 4}
}

// RunWidth implements Measurer.
func (m *FixedMeasurer) RunWidth(_ *doc.Run, text string) float64 {
	return float64(len([]rune(text))) * m.CharWidth
}

// RunMetrics implements Measurer.
func (m *FixedMeasurer) RunMetrics(_ *doc.Run) (float64, float64) {
	return m.Ascent, m.Descent
}
