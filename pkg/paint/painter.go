package paint

import (
	"github.com/fogleman/gg"

	"folio/pkg/doc"
	"folio/pkg/field"
	"folio/pkg/flow"
	"folio/pkg/measure"
)

// Painter rasters one page of a layout to an image. It shares the font
// configuration with the measurer so painted glyph positions agree with
// measured line breaks.
type Painter struct {
	Fonts      measure.FontConfig
	MeasureFor func(blockID string, width float64) *measure.Measure
	BlockFor   func(blockID string) *doc.Block

	context *gg.Context
}

// NewPainter creates a painter over the given fonts.
func NewPainter(fonts measure.FontConfig) *Painter {
	return &Painter{Fonts: fonts}
}

// PaintPage rasters page pageIndex of the layout. The page context drives
// field resolution, so PAGE and NUMPAGES render their per-page values.
func (p *Painter) PaintPage(l *flow.Layout, pageIndex int, pc field.PageContext) *gg.Context {
	page := l.Pages[pageIndex]
	dc := gg.NewContext(int(page.Size.Width), int(page.Size.Height))
	p.context = dc

	dc.SetRGB(1, 1, 1)
	dc.Clear()

	resolver := field.NewResolver()
	for _, f := range page.Header {
		p.drawFragment(f, resolver, pc)
	}
	for _, f := range page.Fragments {
		p.drawFragment(f, resolver, pc)
	}
	for _, f := range page.Footer {
		p.drawFragment(f, resolver, pc)
	}
	return dc
}

func (p *Painter) drawFragment(f *flow.Fragment, resolver *field.Resolver, pc field.PageContext) {
	switch f.Kind {
	case doc.KindParagraph:
		p.drawParagraph(f, resolver, pc)
	case doc.KindTable:
		p.drawTable(f)
	case doc.KindDrawing:
		p.drawDrawing(f)
	}
}

func (p *Painter) drawParagraph(f *flow.Fragment, resolver *field.Resolver, pc field.PageContext) {
	b := p.block(f.BlockID)
	m := p.measureOf(f)
	if b == nil || m == nil || m.Paragraph == nil {
		return
	}
	dc := p.context
	dc.SetRGB(0, 0, 0)

	y := f.Y
	for li := f.FromLine; li < f.ToLine && li < len(m.Paragraph.Lines); li++ {
		lb := m.Paragraph.Lines[li]
		baseline := y + lb.Ascent
		x := f.X + lb.X
		for ri := lb.FromRun; ri <= lb.ToRun && ri < len(b.Runs); ri++ {
			r := b.Runs[ri]
			text := p.runText(r, resolver, pc)
			text = sliceRunText(text, ri, lb)
			if text == "" {
				continue
			}
			if err := dc.LoadFontFace(p.Fonts.FontPath(r.Bold, r.Italic), runSize(r)); err != nil {
				continue
			}
			dc.DrawString(text, x, baseline)
			w, _ := dc.MeasureString(text)
			x += w
		}
		y += lb.Height
	}
}

func (p *Painter) drawTable(f *flow.Fragment) {
	b := p.block(f.BlockID)
	m := p.measureOf(f)
	if b == nil || m == nil || m.Table == nil {
		return
	}
	dc := p.context
	dc.SetRGB(0.3, 0.3, 0.3)
	dc.SetLineWidth(1)

	// Grid lines for the row range this fragment covers.
	y := f.Y
	for ri := f.FromRow; ri < f.ToRow && ri < len(m.Table.Rows); ri++ {
		rh := m.Table.Rows[ri].Height
		x := f.X
		dc.DrawRectangle(x, y, f.Width, rh)
		dc.Stroke()
		for _, cw := range m.Table.ColWidths[:len(m.Table.ColWidths)-1] {
			x += cw
			dc.DrawLine(x, y, x, y+rh)
			dc.Stroke()
		}
		y += rh
	}
}

func (p *Painter) drawDrawing(f *flow.Fragment) {
	dc := p.context
	dc.SetRGB(0.85, 0.85, 0.9)
	dc.DrawRectangle(f.X, f.Y, f.Width, f.Height)
	dc.Fill()
	dc.SetRGB(0.4, 0.4, 0.5)
	dc.SetLineWidth(1)
	dc.DrawRectangle(f.X, f.Y, f.Width, f.Height)
	dc.Stroke()
}

func (p *Painter) block(id string) *doc.Block {
	if p.BlockFor == nil {
		return nil
	}
	return p.BlockFor(id)
}

func (p *Painter) measureOf(f *flow.Fragment) *measure.Measure {
	if p.MeasureFor == nil {
		return nil
	}
	return p.MeasureFor(f.BlockID, f.Width)
}

func (p *Painter) runText(r *doc.Run, resolver *field.Resolver, pc field.PageContext) string {
	if r.Field != "" && resolver != nil {
		return resolver.Resolve(r.Field, pc)
	}
	if r.Tab {
		return " "
	}
	return r.Text
}

// sliceRunText trims a run's text to the part inside the line. Line-box
// char offsets are byte offsets within the run's text.
func sliceRunText(text string, runIndex int, lb measure.LineBox) string {
	start, end := 0, len(text)
	if runIndex == lb.FromRun && lb.FromChar >= 0 && lb.FromChar <= end {
		start = lb.FromChar
	}
	if runIndex == lb.ToRun && lb.ToChar >= 0 && lb.ToChar <= end {
		end = lb.ToChar
	}
	if start >= end {
		return ""
	}
	return text[start:end]
}

func runSize(r *doc.Run) float64 {
	if r.FontSize > 0 {
		return r.FontSize
	}
	return 12
}
