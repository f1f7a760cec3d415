package measure

import (
	"strings"

	"folio/pkg/doc"
	"folio/pkg/geom"
)

// LineBox describes one laid-out line of a paragraph: the half-open range of
// run/character positions it covers plus its vertical metrics. Char offsets
// are byte offsets within their run's text; consumers mapping to rune-counted
// document positions convert through utf8.
type LineBox struct {
	FromRun  int
	FromChar int
	ToRun    int // exclusive when ToChar == 0, else the run containing ToChar
	ToChar   int // exclusive byte offset within ToRun

	X       float64 // left offset inside the content band (wrap exclusions shift it)
	Width   float64
	Ascent  float64
	Descent float64
	Height  float64
}

// ParagraphMeasure is the measured geometry of one paragraph at a given
// available width.
type ParagraphMeasure struct {
	Lines  []LineBox
	Height float64
}

// CellMeasure is the measured geometry of one table cell.
type CellMeasure struct {
	Paragraphs []*ParagraphMeasure
	Height     float64
}

// RowMeasure is the measured geometry of one table row. A nil cell entry is
// a continuation placeholder reserved under a rowspan from an earlier row.
type RowMeasure struct {
	Cells  []*CellMeasure
	Height float64
}

// TableMeasure is the measured geometry of a table: resolved column widths
// plus nested per-row, per-cell measures.
type TableMeasure struct {
	ColWidths []float64
	Rows      []RowMeasure
	Height    float64
}

// DrawingMeasure is the rendered geometry of a drawing.
type DrawingMeasure struct {
	Width, Height, Scale float64
}

// Measure is the cached geometry for one block under one constraint set.
type Measure struct {
	Kind      doc.BlockKind
	Paragraph *ParagraphMeasure
	Table     *TableMeasure
	Drawing   *DrawingMeasure
}

// Height returns the block's total measured height.
func (m *Measure) TotalHeight() float64 {
	switch {
	case m == nil:
		return 0
	case m.Paragraph != nil:
		return m.Paragraph.Height
	case m.Table != nil:
		return m.Table.Height
	case m.Drawing != nil:
		return m.Drawing.Height
	}
	return 0
}

// BreakOptions configures paragraph line breaking.
type BreakOptions struct {
	// TabStops are the paragraph's resolved stops; nil means the default
	// grid only.
	TabStops []geom.TabStop
	// DefaultTabInterval is the grid spacing for tabs past the last stop.
	DefaultTabInterval float64
	// ExclusionFor narrows an individual line: given the line's Y offset
	// within the paragraph and its height, it returns a band to avoid, or
	// nil. Bands are page-band relative to the paragraph's content left.
	ExclusionFor func(y, lineHeight float64) *geom.Band
}

// token is one unbreakable unit of a paragraph: a word, a space, or a tab.
type token struct {
	runIdx   int
	from, to int // byte offsets within the run's text
	width    float64
	tab      bool
	space    bool
}

// BreakParagraph wraps a paragraph's runs into lines no wider than avail.
// Words never split mid-word; a word wider than the line still occupies one
// full line rather than being dropped.
func BreakParagraph(b *doc.Block, avail float64, m Measurer, opts *BreakOptions) *ParagraphMeasure {
	if opts == nil {
		opts = &BreakOptions{}
	}
	interval := opts.DefaultTabInterval
	if interval <= 0 {
		interval = 720
	}

	toks := tokenize(b.Runs, m)
	pm := &ParagraphMeasure{}

	ascent, descent := defaultLineMetrics(b, m)
	if len(toks) == 0 {
		pm.Lines = []LineBox{{FromRun: 0, FromChar: 0, ToRun: 0, ToChar: 0,
			Ascent: ascent, Descent: descent, Height: ascent + descent}}
		pm.Height = ascent + descent
		return pm
	}

	y := 0.0
	i := 0
	for i < len(toks) {
		lineHeight := ascent + descent
		lineX := 0.0
		lineAvail := avail
		if opts.ExclusionFor != nil {
			if band := opts.ExclusionFor(y, lineHeight); band != nil {
				// Flow text into the wider side of the band.
				leftRoom := band.Left
				rightRoom := avail - band.Right
				if rightRoom > leftRoom {
					lineX = band.Right
					lineAvail = rightRoom
				} else {
					lineAvail = leftRoom
				}
			}
		}

		start := i
		x := 0.0
		lineAscent, lineDescent := 0.0, 0.0
		for i < len(toks) {
			tk := toks[i]
			w := tk.width
			if tk.tab {
				target := nextTabX(x, opts.TabStops, interval)
				w = target - x
				if w < 0 {
					w = 0
				}
			}
			if !tk.space && x+w > lineAvail && i > start {
				break
			}
			a, d := m.RunMetrics(b.Runs[tk.runIdx])
			if a > lineAscent {
				lineAscent = a
			}
			if d > lineDescent {
				lineDescent = d
			}
			x += w
			i++
		}
		// Trailing spaces stay on the line but do not count toward width.
		lineWidth := x
		for j := i - 1; j >= start && toks[j].space; j-- {
			lineWidth -= toks[j].width
		}
		if lineAscent == 0 && lineDescent == 0 {
			lineAscent, lineDescent = ascent, descent
		}

		first := toks[start]
		last := toks[i-1]
		pm.Lines = append(pm.Lines, LineBox{
			FromRun:  first.runIdx,
			FromChar: first.from,
			ToRun:    last.runIdx,
			ToChar:   last.to,
			X:        lineX,
			Width:    lineWidth,
			Ascent:   lineAscent,
			Descent:  lineDescent,
			Height:   lineAscent + lineDescent,
		})
		y += lineAscent + lineDescent

		// Skip spaces at the start of the next line.
		for i < len(toks) && toks[i].space {
			i++
		}
	}
	pm.Height = y
	return pm
}

func defaultLineMetrics(b *doc.Block, m Measurer) (float64, float64) {
	probe := &doc.Run{}
	if len(b.Runs) > 0 {
		probe = b.Runs[0]
	}
	return m.RunMetrics(probe)
}

func nextTabX(x float64, stops []geom.TabStop, interval float64) float64 {
	for _, s := range stops {
		if s.Pos > x {
			return s.Pos
		}
	}
	n := 1.0
	for n*interval <= x {
		n++
	}
	return n * interval
}

func tokenize(runs []*doc.Run, m Measurer) []token {
	var toks []token
	for ri, r := range runs {
		if r.Tab {
			toks = append(toks, token{runIdx: ri, tab: true})
			continue
		}
		text := r.Text
		if r.Field != "" && text == "" {
			// Unresolved field tokens measure as their marker.
			text = "{" + r.Field + "}"
		}
		start := 0
		for start < len(text) {
			if text[start] == ' ' {
				end := start
				for end < len(text) && text[end] == ' ' {
					end++
				}
				toks = append(toks, token{
					runIdx: ri, from: start, to: end,
					width: m.RunWidth(r, text[start:end]),
					space: true,
				})
				start = end
				continue
			}
			end := strings.IndexByte(text[start:], ' ')
			if end < 0 {
				end = len(text)
			} else {
				end += start
			}
			toks = append(toks, token{
				runIdx: ri, from: start, to: end,
				width: m.RunWidth(r, text[start:end]),
			})
			start = end
		}
	}
	return toks
}

// MeasureTable resolves the table's column widths against avail and measures
// every cell's paragraph content at its resolved width. A row's height is
// the max content height across its cells plus cell padding; cells spanning
// multiple rows leave continuation placeholders (nil cell measures) in the
// rows they cover so merged content is never measured twice.
func MeasureTable(b *doc.Block, avail float64, m Measurer, opts *BreakOptions) (*TableMeasure, error) {
	numCols := 0
	for _, row := range b.Rows {
		n := 0
		for _, c := range row.Cells {
			n += c.SpanOf()
		}
		if n > numCols {
			numCols = n
		}
	}
	if numCols == 0 {
		return &TableMeasure{}, nil
	}

	specs := columnSpecs(b, numCols)
	widths, err := geom.ResolveColumnWidths(specs, avail)
	if err != nil {
		return nil, err
	}

	tm := &TableMeasure{ColWidths: widths}

	// rowspanLeft[col] counts rows still covered by an earlier cell.
	rowspanLeft := make([]int, numCols)

	for _, row := range b.Rows {
		rm := RowMeasure{Cells: make([]*CellMeasure, numCols)}
		col := 0
		for _, cell := range row.Cells {
			for col < numCols && rowspanLeft[col] > 0 {
				rowspanLeft[col]--
				col++ // continuation placeholder: rm.Cells[col] stays nil
			}
			if col >= numCols {
				break
			}
			span := cell.SpanOf()
			cellWidth := 0.0
			for c := col; c < col+span && c < numCols; c++ {
				cellWidth += widths[c]
			}
			cellWidth -= 2 * cell.Padding
			if cellWidth < 0 {
				cellWidth = 0
			}

			cm := &CellMeasure{}
			for _, p := range cell.Content {
				pm := BreakParagraph(p, cellWidth, m, opts)
				cm.Paragraphs = append(cm.Paragraphs, pm)
				cm.Height += pm.Height
			}
			rm.Cells[col] = cm

			if rs := cell.RowSpanOf(); rs > 1 {
				for c := col; c < col+span && c < numCols; c++ {
					rowspanLeft[c] += rs - 1
				}
			}
			maxHeight := cm.Height + 2*cell.Padding
			if maxHeight > rm.Height {
				rm.Height = maxHeight
			}
			col += span
		}
		// Columns past the declared cells may still be under a rowspan.
		for ; col < numCols; col++ {
			if rowspanLeft[col] > 0 {
				rowspanLeft[col]--
			}
		}
		tm.Rows = append(tm.Rows, rm)
		tm.Height += rm.Height
	}
	return tm, nil
}

func columnSpecs(b *doc.Block, numCols int) []geom.ColumnSpec {
	specs := make([]geom.ColumnSpec, numCols)
	if len(b.Rows) == 0 {
		return specs
	}
	col := 0
	for _, cell := range b.Rows[0].Cells {
		if col >= numCols {
			break
		}
		switch cell.WidthKind {
		case doc.CellWidthFixed:
			specs[col] = geom.ColumnSpec{Kind: geom.ColumnFixed, Value: cell.Width}
		case doc.CellWidthPct:
			specs[col] = geom.ColumnSpec{Kind: geom.ColumnPct, Value: cell.Width}
		default:
			specs[col] = geom.ColumnSpec{Kind: geom.ColumnAuto}
		}
		// Spanning cells leave their trailing columns auto.
		col += cell.SpanOf()
	}
	return specs
}

// MeasureDrawing scales a drawing's native size into its anchored rectangle.
func MeasureDrawing(b *doc.Block) *DrawingMeasure {
	d := b.Drawing
	if d == nil {
		return &DrawingMeasure{}
	}
	scale := 1.0
	if d.NativeWidth > 0 {
		scale = d.Width / d.NativeWidth
	}
	return &DrawingMeasure{Width: d.Width, Height: d.Height, Scale: scale}
}

// MeasureBlock measures any block kind at the given available width.
func MeasureBlock(b *doc.Block, avail float64, m Measurer, opts *BreakOptions) (*Measure, error) {
	switch b.Kind {
	case doc.KindParagraph:
		return &Measure{Kind: b.Kind, Paragraph: BreakParagraph(b, avail, m, opts)}, nil
	case doc.KindTable:
		tm, err := MeasureTable(b, avail, m, opts)
		if err != nil {
			return nil, err
		}
		return &Measure{Kind: b.Kind, Table: tm}, nil
	case doc.KindDrawing:
		return &Measure{Kind: b.Kind, Drawing: MeasureDrawing(b)}, nil
	}
	return &Measure{Kind: b.Kind}, nil
}
