package flow

import (
	"fmt"
	"unicode/utf8"

	"folio/pkg/doc"
	"folio/pkg/geom"
	"folio/pkg/hf"
	"folio/pkg/measure"
)

// Options are the page/section constraints a flow pass starts from. A
// section break in the content overrides them from that point on.
type Options struct {
	PageSize doc.PageSize
	Margins  doc.Margins
	Columns  doc.Columns
	PageGap  float64

	// Version stamps cache entries written during this pass.
	Version int64

	// Headers/Footers map variant names (hf.HeaderDefault etc.) to the
	// blocks that variant renders.
	Headers map[string][]*doc.Block
	Footers map[string][]*doc.Block

	DefaultTabInterval float64
}

// Engine flows blocks into paginated layouts, reading and writing the
// measure caches it was constructed with. The caches are owned by the
// editing session and shared by reference; the engine is their only writer
// during a pass.
type Engine struct {
	measurer measure.Measurer
	measures *measure.MeasureCache
	lines    *measure.LineCache
	hfCache  *hf.Cache

	// lastResolved tracks header/footer token output from the previous
	// pass so changed blocks can be re-invalidated in the measure cache.
	lastResolved map[string]string
}

// NewEngine creates a flow engine over the given measurer and caches. Any
// cache may be nil, in which case that caching layer is skipped.
func NewEngine(m measure.Measurer, measures *measure.MeasureCache, lines *measure.LineCache, hfCache *hf.Cache) *Engine {
	return &Engine{
		measurer:     m,
		measures:     measures,
		lines:        lines,
		hfCache:      hfCache,
		lastResolved: make(map[string]string),
	}
}

// sectionGeom is the effective geometry while flowing one section.
type sectionGeom struct {
	size        doc.PageSize
	orientation doc.Orientation
	margins     doc.Margins
	columns     doc.Columns
	section     *doc.Section
}

// flowState is the engine's cursor during one pass.
type flowState struct {
	layout *Layout
	page   *Page
	geom   sectionGeom

	colIndex  int
	colBands  []geom.Band
	regionTop float64 // top of the current column region (mid-page continuous sections move it)
	y         float64 // flow position within the current column, relative to regionTop

	drawings []*doc.Drawing // drawings anchored on the current page
}

// Flow lays the block sequence out into pages. Malformed section metadata
// falls back to the prior section's geometry; only invalid initial geometry
// is an error.
func (e *Engine) Flow(blocks []*doc.Block, opts Options) (*Layout, error) {
	if err := geom.ValidatePageGeometry(
		opts.PageSize.Width, opts.PageSize.Height,
		opts.Margins.Left, opts.Margins.Right, opts.Margins.Top, opts.Margins.Bottom,
	); err != nil {
		return nil, fmt.Errorf("flow: %w", err)
	}

	cols := opts.Columns
	if cols.Count < 1 {
		cols.Count = 1
	}
	st := &flowState{
		layout: &Layout{PageSize: opts.PageSize, PageGap: opts.PageGap, Columns: cols},
		geom: sectionGeom{
			size:        opts.PageSize,
			orientation: doc.Portrait,
			margins:     opts.Margins,
			columns:     cols,
		},
	}
	st.newPage()

	var sections []*doc.Section
	for _, b := range blocks {
		if b.Kind == doc.KindParagraph && b.Section != nil {
			sections = append(sections, b.Section)
			e.applySection(st, b.Section)
		}
		switch b.Kind {
		case doc.KindParagraph:
			e.flowParagraph(st, b, opts)
		case doc.KindTable:
			e.flowTable(st, b, opts)
		case doc.KindDrawing:
			e.flowDrawing(st, b)
		case doc.KindBreak:
			if b.Break == doc.BreakColumn {
				st.nextColumn()
			} else {
				st.newPage()
			}
		}
	}

	e.layoutHeadersFooters(st.layout, sections, opts)
	return st.layout, nil
}

// applySection switches the flow to a new section's geometry. A next-page
// break always starts a page; a continuous break starts one only when page
// geometry changes or the current column index would be out of bounds under
// the reduced column count — otherwise the new column region takes effect
// at the current flow position on the same page.
func (e *Engine) applySection(st *flowState, sec *doc.Section) {
	next := st.geom
	next.section = sec
	if sec.PageSize != nil && sec.PageSize.Width > 0 && sec.PageSize.Height > 0 {
		next.size = *sec.PageSize
	}
	// Missing page size falls back to the previous section's geometry.
	next.orientation = sec.Orientation
	if sec.Margins != nil {
		next.margins = *sec.Margins
	}
	next.columns = sec.Columns
	if next.columns.Count < 1 {
		next.columns.Count = 1
	}

	if sec.Break == doc.SectionNextPage {
		st.geom = next
		st.breakPage()
		return
	}

	// Continuous.
	pageChanged := next.size != st.geom.size || next.orientation != st.geom.orientation
	if pageChanged || st.colIndex >= next.columns.Count {
		st.geom = next
		st.breakPage()
		return
	}

	// Mid-page column-region change: the region restarts at the deepest
	// flow position reached so far.
	st.geom = next
	st.page.Columns = next.columns
	st.regionTop = st.regionTop + st.y
	st.y = 0
	st.colIndex = 0
	st.rebuildColumns()
}

func (st *flowState) newPage() {
	g := st.geom
	size := g.size
	if g.orientation == doc.Landscape {
		size = doc.PageSize{Width: g.size.Height, Height: g.size.Width}
	}
	p := &Page{
		Index:       len(st.layout.Pages),
		Size:        size,
		Orientation: g.orientation,
		Margins:     g.margins,
		Columns:     g.columns,
	}
	st.layout.Pages = append(st.layout.Pages, p)
	st.page = p
	st.colIndex = 0
	st.regionTop = g.margins.Top
	st.y = 0
	st.drawings = nil
	st.rebuildColumns()
}

// breakPage starts a new page for a section boundary. A still-untouched
// current page (nothing placed on it yet) is re-issued with the new
// geometry instead, so a section break at the very start of the document
// does not leave an empty leading page.
func (st *flowState) breakPage() {
	if len(st.page.Fragments) == 0 && st.y == 0 && st.colIndex == 0 {
		st.layout.Pages = st.layout.Pages[:len(st.layout.Pages)-1]
	}
	st.newPage()
}

func (st *flowState) rebuildColumns() {
	p := st.page
	st.colBands = geom.ColumnRects(p.Margins.Left, p.ContentWidth(), p.Columns.Count, p.Columns.Gap)
}

// nextColumn advances to the next column, wrapping to a new page once all
// columns on the page are filled.
func (st *flowState) nextColumn() {
	st.colIndex++
	st.y = 0
	if st.colIndex >= len(st.colBands) {
		st.newPage()
	}
}

func (st *flowState) colBand() geom.Band {
	if st.colIndex < len(st.colBands) {
		return st.colBands[st.colIndex]
	}
	return geom.Band{Left: st.page.Margins.Left, Right: st.page.Margins.Left + st.page.ContentWidth()}
}

func (st *flowState) colWidth() float64 {
	b := st.colBand()
	return b.Right - b.Left
}

// regionBottom returns the lowest Y (page coords) content may occupy.
func (st *flowState) regionBottom() float64 {
	return st.page.Size.Height - st.page.Margins.Bottom
}

// remaining returns the vertical room left in the current column.
func (st *flowState) remaining() float64 {
	return st.regionBottom() - (st.regionTop + st.y)
}

func (e *Engine) measureKey(b *doc.Block, width float64) string {
	return measure.CacheKey(b.ID, fmt.Sprintf("%.2f", width))
}

// blockMeasure returns the block's measure for the given width, consulting
// the cache first. Paragraphs measured under wrap exclusions bypass the
// cache: their geometry depends on flow position, not just width.
func (e *Engine) blockMeasure(st *flowState, b *doc.Block, opts Options) (*measure.Measure, error) {
	breakOpts := &measure.BreakOptions{
		DefaultTabInterval: opts.DefaultTabInterval,
		TabStops:           geom.ComputeTabStops(b.TabStops, opts.DefaultTabInterval, b.Indent),
	}

	excl := e.exclusionFunc(st)
	if excl != nil && b.Kind == doc.KindParagraph {
		breakOpts.ExclusionFor = excl
		m, err := measure.MeasureBlock(b, st.colWidth(), e.measurer, breakOpts)
		return m, err
	}

	key := e.measureKey(b, st.colWidth())
	if e.measures != nil {
		if m := e.measures.Get(key); m != nil && e.measures.Version(key) == opts.Version {
			return m, nil
		}
	}
	m, err := measure.MeasureBlock(b, st.colWidth(), e.measurer, breakOpts)
	if err != nil {
		return nil, err
	}
	if e.measures != nil {
		e.measures.Set(key, m, opts.Version)
	}
	return m, nil
}

// exclusionFunc adapts the current page's anchored drawings into a
// per-line exclusion callback in column-local coordinates, or nil when the
// page has no wrapping drawings.
func (e *Engine) exclusionFunc(st *flowState) func(y, lineHeight float64) *geom.Band {
	if len(st.drawings) == 0 {
		return nil
	}
	drawings := st.drawings
	band := st.colBand()
	paraTop := st.regionTop + st.y
	return func(y, lineHeight float64) *geom.Band {
		lineY := paraTop + y
		for _, d := range drawings {
			if ex := geom.ComputeWrapExclusion(d, lineY, lineHeight); ex != nil {
				local := &geom.Band{Left: ex.Left - band.Left, Right: ex.Right - band.Left}
				if local.Right <= 0 || local.Left >= band.Right-band.Left {
					continue
				}
				return local
			}
		}
		return nil
	}
}

// flowParagraph places a paragraph line by line, splitting into fragments
// at column and page boundaries. A single line taller than an empty column
// still completes the page and flows the remainder onward.
func (e *Engine) flowParagraph(st *flowState, b *doc.Block, opts Options) {
	m, err := e.blockMeasure(st, b, opts)
	if err != nil || m.Paragraph == nil {
		return
	}
	pm := m.Paragraph
	runStarts := runRuneStarts(b)

	from := 0
	for from < len(pm.Lines) {
		band := st.colBand()
		avail := st.remaining()
		to := from
		height := 0.0
		width := 0.0
		for to < len(pm.Lines) {
			lh := pm.Lines[to].Height
			if height+lh > avail && to > from {
				break
			}
			if height+lh > avail && to == from && st.y > 0 {
				// Line does not fit a partially-used column; move on.
				break
			}
			height += lh
			if pm.Lines[to].Width > width {
				width = pm.Lines[to].Width
			}
			to++
		}
		if to == from {
			// Nothing fit here: advance and retry.
			st.nextColumn()
			continue
		}

		frag := &Fragment{
			BlockID:  b.ID,
			Kind:     doc.KindParagraph,
			X:        band.Left,
			Y:        st.regionTop + st.y,
			Width:    st.colWidth(),
			Height:   height,
			FromLine: from,
			ToLine:   to,
		}
		frag.PmStart, frag.PmEnd = fragmentRange(b, pm, runStarts, from, to)
		st.page.Fragments = append(st.page.Fragments, frag)
		st.y += height

		from = to
		if from < len(pm.Lines) {
			st.nextColumn()
		}
	}
}

// flowTable places a table row by row. Rows never split internally; a row
// taller than a whole column still lands somewhere rather than looping.
func (e *Engine) flowTable(st *flowState, b *doc.Block, opts Options) {
	m, err := e.blockMeasure(st, b, opts)
	if err != nil || m.Table == nil {
		return
	}
	tm := m.Table

	from := 0
	for from < len(tm.Rows) {
		band := st.colBand()
		avail := st.remaining()
		to := from
		height := 0.0
		for to < len(tm.Rows) {
			rh := tm.Rows[to].Height
			if height+rh > avail && to > from {
				break
			}
			if height+rh > avail && to == from && st.y > 0 {
				break
			}
			height += rh
			to++
		}
		if to == from {
			st.nextColumn()
			continue
		}

		st.page.Fragments = append(st.page.Fragments, &Fragment{
			BlockID: b.ID,
			Kind:    doc.KindTable,
			X:       band.Left,
			Y:       st.regionTop + st.y,
			Width:   st.colWidth(),
			Height:  height,
			FromRow: from,
			ToRow:   to,
		})
		st.y += height

		from = to
		if from < len(tm.Rows) {
			st.nextColumn()
		}
	}
}

// flowDrawing anchors a drawing on the current page. Anchored drawings do
// not advance the flow cursor; they carve exclusions out of subsequent
// paragraph lines instead.
func (e *Engine) flowDrawing(st *flowState, b *doc.Block) {
	d := b.Drawing
	if d == nil {
		return
	}
	st.page.Fragments = append(st.page.Fragments, &Fragment{
		BlockID: b.ID,
		Kind:    doc.KindDrawing,
		X:       d.X,
		Y:       d.Y,
		Width:   d.Width,
		Height:  d.Height,
	})
	if d.Wrap != doc.WrapNone {
		st.drawings = append(st.drawings, d)
	}
	if d.Wrap == doc.WrapTopAndBottom {
		// Text resumes below the drawing band.
		bottom := d.Y + d.Height + d.DistBottom
		if cur := st.regionTop + st.y; bottom > cur && bottom < st.regionBottom() {
			st.y = bottom - st.regionTop
		}
	}
}

// runRuneStarts returns each run's starting rune offset within the
// paragraph's visible text, matching the document's position indexing.
func runRuneStarts(b *doc.Block) []int {
	starts := make([]int, len(b.Runs)+1)
	off := 0
	for i, r := range b.Runs {
		starts[i] = off
		if r.Field != "" {
			off += utf8.RuneCountInString("{"+r.Field+"}")
		} else {
			off += utf8.RuneCountInString(r.Text)
		}
	}
	starts[len(b.Runs)] = off
	return starts
}

// fragmentRange maps a line range to the document-position range it covers.
func fragmentRange(b *doc.Block, pm *measure.ParagraphMeasure, runStarts []int, from, to int) (int, int) {
	if len(pm.Lines) == 0 || from >= to {
		return b.PmStart, b.PmStart
	}
	first := pm.Lines[from]
	last := pm.Lines[to-1]

	start := b.PmStart + runeOffset(b, runStarts, first.FromRun, first.FromChar)
	end := b.PmStart + runeOffset(b, runStarts, last.ToRun, last.ToChar)
	if to == len(pm.Lines) {
		end = b.PmEnd
	}
	return start, end
}

func runeOffset(b *doc.Block, runStarts []int, run, char int) int {
	if run >= len(b.Runs) {
		return runStarts[len(b.Runs)]
	}
	text := b.Runs[run].Text
	if b.Runs[run].Field != "" {
		text = "{" + b.Runs[run].Field + "}"
	}
	if char > len(text) {
		char = len(text)
	}
	return runStarts[run] + utf8.RuneCountInString(text[:char])
}
