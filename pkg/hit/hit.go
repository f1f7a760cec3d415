// Package hit maps viewport coordinates to document positions and back.
// The page surface is a vertical stack of pages separated by gaps; clicks
// in a gap snap to the nearer page rather than falling through.
package hit

import (
	"math"
	"unicode/utf8"

	"folio/pkg/doc"
	"folio/pkg/flow"
	"folio/pkg/measure"
)

// Result is a resolved hit: the block and rune position the point maps to.
type Result struct {
	BlockID string
	Pos     int
	Page    int
}

// CaretRect is the rendered extent of a document position.
type CaretRect struct {
	Page         int
	X, Y, Height float64
}

// Tester resolves hits against a layout. MeasureFor returns the cached
// measure for a block at the width it was flowed with; BlockFor resolves
// block content for char-level mapping.
type Tester struct {
	Layout     *flow.Layout
	MeasureFor func(blockID string) *measure.Measure
	BlockFor   func(blockID string) *doc.Block
	Measurer   measure.Measurer

	// Querier is the native position query used when the layout lags the
	// document and its geometry cannot be trusted.
	Querier doc.PositionQuerier
}

// CaretRectFor returns the caret rect for a position. A stale layout is
// bypassed in favor of the native position query; the queried rect is
// mapped onto the page whose vertical band contains it, and a rect landing
// in an inter-page gap or outside every band yields nil rather than a
// guessed page.
func (t *Tester) CaretRectFor(pos int, stale bool) *CaretRect {
	if !stale {
		if r := t.PositionToRect(pos); r != nil {
			return r
		}
	}
	if t.Querier != nil {
		if c := t.Querier.CoordsAtPos(pos); c != nil {
			page := pageBandAt(t.Layout, c.Top)
			if page < 0 {
				return nil
			}
			return &CaretRect{Page: page, X: c.Left, Y: c.Top, Height: c.Bottom - c.Top}
		}
	}
	return nil
}

// pageBandAt returns the page whose vertical band contains y, or -1 for
// inter-page gaps and coordinates beyond the stack. Unlike PageAt it never
// snaps.
func pageBandAt(l *flow.Layout, y float64) int {
	if l == nil {
		return -1
	}
	for i := range l.Pages {
		top := l.PageTop(i)
		if y >= top && y < top+l.Pages[i].Size.Height {
			return i
		}
	}
	return -1
}

// PageAt returns the page index containing y on the stacked surface.
// Coordinates above the first page clamp to 0 and below the last page to
// the last index. A y inside an inter-page gap resolves to whichever
// neighbor's center is nearer.
func PageAt(l *flow.Layout, y float64) int {
	n := l.PageCount()
	if n == 0 {
		return -1
	}
	for i := 0; i < n; i++ {
		top := l.PageTop(i)
		h := l.Pages[i].Size.Height
		if y < top {
			if i == 0 {
				return 0
			}
			// In the gap between i-1 and i: snap to the nearer center.
			prevTop := l.PageTop(i - 1)
			prevCenter := prevTop + l.Pages[i-1].Size.Height/2
			curCenter := top + h/2
			if math.Abs(y-prevCenter) <= math.Abs(y-curCenter) {
				return i - 1
			}
			return i
		}
		if y < top+h {
			return i
		}
	}
	return n - 1
}

// FragmentAt returns the fragment on the page under y whose box contains
// (x, y in page-local coordinates), or the nearest fragment on that page
// when none contains the point. Ties resolve in reading order.
func FragmentAt(l *flow.Layout, x, y float64) *flow.PlacedFragment {
	page := PageAt(l, y)
	if page < 0 {
		return nil
	}
	localY := y - l.PageTop(page)

	var best *flow.PlacedFragment
	bestDist := math.Inf(1)
	for i := range l.Pages[page].Fragments {
		f := l.Pages[page].Fragments[i]
		d := boxDistance(f, x, localY)
		if d < bestDist {
			bestDist = d
			best = &flow.PlacedFragment{Fragment: f, PageIndex: page, FragmentIndex: i}
		}
	}
	return best
}

// boxDistance is 0 inside the fragment box, otherwise the euclidean
// distance to its nearest edge.
func boxDistance(f *flow.Fragment, x, y float64) float64 {
	dx := math.Max(math.Max(f.X-x, 0), x-(f.X+f.Width))
	dy := math.Max(math.Max(f.Y-y, 0), y-(f.Y+f.Height))
	return math.Hypot(dx, dy)
}

// ClickToPosition maps a click on the stacked surface to a document
// position. Within a paragraph fragment the click resolves to the line
// under the local y and then to the nearest rune boundary under x; other
// fragment kinds resolve to the fragment's start position.
func (t *Tester) ClickToPosition(x, y float64) *Result {
	placed := FragmentAt(t.Layout, x, y)
	if placed == nil {
		return nil
	}
	f := placed.Fragment
	res := &Result{BlockID: f.BlockID, Pos: f.PmStart, Page: placed.PageIndex}
	if f.Kind != doc.KindParagraph || t.MeasureFor == nil || t.BlockFor == nil {
		return res
	}
	m := t.MeasureFor(f.BlockID)
	b := t.BlockFor(f.BlockID)
	if m == nil || m.Paragraph == nil || b == nil {
		return res
	}
	localY := y - t.Layout.PageTop(placed.PageIndex) - f.Y
	line := f.FromLine
	yy := 0.0
	for li := f.FromLine; li < f.ToLine && li < len(m.Paragraph.Lines); li++ {
		lb := m.Paragraph.Lines[li]
		if localY < yy+lb.Height {
			line = li
			break
		}
		yy += lb.Height
		line = li
	}
	res.Pos = t.positionInLine(b, m.Paragraph, line, x-f.X)
	return res
}

// positionInLine walks the line's runs measuring prefixes until the x
// offset is passed, returning the nearest rune boundary as a document
// position.
func (t *Tester) positionInLine(b *doc.Block, pm *measure.ParagraphMeasure, line int, x float64) int {
	if line < 0 || line >= len(pm.Lines) {
		return b.PmStart
	}
	lb := pm.Lines[line]
	pos := b.PmStart + lineRuneStart(b, lb)
	if t.Measurer == nil {
		return pos
	}
	cx := lb.X
	for ri := lb.FromRun; ri <= lb.ToRun && ri < len(b.Runs); ri++ {
		r := b.Runs[ri]
		text := runText(r)
		start, end := runByteRange(text, ri, lb)
		for _, ch := range text[start:end] {
			w := t.Measurer.RunWidth(r, string(ch))
			if x < cx+w/2 {
				return pos
			}
			cx += w
			pos++
		}
	}
	return pos
}

// PositionToRect returns the caret rectangle for a document position, or
// nil when no fragment covers it.
func (t *Tester) PositionToRect(pos int) *CaretRect {
	for pi := range t.Layout.Pages {
		for _, f := range t.Layout.Pages[pi].Fragments {
			if pos < f.PmStart || pos >= f.PmEnd {
				continue
			}
			r := &CaretRect{Page: pi, X: f.X, Y: t.Layout.PageTop(pi) + f.Y, Height: f.Height}
			if f.Kind != doc.KindParagraph || t.MeasureFor == nil || t.BlockFor == nil {
				return r
			}
			m := t.MeasureFor(f.BlockID)
			b := t.BlockFor(f.BlockID)
			if m == nil || m.Paragraph == nil || b == nil {
				return r
			}
			yy := 0.0
			for li := f.FromLine; li < f.ToLine && li < len(m.Paragraph.Lines); li++ {
				lb := m.Paragraph.Lines[li]
				lineStart := b.PmStart + lineRuneStart(b, lb)
				lineEnd := b.PmStart + lineRuneEnd(b, lb)
				if pos >= lineStart && (pos < lineEnd || li == f.ToLine-1) {
					r.X = f.X + t.caretX(b, lb, pos-lineStart)
					r.Y += yy
					r.Height = lb.Height
					return r
				}
				yy += lb.Height
			}
			return r
		}
	}
	return nil
}

func (t *Tester) caretX(b *doc.Block, lb measure.LineBox, runes int) float64 {
	x := lb.X
	if t.Measurer == nil {
		return x
	}
	left := runes
	for ri := lb.FromRun; ri <= lb.ToRun && ri < len(b.Runs) && left > 0; ri++ {
		r := b.Runs[ri]
		text := runText(r)
		start, end := runByteRange(text, ri, lb)
		for _, ch := range text[start:end] {
			if left == 0 {
				return x
			}
			x += t.Measurer.RunWidth(r, string(ch))
			left--
		}
	}
	return x
}

// SurfaceFallback resolves clicks on the surface outside any fragment. It
// returns nil when the point misses every page band, horizontally or
// vertically (inter-page gaps included), so the caller leaves the
// selection alone; otherwise it snaps to the start or end of the nearest
// fragment on that page.
func (t *Tester) SurfaceFallback(x, y float64) *Result {
	page := pageBandAt(t.Layout, y)
	if page < 0 {
		return nil
	}
	p := t.Layout.Pages[page]
	if x < 0 || x > p.Size.Width {
		return nil
	}
	placed := FragmentAt(t.Layout, x, y)
	if placed == nil {
		return nil
	}
	f := placed.Fragment
	localY := y - t.Layout.PageTop(page)
	if localY > f.Y+f.Height/2 {
		return &Result{BlockID: f.BlockID, Pos: f.PmEnd, Page: page}
	}
	return &Result{BlockID: f.BlockID, Pos: f.PmStart, Page: page}
}

func runText(r *doc.Run) string {
	if r.Field != "" {
		return "{" + r.Field + "}"
	}
	if r.Tab {
		return "\t"
	}
	return r.Text
}

// Line-box char offsets are byte offsets within their run's text; document
// positions count runes. The boundary-run byte prefix is converted through
// utf8 so multibyte text maps to the right position.
func lineRuneStart(b *doc.Block, lb measure.LineBox) int {
	off := 0
	for ri := 0; ri < lb.FromRun && ri < len(b.Runs); ri++ {
		off += utf8.RuneCountInString(runText(b.Runs[ri]))
	}
	if lb.FromRun < len(b.Runs) {
		text := runText(b.Runs[lb.FromRun])
		off += utf8.RuneCountInString(text[:clampByte(text, lb.FromChar)])
	}
	return off
}

func lineRuneEnd(b *doc.Block, lb measure.LineBox) int {
	off := 0
	for ri := 0; ri < lb.ToRun && ri < len(b.Runs); ri++ {
		off += utf8.RuneCountInString(runText(b.Runs[ri]))
	}
	if lb.ToRun < len(b.Runs) {
		text := runText(b.Runs[lb.ToRun])
		off += utf8.RuneCountInString(text[:clampByte(text, lb.ToChar)])
	}
	return off
}

// runByteRange returns the byte range of run ri's text that lies inside
// the line.
func runByteRange(text string, ri int, lb measure.LineBox) (int, int) {
	start, end := 0, len(text)
	if ri == lb.FromRun {
		start = clampByte(text, lb.FromChar)
	}
	if ri == lb.ToRun {
		end = clampByte(text, lb.ToChar)
	}
	if start > end {
		start = end
	}
	return start, end
}

func clampByte(s string, off int) int {
	if off < 0 {
		return 0
	}
	if off > len(s) {
		return len(s)
	}
	return off
}
