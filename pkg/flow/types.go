package flow

import "folio/pkg/doc"

// Fragment is a positioned slice of a block placed on one page. Paragraph
// fragments cover the half-open line range [FromLine, ToLine); table
// fragments cover rows [FromRow, ToRow). A block split across pages yields
// multiple fragments whose ranges are monotone and never overlap.
type Fragment struct {
	BlockID string
	Kind    doc.BlockKind

	X, Y, Width, Height float64

	FromLine, ToLine int
	FromRow, ToRow   int

	// PmStart/PmEnd are the document-position range the fragment covers.
	// Paragraph fragments only; zero on other kinds.
	PmStart, PmEnd int
}

// Page is one laid-out page: its effective geometry (section breaks can
// override size and orientation mid-document) plus its positioned fragments
// and header/footer fragment sets.
type Page struct {
	Index       int
	Size        doc.PageSize
	Orientation doc.Orientation
	Margins     doc.Margins
	Columns     doc.Columns

	Fragments []*Fragment
	Header    []*Fragment
	Footer    []*Fragment
}

// ContentWidth returns the width of the page's content band.
func (p *Page) ContentWidth() float64 {
	return p.Size.Width - p.Margins.Left - p.Margins.Right
}

// ContentHeight returns the height of the page's content band.
func (p *Page) ContentHeight() float64 {
	return p.Size.Height - p.Margins.Top - p.Margins.Bottom
}

// Layout is the flow engine's output: ordered pages of fragments. It is
// superseded wholesale by the next layout pass; the reconciler diffs two
// Layouts, never mutates one.
type Layout struct {
	PageSize doc.PageSize
	PageGap  float64
	Columns  doc.Columns
	Pages    []*Page
}

// PageCount returns the number of pages.
func (l *Layout) PageCount() int {
	if l == nil {
		return 0
	}
	return len(l.Pages)
}

// PageTop returns the Y offset of page i in stacked-page coordinates,
// accounting for the inter-page gap and per-page size overrides.
func (l *Layout) PageTop(i int) float64 {
	y := 0.0
	for j := 0; j < i && j < len(l.Pages); j++ {
		y += l.Pages[j].Size.Height + l.PageGap
	}
	return y
}

// FragmentsFor returns every fragment of the given block in reading order,
// paired with its page index.
func (l *Layout) FragmentsFor(blockID string) []PlacedFragment {
	var out []PlacedFragment
	for pi, p := range l.Pages {
		for fi, f := range p.Fragments {
			if f.BlockID == blockID {
				out = append(out, PlacedFragment{Fragment: f, PageIndex: pi, FragmentIndex: fi})
			}
		}
	}
	return out
}

// PlacedFragment pairs a fragment with its page and in-page index, the
// composite identity the reconciler keys DOM nodes by.
type PlacedFragment struct {
	Fragment      *Fragment
	PageIndex     int
	FragmentIndex int
}
