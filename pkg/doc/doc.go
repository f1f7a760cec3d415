package doc

// BlockKind discriminates the content units the flow engine understands.
type BlockKind int

const (
	KindParagraph BlockKind = iota
	KindTable
	KindDrawing
	KindBreak
)

// BreakType distinguishes explicit break blocks.
type BreakType int

const (
	BreakPage BreakType = iota
	BreakColumn
)

// Orientation of a page within a section.
type Orientation int

const (
	Portrait Orientation = iota
	Landscape
)

// SectionBreakType controls how a section boundary interacts with pagination.
type SectionBreakType int

const (
	// SectionNextPage always forces a new page, even when geometry is unchanged.
	SectionNextPage SectionBreakType = iota
	// SectionContinuous changes column geometry mid-page where possible.
	SectionContinuous
)

// Run is a styled span of text within a paragraph. A run with Tab set is a
// tab marker and carries no text; a run with Field set renders the current
// value of that field token (e.g. "PAGE") instead of Text.
type Run struct {
	Text     string
	Bold     bool
	Italic   bool
	FontSize float64

	Tab   bool
	Field string

	// Width is the precomputed advance for the run, used when no measurer
	// is injected (imported documents carry measured widths from the source).
	Width float64
}

// Columns describes the column geometry of a section.
type Columns struct {
	Count int
	Gap   float64
}

// Margins are the page margins of a section, in layout units.
type Margins struct {
	Top, Right, Bottom, Left float64
}

// PageSize is a page's width and height in layout units.
type PageSize struct {
	Width, Height float64
}

// Section carries the section-break metadata attached to a paragraph block.
// A nil Section means the block continues the current section.
type Section struct {
	Break       SectionBreakType
	PageSize    *PageSize // nil falls back to the previous section's geometry
	Orientation Orientation
	Margins     *Margins
	Columns     Columns

	// Header/footer references by variant. Keys are variant names such as
	// "header-default" or "footer-first"; values are block IDs.
	HeaderRefs map[string]string
	FooterRefs map[string]string

	NumberFormat string
	NumberStart  int
}

// CellWidthKind selects how a table cell declares its width.
type CellWidthKind int

const (
	CellWidthAuto CellWidthKind = iota
	CellWidthFixed
	CellWidthPct
)

/// Cell is one table cell: a column-width declaration, span information and
// nested paragraph content.
type Cell struct {
	WidthKind CellWidthKind
	Width     float64 // fixed width or percentage, per WidthKind
	ColSpan   int     // 0 means 1
	RowSpan   int     // 0 means 1
	Padding   float64
	Content   []*Block // paragraph blocks only
}

// Row is one table row.
type Row struct {
	Cells []*Cell
}

// WrapStyle is the text-wrapping mode of an anchored drawing.
type WrapStyle int

const (
	WrapNone WrapStyle = iota
	WrapSquare
	WrapTight
	WrapThrough
	WrapTopAndBottom
)

// Point is a coordinate in a drawing's native (EMU-like) space or in
// absolute page space after scaling.
type Point struct {
	X, Y float64
}

// Drawing is an anchored image with wrap geometry.
type Drawing struct {
	X, Y, Width, Height float64
	NativeWidth         float64
	NativeHeight        float64

	Wrap       WrapStyle
	DistLeft   float64
	DistRight  float64
	DistTop    float64
	DistBottom float64

	// Polygon is the wrap boundary in the drawing's native coordinate
	// space; empty means "no polygon" (Square fallback for Tight/Through).
	Polygon []Point
}

// Block is one content unit in the document's flat block sequence. Blocks are
// immutable snapshots: the adapter replaces a block wholesale when its source
// content changes.
type Block struct {
	ID   string
	Kind BlockKind

	// Paragraph content.
	Runs    []*Run
	Section *Section
	Indent  float64
	TabStops []ExplicitTabStop

	// Table content.
	Rows []*Row

	// Drawing content.
	Drawing *Drawing

	// Break content.
	Break BreakType

	// PmStart/PmEnd are the block's position range in the underlying
	// ordered-position text tree, half-open [PmStart, PmEnd).
	PmStart int
	PmEnd   int
}

// TabAlignment of an explicit tab stop.
type TabAlignment string

const (
	TabStart   TabAlignment = "start"
	TabCenter  TabAlignment = "center"
	TabEnd     TabAlignment = "end"
	TabRight   TabAlignment = "right"
	TabDecimal TabAlignment = "decimal"
	TabBar     TabAlignment = "bar"
	TabClear   TabAlignment = "clear"
)

// ExplicitTabStop is a tab stop declared on a paragraph.
type ExplicitTabStop struct {
	Pos    float64
	Val    TabAlignment
	Leader string
}

// SpanOf returns the cell's effective column span (minimum 1).
func (c *Cell) SpanOf() int {
	if c.ColSpan < 1 {
		return 1
	}
	return c.ColSpan
}

// RowSpanOf returns the cell's effective row span (minimum 1).
func (c *Cell) RowSpanOf() int {
	if c.RowSpan < 1 {
		return 1
	}
	return c.RowSpan
}

// Text returns the concatenated visible text of a paragraph block. Field runs
// contribute their token marker so content hashes change when a token does.
func (b *Block) TextContent() string {
	if b.Kind != KindParagraph {
		return ""
	}
	var sb []byte
	for _, r := range b.Runs {
		if r.Field != "" {
			sb = append(sb, '{')
			sb = append(sb, r.Field...)
			sb = append(sb, '}')
			continue
		}
		sb = append(sb, r.Text...)
	}
	return string(sb)
}
