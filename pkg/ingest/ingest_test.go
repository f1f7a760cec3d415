package ingest

import (
	"strings"
	"testing"

	"folio/pkg/doc"
)

func TestParseParagraphsAndHeadings(t *testing.T) {
	src := `<html><body>
		<h1>Title</h1>
		<p>Plain and <b>bold</b> and <i>slanted</i>.</p>
	</body></html>`
	blocks, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2", len(blocks))
	}
	h := blocks[0]
	if h.Kind != doc.KindParagraph || !h.Runs[0].Bold || h.Runs[0].FontSize != 24 {
		t.Errorf("heading run = %+v, want bold 24pt", h.Runs[0])
	}
	p := blocks[1]
	if len(p.Runs) != 5 {
		t.Fatalf("paragraph has %d runs, want 5: %+v", len(p.Runs), p.Runs)
	}
	if !p.Runs[1].Bold || p.Runs[1].Text != "bold" {
		t.Errorf("bold run = %+v", p.Runs[1])
	}
	if !p.Runs[3].Italic || p.Runs[3].Text != "slanted" {
		t.Errorf("italic run = %+v", p.Runs[3])
	}
}

func TestParseTable(t *testing.T) {
	src := `<table>
		<tr><td>a</td><td colspan="2">b</td></tr>
		<tr><td rowspan="2">c</td><td>d</td><td>e</td></tr>
	</table>`
	blocks, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if len(blocks) != 1 || blocks[0].Kind != doc.KindTable {
		t.Fatalf("want one table block, got %+v", blocks)
	}
	rows := blocks[0].Rows
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].Cells[1].SpanOf() != 2 {
		t.Errorf("colspan = %d, want 2", rows[0].Cells[1].SpanOf())
	}
	if rows[1].Cells[0].RowSpanOf() != 2 {
		t.Errorf("rowspan = %d, want 2", rows[1].Cells[0].RowSpanOf())
	}
	if rows[1].Cells[1].Content[0].TextContent() != "d" {
		t.Errorf("cell content = %q, want d", rows[1].Cells[1].Content[0].TextContent())
	}
}

func TestParseImageAndRule(t *testing.T) {
	src := `<p>before</p><img width="200" height="100"><hr><p>after</p>`
	blocks, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if len(blocks) != 4 {
		t.Fatalf("got %d blocks, want 4", len(blocks))
	}
	img := blocks[1]
	if img.Kind != doc.KindDrawing || img.Drawing.Width != 200 || img.Drawing.Height != 100 {
		t.Errorf("drawing = %+v", img.Drawing)
	}
	if blocks[2].Kind != doc.KindBreak || blocks[2].Break != doc.BreakPage {
		t.Errorf("hr should become a page break, got %+v", blocks[2])
	}
}

func TestParseAssignsContiguousPositions(t *testing.T) {
	src := `<p>ab</p><p>cde</p>`
	blocks, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if blocks[0].PmStart != 0 || blocks[0].PmEnd != 3 {
		t.Errorf("first range = [%d,%d), want [0,3)", blocks[0].PmStart, blocks[0].PmEnd)
	}
	if blocks[1].PmStart != blocks[0].PmEnd {
		t.Errorf("ranges not contiguous: %d then %d", blocks[0].PmEnd, blocks[1].PmStart)
	}
	if blocks[1].PmEnd != 7 {
		t.Errorf("second range end = %d, want 7", blocks[1].PmEnd)
	}
}

func TestParseCollapsesWhitespace(t *testing.T) {
	src := "<p>  spaced \n  out  </p>"
	blocks, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if got := blocks[0].TextContent(); got != "spaced out" {
		t.Errorf("text = %q, want %q", got, "spaced out")
	}
}
