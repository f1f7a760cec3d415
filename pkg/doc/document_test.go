package doc

import "testing"

func para(id, text string) *Block {
	return &Block{ID: id, Kind: KindParagraph, Runs: []*Run{{Text: text}}}
}

func TestDocumentReindexOnMutation(t *testing.T) {
	d := NewDocument()
	d.Append(para("a", "ab"))
	d.Append(para("b", "cde"))

	a, b := d.BlockByID("a"), d.BlockByID("b")
	if a.PmStart != 0 || a.PmEnd != 3 {
		t.Errorf("a range = [%d,%d), want [0,3)", a.PmStart, a.PmEnd)
	}
	if b.PmStart != 3 || b.PmEnd != 7 {
		t.Errorf("b range = [%d,%d), want [3,7)", b.PmStart, b.PmEnd)
	}

	d.Replace(para("a", "abcdef"))
	if got := d.BlockByID("b").PmStart; got != 7 {
		t.Errorf("b PmStart after grow = %d, want 7", got)
	}

	d.Remove("a")
	if got := d.BlockByID("b").PmStart; got != 0 {
		t.Errorf("b PmStart after removal = %d, want 0", got)
	}
	if d.BlockByID("a") != nil {
		t.Errorf("removed block still resolvable")
	}
}

func TestDocumentNotifiesPerChange(t *testing.T) {
	d := NewDocument()
	calls := 0
	d.OnMutation(func() { calls++ })

	d.Append(para("a", "x"))
	d.Replace(para("a", "y"))
	d.Replace(para("missing", "z")) // unknown ID, no change
	d.Remove("a")
	if calls != 3 {
		t.Errorf("mutation hook ran %d times, want 3", calls)
	}
}

func TestTextContentRendersFieldMarkers(t *testing.T) {
	b := &Block{Kind: KindParagraph, Runs: []*Run{
		{Text: "Page "},
		{Field: "PAGE"},
	}}
	if got := b.TextContent(); got != "Page {PAGE}" {
		t.Errorf("TextContent = %q", got)
	}
}

func TestDocumentTableReindex(t *testing.T) {
	d := NewDocument()
	table := &Block{ID: "t", Kind: KindTable, Rows: []*Row{
		{Cells: []*Cell{
			{Content: []*Block{para("c1", "ab")}},
			{Content: []*Block{para("c2", "c")}},
		}},
	}}
	d.Append(table)
	d.Append(para("p", "x"))

	// Table owns one position per cell-paragraph rune plus boundaries.
	if table.PmStart != 0 || table.PmEnd != 6 {
		t.Errorf("table range = [%d,%d), want [0,6)", table.PmStart, table.PmEnd)
	}
	if d.BlockByID("p").PmStart != 6 {
		t.Errorf("paragraph after table starts at %d, want 6", d.BlockByID("p").PmStart)
	}
}
