package geom

import (
	"testing"

	"folio/pkg/doc"
)

func charWidth5(r *doc.Run, text string) float64 {
	return float64(len(text)) * 5
}

func TestComputeTabStops_ClearSuppressesNearbyDefault(t *testing.T) {
	// Clear at 1438 is within tolerance of the default stop at 1440 and
	// must suppress it; clear at 1400 is not and must leave 1440 alone.
	stops := ComputeTabStops([]doc.ExplicitTabStop{{Pos: 1438, Val: doc.TabClear}}, 1440, 0)
	for _, s := range stops {
		if s.Pos == 1440 {
			t.Errorf("default stop at 1440 should be suppressed by clear at 1438")
		}
	}

	stops = ComputeTabStops([]doc.ExplicitTabStop{{Pos: 1400, Val: doc.TabClear}}, 1440, 0)
	found := false
	for _, s := range stops {
		if s.Pos == 1440 {
			found = true
		}
	}
	if !found {
		t.Errorf("default stop at 1440 should survive a clear at 1400 (distance 40 >= 20)")
	}
}

func TestComputeTabStops_ExplicitKeptAndSorted(t *testing.T) {
	explicit := []doc.ExplicitTabStop{
		{Pos: 2000, Val: doc.TabEnd, Leader: "dot"},
		{Pos: 500, Val: doc.TabCenter},
	}
	stops := ComputeTabStops(explicit, 1440, 0)

	for i := 1; i < len(stops); i++ {
		if stops[i].Pos < stops[i-1].Pos {
			t.Fatalf("stops not sorted: %v after %v", stops[i].Pos, stops[i-1].Pos)
		}
	}

	var foundEnd, foundCenter bool
	for _, s := range stops {
		if s.Pos == 2000 && s.Align == doc.TabEnd && s.Leader == "dot" {
			foundEnd = true
		}
		if s.Pos == 500 && s.Align == doc.TabCenter {
			foundCenter = true
		}
	}
	if !foundEnd || !foundCenter {
		t.Errorf("explicit stops not kept verbatim: end=%v center=%v", foundEnd, foundCenter)
	}
}

func TestComputeTabStops_GridStartsAfterIndent(t *testing.T) {
	stops := ComputeTabStops(nil, 720, 1000)
	if len(stops) == 0 {
		t.Fatal("expected default grid stops")
	}
	if stops[0].Pos <= 1000 {
		t.Errorf("first grid stop %v should be past the indent 1000", stops[0].Pos)
	}
	if stops[0].Align != doc.TabStart || stops[0].Leader != "none" {
		t.Errorf("grid stops should be start/none, got %v/%v", stops[0].Align, stops[0].Leader)
	}
}

func TestLayoutWithTabs_StartAlignment(t *testing.T) {
	runs := []*doc.Run{
		{Text: "ab"}, // width 10
		{Tab: true},
		{Text: "cd"},
	}
	stops := []TabStop{{Pos: 100, Align: doc.TabStart}}
	placed := LayoutWithTabs(runs, stops, 1000, &TabOptions{MeasureText: charWidth5})

	if len(placed) != 3 {
		t.Fatalf("expected 3 placements, got %d", len(placed))
	}
	if placed[2].X != 100 {
		t.Errorf("text after start tab should begin at 100, got %v", placed[2].X)
	}
	if placed[1].Stop == nil || placed[1].Stop.Pos != 100 {
		t.Errorf("tab run should record the chosen stop at 100")
	}
}

func TestLayoutWithTabs_DecimalAlignment(t *testing.T) {
	runs := []*doc.Run{
		{Tab: true},
		{Text: "12.99"},
	}
	stops := []TabStop{{Pos: 1000, Align: doc.TabDecimal}}
	placed := LayoutWithTabs(runs, stops, 2000, &TabOptions{MeasureText: charWidth5})

	// "12" measures 10, so the text starts at 1000-10 = 990 and the
	// separator lands on the stop.
	if placed[1].X != 990 {
		t.Errorf("decimal-aligned text should start at 990, got %v", placed[1].X)
	}
}

func TestLayoutWithTabs_DecimalNoSeparatorFallsBack(t *testing.T) {
	runs := []*doc.Run{
		{Tab: true},
		{Text: "1299"},
	}
	stops := []TabStop{{Pos: 1000, Align: doc.TabDecimal}}
	placed := LayoutWithTabs(runs, stops, 2000, &TabOptions{MeasureText: charWidth5})
	if placed[1].X != 1000 {
		t.Errorf("decimal tab without separator should start at the stop, got %v", placed[1].X)
	}
}

func TestLayoutWithTabs_CenterAndEndClampToZero(t *testing.T) {
	for _, align := range []doc.TabAlignment{doc.TabCenter, doc.TabEnd, doc.TabRight} {
		runs := []*doc.Run{
			{Tab: true},
			{Text: "01234567890123456789"}, // width 100
		}
		stops := []TabStop{{Pos: 20, Align: align}}
		placed := LayoutWithTabs(runs, stops, 2000, &TabOptions{MeasureText: charWidth5})
		if placed[1].X < 0 {
			t.Errorf("%v alignment produced negative x %v", align, placed[1].X)
		}
	}
}

func TestLayoutWithTabs_CenterAlignment(t *testing.T) {
	runs := []*doc.Run{
		{Tab: true},
		{Text: "abcd"}, // width 20
	}
	stops := []TabStop{{Pos: 500, Align: doc.TabCenter}}
	placed := LayoutWithTabs(runs, stops, 2000, &TabOptions{MeasureText: charWidth5})
	if placed[1].X != 490 {
		t.Errorf("center-aligned text should start at 490, got %v", placed[1].X)
	}
}

func TestLayoutWithTabs_NoStopFallsBackToGrid(t *testing.T) {
	runs := []*doc.Run{
		{Text: "abc"}, // width 15
		{Tab: true},
		{Text: "x"},
	}
	placed := LayoutWithTabs(runs, nil, 2000, &TabOptions{MeasureText: charWidth5, DefaultInterval: 100})
	if placed[2].X != 100 {
		t.Errorf("tab with no stops should advance to next grid position 100, got %v", placed[2].X)
	}
}

func TestLayoutWithTabs_BarStopDoesNotReposition(t *testing.T) {
	runs := []*doc.Run{
		{Text: "ab"}, // width 10
		{Tab: true},
		{Text: "cd"},
	}
	stops := []TabStop{{Pos: 300, Align: doc.TabBar}}
	placed := LayoutWithTabs(runs, stops, 2000, &TabOptions{MeasureText: charWidth5})
	if placed[2].X != 10 {
		t.Errorf("bar stop should contribute zero width; text continues at 10, got %v", placed[2].X)
	}
	if placed[1].Width != 0 {
		t.Errorf("bar tab should have zero width, got %v", placed[1].Width)
	}
}

func TestLayoutWithTabs_PrecomputedWidthsWithoutMeasurer(t *testing.T) {
	runs := []*doc.Run{
		{Text: "hello", Width: 42},
		{Tab: true},
		{Text: "world", Width: 37},
	}
	stops := []TabStop{{Pos: 200, Align: doc.TabStart}}
	placed := LayoutWithTabs(runs, stops, 2000, nil)
	if placed[0].Width != 42 {
		t.Errorf("run width should fall back to precomputed 42, got %v", placed[0].Width)
	}
	if placed[2].X != 200 {
		t.Errorf("text after tab should start at 200, got %v", placed[2].X)
	}
}
