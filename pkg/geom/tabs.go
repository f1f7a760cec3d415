package geom

import (
	"math"
	"sort"

	"folio/pkg/doc"
)

// clearTolerance is how close (in layout units) a default-grid stop must be
// to a clear stop before the clear stop suppresses it.
const clearTolerance = 20.0

// TabStop is a resolved tab stop: explicit stops merged with the repeating
// default grid.
type TabStop struct {
	Pos    float64
	Align  doc.TabAlignment
	Leader string
}

// ComputeTabStops merges a paragraph's explicit stops with the repeating
// default grid that starts after the paragraph's left indent.
//
// Clear stops are filtered from the result; additionally a clear stop
// suppresses any default-grid stop within clearTolerance of its position.
// Non-clear explicit stops are kept verbatim. The result is sorted by
// position ascending.
func ComputeTabStops(explicit []doc.ExplicitTabStop, defaultInterval, indent float64) []TabStop {
	if defaultInterval <= 0 {
		defaultInterval = 720 // half inch in twips
	}

	var clears []float64
	stops := make([]TabStop, 0, len(explicit)+8)
	maxExplicit := 0.0
	for _, s := range explicit {
		if s.Val == doc.TabClear {
			clears = append(clears, s.Pos)
			continue
		}
		align := s.Val
		if align == "" {
			align = doc.TabStart
		}
		leader := s.Leader
		if leader == "" {
			leader = "none"
		}
		stops = append(stops, TabStop{Pos: s.Pos, Align: align, Leader: leader})
		if s.Pos > maxExplicit {
			maxExplicit = s.Pos
		}
	}

	// Default grid: repeat defaultInterval positions past the indent, far
	// enough to cover any plausible line.
	gridLimit := maxExplicit + defaultInterval*16
	if min := defaultInterval * 32; gridLimit < min {
		gridLimit = min
	}
	for pos := firstGridStop(defaultInterval, indent); pos <= gridLimit; pos += defaultInterval {
		if suppressedByClear(pos, clears) {
			continue
		}
		stops = append(stops, TabStop{Pos: pos, Align: doc.TabStart, Leader: "none"})
	}

	sort.Slice(stops, func(i, j int) bool { return stops[i].Pos < stops[j].Pos })
	return stops
}

func firstGridStop(interval, indent float64) float64 {
	if indent <= 0 {
		return interval
	}
	n := math.Floor(indent/interval) + 1
	return n * interval
}

func suppressedByClear(pos float64, clears []float64) bool {
	for _, c := range clears {
		if math.Abs(pos-c) < clearTolerance {
			return true
		}
	}
	return false
}

// TabOptions configures LayoutWithTabs.
type TabOptions struct {
	// MeasureText measures the width of text rendered with the run's style.
	// When nil, the run's precomputed Width is used instead.
	MeasureText func(r *doc.Run, text string) float64

	// DecimalSep overrides the decimal separator used by decimal stops.
	DecimalSep rune

	// DefaultInterval is the fallback grid spacing when a tab has no stop
	// to its right.
	DefaultInterval float64
}

// RunPlacement is one run positioned on a line by LayoutWithTabs.
type RunPlacement struct {
	Run   *doc.Run
	X     float64
	Width float64

	// Stop records the tab stop chosen for a tab run, nil otherwise.
	Stop *TabStop
}

// LayoutWithTabs walks runs left to right, advancing past each tab run to
// its chosen stop and positioning the following text per the stop's
// alignment. Width measurement goes through opts.MeasureText when present,
// otherwise each run's precomputed Width is trusted.
func LayoutWithTabs(runs []*doc.Run, stops []TabStop, lineWidth float64, opts *TabOptions) []RunPlacement {
	if opts == nil {
		opts = &TabOptions{}
	}
	sep := opts.DecimalSep
	if sep == 0 {
		sep = '.'
	}
	interval := opts.DefaultInterval
	if interval <= 0 {
		interval = 720
	}

	measure := func(r *doc.Run, text string) float64 {
		if opts.MeasureText != nil {
			return opts.MeasureText(r, text)
		}
		if text == r.Text {
			return r.Width
		}
		// Proportional estimate against the precomputed full-run width.
		if len(r.Text) == 0 {
			return 0
		}
		return r.Width * float64(len(text)) / float64(len(r.Text))
	}

	placements := make([]RunPlacement, 0, len(runs))
	x := 0.0
	i := 0
	for i < len(runs) {
		r := runs[i]
		if !r.Tab {
			w := measure(r, r.Text)
			placements = append(placements, RunPlacement{Run: r, X: x, Width: w})
			x += w
			i++
			continue
		}

		// Choose the first stop strictly past the current position; fall
		// back to the default grid when none remains.
		stop := nextStop(stops, x)
		var chosen TabStop
		if stop != nil {
			chosen = *stop
		} else {
			chosen = TabStop{Pos: nextGridPos(x, interval), Align: doc.TabStart, Leader: "none"}
		}

		// Gather the segment of runs the stop aligns: everything up to the
		// next tab run.
		segStart := i + 1
		segEnd := segStart
		for segEnd < len(runs) && !runs[segEnd].Tab {
			segEnd++
		}
		segText := ""
		segWidth := 0.0
		for _, sr := range runs[segStart:segEnd] {
			segText += sr.Text
			segWidth += measure(sr, sr.Text)
		}

		segX := chosen.Pos
		switch chosen.Align {
		case doc.TabCenter:
			segX = chosen.Pos - segWidth/2
		case doc.TabEnd, doc.TabRight:
			segX = chosen.Pos - segWidth
		case doc.TabDecimal:
			segX = decimalX(chosen.Pos, segText, sep, runs[segStart:segEnd], measure)
		case doc.TabBar:
			// A bar stop is a vertical rule marker only: it contributes no
			// width and does not reposition the following text.
			segX = x
		}
		if segX < 0 {
			segX = 0
		}

		tabWidth := segX - x
		if tabWidth < 0 {
			tabWidth = 0
		}
		placements = append(placements, RunPlacement{Run: r, X: x, Width: tabWidth, Stop: &chosen})
		x = segX

		for _, sr := range runs[segStart:segEnd] {
			w := measure(sr, sr.Text)
			placements = append(placements, RunPlacement{Run: sr, X: x, Width: w})
			x += w
		}
		i = segEnd
	}
	return placements
}

func nextStop(stops []TabStop, x float64) *TabStop {
	for i := range stops {
		if stops[i].Pos > x {
			return &stops[i]
		}
	}
	return nil
}

func nextGridPos(x, interval float64) float64 {
	n := math.Floor(x/interval) + 1
	return n * interval
}

// decimalX aligns text at a decimal stop: the width of the text up to and
// excluding the separator is measured, and the text is placed so the
// separator sits at the stop. Without a separator the text starts at the
// stop.
func decimalX(stopPos float64, segText string, sep rune, segRuns []*doc.Run, measure func(*doc.Run, string) float64) float64 {
	sepIdx := -1
	for idx, ch := range segText {
		if ch == sep {
			sepIdx = idx
			break
		}
	}
	if sepIdx < 0 {
		return stopPos
	}

	// Measure the prefix run by run.
	remaining := sepIdx
	prefixWidth := 0.0
	for _, r := range segRuns {
		if remaining <= 0 {
			break
		}
		if len(r.Text) <= remaining {
			prefixWidth += measure(r, r.Text)
			remaining -= len(r.Text)
			continue
		}
		prefixWidth += measure(r, r.Text[:remaining])
		remaining = 0
	}
	return stopPos - prefixWidth
}
