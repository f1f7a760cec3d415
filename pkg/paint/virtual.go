package paint

import (
	"sort"
	"strconv"

	"folio/pkg/dom"
	"folio/pkg/flow"
)

const (
	AttrPageIndex  = "data-page-index"
	AttrSpacerFrom = "data-spacer-from"
	AttrSpacerTo   = "data-spacer-to"
)

// Virtualizer materializes only the pages near the viewport, replacing
// runs of off-screen pages with fixed-height spacer nodes so the scroll
// extent stays correct. At most Window+2*Overscan pages plus any pinned
// pages are materialized, independent of document length.
type Virtualizer struct {
	Window   int
	Overscan int

	pages map[int]*dom.Node
	pins  map[int]bool
}

func NewVirtualizer(window, overscan int) *Virtualizer {
	if window < 1 {
		window = 1
	}
	if overscan < 0 {
		overscan = 0
	}
	return &Virtualizer{
		Window:   window,
		Overscan: overscan,
		pages:    make(map[int]*dom.Node),
		pins:     make(map[int]bool),
	}
}

// Pin forces a page to stay materialized regardless of scroll position,
// for example while a find-result highlight or comment anchor is on it.
func (v *Virtualizer) Pin(pageIndex int) {
	v.pins[pageIndex] = true
}

// Unpin releases a pinned page.
func (v *Virtualizer) Unpin(pageIndex int) {
	delete(v.pins, pageIndex)
}

// VisibleRange returns the inclusive page range to materialize for the
// given scroll position: the pages intersecting the viewport, capped at
// Window, then widened by Overscan on both sides and clamped to the
// layout.
func (v *Virtualizer) VisibleRange(l *flow.Layout, scrollTop, viewportHeight float64) (int, int) {
	n := l.PageCount()
	if n == 0 {
		return 0, -1
	}
	first, last := -1, -1
	for i := 0; i < n; i++ {
		top := l.PageTop(i)
		bottom := top + l.Pages[i].Size.Height
		if bottom <= scrollTop || top >= scrollTop+viewportHeight {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
	}
	if first < 0 {
		// Scrolled past everything: keep the nearest edge page live.
		if scrollTop <= 0 {
			first, last = 0, 0
		} else {
			first, last = n-1, n-1
		}
	}
	if last-first+1 > v.Window {
		last = first + v.Window - 1
	}
	first -= v.Overscan
	last += v.Overscan
	if first < 0 {
		first = 0
	}
	if last > n-1 {
		last = n - 1
	}
	return first, last
}

// Render patches container to hold materialized page nodes for the
// visible range plus pinned pages, with spacer nodes standing in for the
// rest. Materialized pages keep their node identity across scrolls.
func (v *Virtualizer) Render(container *dom.Node, l *flow.Layout, scrollTop, viewportHeight float64) {
	first, last := v.VisibleRange(l, scrollTop, viewportHeight)

	live := make(map[int]bool)
	for i := first; i <= last; i++ {
		live[i] = true
	}
	for p := range v.pins {
		if p >= 0 && p < l.PageCount() {
			live[p] = true
		}
	}

	for idx, n := range v.pages {
		if !live[idx] {
			container.RemoveChild(n)
			delete(v.pages, idx)
		}
	}

	order := make([]int, 0, len(live))
	for idx := range live {
		order = append(order, idx)
	}
	sort.Ints(order)

	// Rebuild the child list front to back: spacers for the gaps, page
	// nodes (reused where they exist) for the live set.
	for _, c := range append([]*dom.Node(nil), container.Children()...) {
		if c.Tag == "spacer" {
			container.RemoveChild(c)
		}
	}

	slot := 0
	prev := -1
	for _, idx := range order {
		if idx > prev+1 {
			container.InsertAt(v.spacer(l, prev+1, idx-1), slot)
			slot++
		}
		n, ok := v.pages[idx]
		if !ok {
			n = dom.NewNode("page")
			n.SetAttribute(AttrPageIndex, strconv.Itoa(idx))
			v.pages[idx] = n
		}
		p := l.Pages[idx]
		n.Rect = dom.Rect{X: 0, Y: l.PageTop(idx), Width: p.Size.Width, Height: p.Size.Height}
		container.InsertAt(n, slot)
		slot++
		prev = idx
	}
	if prev < l.PageCount()-1 {
		container.InsertAt(v.spacer(l, prev+1, l.PageCount()-1), slot)
	}
}

// PageNode returns the materialized node for a page, or nil when the page
// is currently virtualized away.
func (v *Virtualizer) PageNode(pageIndex int) *dom.Node {
	return v.pages[pageIndex]
}

// MaterializedCount returns how many page nodes are currently live.
func (v *Virtualizer) MaterializedCount() int {
	return len(v.pages)
}

// spacer builds a placeholder covering pages [from, to] inclusive.
func (v *Virtualizer) spacer(l *flow.Layout, from, to int) *dom.Node {
	n := dom.NewNode("spacer")
	n.SetAttribute(AttrSpacerFrom, strconv.Itoa(from))
	n.SetAttribute(AttrSpacerTo, strconv.Itoa(to))
	top := l.PageTop(from)
	bottom := l.PageTop(to) + l.Pages[to].Size.Height
	if to < l.PageCount()-1 {
		bottom += l.PageGap
	}
	n.Rect = dom.Rect{X: 0, Y: top, Width: l.Pages[from].Size.Width, Height: bottom - top}
	return n
}
