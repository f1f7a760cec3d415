// Package paint turns layouts into pixels and into the retained render
// tree. The reconciler owns all structural mutation of fragment nodes; the
// virtualizer bounds how many pages are materialized; the painter rasters
// a page to an image.
package paint

import (
	"math"
	"strconv"

	"folio/pkg/doc"
	"folio/pkg/dom"
	"folio/pkg/flow"
)

const (
	AttrFragmentID = "data-fragment-id"
	AttrBlockID    = "data-block-id"
	AttrPmStart    = "data-pm-start"
	AttrPmEnd      = "data-pm-end"
)

// Stats counts the structural operations one reconcile pass performed.
// Reconciling the same layout twice in a row yields zero creations,
// removals and moves on the second pass.
type Stats struct {
	Created int
	Removed int
	Updated int
	Moved   int
}

// FragmentKey is the composite identity a fragment node is keyed by. A
// block split across pages yields distinct keys per piece, so splitting
// or merging reuses nodes only for pieces that keep their identity.
func FragmentKey(blockID string, pageIndex, fragmentIndex int) string {
	return blockID + "-" + strconv.Itoa(pageIndex) + "-" + strconv.Itoa(fragmentIndex)
}

// CursorAnchor keeps the caret visually stationary across a patch. Y
// reports the caret's current Y on the stacked surface; the reconciler
// samples it before and after mutating and compensates the nearest
// scroll container for any drift above a pixel.
type CursorAnchor struct {
	Y func() float64
}

// Reconciler patches a container's fragment nodes to match a layout. It
// retains nodes across passes keyed by FragmentKey so unchanged fragments
// are left untouched.
type Reconciler struct {
	nodes map[string]*dom.Node
}

func NewReconciler() *Reconciler {
	return &Reconciler{nodes: make(map[string]*dom.Node)}
}

type desiredFrag struct {
	key  string
	frag *flow.Fragment
	page int
}

// Reconcile patches container to show exactly the fragments of layout, in
// reading order. All reads (anchor sampling, existing-node lookup) happen
// before the first write; writes then run in remove, update, move, create
// order so geometry is only applied to nodes already in their final slot.
func (r *Reconciler) Reconcile(container *dom.Node, layout *flow.Layout, anchor *CursorAnchor) Stats {
	var stats Stats

	anchorBefore := math.NaN()
	if anchor != nil && anchor.Y != nil {
		anchorBefore = anchor.Y()
	}

	desired := collectFragments(layout)
	want := make(map[string]*desiredFrag, len(desired))
	for i := range desired {
		want[desired[i].key] = &desired[i]
	}

	// Remove nodes whose fragment no longer exists. A node someone else
	// already detached is skipped without counting.
	for key, n := range r.nodes {
		if _, ok := want[key]; ok {
			continue
		}
		delete(r.nodes, key)
		if container.RemoveChild(n) != nil {
			stats.Removed++
		}
	}

	// Update attributes and geometry on surviving nodes before any node
	// moves, writing each attribute only when its value changed.
	for i := range desired {
		n, ok := r.nodes[desired[i].key]
		if !ok {
			continue
		}
		if r.applyFragment(n, &desired[i]) {
			stats.Updated++
		}
	}

	// Move surviving nodes into position and create the missing ones, in
	// a single in-order walk.
	for i, d := range desired {
		n, ok := r.nodes[d.key]
		if !ok {
			n = dom.NewNode("fragment")
			n.SetAttribute(AttrFragmentID, d.key)
			r.applyFragment(n, &desired[i])
			container.InsertAt(n, i)
			r.nodes[d.key] = n
			stats.Created++
			continue
		}
		children := container.Children()
		if i < len(children) && children[i] == n {
			continue
		}
		container.InsertAt(n, i)
		stats.Moved++
	}

	if anchor != nil && anchor.Y != nil && !math.IsNaN(anchorBefore) {
		delta := anchor.Y() - anchorBefore
		if math.Abs(delta) > 1 {
			if sc := scrollTarget(container); sc != nil {
				sc.ScrollTop += delta
			}
		}
	}
	return stats
}

// applyFragment writes the fragment's identity attributes and geometry,
// returning whether anything changed. Position-range attributes are only
// meaningful on paragraph fragments; table and drawing nodes carry none.
func (r *Reconciler) applyFragment(n *dom.Node, d *desiredFrag) bool {
	changed := false
	if n.SetAttribute(AttrBlockID, d.frag.BlockID) {
		changed = true
	}
	if d.frag.Kind == doc.KindParagraph {
		if n.SetAttribute(AttrPmStart, strconv.Itoa(d.frag.PmStart)) {
			changed = true
		}
		if n.SetAttribute(AttrPmEnd, strconv.Itoa(d.frag.PmEnd)) {
			changed = true
		}
	}
	rect := dom.Rect{X: d.frag.X, Y: d.frag.Y, Width: d.frag.Width, Height: d.frag.Height}
	if n.Rect != rect {
		n.Rect = rect
		changed = true
	}
	return changed
}

func collectFragments(layout *flow.Layout) []desiredFrag {
	var out []desiredFrag
	if layout == nil {
		return out
	}
	for pi, p := range layout.Pages {
		for fi, f := range p.Fragments {
			out = append(out, desiredFrag{key: FragmentKey(f.BlockID, pi, fi), frag: f, page: pi})
		}
	}
	return out
}

func scrollTarget(container *dom.Node) *dom.Node {
	if container.Scrollable {
		return container
	}
	return container.ScrollParent()
}
