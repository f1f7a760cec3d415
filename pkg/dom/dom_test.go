package dom

import "testing"

func TestInsertBefore(t *testing.T) {
	p := NewNode("page")
	a := NewNode("frag")
	b := NewNode("frag")
	c := NewNode("frag")
	p.AppendChild(a)
	p.AppendChild(c)
	p.InsertBefore(b, c)

	got := p.Children()
	if len(got) != 3 || got[0] != a || got[1] != b || got[2] != c {
		t.Fatalf("unexpected child order: %v", got)
	}
	if b.Parent() != p {
		t.Errorf("inserted child has wrong parent")
	}
}

func TestInsertBeforeReparents(t *testing.T) {
	p1 := NewNode("page")
	p2 := NewNode("page")
	a := NewNode("frag")
	p1.AppendChild(a)
	ref := NewNode("frag")
	p2.AppendChild(ref)

	p2.InsertBefore(a, ref)
	if p1.IndexOf(a) != -1 {
		t.Errorf("node still attached to old parent")
	}
	if p2.IndexOf(a) != 0 {
		t.Errorf("node not moved before ref: idx=%d", p2.IndexOf(a))
	}
}

func TestInsertBeforeSelfKeepsPosition(t *testing.T) {
	p := NewNode("page")
	a := NewNode("frag")
	b := NewNode("frag")
	p.AppendChild(a)
	p.AppendChild(b)

	// Inserting a node before itself must not detach-and-append it.
	p.InsertBefore(a, a)
	got := p.Children()
	if len(got) != 2 || got[0] != a || got[1] != b {
		t.Fatalf("self-insert reordered children: %v", got)
	}

	// InsertAt to the slot the child already occupies is likewise stable.
	p.InsertAt(a, 0)
	p.InsertAt(b, 1)
	got = p.Children()
	if len(got) != 2 || got[0] != a || got[1] != b {
		t.Fatalf("InsertAt to current slot reordered children: %v", got)
	}
}

func TestRemoveChildForeign(t *testing.T) {
	p := NewNode("page")
	stray := NewNode("frag")
	if got := p.RemoveChild(stray); got != nil {
		t.Errorf("removing a non-child should return nil")
	}
}

func TestSetAttributeReportsChange(t *testing.T) {
	n := NewNode("frag")
	if !n.SetAttribute("data-pm-start", "10") {
		t.Errorf("first set should report a change")
	}
	if n.SetAttribute("data-pm-start", "10") {
		t.Errorf("identical set should not report a change")
	}
	if !n.SetAttribute("data-pm-start", "11") {
		t.Errorf("new value should report a change")
	}
}

func TestScrollParent(t *testing.T) {
	root := NewNode("root")
	scroller := NewNode("viewport")
	scroller.Scrollable = true
	inner := NewNode("page")
	leaf := NewNode("frag")
	root.AppendChild(scroller)
	scroller.AppendChild(inner)
	inner.AppendChild(leaf)

	if got := leaf.ScrollParent(); got != scroller {
		t.Errorf("ScrollParent = %v, want the viewport node", got)
	}
	if got := root.ScrollParent(); got != nil {
		t.Errorf("root should have no scroll parent")
	}
}

func TestFocus(t *testing.T) {
	d := NewDocument()
	n := NewNode("frag")
	if d.Focus(n) {
		t.Errorf("focusing a detached node should fail")
	}
	d.Root.AppendChild(n)
	if !d.Focus(n) {
		t.Fatalf("focusing an attached node should succeed")
	}
	if d.ActiveElement() != n {
		t.Errorf("ActiveElement = %v, want focused node", d.ActiveElement())
	}
	d.Blur()
	if d.ActiveElement() != nil {
		t.Errorf("Blur should clear focus")
	}
}
