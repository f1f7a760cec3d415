// Package dom is the retained render tree the reconciler paints layouts
// into: element nodes with attributes, ordered children, scroll state and
// document focus. It is the single structural surface the painter owns;
// other components route all node creation and movement through the
// reconciler to keep cached fragment identity and tree state in agreement.
package dom

// Rect is a node's assigned geometry in stacked-page coordinates.
type Rect struct {
	X, Y, Width, Height float64
}

// Node is one element in the render tree.
type Node struct {
	Tag string

	attrs    map[string]string
	children []*Node
	parent   *Node

	// Scrollable marks a node as a scroll container; ScrollTop is its
	// current scroll offset.
	Scrollable bool
	ScrollTop  float64

	// Rect is the node's last assigned geometry.
	Rect Rect
}

// NewNode creates a detached element.
func NewNode(tag string) *Node {
	return &Node{Tag: tag, attrs: make(map[string]string)}
}

// Attribute returns an attribute value and whether it is set.
func (n *Node) Attribute(name string) (string, bool) {
	v, ok := n.attrs[name]
	return v, ok
}

// SetAttribute sets an attribute. Returns whether the stored value changed.
func (n *Node) SetAttribute(name, value string) bool {
	if old, ok := n.attrs[name]; ok && old == value {
		return false
	}
	n.attrs[name] = value
	return true
}

// RemoveAttribute clears an attribute.
func (n *Node) RemoveAttribute(name string) {
	delete(n.attrs, name)
}

// Children returns the node's children. Callers must not mutate the slice.
func (n *Node) Children() []*Node {
	return n.children
}

// Parent returns the node's parent, or nil for a detached or root node.
func (n *Node) Parent() *Node {
	return n.parent
}

// IndexOf returns the index of child under n, or -1.
func (n *Node) IndexOf(child *Node) int {
	for i, c := range n.children {
		if c == child {
			return i
		}
	}
	return -1
}

// AppendChild detaches child from its current parent and appends it.
func (n *Node) AppendChild(child *Node) {
	child.Detach()
	child.parent = n
	n.children = append(n.children, child)
}

// InsertBefore detaches child and inserts it before ref. A nil or foreign
// ref appends instead, matching the forgiving behavior of the live tree.
// Inserting a node before itself leaves it where it is; detaching first
// would turn the insertion into a silent append.
func (n *Node) InsertBefore(child, ref *Node) {
	if ref == child {
		return
	}
	if ref == nil {
		n.AppendChild(child)
		return
	}
	child.Detach()
	idx := n.IndexOf(ref)
	if idx < 0 {
		child.parent = n
		n.children = append(n.children, child)
		return
	}
	child.parent = n
	n.children = append(n.children, nil)
	copy(n.children[idx+1:], n.children[idx:])
	n.children[idx] = child
}

// InsertAt inserts child at the given index, clamped to the child list.
func (n *Node) InsertAt(child *Node, idx int) {
	if idx < 0 {
		idx = 0
	}
	if idx >= len(n.children) {
		n.AppendChild(child)
		return
	}
	n.InsertBefore(child, n.children[idx])
}

// RemoveChild removes child if present and returns it, or nil when the
// node is not a child (removed externally); callers skip and continue.
func (n *Node) RemoveChild(child *Node) *Node {
	idx := n.IndexOf(child)
	if idx < 0 {
		return nil
	}
	n.children = append(n.children[:idx], n.children[idx+1:]...)
	child.parent = nil
	return child
}

// Detach removes the node from its parent, if any.
func (n *Node) Detach() {
	if n.parent != nil {
		n.parent.RemoveChild(n)
	}
}

// ScrollParent returns the nearest scrollable ancestor, or nil.
func (n *Node) ScrollParent() *Node {
	for p := n.parent; p != nil; p = p.parent {
		if p.Scrollable {
			return p
		}
	}
	return nil
}

// Document is a render tree plus its focus state.
type Document struct {
	Root   *Node
	active *Node
}

// NewDocument creates a document with an attached root.
func NewDocument() *Document {
	return &Document{Root: NewNode("root")}
}

// ActiveElement returns the currently focused node, or nil.
func (d *Document) ActiveElement() *Node {
	return d.active
}

// Focus moves focus to n. Returns false when n is not attached under the
// document root.
func (d *Document) Focus(n *Node) bool {
	if n == nil || !d.contains(n) {
		return false
	}
	d.active = n
	return true
}

// Blur clears focus.
func (d *Document) Blur() {
	d.active = nil
}

func (d *Document) contains(n *Node) bool {
	for p := n; p != nil; p = p.parent {
		if p == d.Root {
			return true
		}
	}
	return false
}
