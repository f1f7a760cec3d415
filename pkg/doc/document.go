package doc

// Coords are viewport-relative coordinates returned by the edit surface's
// native position query.
type Coords struct {
	Left   float64
	Top    float64
	Bottom float64
}

// PositionQuerier maps a model position to viewport-relative coordinates.
// Returns nil when the position is not currently rendered.
type PositionQuerier interface {
	CoordsAtPos(pos int) *Coords
}

// MutationFunc is invoked once per applied document change.
type MutationFunc func()

// Document is an ordered sequence of content blocks plus the mutation
// notification hook the layout bridge subscribes to.
type Document struct {
	blocks   []*Block
	byID     map[string]*Block
	onChange []MutationFunc
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	return &Document{byID: make(map[string]*Block)}
}

// Blocks returns the current block sequence. Callers must not mutate the
// returned slice.
func (d *Document) Blocks() []*Block {
	return d.blocks
}

// BlockByID returns the block with the given ID, or nil.
func (d *Document) BlockByID(id string) *Block {
	return d.byID[id]
}

// Append adds a block to the end of the document and notifies subscribers.
func (d *Document) Append(b *Block) {
	d.blocks = append(d.blocks, b)
	d.byID[b.ID] = b
	d.reindex()
	d.notify()
}

// Replace swaps the block with matching ID for a new snapshot and notifies
// subscribers. Unknown IDs are ignored.
func (d *Document) Replace(b *Block) {
	for i, old := range d.blocks {
		if old.ID == b.ID {
			d.blocks[i] = b
			d.byID[b.ID] = b
			d.reindex()
			d.notify()
			return
		}
	}
}

// Remove deletes the block with the given ID, if present.
func (d *Document) Remove(id string) {
	for i, old := range d.blocks {
		if old.ID == id {
			d.blocks = append(d.blocks[:i], d.blocks[i+1:]...)
			delete(d.byID, id)
			d.reindex()
			d.notify()
			return
		}
	}
}

// OnMutation registers a hook invoked once per applied change.
func (d *Document) OnMutation(fn MutationFunc) {
	d.onChange = append(d.onChange, fn)
}

func (d *Document) notify() {
	for _, fn := range d.onChange {
		fn()
	}
}

// reindex recomputes each block's position range. A paragraph owns one
// position per rune of visible text plus one for the block boundary, the
// way the underlying ordered-position tree counts them.
func (d *Document) reindex() {
	pos := 0
	for _, b := range d.blocks {
		b.PmStart = pos
		switch b.Kind {
		case KindParagraph:
			pos += len([]rune(b.TextContent())) + 1
		case KindTable:
			for _, row := range b.Rows {
				for _, cell := range row.Cells {
					for _, p := range cell.Content {
						pos += len([]rune(p.TextContent())) + 1
					}
				}
			}
			pos++
		default:
			pos++
		}
		b.PmEnd = pos
	}
}
