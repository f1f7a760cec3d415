package measure

import (
	"sort"
	"strings"
)

// CacheKey builds the measure-cache key for a block under one constraint
// signature (typically the formatted available width). Invalidate matches
// on the block-ID part, so all constraint variants of a block drop together.
func CacheKey(blockID, constraintSig string) string {
	return blockID + "|" + constraintSig
}

func keyBlockID(key string) string {
	if i := strings.IndexByte(key, '|'); i >= 0 {
		return key[:i]
	}
	return key
}

// measureEntry tags cached geometry with the document version it was
// computed at plus a dirty flag. Dirty entries are retained until pruned so
// invalidation stays cheap, but reads never observe them.
type measureEntry struct {
	measure *Measure
	version int64
	dirty   bool
}

// MeasureCache maps block IDs to cached Measures. Owned by whoever
// constructs it; the flow engine and reconciler receive it by reference.
type MeasureCache struct {
	entries map[string]*measureEntry
}

// NewMeasureCache creates an empty measure cache.
func NewMeasureCache() *MeasureCache {
	return &MeasureCache{entries: make(map[string]*measureEntry)}
}

// Get returns the cached measure for a block, or nil when absent or dirty.
// A nil return means "must recompute", never "empty".
func (c *MeasureCache) Get(blockID string) *Measure {
	e, ok := c.entries[blockID]
	if !ok || e.dirty {
		return nil
	}
	return e.measure
}

// Version returns the stored version for a clean entry, or -1.
func (c *MeasureCache) Version(blockID string) int64 {
	e, ok := c.entries[blockID]
	if !ok || e.dirty {
		return -1
	}
	return e.version
}

// Set stores a measure and clears any dirty flag on the entry.
func (c *MeasureCache) Set(blockID string, m *Measure, version int64) {
	c.entries[blockID] = &measureEntry{measure: m, version: version}
}

// MarkDirty flags one entry; unknown IDs are ignored.
func (c *MeasureCache) MarkDirty(blockID string) {
	if e, ok := c.entries[blockID]; ok {
		e.dirty = true
	}
}

// Invalidate removes every cached entry for the given block IDs, across
// all constraint signatures.
func (c *MeasureCache) Invalidate(blockIDs []string) {
	for _, id := range blockIDs {
		delete(c.entries, id)
		for key := range c.entries {
			if keyBlockID(key) == id {
				delete(c.entries, key)
			}
		}
	}
}

// ValidateVersion marks dirty every clean entry whose version differs from
// expected and returns how many entries were newly marked. Already-dirty
// entries are not counted again.
func (c *MeasureCache) ValidateVersion(expected int64) int {
	marked := 0
	for _, e := range c.entries {
		if !e.dirty && e.version != expected {
			e.dirty = true
			marked++
		}
	}
	return marked
}

// PruneDirty evicts all dirty entries and returns the count removed.
func (c *MeasureCache) PruneDirty() int {
	removed := 0
	for id, e := range c.entries {
		if e.dirty {
			delete(c.entries, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of entries, dirty ones included.
func (c *MeasureCache) Len() int {
	return len(c.entries)
}

// Clear drops every entry. Used on document replacement.
func (c *MeasureCache) Clear() {
	c.entries = make(map[string]*measureEntry)
}

type lineEntry struct {
	lines   []LineBox
	version int64
	dirty   bool
}

// LineCache maps paragraph indexes to their measured lines, with the same
// version+dirty tagging as MeasureCache. Paragraph indexes are positions in
// the document's block sequence, so ordered invalidation (everything at or
// past an edit) is a range operation.
type LineCache struct {
	entries map[int]*lineEntry
}

// NewLineCache creates an empty line cache.
func NewLineCache() *LineCache {
	return &LineCache{entries: make(map[int]*lineEntry)}
}

// SetLines stores a paragraph's lines and clears its dirty flag.
func (c *LineCache) SetLines(paraIdx int, lines []LineBox, version int64) {
	c.entries[paraIdx] = &lineEntry{lines: lines, version: version}
}

// Lines returns a clean entry's lines, or nil.
func (c *LineCache) Lines(paraIdx int) []LineBox {
	e, ok := c.entries[paraIdx]
	if !ok || e.dirty {
		return nil
	}
	return e.lines
}

// FindLineIndex returns the index of the line containing the given
// (run, char) position, or -1 when the entry is absent or dirty or no line
// contains it.
func (c *LineCache) FindLineIndex(paraIdx, run, char int) int {
	lines := c.Lines(paraIdx)
	if lines == nil {
		return -1
	}
	for i, ln := range lines {
		if positionInLine(&ln, run, char) {
			return i
		}
	}
	return -1
}

// FindLineContaining returns the line containing the given position, or nil
// when unavailable. Callers must treat nil as "must recompute".
func (c *LineCache) FindLineContaining(paraIdx, run, char int) *LineBox {
	idx := c.FindLineIndex(paraIdx, run, char)
	if idx < 0 {
		return nil
	}
	lines := c.Lines(paraIdx)
	return &lines[idx]
}

func positionInLine(ln *LineBox, run, char int) bool {
	if run < ln.FromRun || run > ln.ToRun {
		return false
	}
	if run == ln.FromRun && char < ln.FromChar {
		return false
	}
	if run == ln.ToRun && char > ln.ToChar {
		return false
	}
	return true
}

// MarkDirty flags one paragraph.
func (c *LineCache) MarkDirty(paraIdx int) {
	if e, ok := c.entries[paraIdx]; ok {
		e.dirty = true
	}
}

// MarkDirtyFrom flags every paragraph at or past idx.
func (c *LineCache) MarkDirtyFrom(idx int) {
	for i, e := range c.entries {
		if i >= idx {
			e.dirty = true
		}
	}
}

// MarkDirtyRange flags paragraphs in [from, to).
func (c *LineCache) MarkDirtyRange(from, to int) {
	for i, e := range c.entries {
		if i >= from && i < to {
			e.dirty = true
		}
	}
}

// ValidateVersion marks dirty every clean entry stored at a different
// version; returns the count newly marked. Idempotent.
func (c *LineCache) ValidateVersion(expected int64) int {
	marked := 0
	for _, e := range c.entries {
		if !e.dirty && e.version != expected {
			e.dirty = true
			marked++
		}
	}
	return marked
}

// PruneDirty evicts dirty entries, returning the count removed.
func (c *LineCache) PruneDirty() int {
	removed := 0
	for i, e := range c.entries {
		if e.dirty {
			delete(c.entries, i)
			removed++
		}
	}
	return removed
}

// Indexes returns the cached paragraph indexes in ascending order, dirty
// entries included. Diagnostic use only.
func (c *LineCache) Indexes() []int {
	out := make([]int, 0, len(c.entries))
	for i := range c.entries {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Clear drops every entry.
func (c *LineCache) Clear() {
	c.entries = make(map[int]*lineEntry)
}
