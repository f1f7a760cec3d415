// Package hf caches computed header/footer layouts per variant and decides,
// by rolling content/constraint/section hashes, which variants a layout pass
// may reuse and which it must recompute.
package hf

import (
	"fmt"
	"hash/fnv"
	"sort"

	"folio/pkg/doc"
	"folio/pkg/measure"
)

// Variant names follow the "header-default" / "footer-first" convention.
const (
	HeaderDefault = "header-default"
	HeaderFirst   = "header-first"
	HeaderEven    = "header-even"
	FooterDefault = "footer-default"
	FooterFirst   = "footer-first"
	FooterEven    = "footer-even"
)

// Constraints are the geometry inputs every header/footer layout shares.
type Constraints struct {
	Width       float64
	Height      float64
	PageWidth   float64
	MarginTop   float64
	MarginBot   float64
	MarginLeft  float64
	MarginRight float64
}

// VariantLayout is one cached header/footer variant: the measured blocks and
// the band height they occupy.
type VariantLayout struct {
	Blocks   []*doc.Block
	Measures map[string]*measure.Measure
	Height   float64
}

// Cache holds per-variant layouts plus the hash baselines that drive
// invalidation. Created once per editing session and passed by reference.
type Cache struct {
	variants map[string]*VariantLayout

	contentHash     map[string]uint64
	constraintsHash uint64
	sectionHash     uint64
	seeded          bool
}

// NewCache creates an empty header/footer cache.
func NewCache() *Cache {
	return &Cache{
		variants:    make(map[string]*VariantLayout),
		contentHash: make(map[string]uint64),
	}
}

// Get returns the cached layout for a variant, or nil.
func (c *Cache) Get(variant string) *VariantLayout {
	return c.variants[variant]
}

// Set stores a computed variant layout.
func (c *Cache) Set(variant string, v *VariantLayout) {
	c.variants[variant] = v
}

// Invalidate removes the cached layouts for the given variants.
func (c *Cache) Invalidate(variants []string) {
	for _, v := range variants {
		delete(c.variants, v)
	}
}

// InvalidateAll drops every cached variant.
func (c *Cache) InvalidateAll() {
	c.variants = make(map[string]*VariantLayout)
}

// Clear resets the cache and its hash baselines. Used on document
// replacement.
func (c *Cache) Clear() {
	c.InvalidateAll()
	c.contentHash = make(map[string]uint64)
	c.constraintsHash = 0
	c.sectionHash = 0
	c.seeded = false
}

// ContentHash hashes a variant's blocks: IDs, visible run text, bold/italic
// flags, and unresolved field-token markers. Any of those changing changes
// the hash.
func ContentHash(blocks []*doc.Block) uint64 {
	h := fnv.New64a()
	for _, b := range blocks {
		h.Write([]byte(b.ID))
		h.Write([]byte{0})
		for _, r := range b.Runs {
			h.Write([]byte(r.Text))
			flags := byte(0)
			if r.Bold {
				flags |= 1
			}
			if r.Italic {
				flags |= 2
			}
			h.Write([]byte{flags})
			if r.Field != "" {
				h.Write([]byte("{" + r.Field + "}"))
			}
			h.Write([]byte{0})
		}
		h.Write([]byte{0xff})
	}
	return h.Sum64()
}

// ConstraintsHash hashes the shared geometry inputs.
func ConstraintsHash(c Constraints) uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%g|%g|%g|%g|%g|%g|%g",
		c.Width, c.Height, c.PageWidth, c.MarginTop, c.MarginBot, c.MarginLeft, c.MarginRight)
	return h.Sum64()
}

// SectionMetaHash hashes the per-section numbering and header/footer
// reference metadata. Numbering and references have a global effect on
// placement, so any change invalidates all variants.
func SectionMetaHash(sections []*doc.Section) uint64 {
	h := fnv.New64a()
	for _, s := range sections {
		if s == nil {
			h.Write([]byte{0xfe})
			continue
		}
		fmt.Fprintf(h, "%s|%d|", s.NumberFormat, s.NumberStart)
		writeRefs(h, s.HeaderRefs)
		writeRefs(h, s.FooterRefs)
		h.Write([]byte{0xff})
	}
	return h.Sum64()
}

func writeRefs(h interface{ Write([]byte) (int, error) }, refs map[string]string) {
	keys := make([]string, 0, len(refs))
	for k := range refs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{'='})
		h.Write([]byte(refs[k]))
		h.Write([]byte{';'})
	}
}

// Observation is one layout pass's worth of hash inputs.
type Observation struct {
	// VariantBlocks maps each variant to the blocks it would render.
	VariantBlocks map[string][]*doc.Block
	Constraints   Constraints
	Sections      []*doc.Section
}

// Observe recomputes every hash, compares against the previous baselines,
// and invalidates what changed: a constraints or section-metadata change
// drops all variants; a content change drops only that variant. The first
// observation seeds the baselines without invalidating anything. Returns
// the variant names invalidated.
func (c *Cache) Observe(o Observation) []string {
	newConstraints := ConstraintsHash(o.Constraints)
	newSection := SectionMetaHash(o.Sections)
	newContent := make(map[string]uint64, len(o.VariantBlocks))
	for variant, blocks := range o.VariantBlocks {
		newContent[variant] = ContentHash(blocks)
	}

	var invalidated []string
	if c.seeded {
		if newConstraints != c.constraintsHash || newSection != c.sectionHash {
			for v := range c.variants {
				invalidated = append(invalidated, v)
			}
			c.InvalidateAll()
		} else {
			for variant, hash := range newContent {
				if prev, ok := c.contentHash[variant]; ok && prev != hash {
					if c.variants[variant] != nil {
						invalidated = append(invalidated, variant)
					}
					delete(c.variants, variant)
				}
			}
		}
	}

	c.constraintsHash = newConstraints
	c.sectionHash = newSection
	c.contentHash = newContent
	c.seeded = true
	sort.Strings(invalidated)
	return invalidated
}

// DiffResolvedTokens compares a variant's rendered field-token output before
// and after page-number resolution and returns the block IDs whose output
// changed. The flow engine re-invalidates those IDs in the body measure
// cache.
func DiffResolvedTokens(before, after map[string]string) []string {
	var changed []string
	for id, text := range after {
		if prev, ok := before[id]; !ok || prev != text {
			changed = append(changed, id)
		}
	}
	for id := range before {
		if _, ok := after[id]; !ok {
			changed = append(changed, id)
		}
	}
	sort.Strings(changed)
	return changed
}
