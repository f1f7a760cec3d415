package hf

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"folio/pkg/doc"
)

func hfPara(id, text string) *doc.Block {
	return &doc.Block{ID: id, Kind: doc.KindParagraph, Runs: []*doc.Run{{Text: text}}}
}

func baseObservation() Observation {
	return Observation{
		VariantBlocks: map[string][]*doc.Block{
			HeaderDefault: {hfPara("h1", "Chapter One")},
			FooterDefault: {hfPara("f1", "Page ")},
		},
		Constraints: Constraints{Width: 468, Height: 36, PageWidth: 612, MarginTop: 72, MarginBot: 72},
		Sections:    []*doc.Section{{NumberFormat: "decimal", NumberStart: 1}},
	}
}

func seed(c *Cache, o Observation) {
	c.Observe(o)
	for variant := range o.VariantBlocks {
		c.Set(variant, &VariantLayout{Height: 20})
	}
}

func TestCache_FirstObservationSeedsBaseline(t *testing.T) {
	c := NewCache()
	if inv := c.Observe(baseObservation()); len(inv) != 0 {
		t.Errorf("first observation must seed, not invalidate; got %v", inv)
	}
}

func TestCache_UnchangedObservationInvalidatesNothing(t *testing.T) {
	c := NewCache()
	seed(c, baseObservation())
	if inv := c.Observe(baseObservation()); len(inv) != 0 {
		t.Errorf("identical observation should invalidate nothing, got %v", inv)
	}
	if c.Get(HeaderDefault) == nil {
		t.Error("cached variant should survive an unchanged observation")
	}
}

func TestCache_ContentChangeInvalidatesOnlyThatVariant(t *testing.T) {
	c := NewCache()
	seed(c, baseObservation())

	o := baseObservation()
	o.VariantBlocks[HeaderDefault] = []*doc.Block{hfPara("h1", "Chapter Two")}
	inv := c.Observe(o)

	if len(inv) != 1 || inv[0] != HeaderDefault {
		t.Errorf("expected only %s invalidated, got %v", HeaderDefault, inv)
	}
	if c.Get(HeaderDefault) != nil {
		t.Error("changed variant should be dropped")
	}
	if c.Get(FooterDefault) == nil {
		t.Error("unchanged variant should survive")
	}
}

func TestCache_ConstraintChangeInvalidatesAllVariants(t *testing.T) {
	c := NewCache()
	seed(c, baseObservation())

	o := baseObservation()
	o.Constraints.PageWidth = 792 // landscape
	inv := c.Observe(o)

	if len(inv) != 2 {
		t.Errorf("constraint change should invalidate every cached variant, got %v", inv)
	}
	if c.Get(HeaderDefault) != nil || c.Get(FooterDefault) != nil {
		t.Error("all variants should be dropped on a constraints change")
	}
}

func TestCache_SectionMetadataChangeInvalidatesAllVariants(t *testing.T) {
	c := NewCache()
	seed(c, baseObservation())

	o := baseObservation()
	o.Sections = []*doc.Section{{NumberFormat: "upperRoman", NumberStart: 1}}
	inv := c.Observe(o)
	if len(inv) != 2 {
		t.Errorf("numbering change should invalidate all variants, got %v", inv)
	}
}

func TestCache_HeaderRefChangeInvalidates(t *testing.T) {
	c := NewCache()
	base := baseObservation()
	base.Sections[0].HeaderRefs = map[string]string{HeaderDefault: "h1"}
	seed(c, base)

	o := baseObservation()
	o.Sections[0].HeaderRefs = map[string]string{HeaderDefault: "h9"}
	if inv := c.Observe(o); len(inv) != 2 {
		t.Errorf("header reference change should invalidate all variants, got %v", inv)
	}
}

func TestContentHash_SensitiveToStyleAndTokens(t *testing.T) {
	plain := []*doc.Block{hfPara("b", "text")}
	bold := []*doc.Block{{ID: "b", Kind: doc.KindParagraph, Runs: []*doc.Run{{Text: "text", Bold: true}}}}
	tokened := []*doc.Block{{ID: "b", Kind: doc.KindParagraph, Runs: []*doc.Run{{Text: "text", Field: "PAGE"}}}}

	if ContentHash(plain) == ContentHash(bold) {
		t.Error("bold flag should change the content hash")
	}
	if ContentHash(plain) == ContentHash(tokened) {
		t.Error("an unresolved token marker should change the content hash")
	}
}

func TestDiffResolvedTokens(t *testing.T) {
	before := map[string]string{"a": "1", "b": "2", "c": "3"}
	after := map[string]string{"a": "1", "b": "9", "d": "4"}

	changed := DiffResolvedTokens(before, after)
	want := []string{"b", "c", "d"}
	if diff := cmp.Diff(want, changed); diff != "" {
		t.Errorf("changed blocks mismatch (-want +got):\n%s", diff)
	}
}
