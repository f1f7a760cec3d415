package flow

import (
	"strings"

	"folio/pkg/doc"
	"folio/pkg/field"
	"folio/pkg/hf"
	"folio/pkg/measure"
)

// hfBandPadding is the gap kept between a header/footer band and the page
// edge of the content area.
const hfBandPadding = 6.0

// layoutHeadersFooters computes header/footer fragment sets for every page,
// reusing cached variant layouts where the hf cache says they remain valid,
// then resolves page-number tokens and re-invalidates in the body measure
// cache any block whose token output changed since the previous pass.
func (e *Engine) layoutHeadersFooters(l *Layout, sections []*doc.Section, opts Options) {
	if len(opts.Headers) == 0 && len(opts.Footers) == 0 {
		return
	}

	if e.hfCache != nil {
		variantBlocks := make(map[string][]*doc.Block, len(opts.Headers)+len(opts.Footers))
		for v, blocks := range opts.Headers {
			variantBlocks[v] = blocks
		}
		for v, blocks := range opts.Footers {
			variantBlocks[v] = blocks
		}
		e.hfCache.Observe(hf.Observation{
			VariantBlocks: variantBlocks,
			Constraints: hf.Constraints{
				Width:       l.PageSize.Width - opts.Margins.Left - opts.Margins.Right,
				Height:      opts.Margins.Top,
				PageWidth:   l.PageSize.Width,
				MarginTop:   opts.Margins.Top,
				MarginBot:   opts.Margins.Bottom,
				MarginLeft:  opts.Margins.Left,
				MarginRight: opts.Margins.Right,
			},
			Sections: sections,
		})
	}

	for _, p := range l.Pages {
		if variant, blocks, ok := variantForPage(p.Index, opts.Headers); ok {
			p.Header = e.hfFragments(variant, blocks, p, true, opts)
		}
		if variant, blocks, ok := variantForPage(p.Index, opts.Footers); ok {
			p.Footer = e.hfFragments(variant, blocks, p, false, opts)
		}
	}

	e.diffResolvedTokens(l, sections, opts)
}

// variantForPage picks the variant a page renders: "-first" on the first
// page and "-even" on even-numbered pages when those variants exist,
// otherwise "-default".
func variantForPage(pageIdx int, variants map[string][]*doc.Block) (string, []*doc.Block, bool) {
	pick := func(suffix string) (string, []*doc.Block, bool) {
		for name, blocks := range variants {
			if strings.HasSuffix(name, suffix) {
				return name, blocks, true
			}
		}
		return "", nil, false
	}
	if pageIdx == 0 {
		if name, blocks, ok := pick("-first"); ok {
			return name, blocks, ok
		}
	}
	// Page numbers are 1-based; index 1 is page 2, the first even page.
	if pageIdx%2 == 1 {
		if name, blocks, ok := pick("-even"); ok {
			return name, blocks, ok
		}
	}
	return pick("-default")
}

// hfFragments returns the positioned fragments for one page's header or
// footer, computing and caching the variant layout on first use.
func (e *Engine) hfFragments(variant string, blocks []*doc.Block, p *Page, isHeader bool, opts Options) []*Fragment {
	width := p.ContentWidth()
	v := e.variantLayout(variant, blocks, width, opts)

	y := 0.0
	if isHeader {
		y = p.Margins.Top - v.Height - hfBandPadding
		if y < 0 {
			y = 0
		}
	} else {
		y = p.Size.Height - p.Margins.Bottom + hfBandPadding
	}

	frags := make([]*Fragment, 0, len(blocks))
	for _, b := range blocks {
		m := v.Measures[b.ID]
		h := m.TotalHeight()
		frag := &Fragment{
			BlockID: b.ID,
			Kind:    b.Kind,
			X:       p.Margins.Left,
			Y:       y,
			Width:   width,
			Height:  h,
		}
		if m != nil && m.Paragraph != nil {
			frag.ToLine = len(m.Paragraph.Lines)
		}
		frags = append(frags, frag)
		y += h
	}
	return frags
}

func (e *Engine) variantLayout(variant string, blocks []*doc.Block, width float64, opts Options) *hf.VariantLayout {
	if e.hfCache != nil {
		if v := e.hfCache.Get(variant); v != nil {
			return v
		}
	}
	v := &hf.VariantLayout{
		Blocks:   blocks,
		Measures: make(map[string]*measure.Measure, len(blocks)),
	}
	for _, b := range blocks {
		m, err := measure.MeasureBlock(b, width, e.measurer, &measure.BreakOptions{
			DefaultTabInterval: opts.DefaultTabInterval,
		})
		if err != nil {
			continue
		}
		v.Measures[b.ID] = m
		v.Height += m.TotalHeight()
	}
	if e.hfCache != nil {
		e.hfCache.Set(variant, v)
	}
	return v
}

// diffResolvedTokens renders every header/footer block's token output for
// the final page count and compares it against the previous pass; blocks
// whose output changed are invalidated in the body measure cache so the
// next pass re-measures them with the new text.
func (e *Engine) diffResolvedTokens(l *Layout, sections []*doc.Section, opts Options) {
	resolver := field.NewResolver()
	numberFormat := ""
	numberStart := 0
	for _, s := range sections {
		if s != nil && s.NumberFormat != "" {
			numberFormat = s.NumberFormat
			numberStart = s.NumberStart
			break
		}
	}

	resolved := make(map[string]string)
	render := func(blocks []*doc.Block) {
		for _, b := range blocks {
			var sb strings.Builder
			for pi := range l.Pages {
				sb.WriteString(resolver.ResolveBlock(b, field.PageContext{
					PageNumber:   pi + 1,
					PageCount:    len(l.Pages),
					NumberFormat: numberFormat,
					NumberStart:  numberStart,
				}))
				sb.WriteByte('\n')
			}
			resolved[b.ID] = sb.String()
		}
	}
	for _, blocks := range opts.Headers {
		render(blocks)
	}
	for _, blocks := range opts.Footers {
		render(blocks)
	}

	changed := hf.DiffResolvedTokens(e.lastResolved, resolved)
	if len(changed) > 0 && e.measures != nil {
		e.measures.Invalidate(changed)
	}
	e.lastResolved = resolved
}
