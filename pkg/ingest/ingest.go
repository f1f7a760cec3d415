// Package ingest converts a small HTML subset into document blocks, used
// by the CLI tools to load test documents. Paragraphs, headings, tables,
// images and hr page breaks are recognized; everything else flattens into
// text.
package ingest

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"

	"folio/pkg/doc"
)

var headingSizes = map[string]float64{
	"h1": 24, "h2": 20, "h3": 16, "h4": 14, "h5": 12, "h6": 11,
}

// Parse reads an HTML document and returns its blocks with sequential IDs
// and document-position ranges assigned.
func Parse(r io.Reader) ([]*doc.Block, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("ingest: parse: %w", err)
	}
	p := &parser{}
	p.walk(root)
	assignPositions(p.blocks)
	return p.blocks, nil
}

type parser struct {
	blocks []*doc.Block
	serial int
}

func (p *parser) nextID(prefix string) string {
	p.serial++
	return prefix + strconv.Itoa(p.serial)
}

func (p *parser) walk(n *html.Node) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "p":
			p.addParagraph(n, 0)
			return
		case "h1", "h2", "h3", "h4", "h5", "h6":
			p.addParagraph(n, headingSizes[n.Data])
			return
		case "table":
			p.addTable(n)
			return
		case "img":
			p.addImage(n)
			return
		case "hr":
			p.blocks = append(p.blocks, &doc.Block{
				ID:    p.nextID("br"),
				Kind:  doc.KindBreak,
				Break: doc.BreakPage,
			})
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.walk(c)
	}
}

func (p *parser) addParagraph(n *html.Node, fontSize float64) {
	runs := collectRuns(n, runStyle{size: fontSize, bold: fontSize > 0})
	if len(runs) == 0 {
		runs = []*doc.Run{{Text: ""}}
	}
	p.blocks = append(p.blocks, &doc.Block{
		ID:   p.nextID("p"),
		Kind: doc.KindParagraph,
		Runs: runs,
	})
}

func (p *parser) addTable(n *html.Node) {
	var rows []*doc.Row
	for _, tr := range descendants(n, "tr") {
		row := &doc.Row{}
		for _, td := range childCells(tr) {
			cell := &doc.Cell{
				WidthKind: doc.CellWidthAuto,
				ColSpan:   intAttr(td, "colspan", 1),
				RowSpan:   intAttr(td, "rowspan", 1),
			}
			runs := collectRuns(td, runStyle{})
			if len(runs) > 0 {
				cell.Content = []*doc.Block{{
					ID:   p.nextID("c"),
					Kind: doc.KindParagraph,
					Runs: runs,
				}}
			}
			row.Cells = append(row.Cells, cell)
		}
		if len(row.Cells) > 0 {
			rows = append(rows, row)
		}
	}
	if len(rows) == 0 {
		return
	}
	p.blocks = append(p.blocks, &doc.Block{
		ID:   p.nextID("t"),
		Kind: doc.KindTable,
		Rows: rows,
	})
}

func (p *parser) addImage(n *html.Node) {
	w := floatAttr(n, "width", 120)
	h := floatAttr(n, "height", 80)
	p.blocks = append(p.blocks, &doc.Block{
		ID:   p.nextID("d"),
		Kind: doc.KindDrawing,
		Drawing: &doc.Drawing{
			Width: w, Height: h,
			NativeWidth: w, NativeHeight: h,
			Wrap: doc.WrapTopAndBottom,
		},
	})
}

type runStyle struct {
	bold   bool
	italic bool
	size   float64
}

func collectRuns(n *html.Node, style runStyle) []*doc.Run {
	var runs []*doc.Run
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			text := collapseSpace(c.Data)
			if text == "" {
				continue
			}
			runs = append(runs, &doc.Run{
				Text: text, Bold: style.bold, Italic: style.italic, FontSize: style.size,
			})
		case html.ElementNode:
			child := style
			switch c.Data {
			case "b", "strong":
				child.bold = true
			case "i", "em":
				child.italic = true
			case "br":
				continue
			}
			runs = append(runs, collectRuns(c, child)...)
		}
	}
	return runs
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func descendants(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	var rec func(*html.Node)
	rec = func(m *html.Node) {
		for c := m.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.Data == tag {
				out = append(out, c)
				continue
			}
			rec(c)
		}
	}
	rec(n)
	return out
}

func childCells(tr *html.Node) []*html.Node {
	var out []*html.Node
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
			out = append(out, c)
		}
	}
	return out
}

func intAttr(n *html.Node, name string, def int) int {
	for _, a := range n.Attr {
		if a.Key == name {
			if v, err := strconv.Atoi(a.Val); err == nil && v > 0 {
				return v
			}
		}
	}
	return def
}

func floatAttr(n *html.Node, name string, def float64) float64 {
	for _, a := range n.Attr {
		if a.Key == name {
			if v, err := strconv.ParseFloat(a.Val, 64); err == nil && v > 0 {
				return v
			}
		}
	}
	return def
}

// assignPositions gives each block a contiguous document-position range,
// one position per rune of text content plus one for the block boundary.
func assignPositions(blocks []*doc.Block) {
	pos := 0
	for _, b := range blocks {
		b.PmStart = pos
		pos += utf8.RuneCountInString(b.TextContent()) + 1
		b.PmEnd = pos
	}
}
