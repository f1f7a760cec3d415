package main

import (
	"flag"
	"fmt"
	"os"

	"folio/pkg/config"
	"folio/pkg/doc"
	"folio/pkg/field"
	"folio/pkg/flow"
	"folio/pkg/hf"
	"folio/pkg/ingest"
	"folio/pkg/measure"
	"folio/pkg/paint"
)

func main() {
	cfgPath := flag.String("c", "folio.toml", "configuration file")
	output := flag.String("o", "page", "output PNG path prefix")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: folioshow [flags] <document.html>\n\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}
	path := flag.Arg(0)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening document: %v\n", err)
		os.Exit(1)
	}
	blocks, err := ingest.Parse(f)
	f.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing document: %v\n", err)
		os.Exit(1)
	}

	fonts := fontConfig(cfg)
	measurer := measure.NewGGMeasurer(fonts)
	measures := measure.NewMeasureCache()
	engine := flow.NewEngine(measurer, measures, measure.NewLineCache(), hf.NewCache())

	opts := flowOptions(cfg)
	fmt.Fprintf(os.Stderr, "Flowing %d blocks...\n", len(blocks))
	layout, err := engine.Flow(blocks, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error flowing document: %v\n", err)
		os.Exit(1)
	}

	byID := make(map[string]*doc.Block, len(blocks))
	for _, b := range blocks {
		byID[b.ID] = b
	}
	painter := paint.NewPainter(fonts)
	painter.BlockFor = func(id string) *doc.Block { return byID[id] }
	painter.MeasureFor = func(id string, width float64) *measure.Measure {
		return measures.Get(measure.CacheKey(id, fmt.Sprintf("%.2f", width)))
	}

	for i := range layout.Pages {
		dc := painter.PaintPage(layout, i, field.PageContext{
			PageNumber: i + 1,
			PageCount:  layout.PageCount(),
		})
		name := fmt.Sprintf("%s-%d.png", *output, i+1)
		if err := dc.SavePNG(name); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", name, err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Saved %s\n", name)
	}
}

func fontConfig(cfg config.Config) measure.FontConfig {
	fonts := measure.DefaultFontConfig()
	if cfg.Fonts.Regular != "" {
		fonts.Regular = cfg.Fonts.Regular
	}
	if cfg.Fonts.Bold != "" {
		fonts.Bold = cfg.Fonts.Bold
	}
	if cfg.Fonts.Italic != "" {
		fonts.Italic = cfg.Fonts.Italic
	}
	if cfg.Fonts.BoldItalic != "" {
		fonts.BoldItalic = cfg.Fonts.BoldItalic
	}
	return fonts
}

func flowOptions(cfg config.Config) flow.Options {
	m := cfg.Page.Margin
	return flow.Options{
		PageSize: doc.PageSize{Width: cfg.Page.Width, Height: cfg.Page.Height},
		Margins:  doc.Margins{Top: m, Right: m, Bottom: m, Left: m},
		Columns:  doc.Columns{Count: cfg.Page.Columns, Gap: 24},
		PageGap:  cfg.Page.Gap,
		Version:  1,
	}
}
