package main

import (
	"fmt"
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

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
	cfg, err := config.Load("folio.toml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	a := app.New()
	w := a.NewWindow("folio viewer")
	w.Resize(fyne.NewSize(900, 1000))

	status := widget.NewLabel("Enter a document path and press Enter")
	pageStack := container.NewVBox()
	scroll := container.NewVScroll(pageStack)

	pathEntry := widget.NewEntry()
	pathEntry.SetPlaceHolder("document.html")
	pathEntry.OnSubmitted = func(path string) {
		status.SetText("Loading " + path + "...")
		go func() {
			pages, err := renderDocument(path, cfg)
			if err != nil {
				status.SetText("Error: " + err.Error())
				return
			}
			objs := make([]fyne.CanvasObject, 0, len(pages))
			for _, img := range pages {
				img.FillMode = canvas.ImageFillOriginal
				objs = append(objs, img)
			}
			pageStack.Objects = objs
			pageStack.Refresh()
			scroll.ScrollToTop()
			status.SetText(fmt.Sprintf("%s (%d pages)", path, len(pages)))
			w.SetTitle("folio viewer " + path)
		}()
	}

	topBar := container.NewBorder(nil, nil, nil, nil, pathEntry)
	content := container.NewBorder(topBar, status, nil, nil, scroll)
	w.SetContent(content)

	// Keep focus on the path entry so Tab has somewhere to land.
	w.Canvas().Focus(pathEntry)

	if len(os.Args) > 1 {
		pathEntry.SetText(os.Args[1])
		pathEntry.OnSubmitted(os.Args[1])
	}

	w.ShowAndRun()
}

// renderDocument flows a document with the configured geometry and paints
// every page.
func renderDocument(path string, cfg config.Config) ([]*canvas.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	blocks, err := ingest.Parse(f)
	f.Close()
	if err != nil {
		return nil, err
	}

	fonts := measure.DefaultFontConfig()
	if cfg.Fonts.Regular != "" {
		fonts.Regular = cfg.Fonts.Regular
	}
	if cfg.Fonts.Bold != "" {
		fonts.Bold = cfg.Fonts.Bold
	}
	measurer := measure.NewGGMeasurer(fonts)
	measures := measure.NewMeasureCache()
	engine := flow.NewEngine(measurer, measures, measure.NewLineCache(), hf.NewCache())

	m := cfg.Page.Margin
	layout, err := engine.Flow(blocks, flow.Options{
		PageSize: doc.PageSize{Width: cfg.Page.Width, Height: cfg.Page.Height},
		Margins:  doc.Margins{Top: m, Right: m, Bottom: m, Left: m},
		Columns:  doc.Columns{Count: cfg.Page.Columns, Gap: 24},
		PageGap:  cfg.Page.Gap,
		Version:  1,
	})
	if err != nil {
		return nil, err
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

	out := make([]*canvas.Image, 0, layout.PageCount())
	for i := range layout.Pages {
		dc := painter.PaintPage(layout, i, field.PageContext{
			PageNumber: i + 1,
			PageCount:  layout.PageCount(),
		})
		out = append(out, canvas.NewImageFromImage(dc.Image()))
	}
	return out, nil
}
