package geom

import (
	"fmt"
	"math"
)

// ColumnKind selects how a column declares its width.
type ColumnKind int

const (
	ColumnAuto ColumnKind = iota
	ColumnFixed
	ColumnPct
)

// ColumnSpec is one column's width declaration.
type ColumnSpec struct {
	Kind  ColumnKind
	Value float64 // fixed width, or percentage for ColumnPct
}

// ResolveColumnWidths distributes availableWidth over the given columns.
// Fixed columns keep their specified width, percentage columns take their
// share of availableWidth, and auto columns split whatever remains evenly
// among themselves. With no auto columns any remainder is simply unused;
// fixed/percentage widths are never scaled down.
func ResolveColumnWidths(columns []ColumnSpec, availableWidth float64) ([]float64, error) {
	if err := checkFinite("available width", availableWidth); err != nil {
		return nil, err
	}
	if availableWidth < 0 {
		return nil, fmt.Errorf("available width must be non-negative, got %v", availableWidth)
	}
	if len(columns) == 0 {
		return nil, nil
	}

	widths := make([]float64, len(columns))
	remaining := availableWidth
	autoCount := 0
	for i, c := range columns {
		switch c.Kind {
		case ColumnFixed:
			if err := checkFinite("fixed column width", c.Value); err != nil {
				return nil, err
			}
			widths[i] = c.Value
			remaining -= c.Value
		case ColumnPct:
			if err := checkFinite("column percentage", c.Value); err != nil {
				return nil, err
			}
			widths[i] = c.Value / 100 * availableWidth
			remaining -= widths[i]
		default:
			autoCount++
		}
	}

	if autoCount > 0 {
		if remaining < 0 {
			remaining = 0
		}
		share := remaining / float64(autoCount)
		for i, c := range columns {
			if c.Kind == ColumnAuto {
				widths[i] = share
			}
		}
	}
	return widths, nil
}

// ColumnRects returns the X offset and width of each of count equal columns
// separated by gap within a content band of the given width.
func ColumnRects(contentX, contentWidth float64, count int, gap float64) []Band {
	if count < 1 {
		count = 1
	}
	colWidth := (contentWidth - gap*float64(count-1)) / float64(count)
	if colWidth < 0 {
		colWidth = 0
	}
	bands := make([]Band, count)
	for i := 0; i < count; i++ {
		x := contentX + float64(i)*(colWidth+gap)
		bands[i] = Band{Left: x, Right: x + colWidth}
	}
	return bands
}

func checkFinite(what string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%s must be finite, got %v", what, v)
	}
	return nil
}

// ValidatePageGeometry rejects page geometry that cannot produce a layout:
// non-finite or non-positive page sizes, negative margins, or margins that
// consume the whole page. These are caller programming errors, reported
// synchronously rather than recovered from.
func ValidatePageGeometry(pageWidth, pageHeight, marginLeft, marginRight, marginTop, marginBottom float64) error {
	for _, v := range []struct {
		what string
		val  float64
	}{
		{"page width", pageWidth},
		{"page height", pageHeight},
		{"left margin", marginLeft},
		{"right margin", marginRight},
		{"top margin", marginTop},
		{"bottom margin", marginBottom},
	} {
		if err := checkFinite(v.what, v.val); err != nil {
			return err
		}
	}
	if pageWidth <= 0 || pageHeight <= 0 {
		return fmt.Errorf("page size must be positive, got %vx%v", pageWidth, pageHeight)
	}
	if marginLeft < 0 || marginRight < 0 || marginTop < 0 || marginBottom < 0 {
		return fmt.Errorf("margins must be non-negative")
	}
	if marginLeft+marginRight >= pageWidth {
		return fmt.Errorf("horizontal margins (%v) exceed page width (%v)", marginLeft+marginRight, pageWidth)
	}
	if marginTop+marginBottom >= pageHeight {
		return fmt.Errorf("vertical margins (%v) exceed page height (%v)", marginTop+marginBottom, pageHeight)
	}
	return nil
}
