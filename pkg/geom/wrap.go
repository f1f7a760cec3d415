package geom

import "folio/pkg/doc"

// Band is a horizontal interval a text line must avoid.
type Band struct {
	Left, Right float64
}

// Rect is an axis-aligned rectangle in page coordinates.
type Rect struct {
	X, Y, Width, Height float64
}

// ComputeWrapExclusion returns the horizontal band a text line spanning
// [lineY, lineY+lineHeight) must avoid around the given drawing, or nil when
// no avoidance is needed.
//
// Square returns the distance-expanded rectangle. Tight/Through sample the
// wrap polygon on a single scanline at the line's vertical midpoint,
// interpolating each polygon edge that brackets it; with no polygon they
// fall back to the Square band. None and TopAndBottom never exclude
// horizontally.
func ComputeWrapExclusion(d *doc.Drawing, lineY, lineHeight float64) *Band {
	if d == nil {
		return nil
	}
	switch d.Wrap {
	case doc.WrapNone, doc.WrapTopAndBottom:
		return nil
	}

	// Vertical intersection against the distance-expanded box first.
	top := d.Y - d.DistTop
	bottom := d.Y + d.Height + d.DistBottom
	if lineY+lineHeight <= top || lineY >= bottom {
		return nil
	}

	square := &Band{Left: d.X - d.DistLeft, Right: d.X + d.Width + d.DistRight}
	if d.Wrap == doc.WrapSquare {
		return square
	}

	// Tight/Through: scanline sample at the line's midpoint.
	poly := ScaleWrapPolygon(d.Polygon, Rect{X: d.X, Y: d.Y, Width: d.Width, Height: d.Height})
	if len(poly) == 0 {
		return square
	}

	midY := lineY + lineHeight/2
	minX, maxX, hit := polygonXRangeAt(poly, midY)
	if !hit {
		return nil
	}
	return &Band{Left: minX - d.DistLeft, Right: maxX + d.DistRight}
}

// polygonXRangeAt intersects every polygon edge whose Y-span contains y,
// interpolating the edge's X there. Best-effort single-scanline clip: for
// self-intersecting or highly concave polygons the band may over- or
// under-exclude.
func polygonXRangeAt(poly []doc.Point, y float64) (minX, maxX float64, hit bool) {
	n := len(poly)
	for i := 0; i < n; i++ {
		a := poly[i]
		b := poly[(i+1)%n]
		lo, hi := a.Y, b.Y
		if lo > hi {
			lo, hi = hi, lo
		}
		if y < lo || y > hi {
			continue
		}
		if a.Y == b.Y {
			// Horizontal edge lying on the scanline: both endpoints count.
			updateRange(&minX, &maxX, &hit, a.X)
			updateRange(&minX, &maxX, &hit, b.X)
			continue
		}
		t := (y - a.Y) / (b.Y - a.Y)
		updateRange(&minX, &maxX, &hit, a.X+t*(b.X-a.X))
	}
	return minX, maxX, hit
}

func updateRange(minX, maxX *float64, hit *bool, x float64) {
	if !*hit {
		*minX, *maxX = x, x
		*hit = true
		return
	}
	if x < *minX {
		*minX = x
	}
	if x > *maxX {
		*maxX = x
	}
}

// ScaleWrapPolygon rescales a polygon defined in a drawing's native
// coordinate space onto the rendered drawing's absolute page rectangle. The
// polygon's own bounding box drives independent X and Y scale factors.
// Empty or degenerate input (zero-width or zero-height bounding box) yields
// an empty result.
func ScaleWrapPolygon(points []doc.Point, rect Rect) []doc.Point {
	if len(points) == 0 {
		return nil
	}
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	w, h := maxX-minX, maxY-minY
	if w == 0 || h == 0 {
		return nil
	}
	sx := rect.Width / w
	sy := rect.Height / h
	out := make([]doc.Point, len(points))
	for i, p := range points {
		out[i] = doc.Point{
			X: rect.X + (p.X-minX)*sx,
			Y: rect.Y + (p.Y-minY)*sy,
		}
	}
	return out
}
