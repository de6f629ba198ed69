package gis

import (
	"fmt"
	"math"
	"strconv"

	"github.com/golang/geo/r2"
)

// Extent is an axis-aligned bounding box in model coordinates.
// Invariant: Xmin <= Xmax and Ymin <= Ymax.
type Extent struct {
	Xmin float64
	Ymin float64
	Xmax float64
	Ymax float64
}

// Point is a single model coordinate.
type Point struct {
	X float64
	Y float64
}

func NewExtent(xmin, ymin, xmax, ymax float64) (Extent, error) {
	if xmin > xmax || ymin > ymax {
		return Extent{}, fmt.Errorf("invalid extent: (%v, %v, %v, %v)", xmin, ymin, xmax, ymax)
	}
	return Extent{Xmin: xmin, Ymin: ymin, Xmax: xmax, Ymax: ymax}, nil
}

func (e Extent) rect() r2.Rect {
	return r2.RectFromPoints(
		r2.Point{X: e.Xmin, Y: e.Ymin},
		r2.Point{X: e.Xmax, Y: e.Ymax},
	)
}

func (e Extent) Width() float64  { return e.Xmax - e.Xmin }
func (e Extent) Height() float64 { return e.Ymax - e.Ymin }

// IsEmpty reports whether the extent covers no area.
func (e Extent) IsEmpty() bool {
	return e.Xmin >= e.Xmax || e.Ymin >= e.Ymax
}

// Intersect returns the overlapping rectangle of the two extents.
// The second return value is false when the extents do not overlap.
func (e Extent) Intersect(other Extent) (Extent, bool) {
	isect := e.rect().Intersection(other.rect())
	if isect.IsEmpty() {
		return Extent{}, false
	}
	return Extent{
		Xmin: isect.X.Lo,
		Ymin: isect.Y.Lo,
		Xmax: isect.X.Hi,
		Ymax: isect.Y.Hi,
	}, true
}

// Union returns the smallest extent covering both extents.
func (e Extent) Union(other Extent) Extent {
	u := e.rect().Union(other.rect())
	return Extent{Xmin: u.X.Lo, Ymin: u.Y.Lo, Xmax: u.X.Hi, Ymax: u.Y.Hi}
}

// Contains reports whether (x, y) lies inside the extent.
// Points on the lower/left edge are inside, points on the upper/right edge are not,
// so adjacent grids do not both claim their shared border.
func (e Extent) Contains(x, y float64) bool {
	return x >= e.Xmin && x < e.Xmax && y >= e.Ymin && y < e.Ymax
}

// ContainsExtent reports whether other lies fully inside the extent.
func (e Extent) ContainsExtent(other Extent) bool {
	return e.rect().Contains(other.rect())
}

// Snap rounds each bound to a multiple of cellSize. With outward=true bounds
// move away from the center (floor on min, ceil on max), with outward=false
// they contract. Snapping an already snapped extent returns the same extent.
func (e Extent) Snap(cellSize float64, outward bool) Extent {
	if outward {
		return Extent{
			Xmin: snapDown(e.Xmin, cellSize),
			Ymin: snapDown(e.Ymin, cellSize),
			Xmax: snapUp(e.Xmax, cellSize),
			Ymax: snapUp(e.Ymax, cellSize),
		}
	}
	return Extent{
		Xmin: snapUp(e.Xmin, cellSize),
		Ymin: snapUp(e.Ymin, cellSize),
		Xmax: snapDown(e.Xmax, cellSize),
		Ymax: snapDown(e.Ymax, cellSize),
	}
}

// Bounds that are already a cell multiple (within tolerance) must not move,
// otherwise repeated snapping would walk the extent outward one cell per call.
func snapDown(v, cellSize float64) float64 {
	q := v / cellSize
	if r := math.Round(q); math.Abs(q-r) < 1e-9 {
		return r * cellSize
	}
	return math.Floor(q) * cellSize
}

func snapUp(v, cellSize float64) float64 {
	q := v / cellSize
	if r := math.Round(q); math.Abs(q-r) < 1e-9 {
		return r * cellSize
	}
	return math.Ceil(q) * cellSize
}

// ToPointList returns the corner points of the extent as a closed ring,
// clockwise starting from the lower left corner.
func (e Extent) ToPointList() []Point {
	return []Point{
		{e.Xmin, e.Ymin},
		{e.Xmin, e.Ymax},
		{e.Xmax, e.Ymax},
		{e.Xmax, e.Ymin},
		{e.Xmin, e.Ymin},
	}
}

func (e Extent) String() string {
	return fmt.Sprintf("(%s, %s, %s, %s)",
		FormatNumber(e.Xmin), FormatNumber(e.Ymin),
		FormatNumber(e.Xmax), FormatNumber(e.Ymax))
}

// FormatNumber picks the shorter of the 3-decimal fixed representation and
// the shortest round-trip representation; the fixed form wins ties.
func FormatNumber(v float64) string {
	fixed := strconv.FormatFloat(v, 'f', 3, 64)
	def := strconv.FormatFloat(v, 'g', -1, 64)
	if len(fixed) <= len(def) {
		return fixed
	}
	return def
}
