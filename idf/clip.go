package idf

import (
	"math"

	"sif/gis"
)

// Clip returns a new grid covering the intersection of the given extent with
// the grid's own extent, snapped to the cell lattice. No overlap yields a
// valid empty grid (zero rows and columns), not an error.
func (g *GridFile) Clip(extent gis.Extent) (*GridFile, error) {
	// A window covering the whole grid clips to a plain copy
	if extent.ContainsExtent(g.Extent) {
		return g.copy()
	}

	isect, ok := g.Extent.Intersect(extent)
	if !ok || isect.IsEmpty() {
		return g.emptyLike(), nil
	}

	// Snap the intersection outward to the source lattice via cell indices,
	// counting rows from the top edge as the values are stored.
	colLo := clamp(floorIndex((isect.Xmin-g.Extent.Xmin)/g.CellsizeX), 0, g.NCols)
	colHi := clamp(ceilIndex((isect.Xmax-g.Extent.Xmin)/g.CellsizeX), colLo, g.NCols)
	rowLo := clamp(floorIndex((g.Extent.Ymax-isect.Ymax)/g.CellsizeY), 0, g.NRows)
	rowHi := clamp(ceilIndex((g.Extent.Ymax-isect.Ymin)/g.CellsizeY), rowLo, g.NRows)

	clipped := &GridFile{
		Extent: gis.Extent{
			Xmin: g.Extent.Xmin + float64(colLo)*g.CellsizeX,
			Xmax: g.Extent.Xmin + float64(colHi)*g.CellsizeX,
			Ymin: g.Extent.Ymax - float64(rowHi)*g.CellsizeY,
			Ymax: g.Extent.Ymax - float64(rowLo)*g.CellsizeY,
		},
		CellsizeX: g.CellsizeX,
		CellsizeY: g.CellsizeY,
		NoData:    g.NoData,
		NRows:     rowHi - rowLo,
		NCols:     colHi - colLo,
		HasTopBot: g.HasTopBot,
		Top:       g.Top,
		Bot:       g.Bot,
		state:     stateLoaded,
	}

	source, err := g.Values()
	if err != nil {
		return nil, err
	}
	clipped.values = make([]float32, clipped.NRows*clipped.NCols)
	for row := 0; row < clipped.NRows; row++ {
		srcOff := (rowLo+row)*g.NCols + colLo
		dstOff := row * clipped.NCols
		copy(clipped.values[dstOff:dstOff+clipped.NCols], source[srcOff:srcOff+clipped.NCols])
	}
	return clipped, nil
}

// copy returns a loaded deep copy of the grid without its backing file.
func (g *GridFile) copy() (*GridFile, error) {
	source, err := g.Values()
	if err != nil {
		return nil, err
	}
	return &GridFile{
		Extent:    g.Extent,
		CellsizeX: g.CellsizeX,
		CellsizeY: g.CellsizeY,
		NoData:    g.NoData,
		NRows:     g.NRows,
		NCols:     g.NCols,
		HasTopBot: g.HasTopBot,
		Top:       g.Top,
		Bot:       g.Bot,
		state:     stateLoaded,
		values:    append([]float32(nil), source...),
	}, nil
}

// emptyLike returns a valid zero-cell grid carrying the source metadata.
func (g *GridFile) emptyLike() *GridFile {
	return &GridFile{
		CellsizeX: g.CellsizeX,
		CellsizeY: g.CellsizeY,
		NoData:    g.NoData,
		HasTopBot: g.HasTopBot,
		Top:       g.Top,
		Bot:       g.Bot,
		state:     stateLoaded,
		values:    []float32{},
	}
}

// floorIndex and ceilIndex tolerate the float noise of bounds that already
// sit on a cell edge, so clipping to the grid's own extent is an identity.
func floorIndex(q float64) int {
	if r := math.Round(q); math.Abs(q-r) < 1e-9 {
		return int(r)
	}
	return int(math.Floor(q))
}

func ceilIndex(q float64) int {
	if r := math.Round(q); math.Abs(q-r) < 1e-9 {
		return int(r)
	}
	return int(math.Ceil(q))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
