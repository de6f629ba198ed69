package idf

import (
	"fmt"
	"math"

	"sif/gis"
)

// AlignPolicy controls which extent elementwise combination runs over when
// the operand extents differ.
type AlignPolicy int

const (
	AlignIntersect AlignPolicy = iota
	AlignUnion
)

// Combine applies op cell by cell over the aligned extent of a and b.
// Both grids must share the same cell size and sit on the same cell lattice.
// NoData propagates: if either operand cell is NoData (or lies outside that
// operand's extent), the result cell is NoData.
func Combine(a, b *GridFile, policy AlignPolicy, op func(va, vb float32) float32) (*GridFile, error) {
	if !sameCellsize(a, b) {
		return nil, fmt.Errorf("cell size mismatch: (%v, %v) vs (%v, %v)",
			a.CellsizeX, a.CellsizeY, b.CellsizeX, b.CellsizeY)
	}
	if !sameLattice(a, b) {
		return nil, fmt.Errorf("grids are not aligned to the same cell lattice")
	}

	var extent gis.Extent
	switch policy {
	case AlignUnion:
		extent = a.Extent.Union(b.Extent)
	default:
		isect, ok := a.Extent.Intersect(b.Extent)
		if !ok || isect.IsEmpty() {
			return a.emptyLike(), nil
		}
		extent = isect
	}

	// Operands share a lattice, so the aligned extent is a whole number of cells
	result, err := NewGrid(extent, a.CellsizeX, a.CellsizeY, a.NoData)
	if err != nil {
		return nil, err
	}

	if err := a.EnsureLoaded(); err != nil {
		return nil, err
	}
	if err := b.EnsureLoaded(); err != nil {
		return nil, err
	}

	for row := 0; row < result.NRows; row++ {
		y := result.Extent.Ymax - (float64(row)+0.5)*result.CellsizeY
		for col := 0; col < result.NCols; col++ {
			x := result.Extent.Xmin + (float64(col)+0.5)*result.CellsizeX

			va, err := a.GetValue(x, y)
			if err != nil {
				return nil, err
			}
			vb, err := b.GetValue(x, y)
			if err != nil {
				return nil, err
			}
			if isNoData(va, a.NoData) || isNoData(vb, b.NoData) {
				continue // result cell stays NoData
			}
			result.values[row*result.NCols+col] = op(va, vb)
		}
	}
	return result, nil
}

// Add combines two grids elementwise over their overlapping extent.
func Add(a, b *GridFile) (*GridFile, error) {
	return Combine(a, b, AlignIntersect, func(va, vb float32) float32 { return va + vb })
}

func isNoData(v, noData float32) bool {
	return v == noData || math.IsNaN(float64(v))
}

func sameCellsize(a, b *GridFile) bool {
	return math.Abs(a.CellsizeX-b.CellsizeX) < 1e-9 && math.Abs(a.CellsizeY-b.CellsizeY) < 1e-9
}

// sameLattice checks that the origins differ by a whole number of cells.
func sameLattice(a, b *GridFile) bool {
	qx := (b.Extent.Xmin - a.Extent.Xmin) / a.CellsizeX
	qy := (b.Extent.Ymin - a.Extent.Ymin) / a.CellsizeY
	return math.Abs(qx-math.Round(qx)) < 1e-9 && math.Abs(qy-math.Round(qy)) < 1e-9
}
