// Package idf reads and writes iMOD Data Files: binary, little-endian,
// regular-grid rasters of single precision floats.
package idf

import (
	"fmt"
	"math"
	"runtime"
	"sync"

	"sif/gis"
)

type loadState uint8

const (
	stateUnloaded loadState = iota
	stateLoaded
)

// GridFile is a regular 2-D raster. Values are stored row-major with the top
// row first. The value array may be unloaded (lazy read or released); every
// access goes through ensureLoaded so the unloaded-to-loaded transition
// happens at most once per load trigger.
type GridFile struct {
	path string

	Extent    gis.Extent
	CellsizeX float64
	CellsizeY float64
	NoData    float32
	NRows     int
	NCols     int

	// Optional top/bottom values (itb flag)
	HasTopBot bool
	Top       float32
	Bot       float32

	// Cached statistics from the header; recomputed on write
	min      float32
	max      float32
	hasStats bool

	mu     sync.Mutex
	state  loadState
	values []float32
}

// NewGrid creates an in-memory grid with all cells set to NoData.
// The extent must be a whole number of cells in both directions.
func NewGrid(extent gis.Extent, cellsizeX, cellsizeY float64, noData float32) (*GridFile, error) {
	if cellsizeX <= 0 || cellsizeY <= 0 {
		return nil, fmt.Errorf("invalid cell size (%v, %v)", cellsizeX, cellsizeY)
	}
	ncols := int(math.Round(extent.Width() / cellsizeX))
	nrows := int(math.Round(extent.Height() / cellsizeY))

	g := &GridFile{
		Extent:    extent,
		CellsizeX: cellsizeX,
		CellsizeY: cellsizeY,
		NoData:    noData,
		NRows:     nrows,
		NCols:     ncols,
		state:     stateLoaded,
		values:    make([]float32, nrows*ncols),
	}
	for i := range g.values {
		g.values[i] = noData
	}
	return g, nil
}

func (g *GridFile) FilePath() string { return g.path }

// IsLoaded reports whether the value array is currently in memory.
func (g *GridFile) IsLoaded() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state == stateLoaded
}

// EnsureLoaded performs the deferred cell read of a lazily opened or
// released grid. Calling it on a loaded grid is a no-op.
func (g *GridFile) EnsureLoaded() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ensureLoadedLocked()
}

func (g *GridFile) ensureLoadedLocked() error {
	if g.state == stateLoaded {
		return nil
	}
	values, err := readValues(g.path, g.NRows, g.NCols)
	if err != nil {
		return err
	}
	g.values = values
	g.state = stateLoaded
	return nil
}

// Values returns the backing array, loading it first if needed.
func (g *GridFile) Values() ([]float32, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.ensureLoadedLocked(); err != nil {
		return nil, err
	}
	return g.values, nil
}

// Value returns the cell at (row, col) without bounds checking the extent.
func (g *GridFile) Value(row, col int) (float32, error) {
	values, err := g.Values()
	if err != nil {
		return 0, err
	}
	return values[row*g.NCols+col], nil
}

// SetValue overwrites the cell at (row, col).
func (g *GridFile) SetValue(row, col int, v float32) error {
	values, err := g.Values()
	if err != nil {
		return err
	}
	values[row*g.NCols+col] = v
	return nil
}

// GetValue maps a world coordinate to its cell value. Coordinates outside
// the extent yield NoData.
func (g *GridFile) GetValue(x, y float64) (float32, error) {
	if !g.Extent.Contains(x, y) {
		return g.NoData, nil
	}
	col := int(math.Floor((x - g.Extent.Xmin) / g.CellsizeX))
	row := int(math.Floor((g.Extent.Ymax - y) / g.CellsizeY))
	// The lower edge is inside the extent but floors to one row past the end
	if row == g.NRows {
		row = g.NRows - 1
	}
	if col == g.NCols {
		col = g.NCols - 1
	}
	if col < 0 || col >= g.NCols || row < 0 || row >= g.NRows {
		return g.NoData, nil
	}
	return g.Value(row, col)
}

// ReleaseMemory drops the value array while keeping the header metadata.
// The next access re-reads the file from the original path. Releasing an
// already released grid is a no-op.
func (g *GridFile) ReleaseMemory(forceGC bool) {
	g.mu.Lock()
	g.values = nil
	g.state = stateUnloaded
	g.mu.Unlock()

	if forceGC {
		runtime.GC()
	}
}

// MinMax returns the smallest and largest non-NoData values, recomputing
// from the loaded data when available and falling back to the header cache.
func (g *GridFile) MinMax() (float32, float32, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != stateLoaded {
		if g.hasStats {
			return g.min, g.max, nil
		}
		if err := g.ensureLoadedLocked(); err != nil {
			return 0, 0, err
		}
	}

	lo := float32(math.Inf(1))
	hi := float32(math.Inf(-1))
	found := false
	for _, v := range g.values {
		if v == g.NoData || math.IsNaN(float64(v)) {
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
		found = true
	}
	if !found {
		return g.NoData, g.NoData, nil
	}
	return lo, hi, nil
}
