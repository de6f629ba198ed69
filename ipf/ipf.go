// Package ipf reads and writes iMOD Point Files: delimited text files of
// points with an optional associated timeseries side file per point.
package ipf

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"sif/timeseries"
)

// DefaultAssocExt is the associated file extension used when the header
// does not name one.
const DefaultAssocExt = "txt"

type loadState uint8

const (
	stateUnloaded loadState = iota
	stateLoaded
)

// PointFile is an ordered collection of points with a fixed column layout.
// Data rows can be loaded lazily; associated timeseries are always loaded
// on demand, one point at a time.
type PointFile struct {
	path string

	ColumnNames []string
	// 1-based index of the column naming the associated file, 0 for none
	AssocColumn int
	AssocExt    string
	Delimiter   string
	Parser      timeseries.ValueParser

	mu         sync.Mutex
	state      loadState
	pointCount int
	points     []*Point
}

// Point is one data row. The first two fields are the X and Y coordinate.
type Point struct {
	X, Y   float64
	Fields []string

	mu     sync.Mutex
	loaded bool
	series *timeseries.Series
}

// New creates an empty in-memory point file with the given column layout.
func New(columnNames []string) *PointFile {
	return &PointFile{
		ColumnNames: columnNames,
		AssocExt:    DefaultAssocExt,
		Delimiter:   ",",
		state:       stateLoaded,
	}
}

func (f *PointFile) FilePath() string { return f.path }

// ColumnCount returns the number of columns per data row.
func (f *PointFile) ColumnCount() int { return len(f.ColumnNames) }

// ColumnIndex finds a column by name, case-insensitively.
func (f *PointFile) ColumnIndex(name string) (int, bool) {
	for i, c := range f.ColumnNames {
		if strings.EqualFold(c, name) {
			return i, true
		}
	}
	return 0, false
}

// Points returns the data rows, loading them first if the file was opened
// lazily or released.
func (f *PointFile) Points() ([]*Point, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.ensureLoadedLocked(); err != nil {
		return nil, err
	}
	return f.points, nil
}

// PointCount is known from the header even before the rows are loaded.
func (f *PointFile) PointCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == stateLoaded {
		return len(f.points)
	}
	return f.pointCount
}

// AddPoint appends a point. The row must match the file's column layout.
func (f *PointFile) AddPoint(p *Point) error {
	if len(p.Fields) != f.ColumnCount() {
		return fmt.Errorf("point has %d fields, file has %d columns", len(p.Fields), f.ColumnCount())
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	// Appending to an unloaded file must load it first, otherwise the next
	// reload from disk would overwrite the appended point
	if err := f.ensureLoadedLocked(); err != nil {
		return err
	}
	f.points = append(f.points, p)
	return nil
}

// EnsureLoaded parses the deferred data rows of a lazily opened file.
// Repeated calls are no-ops.
func (f *PointFile) EnsureLoaded() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ensureLoadedLocked()
}

// ReleaseMemory drops the data rows and any cached timeseries while keeping
// the header metadata. The next access re-reads the original file.
func (f *PointFile) ReleaseMemory(forceGC bool) {
	f.mu.Lock()
	if f.path != "" && f.state == stateLoaded {
		f.pointCount = len(f.points)
		f.points = nil
		f.state = stateUnloaded
	}
	f.mu.Unlock()

	if forceGC {
		runtime.GC()
	}
}

// HasAssociatedFile reports whether the point names an associated file.
func (f *PointFile) HasAssociatedFile(p *Point) bool {
	if f.AssocColumn <= 0 || f.AssocColumn > len(p.Fields) {
		return false
	}
	return strings.TrimSpace(p.Fields[f.AssocColumn-1]) != ""
}

// AssociatedPath derives the side file path from the designated column value
// and the file level extension, relative to the point file's directory.
func (f *PointFile) AssociatedPath(p *Point) string {
	name := strings.TrimSpace(p.Fields[f.AssocColumn-1])
	ext := f.AssocExt
	if ext == "" {
		ext = DefaultAssocExt
	}
	return filepath.Join(filepath.Dir(f.path), name+"."+ext)
}

// LoadTimeseries reads the point's associated timeseries, caching the result
// so a second call does not touch the filesystem again. Failed loads are not
// cached.
func (f *PointFile) LoadTimeseries(p *Point) (*timeseries.Series, error) {
	if !f.HasAssociatedFile(p) {
		return nil, fmt.Errorf("point (%v, %v) has no associated file", p.X, p.Y)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loaded {
		return p.series, nil
	}

	series, err := timeseries.ReadFile(f.AssociatedPath(p), f.Parser)
	if err != nil {
		return nil, err
	}
	p.series = series
	p.loaded = true
	return series, nil
}

// SetTimeseries attaches an in-memory series to the point, marking it cached.
func (p *Point) SetTimeseries(s *timeseries.Series) {
	p.mu.Lock()
	p.series = s
	p.loaded = true
	p.mu.Unlock()
}

// Value returns the raw field of the named column.
func (f *PointFile) Value(p *Point, column string) (string, bool) {
	i, ok := f.ColumnIndex(column)
	if !ok || i >= len(p.Fields) {
		return "", false
	}
	return p.Fields[i], true
}

// FloatValue parses the named column with the file's value parser;
// unparseable content comes back as NaN.
func (f *PointFile) FloatValue(p *Point, column string) (float64, bool) {
	raw, ok := f.Value(p, column)
	if !ok {
		return 0, false
	}
	return f.Parser.Parse(raw), true
}
