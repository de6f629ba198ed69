package idf

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"sif/fileformats"
	"sif/gis"
)

// Record length identifier expected in the first header field
const recordID int32 = 1271

// Byte length of the header up to and including the cell sizes;
// top/bottom values add another 8 bytes when the itb flag is set.
const fixedHeaderSize int64 = 52

type header struct {
	ncols, nrows int
	extent       gis.Extent
	dmin, dmax   float32
	noData       float32
	ieq, itb     byte
	dx, dy       float64
	hasTopBot    bool
	top, bot     float32
	dataOffset   int64
}

// ReadFile opens an IDF file. The header is always parsed eagerly; with
// lazy set, the cell values are read on first access instead of here.
// The header is validated against the actual file length before any cell
// data is touched, so truncated files fail up front.
func ReadFile(path string, lazy bool) (*GridFile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	h, err := parseHeader(path, file)
	if err != nil {
		return nil, err
	}

	g := &GridFile{
		path:      path,
		Extent:    h.extent,
		CellsizeX: h.dx,
		CellsizeY: h.dy,
		NoData:    h.noData,
		NRows:     h.nrows,
		NCols:     h.ncols,
		HasTopBot: h.hasTopBot,
		Top:       h.top,
		Bot:       h.bot,
		min:       h.dmin,
		max:       h.dmax,
		hasStats:  true,
		state:     stateUnloaded,
	}

	if lazy {
		return g, nil
	}
	if err := g.EnsureLoaded(); err != nil {
		return nil, err
	}
	return g, nil
}

func parseHeader(path string, file *os.File) (*header, error) {
	r := bufio.NewReader(file)

	var fixed struct {
		RecordID     int32
		NCols, NRows int32
		Xmin, Xmax   float32
		Ymin, Ymax   float32
		Dmin, Dmax   float32
		NoData       float32
		Ieq, Itb     byte
		Ivf, Itp     byte
	}
	if err := binary.Read(r, binary.LittleEndian, &fixed); err != nil {
		return nil, fileformats.Errorf(path, "could not read header: %v", err)
	}

	if fixed.RecordID != recordID {
		return nil, fileformats.Errorf(path, "unexpected record identifier %d", fixed.RecordID)
	}
	if fixed.NCols < 0 || fixed.NRows < 0 {
		return nil, fileformats.Errorf(path, "negative grid dimensions %dx%d", fixed.NRows, fixed.NCols)
	}
	if fixed.Ieq != 0 {
		// Non-equidistant grids store per-column/per-row cell size arrays;
		// the SIF tools only operate on equidistant grids.
		return nil, fileformats.Errorf(path, "non-equidistant grids are not supported")
	}

	h := &header{
		ncols:  int(fixed.NCols),
		nrows:  int(fixed.NRows),
		dmin:   fixed.Dmin,
		dmax:   fixed.Dmax,
		noData: fixed.NoData,
		ieq:    fixed.Ieq,
		itb:    fixed.Itb,
	}

	extent, err := gis.NewExtent(
		float64(fixed.Xmin), float64(fixed.Ymin),
		float64(fixed.Xmax), float64(fixed.Ymax))
	if err != nil {
		return nil, fileformats.Errorf(path, "%v", err)
	}
	h.extent = extent

	var cellsize struct{ Dx, Dy float32 }
	if err := binary.Read(r, binary.LittleEndian, &cellsize); err != nil {
		return nil, fileformats.Errorf(path, "could not read cell sizes: %v", err)
	}
	h.dx = float64(cellsize.Dx)
	h.dy = float64(cellsize.Dy)
	if h.dy == 0 {
		// Older writers store a single uniform cell size
		h.dy = h.dx
	}
	if h.dx <= 0 || h.dy <= 0 {
		return nil, fileformats.Errorf(path, "invalid cell size (%v, %v)", h.dx, h.dy)
	}

	h.dataOffset = fixedHeaderSize
	if fixed.Itb == 1 {
		var tb struct{ Top, Bot float32 }
		if err := binary.Read(r, binary.LittleEndian, &tb); err != nil {
			return nil, fileformats.Errorf(path, "could not read top/bottom values: %v", err)
		}
		h.hasTopBot = true
		h.top, h.bot = tb.Top, tb.Bot
		h.dataOffset += 8
	}

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}
	expected := h.dataOffset + 4*int64(h.ncols)*int64(h.nrows)
	if stat.Size() != expected {
		return nil, fileformats.Errorf(path, "file length %d does not match header (expected %d bytes for %dx%d cells)",
			stat.Size(), expected, h.nrows, h.ncols)
	}

	return h, nil
}

// readValues performs the full row-major cell read. It re-parses the header
// so released grids can be reloaded without holding a file handle open.
func readValues(path string, nrows, ncols int) ([]float32, error) {
	if path == "" {
		return nil, fmt.Errorf("grid has no backing file to reload from")
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	h, err := parseHeader(path, file)
	if err != nil {
		return nil, err
	}
	if h.nrows != nrows || h.ncols != ncols {
		return nil, fileformats.Errorf(path, "grid dimensions changed on disk (%dx%d, expected %dx%d)",
			h.nrows, h.ncols, nrows, ncols)
	}

	if _, err := file.Seek(h.dataOffset, io.SeekStart); err != nil {
		return nil, err
	}
	values := make([]float32, nrows*ncols)
	if err := binary.Read(bufio.NewReader(file), binary.LittleEndian, values); err != nil {
		return nil, fileformats.Errorf(path, "could not read cell values: %v", err)
	}
	return values, nil
}
