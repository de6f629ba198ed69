package idf

import (
	"bufio"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
)

// WriteFile serializes the grid to path. Min/max statistics are recomputed
// from the in-memory data, so a file read and written back is byte-identical
// to its source except for stale cached statistics, which is intentional.
func (g *GridFile) WriteFile(path string) error {
	if err := g.EnsureLoaded(); err != nil {
		return err
	}
	dmin, dmax, err := g.MinMax()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	err = g.write(file, dmin, dmax)
	if closeErr := file.Close(); closeErr != nil {
		return errors.Join(err, closeErr)
	}
	return err
}

func (g *GridFile) write(file *os.File, dmin, dmax float32) error {
	w := bufio.NewWriter(file)

	var itb byte
	if g.HasTopBot {
		itb = 1
	}

	fixed := struct {
		RecordID     int32
		NCols, NRows int32
		Xmin, Xmax   float32
		Ymin, Ymax   float32
		Dmin, Dmax   float32
		NoData       float32
		Ieq, Itb     byte
		Ivf, Itp     byte
	}{
		RecordID: recordID,
		NCols:    int32(g.NCols),
		NRows:    int32(g.NRows),
		Xmin:     float32(g.Extent.Xmin),
		Xmax:     float32(g.Extent.Xmax),
		Ymin:     float32(g.Extent.Ymin),
		Ymax:     float32(g.Extent.Ymax),
		Dmin:     dmin,
		Dmax:     dmax,
		NoData:   g.NoData,
		Itb:      itb,
	}
	if err := binary.Write(w, binary.LittleEndian, &fixed); err != nil {
		return err
	}

	cellsize := struct{ Dx, Dy float32 }{float32(g.CellsizeX), float32(g.CellsizeY)}
	if err := binary.Write(w, binary.LittleEndian, &cellsize); err != nil {
		return err
	}

	if g.HasTopBot {
		tb := struct{ Top, Bot float32 }{g.Top, g.Bot}
		if err := binary.Write(w, binary.LittleEndian, &tb); err != nil {
			return err
		}
	}

	if err := binary.Write(w, binary.LittleEndian, g.values); err != nil {
		return err
	}
	return w.Flush()
}
