package ipf

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"sif/timeseries"
)

// WriteFile emits the point file to path, points in insertion order. With
// writeAssociatedFiles set, every point with a loaded or loadable timeseries
// also gets its side file rewritten next to the output, creating parent
// directories as needed.
func (f *PointFile) WriteFile(path string, writeAssociatedFiles bool) error {
	points, err := f.Points()
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

	err = f.writeHeader(file, points)
	if closeErr := file.Close(); closeErr != nil {
		return errors.Join(err, closeErr)
	}
	if err != nil {
		return err
	}

	if writeAssociatedFiles {
		return f.writeAssociated(path, points)
	}
	return nil
}

func (f *PointFile) writeHeader(file *os.File, points []*Point) error {
	w := bufio.NewWriter(file)

	delimiter := f.Delimiter
	if delimiter == "" {
		delimiter = ","
	}

	fmt.Fprintf(w, "%d\n", len(points))
	fmt.Fprintf(w, "%d\n", f.ColumnCount())
	for _, name := range f.ColumnNames {
		fmt.Fprintln(w, name)
	}
	ext := f.AssocExt
	if ext == "" {
		ext = DefaultAssocExt
	}
	fmt.Fprintf(w, "%d,%s\n", f.AssocColumn, ext)

	fields := make([]string, f.ColumnCount())
	for _, p := range points {
		for i, field := range p.Fields {
			fields[i] = quoteField(field, delimiter)
		}
		fmt.Fprintln(w, strings.Join(fields, delimiter))
	}
	return w.Flush()
}

// quoteField protects fields containing the active delimiter, matching the
// quote stripping done on read.
func quoteField(field, delimiter string) string {
	if strings.Contains(field, delimiter) {
		return `"` + field + `"`
	}
	return field
}

// writeAssociated rewrites the side files using the same base name
// convention, relative to the written point file.
func (f *PointFile) writeAssociated(path string, points []*Point) error {
	for _, p := range points {
		if !f.HasAssociatedFile(p) {
			continue
		}
		series, err := f.LoadTimeseries(p)
		if err != nil {
			slog.Warn(fmt.Sprintf("Could not load timeseries for point (%v, %v): %v", p.X, p.Y, err))
			continue
		}

		name := strings.TrimSpace(p.Fields[f.AssocColumn-1])
		ext := f.AssocExt
		if ext == "" {
			ext = DefaultAssocExt
		}
		target := filepath.Join(filepath.Dir(path), name+"."+ext)
		if err := os.MkdirAll(filepath.Dir(target), os.ModePerm); err != nil {
			return err
		}
		if err := timeseries.WriteFile(series, target); err != nil {
			return err
		}
	}
	return nil
}
