package ipf

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"sif/fileformats"
)

// Delimiter candidates, tried in order; the first one occurring in the
// associated-file indicator line or the first data row wins for the whole file.
var delimiters = []string{",", "\t", ";"}

// ReadFile opens an IPF file. The text header (point count, column names,
// associated file indicator) is always parsed; with lazy set, the data rows
// are parsed on first access. Associated timeseries files are never opened
// here, see PointFile.LoadTimeseries.
func ReadFile(path string, lazy bool) (*PointFile, error) {
	f := &PointFile{path: path, state: stateUnloaded}
	if err := f.parse(lazy); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *PointFile) ensureLoadedLocked() error {
	if f.state == stateLoaded {
		return nil
	}
	if f.path == "" {
		return nil // in-memory file, nothing to reload
	}
	return f.parse(false)
}

// parse reads the header, and unless headerOnly, the data rows as well.
func (f *PointFile) parse(headerOnly bool) error {
	file, err := os.Open(f.path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	next := func() (string, bool) {
		if !scanner.Scan() {
			return "", false
		}
		return strings.TrimSpace(scanner.Text()), true
	}

	line, ok := next()
	if !ok {
		return fileformats.Errorf(f.path, "missing point count line")
	}
	pointCount, err := strconv.Atoi(line)
	if err != nil || pointCount < 0 {
		return fileformats.Errorf(f.path, "invalid point count %q", line)
	}

	line, ok = next()
	if !ok {
		return fileformats.Errorf(f.path, "missing column count line")
	}
	columnCount, err := strconv.Atoi(line)
	if err != nil || columnCount < 2 {
		return fileformats.Errorf(f.path, "invalid column count %q (need at least X and Y)", line)
	}

	names := make([]string, columnCount)
	for i := 0; i < columnCount; i++ {
		if names[i], ok = next(); !ok {
			return fileformats.Errorf(f.path, "expected %d column names, found %d", columnCount, i)
		}
		names[i] = unquote(names[i])
	}

	line, ok = next()
	if !ok {
		return fileformats.Errorf(f.path, "missing associated file indicator line")
	}
	assocColumn, assocExt, err := parseAssocLine(line)
	if err != nil {
		return fileformats.Errorf(f.path, "%v", err)
	}
	if assocColumn > columnCount {
		return fileformats.Errorf(f.path, "associated file column %d out of range (%d columns)",
			assocColumn, columnCount)
	}

	f.pointCount = pointCount
	f.ColumnNames = names
	f.AssocColumn = assocColumn
	f.AssocExt = assocExt

	if headerOnly {
		return scanner.Err()
	}

	points := make([]*Point, 0, pointCount)
	for i := 0; i < pointCount; i++ {
		line, ok = next()
		if !ok {
			return fileformats.Errorf(f.path, "expected %d points, found %d", pointCount, i)
		}
		if f.Delimiter == "" {
			f.Delimiter = detectDelimiter(line)
		}

		fields := splitFields(line, f.Delimiter)
		if len(fields) != columnCount {
			return fileformats.Errorf(f.path, "point %d has %d fields, expected %d", i+1, len(fields), columnCount)
		}
		for j := range fields {
			fields[j] = unquote(fields[j])
		}

		// Coordinates that fail to parse degrade to NaN like any other value
		points = append(points, &Point{
			X:      f.Parser.Parse(fields[0]),
			Y:      f.Parser.Parse(fields[1]),
			Fields: fields,
		})
	}

	f.points = points
	f.state = stateLoaded
	return scanner.Err()
}

// The indicator line is "<1-based column index>,<extension>"; 0 means no
// associated files and the extension may be omitted.
func parseAssocLine(line string) (int, string, error) {
	fields := strings.SplitN(line, detectDelimiter(line), 2)

	column, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil || column < 0 {
		return 0, "", fmt.Errorf("invalid associated file indicator %q", line)
	}

	ext := DefaultAssocExt
	if len(fields) == 2 {
		if e := unquote(fields[1]); e != "" {
			ext = strings.TrimPrefix(e, ".")
		}
	}
	return column, ext, nil
}

func detectDelimiter(line string) string {
	best := ""
	bestPos := len(line)
	for _, d := range delimiters {
		if pos := strings.Index(line, d); pos >= 0 && pos < bestPos {
			best, bestPos = d, pos
		}
	}
	if best == "" {
		return ","
	}
	return best
}

// splitFields splits a data row on the delimiter, keeping quoted fields
// intact so a field may contain the delimiter itself.
func splitFields(line, delimiter string) []string {
	var fields []string
	var b strings.Builder
	var quote byte
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
			b.WriteByte(c)
		case c == '"' || c == '\'':
			quote = c
			b.WriteByte(c)
		case strings.HasPrefix(line[i:], delimiter):
			fields = append(fields, b.String())
			b.Reset()
			i += len(delimiter) - 1
		default:
			b.WriteByte(c)
		}
	}
	return append(fields, b.String())
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	return strings.Trim(s, `"'`)
}
