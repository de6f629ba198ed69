package timeseries

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ReadFile parses an associated timeseries side file: a sample count on the
// first line, then one delimited (date, value...) row per sample.
// Individual values that fail to parse become NaN; a malformed count or date
// is a structural error and aborts the file.
func ReadFile(path string, parser ValueParser) (*Series, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	if !scanner.Scan() {
		return nil, fmt.Errorf("%s: missing sample count line", path)
	}
	count, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
	if err != nil || count < 0 {
		return nil, fmt.Errorf("%s: invalid sample count %q", path, scanner.Text())
	}

	series := New(nil)
	series.Samples = make([]Sample, 0, count)
	for i := 0; i < count; i++ {
		if !scanner.Scan() {
			return nil, fmt.Errorf("%s: expected %d samples, found %d", path, count, i)
		}
		fields := strings.Split(scanner.Text(), ",")

		stamp, err := ParseDate(fields[0])
		if err != nil {
			return nil, fmt.Errorf("%s: sample %d: %w", path, i+1, err)
		}

		values := make([]float64, len(fields)-1)
		for j, f := range fields[1:] {
			values[j] = parser.Parse(f)
		}

		if err := series.Append(Sample{Time: stamp, Values: values}); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	return series, scanner.Err()
}

// WriteFile writes the series in the side file format read by ReadFile.
func WriteFile(series *Series, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	err = write(series, file)
	if closeErr := file.Close(); closeErr != nil {
		return errors.Join(err, closeErr)
	}
	return err
}

func write(series *Series, file *os.File) error {
	// Sample count as header
	if _, err := fmt.Fprintf(file, "%d\n", series.Len()); err != nil {
		return err
	}

	writer := csv.NewWriter(file)
	for _, sample := range series.Samples {
		record := make([]string, 1+len(sample.Values))
		record[0] = FormatDate(sample.Time)
		for j, v := range sample.Values {
			record[j+1] = strconv.FormatFloat(v, 'f', -1, 64)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("could not write to %s: %w", file.Name(), err)
		}
	}

	writer.Flush()
	return writer.Error()
}
