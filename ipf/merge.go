package ipf

import "fmt"

// ErrColumnMismatch is returned by Merge when the source layout differs from
// the target; batch tools downgrade it to a warning and skip the source.
type ErrColumnMismatch struct {
	Path            string
	Columns, Wanted int
}

func (e *ErrColumnMismatch) Error() string {
	return fmt.Sprintf("%s: %d columns, merge target has %d", e.Path, e.Columns, e.Wanted)
}

// Merge appends all points of source to target, preserving their order.
// The files must share the same column count; a mismatch leaves the target
// untouched.
func Merge(target, source *PointFile) error {
	if source.ColumnCount() != target.ColumnCount() {
		return &ErrColumnMismatch{
			Path:    source.path,
			Columns: source.ColumnCount(),
			Wanted:  target.ColumnCount(),
		}
	}

	points, err := source.Points()
	if err != nil {
		return err
	}

	target.mu.Lock()
	defer target.mu.Unlock()
	// A lazily opened target must load its own rows before taking on the
	// source's, otherwise the next reload from disk would drop them
	if err := target.ensureLoadedLocked(); err != nil {
		return err
	}
	target.points = append(target.points, points...)
	return nil
}
