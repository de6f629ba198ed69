package idf

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"sif/fileformats"
	"sif/gis"
)

const noData float32 = -9999

// newTestGrid builds a 2x2 grid with cell size 25 and the given values
// (row-major, top row first).
func newTestGrid(t *testing.T, values []float32) *GridFile {
	t.Helper()
	g, err := NewGrid(gis.Extent{Xmin: 0, Ymin: 0, Xmax: 50, Ymax: 50}, 25, 25, noData)
	if err != nil {
		t.Fatal(err)
	}
	copy(g.values, values)
	return g
}

func writeTestGrid(t *testing.T, g *GridFile) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "grid.idf")
	if err := g.WriteFile(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRoundTrip(t *testing.T) {
	g := newTestGrid(t, []float32{1, 2, 3, noData})
	path := writeTestGrid(t, g)

	got, err := ReadFile(path, false)
	if err != nil {
		t.Fatal(err)
	}

	if got.NRows != 2 || got.NCols != 2 {
		t.Fatalf("got %dx%d grid, wanted 2x2", got.NRows, got.NCols)
	}
	if got.Extent != g.Extent {
		t.Errorf("got extent %v, wanted %v", got.Extent, g.Extent)
	}
	if got.CellsizeX != 25 || got.CellsizeY != 25 {
		t.Errorf("got cell size (%v, %v), wanted (25, 25)", got.CellsizeX, got.CellsizeY)
	}
	if got.NoData != noData {
		t.Errorf("got NoData %v, wanted %v", got.NoData, noData)
	}

	values, err := got.Values()
	if err != nil {
		t.Fatal(err)
	}
	for i, want := range []float32{1, 2, 3, noData} {
		if values[i] != want {
			t.Errorf("cell %d: got %v, wanted %v", i, values[i], want)
		}
	}

	// Written statistics must match the actual data
	lo, hi, err := got.MinMax()
	if err != nil {
		t.Fatal(err)
	}
	if lo != 1 || hi != 3 {
		t.Errorf("got min/max (%v, %v), wanted (1, 3)", lo, hi)
	}

	// Reading a file and writing it back must reproduce the source bytes
	rewritten := filepath.Join(t.TempDir(), "rewritten.idf")
	if err := got.WriteFile(rewritten); err != nil {
		t.Fatal(err)
	}
	original, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	copied, err := os.ReadFile(rewritten)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(original, copied) {
		t.Error("rewritten file is not byte-identical to its source")
	}
}

func TestLazyLoadEquivalence(t *testing.T) {
	path := writeTestGrid(t, newTestGrid(t, []float32{1, 2, 3, noData}))

	eager, err := ReadFile(path, false)
	if err != nil {
		t.Fatal(err)
	}
	lazy, err := ReadFile(path, true)
	if err != nil {
		t.Fatal(err)
	}

	if lazy.IsLoaded() {
		t.Fatal("lazy grid should start unloaded")
	}
	if err := lazy.EnsureLoaded(); err != nil {
		t.Fatal(err)
	}
	if err := lazy.EnsureLoaded(); err != nil { // idempotent
		t.Fatal(err)
	}

	a, _ := eager.Values()
	b, _ := lazy.Values()
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("cell %d: lazy %v != eager %v", i, b[i], a[i])
		}
	}
}

func TestReleaseAndReload(t *testing.T) {
	path := writeTestGrid(t, newTestGrid(t, []float32{1, 2, 3, noData}))

	g, err := ReadFile(path, false)
	if err != nil {
		t.Fatal(err)
	}

	g.ReleaseMemory(false)
	g.ReleaseMemory(false) // safe on an already released grid
	if g.IsLoaded() {
		t.Fatal("grid should be unloaded after release")
	}
	if g.NRows != 2 || g.Extent.Xmax != 50 {
		t.Error("header metadata should survive release")
	}

	v, err := g.GetValue(30, 40) // row 0, col 1
	if err != nil {
		t.Fatal(err)
	}
	if v != 2 {
		t.Errorf("got %v after reload, wanted 2", v)
	}
}

func TestReleaseWithoutBackingFile(t *testing.T) {
	g := newTestGrid(t, []float32{1, 2, 3, 4})
	g.ReleaseMemory(false)

	if _, err := g.Values(); err == nil {
		t.Error("expected error reloading a grid without a backing file")
	}
}

func TestTruncatedFile(t *testing.T) {
	path := writeTestGrid(t, newTestGrid(t, []float32{1, 2, 3, noData}))

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, raw[:len(raw)-4], 0o644); err != nil {
		t.Fatal(err)
	}

	_, err = ReadFile(path, false)
	if !errors.Is(err, fileformats.ErrFormat) {
		t.Errorf("got %v, wanted a format error", err)
	}

	// Lazy open must also fail up front: the length check precedes cell reads
	_, err = ReadFile(path, true)
	if !errors.Is(err, fileformats.ErrFormat) {
		t.Errorf("lazy open: got %v, wanted a format error", err)
	}
}

func TestGetValue(t *testing.T) {
	g := newTestGrid(t, []float32{1, 2, 3, noData})

	type testCase struct {
		tag      string
		x, y     float64
		expected float32
	}

	cases := []testCase{
		{"top left cell", 10, 40, 1},
		{"top right cell", 40, 40, 2},
		{"bottom left cell", 10, 10, 3},
		{"bottom right is nodata", 40, 10, noData},
		{"outside extent", -10, 10, noData},
		{"on lower left corner", 0, 0, 3},
	}

	for _, c := range cases {
		got, err := g.GetValue(c.x, c.y)
		if err != nil {
			t.Fatalf("%s: %v", c.tag, err)
		}
		if got != c.expected {
			t.Errorf("%s: got %v, wanted %v", c.tag, got, c.expected)
		}
	}
}

func TestClipIdempotence(t *testing.T) {
	g := newTestGrid(t, []float32{1, 2, 3, noData})

	clipped, err := g.Clip(g.Extent)
	if err != nil {
		t.Fatal(err)
	}
	if clipped.Extent != g.Extent || clipped.NRows != g.NRows || clipped.NCols != g.NCols {
		t.Fatalf("clip to own extent changed geometry: %v %dx%d", clipped.Extent, clipped.NRows, clipped.NCols)
	}
	for i := range g.values {
		if clipped.values[i] != g.values[i] {
			t.Errorf("cell %d: got %v, wanted %v", i, clipped.values[i], g.values[i])
		}
	}
}

func TestClipPartial(t *testing.T) {
	g := newTestGrid(t, []float32{1, 2, 3, noData})

	// Unsnapped window over the top-left cell; snaps outward to the lattice
	clipped, err := g.Clip(gis.Extent{Xmin: 5, Ymin: 30, Xmax: 20, Ymax: 45})
	if err != nil {
		t.Fatal(err)
	}
	if clipped.NRows != 1 || clipped.NCols != 1 {
		t.Fatalf("got %dx%d, wanted 1x1", clipped.NRows, clipped.NCols)
	}
	expected := gis.Extent{Xmin: 0, Ymin: 25, Xmax: 25, Ymax: 50}
	if clipped.Extent != expected {
		t.Errorf("got extent %v, wanted %v", clipped.Extent, expected)
	}
	if clipped.values[0] != 1 {
		t.Errorf("got %v, wanted 1", clipped.values[0])
	}
}

func TestClipContainingWindow(t *testing.T) {
	g := newTestGrid(t, []float32{1, 2, 3, noData})

	clipped, err := g.Clip(gis.Extent{Xmin: -100, Ymin: -100, Xmax: 1000, Ymax: 1000})
	if err != nil {
		t.Fatal(err)
	}
	if clipped.Extent != g.Extent || clipped.NRows != 2 || clipped.NCols != 2 {
		t.Fatalf("window covering the grid should clip to the grid itself, got %v %dx%d",
			clipped.Extent, clipped.NRows, clipped.NCols)
	}
	for i := range g.values {
		if clipped.values[i] != g.values[i] {
			t.Errorf("cell %d: got %v, wanted %v", i, clipped.values[i], g.values[i])
		}
	}
}

func TestClipNoOverlap(t *testing.T) {
	g := newTestGrid(t, []float32{1, 2, 3, noData})

	clipped, err := g.Clip(gis.Extent{Xmin: 1000, Ymin: 1000, Xmax: 2000, Ymax: 2000})
	if err != nil {
		t.Fatal(err)
	}
	if clipped.NRows != 0 || clipped.NCols != 0 {
		t.Errorf("got %dx%d, wanted an empty grid", clipped.NRows, clipped.NCols)
	}
	if clipped.NoData != noData || clipped.CellsizeX != 25 {
		t.Error("empty grid should keep source metadata")
	}
}

func TestAddPropagatesNoData(t *testing.T) {
	a := newTestGrid(t, []float32{1, 2, 3, noData})
	b := newTestGrid(t, []float32{10, 10, 10, 10})

	result, err := Add(a, b)
	if err != nil {
		t.Fatal(err)
	}

	expected := []float32{11, 12, 13, noData}
	for i, want := range expected {
		if result.values[i] != want {
			t.Errorf("cell %d: got %v, wanted %v", i, result.values[i], want)
		}
	}
}

func TestAddIdentity(t *testing.T) {
	a := newTestGrid(t, []float32{1, 2, 3, 4})
	b := newTestGrid(t, []float32{0.5, 1.5, 2.5, 3.5})

	result, err := Add(a, b)
	if err != nil {
		t.Fatal(err)
	}

	for _, p := range []struct{ x, y float64 }{{10, 40}, {40, 40}, {10, 10}, {40, 10}} {
		va, _ := a.GetValue(p.x, p.y)
		vb, _ := b.GetValue(p.x, p.y)
		vc, err := result.GetValue(p.x, p.y)
		if err != nil {
			t.Fatal(err)
		}
		if vc != va+vb {
			t.Errorf("(%v, %v): got %v, wanted %v", p.x, p.y, vc, va+vb)
		}
	}
}

func TestCombineUnion(t *testing.T) {
	a := newTestGrid(t, []float32{1, 2, 3, 4})
	b, err := NewGrid(gis.Extent{Xmin: 50, Ymin: 0, Xmax: 100, Ymax: 50}, 25, 25, noData)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 4; i++ {
		b.values[i] = 10
	}

	result, err := Combine(a, b, AlignUnion, func(va, vb float32) float32 { return va + vb })
	if err != nil {
		t.Fatal(err)
	}
	if result.NCols != 4 || result.NRows != 2 {
		t.Fatalf("got %dx%d, wanted 2x4 over the union extent", result.NRows, result.NCols)
	}

	// Cells covered by only one operand propagate NoData
	for _, v := range result.values {
		if v != noData {
			t.Errorf("got %v, wanted NoData everywhere outside the overlap", v)
		}
	}
}

func TestCombineCellsizeMismatch(t *testing.T) {
	a := newTestGrid(t, []float32{1, 2, 3, 4})
	b, err := NewGrid(gis.Extent{Xmin: 0, Ymin: 0, Xmax: 50, Ymax: 50}, 50, 50, noData)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := Add(a, b); err == nil {
		t.Error("expected error for differing cell sizes")
	}
}

func TestMinMaxSkipsNaN(t *testing.T) {
	g := newTestGrid(t, []float32{float32(math.NaN()), 2, 3, noData})

	lo, hi, err := g.MinMax()
	if err != nil {
		t.Fatal(err)
	}
	if lo != 2 || hi != 3 {
		t.Errorf("got (%v, %v), wanted (2, 3)", lo, hi)
	}
}
