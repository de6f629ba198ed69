package gis

import (
	"math"
	"testing"
)

func TestIntersect(t *testing.T) {
	type testCase struct {
		tag      string
		a, b     Extent
		expected Extent
		overlaps bool
	}

	cases := []testCase{
		{
			tag:      "partial overlap",
			a:        Extent{0, 0, 100, 100},
			b:        Extent{50, 50, 150, 150},
			expected: Extent{50, 50, 100, 100},
			overlaps: true,
		},
		{
			tag:      "contained",
			a:        Extent{0, 0, 100, 100},
			b:        Extent{25, 25, 75, 75},
			expected: Extent{25, 25, 75, 75},
			overlaps: true,
		},
		{
			tag:      "disjoint",
			a:        Extent{0, 0, 100, 100},
			b:        Extent{200, 200, 300, 300},
			overlaps: false,
		},
	}

	for _, c := range cases {
		got, ok := c.a.Intersect(c.b)
		if ok != c.overlaps {
			t.Log(c.tag)
			t.Fail()
			continue
		}
		if ok && got != c.expected {
			t.Errorf("%s: got %v, wanted %v", c.tag, got, c.expected)
		}
	}
}

func TestSnapIdempotent(t *testing.T) {
	e := Extent{13.7, -4.2, 260.1, 149.9}

	once := e.Snap(25, true)
	twice := once.Snap(25, true)
	if once != twice {
		t.Errorf("snap not idempotent: %v != %v", once, twice)
	}

	expected := Extent{0, -25, 275, 150}
	if once != expected {
		t.Errorf("got %v, wanted %v", once, expected)
	}
}

func TestSnapInward(t *testing.T) {
	e := Extent{13.7, -4.2, 260.1, 149.9}
	got := e.Snap(25, false)
	expected := Extent{25, 0, 250, 125}
	if got != expected {
		t.Errorf("got %v, wanted %v", got, expected)
	}
}

func TestToPointList(t *testing.T) {
	e := Extent{0, 0, 10, 20}
	points := e.ToPointList()
	expected := []Point{{0, 0}, {0, 20}, {10, 20}, {10, 0}, {0, 0}}

	if len(points) != 5 {
		t.Fatalf("got %d points, wanted 5", len(points))
	}
	for i := range expected {
		if points[i] != expected[i] {
			t.Errorf("point %d: got %v, wanted %v", i, points[i], expected[i])
		}
	}
}

func TestContains(t *testing.T) {
	e := Extent{0, 0, 100, 100}

	if !e.Contains(0, 0) {
		t.Error("lower left corner should be inside")
	}
	if e.Contains(100, 100) {
		t.Error("upper right corner should be outside")
	}
	if e.Contains(-1, 50) {
		t.Error("point left of the extent should be outside")
	}
}

func TestContainsExtent(t *testing.T) {
	e := Extent{0, 0, 100, 100}

	if !e.ContainsExtent(Extent{25, 25, 75, 75}) {
		t.Error("inner extent should be contained")
	}
	if !e.ContainsExtent(e) {
		t.Error("an extent should contain itself")
	}
	if e.ContainsExtent(Extent{50, 50, 150, 150}) {
		t.Error("partially overlapping extent should not be contained")
	}
}

func TestFormatNumber(t *testing.T) {
	type testCase struct {
		input    float64
		expected string
	}

	cases := []testCase{
		{100, "100"},
		{0.5, "0.5"},
		{1234.5678, "1234.568"},
		{math.Pi, "3.142"},
	}

	for _, c := range cases {
		if got := FormatNumber(c.input); got != c.expected {
			t.Errorf("FormatNumber(%v): got %q, wanted %q", c.input, got, c.expected)
		}
	}
}
