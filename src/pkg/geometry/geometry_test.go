package geometry

import (
	"errors"
	"testing"
)

func TestFromRectNormalizesClockwise(t *testing.T) {
	q, err := FromRect(Rect{X: 100, Y: 600, Width: 800, Height: 200}, 1000, 1000)
	if err != nil {
		t.Fatalf("FromRect: %v", err)
	}

	want := []float64{0.1, 0.6, 0.9, 0.6, 0.9, 0.8, 0.1, 0.8}
	got := q.Flatten()
	for i := range want {
		if !almostEqual(got[i], want[i]) {
			t.Fatalf("Flatten() = %v, want %v", got, want)
		}
	}
}

func TestFromLinesUsesOuterEdges(t *testing.T) {
	line1 := Polygon{{10, 100}, {390, 102}, {390, 130}, {10, 128}}
	line2 := Polygon{{12, 140}, {392, 141}, {392, 170}, {12, 169}}

	q, err := FromLines(line1, line2, 400, 200)
	if err != nil {
		t.Fatalf("FromLines: %v", err)
	}

	want := Quad{{0.025, 0.5}, {0.975, 0.51}, {0.98, 0.85}, {0.03, 0.845}}
	for i := range want {
		if !almostEqual(q[i].X, want[i].X) || !almostEqual(q[i].Y, want[i].Y) {
			t.Fatalf("corner %d = %+v, want %+v", i, q[i], want[i])
		}
	}
}

func TestOutOfRangeIsReportedNotClamped(t *testing.T) {
	q, err := FromRect(Rect{X: 900, Y: 10, Width: 200, Height: 20}, 1000, 100)
	if !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("err = %v, want ErrOutOfRange", err)
	}
	if !almostEqual(q[1].X, 1.1) {
		t.Fatalf("expected the unclamped coordinate, got %v", q[1].X)
	}
	if q.InUnitRange() {
		t.Fatalf("InUnitRange() = true for an out of range quad")
	}
}

func TestZeroDimensions(t *testing.T) {
	if _, err := FromRect(Rect{Width: 1, Height: 1}, 0, 10); !errors.Is(err, ErrEmptyImage) {
		t.Fatalf("FromRect err = %v, want ErrEmptyImage", err)
	}
	if _, err := FromLines(Polygon{}, Polygon{}, 10, 0); !errors.Is(err, ErrEmptyImage) {
		t.Fatalf("FromLines err = %v, want ErrEmptyImage", err)
	}
}

func TestQuadFromFlat(t *testing.T) {
	q := Quad{{0.1, 0.2}, {0.3, 0.2}, {0.3, 0.4}, {0.1, 0.4}}
	back, err := QuadFromFlat(q.Flatten())
	if err != nil || back != q {
		t.Fatalf("QuadFromFlat(Flatten()) = %v, %v; want %v", back, err, q)
	}
	if _, err := QuadFromFlat([]float64{1, 2, 3}); err == nil {
		t.Fatalf("expected an error for a short slice")
	}
}

func TestTranslate(t *testing.T) {
	r := Rect{X: 5, Y: 6, Width: 10, Height: 2}.Translate(100, 200)
	if r != (Rect{X: 105, Y: 206, Width: 10, Height: 2}) {
		t.Fatalf("Translate = %+v", r)
	}
}

func almostEqual(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}
