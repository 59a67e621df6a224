// Package geometry converts pixel-space MRZ locations into the normalized
// quadrilaterals stored in label records.
package geometry

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfRange = errors.New("normalized coordinate outside [0, 1]")
	ErrEmptyImage = errors.New("image has zero width or height")
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned pixel rectangle with its origin at the top-left.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Translate shifts r by the given offset, used to move crop-local rectangles
// back into full-image coordinates.
func (r Rect) Translate(dx, dy float64) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, Width: r.Width, Height: r.Height}
}

// Polygon is a pixel quadrilateral ordered top-left, top-right,
// bottom-right, bottom-left.
type Polygon [4]Point

// Quad is a Polygon normalized by image width and height.
type Quad [4]Point

/*
FromRect normalizes a pixel rectangle against the full image dimensions.

The corners are emitted clockwise from the top-left, so the flattened
form is [x1,y1, x2,y1, x2,y2, x1,y2]. Coordinates outside [0, 1] are
returned untouched together with ErrOutOfRange; callers decide whether
that fails the attempt.
*/
func FromRect(r Rect, width, height int) (Quad, error) {
	if width <= 0 || height <= 0 {
		return Quad{}, fmt.Errorf("%w: %dx%d", ErrEmptyImage, width, height)
	}
	w, h := float64(width), float64(height)
	x1, y1 := r.X/w, r.Y/h
	x2, y2 := (r.X+r.Width)/w, (r.Y+r.Height)/h

	q := Quad{{x1, y1}, {x2, y1}, {x2, y2}, {x1, y2}}
	return q, q.validate()
}

/*
FromLines builds the quadrilateral spanning both MRZ lines: the top edge of
the first line and the bottom edge of the second.
*/
func FromLines(line1, line2 Polygon, width, height int) (Quad, error) {
	if width <= 0 || height <= 0 {
		return Quad{}, fmt.Errorf("%w: %dx%d", ErrEmptyImage, width, height)
	}
	w, h := float64(width), float64(height)
	corners := [4]Point{line1[0], line1[1], line2[2], line2[3]}

	var q Quad
	for i, p := range corners {
		q[i] = Point{X: p.X / w, Y: p.Y / h}
	}
	return q, q.validate()
}

// Flatten returns the 8-number form [x1,y1, x2,y2, x3,y3, x4,y4].
func (q Quad) Flatten() []float64 {
	flat := make([]float64, 0, 8)
	for _, p := range q {
		flat = append(flat, p.X, p.Y)
	}
	return flat
}

// QuadFromFlat is the inverse of Flatten.
func QuadFromFlat(flat []float64) (Quad, error) {
	if len(flat) != 8 {
		return Quad{}, fmt.Errorf("bounding box needs 8 numbers, got %d", len(flat))
	}
	var q Quad
	for i := range q {
		q[i] = Point{X: flat[2*i], Y: flat[2*i+1]}
	}
	return q, nil
}

func (q Quad) InUnitRange() bool {
	return q.validate() == nil
}

func (q Quad) validate() error {
	for i, p := range q {
		if p.X < 0 || p.X > 1 || p.Y < 0 || p.Y > 1 {
			return fmt.Errorf("%w: corner %d is (%g, %g)", ErrOutOfRange, i, p.X, p.Y)
		}
	}
	return nil
}
