package geom

import (
	"errors"
	"fmt"
	"image"
	"math"
)

// ErrInvalidGeometry is returned when a display surface or pixel buffer has no
// area, which would otherwise turn the scale factors into Inf or NaN.
var ErrInvalidGeometry = errors.New("invalid geometry")

// Point is a position in either device or buffer space. Which one is implied by
// the caller; the mapper is the only place that converts between the two.
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Dist returns the euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// Lerp returns the point a fraction t of the way from p to q.
func (p Point) Lerp(q Point, t float64) Point {
	return Point{X: p.X + (q.X-p.X)*t, Y: p.Y + (q.Y-p.Y)*t}
}

// Image rounds p to the nearest pixel.
func (p Point) Image() image.Point {
	return image.Pt(int(math.Round(p.X)), int(math.Round(p.Y)))
}

func (p Point) String() string {
	return fmt.Sprintf("(%.1f,%.1f)", p.X, p.Y)
}

// Rect is the on-screen box an element occupies, in device units.
type Rect struct {
	X, Y float64
	W, H float64
}

// Center returns the middle of r.
func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// MapToBuffer converts a device coordinate into backing-buffer pixel
// coordinates. The horizontal and vertical scale factors are independent so a
// non-uniformly stretched element still maps correctly.
func MapToBuffer(device Point, display Rect, bufW, bufH int) (Point, error) {
	if display.W <= 0 || display.H <= 0 {
		return Point{}, fmt.Errorf("display %vx%v: %w", display.W, display.H, ErrInvalidGeometry)
	}
	if bufW <= 0 || bufH <= 0 {
		return Point{}, fmt.Errorf("buffer %dx%d: %w", bufW, bufH, ErrInvalidGeometry)
	}
	scaleX := float64(bufW) / display.W
	scaleY := float64(bufH) / display.H
	return Point{
		X: (device.X - display.X) * scaleX,
		Y: (device.Y - display.Y) * scaleY,
	}, nil
}
