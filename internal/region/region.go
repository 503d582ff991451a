// Package region describes the areas of an image that get blurred.
package region

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/example/blurbrush/internal/geom"
)

// ErrInvalidRegion is returned for regions with a non-positive radius or
// strength, or with non-finite coordinates.
var ErrInvalidRegion = errors.New("invalid region")

// Kind identifies the shape of a Region.
type Kind int

const (
	KindPoint Kind = iota
	KindLine
)

func (k Kind) String() string {
	switch k {
	case KindPoint:
		return "point"
	case KindLine:
		return "line"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// MinStep is the smallest spacing between circular applications along a line.
const MinStep = 5.0

// Region is a circle (KindPoint) or a capsule swept along a segment
// (KindLine). All coordinates are buffer pixels.
type Region struct {
	ID       string
	Kind     Kind
	Start    geom.Point // centre for KindPoint
	End      geom.Point // unused for KindPoint
	Radius   float64
	Strength float64
}

// NewPoint returns a circular region centred at c.
func NewPoint(c geom.Point, radius, strength float64) Region {
	return Region{ID: NewID(), Kind: KindPoint, Start: c, End: c, Radius: radius, Strength: strength}
}

// NewLine returns a capsule region from start to end.
func NewLine(start, end geom.Point, radius, strength float64) Region {
	return Region{ID: NewID(), Kind: KindLine, Start: start, End: end, Radius: radius, Strength: strength}
}

// Center returns the centre of a point region.
func (r Region) Center() geom.Point { return r.Start }

// Validate reports whether r can be composited.
func (r Region) Validate() error {
	if !(r.Radius > 0) || math.IsInf(r.Radius, 0) {
		return fmt.Errorf("radius %v: %w", r.Radius, ErrInvalidRegion)
	}
	if !(r.Strength > 0) || math.IsInf(r.Strength, 0) {
		return fmt.Errorf("strength %v: %w", r.Strength, ErrInvalidRegion)
	}
	for _, p := range []geom.Point{r.Start, r.End} {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return fmt.Errorf("coordinate %v: %w", p, ErrInvalidRegion)
		}
	}
	if r.Kind != KindPoint && r.Kind != KindLine {
		return fmt.Errorf("kind %v: %w", r.Kind, ErrInvalidRegion)
	}
	return nil
}

// Step returns the spacing between circular applications for radius r.
func Step(radius float64) float64 {
	return math.Max(MinStep, radius/2)
}

// Samples returns the centres of the circular applications that realise r,
// in application order. A line always includes both end points.
func Samples(r Region) []geom.Point {
	if r.Kind == KindPoint {
		return []geom.Point{r.Start}
	}
	length := r.Start.Dist(r.End)
	if length == 0 {
		return []geom.Point{r.Start}
	}
	step := Step(r.Radius)
	n := int(math.Floor(length / step))
	out := make([]geom.Point, 0, n+2)
	for i := 0; i <= n; i++ {
		out = append(out, r.Start.Lerp(r.End, float64(i)*step/length))
	}
	if out[len(out)-1].Dist(r.End) > 1e-9 {
		out = append(out, r.End)
	}
	return out
}

// Bounds returns the smallest rectangle of buffer pixels r can touch,
// excluding blur padding.
func (r Region) Bounds() (minX, minY, maxX, maxY float64) {
	minX = math.Min(r.Start.X, r.End.X) - r.Radius
	minY = math.Min(r.Start.Y, r.End.Y) - r.Radius
	maxX = math.Max(r.Start.X, r.End.X) + r.Radius
	maxY = math.Max(r.Start.Y, r.End.Y) + r.Radius
	return
}

func (r Region) String() string {
	if r.Kind == KindPoint {
		return fmt.Sprintf("point %v r=%.0f s=%.0f", r.Start, r.Radius, r.Strength)
	}
	return fmt.Sprintf("line %v-%v r=%.0f s=%.0f", r.Start, r.End, r.Radius, r.Strength)
}

var (
	idMu      sync.Mutex
	idEntropy = ulid.Monotonic(rand.Reader, 0)
)

// NewID returns a lexically sortable identifier, so region IDs follow
// creation order.
func NewID() string {
	idMu.Lock()
	defer idMu.Unlock()
	id, err := ulid.New(ulid.Timestamp(time.Now()), idEntropy)
	if err != nil {
		return fmt.Sprintf("region-%d", time.Now().UnixNano())
	}
	return id.String()
}
