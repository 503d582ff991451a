// Package session turns pointer gestures into blur applications and keeps
// the undo history of an editing session.
package session

import (
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"strings"

	"github.com/example/blurbrush/internal/geom"
	"github.com/example/blurbrush/internal/imageio"
)

var (
	// ErrNoActiveImage is returned by actions that need a loaded image.
	ErrNoActiveImage = errors.New("no active image")
	// ErrUnknownRegion is returned when a region ID is not in the session.
	ErrUnknownRegion = errors.New("unknown region")
)

// Mode selects the editor variant.
type Mode string

const (
	// ModeBrush paints blur continuously while the pointer is down.
	ModeBrush Mode = "brush"
	// ModeRegions commits one point or line region per gesture.
	ModeRegions Mode = "regions"
)

// ParseMode accepts the mode names used in config files and flags.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "brush", "b":
		return ModeBrush, nil
	case "regions", "region", "r", "points":
		return ModeRegions, nil
	default:
		return "", fmt.Errorf("unknown mode %q", s)
	}
}

// Gesture is the pointer state of an editor.
type Gesture int

const (
	Idle Gesture = iota
	Drawing
	AwaitingGestureEnd
)

func (g Gesture) String() string {
	switch g {
	case Idle:
		return "idle"
	case Drawing:
		return "drawing"
	case AwaitingGestureEnd:
		return "awaiting gesture end"
	default:
		return fmt.Sprintf("Gesture(%d)", int(g))
	}
}

// State is what a host needs to enable or disable its controls.
type State struct {
	HasImage bool
	CanUndo  bool
	CanRedo  bool
	Gesture  Gesture
}

// Params are the brush settings applied to new blur regions.
type Params struct {
	Radius   float64
	Strength float64
}

// DefaultParams are used until the host sets its own.
var DefaultParams = Params{Radius: 40, Strength: 12}

// Limits bound the values Params may take.
type Limits struct {
	RadiusMin, RadiusMax     float64
	StrengthMin, StrengthMax float64
}

// DefaultLimits match the steppers of the editor window.
var DefaultLimits = Limits{RadiusMin: 5, RadiusMax: 300, StrengthMin: 2, StrengthMax: 100}

// Clamp returns p with both fields forced into l. Non-finite values fall back
// to DefaultParams before clamping.
func (l Limits) Clamp(p Params) Params {
	if math.IsNaN(p.Radius) || math.IsInf(p.Radius, 0) {
		p.Radius = DefaultParams.Radius
	}
	if math.IsNaN(p.Strength) || math.IsInf(p.Strength, 0) {
		p.Strength = DefaultParams.Strength
	}
	p.Radius = math.Min(math.Max(p.Radius, l.RadiusMin), l.RadiusMax)
	p.Strength = math.Min(math.Max(p.Strength, l.StrengthMin), l.StrengthMax)
	return p
}

// Validate reports whether l describes non-empty positive ranges.
func (l Limits) Validate() error {
	if !(l.RadiusMin > 0) || l.RadiusMax < l.RadiusMin {
		return fmt.Errorf("radius limits [%v, %v] are invalid", l.RadiusMin, l.RadiusMax)
	}
	if !(l.StrengthMin > 0) || l.StrengthMax < l.StrengthMin {
		return fmt.Errorf("strength limits [%v, %v] are invalid", l.StrengthMin, l.StrengthMax)
	}
	return nil
}

// Listener is told about buffer and state changes. Both callbacks run on
// the goroutine that drove the session.
type Listener interface {
	// OnRedraw is called with the display buffer after it changed. The
	// buffer is owned by the session and must not be retained.
	OnRedraw(display *image.RGBA)
	// OnState is called when State changed.
	OnState(State)
}

// Editor is the surface shared by Brush and Regions.
type Editor interface {
	Mode() Mode
	Load(img image.Image)
	HasImage() bool
	Size() (int, int)
	Display() *image.RGBA
	Snapshot() *image.RGBA

	SetViewport(geom.Viewport)
	Viewport() geom.Viewport
	SetParams(Params)
	Params() Params
	Limits() Limits

	PointerDown(device geom.Point) error
	PointerMove(device geom.Point) error
	PointerUp(device geom.Point) error
	PointerLeave() error

	Undo() error
	Redo() error
	Export(w io.Writer, f imageio.Format, opts ...imageio.EncodeOption) error
	State() State
}

// New returns an editor of the given mode.
func New(mode Mode, opts ...Option) (Editor, error) {
	switch mode {
	case ModeBrush, "":
		return NewBrush(opts...), nil
	case ModeRegions:
		return NewRegions(opts...), nil
	default:
		return nil, fmt.Errorf("unknown mode %q", mode)
	}
}
