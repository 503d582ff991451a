package session

import (
	"fmt"
	"image"
	"image/draw"
	"io"
	"log"
	"math"
	"time"

	"github.com/example/blurbrush/internal/geom"
	"github.com/example/blurbrush/internal/history"
	"github.com/example/blurbrush/internal/imageio"
	"github.com/example/blurbrush/internal/region"
	"github.com/example/blurbrush/internal/render"
)

// Default timings and thresholds of the gesture state machines.
const (
	DefaultMoveInterval = 30 * time.Millisecond
	DefaultTapThreshold = 5.0
)

// Canvas owns the working and display buffers shared by both editors.
// The working buffer accumulates blur applications; the display buffer is a
// copy of it refreshed after every operation. Both always have the same size.
type Canvas struct {
	working *image.RGBA
	display *image.RGBA

	viewport geom.Viewport
	params   Params
	limits   Limits

	comp     *render.Compositor
	clock    history.Clock
	logger   *log.Logger
	listener Listener

	maxHistory         int
	checkpointInterval time.Duration
	moveInterval       time.Duration
	tapThreshold       float64

	gesture   Gesture
	lastState State
	notified  bool
}

// Option configures an editor.
type Option func(*Canvas)

// WithCompositor sets the compositor used for blur applications.
func WithCompositor(c *render.Compositor) Option {
	return func(cv *Canvas) { cv.comp = c }
}

// WithClock replaces the wall clock used for debouncing.
func WithClock(c history.Clock) Option {
	return func(cv *Canvas) { cv.clock = c }
}

// WithLogger sets the logger used for refused actions.
func WithLogger(l *log.Logger) Option {
	return func(cv *Canvas) { cv.logger = l }
}

// WithListener registers l for redraw and state notifications.
func WithListener(l Listener) Option {
	return func(cv *Canvas) { cv.listener = l }
}

// WithLimits bounds the accepted brush parameters.
func WithLimits(l Limits) Option {
	return func(cv *Canvas) { cv.limits = l }
}

// WithParams sets the initial brush parameters.
func WithParams(p Params) Option {
	return func(cv *Canvas) { cv.params = p }
}

// WithMaxHistory sets the number of undo entries kept.
func WithMaxHistory(n int) Option {
	return func(cv *Canvas) { cv.maxHistory = n }
}

// WithCheckpointInterval sets the minimum spacing of checkpoints taken
// while a stroke is in progress.
func WithCheckpointInterval(d time.Duration) Option {
	return func(cv *Canvas) { cv.checkpointInterval = d }
}

// WithMoveInterval sets how long pointer moves are ignored after an applied
// move.
func WithMoveInterval(d time.Duration) Option {
	return func(cv *Canvas) { cv.moveInterval = d }
}

// WithTapThreshold sets the drag distance, in buffer pixels, below which a
// gesture commits a point instead of a line.
func WithTapThreshold(px float64) Option {
	return func(cv *Canvas) { cv.tapThreshold = px }
}

func newCanvas(opts []Option) Canvas {
	c := Canvas{
		viewport:           geom.Identity(),
		params:             DefaultParams,
		limits:             DefaultLimits,
		clock:              history.SystemClock{},
		maxHistory:         history.DefaultMaxDepth,
		checkpointInterval: history.DefaultInterval,
		moveInterval:       DefaultMoveInterval,
		tapThreshold:       DefaultTapThreshold,
	}
	for _, o := range opts {
		o(&c)
	}
	if c.comp == nil {
		c.comp = render.New()
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard, "", 0)
	}
	if c.limits.Validate() != nil {
		c.limits = DefaultLimits
	}
	c.params = c.limits.Clamp(c.params)
	return c
}

// load replaces both buffers with a zero-origin RGBA copy of img.
func (c *Canvas) load(img image.Image) {
	b := img.Bounds()
	c.working = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(c.working, c.working.Bounds(), img, b.Min, draw.Src)
	c.display = image.NewRGBA(c.working.Bounds())
	copy(c.display.Pix, c.working.Pix)
	c.gesture = Idle
}

// HasImage reports whether an image has been loaded.
func (c *Canvas) HasImage() bool { return c.working != nil }

// Size returns the buffer dimensions, or zero without an image.
func (c *Canvas) Size() (int, int) {
	if c.working == nil {
		return 0, 0
	}
	return c.working.Rect.Dx(), c.working.Rect.Dy()
}

// Display returns the display buffer. It is replaced on Load and mutated by
// every operation; callers that keep it must copy it.
func (c *Canvas) Display() *image.RGBA { return c.display }

// Snapshot returns a copy of the display buffer, or nil without an image.
func (c *Canvas) Snapshot() *image.RGBA { return cloneRGBA(c.display) }

// SetViewport sets the mapping used for device coordinates.
func (c *Canvas) SetViewport(v geom.Viewport) { c.viewport = v }

// Viewport returns the current device mapping.
func (c *Canvas) Viewport() geom.Viewport { return c.viewport }

// SetParams sets the parameters of future regions, clamped to Limits.
func (c *Canvas) SetParams(p Params) { c.params = c.limits.Clamp(p) }

// Params returns the parameters applied to new regions.
func (c *Canvas) Params() Params { return c.params }

// Limits returns the accepted parameter ranges.
func (c *Canvas) Limits() Limits { return c.limits }

// Export encodes the display buffer to w.
func (c *Canvas) Export(w io.Writer, f imageio.Format, opts ...imageio.EncodeOption) error {
	if c.display == nil {
		return fmt.Errorf("export: %w", ErrNoActiveImage)
	}
	return imageio.Encode(w, c.display, f, opts...)
}

// toBuffer maps a device coordinate through the viewport.
func (c *Canvas) toBuffer(device geom.Point) (geom.Point, error) {
	w, h := c.Size()
	p, err := c.viewport.ToBuffer(device, w, h)
	if err != nil {
		c.logger.Printf("pointer %v ignored: %v", device, err)
		return geom.Point{}, err
	}
	return p, nil
}

// applyCircle blurs one disc of the working buffer and refreshes the
// matching part of the display buffer.
func (c *Canvas) applyCircle(p geom.Point, params Params) {
	c.comp.ApplyCircle(c.working, p, params.Radius, params.Strength)
	c.sync(discBounds(p, params.Radius))
}

// applyRegion composites reg onto the working buffer.
func (c *Canvas) applyRegion(reg region.Region) error {
	if err := c.comp.Apply(c.working, reg); err != nil {
		return err
	}
	minX, minY, maxX, maxY := reg.Bounds()
	c.sync(image.Rect(int(math.Floor(minX))-1, int(math.Floor(minY))-1, int(math.Ceil(maxX))+2, int(math.Ceil(maxY))+2))
	return nil
}

// restore copies pix into the working buffer and refreshes the display.
func (c *Canvas) restore(src *image.RGBA) {
	copy(c.working.Pix, src.Pix)
	c.sync(c.working.Rect)
}

// sync copies r of the working buffer into the display buffer and notifies
// the listener.
func (c *Canvas) sync(r image.Rectangle) {
	r = r.Intersect(c.working.Rect)
	if !r.Empty() {
		n := r.Dx() * 4
		for y := r.Min.Y; y < r.Max.Y; y++ {
			i := c.working.PixOffset(r.Min.X, y)
			copy(c.display.Pix[i:i+n], c.working.Pix[i:i+n])
		}
	}
	if c.listener != nil {
		c.listener.OnRedraw(c.display)
	}
}

// notify reports s to the listener when it differs from the last report.
func (c *Canvas) notify(s State) {
	if c.notified && s == c.lastState {
		return
	}
	c.lastState = s
	c.notified = true
	if c.listener != nil {
		c.listener.OnState(s)
	}
}

func discBounds(p geom.Point, radius float64) image.Rectangle {
	return image.Rect(
		int(math.Floor(p.X-radius))-1, int(math.Floor(p.Y-radius))-1,
		int(math.Ceil(p.X+radius))+2, int(math.Ceil(p.Y+radius))+2,
	)
}

func cloneRGBA(src *image.RGBA) *image.RGBA {
	if src == nil {
		return nil
	}
	out := image.NewRGBA(src.Rect)
	copy(out.Pix, src.Pix)
	return out
}
