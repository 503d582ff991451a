package session

import (
	"fmt"
	"image"
	"time"

	"github.com/example/blurbrush/internal/geom"
	"github.com/example/blurbrush/internal/history"
	"github.com/example/blurbrush/internal/region"
)

// Brush paints blur continuously along the pointer path. Its history holds
// snapshots of the working buffer, taken at most once per checkpoint
// interval while drawing and always when the stroke ends.
type Brush struct {
	Canvas

	hist     *history.Stack[*image.RGBA]
	debounce *history.Debouncer

	last     geom.Point
	lastMove time.Time
	dirty    bool
}

var _ Editor = (*Brush)(nil)

// NewBrush returns a brush editor without an image.
func NewBrush(opts ...Option) *Brush {
	b := &Brush{Canvas: newCanvas(opts)}
	b.hist = history.New(b.maxHistory, cloneRGBA)
	b.debounce = history.NewDebouncer(b.checkpointInterval)
	return b
}

func (b *Brush) Mode() Mode { return ModeBrush }

// Load replaces the image, clears the history and records the unedited
// image as the first checkpoint.
func (b *Brush) Load(img image.Image) {
	b.load(img)
	b.hist.Reset()
	b.debounce.Reset()
	b.dirty = false
	b.checkpoint()
	b.sync(b.working.Rect)
}

// PointerDown starts a stroke with a single blur at device.
func (b *Brush) PointerDown(device geom.Point) error {
	if !b.HasImage() {
		return ErrNoActiveImage
	}
	p, err := b.toBuffer(device)
	if err != nil {
		return fmt.Errorf("pointer down: %w", err)
	}
	b.gesture = Drawing
	b.applyCircle(p, b.params)
	b.last = p
	b.lastMove = b.clock.Now()
	b.dirty = true
	b.notify(b.State())
	return nil
}

// PointerMove extends the stroke to device. Moves outside a stroke and moves
// that arrive within the move interval of the last applied one are ignored.
// Samples between the previous and the new position are filled in so fast
// strokes leave no gaps.
func (b *Brush) PointerMove(device geom.Point) error {
	if b.gesture != Drawing {
		return nil
	}
	now := b.clock.Now()
	if now.Sub(b.lastMove) < b.moveInterval {
		return nil
	}
	p, err := b.toBuffer(device)
	if err != nil {
		return fmt.Errorf("pointer move: %w", err)
	}
	pts := region.Samples(region.Region{Kind: region.KindLine, Start: b.last, End: p, Radius: b.params.Radius})
	if len(pts) > 1 {
		pts = pts[1:]
	}
	for _, s := range pts {
		b.applyCircle(s, b.params)
	}
	b.last = p
	b.lastMove = now
	b.dirty = true
	if b.debounce.Due(now) {
		b.checkpoint()
	}
	return nil
}

// PointerUp ends the stroke and checkpoints its final state.
func (b *Brush) PointerUp(geom.Point) error {
	b.endStroke()
	return nil
}

// PointerLeave ends the stroke like a release.
func (b *Brush) PointerLeave() error {
	b.endStroke()
	return nil
}

func (b *Brush) endStroke() {
	if b.gesture != Drawing {
		return
	}
	b.gesture = Idle
	if b.dirty {
		b.checkpoint()
	}
	b.notify(b.State())
}

// Undo restores the previous snapshot. A stroke in progress is ended first.
func (b *Brush) Undo() error {
	if !b.HasImage() {
		return ErrNoActiveImage
	}
	b.endStroke()
	snap, err := b.hist.Undo()
	if err != nil {
		b.logger.Printf("undo: %v", err)
		return err
	}
	b.restore(snap)
	b.notify(b.State())
	return nil
}

// Redo restores the next snapshot.
func (b *Brush) Redo() error {
	if !b.HasImage() {
		return ErrNoActiveImage
	}
	b.endStroke()
	snap, err := b.hist.Redo()
	if err != nil {
		b.logger.Printf("redo: %v", err)
		return err
	}
	b.restore(snap)
	b.notify(b.State())
	return nil
}

// State reports the undo availability and gesture of the brush.
func (b *Brush) State() State {
	return State{
		HasImage: b.HasImage(),
		CanUndo:  b.hist.CanUndo(),
		CanRedo:  b.hist.CanRedo(),
		Gesture:  b.gesture,
	}
}

// HistoryLen returns the number of stored snapshots.
func (b *Brush) HistoryLen() int { return b.hist.Len() }

func (b *Brush) checkpoint() {
	b.hist.Checkpoint(b.working)
	b.debounce.Mark(b.clock.Now())
	b.dirty = false
	b.notify(b.State())
}
