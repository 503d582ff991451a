package session

import (
	"fmt"
	"image"
	"slices"

	"github.com/example/blurbrush/internal/geom"
	"github.com/example/blurbrush/internal/history"
	"github.com/example/blurbrush/internal/region"
)

// Regions commits one point or line region per gesture and keeps every
// region individually addressable. Its history holds region lists; undo and
// redo replay the restored list onto the unedited image.
type Regions struct {
	Canvas

	source  *image.RGBA
	regions []region.Region
	hist    *history.Stack[[]region.Region]

	down, last geom.Point
}

var _ Editor = (*Regions)(nil)

// NewRegions returns a region editor without an image.
func NewRegions(opts ...Option) *Regions {
	r := &Regions{Canvas: newCanvas(opts)}
	r.hist = history.New(r.maxHistory, cloneRegions)
	return r
}

func (r *Regions) Mode() Mode { return ModeRegions }

// Load replaces the image and clears every region and the history.
func (r *Regions) Load(img image.Image) {
	r.load(img)
	r.source = cloneRGBA(r.working)
	r.regions = nil
	r.hist.Reset()
	r.hist.Checkpoint(r.regions)
	r.sync(r.working.Rect)
	r.notify(r.State())
}

// PointerDown records the start of a gesture.
func (r *Regions) PointerDown(device geom.Point) error {
	if !r.HasImage() {
		return ErrNoActiveImage
	}
	p, err := r.toBuffer(device)
	if err != nil {
		return fmt.Errorf("pointer down: %w", err)
	}
	r.down, r.last = p, p
	r.gesture = AwaitingGestureEnd
	r.notify(r.State())
	return nil
}

// PointerMove tracks the pointer so a gesture ended by leaving the image
// still has an end point.
func (r *Regions) PointerMove(device geom.Point) error {
	if r.gesture != AwaitingGestureEnd {
		return nil
	}
	p, err := r.toBuffer(device)
	if err != nil {
		return fmt.Errorf("pointer move: %w", err)
	}
	r.last = p
	return nil
}

// PointerUp commits a point when the drag was shorter than the tap
// threshold and a line from the press to device otherwise.
func (r *Regions) PointerUp(device geom.Point) error {
	if r.gesture != AwaitingGestureEnd {
		return nil
	}
	end, err := r.toBuffer(device)
	if err != nil {
		r.gesture = Idle
		r.notify(r.State())
		return fmt.Errorf("pointer up: %w", err)
	}
	return r.endGesture(end)
}

// PointerLeave ends the gesture at the last tracked position, as a release
// there would.
func (r *Regions) PointerLeave() error {
	if r.gesture != AwaitingGestureEnd {
		return nil
	}
	return r.endGesture(r.last)
}

func (r *Regions) endGesture(end geom.Point) error {
	r.gesture = Idle
	var err error
	if r.down.Dist(end) < r.tapThreshold {
		_, err = r.add(region.NewPoint(r.down, r.params.Radius, r.params.Strength))
	} else {
		_, err = r.add(region.NewLine(r.down, end, r.params.Radius, r.params.Strength))
	}
	return err
}

// AddPoint commits a point region at device with the current parameters.
func (r *Regions) AddPoint(device geom.Point) (region.Region, error) {
	if !r.HasImage() {
		return region.Region{}, ErrNoActiveImage
	}
	p, err := r.toBuffer(device)
	if err != nil {
		return region.Region{}, fmt.Errorf("add point: %w", err)
	}
	return r.add(region.NewPoint(p, r.params.Radius, r.params.Strength))
}

// AddLine commits a line region between two device coordinates.
func (r *Regions) AddLine(start, end geom.Point) (region.Region, error) {
	if !r.HasImage() {
		return region.Region{}, ErrNoActiveImage
	}
	s, err := r.toBuffer(start)
	if err != nil {
		return region.Region{}, fmt.Errorf("add line: %w", err)
	}
	e, err := r.toBuffer(end)
	if err != nil {
		return region.Region{}, fmt.Errorf("add line: %w", err)
	}
	return r.add(region.NewLine(s, e, r.params.Radius, r.params.Strength))
}

// Add commits reg as given, with buffer coordinates. Its parameters are
// clamped to the editor limits.
func (r *Regions) Add(reg region.Region) (region.Region, error) {
	if !r.HasImage() {
		return region.Region{}, ErrNoActiveImage
	}
	if reg.ID == "" {
		reg.ID = region.NewID()
	}
	p := r.limits.Clamp(Params{Radius: reg.Radius, Strength: reg.Strength})
	reg.Radius, reg.Strength = p.Radius, p.Strength
	return r.add(reg)
}

func (r *Regions) add(reg region.Region) (region.Region, error) {
	if err := r.applyRegion(reg); err != nil {
		r.notify(r.State())
		return region.Region{}, err
	}
	r.regions = append(r.regions, reg)
	r.hist.Checkpoint(r.regions)
	r.notify(r.State())
	return reg, nil
}

// Update changes the parameters of the region with the given ID and
// re-renders every region.
func (r *Regions) Update(id string, p Params) error {
	if !r.HasImage() {
		return ErrNoActiveImage
	}
	i := r.index(id)
	if i < 0 {
		return fmt.Errorf("update %s: %w", id, ErrUnknownRegion)
	}
	p = r.limits.Clamp(p)
	r.regions = slices.Clone(r.regions)
	r.regions[i].Radius = p.Radius
	r.regions[i].Strength = p.Strength
	return r.commit()
}

// Remove deletes the region with the given ID and re-renders the rest.
func (r *Regions) Remove(id string) error {
	if !r.HasImage() {
		return ErrNoActiveImage
	}
	i := r.index(id)
	if i < 0 {
		return fmt.Errorf("remove %s: %w", id, ErrUnknownRegion)
	}
	r.regions = slices.Delete(slices.Clone(r.regions), i, i+1)
	return r.commit()
}

// Clear removes every region.
func (r *Regions) Clear() error {
	if !r.HasImage() {
		return ErrNoActiveImage
	}
	if len(r.regions) == 0 {
		return nil
	}
	r.regions = nil
	return r.commit()
}

// Regions returns a copy of the committed regions in application order.
func (r *Regions) Regions() []region.Region { return slices.Clone(r.regions) }

func (r *Regions) commit() error {
	if err := r.replay(); err != nil {
		return err
	}
	r.hist.Checkpoint(r.regions)
	r.notify(r.State())
	return nil
}

func cloneRegions(regs []region.Region) []region.Region { return slices.Clone(regs) }

func (r *Regions) index(id string) int {
	return slices.IndexFunc(r.regions, func(reg region.Region) bool { return reg.ID == id })
}

// Undo restores the previous region list.
func (r *Regions) Undo() error {
	if !r.HasImage() {
		return ErrNoActiveImage
	}
	regs, err := r.hist.Undo()
	if err != nil {
		r.logger.Printf("undo: %v", err)
		return err
	}
	r.regions = regs
	return r.replayAndNotify()
}

// Redo restores the next region list.
func (r *Regions) Redo() error {
	if !r.HasImage() {
		return ErrNoActiveImage
	}
	regs, err := r.hist.Redo()
	if err != nil {
		r.logger.Printf("redo: %v", err)
		return err
	}
	r.regions = regs
	return r.replayAndNotify()
}

func (r *Regions) replayAndNotify() error {
	err := r.replay()
	r.notify(r.State())
	return err
}

// replay renders every region from scratch onto a copy of the unedited
// image.
func (r *Regions) replay() error {
	copy(r.working.Pix, r.source.Pix)
	err := r.comp.ApplyAll(r.working, r.regions)
	r.sync(r.working.Rect)
	return err
}

// State reports the undo availability and gesture of the editor.
func (r *Regions) State() State {
	return State{
		HasImage: r.HasImage(),
		CanUndo:  r.hist.CanUndo(),
		CanRedo:  r.hist.CanRedo(),
		Gesture:  r.gesture,
	}
}
