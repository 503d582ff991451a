package session

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/blurbrush/internal/geom"
	"github.com/example/blurbrush/internal/history"
	"github.com/example/blurbrush/internal/imageio"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
}

type recorder struct {
	redraws int
	states  []State
}

func (r *recorder) OnRedraw(*image.RGBA) { r.redraws++ }
func (r *recorder) OnState(s State)      { r.states = append(r.states, s) }

var _ history.Clock = (*fakeClock)(nil)

func pattern(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(0)
			if (x/2+y/2)%2 == 0 {
				v = 255
			}
			img.SetRGBA(x, y, color.RGBA{v, uint8(x), uint8(y), 255})
		}
	}
	return img
}

func editors(opts ...Option) map[string]Editor {
	return map[string]Editor{
		"brush":   NewBrush(opts...),
		"regions": NewRegions(opts...),
	}
}

func TestUndoRedoPointIsBitIdentical(t *testing.T) {
	for name, ed := range editors(WithParams(Params{Radius: 30, Strength: 10})) {
		t.Run(name, func(t *testing.T) {
			ed.Load(pattern(200, 200))
			pre := ed.Snapshot()

			require.NoError(t, ed.PointerDown(geom.Pt(100, 100)))
			require.NoError(t, ed.PointerUp(geom.Pt(100, 100)))
			post := ed.Snapshot()
			require.NotEqual(t, pre.Pix, post.Pix, "point blur changed nothing")

			require.NoError(t, ed.Undo())
			assert.Equal(t, pre.Pix, ed.Display().Pix)
			require.NoError(t, ed.Redo())
			assert.Equal(t, post.Pix, ed.Display().Pix)
		})
	}
}

func TestUndoOnFreshImage(t *testing.T) {
	for name, ed := range editors() {
		t.Run(name, func(t *testing.T) {
			ed.Load(pattern(20, 20))
			before := ed.Snapshot()
			assert.ErrorIs(t, ed.Undo(), history.ErrNothingToUndo)
			assert.ErrorIs(t, ed.Redo(), history.ErrNothingToRedo)
			assert.Equal(t, before.Pix, ed.Display().Pix)
			assert.False(t, ed.State().CanUndo)
		})
	}
}

func TestNoActiveImage(t *testing.T) {
	for name, ed := range editors() {
		t.Run(name, func(t *testing.T) {
			assert.False(t, ed.HasImage())
			assert.ErrorIs(t, ed.PointerDown(geom.Pt(1, 1)), ErrNoActiveImage)
			assert.ErrorIs(t, ed.Undo(), ErrNoActiveImage)
			assert.ErrorIs(t, ed.Redo(), ErrNoActiveImage)
			assert.ErrorIs(t, ed.Export(&bytes.Buffer{}, imageio.PNG), ErrNoActiveImage)
			assert.Nil(t, ed.Snapshot())
			w, h := ed.Size()
			assert.Zero(t, w)
			assert.Zero(t, h)
		})
	}
}

func TestCheckpointAfterUndoClearsRedo(t *testing.T) {
	for name, ed := range editors() {
		t.Run(name, func(t *testing.T) {
			ed.Load(pattern(80, 80))
			tap(t, ed, geom.Pt(20, 20))
			tap(t, ed, geom.Pt(60, 60))
			require.NoError(t, ed.Undo())
			require.True(t, ed.State().CanRedo)

			tap(t, ed, geom.Pt(40, 40))
			assert.False(t, ed.State().CanRedo)
			assert.ErrorIs(t, ed.Redo(), history.ErrNothingToRedo)
		})
	}
}

func TestMaxHistoryEvictsOldest(t *testing.T) {
	for name, ed := range editors(WithMaxHistory(3)) {
		t.Run(name, func(t *testing.T) {
			ed.Load(pattern(60, 60))
			for i := 0; i < 5; i++ {
				tap(t, ed, geom.Pt(float64(10+i*10), 30))
			}
			undos := 0
			for ed.Undo() == nil {
				undos++
			}
			assert.Equal(t, 2, undos)
		})
	}
}

func TestExportEncodesDisplay(t *testing.T) {
	ed := NewRegions()
	ed.Load(pattern(30, 20))
	tap(t, ed, geom.Pt(15, 10))

	var buf bytes.Buffer
	require.NoError(t, ed.Export(&buf, imageio.PNG))
	got, err := png.Decode(&buf)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 30, 20), got.Bounds())
	want := ed.Display().RGBAAt(15, 10)
	r, g, b, a := got.At(15, 10).RGBA()
	assert.Equal(t, want, color.RGBA{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8), uint8(a >> 8)})
}

func TestLoadNormalisesOriginAndResetsHistory(t *testing.T) {
	ed := NewBrush()
	ed.Load(pattern(40, 40))
	tap(t, ed, geom.Pt(20, 20))
	require.True(t, ed.State().CanUndo)

	src := image.NewNRGBA(image.Rect(10, 10, 25, 30))
	ed.Load(src)
	w, h := ed.Size()
	assert.Equal(t, 15, w)
	assert.Equal(t, 20, h)
	assert.Equal(t, image.Point{}, ed.Display().Rect.Min)
	assert.False(t, ed.State().CanUndo)
	assert.Equal(t, 1, ed.HistoryLen())
}

func TestParamsAreClamped(t *testing.T) {
	ed := NewBrush()
	ed.SetParams(Params{Radius: 1, Strength: 500})
	assert.Equal(t, Params{Radius: 5, Strength: 100}, ed.Params())
	ed.SetParams(Params{Radius: 1000, Strength: 0})
	assert.Equal(t, Params{Radius: 300, Strength: 2}, ed.Params())

	custom := NewRegions(WithLimits(Limits{RadiusMin: 1, RadiusMax: 10, StrengthMin: 1, StrengthMax: 3}), WithParams(Params{Radius: 50, Strength: 50}))
	assert.Equal(t, Params{Radius: 10, Strength: 3}, custom.Params())

	broken := NewBrush(WithLimits(Limits{}))
	assert.Equal(t, DefaultLimits, broken.Limits())
}

func TestViewportMapsDeviceCoordinates(t *testing.T) {
	ed := NewRegions(WithParams(Params{Radius: 5, Strength: 2}))
	ed.Load(pattern(100, 100))
	ed.SetViewport(geom.Viewport{Origin: geom.Pt(10, 20), Zoom: 2})

	reg, err := ed.AddPoint(geom.Pt(110, 120))
	require.NoError(t, err)
	assert.InDelta(t, 50, reg.Start.X, 1e-9)
	assert.InDelta(t, 50, reg.Start.Y, 1e-9)

	ed.SetViewport(geom.Viewport{Zoom: 0})
	_, err = ed.AddPoint(geom.Pt(1, 1))
	assert.ErrorIs(t, err, geom.ErrInvalidGeometry)
	assert.Len(t, ed.Regions(), 1)
}

func TestListenerSeesStateChanges(t *testing.T) {
	rec := &recorder{}
	ed := NewRegions(WithListener(rec))
	ed.Load(pattern(40, 40))
	require.NotEmpty(t, rec.states)
	assert.Equal(t, State{HasImage: true}, rec.states[len(rec.states)-1])

	require.NoError(t, ed.PointerDown(geom.Pt(10, 10)))
	assert.Equal(t, AwaitingGestureEnd, rec.states[len(rec.states)-1].Gesture)
	require.NoError(t, ed.PointerUp(geom.Pt(10, 10)))
	last := rec.states[len(rec.states)-1]
	assert.Equal(t, State{HasImage: true, CanUndo: true, Gesture: Idle}, last)
	assert.Positive(t, rec.redraws)

	n := len(rec.states)
	assert.ErrorIs(t, ed.Redo(), history.ErrNothingToRedo)
	assert.Len(t, rec.states, n, "a refused action does not repeat the state")
}

func TestNewByMode(t *testing.T) {
	ed, err := New(ModeRegions)
	require.NoError(t, err)
	assert.Equal(t, ModeRegions, ed.Mode())
	ed, err = New(ModeBrush)
	require.NoError(t, err)
	assert.Equal(t, ModeBrush, ed.Mode())
	_, err = New("smudge")
	assert.Error(t, err)

	m, err := ParseMode(" Regions ")
	require.NoError(t, err)
	assert.Equal(t, ModeRegions, m)
	_, err = ParseMode("nope")
	assert.Error(t, err)
	assert.Equal(t, "awaiting gesture end", AwaitingGestureEnd.String())
}

func TestRefusedActionsAreLogged(t *testing.T) {
	var out strings.Builder
	ed := NewBrush(WithLogger(log.New(&out, "", 0)))
	ed.Load(pattern(10, 10))
	_ = ed.Undo()
	assert.Contains(t, out.String(), "nothing to undo")
}

func tap(t *testing.T, ed Editor, p geom.Point) {
	t.Helper()
	require.NoError(t, ed.PointerDown(p))
	require.NoError(t, ed.PointerUp(p))
}
