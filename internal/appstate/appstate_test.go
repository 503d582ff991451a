package appstate

import (
	"context"
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/mobile/event/key"

	"github.com/example/blurbrush/internal/geom"
	"github.com/example/blurbrush/internal/imageio"
	"github.com/example/blurbrush/internal/notify"
	"github.com/example/blurbrush/internal/platform"
	"github.com/example/blurbrush/internal/session"
	"github.com/example/blurbrush/internal/theme"
)

func pattern(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(0)
			if (x/3+y/3)%2 == 0 {
				v = 255
			}
			img.SetRGBA(x, y, color.RGBA{v, v, uint8(x), 255})
		}
	}
	return img
}

func newTestApp(t *testing.T, opts ...Option) *AppState {
	t.Helper()
	base := []Option{
		WithImage(pattern(60, 40)),
		WithSessionOptions(session.WithParams(session.Params{Radius: 10, Strength: 4})),
	}
	a, err := New(append(base, opts...)...)
	require.NoError(t, err)
	a.now = func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) }
	a.width, a.height = 400, 300
	return a
}

func tap(t *testing.T, ed session.Editor, p geom.Point) {
	t.Helper()
	require.NoError(t, ed.PointerDown(p))
	require.NoError(t, ed.PointerUp(p))
}

func TestViewportMatchesImageRect(t *testing.T) {
	v := view{Zoom: 2, Offset: geom.Pt(5, 0)}
	r := imageRect(v, 60, 40)
	assert.Equal(t, image.Rect(toolbarWidth+10, titleHeight, toolbarWidth+130, titleHeight+80), r)

	p, err := v.viewport().ToBuffer(geom.Pt(float64(r.Min.X+6), float64(r.Min.Y+8)), 60, 40)
	require.NoError(t, err)
	assert.InDelta(t, 3, p.X, 1e-9)
	assert.InDelta(t, 4, p.Y, 1e-9)
}

func TestZoomIsBounded(t *testing.T) {
	v := view{Zoom: 1}
	for i := 0; i < 50; i++ {
		v = v.zoomBy(zoomStep)
	}
	assert.Equal(t, float64(maxZoom), v.Zoom)
	for i := 0; i < 100; i++ {
		v = v.zoomBy(1 / zoomStep)
	}
	assert.Equal(t, minZoom, v.Zoom)
}

func TestKeyLookup(t *testing.T) {
	a := newTestApp(t)
	s := a.bindActions(func() {})
	cases := []struct {
		r    rune
		mods key.Modifiers
		want string
	}{
		{'z', key.ModControl, actionUndo},
		{'Z', key.ModControl | key.ModShift, actionRedo},
		{'y', key.ModControl, actionRedo},
		{'B', 0, actionBrush},
		{'p', 0, actionRegions},
		{'[', 0, actionRadiusDown},
		{']', 0, actionRadiusUp},
		{'-', 0, actionStrengthDown},
		{'=', 0, actionStrengthUp},
		{'s', key.ModControl, actionSave},
		{'0', key.ModControl, actionFit},
		{'q', 0, actionQuit},
	}
	for _, c := range cases {
		got, ok := s.lookup(c.r, key.CodeUnknown, c.mods)
		assert.True(t, ok, "%q %v", c.r, c.mods)
		assert.Equal(t, c.want, got, "%q %v", c.r, c.mods)
	}
	_, ok := s.lookup('x', key.CodeUnknown, 0)
	assert.False(t, ok)
	_, ok = s.lookup(-1, key.CodeLeftArrow, 0)
	assert.False(t, ok)
}

func TestQuitActionRunsCallback(t *testing.T) {
	a := newTestApp(t)
	quit := false
	s := a.bindActions(func() { quit = true })
	require.True(t, s.trigger(actionQuit))
	assert.True(t, quit)
	assert.False(t, s.trigger("missing"))
}

func TestUndoRedoActions(t *testing.T) {
	a := newTestApp(t)
	s := a.bindActions(func() {})
	pre := a.Editor().Snapshot()
	tap(t, a.Editor(), geom.Pt(30, 20))
	assert.True(t, a.state.CanUndo, "listener keeps the state current")
	post := a.Editor().Snapshot()

	s.trigger(actionUndo)
	assert.Equal(t, pre.Pix, a.Editor().Display().Pix)
	s.trigger(actionRedo)
	assert.Equal(t, post.Pix, a.Editor().Display().Pix)
	s.trigger(actionRedo)
	assert.Empty(t, a.message, "a refused redo is not reported as a failure")
}

func TestParamSteppersClamp(t *testing.T) {
	a := newTestApp(t)
	s := a.bindActions(func() {})
	s.trigger(actionRadiusUp)
	s.trigger(actionStrengthUp)
	assert.Equal(t, session.Params{Radius: 15, Strength: 6}, a.Editor().Params())
	for i := 0; i < 100; i++ {
		s.trigger(actionRadiusUp)
		s.trigger(actionStrengthDown)
	}
	assert.Equal(t, session.Params{Radius: 300, Strength: 2}, a.Editor().Params())
}

func TestSwitchModeKeepsPicture(t *testing.T) {
	a := newTestApp(t)
	s := a.bindActions(func() {})
	tap(t, a.Editor(), geom.Pt(30, 20))
	edited := a.Editor().Snapshot()
	s.trigger(actionRadiusUp)

	s.trigger(actionRegions)
	ed := a.Editor()
	assert.Equal(t, session.ModeRegions, ed.Mode())
	assert.Equal(t, edited.Pix, ed.Display().Pix)
	assert.Equal(t, 15.0, ed.Params().Radius)
	assert.False(t, a.state.CanUndo)

	tap(t, ed, geom.Pt(10, 10))
	r, ok := ed.(*session.Regions)
	require.True(t, ok)
	assert.Len(t, r.Regions(), 1)
	assert.Contains(t, a.status(), "1 regions")

	s.trigger(actionRegions)
	assert.Same(t, ed, a.Editor(), "selecting the current mode keeps the editor")
}

func captureNotifications(n *notify.Notifier) *[]string {
	var got []string
	n.WithSender(func(title, body string, opts platform.Options) error {
		got = append(got, body)
		return nil
	})
	return &got
}

func TestSaveWritesOutputAndNotifies(t *testing.T) {
	n := notify.New(notify.DefaultPreferences())
	n.Enable(notify.EventSave, true)
	sent := captureNotifications(n)
	out := filepath.Join(t.TempDir(), "nested", "out.png")
	a := newTestApp(t, WithOutput(out), WithNotifier(n))
	tap(t, a.Editor(), geom.Pt(30, 20))

	path, err := a.save()
	require.NoError(t, err)
	assert.Equal(t, out, path)
	img, err := imageio.Load(out)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 60, 40), img.Bounds())
	require.Len(t, *sent, 1)
	assert.Contains(t, (*sent)[0], "out.png")
}

func TestSavePathDefaultsToSaveDir(t *testing.T) {
	dir := t.TempDir()
	a := newTestApp(t, WithSaveDir(dir), WithFormat(imageio.JPEG))
	assert.Equal(t, filepath.Join(dir, "blurbrush-20240501-090000.jpg"), a.savePath())
	path, err := a.save()
	require.NoError(t, err)
	_, err = imageio.Load(path)
	require.NoError(t, err)
}

func TestSaveWithoutImage(t *testing.T) {
	a, err := New()
	require.NoError(t, err)
	_, err = a.save()
	assert.ErrorIs(t, err, session.ErrNoActiveImage)
	assert.ErrorIs(t, a.copyImage(), session.ErrNoActiveImage)
	assert.Contains(t, a.status(), "no image")
}

func TestCopyAndPaste(t *testing.T) {
	a := newTestApp(t)
	var clip image.Image
	a.writeClipboard = func(img image.Image) error { clip = img; return nil }
	a.readClipboard = func() (image.Image, error) {
		if clip == nil {
			return nil, errors.New("empty")
		}
		return clip, nil
	}
	s := a.bindActions(func() {})

	tap(t, a.Editor(), geom.Pt(30, 20))
	s.trigger(actionCopy)
	require.NotNil(t, clip)
	assert.Equal(t, "image copied to clipboard", a.message)

	a.Editor().Load(pattern(10, 10))
	s.trigger(actionPaste)
	w, h := a.Editor().Size()
	assert.Equal(t, 60, w)
	assert.Equal(t, 40, h)
	assert.False(t, a.state.CanUndo, "a pasted image starts a new history")

	a.readClipboard = func() (image.Image, error) { return nil, errors.New("empty") }
	s.trigger(actionPaste)
	assert.Equal(t, "paste failed", a.message)
	w, _ = a.Editor().Size()
	assert.Equal(t, 60, w, "a failed paste keeps the current image")
}

func TestFitKeepsSmallImagesAtFullSize(t *testing.T) {
	a := newTestApp(t)
	a.fit()
	assert.Equal(t, 1.0, a.view.Zoom)

	a.Editor().Load(pattern(2000, 1000))
	a.fit()
	assert.Less(t, a.view.Zoom, 1.0)
	r := imageRect(a.view, 2000, 1000)
	assert.True(t, r.In(canvasArea(a.width, a.height)), "%v outside %v", r, canvasArea(a.width, a.height))
}

func TestToolStates(t *testing.T) {
	st := session.State{HasImage: true, CanUndo: true}
	s, on := toolState(actionUndo, st, session.ModeBrush)
	assert.False(t, on)
	s, on = toolState(actionRedo, st, session.ModeBrush)
	assert.True(t, on)
	assert.Equal(t, StateDisabled, s)
	s, on = toolState(actionBrush, st, session.ModeBrush)
	assert.True(t, on)
	assert.Equal(t, StatePressed, s)
	_, on = toolState(actionRegions, st, session.ModeBrush)
	assert.False(t, on)
	_, on = toolState(actionRadiusUp, session.State{}, session.ModeBrush)
	assert.True(t, on)
}

func TestRenderFrame(t *testing.T) {
	th := theme.Default()
	red := color.RGBA{255, 0, 0, 255}
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for i := 0; i < len(img.Pix); i += 4 {
		copy(img.Pix[i:], []uint8{red.R, red.G, red.B, red.A})
	}
	ui := newChrome(th, func(string) {})
	st := paintState{
		width:   300,
		height:  200,
		img:     img,
		view:    view{Zoom: 2},
		mode:    session.ModeBrush,
		state:   session.State{HasImage: true},
		params:  session.Params{Radius: 5, Strength: 2},
		theme:   th,
		chrome:  ui,
		trigger: func(string) {},
	}
	dst := image.NewRGBA(image.Rect(0, 0, st.width, st.height))
	renderFrame(context.Background(), dst, st)

	assert.Equal(t, red, dst.RGBAAt(toolbarWidth+19, titleHeight+19))
	assert.Equal(t, th.Background, dst.RGBAAt(toolbarWidth+40, titleHeight+40))
	assert.Equal(t, th.ToolbarBackground, dst.RGBAAt(st.width-1, 1))
	assert.Equal(t, th.StatusBackground, dst.RGBAAt(st.width-1, st.height-1))
	assert.Equal(t, len(toolbarButtons), len(ui.tools))
	assert.NotEmpty(t, ui.shortcuts)

	assert.Equal(t, 0, ui.toolAt(image.Pt(1, titleHeight+1)))
	assert.Equal(t, -1, ui.toolAt(image.Pt(toolbarWidth+5, titleHeight+1)))
	assert.Equal(t, 0, ui.shortcutAt(ui.shortcuts[0].rect.Min))
}

func TestRenderFrameBrushOutline(t *testing.T) {
	th := theme.Default()
	st := paintState{
		width:     300,
		height:    200,
		img:       pattern(100, 80),
		view:      view{Zoom: 1},
		params:    session.Params{Radius: 10, Strength: 2},
		pointer:   image.Pt(toolbarWidth+50, titleHeight+40),
		showBrush: true,
		theme:     th,
		chrome:    newChrome(th, func(string) {}),
		trigger:   func(string) {},
	}
	dst := image.NewRGBA(image.Rect(0, 0, st.width, st.height))
	renderFrame(context.Background(), dst, st)
	assert.Equal(t, th.BrushOutline, dst.RGBAAt(st.pointer.X+10, st.pointer.Y))
}

func TestRenderFrameStopsWhenCanceled(t *testing.T) {
	th := theme.Default()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	dst := image.NewRGBA(image.Rect(0, 0, 100, 100))
	renderFrame(ctx, dst, paintState{width: 100, height: 100, theme: th, chrome: newChrome(th, func(string) {})})
	assert.Equal(t, th.Background, dst.RGBAAt(toolbarWidth+1, 1), "only the background is drawn")
}
