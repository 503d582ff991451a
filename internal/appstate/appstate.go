package appstate

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log"
	"math"
	"sync"
	"time"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"

	"github.com/example/blurbrush/internal/geom"
	"github.com/example/blurbrush/internal/session"
	"github.com/example/blurbrush/internal/theme"
)

const (
	titleHeight  = 24
	bottomHeight = 24
	buttonHeight = 24
)

var toolbarWidth = 64

// frameDropThreshold specifies how many consecutive frames can be canceled
// before a draw is allowed to complete to keep the UI responsive.
const frameDropThreshold = 10

const (
	minZoom = 0.1
	maxZoom = 16
)

var messageFace font.Face

func init() {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		log.Fatalf("parse font: %v", err)
	}
	messageFace, err = opentype.NewFace(f, &opentype.FaceOptions{Size: 32, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		log.Fatalf("font face: %v", err)
	}
}

// view is the zoom and pan of the canvas. Offset is stored in buffer
// coordinates so it is independent of zoom.
type view struct {
	Zoom   float64
	Offset geom.Point
}

func (v view) zoomBy(f float64) view {
	v.Zoom = math.Max(minZoom, math.Min(maxZoom, v.Zoom*f))
	return v
}

func canvasArea(winW, winH int) image.Rectangle {
	return image.Rect(toolbarWidth, titleHeight, winW, winH-bottomHeight)
}

func fitZoom(bufW, bufH, winW, winH int) float64 {
	area := canvasArea(winW, winH)
	z := geom.FitZoom(bufW, bufH, float64(area.Dx()), float64(area.Dy()))
	return math.Max(minZoom, math.Min(maxZoom, z))
}

// viewport anchors the canvas origin just right of the toolbar and below the
// title bar so that the image position remains stable when the window is
// resized.
func (v view) viewport() geom.Viewport {
	return geom.Viewport{
		Origin: geom.Pt(float64(toolbarWidth), float64(titleHeight)),
		Zoom:   v.Zoom,
		Offset: v.Offset,
	}
}

// imageRect returns the destination rectangle for drawing a bufW x bufH
// buffer with v.
func imageRect(v view, bufW, bufH int) image.Rectangle {
	d := v.viewport().Display(bufW, bufH)
	x0 := int(math.Round(d.X))
	y0 := int(math.Round(d.Y))
	return image.Rect(x0, y0, x0+int(math.Round(d.W)), y0+int(math.Round(d.H)))
}

// drawCheckerboard fills rect of dst with a checkerboard pattern of the given
// colors. size controls the checker square size.
func drawCheckerboard(dst *image.RGBA, rect image.Rectangle, size int, light, dark color.Color) {
	rect = rect.Intersect(dst.Bounds())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if ((x/size)+(y/size))%2 == 0 {
				dst.Set(x, y, light)
			} else {
				dst.Set(x, y, dark)
			}
		}
	}
}

func drawLine(img *image.RGBA, x0, y0, x1, y1 int, col color.Color) {
	drawLineClip(img, img.Bounds(), x0, y0, x1, y1, col)
}

func drawLineClip(img *image.RGBA, clip image.Rectangle, x0, y0, x1, y1 int, col color.Color) {
	clip = clip.Intersect(img.Bounds())
	dx := math.Abs(float64(x1 - x0))
	dy := math.Abs(float64(y1 - y0))
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy
	for {
		if image.Pt(x0, y0).In(clip) {
			img.Set(x0, y0, col)
		}
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func drawRect(img *image.RGBA, rect image.Rectangle, col color.Color) {
	drawLine(img, rect.Min.X, rect.Min.Y, rect.Max.X-1, rect.Min.Y, col)
	drawLine(img, rect.Max.X-1, rect.Min.Y, rect.Max.X-1, rect.Max.Y-1, col)
	drawLine(img, rect.Max.X-1, rect.Max.Y-1, rect.Min.X, rect.Max.Y-1, col)
	drawLine(img, rect.Min.X, rect.Max.Y-1, rect.Min.X, rect.Min.Y, col)
}

// drawCircleThin draws a one pixel midpoint circle clipped to img and to clip.
func drawCircleThin(img *image.RGBA, clip image.Rectangle, cx, cy, r int, col color.Color) {
	clip = clip.Intersect(img.Bounds())
	x := r
	y := 0
	err := 1 - r
	for x >= y {
		pts := [][2]int{{x, y}, {y, x}, {-y, x}, {-x, y}, {-x, -y}, {-y, -x}, {y, -x}, {x, -y}}
		for _, p := range pts {
			pt := image.Pt(cx+p[0], cy+p[1])
			if pt.In(clip) {
				img.Set(pt.X, pt.Y, col)
			}
		}
		y++
		if err < 0 {
			err += 2*y + 1
		} else {
			x--
			err += 2 * (y - x + 1)
		}
	}
}

// drawRegionPreview outlines the region a drag from a to b would commit.
func drawRegionPreview(dst *image.RGBA, clip image.Rectangle, a, b image.Point, r int, col color.Color) {
	drawCircleThin(dst, clip, a.X, a.Y, r, col)
	if a == b {
		return
	}
	drawCircleThin(dst, clip, b.X, b.Y, r, col)
	drawLineClip(dst, clip, a.X, a.Y, b.X, b.Y, col)
}

// KeyShortcut describes a keyboard combination that triggers an action.
type KeyShortcut struct {
	Rune      rune
	Code      key.Code
	Modifiers key.Modifiers
}

// KeyboardShortcuts returns the shortcuts associated with an action.
type KeyboardShortcuts interface {
	KeyboardShortcuts() []KeyShortcut
}

// shortcutList is a helper to easily satisfy the KeyboardShortcuts interface.
type shortcutList []KeyShortcut

func (s shortcutList) KeyboardShortcuts() []KeyShortcut { return []KeyShortcut(s) }

// ButtonState describes the visual state of a button.
type ButtonState int

const (
	StateDefault ButtonState = iota
	StateHover
	StatePressed
	StateDisabled
)

// Button represents an interactive UI element.
// Activate performs the button's action when clicked.
type Button interface {
	Draw(dst *image.RGBA, state ButtonState)
	Rect() image.Rectangle
	SetRect(r image.Rectangle)
	Activate()
}

// CacheButton wraps another Button and caches its rendered states.
// It delegates all interface methods to the wrapped Button while
// caching the result of Draw for each state.
type CacheButton struct {
	Button
	cache [4]*image.RGBA
}

var _ Button = (*CacheButton)(nil)

func (cb *CacheButton) Draw(dst *image.RGBA, state ButtonState) {
	if cb.cache[state] == nil {
		rect := cb.Button.Rect()
		img := image.NewRGBA(rect)
		cb.Button.Draw(img, state)
		cb.cache[state] = img
	}
	draw.Draw(dst, cb.Button.Rect(), cb.cache[state], cb.Button.Rect().Min, draw.Src)
}

func (cb *CacheButton) Rect() image.Rectangle { return cb.Button.Rect() }

func (cb *CacheButton) SetRect(r image.Rectangle) {
	if r != cb.Button.Rect() {
		cb.Button.SetRect(r)
		cb.cache = [4]*image.RGBA{}
	}
}

func (cb *CacheButton) Activate() { cb.Button.Activate() }

// ToolButton is a toolbar button bound to a named action.
type ToolButton struct {
	label  string
	action string
	theme  *theme.Theme
	rect   image.Rectangle
	// onSelect is called when the button is activated.
	onSelect func()
}

func (tb *ToolButton) Draw(dst *image.RGBA, state ButtonState) {
	bg := tb.theme.ButtonBackground
	fg := tb.theme.ButtonText
	switch state {
	case StateHover:
		bg = shade(bg, 0.9)
	case StatePressed:
		bg = tb.theme.ButtonActive
	case StateDisabled:
		fg = tb.theme.ButtonTextDisabled
	}
	draw.Draw(dst, tb.rect, &image.Uniform{bg}, image.Point{}, draw.Src)
	drawRect(dst, tb.rect, tb.theme.ButtonBorder)
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(fg), Face: basicfont.Face7x13,
		Dot: fixed.P(tb.rect.Min.X+4, tb.rect.Min.Y+16)}
	d.DrawString(tb.label)
}

func (tb *ToolButton) Rect() image.Rectangle { return tb.rect }

func (tb *ToolButton) SetRect(r image.Rectangle) {
	if r != tb.rect {
		tb.rect = r
	}
}

func (tb *ToolButton) Activate() {
	if tb.onSelect != nil {
		tb.onSelect()
	}
}

// Shortcut is a clickable label in the bottom bar.
type Shortcut struct {
	label  string
	action func()
	rect   image.Rectangle
	theme  *theme.Theme
}

func (s *Shortcut) Draw(dst *image.RGBA, state ButtonState) {
	col := s.theme.ButtonBackground
	if state == StateHover {
		col = shade(col, 0.9)
	}
	draw.Draw(dst, s.rect, &image.Uniform{col}, image.Point{}, draw.Src)
	drawRect(dst, s.rect, s.theme.ButtonBorder)
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(s.theme.ButtonText), Face: basicfont.Face7x13,
		Dot: fixed.P(s.rect.Min.X+2, s.rect.Min.Y+14)}
	d.DrawString(s.label)
}

func (s *Shortcut) Rect() image.Rectangle { return s.rect }

func (s *Shortcut) SetRect(r image.Rectangle) {
	if r != s.rect {
		s.rect = r
	}
}

func (s *Shortcut) Activate() {
	if s.action != nil {
		s.action()
	}
}

func shade(c color.RGBA, f float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * f),
		G: uint8(float64(c.G) * f),
		B: uint8(float64(c.B) * f),
		A: c.A,
	}
}

// chrome holds the widgets laid out by the last frame so the event loop can
// hit-test them.
type chrome struct {
	mu            sync.Mutex
	tools         []*CacheButton
	shortcuts     []Shortcut
	hoverTool     int
	hoverShortcut int
}

func newChrome(th *theme.Theme, trigger func(string)) *chrome {
	c := &chrome{hoverTool: -1, hoverShortcut: -1}
	for _, tb := range toolbarButtons {
		name := tb.action
		c.tools = append(c.tools, &CacheButton{Button: &ToolButton{
			label:    tb.label,
			action:   name,
			theme:    th,
			onSelect: func() { trigger(name) },
		}})
	}
	return c
}

var toolbarButtons = []struct{ label, action string }{
	{"B:Brush", actionBrush},
	{"P:Regions", actionRegions},
	{"^Z:Undo", actionUndo},
	{"^Y:Redo", actionRedo},
	{"[:R-", actionRadiusDown},
	{"]:R+", actionRadiusUp},
	{"-:S-", actionStrengthDown},
	{"=:S+", actionStrengthUp},
}

// measureToolbar widens the toolbar so every label fits.
func measureToolbar() int {
	d := &font.Drawer{Face: basicfont.Face7x13}
	max := d.MeasureString("blurbrush").Ceil() + 8
	for _, tb := range toolbarButtons {
		w := d.MeasureString(tb.label).Ceil() + 8
		if w > max {
			max = w
		}
	}
	return max
}

func (c *chrome) toolAt(p image.Point) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, cb := range c.tools {
		if p.In(cb.Rect()) {
			return i
		}
	}
	return -1
}

func (c *chrome) shortcutAt(p image.Point) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.shortcuts {
		if p.In(c.shortcuts[i].rect) {
			return i
		}
	}
	return -1
}

// hover records the hovered widgets and reports whether anything changed.
func (c *chrome) hover(tool, shortcut int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	changed := tool != c.hoverTool || shortcut != c.hoverShortcut
	c.hoverTool, c.hoverShortcut = tool, shortcut
	return changed
}

// activateTool runs the toolbar button i.
func (c *chrome) activateTool(i int) {
	c.mu.Lock()
	b := c.tools[i]
	c.mu.Unlock()
	b.Activate()
}

// activateShortcut runs the bottom bar entry i.
func (c *chrome) activateShortcut(i int) {
	c.mu.Lock()
	sc := c.shortcuts[i]
	c.mu.Unlock()
	sc.Activate()
}

// toolState returns how the toolbar button for action is drawn.
func toolState(action string, st session.State, mode session.Mode) (ButtonState, bool) {
	switch action {
	case actionBrush:
		return StatePressed, mode == session.ModeBrush
	case actionRegions:
		return StatePressed, mode == session.ModeRegions
	case actionUndo:
		return StateDisabled, !st.CanUndo
	case actionRedo:
		return StateDisabled, !st.CanRedo
	case actionRadiusDown, actionRadiusUp, actionStrengthDown, actionStrengthUp:
		return StateDisabled, !st.HasImage
	}
	return StateDefault, false
}

func drawTitle(dst *image.RGBA, th *theme.Theme, width int, status string) {
	draw.Draw(dst, image.Rect(0, 0, width, titleHeight), &image.Uniform{th.ToolbarBackground}, image.Point{}, draw.Src)
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(th.Foreground), Face: basicfont.Face7x13, Dot: fixed.P(4, 16)}
	d.DrawString("blurbrush")
	d.Dot = fixed.P(toolbarWidth+4, 16)
	d.DrawString(status)
}

func drawToolbar(dst *image.RGBA, th *theme.Theme, height int, c *chrome, st session.State, mode session.Mode, p session.Params) {
	c.mu.Lock()
	defer c.mu.Unlock()
	draw.Draw(dst, image.Rect(0, titleHeight, toolbarWidth, height-bottomHeight), &image.Uniform{th.ToolbarBackground}, image.Point{}, draw.Src)
	y := titleHeight
	for i, cb := range c.tools {
		cb.SetRect(image.Rect(0, y, toolbarWidth, y+buttonHeight))
		state := StateDefault
		if s, on := toolState(cb.Button.(*ToolButton).action, st, mode); on {
			state = s
		} else if i == c.hoverTool {
			state = StateHover
		}
		cb.Draw(dst, state)
		y += buttonHeight
	}
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(th.Foreground), Face: basicfont.Face7x13}
	y += 16
	d.Dot = fixed.P(4, y)
	d.DrawString(fmt.Sprintf("r %.0f", p.Radius))
	y += 16
	d.Dot = fixed.P(4, y)
	d.DrawString(fmt.Sprintf("s %.0f", p.Strength))
}

func drawShortcuts(dst *image.RGBA, th *theme.Theme, width, height int, c *chrome, z float64, trigger func(string)) {
	rect := image.Rect(0, height-bottomHeight, width, height)
	draw.Draw(dst, rect, &image.Uniform{th.StatusBackground}, image.Point{}, draw.Src)
	shortcuts := []Shortcut{
		{label: "^S:save", action: func() { trigger(actionSave) }},
		{label: "^C:copy image", action: func() { trigger(actionCopy) }},
		{label: "^V:paste", action: func() { trigger(actionPaste) }},
		{label: fmt.Sprintf("^0:fit (%.0f%%)", z*100), action: func() { trigger(actionFit) }},
		{label: "Q:quit", action: func() { trigger(actionQuit) }},
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shortcuts = c.shortcuts[:0]
	x := 4
	y := height - bottomHeight + 16
	meas := &font.Drawer{Face: basicfont.Face7x13}
	for i := range shortcuts {
		sc := &shortcuts[i]
		sc.theme = th
		w := meas.MeasureString(sc.label).Ceil()
		sc.SetRect(image.Rect(x-2, y-14, x+w+2, y+4))
		state := StateDefault
		if i == c.hoverShortcut {
			state = StateHover
		}
		sc.Draw(dst, state)
		c.shortcuts = append(c.shortcuts, *sc)
		x = sc.rect.Max.X + 8
	}
}

type paintState struct {
	width, height int
	img           *image.RGBA
	view          view
	mode          session.Mode
	state         session.State
	params        session.Params
	pointer       image.Point
	showBrush     bool
	dragging      bool
	dragFrom      image.Point
	status        string
	message       string
	messageUntil  time.Time
	theme         *theme.Theme
	chrome        *chrome
	trigger       func(string)
}

func drawFrame(ctx context.Context, s screen.Screen, w screen.Window, st paintState) {
	b, err := s.NewBuffer(image.Point{st.width, st.height})
	if err != nil {
		log.Printf("new buffer: %v", err)
		return
	}
	defer b.Release()
	renderFrame(ctx, b.RGBA(), st)
	if ctx.Err() != nil {
		return
	}
	w.Upload(image.Point{}, b, b.Bounds())
	w.Publish()
}

// renderFrame draws one complete frame into dst. It returns early when ctx
// is canceled.
func renderFrame(ctx context.Context, dst *image.RGBA, st paintState) {
	th := st.theme
	area := canvasArea(st.width, st.height)
	draw.Draw(dst, dst.Bounds(), &image.Uniform{th.Background}, image.Point{}, draw.Src)
	if ctx.Err() != nil {
		return
	}

	if st.img != nil {
		bw, bh := st.img.Rect.Dx(), st.img.Rect.Dy()
		r := imageRect(st.view, bw, bh)
		vis := r.Intersect(area)
		drawCheckerboard(dst, vis, 8, th.CheckerLight, th.CheckerDark)
		if ctx.Err() != nil {
			return
		}
		scaler := xdraw.NearestNeighbor
		if st.view.Zoom < 1 {
			scaler = xdraw.ApproxBiLinear
		}
		scaler.Scale(dst, r, st.img, st.img.Bounds(), draw.Over, nil)
		if ctx.Err() != nil {
			return
		}
		if st.showBrush && st.pointer.In(vis) {
			rad := int(math.Round(st.params.Radius * st.view.Zoom))
			drawCircleThin(dst, vis, st.pointer.X, st.pointer.Y, rad, th.BrushOutline)
		}
		if st.dragging {
			drawRegionPreview(dst, vis, st.dragFrom, st.pointer, int(math.Round(st.params.Radius*st.view.Zoom)), th.BrushOutline)
		}
	}
	if ctx.Err() != nil {
		return
	}

	drawTitle(dst, th, st.width, st.status)
	drawToolbar(dst, th, st.height, st.chrome, st.state, st.mode, st.params)
	drawShortcuts(dst, th, st.width, st.height, st.chrome, st.view.Zoom, st.trigger)
	if ctx.Err() != nil {
		return
	}

	if st.message != "" && time.Now().Before(st.messageUntil) {
		d := &font.Drawer{Dst: dst, Src: image.NewUniform(th.Foreground), Face: messageFace}
		wmsg := d.MeasureString(st.message).Ceil()
		ascent := messageFace.Metrics().Ascent.Ceil()
		descent := messageFace.Metrics().Descent.Ceil()
		px := (st.width - wmsg) / 2
		py := (st.height-ascent-descent)/2 + ascent
		rect := image.Rect(px-8, py-ascent-8, px+wmsg+8, py+descent+8)
		bg := th.StatusBackground
		bg.A = 230
		draw.Draw(dst, rect, &image.Uniform{bg}, image.Point{}, draw.Over)
		drawRect(dst, rect, th.ButtonBorder)
		d.Dot = fixed.P(px, py)
		d.DrawString(st.message)
	}
}
