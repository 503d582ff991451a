package appstate

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"github.com/example/blurbrush/internal/clipboard"
	"github.com/example/blurbrush/internal/geom"
	"github.com/example/blurbrush/internal/imageio"
	"github.com/example/blurbrush/internal/notify"
	"github.com/example/blurbrush/internal/session"
	"github.com/example/blurbrush/internal/theme"
)

const (
	maxInitialWidth  = 1280
	maxInitialHeight = 860
	panStep          = 10
)

// AppState holds the editor window configuration and the live editor.
type AppState struct {
	Output  string
	SaveDir string

	mode        session.Mode
	image       image.Image
	editor      session.Editor
	state       session.State
	sessionOpts []session.Option

	theme    *theme.Theme
	notifier *notify.Notifier
	format   imageio.Format
	encode   []imageio.EncodeOption

	now            func() time.Time
	writeClipboard func(image.Image) error
	readClipboard  func() (image.Image, error)

	view          view
	width, height int
	message       string
	messageUntil  time.Time

	updateCh  chan struct{}
	onClose   func()
	closeOnce sync.Once
}

// Option modifies an AppState during creation.
type Option func(*AppState)

// WithImage sets the image opened in the editor.
func WithImage(img image.Image) Option { return func(a *AppState) { a.image = img } }

// WithOutput sets the file written by the save action.
func WithOutput(out string) Option { return func(a *AppState) { a.Output = out } }

// WithSaveDir sets the directory used for saves when no output is set.
func WithSaveDir(dir string) Option { return func(a *AppState) { a.SaveDir = dir } }

// WithMode selects the editor started with the window.
func WithMode(m session.Mode) Option { return func(a *AppState) { a.mode = m } }

// WithTheme sets the window colors.
func WithTheme(t *theme.Theme) Option { return func(a *AppState) { a.theme = t } }

// WithNotifier sets the notifier used after save and copy.
func WithNotifier(n *notify.Notifier) Option { return func(a *AppState) { a.notifier = n } }

// WithFormat sets the export format for outputs without a known extension.
func WithFormat(f imageio.Format) Option { return func(a *AppState) { a.format = f } }

// WithEncodeOptions sets the encoder options used when saving.
func WithEncodeOptions(opts ...imageio.EncodeOption) Option {
	return func(a *AppState) { a.encode = opts }
}

// WithSessionOptions configures every editor the window creates.
func WithSessionOptions(opts ...session.Option) Option {
	return func(a *AppState) { a.sessionOpts = opts }
}

// WithOnClose registers a callback invoked when the window closes.
func WithOnClose(fn func()) Option { return func(a *AppState) { a.onClose = fn } }

// New creates an AppState with the provided options.
func New(opts ...Option) (*AppState, error) {
	a := &AppState{
		mode:           session.ModeBrush,
		theme:          theme.Default(),
		format:         imageio.PNG,
		now:            time.Now,
		writeClipboard: clipboard.WriteImage,
		readClipboard:  clipboard.ReadImage,
		view:           view{Zoom: 1},
		updateCh:       make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(a)
	}
	ed, err := a.newEditor(a.mode)
	if err != nil {
		return nil, err
	}
	if a.image != nil {
		ed.Load(a.image)
	}
	a.editor = ed
	a.state = ed.State()
	return a, nil
}

// Editor returns the live editor.
func (a *AppState) Editor() session.Editor { return a.editor }

func (a *AppState) newEditor(m session.Mode) (session.Editor, error) {
	opts := make([]session.Option, 0, len(a.sessionOpts)+1)
	opts = append(opts, a.sessionOpts...)
	opts = append(opts, session.WithListener(editorListener{a}))
	return session.New(m, opts...)
}

// editorListener forwards editor notifications to the window.
type editorListener struct{ a *AppState }

func (l editorListener) OnRedraw(*image.RGBA) { l.a.NotifyImageChanged() }

func (l editorListener) OnState(s session.State) {
	l.a.state = s
	l.a.NotifyImageChanged()
}

// NotifyImageChanged requests a repaint of the UI when the image mutates.
func (a *AppState) NotifyImageChanged() {
	if a.updateCh == nil {
		return
	}
	select {
	case a.updateCh <- struct{}{}:
	default:
	}
}

func (a *AppState) notifyClose() {
	a.closeOnce.Do(func() {
		if a.onClose != nil {
			a.onClose()
		}
	})
}

// syncViewport hands the current view to the editor so device coordinates
// map onto the drawn image.
func (a *AppState) syncViewport() {
	a.editor.SetViewport(a.view.viewport())
}

// status is the summary shown in the title bar.
func (a *AppState) status() string {
	w, h := a.editor.Size()
	if w == 0 {
		return fmt.Sprintf("%s, no image (^V to paste)", a.editor.Mode())
	}
	s := fmt.Sprintf("%s, %dx%d", a.editor.Mode(), w, h)
	if r, ok := a.editor.(*session.Regions); ok {
		s += fmt.Sprintf(", %d regions", len(r.Regions()))
	}
	if a.state.Gesture != session.Idle {
		s += ", " + a.state.Gesture.String()
	}
	return s
}

// logPointer logs failed pointer calls other than the missing image, which
// the disabled controls already show.
func (a *AppState) logPointer(op string, err error) {
	if err != nil && !errors.Is(err, session.ErrNoActiveImage) {
		log.Printf("%s: %v", op, err)
	}
}

// Run executes the UI loop using shiny's driver.
func (a *AppState) Run() { driver.Main(a.Main) }

func (a *AppState) Main(s screen.Screen) {
	if w := measureToolbar(); w > toolbarWidth {
		toolbarWidth = w
	}
	bw, bh := a.editor.Size()
	a.width = min(max(bw, 320), maxInitialWidth) + toolbarWidth
	a.height = min(max(bh, 240), maxInitialHeight) + titleHeight + bottomHeight
	w, err := s.NewWindow(&screen.NewWindowOptions{Width: a.width, Height: a.height, Title: "blurbrush"})
	if err != nil {
		log.Fatalf("new window: %v", err)
	}
	defer w.Release()

	defer a.notifyClose()

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-a.updateCh:
				w.Send(paint.Event{})
			case <-done:
				return
			}
		}
	}()
	defer close(done)

	var paintMu sync.Mutex
	var paintCancel context.CancelFunc
	var dropCount int
	paintCh := make(chan paintState, 1)
	go func() {
		for st := range paintCh {
			ctx, cancel := context.WithCancel(context.Background())
			paintMu.Lock()
			paintCancel = cancel
			paintMu.Unlock()
			drawFrame(ctx, s, w, st)
			paintMu.Lock()
			paintCancel = nil
			if ctx.Err() == nil {
				dropCount = 0
			}
			paintMu.Unlock()
			cancel()
		}
	}()
	defer close(paintCh)
	stopPaint := func() {
		paintMu.Lock()
		if paintCancel != nil {
			paintCancel()
		}
		paintMu.Unlock()
	}

	a.fit()
	quit := false
	actions := a.bindActions(func() { quit = true })
	trigger := func(name string) {
		actions.trigger(name)
		w.Send(paint.Event{})
	}
	ui := newChrome(a.theme, trigger)

	var drawing, panning bool
	var panStart image.Point
	var panOffset geom.Point
	var pressAt image.Point
	var hover image.Point
	var overImage bool

	// endGesture finishes the gesture in progress when the pointer leaves the
	// image or the window loses focus.
	endGesture := func() {
		if drawing {
			drawing = false
			a.logPointer("pointer leave", a.editor.PointerLeave())
		}
	}

	for {
		if quit {
			endGesture()
			stopPaint()
			return
		}
		e := w.NextEvent()
		switch e := e.(type) {
		case lifecycle.Event:
			if e.Crosses(lifecycle.StageFocused) == lifecycle.CrossOff {
				endGesture()
			}
			if e.To == lifecycle.StageDead {
				stopPaint()
				return
			}
		case size.Event:
			a.width = e.WidthPx
			a.height = e.HeightPx
			w.Send(paint.Event{})
		case paint.Event:
			paintMu.Lock()
			if paintCancel != nil {
				if dropCount < frameDropThreshold {
					paintCancel()
					dropCount++
				}
			}
			paintMu.Unlock()
			st := paintState{
				width:        a.width,
				height:       a.height,
				img:          a.editor.Snapshot(),
				view:         a.view,
				mode:         a.editor.Mode(),
				state:        a.state,
				params:       a.editor.Params(),
				pointer:      hover,
				showBrush:    overImage,
				dragging:     drawing && a.editor.Mode() == session.ModeRegions,
				dragFrom:     pressAt,
				status:       a.status(),
				message:      a.message,
				messageUntil: a.messageUntil,
				theme:        a.theme,
				chrome:       ui,
				trigger:      trigger,
			}
			select {
			case paintCh <- st:
			default:
				select {
				case <-paintCh:
				default:
				}
				paintCh <- st
			}
		case mouse.Event:
			p := image.Pt(int(e.X), int(e.Y))
			dev := geom.Pt(float64(e.X), float64(e.Y))
			bw, bh := a.editor.Size()
			onImage := p.In(imageRect(a.view, bw, bh).Intersect(canvasArea(a.width, a.height)))
			hover = p
			overImage = onImage && a.editor.Mode() == session.ModeBrush

			if e.Button.IsWheel() {
				if e.Direction == mouse.DirStep && e.Modifiers&key.ModControl != 0 {
					switch e.Button {
					case mouse.ButtonWheelUp:
						a.view = a.view.zoomBy(zoomStep)
					case mouse.ButtonWheelDown:
						a.view = a.view.zoomBy(1 / zoomStep)
					}
					w.Send(paint.Event{})
				}
				continue
			}
			if a.message != "" && a.now().Before(a.messageUntil) && e.Direction == mouse.DirPress {
				a.messageUntil = time.Time{}
				w.Send(paint.Event{})
				continue
			}

			if drawing {
				a.syncViewport()
				switch {
				case e.Direction == mouse.DirRelease && e.Button == mouse.ButtonLeft:
					drawing = false
					a.logPointer("pointer up", a.editor.PointerUp(dev))
				case !onImage:
					endGesture()
				case e.Direction == mouse.DirNone:
					a.logPointer("pointer move", a.editor.PointerMove(dev))
				}
				w.Send(paint.Event{})
				continue
			}
			if panning {
				if e.Direction == mouse.DirRelease {
					panning = false
					continue
				}
				dx := float64(p.X-panStart.X) / a.view.Zoom
				dy := float64(p.Y-panStart.Y) / a.view.Zoom
				a.view.Offset = geom.Pt(panOffset.X+dx, panOffset.Y+dy)
				w.Send(paint.Event{})
				continue
			}

			tool, sc := -1, -1
			switch {
			case p.Y >= a.height-bottomHeight:
				sc = ui.shortcutAt(p)
			case p.X < toolbarWidth && p.Y >= titleHeight:
				tool = ui.toolAt(p)
			}
			changed := ui.hover(tool, sc)
			if e.Direction == mouse.DirPress && e.Button == mouse.ButtonLeft {
				switch {
				case sc >= 0:
					ui.activateShortcut(sc)
					continue
				case tool >= 0:
					ui.activateTool(tool)
					continue
				case onImage:
					a.syncViewport()
					err := a.editor.PointerDown(dev)
					a.logPointer("pointer down", err)
					drawing = err == nil
					pressAt = p
				}
			}
			if e.Direction == mouse.DirPress && (e.Button == mouse.ButtonMiddle || e.Button == mouse.ButtonRight) {
				panning = true
				panStart = p
				panOffset = a.view.Offset
			}
			if changed || e.Direction != mouse.DirNone || a.editor.Mode() == session.ModeBrush {
				w.Send(paint.Event{})
			}
		case key.Event:
			if e.Direction != key.DirPress {
				continue
			}
			if name, ok := actions.lookup(e.Rune, e.Code, e.Modifiers); ok {
				if drawing && name != actionQuit {
					endGesture()
				}
				trigger(name)
				continue
			}
			switch e.Code {
			case key.CodeLeftArrow:
				a.view.Offset.X -= panStep
			case key.CodeRightArrow:
				a.view.Offset.X += panStep
			case key.CodeUpArrow:
				a.view.Offset.Y -= panStep
			case key.CodeDownArrow:
				a.view.Offset.Y += panStep
			default:
				continue
			}
			w.Send(paint.Event{})
		}
	}
}
