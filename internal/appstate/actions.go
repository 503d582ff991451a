package appstate

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
	"unicode"

	"golang.org/x/mobile/event/key"

	"github.com/example/blurbrush/internal/history"
	"github.com/example/blurbrush/internal/imageio"
	"github.com/example/blurbrush/internal/session"
)

const (
	actionBrush        = "brush"
	actionRegions      = "regions"
	actionUndo         = "undo"
	actionRedo         = "redo"
	actionRadiusDown   = "radius-"
	actionRadiusUp     = "radius+"
	actionStrengthDown = "strength-"
	actionStrengthUp   = "strength+"
	actionSave         = "save"
	actionCopy         = "copy"
	actionPaste        = "paste"
	actionZoomIn       = "zoomin"
	actionZoomOut      = "zoomout"
	actionFit          = "fit"
	actionQuit         = "quit"
)

const (
	radiusStep   = 5
	strengthStep = 2
	zoomStep     = 1.25
	messageTime  = 2 * time.Second
)

// actionSet maps action names to handlers and keyboard shortcuts to action
// names.
type actionSet struct {
	fns  map[string]func()
	keys map[KeyShortcut]string
}

func newActionSet() *actionSet {
	return &actionSet{fns: map[string]func(){}, keys: map[KeyShortcut]string{}}
}

func (s *actionSet) register(name string, keys KeyboardShortcuts, fn func()) {
	s.fns[name] = fn
	if keys != nil {
		for _, sc := range keys.KeyboardShortcuts() {
			s.keys[sc] = name
		}
	}
}

// lookup returns the action bound to a key press. Runes are matched case
// insensitively; keys without a rune are matched by code.
func (s *actionSet) lookup(r rune, code key.Code, mods key.Modifiers) (string, bool) {
	if r > 0 {
		if name, ok := s.keys[KeyShortcut{Rune: unicode.ToLower(r), Modifiers: mods}]; ok {
			return name, true
		}
	}
	name, ok := s.keys[KeyShortcut{Code: code, Modifiers: mods}]
	return name, ok
}

func (s *actionSet) trigger(name string) bool {
	fn, ok := s.fns[name]
	if ok {
		fn()
	}
	return ok
}

// bindActions registers every editor action. quit is invoked for the quit
// action; the other actions only touch the AppState.
func (a *AppState) bindActions(quit func()) *actionSet {
	s := newActionSet()
	s.register(actionBrush, shortcutList{{Rune: 'b'}}, func() { a.switchMode(session.ModeBrush) })
	s.register(actionRegions, shortcutList{{Rune: 'p'}}, func() { a.switchMode(session.ModeRegions) })
	s.register(actionUndo, shortcutList{{Rune: 'z', Modifiers: key.ModControl}}, func() { a.undo() })
	s.register(actionRedo, shortcutList{
		{Rune: 'y', Modifiers: key.ModControl},
		{Rune: 'z', Modifiers: key.ModControl | key.ModShift},
	}, func() { a.redo() })
	s.register(actionRadiusDown, shortcutList{{Rune: '['}}, func() { a.stepParams(-radiusStep, 0) })
	s.register(actionRadiusUp, shortcutList{{Rune: ']'}}, func() { a.stepParams(radiusStep, 0) })
	s.register(actionStrengthDown, shortcutList{{Rune: '-'}}, func() { a.stepParams(0, -strengthStep) })
	s.register(actionStrengthUp, shortcutList{{Rune: '='}}, func() { a.stepParams(0, strengthStep) })
	s.register(actionSave, shortcutList{{Rune: 's', Modifiers: key.ModControl}}, func() {
		if path, err := a.save(); err != nil {
			a.fail("save", err)
		} else {
			a.flash("saved " + path)
		}
	})
	s.register(actionCopy, shortcutList{{Rune: 'c', Modifiers: key.ModControl}}, func() {
		if err := a.copyImage(); err != nil {
			a.fail("copy", err)
		} else {
			a.flash("image copied to clipboard")
		}
	})
	s.register(actionPaste, shortcutList{{Rune: 'v', Modifiers: key.ModControl}}, func() {
		if err := a.paste(); err != nil {
			a.fail("paste", err)
		} else {
			a.flash("image pasted")
		}
	})
	s.register(actionZoomIn, shortcutList{{Rune: '=', Modifiers: key.ModControl}}, func() { a.view = a.view.zoomBy(zoomStep) })
	s.register(actionZoomOut, shortcutList{{Rune: '-', Modifiers: key.ModControl}}, func() { a.view = a.view.zoomBy(1 / zoomStep) })
	s.register(actionFit, shortcutList{{Rune: '0', Modifiers: key.ModControl}}, func() { a.fit() })
	s.register(actionQuit, shortcutList{{Rune: 'q'}}, quit)
	return s
}

// switchMode replaces the editor with one of the given mode. The current
// picture becomes the new editor's image, so edits survive the switch but the
// history starts over.
func (a *AppState) switchMode(m session.Mode) {
	if a.editor != nil && a.editor.Mode() == m {
		return
	}
	ed, err := a.newEditor(m)
	if err != nil {
		a.fail("mode", err)
		return
	}
	if a.editor != nil {
		ed.SetParams(a.editor.Params())
		ed.SetViewport(a.editor.Viewport())
		if img := a.editor.Snapshot(); img != nil {
			ed.Load(img)
		}
	}
	a.editor = ed
	a.state = ed.State()
	log.Printf("mode %s", m)
}

func (a *AppState) undo() {
	if err := a.editor.Undo(); err != nil && !isRefusal(err) {
		a.fail("undo", err)
	}
}

func (a *AppState) redo() {
	if err := a.editor.Redo(); err != nil && !isRefusal(err) {
		a.fail("redo", err)
	}
}

// isRefusal reports errors that leave the editor unchanged and need no
// message.
func isRefusal(err error) bool {
	return errors.Is(err, history.ErrNothingToUndo) ||
		errors.Is(err, history.ErrNothingToRedo) ||
		errors.Is(err, session.ErrNoActiveImage)
}

func (a *AppState) stepParams(dr, ds float64) {
	p := a.editor.Params()
	p.Radius += dr
	p.Strength += ds
	a.editor.SetParams(p)
}

// savePath returns where Ctrl+S writes: the configured output or a
// timestamped file in the save directory.
func (a *AppState) savePath() string {
	if a.Output != "" {
		return a.Output
	}
	name := fmt.Sprintf("blurbrush-%s%s", a.now().Format("20060102-150405"), a.format.Ext())
	return filepath.Join(a.SaveDir, name)
}

func (a *AppState) save() (string, error) {
	if !a.editor.HasImage() {
		return "", session.ErrNoActiveImage
	}
	path := a.savePath()
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	format := imageio.FormatFromFilename(path, a.format)
	if err := a.editor.Export(f, format, a.encode...); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	log.Printf("saved %s", path)
	a.notifier.Save(path)
	return path, nil
}

func (a *AppState) copyImage() error {
	img := a.editor.Snapshot()
	if img == nil {
		return session.ErrNoActiveImage
	}
	if err := a.writeClipboard(img); err != nil {
		return err
	}
	a.notifier.Copy("image", img)
	return nil
}

func (a *AppState) paste() error {
	img, err := a.readClipboard()
	if err != nil {
		return err
	}
	a.editor.Load(img)
	a.fit()
	return nil
}

// fit resets the view so the whole image is visible.
func (a *AppState) fit() {
	w, h := a.editor.Size()
	a.view = view{Zoom: fitZoom(w, h, a.width, a.height)}
	if a.view.Zoom > 1 {
		a.view.Zoom = 1
	}
}

func (a *AppState) flash(msg string) {
	log.Print(msg)
	a.message = msg
	a.messageUntil = a.now().Add(messageTime)
}

func (a *AppState) fail(what string, err error) {
	log.Printf("%s: %v", what, err)
	a.message = fmt.Sprintf("%s failed", what)
	a.messageUntil = a.now().Add(messageTime)
}
