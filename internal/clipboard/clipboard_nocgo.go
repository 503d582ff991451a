//go:build (linux || freebsd || openbsd || netbsd || dragonfly) && !cgo

package clipboard

import (
	"fmt"
	"image"
	"os"
	"sync"
)

var (
	initOnce       sync.Once
	initErr        error
	errNoDisplay   = fmt.Errorf("%w: DISPLAY or WAYLAND_DISPLAY is not set", ErrUnavailable)
	errCGODisabled = fmt.Errorf("%w: built without cgo", ErrUnavailable)
)

// ensureInit always fails; the X11 and Wayland backends need cgo.
func ensureInit() error {
	initOnce.Do(func() {
		initErr = errCGODisabled
		if !hasDisplay() {
			initErr = errNoDisplay
		}
	})
	return initErr
}

func hasDisplay() bool {
	return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
}

func WriteImage(image.Image) error {
	return fmt.Errorf("write image: %w", ensureInit())
}

func ReadImage() (image.Image, error) {
	return nil, fmt.Errorf("read image: %w", ensureInit())
}

func WriteText(string) error {
	return fmt.Errorf("write text: %w", ensureInit())
}
