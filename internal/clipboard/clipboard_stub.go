//go:build !(linux || freebsd || openbsd || netbsd || dragonfly)

package clipboard

import (
	"fmt"
	"image"
	"runtime"
)

var errUnsupported = fmt.Errorf("%w on %s", ErrUnavailable, runtime.GOOS)

func WriteImage(image.Image) error {
	return fmt.Errorf("write image: %w", errUnsupported)
}

func ReadImage() (image.Image, error) {
	return nil, fmt.Errorf("read image: %w", errUnsupported)
}

func WriteText(string) error {
	return fmt.Errorf("write text: %w", errUnsupported)
}
