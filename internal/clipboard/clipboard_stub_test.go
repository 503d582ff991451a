//go:build !(linux || freebsd || openbsd || netbsd || dragonfly)

package clipboard

import (
	"errors"
	"image"
	"testing"
)

func TestUnsupportedPlatform(t *testing.T) {
	if _, err := ReadImage(); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if err := WriteImage(image.NewRGBA(image.Rect(0, 0, 1, 1))); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable from WriteImage, got %v", err)
	}
	if err := WriteText("x"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable from WriteText, got %v", err)
	}
}
