// Package imageio decodes source images and encodes edited buffers.
package imageio

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// ErrUnsupportedFormat is returned for export formats that cannot be written.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Format is an export format.
type Format int

const (
	PNG Format = iota
	JPEG
	GIF
	TIFF
	BMP
)

var formats = []struct {
	f    Format
	name string
	mime string
	ext  string
	img  imaging.Format
}{
	{PNG, "png", "image/png", ".png", imaging.PNG},
	{JPEG, "jpeg", "image/jpeg", ".jpg", imaging.JPEG},
	{GIF, "gif", "image/gif", ".gif", imaging.GIF},
	{TIFF, "tiff", "image/tiff", ".tiff", imaging.TIFF},
	{BMP, "bmp", "image/bmp", ".bmp", imaging.BMP},
}

func (f Format) String() string {
	for _, e := range formats {
		if e.f == f {
			return e.name
		}
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// MIME returns the media type of f.
func (f Format) MIME() string {
	for _, e := range formats {
		if e.f == f {
			return e.mime
		}
	}
	return "application/octet-stream"
}

// Ext returns the preferred file extension of f, including the dot.
func (f Format) Ext() string {
	for _, e := range formats {
		if e.f == f {
			return e.ext
		}
	}
	return ""
}

func (f Format) imaging() (imaging.Format, error) {
	for _, e := range formats {
		if e.f == f {
			return e.img, nil
		}
	}
	return 0, fmt.Errorf("%v: %w", f, ErrUnsupportedFormat)
}

// ParseFormat maps a name such as "png", "jpg" or ".tiff" to a Format.
func ParseFormat(name string) (Format, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return PNG, nil
	}
	if !strings.HasPrefix(n, ".") {
		n = "." + n
	}
	f, err := imaging.FormatFromExtension(n)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", name, ErrUnsupportedFormat)
	}
	for _, e := range formats {
		if e.img == f {
			return e.f, nil
		}
	}
	return 0, fmt.Errorf("%q: %w", name, ErrUnsupportedFormat)
}

// FormatFromFilename picks the format for path from its extension, falling
// back to def when the extension is missing or unknown.
func FormatFromFilename(path string, def Format) Format {
	ext := filepath.Ext(path)
	if ext == "" {
		return def
	}
	f, err := ParseFormat(ext)
	if err != nil {
		return def
	}
	return f
}

// Decode reads an image in any registered format, applying the EXIF
// orientation tag so the result is upright.
func Decode(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return img, nil
}

// Load decodes the image stored at path.
func Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	img, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// Options tune encoding.
type Options struct {
	JPEGQuality int
}

// EncodeOption configures Encode.
type EncodeOption func(*Options)

// WithJPEGQuality sets the JPEG quality in the range 1-100.
func WithJPEGQuality(q int) EncodeOption {
	return func(o *Options) { o.JPEGQuality = q }
}

// Encode writes img to w in format f.
func Encode(w io.Writer, img image.Image, f Format, opts ...EncodeOption) error {
	o := Options{JPEGQuality: 95}
	for _, opt := range opts {
		opt(&o)
	}
	imf, err := f.imaging()
	if err != nil {
		return err
	}
	if err := imaging.Encode(w, img, imf, imaging.JPEGQuality(o.JPEGQuality)); err != nil {
		return fmt.Errorf("encode %v: %w", f, err)
	}
	return nil
}

// Save encodes img to path, choosing the format from the extension.
func Save(path string, img image.Image, opts ...EncodeOption) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Encode(f, img, FormatFromFilename(path, PNG), opts...); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// DataURI returns img encoded as a base64 data URI.
func DataURI(img image.Image, f Format, opts ...EncodeOption) (string, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, img, f, opts...); err != nil {
		return "", err
	}
	return "data:" + f.MIME() + ";base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
