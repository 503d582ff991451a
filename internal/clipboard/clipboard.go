// Package clipboard moves images between the system clipboard and the editor.
package clipboard

import "errors"

var (
	// ErrNoImage is returned when the clipboard holds no image data.
	ErrNoImage = errors.New("clipboard does not contain image data")
	// ErrUnavailable is returned when this build or session has no usable
	// clipboard.
	ErrUnavailable = errors.New("clipboard unavailable")
)
