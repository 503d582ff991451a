package geom

// Viewport describes where the editor draws a buffer inside its window.
// Offset is stored in buffer pixels so panning is independent of zoom.
type Viewport struct {
	Origin Point
	Zoom   float64
	Offset Point
}

// Identity is the viewport used when device and buffer coordinates coincide,
// e.g. coordinates typed on the command line.
func Identity() Viewport {
	return Viewport{Zoom: 1}
}

// Display returns the on-screen box of a bufW x bufH buffer.
func (v Viewport) Display(bufW, bufH int) Rect {
	z := v.Zoom
	return Rect{
		X: v.Origin.X + v.Offset.X*z,
		Y: v.Origin.Y + v.Offset.Y*z,
		W: float64(bufW) * z,
		H: float64(bufH) * z,
	}
}

// ToBuffer maps a device coordinate into the buffer drawn by v.
func (v Viewport) ToBuffer(device Point, bufW, bufH int) (Point, error) {
	return MapToBuffer(device, v.Display(bufW, bufH), bufW, bufH)
}

// FitZoom returns the zoom that fits a bufW x bufH buffer inside an
// availW x availH area. It never returns zero for a non-empty area.
func FitZoom(bufW, bufH int, availW, availH float64) float64 {
	if bufW <= 0 || bufH <= 0 || availW <= 0 || availH <= 0 {
		return 1
	}
	zx := availW / float64(bufW)
	zy := availH / float64(bufH)
	if zx < zy {
		return zx
	}
	return zy
}
