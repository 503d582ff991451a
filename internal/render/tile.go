package render

import (
	"image"
	"math"
)

// Tile copies the square of buf centred on c with the given half-width
// into a new zero-origin image of side 2*half+1. Coordinates that fall outside
// buf repeat the nearest edge pixel, so a tile near the border of the image is
// never padded with transparent black.
func Tile(buf *image.RGBA, c image.Point, half int) *image.RGBA {
	side := 2*half + 1
	tile := image.NewRGBA(image.Rect(0, 0, side, side))
	b := buf.Bounds()
	if b.Empty() {
		return tile
	}
	ox := c.X - half
	oy := c.Y - half
	for ty := 0; ty < side; ty++ {
		sy := clampInt(oy+ty, b.Min.Y, b.Max.Y-1)
		drow := ty * tile.Stride
		for tx := 0; tx < side; tx++ {
			sx := clampInt(ox+tx, b.Min.X, b.Max.X-1)
			si := buf.PixOffset(sx, sy)
			di := drow + tx*4
			copy(tile.Pix[di:di+4], buf.Pix[si:si+4])
		}
	}
	return tile
}

// circleMask returns the coverage of a disc of radius r centred at (cx, cy) in
// tile coordinates, with a one pixel anti-aliased rim.
func circleMask(side int, cx, cy, r float64) *image.Alpha {
	m := image.NewAlpha(image.Rect(0, 0, side, side))
	for y := 0; y < side; y++ {
		dy := float64(y) - cy
		for x := 0; x < side; x++ {
			dx := float64(x) - cx
			cov := r + 0.5 - math.Hypot(dx, dy)
			switch {
			case cov >= 1:
				m.Pix[y*m.Stride+x] = 0xff
			case cov > 0:
				m.Pix[y*m.Stride+x] = uint8(cov*255 + 0.5)
			}
		}
	}
	return m
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
