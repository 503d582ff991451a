// Package render blurs circular and capsule shaped regions of an RGBA buffer
// in place.
package render

import (
	"fmt"
	"image"
	"math"

	"github.com/example/blurbrush/internal/geom"
	"github.com/example/blurbrush/internal/region"
)

// Compositor applies localized blurs to a working buffer. It holds no
// per-buffer state and may be shared between sessions, but a single buffer must
// not be composited from two goroutines at once.
type Compositor struct {
	exactLimit float64
}

// Option configures a Compositor.
type Option func(*Compositor)

// WithExactLimit sets the largest strength that uses the exact Gaussian
// kernel. Larger strengths use the box approximation.
func WithExactLimit(limit float64) Option {
	return func(c *Compositor) { c.exactLimit = limit }
}

// New returns a Compositor configured by opts.
func New(opts ...Option) *Compositor {
	c := &Compositor{exactLimit: DefaultExactLimit}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Apply blurs reg into buf. Lines are realised as successive circular
// applications along the segment, so every sample compounds on the previous
// ones exactly as a brush stroke would.
func (c *Compositor) Apply(buf *image.RGBA, reg region.Region) error {
	if err := reg.Validate(); err != nil {
		return fmt.Errorf("apply %v: %w", reg.Kind, err)
	}
	for _, p := range region.Samples(reg) {
		c.ApplyCircle(buf, p, reg.Radius, reg.Strength)
	}
	return nil
}

// ApplyAll applies regs to buf in order, stopping at the first invalid region.
func (c *Compositor) ApplyAll(buf *image.RGBA, regs []region.Region) error {
	for i, reg := range regs {
		if err := c.Apply(buf, reg); err != nil {
			return fmt.Errorf("region %d: %w", i, err)
		}
	}
	return nil
}

// ApplyCircle replaces the disc of the given radius around center with a
// blurred version of itself. The blur reads from a tile padded by three
// standard deviations on every side, so the rim of the disc blends into the
// surrounding pixels. Discs that miss buf entirely are ignored.
func (c *Compositor) ApplyCircle(buf *image.RGBA, center geom.Point, radius, strength float64) {
	b := buf.Bounds()
	if b.Empty() || radius <= 0 || strength <= 0 {
		return
	}
	if center.X+radius < float64(b.Min.X) || center.X-radius > float64(b.Max.X-1) ||
		center.Y+radius < float64(b.Min.Y) || center.Y-radius > float64(b.Max.Y-1) {
		return
	}

	ci := center.Image()
	rr := int(math.Ceil(radius))
	pad := Padding(strength)
	half := rr + pad
	side := 2*half + 1

	tile := Tile(buf, ci, half)
	blurred := Blur(tile, strength, c.exactLimit)
	mask := circleMask(side, float64(half)+center.X-float64(ci.X), float64(half)+center.Y-float64(ci.Y), radius)

	ox := ci.X - half
	oy := ci.Y - half
	for ty := pad - 1; ty <= side-pad; ty++ {
		by := oy + ty
		if ty < 0 || ty >= side || by < b.Min.Y || by >= b.Max.Y {
			continue
		}
		for tx := pad - 1; tx <= side-pad; tx++ {
			bx := ox + tx
			if tx < 0 || tx >= side || bx < b.Min.X || bx >= b.Max.X {
				continue
			}
			a := uint32(mask.Pix[ty*mask.Stride+tx])
			if a == 0 {
				continue
			}
			si := blurred.PixOffset(tx, ty)
			di := buf.PixOffset(bx, by)
			if a == 0xff {
				copy(buf.Pix[di:di+4], blurred.Pix[si:si+4])
				continue
			}
			for k := 0; k < 4; k++ {
				s := uint32(blurred.Pix[si+k])
				d := uint32(buf.Pix[di+k])
				buf.Pix[di+k] = uint8((s*a + d*(0xff-a) + 0x7f) / 0xff)
			}
		}
	}
}
