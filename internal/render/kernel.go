package render

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/convolution"
)

// DefaultExactLimit is the largest strength blurred with a true Gaussian
// kernel. Above it the blur is approximated by three box passes whose cost
// does not grow with the strength.
const DefaultExactLimit = 8.0

// boxPasses is the number of box passes used to approximate a Gaussian.
const boxPasses = 3

// Padding returns the margin a tile needs around a region of the given
// strength so that kernel samples never run off the tile. The Gaussian
// support is truncated at three standard deviations.
func Padding(strength float64) int {
	if strength <= 0 {
		return 0
	}
	return int(math.Ceil(strength * 3))
}

// gaussianKernel1D returns a horizontal Gaussian kernel with standard deviation
// sigma and half-width ceil(3*sigma).
func gaussianKernel1D(sigma float64) *convolution.Kernel {
	half := Padding(sigma)
	length := 2*half + 1
	k := convolution.NewKernel(length, 1)
	twoSigmaSq := 2 * sigma * sigma
	for i := 0; i < length; i++ {
		x := float64(i - half)
		k.Matrix[i] = math.Exp(-(x * x) / twoSigmaSq)
	}
	return k
}

// Blur returns a blurred copy of src using a Gaussian with standard deviation
// strength. Pixels beyond the edges of src are treated as copies of the
// nearest edge pixel.
func Blur(src *image.RGBA, strength, exactLimit float64) *image.RGBA {
	if strength <= 0 || src.Bounds().Empty() {
		return clone.AsRGBA(src)
	}
	if strength <= exactLimit {
		return gaussianBlur(src, strength)
	}
	out := src
	for _, size := range boxSizesForGauss(strength, boxPasses) {
		out = boxBlur(out, (size-1)/2)
	}
	if out == src {
		return clone.AsRGBA(src)
	}
	return out
}

func gaussianBlur(src *image.RGBA, sigma float64) *image.RGBA {
	k := gaussianKernel1D(sigma).Normalized()
	opts := convolution.Options{Bias: 0, Wrap: false, KeepAlpha: false}
	out := convolution.Convolve(src, k, &opts)
	return convolution.Convolve(out, k.Transposed(), &opts)
}

// boxSizesForGauss returns n odd box widths whose successive application has
// the same variance as a Gaussian with standard deviation sigma.
func boxSizesForGauss(sigma float64, n int) []int {
	fn := float64(n)
	wIdeal := math.Sqrt(12*sigma*sigma/fn + 1)
	wl := int(math.Floor(wIdeal))
	if wl%2 == 0 {
		wl--
	}
	if wl < 1 {
		wl = 1
	}
	wu := wl + 2
	fwl := float64(wl)
	mIdeal := (12*sigma*sigma - fn*fwl*fwl - 4*fn*fwl - 3*fn) / (-4*fwl - 4)
	m := int(math.Round(mIdeal))
	sizes := make([]int, n)
	for i := range sizes {
		if i < m {
			sizes[i] = wl
		} else {
			sizes[i] = wu
		}
	}
	return sizes
}

// boxBlur runs a horizontal then a vertical running-sum box filter of the
// given radius over every channel of src. Samples outside src repeat the edge
// pixel.
func boxBlur(src *image.RGBA, radius int) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if radius <= 0 {
		return clone.AsRGBA(src)
	}
	tmp := image.NewRGBA(b)
	dst := image.NewRGBA(b)
	line := make([]int, max(w, h))
	prefix := make([]int, max(w, h)+1)

	for y := 0; y < h; y++ {
		row := y * src.Stride
		for c := 0; c < 4; c++ {
			for x := 0; x < w; x++ {
				line[x] = int(src.Pix[row+x*4+c])
			}
			boxLine(line[:w], prefix, radius, func(x, v int) { tmp.Pix[row+x*4+c] = uint8(v) })
		}
	}

	for x := 0; x < w; x++ {
		for c := 0; c < 4; c++ {
			for y := 0; y < h; y++ {
				line[y] = int(tmp.Pix[y*tmp.Stride+x*4+c])
			}
			boxLine(line[:h], prefix, radius, func(y, v int) { dst.Pix[y*dst.Stride+x*4+c] = uint8(v) })
		}
	}
	return dst
}

// boxLine averages a (2*radius+1)-wide window centred on every sample of vals,
// clamping indices to the ends of vals, and passes the rounded means to set.
func boxLine(vals, prefix []int, radius int, set func(i, v int)) {
	n := len(vals)
	prefix[0] = 0
	for i, v := range vals {
		prefix[i+1] = prefix[i] + v
	}
	width := 2*radius + 1
	for i := 0; i < n; i++ {
		lo := i - radius
		hi := i + radius
		sum := 0
		if lo < 0 {
			sum += -lo * vals[0]
			lo = 0
		}
		if hi > n-1 {
			sum += (hi - (n - 1)) * vals[n-1]
			hi = n - 1
		}
		sum += prefix[hi+1] - prefix[lo]
		set(i, (sum+width/2)/width)
	}
}
